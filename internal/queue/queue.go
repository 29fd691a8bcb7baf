// Package queue is the named-queue broker between the gateway and workers.
package queue

import (
	"context"
	"errors"
	"time"
)

// ErrNoMessage is returned by Consume when the blocking window elapses with
// nothing to deliver.
var ErrNoMessage = errors.New("queue: no message")

// ErrClosed is returned once the broker has been shut down.
var ErrClosed = errors.New("queue: closed")

// Delivery is one message pulled off a queue.
type Delivery struct {
	Queue string
	Body  []byte
}

type Broker interface {
	Publish(ctx context.Context, queue string, body []byte) error
	// Consume blocks up to block waiting for a message on any of the named
	// queues. Binding is explicit: a worker sees only the queues it asked for.
	Consume(ctx context.Context, queues []string, block time.Duration) (Delivery, error)
}
