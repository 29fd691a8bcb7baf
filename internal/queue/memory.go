package queue

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process Broker for tests and single-node development.
// FIFO per queue, same blocking-consume contract as the Redis broker.
type Memory struct {
	mu     sync.Mutex
	items  map[string][][]byte
	wake   chan struct{}
	closed bool
}

func NewMemory() *Memory {
	return &Memory{
		items: make(map[string][][]byte),
		wake:  make(chan struct{}),
	}
}

func (q *Memory) Publish(_ context.Context, queue string, body []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrClosed
	}
	q.items[queue] = append(q.items[queue], body)
	close(q.wake)
	q.wake = make(chan struct{})
	return nil
}

func (q *Memory) Consume(ctx context.Context, queues []string, block time.Duration) (Delivery, error) {
	deadline := time.NewTimer(block)
	defer deadline.Stop()

	for {
		q.mu.Lock()
		if q.closed {
			q.mu.Unlock()
			return Delivery{}, ErrClosed
		}
		for _, name := range queues {
			if buf := q.items[name]; len(buf) > 0 {
				body := buf[0]
				q.items[name] = buf[1:]
				q.mu.Unlock()
				return Delivery{Queue: name, Body: body}, nil
			}
		}
		wake := q.wake
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return Delivery{}, ctx.Err()
		case <-deadline.C:
			return Delivery{}, ErrNoMessage
		case <-wake:
		}
	}
}

// Len reports the number of undelivered messages on a queue. Test use only.
func (q *Memory) Len(queue string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items[queue])
}

func (q *Memory) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.wake)
}
