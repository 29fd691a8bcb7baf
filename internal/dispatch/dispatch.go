// Package dispatch owns the enqueue path: route the task name, assign an id,
// record PENDING, publish to the broker.
package dispatch

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/phenopredict/phenogate/internal/metrics"
	"github.com/phenopredict/phenogate/internal/queue"
	"github.com/phenopredict/phenogate/internal/result"
	"github.com/phenopredict/phenogate/internal/task"
)

type Dispatcher struct {
	broker  queue.Broker
	results result.Store
	routes  *task.Routes
	met     *metrics.Metrics
	log     *zap.Logger
}

func New(broker queue.Broker, results result.Store, routes *task.Routes, met *metrics.Metrics, log *zap.Logger) *Dispatcher {
	return &Dispatcher{
		broker:  broker,
		results: results,
		routes:  routes,
		met:     met,
		log:     log.Named("dispatch"),
	}
}

// Enqueue publishes one task and returns its id. The PENDING record is
// written before the message is published, so the id is already visible to
// the polling endpoint when Enqueue returns.
func (d *Dispatcher) Enqueue(ctx context.Context, name string, payload any) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	queueName, routed := d.routes.Resolve(name)
	if !routed {
		d.log.Warn("no route for task name, using fallback queue",
			zap.String("task", name), zap.String("queue", queueName))
	}

	t := task.Task{
		ID:      uuid.NewString(),
		Name:    name,
		Queue:   queueName,
		Payload: body,
	}
	msg, err := json.Marshal(t)
	if err != nil {
		return "", err
	}

	if err := d.results.CreatePending(ctx, t.ID); err != nil {
		return "", err
	}
	if err := d.broker.Publish(ctx, queueName, msg); err != nil {
		return "", err
	}

	d.met.TasksEnqueued.WithLabelValues(queueName).Inc()
	d.log.Info("task enqueued",
		zap.String("task_id", t.ID), zap.String("task", name), zap.String("queue", queueName))
	return t.ID, nil
}
