// Package worker runs the claim loop: pull a task from a bound queue, mark
// it STARTED, invoke the registered handler, record the terminal status.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/phenopredict/phenogate/internal/metrics"
	"github.com/phenopredict/phenogate/internal/queue"
	"github.com/phenopredict/phenogate/internal/result"
	"github.com/phenopredict/phenogate/internal/task"
)

type Config struct {
	// Queues the worker binds to. Binding is explicit so task classes stay
	// isolated; there is no bind-everything default.
	Queues      []string
	Concurrency int
	// Block is how long one Consume call waits before re-polling.
	Block time.Duration
}

type Worker struct {
	broker   queue.Broker
	results  result.Store
	registry *task.Registry
	cfg      Config
	met      *metrics.Metrics
	log      *zap.Logger
}

func New(broker queue.Broker, results result.Store, registry *task.Registry, cfg Config, met *metrics.Metrics, log *zap.Logger) (*Worker, error) {
	if len(cfg.Queues) == 0 {
		return nil, errors.New("worker: at least one queue binding required")
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.Block <= 0 {
		cfg.Block = 5 * time.Second
	}
	return &Worker{
		broker:   broker,
		results:  results,
		registry: registry,
		cfg:      cfg,
		met:      met,
		log:      log.Named("worker"),
	}, nil
}

// Run blocks until ctx is cancelled, consuming with cfg.Concurrency slots.
// Each slot handles one task at a time.
func (w *Worker) Run(ctx context.Context) error {
	w.log.Info("worker starting",
		zap.Strings("queues", w.cfg.Queues), zap.Int("concurrency", w.cfg.Concurrency))

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < w.cfg.Concurrency; i++ {
		slot := i
		g.Go(func() error {
			return w.runSlot(ctx, slot)
		})
	}
	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (w *Worker) runSlot(ctx context.Context, slot int) error {
	log := w.log.With(zap.Int("slot", slot))
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		d, err := w.broker.Consume(ctx, w.cfg.Queues, w.cfg.Block)
		if errors.Is(err, queue.ErrNoMessage) {
			continue
		}
		if errors.Is(err, queue.ErrClosed) || errors.Is(err, context.Canceled) {
			return nil
		}
		if err != nil {
			log.Warn("consume failed", zap.Error(err))
			continue
		}
		w.handle(ctx, log, d)
	}
}

func (w *Worker) handle(ctx context.Context, log *zap.Logger, d queue.Delivery) {
	var t task.Task
	if err := json.Unmarshal(d.Body, &t); err != nil {
		// No task id to report against; all we can do is log.
		log.Error("undecodable message dropped",
			zap.String("queue", d.Queue), zap.Error(err))
		return
	}
	log = log.With(zap.String("task_id", t.ID), zap.String("task", t.Name))

	if err := w.results.MarkStarted(ctx, t.ID); err != nil {
		log.Warn("mark started failed", zap.Error(err))
	}

	status, res := w.invoke(ctx, log, t)
	if err := w.results.Complete(ctx, t.ID, status, res); err != nil {
		log.Error("record result failed", zap.Error(err))
		return
	}
	w.met.TasksCompleted.WithLabelValues(string(status)).Inc()
	log.Info("task finished", zap.String("status", string(status)), zap.Bool("ok", res.OK))
}

// invoke runs the handler for t. A handler that returns — even with an
// embedded error payload — yields SUCCESS; downstream failures are data.
// FAILURE is reserved for framework faults: an unregistered name or a panic
// inside the handler.
func (w *Worker) invoke(ctx context.Context, log *zap.Logger, t task.Task) (status task.Status, res task.Result) {
	h, ok := w.registry.Lookup(t.Name)
	if !ok {
		return task.StatusFailure, task.Fail(fmt.Sprintf("no handler registered for task %q", t.Name))
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error("handler panic", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
			status = task.StatusFailure
			res = task.Fail(fmt.Sprintf("handler panic: %v", r))
		}
	}()

	return task.StatusSuccess, h(ctx, t.Payload)
}
