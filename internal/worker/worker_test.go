package worker

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/phenopredict/phenogate/internal/metrics"
	"github.com/phenopredict/phenogate/internal/queue"
	"github.com/phenopredict/phenogate/internal/result"
	"github.com/phenopredict/phenogate/internal/task"
)

type fixture struct {
	broker  *queue.Memory
	results *result.Memory
}

func startWorker(t *testing.T, queues []string, reg *task.Registry) *fixture {
	t.Helper()
	broker := queue.NewMemory()
	results := result.NewMemory()

	w, err := New(broker, results, reg, Config{
		Queues:      queues,
		Concurrency: 1,
		Block:       50 * time.Millisecond,
	}, metrics.New(), zap.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
		broker.Close()
	})
	return &fixture{broker: broker, results: results}
}

func publish(t *testing.T, f *fixture, tsk task.Task) {
	t.Helper()
	require.NoError(t, f.results.CreatePending(context.Background(), tsk.ID))
	body, err := json.Marshal(tsk)
	require.NoError(t, err)
	require.NoError(t, f.broker.Publish(context.Background(), tsk.Queue, body))
}

func waitTerminal(t *testing.T, f *fixture, id string) result.Record {
	t.Helper()
	var rec result.Record
	require.Eventually(t, func() bool {
		r, err := f.results.Get(context.Background(), id)
		if err != nil {
			return false
		}
		rec = r
		return r.Status == task.StatusSuccess || r.Status == task.StatusFailure
	}, 2*time.Second, 10*time.Millisecond)
	return rec
}

func TestHandlerResultRecordedAsSuccess(t *testing.T) {
	reg := task.NewRegistry()
	reg.Register("auth.login", func(_ context.Context, payload json.RawMessage) task.Result {
		var p map[string]string
		_ = json.Unmarshal(payload, &p)
		return task.Ok(map[string]string{"token": "t-" + p["email"]})
	})
	f := startWorker(t, []string{"auth_queue"}, reg)

	payload, _ := json.Marshal(map[string]string{"email": "a@x.com"})
	publish(t, f, task.Task{ID: "t1", Name: "auth.login", Queue: "auth_queue", Payload: payload})

	rec := waitTerminal(t, f, "t1")
	assert.Equal(t, task.StatusSuccess, rec.Status)
	require.NotNil(t, rec.Result)
	assert.True(t, rec.Result.OK)
}

func TestDownstreamFailureIsDataNotTaskFailure(t *testing.T) {
	reg := task.NewRegistry()
	reg.Register("auth.signup", func(context.Context, json.RawMessage) task.Result {
		return task.Fail("connection refused")
	})
	f := startWorker(t, []string{"auth_queue"}, reg)

	publish(t, f, task.Task{ID: "t2", Name: "auth.signup", Queue: "auth_queue", Payload: []byte(`{}`)})

	rec := waitTerminal(t, f, "t2")
	assert.Equal(t, task.StatusSuccess, rec.Status, "a handler that returns is SUCCESS even with an embedded error")
	require.NotNil(t, rec.Result)
	assert.False(t, rec.Result.OK)
	assert.Equal(t, "connection refused", rec.Result.Error)
}

func TestUnregisteredNameIsFailure(t *testing.T) {
	f := startWorker(t, []string{"default"}, task.NewRegistry())

	publish(t, f, task.Task{ID: "t3", Name: "report.generate", Queue: "default", Payload: []byte(`{}`)})

	rec := waitTerminal(t, f, "t3")
	assert.Equal(t, task.StatusFailure, rec.Status)
	require.NotNil(t, rec.Result)
	assert.Contains(t, rec.Result.Error, "no handler registered")
}

func TestHandlerPanicIsFailure(t *testing.T) {
	reg := task.NewRegistry()
	reg.Register("trait.predict", func(context.Context, json.RawMessage) task.Result {
		panic("nil map write")
	})
	f := startWorker(t, []string{"trait_queue"}, reg)

	publish(t, f, task.Task{ID: "t4", Name: "trait.predict", Queue: "trait_queue", Payload: []byte(`{}`)})

	rec := waitTerminal(t, f, "t4")
	assert.Equal(t, task.StatusFailure, rec.Status)
	require.NotNil(t, rec.Result)
	assert.Contains(t, rec.Result.Error, "handler panic")
}

func TestTaskPassesThroughStarted(t *testing.T) {
	release := make(chan struct{})
	reg := task.NewRegistry()
	reg.Register("auth.verify", func(context.Context, json.RawMessage) task.Result {
		<-release
		return task.Ok(nil)
	})
	f := startWorker(t, []string{"auth_queue"}, reg)

	publish(t, f, task.Task{ID: "t5", Name: "auth.verify", Queue: "auth_queue", Payload: []byte(`{}`)})

	require.Eventually(t, func() bool {
		rec, err := f.results.Get(context.Background(), "t5")
		return err == nil && rec.Status == task.StatusStarted
	}, 2*time.Second, 10*time.Millisecond)

	close(release)
	rec := waitTerminal(t, f, "t5")
	assert.Equal(t, task.StatusSuccess, rec.Status)
}

func TestWorkerIgnoresUnboundQueues(t *testing.T) {
	reg := task.NewRegistry()
	reg.Register("trait.predict", func(context.Context, json.RawMessage) task.Result {
		return task.Ok(nil)
	})
	f := startWorker(t, []string{"auth_queue"}, reg)

	publish(t, f, task.Task{ID: "t6", Name: "trait.predict", Queue: "trait_queue", Payload: []byte(`{}`)})

	time.Sleep(150 * time.Millisecond)
	rec, err := f.results.Get(context.Background(), "t6")
	require.NoError(t, err)
	assert.Equal(t, task.StatusPending, rec.Status, "binding isolation: the auth worker never touches trait traffic")
	assert.Equal(t, 1, f.broker.Len("trait_queue"))
}

func TestNewRequiresQueueBinding(t *testing.T) {
	_, err := New(queue.NewMemory(), result.NewMemory(), task.NewRegistry(), Config{}, metrics.New(), zap.NewNop())
	assert.Error(t, err, "a worker must never bind all queues implicitly")
}
