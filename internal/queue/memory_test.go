package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryPublishConsumeFIFO(t *testing.T) {
	ctx := context.Background()
	q := NewMemory()
	defer q.Close()

	require.NoError(t, q.Publish(ctx, "auth_queue", []byte("one")))
	require.NoError(t, q.Publish(ctx, "auth_queue", []byte("two")))

	d, err := q.Consume(ctx, []string{"auth_queue"}, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "auth_queue", d.Queue)
	assert.Equal(t, []byte("one"), d.Body)

	d, err = q.Consume(ctx, []string{"auth_queue"}, time.Second)
	require.NoError(t, err)
	assert.Equal(t, []byte("two"), d.Body)
}

func TestMemoryConsumeOnlyBoundQueues(t *testing.T) {
	ctx := context.Background()
	q := NewMemory()
	defer q.Close()

	require.NoError(t, q.Publish(ctx, "trait_queue", []byte("heavy")))

	_, err := q.Consume(ctx, []string{"auth_queue"}, 50*time.Millisecond)
	assert.ErrorIs(t, err, ErrNoMessage)
	assert.Equal(t, 1, q.Len("trait_queue"), "message on an unbound queue stays put")
}

func TestMemoryConsumeMultipleQueues(t *testing.T) {
	ctx := context.Background()
	q := NewMemory()
	defer q.Close()

	require.NoError(t, q.Publish(ctx, "trait_queue", []byte("x")))

	d, err := q.Consume(ctx, []string{"auth_queue", "trait_queue"}, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "trait_queue", d.Queue)
}

func TestMemoryConsumeBlocksUntilPublish(t *testing.T) {
	ctx := context.Background()
	q := NewMemory()
	defer q.Close()

	go func() {
		time.Sleep(20 * time.Millisecond)
		_ = q.Publish(ctx, "auth_queue", []byte("late"))
	}()

	d, err := q.Consume(ctx, []string{"auth_queue"}, time.Second)
	require.NoError(t, err)
	assert.Equal(t, []byte("late"), d.Body)
}

func TestMemoryConsumeTimeout(t *testing.T) {
	q := NewMemory()
	defer q.Close()

	start := time.Now()
	_, err := q.Consume(context.Background(), []string{"auth_queue"}, 50*time.Millisecond)
	assert.ErrorIs(t, err, ErrNoMessage)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestMemoryConsumeCancelled(t *testing.T) {
	q := NewMemory()
	defer q.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := q.Consume(ctx, []string{"auth_queue"}, time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemoryClosed(t *testing.T) {
	q := NewMemory()
	q.Close()

	assert.ErrorIs(t, q.Publish(context.Background(), "auth_queue", []byte("x")), ErrClosed)
	_, err := q.Consume(context.Background(), []string{"auth_queue"}, time.Second)
	assert.ErrorIs(t, err, ErrClosed)
}
