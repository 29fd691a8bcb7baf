package otp

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phenopredict/phenogate/internal/kv"
)

func TestIssueThenVerifySucceedsOnce(t *testing.T) {
	ctx := context.Background()
	m := New(kv.NewMemory(), 10*time.Minute)

	code, err := m.Issue(ctx, "alice@example.com")
	require.NoError(t, err)

	require.NoError(t, m.Verify(ctx, "alice@example.com", code))

	// Single-use: the entry is gone, so the same code now reads as expired.
	err = m.Verify(ctx, "alice@example.com", code)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestVerifyWrongCodeKeepsEntry(t *testing.T) {
	ctx := context.Background()
	m := New(kv.NewMemory(), 10*time.Minute)

	code, err := m.Issue(ctx, "bob@example.com")
	require.NoError(t, err)

	err = m.Verify(ctx, "bob@example.com", "000000x")
	assert.ErrorIs(t, err, ErrMismatch)

	// The stored code survived the failed attempt.
	require.NoError(t, m.Verify(ctx, "bob@example.com", code))
}

func TestVerifyNeverIssued(t *testing.T) {
	m := New(kv.NewMemory(), 10*time.Minute)
	err := m.Verify(context.Background(), "ghost@example.com", "123456")
	assert.ErrorIs(t, err, ErrExpired)
}

func TestVerifyAfterTTL(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	now := time.Now()
	store.SetClock(func() time.Time { return now })
	m := New(store, 10*time.Minute)

	code, err := m.Issue(ctx, "carol@example.com")
	require.NoError(t, err)

	now = now.Add(10*time.Minute + time.Second)
	err = m.Verify(ctx, "carol@example.com", code)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestReissueOverwrites(t *testing.T) {
	ctx := context.Background()
	m := New(kv.NewMemory(), 10*time.Minute)

	first, err := m.Issue(ctx, "dave@example.com")
	require.NoError(t, err)
	second, err := m.Issue(ctx, "dave@example.com")
	require.NoError(t, err)

	if first != second {
		assert.ErrorIs(t, m.Verify(ctx, "dave@example.com", first), ErrMismatch)
	}
	require.NoError(t, m.Verify(ctx, "dave@example.com", second))
}

func TestEmailNormalization(t *testing.T) {
	ctx := context.Background()
	m := New(kv.NewMemory(), 10*time.Minute)

	code, err := m.Issue(ctx, "  Eve@Example.COM ")
	require.NoError(t, err)
	require.NoError(t, m.Verify(ctx, "eve@example.com", code))
}

func TestCodeShape(t *testing.T) {
	ctx := context.Background()
	m := New(kv.NewMemory(), 10*time.Minute)

	six := regexp.MustCompile(`^\d{6}$`)
	for i := 0; i < 50; i++ {
		code, err := m.Issue(ctx, "shape@example.com")
		require.NoError(t, err)
		assert.Regexp(t, six, code, "codes are zero-padded to six digits")
	}
}
