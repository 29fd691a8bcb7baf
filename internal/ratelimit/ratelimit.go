// Package ratelimit implements a fixed-window, presence-based limiter: a
// marker key valid for one window blocks every call after the first. No
// counts, no sliding window.
package ratelimit

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/phenopredict/phenogate/internal/kv"
)

const keyPrefix = "lim:"

type Limiter struct {
	store  kv.Store
	window time.Duration
	log    *zap.Logger
}

func New(store kv.Store, window time.Duration, log *zap.Logger) *Limiter {
	if window <= 0 {
		window = time.Second
	}
	return &Limiter{store: store, window: window, log: log.Named("ratelimit")}
}

// Allow reports whether key may proceed inside the current window. The first
// caller in a window writes the marker and passes; later callers are blocked
// until the marker expires. A blocked call never refreshes the marker, so a
// limited caller cannot extend its own block.
//
// Store failures fail open: limiting is advisory state, and an unreachable
// cache must not block legitimate traffic.
func (l *Limiter) Allow(ctx context.Context, key string) bool {
	k := keyPrefix + key
	_, err := l.store.Get(ctx, k)
	if err == nil {
		return false
	}
	if !errors.Is(err, kv.ErrNotFound) {
		l.log.Warn("store unavailable, failing open", zap.Error(err))
		return true
	}
	if err := l.store.Set(ctx, k, "1", l.window); err != nil {
		l.log.Warn("store unavailable, failing open", zap.Error(err))
	}
	return true
}
