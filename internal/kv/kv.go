// Package kv provides the ephemeral TTL-keyed string store backing OTP
// entries and rate-limit markers. Expiry is owned by the store itself: a key
// visible to Get has not outlived its TTL.
package kv

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get when the key is absent or expired.
var ErrNotFound = errors.New("kv: key not found")

type Store interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}
