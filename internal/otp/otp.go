// Package otp issues and verifies single-use, time-limited email
// verification codes on top of the kv store.
package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/phenopredict/phenogate/internal/kv"
)

var (
	// ErrExpired covers both a code that timed out and one that was never
	// issued (or already consumed) — callers cannot tell these apart.
	ErrExpired = errors.New("otp: expired or not found")

	// ErrMismatch means a code exists for the email but does not match.
	// The stored code is left in place.
	ErrMismatch = errors.New("otp: invalid code")
)

const keyPrefix = "otp:"

type Manager struct {
	store kv.Store
	ttl   time.Duration
}

func New(store kv.Store, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = 600 * time.Second
	}
	return &Manager{store: store, ttl: ttl}
}

// Issue generates a fresh 6-digit code for email and stores it, replacing
// any code previously issued for the same address.
func (m *Manager) Issue(ctx context.Context, email string) (string, error) {
	code, err := generateCode()
	if err != nil {
		return "", err
	}
	if err := m.store.Set(ctx, keyPrefix+Normalize(email), code, m.ttl); err != nil {
		return "", err
	}
	return code, nil
}

// Verify checks code against the stored entry for email. On success the
// entry is deleted: a second Verify with the same code fails with ErrExpired.
func (m *Manager) Verify(ctx context.Context, email, code string) error {
	key := keyPrefix + Normalize(email)
	stored, err := m.store.Get(ctx, key)
	if errors.Is(err, kv.ErrNotFound) {
		return ErrExpired
	}
	if err != nil {
		return err
	}
	if stored != strings.TrimSpace(code) {
		return ErrMismatch
	}
	return m.store.Delete(ctx, key)
}

// Normalize maps an email to its canonical key form.
func Normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// generateCode draws a uniform 6-digit code, leading zeros preserved.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
