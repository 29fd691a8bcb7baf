package task

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRoutes() *Routes {
	return NewRoutes(map[string]string{
		"auth.":  "auth_queue",
		"trait.": "trait_queue",
	}, "default")
}

func TestRoutesResolve(t *testing.T) {
	r := testRoutes()

	for name, want := range map[string]string{
		"auth.login":    "auth_queue",
		"auth.signup":   "auth_queue",
		"auth.verify":   "auth_queue",
		"trait.predict": "trait_queue",
	} {
		q, routed := r.Resolve(name)
		assert.True(t, routed, name)
		assert.Equal(t, want, q, name)
	}
}

func TestRoutesFallback(t *testing.T) {
	r := testRoutes()

	q, routed := r.Resolve("report.generate")
	assert.False(t, routed)
	assert.Equal(t, "default", q, "unrouted names go to the fallback queue, never nowhere")
}

func TestRoutesLongestPrefixWins(t *testing.T) {
	r := NewRoutes(map[string]string{
		"auth.":       "auth_queue",
		"auth.admin.": "admin_queue",
	}, "default")

	q, routed := r.Resolve("auth.admin.purge")
	require.True(t, routed)
	assert.Equal(t, "admin_queue", q)

	q, _ = r.Resolve("auth.login")
	assert.Equal(t, "auth_queue", q)
}

func TestRegistryLookup(t *testing.T) {
	reg := NewRegistry()
	reg.Register("auth.login", func(context.Context, json.RawMessage) Result {
		return Ok(nil)
	})

	_, ok := reg.Lookup("auth.login")
	assert.True(t, ok)
	_, ok = reg.Lookup("auth.logout")
	assert.False(t, ok)
}
