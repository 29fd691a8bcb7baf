package task

import (
	"sort"
	"strings"
)

// Routes maps task-name prefixes to destination queues. It is built once at
// startup; there is no runtime registration.
type Routes struct {
	prefixes []route
	fallback string
}

type route struct {
	prefix string
	queue  string
}

// NewRoutes builds a routing table from prefix→queue pairs. Longer prefixes
// win when several match. Names matching no prefix route to fallback.
func NewRoutes(table map[string]string, fallback string) *Routes {
	r := &Routes{fallback: fallback}
	for p, q := range table {
		r.prefixes = append(r.prefixes, route{prefix: p, queue: q})
	}
	sort.Slice(r.prefixes, func(i, j int) bool {
		return len(r.prefixes[i].prefix) > len(r.prefixes[j].prefix)
	})
	return r
}

// Resolve returns the queue for name and whether an explicit route matched.
func (r *Routes) Resolve(name string) (string, bool) {
	for _, rt := range r.prefixes {
		if strings.HasPrefix(name, rt.prefix) {
			return rt.queue, true
		}
	}
	return r.fallback, false
}

// Registry maps task names to handlers. Built explicitly at startup so the
// wiring is visible in one place and workers can be handed test doubles.
type Registry struct {
	handlers map[string]Handler
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

func (r *Registry) Register(name string, h Handler) {
	r.handlers[name] = h
}

func (r *Registry) Lookup(name string) (Handler, bool) {
	h, ok := r.handlers[name]
	return h, ok
}
