package result

import (
	"context"
	"sync"

	"github.com/phenopredict/phenogate/internal/task"
)

// Memory is an in-process Store for tests. Retention is not simulated;
// records live until the store is discarded.
type Memory struct {
	mu   sync.RWMutex
	recs map[string]Record
}

func NewMemory() *Memory {
	return &Memory{recs: make(map[string]Record)}
}

func (s *Memory) CreatePending(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs[id] = Record{Status: task.StatusPending}
	return nil
}

func (s *Memory) MarkStarted(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs[id] = Record{Status: task.StatusStarted}
	return nil
}

func (s *Memory) Complete(_ context.Context, id string, status task.Status, res task.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs[id] = Record{Status: status, Result: &res}
	return nil
}

func (s *Memory) Get(_ context.Context, id string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.recs[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}
