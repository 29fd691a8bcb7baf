package result

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	r "github.com/redis/go-redis/v9"

	"github.com/phenopredict/phenogate/internal/task"
)

const keyPrefix = "task:"

type Redis struct {
	rdb *r.Client
	ttl time.Duration
}

func NewRedis(rdb *r.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = 3600 * time.Second
	}
	return &Redis{rdb: rdb, ttl: ttl}
}

func (s *Redis) CreatePending(ctx context.Context, id string) error {
	return s.write(ctx, id, Record{Status: task.StatusPending})
}

func (s *Redis) MarkStarted(ctx context.Context, id string) error {
	return s.write(ctx, id, Record{Status: task.StatusStarted})
}

func (s *Redis) Complete(ctx context.Context, id string, status task.Status, res task.Result) error {
	return s.write(ctx, id, Record{Status: status, Result: &res})
}

func (s *Redis) Get(ctx context.Context, id string) (Record, error) {
	raw, err := s.rdb.Get(ctx, keyPrefix+id).Result()
	if errors.Is(err, r.Nil) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, err
	}
	var rec Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}

func (s *Redis) write(ctx context.Context, id string, rec Record) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.rdb.SetEx(ctx, keyPrefix+id, b, s.ttl).Err()
}
