package kv

import (
	"context"
	"errors"
	"time"

	r "github.com/redis/go-redis/v9"
)

type Redis struct{ rdb *r.Client }

func NewRedis(rdb *r.Client) *Redis { return &Redis{rdb} }

func (s *Redis) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.rdb.SetEx(ctx, key, value, ttl).Err()
}

func (s *Redis) Get(ctx context.Context, key string) (string, error) {
	v, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, r.Nil) {
		return "", ErrNotFound
	}
	return v, err
}

func (s *Redis) Delete(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}
