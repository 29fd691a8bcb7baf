package queue

import (
	"context"
	"errors"
	"strings"
	"time"

	r "github.com/redis/go-redis/v9"
)

type RedisQ struct{ rdb *r.Client }

func NewRedis(rdb *r.Client) *RedisQ { return &RedisQ{rdb} }

func key(queue string) string { return "queue:" + queue }

func (q *RedisQ) Publish(ctx context.Context, queue string, body []byte) error {
	return q.rdb.LPush(ctx, key(queue), body).Err()
}

func (q *RedisQ) Consume(ctx context.Context, queues []string, block time.Duration) (Delivery, error) {
	keys := make([]string, len(queues))
	for i, name := range queues {
		keys[i] = key(name)
	}
	res, err := q.rdb.BRPop(ctx, block, keys...).Result()
	if errors.Is(err, r.Nil) {
		return Delivery{}, ErrNoMessage
	}
	if err != nil {
		return Delivery{}, err
	}
	if len(res) != 2 {
		return Delivery{}, ErrNoMessage
	}
	return Delivery{
		Queue: strings.TrimPrefix(res[0], "queue:"),
		Body:  []byte(res[1]),
	}, nil
}
