package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey is the list holding pending tasks.
const DefaultRedisKey = "leadcapture:tasks"

// DefaultPollTimeout bounds each BRPOP so consumers notice cancellation.
// Redis does not accept timeouts below one second.
const DefaultPollTimeout = time.Second

// RedisQueue stores tasks as JSON in a Redis list: LPUSH on enqueue, BRPOP on
// dequeue, so the oldest task is served first. Pending tasks survive a
// restart of the process.
type RedisQueue struct {
	client      *redis.Client
	key         string
	pollTimeout time.Duration
}

// RedisOption configures a RedisQueue.
type RedisOption func(*RedisQueue)

// WithPollTimeout sets how long one BRPOP may block.
func WithPollTimeout(d time.Duration) RedisOption {
	return func(q *RedisQueue) { q.pollTimeout = d }
}

// NewRedisQueue creates a queue on the list key. The queue owns client and
// closes it on Close.
func NewRedisQueue(client *redis.Client, key string, opts ...RedisOption) *RedisQueue {
	if key == "" {
		key = DefaultRedisKey
	}
	q := &RedisQueue{
		client:      client,
		key:         key,
		pollTimeout: DefaultPollTimeout,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Ping checks that the server is reachable.
func (q *RedisQueue) Ping(ctx context.Context) error {
	return q.client.Ping(ctx).Err()
}

// Enqueue pushes t at the head of the list.
func (q *RedisQueue) Enqueue(ctx context.Context, t *Task) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("dispatch: encode task: %w", err)
	}
	if err := q.client.LPush(ctx, q.key, data).Err(); err != nil {
		return fmt.Errorf("dispatch: lpush %s: %w", q.key, err)
	}
	return nil
}

// Dequeue pops from the tail of the list, polling until a task arrives or ctx
// is done.
func (q *RedisQueue) Dequeue(ctx context.Context) (*Task, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		result, err := q.client.BRPop(ctx, q.pollTimeout, q.key).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			if errors.Is(err, redis.ErrClosed) {
				return nil, ErrQueueClosed
			}
			return nil, fmt.Errorf("dispatch: brpop %s: %w", q.key, err)
		}

		// result is [key, value].
		if len(result) < 2 {
			continue
		}

		var t Task
		if err := json.Unmarshal([]byte(result[1]), &t); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrMalformedTask, err.Error())
		}
		return &t, nil
	}
}

// Len returns the length of the list.
func (q *RedisQueue) Len(ctx context.Context) (int, error) {
	n, err := q.client.LLen(ctx, q.key).Result()
	if err != nil {
		return 0, fmt.Errorf("dispatch: llen %s: %w", q.key, err)
	}
	return int(n), nil
}

// Close closes the Redis client.
func (q *RedisQueue) Close() error {
	return q.client.Close()
}
