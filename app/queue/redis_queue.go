package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisQueue is a durable reward queue on a Redis list. Enqueue pushes onto
// the pending list; Dequeue moves the payload atomically onto a processing
// list (BLMOVE) and Ack removes it from there (LREM). A job whose worker dies
// before acking stays on the processing list and is requeued by Recover on
// the next worker start, which gives at-least-once delivery.
type RedisQueue struct {
	client         *redis.Client
	pendingKey     string
	processingKey  string
	dequeueTimeout time.Duration
}

// NewRedisQueue creates a Redis-backed reward queue. keyPrefix namespaces the
// two lists, e.g. "sharelinks:" yields "sharelinks:reward_jobs" and
// "sharelinks:reward_jobs:processing".
func NewRedisQueue(client *redis.Client, keyPrefix string, dequeueTimeout time.Duration) *RedisQueue {
	if dequeueTimeout <= 0 {
		dequeueTimeout = 5 * time.Second
	}
	base := keyPrefix + "reward_jobs"
	return &RedisQueue{
		client:         client,
		pendingKey:     base,
		processingKey:  base + ":processing",
		dequeueTimeout: dequeueTimeout,
	}
}

func (q *RedisQueue) Enqueue(ctx context.Context, job *RewardJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal reward job: %w", err)
	}
	if err := q.client.LPush(ctx, q.pendingKey, payload).Err(); err != nil {
		return fmt.Errorf("failed to enqueue reward job: %w", err)
	}
	return nil
}

func (q *RedisQueue) Dequeue(ctx context.Context) (*Delivery, error) {
	raw, err := q.client.BLMove(ctx, q.pendingKey, q.processingKey, "RIGHT", "LEFT", q.dequeueTimeout).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			// No job within the timeout; let the caller loop.
			return nil, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrQueueClosed
		}
		return nil, fmt.Errorf("failed to dequeue reward job: %w", err)
	}

	var job RewardJob
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		// Drop the malformed payload from the processing list so it cannot
		// wedge recovery forever.
		_ = q.client.LRem(ctx, q.processingKey, 1, raw).Err()
		return nil, fmt.Errorf("failed to decode reward job payload: %w", err)
	}

	return &Delivery{
		Job: &job,
		ack: func(ackCtx context.Context) error {
			return q.client.LRem(ackCtx, q.processingKey, 1, raw).Err()
		},
	}, nil
}

// Recover moves jobs left on the processing list by a previous run back onto
// the pending list. Called once at worker startup, before consuming.
func (q *RedisQueue) Recover(ctx context.Context) (int, error) {
	moved := 0
	for {
		_, err := q.client.LMove(ctx, q.processingKey, q.pendingKey, "RIGHT", "RIGHT").Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return moved, nil
			}
			return moved, fmt.Errorf("failed to recover in-flight reward jobs: %w", err)
		}
		moved++
	}
}

func (q *RedisQueue) Close() error {
	// The redis client is shared with the cache; ownership stays with main.
	return nil
}
