// Package queue provides the reward job queue consumed by the background worker.
// The HTTP path and the worker share no state other than this queue.
package queue

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// RewardJob is the unit of work handed from the redirect path to the reward
// worker. Amount travels with the job so the per-click rate in force at click
// time is the rate credited.
type RewardJob struct {
	JobID       string    `json:"job_id"`
	ClickID     uint      `json:"click_id"`
	SellerID    string    `json:"seller_id"`
	LinkID      uint      `json:"link_id"`
	AmountCents int64     `json:"amount_cents"`
	EnqueuedAt  time.Time `json:"enqueued_at"`
}

// NewRewardJob builds a job with a fresh UUID job id.
func NewRewardJob(clickID uint, sellerID string, linkID uint, amountCents int64) *RewardJob {
	return &RewardJob{
		JobID:       uuid.New().String(),
		ClickID:     clickID,
		SellerID:    sellerID,
		LinkID:      linkID,
		AmountCents: amountCents,
		EnqueuedAt:  time.Now().UTC(),
	}
}

// Delivery is one dequeued job. Ack removes the job from the queue's
// in-flight tracking; a delivery that is never acked is redelivered according
// to the implementation's recovery policy, so consumers see at-least-once
// semantics and must expect duplicates.
type Delivery struct {
	Job *RewardJob

	ack func(ctx context.Context) error
}

// Ack marks the delivery as processed.
func (d *Delivery) Ack(ctx context.Context) error {
	if d.ack == nil {
		return nil
	}
	return d.ack(ctx)
}

var (
	// ErrQueueClosed is returned by Dequeue once the queue has shut down.
	ErrQueueClosed = errors.New("queue closed")
	// ErrQueueFull is returned by Enqueue when the queue cannot accept the job.
	ErrQueueFull = errors.New("queue full")
)

// RewardQueue is the submission/consumption capability the redirect path and
// the worker are wired with. Two interchangeable implementations exist: a
// Redis-backed durable queue and an in-process queue for local operation,
// selected by configuration.
type RewardQueue interface {
	// Enqueue submits a job and returns without waiting for processing.
	Enqueue(ctx context.Context, job *RewardJob) error
	// Dequeue blocks until a job is available, the context is done, or the
	// queue is closed.
	Dequeue(ctx context.Context) (*Delivery, error)
	// Close releases queue resources; pending Dequeue calls return ErrQueueClosed.
	Close() error
}
