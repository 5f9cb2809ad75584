package queue

import (
	"context"
	"sync"
)

// InProcessQueue is a channel-backed reward queue for local and offline
// operation, where no broker is available. Jobs survive only as long as the
// process; durability comes from the Redis implementation in production.
// Dequeued jobs are tracked until acked, so Recover can requeue deliveries a
// consumer dropped, the same at-least-once contract the Redis queue gives.
type InProcessQueue struct {
	jobs chan *RewardJob

	mu       sync.Mutex
	inflight map[string]*RewardJob

	closeOnce sync.Once
	closed    chan struct{}
}

// NewInProcessQueue creates an in-process queue holding at most bufferSize
// undelivered jobs.
func NewInProcessQueue(bufferSize int) *InProcessQueue {
	if bufferSize <= 0 {
		bufferSize = 1024
	}
	return &InProcessQueue{
		jobs:     make(chan *RewardJob, bufferSize),
		inflight: make(map[string]*RewardJob),
		closed:   make(chan struct{}),
	}
}

func (q *InProcessQueue) Enqueue(ctx context.Context, job *RewardJob) error {
	select {
	case <-q.closed:
		return ErrQueueClosed
	default:
	}
	select {
	case q.jobs <- job:
		return nil
	default:
		// Never block the redirect path on a saturated queue.
		return ErrQueueFull
	}
}

func (q *InProcessQueue) Dequeue(ctx context.Context) (*Delivery, error) {
	select {
	case job, ok := <-q.jobs:
		if !ok {
			return nil, ErrQueueClosed
		}
		return q.deliver(job), nil
	case <-q.closed:
		// Drain remaining jobs before reporting closed.
		select {
		case job := <-q.jobs:
			return q.deliver(job), nil
		default:
			return nil, ErrQueueClosed
		}
	case <-ctx.Done():
		return nil, ErrQueueClosed
	}
}

func (q *InProcessQueue) deliver(job *RewardJob) *Delivery {
	q.mu.Lock()
	q.inflight[job.JobID] = job
	q.mu.Unlock()
	return &Delivery{
		Job: job,
		ack: func(context.Context) error {
			q.mu.Lock()
			delete(q.inflight, job.JobID)
			q.mu.Unlock()
			return nil
		},
	}
}

// Recover puts unacked deliveries back on the channel so a restarted consumer
// sees them again. Jobs that no longer fit the buffer stay tracked and are
// reported with ErrQueueFull.
func (q *InProcessQueue) Recover(ctx context.Context) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	moved := 0
	for id, job := range q.inflight {
		select {
		case q.jobs <- job:
			delete(q.inflight, id)
			moved++
		default:
			return moved, ErrQueueFull
		}
	}
	return moved, nil
}

func (q *InProcessQueue) Close() error {
	q.closeOnce.Do(func() {
		close(q.closed)
	})
	return nil
}
