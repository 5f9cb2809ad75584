// Package worker runs the background consumers of the reward queue
package worker

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"sync"
	"time"

	businessflow "github.com/gigshare/sharelinks/business_flow"
	"github.com/gigshare/sharelinks/config"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/gigshare/sharelinks/app/queue"
)

// Recoverer is implemented by queues that track in-flight jobs across
// restarts. The worker requeues orphans once at startup before consuming.
type Recoverer interface {
	Recover(ctx context.Context) (int, error)
}

// RewardWorker consumes reward jobs from the queue and hands each to the
// processing flow. A job is acked only after the flow commits its outcome,
// so a crash or a reconciliation failure leaves the job in flight for
// redelivery
type RewardWorker struct {
	q       queue.RewardQueue
	flow    businessflow.RewardProcessingFlow
	logger  *log.Logger
	workers int

	jobTimeout time.Duration
}

func NewRewardWorker(q queue.RewardQueue, flow businessflow.RewardProcessingFlow, cfg *config.RewardConfig, logCfg *config.LoggingConfig) *RewardWorker {
	workers := 1
	jobTimeout := 30 * time.Second
	if cfg != nil {
		if cfg.WorkerCount > 0 {
			workers = cfg.WorkerCount
		}
		if cfg.JobTimeout > 0 {
			jobTimeout = cfg.JobTimeout
		}
	}

	w := &RewardWorker{
		q:          q,
		flow:       flow,
		workers:    workers,
		jobTimeout: jobTimeout,
	}
	w.logger = newWorkerLogger(logCfg)
	return w
}

// newWorkerLogger writes to stdout and, when a file path is configured, a
// size-rotated log file.
func newWorkerLogger(cfg *config.LoggingConfig) *log.Logger {
	out := io.Writer(os.Stdout)
	if cfg != nil && cfg.FilePath != "" {
		rotated := &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}
		out = io.MultiWriter(os.Stdout, rotated)
	}
	return log.New(out, "reward-worker ", log.LstdFlags|log.Lmicroseconds|log.LUTC)
}

// Start launches the consumer goroutines and returns a stop function that
// cancels them and waits for in-flight jobs to finish.
func (w *RewardWorker) Start(parent context.Context) func() {
	ctx, cancel := context.WithCancel(parent)

	if r, ok := w.q.(Recoverer); ok {
		n, err := r.Recover(ctx)
		if err != nil {
			w.logger.Printf("queue recovery failed: %v", err)
		} else if n > 0 {
			w.logger.Printf("requeued %d orphaned reward jobs", n)
		}
	}

	var wg sync.WaitGroup
	for i := 0; i < w.workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			w.consume(ctx, id)
		}(i)
	}
	w.logger.Printf("started %d reward workers", w.workers)

	return func() {
		cancel()
		wg.Wait()
	}
}

func (w *RewardWorker) consume(ctx context.Context, id int) {
	for {
		delivery, err := w.q.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, queue.ErrQueueClosed) {
				return
			}
			w.logger.Printf("worker %d: dequeue failed: %v", id, err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		if delivery == nil {
			// Blocking dequeue timed out with nothing pending.
			continue
		}
		w.handle(ctx, id, delivery)
	}
}

func (w *RewardWorker) handle(ctx context.Context, id int, delivery *queue.Delivery) {
	job := delivery.Job
	jobCtx, cancel := context.WithTimeout(ctx, w.jobTimeout)
	defer cancel()

	if err := w.flow.Process(jobCtx, job); err != nil {
		// Left unacked for redelivery.
		w.logger.Printf("worker %d: job %s (click %d) not acked: %v", id, job.JobID, job.ClickID, err)
		return
	}

	// Ack with a fresh short deadline so shutdown cancellation does not
	// strand a job whose outcome already committed.
	ackCtx, ackCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer ackCancel()
	if err := delivery.Ack(ackCtx); err != nil {
		w.logger.Printf("worker %d: ack failed for job %s: %v", id, job.JobID, err)
	}
}
