package tests

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gigshare/sharelinks/app/queue"
	"github.com/gigshare/sharelinks/app/worker"
	"github.com/gigshare/sharelinks/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubProcessingFlow records every job it sees and fails jobs for one click,
// standing in for a reconciliation that never commits.
type stubProcessingFlow struct {
	mu        sync.Mutex
	processed []uint
	failClick uint
}

func (f *stubProcessingFlow) Process(ctx context.Context, job *queue.RewardJob) error {
	f.mu.Lock()
	f.processed = append(f.processed, job.ClickID)
	f.mu.Unlock()
	if f.failClick != 0 && job.ClickID == f.failClick {
		return errors.New("failed to record reward outcome")
	}
	return nil
}

func (f *stubProcessingFlow) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.processed)
}

func TestRewardWorker(t *testing.T) {
	rewardCfg := &config.RewardConfig{AmountCents: 5, WorkerCount: 1, JobTimeout: time.Second}

	t.Run("AcksOnlyCommittedJobs", func(t *testing.T) {
		ctx := context.Background()
		q := queue.NewInProcessQueue(8)
		defer q.Close()

		failing := queue.NewRewardJob(1, "seller-w", 1, 5)
		passing := queue.NewRewardJob(2, "seller-w", 1, 5)
		require.NoError(t, q.Enqueue(ctx, failing))
		require.NoError(t, q.Enqueue(ctx, passing))

		flow := &stubProcessingFlow{failClick: 1}
		w := worker.NewRewardWorker(q, flow, rewardCfg, nil)
		stop := w.Start(ctx)
		require.Eventually(t, func() bool { return flow.count() >= 2 }, 5*time.Second, 10*time.Millisecond)
		stop()

		// The job whose outcome never committed is still in flight and is
		// redelivered; the committed one was acked and is gone.
		moved, err := q.Recover(ctx)
		require.NoError(t, err)
		require.Equal(t, 1, moved)

		redelivered, err := q.Dequeue(ctx)
		require.NoError(t, err)
		require.NotNil(t, redelivered)
		assert.Equal(t, failing.JobID, redelivered.Job.JobID)
	})

	t.Run("RequeuesOrphansAtStart", func(t *testing.T) {
		ctx := context.Background()
		q := queue.NewInProcessQueue(4)
		defer q.Close()

		job := queue.NewRewardJob(3, "seller-w", 1, 5)
		require.NoError(t, q.Enqueue(ctx, job))

		// Dequeue without acking, simulating a consumer that died mid-job.
		orphan, err := q.Dequeue(ctx)
		require.NoError(t, err)
		require.NotNil(t, orphan)

		flow := &stubProcessingFlow{}
		w := worker.NewRewardWorker(q, flow, rewardCfg, nil)
		stop := w.Start(ctx)
		require.Eventually(t, func() bool { return flow.count() == 1 }, 5*time.Second, 10*time.Millisecond)
		stop()

		moved, err := q.Recover(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, moved)
	})

	t.Run("StopReturnsWhenIdle", func(t *testing.T) {
		q := queue.NewInProcessQueue(4)
		defer q.Close()

		cfg := &config.RewardConfig{AmountCents: 5, WorkerCount: 2, JobTimeout: time.Second}
		w := worker.NewRewardWorker(q, &stubProcessingFlow{}, cfg, nil)
		stop := w.Start(context.Background())

		done := make(chan struct{})
		go func() {
			stop()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("stop did not return")
		}
	})
}
