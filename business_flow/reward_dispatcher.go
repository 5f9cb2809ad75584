package businessflow

import (
	"context"
	"log"

	"github.com/gigshare/sharelinks/app/metrics"
	"github.com/gigshare/sharelinks/app/queue"
)

// RewardDispatcher submits reward jobs for asynchronous processing
// Dispatch never blocks the redirect on the outcome: an enqueue failure is
// logged and counted, the click simply stays in pending reward status
type RewardDispatcher interface {
	Dispatch(ctx context.Context, clickID uint, sellerID string, linkID uint, amountCents int64)
}

type RewardDispatcherImpl struct {
	q queue.RewardQueue
}

func NewRewardDispatcher(q queue.RewardQueue) RewardDispatcher {
	return &RewardDispatcherImpl{q: q}
}

func (d *RewardDispatcherImpl) Dispatch(ctx context.Context, clickID uint, sellerID string, linkID uint, amountCents int64) {
	job := queue.NewRewardJob(clickID, sellerID, linkID, amountCents)
	if err := d.q.Enqueue(ctx, job); err != nil {
		metrics.RewardEnqueueFailures.Inc()
		log.Printf("reward enqueue failed for click %d (job %s): %v", clickID, job.JobID, err)
	}
}
