package businessflow

import (
	"context"
	"log"
	"time"

	"github.com/gigshare/sharelinks/app/metrics"
	"github.com/gigshare/sharelinks/app/queue"
	"github.com/gigshare/sharelinks/app/services"
	"github.com/gigshare/sharelinks/models"
	"github.com/gigshare/sharelinks/repository"
	"github.com/gigshare/sharelinks/utils"
	"gorm.io/gorm"
)

// RewardProcessingFlow consumes reward jobs: it calls the external crediting
// service and reconciles the outcome into storage
// Every processed job produces exactly one reward row in a terminal status.
// A crediting failure is terminal: the reward is recorded as failed, the
// click is marked failed, and no credits are added; the job is NOT retried
// The reward row, the click status, and the credit total commit in one
// transaction. If that commit fails the error is returned and the job stays
// unacked, so the queue redelivers it; redelivery after a successful commit
// can double-credit, which is the accepted trade-off of at-least-once
// delivery here
type RewardProcessingFlow interface {
	Process(ctx context.Context, job *queue.RewardJob) error
}

type RewardProcessingFlowImpl struct {
	db         *gorm.DB
	crediting  services.CreditingService
	rewardRepo repository.RewardRepository
	clickRepo  repository.ClickRepository
	linkRepo   repository.LinkRepository
}

func NewRewardProcessingFlow(
	db *gorm.DB,
	crediting services.CreditingService,
	rewardRepo repository.RewardRepository,
	clickRepo repository.ClickRepository,
	linkRepo repository.LinkRepository,
) RewardProcessingFlow {
	return &RewardProcessingFlowImpl{
		db:         db,
		crediting:  crediting,
		rewardRepo: rewardRepo,
		clickRepo:  clickRepo,
		linkRepo:   linkRepo,
	}
}

func (f *RewardProcessingFlowImpl) Process(ctx context.Context, job *queue.RewardJob) error {
	if job == nil {
		return NewBusinessError("VALIDATION_ERROR", "Reward job is required", nil)
	}

	start := time.Now()
	result, creditErr := f.crediting.Credit(ctx, &services.CreditRequest{
		SellerID:    job.SellerID,
		LinkID:      job.LinkID,
		ClickID:     job.ClickID,
		AmountCents: job.AmountCents,
	})
	metrics.CreditingCallDuration.Observe(time.Since(start).Seconds())

	status := models.RewardStatusCompleted
	reward := &models.Reward{
		SellerID:    job.SellerID,
		LinkID:      job.LinkID,
		ClickID:     utils.ToPtr(job.ClickID),
		AmountCents: job.AmountCents,
	}
	if creditErr != nil {
		status = models.RewardStatusFailed
		log.Printf("crediting failed for click %d (job %s): %v", job.ClickID, job.JobID, creditErr)
	} else {
		reward.CompletedAt = utils.UTCNowPtr()
		if result != nil && result.TransactionID != "" {
			reward.TransactionID = utils.ToPtr(result.TransactionID)
		}
	}
	reward.Status = status

	err := repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		if err := f.rewardRepo.Save(txCtx, reward); err != nil {
			return err
		}
		if err := f.clickRepo.UpdateRewardStatus(txCtx, job.ClickID, status); err != nil {
			return err
		}
		if status == models.RewardStatusCompleted {
			return f.linkRepo.AddCreditsEarned(txCtx, job.LinkID, job.AmountCents)
		}
		return nil
	})
	if err != nil {
		metrics.RewardJobErrors.Inc()
		return NewBusinessError("REWARD_RECONCILE_FAILED", "Failed to record reward outcome", err)
	}

	metrics.RewardJobsTotal.WithLabelValues(status).Inc()
	return nil
}
