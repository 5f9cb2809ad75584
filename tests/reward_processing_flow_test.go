package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gigshare/sharelinks/app/queue"
	"github.com/gigshare/sharelinks/app/services"
	businessflow "github.com/gigshare/sharelinks/business_flow"
	"github.com/gigshare/sharelinks/models"
	"github.com/gigshare/sharelinks/repository"
	testingutil "github.com/gigshare/sharelinks/testing"
	"github.com/gigshare/sharelinks/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProcessingFlow(testDB *testingutil.TestDB, crediting services.CreditingService) businessflow.RewardProcessingFlow {
	return businessflow.NewRewardProcessingFlow(
		testDB.DB,
		crediting,
		repository.NewRewardRepository(testDB.DB),
		repository.NewClickRepository(testDB.DB),
		repository.NewLinkRepository(testDB.DB),
	)
}

func TestRewardProcessingFlow(t *testing.T) {
	runWithDB(t, func(t *testing.T, testDB *testingutil.TestDB) {
		linkRepo := repository.NewLinkRepository(testDB.DB)
		clickRepo := repository.NewClickRepository(testDB.DB)
		rewardRepo := repository.NewRewardRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		t.Run("SuccessfulCreditCompletesReward", func(t *testing.T) {
			mock := services.NewMockCreditingService("txn-42")
			flow := newProcessingFlow(testDB, mock)

			link, err := fixtures.CreateTestLink("seller-ok")
			require.NoError(t, err)
			click, err := fixtures.CreateTestClick(link.ID)
			require.NoError(t, err)

			job := queue.NewRewardJob(click.ID, link.SellerID, link.ID, utils.DefaultRewardCents)
			require.NoError(t, flow.Process(ctx, job))

			// One credit call with the flat amount.
			calls := mock.CreditCalls()
			require.Len(t, calls, 1)
			assert.Equal(t, utils.DefaultRewardCents, calls[0].AmountCents)
			assert.Equal(t, "seller-ok", calls[0].SellerID)

			// Reward row is terminal and carries the transaction id.
			rewards, err := rewardRepo.ListByLink(ctx, link.ID, "id ASC", 0, 0)
			require.NoError(t, err)
			require.Len(t, rewards, 1)
			assert.Equal(t, models.RewardStatusCompleted, rewards[0].Status)
			require.NotNil(t, rewards[0].TransactionID)
			assert.Equal(t, "txn-42", *rewards[0].TransactionID)
			assert.NotNil(t, rewards[0].CompletedAt)

			// Click flipped to completed, credits added.
			storedClick, err := clickRepo.ByID(ctx, click.ID)
			require.NoError(t, err)
			assert.Equal(t, models.RewardStatusCompleted, storedClick.RewardStatus)

			storedLink, err := linkRepo.ByID(ctx, link.ID)
			require.NoError(t, err)
			assert.Equal(t, utils.DefaultRewardCents, storedLink.CreditsEarnedCents)
			assert.Equal(t, "0.05", utils.FormatCents(storedLink.CreditsEarnedCents))
		})

		t.Run("CreditFailureIsTerminalWithoutCredits", func(t *testing.T) {
			mock := services.NewMockCreditingService("")
			mock.Err = errors.New("provider unavailable")
			flow := newProcessingFlow(testDB, mock)

			link, err := fixtures.CreateTestLink("seller-fail")
			require.NoError(t, err)
			click, err := fixtures.CreateTestClick(link.ID)
			require.NoError(t, err)

			job := queue.NewRewardJob(click.ID, link.SellerID, link.ID, utils.DefaultRewardCents)
			// A failed credit still reconciles cleanly; the job is consumable.
			require.NoError(t, flow.Process(ctx, job))

			rewards, err := rewardRepo.ListByLink(ctx, link.ID, "id ASC", 0, 0)
			require.NoError(t, err)
			require.Len(t, rewards, 1)
			assert.Equal(t, models.RewardStatusFailed, rewards[0].Status)
			assert.Nil(t, rewards[0].TransactionID)
			assert.Nil(t, rewards[0].CompletedAt)

			storedClick, err := clickRepo.ByID(ctx, click.ID)
			require.NoError(t, err)
			assert.Equal(t, models.RewardStatusFailed, storedClick.RewardStatus)

			storedLink, err := linkRepo.ByID(ctx, link.ID)
			require.NoError(t, err)
			assert.Equal(t, int64(0), storedLink.CreditsEarnedCents)
		})

		t.Run("SimulatedCreditingCompletes", func(t *testing.T) {
			flow := newProcessingFlow(testDB, services.NewSimulatedCreditingService(time.Millisecond))

			link, err := fixtures.CreateTestLink("seller-sim")
			require.NoError(t, err)
			click, err := fixtures.CreateTestClick(link.ID)
			require.NoError(t, err)

			job := queue.NewRewardJob(click.ID, link.SellerID, link.ID, utils.DefaultRewardCents)
			require.NoError(t, flow.Process(ctx, job))

			rewards, err := rewardRepo.ListByLink(ctx, link.ID, "id ASC", 0, 0)
			require.NoError(t, err)
			require.Len(t, rewards, 1)
			assert.Equal(t, models.RewardStatusCompleted, rewards[0].Status)
			// The simulated provider returns no transaction id.
			assert.Nil(t, rewards[0].TransactionID)
		})

		t.Run("CancelledContextFailsTheReward", func(t *testing.T) {
			flow := newProcessingFlow(testDB, services.NewSimulatedCreditingService(time.Minute))

			link, err := fixtures.CreateTestLink("seller-timeout")
			require.NoError(t, err)
			click, err := fixtures.CreateTestClick(link.ID)
			require.NoError(t, err)

			shortCtx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
			defer cancel()

			job := queue.NewRewardJob(click.ID, link.SellerID, link.ID, utils.DefaultRewardCents)
			require.NoError(t, flow.Process(shortCtx, job))

			storedClick, err := clickRepo.ByID(ctx, click.ID)
			require.NoError(t, err)
			assert.Equal(t, models.RewardStatusFailed, storedClick.RewardStatus)
		})

		t.Run("CommitFailureLeavesNothingPersisted", func(t *testing.T) {
			mock := services.NewMockCreditingService("txn-orphan")
			flow := newProcessingFlow(testDB, mock)

			link, err := fixtures.CreateTestLink("seller-reconcile")
			require.NoError(t, err)

			// A job for a click that no longer exists: the credit call goes
			// through, but the reconciliation transaction cannot commit.
			job := queue.NewRewardJob(999999, link.SellerID, link.ID, utils.DefaultRewardCents)
			err = flow.Process(ctx, job)
			require.Error(t, err)
			assert.True(t, businessflow.IsRewardReconcileFailed(err))

			// The credit provider was called before the commit failed.
			require.Len(t, mock.CreditCalls(), 1)

			// The rollback leaves no reward row and no credits behind; the
			// caller keeps the job unacked so the queue redelivers it.
			rewards, err := rewardRepo.ListByLink(ctx, link.ID, "id ASC", 0, 0)
			require.NoError(t, err)
			assert.Empty(t, rewards)

			storedLink, err := linkRepo.ByID(ctx, link.ID)
			require.NoError(t, err)
			assert.Equal(t, int64(0), storedLink.CreditsEarnedCents)
		})

		t.Run("CreditTotalMatchesCompletedRewards", func(t *testing.T) {
			mock := services.NewMockCreditingService("txn-sum")
			flow := newProcessingFlow(testDB, mock)

			link, err := fixtures.CreateTestLink("seller-sum")
			require.NoError(t, err)

			for i := 0; i < 5; i++ {
				click, err := fixtures.CreateTestClick(link.ID)
				require.NoError(t, err)
				job := queue.NewRewardJob(click.ID, link.SellerID, link.ID, utils.DefaultRewardCents)
				require.NoError(t, flow.Process(ctx, job))
			}

			sum, err := rewardRepo.SumCompletedCentsByLink(ctx, link.ID)
			require.NoError(t, err)

			storedLink, err := linkRepo.ByID(ctx, link.ID)
			require.NoError(t, err)
			assert.Equal(t, sum, storedLink.CreditsEarnedCents)
			assert.Equal(t, "0.25", utils.FormatCents(storedLink.CreditsEarnedCents))
		})
	})
}
