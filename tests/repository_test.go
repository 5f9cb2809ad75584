package tests

import (
	"sync"
	"testing"

	"github.com/gigshare/sharelinks/models"
	"github.com/gigshare/sharelinks/repository"
	testingutil "github.com/gigshare/sharelinks/testing"
	"github.com/gigshare/sharelinks/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinkRepository(t *testing.T) {
	runWithDB(t, func(t *testing.T, testDB *testingutil.TestDB) {
		repo := repository.NewLinkRepository(testDB.DB)
		ctx := testingutil.CreateTestContext()

		t.Run("SaveAndByShortCode", func(t *testing.T) {
			link := &models.Link{
				SellerID:    "seller-1",
				OriginalURL: "https://gigshare.example/gigs/101",
				ShortCode:   "abc12345",
			}
			require.NoError(t, repo.Save(ctx, link))
			assert.NotZero(t, link.ID)

			found, err := repo.ByShortCode(ctx, "abc12345")
			require.NoError(t, err)
			require.NotNil(t, found)
			assert.Equal(t, link.ID, found.ID)
			assert.Equal(t, "seller-1", found.SellerID)
			assert.Equal(t, int64(0), found.ClickCount)
			assert.Equal(t, int64(0), found.CreditsEarnedCents)
		})

		t.Run("ByShortCodeNotFound", func(t *testing.T) {
			found, err := repo.ByShortCode(ctx, "missing0")
			require.NoError(t, err)
			assert.Nil(t, found)
		})

		t.Run("BySellerAndURL", func(t *testing.T) {
			found, err := repo.BySellerAndURL(ctx, "seller-1", "https://gigshare.example/gigs/101")
			require.NoError(t, err)
			require.NotNil(t, found)
			assert.Equal(t, "abc12345", found.ShortCode)

			missing, err := repo.BySellerAndURL(ctx, "seller-2", "https://gigshare.example/gigs/101")
			require.NoError(t, err)
			assert.Nil(t, missing)
		})

		t.Run("DuplicateSellerURLRejected", func(t *testing.T) {
			dup := &models.Link{
				SellerID:    "seller-1",
				OriginalURL: "https://gigshare.example/gigs/101",
				ShortCode:   "other001",
			}
			assert.Error(t, repo.Save(ctx, dup))
		})

		t.Run("DuplicateShortCodeRejected", func(t *testing.T) {
			dup := &models.Link{
				SellerID:    "seller-9",
				OriginalURL: "https://gigshare.example/gigs/999",
				ShortCode:   "abc12345",
			}
			assert.Error(t, repo.Save(ctx, dup))
		})

		t.Run("IncrementClickCountConcurrent", func(t *testing.T) {
			link := &models.Link{
				SellerID:    "seller-3",
				OriginalURL: "https://gigshare.example/gigs/303",
				ShortCode:   "ccc33333",
			}
			require.NoError(t, repo.Save(ctx, link))

			const n = 20
			var wg sync.WaitGroup
			errs := make(chan error, n)
			for i := 0; i < n; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					errs <- repo.IncrementClickCount(ctx, link.ID)
				}()
			}
			wg.Wait()
			close(errs)
			for err := range errs {
				require.NoError(t, err)
			}

			found, err := repo.ByID(ctx, link.ID)
			require.NoError(t, err)
			assert.Equal(t, int64(n), found.ClickCount)
		})

		t.Run("IncrementClickCountMissingLink", func(t *testing.T) {
			assert.Error(t, repo.IncrementClickCount(ctx, 999999))
		})

		t.Run("AddCreditsEarnedConcurrent", func(t *testing.T) {
			link := &models.Link{
				SellerID:    "seller-4",
				OriginalURL: "https://gigshare.example/gigs/404",
				ShortCode:   "ddd44444",
			}
			require.NoError(t, repo.Save(ctx, link))

			const n = 20
			var wg sync.WaitGroup
			errs := make(chan error, n)
			for i := 0; i < n; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					errs <- repo.AddCreditsEarned(ctx, link.ID, utils.DefaultRewardCents)
				}()
			}
			wg.Wait()
			close(errs)
			for err := range errs {
				require.NoError(t, err)
			}

			found, err := repo.ByID(ctx, link.ID)
			require.NoError(t, err)
			assert.Equal(t, int64(n)*utils.DefaultRewardCents, found.CreditsEarnedCents)
			assert.Equal(t, "1.00", utils.FormatCents(found.CreditsEarnedCents))
		})

		t.Run("AddCreditsEarnedRejectsNegative", func(t *testing.T) {
			assert.Error(t, repo.AddCreditsEarned(ctx, 1, -5))
		})

		t.Run("ByFilterBySeller", func(t *testing.T) {
			rows, err := repo.ByFilter(ctx, models.LinkFilter{SellerID: utils.ToPtr("seller-1")}, "id ASC", 0, 0)
			require.NoError(t, err)
			require.Len(t, rows, 1)
			assert.Equal(t, "abc12345", rows[0].ShortCode)
		})
	})
}

func TestClickRepository(t *testing.T) {
	runWithDB(t, func(t *testing.T, testDB *testingutil.TestDB) {
		repo := repository.NewClickRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		link, err := fixtures.CreateTestLink("seller-click")
		require.NoError(t, err)

		t.Run("SaveDefaultsToPending", func(t *testing.T) {
			click := &models.Click{
				LinkID:       link.ID,
				ClickedAt:    utils.UTCNow(),
				IPAddress:    utils.ToPtr("198.51.100.1"),
				UserAgent:    utils.ToPtr("test-agent/1.0"),
				RewardStatus: models.RewardStatusPending,
			}
			require.NoError(t, repo.Save(ctx, click))
			assert.NotZero(t, click.ID)

			found, err := repo.ByID(ctx, click.ID)
			require.NoError(t, err)
			assert.Equal(t, models.RewardStatusPending, found.RewardStatus)
			require.NotNil(t, found.IPAddress)
			assert.Equal(t, "198.51.100.1", *found.IPAddress)
		})

		t.Run("UpdateRewardStatus", func(t *testing.T) {
			click, err := fixtures.CreateTestClick(link.ID)
			require.NoError(t, err)

			require.NoError(t, repo.UpdateRewardStatus(ctx, click.ID, models.RewardStatusCompleted))

			found, err := repo.ByID(ctx, click.ID)
			require.NoError(t, err)
			assert.Equal(t, models.RewardStatusCompleted, found.RewardStatus)
		})

		t.Run("UpdateRewardStatusMissingClick", func(t *testing.T) {
			assert.Error(t, repo.UpdateRewardStatus(ctx, 999999, models.RewardStatusFailed))
		})

		t.Run("SaveBatchInsertsAll", func(t *testing.T) {
			batchLink, err := fixtures.CreateTestLink("seller-batch")
			require.NoError(t, err)

			clicks, err := fixtures.CreateTestClicks(batchLink.ID, 5)
			require.NoError(t, err)
			require.Len(t, clicks, 5)
			for _, click := range clicks {
				assert.NotZero(t, click.ID)
			}

			count, err := repo.CountByLink(ctx, batchLink.ID)
			require.NoError(t, err)
			assert.Equal(t, int64(5), count)
		})

		t.Run("CountByLink", func(t *testing.T) {
			count, err := repo.CountByLink(ctx, link.ID)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, count, int64(2))
		})

		t.Run("ByFilterRewardStatus", func(t *testing.T) {
			rows, err := repo.ByFilter(ctx, models.ClickFilter{
				LinkID:       utils.ToPtr(link.ID),
				RewardStatus: utils.ToPtr(models.RewardStatusCompleted),
			}, "id ASC", 0, 0)
			require.NoError(t, err)
			assert.Len(t, rows, 1)
		})
	})
}

func TestRewardRepository(t *testing.T) {
	runWithDB(t, func(t *testing.T, testDB *testingutil.TestDB) {
		repo := repository.NewRewardRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		link, err := fixtures.CreateTestLink("seller-reward")
		require.NoError(t, err)

		click1, err := fixtures.CreateTestClick(link.ID)
		require.NoError(t, err)
		click2, err := fixtures.CreateTestClick(link.ID)
		require.NoError(t, err)
		click3, err := fixtures.CreateTestClick(link.ID)
		require.NoError(t, err)

		_, err = fixtures.CreateTestReward(link, click1.ID, models.RewardStatusCompleted)
		require.NoError(t, err)
		_, err = fixtures.CreateTestReward(link, click2.ID, models.RewardStatusCompleted)
		require.NoError(t, err)
		_, err = fixtures.CreateTestReward(link, click3.ID, models.RewardStatusFailed)
		require.NoError(t, err)

		t.Run("ListByLink", func(t *testing.T) {
			rows, err := repo.ListByLink(ctx, link.ID, "id ASC", 0, 0)
			require.NoError(t, err)
			assert.Len(t, rows, 3)
		})

		t.Run("SumCompletedCentsByLink", func(t *testing.T) {
			sum, err := repo.SumCompletedCentsByLink(ctx, link.ID)
			require.NoError(t, err)
			// Failed rewards contribute nothing.
			assert.Equal(t, 2*utils.DefaultRewardCents, sum)
		})

		t.Run("SumCompletedCentsByLinkEmpty", func(t *testing.T) {
			other, err := fixtures.CreateTestLink("seller-empty")
			require.NoError(t, err)

			sum, err := repo.SumCompletedCentsByLink(ctx, other.ID)
			require.NoError(t, err)
			assert.Equal(t, int64(0), sum)
		})

		t.Run("CompletedRewardCarriesTransactionID", func(t *testing.T) {
			rows, err := repo.ByFilter(ctx, models.RewardFilter{
				LinkID: utils.ToPtr(link.ID),
				Status: utils.ToPtr(models.RewardStatusCompleted),
			}, "id ASC", 0, 0)
			require.NoError(t, err)
			require.Len(t, rows, 2)
			for _, r := range rows {
				assert.NotNil(t, r.TransactionID)
				assert.NotNil(t, r.CompletedAt)
			}
		})
	})
}
