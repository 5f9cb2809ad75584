package tests

import (
	"context"
	"testing"
	"time"

	"github.com/gigshare/sharelinks/app/queue"
	businessflow "github.com/gigshare/sharelinks/business_flow"
	"github.com/gigshare/sharelinks/models"
	"github.com/gigshare/sharelinks/repository"
	testingutil "github.com/gigshare/sharelinks/testing"
	"github.com/gigshare/sharelinks/utils"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newVisitFlow(testDB *testingutil.TestDB, rc *redis.Client, q queue.RewardQueue) businessflow.LinkVisitFlow {
	linkRepo := repository.NewLinkRepository(testDB.DB)
	clickRepo := repository.NewClickRepository(testDB.DB)
	resolution := businessflow.NewLinkResolutionFlow(linkRepo, rc, "test:")
	dispatcher := businessflow.NewRewardDispatcher(q)
	return businessflow.NewLinkVisitFlow(testDB.DB, resolution, clickRepo, linkRepo, dispatcher, utils.DefaultRewardCents)
}

func TestLinkVisitFlow(t *testing.T) {
	runWithDB(t, func(t *testing.T, testDB *testingutil.TestDB) {
		linkRepo := repository.NewLinkRepository(testDB.DB)
		clickRepo := repository.NewClickRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		t.Run("RecordsClickAndDispatchesReward", func(t *testing.T) {
			q := queue.NewInProcessQueue(8)
			flow := newVisitFlow(testDB, nil, q)

			link, err := fixtures.CreateTestLink("seller-visit")
			require.NoError(t, err)

			meta := businessflow.NewClientMetadata("198.51.100.9", "visit-agent/1.0")
			target, err := flow.Visit(ctx, link.ShortCode, meta)
			require.NoError(t, err)
			assert.Equal(t, link.OriginalURL, target)

			// Click row committed with client metadata.
			clicks, err := clickRepo.ByFilter(ctx, models.ClickFilter{LinkID: utils.ToPtr(link.ID)}, "id ASC", 0, 0)
			require.NoError(t, err)
			require.Len(t, clicks, 1)
			assert.Equal(t, models.RewardStatusPending, clicks[0].RewardStatus)
			require.NotNil(t, clicks[0].IPAddress)
			assert.Equal(t, "198.51.100.9", *clicks[0].IPAddress)

			// Counter bumped in the same transaction.
			stored, err := linkRepo.ByID(ctx, link.ID)
			require.NoError(t, err)
			assert.Equal(t, int64(1), stored.ClickCount)

			// Reward job queued with the click and flat amount.
			dqCtx, cancel := context.WithTimeout(ctx, time.Second)
			defer cancel()
			delivery, err := q.Dequeue(dqCtx)
			require.NoError(t, err)
			require.NotNil(t, delivery)
			assert.Equal(t, clicks[0].ID, delivery.Job.ClickID)
			assert.Equal(t, link.ID, delivery.Job.LinkID)
			assert.Equal(t, "seller-visit", delivery.Job.SellerID)
			assert.Equal(t, utils.DefaultRewardCents, delivery.Job.AmountCents)
			require.NoError(t, delivery.Ack(ctx))
		})

		t.Run("UnknownCodeRecordsNothing", func(t *testing.T) {
			q := queue.NewInProcessQueue(8)
			flow := newVisitFlow(testDB, nil, q)

			before, err := clickRepo.Count(ctx, models.ClickFilter{})
			require.NoError(t, err)

			_, err = flow.Visit(ctx, "nope0000", nil)
			assert.True(t, businessflow.IsLinkNotFound(err))

			after, err := clickRepo.Count(ctx, models.ClickFilter{})
			require.NoError(t, err)
			assert.Equal(t, before, after)
		})

		t.Run("MalformedCodeRejected", func(t *testing.T) {
			q := queue.NewInProcessQueue(8)
			flow := newVisitFlow(testDB, nil, q)

			_, err := flow.Visit(ctx, "", nil)
			assert.True(t, businessflow.IsInvalidShortCode(err))

			_, err = flow.Visit(ctx, "waytoolongforacode", nil)
			assert.True(t, businessflow.IsInvalidShortCode(err))
		})

		t.Run("ResolvesWithUnreachableCache", func(t *testing.T) {
			// Cache client pointed at a closed port: every cache call fails
			// and resolution must fall through to the store.
			rc := redis.NewClient(&redis.Options{
				Addr:         "127.0.0.1:1",
				DialTimeout:  100 * time.Millisecond,
				ReadTimeout:  100 * time.Millisecond,
				WriteTimeout: 100 * time.Millisecond,
			})
			defer rc.Close()

			q := queue.NewInProcessQueue(8)
			flow := newVisitFlow(testDB, rc, q)

			link, err := fixtures.CreateTestLink("seller-nocache")
			require.NoError(t, err)

			target, err := flow.Visit(ctx, link.ShortCode, nil)
			require.NoError(t, err)
			assert.Equal(t, link.OriginalURL, target)
		})

		t.Run("SaturatedQueueDoesNotFailRedirect", func(t *testing.T) {
			q := queue.NewInProcessQueue(1)
			flow := newVisitFlow(testDB, nil, q)

			link, err := fixtures.CreateTestLink("seller-full")
			require.NoError(t, err)

			// Second visit finds the buffer full; the redirect still succeeds
			// and the click stays pending.
			for i := 0; i < 2; i++ {
				target, err := flow.Visit(ctx, link.ShortCode, nil)
				require.NoError(t, err)
				assert.Equal(t, link.OriginalURL, target)
			}

			stored, err := linkRepo.ByID(ctx, link.ID)
			require.NoError(t, err)
			assert.Equal(t, int64(2), stored.ClickCount)
		})
	})
}

func TestLinkResolutionFlowCachePopulation(t *testing.T) {
	runWithDB(t, func(t *testing.T, testDB *testingutil.TestDB) {
		addr := testingutil.GetTestRedisAddr()
		if addr == "" {
			t.Skip("TEST_REDIS_ADDR not set")
		}
		rc := redis.NewClient(&redis.Options{Addr: addr})
		defer rc.Close()

		linkRepo := repository.NewLinkRepository(testDB.DB)
		fixtures := testingutil.NewTestFixtures(testDB)
		ctx := testingutil.CreateTestContext()

		flow := businessflow.NewLinkResolutionFlow(linkRepo, rc, "test:"+testDB.Name+":")

		link, err := fixtures.CreateTestLink("seller-cache")
		require.NoError(t, err)

		resolved, err := flow.Resolve(ctx, link.ShortCode)
		require.NoError(t, err)
		assert.Equal(t, link.ID, resolved.ID)

		key := "test:" + testDB.Name + ":link:" + link.ShortCode
		fields, err := rc.HGetAll(ctx, key).Result()
		require.NoError(t, err)
		assert.Equal(t, link.OriginalURL, fields["original_url"])
		assert.Equal(t, "seller-cache", fields["seller_id"])

		ttl, err := rc.TTL(ctx, key).Result()
		require.NoError(t, err)
		assert.Greater(t, ttl, time.Duration(0))
		assert.LessOrEqual(t, ttl, utils.LinkCacheTTL)

		// Delete the store row: a cache hit still resolves.
		require.NoError(t, testDB.DB.Delete(&models.Link{}, link.ID).Error)
		cached, err := flow.Resolve(ctx, link.ShortCode)
		require.NoError(t, err)
		assert.Equal(t, link.OriginalURL, cached.OriginalURL)

		rc.Del(ctx, key)
	})
}
