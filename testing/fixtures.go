// Package testing provides test utilities and database setup for testing the link and reward pipeline
package testing

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/gigshare/sharelinks/models"
	"github.com/gigshare/sharelinks/repository"
	"github.com/gigshare/sharelinks/utils"
)

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// CreateTestLink creates a link for the given seller with a random short code
func (tf *TestFixtures) CreateTestLink(sellerID string) (*models.Link, error) {
	suffix := rand.Intn(90000000) + 10000000
	link := &models.Link{
		SellerID:    sellerID,
		OriginalURL: fmt.Sprintf("https://gigshare.example/gigs/%d", suffix),
		ShortCode:   fmt.Sprintf("t%07d", suffix%10000000),
	}
	if err := tf.DB.DB.Create(link).Error; err != nil {
		return nil, fmt.Errorf("failed to create test link: %w", err)
	}
	return link, nil
}

// CreateTestClick creates a pending click against the given link
func (tf *TestFixtures) CreateTestClick(linkID uint) (*models.Click, error) {
	click := &models.Click{
		LinkID:       linkID,
		ClickedAt:    utils.UTCNow(),
		IPAddress:    utils.ToPtr("203.0.113.7"),
		UserAgent:    utils.ToPtr("fixtures-agent/1.0"),
		RewardStatus: models.RewardStatusPending,
	}
	if err := tf.DB.DB.Create(click).Error; err != nil {
		return nil, fmt.Errorf("failed to create test click: %w", err)
	}
	return click, nil
}

// CreateTestClicks bulk-inserts n pending clicks against the given link
func (tf *TestFixtures) CreateTestClicks(linkID uint, n int) ([]*models.Click, error) {
	clicks := make([]*models.Click, 0, n)
	for i := 0; i < n; i++ {
		clicks = append(clicks, &models.Click{
			LinkID:       linkID,
			ClickedAt:    utils.UTCNow(),
			IPAddress:    utils.ToPtr(fmt.Sprintf("203.0.113.%d", i%250+1)),
			UserAgent:    utils.ToPtr("fixtures-agent/1.0"),
			RewardStatus: models.RewardStatusPending,
		})
	}
	repo := repository.NewClickRepository(tf.DB.DB)
	if err := repo.SaveBatch(context.Background(), clicks); err != nil {
		return nil, fmt.Errorf("failed to create test clicks: %w", err)
	}
	return clicks, nil
}

// CreateTestReward creates a reward row in the given status
func (tf *TestFixtures) CreateTestReward(link *models.Link, clickID uint, status string) (*models.Reward, error) {
	reward := &models.Reward{
		SellerID:    link.SellerID,
		LinkID:      link.ID,
		ClickID:     utils.ToPtr(clickID),
		AmountCents: utils.DefaultRewardCents,
		Status:      status,
	}
	if status == models.RewardStatusCompleted {
		reward.CompletedAt = utils.UTCNowPtr()
		reward.TransactionID = utils.ToPtr(fmt.Sprintf("txn-%08d", rand.Intn(100000000)))
	}
	if err := tf.DB.DB.Create(reward).Error; err != nil {
		return nil, fmt.Errorf("failed to create test reward: %w", err)
	}
	return reward, nil
}
