// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"

	"github.com/gigshare/sharelinks/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// LinkRepository defines operations for links
type LinkRepository interface {
	Repository[models.Link, models.LinkFilter]
	ByShortCode(ctx context.Context, shortCode string) (*models.Link, error)
	BySellerAndURL(ctx context.Context, sellerID, originalURL string) (*models.Link, error)
	// IncrementClickCount bumps click_count by one as a single atomic statement
	// so concurrent redirects on the same link never lose increments.
	IncrementClickCount(ctx context.Context, linkID uint) error
	// AddCreditsEarned adds an exact cent amount to credits_earned_cents as a
	// single atomic statement; concurrent reward workers stay additive.
	AddCreditsEarned(ctx context.Context, linkID uint, amountCents int64) error
}

// ClickRepository defines operations for clicks
type ClickRepository interface {
	Repository[models.Click, models.ClickFilter]
	// UpdateRewardStatus writes the terminal reward status of a click.
	UpdateRewardStatus(ctx context.Context, clickID uint, status string) error
	CountByLink(ctx context.Context, linkID uint) (int64, error)
}

// RewardRepository defines operations for rewards
type RewardRepository interface {
	Repository[models.Reward, models.RewardFilter]
	ListByLink(ctx context.Context, linkID uint, orderBy string, limit, offset int) ([]*models.Reward, error)
	// SumCompletedCentsByLink totals the amounts of completed rewards for a link.
	SumCompletedCentsByLink(ctx context.Context, linkID uint) (int64, error)
}
