package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/gigshare/sharelinks/models"
	"gorm.io/gorm"
)

// LinkRepositoryImpl implements LinkRepository
type LinkRepositoryImpl struct {
	*BaseRepository[models.Link, models.LinkFilter]
}

func NewLinkRepository(db *gorm.DB) LinkRepository {
	return &LinkRepositoryImpl{BaseRepository: NewBaseRepository[models.Link, models.LinkFilter](db)}
}

func (r *LinkRepositoryImpl) ByID(ctx context.Context, id uint) (*models.Link, error) {
	db := r.getDB(ctx)
	var row models.Link
	if err := db.Last(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *LinkRepositoryImpl) ByShortCode(ctx context.Context, shortCode string) (*models.Link, error) {
	filter := models.LinkFilter{ShortCode: &shortCode}
	rows, err := r.ByFilter(ctx, filter, "id DESC", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *LinkRepositoryImpl) BySellerAndURL(ctx context.Context, sellerID, originalURL string) (*models.Link, error) {
	filter := models.LinkFilter{SellerID: &sellerID, OriginalURL: &originalURL}
	rows, err := r.ByFilter(ctx, filter, "id DESC", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *LinkRepositoryImpl) applyFilter(db *gorm.DB, f models.LinkFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.SellerID != nil {
		db = db.Where("seller_id = ?", *f.SellerID)
	}
	if f.OriginalURL != nil {
		db = db.Where("original_url = ?", *f.OriginalURL)
	}
	if f.ShortCode != nil {
		db = db.Where("short_code = ?", *f.ShortCode)
	}
	if f.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *f.CreatedAfter)
	}
	if f.CreatedBefore != nil {
		db = db.Where("created_at < ?", *f.CreatedBefore)
	}
	return db
}

func (r *LinkRepositoryImpl) ByFilter(ctx context.Context, filter models.LinkFilter, orderBy string, limit, offset int) ([]*models.Link, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Link{}), filter)
	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var rows []*models.Link
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *LinkRepositoryImpl) Count(ctx context.Context, filter models.LinkFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Link{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *LinkRepositoryImpl) Exists(ctx context.Context, filter models.LinkFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}

// IncrementClickCount issues `click_count = click_count + 1` as one statement;
// the storage layer serializes concurrent bumps on the same row.
func (r *LinkRepositoryImpl) IncrementClickCount(ctx context.Context, linkID uint) error {
	db := r.getDB(ctx)
	res := db.Model(&models.Link{}).
		Where("id = ?", linkID).
		UpdateColumns(map[string]any{
			"click_count": gorm.Expr("click_count + 1"),
			"updated_at":  gorm.Expr("(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')"),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to increment click count for link %d: %w", linkID, res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// AddCreditsEarned issues `credits_earned_cents = credits_earned_cents + ?` as
// one statement so concurrent workers crediting the same link stay additive.
func (r *LinkRepositoryImpl) AddCreditsEarned(ctx context.Context, linkID uint, amountCents int64) error {
	if amountCents < 0 {
		return fmt.Errorf("credit amount must not be negative: %d", amountCents)
	}
	db := r.getDB(ctx)
	res := db.Model(&models.Link{}).
		Where("id = ?", linkID).
		UpdateColumns(map[string]any{
			"credits_earned_cents": gorm.Expr("credits_earned_cents + ?", amountCents),
			"updated_at":           gorm.Expr("(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')"),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to add credits for link %d: %w", linkID, res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
