package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/gigshare/sharelinks/models"
	"gorm.io/gorm"
)

// RewardRepositoryImpl implements RewardRepository
type RewardRepositoryImpl struct {
	*BaseRepository[models.Reward, models.RewardFilter]
}

func NewRewardRepository(db *gorm.DB) RewardRepository {
	return &RewardRepositoryImpl{BaseRepository: NewBaseRepository[models.Reward, models.RewardFilter](db)}
}

func (r *RewardRepositoryImpl) ByID(ctx context.Context, id uint) (*models.Reward, error) {
	db := r.getDB(ctx)
	var row models.Reward
	if err := db.Last(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *RewardRepositoryImpl) applyFilter(db *gorm.DB, f models.RewardFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.SellerID != nil {
		db = db.Where("seller_id = ?", *f.SellerID)
	}
	if f.LinkID != nil {
		db = db.Where("link_id = ?", *f.LinkID)
	}
	if f.ClickID != nil {
		db = db.Where("click_id = ?", *f.ClickID)
	}
	if f.Status != nil {
		db = db.Where("status = ?", *f.Status)
	}
	if f.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *f.CreatedAfter)
	}
	if f.CreatedBefore != nil {
		db = db.Where("created_at < ?", *f.CreatedBefore)
	}
	return db
}

func (r *RewardRepositoryImpl) ByFilter(ctx context.Context, filter models.RewardFilter, orderBy string, limit, offset int) ([]*models.Reward, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Reward{}), filter)
	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var rows []*models.Reward
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *RewardRepositoryImpl) Count(ctx context.Context, filter models.RewardFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Reward{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *RewardRepositoryImpl) Exists(ctx context.Context, filter models.RewardFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}

func (r *RewardRepositoryImpl) ListByLink(ctx context.Context, linkID uint, orderBy string, limit, offset int) ([]*models.Reward, error) {
	return r.ByFilter(ctx, models.RewardFilter{LinkID: &linkID}, orderBy, limit, offset)
}

func (r *RewardRepositoryImpl) SumCompletedCentsByLink(ctx context.Context, linkID uint) (int64, error) {
	db := r.getDB(ctx)
	var sum sql.NullInt64
	err := db.Model(&models.Reward{}).
		Select("SUM(amount_cents)").
		Where("link_id = ? AND status = ?", linkID, models.RewardStatusCompleted).
		Scan(&sum).Error
	if err != nil {
		return 0, err
	}
	if !sum.Valid {
		return 0, nil
	}
	return sum.Int64, nil
}
