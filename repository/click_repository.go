package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/gigshare/sharelinks/models"
	"gorm.io/gorm"
)

// ClickRepositoryImpl implements ClickRepository
type ClickRepositoryImpl struct {
	*BaseRepository[models.Click, models.ClickFilter]
}

func NewClickRepository(db *gorm.DB) ClickRepository {
	return &ClickRepositoryImpl{BaseRepository: NewBaseRepository[models.Click, models.ClickFilter](db)}
}

func (r *ClickRepositoryImpl) ByID(ctx context.Context, id uint) (*models.Click, error) {
	db := r.getDB(ctx)
	var row models.Click
	if err := db.Last(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *ClickRepositoryImpl) applyFilter(db *gorm.DB, f models.ClickFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.LinkID != nil {
		db = db.Where("link_id = ?", *f.LinkID)
	}
	if f.RewardStatus != nil {
		db = db.Where("reward_status = ?", *f.RewardStatus)
	}
	if f.ClickedAfter != nil {
		db = db.Where("clicked_at >= ?", *f.ClickedAfter)
	}
	if f.ClickedBefore != nil {
		db = db.Where("clicked_at < ?", *f.ClickedBefore)
	}
	return db
}

func (r *ClickRepositoryImpl) ByFilter(ctx context.Context, filter models.ClickFilter, orderBy string, limit, offset int) ([]*models.Click, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Click{}), filter)
	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var rows []*models.Click
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *ClickRepositoryImpl) Count(ctx context.Context, filter models.ClickFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Click{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ClickRepositoryImpl) Exists(ctx context.Context, filter models.ClickFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}

func (r *ClickRepositoryImpl) CountByLink(ctx context.Context, linkID uint) (int64, error) {
	return r.Count(ctx, models.ClickFilter{LinkID: &linkID})
}

func (r *ClickRepositoryImpl) UpdateRewardStatus(ctx context.Context, clickID uint, status string) error {
	db := r.getDB(ctx)
	res := db.Model(&models.Click{}).
		Where("id = ?", clickID).
		UpdateColumn("reward_status", status)
	if res.Error != nil {
		return fmt.Errorf("failed to update reward status for click %d: %w", clickID, res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
