package activity

import (
	"context"

	"lostfound/internal/pkg/apperr"

	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Create inserts a; a duplicate (reference_id, type) surfaces as the raw
// driver error so callers can detect it.
func (r *Repository) Create(ctx context.Context, a *Activity) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *Repository) Exists(ctx context.Context, referenceID, typ string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&Activity{}).
		Where("reference_id = ? AND type = ?", referenceID, typ).
		Count(&count).Error
	if err != nil {
		return false, apperr.IO(err)
	}
	return count > 0, nil
}

func (r *Repository) List(ctx context.Context, limit, offset int) ([]Activity, error) {
	var rows []Activity
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	if err != nil {
		return nil, apperr.IO(err)
	}
	return rows, nil
}

func (r *Repository) CountByReference(ctx context.Context, referenceID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Activity{}).Where("reference_id = ?", referenceID).Count(&count).Error
	if err != nil {
		return 0, apperr.IO(err)
	}
	return count, nil
}

// DeleteAll clears the feed.
func (r *Repository) DeleteAll(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&Activity{})
	if res.Error != nil {
		return 0, apperr.IO(res.Error)
	}
	return res.RowsAffected, nil
}
