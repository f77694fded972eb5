package media

import (
	"context"
	"errors"

	"lostfound/internal/pkg/apperr"

	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, m *Media) error {
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return apperr.IO(err)
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*Media, error) {
	var m Media
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMediaNotFound
		}
		return nil, apperr.IO(err)
	}
	return &m, nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&Media{}).Error; err != nil {
		return apperr.IO(err)
	}
	return nil
}
