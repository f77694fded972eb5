package item

import (
	"context"
	"errors"
	"strings"
	"time"

	"lostfound/internal/pkg/apperr"

	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) DB() *gorm.DB { return r.db }

// WithTx returns a repository bound to tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) table(ctx context.Context, kind Kind) *gorm.DB {
	return r.db.WithContext(ctx).Table(kind.Table())
}

func (r *Repository) Create(ctx context.Context, it *Item) error {
	if err := r.table(ctx, it.Kind).Create(it).Error; err != nil {
		return apperr.IO(err)
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, kind Kind, id string) (*Item, error) {
	var it Item
	err := r.table(ctx, kind).Where("id = ?", id).First(&it).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, apperr.IO(err)
	}
	it.Normalize(kind)
	return &it, nil
}

func (r *Repository) List(ctx context.Context, f ListFilter) ([]Item, int64, error) {
	f.normalize()
	q := r.table(ctx, f.Kind)
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.ReporterID != "" {
		q = q.Where("reporter_user_id = ?", f.ReporterID)
	}
	if s := strings.TrimSpace(f.Query); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(landmark) LIKE ? OR LOWER(description) LIKE ?", like, like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, apperr.IO(err)
	}

	var rows []Item
	err := q.Order("created_at DESC").
		Limit(f.Limit).
		Offset((f.Page - 1) * f.Limit).
		Find(&rows).Error
	if err != nil {
		return nil, 0, apperr.IO(err)
	}
	for i := range rows {
		rows[i].Normalize(f.Kind)
	}
	return rows, total, nil
}

// FindAll returns every item matching the equality filters, newest first.
func (r *Repository) FindAll(ctx context.Context, kind Kind, filters map[string]any) ([]Item, error) {
	var rows []Item
	q := r.table(ctx, kind)
	if len(filters) > 0 {
		q = q.Where(filters)
	}
	if err := q.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, apperr.IO(err)
	}
	for i := range rows {
		rows[i].Normalize(kind)
	}
	return rows, nil
}

// UpdateStatusGuard sets status to `to` only if the row is currently `from`.
func (r *Repository) UpdateStatusGuard(ctx context.Context, kind Kind, id string, from, to Status, now time.Time) error {
	res := r.table(ctx, kind).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{"status": to, "updated_at": now})
	if res.Error != nil {
		return apperr.IO(res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := r.GetByID(ctx, kind, id); err != nil {
			return err
		}
		return ErrNotPending
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, kind Kind, id string) error {
	res := r.table(ctx, kind).Where("id = ?", id).Delete(&Item{})
	if res.Error != nil {
		return apperr.IO(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (r *Repository) CountByStatus(ctx context.Context, kind Kind) (map[Status]int64, error) {
	var rows []struct {
		Status Status
		Count  int64
	}
	err := r.table(ctx, kind).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, apperr.IO(err)
	}
	out := make(map[Status]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Count
	}
	return out, nil
}
