package request

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

func (r *Repository) DB() *gorm.DB { return r.db }

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) table(ctx context.Context, kind Kind) *gorm.DB {
	return r.db.WithContext(ctx).Table(kind.Table())
}

func (r *Repository) Create(ctx context.Context, req *Request) error {
	if err := r.table(ctx, req.Kind).Create(req).Error; err != nil {
		return apperr.IO(err)
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, kind Kind, id string) (*Request, error) {
	var req Request
	err := r.table(ctx, kind).Where("id = ?", id).First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, apperr.IO(err)
	}
	req.Normalize(kind)
	return &req, nil
}

func (r *Repository) List(ctx context.Context, f ListFilter) ([]Request, int64, error) {
	f.normalize()
	q := r.table(ctx, f.Kind)
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.RequesterID != "" {
		q = q.Where("requester_id = ?", f.RequesterID)
	}
	if f.ItemID != "" {
		q = q.Where("item_id = ?", f.ItemID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, apperr.IO(err)
	}

	var rows []Request
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

func (r *Repository) FindAll(ctx context.Context, kind Kind, filters map[string]any) ([]Request, error) {
	var rows []Request
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

// ExistsOpen reports whether requesterID already has a pending or approved
// request on itemID.
func (r *Repository) ExistsOpen(ctx context.Context, kind Kind, itemID, requesterID string) (bool, error) {
	var count int64
	err := r.table(ctx, kind).
		Where("item_id = ? AND requester_id = ? AND status IN ?", itemID, requesterID,
			[]Status{StatusPending, StatusApproved}).
		Count(&count).Error
	if err != nil {
		return false, apperr.IO(err)
	}
	return count > 0, nil
}

// Transition moves a request from `from` to `to` and applies fields, only if
// its status is still `from`. A lost race yields ErrInvalidTransition.
func (r *Repository) Transition(ctx context.Context, kind Kind, id string, from, to Status, fields map[string]any) error {
	updates := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		updates[k] = v
	}
	updates["status"] = to

	res := r.table(ctx, kind).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return apperr.IO(res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := r.GetByID(ctx, kind, id); err != nil {
			return err
		}
		return ErrInvalidTransition
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
