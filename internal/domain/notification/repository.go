package notification

import (
	"context"
	"errors"
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

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, n *Notification) error {
	if err := r.db.WithContext(ctx).Create(n).Error; err != nil {
		return apperr.IO(err)
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id, userID string) (*Notification, error) {
	var n Notification
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&n).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotificationNotFound
		}
		return nil, apperr.IO(err)
	}
	n.Normalize()
	return &n, nil
}

func (r *Repository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Notification, int64, error) {
	q := r.db.WithContext(ctx).Model(&Notification{}).Where("user_id = ?", userID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, apperr.IO(err)
	}

	var rows []Notification
	err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&rows).Error
	if err != nil {
		return nil, 0, apperr.IO(err)
	}
	for i := range rows {
		rows[i].Normalize()
	}
	return rows, total, nil
}

func (r *Repository) FindAll(ctx context.Context, filters map[string]any) ([]Notification, error) {
	var rows []Notification
	q := r.db.WithContext(ctx)
	if len(filters) > 0 {
		q = q.Where(filters)
	}
	if err := q.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, apperr.IO(err)
	}
	for i := range rows {
		rows[i].Normalize()
	}
	return rows, nil
}

// ExistsForReference reports whether a notification of typ was already
// produced for referenceID.
func (r *Repository) ExistsForReference(ctx context.Context, referenceID, typ string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&Notification{}).
		Where("reference_id = ? AND type = ?", referenceID, typ).
		Count(&count).Error
	if err != nil {
		return false, apperr.IO(err)
	}
	return count > 0, nil
}

// CountUnread derives the unread count from the rows themselves.
func (r *Repository) CountUnread(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&Notification{}).
		Where("user_id = ? AND status = ?", userID, StatusUnread).
		Count(&count).Error
	if err != nil {
		return 0, apperr.IO(err)
	}
	return count, nil
}

// MarkRead flips one unread notification to read. It reports false when the
// notification was already read.
func (r *Repository) MarkRead(ctx context.Context, id, userID string, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&Notification{}).
		Where("id = ? AND user_id = ? AND status = ?", id, userID, StatusUnread).
		Updates(map[string]any{"status": StatusRead, "read_at": now})
	if res.Error != nil {
		return false, apperr.IO(res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := r.GetByID(ctx, id, userID); err != nil {
			return false, err
		}
		return false, nil
	}
	return true, nil
}

func (r *Repository) MarkAllRead(ctx context.Context, userID string, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&Notification{}).
		Where("user_id = ? AND status = ?", userID, StatusUnread).
		Updates(map[string]any{"status": StatusRead, "read_at": now})
	if res.Error != nil {
		return 0, apperr.IO(res.Error)
	}
	return res.RowsAffected, nil
}

func (r *Repository) Delete(ctx context.Context, id, userID string) error {
	res := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&Notification{})
	if res.Error != nil {
		return apperr.IO(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

// DeleteByItemTx removes every notification referencing itemID inside tx.
func (r *Repository) DeleteByItemTx(ctx context.Context, tx *gorm.DB, itemID string) (int64, error) {
	res := tx.WithContext(ctx).Where("item_id = ?", itemID).Delete(&Notification{})
	if res.Error != nil {
		return 0, apperr.IO(res.Error)
	}
	return res.RowsAffected, nil
}

// DeleteReadOlderThan removes read notifications created before cutoff.
func (r *Repository) DeleteReadOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", StatusRead, cutoff).
		Delete(&Notification{})
	if res.Error != nil {
		return 0, apperr.IO(res.Error)
	}
	return res.RowsAffected, nil
}
