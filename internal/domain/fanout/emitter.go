// Package fanout turns committed lifecycle transitions into exactly one
// requester notification and one admin activity.
package fanout

import (
	"context"
	"errors"
	"time"

	"lostfound/internal/cache"
	"lostfound/internal/database"
	"lostfound/internal/domain/activity"
	"lostfound/internal/domain/notification"
	"lostfound/internal/pkg/apperr"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultGuardTTL = 24 * time.Hour

var errDuplicate = errors.New("fanout: already emitted")

type Emitter struct {
	notifications *notification.Repository
	activities    *activity.Repository
	guard         cache.Store
	guardTTL      time.Duration
	log           *zap.Logger
	now           func() time.Time
}

func NewEmitter(notifications *notification.Repository, activities *activity.Repository, guard cache.Store, log *zap.Logger) *Emitter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Emitter{
		notifications: notifications,
		activities:    activities,
		guard:         guard,
		guardTTL:      defaultGuardTTL,
		log:           log,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func guardKey(ev Event) string {
	return "fanout:" + ev.Type() + ":" + ev.Request.ID
}

// Emit writes the notification and activity for ev through db, which is the
// caller's transaction in atomic mode. A repeated event is reported as
// Duplicate and writes nothing.
func (e *Emitter) Emit(ctx context.Context, db *gorm.DB, ev Event) (*Result, error) {
	typ := ev.Type()
	ref := ev.Request.ID
	log := e.log.With(zap.String("type", typ), zap.String("reference_id", ref))

	if e.guard != nil {
		fresh, err := e.guard.SetNX(ctx, guardKey(ev), e.guardTTL)
		switch {
		case err != nil:
			log.Warn("fanout guard unavailable, relying on store checks", zap.Error(err))
		case !fresh:
			log.Info("fanout suppressed duplicate event")
			return &Result{Duplicate: true}, nil
		}
	}

	notifications := e.notifications.WithTx(db)
	activities := e.activities.WithTx(db)

	if seen, err := activities.Exists(ctx, ref, typ); err != nil {
		return nil, err
	} else if seen {
		log.Info("fanout suppressed duplicate event")
		return &Result{Duplicate: true}, nil
	}
	if seen, err := notifications.ExistsForReference(ctx, ref, typ); err != nil {
		return nil, err
	} else if seen {
		log.Info("fanout suppressed duplicate event")
		return &Result{Duplicate: true}, nil
	}

	now := e.now()
	res := &Result{}

	desc := activityDescription(ev)
	if activity.MissingName(ev.Request.RequesterName) || activity.Malformed(desc) {
		log.Warn("activity suppressed: malformed description",
			zap.String("requester_name", ev.Request.RequesterName),
			zap.String("description", desc),
		)
	} else {
		a := &activity.Activity{
			ID:          uuid.NewString(),
			Type:        typ,
			Description: desc,
			ItemID:      ev.itemID(),
			ReferenceID: ref,
			Status:      string(ev.Request.Status),
			ActorID:     ev.ActorID,
			CreatedAt:   now,
		}
		err := db.WithContext(ctx).Transaction(func(sp *gorm.DB) error {
			if err := activities.WithTx(sp).Create(ctx, a); err != nil {
				if database.IsDuplicateKey(err) {
					return errDuplicate
				}
				return err
			}
			return nil
		})
		if errors.Is(err, errDuplicate) {
			log.Info("fanout suppressed duplicate event")
			return &Result{Duplicate: true}, nil
		}
		if err != nil {
			return nil, apperr.IO(err)
		}
		res.Activity = a
	}

	msg := notificationFor(ev)
	n := &notification.Notification{
		ID:          uuid.NewString(),
		UserID:      ev.Request.RequesterID,
		Type:        typ,
		Title:       msg.title,
		Message:     msg.body,
		ItemID:      ev.itemID(),
		ReferenceID: ref,
		Status:      notification.StatusUnread,
		CreatedAt:   now,
	}
	if err := notifications.Create(ctx, n); err != nil {
		return nil, err
	}
	res.Notification = n

	log.Debug("fanout emitted", zap.Bool("activity", res.Activity != nil))
	return res, nil
}

// Release clears the guard for ev so a rolled back transition can be emitted
// again.
func (e *Emitter) Release(ctx context.Context, ev Event) {
	if e.guard == nil {
		return
	}
	if err := e.guard.Delete(ctx, guardKey(ev)); err != nil {
		e.log.Warn("fanout guard release failed", zap.Error(err))
	}
}
