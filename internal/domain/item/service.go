package item

import (
	"context"
	"strings"
	"time"

	"lostfound/internal/domain/access"
	"lostfound/internal/live"
	"lostfound/internal/pkg/apperr"
	"lostfound/internal/pkg/validator"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// NotificationPurger removes notifications tied to an item inside tx.
type NotificationPurger interface {
	DeleteByItemTx(ctx context.Context, tx *gorm.DB, itemID string) (int64, error)
}

// MediaRemover deletes an uploaded image.
type MediaRemover interface {
	Delete(ctx context.Context, id string) error
}

type Service struct {
	repo          *Repository
	notifications NotificationPurger
	media         MediaRemover
	live          live.Publisher
	log           *zap.Logger
	now           func() time.Time
}

func NewService(repo *Repository, notifications NotificationPurger, media MediaRemover, pub live.Publisher, log *zap.Logger) *Service {
	if pub == nil {
		pub = live.Discard
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		repo:          repo,
		notifications: notifications,
		media:         media,
		live:          pub,
		log:           log,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) Create(ctx context.Context, sess access.Session, kind Kind, req CreateItemRequest) (*Item, error) {
	if err := validator.Check(req); err != nil {
		return nil, err
	}

	now := s.now()
	it := &Item{
		ID:          uuid.NewString(),
		Kind:        kind,
		Name:        strings.TrimSpace(req.Name),
		Landmark:    strings.TrimSpace(req.Landmark),
		Contact:     strings.TrimSpace(req.Contact),
		Description: strings.TrimSpace(req.Description),
		Images:      req.Images,
		DateEvent:   req.DateEvent,
		TimeEvent:   req.TimeEvent,
		Reporter:    Reporter{UserID: sess.UserID, Name: sess.DisplayName()},
		Status:      kind.InitialStatus(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, it); err != nil {
		return nil, err
	}
	it.Normalize(kind)

	s.publish(live.OpCreated, it, nil)
	return it, nil
}

func (s *Service) Get(ctx context.Context, kind Kind, id string) (*Item, error) {
	return s.repo.GetByID(ctx, kind, id)
}

// List returns a page of items. Non-admins only see active (approved) items.
func (s *Service) List(ctx context.Context, sess access.Session, f ListFilter) (*ListResponse, error) {
	if !sess.IsAdmin {
		f.Status = StatusApproved
	}
	f.normalize()

	rows, total, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	return &ListResponse{Items: rows, Total: total, Page: f.Page, Limit: f.Limit}, nil
}

// ListMine returns everything the caller reported, across both kinds.
func (s *Service) ListMine(ctx context.Context, sess access.Session) ([]Item, error) {
	out := []Item{}
	for _, kind := range []Kind{KindLost, KindFound} {
		rows, err := s.repo.FindAll(ctx, kind, map[string]any{"reporter_user_id": sess.UserID})
		if err != nil {
			return nil, err
		}
		out = append(out, rows...)
	}
	return out, nil
}

// Review moves a pending item to approved or rejected.
func (s *Service) Review(ctx context.Context, kind Kind, id string, status Status, actorID string) (*Item, error) {
	if status != StatusApproved && status != StatusRejected {
		return nil, ErrInvalidStatus
	}
	if err := s.repo.UpdateStatusGuard(ctx, kind, id, StatusPending, status, s.now()); err != nil {
		return nil, err
	}

	it, err := s.repo.GetByID(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	s.log.Info("item reviewed",
		zap.String("item_id", id),
		zap.String("kind", string(kind)),
		zap.String("status", string(status)),
		zap.String("actor_id", actorID),
	)
	prev := *it
	prev.Status = StatusPending
	s.publish(live.OpUpdated, it, &prev)
	return it, nil
}

// Delete removes an item and the notifications that reference it. Requests
// against the item are kept; media is removed best effort after commit.
func (s *Service) Delete(ctx context.Context, kind Kind, id string, actorID string) error {
	it, err := s.repo.GetByID(ctx, kind, id)
	if err != nil {
		return err
	}

	var purged int64
	err = s.repo.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Delete(ctx, kind, id); err != nil {
			return err
		}
		if s.notifications == nil {
			return nil
		}
		n, err := s.notifications.DeleteByItemTx(ctx, tx, id)
		if err != nil {
			return err
		}
		purged = n
		return nil
	})
	if err != nil {
		if _, ok := apperr.As(err); ok {
			return err
		}
		return apperr.IO(err)
	}

	if s.media != nil {
		for _, img := range it.Images {
			if img.MediaID == "" {
				continue
			}
			if err := s.media.Delete(ctx, img.MediaID); err != nil {
				s.log.Warn("item media cleanup failed",
					zap.String("item_id", id),
					zap.String("media_id", img.MediaID),
					zap.Error(err),
				)
			}
		}
	}

	s.log.Info("item deleted",
		zap.String("item_id", id),
		zap.String("kind", string(kind)),
		zap.String("actor_id", actorID),
		zap.Int64("notifications_purged", purged),
	)
	s.publish(live.OpDeleted, it, nil)
	return nil
}

// Snapshot returns the live snapshot function for kind.
func (s *Service) Snapshot(kind Kind) live.SnapshotFunc {
	return func(ctx context.Context, filters map[string]string) ([]any, error) {
		where := map[string]any{}
		if v, ok := filters["status"]; ok {
			where["status"] = v
		}
		if v, ok := filters["reporter_id"]; ok {
			where["reporter_user_id"] = v
		}
		rows, err := s.repo.FindAll(ctx, kind, where)
		if err != nil {
			return nil, err
		}
		out := make([]any, 0, len(rows))
		for i := range rows {
			out = append(out, rows[i])
		}
		return out, nil
	}
}

func (s *Service) publish(op live.Op, it, prev *Item) {
	c := live.Change{
		Collection: it.Kind.Table(),
		Op:         op,
		ID:         it.ID,
		Record:     it,
		Fields:     it.LiveFields(),
	}
	if prev != nil {
		c.Prev = prev.LiveFields()
	}
	s.live.Publish(c)
}
