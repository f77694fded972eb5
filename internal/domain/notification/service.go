package notification

import (
	"context"
	"time"

	"lostfound/internal/domain/access"
	"lostfound/internal/live"

	"go.uber.org/zap"
)

type Service struct {
	repo *Repository
	live live.Publisher
	log  *zap.Logger
	now  func() time.Time
}

func NewService(repo *Repository, pub live.Publisher, log *zap.Logger) *Service {
	if pub == nil {
		pub = live.Discard
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		repo: repo,
		live: pub,
		log:  log,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

type ListResponse struct {
	Notifications []Notification `json:"notifications"`
	UnreadCount   int64          `json:"unread_count"`
	Total         int64          `json:"total"`
}

func (s *Service) List(ctx context.Context, sess access.Session, limit, offset int) (*ListResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	rows, total, err := s.repo.ListByUser(ctx, sess.UserID, limit, offset)
	if err != nil {
		return nil, err
	}
	unread, err := s.repo.CountUnread(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	return &ListResponse{Notifications: rows, UnreadCount: unread, Total: total}, nil
}

func (s *Service) UnreadCount(ctx context.Context, sess access.Session) (int64, error) {
	return s.repo.CountUnread(ctx, sess.UserID)
}

// MarkRead marks one notification read and returns the new unread count.
func (s *Service) MarkRead(ctx context.Context, sess access.Session, id string) (int64, error) {
	changed, err := s.repo.MarkRead(ctx, id, sess.UserID, s.now())
	if err != nil {
		return 0, err
	}
	if changed {
		if n, err := s.repo.GetByID(ctx, id, sess.UserID); err == nil {
			s.publish(live.OpUpdated, n, map[string]string{
				"user_id": n.UserID,
				"status":  string(StatusUnread),
				"item_id": n.ItemID,
			})
		}
	}
	return s.repo.CountUnread(ctx, sess.UserID)
}

func (s *Service) MarkAllRead(ctx context.Context, sess access.Session) (int64, error) {
	updated, err := s.repo.MarkAllRead(ctx, sess.UserID, s.now())
	if err != nil {
		return 0, err
	}
	if updated > 0 {
		s.log.Debug("notifications marked read", zap.String("user_id", sess.UserID), zap.Int64("count", updated))
	}
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, sess access.Session, id string) error {
	n, err := s.repo.GetByID(ctx, id, sess.UserID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id, sess.UserID); err != nil {
		return err
	}
	s.publish(live.OpDeleted, n, nil)
	return nil
}

func (s *Service) Snapshot(ctx context.Context, filters map[string]string) ([]any, error) {
	where := map[string]any{}
	for _, k := range []string{"user_id", "status", "item_id"} {
		if v, ok := filters[k]; ok {
			where[k] = v
		}
	}
	rows, err := s.repo.FindAll(ctx, where)
	if err != nil {
		return nil, err
	}
	out := make([]any, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i])
	}
	return out, nil
}

func (s *Service) publish(op live.Op, n *Notification, prev map[string]string) {
	s.live.Publish(live.Change{
		Collection: live.CollectionNotifications,
		Op:         op,
		ID:         n.ID,
		Record:     n,
		Fields:     n.LiveFields(),
		Prev:       prev,
	})
}
