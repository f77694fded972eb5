package activity

import (
	"context"

	"lostfound/internal/live"

	"go.uber.org/zap"
)

type Service struct {
	repo *Repository
	live live.Publisher
	log  *zap.Logger
}

func NewService(repo *Repository, pub live.Publisher, log *zap.Logger) *Service {
	if pub == nil {
		pub = live.Discard
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{repo: repo, live: pub, log: log}
}

// List returns the newest activities, skipping malformed legacy rows.
func (s *Service) List(ctx context.Context, limit, offset int) ([]Activity, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]Activity, 0, len(rows))
	for _, a := range rows {
		if Malformed(a.Description) {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (s *Service) ClearAll(ctx context.Context, actorID string) (int64, error) {
	n, err := s.repo.DeleteAll(ctx)
	if err != nil {
		return 0, err
	}
	s.log.Info("activities cleared", zap.String("actor_id", actorID), zap.Int64("deleted", n))
	s.live.Publish(live.Change{Collection: live.CollectionActivities, Op: live.OpDeleted, ID: "*"})
	return n, nil
}

func (s *Service) Snapshot(ctx context.Context, filters map[string]string) ([]any, error) {
	rows, err := s.List(ctx, 200, 0)
	if err != nil {
		return nil, err
	}
	out := make([]any, 0, len(rows))
	for i := range rows {
		q := live.Query{Collection: live.CollectionActivities, Filters: filters}
		if q.Matches(live.Change{Collection: live.CollectionActivities, Fields: rows[i].LiveFields()}) {
			out = append(out, rows[i])
		}
	}
	return out, nil
}
