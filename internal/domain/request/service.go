package request

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"lostfound/internal/domain/access"
	"lostfound/internal/domain/item"
	"lostfound/internal/live"
	"lostfound/internal/pkg/apperr"
	"lostfound/internal/pkg/validator"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ItemLookup resolves the item a request targets.
type ItemLookup interface {
	GetByID(ctx context.Context, kind item.Kind, id string) (*item.Item, error)
}

type Service struct {
	repo  *Repository
	items ItemLookup
	live  live.Publisher
	log   *zap.Logger
	now   func() time.Time
}

func NewService(repo *Repository, items ItemLookup, pub live.Publisher, log *zap.Logger) *Service {
	if pub == nil {
		pub = live.Discard
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		repo:  repo,
		items: items,
		live:  pub,
		log:   log,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Submit files a request against an item. Requests against found items are
// claims, requests against lost items are found reports.
func (s *Service) Submit(ctx context.Context, sess access.Session, itemKind item.Kind, itemID string, in SubmitRequest) (*Request, error) {
	if err := validator.Check(in); err != nil {
		return nil, err
	}

	it, err := s.items.GetByID(ctx, itemKind, itemID)
	if err != nil {
		return nil, err
	}
	if it.Status != item.StatusApproved {
		return nil, ErrItemNotAvailable
	}
	if it.Reporter.UserID == sess.UserID {
		return nil, ErrOwnItem
	}

	kind := ForItem(itemKind)
	open, err := s.repo.ExistsOpen(ctx, kind, itemID, sess.UserID)
	if err != nil {
		return nil, err
	}
	if open {
		return nil, ErrDuplicateRequest
	}

	now := s.now()
	req := &Request{
		ID:            uuid.NewString(),
		Kind:          kind,
		ItemID:        itemID,
		RequesterID:   sess.UserID,
		RequesterName: sess.DisplayName(),
		Contact:       strings.TrimSpace(in.Contact),
		Description:   strings.TrimSpace(in.Description),
		Status:        StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Create(ctx, req); err != nil {
		return nil, err
	}
	req.Normalize(kind)

	s.log.Info("request submitted",
		zap.String("request_id", req.ID),
		zap.String("kind", string(kind)),
		zap.String("item_id", itemID),
		zap.String("requester_id", sess.UserID),
	)
	Publish(s.live, live.OpCreated, req, nil)
	return req, nil
}

// Get returns a request visible to sess: its requester or any admin.
func (s *Service) Get(ctx context.Context, sess access.Session, kind Kind, id string) (*Request, error) {
	req, err := s.repo.GetByID(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	if !sess.IsAdmin && req.RequesterID != sess.UserID {
		return nil, ErrRequestNotFound
	}
	return req, nil
}

// View resolves the request's item. A missing item is not an error.
func (s *Service) View(ctx context.Context, sess access.Session, kind Kind, id string) (*View, error) {
	req, err := s.Get(ctx, sess, kind, id)
	if err != nil {
		return nil, err
	}

	v := &View{Request: req, Warnings: []apperr.Warning{}}
	it, err := s.items.GetByID(ctx, kind.ItemKind(), req.ItemID)
	switch {
	case err == nil:
		v.Item = it.Summary()
	case errors.Is(err, apperr.ErrNotFound):
		v.Item = item.Placeholder(kind.ItemKind(), req.ItemID)
		v.Warnings = append(v.Warnings, apperr.OrphanReference(kind.ItemKind().Table(), req.ItemID))
		s.log.Warn("request references a deleted item",
			zap.String("request_id", req.ID),
			zap.String("item_id", req.ItemID),
		)
	default:
		return nil, err
	}
	return v, nil
}

func (s *Service) List(ctx context.Context, f ListFilter) (*ListResponse, error) {
	f.normalize()
	rows, total, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	return &ListResponse{Requests: rows, Total: total, Page: f.Page, Limit: f.Limit}, nil
}

// ListMine returns the caller's requests of both kinds, newest first.
func (s *Service) ListMine(ctx context.Context, sess access.Session) ([]Request, error) {
	var out []Request
	for _, kind := range []Kind{KindClaim, KindFound} {
		rows, err := s.repo.FindAll(ctx, kind, map[string]any{"requester_id": sess.UserID})
		if err != nil {
			return nil, err
		}
		out = append(out, rows...)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if out == nil {
		out = []Request{}
	}
	return out, nil
}

// History returns retrieved requests of both kinds, most recent retrieval first.
func (s *Service) History(ctx context.Context, page, limit int) (*ListResponse, error) {
	f := ListFilter{Page: page, Limit: limit}
	f.normalize()

	var all []Request
	for _, kind := range []Kind{KindClaim, KindFound} {
		rows, err := s.repo.FindAll(ctx, kind, map[string]any{"status": StatusRetrieved})
		if err != nil {
			return nil, err
		}
		all = append(all, rows...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		return retrievedAt(all[i]).After(retrievedAt(all[j]))
	})

	start := (f.Page - 1) * f.Limit
	end := start + f.Limit
	if start > len(all) {
		start = len(all)
	}
	if end > len(all) {
		end = len(all)
	}
	return &ListResponse{
		Requests: append([]Request{}, all[start:end]...),
		Total:    int64(len(all)),
		Page:     f.Page,
		Limit:    f.Limit,
	}, nil
}

func retrievedAt(r Request) time.Time {
	if r.RetrievalDate != nil {
		return *r.RetrievalDate
	}
	return r.UpdatedAt
}

// Snapshot returns the live snapshot function for kind.
func (s *Service) Snapshot(kind Kind) live.SnapshotFunc {
	return func(ctx context.Context, filters map[string]string) ([]any, error) {
		where := map[string]any{}
		for _, k := range []string{"status", "requester_id", "item_id"} {
			if v, ok := filters[k]; ok {
				where[k] = v
			}
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

// Publish emits a live change for req. prev is the row as it was before an
// update and may be nil.
func Publish(pub live.Publisher, op live.Op, req, prev *Request) {
	c := live.Change{
		Collection: req.Kind.Table(),
		Op:         op,
		ID:         req.ID,
		Record:     req,
		Fields:     req.LiveFields(),
	}
	if prev != nil {
		c.Prev = prev.LiveFields()
	}
	pub.Publish(c)
}
