// Package lifecycle enforces request state transitions and their side effects.
//
//	pending -> approved -> retrieved
//	pending -> rejected
//
// Every transition is a compare-and-set on the current status, so of two
// concurrent calls exactly one succeeds and the other gets
// apperr.ErrInvalidTransition without producing a notification.
package lifecycle

import (
	"context"
	"errors"
	"strings"
	"time"

	"lostfound/internal/domain/fanout"
	"lostfound/internal/domain/item"
	"lostfound/internal/domain/request"
	"lostfound/internal/live"
	"lostfound/internal/pkg/apperr"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Config struct {
	// AtomicFanout commits the status change and its notification/activity
	// in one transaction. When false the fan-out runs after the commit.
	AtomicFanout     bool
	OperationTimeout time.Duration
	OfficeLocation   string
	OfficeHours      string
}

type Engine struct {
	db       *gorm.DB
	requests *request.Repository
	items    *item.Repository
	emitter  *fanout.Emitter
	live     live.Publisher
	cfg      Config
	log      *zap.Logger
	now      func() time.Time
}

func NewEngine(db *gorm.DB, requests *request.Repository, items *item.Repository, emitter *fanout.Emitter, pub live.Publisher, cfg Config, log *zap.Logger) *Engine {
	if pub == nil {
		pub = live.Discard
	}
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.OperationTimeout <= 0 {
		cfg.OperationTimeout = 10 * time.Second
	}
	return &Engine{
		db:       db,
		requests: requests,
		items:    items,
		emitter:  emitter,
		live:     pub,
		cfg:      cfg,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Approve moves a pending request to approved and attaches pickup or
// drop-off instructions with the request's code.
func (e *Engine) Approve(ctx context.Context, kind request.Kind, requestID, actorID string) (*request.Request, error) {
	return e.apply(ctx, step{
		kind:       kind,
		requestID:  requestID,
		actorID:    actorID,
		from:       request.StatusPending,
		to:         request.StatusApproved,
		transition: fanout.TransitionApproved,
		fields: func(req *request.Request, it *item.Item, now time.Time) map[string]any {
			return map[string]any{
				"status_reason": e.approvalReason(kind, req.ID, it),
				"handled_by":    actorID,
			}
		},
	})
}

// Reject moves a pending request to rejected. reason is required; it may be
// one of RejectionReasons or free text.
func (e *Engine) Reject(ctx context.Context, kind request.Kind, requestID, actorID, reason string) (*request.Request, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, apperr.Validation(map[string]string{"reason": "required"})
	}
	return e.apply(ctx, step{
		kind:       kind,
		requestID:  requestID,
		actorID:    actorID,
		from:       request.StatusPending,
		to:         request.StatusRejected,
		transition: fanout.TransitionRejected,
		fields: func(req *request.Request, it *item.Item, now time.Time) map[string]any {
			return map[string]any{
				"status_reason":    rejectionReason(reason),
				"rejection_reason": strings.TrimSpace(reason),
				"handled_by":       actorID,
			}
		},
	})
}

// MarkRetrieved records that an approved request's item changed hands.
func (e *Engine) MarkRetrieved(ctx context.Context, kind request.Kind, requestID, actorID string) (*request.Request, error) {
	return e.apply(ctx, step{
		kind:       kind,
		requestID:  requestID,
		actorID:    actorID,
		from:       request.StatusApproved,
		to:         request.StatusRetrieved,
		transition: fanout.TransitionRetrieved,
		fields: func(req *request.Request, it *item.Item, now time.Time) map[string]any {
			return map[string]any{
				"retrieval_date":         now,
				"retrieval_confirmed_by": actorID,
			}
		},
	})
}

type step struct {
	kind       request.Kind
	requestID  string
	actorID    string
	from, to   request.Status
	transition fanout.Transition
	fields     func(req *request.Request, it *item.Item, now time.Time) map[string]any
}

func (e *Engine) apply(ctx context.Context, s step) (*request.Request, error) {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.OperationTimeout)
	defer cancel()

	log := e.log.With(
		zap.String("request_id", s.requestID),
		zap.String("kind", string(s.kind)),
		zap.String("transition", string(s.transition)),
		zap.String("actor_id", s.actorID),
	)

	current, err := e.requests.GetByID(ctx, s.kind, s.requestID)
	if err != nil {
		return nil, e.wrap(err)
	}
	if current.Status != s.from {
		log.Info("transition rejected", zap.String("status", string(current.Status)))
		return nil, apperr.ErrInvalidTransition
	}

	it, err := e.items.GetByID(ctx, s.kind.ItemKind(), current.ItemID)
	if err != nil {
		if !errors.Is(err, apperr.ErrNotFound) {
			return nil, e.wrap(err)
		}
		log.Warn("transition on orphaned request", zap.String("item_id", current.ItemID))
		it = nil
	}

	now := e.now()
	fields := s.fields(current, it, now)
	fields["updated_at"] = now

	var (
		updated *request.Request
		result  *fanout.Result
		ev      fanout.Event
	)

	run := func(db *gorm.DB, withFanout bool) error {
		repo := e.requests.WithTx(db)
		if err := repo.Transition(ctx, s.kind, s.requestID, s.from, s.to, fields); err != nil {
			return err
		}
		req, err := repo.GetByID(ctx, s.kind, s.requestID)
		if err != nil {
			return err
		}
		updated = req
		ev = fanout.Event{
			RequestKind: s.kind,
			Transition:  s.transition,
			Request:     req,
			Item:        it,
			ActorID:     s.actorID,
		}
		if !withFanout {
			return nil
		}
		result, err = e.emitter.Emit(ctx, db, ev)
		return err
	}

	if e.cfg.AtomicFanout {
		err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return run(tx, true)
		})
		if err != nil {
			if ev.Request != nil {
				e.emitter.Release(context.Background(), ev)
			}
			if errors.Is(err, apperr.ErrInvalidTransition) {
				log.Info("transition lost compare-and-set")
			}
			return nil, e.wrap(err)
		}
	} else {
		if err := run(e.db, false); err != nil {
			return nil, e.wrap(err)
		}
		result, err = e.emitter.Emit(ctx, e.db, ev)
		if err != nil {
			log.Error("fan-out failed after committed transition", zap.Error(err))
		}
	}

	request.Publish(e.live, live.OpUpdated, updated, current)
	e.publishFanout(result)

	log.Info("request transitioned",
		zap.String("from", string(s.from)),
		zap.String("to", string(s.to)),
		zap.Bool("fanout_duplicate", result != nil && result.Duplicate),
	)
	return updated, nil
}

func (e *Engine) publishFanout(res *fanout.Result) {
	if res == nil || res.Duplicate {
		return
	}
	if n := res.Notification; n != nil {
		e.live.Publish(live.Change{
			Collection: live.CollectionNotifications,
			Op:         live.OpCreated,
			ID:         n.ID,
			Record:     n,
			Fields:     n.LiveFields(),
		})
	}
	if a := res.Activity; a != nil {
		e.live.Publish(live.Change{
			Collection: live.CollectionActivities,
			Op:         live.OpCreated,
			ID:         a.ID,
			Record:     a,
			Fields:     a.LiveFields(),
		})
	}
}

// wrap keeps domain errors and turns anything else into a retryable IO error.
func (e *Engine) wrap(err error) error {
	if ae, ok := apperr.As(err); ok {
		return ae
	}
	return apperr.IO(err)
}
