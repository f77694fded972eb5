// Package admin serves the dashboard overview.
package admin

import (
	"context"
	"time"

	"lostfound/internal/domain/item"
	"lostfound/internal/domain/request"

	"go.uber.org/zap"
)

type ItemCounter interface {
	CountByStatus(ctx context.Context, kind item.Kind) (map[item.Status]int64, error)
}

type RequestCounter interface {
	CountByStatus(ctx context.Context, kind request.Kind) (map[request.Status]int64, error)
}

type KindStats struct {
	Total    int64            `json:"total"`
	ByStatus map[string]int64 `json:"by_status"`
}

type Stats struct {
	Items       map[string]KindStats `json:"items"`
	Requests    map[string]KindStats `json:"requests"`
	OpenClaims  int64                `json:"open_claims"`
	AwaitPickup int64                `json:"awaiting_pickup"`
	GeneratedAt time.Time            `json:"generated_at"`
}

type Service struct {
	items    ItemCounter
	requests RequestCounter
	log      *zap.Logger
}

func NewService(items ItemCounter, requests RequestCounter, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{items: items, requests: requests, log: log}
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	out := &Stats{
		Items:       make(map[string]KindStats, 2),
		Requests:    make(map[string]KindStats, 2),
		GeneratedAt: time.Now().UTC(),
	}

	for _, k := range []item.Kind{item.KindLost, item.KindFound} {
		counts, err := s.items.CountByStatus(ctx, k)
		if err != nil {
			return nil, err
		}
		ks := KindStats{ByStatus: make(map[string]int64, len(counts))}
		for st, n := range counts {
			ks.ByStatus[string(st)] = n
			ks.Total += n
		}
		out.Items[string(k)] = ks
	}

	for _, k := range []request.Kind{request.KindClaim, request.KindFound} {
		counts, err := s.requests.CountByStatus(ctx, k)
		if err != nil {
			return nil, err
		}
		ks := KindStats{ByStatus: make(map[string]int64, len(counts))}
		for st, n := range counts {
			ks.ByStatus[string(st)] = n
			ks.Total += n
		}
		out.Requests[string(k)] = ks
		out.OpenClaims += counts[request.StatusPending]
		out.AwaitPickup += counts[request.StatusApproved]
	}
	return out, nil
}
