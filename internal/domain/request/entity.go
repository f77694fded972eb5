package request

import (
	"strings"
	"time"

	"lostfound/internal/domain/item"
)

// Kind: a claim is filed against a found item, a found report against a lost item.
type Kind string

const (
	KindClaim Kind = "claim"
	KindFound Kind = "found"
)

func ParseKind(s string) (Kind, bool) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindClaim:
		return KindClaim, true
	case KindFound:
		return KindFound, true
	}
	return "", false
}

func (k Kind) Table() string {
	if k == KindFound {
		return "found_requests"
	}
	return "claim_requests"
}

// ItemKind is the kind of item a request of this kind targets.
func (k Kind) ItemKind() item.Kind {
	if k == KindFound {
		return item.KindLost
	}
	return item.KindFound
}

// ForItem returns the request kind filed against an item of kind k.
func ForItem(k item.Kind) Kind {
	if k == item.KindLost {
		return KindFound
	}
	return KindClaim
}

type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusRetrieved Status = "retrieved"
)

var transitions = map[Status][]Status{
	StatusPending:  {StatusApproved, StatusRejected},
	StatusApproved: {StatusRetrieved},
}

// CanTransitionTo reports whether next directly follows s.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusRetrieved:
		return true
	}
	return false
}

// Open requests still hold a claim on their item.
func (s Status) Open() bool {
	return s == StatusPending || s == StatusApproved
}

type Request struct {
	ID                   string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Kind                 Kind       `gorm:"-" json:"kind"`
	ItemID               string     `gorm:"not null;index" json:"item_id"`
	RequesterID          string     `gorm:"not null;index" json:"requester_id"`
	RequesterName        string     `json:"requester_name"`
	Contact              string     `json:"contact"`
	Description          string     `json:"description"`
	Status               Status     `gorm:"not null;index" json:"status"`
	StatusReason         string     `json:"status_reason"`
	RejectionReason      string     `json:"rejection_reason,omitempty"`
	HandledBy            string     `json:"handled_by,omitempty"`
	RetrievalDate        *time.Time `json:"retrieval_date,omitempty"`
	RetrievalConfirmedBy string     `json:"retrieval_confirmed_by,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

func (r *Request) Normalize(kind Kind) {
	r.Kind = kind
	if !r.Status.Valid() {
		r.Status = StatusPending
	}
	if strings.TrimSpace(r.RequesterName) == "" {
		r.RequesterName = item.UnknownUserName
	}
}

func (r *Request) LiveFields() map[string]string {
	return map[string]string{
		"status":       string(r.Status),
		"requester_id": r.RequesterID,
		"item_id":      r.ItemID,
	}
}
