package item

import (
	"strings"
	"time"
)

// Kind selects the collection an item lives in.
type Kind string

const (
	KindLost  Kind = "lost"
	KindFound Kind = "found"
)

func ParseKind(s string) (Kind, bool) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindLost:
		return KindLost, true
	case KindFound:
		return KindFound, true
	}
	return "", false
}

// Table is the collection name of the kind.
func (k Kind) Table() string {
	if k == KindFound {
		return "found_items"
	}
	return "lost_items"
}

// InitialStatus: found items wait for admin intake, lost items are active at once.
func (k Kind) InitialStatus() Status {
	if k == KindFound {
		return StatusPending
	}
	return StatusApproved
}

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

const (
	UnknownItemName = "Unknown item"
	UnknownUserName = "Unknown user"
	UnknownLandmark = "Unknown location"
)

type Image struct {
	ThumbnailURL string `json:"thumbnail_url"`
	FullSizeURL  string `json:"full_size_url" validate:"required"`
	MediaID      string `json:"media_id"`
}

type Reporter struct {
	UserID string `gorm:"column:user_id;index" json:"user_id"`
	Name   string `gorm:"column:name" json:"name"`
}

// Item is a reported lost or found object. The same struct backs both
// lost_items and found_items; Kind is derived from the table on read.
type Item struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Kind        Kind      `gorm:"-" json:"kind"`
	Name        string    `gorm:"not null" json:"name"`
	Landmark    string    `json:"landmark"`
	Contact     string    `json:"contact"`
	Description string    `json:"description"`
	Images      []Image   `gorm:"serializer:json" json:"images"`
	DateEvent   string    `json:"date_event"`
	TimeEvent   string    `json:"time_event"`
	Reporter    Reporter  `gorm:"embedded;embeddedPrefix:reporter_" json:"reporter"`
	Status      Status    `gorm:"index;not null" json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Normalize fills defaults on a freshly fetched record.
func (it *Item) Normalize(kind Kind) {
	it.Kind = kind
	if !it.Status.Valid() {
		it.Status = kind.InitialStatus()
	}
	if strings.TrimSpace(it.Name) == "" {
		it.Name = UnknownItemName
	}
	if strings.TrimSpace(it.Reporter.Name) == "" {
		it.Reporter.Name = UnknownUserName
	}
	if it.Images == nil {
		it.Images = []Image{}
	}
}

// Summary is the part of an item embedded in request and notification views.
type Summary struct {
	ID       string `json:"id"`
	Kind     Kind   `json:"kind"`
	Name     string `json:"name"`
	Landmark string `json:"landmark"`
	Exists   bool   `json:"exists"`
}

func (it *Item) Summary() Summary {
	return Summary{ID: it.ID, Kind: it.Kind, Name: it.Name, Landmark: it.Landmark, Exists: true}
}

// Placeholder stands in for a deleted item.
func Placeholder(kind Kind, id string) Summary {
	return Summary{ID: id, Kind: kind, Name: UnknownItemName, Landmark: UnknownLandmark}
}

// LiveFields are the attributes live subscriptions may filter on.
func (it *Item) LiveFields() map[string]string {
	return map[string]string{
		"status":      string(it.Status),
		"reporter_id": it.Reporter.UserID,
	}
}
