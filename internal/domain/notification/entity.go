package notification

import (
	"strings"
	"time"
)

type Status string

const (
	StatusUnread Status = "unread"
	StatusRead   Status = "read"
)

// Notification is owned by its recipient.
type Notification struct {
	ID          string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID      string     `gorm:"not null;index:idx_notifications_user_status" json:"user_id"`
	Type        string     `gorm:"not null" json:"type"`
	Title       string     `json:"title"`
	Message     string     `json:"message"`
	ItemID      string     `gorm:"index" json:"item_id"`
	ReferenceID string     `gorm:"index" json:"reference_id"`
	Status      Status     `gorm:"not null;index:idx_notifications_user_status" json:"status"`
	ReadAt      *time.Time `json:"read_at,omitempty"`
	CreatedAt   time.Time  `gorm:"index" json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}

func (n *Notification) Normalize() {
	if n.Status != StatusRead {
		n.Status = StatusUnread
	}
	if strings.TrimSpace(n.Title) == "" {
		n.Title = "Notification"
	}
}

func (n *Notification) IsRead() bool { return n.Status == StatusRead }

func (n *Notification) LiveFields() map[string]string {
	return map[string]string{
		"user_id": n.UserID,
		"status":  string(n.Status),
		"item_id": n.ItemID,
	}
}
