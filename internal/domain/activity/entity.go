package activity

import (
	"regexp"
	"strings"
	"time"
)

// Activity is an admin-facing record of one lifecycle transition.
// (reference_id, type) is unique: one activity per transition event.
type Activity struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Type        string    `gorm:"not null;uniqueIndex:idx_activities_reference_type" json:"type"`
	Description string    `json:"description"`
	ItemID      string    `gorm:"index" json:"item_id"`
	ReferenceID string    `gorm:"not null;uniqueIndex:idx_activities_reference_type" json:"reference_id"`
	Status      string    `json:"status"`
	ActorID     string    `json:"actor_id"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
}

func (Activity) TableName() string {
	return "activities"
}

// unknownUser is the placeholder name of a deleted profile.
const unknownUser = "Unknown user"

var (
	quoted   = regexp.MustCompile(`"(?:[^"\\]|\\.)*"`)
	nullWord = regexp.MustCompile(`\bnull\b`)
)

// MissingName reports whether a person's name rendered from a missing value
// or a deleted user.
func MissingName(name string) bool {
	n := strings.TrimSpace(name)
	return n == "" || strings.EqualFold(n, "null") || n == unknownUser
}

// Malformed reports whether a stored description would surface a broken
// message: empty, or naming a null or deleted user. Quoted item names are
// not inspected.
func Malformed(description string) bool {
	d := strings.TrimSpace(description)
	if d == "" {
		return true
	}
	rest := quoted.ReplaceAllString(d, `""`)
	return nullWord.MatchString(rest) || strings.Contains(rest, unknownUser)
}

func (a *Activity) LiveFields() map[string]string {
	return map[string]string{
		"type":    a.Type,
		"item_id": a.ItemID,
		"status":  a.Status,
	}
}
