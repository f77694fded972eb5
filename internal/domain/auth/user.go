package auth

import (
	"time"

	"lostfound/internal/domain/access"
)

type User struct {
	ID           string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	Name         string    `json:"name"`
	IsAdmin      bool      `gorm:"not null;default:false" json:"is_admin"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (User) TableName() string { return "users" }

func (u *User) Profile() *access.Profile {
	return &access.Profile{UserID: u.ID, Email: u.Email, IsAdmin: u.IsAdmin}
}

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"required,max=120"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SessionResult is returned by sign-in, register and restore. Token is empty
// on restore when the current token is still accurate.
type SessionResult struct {
	Token     string         `json:"access_token,omitempty"`
	ExpiresAt time.Time      `json:"expires_at"`
	User      *User          `json:"user"`
	Session   access.Session `json:"session"`
	Role      access.Role    `json:"role"`
	Home      string         `json:"home"`
}
