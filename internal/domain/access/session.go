package access

import (
	"time"

	"github.com/gin-gonic/gin"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Landing screens returned to clients after sign-in or restore.
const (
	HomeAdminDashboard = "admin_dashboard"
	HomeUser           = "user_home"
)

func RoleFor(isAdmin bool) Role {
	if isAdmin {
		return RoleAdmin
	}
	return RoleUser
}

func (r Role) IsAdmin() bool { return r == RoleAdmin }

func (r Role) Home() string {
	if r.IsAdmin() {
		return HomeAdminDashboard
	}
	return HomeUser
}

// Session is the authenticated identity of one caller.
type Session struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	IsAdmin   bool      `json:"is_admin"`
	TokenID   string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s Session) Role() Role { return RoleFor(s.IsAdmin) }

// DisplayName falls back to the email when the profile has no name.
func (s Session) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	return s.Email
}

const sessionKey = "session"

// SetSession stores s in the gin context along with the flat user_id / is_admin keys.
func SetSession(c *gin.Context, s Session) {
	c.Set(sessionKey, s)
	c.Set("user_id", s.UserID)
	c.Set("is_admin", s.IsAdmin)
}

func SessionFrom(c *gin.Context) (Session, bool) {
	v, ok := c.Get(sessionKey)
	if !ok {
		return Session{}, false
	}
	s, ok := v.(Session)
	return s, ok && s.UserID != ""
}

// RevocationKey is the cache key marking a signed-out token id.
func RevocationKey(tokenID string) string {
	return "revoked:" + tokenID
}
