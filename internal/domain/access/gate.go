package access

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// Profile is the stored part of an identity relevant to role resolution.
type Profile struct {
	UserID  string
	Email   string
	IsAdmin bool
}

type ProfileStore interface {
	SetAdmin(ctx context.Context, userID string, isAdmin bool) error
}

// Gate maps identities to roles.
type Gate struct {
	adminEmail string
	profiles   ProfileStore
	log        *zap.Logger
}

func NewGate(adminEmail string, profiles ProfileStore, log *zap.Logger) *Gate {
	if log == nil {
		log = zap.NewNop()
	}
	return &Gate{
		adminEmail: strings.ToLower(strings.TrimSpace(adminEmail)),
		profiles:   profiles,
		log:        log,
	}
}

func (g *Gate) IsAdminEmail(email string) bool {
	return g.adminEmail != "" && strings.EqualFold(strings.TrimSpace(email), g.adminEmail)
}

// ResolveRole returns the caller's role. The designated admin email is always
// admin; a stored profile that says otherwise is upgraded in place.
func (g *Gate) ResolveRole(ctx context.Context, email string, profile *Profile) (Role, error) {
	if g.IsAdminEmail(email) {
		if profile != nil && !profile.IsAdmin {
			if err := g.profiles.SetAdmin(ctx, profile.UserID, true); err != nil {
				return RoleAdmin, err
			}
			profile.IsAdmin = true
			g.log.Info("admin profile self-healed", zap.String("user_id", profile.UserID))
		}
		return RoleAdmin, nil
	}

	if profile == nil {
		return RoleUser, nil
	}
	return RoleFor(profile.IsAdmin), nil
}
