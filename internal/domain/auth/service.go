package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"lostfound/internal/cache"
	"lostfound/internal/domain/access"
	"lostfound/internal/pkg/apperr"
	"lostfound/internal/pkg/jwt"
	"lostfound/internal/pkg/validator"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service signs users in and out and keeps their role in sync with the gate.
type Service struct {
	users       *Repository
	gate        *access.Gate
	tokens      *jwt.Service
	revocations cache.Store
	sessions    *access.SessionHub
	log         *zap.Logger
	now         func() time.Time
}

func NewService(users *Repository, gate *access.Gate, tokens *jwt.Service, revocations cache.Store, sessions *access.SessionHub, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if sessions == nil {
		sessions = access.NewSessionHub()
	}
	return &Service{
		users:       users,
		gate:        gate,
		tokens:      tokens,
		revocations: revocations,
		sessions:    sessions,
		log:         log,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) Register(ctx context.Context, req RegisterRequest) (*SessionResult, error) {
	req.Email = normalizeEmail(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	if err := validator.Check(req); err != nil {
		return nil, err
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, apperr.IO(err)
	}

	now := s.now()
	u := &User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		PasswordHash: hash,
		Name:         req.Name,
		IsAdmin:      s.gate.IsAdminEmail(req.Email),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	s.log.Info("user registered", zap.String("user_id", u.ID), zap.Bool("is_admin", u.IsAdmin))

	return s.issue(ctx, u, access.EventSignedIn)
}

// SignIn checks credentials and issues a token for the resolved role.
func (s *Service) SignIn(ctx context.Context, req LoginRequest) (*SessionResult, error) {
	if err := validator.Check(req); err != nil {
		return nil, err
	}

	u, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := CheckPassword(req.Password, u.PasswordHash); err != nil {
		s.log.Info("sign-in rejected", zap.String("user_id", u.ID))
		return nil, ErrInvalidCredentials
	}

	if err := s.resolve(ctx, u); err != nil {
		return nil, err
	}
	return s.issue(ctx, u, access.EventSignedIn)
}

// Restore re-resolves the caller's role. A new token is issued only when the
// role differs from the one carried by the current token.
func (s *Service) Restore(ctx context.Context, sess access.Session) (*SessionResult, error) {
	u, err := s.users.GetByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, apperr.ErrAuth
		}
		return nil, err
	}
	if err := s.resolve(ctx, u); err != nil {
		return nil, err
	}

	if u.IsAdmin != sess.IsAdmin {
		s.log.Info("role changed, re-issuing token",
			zap.String("user_id", u.ID),
			zap.Bool("is_admin", u.IsAdmin),
		)
		if sess.TokenID != "" {
			s.revoke(ctx, sess)
		}
		return s.issue(ctx, u, access.EventRestored)
	}

	sess.Name = u.Name
	s.sessions.Publish(access.Event{Type: access.EventRestored, Session: sess})
	role := access.RoleFor(u.IsAdmin)
	return &SessionResult{
		ExpiresAt: sess.ExpiresAt,
		User:      u,
		Session:   sess,
		Role:      role,
		Home:      role.Home(),
	}, nil
}

// SignOut revokes the current token and notifies live connections.
func (s *Service) SignOut(ctx context.Context, sess access.Session) error {
	s.revoke(ctx, sess)
	s.sessions.Publish(access.Event{Type: access.EventSignedOut, Session: sess})
	s.log.Info("user signed out", zap.String("user_id", sess.UserID))
	return nil
}

func (s *Service) resolve(ctx context.Context, u *User) error {
	profile := u.Profile()
	if _, err := s.gate.ResolveRole(ctx, u.Email, profile); err != nil {
		s.log.Error("admin self-heal failed", zap.String("user_id", u.ID), zap.Error(err))
		return err
	}
	u.IsAdmin = profile.IsAdmin
	return nil
}

func (s *Service) issue(ctx context.Context, u *User, event access.EventType) (*SessionResult, error) {
	token, claims, err := s.tokens.GenerateToken(u.ID, u.Email, u.Name, u.IsAdmin)
	if err != nil {
		return nil, apperr.IO(err)
	}

	sess := access.Session{
		UserID:    u.ID,
		Email:     u.Email,
		Name:      u.Name,
		IsAdmin:   u.IsAdmin,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	s.sessions.Publish(access.Event{Type: event, Session: sess})

	role := sess.Role()
	return &SessionResult{
		Token:     token,
		ExpiresAt: sess.ExpiresAt,
		User:      u,
		Session:   sess,
		Role:      role,
		Home:      role.Home(),
	}, nil
}

func (s *Service) revoke(ctx context.Context, sess access.Session) {
	if s.revocations == nil || sess.TokenID == "" {
		return
	}
	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		ttl = s.tokens.TTL()
	}
	if _, err := s.revocations.SetNX(ctx, access.RevocationKey(sess.TokenID), ttl); err != nil {
		s.log.Warn("token revocation failed", zap.String("user_id", sess.UserID), zap.Error(err))
	}
}
