package middleware

import (
	"net/http"
	"strings"
	"time"

	"lostfound/internal/cache"
	"lostfound/internal/domain/access"
	"lostfound/internal/pkg/jwt"
	"lostfound/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// JWTAuth validates the bearer token and stores the caller's access.Session.
// WebSocket upgrades may pass the token as ?token= since browsers cannot set
// headers on them. revocations may be nil.
func JWTAuth(tokens *jwt.Service, revocations cache.Store, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *gin.Context) {
		raw, code, msg := bearerToken(c)
		if raw == "" {
			response.CustomError(c, http.StatusUnauthorized, code, msg)
			c.Abort()
			return
		}

		claims, err := tokens.ValidateToken(raw)
		if err != nil {
			response.CustomError(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
			c.Abort()
			return
		}

		if revocations != nil && claims.ID != "" {
			revoked, err := revocations.Exists(c.Request.Context(), access.RevocationKey(claims.ID))
			if err != nil {
				// fail open: the token itself is still valid and signed
				log.Error("revocation check failed", zap.String("jti", claims.ID), zap.Error(err))
			} else if revoked {
				response.CustomError(c, http.StatusUnauthorized, "INVALID_TOKEN", "Token has been revoked")
				c.Abort()
				return
			}
		}

		var expires time.Time
		if claims.ExpiresAt != nil {
			expires = claims.ExpiresAt.Time
		}
		access.SetSession(c, access.Session{
			UserID:    claims.UserID,
			Email:     claims.Email,
			Name:      claims.Name,
			IsAdmin:   claims.IsAdmin,
			TokenID:   claims.ID,
			ExpiresAt: expires,
		})
		c.Next()
	}
}

func bearerToken(c *gin.Context) (token, code, message string) {
	header := c.GetHeader("Authorization")
	if header == "" {
		if c.IsWebsocket() {
			if t := strings.TrimSpace(c.Query("token")); t != "" {
				return t, "", ""
			}
		}
		return "", "AUTH_HEADER_MISSING", "Authorization header is required"
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", "INVALID_AUTH_FORMAT", "Authorization header must be 'Bearer <token>'"
	}
	return strings.TrimSpace(parts[1]), "", ""
}
