package jwtmw

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"mindflow_backend/internal/api"
)

// AccessTokenCookie is the cookie carrying the access token.
const AccessTokenCookie = "accessToken"

// Verifier validates a token and returns the identity it carries.
type Verifier interface {
	Verify(token string) (*Identity, error)
}

type identityKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the identity stored by AuthRequired, if any.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(*Identity)
	return id, ok && id != nil
}

// AuthRequired returns a gin middleware that resolves the caller from a bearer
// token or, failing that, the access token cookie. Unauthenticated requests get 401.
func AuthRequired(v Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := tokenFromRequest(c)
		if tokenStr == "" {
			api.AbortFail(c, http.StatusUnauthorized, "Not authenticated")
			return
		}

		id, err := v.Verify(tokenStr)
		if err != nil {
			slog.Debug("access token rejected", "error", err, "remote_addr", c.ClientIP())
			api.AbortFail(c, http.StatusUnauthorized, "Not authenticated")
			return
		}

		c.Request = c.Request.WithContext(WithIdentity(c.Request.Context(), id))
		c.Next()
	}
}

func tokenFromRequest(c *gin.Context) string {
	// the auth scheme is case-insensitive
	if scheme, token, ok := strings.Cut(c.GetHeader("Authorization"), " "); ok && strings.EqualFold(scheme, "Bearer") {
		if token = strings.TrimSpace(token); token != "" {
			return token
		}
	}
	if cookie, err := c.Cookie(AccessTokenCookie); err == nil {
		return cookie
	}
	return ""
}
