package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	jwtmw "mindflow_backend/internal/platform/jwt"
)

const (
	// AccessTokenCookie carries the access token. The auth middleware reads it as a fallback.
	AccessTokenCookie = jwtmw.AccessTokenCookie
	// RefreshTokenCookie carries the refresh token.
	RefreshTokenCookie = "refreshToken"
)

// CookieConfig controls the token cookies.
type CookieConfig struct {
	// Secure marks cookies HTTPS-only. Enabled in production.
	Secure        bool
	AccessMaxAge  time.Duration
	RefreshMaxAge time.Duration
}

// setTokenCookie writes an http-only, same-site strict cookie scoped to the whole site.
// gin's Context.SetCookie cannot set SameSite per call, so the cookie is built directly.
func setTokenCookie(c *gin.Context, name, value string, maxAge time.Duration, secure bool) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		Expires:  time.Now().Add(maxAge),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// clearTokenCookie expires the cookie immediately.
func clearTokenCookie(c *gin.Context, name string, secure bool) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1, // Max-Age=0
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}
