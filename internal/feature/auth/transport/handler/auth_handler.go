// Package handler provides HTTP handlers for the auth feature.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"mindflow_backend/internal/api"
	"mindflow_backend/internal/feature/auth/domain/entity"
	"mindflow_backend/internal/feature/auth/transport/http/dto"
	"mindflow_backend/internal/feature/auth/usecase"
	jwtmw "mindflow_backend/internal/platform/jwt"
)

// AuthUsecase defines the authentication operations used by the handler.
// Following Go convention: interfaces are defined by the consumer (handler), not the provider (usecase).
type AuthUsecase interface {
	Register(ctx context.Context, name, email, password string) (*usecase.AuthResult, error)
	Login(ctx context.Context, email, password string) (*usecase.AuthResult, error)
	Logout(ctx context.Context, userID string) error
	Refresh(ctx context.Context, refreshToken string) (string, error)
	CurrentUser(ctx context.Context, userID string) (*entity.User, error)
}

// AuthHandler handles HTTP requests for authentication.
type AuthHandler struct {
	auth    AuthUsecase
	cookies CookieConfig
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(auth AuthUsecase, cookies CookieConfig) *AuthHandler {
	return &AuthHandler{auth: auth, cookies: cookies}
}

// Register handles POST /auth/register.
// - 400 on validation errors
// - 409 when the email is already registered
// - 201 with {user, accessToken} and both token cookies on success
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("register validation failed", "error", err, "remote_addr", c.ClientIP())
		api.Invalid(c, http.StatusBadRequest, err)
		return
	}

	res, err := h.auth.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrEmailAlreadyExists):
			slog.Info("register rejected: email taken", "remote_addr", c.ClientIP())
			api.Fail(c, http.StatusConflict, "User with this email already exists")
		case errors.Is(err, usecase.ErrInvalidInput):
			api.Fail(c, http.StatusBadRequest, "Validation failed")
		default:
			slog.Error("register failed", "error", err, "remote_addr", c.ClientIP())
			api.Fail(c, http.StatusInternalServerError, "Registration failed")
		}
		return
	}

	h.writeSession(c, res)
	slog.Info("user registered", "user_id", res.User.ID, "remote_addr", c.ClientIP())
	api.OK(c, http.StatusCreated, "Registration successful", api.AuthData{
		User:        toUserPayload(res.User),
		AccessToken: res.AccessToken,
	})
}

// Login handles POST /auth/login.
// Unknown email and wrong password produce the same 401 response.
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("login validation failed", "error", err, "remote_addr", c.ClientIP())
		api.Invalid(c, http.StatusBadRequest, err)
		return
	}

	res, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidCredentials) {
			slog.Warn("login failed", "remote_addr", c.ClientIP())
			api.Fail(c, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		slog.Error("login failed", "error", err, "remote_addr", c.ClientIP())
		api.Fail(c, http.StatusInternalServerError, "Login failed")
		return
	}

	h.writeSession(c, res)
	slog.Info("user login successful", "user_id", res.User.ID, "remote_addr", c.ClientIP())
	api.OK(c, http.StatusOK, "Login successful", api.AuthData{
		User:        toUserPayload(res.User),
		AccessToken: res.AccessToken,
	})
}

// Logout handles POST /auth/logout. Both cookies are cleared even if the store write fails.
func (h *AuthHandler) Logout(c *gin.Context) {
	id, ok := jwtmw.IdentityFromContext(c.Request.Context())
	if !ok {
		api.Fail(c, http.StatusUnauthorized, "Not authenticated")
		return
	}

	clearTokenCookie(c, AccessTokenCookie, h.cookies.Secure)
	clearTokenCookie(c, RefreshTokenCookie, h.cookies.Secure)

	if err := h.auth.Logout(c.Request.Context(), id.UserID); err != nil {
		slog.Error("logout failed", "error", err, "user_id", id.UserID)
		api.Fail(c, http.StatusInternalServerError, "Logout failed")
		return
	}

	api.OK(c, http.StatusOK, "Logout successful", struct{}{})
}

// Refresh handles POST /auth/refresh using the refresh token cookie.
func (h *AuthHandler) Refresh(c *gin.Context) {
	// a missing cookie yields "" which the usecase reports as ErrMissingRefreshToken
	token, _ := c.Cookie(RefreshTokenCookie)

	access, err := h.auth.Refresh(c.Request.Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrMissingRefreshToken):
			api.Fail(c, http.StatusUnauthorized, "Refresh token not found")
		case errors.Is(err, usecase.ErrInvalidRefreshToken):
			slog.Warn("refresh rejected", "remote_addr", c.ClientIP())
			api.Fail(c, http.StatusUnauthorized, "Invalid refresh token")
		default:
			slog.Error("token refresh failed", "error", err, "remote_addr", c.ClientIP())
			api.Fail(c, http.StatusInternalServerError, "Token refresh failed")
		}
		return
	}

	setTokenCookie(c, AccessTokenCookie, access, h.cookies.AccessMaxAge, h.cookies.Secure)
	api.OK(c, http.StatusOK, "Token refreshed successfully", api.TokenData{AccessToken: access})
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(c *gin.Context) {
	id, ok := jwtmw.IdentityFromContext(c.Request.Context())
	if !ok {
		api.Fail(c, http.StatusUnauthorized, "Not authenticated")
		return
	}

	user, err := h.auth.CurrentUser(c.Request.Context(), id.UserID)
	if err != nil {
		if errors.Is(err, usecase.ErrUserNotFound) {
			api.Fail(c, http.StatusNotFound, "User not found")
			return
		}
		slog.Error("get current user failed", "error", err, "user_id", id.UserID)
		api.Fail(c, http.StatusInternalServerError, "Failed to get user")
		return
	}

	api.OK(c, http.StatusOK, "", api.UserData{User: toUserPayload(user)})
}

func (h *AuthHandler) writeSession(c *gin.Context, res *usecase.AuthResult) {
	setTokenCookie(c, AccessTokenCookie, res.AccessToken, h.cookies.AccessMaxAge, h.cookies.Secure)
	setTokenCookie(c, RefreshTokenCookie, res.RefreshToken, h.cookies.RefreshMaxAge, h.cookies.Secure)
}

// toUserPayload strips credentials from the user.
func toUserPayload(u *entity.User) api.User {
	return api.User{
		ID:              u.ID,
		Name:            u.Name,
		Email:           openapi_types.Email(u.Email),
		IsEmailVerified: u.IsEmailVerified,
		CreatedAt:       u.CreatedAt,
	}
}
