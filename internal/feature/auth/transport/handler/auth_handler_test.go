package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindflow_backend/internal/api"
	"mindflow_backend/internal/feature/auth/domain/entity"
	"mindflow_backend/internal/feature/auth/usecase"
	jwtmw "mindflow_backend/internal/platform/jwt"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	api.UseJSONFieldNames()
	os.Exit(m.Run())
}

// mockAuthUsecase is a function-field mock of AuthUsecase.
type mockAuthUsecase struct {
	RegisterFunc    func(ctx context.Context, name, email, password string) (*usecase.AuthResult, error)
	LoginFunc       func(ctx context.Context, email, password string) (*usecase.AuthResult, error)
	LogoutFunc      func(ctx context.Context, userID string) error
	RefreshFunc     func(ctx context.Context, refreshToken string) (string, error)
	CurrentUserFunc func(ctx context.Context, userID string) (*entity.User, error)
}

func (m *mockAuthUsecase) Register(ctx context.Context, name, email, password string) (*usecase.AuthResult, error) {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, name, email, password)
	}
	return nil, errors.New("register not expected")
}

func (m *mockAuthUsecase) Login(ctx context.Context, email, password string) (*usecase.AuthResult, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, email, password)
	}
	return nil, errors.New("login not expected")
}

func (m *mockAuthUsecase) Logout(ctx context.Context, userID string) error {
	if m.LogoutFunc != nil {
		return m.LogoutFunc(ctx, userID)
	}
	return nil
}

func (m *mockAuthUsecase) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if m.RefreshFunc != nil {
		return m.RefreshFunc(ctx, refreshToken)
	}
	return "", errors.New("refresh not expected")
}

func (m *mockAuthUsecase) CurrentUser(ctx context.Context, userID string) (*entity.User, error) {
	if m.CurrentUserFunc != nil {
		return m.CurrentUserFunc(ctx, userID)
	}
	return nil, errors.New("current user not expected")
}

var testCookies = CookieConfig{Secure: false, AccessMaxAge: 7 * 24 * time.Hour, RefreshMaxAge: 30 * 24 * time.Hour}

func testUser() *entity.User {
	rt := "refresh-token"
	return &entity.User{
		ID:           "u1",
		Name:         "Test User",
		Email:        "test@example.com",
		PasswordHash: "$2a$10$secret",
		RefreshToken: &rt,
		CreatedAt:    time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func successResult() *usecase.AuthResult {
	return &usecase.AuthResult{User: testUser(), AccessToken: "access-token", RefreshToken: "refresh-token"}
}

func newRouter(h *AuthHandler, identity *jwtmw.Identity) *gin.Engine {
	r := gin.New()
	if identity != nil {
		r.Use(func(c *gin.Context) {
			c.Request = c.Request.WithContext(jwtmw.WithIdentity(c.Request.Context(), identity))
		})
	}
	r.POST("/auth/register", h.Register)
	r.POST("/auth/login", h.Login)
	r.POST("/auth/logout", h.Logout)
	r.POST("/auth/refresh", h.Refresh)
	r.GET("/auth/me", h.Me)
	return r
}

func doJSON(r http.Handler, method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func cookieByName(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), "body: %s", w.Body.String())
	return body
}

func TestAuthHandler_Register(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    gin.H
		registerFunc   func(ctx context.Context, name, email, password string) (*usecase.AuthResult, error)
		expectedStatus int
		expectedMsg    string
		expectCookies  bool
	}{
		{
			name:           "success: user registration",
			requestBody:    gin.H{"name": "Test User", "email": "test@example.com", "password": "password123"},
			registerFunc:   func(context.Context, string, string, string) (*usecase.AuthResult, error) { return successResult(), nil },
			expectedStatus: http.StatusCreated,
			expectedMsg:    "Registration successful",
			expectCookies:  true,
		},
		{
			name:           "failure: invalid email address",
			requestBody:    gin.H{"name": "Test User", "email": "invalid-email", "password": "password123"},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "Validation failed",
		},
		{
			name:           "failure: short password",
			requestBody:    gin.H{"name": "Test User", "email": "test@example.com", "password": "short"},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "Validation failed",
		},
		{
			name:           "failure: missing name",
			requestBody:    gin.H{"email": "test@example.com", "password": "password123"},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "Validation failed",
		},
		{
			name:        "failure: duplicate email",
			requestBody: gin.H{"name": "Test User", "email": "existing@example.com", "password": "password123"},
			registerFunc: func(context.Context, string, string, string) (*usecase.AuthResult, error) {
				return nil, usecase.ErrEmailAlreadyExists
			},
			expectedStatus: http.StatusConflict,
			expectedMsg:    "User with this email already exists",
		},
		{
			name:        "failure: store error",
			requestBody: gin.H{"name": "Test User", "email": "test@example.com", "password": "password123"},
			registerFunc: func(context.Context, string, string, string) (*usecase.AuthResult, error) {
				return nil, errors.New("pq: connection refused")
			},
			expectedStatus: http.StatusInternalServerError,
			expectedMsg:    "Registration failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewAuthHandler(&mockAuthUsecase{RegisterFunc: tt.registerFunc}, testCookies)
			w := doJSON(newRouter(h, nil), http.MethodPost, "/auth/register", tt.requestBody)

			assert.Equal(t, tt.expectedStatus, w.Code)
			body := decode(t, w)
			assert.Equal(t, tt.expectedMsg, body["message"])
			assert.NotContains(t, w.Body.String(), "connection refused", "internal errors must not leak")

			if tt.expectCookies {
				assert.NotNil(t, cookieByName(w, AccessTokenCookie))
				assert.NotNil(t, cookieByName(w, RefreshTokenCookie))
			} else {
				assert.Empty(t, w.Result().Cookies())
			}
		})
	}
}

func TestAuthHandler_Register_ResponseShape(t *testing.T) {
	h := NewAuthHandler(&mockAuthUsecase{
		RegisterFunc: func(context.Context, string, string, string) (*usecase.AuthResult, error) { return successResult(), nil },
	}, testCookies)

	w := doJSON(newRouter(h, nil), http.MethodPost, "/auth/register",
		gin.H{"name": "Test User", "email": "test@example.com", "password": "password123"})
	require.Equal(t, http.StatusCreated, w.Code)

	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	data := body["data"].(map[string]any)
	assert.Equal(t, "access-token", data["accessToken"])

	user := data["user"].(map[string]any)
	assert.Equal(t, "u1", user["id"])
	assert.Equal(t, "Test User", user["name"])
	assert.Equal(t, "test@example.com", user["email"])
	assert.Equal(t, false, user["isEmailVerified"])
	assert.Equal(t, "2026-01-02T03:04:05Z", user["createdAt"])
	assert.NotContains(t, user, "password")
	assert.NotContains(t, user, "refreshToken")
	assert.NotContains(t, w.Body.String(), "$2a$10$secret")
}

func TestAuthHandler_Register_ValidationErrors(t *testing.T) {
	h := NewAuthHandler(&mockAuthUsecase{}, testCookies)

	w := doJSON(newRouter(h, nil), http.MethodPost, "/auth/register", gin.H{"email": "bad"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	var body api.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	fields := make([]string, 0, len(body.Errors))
	for _, fe := range body.Errors {
		fields = append(fields, fe.Field)
	}
	assert.ElementsMatch(t, []string{"name", "email", "password"}, fields)
}

func TestAuthHandler_Login(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    gin.H
		loginFunc      func(ctx context.Context, email, password string) (*usecase.AuthResult, error)
		expectedStatus int
		expectedMsg    string
	}{
		{
			name:           "success: login",
			requestBody:    gin.H{"email": "test@example.com", "password": "password123"},
			loginFunc:      func(context.Context, string, string) (*usecase.AuthResult, error) { return successResult(), nil },
			expectedStatus: http.StatusOK,
			expectedMsg:    "Login successful",
		},
		{
			name:           "failure: missing password",
			requestBody:    gin.H{"email": "test@example.com"},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "Validation failed",
		},
		{
			name:        "failure: invalid credentials",
			requestBody: gin.H{"email": "test@example.com", "password": "wrongpassword"},
			loginFunc: func(context.Context, string, string) (*usecase.AuthResult, error) {
				return nil, usecase.ErrInvalidCredentials
			},
			expectedStatus: http.StatusUnauthorized,
			expectedMsg:    "Invalid email or password",
		},
		{
			name:        "failure: store error is not reported as bad credentials",
			requestBody: gin.H{"email": "test@example.com", "password": "password123"},
			loginFunc: func(context.Context, string, string) (*usecase.AuthResult, error) {
				return nil, errors.New("db down")
			},
			expectedStatus: http.StatusInternalServerError,
			expectedMsg:    "Login failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewAuthHandler(&mockAuthUsecase{LoginFunc: tt.loginFunc}, testCookies)
			w := doJSON(newRouter(h, nil), http.MethodPost, "/auth/login", tt.requestBody)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectedMsg, decode(t, w)["message"])
		})
	}
}

func TestAuthHandler_Login_SetsCookies(t *testing.T) {
	h := NewAuthHandler(&mockAuthUsecase{
		LoginFunc: func(context.Context, string, string) (*usecase.AuthResult, error) { return successResult(), nil },
	}, CookieConfig{Secure: true, AccessMaxAge: time.Hour, RefreshMaxAge: 30 * 24 * time.Hour})

	w := doJSON(newRouter(h, nil), http.MethodPost, "/auth/login", gin.H{"email": "test@example.com", "password": "password123"})
	require.Equal(t, http.StatusOK, w.Code)

	access := cookieByName(w, AccessTokenCookie)
	require.NotNil(t, access)
	assert.Equal(t, "access-token", access.Value)
	assert.True(t, access.HttpOnly)
	assert.True(t, access.Secure)
	assert.Equal(t, http.SameSiteStrictMode, access.SameSite)
	assert.Equal(t, "/", access.Path)
	assert.Equal(t, 3600, access.MaxAge)

	refresh := cookieByName(w, RefreshTokenCookie)
	require.NotNil(t, refresh)
	assert.Equal(t, "refresh-token", refresh.Value)
	assert.Equal(t, 30*24*3600, refresh.MaxAge)
}

func TestAuthHandler_Logout(t *testing.T) {
	identity := &jwtmw.Identity{UserID: "u1", Email: "test@example.com"}

	t.Run("clears cookies and stored token", func(t *testing.T) {
		var loggedOut string
		h := NewAuthHandler(&mockAuthUsecase{
			LogoutFunc: func(_ context.Context, userID string) error {
				loggedOut = userID
				return nil
			},
		}, testCookies)

		w := doJSON(newRouter(h, identity), http.MethodPost, "/auth/logout", nil)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "u1", loggedOut)
		assert.JSONEq(t, `{"success":true,"message":"Logout successful","data":{}}`, w.Body.String())

		for _, name := range []string{AccessTokenCookie, RefreshTokenCookie} {
			c := cookieByName(w, name)
			require.NotNil(t, c, name)
			assert.Empty(t, c.Value)
			assert.True(t, c.HttpOnly)
			assert.Equal(t, "/", c.Path)
			assert.True(t, c.Expires.Equal(time.Unix(0, 0)), "cookie %s should expire at the epoch", name)
		}
	})

	t.Run("store failure", func(t *testing.T) {
		h := NewAuthHandler(&mockAuthUsecase{
			LogoutFunc: func(context.Context, string) error { return errors.New("db down") },
		}, testCookies)

		w := doJSON(newRouter(h, identity), http.MethodPost, "/auth/logout", nil)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "Logout failed", decode(t, w)["message"])
		assert.NotNil(t, cookieByName(w, AccessTokenCookie))
	})

	t.Run("no identity", func(t *testing.T) {
		h := NewAuthHandler(&mockAuthUsecase{}, testCookies)

		w := doJSON(newRouter(h, nil), http.MethodPost, "/auth/logout", nil)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestAuthHandler_Refresh(t *testing.T) {
	tests := []struct {
		name           string
		cookie         *http.Cookie
		refreshFunc    func(ctx context.Context, token string) (string, error)
		expectedStatus int
		expectedMsg    string
	}{
		{
			name:   "success",
			cookie: &http.Cookie{Name: RefreshTokenCookie, Value: "refresh-token"},
			refreshFunc: func(_ context.Context, token string) (string, error) {
				if token != "refresh-token" {
					return "", usecase.ErrInvalidRefreshToken
				}
				return "new-access", nil
			},
			expectedStatus: http.StatusOK,
			expectedMsg:    "Token refreshed successfully",
		},
		{
			name: "missing cookie",
			refreshFunc: func(_ context.Context, token string) (string, error) {
				if token == "" {
					return "", usecase.ErrMissingRefreshToken
				}
				return "x", nil
			},
			expectedStatus: http.StatusUnauthorized,
			expectedMsg:    "Refresh token not found",
		},
		{
			name:   "invalid token",
			cookie: &http.Cookie{Name: RefreshTokenCookie, Value: "stale"},
			refreshFunc: func(context.Context, string) (string, error) {
				return "", usecase.ErrInvalidRefreshToken
			},
			expectedStatus: http.StatusUnauthorized,
			expectedMsg:    "Invalid refresh token",
		},
		{
			name:   "store failure",
			cookie: &http.Cookie{Name: RefreshTokenCookie, Value: "refresh-token"},
			refreshFunc: func(context.Context, string) (string, error) {
				return "", errors.New("db down")
			},
			expectedStatus: http.StatusInternalServerError,
			expectedMsg:    "Token refresh failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewAuthHandler(&mockAuthUsecase{RefreshFunc: tt.refreshFunc}, testCookies)

			var cookies []*http.Cookie
			if tt.cookie != nil {
				cookies = append(cookies, tt.cookie)
			}
			w := doJSON(newRouter(h, nil), http.MethodPost, "/auth/refresh", nil, cookies...)

			assert.Equal(t, tt.expectedStatus, w.Code)
			body := decode(t, w)
			assert.Equal(t, tt.expectedMsg, body["message"])

			if tt.expectedStatus == http.StatusOK {
				assert.Equal(t, "new-access", body["data"].(map[string]any)["accessToken"])
				access := cookieByName(w, AccessTokenCookie)
				require.NotNil(t, access)
				assert.Equal(t, "new-access", access.Value)
				assert.Nil(t, cookieByName(w, RefreshTokenCookie), "refresh token is not rotated")
			}
		})
	}
}

func TestAuthHandler_Me(t *testing.T) {
	identity := &jwtmw.Identity{UserID: "u1", Email: "test@example.com"}

	tests := []struct {
		name           string
		currentUser    func(ctx context.Context, id string) (*entity.User, error)
		expectedStatus int
	}{
		{
			name:           "success",
			currentUser:    func(context.Context, string) (*entity.User, error) { return testUser(), nil },
			expectedStatus: http.StatusOK,
		},
		{
			name:           "user deleted",
			currentUser:    func(context.Context, string) (*entity.User, error) { return nil, usecase.ErrUserNotFound },
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "store failure",
			currentUser:    func(context.Context, string) (*entity.User, error) { return nil, errors.New("boom") },
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewAuthHandler(&mockAuthUsecase{CurrentUserFunc: tt.currentUser}, testCookies)
			w := doJSON(newRouter(h, identity), http.MethodGet, "/auth/me", nil)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				user := decode(t, w)["data"].(map[string]any)["user"].(map[string]any)
				assert.Equal(t, "u1", user["id"])
				assert.NotContains(t, user, "password")
			}
		})
	}
}
