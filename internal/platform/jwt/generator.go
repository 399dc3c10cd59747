// Package jwtmw issues and verifies the signed access and refresh tokens
// and provides the gin middleware that authenticates requests with them.
package jwtmw

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Millisecond iat/exp keep two tokens issued to the same user within one second distinct,
// so a re-login always supersedes the previous refresh token.
func init() {
	jwt.TimePrecision = time.Millisecond
}

// ErrInvalidToken is returned for every token that fails verification:
// malformed, tampered, wrongly signed or expired.
var ErrInvalidToken = errors.New("invalid token")

// Identity is the payload carried by both token kinds.
type Identity struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

// claims adds the registered expiry claims to the identity payload.
type claims struct {
	Identity
	jwt.RegisteredClaims
}

// Option customises a TokenService.
type Option func(*TokenService)

// WithClock overrides the time source used when signing and verifying.
func WithClock(now func() time.Time) Option {
	return func(s *TokenService) {
		s.now = now
	}
}

// TokenService signs and verifies HS256 tokens with a shared secret.
type TokenService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenService creates a TokenService with the given secret and lifetimes.
func NewTokenService(secret string, accessTTL, refreshTTL time.Duration, opts ...Option) *TokenService {
	s := &TokenService{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AccessTTL returns the access token lifetime.
func (s *TokenService) AccessTTL() time.Duration { return s.accessTTL }

// RefreshTTL returns the refresh token lifetime.
func (s *TokenService) RefreshTTL() time.Duration { return s.refreshTTL }

// GenerateAccessToken signs a short-lived token for the user.
func (s *TokenService) GenerateAccessToken(userID, email string) (string, error) {
	return s.sign(Identity{UserID: userID, Email: email}, s.accessTTL)
}

// GenerateRefreshToken signs a long-lived token for the user.
func (s *TokenService) GenerateRefreshToken(userID, email string) (string, error) {
	return s.sign(Identity{UserID: userID, Email: email}, s.refreshTTL)
}

// ParseToken verifies token and returns its payload.
func (s *TokenService) ParseToken(token string) (string, string, error) {
	id, err := s.Verify(token)
	if err != nil {
		return "", "", err
	}
	return id.UserID, id.Email, nil
}

// Verify checks signature, algorithm and expiry and returns the identity.
// All failures are reported as ErrInvalidToken.
func (s *TokenService) Verify(tokenStr string) (*Identity, error) {
	if tokenStr == "" {
		return nil, ErrInvalidToken
	}

	var c claims
	token, err := jwt.ParseWithClaims(tokenStr, &c, func(t *jwt.Token) (interface{}, error) {
		// Only HMAC is accepted
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if c.UserID == "" {
		return nil, ErrInvalidToken
	}

	id := c.Identity
	return &id, nil
}

func (s *TokenService) sign(id Identity, ttl time.Duration) (string, error) {
	now := s.now()
	c := claims{
		Identity: id,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
