// Package entity defines the domain entities for the auth feature.
package entity

import (
	"crypto/subtle"
	"time"
)

// User represents a registered user in the system.
// It holds the credential lifecycle: the password digest and the single active refresh token.
type User struct {
	// ID is the store-assigned identifier. It is an opaque string to callers.
	ID string

	Name string

	// Email is the login key. It is stored lower-cased and is unique across users.
	Email string

	// PasswordHash is the bcrypt digest of the password. Never the plaintext.
	PasswordHash string

	// RefreshToken is the most recently issued refresh token, or nil after logout.
	RefreshToken *string

	IsEmailVerified bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasRefreshToken reports whether token is the currently stored refresh token.
// The comparison is constant-time.
func (u *User) HasRefreshToken(token string) bool {
	if u.RefreshToken == nil || *u.RefreshToken == "" || token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(*u.RefreshToken), []byte(token)) == 1
}
