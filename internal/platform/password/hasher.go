// Package password hashes and verifies user passwords with bcrypt.
package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Hasher hashes passwords with a fixed bcrypt cost.
type Hasher struct {
	cost int
}

// NewHasher returns a Hasher. Costs outside bcrypt's range fall back to bcrypt.DefaultCost.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash returns a salted bcrypt digest of plain.
func (h *Hasher) Hash(plain string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(digest), nil
}

// Verify reports whether plain matches digest.
// An empty or malformed digest never matches.
func (h *Hasher) Verify(plain, digest string) bool {
	if digest == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plain)) == nil
}
