package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestNewHasher_Cost(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cost int
		want int
	}{
		{"min cost kept", bcrypt.MinCost, bcrypt.MinCost},
		{"default kept", bcrypt.DefaultCost, bcrypt.DefaultCost},
		{"zero falls back", 0, bcrypt.DefaultCost},
		{"too high falls back", bcrypt.MaxCost + 1, bcrypt.DefaultCost},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, NewHasher(tt.cost).cost)
		})
	}
}

func TestHasher_HashAndVerify(t *testing.T) {
	t.Parallel()

	h := NewHasher(bcrypt.MinCost)

	digest, err := h.Hash("longenough1")
	require.NoError(t, err)

	assert.NotEqual(t, "longenough1", digest, "digest must not be the plaintext")
	assert.False(t, strings.Contains(digest, "longenough1"))
	assert.True(t, h.Verify("longenough1", digest))
	assert.False(t, h.Verify("longenough2", digest))
}

func TestHasher_SaltedDigests(t *testing.T) {
	t.Parallel()

	h := NewHasher(bcrypt.MinCost)

	first, err := h.Hash("same-password")
	require.NoError(t, err)
	second, err := h.Hash("same-password")
	require.NoError(t, err)

	assert.NotEqual(t, first, second, "each hash must use its own salt")
	assert.True(t, h.Verify("same-password", first))
	assert.True(t, h.Verify("same-password", second))
}

func TestHasher_VerifyMalformedDigest(t *testing.T) {
	t.Parallel()

	h := NewHasher(bcrypt.MinCost)

	for _, digest := range []string{"", "not-a-bcrypt-hash", "$2a$10$short"} {
		assert.NotPanics(t, func() {
			assert.False(t, h.Verify("password123", digest), "digest %q", digest)
		})
	}
}

func TestHasher_HashTooLong(t *testing.T) {
	t.Parallel()

	h := NewHasher(bcrypt.MinCost)

	_, err := h.Hash(strings.Repeat("a", 73))
	assert.Error(t, err, "bcrypt rejects passwords longer than 72 bytes")
}
