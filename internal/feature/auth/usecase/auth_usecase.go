package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"mindflow_backend/internal/feature/auth/domain/entity"
)

const (
	// minPasswordLength is the minimum number of characters in a password.
	minPasswordLength = 8
	// maxPasswordBytes is the bcrypt input limit.
	maxPasswordBytes = 72

	// dummyHash is compared against when the user does not exist, so that
	// "unknown email" and "wrong password" take the same time.
	dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"
)

// UserRepository abstracts the persistence layer for user entities.
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type UserRepository interface {
	// Create persists a new user and fills in its ID and timestamps.
	// It returns ErrEmailAlreadyExists if the email is taken.
	Create(ctx context.Context, user *entity.User) error

	// FindByEmail retrieves a user by lower-cased email, or ErrUserNotFound.
	FindByEmail(ctx context.Context, email string) (*entity.User, error)

	// FindByID retrieves a user by ID, or ErrUserNotFound.
	// Implementations may serve it from a cache and omit the credential fields.
	FindByID(ctx context.Context, id string) (*entity.User, error)

	// FindByIDWithRefreshToken reads the user, including the stored refresh token,
	// from the authoritative store. It is never cached.
	FindByIDWithRefreshToken(ctx context.Context, id string) (*entity.User, error)

	// SetRefreshToken replaces the stored refresh token of the user.
	SetRefreshToken(ctx context.Context, id, token string) error

	// ClearRefreshToken sets the stored refresh token to null. The user record is kept.
	ClearRefreshToken(ctx context.Context, id string) error
}

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, digest string) bool
}

// TokenService issues and parses signed tokens carrying {userId, email}.
type TokenService interface {
	GenerateAccessToken(userID, email string) (string, error)
	GenerateRefreshToken(userID, email string) (string, error)
	ParseToken(token string) (userID, email string, err error)
}

// AuthResult is the outcome of a successful register or login.
type AuthResult struct {
	User         *entity.User
	AccessToken  string
	RefreshToken string
}

// authUsecase implements the authentication business logic.
type authUsecase struct {
	users  UserRepository
	hasher PasswordHasher
	tokens TokenService
}

// NewAuthUsecase creates a new authUsecase.
func NewAuthUsecase(users UserRepository, hasher PasswordHasher, tokens TokenService) *authUsecase {
	return &authUsecase{
		users:  users,
		hasher: hasher,
		tokens: tokens,
	}
}

// NormalizeEmail returns the canonical form under which emails are stored and looked up.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// validatePassword checks the password against the length rules.
func validatePassword(password string) error {
	if utf8.RuneCountInString(password) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters long", ErrInvalidInput, minPasswordLength)
	}
	if len(password) > maxPasswordBytes {
		return fmt.Errorf("%w: password must be at most %d bytes long", ErrInvalidInput, maxPasswordBytes)
	}
	return nil
}

// Register creates a user with a hashed password and signs them in.
func (u *authUsecase) Register(ctx context.Context, name, email, password string) (*AuthResult, error) {
	name = strings.TrimSpace(name)
	email = NormalizeEmail(email)
	if name == "" || email == "" {
		return nil, fmt.Errorf("%w: name and email are required", ErrInvalidInput)
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	_, err := u.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, ErrEmailAlreadyExists
	case !errors.Is(err, ErrUserNotFound):
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	hashed, err := u.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user := &entity.User{Name: name, Email: email, PasswordHash: hashed}
	if err := u.users.Create(ctx, user); err != nil {
		if errors.Is(err, ErrEmailAlreadyExists) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return u.issue(ctx, user)
}

// Login authenticates the user and returns a fresh token pair.
// The bcrypt comparison runs even for unknown emails to mitigate timing attacks.
func (u *authUsecase) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := u.users.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	digest := dummyHash
	if user != nil {
		digest = user.PasswordHash
	}
	ok := u.hasher.Verify(password, digest)

	if user == nil || !ok {
		return nil, ErrInvalidCredentials
	}

	return u.issue(ctx, user)
}

// Logout revokes the stored refresh token. A user that no longer exists is not an error.
func (u *authUsecase) Logout(ctx context.Context, userID string) error {
	if err := u.users.ClearRefreshToken(ctx, userID); err != nil && !errors.Is(err, ErrUserNotFound) {
		return fmt.Errorf("failed to clear refresh token: %w", err)
	}
	return nil
}

// Refresh exchanges the stored refresh token for a new access token.
// The refresh token itself is not rotated.
func (u *authUsecase) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", ErrMissingRefreshToken
	}

	userID, _, err := u.tokens.ParseToken(refreshToken)
	if err != nil {
		return "", ErrInvalidRefreshToken
	}

	user, err := u.users.FindByIDWithRefreshToken(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return "", ErrInvalidRefreshToken
		}
		return "", fmt.Errorf("failed to look up user: %w", err)
	}
	if !user.HasRefreshToken(refreshToken) {
		return "", ErrInvalidRefreshToken
	}

	access, err := u.tokens.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return access, nil
}

// CurrentUser returns the user behind an authenticated identity.
func (u *authUsecase) CurrentUser(ctx context.Context, userID string) (*entity.User, error) {
	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	return user, nil
}

// issue signs a token pair for user and persists the refresh token, replacing any previous one.
func (u *authUsecase) issue(ctx context.Context, user *entity.User) (*AuthResult, error) {
	access, err := u.tokens.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	refresh, err := u.tokens.GenerateRefreshToken(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	if err := u.users.SetRefreshToken(ctx, user.ID, refresh); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}
	user.RefreshToken = &refresh

	return &AuthResult{User: user, AccessToken: access, RefreshToken: refresh}, nil
}
