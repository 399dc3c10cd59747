// Package usecase implements the business logic for the auth feature.
package usecase

import "errors"

var (
	// ErrUserNotFound is returned when a user cannot be found by email or ID.
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailAlreadyExists is returned when attempting to create a user with an email that already exists.
	ErrEmailAlreadyExists = errors.New("email already exists")

	// ErrInvalidCredentials is returned by Login for both an unknown email and a wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrMissingRefreshToken is returned when no refresh token was presented.
	ErrMissingRefreshToken = errors.New("refresh token not found")

	// ErrInvalidRefreshToken is returned when a refresh token is malformed, expired or superseded.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")

	// ErrInvalidInput is returned when registration input violates a rule the transport could not check.
	ErrInvalidInput = errors.New("invalid input")
)
