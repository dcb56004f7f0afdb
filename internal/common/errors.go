// Package common defines shared constants and sentinel errors used across
// client and server layers of Turismap. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrInternal          = errors.New("internal error")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("permission denied")
	ErrRemoteUnavailable = errors.New("remote unavailable")

	// ErrValidation is wrapped by field-level validation failures raised
	// before any remote call is made.
	ErrValidation = errors.New("validation error")

	// ErrAuthMismatch is returned when an account signs in under a role it
	// does not hold. The session is terminated before the error is returned.
	ErrAuthMismatch = errors.New("account role mismatch")

	ErrUnknownCollection = errors.New("unknown collection")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
)
