// Package common defines shared constants and sentinel errors used across
// the ProjectHub server layers. Callers should use errors.Is to match these
// values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")

	// ErrPersistence marks a failed store write at a mutation boundary. The
	// caller sees no partial state and may retry.
	ErrPersistence = errors.New("persistence error")

	// Validation errors. Field-level details travel in validation.Errors.
	ErrValidation = errors.New("validation error")

	// Conflicts: the requested state already exists.
	ErrConflict       = errors.New("conflict")
	ErrDuplicateEmail = fmt.Errorf("%w: email already exists", ErrConflict)
	ErrAlreadyOwner   = fmt.Errorf("%w: already the owner of this project", ErrConflict)
	ErrAlreadyMember  = fmt.Errorf("%w: already a member of this project", ErrConflict)

	// Auth errors. The same value is used for an unknown email and a wrong
	// password.
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid token")

	// Invite token errors.
	ErrInvalidTokenFormat = errors.New("token must be exactly 6 digits")
	ErrTokenNotFound      = errors.New("no project found with this token")
)
