// Package common defines shared constants, sentinel errors and the typed
// error taxonomy used across client and server layers of geodash. Callers
// should use errors.Is / errors.As to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound          = errors.New("not found")
	ErrConstraintViolation = errors.New("constraint violation")
	ErrStoreUnavailable    = errors.New("store unavailable")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Input validation.
	ErrorValidation = errors.New("validation error")

	// Geo lookup errors.
	ErrGeoNotFound    = errors.New("postal code not found")
	ErrGeoUnavailable = errors.New("location data unavailable")

	// Auth errors (invalid or malformed API key).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
