package common

import "fmt"

// ValidationError reports user input rejected before any network call.
// Message is the user-facing text.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Is(target error) bool { return target == ErrorValidation }

// GeoErrorKind distinguishes the two geo lookup failure modes.
type GeoErrorKind int

const (
	GeoNotFound GeoErrorKind = iota + 1
	GeoUnavailable
)

func (k GeoErrorKind) String() string {
	switch k {
	case GeoNotFound:
		return "not_found"
	case GeoUnavailable:
		return "unavailable"
	default:
		return fmt.Sprintf("geo_kind(%d)", int(k))
	}
}

// GeoError is returned by location lookups. The underlying cause is kept
// for logs only and never becomes part of the message.
type GeoError struct {
	Kind       GeoErrorKind
	PostalCode string
	Err        error
}

func (e *GeoError) Error() string {
	if e.Kind == GeoNotFound {
		return "invalid zip code: " + e.PostalCode
	}
	return "failed to fetch location data, please retry"
}

func (e *GeoError) Unwrap() error { return e.Err }

func (e *GeoError) Is(target error) bool {
	switch e.Kind {
	case GeoNotFound:
		return target == ErrGeoNotFound
	case GeoUnavailable:
		return target == ErrGeoUnavailable
	}
	return false
}

// StoreErrorKind classifies persistence failures.
type StoreErrorKind int

const (
	StoreNotFound StoreErrorKind = iota + 1
	StoreConstraintViolation
	StoreUnavailable
)

func (k StoreErrorKind) String() string {
	switch k {
	case StoreNotFound:
		return "not_found"
	case StoreConstraintViolation:
		return "constraint_violation"
	case StoreUnavailable:
		return "unavailable"
	default:
		return fmt.Sprintf("store_kind(%d)", int(k))
	}
}

// StoreError wraps a failed store operation. Op names the operation
// ("list", "insert", ...) for logs.
type StoreError struct {
	Kind StoreErrorKind
	Op   string
	Err  error
}

func (e *StoreError) Error() string {
	switch e.Kind {
	case StoreNotFound:
		return "user not found"
	case StoreConstraintViolation:
		return "user record violates a store constraint"
	default:
		return "user store unavailable, please retry"
	}
}

func (e *StoreError) Unwrap() error { return e.Err }

func (e *StoreError) Is(target error) bool {
	switch e.Kind {
	case StoreNotFound:
		return target == ErrorNotFound
	case StoreConstraintViolation:
		return target == ErrConstraintViolation
	case StoreUnavailable:
		return target == ErrStoreUnavailable
	}
	return false
}
