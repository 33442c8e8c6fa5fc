package common

import (
	"regexp"
	"strings"
)

// zipPattern is the only accepted postal code format: 5 digits, optionally
// followed by a dash and 4 digits.
var zipPattern = regexp.MustCompile(`^\d{5}(-\d{4})?$`)

const (
	MsgNameRequired = "name is required"
	MsgZipRequired  = "zip code is required"
	MsgZipInvalid   = "please enter a valid US zip code (e.g., 37643 or 37643-1234)"
)

// IsValidZip reports whether code matches the ZIP pattern exactly.
func IsValidZip(code string) bool {
	return zipPattern.MatchString(code)
}

// ValidateUserInput checks a name / postal code pair in the same order the
// dashboard form does. Both values are trimmed before checking; the trimmed
// values are returned so callers persist exactly what was validated.
func ValidateUserInput(name, zipCode string) (string, string, error) {
	name = strings.TrimSpace(name)
	zipCode = strings.TrimSpace(zipCode)

	if name == "" {
		return "", "", &ValidationError{Field: "name", Message: MsgNameRequired}
	}
	if zipCode == "" {
		return "", "", &ValidationError{Field: "zip_code", Message: MsgZipRequired}
	}
	if !IsValidZip(zipCode) {
		return "", "", &ValidationError{Field: "zip_code", Message: MsgZipInvalid}
	}
	return name, zipCode, nil
}
