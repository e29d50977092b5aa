package models

import "errors"

var (
	// ErrEmailRequired is returned when an inbound request carries no email
	ErrEmailRequired = errors.New("email is required")

	// ErrPasswordRequired is returned when register or login carries no password
	ErrPasswordRequired = errors.New("password is required")

	// ErrInvalidInput covers malformed but present fields (length, format)
	ErrInvalidInput = errors.New("invalid input")

	// ErrDuplicateEmail is returned when registering an email that already has credentials
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrInvalidCredentials is the single error for every login failure
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrMemberNotFound is returned when no record exists for an email
	ErrMemberNotFound = errors.New("member not found")

	// ErrInvalidToken is returned for missing, malformed, expired or wrongly signed access tokens
	ErrInvalidToken = errors.New("invalid or expired access token")
)

// IsValidationError reports whether err is caused by caller input
func IsValidationError(err error) bool {
	return errors.Is(err, ErrEmailRequired) || errors.Is(err, ErrPasswordRequired) || errors.Is(err, ErrInvalidInput)
}
