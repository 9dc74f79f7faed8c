package domain

import (
	"errors"
	"fmt"
)

// FallbackMessage is used when the service returns an error without a message.
const FallbackMessage = "Something went wrong"

// -----------------------------------------------------------------------------
// Domain Errors
// These errors represent client-side failures shared by the session, cart,
// catalog and admin packages.
// -----------------------------------------------------------------------------

// Session errors
var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrForbidden        = errors.New("forbidden")
	ErrTokenExpired     = errors.New("token expired")
)

// Cart errors
var (
	ErrInvalidQuantity = errors.New("invalid quantity")
	ErrInvalidPrice    = errors.New("invalid price")
	ErrMissingProduct  = errors.New("missing product id")
)

// Catalog errors
var (
	ErrUnknownFilter = errors.New("unknown filter")
	ErrInvalidSort   = errors.New("invalid sort option")
)

// General errors
var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrConflict     = errors.New("conflict")
	ErrInvalidInput = errors.New("invalid input")
)

// RequestError is returned by the gateway for every failed call.
// StatusCode is zero when no response was received.
type RequestError struct {
	Message    string
	StatusCode int
	Err        error
}

func (e *RequestError) Error() string {
	if e.StatusCode == 0 {
		if e.Err != nil {
			return e.Message + ": " + e.Err.Error()
		}
		return e.Message
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.StatusCode)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// Is maps well-known status codes onto the general sentinel errors.
func (e *RequestError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == 401
	case ErrForbidden:
		return e.StatusCode == 403
	case ErrNotFound:
		return e.StatusCode == 404
	case ErrConflict:
		return e.StatusCode == 409
	}
	return false
}

// HasStatus reports whether a response was received at all.
func (e *RequestError) HasStatus() bool {
	return e.StatusCode != 0
}

// AuthError is returned by login and register. Err holds the underlying
// gateway error, if any.
type AuthError struct {
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	return e.Message
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// ValidationError reports a local field constraint violation.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// NewValidationError creates a ValidationError wrapping cause.
func NewValidationError(field, message string, cause error) *ValidationError {
	return &ValidationError{Field: field, Message: message, Err: cause}
}

// MessageOf extracts a user-facing message from any error.
func MessageOf(err error) string {
	if err == nil {
		return ""
	}
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Message
	}
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr.Message
	}
	return err.Error()
}
