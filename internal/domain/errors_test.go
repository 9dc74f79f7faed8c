package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestRequestError_Is(t *testing.T) {
	tests := []struct {
		status int
		target error
		want   bool
	}{
		{401, ErrUnauthorized, true},
		{403, ErrForbidden, true},
		{404, ErrNotFound, true},
		{409, ErrConflict, true},
		{500, ErrUnauthorized, false},
		{0, ErrNotFound, false},
	}

	for _, tt := range tests {
		err := fmt.Errorf("wrapped: %w", &RequestError{Message: "x", StatusCode: tt.status})
		if got := errors.Is(err, tt.target); got != tt.want {
			t.Errorf("errors.Is(status %d, %v) = %v, want %v", tt.status, tt.target, got, tt.want)
		}
	}
}

func TestRequestError_Error(t *testing.T) {
	if got := (&RequestError{Message: "boom"}).Error(); got != "boom" {
		t.Errorf("Error() = %q, want boom", got)
	}
	if got := (&RequestError{Message: "boom", StatusCode: 500}).Error(); got != "boom (status 500)" {
		t.Errorf("Error() = %q", got)
	}
}

func TestMessageOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"request", fmt.Errorf("get: %w", &RequestError{Message: "Not found", StatusCode: 404}), "Not found"},
		{"auth", &AuthError{Message: "Invalid credentials"}, "Invalid credentials"},
		{"validation", NewValidationError("quantity", "too small", ErrInvalidQuantity), "quantity: too small"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MessageOf(tt.err); got != tt.want {
				t.Errorf("MessageOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidationError_Unwrap(t *testing.T) {
	err := NewValidationError("sort", "bad", nil)
	if !errors.Is(err, ErrInvalidInput) {
		t.Error("ValidationError without cause should unwrap to ErrInvalidInput")
	}
}
