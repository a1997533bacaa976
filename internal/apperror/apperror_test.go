package apperror

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorsIs(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		target    error
		wantMatch bool
	}{
		{
			name:      "NotFound wraps ErrNotFound",
			err:       NotFound("set", "abc123"),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "ValidationFailed wraps ErrValidation",
			err:       ValidationFailed("title", "title is required"),
			target:    ErrValidation,
			wantMatch: true,
		},
		{
			name:      "Conflict wraps ErrConflict",
			err:       Conflict("username already exists"),
			target:    ErrConflict,
			wantMatch: true,
		},
		{
			name:      "Unauthorized wraps ErrUnauthorized",
			err:       Unauthorized("invalid username or password"),
			target:    ErrUnauthorized,
			wantMatch: true,
		},
		{
			name:      "NotImplemented wraps ErrNotImplemented",
			err:       NotImplemented("stats"),
			target:    ErrNotImplemented,
			wantMatch: true,
		},
		{
			name:      "wrapped Forbidden still matches",
			err:       fmt.Errorf("service: %w", Forbidden("nope")),
			target:    ErrForbidden,
			wantMatch: true,
		},
		{
			name:      "NotFound does NOT match ErrValidation",
			err:       NotFound("set", "abc123"),
			target:    ErrValidation,
			wantMatch: false,
		},
		{
			name:      "Forbidden does NOT match ErrUnauthorized",
			err:       Forbidden("nope"),
			target:    ErrUnauthorized,
			wantMatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := errors.Is(tt.err, tt.target)
			if got != tt.wantMatch {
				t.Errorf("errors.Is(%v, %v) = %v, want %v", tt.err, tt.target, got, tt.wantMatch)
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name        string
		err         *AppError
		wantMessage string
	}{
		{
			name:        "NotFound message includes resource and id",
			err:         NotFound("card", "abc123"),
			wantMessage: "card not found with id abc123",
		},
		{
			name:        "ValidationFailed uses custom message",
			err:         ValidationFailed("title", "title is required"),
			wantMessage: "title is required",
		},
		{
			name:        "NotImplemented names the feature",
			err:         NotImplemented("stats"),
			wantMessage: "stats is not yet implemented",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMessage {
				t.Errorf("Error() = %q, want %q", got, tt.wantMessage)
			}
		})
	}
}

func TestUnwrap(t *testing.T) {
	err := NotFound("set", "abc123")
	if unwrapped := err.Unwrap(); unwrapped != ErrNotFound {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, ErrNotFound)
	}
}

func TestIsMissing(t *testing.T) {
	wrapped := fmt.Errorf("store: %w", NotFound("set", "s1"))

	if !IsMissing(wrapped, "set") {
		t.Error("IsMissing(set) = false for a wrapped set NotFound")
	}
	if IsMissing(wrapped, "card") {
		t.Error("IsMissing(card) = true for a set NotFound")
	}
	if IsMissing(Forbidden("x"), "set") {
		t.Error("IsMissing() = true for a Forbidden error")
	}
	if IsMissing(errors.New("plain"), "set") {
		t.Error("IsMissing() = true for a plain error")
	}

	missing := Missing("card", "Card not found")
	if !IsMissing(missing, "card") || !errors.Is(missing, ErrNotFound) {
		t.Error("Missing(card) should be a card NotFound")
	}
	if missing.Error() != "Card not found" {
		t.Errorf("Missing().Error() = %q, want %q", missing.Error(), "Card not found")
	}
}

func TestValidationFailedField(t *testing.T) {
	err := ValidationFailed("front", "front is required")
	if err.Field != "front" {
		t.Errorf("Field = %q, want %q", err.Field, "front")
	}
}
