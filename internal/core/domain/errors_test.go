package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestDomainError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *DomainError
		expected string
	}{
		{
			name:     "error without details",
			err:      NewDomainError("PA-TEST-1000", "test message"),
			expected: "[PA-TEST-1000] test message",
		},
		{
			name:     "error with details",
			err:      NewDomainError("PA-TEST-1001", "test message").WithDetails("extra info"),
			expected: "[PA-TEST-1001] test message: extra info",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestDomainError_Is(t *testing.T) {
	err1 := NewDomainError("PA-TEST-1000", "message 1")
	err2 := NewDomainError("PA-TEST-1000", "message 2")
	err3 := NewDomainError("PA-TEST-1001", "message 1")

	if !errors.Is(err1, err2) {
		t.Error("errors.Is should return true for same error code")
	}
	if errors.Is(err1, err3) {
		t.Error("errors.Is should return false for different error code")
	}
	if errors.Is(err1, fmt.Errorf("some error")) {
		t.Error("errors.Is should return false for non-DomainError")
	}
}

func TestDomainError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("gpg: secret key not available")
	err := ErrSigningFailed.WithCause(cause)

	if unwrapped := errors.Unwrap(err); unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}
	if errors.Unwrap(ErrSigningFailed) != nil {
		t.Error("Unwrap() should return nil when no cause")
	}
}

func TestDomainError_CopiesDoNotMutateOriginal(t *testing.T) {
	withDetails := ErrTokenMalformed.WithDetails("expected 4 fields, got 3")
	withCause := ErrTokenMalformed.WithCause(fmt.Errorf("boom"))

	if ErrTokenMalformed.Details != "" || ErrTokenMalformed.Cause != nil {
		t.Fatal("predefined error was modified")
	}
	if withDetails.Code != ErrTokenMalformed.Code || withCause.Code != ErrTokenMalformed.Code {
		t.Error("copies should keep the code")
	}
	if !errors.Is(withDetails.WithCause(fmt.Errorf("x")), ErrTokenMalformed) {
		t.Error("errors.Is should work after chaining")
	}
}

func TestIsDomainError(t *testing.T) {
	if !IsDomainError(ErrNonceReplay, "PA-AUTH-4015") {
		t.Error("IsDomainError should return true for matching code")
	}
	if IsDomainError(ErrNonceReplay, "PA-AUTH-9999") {
		t.Error("IsDomainError should return false for non-matching code")
	}
	if !IsDomainError(fmt.Errorf("wrapped: %w", ErrNonceReplay), "") {
		t.Error("IsDomainError should work with wrapped errors and empty code")
	}
	if IsDomainError(fmt.Errorf("regular error"), "") {
		t.Error("IsDomainError should return false for non-DomainError")
	}
}

func TestGetErrorCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"domain error", ErrSigningIdentityNotFound, "PA-SIGN-4040"},
		{"wrapped domain error", fmt.Errorf("issue: %w", ErrSignatureEnvelopeUnexpected), "PA-SIGN-5001"},
		{"regular error", fmt.Errorf("regular error"), ""},
		{"nil error", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetErrorCode(tt.err); got != tt.expected {
				t.Errorf("GetErrorCode() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestIsAuthFailure(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{ErrTokenMissing, true},
		{ErrTokenMalformed.WithDetails("x"), true},
		{ErrTokenVersionUnsupported, true},
		{ErrSignatureInvalid, true},
		{ErrTimestampSkew, true},
		{fmt.Errorf("verify: %w", ErrNonceReplay), true},
		{ErrStorageError, false},
		{ErrSigningFailed, false},
		{fmt.Errorf("plain"), false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.err), func(t *testing.T) {
			if got := IsAuthFailure(tt.err); got != tt.want {
				t.Errorf("IsAuthFailure() = %v, want %v", got, tt.want)
			}
		})
	}
}
