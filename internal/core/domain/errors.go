// Package domain defines the core domain models for pgpauth.
package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a domain error with a structured error code.
//
// Codes have the form PA-<AREA>-<NNNN>; the first digit of the number follows
// HTTP semantics (4 = caller error, 5 = local failure).
type DomainError struct {
	Code    string // Error code (e.g., "PA-SIGN-4040")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support for error comparison.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// ============================================================================
// Signing Errors (SIGN)
// ============================================================================

var (
	// ErrSigningIdentityNotFound indicates the requested key is absent from the keystore.
	ErrSigningIdentityNotFound = NewDomainError("PA-SIGN-4040", "signing identity not found")

	// ErrSigningFailed indicates the signing backend could not produce a signature.
	ErrSigningFailed = NewDomainError("PA-SIGN-5000", "signing failed")

	// ErrSignatureEnvelopeUnexpected indicates the backend produced an envelope
	// that cannot be stripped down to a signature body.
	ErrSignatureEnvelopeUnexpected = NewDomainError("PA-SIGN-5001", "unexpected signature envelope")
)

// ============================================================================
// Token Errors (TOKN)
// ============================================================================

var (
	// ErrTokenMalformed indicates the token does not follow the wire format.
	ErrTokenMalformed = NewDomainError("PA-TOKN-4000", "malformed token")

	// ErrTokenVersionUnsupported indicates an unknown protocol version.
	ErrTokenVersionUnsupported = NewDomainError("PA-TOKN-4001", "unsupported token version")

	// ErrSignatureInvalid indicates the signature does not verify against any trusted key.
	ErrSignatureInvalid = NewDomainError("PA-TOKN-4010", "invalid token signature")
)

// ============================================================================
// Authentication Errors (AUTH)
// ============================================================================

var (
	// ErrTokenMissing indicates no token was presented.
	ErrTokenMissing = NewDomainError("PA-AUTH-4010", "authentication token not provided")

	// ErrTimestampSkew indicates the token timestamp is out of the acceptance window.
	ErrTimestampSkew = NewDomainError("PA-AUTH-4014", "timestamp out of acceptable window")

	// ErrNonceReplay indicates a token was presented more than once.
	ErrNonceReplay = NewDomainError("PA-AUTH-4015", "nonce replay detected")
)

// ============================================================================
// System Errors (SYS)
// ============================================================================

var (
	// ErrInternalServer indicates an internal server error.
	ErrInternalServer = NewDomainError("PA-SYS-5000", "internal server error")

	// ErrStorageError indicates a storage layer error.
	ErrStorageError = NewDomainError("PA-SYS-5001", "storage error")

	// ErrBadRequest indicates a malformed request.
	ErrBadRequest = NewDomainError("PA-SYS-4000", "bad request")

	// ErrNotFound indicates an unknown route.
	ErrNotFound = NewDomainError("PA-SYS-4040", "not found")

	// ErrRateLimited indicates too many requests.
	ErrRateLimited = NewDomainError("PA-SYS-4290", "too many requests")
)

// IsAuthFailure reports whether err means the caller failed authentication,
// as opposed to a local failure while checking.
func IsAuthFailure(err error) bool {
	switch GetErrorCode(err) {
	case ErrTokenMissing.Code, ErrTokenMalformed.Code, ErrTokenVersionUnsupported.Code,
		ErrSignatureInvalid.Code, ErrTimestampSkew.Code, ErrNonceReplay.Code:
		return true
	}
	return false
}
