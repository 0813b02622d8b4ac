package service

import "github.com/yndnr/pgpauth-go/internal/core/domain"

// resultLabel maps an error to a low-cardinality metrics label.
func resultLabel(err error) string {
	switch domain.GetErrorCode(err) {
	case domain.ErrSigningIdentityNotFound.Code:
		return "identity_not_found"
	case domain.ErrSigningFailed.Code:
		return "signing_failed"
	case domain.ErrSignatureEnvelopeUnexpected.Code:
		return "envelope_unexpected"
	case domain.ErrTokenMissing.Code:
		return "missing"
	case domain.ErrTokenMalformed.Code:
		return "malformed"
	case domain.ErrTokenVersionUnsupported.Code:
		return "version_unsupported"
	case domain.ErrSignatureInvalid.Code:
		return "signature_invalid"
	case domain.ErrTimestampSkew.Code:
		return "timestamp_skew"
	case domain.ErrNonceReplay.Code:
		return "nonce_replay"
	case domain.ErrStorageError.Code:
		return "storage_error"
	default:
		return "error"
	}
}
