package domain

import (
	"encoding/hex"
	"strings"
)

// FingerprintLength is the length of a v4 OpenPGP fingerprint in hex characters.
const FingerprintLength = 40

// Fingerprint identifies a signing key. The canonical form is upper-case hex.
type Fingerprint string

// ParseFingerprint normalizes a user-supplied key fingerprint.
//
// Spaces are removed, an optional "0x" prefix is dropped and the result is
// upper-cased. The result must be exactly 40 hex characters.
func ParseFingerprint(s string) (Fingerprint, error) {
	fp := strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	fp = strings.TrimPrefix(strings.TrimPrefix(fp, "0x"), "0X")
	fp = strings.ToUpper(fp)

	if len(fp) != FingerprintLength {
		return "", ErrSigningIdentityNotFound.WithDetails("fingerprint must be 40 hex characters: " + s)
	}
	if _, err := hex.DecodeString(fp); err != nil {
		return "", ErrSigningIdentityNotFound.WithDetails("fingerprint is not hex: " + s)
	}
	return Fingerprint(fp), nil
}

// FingerprintFromBytes formats raw fingerprint bytes in canonical form.
func FingerprintFromBytes(b []byte) Fingerprint {
	return Fingerprint(strings.ToUpper(hex.EncodeToString(b)))
}

// String returns the canonical fingerprint.
func (f Fingerprint) String() string {
	return string(f)
}

// Short returns the last 16 hex characters (the long key ID).
func (f Fingerprint) Short() string {
	if len(f) <= 16 {
		return string(f)
	}
	return string(f[len(f)-16:])
}

// Identity is the owner of a verified token signature.
type Identity struct {
	Fingerprint Fingerprint `json:"fingerprint"`
	Name        string      `json:"name,omitempty"`
	Email       string      `json:"email,omitempty"`
}
