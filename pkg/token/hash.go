package token

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hash computes the hex-encoded SHA-256 of s.
func Hash(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:])
}

// ReplayKey derives the replay-cache key for a verified token.
//
// The signer is part of the key so two signers that happen to pick the same
// nonce in the same second do not collide.
func ReplayKey(signer string, t *Token) string {
	return Hash(signer + "|" + t.Payload())
}
