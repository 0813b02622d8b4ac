package token

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
)

// NonceFunc returns a fresh nonce. Production code uses NewNonce; tests
// inject fixed values.
type NonceFunc func() (uint64, error)

// NewNonce draws a nonce uniformly over the full uint64 range from crypto/rand.
func NewNonce() (uint64, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random nonce: %w", err)
	}
	return binary.BigEndian.Uint64(b[:]), nil
}
