package token

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// Version is the protocol revision produced by this package.
	Version = "1"

	// TimestampLayout is the wire layout of the timestamp field.
	TimestampLayout = "2006-01-02T15:04:05Z"

	// HeaderName is the HTTP request header carrying the token.
	HeaderName = "X-PGPAUTHORIZATION"

	separator = ";"
	numFields = 4
)

var (
	// ErrMalformed is returned by Parse for strings that are not canonical tokens.
	ErrMalformed = errors.New("token: malformed")

	// ErrEnvelope is returned when a signature envelope cannot be stripped.
	ErrEnvelope = errors.New("token: unexpected signature envelope")
)

// Token is a parsed or freshly built authentication token.
type Token struct {
	Version   string
	Timestamp time.Time
	Nonce     uint64
	Signature string
}

// New builds an unsigned token for the current protocol version.
// The timestamp is converted to UTC and truncated to seconds.
func New(ts time.Time, nonce uint64) *Token {
	return &Token{
		Version:   Version,
		Timestamp: ts.UTC().Truncate(time.Second),
		Nonce:     nonce,
	}
}

// FormatTimestamp renders t in the wire layout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Payload returns "version;timestamp;nonce".
func (t *Token) Payload() string {
	return t.Version + separator + FormatTimestamp(t.Timestamp) + separator + strconv.FormatUint(t.Nonce, 10)
}

// SignedData returns the exact bytes covered by the signature: the payload
// followed by a newline.
func (t *Token) SignedData() []byte {
	return []byte(t.Payload() + "\n")
}

// String returns the wire form "version;timestamp;nonce;signature".
func (t *Token) String() string {
	return t.Payload() + separator + t.Signature
}

// Parse decodes a wire token. It checks shape only: the version value,
// freshness and the signature are left to the verifier.
func Parse(s string) (*Token, error) {
	if strings.ContainsAny(s, "\r\n") {
		return nil, fmt.Errorf("%w: embedded newline", ErrMalformed)
	}

	parts := strings.Split(s, separator)
	if len(parts) != numFields {
		return nil, fmt.Errorf("%w: expected %d fields, got %d", ErrMalformed, numFields, len(parts))
	}

	version, tsField, nonceField, sig := parts[0], parts[1], parts[2], parts[3]
	if version == "" {
		return nil, fmt.Errorf("%w: empty version", ErrMalformed)
	}

	ts, err := time.Parse(TimestampLayout, tsField)
	if err != nil {
		return nil, fmt.Errorf("%w: timestamp: %v", ErrMalformed, err)
	}
	// time.Parse tolerates fractional seconds; the signed bytes must round-trip.
	if FormatTimestamp(ts) != tsField {
		return nil, fmt.Errorf("%w: non-canonical timestamp %q", ErrMalformed, tsField)
	}

	if !isDigits(nonceField) {
		return nil, fmt.Errorf("%w: nonce must be decimal digits", ErrMalformed)
	}
	nonce, err := strconv.ParseUint(nonceField, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: nonce: %v", ErrMalformed, err)
	}
	if strconv.FormatUint(nonce, 10) != nonceField {
		return nil, fmt.Errorf("%w: non-canonical nonce %q", ErrMalformed, nonceField)
	}

	if sig == "" {
		return nil, fmt.Errorf("%w: empty signature", ErrMalformed)
	}

	return &Token{
		Version:   version,
		Timestamp: ts,
		Nonce:     nonce,
		Signature: sig,
	}, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
