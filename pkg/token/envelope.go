package token

import (
	"bytes"
	"fmt"
	"strings"
)

const (
	// envelopeHeaderLines is the preamble dropped unconditionally: the BEGIN
	// line, the Version header and the blank separator.
	envelopeHeaderLines = 3

	// minEnvelopeLines is the shortest envelope that can hold a body.
	minEnvelopeLines = 4

	armorBegin     = "-----BEGIN PGP SIGNATURE-----"
	armorEnd       = "-----END PGP SIGNATURE-----"
	armorLineWidth = 64
)

// StripEnvelope reduces an armored signature to its single-line body.
//
// The first three lines are discarded, as is every blank line and every
// line starting with '-'. The remaining lines are concatenated without
// separators. Envelopes shorter than four lines, or with nothing left after
// stripping, fail with ErrEnvelope rather than produce a truncated token.
func StripEnvelope(envelope string) (string, error) {
	normalized := strings.ReplaceAll(envelope, "\r\n", "\n")
	normalized = strings.TrimRight(normalized, "\n")
	lines := strings.Split(normalized, "\n")

	if normalized == "" || len(lines) < minEnvelopeLines {
		return "", fmt.Errorf("%w: %d lines", ErrEnvelope, len(lines))
	}

	var body strings.Builder
	for i, line := range lines {
		if i < envelopeHeaderLines || line == "" || strings.HasPrefix(line, "-") {
			continue
		}
		body.WriteString(line)
	}

	if body.Len() == 0 {
		return "", fmt.Errorf("%w: empty body", ErrEnvelope)
	}
	return body.String(), nil
}

// ReArmor rebuilds a multi-line armored signature from a stripped body.
//
// The body ends with the armor checksum ("=XXXX"); everything before the
// last '=' is the base64 payload, re-wrapped at 64 columns.
func ReArmor(body string) (string, error) {
	lastEq := strings.LastIndex(body, "=")
	if lastEq == -1 {
		return "", fmt.Errorf("%w: missing armor checksum", ErrMalformed)
	}

	var buf bytes.Buffer
	buf.WriteString(armorBegin + "\n\n")

	payload := body[:lastEq]
	crc := body[lastEq:]
	for len(payload) > 0 {
		n := len(payload)
		if n > armorLineWidth {
			n = armorLineWidth
		}
		buf.WriteString(payload[:n])
		buf.WriteByte('\n')
		payload = payload[n:]
	}
	buf.WriteString(crc + "\n" + armorEnd)

	return buf.String(), nil
}
