// Package token implements the signed authentication token wire format.
//
// Token Format:
//
//	<version>;<timestamp>;<nonce>;<signature-body>
//
// Fields:
//
//   - version: "1"
//   - timestamp: UTC, second precision, 2006-01-02T15:04:05Z
//   - nonce: unsigned decimal, 64 bits from crypto/rand
//   - signature-body: a detached signature over "version;timestamp;nonce\n"
//     with its armor stripped down to a single line
//
// The token carries no expiry. Verifiers enforce freshness with an
// acceptance window around the timestamp and reject repeated nonces.
//
// Security:
//
//   - Nonces come from crypto/rand
//   - Parse only accepts the canonical encoding, so the payload rebuilt
//     from a parsed token is byte-identical to what was signed
package token
