// Package domain defines the core domain models for pgpauth.
//
// Domain models are plain values without IO dependencies:
//
//   - Fingerprint / Identity: who signed a token
//   - Errors: coded domain errors shared by the issuer, the verifier
//     and the HTTP layer
package domain
