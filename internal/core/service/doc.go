// Package service provides the token services for pgpauth.
//
// Services contain the protocol logic and define interfaces for their
// backends, so signing, verification and replay storage are injected:
//
//   - TokenIssuer: builds, signs and serializes tokens (Signer, SignerResolver)
//   - TokenVerifier: parses and checks tokens (SignatureVerifier, NonceStore)
//   - RateLimiterRegistry: per-client token buckets for the HTTP layer
//
// Services are safe for concurrent use provided their backends are.
package service
