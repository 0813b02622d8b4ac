// Package main provides the entry point for pgpauth-echo.
//
// pgpauth-echo is a demonstration API protected by signed tokens. It
// verifies the X-PGPAUTHORIZATION header of every request against a public
// keyring and echoes the request back together with the caller's identity.
//
// Routes:
//
//   - GET /health: liveness and the number of trusted keys
//   - GET|POST /echo: authenticated echo
//   - GET /metrics: Prometheus metrics
//
// Usage:
//
//	pgpauth-echo -config /etc/pgpauth/echo.yaml
//	PGPAUTH_ECHO_AUTH__KEYRING_FILE=./pubring.gpg pgpauth-echo -addr :8080
//
// The keyring and the TLS key pair are reloaded when their files change. A
// change of log.level in the configuration file is applied without a
// restart.
package main
