// Package httpserver provides the pgpauth-echo HTTP server.
//
// Requests pass through, outermost first:
//
//	Recover -> RequestID -> Metrics -> Audit -> RateLimit -> PGPAuth -> handler
//
// /health and /metrics skip RateLimit and PGPAuth. /metrics may instead
// require a static bearer token.
package httpserver
