// Package client provides an HTTP client for APIs protected by signed
// tokens.
//
// Every request carries a token freshly obtained from a TokenSource in the
// X-PGPAUTHORIZATION header. Tokens are single use on the server side, so
// the client never reuses one and never retries.
package client
