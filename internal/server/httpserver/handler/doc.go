// Package handler implements the pgpauth-echo HTTP endpoints.
//
// Every JSON response uses the Response envelope. Errors carry the
// DomainError code and message, so clients can branch on "code" without
// parsing the human-readable text.
package handler
