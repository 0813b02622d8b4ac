// Package logger provides structured logging for pgpauth.
//
// It wraps the standard library log/slog:
//
//   - logger.go: Logger interface, JSON/text handlers, level control
//   - context.go: Context-aware logging with request IDs
//   - redact.go: Sensitive data redaction
//
// Features:
//
//   - JSON and text output formats
//   - Runtime log level adjustment
//   - Full redaction of passphrases, secrets and authorization values
//   - Partial masking of signed tokens (version and timestamp stay visible)
package logger
