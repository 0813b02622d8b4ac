package logger

import (
	"log/slog"
	"strings"
)

// Sensitive key patterns that should be redacted.
var sensitiveKeyPatterns = []string{
	"password",
	"passphrase",
	"secret",
	"token",
	"credential",
	"authorization",
	"bearer",
}

// redactedValue is the placeholder for redacted sensitive data.
const redactedValue = "***REDACTED***"

// redactSensitive checks if an attribute contains sensitive data
// and redacts it if necessary.
func redactSensitive(a slog.Attr) slog.Attr {
	// Token-shaped values are masked wherever they appear; this takes
	// priority over key-based detection.
	if a.Value.Kind() == slog.KindString {
		strVal := a.Value.String()
		if looksLikeToken(strVal) {
			return slog.String(a.Key, maskToken(strVal))
		}

		if strVal != "" && IsSensitiveKey(a.Key) {
			return slog.String(a.Key, redactedValue)
		}
	}

	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		newAttrs := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			newAttrs[i] = redactSensitive(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(newAttrs...)}
	}

	return a
}

// looksLikeToken reports whether value has the "v;timestamp;nonce;sig" shape.
func looksLikeToken(value string) bool {
	parts := strings.SplitN(value, ";", 4)
	if len(parts) != 4 || parts[3] == "" {
		return false
	}
	return len(parts[0]) <= 3 && len(parts[1]) == len("2006-01-02T15:04:05Z")
}

// maskToken keeps the version and timestamp and hides nonce and signature.
func maskToken(value string) string {
	parts := strings.SplitN(value, ";", 3)
	return parts[0] + ";" + parts[1] + ";***"
}

// RedactString manually redacts a string value.
// Use this when you need to redact a value before logging.
func RedactString(value string) string {
	if looksLikeToken(value) {
		return maskToken(value)
	}
	return value
}

// IsSensitiveKey checks if a key name suggests sensitive content.
func IsSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(keyLower, pattern) {
			return true
		}
	}
	return false
}

// IsSensitiveValue checks if a value appears to be sensitive.
func IsSensitiveValue(value string) bool {
	return looksLikeToken(value)
}
