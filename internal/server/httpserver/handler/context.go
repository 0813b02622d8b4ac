package handler

import (
	"context"

	"github.com/yndnr/pgpauth-go/internal/core/domain"
)

type contextKey string

const identityKey contextKey = "pgpauth.identity"

// WithIdentity stores the authenticated signer in ctx.
func WithIdentity(ctx context.Context, id domain.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext returns the authenticated signer, if any.
func IdentityFromContext(ctx context.Context) (domain.Identity, bool) {
	id, ok := ctx.Value(identityKey).(domain.Identity)
	return id, ok
}
