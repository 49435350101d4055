package handlers

import (
	"context"

	"bankassist/internal/service"
)

type identityKey struct{}

// WithIdentity returns a copy of ctx carrying the authenticated caller.
func WithIdentity(ctx context.Context, id service.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the caller stored by WithIdentity.
func IdentityFromContext(ctx context.Context) (service.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(service.Identity)
	return id, ok
}
