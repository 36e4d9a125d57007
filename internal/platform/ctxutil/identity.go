package ctxutil

import "context"

type identityKey struct{}

// Identity is the participant identity resolved by the session middleware.
// The core trusts it as-is; no re-validation happens downstream.
type Identity struct {
	Email string
	EnvID string
}

func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func GetIdentity(ctx context.Context) *Identity {
	val := ctx.Value(identityKey{})
	if id, ok := val.(*Identity); ok {
		return id
	}
	return nil
}
