package middleware

import "context"

type ctxKey string

const ctxIdentity ctxKey = "identity"

// Identity is what the bearer middleware learned from the access token.
type Identity struct {
	UserID string
	Email  string
	Name   string
}

func WithUser(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxIdentity, id)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	v, ok := ctx.Value(ctxIdentity).(Identity)
	return v, ok && v.UserID != ""
}

func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := IdentityFromContext(ctx)
	return id.UserID, ok
}
