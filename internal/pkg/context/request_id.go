// Package context carries request-scoped values shared by transport, logging
// and audit code.
package context

import "context"

type requestIDKey struct{}

// WithRequestID returns ctx tagged with id. An empty id leaves ctx as is, so
// an upstream id is never blanked out.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, id)
}

// GetRequestID returns the request id, or "" when there is none.
func GetRequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
