package middleware

import (
	"context"

	"kcguard/pkg/grant"
)

type grantKeyType struct{}
type requestIDKeyType struct{}

var (
	grantKey     = grantKeyType{}
	requestIDKey = requestIDKeyType{}
)

// WithGrant returns a new context carrying the request's grant
func WithGrant(ctx context.Context, g *grant.Grant) context.Context {
	return context.WithValue(ctx, grantKey, g)
}

// GrantFromContext extracts the grant attached by GrantAttacher.
//
// The boolean is false if no grant has been attached.
func GrantFromContext(ctx context.Context) (*grant.Grant, bool) {
	g, ok := ctx.Value(grantKey).(*grant.Grant)
	return g, ok && g != nil
}

// WithRequestID returns a new context carrying the request ID
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext returns the request ID, or "" if none was set
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
