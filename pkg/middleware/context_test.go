package middleware

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"kcguard/pkg/grant"
)

func TestGrantFromContext(t *testing.T) {
	_, ok := GrantFromContext(context.Background())
	assert.False(t, ok)

	_, ok = GrantFromContext(WithGrant(context.Background(), nil))
	assert.False(t, ok, "a nil grant counts as absent")

	g := &grant.Grant{TokenType: "Bearer"}
	got, ok := GrantFromContext(WithGrant(context.Background(), g))
	assert.True(t, ok)
	assert.Same(t, g, got)
}

func TestRequestIDFromContext(t *testing.T) {
	assert.Empty(t, RequestIDFromContext(context.Background()))
	assert.Equal(t, "abc", RequestIDFromContext(WithRequestID(context.Background(), "abc")))
}
