// Package grant models an authenticated session as a set of parsed tokens.
package grant

import (
	"context"
	"errors"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"kcguard/pkg/store"
	"kcguard/pkg/token"
)

var (
	// ErrNoToken is returned when no store finds an access token in the request
	ErrNoToken = errors.New("grant: no access token in request")
	// ErrInvalidGrant is returned when the access token found cannot be parsed
	ErrInvalidGrant = errors.New("grant: access token is malformed")
)

// Grant holds the tokens of one authenticated session.
// Absent tokens are nil.
type Grant struct {
	AccessToken  *token.Token
	RefreshToken *token.Token
	IDToken      *token.Token
	TokenType    string
	Expiry       time.Time
}

// Manager resolves the grant for a request
type Manager interface {
	GetGrant(ctx context.Context, r *http.Request) (*Grant, error)
}

// ManagerFunc adapts a function to Manager
type ManagerFunc func(ctx context.Context, r *http.Request) (*Grant, error)

// GetGrant calls f(ctx, r)
func (f ManagerFunc) GetGrant(ctx context.Context, r *http.Request) (*Grant, error) {
	return f(ctx, r)
}

// FromOAuth2Token builds a grant from an oauth2 token set. The ID token is read
// from the "id_token" extra, if present.
func FromOAuth2Token(t *oauth2.Token, clientID string) *Grant {
	if t == nil {
		return nil
	}

	g := &Grant{
		TokenType: t.TokenType,
		Expiry:    t.Expiry,
	}
	if t.AccessToken != "" {
		g.AccessToken = token.Parse(t.AccessToken, clientID)
	}
	if t.RefreshToken != "" {
		g.RefreshToken = token.Parse(t.RefreshToken, clientID)
	}
	if idToken, ok := t.Extra("id_token").(string); ok && idToken != "" {
		g.IDToken = token.Parse(idToken, clientID)
	}

	return g
}

// OAuth2Token converts the grant back into an oauth2 token set
func (g *Grant) OAuth2Token() *oauth2.Token {
	t := &oauth2.Token{
		TokenType: g.TokenType,
		Expiry:    g.Expiry,
	}
	if g.AccessToken != nil {
		t.AccessToken = g.AccessToken.Raw()
		if t.Expiry.IsZero() && !g.AccessToken.Malformed() {
			t.Expiry = g.AccessToken.ExpiresAt()
		}
	}
	if g.RefreshToken != nil {
		t.RefreshToken = g.RefreshToken.Raw()
	}
	if g.IDToken != nil {
		t = t.WithExtra(map[string]any{
			"id_token": g.IDToken.Raw(),
		})
	}
	return t
}

// IsExpired reports whether the grant has no usable access token
func (g *Grant) IsExpired() bool {
	return g.AccessToken == nil || g.AccessToken.IsExpired()
}

// StoreManager builds grants from tokens found by its stores
type StoreManager struct {
	clientID string
	stores   []store.Store
}

// NewStoreManager creates a manager that asks stores in order and binds the
// resulting tokens to clientID
func NewStoreManager(clientID string, stores ...store.Store) *StoreManager {
	return &StoreManager{
		clientID: clientID,
		stores:   stores,
	}
}

// GetGrant implements Manager
func (m *StoreManager) GetGrant(ctx context.Context, r *http.Request) (*Grant, error) {
	for _, s := range m.stores {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		t, ok := s.Get(r)
		if !ok {
			continue
		}

		g := FromOAuth2Token(t, m.clientID)
		if g.AccessToken == nil || g.AccessToken.Malformed() {
			return nil, ErrInvalidGrant
		}
		return g, nil
	}

	return nil, ErrNoToken
}
