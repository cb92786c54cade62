package grant

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"kcguard/pkg/store"
)

func makeToken(t *testing.T, claims map[string]any) string {
	t.Helper()
	enc := func(v any) string {
		data, err := json.Marshal(v)
		require.NoError(t, err)
		return base64.RawURLEncoding.EncodeToString(data)
	}
	return enc(map[string]any{"alg": "RS256"}) + "." + enc(claims) + ".c2ln"
}

func TestFromOAuth2Token(t *testing.T) {
	access := makeToken(t, map[string]any{
		"exp":             time.Now().Add(time.Hour).Unix(),
		"resource_access": map[string]any{"app1": map[string]any{"roles": []string{"admin"}}},
	})
	refresh := makeToken(t, map[string]any{"exp": time.Now().Add(24 * time.Hour).Unix(), "typ": "Refresh"})
	id := makeToken(t, map[string]any{"exp": time.Now().Add(time.Hour).Unix(), "email": "a@example.com"})

	src := (&oauth2.Token{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
	}).WithExtra(map[string]any{"id_token": id})

	g := FromOAuth2Token(src, "app1")
	require.NotNil(t, g)
	require.NotNil(t, g.AccessToken)
	require.NotNil(t, g.RefreshToken)
	require.NotNil(t, g.IDToken)

	assert.True(t, g.AccessToken.HasRole("admin"))
	assert.Equal(t, "Refresh", g.RefreshToken.Claims()["typ"])
	assert.Equal(t, "a@example.com", g.IDToken.Claims()["email"])
	assert.False(t, g.IsExpired())
}

func TestFromOAuth2Token_Partial(t *testing.T) {
	assert.Nil(t, FromOAuth2Token(nil, "app1"))

	g := FromOAuth2Token(&oauth2.Token{AccessToken: "not-a-jwt"}, "app1")
	require.NotNil(t, g.AccessToken)
	assert.Nil(t, g.RefreshToken)
	assert.Nil(t, g.IDToken)
	assert.True(t, g.AccessToken.Malformed())
	assert.True(t, g.IsExpired())
}

func TestGrant_OAuth2Token(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	access := makeToken(t, map[string]any{"exp": exp.Unix()})
	id := makeToken(t, map[string]any{"exp": exp.Unix()})

	g := FromOAuth2Token((&oauth2.Token{AccessToken: access, TokenType: "Bearer"}).WithExtra(map[string]any{"id_token": id}), "app1")
	out := g.OAuth2Token()

	assert.Equal(t, access, out.AccessToken)
	assert.Equal(t, "Bearer", out.TokenType)
	assert.Empty(t, out.RefreshToken)
	assert.Equal(t, id, out.Extra("id_token"))
	assert.True(t, exp.Equal(out.Expiry), "expiry comes from the access token exp claim")
}

func TestGrant_IsExpired(t *testing.T) {
	assert.True(t, (&Grant{}).IsExpired())

	expired := FromOAuth2Token(&oauth2.Token{AccessToken: makeToken(t, map[string]any{"exp": time.Now().Add(-time.Minute).Unix()})}, "")
	assert.True(t, expired.IsExpired())
}

func TestStoreManager_GetGrant(t *testing.T) {
	valid := makeToken(t, map[string]any{"exp": time.Now().Add(time.Hour).Unix()})

	tests := []struct {
		name    string
		stores  []store.Store
		request func() *http.Request
		wantErr error
		want    string
	}{
		{
			name:   "query token",
			stores: []store.Store{store.QueryStore{}},
			request: func() *http.Request {
				return httptest.NewRequest(http.MethodGet, "/?jwt="+valid, nil)
			},
			want: valid,
		},
		{
			name:   "first store with a token wins",
			stores: []store.Store{store.HeaderStore{}, store.QueryStore{}},
			request: func() *http.Request {
				req := httptest.NewRequest(http.MethodGet, "/?jwt=query-token", nil)
				req.Header.Set("Authorization", "Bearer "+valid)
				return req
			},
			want: valid,
		},
		{
			name:   "falls through to later stores",
			stores: []store.Store{store.HeaderStore{}, store.QueryStore{}},
			request: func() *http.Request {
				return httptest.NewRequest(http.MethodGet, "/?jwt="+valid, nil)
			},
			want: valid,
		},
		{
			name:   "no token",
			stores: []store.Store{store.HeaderStore{}, store.QueryStore{}},
			request: func() *http.Request {
				return httptest.NewRequest(http.MethodGet, "/", nil)
			},
			wantErr: ErrNoToken,
		},
		{
			name:   "no stores",
			stores: nil,
			request: func() *http.Request {
				return httptest.NewRequest(http.MethodGet, "/?jwt="+valid, nil)
			},
			wantErr: ErrNoToken,
		},
		{
			name:   "malformed token",
			stores: []store.Store{store.QueryStore{}},
			request: func() *http.Request {
				return httptest.NewRequest(http.MethodGet, "/?jwt=garbage", nil)
			},
			wantErr: ErrInvalidGrant,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewStoreManager("app1", tt.stores...)
			req := tt.request()

			g, err := m.GetGrant(req.Context(), req)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, g)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, g.AccessToken.Raw())
			assert.Equal(t, "app1", g.AccessToken.ClientID())
		})
	}
}

func TestStoreManager_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := NewStoreManager("app1", store.QueryStore{})
	g, err := m.GetGrant(ctx, httptest.NewRequest(http.MethodGet, "/?jwt=x", nil))

	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, g)
}

func TestStoreManager_StoreFunc(t *testing.T) {
	valid := makeToken(t, map[string]any{"exp": time.Now().Add(time.Hour).Unix()})
	cookies := store.StoreFunc(func(r *http.Request) (*oauth2.Token, bool) {
		c, err := r.Cookie("kc_access")
		if err != nil || c.Value == "" {
			return nil, false
		}
		return &oauth2.Token{AccessToken: c.Value, TokenType: "Bearer"}, true
	})

	m := NewStoreManager("app1", store.HeaderStore{}, cookies)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "kc_access", Value: valid})
	g, err := m.GetGrant(req.Context(), req)
	require.NoError(t, err)
	assert.Equal(t, valid, g.AccessToken.Raw())

	_, err = m.GetGrant(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestManagerFunc(t *testing.T) {
	want := &Grant{TokenType: "Bearer"}
	var m Manager = ManagerFunc(func(ctx context.Context, r *http.Request) (*Grant, error) {
		assert.Equal(t, "/orders", r.URL.Path)
		return want, nil
	})

	got, err := m.GetGrant(context.Background(), httptest.NewRequest(http.MethodGet, "/orders", nil))
	require.NoError(t, err)
	assert.Same(t, want, got)
}
