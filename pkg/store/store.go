// Package store extracts raw access tokens from incoming requests.
package store

import (
	"bytes"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"
)

// FieldName is the body field and query parameter that carries the token
const FieldName = "jwt"

// maxBodySize caps how much of a request body BodyStore inspects
const maxBodySize = 1 << 20

// Store finds an access token in a request
type Store interface {
	// Get returns the token and true if the request carries one
	Get(r *http.Request) (*oauth2.Token, bool)
}

// StoreFunc adapts a function to Store
type StoreFunc func(r *http.Request) (*oauth2.Token, bool)

// Get calls f(r)
func (f StoreFunc) Get(r *http.Request) (*oauth2.Token, bool) {
	return f(r)
}

// BodyStore reads the token from the jwt field of a JSON or urlencoded form body.
//
// The body is restored after reading so downstream handlers see it unchanged.
type BodyStore struct{}

// Get implements Store
func (BodyStore) Get(r *http.Request) (*oauth2.Token, bool) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, false
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return nil, false
	}
	r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(data), r.Body))

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded":
		values, err := url.ParseQuery(string(data))
		if err != nil {
			return nil, false
		}
		return bearer(values.Get(FieldName))
	default:
		var body struct {
			JWT string `json:"jwt"`
		}
		if err := json.Unmarshal(data, &body); err != nil {
			return nil, false
		}
		return bearer(body.JWT)
	}
}

// QueryStore reads the token from the jwt query parameter
type QueryStore struct{}

// Get implements Store
func (QueryStore) Get(r *http.Request) (*oauth2.Token, bool) {
	return bearer(r.URL.Query().Get(FieldName))
}

// HeaderStore reads the token from an "Authorization: Bearer" header
type HeaderStore struct{}

// Get implements Store
func (HeaderStore) Get(r *http.Request) (*oauth2.Token, bool) {
	scheme, value, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return nil, false
	}
	return bearer(strings.TrimSpace(value))
}

// ByName returns the store registered under name: "body", "query" or "header"
func ByName(name string) (Store, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "body":
		return BodyStore{}, true
	case "query":
		return QueryStore{}, true
	case "header", "bearer":
		return HeaderStore{}, true
	default:
		return nil, false
	}
}

func bearer(raw string) (*oauth2.Token, bool) {
	if raw == "" {
		return nil, false
	}
	return &oauth2.Token{AccessToken: raw, TokenType: "Bearer"}, true
}
