// Package oauth derives OAuth2 client configuration for a Keycloak realm.
package oauth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/oauth2"

	"kcguard/pkg/config"
)

// ScopeOpenID is always requested
const ScopeOpenID = "openid"

// Endpoint returns the realm's OpenID Connect authorization and token endpoints.
// Public clients send their client id in the request body, confidential clients
// authenticate with HTTP basic auth.
func Endpoint(s *config.Settings) oauth2.Endpoint {
	base := s.RealmURL() + "/protocol/openid-connect"

	style := oauth2.AuthStyleInHeader
	if s.Public {
		style = oauth2.AuthStyleInParams
	}

	return oauth2.Endpoint{
		AuthURL:       base + "/auth",
		DeviceAuthURL: base + "/auth/device",
		TokenURL:      base + "/token",
		AuthStyle:     style,
	}
}

// NewConfig creates the OAuth2 config for the configured client
func NewConfig(s *config.Settings, redirectURL string) *oauth2.Config {
	cfg := &oauth2.Config{
		ClientID:    s.ClientID,
		Endpoint:    Endpoint(s),
		RedirectURL: redirectURL,
		Scopes:      Scopes(s),
	}
	if !s.Public {
		cfg.ClientSecret = s.Secret
	}
	return cfg
}

// Scopes returns openid followed by the configured space separated scopes
func Scopes(s *config.Settings) []string {
	scopes := []string{ScopeOpenID}
	for _, scope := range strings.Fields(s.Scope) {
		if scope != ScopeOpenID {
			scopes = append(scopes, scope)
		}
	}
	return scopes
}

// AuthRequest is a prepared authorization code request with PKCE
type AuthRequest struct {
	URL      string
	State    string
	Verifier string
}

// NewAuthRequest builds the login redirect URL. State and verifier must be kept
// by the caller to complete the code exchange.
func NewAuthRequest(cfg *oauth2.Config) (*AuthRequest, error) {
	state, err := GenerateState()
	if err != nil {
		return nil, err
	}

	verifier := oauth2.GenerateVerifier()

	return &AuthRequest{
		URL: cfg.AuthCodeURL(
			state,
			oauth2.AccessTypeOffline,
			oauth2.S256ChallengeOption(verifier),
		),
		State:    state,
		Verifier: verifier,
	}, nil
}

// GenerateState generates a cryptographically secure random state parameter
func GenerateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
