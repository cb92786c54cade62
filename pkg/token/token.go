// Package token parses Keycloak access tokens and answers expiry and role questions.
//
// Signatures are decoded but never verified here.
package token

import (
	"encoding/json"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// RealmPrefix qualifies a role name as a realm role in HasRole
const RealmPrefix = "realm"

var segmentParser = jwt.NewParser(jwt.WithPaddingAllowed())

// Token is a parsed JWT bound to an optional client.
//
// A Token that failed to parse is still usable: its claims are {"exp": 0}, so it
// is always expired and carries no roles.
type Token struct {
	raw       string
	clientID  string
	header    map[string]any
	claims    jwt.MapClaims
	signature []byte
	signed    string
	malformed bool
}

// Parse parses a compact JWT. clientID may be empty; it is only needed for
// unqualified role checks.
func Parse(raw, clientID string) *Token {
	t := &Token{raw: raw, clientID: clientID}

	header, claims, signature, ok := decode(raw)
	if !ok {
		t.claims = jwt.MapClaims{"exp": float64(0)}
		t.malformed = true
		return t
	}

	t.header = header
	t.claims = claims
	t.signature = signature
	t.signed = raw[:strings.LastIndexByte(raw, '.')]
	return t
}

func decode(raw string) (map[string]any, jwt.MapClaims, []byte, bool) {
	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		return nil, nil, nil, false
	}

	headerJSON, err := segmentParser.DecodeSegment(parts[0])
	if err != nil {
		return nil, nil, nil, false
	}
	var header map[string]any
	if err := json.Unmarshal(headerJSON, &header); err != nil || header == nil {
		return nil, nil, nil, false
	}

	claimsJSON, err := segmentParser.DecodeSegment(parts[1])
	if err != nil {
		return nil, nil, nil, false
	}
	var claims jwt.MapClaims
	if err := json.Unmarshal(claimsJSON, &claims); err != nil || claims == nil {
		return nil, nil, nil, false
	}

	signature, err := segmentParser.DecodeSegment(parts[2])
	if err != nil {
		return nil, nil, nil, false
	}

	return header, claims, signature, true
}

// Raw returns the token string as received
func (t *Token) Raw() string { return t.raw }

// ClientID returns the client used for unqualified role checks
func (t *Token) ClientID() string { return t.clientID }

// Header returns the decoded JOSE header, nil for a malformed token
func (t *Token) Header() map[string]any { return t.header }

// Claims returns the decoded payload
func (t *Token) Claims() jwt.MapClaims { return t.claims }

// Signature returns the raw, unverified signature bytes
func (t *Token) Signature() []byte { return t.signature }

// Signed returns the signing input (header.payload), empty for a malformed token
func (t *Token) Signed() string { return t.signed }

// Malformed reports whether the raw token failed to parse
func (t *Token) Malformed() bool { return t.malformed }

// Subject returns the sub claim
func (t *Token) Subject() string {
	sub, _ := t.claims.GetSubject()
	return sub
}

// ExpiresAt returns the exp claim as a time. Missing or invalid values map to the Unix epoch.
func (t *Token) ExpiresAt() time.Time {
	return time.UnixMilli(int64(t.expiry() * 1000))
}

// IsExpired reports whether the token expired before now
func (t *Token) IsExpired() bool {
	return t.IsExpiredAt(time.Now())
}

// IsExpiredAt reports whether exp lies strictly before now, compared in
// milliseconds. Fractional exp values keep their sub-second part.
func (t *Token) IsExpiredAt(now time.Time) bool {
	return t.expiry()*1000 < float64(now.UnixMilli())
}

// expiry returns exp in seconds, 0 when missing or not a number
func (t *Token) expiry() float64 {
	switch exp := t.claims["exp"].(type) {
	case float64:
		return exp
	case json.Number:
		f, err := exp.Float64()
		if err != nil {
			return 0
		}
		return f
	case int:
		return float64(exp)
	case int64:
		return float64(exp)
	default:
		return 0
	}
}

// HasRole checks a role by qualified name.
//
//   - "role" is looked up in the roles of the token's client
//   - "realm:role" is looked up in the realm roles
//   - "app:role" is looked up in the roles of app
//
// The name is split at the first colon. A token without a client id holds no
// roles in any form.
func (t *Token) HasRole(name string) bool {
	if t.clientID == "" {
		return false
	}

	app, role, qualified := strings.Cut(name, ":")
	if !qualified {
		return t.HasApplicationRole(t.clientID, name)
	}

	if app == RealmPrefix {
		return t.HasRealmRole(role)
	}

	return t.HasApplicationRole(app, role)
}

// HasApplicationRole checks resource_access[app].roles
func (t *Token) HasApplicationRole(app, role string) bool {
	return slices.Contains(t.ApplicationRoles(app), role)
}

// HasRealmRole checks realm_access.roles
func (t *Token) HasRealmRole(role string) bool {
	return slices.Contains(t.RealmRoles(), role)
}

// RealmRoles returns the realm roles, nil when the token has none
func (t *Token) RealmRoles() []string {
	return roles(t.claims["realm_access"])
}

// ApplicationRoles returns the roles granted for app, nil when the token has none
func (t *Token) ApplicationRoles(app string) []string {
	access, ok := t.claims["resource_access"].(map[string]any)
	if !ok {
		return nil
	}
	return roles(access[app])
}

// roles reads {"roles": [...]} and skips non-string entries
func roles(v any) []string {
	section, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	list, ok := section["roles"].([]any)
	if !ok {
		return nil
	}

	out := make([]string, 0, len(list))
	for _, r := range list {
		if s, ok := r.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
