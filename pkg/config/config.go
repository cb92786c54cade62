// Package config resolves Keycloak adapter configuration (keycloak.json) into Settings.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultFileName is the configuration file looked up in the working directory
const DefaultFileName = "keycloak.json"

// DefaultMinTimeBetweenJWKSRequests is the JWKS refresh interval in minutes used when none is configured
const DefaultMinTimeBetweenJWKSRequests = 10

// ErrConfigLoad wraps every failure to read or decode a configuration file
var ErrConfigLoad = errors.New("failed to load keycloak configuration")

// Settings holds the resolved adapter configuration.
//
// Settings are built once at startup and must not be modified afterwards. The
// realm URLs are derived on demand from AuthServerURL and Realm.
type Settings struct {
	Realm                      string `json:"realm" yaml:"realm"`
	ClientID                   string `json:"clientId" yaml:"clientId"`
	Secret                     string `json:"secret,omitempty" yaml:"secret,omitempty"`
	Public                     bool   `json:"public" yaml:"public"`
	AuthServerURL              string `json:"authServerUrl" yaml:"authServerUrl"`
	MinTimeBetweenJWKSRequests int    `json:"minTimeBetweenJwksRequests" yaml:"minTimeBetweenJwksRequests"`
	BearerOnly                 bool   `json:"bearerOnly" yaml:"bearerOnly"`
	PublicKey                  string `json:"publicKey,omitempty" yaml:"publicKey,omitempty"`
	Scope                      string `json:"scope,omitempty" yaml:"scope,omitempty"`
}

// Option configures resolution
type Option func(*resolver)

type resolver struct {
	env EnvLookup
}

// WithEnv sets the environment lookup used for ${env.NAME} references
func WithEnv(lookup EnvLookup) Option {
	return func(r *resolver) {
		r.env = lookup
	}
}

// DefaultPath returns keycloak.json in the current working directory
func DefaultPath() string {
	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}
	return filepath.Join(wd, DefaultFileName)
}

// Load reads and resolves a configuration file. An empty path means DefaultPath.
//
// Files ending in .yaml or .yml are decoded as YAML, anything else as JSON. All
// read and decode failures wrap ErrConfigLoad.
func Load(path string, opts ...Option) (*Settings, error) {
	if path == "" {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfigLoad, err)
	}

	var raw map[string]any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &raw)
	default:
		err = json.Unmarshal(data, &raw)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse %s: %w", ErrConfigLoad, path, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: %s is not a key/value document", ErrConfigLoad, path)
	}

	return Parse(raw, opts...), nil
}

// Parse resolves an in-memory configuration.
//
// Both keycloak.json names (auth-server-url, resource, ...) and Settings names
// (authServerUrl, clientId, ...) are accepted. When several names are present the
// Settings name wins, then the aliases in their listed order.
func Parse(raw map[string]any, opts ...Option) *Settings {
	r := &resolver{env: OSEnv}
	for _, opt := range opts {
		opt(r)
	}

	var credentials map[string]any
	if c, ok := raw["credentials"].(map[string]any); ok {
		credentials = c
	}

	s := &Settings{
		Realm:         r.str(raw["realm"]),
		ClientID:      r.str(r.first(raw["clientId"], raw["resource"], raw["client-id"])),
		Secret:        r.str(r.first(raw["secret"], credentials["secret"])),
		Public:        r.boolean(r.first(raw["public"], raw["isPublic"], raw["public-client"])),
		AuthServerURL: r.str(r.first(raw["authServerUrl"], raw["auth-server-url"], raw["server-url"], raw["serverUrl"])),
		BearerOnly:    r.boolean(r.first(raw["bearerOnly"], raw["bearer-only"])),
		Scope:         r.str(raw["scope"]),

		MinTimeBetweenJWKSRequests: r.minutes(r.first(raw["minTimeBetweenJwksRequests"], raw["min-time-between-jwks-requests"])),
	}

	if key := r.str(r.first(raw["realmPublicKey"], raw["realm-public-key"])); key != "" {
		s.PublicKey = FormatPublicKey(key)
	}

	return s
}

// RealmURL returns the root URL of the realm
func (s *Settings) RealmURL() string {
	return s.AuthServerURL + "/realms/" + s.Realm
}

// RealmAdminURL returns the admin API root URL of the realm
func (s *Settings) RealmAdminURL() string {
	return s.AuthServerURL + "/admin/realms/" + s.Realm
}

// Issuer returns the expected iss claim for tokens of this realm
func (s *Settings) Issuer() string {
	return s.RealmURL()
}

// first returns the first candidate that is set after env resolution
func (r *resolver) first(candidates ...any) any {
	for _, c := range candidates {
		v := ResolveValue(c, r.env)
		if isSet(v) {
			return v
		}
	}
	return nil
}

func (r *resolver) str(v any) string {
	switch val := ResolveValue(v, r.env).(type) {
	case nil:
		return ""
	case string:
		return val
	default:
		return fmt.Sprint(val)
	}
}

func (r *resolver) boolean(v any) bool {
	switch val := ResolveValue(v, r.env).(type) {
	case bool:
		return val
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(val))
		return err == nil && b
	default:
		return false
	}
}

func (r *resolver) minutes(v any) int {
	n := 0
	switch val := ResolveValue(v, r.env).(type) {
	case int:
		n = val
	case int64:
		n = int(val)
	case float64:
		n = int(val)
	case string:
		if parsed, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			n = parsed
		}
	}
	if n <= 0 {
		return DefaultMinTimeBetweenJWKSRequests
	}
	return n
}

// isSet reports whether a config value counts as present: empty strings,
// false and zero fall through to the next alias.
func isSet(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case string:
		return val != ""
	case bool:
		return val
	case int:
		return val != 0
	case int64:
		return val != 0
	case float64:
		return val != 0
	default:
		return true
	}
}
