package config

import (
	"os"
	"regexp"
)

// EnvLookup returns the value of an environment variable and whether it is set
type EnvLookup func(name string) (string, bool)

// OSEnv reads from the process environment
func OSEnv(name string) (string, bool) {
	return os.LookupEnv(name)
}

// envRef matches "${env.NAME}" and "${env.NAME:fallback}". The name stops at the
// first colon, the fallback keeps everything after it.
var envRef = regexp.MustCompile(`^\$\{env\.([^:]*?)(?::(.*))?\}$`)

// ResolveValue resolves an environment variable reference.
//
// Values that are not strings, or strings that are not a reference, are returned
// unchanged. An unset or empty variable yields the fallback, or "" without one.
func ResolveValue(v any, lookup EnvLookup) any {
	s, ok := v.(string)
	if !ok {
		return v
	}

	m := envRef.FindStringSubmatch(s)
	if m == nil {
		return s
	}

	if lookup == nil {
		lookup = OSEnv
	}

	// An empty value counts as unset.
	if val, ok := lookup(m[1]); ok && val != "" {
		return val
	}

	return m[2]
}
