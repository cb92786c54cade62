package config

import "strings"

const (
	pemHeader    = "-----BEGIN PUBLIC KEY-----\n"
	pemFooter    = "-----END PUBLIC KEY-----\n"
	pemLineWidth = 64
)

// FormatPublicKey wraps a bare base64 realm key into a PEM block with 64 character lines.
// An empty key yields an empty string.
func FormatPublicKey(raw string) string {
	if raw == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(pemHeader) + len(raw) + len(raw)/pemLineWidth + 1 + len(pemFooter))
	b.WriteString(pemHeader)
	for i := 0; i < len(raw); i += pemLineWidth {
		end := min(i+pemLineWidth, len(raw))
		b.WriteString(raw[i:end])
		b.WriteByte('\n')
	}
	b.WriteString(pemFooter)

	return b.String()
}
