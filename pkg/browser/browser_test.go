package browser

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOpen(t *testing.T) {
	const url = "https://sso.example.com/realms/demo/protocol/openid-connect/auth?state=x"

	tests := []struct {
		name      string
		goos      string
		available map[string]bool
		want      []string
		wantErr   bool
	}{
		{name: "darwin", goos: "darwin", available: map[string]bool{"open": true}, want: []string{"open"}},
		{name: "windows", goos: "windows", available: map[string]bool{"rundll32": true}, want: []string{"rundll32"}},
		{name: "linux default", goos: "linux", available: map[string]bool{"xdg-open": true}, want: []string{"xdg-open"}},
		{name: "linux fallback", goos: "linux", available: map[string]bool{"www-browser": true}, want: []string{"xdg-open", "x-www-browser", "www-browser"}},
		{name: "nothing available", goos: "linux", want: []string{"xdg-open", "x-www-browser", "www-browser"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var tried []string
			orig := start
			start = func(name string, args ...string) error {
				tried = append(tried, name)
				assert.Equal(t, url, args[len(args)-1])
				if tt.available[name] {
					return nil
				}
				return errors.New("executable file not found")
			}
			t.Cleanup(func() { start = orig })

			err := open(tt.goos, url)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNoBrowser)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, tried)
		})
	}
}
