// Package browser opens login URLs in the user's desktop browser.
package browser

import (
	"errors"
	"fmt"
	"os/exec"
	"runtime"
)

// ErrNoBrowser is returned when no launcher could be started
var ErrNoBrowser = errors.New("could not find a browser to open - please visit the URL manually")

// start launches a command without waiting for it to exit
var start = func(name string, args ...string) error {
	return exec.Command(name, args...).Start()
}

// launchers lists the commands tried in order for a platform
func launchers(goos, url string) [][]string {
	switch goos {
	case "darwin":
		return [][]string{{"open", url}}
	case "windows":
		return [][]string{{"rundll32", "url.dll,FileProtocolHandler", url}}
	default:
		// Distros disagree on the default launcher
		return [][]string{
			{"xdg-open", url},
			{"x-www-browser", url},
			{"www-browser", url},
		}
	}
}

// Open opens url in the default browser for the current platform
func Open(url string) error {
	return open(runtime.GOOS, url)
}

func open(goos, url string) error {
	var lastErr error
	for _, l := range launchers(goos, url) {
		if err := start(l[0], l[1:]...); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return fmt.Errorf("%w: %w", ErrNoBrowser, lastErr)
}
