package middleware

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"kcguard/pkg/grant"
	"kcguard/pkg/metrics"
)

// ErrorHandler writes the response for a failed grant lookup
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// Option configures GrantAttacher
type Option func(*attacher)

// WithErrorHandler replaces the default grant error response
func WithErrorHandler(h ErrorHandler) Option {
	return func(a *attacher) {
		a.onError = h
	}
}

type attacher struct {
	manager grant.Manager
	logger  *zap.Logger
	onError ErrorHandler
}

// GrantAttacher resolves the request's grant through manager and attaches it to
// the request context before calling next.
//
// A lookup error stops the chain: next is not called and the error handler
// writes the response.
func GrantAttacher(manager grant.Manager, logger *zap.Logger, opts ...Option) func(http.Handler) http.Handler {
	a := &attacher{
		manager: manager,
		logger:  logger,
		onError: DefaultErrorHandler,
	}
	for _, opt := range opts {
		opt(a)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := RequestIDFromContext(ctx)

			g, err := a.manager.GetGrant(ctx, r)
			if err != nil {
				reason := failureReason(err)
				metrics.RecordGrantFailure(reason)
				if errors.Is(err, grant.ErrInvalidGrant) {
					metrics.RecordTokenParsed(true)
				}
				a.logger.Warn("grant lookup failed",
					zap.String("request_id", requestID),
					zap.String("reason", reason),
					zap.Error(err))
				a.onError(w, r, err)
				return
			}

			metrics.RecordGrantSuccess()
			metrics.RecordTokenParsed(false)
			if g != nil && g.AccessToken != nil {
				a.logger.Debug("grant attached",
					zap.String("request_id", requestID),
					zap.String("sub", g.AccessToken.Subject()))
			}

			next.ServeHTTP(w, r.WithContext(WithGrant(ctx, g)))
		})
	}
}

// DefaultErrorHandler answers 401 for a missing or malformed token and 500 for
// anything else
func DefaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, grant.ErrNoToken), errors.Is(err, grant.ErrInvalidGrant):
		w.Header().Set("WWW-Authenticate", `Bearer realm="kcguard"`)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	default:
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, grant.ErrNoToken):
		return "no_token"
	case errors.Is(err, grant.ErrInvalidGrant):
		return "invalid_grant"
	default:
		return "error"
	}
}

// Protect rejects requests without an unexpired grant (401) and, when roles are
// given, requests whose access token holds none of them (403).
// It must run after GrantAttacher.
func Protect(logger *zap.Logger, roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := RequestIDFromContext(r.Context())

			g, ok := GrantFromContext(r.Context())
			if !ok || g.IsExpired() {
				metrics.RecordAuthorizationDenied("unauthenticated")
				logger.Warn("missing or expired grant",
					zap.String("request_id", requestID))
				w.Header().Set("WWW-Authenticate", `Bearer realm="kcguard"`)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			if len(roles) > 0 && !hasAnyRole(g, roles) {
				metrics.RecordAuthorizationDenied("missing_role")
				logger.Warn("insufficient permissions",
					zap.String("request_id", requestID),
					zap.Strings("required_roles", roles))
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}

			metrics.RecordAuthorizationAllowed()
			next.ServeHTTP(w, r)
		})
	}
}

func hasAnyRole(g *grant.Grant, roles []string) bool {
	for _, role := range roles {
		if g.AccessToken.HasRole(role) {
			return true
		}
	}
	return false
}
