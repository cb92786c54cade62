package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// GrantAttachments tracks grant lookups by result and reason
	GrantAttachments = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kcguard_grant_attachments_total",
			Help: "Total number of grant lookups by result (success/failure)",
		},
		[]string{"result", "reason"},
	)

	// TokensParsed tracks parsed access tokens by outcome
	TokensParsed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kcguard_tokens_parsed_total",
			Help: "Total number of access tokens parsed by outcome (valid/malformed)",
		},
		[]string{"outcome"},
	)

	// AuthorizationChecks tracks protected route decisions
	AuthorizationChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kcguard_authorization_checks_total",
			Help: "Total number of authorization checks by result (allowed/denied) and reason",
		},
		[]string{"result", "reason"},
	)

	// HTTPRequestDuration tracks HTTP request duration by method and status
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kcguard_http_request_duration_seconds",
			Help:    "Duration of HTTP requests by method and status",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "status"},
	)

	// HTTPRequestsInFlight tracks current in-flight HTTP requests
	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "kcguard_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// RecordGrantSuccess records a grant attached to a request
func RecordGrantSuccess() {
	GrantAttachments.WithLabelValues("success", "").Inc()
}

// RecordGrantFailure records a failed grant lookup with reason
func RecordGrantFailure(reason string) {
	GrantAttachments.WithLabelValues("failure", reason).Inc()
}

// RecordTokenParsed records the outcome of parsing an access token
func RecordTokenParsed(malformed bool) {
	if malformed {
		TokensParsed.WithLabelValues("malformed").Inc()
		return
	}
	TokensParsed.WithLabelValues("valid").Inc()
}

// RecordAuthorizationAllowed records an allowed request
func RecordAuthorizationAllowed() {
	AuthorizationChecks.WithLabelValues("allowed", "").Inc()
}

// RecordAuthorizationDenied records a denied request with reason
func RecordAuthorizationDenied(reason string) {
	AuthorizationChecks.WithLabelValues("denied", reason).Inc()
}
