package config

import (
	"time"

	"golang.org/x/time/rate"
)

// JWKSURL returns the realm certificate endpoint
func (s *Settings) JWKSURL() string {
	return s.RealmURL() + "/protocol/openid-connect/certs"
}

// JWKSInterval returns the minimum time between two signing key refreshes
func (s *Settings) JWKSInterval() time.Duration {
	minutes := s.MinTimeBetweenJWKSRequests
	if minutes <= 0 {
		minutes = DefaultMinTimeBetweenJWKSRequests
	}
	return time.Duration(minutes) * time.Minute
}

// NewJWKSLimiter returns a limiter that grants one signing key refresh per
// JWKSInterval. The first refresh is allowed immediately.
func (s *Settings) NewJWKSLimiter() *rate.Limiter {
	return rate.NewLimiter(rate.Every(s.JWKSInterval()), 1)
}
