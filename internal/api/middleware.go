// Beacon KPI - CRM Sync and Regional KPI Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beaconkpi

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/tomtom215/beaconkpi/internal/config"
)

// Stricter limits for routes that start expensive work.
const (
	heavyRateLimitRequests = 10
	heavyRateLimitWindow   = time.Minute
)

// MiddlewareConfig holds CORS and rate-limit settings.
type MiddlewareConfig struct {
	CORSAllowedOrigins []string
	RateLimitRequests  int
	RateLimitWindow    time.Duration
	RateLimitDisabled  bool
}

// MiddlewareConfigFrom maps server settings. A zero request count disables
// rate limiting.
func MiddlewareConfigFrom(cfg *config.ServerConfig) MiddlewareConfig {
	window := cfg.RateLimitWindow
	if window <= 0 {
		window = time.Minute
	}
	return MiddlewareConfig{
		CORSAllowedOrigins: cfg.CORSOrigins,
		RateLimitRequests:  cfg.RateLimitReqs,
		RateLimitWindow:    window,
		RateLimitDisabled:  cfg.RateLimitReqs <= 0,
	}
}

// CORS returns the go-chi/cors handler. No origins are allowed unless
// configured.
func (c MiddlewareConfig) CORS() func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: c.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "X-Request-ID", "X-Actor"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         86400,
	})
}

// RateLimit limits requests per client IP.
func (c MiddlewareConfig) RateLimit() func(http.Handler) http.Handler {
	if c.RateLimitDisabled {
		return passthrough
	}
	return httprate.Limit(c.RateLimitRequests, c.RateLimitWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(rateLimited),
	)
}

// HeavyRateLimit limits sync triggers, smoke tests and uploads.
func (c MiddlewareConfig) HeavyRateLimit() func(http.Handler) http.Handler {
	if c.RateLimitDisabled {
		return passthrough
	}
	return httprate.Limit(heavyRateLimitRequests, heavyRateLimitWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(rateLimited),
	)
}

func passthrough(next http.Handler) http.Handler { return next }

func rateLimited(w http.ResponseWriter, r *http.Request) {
	respondError(w, r, http.StatusTooManyRequests, ErrCodeTooManyRequests, "Rate limit exceeded, try again later", nil)
}

// SecurityHeaders adds the headers every API response carries.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
			w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		next.ServeHTTP(w, r)
	})
}
