// Cobblerd - Provisioning Daemon and Install-Time Syslog Collector
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cobblerd

package rpc

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/cobblerd/internal/metrics"
)

// maxRequestBytes bounds an RPC request body.
const maxRequestBytes = 1 << 20

// RateLimitConfig configures per-IP rate limiting.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	Disabled bool
}

// RouterOptions configures one endpoint's handler.
type RouterOptions struct {
	Surface     Surface
	LogRequests bool
	RateLimit   RateLimitConfig
	// Metrics mounts GET /metrics.
	Metrics bool
}

// NewRouter builds the HTTP handler for one endpoint.
func NewRouter(svc *Service, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	if opts.LogRequests {
		r.Use(RequestLogger(opts.Surface))
	}
	r.Use(RateLimit(opts.RateLimit))

	h := &handler{svc: svc, surface: opts.Surface}
	r.Post("/RPC2", h.serveRPC)
	r.Get("/health", h.health)
	if opts.Metrics {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

// RateLimit returns an httprate per-IP limiter, or a pass-through when
// disabled.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	if cfg.Disabled || cfg.Requests <= 0 || cfg.Window <= 0 {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	return httprate.Limit(
		cfg.Requests,
		cfg.Window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			metrics.RPCRateLimitHits.Inc()
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		}),
	)
}
