// Pulselog - Usage Event Analytics and Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pulselog

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/pulselog/internal/config"
	"github.com/tomtom215/pulselog/internal/middleware"
)

// Router wires the handler and middleware stack into the route tree.
type Router struct {
	handler *Handler
	mw      *Middleware
	cfg     config.SecurityConfig
}

// NewRouter creates a router around the given handler.
func NewRouter(handler *Handler, mw *Middleware, cfg config.SecurityConfig) *Router {
	return &Router{
		handler: handler,
		mw:      mw,
		cfg:     cfg,
	}
}

// Setup builds the route tree.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware. CORS is global so OPTIONS preflight requests
	// are answered before routing.
	r.Use(chiHandler(middleware.RequestID))
	r.Use(RequestLogger())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.mw.CORS())

	// Fallback handlers must precede the Route calls below; subrouters
	// inherit them when mounted.
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusNotFound, ErrCodeNotFound, "Resource not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "Method not allowed", nil)
	})

	// ========================
	// Health Endpoints
	// ========================
	// Permissive rate limit so monitoring probes are not starved by
	// API traffic hitting the shared limiter.
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.mw.RateLimitHealth())
		r.Use(SecurityHeaders())
		r.Get("/", router.handler.Health)
		r.Get("/live", router.handler.Health)
		r.Get("/ready", router.handler.HealthReady)
	})

	// ========================
	// API Endpoints
	// ========================
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.mw.RateLimit())
		r.Use(SecurityHeaders())
		r.Use(chiHandler(middleware.Prometheus))

		// Submission carries a client-controlled body; cap it before
		// the decoder sees it.
		r.With(chiHandler(middleware.BodyLimit(router.cfg.MaxBodyBytes))).
			Post("/events", router.handler.SubmitEvents)

		r.Get("/stats", router.handler.Stats)
		r.Get("/events/recent", router.handler.RecentEvents)
		r.Get("/users/{userID}", router.handler.UserRollup)

		// Derived views are the largest payloads.
		r.With(chiHandler(middleware.Compression)).Get("/dashboard", router.handler.Dashboard)
		r.With(chiHandler(middleware.Compression)).Get("/report", router.handler.Report)
	})

	// ========================
	// Observability
	// ========================
	r.Handle("/metrics", promhttp.Handler())

	return r
}
