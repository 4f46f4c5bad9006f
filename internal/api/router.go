// Cinemind - Personalized Media Recommendation Catalogs
// Copyright 2026 Cinemind Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinemind/cinemind

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cinemind/cinemind/internal/config"
)

// Router wires the addon handlers into the HTTP routing tree.
type Router struct {
	handler *Handler
	cfg     *config.ServerConfig
}

// NewRouter builds the router for a catalog service.
func NewRouter(cfg *config.ServerConfig, service CatalogService, baseURL string) *Router {
	return &Router{
		handler: NewHandler(service, baseURL),
		cfg:     cfg,
	}
}

// Setup assembles the routing tree and middleware stack.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to every route in order.
	r.Use(RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(CORS())

	// Operational endpoints, unmetered so monitoring never competes with
	// client traffic for the rate budget.
	r.Get("/health", router.handler.Health)
	r.Handle("/metrics", promhttp.Handler())

	// Configure endpoint.
	r.Route("/api", func(r chi.Router) {
		r.Use(RateLimit(router.cfg.RateLimit))
		r.Use(SecurityHeaders)
		r.Use(Instrument)
		r.Post("/configure", router.handler.Configure)
	})

	// Token-scoped addon endpoints.
	r.Route("/{token}", func(r chi.Router) {
		r.Use(RateLimit(router.cfg.RateLimit))
		r.Use(SecurityHeaders)
		r.Use(Instrument)

		r.Get("/manifest.json", router.handler.Manifest)
		r.Get("/catalog/{type}/{id}", router.handler.Catalog)
		r.Get("/catalog/{type}/{id}/{extra}", router.handler.Catalog)
	})

	return r
}
