// Catalogus - Data Catalog Activity Streams
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/catalogus

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/catalogus/internal/config"
)

// Router composes the handler set with the middleware stack.
type Router struct {
	handlers *Handlers
	cfg      config.ServerConfig
}

// NewRouter creates the HTTP router for the given handler set.
func NewRouter(handlers *Handlers, cfg config.ServerConfig) *Router {
	return &Router{handlers: handlers, cfg: cfg}
}

// Setup builds the complete route tree.
func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to all routes in order.
	r.Use(RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(RequestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   rt.cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Route("/api/v1", func(r chi.Router) {
		if rt.cfg.RateLimit > 0 {
			r.Use(httprate.LimitByIP(rt.cfg.RateLimit, time.Minute))
		}

		r.Get("/activity/{type}/{id}", rt.handlers.BySubject)
		r.Get("/activity/id/{activity_id}", rt.handlers.GetActivity)
		r.Get("/activity/id/{activity_id}/diff", rt.handlers.Diff)

		r.Get("/dashboard/{user}", rt.handlers.Dashboard)
		r.Post("/dashboard/{user}/viewed", rt.handlers.MarkViewed)
		r.Get("/dashboard/{user}/unread", rt.handlers.UnreadCount)

		r.Post("/events", rt.handlers.AppendFromEvent)

		r.Delete("/admin/activity", rt.handlers.Purge)
	})

	r.Get("/healthz", rt.handlers.Health)
	r.Handle("/metrics", promhttp.Handler())

	return r
}
