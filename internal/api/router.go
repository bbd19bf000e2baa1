// GreenRec - Sustainability-Scored Recipe Recommendation Study
// Copyright 2026 GreenRec contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/greenrec/greenrec

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/greenrec/greenrec/internal/auth"
	"github.com/greenrec/greenrec/internal/middleware"
)

// Router assembles the full route tree with its middleware stack.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecurityHeaders)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.Security.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authenticate := s.auth.Middleware(unauthorized)
	adminOnly := auth.RequireRole(auth.RoleAdmin, forbidden)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Instrument)
		r.Use(httprate.LimitByIP(s.cfg.Security.RateLimitReqs, s.cfg.Security.RateLimitWindow))

		r.Route("/auth", func(r chi.Router) {
			// Tighter limit on the credential endpoints.
			r.Use(httprate.LimitByIP(20, s.cfg.Security.RateLimitWindow))
			r.Post("/register", s.handleRegister)
			r.Post("/login", s.handleLogin)
			r.With(authenticate).Post("/logout", s.handleLogout)
		})

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/recommend", s.handleRecommend)
			r.Post("/rate", s.handleRate)
			r.Post("/next_round", s.handleNextRound)
			r.Post("/choice", s.handleChoice)
			r.Get("/status", s.handleStatus)
		})

		r.Group(func(r chi.Router) {
			r.Use(authenticate, adminOnly)
			r.Get("/stats", s.handleStats)
			r.Get("/export/users", s.handleExport("users", s.export.Users))
			r.Get("/export/ratings", s.handleExport("ratings", s.export.Ratings))
			r.Get("/export/choices", s.handleExport("choices", s.export.Choices))
			r.Post("/admin/reload", s.handleReload)
		})

		r.Get("/health/live", s.handleHealthLive)
		r.Get("/health/ready", s.handleHealthReady)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
