// GreenRec - Sustainability-Scored Recipe Recommendation Study
// Copyright 2026 GreenRec contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/greenrec/greenrec

// Package metrics exposes the Prometheus instrumentation of the GreenRec
// server. Collectors are registered once via promauto on the default
// registry and served at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts HTTP requests by route, method, and status class.
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "greenrec",
		Subsystem: "api",
		Name:      "requests_total",
		Help:      "HTTP requests processed, by route, method and status.",
	}, []string{"route", "method", "status"})

	// RequestDuration observes HTTP request latency per route.
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "greenrec",
		Subsystem: "api",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route"})

	// RegistrationsTotal counts participants enrolled per experiment arm.
	RegistrationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "greenrec",
		Subsystem: "study",
		Name:      "registrations_total",
		Help:      "Participants registered, by experiment arm.",
	}, []string{"group"})

	// RatingsTotal counts submitted ratings per experiment arm.
	RatingsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "greenrec",
		Subsystem: "study",
		Name:      "ratings_total",
		Help:      "Ratings submitted, by experiment arm.",
	}, []string{"group"})

	// RecommendationsTotal counts recommendation batches served per arm.
	RecommendationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "greenrec",
		Subsystem: "study",
		Name:      "recommendations_total",
		Help:      "Recommendation batches served, by experiment arm.",
	}, []string{"group"})

	// ChoicesTotal counts final selections per experiment arm.
	ChoicesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "greenrec",
		Subsystem: "study",
		Name:      "choices_total",
		Help:      "Final recipe selections recorded, by experiment arm.",
	}, []string{"group"})

	// RoundAdvancesTotal counts successful round transitions.
	RoundAdvancesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "greenrec",
		Subsystem: "study",
		Name:      "round_advances_total",
		Help:      "Round advancements across all participants.",
	})

	// StudyCompletionsTotal counts participants finishing all rounds.
	StudyCompletionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "greenrec",
		Subsystem: "study",
		Name:      "completions_total",
		Help:      "Participants who completed every round.",
	})

	// CorpusSize tracks the number of loaded recipes.
	CorpusSize = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "greenrec",
		Subsystem: "corpus",
		Name:      "recipes",
		Help:      "Recipes currently loaded in the corpus.",
	})

	// IndexBuildDuration observes similarity index build time.
	IndexBuildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "greenrec",
		Subsystem: "similarity",
		Name:      "index_build_seconds",
		Help:      "Time spent building the TF-IDF index.",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60},
	})
)
