// GreenRec - Sustainability-Scored Recipe Recommendation Study
// Copyright 2026 GreenRec contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/greenrec/greenrec

// Command server runs the GreenRec study backend.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/greenrec/greenrec/internal/analytics"
	"github.com/greenrec/greenrec/internal/api"
	"github.com/greenrec/greenrec/internal/auth"
	"github.com/greenrec/greenrec/internal/config"
	"github.com/greenrec/greenrec/internal/corpus"
	"github.com/greenrec/greenrec/internal/database"
	"github.com/greenrec/greenrec/internal/experiment"
	"github.com/greenrec/greenrec/internal/export"
	"github.com/greenrec/greenrec/internal/logging"
	"github.com/greenrec/greenrec/internal/metrics"
	"github.com/greenrec/greenrec/internal/recommend"
	"github.com/greenrec/greenrec/internal/scoring"
	"github.com/greenrec/greenrec/internal/similarity"
	"github.com/greenrec/greenrec/internal/supervisor"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})
	logging.Info().Msg("GreenRec server starting")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to open database")
	}
	defer func() { _ = db.Close() }()

	// An unusable corpus is fatal: no recipes means no study.
	recipes, err := corpus.Load(cfg.Corpus.Paths)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load recipe corpus")
	}
	metrics.CorpusSize.Set(float64(len(recipes)))

	index := similarity.New(similarity.Config{
		MaxFeatures: cfg.Similarity.MaxFeatures,
		NgramMin:    cfg.Similarity.NgramMin,
		NgramMax:    cfg.Similarity.NgramMax,
	})
	buildStart := time.Now()
	switch err := index.Build(recipes); {
	case errors.Is(err, similarity.ErrEmptyCorpus):
		// Recipes without text still carry scores; ranking degrades to the
		// composite score alone.
		logging.Warn().Msg("no usable recipe text, ranking on composite scores only")
	case err != nil:
		logging.Fatal().Err(err).Msg("failed to build similarity index")
	default:
		metrics.IndexBuildDuration.Observe(time.Since(buildStart).Seconds())
		logging.Info().
			Int("recipes", index.Size()).
			Dur("build_time", time.Since(buildStart)).
			Msg("similarity index built")
	}

	scorer := scoring.New(scoring.Weights{
		Health:      cfg.Scoring.HealthWeight,
		Environment: cfg.Scoring.EnvironmentWeight,
		Popularity:  cfg.Scoring.PopularityWeight,
	})
	engine := recommend.New(db, scorer, index, cfg.Study, recipes)

	if cfg.Security.JWTSecret == "" {
		logging.Fatal().Msg("security.jwt_secret (GREENREC_SECURITY_JWT_SECRET) is required")
	}

	sessions, err := auth.NewSessionStore(cfg.Security.SessionStorePath)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to open session store")
	}
	defer func() { _ = sessions.Close() }()

	authSvc, err := auth.NewService(
		db,
		experiment.NewAssigner(db),
		auth.NewTokenIssuer(cfg.Security.JWTSecret, cfg.Security.SessionTimeout),
		sessions,
		auth.NewLoginThrottle(5, 5*time.Minute),
		cfg.Security.AdminUsername,
		cfg.Security.AdminPassword,
		database.ErrUsernameTaken,
	)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to initialize auth service")
	}

	server := api.NewServer(cfg, db, authSvc, engine,
		analytics.New(db, engine, scorer, cfg.Study.RelevanceThreshold),
		export.New(db))

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      server.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tree := supervisor.New(logging.NewSlogLogger(), cfg.Server.ShutdownTimeout)
	tree.Add(supervisor.NewHTTPService(httpServer, cfg.Server.ShutdownTimeout))
	tree.Add(supervisor.NewPeriodicService("session-store-gc", time.Hour, func(context.Context) error {
		return sessions.GC()
	}))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("shutdown signal received")
		cancel()
	}()

	logging.Info().Str("addr", httpServer.Addr).Msg("serving")
	errCh := tree.ServeBackground(ctx)

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("supervisor error")
		}
	}
	logging.Info().Msg("server stopped")
}
