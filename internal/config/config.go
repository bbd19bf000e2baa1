// GreenRec - Sustainability-Scored Recipe Recommendation Study
// Copyright 2026 GreenRec contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/greenrec/greenrec

// Package config defines the GreenRec server configuration and its Koanf v2
// loading pipeline (defaults, then YAML file, then environment variables).
package config

import (
	"time"
)

// Config is the root configuration for the GreenRec server.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Database   DatabaseConfig   `koanf:"database"`
	Corpus     CorpusConfig     `koanf:"corpus"`
	Scoring    ScoringConfig    `koanf:"scoring"`
	Similarity SimilarityConfig `koanf:"similarity"`
	Study      StudyConfig      `koanf:"study"`
	Security   SecurityConfig   `koanf:"security"`
	Logging    LoggingConfig    `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	// Path is the DuckDB database file. ":memory:" opens an in-memory
	// database (used by tests).
	Path      string `koanf:"path" validate:"required"`
	MaxMemory string `koanf:"max_memory"`
	// Threads is the DuckDB thread count. 0 means runtime.NumCPU().
	Threads int `koanf:"threads"`
}

// CorpusConfig holds recipe corpus ingestion settings.
type CorpusConfig struct {
	// Paths is searched in order; the first readable file wins. An empty
	// usable corpus aborts startup since no recommendations can be produced.
	Paths []string `koanf:"paths" validate:"required,min=1"`
}

// ScoringConfig holds composite score weights.
//
// The three weights are expected to sum to approximately 1.0; Validate checks
// the sum with a 0.001 tolerance. ESI is inverted before weighting (lower raw
// ESI is more sustainable).
type ScoringConfig struct {
	HealthWeight      float64 `koanf:"health_weight" validate:"min=0"`
	EnvironmentWeight float64 `koanf:"environment_weight" validate:"min=0"`
	PopularityWeight  float64 `koanf:"popularity_weight" validate:"min=0"`
}

// SimilarityConfig holds TF-IDF index settings.
type SimilarityConfig struct {
	// MaxFeatures caps the vocabulary size by document frequency.
	MaxFeatures int `koanf:"max_features" validate:"min=1"`
	// NgramMin and NgramMax bound the token n-gram range (1..2 by default).
	NgramMin int `koanf:"ngram_min" validate:"min=1"`
	NgramMax int `koanf:"ngram_max" validate:"min=1"`
}

// GroupBlend holds the per-group ranking blend weights:
// score = Alpha*similarity + Beta*composite.
type GroupBlend struct {
	Alpha float64 `koanf:"alpha" validate:"min=0"`
	Beta  float64 `koanf:"beta" validate:"min=0"`
}

// StudyConfig holds the longitudinal study parameters.
type StudyConfig struct {
	RecipesPerRound int `koanf:"recipes_per_round" validate:"min=1"`
	// RequiredRatings is the per-round threshold that gates round advancement.
	RequiredRatings int `koanf:"required_ratings" validate:"min=1"`
	MaxRounds       int `koanf:"max_rounds" validate:"min=1"`
	// RelevanceThreshold marks a rating as a positive signal for profile
	// learning (rating >= threshold).
	RelevanceThreshold int        `koanf:"relevance_threshold" validate:"min=1,max=5"`
	GroupA             GroupBlend `koanf:"group_a"`
	GroupB             GroupBlend `koanf:"group_b"`
	GroupC             GroupBlend `koanf:"group_c"`
}

// SecurityConfig holds authentication and rate limiting settings.
type SecurityConfig struct {
	// JWTSecret signs session tokens. Minimum 32 characters.
	JWTSecret      string        `koanf:"jwt_secret"`
	SessionTimeout time.Duration `koanf:"session_timeout"`
	// AdminUsername/AdminPassword provision the single admin account used
	// for export and reload endpoints.
	AdminUsername    string        `koanf:"admin_username"`
	AdminPassword    string        `koanf:"admin_password"`
	SessionStorePath string        `koanf:"session_store_path"`
	RateLimitReqs    int           `koanf:"rate_limit_reqs"`
	RateLimitWindow  time.Duration `koanf:"rate_limit_window"`
	CORSOrigins      []string      `koanf:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns a Config with all default values. Study parameters
// mirror the published study design: 6 recipes per round, 3 ratings to
// advance, 5 rounds, relevance at rating >= 4.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8675,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Path:      "/data/greenrec.duckdb",
			MaxMemory: "1GB",
			Threads:   0, // 0 = runtime.NumCPU()
		},
		Corpus: CorpusConfig{
			Paths: []string{
				"data/greenrec_dataset.json",
				"data/recipes.json",
				"/etc/greenrec/recipes.json",
			},
		},
		Scoring: ScoringConfig{
			HealthWeight:      0.4,
			EnvironmentWeight: 0.4,
			PopularityWeight:  0.2,
		},
		Similarity: SimilarityConfig{
			MaxFeatures: 5000,
			NgramMin:    1,
			NgramMax:    2,
		},
		Study: StudyConfig{
			RecipesPerRound:    6,
			RequiredRatings:    3,
			MaxRounds:          5,
			RelevanceThreshold: 4,
			// The source documentation disagrees on the similarity/score
			// split (0.5/0.5 vs 0.6/0.4); it is configurable per group
			// rather than hard-coded. Group C leans on similarity to match
			// its hybrid design.
			GroupA: GroupBlend{Alpha: 0.5, Beta: 0.5},
			GroupB: GroupBlend{Alpha: 0.5, Beta: 0.5},
			GroupC: GroupBlend{Alpha: 0.6, Beta: 0.4},
		},
		Security: SecurityConfig{
			JWTSecret:        "",
			SessionTimeout:   24 * time.Hour,
			AdminUsername:    "",
			AdminPassword:    "",
			SessionStorePath: "/data/sessions",
			RateLimitReqs:    100,
			RateLimitWindow:  time.Minute,
			CORSOrigins:      []string{"*"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}
