// GreenRec - Sustainability-Scored Recipe Recommendation Study
// Copyright 2026 GreenRec contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/greenrec/greenrec

// Package database provides the DuckDB-backed persistent store for users,
// ratings, choices, and per-user round state.
//
// Recipes are not persisted here; the corpus is immutable reference data
// loaded by the corpus package and held in memory.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/greenrec/greenrec/internal/config"
	"github.com/greenrec/greenrec/internal/logging"
)

var (
	// ErrUserNotFound indicates no user matches the lookup.
	ErrUserNotFound = errors.New("user not found")

	// ErrUsernameTaken indicates a registration with an existing username.
	ErrUsernameTaken = errors.New("username already taken")

	// ErrRoundStateNotFound indicates the user has no study progress record.
	ErrRoundStateNotFound = errors.New("round state not found")
)

// DB wraps the DuckDB connection and provides data access methods.
type DB struct {
	conn *sql.DB
	cfg  *config.DatabaseConfig
}

// New opens (or creates) the database and initializes the schema. A Path of
// ":memory:" opens an in-memory database, which the tests rely on.
func New(cfg *config.DatabaseConfig) (*DB, error) {
	dsn := cfg.Path
	if dsn != ":memory:" && dsn != "" {
		dbDir := filepath.Dir(cfg.Path)
		if dbDir != "" && dbDir != "." {
			if err := os.MkdirAll(dbDir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create database directory %s: %w", dbDir, err)
			}
		}

		threads := cfg.Threads
		if threads <= 0 {
			threads = runtime.NumCPU()
		}
		maxMemory := cfg.MaxMemory
		if maxMemory == "" {
			maxMemory = "1GB"
		}
		dsn = fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s", cfg.Path, threads, maxMemory)
	}

	conn, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &DB{conn: conn, cfg: cfg}
	if err := db.initSchema(context.Background()); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logging.Info().Str("path", cfg.Path).Msg("database ready")
	return db, nil
}

// Close closes the underlying connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping verifies the connection, used by the readiness probe.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// initSchema creates tables and sequences. All statements are idempotent.
func (db *DB) initSchema(ctx context.Context) error {
	queries := []string{
		`CREATE SEQUENCE IF NOT EXISTS seq_user_id START 1`,

		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			exp_group TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		// One rating per (user, recipe, round); re-rating overwrites.
		`CREATE TABLE IF NOT EXISTS ratings (
			user_id INTEGER NOT NULL,
			recipe_id INTEGER NOT NULL,
			round INTEGER NOT NULL,
			rating INTEGER NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (user_id, recipe_id, round)
		)`,

		// Append-only log of final selections.
		`CREATE TABLE IF NOT EXISTS choices (
			id UUID PRIMARY KEY,
			user_id INTEGER NOT NULL,
			recipe_id INTEGER NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS round_state (
			user_id INTEGER PRIMARY KEY,
			round INTEGER NOT NULL DEFAULT 1,
			completed BOOLEAN NOT NULL DEFAULT FALSE
		)`,

		// Every recipe ever surfaced to a user, for non-repetition across
		// rounds. The round column identifies the batch.
		`CREATE TABLE IF NOT EXISTS shown_recipes (
			user_id INTEGER NOT NULL,
			recipe_id INTEGER NOT NULL,
			round INTEGER NOT NULL,
			PRIMARY KEY (user_id, recipe_id)
		)`,
	}

	for _, query := range queries {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}
	return nil
}

// ensureContext guarantees a timeout on store operations so a stuck query
// cannot hold a request forever.
func (db *DB) ensureContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, 30*time.Second)
}
