// GreenRec - Sustainability-Scored Recipe Recommendation Study
// Copyright 2026 GreenRec contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/greenrec/greenrec

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/greenrec/greenrec/internal/models"
)

// UpsertRating stores a rating, overwriting any prior value for the same
// (user, recipe, round). Re-rating is idempotent by design: the last
// submitted value wins, nothing accumulates.
func (db *DB) UpsertRating(ctx context.Context, r models.Rating) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO ratings (user_id, recipe_id, round, rating, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (user_id, recipe_id, round)
		 DO UPDATE SET rating = EXCLUDED.rating, created_at = EXCLUDED.created_at`,
		r.UserID, r.RecipeID, r.Round, r.Rating, r.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert rating: %w", err)
	}
	return nil
}

// CountRatings returns how many distinct recipes the user has rated in the
// given round. This feeds the round-advancement threshold check.
func (db *DB) CountRatings(ctx context.Context, userID, round int) (int, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var count int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM ratings WHERE user_id = ? AND round = ?`, userID, round).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count ratings: %w", err)
	}
	return count, nil
}

// GetUserRatings returns all ratings of one user ordered by round then
// recipe ID. The engine derives the preference profile from these.
func (db *DB) GetUserRatings(ctx context.Context, userID int) ([]models.Rating, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT user_id, recipe_id, round, rating, created_at
		 FROM ratings WHERE user_id = ? ORDER BY round, recipe_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query user ratings: %w", err)
	}
	defer rows.Close()

	return scanRatings(rows)
}

// ListRatings returns every rating in the store ordered by user, round,
// recipe, for export and analytics.
func (db *DB) ListRatings(ctx context.Context) ([]models.Rating, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT user_id, recipe_id, round, rating, created_at
		 FROM ratings ORDER BY user_id, round, recipe_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query ratings: %w", err)
	}
	defer rows.Close()

	return scanRatings(rows)
}

func scanRatings(rows *sql.Rows) ([]models.Rating, error) {
	var ratings []models.Rating
	for rows.Next() {
		var r models.Rating
		if err := rows.Scan(&r.UserID, &r.RecipeID, &r.Round, &r.Rating, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan rating: %w", err)
		}
		ratings = append(ratings, r)
	}
	return ratings, rows.Err()
}

// InsertChoice appends a final-selection record.
func (db *DB) InsertChoice(ctx context.Context, c models.Choice) (models.Choice, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO choices (id, user_id, recipe_id, created_at) VALUES (?, ?, ?, ?)`,
		c.ID, c.UserID, c.RecipeID, c.CreatedAt)
	if err != nil {
		return models.Choice{}, fmt.Errorf("failed to insert choice: %w", err)
	}
	return c, nil
}

// ListChoices returns every choice ordered by creation time, for export and
// analytics.
func (db *DB) ListChoices(ctx context.Context) ([]models.Choice, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, user_id, recipe_id, created_at FROM choices ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query choices: %w", err)
	}
	defer rows.Close()

	var choices []models.Choice
	for rows.Next() {
		var c models.Choice
		if err := rows.Scan(&c.ID, &c.UserID, &c.RecipeID, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan choice: %w", err)
		}
		choices = append(choices, c)
	}
	return choices, rows.Err()
}
