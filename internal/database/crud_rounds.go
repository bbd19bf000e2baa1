// GreenRec - Sustainability-Scored Recipe Recommendation Study
// Copyright 2026 GreenRec contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/greenrec/greenrec

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/greenrec/greenrec/internal/models"
)

// GetRoundState returns the server-held study progress for a user. Round
// numbers are derived exclusively from this record.
func (db *DB) GetRoundState(ctx context.Context, userID int) (models.RoundState, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var rs models.RoundState
	err := db.conn.QueryRowContext(ctx,
		`SELECT user_id, round, completed FROM round_state WHERE user_id = ?`, userID).
		Scan(&rs.UserID, &rs.Round, &rs.Completed)
	if errors.Is(err, sql.ErrNoRows) {
		return models.RoundState{}, ErrRoundStateNotFound
	}
	if err != nil {
		return models.RoundState{}, fmt.Errorf("failed to query round state: %w", err)
	}
	return rs, nil
}

// AdvanceRound moves a user to the next round, or marks the study complete
// when the current round is the last. The caller is responsible for having
// verified the rating threshold first.
func (db *DB) AdvanceRound(ctx context.Context, userID, maxRounds int) (models.RoundState, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rs, err := db.GetRoundState(ctx, userID)
	if err != nil {
		return models.RoundState{}, err
	}
	if rs.Completed {
		return rs, nil
	}

	if rs.Round >= maxRounds {
		rs.Completed = true
	} else {
		rs.Round++
	}

	if _, err := db.conn.ExecContext(ctx,
		`UPDATE round_state SET round = ?, completed = ? WHERE user_id = ?`,
		rs.Round, rs.Completed, userID); err != nil {
		return models.RoundState{}, fmt.Errorf("failed to advance round: %w", err)
	}
	return rs, nil
}

// MarkShown records the recipes surfaced to a user in the given round, so
// later rounds never repeat them. Idempotent per (user, recipe).
func (db *DB) MarkShown(ctx context.Context, userID, round int, recipeIDs []int) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, id := range recipeIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO shown_recipes (user_id, recipe_id, round) VALUES (?, ?, ?)
			 ON CONFLICT (user_id, recipe_id) DO NOTHING`,
			userID, id, round); err != nil {
			return fmt.Errorf("failed to mark recipe %d shown: %w", id, err)
		}
	}
	return tx.Commit()
}

// ShownRecipes returns every recipe ID ever surfaced to the user, across all
// rounds of the study.
func (db *DB) ShownRecipes(ctx context.Context, userID int) ([]int, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT recipe_id FROM shown_recipes WHERE user_id = ? ORDER BY recipe_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query shown recipes: %w", err)
	}
	defer rows.Close()

	return scanIDs(rows)
}

// ShownInRound returns the batch surfaced to the user in one round. The
// engine uses it to re-serve the active batch and to scope ratings; the
// analytics precision computation uses it as the top-K set.
func (db *DB) ShownInRound(ctx context.Context, userID, round int) ([]int, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT recipe_id FROM shown_recipes WHERE user_id = ? AND round = ? ORDER BY recipe_id`,
		userID, round)
	if err != nil {
		return nil, fmt.Errorf("failed to query shown batch: %w", err)
	}
	defer rows.Close()

	return scanIDs(rows)
}

func scanIDs(rows *sql.Rows) ([]int, error) {
	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
