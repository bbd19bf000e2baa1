// GreenRec - Sustainability-Scored Recipe Recommendation Study
// Copyright 2026 GreenRec contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/greenrec/greenrec

package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/greenrec/greenrec/internal/models"
)

// GroupStats aggregates study activity for one experiment arm.
type GroupStats struct {
	Group     models.ExperimentGroup `json:"-"`
	Users     int                    `json:"users"`
	Ratings   int                    `json:"ratings"`
	AvgRating float64                `json:"avg_rating"`
	Choices   int                    `json:"choices"`
}

// GetGroupStats returns per-arm user, rating, and choice aggregates. Arms
// without activity appear with zero values so the response shape is stable.
func (db *DB) GetGroupStats(ctx context.Context) ([]GroupStats, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	byGroup := make(map[models.ExperimentGroup]*GroupStats, 3)
	ordered := make([]*GroupStats, 0, 3)
	for _, g := range models.Groups() {
		gs := &GroupStats{Group: g}
		byGroup[g] = gs
		ordered = append(ordered, gs)
	}

	if err := db.mergeUserCounts(ctx, byGroup); err != nil {
		return nil, err
	}
	if err := db.mergeRatingAggregates(ctx, byGroup); err != nil {
		return nil, err
	}
	if err := db.mergeChoiceCounts(ctx, byGroup); err != nil {
		return nil, err
	}

	stats := make([]GroupStats, 0, len(ordered))
	for _, gs := range ordered {
		stats = append(stats, *gs)
	}
	return stats, nil
}

func (db *DB) mergeUserCounts(ctx context.Context, byGroup map[models.ExperimentGroup]*GroupStats) error {
	rows, err := db.conn.QueryContext(ctx, `SELECT exp_group, COUNT(*) FROM users GROUP BY exp_group`)
	if err != nil {
		return fmt.Errorf("failed to query user counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		var count int
		if err := rows.Scan(&name, &count); err != nil {
			return fmt.Errorf("failed to scan user count: %w", err)
		}
		g, err := models.ParseGroup(name)
		if err != nil {
			return err
		}
		byGroup[g].Users = count
	}
	return rows.Err()
}

func (db *DB) mergeRatingAggregates(ctx context.Context, byGroup map[models.ExperimentGroup]*GroupStats) error {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT u.exp_group, COUNT(*), AVG(r.rating)
		 FROM ratings r JOIN users u ON u.id = r.user_id
		 GROUP BY u.exp_group`)
	if err != nil {
		return fmt.Errorf("failed to query rating aggregates: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		var count int
		var avg sql.NullFloat64
		if err := rows.Scan(&name, &count, &avg); err != nil {
			return fmt.Errorf("failed to scan rating aggregate: %w", err)
		}
		g, err := models.ParseGroup(name)
		if err != nil {
			return err
		}
		byGroup[g].Ratings = count
		if avg.Valid {
			byGroup[g].AvgRating = avg.Float64
		}
	}
	return rows.Err()
}

func (db *DB) mergeChoiceCounts(ctx context.Context, byGroup map[models.ExperimentGroup]*GroupStats) error {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT u.exp_group, COUNT(*)
		 FROM choices c JOIN users u ON u.id = c.user_id
		 GROUP BY u.exp_group`)
	if err != nil {
		return fmt.Errorf("failed to query choice counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		var count int
		if err := rows.Scan(&name, &count); err != nil {
			return fmt.Errorf("failed to scan choice count: %w", err)
		}
		g, err := models.ParseGroup(name)
		if err != nil {
			return err
		}
		byGroup[g].Choices = count
	}
	return rows.Err()
}

// RatingsByRound returns the total number of ratings submitted per round.
func (db *DB) RatingsByRound(ctx context.Context) (map[int]int, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `SELECT round, COUNT(*) FROM ratings GROUP BY round`)
	if err != nil {
		return nil, fmt.Errorf("failed to query ratings by round: %w", err)
	}
	defer rows.Close()

	counts := make(map[int]int)
	for rows.Next() {
		var round, count int
		if err := rows.Scan(&round, &count); err != nil {
			return nil, fmt.Errorf("failed to scan round count: %w", err)
		}
		counts[round] = count
	}
	return counts, rows.Err()
}

// CompletedUserCount returns how many participants finished every round.
func (db *DB) CompletedUserCount(ctx context.Context) (int, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var count int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM round_state WHERE completed`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count completed users: %w", err)
	}
	return count, nil
}
