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
	"strings"
	"time"

	"github.com/greenrec/greenrec/internal/models"
)

// CreateUser inserts a new user with its initial round state in a single
// transaction, so the per-group counts used for balanced assignment stay
// consistent with the user rows.
func (db *DB) CreateUser(ctx context.Context, username, passwordHash string, group models.ExperimentGroup) (*models.User, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	var id int
	err = tx.QueryRowContext(ctx,
		`INSERT INTO users (id, username, password_hash, exp_group, created_at)
		 VALUES (nextval('seq_user_id'), ?, ?, ?, ?)
		 RETURNING id`,
		username, passwordHash, group.String(), now,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO round_state (user_id, round, completed) VALUES (?, 1, FALSE)`, id); err != nil {
		return nil, fmt.Errorf("failed to initialize round state: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit user creation: %w", err)
	}

	return &models.User{
		ID:        id,
		Username:  username,
		Group:     group,
		CreatedAt: now,
	}, nil
}

// GetUserByUsername looks a user up for login.
func (db *DB) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	return db.scanUser(db.conn.QueryRowContext(ctx,
		`SELECT id, username, password_hash, exp_group, created_at FROM users WHERE username = ?`, username))
}

// GetUserByID looks a user up by primary key.
func (db *DB) GetUserByID(ctx context.Context, id int) (*models.User, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	return db.scanUser(db.conn.QueryRowContext(ctx,
		`SELECT id, username, password_hash, exp_group, created_at FROM users WHERE id = ?`, id))
}

func (db *DB) scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	var group string
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &group, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	if u.Group, err = models.ParseGroup(group); err != nil {
		return nil, fmt.Errorf("corrupt group for user %d: %w", u.ID, err)
	}
	return &u, nil
}

// GroupCounts returns the number of users in each experiment arm. Arms with
// no users yet are present with count zero.
func (db *DB) GroupCounts(ctx context.Context) (map[models.ExperimentGroup]int, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	counts := make(map[models.ExperimentGroup]int, 3)
	for _, g := range models.Groups() {
		counts[g] = 0
	}

	rows, err := db.conn.QueryContext(ctx, `SELECT exp_group, COUNT(*) FROM users GROUP BY exp_group`)
	if err != nil {
		return nil, fmt.Errorf("failed to query group counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		var count int
		if err := rows.Scan(&name, &count); err != nil {
			return nil, fmt.Errorf("failed to scan group count: %w", err)
		}
		g, err := models.ParseGroup(name)
		if err != nil {
			return nil, err
		}
		counts[g] = count
	}
	return counts, rows.Err()
}

// ListUsers returns all users ordered by ID, for export.
func (db *DB) ListUsers(ctx context.Context) ([]models.User, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, username, exp_group, created_at FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		var group string
		if err := rows.Scan(&u.ID, &u.Username, &group, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		if u.Group, err = models.ParseGroup(group); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// isUniqueViolation detects a unique-constraint failure. database/sql does
// not expose typed errors for DuckDB, so match on the constraint message.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}
