// GreenRec - Sustainability-Scored Recipe Recommendation Study
// Copyright 2026 GreenRec contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/greenrec/greenrec

// Package export streams study data to researchers as CSV or JSON. Exports
// never include password hashes; the users export carries only ID,
// username, arm, and creation time.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	json "github.com/goccy/go-json"

	"github.com/greenrec/greenrec/internal/models"
)

// Store is the persistence surface exports read from.
type Store interface {
	ListUsers(ctx context.Context) ([]models.User, error)
	ListRatings(ctx context.Context) ([]models.Rating, error)
	ListChoices(ctx context.Context) ([]models.Choice, error)
}

// Format selects the export encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ParseFormat normalizes a query parameter into a Format. Empty defaults to
// CSV.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "", "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

// ContentType returns the MIME type for the format.
func (f Format) ContentType() string {
	if f == FormatJSON {
		return "application/json"
	}
	return "text/csv"
}

// Service streams exports.
type Service struct {
	store Store
}

// New creates the export service.
func New(store Store) *Service {
	return &Service{store: store}
}

// Users writes all participants in the requested format.
func (s *Service) Users(ctx context.Context, w io.Writer, f Format) error {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to load users for export: %w", err)
	}
	if f == FormatJSON {
		return writeJSON(w, users)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "username", "group", "created_at"}); err != nil {
		return err
	}
	for _, u := range users {
		record := []string{
			strconv.Itoa(u.ID),
			u.Username,
			u.Group.String(),
			u.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Ratings writes all ratings in the requested format.
func (s *Service) Ratings(ctx context.Context, w io.Writer, f Format) error {
	ratings, err := s.store.ListRatings(ctx)
	if err != nil {
		return fmt.Errorf("failed to load ratings for export: %w", err)
	}
	if f == FormatJSON {
		return writeJSON(w, ratings)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"user_id", "recipe_id", "round", "rating", "created_at"}); err != nil {
		return err
	}
	for _, r := range ratings {
		record := []string{
			strconv.Itoa(r.UserID),
			strconv.Itoa(r.RecipeID),
			strconv.Itoa(r.Round),
			strconv.Itoa(r.Rating),
			r.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Choices writes all final selections in the requested format.
func (s *Service) Choices(ctx context.Context, w io.Writer, f Format) error {
	choices, err := s.store.ListChoices(ctx)
	if err != nil {
		return fmt.Errorf("failed to load choices for export: %w", err)
	}
	if f == FormatJSON {
		return writeJSON(w, choices)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "user_id", "recipe_id", "created_at"}); err != nil {
		return err
	}
	for _, c := range choices {
		record := []string{
			c.ID,
			strconv.Itoa(c.UserID),
			strconv.Itoa(c.RecipeID),
			c.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// writeJSON emits a JSON array even when the slice is empty.
func writeJSON[T any](w io.Writer, items []T) error {
	if items == nil {
		items = []T{}
	}
	enc := json.NewEncoder(w)
	return enc.Encode(items)
}
