// GreenRec - Sustainability-Scored Recipe Recommendation Study
// Copyright 2026 GreenRec contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/greenrec/greenrec

// Package analytics assembles the researcher-facing study statistics:
// per-arm engagement aggregates, top-K relevance metrics, and the mean
// sustainability of final choices.
package analytics

import (
	"context"
	"fmt"

	"github.com/greenrec/greenrec/internal/database"
	"github.com/greenrec/greenrec/internal/models"
	"github.com/greenrec/greenrec/internal/scoring"
)

// Store is the persistence surface the report needs. *database.DB
// satisfies it.
type Store interface {
	GetGroupStats(ctx context.Context) ([]database.GroupStats, error)
	RatingsByRound(ctx context.Context) (map[int]int, error)
	CompletedUserCount(ctx context.Context) (int, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	GetUserRatings(ctx context.Context, userID int) ([]models.Rating, error)
	GetRoundState(ctx context.Context, userID int) (models.RoundState, error)
	ShownInRound(ctx context.Context, userID, round int) ([]int, error)
	ListChoices(ctx context.Context) ([]models.Choice, error)
}

// Catalog resolves recipe IDs against the loaded corpus.
type Catalog interface {
	Recipe(id int) (models.Recipe, bool)
}

// GroupReport is the per-arm slice of the study report.
type GroupReport struct {
	Users              int     `json:"users"`
	Ratings            int     `json:"ratings"`
	AvgRating          float64 `json:"avg_rating"`
	Choices            int     `json:"choices"`
	Precision          float64 `json:"precision"`
	Recall             float64 `json:"recall"`
	F1                 float64 `json:"f1"`
	AvgChosenComposite float64 `json:"avg_chosen_composite"`
}

// Report is the full researcher-facing statistics payload.
type Report struct {
	Groups         map[string]GroupReport `json:"groups"`
	RatingsByRound map[int]int            `json:"ratings_by_round"`
	CompletedUsers int                    `json:"completed_users"`
	TotalUsers     int                    `json:"total_users"`
}

// Service computes study reports.
type Service struct {
	store   Store
	catalog Catalog
	scorer  *scoring.Scorer

	// relevanceThreshold marks a rating as a hit for precision/recall.
	relevanceThreshold int
}

// New creates the analytics service.
func New(store Store, catalog Catalog, scorer *scoring.Scorer, relevanceThreshold int) *Service {
	return &Service{
		store:              store,
		catalog:            catalog,
		scorer:             scorer,
		relevanceThreshold: relevanceThreshold,
	}
}

// BuildReport assembles the current study statistics.
func (s *Service) BuildReport(ctx context.Context) (*Report, error) {
	stats, err := s.store.GetGroupStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load group stats: %w", err)
	}

	report := &Report{Groups: make(map[string]GroupReport, len(stats))}
	for _, gs := range stats {
		report.Groups[gs.Group.String()] = GroupReport{
			Users:     gs.Users,
			Ratings:   gs.Ratings,
			AvgRating: gs.AvgRating,
			Choices:   gs.Choices,
		}
		report.TotalUsers += gs.Users
	}

	if err := s.mergeRelevanceMetrics(ctx, report); err != nil {
		return nil, err
	}
	if err := s.mergeChoiceComposites(ctx, report); err != nil {
		return nil, err
	}

	if report.RatingsByRound, err = s.store.RatingsByRound(ctx); err != nil {
		return nil, fmt.Errorf("failed to load per-round counts: %w", err)
	}
	if report.CompletedUsers, err = s.store.CompletedUserCount(ctx); err != nil {
		return nil, fmt.Errorf("failed to count completed users: %w", err)
	}
	return report, nil
}

// mergeRelevanceMetrics averages per-user precision and recall into each
// arm, measured against the user's most recent batch so the denominator
// stays at the batch size rather than growing with every round. Precision
// is the share of that batch the user judged relevant (rating at or above
// the threshold); recall is the share of the user's relevant recipes the
// batch covered.
func (s *Service) mergeRelevanceMetrics(ctx context.Context, report *Report) error {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	type accum struct {
		precision, recall float64
		n                 int
	}
	byGroup := make(map[string]*accum)

	for _, u := range users {
		batch, err := s.lastShownBatch(ctx, u.ID)
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			continue
		}
		ratings, err := s.store.GetUserRatings(ctx, u.ID)
		if err != nil {
			return err
		}

		batchSet := make(map[int]struct{}, len(batch))
		for _, id := range batch {
			batchSet[id] = struct{}{}
		}

		var relevant, hits int
		for _, r := range ratings {
			if r.Rating < s.relevanceThreshold {
				continue
			}
			relevant++
			if _, ok := batchSet[r.RecipeID]; ok {
				hits++
			}
		}

		acc := byGroup[u.Group.String()]
		if acc == nil {
			acc = &accum{}
			byGroup[u.Group.String()] = acc
		}
		acc.precision += float64(hits) / float64(len(batch))
		if relevant > 0 {
			acc.recall += float64(hits) / float64(relevant)
		}
		acc.n++
	}

	for name, acc := range byGroup {
		gr := report.Groups[name]
		gr.Precision = acc.precision / float64(acc.n)
		gr.Recall = acc.recall / float64(acc.n)
		if gr.Precision+gr.Recall > 0 {
			gr.F1 = 2 * gr.Precision * gr.Recall / (gr.Precision + gr.Recall)
		}
		report.Groups[name] = gr
	}
	return nil
}

// lastShownBatch walks back from the user's current round to the most
// recent round in which a batch was served. The current round can be empty
// when the user advanced but has not requested recommendations yet.
func (s *Service) lastShownBatch(ctx context.Context, userID int) ([]int, error) {
	rs, err := s.store.GetRoundState(ctx, userID)
	if err != nil {
		return nil, err
	}
	for round := rs.Round; round >= 1; round-- {
		batch, err := s.store.ShownInRound(ctx, userID, round)
		if err != nil {
			return nil, err
		}
		if len(batch) > 0 {
			return batch, nil
		}
	}
	return nil, nil
}

// mergeChoiceComposites averages the composite sustainability score of the
// recipes each arm finally chose. This is the study's primary outcome.
func (s *Service) mergeChoiceComposites(ctx context.Context, report *Report) error {
	choices, err := s.store.ListChoices(ctx)
	if err != nil {
		return fmt.Errorf("failed to list choices: %w", err)
	}
	if len(choices) == 0 {
		return nil
	}

	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return err
	}
	groupOf := make(map[int]string, len(users))
	for _, u := range users {
		groupOf[u.ID] = u.Group.String()
	}

	type accum struct {
		sum float64
		n   int
	}
	byGroup := make(map[string]*accum)
	for _, c := range choices {
		recipe, ok := s.catalog.Recipe(c.RecipeID)
		if !ok {
			continue
		}
		name, ok := groupOf[c.UserID]
		if !ok {
			continue
		}
		acc := byGroup[name]
		if acc == nil {
			acc = &accum{}
			byGroup[name] = acc
		}
		acc.sum += s.scorer.Composite(recipe)
		acc.n++
	}

	for name, acc := range byGroup {
		gr := report.Groups[name]
		gr.AvgChosenComposite = acc.sum / float64(acc.n)
		report.Groups[name] = gr
	}
	return nil
}
