// GreenRec - Sustainability-Scored Recipe Recommendation Study
// Copyright 2026 GreenRec contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/greenrec/greenrec

// Package models defines the core data types shared across the GreenRec
// server: recipes, users, ratings, choices, and the per-user round state.
package models

import (
	"fmt"
	"time"
)

// ExperimentGroup identifies the study arm a user belongs to. Arms differ in
// how much scoring information is disclosed: A sees nothing, B sees the
// sustainability sub-scores, C sees sub-scores plus a generated explanation.
type ExperimentGroup int

const (
	// GroupA is the control arm: no scores, no explanations.
	GroupA ExperimentGroup = iota
	// GroupB surfaces HSI/ESI/PPI and the composite score.
	GroupB
	// GroupC surfaces scores plus a natural-language explanation per item.
	GroupC
)

// String returns the single-letter arm name used in storage and responses.
func (g ExperimentGroup) String() string {
	switch g {
	case GroupA:
		return "A"
	case GroupB:
		return "B"
	case GroupC:
		return "C"
	default:
		return "unknown"
	}
}

// ShowsScores reports whether the arm discloses sub-scores to the user.
func (g ExperimentGroup) ShowsScores() bool {
	return g == GroupB || g == GroupC
}

// ShowsExplanation reports whether the arm discloses generated explanations.
func (g ExperimentGroup) ShowsExplanation() bool {
	return g == GroupC
}

// ParseGroup converts a stored single-letter arm name back to its enum value.
func ParseGroup(s string) (ExperimentGroup, error) {
	switch s {
	case "A":
		return GroupA, nil
	case "B":
		return GroupB, nil
	case "C":
		return GroupC, nil
	default:
		return GroupA, fmt.Errorf("unknown experiment group %q", s)
	}
}

// Groups lists all experiment arms in assignment order.
func Groups() []ExperimentGroup {
	return []ExperimentGroup{GroupA, GroupB, GroupC}
}

// Recipe is an immutable corpus entry. The sustainability indices are on a
// 0-100 scale; lower raw ESI means lower environmental impact.
type Recipe struct {
	ID           int     `json:"id"`
	Title        string  `json:"title"`
	Ingredients  string  `json:"ingredients"`
	Instructions string  `json:"instructions,omitempty"`
	Category     string  `json:"category,omitempty"`
	ImageURL     string  `json:"image_url,omitempty"`
	HSI          float64 `json:"hsi"`
	ESI          float64 `json:"esi"`
	PPI          float64 `json:"ppi"`

	// HasIndices is false when any of HSI/ESI/PPI was absent in the source
	// record. Such recipes score neutrally and are excluded from top-K.
	HasIndices bool `json:"-"`
}

// User is a registered study participant. Group assignment is fixed at
// creation and never changes.
type User struct {
	ID           int             `json:"id"`
	Username     string          `json:"username"`
	PasswordHash string          `json:"-"`
	Group        ExperimentGroup `json:"group"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Rating is one user's 1-5 judgement of a recipe within a round. Re-rating
// the same (user, recipe, round) overwrites the prior value.
type Rating struct {
	UserID    int       `json:"user_id"`
	RecipeID  int       `json:"recipe_id"`
	Round     int       `json:"round"`
	Rating    int       `json:"rating"`
	CreatedAt time.Time `json:"created_at"`
}

// Choice records a user's final selection from a recommendation batch.
// Append-only.
type Choice struct {
	ID        string    `json:"id"`
	UserID    int       `json:"user_id"`
	RecipeID  int       `json:"recipe_id"`
	CreatedAt time.Time `json:"created_at"`
}

// RoundPhase describes where a user stands in the round state machine.
type RoundPhase int

const (
	// PhaseAwaitingRatings means the rating threshold for the current round
	// is not yet met.
	PhaseAwaitingRatings RoundPhase = iota
	// PhaseReadyForNextRound means the threshold is met and the user may
	// advance.
	PhaseReadyForNextRound
	// PhaseStudyComplete means all rounds are finished.
	PhaseStudyComplete
)

// String returns a wire-friendly phase name.
func (p RoundPhase) String() string {
	switch p {
	case PhaseAwaitingRatings:
		return "awaiting_ratings"
	case PhaseReadyForNextRound:
		return "ready_for_next_round"
	case PhaseStudyComplete:
		return "study_complete"
	default:
		return "unknown"
	}
}

// RoundState is the server-held study progress for one user. Round numbers
// are derived exclusively from this record; client-supplied round numbers are
// never trusted.
type RoundState struct {
	UserID int `json:"user_id"`
	// Round is the current round, starting at 1.
	Round int `json:"round"`
	// Completed is true once the user has finished MaxRounds rounds.
	Completed bool `json:"completed"`
}
