// GreenRec - Sustainability-Scored Recipe Recommendation Study
// Copyright 2026 GreenRec contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/greenrec/greenrec

package recommend

import (
	"context"
	"errors"

	"github.com/greenrec/greenrec/internal/models"
)

var (
	// ErrStudyComplete indicates the user has finished every round and may
	// no longer receive recommendations or submit ratings.
	ErrStudyComplete = errors.New("study already complete for this user")

	// ErrNotEnoughRatings indicates the round-advancement threshold is not
	// met yet.
	ErrNotEnoughRatings = errors.New("not enough ratings to advance the round")

	// ErrUnknownRecipe indicates the referenced recipe is not in the corpus.
	ErrUnknownRecipe = errors.New("unknown recipe")

	// ErrInvalidRating indicates a rating value outside the 1-5 scale.
	ErrInvalidRating = errors.New("rating must be between 1 and 5")

	// ErrNoCandidates indicates every eligible recipe has already been shown
	// to the user.
	ErrNoCandidates = errors.New("no unseen recipes left to recommend")

	// ErrRecipeNotShown indicates a rating for a recipe outside the user's
	// current batch.
	ErrRecipeNotShown = errors.New("recipe is not part of the current batch")
)

// Store is the persistence surface the engine needs. *database.DB satisfies
// it; tests use an in-memory mock.
type Store interface {
	GetRoundState(ctx context.Context, userID int) (models.RoundState, error)
	AdvanceRound(ctx context.Context, userID, maxRounds int) (models.RoundState, error)
	GetUserRatings(ctx context.Context, userID int) ([]models.Rating, error)
	CountRatings(ctx context.Context, userID, round int) (int, error)
	UpsertRating(ctx context.Context, r models.Rating) error
	InsertChoice(ctx context.Context, c models.Choice) (models.Choice, error)
	MarkShown(ctx context.Context, userID, round int, recipeIDs []int) error
	ShownRecipes(ctx context.Context, userID int) ([]int, error)
	ShownInRound(ctx context.Context, userID, round int) ([]int, error)
}

// Item is one recommended recipe with the disclosure level of the user's
// experiment arm already applied. Scores is nil for the control arm.
type Item struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	Ingredients string  `json:"ingredients,omitempty"`
	Category    string  `json:"category,omitempty"`
	ImageURL    string  `json:"image_url,omitempty"`
	Scores      *Scores `json:"scores,omitempty"`
	Explanation string  `json:"explanation,omitempty"`
}

// Scores is the disclosed scoring detail for arms B and C.
type Scores struct {
	HSI       float64 `json:"hsi"`
	ESI       float64 `json:"esi"`
	PPI       float64 `json:"ppi"`
	Composite float64 `json:"composite"`
}

// Batch is one round's recommendation set.
type Batch struct {
	Round int    `json:"round"`
	Items []Item `json:"recipes"`
}

// Status reports a user's position in the round state machine.
type Status struct {
	Round      int    `json:"round"`
	MaxRounds  int    `json:"max_rounds"`
	Phase      string `json:"phase"`
	RatedCount int    `json:"rated_count"`
	Required   int    `json:"required_ratings"`
	CanProceed bool   `json:"can_proceed"`
	Completed  bool   `json:"completed"`
}
