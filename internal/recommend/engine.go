// GreenRec - Sustainability-Scored Recipe Recommendation Study
// Copyright 2026 GreenRec contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/greenrec/greenrec

// Package recommend orchestrates the per-round study flow: candidate
// selection, group-dependent disclosure, rating capture, and round
// advancement.
//
// Ranking blends content similarity against the user's preference profile
// with the composite sustainability score. Users with no positive ratings
// yet get a deterministic per-user sample of the corpus instead (cold
// start). Round numbers always come from server-held state; the client
// never supplies one.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"

	"github.com/greenrec/greenrec/internal/config"
	"github.com/greenrec/greenrec/internal/logging"
	"github.com/greenrec/greenrec/internal/models"
	"github.com/greenrec/greenrec/internal/scoring"
	"github.com/greenrec/greenrec/internal/similarity"
)

// Engine produces recommendation batches and drives the round state machine.
type Engine struct {
	store  Store
	scorer *scoring.Scorer
	index  *similarity.Index
	cfg    config.StudyConfig

	mu      sync.RWMutex
	recipes map[int]models.Recipe
	ids     []int
}

// New creates an Engine over the given corpus. The similarity index is
// expected to be built (or rebuilt via Reload) by the caller.
func New(store Store, scorer *scoring.Scorer, index *similarity.Index, cfg config.StudyConfig, recipes []models.Recipe) *Engine {
	e := &Engine{
		store:  store,
		scorer: scorer,
		index:  index,
		cfg:    cfg,
	}
	e.setCorpus(recipes)
	return e
}

// Reload swaps in a fresh corpus and rebuilds the similarity index. Used by
// the admin reload endpoint. A corpus without usable text is accepted;
// ranking then falls back to the composite score alone.
func (e *Engine) Reload(recipes []models.Recipe) error {
	if err := e.index.Build(recipes); err != nil {
		if !errors.Is(err, similarity.ErrEmptyCorpus) {
			return fmt.Errorf("failed to rebuild similarity index: %w", err)
		}
		logging.Warn().Msg("corpus has no usable recipe text, ranking on composite scores only")
	}
	e.setCorpus(recipes)
	logging.Info().Int("recipes", len(recipes)).Msg("recommendation corpus reloaded")
	return nil
}

func (e *Engine) setCorpus(recipes []models.Recipe) {
	byID := make(map[int]models.Recipe, len(recipes))
	ids := make([]int, 0, len(recipes))
	for _, r := range recipes {
		byID[r.ID] = r
		ids = append(ids, r.ID)
	}
	sort.Ints(ids)

	e.mu.Lock()
	e.recipes = byID
	e.ids = ids
	e.mu.Unlock()
}

// Recipe returns a corpus entry by ID.
func (e *Engine) Recipe(id int) (models.Recipe, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	r, ok := e.recipes[id]
	return r, ok
}

// CorpusSize returns the number of loaded recipes.
func (e *Engine) CorpusSize() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.recipes)
}

// Recommend selects the current round's batch for a user, records it as
// shown, and applies the arm's disclosure level. Returns ErrStudyComplete
// once every round is finished.
func (e *Engine) Recommend(ctx context.Context, user *models.User) (*Batch, error) {
	rs, err := e.store.GetRoundState(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if rs.Completed {
		return nil, ErrStudyComplete
	}

	// A round's batch is fixed once served. A repeated request (page refresh,
	// retry) re-serves it instead of consuming fresh recipes.
	current, err := e.store.ShownInRound(ctx, user.ID, rs.Round)
	if err != nil {
		return nil, err
	}
	if len(current) > 0 {
		return e.rebuildBatch(ctx, user, rs.Round, current)
	}

	shown, err := e.store.ShownRecipes(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	exclude := make(map[int]struct{}, len(shown))
	for _, id := range shown {
		exclude[id] = struct{}{}
	}

	ratings, err := e.store.GetUserRatings(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	selected, sims := e.selectCandidates(user, ratings, exclude)
	if len(selected) == 0 {
		return nil, ErrNoCandidates
	}

	ids := make([]int, len(selected))
	for i, r := range selected {
		ids[i] = r.ID
	}
	if err := e.store.MarkShown(ctx, user.ID, rs.Round, ids); err != nil {
		return nil, err
	}

	batch := &Batch{Round: rs.Round, Items: make([]Item, 0, len(selected))}
	for _, r := range selected {
		batch.Items = append(batch.Items, e.buildItem(r, user.Group, sims[r.ID]))
	}

	logging.Debug().
		Int("user_id", user.ID).
		Int("round", rs.Round).
		Str("group", user.Group.String()).
		Ints("recipe_ids", ids).
		Msg("recommendation batch produced")
	return batch, nil
}

// rebuildBatch reconstructs an already-served batch from the shown log,
// applying the current disclosure level.
func (e *Engine) rebuildBatch(ctx context.Context, user *models.User, round int, ids []int) (*Batch, error) {
	ratings, err := e.store.GetUserRatings(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	profile := e.profileVector(ratings)

	batch := &Batch{Round: round, Items: make([]Item, 0, len(ids))}
	for _, id := range ids {
		r, ok := e.Recipe(id)
		if !ok {
			// The corpus was reloaded without this recipe.
			continue
		}
		batch.Items = append(batch.Items, e.buildItem(r, user.Group, e.index.SimilarityTo(profile, id)))
	}
	return batch, nil
}

// selectCandidates ranks unseen eligible recipes. With a usable preference
// profile the score is alpha*similarity + beta*(composite/100); without one
// the user gets a deterministic seeded sample so repeated requests within
// the round return the same batch.
func (e *Engine) selectCandidates(user *models.User, ratings []models.Rating, exclude map[int]struct{}) ([]models.Recipe, map[int]float64) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	candidates := make([]models.Recipe, 0, len(e.ids))
	for _, id := range e.ids {
		if _, skip := exclude[id]; skip {
			continue
		}
		r := e.recipes[id]
		if !e.scorer.Eligible(r) {
			continue
		}
		candidates = append(candidates, r)
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	sims := make(map[int]float64, len(candidates))

	// Without a built index there is no similarity signal; rank on the
	// composite score alone.
	if !e.index.Built() {
		sort.SliceStable(candidates, func(i, j int) bool {
			ci, cj := e.scorer.Composite(candidates[i]), e.scorer.Composite(candidates[j])
			if ci != cj {
				return ci > cj
			}
			return candidates[i].ID < candidates[j].ID
		})
		if len(candidates) > e.cfg.RecipesPerRound {
			candidates = candidates[:e.cfg.RecipesPerRound]
		}
		return candidates, sims
	}

	profile := e.profileVector(ratings)

	if profile == nil {
		// Cold start: no positive signal yet. Seed by user ID so the sample
		// is stable across retries but differs between users.
		rng := rand.New(rand.NewSource(int64(user.ID))) //nolint:gosec // not security sensitive
		rng.Shuffle(len(candidates), func(i, j int) {
			candidates[i], candidates[j] = candidates[j], candidates[i]
		})
		if len(candidates) > e.cfg.RecipesPerRound {
			candidates = candidates[:e.cfg.RecipesPerRound]
		}
		return candidates, sims
	}

	blend := e.blendFor(user.Group)
	type ranked struct {
		recipe models.Recipe
		score  float64
	}
	scored := make([]ranked, 0, len(candidates))
	for _, r := range candidates {
		sim := e.index.SimilarityTo(profile, r.ID)
		sims[r.ID] = sim
		score := blend.Alpha*sim + blend.Beta*(e.scorer.Composite(r)/scoring.MaxScore)
		scored = append(scored, ranked{recipe: r, score: score})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].recipe.ID < scored[j].recipe.ID
	})

	if len(scored) > e.cfg.RecipesPerRound {
		scored = scored[:e.cfg.RecipesPerRound]
	}
	out := make([]models.Recipe, len(scored))
	for i, s := range scored {
		out[i] = s.recipe
	}
	return out, sims
}

// profileVector builds the user's taste profile from ratings at or above the
// relevance threshold, weighted by the rating value. Returns nil when there
// is no usable signal.
func (e *Engine) profileVector(ratings []models.Rating) similarity.Vector {
	var ids []int
	var weights []float64
	for _, r := range ratings {
		if r.Rating >= e.cfg.RelevanceThreshold {
			ids = append(ids, r.RecipeID)
			weights = append(weights, float64(r.Rating))
		}
	}
	if len(ids) == 0 {
		return nil
	}
	return e.index.ProfileVector(ids, weights)
}

func (e *Engine) blendFor(g models.ExperimentGroup) config.GroupBlend {
	switch g {
	case models.GroupB:
		return e.cfg.GroupB
	case models.GroupC:
		return e.cfg.GroupC
	default:
		return e.cfg.GroupA
	}
}

// buildItem applies the arm's disclosure level to one recipe.
func (e *Engine) buildItem(r models.Recipe, g models.ExperimentGroup, sim float64) Item {
	item := Item{
		ID:          r.ID,
		Title:       r.Title,
		Ingredients: r.Ingredients,
		Category:    r.Category,
		ImageURL:    r.ImageURL,
	}
	if g.ShowsScores() {
		item.Scores = &Scores{
			HSI:       r.HSI,
			ESI:       r.ESI,
			PPI:       r.PPI,
			Composite: e.scorer.Composite(r),
		}
	}
	if g.ShowsExplanation() {
		item.Explanation = explain(r, sim)
	}
	return item
}

// Rate validates and persists one rating against the server-held round.
// Only recipes from the round's served batch count toward the threshold;
// re-rating the same recipe within a round overwrites.
func (e *Engine) Rate(ctx context.Context, user *models.User, recipeID, rating int) error {
	if rating < 1 || rating > 5 {
		return ErrInvalidRating
	}
	if _, ok := e.Recipe(recipeID); !ok {
		return ErrUnknownRecipe
	}

	rs, err := e.store.GetRoundState(ctx, user.ID)
	if err != nil {
		return err
	}
	if rs.Completed {
		return ErrStudyComplete
	}

	current, err := e.store.ShownInRound(ctx, user.ID, rs.Round)
	if err != nil {
		return err
	}
	inBatch := false
	for _, id := range current {
		if id == recipeID {
			inBatch = true
			break
		}
	}
	if !inBatch {
		return ErrRecipeNotShown
	}

	return e.store.UpsertRating(ctx, models.Rating{
		UserID:   user.ID,
		RecipeID: recipeID,
		Round:    rs.Round,
		Rating:   rating,
	})
}

// Choose records a final selection. Choices are append-only and allowed at
// any point of the study, including after completion.
func (e *Engine) Choose(ctx context.Context, user *models.User, recipeID int) (models.Choice, error) {
	if _, ok := e.Recipe(recipeID); !ok {
		return models.Choice{}, ErrUnknownRecipe
	}
	return e.store.InsertChoice(ctx, models.Choice{UserID: user.ID, RecipeID: recipeID})
}

// Status reports the user's position in the round state machine.
func (e *Engine) Status(ctx context.Context, userID int) (*Status, error) {
	rs, err := e.store.GetRoundState(ctx, userID)
	if err != nil {
		return nil, err
	}

	st := &Status{
		Round:     rs.Round,
		MaxRounds: e.cfg.MaxRounds,
		Required:  e.cfg.RequiredRatings,
		Completed: rs.Completed,
	}
	if rs.Completed {
		st.Phase = models.PhaseStudyComplete.String()
		return st, nil
	}

	count, err := e.store.CountRatings(ctx, userID, rs.Round)
	if err != nil {
		return nil, err
	}
	st.RatedCount = count
	st.CanProceed = count >= e.cfg.RequiredRatings
	if st.CanProceed {
		st.Phase = models.PhaseReadyForNextRound.String()
	} else {
		st.Phase = models.PhaseAwaitingRatings.String()
	}
	return st, nil
}

// NextRound advances the user once the rating threshold is met. Returns the
// post-advance status; the final advance flips the study to complete.
func (e *Engine) NextRound(ctx context.Context, userID int) (*Status, error) {
	rs, err := e.store.GetRoundState(ctx, userID)
	if err != nil {
		return nil, err
	}
	if rs.Completed {
		return nil, ErrStudyComplete
	}

	count, err := e.store.CountRatings(ctx, userID, rs.Round)
	if err != nil {
		return nil, err
	}
	if count < e.cfg.RequiredRatings {
		return nil, fmt.Errorf("%w: %d of %d in round %d", ErrNotEnoughRatings, count, e.cfg.RequiredRatings, rs.Round)
	}

	if _, err := e.store.AdvanceRound(ctx, userID, e.cfg.MaxRounds); err != nil {
		return nil, err
	}
	return e.Status(ctx, userID)
}
