// GreenRec - Sustainability-Scored Recipe Recommendation Study
// Copyright 2026 GreenRec contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/greenrec/greenrec

// Package scoring computes the composite sustainability score of a recipe
// from its health (HSI), environmental (ESI) and popularity (PPI) indices.
//
// ESI is inverted before weighting: lower raw ESI means lower environmental
// impact, so (MaxESI - ESI) rewards sustainable recipes. The composite is
// always recomputed from the indices and weights; it is never persisted as a
// source of truth.
package scoring

import "github.com/greenrec/greenrec/internal/models"

const (
	// MaxESI is the upper bound of the ESI scale, used for inversion.
	MaxESI = 100.0

	// MaxScore bounds the composite to the 0-100 range of the input indices.
	MaxScore = 100.0

	// NeutralScore is assigned to recipes with missing indices. Such recipes
	// stay rankable as a fallback but are excluded from top-K selection.
	NeutralScore = 50.0
)

// Weights holds the blend weights of the composite score. The weights are
// expected to sum to approximately 1.0 so the composite stays on the 0-100
// scale; config validation enforces this with a small tolerance.
type Weights struct {
	Health      float64
	Environment float64
	Popularity  float64
}

// DefaultWeights returns the study's published weighting: 0.4 health,
// 0.4 environment, 0.2 popularity.
func DefaultWeights() Weights {
	return Weights{Health: 0.4, Environment: 0.4, Popularity: 0.2}
}

// Scorer computes composite scores with a fixed weight configuration.
type Scorer struct {
	weights Weights
}

// New creates a Scorer with the given weights.
func New(w Weights) *Scorer {
	return &Scorer{weights: w}
}

// Weights returns the configured weights.
func (s *Scorer) Weights() Weights {
	return s.weights
}

// Composite returns the weighted sustainability score of a recipe on the
// 0-100 scale:
//
//	w_h*HSI + w_e*(MaxESI - ESI) + w_p*PPI
//
// Recipes missing any index score NeutralScore.
func (s *Scorer) Composite(r models.Recipe) float64 {
	if !r.HasIndices {
		return NeutralScore
	}
	return s.CompositeRaw(r.HSI, r.ESI, r.PPI)
}

// CompositeRaw computes the composite from raw index values, clamped to
// [0, MaxScore].
func (s *Scorer) CompositeRaw(hsi, esi, ppi float64) float64 {
	score := s.weights.Health*hsi +
		s.weights.Environment*(MaxESI-esi) +
		s.weights.Popularity*ppi

	if score < 0 {
		return 0
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}

// Eligible reports whether a recipe may appear in top-K selections. Recipes
// with missing indices are neutral-scored and ineligible.
func (s *Scorer) Eligible(r models.Recipe) bool {
	return r.HasIndices
}
