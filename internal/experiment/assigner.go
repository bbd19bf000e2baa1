// GreenRec - Sustainability-Scored Recipe Recommendation Study
// Copyright 2026 GreenRec contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/greenrec/greenrec

// Package experiment assigns new participants to one of the three study
// arms, keeping arm sizes balanced as enrollment grows.
package experiment

import (
	"context"
	"fmt"

	"github.com/greenrec/greenrec/internal/models"
)

// CountStore provides the current per-arm enrollment counts.
type CountStore interface {
	GroupCounts(ctx context.Context) (map[models.ExperimentGroup]int, error)
}

// Assigner picks the experiment arm for each new participant.
type Assigner struct {
	store CountStore
}

// NewAssigner creates an Assigner backed by the given count store.
func NewAssigner(store CountStore) *Assigner {
	return &Assigner{store: store}
}

// Assign returns the arm with the fewest enrolled participants. Ties go to
// the earliest arm in A, B, C order so assignment is deterministic.
func (a *Assigner) Assign(ctx context.Context) (models.ExperimentGroup, error) {
	counts, err := a.store.GroupCounts(ctx)
	if err != nil {
		return models.GroupA, fmt.Errorf("failed to load group counts: %w", err)
	}

	best := models.GroupA
	bestCount := counts[best]
	for _, g := range models.Groups()[1:] {
		if counts[g] < bestCount {
			best = g
			bestCount = counts[g]
		}
	}
	return best, nil
}
