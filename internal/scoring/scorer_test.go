// GreenRec - Sustainability-Scored Recipe Recommendation Study
// Copyright 2026 GreenRec contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/greenrec/greenrec

package scoring

import (
	"math"
	"testing"

	"github.com/greenrec/greenrec/internal/models"
)

func recipe(hsi, esi, ppi float64) models.Recipe {
	return models.Recipe{ID: 1, Title: "test", HSI: hsi, ESI: esi, PPI: ppi, HasIndices: true}
}

func TestCompositeKnownValue(t *testing.T) {
	// 0.4*80 + 0.4*(100-50) + 0.2*60 = 32 + 20 + 12 = 64
	s := New(DefaultWeights())
	got := s.Composite(recipe(80, 50, 60))
	if math.Abs(got-64.0) > 1e-9 {
		t.Errorf("Composite(80, 50, 60) = %g, want 64", got)
	}
}

func TestCompositeBounds(t *testing.T) {
	s := New(DefaultWeights())

	tests := []struct {
		name          string
		hsi, esi, ppi float64
		want          float64
	}{
		{"best possible", 100, 0, 100, 100},
		{"worst possible", 0, 100, 0, 0},
		{"all mid", 50, 50, 50, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Composite(recipe(tt.hsi, tt.esi, tt.ppi))
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Composite(%g, %g, %g) = %g, want %g", tt.hsi, tt.esi, tt.ppi, got, tt.want)
			}
		})
	}
}

func TestCompositeMonotonicity(t *testing.T) {
	s := New(DefaultWeights())
	base := s.Composite(recipe(50, 50, 50))

	// Non-decreasing in HSI.
	for hsi := 0.0; hsi <= 100; hsi += 10 {
		prev := -1.0
		got := s.Composite(recipe(hsi, 50, 50))
		if got < prev {
			t.Errorf("composite decreased as HSI rose: %g at HSI=%g", got, hsi)
		}
		prev = got
	}

	if s.Composite(recipe(60, 50, 50)) <= base {
		t.Error("composite should increase with HSI")
	}
	if s.Composite(recipe(50, 50, 60)) <= base {
		t.Error("composite should increase with PPI")
	}
	// Non-increasing in raw ESI: higher ESI = worse environmental impact.
	if s.Composite(recipe(50, 60, 50)) >= base {
		t.Error("composite should decrease as raw ESI rises")
	}
}

func TestCompositeMissingIndices(t *testing.T) {
	s := New(DefaultWeights())
	r := models.Recipe{ID: 2, Title: "incomplete", HSI: 90, PPI: 90, HasIndices: false}

	if got := s.Composite(r); got != NeutralScore {
		t.Errorf("Composite of incomplete recipe = %g, want neutral %g", got, NeutralScore)
	}
	if s.Eligible(r) {
		t.Error("incomplete recipe must not be eligible for top-K")
	}
	if !s.Eligible(recipe(1, 1, 1)) {
		t.Error("complete recipe must be eligible")
	}
}

func TestCompositeClamping(t *testing.T) {
	// Out-of-range inputs (corpus is not always clean) must not escape 0-100.
	s := New(Weights{Health: 0.5, Environment: 0.5, Popularity: 0.5})

	if got := s.CompositeRaw(200, 0, 200); got != MaxScore {
		t.Errorf("composite should clamp to %g, got %g", MaxScore, got)
	}
	if got := s.CompositeRaw(0, 300, 0); got != 0 {
		t.Errorf("composite should clamp to 0, got %g", got)
	}
}
