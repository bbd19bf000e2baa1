// GreenRec - Sustainability-Scored Recipe Recommendation Study
// Copyright 2026 GreenRec contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/greenrec/greenrec

package config

import (
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"
)

// weightSumTolerance bounds the allowed deviation of the scoring weight sum
// from 1.0.
const weightSumTolerance = 0.001

var validate = validator.New()

// Validate checks structural constraints (via validator tags) and the semantic
// constraints that tags cannot express.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	sum := c.Scoring.HealthWeight + c.Scoring.EnvironmentWeight + c.Scoring.PopularityWeight
	if math.Abs(sum-1.0) > weightSumTolerance {
		return fmt.Errorf("scoring weights must sum to 1.0 (±%g), got %g", weightSumTolerance, sum)
	}

	if c.Study.RequiredRatings > c.Study.RecipesPerRound {
		return fmt.Errorf("study.required_ratings (%d) cannot exceed study.recipes_per_round (%d)",
			c.Study.RequiredRatings, c.Study.RecipesPerRound)
	}

	if c.Similarity.NgramMax < c.Similarity.NgramMin {
		return fmt.Errorf("similarity.ngram_max (%d) cannot be less than similarity.ngram_min (%d)",
			c.Similarity.NgramMax, c.Similarity.NgramMin)
	}

	for _, g := range []struct {
		name  string
		blend GroupBlend
	}{
		{"group_a", c.Study.GroupA},
		{"group_b", c.Study.GroupB},
		{"group_c", c.Study.GroupC},
	} {
		if g.blend.Alpha == 0 && g.blend.Beta == 0 {
			return fmt.Errorf("study.%s: alpha and beta cannot both be zero", g.name)
		}
	}

	if c.Security.JWTSecret != "" && len(c.Security.JWTSecret) < 32 {
		return fmt.Errorf("security.jwt_secret must be at least 32 characters, got %d", len(c.Security.JWTSecret))
	}

	if c.Security.AdminPassword != "" && len(c.Security.AdminPassword) < 8 {
		return fmt.Errorf("security.admin_password must be at least 8 characters")
	}

	return nil
}
