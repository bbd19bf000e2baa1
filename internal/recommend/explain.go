// GreenRec - Sustainability-Scored Recipe Recommendation Study
// Copyright 2026 GreenRec contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/greenrec/greenrec

package recommend

import (
	"fmt"
	"math"
	"strings"

	"github.com/greenrec/greenrec/internal/models"
	"github.com/greenrec/greenrec/internal/scoring"
)

// explainThreshold is the index level above which a dimension is called out
// in the generated explanation.
const explainThreshold = 70.0

// explain builds the arm-C explanation for one recipe. Fragments fire per
// dimension above the threshold (ESI inverted, so a low raw ESI reads as
// eco-friendly), plus a taste-match fragment when a preference profile
// contributed. The result is never empty.
func explain(r models.Recipe, sim float64) string {
	var parts []string
	if r.HSI > explainThreshold {
		parts = append(parts, "a healthy choice")
	}
	if scoring.MaxESI-r.ESI > explainThreshold {
		parts = append(parts, "eco-friendly with a low environmental impact")
	}
	if r.PPI > explainThreshold {
		parts = append(parts, "popular with other participants")
	}

	var sb strings.Builder
	sb.WriteString("Recommended because it is ")
	switch len(parts) {
	case 0:
		sb.Reset()
		sb.WriteString("A balanced option across health, environmental impact and popularity")
	case 1:
		sb.WriteString(parts[0])
	case 2:
		sb.WriteString(parts[0] + " and " + parts[1])
	default:
		sb.WriteString(strings.Join(parts[:len(parts)-1], ", ") + ", and " + parts[len(parts)-1])
	}

	if sim > 0 {
		fmt.Fprintf(&sb, "; it matches your taste profile (%d%% similar)", int(math.Round(sim*100)))
	}
	sb.WriteString(".")
	return sb.String()
}
