// GreenRec - Sustainability-Scored Recipe Recommendation Study
// Copyright 2026 GreenRec contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/greenrec/greenrec

package experiment

import (
	"context"
	"errors"
	"testing"

	"github.com/greenrec/greenrec/internal/models"
)

type mockCountStore struct {
	counts map[models.ExperimentGroup]int
	err    error
}

func (m *mockCountStore) GroupCounts(_ context.Context) (map[models.ExperimentGroup]int, error) {
	return m.counts, m.err
}

func TestAssignBalancesArms(t *testing.T) {
	tests := []struct {
		name   string
		counts map[models.ExperimentGroup]int
		want   models.ExperimentGroup
	}{
		{
			name:   "empty store goes to A",
			counts: map[models.ExperimentGroup]int{models.GroupA: 0, models.GroupB: 0, models.GroupC: 0},
			want:   models.GroupA,
		},
		{
			name:   "smallest arm wins",
			counts: map[models.ExperimentGroup]int{models.GroupA: 5, models.GroupB: 3, models.GroupC: 4},
			want:   models.GroupB,
		},
		{
			name:   "tie between B and C goes to B",
			counts: map[models.ExperimentGroup]int{models.GroupA: 4, models.GroupB: 2, models.GroupC: 2},
			want:   models.GroupB,
		},
		{
			name:   "C strictly behind",
			counts: map[models.ExperimentGroup]int{models.GroupA: 10, models.GroupB: 10, models.GroupC: 9},
			want:   models.GroupC,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAssigner(&mockCountStore{counts: tt.counts})
			got, err := a.Assign(context.Background())
			if err != nil {
				t.Fatalf("Assign failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Assign() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAssignSequenceRoundRobins(t *testing.T) {
	counts := map[models.ExperimentGroup]int{models.GroupA: 0, models.GroupB: 0, models.GroupC: 0}
	a := NewAssigner(&mockCountStore{counts: counts})

	want := []models.ExperimentGroup{
		models.GroupA, models.GroupB, models.GroupC,
		models.GroupA, models.GroupB, models.GroupC,
	}
	for i, w := range want {
		got, err := a.Assign(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if got != w {
			t.Fatalf("assignment %d = %v, want %v", i, got, w)
		}
		counts[got]++
	}
}

func TestAssignPropagatesStoreError(t *testing.T) {
	wantErr := errors.New("store down")
	a := NewAssigner(&mockCountStore{err: wantErr})
	if _, err := a.Assign(context.Background()); !errors.Is(err, wantErr) {
		t.Errorf("expected wrapped store error, got %v", err)
	}
}
