// GreenRec - Sustainability-Scored Recipe Recommendation Study
// Copyright 2026 GreenRec contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/greenrec/greenrec

package similarity

import (
	"errors"
	"math"
	"testing"

	"github.com/greenrec/greenrec/internal/models"
)

func testRecipes() []models.Recipe {
	return []models.Recipe{
		{ID: 1, Title: "Lentil Curry", Ingredients: "red lentils coconut milk curry paste onion"},
		{ID: 2, Title: "Lentil Soup", Ingredients: "red lentils carrot onion vegetable broth"},
		{ID: 3, Title: "Chocolate Cake", Ingredients: "flour sugar cocoa butter eggs"},
		{ID: 4, Title: "Carrot Cake", Ingredients: "flour sugar carrot butter eggs walnut"},
	}
}

func buildTestIndex(t *testing.T) *Index {
	t.Helper()
	ix := New(Config{})
	if err := ix.Build(testRecipes()); err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return ix
}

func TestBuildEmptyCorpus(t *testing.T) {
	ix := New(Config{})
	err := ix.Build([]models.Recipe{{ID: 1, Title: "no text"}})
	if !errors.Is(err, ErrEmptyCorpus) {
		t.Errorf("expected ErrEmptyCorpus, got %v", err)
	}
	if ix.Built() {
		t.Error("index should not report built after failed Build")
	}
}

func TestSimilarityRange(t *testing.T) {
	ix := buildTestIndex(t)

	for _, a := range []int{1, 2, 3, 4} {
		for _, b := range []int{1, 2, 3, 4} {
			sim := ix.Similarity(a, b)
			if sim < 0 || sim > 1 {
				t.Errorf("Similarity(%d, %d) = %g out of [0,1]", a, b, sim)
			}
		}
	}
}

func TestSimilaritySelfIsOne(t *testing.T) {
	ix := buildTestIndex(t)
	if sim := ix.Similarity(1, 1); math.Abs(sim-1.0) > 1e-9 {
		t.Errorf("self-similarity = %g, want 1", sim)
	}
}

func TestSimilarityReflectsSharedIngredients(t *testing.T) {
	ix := buildTestIndex(t)

	lentils := ix.Similarity(1, 2)
	crossDomain := ix.Similarity(1, 3)
	if lentils <= crossDomain {
		t.Errorf("lentil recipes should be more similar to each other (%g) than to cake (%g)", lentils, crossDomain)
	}

	cakes := ix.Similarity(3, 4)
	if cakes <= crossDomain {
		t.Errorf("cake recipes should be more similar to each other (%g) than across domains (%g)", cakes, crossDomain)
	}
}

func TestSimilarityUnknownID(t *testing.T) {
	ix := buildTestIndex(t)
	if sim := ix.Similarity(1, 999); sim != 0 {
		t.Errorf("similarity with unknown id = %g, want 0", sim)
	}
}

func TestProfileVectorAndTopK(t *testing.T) {
	ix := buildTestIndex(t)

	profile := ix.ProfileVector([]int{1}, nil)
	if profile == nil {
		t.Fatal("profile vector should not be nil")
	}

	neighbors := ix.TopK(profile, 2, map[int]struct{}{1: {}})
	if len(neighbors) != 2 {
		t.Fatalf("got %d neighbors, want 2", len(neighbors))
	}
	if neighbors[0].RecipeID == 1 {
		t.Error("excluded recipe appeared in TopK")
	}
	if neighbors[0].RecipeID != 2 {
		t.Errorf("nearest neighbor of lentil curry should be lentil soup, got %d", neighbors[0].RecipeID)
	}
	if neighbors[0].Similarity < neighbors[1].Similarity {
		t.Error("TopK results must be sorted by descending similarity")
	}
}

func TestTopKDeterministicTieBreak(t *testing.T) {
	// Two identical documents tie exactly; lower ID must come first.
	recipes := []models.Recipe{
		{ID: 5, Ingredients: "apple banana", Title: "a"},
		{ID: 3, Ingredients: "apple banana", Title: "b"},
		{ID: 9, Ingredients: "apple banana", Title: "c"},
	}
	ix := New(Config{})
	if err := ix.Build(recipes); err != nil {
		t.Fatal(err)
	}

	profile := ix.ProfileVector([]int{3}, nil)
	neighbors := ix.TopK(profile, 3, nil)
	if len(neighbors) != 3 {
		t.Fatalf("got %d neighbors", len(neighbors))
	}
	for i, want := range []int{3, 5, 9} {
		if neighbors[i].RecipeID != want {
			t.Errorf("neighbors[%d] = %d, want %d (id ascending on ties)", i, neighbors[i].RecipeID, want)
		}
	}
}

func TestProfileVectorWeights(t *testing.T) {
	ix := buildTestIndex(t)

	// Heavily weighting the cake recipe must pull the profile toward cakes.
	profile := ix.ProfileVector([]int{1, 3}, []float64{0.1, 5.0})
	simCake := ix.SimilarityTo(profile, 4)
	simLentil := ix.SimilarityTo(profile, 2)
	if simCake <= simLentil {
		t.Errorf("weighted profile should favour cakes: cake=%g lentil=%g", simCake, simLentil)
	}
}

func TestProfileVectorUnknownOnly(t *testing.T) {
	ix := buildTestIndex(t)
	if profile := ix.ProfileVector([]int{777}, nil); profile != nil {
		t.Error("profile from unknown recipes should be nil")
	}
}

func TestRebuildSwapsCorpus(t *testing.T) {
	ix := buildTestIndex(t)

	replacement := []models.Recipe{
		{ID: 100, Ingredients: "tofu rice soy sauce", Title: "Tofu Bowl"},
		{ID: 101, Ingredients: "tofu noodles soy sauce", Title: "Tofu Noodles"},
	}
	if err := ix.Build(replacement); err != nil {
		t.Fatalf("rebuild failed: %v", err)
	}

	if ix.Size() != 2 {
		t.Errorf("size after rebuild = %d, want 2", ix.Size())
	}
	if sim := ix.Similarity(1, 2); sim != 0 {
		t.Errorf("old corpus should be gone after rebuild, got similarity %g", sim)
	}
	if sim := ix.Similarity(100, 101); sim == 0 {
		t.Error("new corpus should be queryable after rebuild")
	}
}

func TestTokenizeNgrams(t *testing.T) {
	terms := tokenize("Red Lentils, olive-oil!", 1, 2)
	want := map[string]bool{
		"red": true, "lentils": true, "olive": true, "oil": true,
		"red lentils": true, "lentils olive": true, "olive oil": true,
	}
	if len(terms) != len(want) {
		t.Fatalf("got %d terms %v, want %d", len(terms), terms, len(want))
	}
	for _, term := range terms {
		if !want[term] {
			t.Errorf("unexpected term %q", term)
		}
	}
}

func TestVocabCap(t *testing.T) {
	df := map[string]int{"a": 5, "b": 4, "c": 3, "d": 2}
	vocab := buildVocab(df, 2)
	if len(vocab) != 2 {
		t.Fatalf("vocab size = %d, want 2", len(vocab))
	}
	if _, ok := vocab["a"]; !ok {
		t.Error("most frequent term missing from capped vocab")
	}
	if _, ok := vocab["d"]; ok {
		t.Error("least frequent term should be dropped")
	}
}
