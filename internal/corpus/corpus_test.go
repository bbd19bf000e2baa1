// GreenRec - Sustainability-Scored Recipe Recommendation Study
// Copyright 2026 GreenRec contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/greenrec/greenrec

package corpus

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestParseFlatArray(t *testing.T) {
	data := []byte(`[
		{"id": 1, "title": "Lentil Curry", "ingredients": "lentils coconut milk", "category": "Main", "HSI": 80, "ESI": 30, "PPI": 60},
		{"id": 2, "title": "Quinoa Salad", "ingredients": "quinoa tomato", "HSI": 85, "ESI": 25, "PPI": 55}
	]`)

	recipes, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(recipes) != 2 {
		t.Fatalf("got %d recipes, want 2", len(recipes))
	}
	if recipes[0].Title != "Lentil Curry" || recipes[0].HSI != 80 || !recipes[0].HasIndices {
		t.Errorf("unexpected first recipe: %+v", recipes[0])
	}
}

func TestParseEnvelope(t *testing.T) {
	data := []byte(`{
		"metadata": {"version": "2.1", "source": "greenrec"},
		"recipes": [
			{"recipe_id": 7, "name": "Vegan Chili", "ingredients": "beans", "environmental_impact": 20, "health_score": 75, "popularity": 66}
		]
	}`)

	recipes, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(recipes) != 1 {
		t.Fatalf("got %d recipes, want 1", len(recipes))
	}
	r := recipes[0]
	if r.ID != 7 || r.Title != "Vegan Chili" {
		t.Errorf("alias fields not resolved: %+v", r)
	}
	if r.ESI != 20 || r.HSI != 75 || r.PPI != 66 || !r.HasIndices {
		t.Errorf("index aliases not resolved: %+v", r)
	}
}

func TestParseCaseInsensitiveAndQuotedNumbers(t *testing.T) {
	data := []byte(`[{"Id": "3", "Title": "Avocado Toast", "hsi": "70", "Esi": 40, "PPI": 90}]`)

	recipes, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	r := recipes[0]
	if r.ID != 3 || r.HSI != 70 || r.ESI != 40 {
		t.Errorf("case-insensitive/quoted parsing failed: %+v", r)
	}
}

func TestParseMissingIndicesFlagged(t *testing.T) {
	data := []byte(`[{"id": 5, "title": "Mystery Soup", "ingredients": "water"}]`)

	recipes, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if recipes[0].HasIndices {
		t.Error("recipe without HSI/ESI/PPI should be flagged")
	}
}

func TestParseSkipsUnusableRecords(t *testing.T) {
	data := []byte(`[
		{"title": "No ID"},
		{"id": 4},
		{"id": 9, "title": "Valid", "HSI": 1, "ESI": 1, "PPI": 1}
	]`)

	recipes, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(recipes) != 1 || recipes[0].ID != 9 {
		t.Errorf("expected only the valid record, got %+v", recipes)
	}
}

func TestParseDuplicateIDLastWins(t *testing.T) {
	data := []byte(`[
		{"id": 1, "title": "First", "HSI": 1, "ESI": 1, "PPI": 1},
		{"id": 1, "title": "Second", "HSI": 2, "ESI": 2, "PPI": 2}
	]`)

	recipes, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(recipes) != 1 || recipes[0].Title != "Second" {
		t.Errorf("duplicate resolution should keep the last record, got %+v", recipes)
	}
}

func TestParseEmptyCorpus(t *testing.T) {
	for _, data := range []string{`[]`, `[{"title": "no id"}]`, `{"recipes": []}`} {
		if _, err := Parse([]byte(data)); !errors.Is(err, ErrEmptyCorpus) {
			// An empty envelope decodes as neither shape; any error is fine
			// as long as one is returned.
			if err == nil {
				t.Errorf("Parse(%s) should fail", data)
			}
		}
	}
}

func TestLoadFirstExistingPath(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "recipes.json")
	content := []byte(`[{"id": 1, "title": "Only", "HSI": 1, "ESI": 1, "PPI": 1}]`)
	if err := os.WriteFile(good, content, 0o600); err != nil {
		t.Fatal(err)
	}

	recipes, err := Load([]string{filepath.Join(dir, "missing.json"), good})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(recipes) != 1 {
		t.Errorf("got %d recipes, want 1", len(recipes))
	}
}

func TestLoadNoFile(t *testing.T) {
	_, err := Load([]string{"/nonexistent/a.json", "/nonexistent/b.json"})
	if !errors.Is(err, ErrNoCorpusFile) {
		t.Errorf("expected ErrNoCorpusFile, got %v", err)
	}
}
