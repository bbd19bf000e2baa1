// GreenRec - Sustainability-Scored Recipe Recommendation Study
// Copyright 2026 GreenRec contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/greenrec/greenrec

// Package corpus loads the immutable recipe reference data at startup.
//
// The ingestion format is deliberately tolerant: the JSON file may be a flat
// recipe array or a {metadata, recipes: [...]} envelope, and several field
// spellings are accepted per attribute (id/recipe_id/recipeid,
// title/name, HSI/health_score, ESI/environmental_impact, PPI/popularity,
// image/images/image_url), case-insensitively. The study datasets were
// produced by different export pipelines and disagree on naming.
package corpus

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/greenrec/greenrec/internal/logging"
	"github.com/greenrec/greenrec/internal/models"
)

var (
	// ErrEmptyCorpus indicates no usable recipe records were found. This is
	// fatal at startup: without a corpus no recommendations can be produced.
	ErrEmptyCorpus = errors.New("recipe corpus is empty")

	// ErrNoCorpusFile indicates none of the configured corpus paths exist.
	ErrNoCorpusFile = errors.New("no corpus file found")
)

// envelope is the {metadata, recipes} wrapper some dataset exports use.
type envelope struct {
	Recipes []json.RawMessage `json:"recipes"`
}

// fieldAliases maps canonical attribute names to the accepted source
// spellings, checked in order.
var fieldAliases = map[string][]string{
	"id":           {"id", "recipe_id", "recipeid"},
	"title":        {"title", "name"},
	"ingredients":  {"ingredients", "ingredients_text"},
	"instructions": {"instructions", "directions"},
	"category":     {"category"},
	"image":        {"image", "images", "image_url"},
	"hsi":          {"hsi", "health_score"},
	"esi":          {"esi", "esi_final", "environmental_impact"},
	"ppi":          {"ppi", "popularity"},
}

// Load reads the first existing path and parses it. Paths are tried in order.
func Load(paths []string) ([]models.Recipe, error) {
	for _, path := range paths {
		data, err := os.ReadFile(path) //nolint:gosec // paths come from operator config
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("failed to read corpus file %s: %w", path, err)
		}

		recipes, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse corpus file %s: %w", path, err)
		}

		logging.Info().
			Str("path", path).
			Int("recipes", len(recipes)).
			Msg("recipe corpus loaded")
		return recipes, nil
	}

	return nil, fmt.Errorf("%w: tried %v", ErrNoCorpusFile, paths)
}

// Parse decodes a corpus document. Records without a positive ID and a
// non-empty title are skipped; duplicate IDs are resolved last-wins.
func Parse(data []byte) ([]models.Recipe, error) {
	raws, err := rawRecords(data)
	if err != nil {
		return nil, err
	}

	byID := make(map[int]models.Recipe, len(raws))
	order := make([]int, 0, len(raws))

	for i, raw := range raws {
		rec, err := parseRecord(raw)
		if err != nil {
			logging.Warn().Err(err).Int("index", i).Msg("skipping unusable recipe record")
			continue
		}
		if _, dup := byID[rec.ID]; dup {
			logging.Warn().Int("recipe_id", rec.ID).Msg("duplicate recipe id, keeping last occurrence")
		} else {
			order = append(order, rec.ID)
		}
		byID[rec.ID] = rec
	}

	if len(byID) == 0 {
		return nil, ErrEmptyCorpus
	}

	recipes := make([]models.Recipe, 0, len(byID))
	for _, id := range order {
		recipes = append(recipes, byID[id])
	}
	return recipes, nil
}

// rawRecords extracts the per-recipe raw messages from either supported
// document shape.
func rawRecords(data []byte) ([]json.RawMessage, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err == nil && len(env.Recipes) > 0 {
		return env.Recipes, nil
	}

	var flat []json.RawMessage
	if err := json.Unmarshal(data, &flat); err != nil {
		return nil, fmt.Errorf("corpus document is neither a recipe array nor an envelope: %w", err)
	}
	return flat, nil
}

func parseRecord(raw json.RawMessage) (models.Recipe, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return models.Recipe{}, fmt.Errorf("record is not an object: %w", err)
	}

	// Lowercase key index for case-insensitive alias lookup.
	lower := make(map[string]json.RawMessage, len(fields))
	for k, v := range fields {
		lower[strings.ToLower(k)] = v
	}

	id, ok := intField(lower, "id")
	if !ok || id <= 0 {
		return models.Recipe{}, errors.New("missing or invalid recipe id")
	}
	title, ok := stringField(lower, "title")
	if !ok || title == "" {
		return models.Recipe{}, fmt.Errorf("recipe %d has no title", id)
	}

	rec := models.Recipe{ID: id, Title: title}
	rec.Ingredients, _ = stringField(lower, "ingredients")
	rec.Instructions, _ = stringField(lower, "instructions")
	rec.Category, _ = stringField(lower, "category")
	rec.ImageURL, _ = stringField(lower, "image")

	var hasHSI, hasESI, hasPPI bool
	rec.HSI, hasHSI = floatField(lower, "hsi")
	rec.ESI, hasESI = floatField(lower, "esi")
	rec.PPI, hasPPI = floatField(lower, "ppi")
	rec.HasIndices = hasHSI && hasESI && hasPPI

	if !rec.HasIndices {
		logging.Debug().Int("recipe_id", id).Msg("recipe missing sustainability indices, will score neutrally")
	}

	return rec, nil
}

func lookup(fields map[string]json.RawMessage, canonical string) (json.RawMessage, bool) {
	for _, alias := range fieldAliases[canonical] {
		if v, ok := fields[alias]; ok {
			return v, true
		}
	}
	return nil, false
}

func stringField(fields map[string]json.RawMessage, canonical string) (string, bool) {
	raw, ok := lookup(fields, canonical)
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s), true
	}
	return "", false
}

func floatField(fields map[string]json.RawMessage, canonical string) (float64, bool) {
	raw, ok := lookup(fields, canonical)
	if !ok {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, true
	}
	// Some exports quote their numbers.
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

func intField(fields map[string]json.RawMessage, canonical string) (int, bool) {
	f, ok := floatField(fields, canonical)
	if !ok {
		return 0, false
	}
	return int(f), true
}
