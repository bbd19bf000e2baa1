// GreenRec - Sustainability-Scored Recipe Recommendation Study
// Copyright 2026 GreenRec contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/greenrec/greenrec

// Package similarity builds a TF-IDF vector index over recipe text and
// answers cosine-similarity queries against it.
//
// The index is built once at startup from the full corpus and is read-only
// afterwards; Build may be called again to swap in a fresh index atomically
// (the admin reload path). There is no incremental update.
package similarity

import (
	"errors"
	"math"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/greenrec/greenrec/internal/models"
)

var (
	// ErrEmptyCorpus indicates no recipe produced any usable text.
	ErrEmptyCorpus = errors.New("no usable recipe text to index")

	// ErrNotBuilt indicates a query arrived before Build succeeded.
	ErrNotBuilt = errors.New("similarity index not built")
)

// Config controls vectorization.
type Config struct {
	// MaxFeatures caps the vocabulary size; the most document-frequent terms
	// are kept. Zero means 5000.
	MaxFeatures int

	// NgramMin and NgramMax bound the token n-gram range. Zero values mean
	// unigrams and bigrams (1, 2).
	NgramMin int
	NgramMax int
}

// Vector is a sparse, L2-normalized TF-IDF vector keyed by vocabulary index.
type Vector map[int]float64

// Neighbor is one nearest-neighbour result.
type Neighbor struct {
	RecipeID   int
	Similarity float64
}

// Index holds the built model. Queries take the read lock only; Build swaps
// the entire state under the write lock, so concurrent reads never observe a
// partially built index.
type Index struct {
	cfg Config

	mu      sync.RWMutex
	built   bool
	vocab   map[string]int
	idf     []float64
	vectors map[int]Vector
	ids     []int
}

// New creates an unbuilt index.
func New(cfg Config) *Index {
	if cfg.MaxFeatures <= 0 {
		cfg.MaxFeatures = 5000
	}
	if cfg.NgramMin <= 0 {
		cfg.NgramMin = 1
	}
	if cfg.NgramMax < cfg.NgramMin {
		cfg.NgramMax = 2
	}
	return &Index{cfg: cfg}
}

// Build vectorizes the corpus: lowercased word n-grams of ingredients and
// instructions, smoothed IDF, sublinear TF, L2 normalization. It replaces any
// previously built state.
func (ix *Index) Build(recipes []models.Recipe) error {
	docs := make(map[int][]string, len(recipes))
	for _, r := range recipes {
		terms := tokenize(r.Ingredients+" "+r.Instructions, ix.cfg.NgramMin, ix.cfg.NgramMax)
		if len(terms) > 0 {
			docs[r.ID] = terms
		}
	}
	if len(docs) == 0 {
		// Drop any previous model so queries never run against a corpus the
		// vectors no longer describe.
		ix.mu.Lock()
		ix.vocab = nil
		ix.idf = nil
		ix.vectors = nil
		ix.ids = nil
		ix.built = false
		ix.mu.Unlock()
		return ErrEmptyCorpus
	}

	// Document frequency per term.
	df := make(map[string]int)
	for _, terms := range docs {
		seen := make(map[string]struct{}, len(terms))
		for _, t := range terms {
			if _, ok := seen[t]; !ok {
				seen[t] = struct{}{}
				df[t]++
			}
		}
	}

	vocab := buildVocab(df, ix.cfg.MaxFeatures)

	n := float64(len(docs))
	idf := make([]float64, len(vocab))
	for term, col := range vocab {
		// Smoothed IDF keeps every kept term's weight positive.
		idf[col] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}

	vectors := make(map[int]Vector, len(docs))
	ids := make([]int, 0, len(docs))
	for id, terms := range docs {
		v := vectorize(terms, vocab, idf)
		if len(v) == 0 {
			continue
		}
		vectors[id] = v
		ids = append(ids, id)
	}
	sort.Ints(ids)

	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.vocab = vocab
	ix.idf = idf
	ix.vectors = vectors
	ix.ids = ids
	ix.built = true
	return nil
}

// Built reports whether the index holds a usable model.
func (ix *Index) Built() bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.built
}

// Size returns the number of indexed recipes.
func (ix *Index) Size() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.vectors)
}

// Similarity returns the cosine similarity between two indexed recipes in
// [0, 1]. Unknown IDs score 0.
func (ix *Index) Similarity(a, b int) float64 {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if !ix.built {
		return 0
	}
	va, ok := ix.vectors[a]
	if !ok {
		return 0
	}
	vb, ok := ix.vectors[b]
	if !ok {
		return 0
	}
	return dot(va, vb)
}

// Vector returns the stored vector for a recipe.
func (ix *Index) Vector(id int) (Vector, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if !ix.built {
		return nil, false
	}
	v, ok := ix.vectors[id]
	return v, ok
}

// ProfileVector combines recipe vectors into a normalized user profile. The
// optional weights slice (parallel to ids) scales each contribution; missing
// or unknown recipes are skipped. Returns nil when nothing usable remains.
func (ix *Index) ProfileVector(ids []int, weights []float64) Vector {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if !ix.built {
		return nil
	}

	sum := make(Vector)
	for i, id := range ids {
		v, ok := ix.vectors[id]
		if !ok {
			continue
		}
		w := 1.0
		if i < len(weights) {
			w = weights[i]
		}
		if w <= 0 {
			continue
		}
		for col, val := range v {
			sum[col] += w * val
		}
	}
	if len(sum) == 0 {
		return nil
	}
	normalize(sum)
	return sum
}

// SimilarityTo returns the cosine similarity between a profile vector and an
// indexed recipe.
func (ix *Index) SimilarityTo(profile Vector, id int) float64 {
	if len(profile) == 0 {
		return 0
	}
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if !ix.built {
		return 0
	}
	v, ok := ix.vectors[id]
	if !ok {
		return 0
	}
	return dot(profile, v)
}

// TopK returns the k recipes most similar to the profile vector, excluding
// the given IDs. Ties break by ascending recipe ID for determinism.
func (ix *Index) TopK(profile Vector, k int, exclude map[int]struct{}) []Neighbor {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if !ix.built || len(profile) == 0 || k <= 0 {
		return nil
	}

	neighbors := make([]Neighbor, 0, len(ix.ids))
	for _, id := range ix.ids {
		if _, skip := exclude[id]; skip {
			continue
		}
		neighbors = append(neighbors, Neighbor{RecipeID: id, Similarity: dot(profile, ix.vectors[id])})
	}

	sort.SliceStable(neighbors, func(i, j int) bool {
		if neighbors[i].Similarity != neighbors[j].Similarity {
			return neighbors[i].Similarity > neighbors[j].Similarity
		}
		return neighbors[i].RecipeID < neighbors[j].RecipeID
	})

	if len(neighbors) > k {
		neighbors = neighbors[:k]
	}
	return neighbors
}

// tokenize splits text into lowercased word n-grams.
func tokenize(text string, ngramMin, ngramMax int) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(words) == 0 {
		return nil
	}

	terms := make([]string, 0, len(words)*(ngramMax-ngramMin+1))
	for n := ngramMin; n <= ngramMax; n++ {
		for i := 0; i+n <= len(words); i++ {
			terms = append(terms, strings.Join(words[i:i+n], " "))
		}
	}
	return terms
}

// buildVocab keeps the maxFeatures most document-frequent terms, ties broken
// alphabetically so builds are reproducible.
func buildVocab(df map[string]int, maxFeatures int) map[string]int {
	terms := make([]string, 0, len(df))
	for t := range df {
		terms = append(terms, t)
	}
	sort.Slice(terms, func(i, j int) bool {
		if df[terms[i]] != df[terms[j]] {
			return df[terms[i]] > df[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if len(terms) > maxFeatures {
		terms = terms[:maxFeatures]
	}

	vocab := make(map[string]int, len(terms))
	for i, t := range terms {
		vocab[t] = i
	}
	return vocab
}

// vectorize computes the normalized sublinear TF-IDF vector of one document.
func vectorize(terms []string, vocab map[string]int, idf []float64) Vector {
	counts := make(map[int]int)
	for _, t := range terms {
		if col, ok := vocab[t]; ok {
			counts[col]++
		}
	}
	if len(counts) == 0 {
		return nil
	}

	v := make(Vector, len(counts))
	for col, c := range counts {
		v[col] = (1 + math.Log(float64(c))) * idf[col]
	}
	normalize(v)
	return v
}

func normalize(v Vector) {
	var sum float64
	for _, val := range v {
		sum += val * val
	}
	if sum == 0 {
		return
	}
	norm := math.Sqrt(sum)
	for col := range v {
		v[col] /= norm
	}
}

// dot computes the inner product of two normalized sparse vectors, clamped
// to [0, 1] against floating point drift.
func dot(a, b Vector) float64 {
	if len(b) < len(a) {
		a, b = b, a
	}
	var sum float64
	for col, val := range a {
		if other, ok := b[col]; ok {
			sum += val * other
		}
	}
	if sum < 0 {
		return 0
	}
	if sum > 1 {
		return 1
	}
	return sum
}
