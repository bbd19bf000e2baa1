// GreenRec - Sustainability-Scored Recipe Recommendation Study
// Copyright 2026 GreenRec contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/greenrec/greenrec

package api

import (
	"context"
	"io"
	"net/http"

	"github.com/greenrec/greenrec/internal/corpus"
	"github.com/greenrec/greenrec/internal/export"
	"github.com/greenrec/greenrec/internal/logging"
	"github.com/greenrec/greenrec/internal/metrics"
)

// handleStats serves the researcher-facing study report.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	report, err := s.analytics.BuildReport(r.Context())
	if err != nil {
		internalError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, report)
}

// exportFn streams one dataset in the chosen format.
type exportFn func(ctx context.Context, w io.Writer, f export.Format) error

func (s *Server) handleExport(name string, fn exportFn) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		format, err := export.ParseFormat(r.URL.Query().Get("format"))
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "invalid_format", err.Error())
			return
		}

		w.Header().Set("Content-Type", format.ContentType())
		w.Header().Set("Content-Disposition", `attachment; filename="greenrec_`+name+`.`+string(format)+`"`)
		if err := fn(r.Context(), w, format); err != nil {
			// Headers are gone; log and cut the stream.
			logging.Ctx(r.Context()).Error().Err(err).Str("export", name).Msg("export failed mid-stream")
		}
	}
}

// handleReload re-reads the corpus from disk and rebuilds the similarity
// index without a restart.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	recipes, err := corpus.Load(s.cfg.Corpus.Paths)
	if err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, "corpus_unusable", err.Error())
		return
	}
	if err := s.engine.Reload(recipes); err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, "corpus_unusable", err.Error())
		return
	}

	metrics.CorpusSize.Set(float64(len(recipes)))
	writeJSON(w, r, http.StatusOK, map[string]int{"recipes": len(recipes)})
}

// handleHealthLive reports process liveness.
func (s *Server) handleHealthLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// handleHealthReady reports readiness: database reachable, corpus loaded.
func (s *Server) handleHealthReady(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Ping(r.Context()); err != nil {
		writeError(w, r, http.StatusServiceUnavailable, "database_unavailable", "database not reachable")
		return
	}
	if s.engine.CorpusSize() == 0 {
		writeError(w, r, http.StatusServiceUnavailable, "corpus_empty", "no recipes loaded")
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ready"})
}
