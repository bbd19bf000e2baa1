// GreenRec - Sustainability-Scored Recipe Recommendation Study
// Copyright 2026 GreenRec contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/greenrec/greenrec

// Package api exposes the GreenRec HTTP surface: participant auth, the
// per-round recommendation flow, researcher statistics, data export, and
// operational endpoints.
package api

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/greenrec/greenrec/internal/analytics"
	"github.com/greenrec/greenrec/internal/auth"
	"github.com/greenrec/greenrec/internal/config"
	"github.com/greenrec/greenrec/internal/database"
	"github.com/greenrec/greenrec/internal/export"
	"github.com/greenrec/greenrec/internal/logging"
	"github.com/greenrec/greenrec/internal/recommend"
)

// Server holds the handler dependencies.
type Server struct {
	cfg       *config.Config
	db        *database.DB
	auth      *auth.Service
	engine    *recommend.Engine
	analytics *analytics.Service
	export    *export.Service
	validate  *validator.Validate
}

// NewServer wires the handlers.
func NewServer(cfg *config.Config, db *database.DB, authSvc *auth.Service, engine *recommend.Engine, analyticsSvc *analytics.Service, exportSvc *export.Service) *Server {
	return &Server{
		cfg:       cfg,
		db:        db,
		auth:      authSvc,
		engine:    engine,
		analytics: analyticsSvc,
		export:    exportSvc,
		validate:  validator.New(),
	}
}

// writeStudyError maps engine and auth errors onto HTTP statuses with
// stable machine-readable codes.
func writeStudyError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, recommend.ErrStudyComplete):
		writeError(w, r, http.StatusConflict, "study_complete", "the study is already complete for this user")
	case errors.Is(err, recommend.ErrNotEnoughRatings):
		writeError(w, r, http.StatusConflict, "not_enough_ratings", err.Error())
	case errors.Is(err, recommend.ErrUnknownRecipe):
		writeError(w, r, http.StatusNotFound, "unknown_recipe", "recipe not found")
	case errors.Is(err, recommend.ErrInvalidRating):
		writeError(w, r, http.StatusBadRequest, "invalid_rating", err.Error())
	case errors.Is(err, recommend.ErrRecipeNotShown):
		writeError(w, r, http.StatusBadRequest, "recipe_not_shown", "recipe is not part of your current batch")
	case errors.Is(err, recommend.ErrNoCandidates):
		writeError(w, r, http.StatusConflict, "no_candidates", "no unseen recipes left to recommend")
	default:
		internalError(w, r, err)
	}
}

func internalError(w http.ResponseWriter, r *http.Request, err error) {
	// Internal details stay in the log, not the response.
	logging.Ctx(r.Context()).Error().Err(err).Msg("request failed")
	writeError(w, r, http.StatusInternalServerError, "internal_error", "internal server error")
}

func unauthorized(w http.ResponseWriter, r *http.Request, err error) {
	code := "unauthorized"
	if errors.Is(err, auth.ErrSessionRevoked) {
		code = "session_revoked"
	}
	writeError(w, r, http.StatusUnauthorized, code, "authentication required")
}

func forbidden(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, http.StatusForbidden, "forbidden", "admin access required")
}
