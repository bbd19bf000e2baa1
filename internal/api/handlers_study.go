// GreenRec - Sustainability-Scored Recipe Recommendation Study
// Copyright 2026 GreenRec contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/greenrec/greenrec

package api

import (
	"net/http"

	"github.com/greenrec/greenrec/internal/auth"
	"github.com/greenrec/greenrec/internal/metrics"
	"github.com/greenrec/greenrec/internal/models"
)

// participant extracts the authenticated study participant. Admin tokens
// carry no participant record and are rejected here.
func participant(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusForbidden, "participant_required", "this endpoint is for study participants")
		return nil, false
	}
	return user, true
}

// handleRecommend serves the current round's batch with arm-appropriate
// disclosure.
func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	user, ok := participant(w, r)
	if !ok {
		return
	}

	batch, err := s.engine.Recommend(r.Context(), user)
	if err != nil {
		writeStudyError(w, r, err)
		return
	}

	metrics.RecommendationsTotal.WithLabelValues(user.Group.String()).Inc()
	writeJSON(w, r, http.StatusOK, batch)
}

type rateRequest struct {
	RecipeID int `json:"recipe_id" validate:"required,min=1"`
	Rating   int `json:"rating" validate:"required,min=1,max=5"`
}

// handleRate stores one rating against the server-held round and returns
// the updated round status.
func (s *Server) handleRate(w http.ResponseWriter, r *http.Request) {
	user, ok := participant(w, r)
	if !ok {
		return
	}

	var req rateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_body", "malformed request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	if err := s.engine.Rate(r.Context(), user, req.RecipeID, req.Rating); err != nil {
		writeStudyError(w, r, err)
		return
	}
	metrics.RatingsTotal.WithLabelValues(user.Group.String()).Inc()

	status, err := s.engine.Status(r.Context(), user.ID)
	if err != nil {
		internalError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, status)
}

// handleNextRound advances the round once the rating threshold is met.
func (s *Server) handleNextRound(w http.ResponseWriter, r *http.Request) {
	user, ok := participant(w, r)
	if !ok {
		return
	}

	status, err := s.engine.NextRound(r.Context(), user.ID)
	if err != nil {
		writeStudyError(w, r, err)
		return
	}

	metrics.RoundAdvancesTotal.Inc()
	if status.Completed {
		metrics.StudyCompletionsTotal.Inc()
	}
	writeJSON(w, r, http.StatusOK, status)
}

type choiceRequest struct {
	RecipeID int `json:"recipe_id" validate:"required,min=1"`
}

// handleChoice records a final selection.
func (s *Server) handleChoice(w http.ResponseWriter, r *http.Request) {
	user, ok := participant(w, r)
	if !ok {
		return
	}

	var req choiceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_body", "malformed request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	choice, err := s.engine.Choose(r.Context(), user, req.RecipeID)
	if err != nil {
		writeStudyError(w, r, err)
		return
	}

	metrics.ChoicesTotal.WithLabelValues(user.Group.String()).Inc()
	writeJSON(w, r, http.StatusCreated, choice)
}

// handleStatus reports the participant's round state machine position.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	user, ok := participant(w, r)
	if !ok {
		return
	}

	status, err := s.engine.Status(r.Context(), user.ID)
	if err != nil {
		internalError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, status)
}
