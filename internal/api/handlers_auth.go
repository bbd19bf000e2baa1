// GreenRec - Sustainability-Scored Recipe Recommendation Study
// Copyright 2026 GreenRec contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/greenrec/greenrec

package api

import (
	"errors"
	"net/http"

	"github.com/greenrec/greenrec/internal/auth"
	"github.com/greenrec/greenrec/internal/metrics"
)

type credentialsRequest struct {
	Username string `json:"username" validate:"required,min=3,max=32"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// handleRegister creates a participant account, assigns the experiment arm,
// and returns a session token.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_body", "malformed request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	sess, err := s.auth.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		writeAuthError(w, r, err)
		return
	}

	metrics.RegistrationsTotal.WithLabelValues(sess.User.Group.String()).Inc()
	writeJSON(w, r, http.StatusCreated, sess)
}

// handleLogin authenticates a participant or the admin account.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_body", "malformed request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}

	sess, err := s.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeAuthError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, sess)
}

// handleLogout revokes the current session.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		unauthorized(w, r, auth.ErrTokenInvalid)
		return
	}
	if err := s.auth.Logout(claims.ID); err != nil {
		internalError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "logged_out"})
}

func writeAuthError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, r, http.StatusUnauthorized, "invalid_credentials", err.Error())
	case errors.Is(err, auth.ErrTooManyAttempts):
		writeError(w, r, http.StatusTooManyRequests, "too_many_attempts", err.Error())
	case errors.Is(err, auth.ErrUsernameTaken):
		writeError(w, r, http.StatusConflict, "username_taken", err.Error())
	case errors.Is(err, auth.ErrInvalidUsername), errors.Is(err, auth.ErrWeakPassword), errors.Is(err, auth.ErrPasswordTooLong):
		writeError(w, r, http.StatusBadRequest, "invalid_body", err.Error())
	default:
		internalError(w, r, err)
	}
}
