// GreenRec - Sustainability-Scored Recipe Recommendation Study
// Copyright 2026 GreenRec contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/greenrec/greenrec

// Package auth implements participant registration and session management:
// bcrypt password storage, HS256 session tokens, a Badger-backed revocation
// store, and per-username login throttling.
package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/greenrec/greenrec/internal/experiment"
	"github.com/greenrec/greenrec/internal/logging"
	"github.com/greenrec/greenrec/internal/models"
)

var (
	// ErrInvalidCredentials covers unknown usernames and wrong passwords
	// alike, so login responses leak nothing about account existence.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrTooManyAttempts indicates the login throttle fired.
	ErrTooManyAttempts = errors.New("too many login attempts, try again later")

	// ErrInvalidUsername indicates a username outside the accepted format.
	ErrInvalidUsername = errors.New("username must be 3-32 characters of letters, digits, underscore or hyphen")

	// ErrWeakPassword indicates a password below the minimum length.
	ErrWeakPassword = errors.New("password must be at least 8 characters")

	// ErrUsernameTaken mirrors the storage error at the service boundary.
	ErrUsernameTaken = errors.New("username already taken")
)

var usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,32}$`)

// UserStore is the persistence surface the auth service needs.
type UserStore interface {
	CreateUser(ctx context.Context, username, passwordHash string, group models.ExperimentGroup) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByID(ctx context.Context, id int) (*models.User, error)
}

// Session is the result of a successful registration or login.
type Session struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Service wires registration, login, and logout together.
type Service struct {
	store    UserStore
	assigner *experiment.Assigner
	issuer   *TokenIssuer
	sessions *SessionStore
	throttle *LoginThrottle

	adminUsername string
	adminHash     string

	// taken mirrors database.ErrUsernameTaken without importing the
	// storage package here.
	taken error
}

// NewService creates the auth service. adminPassword is hashed once at
// startup; an empty admin username disables the admin account.
func NewService(store UserStore, assigner *experiment.Assigner, issuer *TokenIssuer, sessions *SessionStore, throttle *LoginThrottle, adminUsername, adminPassword string, takenErr error) (*Service, error) {
	s := &Service{
		store:         store,
		assigner:      assigner,
		issuer:        issuer,
		sessions:      sessions,
		throttle:      throttle,
		adminUsername: adminUsername,
		taken:         takenErr,
	}
	if adminUsername != "" {
		hash, err := HashPassword(adminPassword)
		if err != nil {
			return nil, fmt.Errorf("failed to hash admin password: %w", err)
		}
		s.adminHash = hash
	}
	return s, nil
}

// Register creates a participant, assigns the experiment arm, and opens a
// session. Group assignment is balanced and fixed for the account lifetime.
func (s *Service) Register(ctx context.Context, username, password string) (*Session, error) {
	if !usernameRe.MatchString(username) {
		return nil, ErrInvalidUsername
	}
	if len(password) < 8 {
		return nil, ErrWeakPassword
	}
	if username == s.adminUsername {
		return nil, ErrUsernameTaken
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	group, err := s.assigner.Assign(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.store.CreateUser(ctx, username, hash, group)
	if err != nil {
		if s.taken != nil && errors.Is(err, s.taken) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}

	logging.Info().
		Int("user_id", user.ID).
		Str("group", user.Group.String()).
		Msg("participant registered")

	return s.openSession(user.ID, user.Group.String(), RoleParticipant, user)
}

// Login authenticates a participant or the admin account and opens a session.
func (s *Service) Login(ctx context.Context, username, password string) (*Session, error) {
	if !s.throttle.Allow(username) {
		logging.Warn().Str("username", username).Msg("login throttled")
		return nil, ErrTooManyAttempts
	}

	if s.adminUsername != "" && username == s.adminUsername {
		if !CheckPassword(s.adminHash, password) {
			return nil, ErrInvalidCredentials
		}
		return s.openSession(0, "", RoleAdmin, nil)
	}

	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		// Burn comparable time on unknown usernames before answering.
		CheckPassword("$2a$12$000000000000000000000uGyUvPeuMZ87eBJCD1P5PdVmVtweWS6", password)
		return nil, ErrInvalidCredentials
	}
	if !CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	return s.openSession(user.ID, user.Group.String(), RoleParticipant, user)
}

// Logout revokes the session identified by the token's JTI.
func (s *Service) Logout(jti string) error {
	return s.sessions.Revoke(jti)
}

// Authenticate verifies a raw token, checks the revocation store, and loads
// the participant record. The returned user is nil for the admin account.
func (s *Service) Authenticate(ctx context.Context, tokenString string) (*Claims, *models.User, error) {
	claims, err := s.issuer.Verify(tokenString)
	if err != nil {
		return nil, nil, err
	}

	active, err := s.sessions.Active(claims.ID)
	if err != nil {
		return nil, nil, err
	}
	if !active {
		return nil, nil, ErrSessionRevoked
	}

	if claims.Role == RoleAdmin {
		return claims, nil, nil
	}

	userID, err := claims.UserID()
	if err != nil {
		return nil, nil, err
	}
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}
	return claims, user, nil
}

func (s *Service) openSession(userID int, group, role string, user *models.User) (*Session, error) {
	token, jti, err := s.issuer.Issue(userID, group, role)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Put(jti, userID, s.issuer.TTL()); err != nil {
		return nil, err
	}
	return &Session{Token: token, User: user}, nil
}
