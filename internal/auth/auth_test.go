// GreenRec - Sustainability-Scored Recipe Recommendation Study
// Copyright 2026 GreenRec contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/greenrec/greenrec

package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/greenrec/greenrec/internal/experiment"
	"github.com/greenrec/greenrec/internal/models"
)

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if !CheckPassword(hash, "correct horse battery staple") {
		t.Error("correct password rejected")
	}
	if CheckPassword(hash, "wrong password") {
		t.Error("wrong password accepted")
	}

	if _, err := HashPassword(strings.Repeat("x", 80)); !errors.Is(err, ErrPasswordTooLong) {
		t.Errorf("oversized password: got %v, want ErrPasswordTooLong", err)
	}
}

func TestTokenIssueAndVerify(t *testing.T) {
	issuer := NewTokenIssuer(strings.Repeat("s", 32), time.Hour)

	token, jti, err := issuer.Issue(42, "B", RoleParticipant)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if jti == "" {
		t.Fatal("empty jti")
	}

	claims, err := issuer.Verify(token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if claims.ID != jti || claims.Group != "B" || claims.Role != RoleParticipant {
		t.Errorf("claims = %+v", claims)
	}
	id, err := claims.UserID()
	if err != nil || id != 42 {
		t.Errorf("UserID() = %d, %v", id, err)
	}
}

func TestTokenRejection(t *testing.T) {
	issuer := NewTokenIssuer(strings.Repeat("s", 32), time.Hour)
	other := NewTokenIssuer(strings.Repeat("t", 32), time.Hour)

	token, _, err := other.Issue(1, "A", RoleParticipant)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := issuer.Verify(token); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("foreign signature: got %v, want ErrTokenInvalid", err)
	}

	expired := NewTokenIssuer(strings.Repeat("s", 32), -time.Minute)
	token, _, err = expired.Issue(1, "A", RoleParticipant)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := issuer.Verify(token); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("expired token: got %v, want ErrTokenInvalid", err)
	}

	if _, err := issuer.Verify("not.a.token"); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("garbage token: got %v, want ErrTokenInvalid", err)
	}
}

func TestSessionStoreLifecycle(t *testing.T) {
	store, err := NewSessionStore("")
	if err != nil {
		t.Fatalf("failed to open in-memory store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	if err := store.Put("jti-1", 7, time.Hour); err != nil {
		t.Fatal(err)
	}

	active, err := store.Active("jti-1")
	if err != nil || !active {
		t.Errorf("Active = %v, %v, want true", active, err)
	}
	if active, _ := store.Active("jti-unknown"); active {
		t.Error("unknown jti reported active")
	}

	if err := store.Revoke("jti-1"); err != nil {
		t.Fatal(err)
	}
	if active, _ := store.Active("jti-1"); active {
		t.Error("revoked session still active")
	}

	// Revoking twice is fine.
	if err := store.Revoke("jti-1"); err != nil {
		t.Errorf("double revoke: %v", err)
	}
}

func TestLoginThrottle(t *testing.T) {
	throttle := NewLoginThrottle(3, time.Hour)

	for i := 0; i < 3; i++ {
		if !throttle.Allow("mallory") {
			t.Fatalf("attempt %d should pass", i+1)
		}
	}
	if throttle.Allow("mallory") {
		t.Error("fourth attempt should be throttled")
	}
	// Other keys are unaffected.
	if !throttle.Allow("alice") {
		t.Error("unrelated key throttled")
	}
}

// mockUserStore backs the service tests. It also serves as the assignment
// count source.
type mockUserStore struct {
	users  map[string]*models.User
	nextID int
}

func newMockUserStore() *mockUserStore {
	return &mockUserStore{users: make(map[string]*models.User), nextID: 1}
}

var errTaken = errors.New("taken")

func (m *mockUserStore) CreateUser(_ context.Context, username, hash string, group models.ExperimentGroup) (*models.User, error) {
	if _, ok := m.users[username]; ok {
		return nil, errTaken
	}
	u := &models.User{ID: m.nextID, Username: username, PasswordHash: hash, Group: group}
	m.nextID++
	m.users[username] = u
	return u, nil
}

func (m *mockUserStore) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	u, ok := m.users[username]
	if !ok {
		return nil, errors.New("not found")
	}
	return u, nil
}

func (m *mockUserStore) GetUserByID(_ context.Context, id int) (*models.User, error) {
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, errors.New("not found")
}

func (m *mockUserStore) GroupCounts(_ context.Context) (map[models.ExperimentGroup]int, error) {
	counts := map[models.ExperimentGroup]int{models.GroupA: 0, models.GroupB: 0, models.GroupC: 0}
	for _, u := range m.users {
		counts[u.Group]++
	}
	return counts, nil
}

func newTestService(t *testing.T, store *mockUserStore) *Service {
	t.Helper()
	sessions, err := NewSessionStore("")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = sessions.Close() })

	svc, err := NewService(
		store,
		experiment.NewAssigner(store),
		NewTokenIssuer(strings.Repeat("k", 32), time.Hour),
		sessions,
		NewLoginThrottle(5, time.Minute),
		"admin", "admin-secret-pw", errTaken,
	)
	if err != nil {
		t.Fatal(err)
	}
	return svc
}

func TestRegisterLoginLogout(t *testing.T) {
	store := newMockUserStore()
	svc := newTestService(t, store)
	ctx := context.Background()

	sess, err := svc.Register(ctx, "anna", "password123")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if sess.Token == "" || sess.User == nil {
		t.Fatalf("incomplete session: %+v", sess)
	}
	if sess.User.Group != models.GroupA {
		t.Errorf("first participant should land in arm A, got %v", sess.User.Group)
	}

	if _, err := svc.Register(ctx, "anna", "password456"); !errors.Is(err, ErrUsernameTaken) {
		t.Errorf("duplicate register: got %v", err)
	}
	if _, err := svc.Register(ctx, "x", "password123"); !errors.Is(err, ErrInvalidUsername) {
		t.Errorf("short username: got %v", err)
	}
	if _, err := svc.Register(ctx, "bela", "short"); !errors.Is(err, ErrWeakPassword) {
		t.Errorf("weak password: got %v", err)
	}
	if _, err := svc.Register(ctx, "admin", "password123"); !errors.Is(err, ErrUsernameTaken) {
		t.Errorf("admin username must be reserved: got %v", err)
	}

	login, err := svc.Login(ctx, "anna", "password123")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	claims, user, err := svc.Authenticate(ctx, login.Token)
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if user == nil || user.Username != "anna" || claims.Role != RoleParticipant {
		t.Errorf("authenticate: claims %+v user %+v", claims, user)
	}

	if _, err := svc.Login(ctx, "anna", "wrongpass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password: got %v", err)
	}
	if _, err := svc.Login(ctx, "nobody", "whatever1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown user: got %v", err)
	}

	if err := svc.Logout(claims.ID); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if _, _, err := svc.Authenticate(ctx, login.Token); !errors.Is(err, ErrSessionRevoked) {
		t.Errorf("after logout: got %v, want ErrSessionRevoked", err)
	}
}

func TestAdminLogin(t *testing.T) {
	svc := newTestService(t, newMockUserStore())
	ctx := context.Background()

	sess, err := svc.Login(ctx, "admin", "admin-secret-pw")
	if err != nil {
		t.Fatalf("admin login failed: %v", err)
	}
	claims, user, err := svc.Authenticate(ctx, sess.Token)
	if err != nil {
		t.Fatal(err)
	}
	if claims.Role != RoleAdmin || user != nil {
		t.Errorf("admin session: claims %+v user %+v", claims, user)
	}

	if _, err := svc.Login(ctx, "admin", "nope-nope"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong admin password: got %v", err)
	}
}
