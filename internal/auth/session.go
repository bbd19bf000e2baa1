// GreenRec - Sustainability-Scored Recipe Recommendation Study
// Copyright 2026 GreenRec contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/greenrec/greenrec

package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	badger "github.com/dgraph-io/badger/v4"
)

// sessionKeyPrefix namespaces session entries in the store.
const sessionKeyPrefix = "session:"

// SessionStore tracks active sessions in Badger so logout can revoke a token
// before its expiry. Entries carry a TTL matching the token lifetime, so
// expired sessions vanish without explicit cleanup.
type SessionStore struct {
	db *badger.DB
}

// NewSessionStore opens (or creates) the Badger store at path. An empty path
// opens an in-memory store, used by tests.
func NewSessionStore(path string) (*SessionStore, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}
	return &SessionStore{db: db}, nil
}

// Close releases the underlying store.
func (s *SessionStore) Close() error {
	return s.db.Close()
}

// Put records an active session under its JTI.
func (s *SessionStore) Put(jti string, userID int, ttl time.Duration) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(sessionKeyPrefix+jti), []byte(strconv.Itoa(userID))).WithTTL(ttl)
		return txn.SetEntry(entry)
	})
	if err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

// Active reports whether the session is still valid (stored and not revoked).
func (s *SessionStore) Active(jti string) (bool, error) {
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(sessionKeyPrefix + jti))
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check session: %w", err)
	}
	return true, nil
}

// GC runs one round of Badger value-log garbage collection. A no-rewrite
// result is normal and not an error.
func (s *SessionStore) GC() error {
	err := s.db.RunValueLogGC(0.5)
	if err == nil || errors.Is(err, badger.ErrNoRewrite) {
		return nil
	}
	return fmt.Errorf("session store gc: %w", err)
}

// Revoke removes a session, invalidating its token immediately. Revoking an
// unknown JTI is not an error.
func (s *SessionStore) Revoke(jti string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(sessionKeyPrefix + jti))
	})
	if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}
