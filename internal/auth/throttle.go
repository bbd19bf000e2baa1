// GreenRec - Sustainability-Scored Recipe Recommendation Study
// Copyright 2026 GreenRec contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/greenrec/greenrec

package auth

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// LoginThrottle limits authentication attempts per username to slow
// credential stuffing. Defaults allow 5 attempts per 5 minutes.
type LoginThrottle struct {
	mu       sync.Mutex
	limiters map[string]*throttleEntry
	limit    rate.Limit
	burst    int
}

type throttleEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewLoginThrottle creates a throttle allowing burst attempts per window.
func NewLoginThrottle(burst int, window time.Duration) *LoginThrottle {
	if burst <= 0 {
		burst = 5
	}
	if window <= 0 {
		window = 5 * time.Minute
	}
	return &LoginThrottle{
		limiters: make(map[string]*throttleEntry),
		limit:    rate.Every(window / time.Duration(burst)),
		burst:    burst,
	}
}

// Allow reports whether another attempt for the key is permitted now.
func (t *LoginThrottle) Allow(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	entry, ok := t.limiters[key]
	if !ok {
		entry = &throttleEntry{limiter: rate.NewLimiter(t.limit, t.burst)}
		t.limiters[key] = entry
	}
	entry.lastSeen = now

	// Opportunistic cleanup keeps the map from growing unbounded.
	if len(t.limiters) > 10000 {
		for k, e := range t.limiters {
			if now.Sub(e.lastSeen) > time.Hour {
				delete(t.limiters, k)
			}
		}
	}

	return entry.limiter.Allow()
}
