// GreenRec - Sustainability-Scored Recipe Recommendation Study
// Copyright 2026 GreenRec contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/greenrec/greenrec

// Package supervisor runs the server's long-lived services under a suture
// supervision tree: crashed services restart with backoff instead of taking
// the process down.
package supervisor

import (
	"context"
	"log/slog"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"
)

// Tree is the GreenRec supervision tree. It is flat: the HTTP server and
// the session-store maintenance loop sit directly under the root.
type Tree struct {
	root *suture.Supervisor
}

// New creates the tree. Restart parameters follow suture's defaults; events
// are logged through the given slog logger.
func New(logger *slog.Logger, shutdownTimeout time.Duration) *Tree {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	hook := (&sutureslog.Handler{Logger: logger}).MustHook()

	root := suture.New("greenrec", suture.Spec{
		EventHook:        hook,
		FailureThreshold: 5,
		FailureDecay:     30,
		FailureBackoff:   15 * time.Second,
		Timeout:          shutdownTimeout,
	})
	return &Tree{root: root}
}

// Add registers a service with the tree.
func (t *Tree) Add(svc suture.Service) {
	t.root.Add(svc)
}

// ServeBackground starts the tree; the returned channel yields the final
// error once the tree stops.
func (t *Tree) ServeBackground(ctx context.Context) <-chan error {
	return t.root.ServeBackground(ctx)
}
