// GreenRec - Sustainability-Scored Recipe Recommendation Study
// Copyright 2026 GreenRec contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/greenrec/greenrec

package supervisor

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/greenrec/greenrec/internal/logging"
)

// HTTPService runs an *http.Server as a supervised service. A listener
// failure propagates to the supervisor; context cancellation triggers a
// graceful shutdown bounded by the timeout.
type HTTPService struct {
	server  *http.Server
	timeout time.Duration
}

// NewHTTPService wraps the server.
func NewHTTPService(server *http.Server, shutdownTimeout time.Duration) *HTTPService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &HTTPService{server: server, timeout: shutdownTimeout}
}

// Serve implements suture.Service.
func (s *HTTPService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		logging.Warn().Err(err).Msg("forced HTTP server shutdown")
		_ = s.server.Close()
	}
	<-errCh
	return ctx.Err()
}

func (s *HTTPService) String() string { return "http-server" }

// PeriodicService runs a task on a fixed interval until the context is
// canceled. Task errors are logged, not fatal.
type PeriodicService struct {
	name     string
	interval time.Duration
	task     func(ctx context.Context) error
}

// NewPeriodicService creates a ticker-driven service.
func NewPeriodicService(name string, interval time.Duration, task func(ctx context.Context) error) *PeriodicService {
	return &PeriodicService{name: name, interval: interval, task: task}
}

// Serve implements suture.Service.
func (s *PeriodicService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.task(ctx); err != nil {
				logging.Warn().Err(err).Str("service", s.name).Msg("periodic task failed")
			}
		}
	}
}

func (s *PeriodicService) String() string { return s.name }
