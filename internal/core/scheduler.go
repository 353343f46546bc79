package core

// scheduler.go provides periodic dataset reloads.
//
// A reload replaces the published dataset wholesale, so a scheduled reload
// is invisible to readers except for the new generation id. Failures are
// logged and the previous dataset keeps serving.

import (
	"context"
	"log/slog"
	"time"
)

// StartReloadScheduler reloads the session every interval until ctx is done.
// It does not load immediately; the caller performs the initial load.
// A non-positive interval disables the scheduler.
func (s *Session) StartReloadScheduler(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		slog.Debug("reload scheduler disabled")
		return
	}

	slog.Info("reload scheduler started", "interval", interval.String())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("reload scheduler stopped")
			return
		case <-ticker.C:
			s.runReloadJob(ctx)
		}
	}
}

// runReloadJob performs one scheduled reload.
func (s *Session) runReloadJob(ctx context.Context) {
	start := time.Now()
	if err := s.Reload(ctx); err != nil {
		slog.Error("scheduled reload failed",
			"source", s.source.Describe(),
			"error", err,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return
	}

	slog.Info("scheduled reload completed",
		"generation", s.Dataset().Generation,
		"records", s.Dataset().Len(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
