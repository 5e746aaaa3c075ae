package core

// scheduler.go runs background maintenance.
//
// The only job today purges audit entries older than the retention
// window. It runs once at start and then on every tick until ctx ends.
// A failed run is logged and retried on the next tick.

import (
	"context"
	"log/slog"
	"time"
)

// RetentionConfig holds configuration for the audit retention job.
type RetentionConfig struct {
	RetentionDays int           // entries older than this are purged (default: 365)
	CheckInterval time.Duration // how often to run (default: 24h)
}

func (c RetentionConfig) withDefaults() RetentionConfig {
	if c.RetentionDays <= 0 {
		c.RetentionDays = 365
	}
	if c.CheckInterval <= 0 {
		c.CheckInterval = 24 * time.Hour
	}
	return c
}

// StartRetentionScheduler blocks, purging old audit entries periodically.
// Run it in its own goroutine.
func (s *Service) StartRetentionScheduler(ctx context.Context, cfg RetentionConfig) {
	cfg = cfg.withDefaults()
	slog.Info("retention scheduler started",
		"retention_days", cfg.RetentionDays,
		"interval", cfg.CheckInterval.String(),
	)

	s.runRetentionJob(ctx, cfg)

	ticker := time.NewTicker(cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("retention scheduler stopped")
			return
		case <-ticker.C:
			s.runRetentionJob(ctx, cfg)
		}
	}
}

func (s *Service) runRetentionJob(ctx context.Context, cfg RetentionConfig) {
	start := time.Now()
	purged, err := s.PurgeAuditLog(ctx, cfg.RetentionDays)
	if err != nil {
		slog.Error("audit purge failed", "error", err)
		return
	}
	slog.Info("audit purge completed",
		"entries_purged", purged,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

// PurgeAuditLog deletes audit entries older than daysToKeep days.
func (s *Service) PurgeAuditLog(ctx context.Context, daysToKeep int) (int64, error) {
	cutoff := s.now().AddDate(0, 0, -daysToKeep)
	n, err := s.store.PurgeAudit(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.LogAudit(ctx, AuditLogParams{Action: ActionAuditPurge, Entity: "audit_log", RowsAffected: int(n)})
	}
	return n, nil
}
