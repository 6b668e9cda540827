package core

// scheduler.go runs periodic audit log maintenance:
//  1. Move old entries from audit_log to audit_log_archive (hot -> cold)
//  2. Purge very old entries from the archive based on retention policy
//
// Every import writes one audit entry per stored record, so the hot table
// grows with import volume. A failed cycle is logged and retried on the next
// tick.

import (
	"context"
	"log/slog"
	"time"
)

// ArchiveConfig holds configuration for the archive scheduler.
type ArchiveConfig struct {
	HotRetentionDays      int           // Days to keep in audit_log (default: 90)
	ArchiveRetentionYears int           // Years to keep in archive (default: 7)
	BatchSize             int           // Rows per archive pass (default: 5000)
	CheckInterval         time.Duration // How often to run (default: 24h)
}

func (c ArchiveConfig) withDefaults() ArchiveConfig {
	if c.HotRetentionDays <= 0 {
		c.HotRetentionDays = 90
	}
	if c.ArchiveRetentionYears <= 0 {
		c.ArchiveRetentionYears = 7
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 5000
	}
	if c.CheckInterval <= 0 {
		c.CheckInterval = 24 * time.Hour
	}
	return c
}

// auditArchiver is the part of AuditService the scheduler drives.
type auditArchiver interface {
	ArchiveOldAuditLogs(ctx context.Context, daysToKeep, batchSize int) (int64, error)
	PurgeOldArchives(ctx context.Context, yearsToKeep int) (int64, error)
}

// StartArchiveScheduler archives old audit entries and purges very old
// archives. It runs once immediately, then every CheckInterval, and returns
// when ctx is cancelled.
func (s *Service) StartArchiveScheduler(ctx context.Context, cfg ArchiveConfig) {
	runArchiveScheduler(ctx, s.audit, cfg)
}

func runArchiveScheduler(ctx context.Context, a auditArchiver, cfg ArchiveConfig) {
	cfg = cfg.withDefaults()
	slog.Info("archive scheduler started",
		"hot_retention_days", cfg.HotRetentionDays,
		"archive_retention_years", cfg.ArchiveRetentionYears,
		"batch_size", cfg.BatchSize,
	)

	runArchiveJob(ctx, a, cfg)

	ticker := time.NewTicker(cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("archive scheduler stopped")
			return
		case <-ticker.C:
			runArchiveJob(ctx, a, cfg)
		}
	}
}

// runArchiveJob performs one archive + purge cycle.
func runArchiveJob(ctx context.Context, a auditArchiver, cfg ArchiveConfig) {
	start := time.Now()

	archived, err := a.ArchiveOldAuditLogs(ctx, cfg.HotRetentionDays, cfg.BatchSize)
	if err != nil {
		slog.Error("archive failed", "error", err)
	} else {
		slog.Info("archived audit log entries",
			"entries_archived", archived,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}

	purgeStart := time.Now()
	purged, err := a.PurgeOldArchives(ctx, cfg.ArchiveRetentionYears)
	if err != nil {
		slog.Error("purge failed", "error", err)
	} else {
		slog.Info("purged old archive entries",
			"entries_purged", purged,
			"duration_ms", time.Since(purgeStart).Milliseconds(),
		)
	}

	slog.Info("archive job completed", "duration_ms", time.Since(start).Milliseconds())
}
