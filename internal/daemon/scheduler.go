package daemon

import (
	"context"
	"log/slog"
	"time"

	"printq/internal/export"
	"printq/internal/logging"
)

// runRetentionLoop runs periodic cleanup passes until the context is done.
// The first pass runs shortly after startup so a daemon that was down over a
// scheduled window catches up quickly.
func (d *Daemon) runRetentionLoop(ctx context.Context) {
	defer d.wg.Done()

	interval := time.Duration(d.cfg.Scheduler.CleanupIntervalHours) * time.Hour
	logger := logging.NewComponentLogger(d.logger, "retention")

	startupDelay := time.NewTimer(time.Minute)
	defer startupDelay.Stop()
	select {
	case <-ctx.Done():
		return
	case <-startupDelay.C:
	}
	d.cleanupPass(ctx, logger)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.cleanupPass(ctx, logger)
		}
	}
}

func (d *Daemon) cleanupPass(ctx context.Context, logger *slog.Logger) {
	result, err := d.RunCleanup(ctx)
	if err != nil {
		logger.Error("scheduled cleanup failed", logging.Error(err))
		if notifyErr := d.notifier.NotifyError(ctx, err, "scheduled cleanup"); notifyErr != nil {
			d.logger.Warn("error notification failed", logging.Error(notifyErr))
		}
		return
	}
	logger.Info("cleanup pass completed",
		logging.Int("archived", result.Archived),
		logging.Int("purged", result.Purged))
}

// runBackupLoop writes periodic CSV snapshots of both collections and rotates
// old backups out of the export directory.
func (d *Daemon) runBackupLoop(ctx context.Context) {
	defer d.wg.Done()

	interval := time.Duration(d.cfg.Scheduler.BackupIntervalHours) * time.Hour
	logger := logging.NewComponentLogger(d.logger, "backup")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := d.RunBackup(); err != nil {
				logger.Error("scheduled backup failed", logging.Error(err))
				if notifyErr := d.notifier.NotifyError(ctx, err, "scheduled backup"); notifyErr != nil {
					d.logger.Warn("error notification failed", logging.Error(notifyErr))
				}
			}
		}
	}
}

// RunBackup writes a CSV snapshot of both collections immediately.
func (d *Daemon) RunBackup() error {
	snapshot := append(d.store.ListActive(), d.store.ListArchived()...)
	now := time.Now().UTC()

	path, err := export.WriteBackup(d.cfg.Paths.ExportDir, snapshot, now)
	if err != nil {
		return err
	}
	d.metrics.observeBackup()

	retainFor := time.Duration(d.cfg.Retention.BackupRetentionDays) * 24 * time.Hour
	removed, err := export.RemoveOldBackups(d.cfg.Paths.ExportDir, retainFor, now)
	if err != nil {
		d.logger.Warn("backup rotation failed", logging.Error(err))
	}
	d.logger.Info("backup written",
		logging.String("path", path),
		logging.Int("requests", len(snapshot)),
		logging.Int("rotated", removed))
	return nil
}
