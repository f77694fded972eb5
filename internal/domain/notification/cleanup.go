package notification

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// CleanupService purges old read notifications.
type CleanupService struct {
	repo *Repository
	log  *zap.Logger
	now  func() time.Time
}

func NewCleanupService(repo *Repository, log *zap.Logger) *CleanupService {
	if log == nil {
		log = zap.NewNop()
	}
	return &CleanupService{
		repo: repo,
		log:  log,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// CleanupConfig holds configuration for cleanup runs
type CleanupConfig struct {
	RetentionDays int           // read notifications older than this are removed
	Interval      time.Duration // how often Schedule runs
}

func DefaultCleanupConfig() CleanupConfig {
	return CleanupConfig{
		RetentionDays: 90,
		Interval:      24 * time.Hour,
	}
}

// CleanupReadOlderThan removes read notifications older than daysToKeep days.
func (c *CleanupService) CleanupReadOlderThan(ctx context.Context, daysToKeep int) (int64, error) {
	start := time.Now()
	cutoff := c.now().Add(-time.Duration(daysToKeep) * 24 * time.Hour)

	deleted, err := c.repo.DeleteReadOlderThan(ctx, cutoff)
	if err != nil {
		c.log.Error("notification cleanup failed", zap.Error(err))
		return 0, err
	}

	c.log.Info("notification cleanup completed",
		zap.Int64("deleted", deleted),
		zap.Int("retention_days", daysToKeep),
		zap.Duration("took", time.Since(start)),
	)
	return deleted, nil
}

// Schedule runs cleanup every cfg.Interval until ctx ends.
func (c *CleanupService) Schedule(ctx context.Context, cfg CleanupConfig) {
	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	c.log.Info("scheduled notification cleanup started", zap.Duration("interval", cfg.Interval))
	for {
		select {
		case <-ctx.Done():
			c.log.Info("scheduled notification cleanup stopped")
			return
		case <-ticker.C:
			_, _ = c.CleanupReadOlderThan(ctx, cfg.RetentionDays)
		}
	}
}
