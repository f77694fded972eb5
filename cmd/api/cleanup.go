package main

import (
	"context"
	"time"

	"lostfound/internal/database"
	"lostfound/internal/domain/notification"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newCleanupCommand(verbose *bool) *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "cleanup-notifications",
		Short: "removes read notifications past the retention window",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := bootstrap(*verbose)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			db, err := database.Connect(cfg.Database.DSN, database.Options{Logger: log})
			if err != nil {
				log.Error("db connect failed", zap.Error(err))
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
			defer cancel()

			deleted, err := notification.NewCleanupService(notification.NewRepository(db), log.Named("cleanup")).CleanupReadOlderThan(ctx, days)
			if err != nil {
				log.Error("notification cleanup failed", zap.Int("days", days), zap.Error(err))
				return err
			}
			log.Info("notification cleanup finished", zap.Int("days", days), zap.Int64("deleted", deleted))
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", notification.DefaultCleanupConfig().RetentionDays, "remove read notifications older than this many days")
	return cmd
}
