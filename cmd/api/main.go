package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"lostfound/internal/app"
	"lostfound/internal/config"
	"lostfound/internal/database"
	"lostfound/internal/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:           "lostfound",
		Short:         "Campus lost & found API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")

	cmd.AddCommand(
		newServeCommand(&verbose),
		newMigrateCommand(&verbose),
		newCleanupCommand(&verbose),
	)
	return cmd
}

func bootstrap(verbose bool) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("config: %w", err)
	}
	lc := logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: cfg.Log.Output}
	if verbose {
		lc.Level = "debug"
	}
	return cfg, logger.NewForEnvironment(cfg.App.Env, lc), nil
}

func newServeCommand(verbose *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "serves the HTTP and websocket API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := bootstrap(*verbose)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := app.New(ctx, cfg, log, app.Options{})
			if err != nil {
				log.Error("startup failed", zap.Error(err))
				return err
			}
			defer func() {
				if err := a.Close(); err != nil {
					log.Warn("close failed", zap.Error(err))
				}
			}()

			log.Info("starting lostfound",
				zap.String("env", cfg.App.Env),
				zap.String("port", cfg.App.Port),
				zap.Bool("redis", cfg.Redis.Enabled),
				zap.String("media_driver", cfg.Media.Driver),
				zap.Bool("atomic_fanout", cfg.Lifecycle.AtomicFanout),
			)
			return a.Run(ctx)
		},
	}
}

func newMigrateCommand(verbose *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "creates or updates the database schema",
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
			if err := app.Migrate(db); err != nil {
				log.Error("migration failed", zap.Error(err))
				return err
			}
			log.Info("migrations applied")
			return nil
		},
	}
}

