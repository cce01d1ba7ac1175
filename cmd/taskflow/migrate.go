package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Strob0t/TaskFlow/internal/adapter/postgres"
	"github.com/Strob0t/TaskFlow/internal/config"
	"github.com/Strob0t/TaskFlow/internal/logger"
)

func newMigrateCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the PostgreSQL schema of the postgres backend",
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := migrateConfig(cmd, g)
			if err != nil {
				return err
			}
			if err := postgres.RollbackMigrations(cmd.Context(), cfg.Postgres.DSN, steps); err != nil {
				return err
			}
			slog.Info("migrations rolled back", "steps", steps)
			return nil
		},
	}
	down.Flags().IntVarP(&steps, "steps", "n", 1, "number of migrations to roll back")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, err := migrateConfig(cmd, g)
				if err != nil {
					return err
				}
				if err := postgres.RunMigrations(cmd.Context(), cfg.Postgres.DSN); err != nil {
					return err
				}
				slog.Info("migrations applied")
				return nil
			},
		},
		down,
		&cobra.Command{
			Use:   "status",
			Short: "Print the current schema version",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, err := migrateConfig(cmd, g)
				if err != nil {
					return err
				}
				v, err := postgres.MigrationVersion(cmd.Context(), cfg.Postgres.DSN)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", v)
				return err
			},
		},
	)
	return cmd
}

// migrateConfig loads configuration for the migrate commands, which only
// need a DSN and do not require the postgres backend to be selected.
func migrateConfig(cmd *cobra.Command, g *globalFlags) (*config.Config, error) {
	cfg, err := config.LoadWithOverrides(g.overrides(cmd))
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	log, _ := logger.New(config.Logging{Level: cfg.Logging.Level, Service: cfg.Logging.Service}, os.Stderr)
	slog.SetDefault(log)

	if cfg.Postgres.DSN == "" {
		return nil, errors.New("postgres.dsn (or DATABASE_URL) is required")
	}
	return cfg, nil
}
