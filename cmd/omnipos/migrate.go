package main

import (
	"fmt"

	"github.com/fekuna/omnipos-backoffice/config"
	"github.com/fekuna/omnipos-backoffice/internal/pkg/database/postgres"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE:  runMigrate,
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg := config.LoadEnv()
	appLogger := newLogger(cfg)
	defer appLogger.Sync()

	db, err := postgres.NewPostgres(postgresConfig(cfg))
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close()

	applied, err := postgres.Migrate(cmd.Context(), db)
	if err != nil {
		return err
	}
	if len(applied) == 0 {
		appLogger.Info("Database is up to date")
		return nil
	}
	appLogger.Info("Migrations applied", zap.Strings("files", applied))
	return nil
}
