package main

import (
	"fmt"

	"github.com/Meshack-Mesh/house-hunt-view/internal/config"
	"github.com/Meshack-Mesh/house-hunt-view/internal/storage/postgres"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the PostgreSQL schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig()

			db, err := postgres.NewDB(cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer db.Close()

			if err := db.Migrate(cmd.Context()); err != nil {
				return fmt.Errorf("failed to apply schema: %w", err)
			}

			logger.Info().Str("event", "schema_applied").Msg("Schema is up to date")
			return nil
		},
	}
}
