package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"product_registration_bot/internal/infra/config"
	idb "product_registration_bot/internal/infra/database"
	"product_registration_bot/internal/infra/logger"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply submission journal schema migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadRegistry()
		if err != nil {
			return fmt.Errorf("could not load application configuration: %w", err)
		}
		logger.Init(cfg)

		if cfg.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is not set")
		}

		db, err := idb.OpenJournalDB(cmd.Context(), cfg.DatabaseURL, journalPool(cfg))
		if err != nil {
			return fmt.Errorf("could not connect to database: %w", err)
		}
		defer db.Close()

		version, err := idb.Migrate(db)
		if err != nil {
			return err
		}
		logger.Log.WithField("version", version).Info("Database schema is up to date.")
		return nil
	},
}
