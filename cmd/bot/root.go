package main

import (
	"net/http"

	"github.com/spf13/cobra"

	"product_registration_bot/internal/infra/config"
	idb "product_registration_bot/internal/infra/database"
	"product_registration_bot/internal/infra/logger"
	"product_registration_bot/internal/infra/registry"
)

var rootCmd = &cobra.Command{
	Use:   "regbot",
	Short: "Product registration and warranty lookup bot",
	Long: `Telegram bot for registering products against the registry backend and
looking up warranty coverage of past registrations.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd, lookupCmd, migrateCmd)
}

// newRegistryAPI builds the backend client shared by all commands.
func newRegistryAPI(cfg *config.AppConfig) (*registry.API, error) {
	client := registry.NewClient(
		cfg.RegistryToken,
		logger.Component("registry"),
		registry.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
	)
	return registry.NewAPI(client, cfg.RegistryAPIURL, registry.DefaultPolicies(), logger.Component("registry_api"))
}

func journalPool(cfg *config.AppConfig) idb.PoolOptions {
	return idb.PoolOptions{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
	}
}
