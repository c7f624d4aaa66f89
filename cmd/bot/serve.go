package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/telebot.v3"

	"product_registration_bot/internal/app"
	"product_registration_bot/internal/domain/registration"
	"product_registration_bot/internal/infra/config"
	idb "product_registration_bot/internal/infra/database"
	"product_registration_bot/internal/infra/logger"
	"product_registration_bot/internal/infra/scheduler"
	"product_registration_bot/internal/infra/telegram"
)

const catalogCacheTTL = 30 * time.Minute

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Telegram bot and maintenance jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve()
	},
}

func serve() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("could not load application configuration: %w", err)
	}
	logger.Init(cfg)
	mainLogger := logger.Component("main")
	mainLogger.WithFields(logrus.Fields{
		"log_level":   cfg.LogLevel,
		"environment": cfg.Environment,
		"admin_id":    cfg.AdminTelegramID,
	}).Info("Configuration loaded.")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	policy, err := config.LoadWarrantyPolicy(cfg.WarrantyPolicyFile, cfg.PromoHeadOfficeLink)
	if err != nil {
		return fmt.Errorf("could not load warranty policy: %w", err)
	}

	api, err := newRegistryAPI(cfg)
	if err != nil {
		return fmt.Errorf("could not create registry client: %w", err)
	}

	// The journal is optional; without a database submissions are only logged.
	var journal registration.Journal
	if cfg.DatabaseURL != "" {
		db, err := idb.OpenJournalDB(ctx, cfg.DatabaseURL, journalPool(cfg))
		if err != nil {
			return fmt.Errorf("could not connect to database: %w", err)
		}
		defer db.Close()
		journal = idb.NewPostgresJournalRepository(db)
		mainLogger.Info("Database connection established successfully.")
	} else {
		mainLogger.Warn("DATABASE_URL not set, submission journal disabled.")
	}

	pref := telebot.Settings{
		Token:  cfg.TelegramToken,
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c telebot.Context) { // Global error handler
			entry := logger.Component("telebot").WithError(err)
			if c != nil && c.Sender() != nil && c.Chat() != nil {
				entry = entry.WithFields(logrus.Fields{
					"sender_id": c.Sender().ID,
					"chat_id":   c.Chat().ID,
				})
			}
			entry.Error("Telegram handler error")
		},
	}
	bot, err := telebot.NewBot(pref)
	if err != nil {
		return fmt.Errorf("could not create Telegram bot: %w", err)
	}
	notifier := telegram.NewTelebotAdapter(bot)

	catalogService := app.NewCatalogService(api, catalogCacheTTL, logger.Component("catalog"))
	submissionService := app.NewSubmissionService(api, journal, notifier, cfg.AdminTelegramID, cfg.LookupURL, logger.Component("submission"))
	registrationService := app.NewRegistrationService(
		api,
		catalogService,
		app.NewSessionStore(cfg.SessionTTL),
		submissionService,
		logger.Component("registration"),
	)
	lookupService := app.NewLookupService(api, policy, logger.Component("lookup"))
	operatorService := app.NewOperatorService(journal, catalogService, cfg.AdminTelegramID)

	if _, err := catalogService.Load(ctx); err != nil {
		mainLogger.WithError(err).Warn("Initial catalog load failed, will retry on demand.")
	}

	botLogger := logger.Component("bot")
	telegram.RegisterBotCommands(bot, operatorService, botLogger)
	telegram.RegisterOperatorHandlers(ctx, bot, operatorService, botLogger)
	telegram.NewLookupHandlers(lookupService, cfg.SessionTTL, botLogger).Register(ctx, bot)
	telegram.NewRegistrationHandlers(registrationService, cfg.LandingURL, cfg.SessionTTL, botLogger).Register(ctx, bot)
	mainLogger.Info("Telegram handlers registered.")

	maintenance := scheduler.NewMaintenanceScheduler(
		catalogService,
		journal,
		logger.Component("scheduler"),
		cfg.CronSpecCatalogRefresh,
		cfg.CronSpecJournalPrune,
		cfg.JournalRetentionDays,
	)
	if err := maintenance.Start(); err != nil {
		return err
	}

	mainLogger.Info("Application setup complete. Bot and Scheduler are starting...")

	// Start bot in a goroutine so it doesn't block graceful shutdown handling
	go bot.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	mainLogger.Info("Shutting down application...")
	cancel()
	bot.Stop()
	maintenance.Stop()
	mainLogger.Info("Application shut down gracefully.")
	return nil
}
