// Package main is the entry point for Kassa, the cash desk bookkeeping
// service for a currency exchange office. It wires the SQLite ledger,
// the Telegram bot, the HTTP API and the nightly backup job, then runs
// until stopped.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/kassaflow/kassa/internal/ai"
	"github.com/kassaflow/kassa/internal/auth"
	"github.com/kassaflow/kassa/internal/bot"
	"github.com/kassaflow/kassa/internal/config"
	"github.com/kassaflow/kassa/internal/database"
	"github.com/kassaflow/kassa/internal/modules/backup"
	"github.com/kassaflow/kassa/internal/modules/clients"
	"github.com/kassaflow/kassa/internal/modules/currencies"
	"github.com/kassaflow/kassa/internal/modules/entries"
	"github.com/kassaflow/kassa/internal/modules/reports"
	"github.com/kassaflow/kassa/internal/modules/transactions"
	"github.com/kassaflow/kassa/internal/scheduler"
	"github.com/kassaflow/kassa/internal/server"
	"github.com/kassaflow/kassa/pkg/logger"
)

func main() {
	// Load configuration first to get log level
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty,
	})

	log.Info().Str("timezone", cfg.Timezone).Str("base_currency", cfg.BaseCurrencyCode).Msg("Starting Kassa")

	if cfg.TelegramBotToken == "" {
		log.Fatal().Msg("TELEGRAM_BOT_TOKEN is required")
	}

	ids, err := auth.ParseAllowedIDs(cfg.AllowedTelegramIDs)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to parse ALLOWED_TELEGRAM_IDS")
	}
	whitelist := auth.NewWhitelist(ids)
	if whitelist.Empty() {
		log.Warn().Msg("ALLOWED_TELEGRAM_IDS is empty, everyone may use the bot")
	}

	// Single ledger database; every module migrates its own schema.
	db, err := database.New(database.Config{
		Path:    cfg.DatabasePath,
		Profile: database.ProfileLedger,
		Name:    "kassa",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	if err := db.Migrate(currencies.Schema, clients.Schema, entries.Schema, transactions.Schema, bot.Schema); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate database")
	}

	// Repositories and services
	currencyRepo := currencies.NewRepository(db.Conn(), log)
	clientRepo := clients.NewRepository(db.Conn(), log)
	entryRepo := entries.NewRepository(db.Conn(), log)
	txRepo := transactions.NewRepository(db.Conn(), log)

	entryService := entries.NewService(entryRepo, cfg.BaseCurrencyCode, cfg.Location, log)
	txService := transactions.NewService(txRepo, currencyRepo, clientRepo, cfg.BaseCurrencyCode, log)
	reportService := reports.NewService(txService, entryService, cfg.BaseCurrencyCode, cfg.Location, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The AI provider is optional: without one the bot still records
	// entries through the fixed parsing rules.
	var parser *ai.Parser
	var chat *ai.Chat
	if cfg.AIAPIKey != "" || cfg.AIProvider == "local" || cfg.AIProvider == "google" {
		provider, err := ai.NewProvider(ctx, cfg.AIProvider, cfg.AIAPIKey, cfg.AIModel, cfg.AIBaseURL)
		if err != nil {
			log.Warn().Err(err).Msg("AI provider unavailable, entry parsing falls back to fixed rules")
		} else {
			parser = ai.NewParser(provider, log)
			chat = ai.NewChat(provider, entryService, entryService, cfg.Location, log)
			log.Info().Str("provider", provider.Name()).Str("model", cfg.AIModel).Msg("AI provider configured")
		}
	} else {
		log.Warn().Msg("AI_API_KEY not set, entry parsing falls back to fixed rules")
	}

	// Telegram bot
	tgBot, err := bot.New(cfg.TelegramBotToken, bot.Deps{
		Sessions:  bot.NewSessionStore(db.Conn(), log),
		Entries:   entryService,
		Reports:   reportService,
		Whitelist: whitelist,
		Parser:    parser,
		Chat:      chat,
		Location:  cfg.Location,
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Telegram bot")
	}

	// Backups go to disk always, to the owner's chat and S3 when
	// configured.
	var uploader backup.Uploader
	if cfg.BackupS3Bucket != "" {
		s3Uploader, err := backup.NewS3Uploader(ctx, backup.S3Config{
			Bucket:          cfg.BackupS3Bucket,
			Region:          cfg.AWSRegion,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		}, log)
		if err != nil {
			log.Warn().Err(err).Msg("S3 uploader unavailable, backups stay local")
		} else {
			uploader = s3Uploader
		}
	}

	backupService := backup.NewService(entryService, reportService, backup.Config{
		Dir:      cfg.BackupsDir,
		Location: cfg.Location,
		OwnerID:  whitelist.OwnerID(),
		Sender:   tgBot,
		Uploader: uploader,
	}, log)

	// Scheduler with the nightly backup job, in office time.
	sched := scheduler.New(cfg.Location, log)
	backupSpec := fmt.Sprintf("0 %d %d * * *", cfg.BackupMinute, cfg.BackupHour)
	if err := sched.AddJob(backupSpec, backup.NewDailyJob(backupService, cfg.Location)); err != nil {
		log.Fatal().Err(err).Msg("Failed to schedule backup job")
	}

	// HTTP server
	srv := server.New(server.Config{
		Log:          log,
		DB:           db,
		Config:       cfg,
		Whitelist:    whitelist,
		Currencies:   currencies.NewHandler(currencyRepo, log),
		Entries:      entries.NewHandler(entryService, log),
		Transactions: transactions.NewHandler(txService, log),
		Reports:      reports.NewHandler(reportService, log),
		Backup:       backup.NewHandler(backupService, cfg.Location, log),
		JobNames:     sched.JobNames,
	})

	tgBot.Start()
	sched.Start()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()
	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	sched.Stop()
	tgBot.Stop()

	if err := db.WALCheckpoint("TRUNCATE"); err != nil {
		log.Warn().Err(err).Msg("WAL checkpoint failed")
	}
	if err := db.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close database")
	}

	log.Info().Msg("Kassa stopped")
}
