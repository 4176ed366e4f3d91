package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"app/internal/api"
	"app/internal/bot"
	"app/internal/config"
	"app/internal/jobcache"
	"app/internal/logger"
	"app/internal/pipeline"
	"app/internal/quota"
	"app/internal/repository"
	"app/internal/service"
	"app/internal/telegram"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	logger := logger.New()

	// 1. Load configuration
	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("Warning: no .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Msgf("Error loading config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Connect to the database and prepare the ledger
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		logger.Fatal().Msgf("Failed to create DB pool: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Fatal().Msgf("Failed to ping DB: %v", err)
	}
	logger.Info().Msg("Database connection successful")

	ledger := repository.NewLedgerRepo(pool, logger)
	if err := ledger.InitSchema(ctx); err != nil {
		logger.Fatal().Msgf("Failed to initialize schema: %v", err)
	}

	// 3. Build the processing pipeline
	policy := quota.NewPolicy(cfg.DailyBudgetSeconds)
	cache := jobcache.New(time.Duration(cfg.JobTTLSec)*time.Second, logger)

	converter := service.NewFFmpegConverter(cfg.FFmpegPath, logger)
	transcriber := service.NewWhisperTranscriber(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL,
		time.Duration(cfg.ProviderTimeoutSec)*time.Second, logger)
	generator := service.NewChatGenerator(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL,
		time.Duration(cfg.ProviderTimeoutSec)*time.Second, logger)

	tg := telegram.NewClient(cfg.TelegramBotToken, cfg.TelegramAPIURL, logger)
	messenger := bot.NewMessenger(tg)

	pipe := pipeline.New(ledger, policy, cache, converter, transcriber, generator, messenger, pipeline.Options{
		TempDir:         cfg.TempDir,
		DownloadTimeout: time.Duration(cfg.DownloadTimeoutSec) * time.Second,
		ConvertTimeout:  time.Duration(cfg.ConvertTimeoutSec) * time.Second,
		ProviderTimeout: time.Duration(cfg.ProviderTimeoutSec) * time.Second,
	}, logger)

	b := bot.New(tg, pipe, ledger, policy, cfg.AdminUserID, logger)

	// 4. Start the ops HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.OpsPort,
		Handler:      api.NewRouter(ledger, logger),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		logger.Info().Msgf("🚀 Ops server starting on port %s", cfg.OpsPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Msgf("Listen: %s\n", err)
		}
	}()

	// 5. Poll for updates until a shutdown signal arrives
	poller := telegram.NewPoller(tg, cfg.PollTimeoutSec, logger)
	logger.Info().Msg("🤖 Bot polling for updates")
	if err := poller.Run(ctx, b.HandleUpdate); err != nil {
		logger.Error().Err(err).Msg("Poller stopped with error")
	}

	logger.Info().Msg("Shutdown signal received, exiting...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Msgf("Server forced to shutdown: %v", err)
	}
	logger.Info().Msg("Server shut down gracefully")
}
