// Package main is the entry point for the Telegram Loto Bot.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"telegram-loto-bot/internal/bot"
	"telegram-loto-bot/internal/config"
	"telegram-loto-bot/internal/pkg/db"
	"telegram-loto-bot/internal/pkg/lock"
	"telegram-loto-bot/internal/repository"
	"telegram-loto-bot/internal/service"
)

func main() {
	// Configure zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load configuration
	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log.Info().Msg("Configuration loaded successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	dbPool, err := db.NewPool(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer dbPool.Close()

	// Run database migrations
	if err := runMigrations(ctx, dbPool); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	// Initialize repositories
	ledgerRepo := repository.NewLedgerRepository(dbPool.Pool, cfg.Ledger.DefaultBalance)
	txRepo := repository.NewTransactionRepository(dbPool.Pool)
	roundRepo := repository.NewRoundRepository(dbPool.Pool)
	statsRepo := repository.NewStatsRepository(dbPool.Pool)

	// Initialize services
	ledgerService := service.NewLedgerService(ledgerRepo, txRepo, cfg.Ledger.TopSize)
	statsService := service.NewStatsService(statsRepo)

	// Initialize locks: per-user for ledger writes, per-chat for round
	// transitions.
	userLock := lock.New()
	chatLock := lock.New()

	deps := &bot.Dependencies{
		Config:        cfg,
		LedgerService: ledgerService,
		StatsService:  statsService,
		RoundRepo:     roundRepo,
		UserLock:      userLock,
		ChatLock:      chatLock,
	}

	telegramBot, err := bot.New(deps)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create bot")
	}

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info().Msg("Bot is starting...")
		telegramBot.Start()
	}()

	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	telegramBot.Stop()
	log.Info().Msg("Bot stopped gracefully")
}

// runMigrations executes database migrations.
func runMigrations(ctx context.Context, pool *db.Pool) error {
	log.Info().Msg("Running database migrations...")

	// Migration 1: Create ledger table. Balances are scoped per chat.
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS ledger (
			chat_id BIGINT NOT NULL,
			user_id BIGINT NOT NULL,
			username VARCHAR(255) NOT NULL DEFAULT '',
			balance BIGINT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (chat_id, user_id)
		);
		CREATE INDEX IF NOT EXISTS idx_ledger_chat_balance ON ledger(chat_id, balance DESC);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 1: ledger table created")

	// Migration 2: Create rounds table. One row per chat, holding the
	// lottery round state and the open poll reference.
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS rounds (
			chat_id BIGINT PRIMARY KEY,
			state VARCHAR(20) NOT NULL DEFAULT 'idle',
			poll_id VARCHAR(64) NOT NULL DEFAULT '',
			poll_message_id INT NOT NULL DEFAULT 0,
			started_at TIMESTAMPTZ,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 2: rounds table created")

	// Migration 3: Create transactions table (balance change audit trail).
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS transactions (
			id BIGSERIAL PRIMARY KEY,
			chat_id BIGINT NOT NULL,
			user_id BIGINT NOT NULL,
			amount BIGINT NOT NULL,
			type VARCHAR(50) NOT NULL,
			description TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_transactions_chat_user_time ON transactions(chat_id, user_id, created_at DESC);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 3: transactions table created")

	// Migration 4: Create game_stats table (throw value histogram per game).
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS game_stats (
			chat_id BIGINT NOT NULL,
			game VARCHAR(16) NOT NULL,
			value INT NOT NULL,
			count BIGINT NOT NULL DEFAULT 0,
			PRIMARY KEY (chat_id, game, value)
		);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 4: game_stats table created")

	log.Info().Msg("All migrations completed successfully")
	return nil
}
