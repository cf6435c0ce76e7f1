// Package service provides business logic implementations.
package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"telegram-loto-bot/internal/model"
	"telegram-loto-bot/internal/repository"
)

// LedgerService handles balance reads and writes for a chat's ledger and
// records an audit transaction for every change.
type LedgerService struct {
	ledgerRepo *repository.LedgerRepository
	txRepo     *repository.TransactionRepository
	topSize    int
}

// NewLedgerService creates a new LedgerService instance.
func NewLedgerService(
	ledgerRepo *repository.LedgerRepository,
	txRepo *repository.TransactionRepository,
	topSize int,
) *LedgerService {
	if topSize <= 0 {
		topSize = 10
	}
	return &LedgerService{
		ledgerRepo: ledgerRepo,
		txRepo:     txRepo,
		topSize:    topSize,
	}
}

// DefaultBalance returns the balance unseen players implicitly hold.
func (s *LedgerService) DefaultBalance() int64 {
	return s.ledgerRepo.DefaultBalance()
}

// GetBalance returns a player's balance, or the default for unseen players.
func (s *LedgerService) GetBalance(ctx context.Context, chatID, userID int64) (int64, error) {
	balance, err := s.ledgerRepo.GetBalance(ctx, chatID, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}
	return balance, nil
}

// ApplyDelta adds delta to a player's balance and records the transaction.
// A storage failure aborts the operation; the transaction audit row is
// best-effort once the balance is committed.
func (s *LedgerService) ApplyDelta(ctx context.Context, chatID, userID int64, username string, delta int64, txType string, description string) (int64, error) {
	balance, err := s.ledgerRepo.ApplyDelta(ctx, chatID, userID, username, delta)
	if err != nil {
		return 0, fmt.Errorf("failed to apply delta: %w", err)
	}

	var desc *string
	if description != "" {
		desc = &description
	}
	if _, err := s.txRepo.Create(ctx, chatID, userID, delta, txType, desc); err != nil {
		// Balance is already committed; losing the audit row is logged,
		// not fatal.
		log.Error().Err(err).
			Int64("chat_id", chatID).
			Int64("user_id", userID).
			Int64("amount", delta).
			Str("type", txType).
			Msg("Failed to record transaction")
	}

	return balance, nil
}

// SetBalance sets a player's balance to an exact value (admin operation)
// and records the transaction.
func (s *LedgerService) SetBalance(ctx context.Context, chatID, userID int64, username string, balance int64, txType string, description string) error {
	if err := s.ledgerRepo.SetBalance(ctx, chatID, userID, username, balance); err != nil {
		return fmt.Errorf("failed to set balance: %w", err)
	}

	var desc *string
	if description != "" {
		desc = &description
	}
	if _, err := s.txRepo.Create(ctx, chatID, userID, balance, txType, desc); err != nil {
		log.Error().Err(err).
			Int64("chat_id", chatID).
			Int64("user_id", userID).
			Msg("Failed to record transaction")
	}

	return nil
}

// UpdateUsername refreshes a player's stored display name.
func (s *LedgerService) UpdateUsername(ctx context.Context, chatID, userID int64, username string) {
	if err := s.ledgerRepo.UpdateUsername(ctx, chatID, userID, username); err != nil {
		log.Debug().Err(err).Int64("user_id", userID).Msg("Failed to refresh username")
	}
}

// Top returns the chat's leaderboard.
func (s *LedgerService) Top(ctx context.Context, chatID int64) ([]*model.Player, error) {
	players, err := s.ledgerRepo.Top(ctx, chatID, s.topSize)
	if err != nil {
		return nil, fmt.Errorf("failed to get leaderboard: %w", err)
	}
	return players, nil
}
