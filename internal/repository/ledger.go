// Package repository provides data access layer implementations.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"telegram-loto-bot/internal/model"
)

// Common errors for repository operations.
var (
	ErrPlayerNotFound = errors.New("player not found")
)

// LedgerRepository handles per-chat balance persistence.
// Unknown players implicitly hold the configured default balance; a row is
// created only when the first delta is applied.
type LedgerRepository struct {
	pool           *pgxpool.Pool
	defaultBalance int64
}

// NewLedgerRepository creates a new LedgerRepository instance.
func NewLedgerRepository(pool *pgxpool.Pool, defaultBalance int64) *LedgerRepository {
	return &LedgerRepository{pool: pool, defaultBalance: defaultBalance}
}

// DefaultBalance returns the configured starting balance.
func (r *LedgerRepository) DefaultBalance() int64 {
	return r.defaultBalance
}

// GetBalance returns the stored balance for a player, or the default balance
// when the player has never been seen in this chat.
func (r *LedgerRepository) GetBalance(ctx context.Context, chatID, userID int64) (int64, error) {
	const query = `
		SELECT balance FROM ledger
		WHERE chat_id = $1 AND user_id = $2
	`

	var balance int64
	err := r.pool.QueryRow(ctx, query, chatID, userID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return r.defaultBalance, nil
		}
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}

	return balance, nil
}

// GetPlayer retrieves a full ledger row.
// Returns ErrPlayerNotFound if the player has no row yet.
func (r *LedgerRepository) GetPlayer(ctx context.Context, chatID, userID int64) (*model.Player, error) {
	const query = `
		SELECT chat_id, user_id, username, balance, created_at, updated_at
		FROM ledger
		WHERE chat_id = $1 AND user_id = $2
	`

	var p model.Player
	err := r.pool.QueryRow(ctx, query, chatID, userID).Scan(
		&p.ChatID,
		&p.UserID,
		&p.Username,
		&p.Balance,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to get player: %w", err)
	}

	return &p, nil
}

// ApplyDelta adds delta to a player's balance, creating the row with the
// default balance first if the player is new. No floor is enforced; the
// balance may go negative. Returns the updated balance.
func (r *LedgerRepository) ApplyDelta(ctx context.Context, chatID, userID int64, username string, delta int64) (int64, error) {
	const query = `
		INSERT INTO ledger (chat_id, user_id, username, balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4 + $5, NOW(), NOW())
		ON CONFLICT (chat_id, user_id) DO UPDATE
		SET balance = ledger.balance + $5,
		    username = COALESCE(NULLIF($3, ''), ledger.username),
		    updated_at = NOW()
		RETURNING balance
	`

	var balance int64
	err := r.pool.QueryRow(ctx, query, chatID, userID, username, r.defaultBalance, delta).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("failed to apply delta: %w", err)
	}

	return balance, nil
}

// SetBalance sets a player's balance to an exact value, creating the row if
// needed. Used by admin operations.
func (r *LedgerRepository) SetBalance(ctx context.Context, chatID, userID int64, username string, balance int64) error {
	const query = `
		INSERT INTO ledger (chat_id, user_id, username, balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (chat_id, user_id) DO UPDATE
		SET balance = $4,
		    username = COALESCE(NULLIF($3, ''), ledger.username),
		    updated_at = NOW()
	`

	_, err := r.pool.Exec(ctx, query, chatID, userID, username, balance)
	if err != nil {
		return fmt.Errorf("failed to set balance: %w", err)
	}

	return nil
}

// UpdateUsername refreshes the stored display name for a player, if the
// player has a row. Missing players are not an error; the name is stored
// when their first delta creates the row.
func (r *LedgerRepository) UpdateUsername(ctx context.Context, chatID, userID int64, username string) error {
	if username == "" {
		return nil
	}

	const query = `
		UPDATE ledger
		SET username = $3, updated_at = NOW()
		WHERE chat_id = $1 AND user_id = $2
	`

	_, err := r.pool.Exec(ctx, query, chatID, userID, username)
	if err != nil {
		return fmt.Errorf("failed to update username: %w", err)
	}

	return nil
}

// Top retrieves the richest players of a chat, ordered by descending balance
// with user ID as a deterministic tiebreak.
func (r *LedgerRepository) Top(ctx context.Context, chatID int64, limit int) ([]*model.Player, error) {
	const query = `
		SELECT chat_id, user_id, username, balance, created_at, updated_at
		FROM ledger
		WHERE chat_id = $1
		ORDER BY balance DESC, user_id ASC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, chatID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get top players: %w", err)
	}
	defer rows.Close()

	var players []*model.Player
	for rows.Next() {
		var p model.Player
		err := rows.Scan(
			&p.ChatID,
			&p.UserID,
			&p.Username,
			&p.Balance,
			&p.CreatedAt,
			&p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		players = append(players, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating players: %w", err)
	}

	return players, nil
}
