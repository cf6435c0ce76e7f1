package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"telegram-loto-bot/internal/model"
)

// RoundRepository persists the lottery round state per chat so an open poll
// reference survives a process restart.
type RoundRepository struct {
	pool *pgxpool.Pool
}

// NewRoundRepository creates a new RoundRepository instance.
func NewRoundRepository(pool *pgxpool.Pool) *RoundRepository {
	return &RoundRepository{pool: pool}
}

// Get retrieves the round state for a chat. Chats without a row are idle.
func (r *RoundRepository) Get(ctx context.Context, chatID int64) (*model.Round, error) {
	const query = `
		SELECT chat_id, state, poll_id, poll_message_id, started_at, updated_at
		FROM rounds
		WHERE chat_id = $1
	`

	var round model.Round
	err := r.pool.QueryRow(ctx, query, chatID).Scan(
		&round.ChatID,
		&round.State,
		&round.PollID,
		&round.PollMessageID,
		&round.StartedAt,
		&round.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &model.Round{ChatID: chatID, State: model.RoundIdle}, nil
		}
		return nil, fmt.Errorf("failed to get round: %w", err)
	}

	return &round, nil
}

// SetCollecting marks a chat's round as collecting bets, recording the poll
// reference needed to stop it later.
func (r *RoundRepository) SetCollecting(ctx context.Context, chatID int64, pollID string, pollMessageID int) error {
	const query = `
		INSERT INTO rounds (chat_id, state, poll_id, poll_message_id, started_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (chat_id) DO UPDATE
		SET state = $2, poll_id = $3, poll_message_id = $4, started_at = NOW(), updated_at = NOW()
	`

	_, err := r.pool.Exec(ctx, query, chatID, model.RoundCollecting, pollID, pollMessageID)
	if err != nil {
		return fmt.Errorf("failed to set round collecting: %w", err)
	}

	return nil
}

// SetIdle resets a chat's round to idle and clears the poll reference.
func (r *RoundRepository) SetIdle(ctx context.Context, chatID int64) error {
	const query = `
		INSERT INTO rounds (chat_id, state, poll_id, poll_message_id, started_at, updated_at)
		VALUES ($1, $2, '', 0, NOW(), NOW())
		ON CONFLICT (chat_id) DO UPDATE
		SET state = $2, poll_id = '', poll_message_id = 0, updated_at = NOW()
	`

	_, err := r.pool.Exec(ctx, query, chatID, model.RoundIdle)
	if err != nil {
		return fmt.Errorf("failed to set round idle: %w", err)
	}

	return nil
}
