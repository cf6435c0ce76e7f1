package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"telegram-loto-bot/internal/model"
)

// StatsRepository maintains per-chat occurrence counters for raw game
// outcome values. Counters are purely additive.
type StatsRepository struct {
	pool *pgxpool.Pool
}

// NewStatsRepository creates a new StatsRepository instance.
func NewStatsRepository(pool *pgxpool.Pool) *StatsRepository {
	return &StatsRepository{pool: pool}
}

// Increment bumps the counter for one observed raw value of a game.
func (r *StatsRepository) Increment(ctx context.Context, chatID int64, game string, value int) error {
	const query = `
		INSERT INTO game_stats (chat_id, game, value, count)
		VALUES ($1, $2, $3, 1)
		ON CONFLICT (chat_id, game, value) DO UPDATE
		SET count = game_stats.count + 1
	`

	_, err := r.pool.Exec(ctx, query, chatID, game, value)
	if err != nil {
		return fmt.Errorf("failed to increment game stat: %w", err)
	}

	return nil
}

// GetByGame retrieves all counters for a game in a chat, ordered by value.
func (r *StatsRepository) GetByGame(ctx context.Context, chatID int64, game string) ([]*model.GameStat, error) {
	const query = `
		SELECT chat_id, game, value, count
		FROM game_stats
		WHERE chat_id = $1 AND game = $2
		ORDER BY value ASC
	`

	rows, err := r.pool.Query(ctx, query, chatID, game)
	if err != nil {
		return nil, fmt.Errorf("failed to get game stats: %w", err)
	}
	defer rows.Close()

	var stats []*model.GameStat
	for rows.Next() {
		var s model.GameStat
		if err := rows.Scan(&s.ChatID, &s.Game, &s.Value, &s.Count); err != nil {
			return nil, fmt.Errorf("failed to scan game stat: %w", err)
		}
		stats = append(stats, &s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating game stats: %w", err)
	}

	return stats, nil
}
