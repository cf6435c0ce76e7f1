package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"telegram-loto-bot/internal/model"
	"telegram-loto-bot/internal/repository"
)

// StatsService tracks how often each raw outcome value shows up per game.
type StatsService struct {
	statsRepo *repository.StatsRepository
}

// NewStatsService creates a new StatsService instance.
func NewStatsService(statsRepo *repository.StatsRepository) *StatsService {
	return &StatsService{statsRepo: statsRepo}
}

// Record bumps the counter for an observed outcome. Counting is advisory;
// a failure is logged and the game goes on.
func (s *StatsService) Record(ctx context.Context, chatID int64, game string, value int) {
	if err := s.statsRepo.Increment(ctx, chatID, game, value); err != nil {
		log.Error().Err(err).
			Int64("chat_id", chatID).
			Str("game", game).
			Int("value", value).
			Msg("Failed to record game stat")
	}
}

// ByGame returns the counters for one game in a chat, ordered by value.
func (s *StatsService) ByGame(ctx context.Context, chatID int64, game string) ([]*model.GameStat, error) {
	stats, err := s.statsRepo.GetByGame(ctx, chatID, game)
	if err != nil {
		return nil, fmt.Errorf("failed to get game stats: %w", err)
	}
	return stats, nil
}
