package handler

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"telegram-loto-bot/internal/lottery"
)

// LotteryHandler handles lottery round commands and poll answer events.
type LotteryHandler struct {
	coordinator *lottery.Coordinator
}

// NewLotteryHandler creates a new LotteryHandler.
func NewLotteryHandler(coordinator *lottery.Coordinator) *LotteryHandler {
	return &LotteryHandler{coordinator: coordinator}
}

// HandleRoll handles the /roll command: opens a betting poll and schedules
// the draw. While a round is collecting bets in the chat, further /roll
// attempts are rejected.
func (h *LotteryHandler) HandleRoll(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	chat := c.Chat()
	if sender == nil || chat == nil {
		return nil
	}

	err := h.coordinator.StartRound(ctx, chat.ID)
	if errors.Is(err, lottery.ErrRoundInProgress) {
		return c.Reply("🎰 A round is already running, place your bets!")
	}
	if err != nil {
		log.Error().Err(err).Int64("chat_id", chat.ID).Msg("Failed to start lottery round")
		return c.Reply("❌ Could not start a round, try again later")
	}

	log.Info().
		Int64("chat_id", chat.ID).
		Int64("user_id", sender.ID).
		Msg("Lottery round started")
	return nil
}

// HandleResetRoll handles the /resetroll command (admin only): force-closes
// the current round without a draw. Collected bets are discarded.
func (h *LotteryHandler) HandleResetRoll(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	chat := c.Chat()
	if sender == nil || chat == nil {
		return nil
	}

	if err := h.coordinator.ResetRound(ctx, chat.ID); err != nil {
		log.Error().Err(err).Int64("chat_id", chat.ID).Msg("Failed to reset lottery round")
		return c.Reply("❌ Could not reset the round, try again later")
	}

	log.Info().
		Int64("chat_id", chat.ID).
		Int64("admin_id", sender.ID).
		Msg("Lottery round reset")
	return c.Reply("🔄 The round has been reset")
}

// HandlePollAnswer handles poll_answer updates: votes cast on the betting
// poll of an active round. Answers to unknown or stale polls are dropped by
// the coordinator; anonymous votes carry no user and are dropped here.
func (h *LotteryHandler) HandlePollAnswer(c tele.Context) error {
	pa := c.PollAnswer()
	if pa == nil || pa.Sender == nil {
		return nil
	}

	h.coordinator.RegisterAnswer(pa.PollID, pa.Sender.ID, pa.Options)
	return nil
}
