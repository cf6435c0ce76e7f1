package lottery

import (
	"context"
	"errors"

	"telegram-loto-bot/internal/model"
)

// Errors for round lifecycle violations. These are user-visible conditions,
// not crashes: the handler turns them into a "not available right now" reply.
var (
	// ErrRoundInProgress is returned when a round start is requested while
	// bets are already being collected in the chat.
	ErrRoundInProgress = errors.New("a lottery round is already collecting bets")

	// ErrRoundNotCollecting is returned when a closing action finds the
	// round no longer collecting (already closed or reset).
	ErrRoundNotCollecting = errors.New("round is not collecting bets")
)

// RoundStore persists the per-chat round state. Only the coordinator
// transitions it.
type RoundStore interface {
	Get(ctx context.Context, chatID int64) (*model.Round, error)
	SetCollecting(ctx context.Context, chatID int64, pollID string, pollMessageID int) error
	SetIdle(ctx context.Context, chatID int64) error
}

// Ledger is the balance store the lottery pays out against.
type Ledger interface {
	GetBalance(ctx context.Context, chatID, userID int64) (int64, error)
	ApplyDelta(ctx context.Context, chatID, userID int64, username string, delta int64, txType string, description string) (int64, error)
}

// PollRef identifies an open Telegram poll: the poll's own ID (used to route
// answers) and the message carrying it (used to stop it).
type PollRef struct {
	ID        string
	MessageID int
}

// Messenger abstracts the Telegram calls a round needs. The die roll is a
// chat-visible animation, not a local random draw: the ritual is part of
// the game.
type Messenger interface {
	SendText(chatID int64, text string) error
	CreatePoll(chatID int64, question string, options []string) (PollRef, error)
	ClosePoll(chatID int64, ref PollRef) error
	RollDie(chatID int64) (int, error)
	// DisplayName resolves a user's visible name, falling back to a
	// placeholder; it never fails.
	DisplayName(chatID, userID int64) string
}
