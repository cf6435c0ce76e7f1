// Package model defines the data models for the Telegram loto bot.
package model

import "time"

// Player represents one row of a chat's ledger: the balance a user holds
// inside a single group chat. Players are created lazily the first time a
// balance is touched.
type Player struct {
	ChatID    int64     `db:"chat_id"`
	UserID    int64     `db:"user_id"`
	Username  string    `db:"username"`
	Balance   int64     `db:"balance"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// RoundState identifies where a chat's lottery round currently is.
type RoundState string

const (
	// RoundIdle means no lottery is in progress.
	RoundIdle RoundState = "idle"
	// RoundCollecting means a poll is open and bets are being collected.
	RoundCollecting RoundState = "collecting"
)

// Round is the persisted lottery round state for one chat. While collecting,
// PollID and PollMessageID reference the open Telegram poll so it can be
// stopped later, including after a process restart.
type Round struct {
	ChatID        int64      `db:"chat_id"`
	State         RoundState `db:"state"`
	PollID        string     `db:"poll_id"`
	PollMessageID int        `db:"poll_message_id"`
	StartedAt     time.Time  `db:"started_at"`
	UpdatedAt     time.Time  `db:"updated_at"`
}

// Transaction represents a balance change record.
type Transaction struct {
	ID          int64     `db:"id"`
	ChatID      int64     `db:"chat_id"`
	UserID      int64     `db:"user_id"`
	Amount      int64     `db:"amount"`
	Type        string    `db:"type"`
	Description *string   `db:"description"`
	CreatedAt   time.Time `db:"created_at"`
}

// GameStat is an occurrence counter for one raw outcome value of one game
// kind within a chat. Purely additive; used by the /stats command.
type GameStat struct {
	ChatID int64  `db:"chat_id"`
	Game   string `db:"game"`
	Value  int    `db:"value"`
	Count  int64  `db:"count"`
}

// Transaction types for categorizing balance changes.
const (
	TxTypeGame      = "game"       // Mini-game (dice emoji) outcome
	TxTypeLottoWin  = "lotto_win"  // Lottery payout to a winner
	TxTypeLottoLoss = "lotto_loss" // Lottery penalty to a loser
	TxTypeAdminAdd  = "admin_add"  // Admin added balance
	TxTypeAdminSub  = "admin_sub"  // Admin subtracted balance
	TxTypeAdminSet  = "admin_set"  // Admin set balance
)
