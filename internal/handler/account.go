// Package handler provides Telegram bot command handlers.
package handler

import (
	"context"
	"fmt"
	"strings"

	tele "gopkg.in/telebot.v3"

	"telegram-loto-bot/internal/service"
)

const helpText = "🎰 Loto Bot\n\n" +
	"Everyone starts with a balance and bets it on games of chance.\n\n" +
	"Commands:\n" +
	"/balance - show your balance\n" +
	"/top - richest players in this chat\n" +
	"/roll - start a lottery round\n" +
	"/stats <emoji> - throw statistics for a game\n\n" +
	"Send a dice emoji (🎲 🎯 🏀 ⚽ 🎳 🎰) to play a quick game."

// AccountHandler handles account-related commands.
type AccountHandler struct {
	ledgerService *service.LedgerService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(ledgerService *service.LedgerService) *AccountHandler {
	return &AccountHandler{ledgerService: ledgerService}
}

// HandleHelp handles the /help and /start commands.
func (h *AccountHandler) HandleHelp(c tele.Context) error {
	return c.Reply(helpText)
}

// HandleBalance handles the /balance command.
// Replies with the sender's balance in the current chat. Players that
// never played before see the default starting balance.
func (h *AccountHandler) HandleBalance(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	chat := c.Chat()
	if sender == nil || chat == nil {
		return nil
	}

	balance, err := h.ledgerService.GetBalance(ctx, chat.ID, sender.ID)
	if err != nil {
		return c.Reply("❌ Could not fetch your balance, try again later")
	}

	// Telegram names drift; refresh the stored one on sight.
	h.ledgerService.UpdateUsername(ctx, chat.ID, sender.ID, senderName(sender))

	return c.Reply(fmt.Sprintf("%s, you have %d💵!", displayName(sender), balance))
}

// HandleTop handles the /top command.
// Displays the richest players of the current chat.
func (h *AccountHandler) HandleTop(c tele.Context) error {
	ctx := context.Background()
	chat := c.Chat()
	if chat == nil {
		return nil
	}

	players, err := h.ledgerService.Top(ctx, chat.ID)
	if err != nil {
		return c.Reply("❌ Could not fetch the leaderboard, try again later")
	}

	if len(players) == 0 {
		return c.Reply("📊 Nobody has played in this chat yet")
	}

	var b strings.Builder
	b.WriteString("🏆 Richest players\n")
	medals := []string{"🥇", "🥈", "🥉"}
	for i, p := range players {
		rank := fmt.Sprintf("%d.", i+1)
		if i < len(medals) {
			rank = medals[i]
		}

		name := p.Username
		if name == "" {
			name = fmt.Sprintf("Player%d", p.UserID)
		}

		fmt.Fprintf(&b, "%s %s: %d💵\n", rank, name, p.Balance)
	}

	return c.Reply(strings.TrimRight(b.String(), "\n"))
}

// displayName returns a human-readable name for a Telegram user,
// preferring the @username over the first name.
func displayName(u *tele.User) string {
	if u.Username != "" {
		return "@" + u.Username
	}
	if u.FirstName != "" {
		return u.FirstName
	}
	return fmt.Sprintf("Player%d", u.ID)
}
