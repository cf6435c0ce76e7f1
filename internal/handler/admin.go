package handler

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"telegram-loto-bot/internal/model"
	"telegram-loto-bot/internal/pkg/lock"
	"telegram-loto-bot/internal/service"
)

// AdminHandler handles admin-only balance adjustments. All operations act
// on the ledger of the chat the command is issued in.
type AdminHandler struct {
	ledgerService *service.LedgerService
	userLock      *lock.KeyedLock
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(ledgerService *service.LedgerService, userLock *lock.KeyedLock) *AdminHandler {
	return &AdminHandler{
		ledgerService: ledgerService,
		userLock:      userLock,
	}
}

// HandleAdminAdd handles the /admin_add command.
// Format: /admin_add <user_id> <amount>, or reply to a message with
// /admin_add <amount>.
func (h *AdminHandler) HandleAdminAdd(c tele.Context) error {
	return h.adjust(c, "admin_add", func(ctx context.Context, chatID, targetID int64, amount int64, desc string) (int64, error) {
		if amount <= 0 {
			return 0, errUsage("amount must be positive")
		}
		return h.ledgerService.ApplyDelta(ctx, chatID, targetID, "", amount, model.TxTypeAdminAdd, desc)
	})
}

// HandleAdminSub handles the /admin_sub command.
// Format: /admin_sub <user_id> <amount>, or reply with /admin_sub <amount>.
func (h *AdminHandler) HandleAdminSub(c tele.Context) error {
	return h.adjust(c, "admin_sub", func(ctx context.Context, chatID, targetID int64, amount int64, desc string) (int64, error) {
		if amount <= 0 {
			return 0, errUsage("amount must be positive")
		}
		return h.ledgerService.ApplyDelta(ctx, chatID, targetID, "", -amount, model.TxTypeAdminSub, desc)
	})
}

// HandleAdminSet handles the /admin_set command.
// Format: /admin_set <user_id> <balance>, or reply with /admin_set <balance>.
func (h *AdminHandler) HandleAdminSet(c tele.Context) error {
	return h.adjust(c, "admin_set", func(ctx context.Context, chatID, targetID int64, amount int64, desc string) (int64, error) {
		if amount < 0 {
			return 0, errUsage("balance cannot be negative")
		}
		if err := h.ledgerService.SetBalance(ctx, chatID, targetID, "", amount, model.TxTypeAdminSet, desc); err != nil {
			return 0, err
		}
		return amount, nil
	})
}

// adjust runs the shared admin-command boilerplate: argument parsing,
// per-user locking, applying the operation and reporting the result.
func (h *AdminHandler) adjust(c tele.Context, op string, apply func(ctx context.Context, chatID, targetID, amount int64, desc string) (int64, error)) error {
	ctx := context.Background()
	sender := c.Sender()
	chat := c.Chat()
	if sender == nil || chat == nil {
		return nil
	}

	targetID, amount, err := parseAdminArgs(c)
	if err != nil {
		return c.Reply("❌ " + err.Error())
	}

	desc := fmt.Sprintf("%s by admin %d", op, sender.ID)
	var balance int64
	err = h.userLock.WithLock(targetID, func() error {
		var aerr error
		balance, aerr = apply(ctx, chat.ID, targetID, amount, desc)
		return aerr
	})
	if err != nil {
		if ue, ok := err.(usageError); ok {
			return c.Reply("❌ " + string(ue))
		}
		return c.Reply("❌ Operation failed, try again later")
	}

	log.Info().
		Int64("admin_id", sender.ID).
		Int64("chat_id", chat.ID).
		Int64("target_id", targetID).
		Int64("amount", amount).
		Str("operation", op).
		Msg("Admin operation executed")

	return c.Reply(fmt.Sprintf(
		"✅ Done\n👤 Player %d\n💰 Balance: %d💵",
		targetID, balance,
	))
}

// parseAdminArgs extracts the target and amount from an admin command.
// With a reply target only the amount is given; otherwise both the user ID
// and the amount are expected.
func parseAdminArgs(c tele.Context) (targetID, amount int64, err error) {
	args := c.Args()

	if msg := c.Message(); msg != nil && msg.ReplyTo != nil && msg.ReplyTo.Sender != nil {
		if len(args) < 1 {
			return 0, 0, errUsage("usage: reply with /admin_add <amount>")
		}
		amount, err = strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return 0, 0, errUsage("amount must be an integer")
		}
		return msg.ReplyTo.Sender.ID, amount, nil
	}

	if len(args) < 2 {
		return 0, 0, errUsage("usage: /admin_add <user_id> <amount>")
	}
	targetID, err = strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, 0, errUsage("user ID must be an integer")
	}
	amount, err = strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return 0, 0, errUsage("amount must be an integer")
	}
	return targetID, amount, nil
}

// usageError marks argument errors shown back to the admin verbatim.
type usageError string

func (e usageError) Error() string { return string(e) }

func errUsage(msg string) error { return usageError(msg) }
