package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"telegram-loto-bot/internal/config"
	"telegram-loto-bot/internal/game"
	"telegram-loto-bot/internal/model"
	"telegram-loto-bot/internal/pkg/lock"
)

// reactRetries bounds how often a rate-limited reaction is retried.
const reactRetries = 3

// Ledger is the slice of the ledger service a throw needs.
type Ledger interface {
	GetBalance(ctx context.Context, chatID, userID int64) (int64, error)
	ApplyDelta(ctx context.Context, chatID, userID int64, username string, delta int64, txType string, description string) (int64, error)
}

// Stats records and reports per-game throw histograms.
type Stats interface {
	Record(ctx context.Context, chatID int64, game string, value int)
	ByGame(ctx context.Context, chatID int64, game string) ([]*model.GameStat, error)
}

// Reactor sets an emoji reaction on a message.
type Reactor interface {
	React(chatID int64, messageID int, emoji string) error
}

// GameHandler resolves dice-emoji throws into score changes.
type GameHandler struct {
	cfg      *config.Config
	ledger   Ledger
	stats    Stats
	reactor  Reactor
	userLock *lock.KeyedLock

	sleep func(time.Duration)
}

// NewGameHandler creates a new GameHandler.
func NewGameHandler(
	cfg *config.Config,
	ledger Ledger,
	stats Stats,
	reactor Reactor,
	userLock *lock.KeyedLock,
) *GameHandler {
	return &GameHandler{
		cfg:      cfg,
		ledger:   ledger,
		stats:    stats,
		reactor:  reactor,
		userLock: userLock,
		sleep:    time.Sleep,
	}
}

// HandleDice handles a thrown dice emoji (🎲 🎯 🏀 ⚽ 🎳 🎰).
// Telegram has already animated the throw; the raw value arrives with the
// message and only needs to be scored. Players below the minimum stake get
// their throw deleted instead of scored.
func (h *GameHandler) HandleDice(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	chat := c.Chat()
	msg := c.Message()
	if sender == nil || chat == nil || msg == nil || msg.Dice == nil {
		return nil
	}

	// Forwarded dice replay someone else's animation with an unrelated
	// value; scoring them would let players farm a good throw.
	if msg.OriginalSender != nil || msg.OriginalChat != nil {
		return nil
	}

	kind, ok := game.KindOf(string(msg.Dice.Type))
	if !ok {
		return nil
	}

	h.userLock.Lock(sender.ID)
	defer h.userLock.Unlock(sender.ID)

	balance, err := h.ledger.GetBalance(ctx, chat.ID, sender.ID)
	if err != nil {
		log.Error().Err(err).
			Int64("chat_id", chat.ID).
			Int64("user_id", sender.ID).
			Msg("Failed to fetch balance for throw")
		return nil
	}

	if balance < h.cfg.Games.MinStake {
		if err := c.Delete(); err != nil {
			log.Warn().Err(err).
				Int64("chat_id", chat.ID).
				Msg("Failed to delete broke player's throw")
		}
		return c.Send(fmt.Sprintf("%s, you don't have enough to play!", displayName(sender)))
	}

	out, err := game.Resolve(kind, msg.Dice.Value)
	if err != nil {
		// A value outside the documented range means the Telegram
		// contract changed; log loudly and do not touch the balance.
		log.Error().Err(err).
			Str("game", string(kind)).
			Int("value", msg.Dice.Value).
			Msg("Unresolvable throw value")
		return nil
	}

	desc := fmt.Sprintf("%s throw, value %d", kind, msg.Dice.Value)
	if _, err := h.ledger.ApplyDelta(ctx, chat.ID, sender.ID, senderName(sender), out.Delta, model.TxTypeGame, desc); err != nil {
		log.Error().Err(err).
			Int64("chat_id", chat.ID).
			Int64("user_id", sender.ID).
			Msg("Failed to apply game outcome")
		return nil
	}

	h.stats.Record(ctx, chat.ID, string(kind), msg.Dice.Value)

	// Reveal the verdict only after the animation settles.
	go h.reactLater(chat.ID, msg.ID, out)

	return nil
}

// reactLater waits out the animation and sets the outcome reaction on the
// triggering message, retrying a few times on rate limits.
func (h *GameHandler) reactLater(chatID int64, messageID int, out game.Outcome) {
	h.sleep(out.RevealDelay)

	for attempt := 0; attempt < reactRetries; attempt++ {
		err := h.reactor.React(chatID, messageID, out.Reaction)
		if err == nil {
			return
		}

		var flood tele.FloodError
		if errors.As(err, &flood) {
			h.sleep(time.Duration(flood.RetryAfter) * time.Second)
			continue
		}

		log.Warn().Err(err).
			Int64("chat_id", chatID).
			Int("message_id", messageID).
			Msg("Failed to set outcome reaction")
		return
	}
}

// HandleStats handles the /stats command.
// Format: /stats <game emoji>
func (h *GameHandler) HandleStats(c tele.Context) error {
	ctx := context.Background()
	chat := c.Chat()
	if chat == nil {
		return nil
	}

	args := c.Args()
	if len(args) < 1 {
		return c.Reply("Usage: /stats <game emoji>, e.g. /stats 🎲")
	}

	kind, ok := game.KindOf(args[0])
	if !ok {
		return c.Reply("Unknown game, try one of 🎲 🎯 🏀 ⚽ 🎳 🎰")
	}

	stats, err := h.stats.ByGame(ctx, chat.ID, string(kind))
	if err != nil {
		return c.Reply("❌ Could not fetch statistics, try again later")
	}

	if len(stats) == 0 {
		return c.Reply(fmt.Sprintf("📊 No %s throws in this chat yet", kind))
	}

	var total int64
	for _, s := range stats {
		total += s.Count
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📊 %s throws: %d\n", kind, total)
	for _, s := range stats {
		fmt.Fprintf(&b, "%d: %d (%.1f%%)\n", s.Value, s.Count, float64(s.Count)*100/float64(total))
	}

	return c.Reply(strings.TrimRight(b.String(), "\n"))
}

// senderName picks the name stored in the ledger for a player.
func senderName(u *tele.User) string {
	if u.Username != "" {
		return u.Username
	}
	return u.FirstName
}
