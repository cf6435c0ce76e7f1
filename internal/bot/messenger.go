package bot

import (
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"telegram-loto-bot/internal/lottery"
)

// Messenger adapts the telebot API to the calls a lottery round makes.
type Messenger struct {
	bot *tele.Bot
}

// NewMessenger creates a Messenger on top of a telebot instance.
func NewMessenger(b *tele.Bot) *Messenger {
	return &Messenger{bot: b}
}

// SendText sends a plain text message to a chat.
func (m *Messenger) SendText(chatID int64, text string) error {
	_, err := m.bot.Send(tele.ChatID(chatID), text)
	return err
}

// CreatePoll opens a non-anonymous regular poll and pins it so late joiners
// see the open round. Pinning is best-effort: it needs admin rights the bot
// may not have.
func (m *Messenger) CreatePoll(chatID int64, question string, options []string) (lottery.PollRef, error) {
	poll := &tele.Poll{
		Type:      tele.PollRegular,
		Question:  question,
		Anonymous: false,
	}
	poll.AddOptions(options...)

	msg, err := m.bot.Send(tele.ChatID(chatID), poll)
	if err != nil {
		return lottery.PollRef{}, fmt.Errorf("failed to send poll: %w", err)
	}
	if msg.Poll == nil {
		return lottery.PollRef{}, fmt.Errorf("sent message carries no poll")
	}

	if err := m.bot.Pin(msg); err != nil {
		log.Warn().Err(err).Int64("chat_id", chatID).Msg("Failed to pin betting poll")
	}

	return lottery.PollRef{ID: msg.Poll.ID, MessageID: msg.ID}, nil
}

// ClosePoll stops the betting poll and unpins it.
func (m *Messenger) ClosePoll(chatID int64, ref lottery.PollRef) error {
	stored := tele.StoredMessage{
		MessageID: strconv.Itoa(ref.MessageID),
		ChatID:    chatID,
	}
	if _, err := m.bot.StopPoll(stored); err != nil {
		return fmt.Errorf("failed to stop poll: %w", err)
	}

	if err := m.bot.Unpin(tele.ChatID(chatID), ref.MessageID); err != nil {
		log.Warn().Err(err).Int64("chat_id", chatID).Msg("Failed to unpin betting poll")
	}
	return nil
}

// RollDie sends an animated die to the chat and returns its value. The
// animation is the draw: everyone watches the same roll the payout uses.
func (m *Messenger) RollDie(chatID int64) (int, error) {
	msg, err := m.bot.Send(tele.ChatID(chatID), tele.Cube)
	if err != nil {
		return 0, fmt.Errorf("failed to roll die: %w", err)
	}
	if msg.Dice == nil {
		return 0, fmt.Errorf("roll message carries no dice")
	}
	return msg.Dice.Value, nil
}

// React sets a single emoji reaction on a message.
func (m *Messenger) React(chatID int64, messageID int, emoji string) error {
	stored := tele.StoredMessage{
		MessageID: strconv.Itoa(messageID),
		ChatID:    chatID,
	}
	opts := tele.ReactionOptions{
		Reactions: []tele.Reaction{{Type: "emoji", Emoji: emoji}},
	}
	return m.bot.React(tele.ChatID(chatID), stored, opts)
}

// DisplayName resolves a chat member's visible name, falling back to a
// numeric placeholder when the member cannot be fetched.
func (m *Messenger) DisplayName(chatID, userID int64) string {
	member, err := m.bot.ChatMemberOf(tele.ChatID(chatID), &tele.User{ID: userID})
	if err != nil || member.User == nil {
		log.Debug().Err(err).
			Int64("chat_id", chatID).
			Int64("user_id", userID).
			Msg("Failed to resolve chat member name")
		return fmt.Sprintf("Player%d", userID)
	}

	u := member.User
	if u.Username != "" {
		return "@" + u.Username
	}
	if u.FirstName != "" {
		return u.FirstName
	}
	return fmt.Sprintf("Player%d", userID)
}
