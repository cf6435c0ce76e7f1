package lottery

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"telegram-loto-bot/internal/model"
	"telegram-loto-bot/internal/pkg/lock"
)

// DefaultSuspenseDelay is the pause between the visible die roll and the
// winners announcement.
const DefaultSuspenseDelay = 4 * time.Second

// Config holds the tunable parameters of a lottery round.
type Config struct {
	// Window is how long the poll collects bets.
	Window time.Duration
	// SuspenseDelay is the pause between the die roll and the announcement.
	SuspenseDelay time.Duration
	// WinAmount is paid to each winner holding at least MinStake.
	WinAmount int64
	// LoserPenalty is taken from each loser holding at least MinStake.
	LoserPenalty int64
	// MinStake is the balance required to receive a payout or a penalty.
	MinStake int64
}

// Coordinator runs lottery rounds: it opens the poll, collects answers
// through the buffer, and closes the round when the window expires.
//
// One round may be open per chat. The per-chat keyed lock serializes
// start, close and reset, and a monotonic round token guards the timer:
// a timer that fires after its round was reset finds a stale token and
// does nothing.
type Coordinator struct {
	cfg      Config
	rounds   RoundStore
	ledger   Ledger
	msg      Messenger
	answers  *AnswerBuffer
	chatLock *lock.KeyedLock

	tokens *tokenTable
}

// New creates a Coordinator.
func New(cfg Config, rounds RoundStore, ledger Ledger, msg Messenger, answers *AnswerBuffer, chatLock *lock.KeyedLock) *Coordinator {
	return &Coordinator{
		cfg:      cfg,
		rounds:   rounds,
		ledger:   ledger,
		msg:      msg,
		answers:  answers,
		chatLock: chatLock,
		tokens:   newTokenTable(),
	}
}

// Answers exposes the shared answer buffer.
func (c *Coordinator) Answers() *AnswerBuffer {
	return c.answers
}

// StartRound opens a new lottery round in the chat: clears stale answers,
// creates the betting poll, persists the collecting state and schedules the
// closing action after the configured window.
func (c *Coordinator) StartRound(ctx context.Context, chatID int64) error {
	c.chatLock.Lock(chatID)
	defer c.chatLock.Unlock(chatID)

	round, err := c.rounds.Get(ctx, chatID)
	if err != nil {
		return fmt.Errorf("failed to load round state: %w", err)
	}

	if round.State == model.RoundCollecting {
		if c.tokens.hasActive(chatID) {
			return ErrRoundInProgress
		}
		// Collecting state with no live timer means the process restarted
		// mid-round. The poll died with the old process; repair to idle
		// and let this start proceed.
		log.Warn().
			Int64("chat_id", chatID).
			Str("poll_id", round.PollID).
			Msg("Repairing stale collecting state left by a restart")
		if err := c.rounds.SetIdle(ctx, chatID); err != nil {
			return fmt.Errorf("failed to repair stale round: %w", err)
		}
	}

	// Must happen before the poll opens so no answer can race the clear.
	c.answers.Clear(chatID)

	question := fmt.Sprintf("Place your bets! You have %d seconds.", int(c.cfg.Window.Seconds()))
	options := make([]string, 6)
	for i := range options {
		options[i] = strconv.Itoa(i + 1)
	}

	ref, err := c.msg.CreatePoll(chatID, question, options)
	if err != nil {
		return fmt.Errorf("failed to create betting poll: %w", err)
	}

	if err := c.rounds.SetCollecting(ctx, chatID, ref.ID, ref.MessageID); err != nil {
		// The poll is already live; close it rather than leave a poll
		// nobody will ever draw.
		if cerr := c.msg.ClosePoll(chatID, ref); cerr != nil {
			log.Warn().Err(cerr).Int64("chat_id", chatID).Msg("Failed to close orphaned poll")
		}
		return fmt.Errorf("failed to persist collecting state: %w", err)
	}

	token := c.tokens.issue(chatID, ref.ID)

	log.Info().
		Int64("chat_id", chatID).
		Str("poll_id", ref.ID).
		Dur("window", c.cfg.Window).
		Msg("Lottery round started")

	go func() {
		time.Sleep(c.cfg.Window)
		if err := c.closeRound(context.Background(), chatID, ref, token); err != nil &&
			!errors.Is(err, errStaleToken) && !errors.Is(err, ErrRoundNotCollecting) {
			log.Error().Err(err).Int64("chat_id", chatID).Msg("Lottery round close failed")
		}
	}()

	return nil
}

// RegisterAnswer feeds a poll-answer event into the current round. Answers
// for unknown polls (a previous round, or another bot's poll) are dropped.
// An empty option list is a vote retraction.
func (c *Coordinator) RegisterAnswer(pollID string, userID int64, options []int) {
	chatID, ok := c.tokens.chatFor(pollID)
	if !ok {
		log.Debug().Str("poll_id", pollID).Int64("user_id", userID).Msg("Answer for unknown poll dropped")
		return
	}

	if len(options) == 0 {
		c.answers.Retract(chatID, userID)
		return
	}

	// Option indexes are zero-based; the poll options are the numbers 1-6.
	choice := options[0] + 1
	if choice < 1 || choice > 6 {
		log.Warn().Int("choice", choice).Int64("user_id", userID).Msg("Poll answer out of range dropped")
		return
	}
	c.answers.Put(chatID, userID, choice)
}

// ResetRound force-closes the chat's round without a draw. The poll is
// stopped if one is open; any pending timer finds its token stale and
// no-ops when it later fires.
func (c *Coordinator) ResetRound(ctx context.Context, chatID int64) error {
	c.chatLock.Lock(chatID)
	defer c.chatLock.Unlock(chatID)

	round, err := c.rounds.Get(ctx, chatID)
	if err != nil {
		return fmt.Errorf("failed to load round state: %w", err)
	}

	c.tokens.invalidate(chatID)
	c.answers.Clear(chatID)

	if round.State == model.RoundCollecting && round.PollID != "" {
		ref := PollRef{ID: round.PollID, MessageID: round.PollMessageID}
		if err := c.msg.ClosePoll(chatID, ref); err != nil {
			log.Warn().Err(err).Int64("chat_id", chatID).Msg("Failed to close poll during reset")
		}
	}

	if err := c.rounds.SetIdle(ctx, chatID); err != nil {
		return fmt.Errorf("failed to reset round: %w", err)
	}

	log.Info().Int64("chat_id", chatID).Msg("Lottery round reset")
	return nil
}

// closeRound runs the draw: stops the poll, rolls the visible die, pays out
// and announces. Any messenger failure aborts the draw but still resets the
// round to idle so the chat is never stuck collecting.
func (c *Coordinator) closeRound(ctx context.Context, chatID int64, ref PollRef, token uint64) error {
	c.chatLock.Lock(chatID)
	defer c.chatLock.Unlock(chatID)

	if !c.tokens.consume(chatID, token) {
		log.Debug().Int64("chat_id", chatID).Msg("Stale round timer ignored")
		return errStaleToken
	}

	round, err := c.rounds.Get(ctx, chatID)
	if err != nil {
		return fmt.Errorf("failed to load round state: %w", err)
	}
	if round.State != model.RoundCollecting {
		log.Warn().Int64("chat_id", chatID).Msg("Closing timer found round already idle")
		return ErrRoundNotCollecting
	}

	if err := c.msg.ClosePoll(chatID, ref); err != nil {
		c.abortRound(ctx, chatID)
		return fmt.Errorf("failed to stop poll: %w", err)
	}

	if err := c.msg.SendText(chatID, "Bets are closed. Time for the roll..."); err != nil {
		log.Warn().Err(err).Int64("chat_id", chatID).Msg("Failed to send pre-roll message")
	}

	value, err := c.msg.RollDie(chatID)
	if err != nil {
		c.abortRound(ctx, chatID)
		return fmt.Errorf("failed to roll the die: %w", err)
	}
	if value < 1 || value > 6 {
		c.abortRound(ctx, chatID)
		return fmt.Errorf("%w: die value %d", errBadDie, value)
	}

	if c.cfg.SuspenseDelay > 0 {
		time.Sleep(c.cfg.SuspenseDelay)
	}

	answers := c.answers.SnapshotAndClear(chatID)
	winnerIDs, loserIDs := partition(answers, value)

	winners, bankrupts := c.payout(ctx, chatID, winnerIDs, loserIDs)

	if err := c.rounds.SetIdle(ctx, chatID); err != nil {
		return fmt.Errorf("failed to return round to idle: %w", err)
	}

	log.Info().
		Int64("chat_id", chatID).
		Int("die", value).
		Int("bets", len(answers)).
		Int("winners", len(winnerIDs)).
		Msg("Lottery round settled")

	if err := c.msg.SendText(chatID, announcement(winners, bankrupts)); err != nil {
		log.Warn().Err(err).Int64("chat_id", chatID).Msg("Failed to announce winners")
	}

	return nil
}

// abortRound defensively resets a round whose draw failed partway.
func (c *Coordinator) abortRound(ctx context.Context, chatID int64) {
	c.answers.Clear(chatID)
	if err := c.rounds.SetIdle(ctx, chatID); err != nil {
		log.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to reset aborted round")
		return
	}
	log.Warn().Int64("chat_id", chatID).Msg("Round aborted and reset to idle")
}

// payout applies the round's deltas. Winners under the minimum stake get no
// payout and are reported separately; losers under the minimum stake are
// spared the penalty.
func (c *Coordinator) payout(ctx context.Context, chatID int64, winnerIDs, loserIDs []int64) (winners, bankrupts []string) {
	for _, id := range winnerIDs {
		name := c.msg.DisplayName(chatID, id)

		balance, err := c.ledger.GetBalance(ctx, chatID, id)
		if err != nil {
			log.Error().Err(err).Int64("chat_id", chatID).Int64("user_id", id).Msg("Failed to read winner balance")
			continue
		}
		if balance < c.cfg.MinStake {
			bankrupts = append(bankrupts, name)
			continue
		}

		if _, err := c.ledger.ApplyDelta(ctx, chatID, id, name, c.cfg.WinAmount, model.TxTypeLottoWin, "lottery win"); err != nil {
			log.Error().Err(err).Int64("chat_id", chatID).Int64("user_id", id).Msg("Failed to pay winner")
			continue
		}
		winners = append(winners, name)
	}

	for _, id := range loserIDs {
		balance, err := c.ledger.GetBalance(ctx, chatID, id)
		if err != nil {
			log.Error().Err(err).Int64("chat_id", chatID).Int64("user_id", id).Msg("Failed to read loser balance")
			continue
		}
		if balance < c.cfg.MinStake {
			continue
		}

		if _, err := c.ledger.ApplyDelta(ctx, chatID, id, "", -c.cfg.LoserPenalty, model.TxTypeLottoLoss, "lottery loss"); err != nil {
			log.Error().Err(err).Int64("chat_id", chatID).Int64("user_id", id).Msg("Failed to apply loser penalty")
		}
	}

	return winners, bankrupts
}

// partition splits buffered answers into winners and losers against the
// drawn value. IDs come out sorted so announcements are deterministic.
func partition(answers map[int64]int, value int) (winners, losers []int64) {
	for userID, choice := range answers {
		if choice == value {
			winners = append(winners, userID)
		} else {
			losers = append(losers, userID)
		}
	}
	sort.Slice(winners, func(i, j int) bool { return winners[i] < winners[j] })
	sort.Slice(losers, func(i, j int) bool { return losers[i] < losers[j] })
	return winners, losers
}

// announcement renders the winners message, with the players who would have
// won but could not cover the stake appended as a postscript.
func announcement(winners, bankrupts []string) string {
	var b strings.Builder

	switch len(winners) {
	case 0:
		b.WriteString("And the winner is 🥁🥁🥁... nobody 😢")
	case 1:
		fmt.Fprintf(&b, "And the winner is 🥁🥁🥁... %s 🎉", winners[0])
	default:
		fmt.Fprintf(&b, "And the winners are 🥁🥁🥁... %s and %s 🎉",
			strings.Join(winners[:len(winners)-1], ", "), winners[len(winners)-1])
	}

	switch len(bankrupts) {
	case 0:
	case 1:
		fmt.Fprintf(&b, "\n\n%s would have won too, with enough money to play", bankrupts[0])
	default:
		fmt.Fprintf(&b, "\n\n%s and %s would have won, with enough money to play",
			strings.Join(bankrupts[:len(bankrupts)-1], ", "), bankrupts[len(bankrupts)-1])
	}

	return b.String()
}

var (
	errStaleToken = errors.New("round token is stale")
	errBadDie     = errors.New("die roll outside 1-6")
)
