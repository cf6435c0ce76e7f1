package handler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v3"

	"telegram-loto-bot/internal/config"
	"telegram-loto-bot/internal/game"
	"telegram-loto-bot/internal/model"
	"telegram-loto-bot/internal/pkg/lock"
)

// diceContext implements only the parts of tele.Context HandleDice touches;
// everything else panics via the embedded nil interface.
type diceContext struct {
	tele.Context
	sender  *tele.User
	chat    *tele.Chat
	message *tele.Message

	deleted bool
	sent    []string
	replies []string
}

func (c *diceContext) Sender() *tele.User   { return c.sender }
func (c *diceContext) Chat() *tele.Chat     { return c.chat }
func (c *diceContext) Message() *tele.Message { return c.message }

func (c *diceContext) Delete() error {
	c.deleted = true
	return nil
}

func (c *diceContext) Send(what interface{}, _ ...interface{}) error {
	if s, ok := what.(string); ok {
		c.sent = append(c.sent, s)
	}
	return nil
}

func (c *diceContext) Reply(what interface{}, _ ...interface{}) error {
	if s, ok := what.(string); ok {
		c.replies = append(c.replies, s)
	}
	return nil
}

type appliedDelta struct {
	chatID int64
	userID int64
	delta  int64
	txType string
}

type fakeGameLedger struct {
	mu       sync.Mutex
	balances map[int64]int64
	deltas   []appliedDelta
}

func newFakeGameLedger() *fakeGameLedger {
	return &fakeGameLedger{balances: make(map[int64]int64)}
}

func (l *fakeGameLedger) GetBalance(_ context.Context, _, userID int64) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[userID], nil
}

func (l *fakeGameLedger) ApplyDelta(_ context.Context, chatID, userID int64, _ string, delta int64, txType string, _ string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[userID] += delta
	l.deltas = append(l.deltas, appliedDelta{chatID: chatID, userID: userID, delta: delta, txType: txType})
	return l.balances[userID], nil
}

type recordedStat struct {
	game  string
	value int
}

type fakeGameStats struct {
	mu      sync.Mutex
	records []recordedStat
}

func (s *fakeGameStats) Record(_ context.Context, _ int64, game string, value int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, recordedStat{game: game, value: value})
}

func (s *fakeGameStats) ByGame(_ context.Context, _ int64, _ string) ([]*model.GameStat, error) {
	return nil, nil
}

// fakeReactor records reactions and plays back a scripted error per call.
type fakeReactor struct {
	mu      sync.Mutex
	errs    []error
	calls   int
	reacted chan string
}

func newFakeReactor(errs ...error) *fakeReactor {
	return &fakeReactor{errs: errs, reacted: make(chan string, 8)}
}

func (r *fakeReactor) React(_ int64, _ int, emoji string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if len(r.errs) > 0 {
		err := r.errs[0]
		r.errs = r.errs[1:]
		if err != nil {
			return err
		}
	}
	r.reacted <- emoji
	return nil
}

func (r *fakeReactor) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func newTestGameHandler(ledger *fakeGameLedger, stats *fakeGameStats, reactor *fakeReactor) *GameHandler {
	cfg := &config.Config{}
	cfg.Games.MinStake = 1

	h := NewGameHandler(cfg, ledger, stats, reactor, lock.New())
	h.sleep = func(time.Duration) {}
	return h
}

func throwContext(userID int64, diceType string, value int) *diceContext {
	return &diceContext{
		sender: &tele.User{ID: userID, Username: "alice"},
		chat:   &tele.Chat{ID: -100},
		message: &tele.Message{
			ID:   7,
			Dice: &tele.Dice{Type: tele.DiceType(diceType), Value: value},
		},
	}
}

func TestHandleDiceScoresThrow(t *testing.T) {
	ledger := newFakeGameLedger()
	ledger.balances[1] = 1000
	stats := &fakeGameStats{}
	reactor := newFakeReactor()
	h := newTestGameHandler(ledger, stats, reactor)

	c := throwContext(1, "🎲", 6)
	require.NoError(t, h.HandleDice(c))

	require.Len(t, ledger.deltas, 1)
	assert.Equal(t, int64(10), ledger.deltas[0].delta)
	assert.Equal(t, model.TxTypeGame, ledger.deltas[0].txType)
	assert.Equal(t, int64(1010), ledger.balances[1])

	require.Len(t, stats.records, 1)
	assert.Equal(t, recordedStat{game: "🎲", value: 6}, stats.records[0])

	assert.False(t, c.deleted)
	assert.Empty(t, c.sent)

	select {
	case emoji := <-reactor.reacted:
		assert.Equal(t, game.ReactionJackpot, emoji)
	case <-time.After(2 * time.Second):
		t.Fatal("no reaction arrived")
	}
}

func TestHandleDiceBrokePlayerRejected(t *testing.T) {
	ledger := newFakeGameLedger()
	// Below the minimum stake of 1.
	ledger.balances[1] = 0
	stats := &fakeGameStats{}
	reactor := newFakeReactor()
	h := newTestGameHandler(ledger, stats, reactor)

	c := throwContext(1, "🎲", 6)
	require.NoError(t, h.HandleDice(c))

	// The throw is deleted and scolded, the ledger stays untouched.
	assert.True(t, c.deleted)
	require.Len(t, c.sent, 1)
	assert.Contains(t, c.sent[0], "enough to play")
	assert.Empty(t, ledger.deltas)
	assert.Empty(t, stats.records)
	assert.Zero(t, reactor.callCount())
}

func TestHandleDiceForwardedIgnored(t *testing.T) {
	ledger := newFakeGameLedger()
	ledger.balances[1] = 1000
	stats := &fakeGameStats{}
	reactor := newFakeReactor()
	h := newTestGameHandler(ledger, stats, reactor)

	c := throwContext(1, "🎰", 64)
	c.message.OriginalSender = &tele.User{ID: 99}
	require.NoError(t, h.HandleDice(c))

	assert.Empty(t, ledger.deltas)
	assert.Empty(t, stats.records)
	assert.False(t, c.deleted)
	assert.Zero(t, reactor.callCount())
}

func TestReactLaterRetriesOnFlood(t *testing.T) {
	floodErr := tele.FloodError{
		RetryAfter: 1,
	}
	reactor := newFakeReactor(floodErr, nil)
	h := newTestGameHandler(newFakeGameLedger(), &fakeGameStats{}, reactor)

	out, err := game.Resolve(game.KindDice, 6)
	require.NoError(t, err)

	h.reactLater(-100, 7, out)

	assert.Equal(t, 2, reactor.callCount())
	select {
	case emoji := <-reactor.reacted:
		assert.Equal(t, out.Reaction, emoji)
	default:
		t.Fatal("retry did not deliver the reaction")
	}
}

func TestReactLaterGivesUpAfterRetries(t *testing.T) {
	floodErr := tele.FloodError{
		RetryAfter: 1,
	}
	reactor := newFakeReactor(floodErr, floodErr, floodErr, floodErr)
	h := newTestGameHandler(newFakeGameLedger(), &fakeGameStats{}, reactor)

	out, err := game.Resolve(game.KindDice, 6)
	require.NoError(t, err)

	h.reactLater(-100, 7, out)

	assert.Equal(t, reactRetries, reactor.callCount())
	select {
	case <-reactor.reacted:
		t.Fatal("reaction delivered despite persistent flood errors")
	default:
	}
}

func TestReactLaterStopsOnHardError(t *testing.T) {
	reactor := newFakeReactor(errors.New("message to react not found"))
	h := newTestGameHandler(newFakeGameLedger(), &fakeGameStats{}, reactor)

	out, err := game.Resolve(game.KindSlot, 64)
	require.NoError(t, err)

	h.reactLater(-100, 7, out)

	// A non-flood error is not retried.
	assert.Equal(t, 1, reactor.callCount())
}
