// Package game maps Telegram dice-emoji results to outcomes.
//
// Every mapping is a pure, total function on a fixed raw-value domain.
// Telegram reports the animation result as an integer: 1-6 for the dice,
// darts and bowling emojis, 1-5 for basketball and football, 1-64 for the
// slot machine.
package game

import (
	"errors"
	"fmt"
	"time"
)

// Kind identifies a dice-emoji game. Values match the emoji Telegram uses
// as the dice type, so a Message.Dice.Type converts directly.
type Kind string

const (
	KindDice       Kind = "🎲"
	KindDarts      Kind = "🎯"
	KindBasketball Kind = "🏀"
	KindFootball   Kind = "⚽"
	KindBowling    Kind = "🎳"
	KindSlot       Kind = "🎰"
)

// Reaction emojis set on the triggering message once the outcome is known.
const (
	ReactionJackpot  = "🔥"
	ReactionWin      = "🎉"
	ReactionNearMiss = "😢"
	ReactionLoss     = "🥱"
)

// ErrOutOfDomain reports a raw value outside the game's declared domain.
// It indicates a broken event contract, not a recoverable user error.
var ErrOutOfDomain = errors.New("raw value out of game domain")

// ErrUnknownKind reports an emoji that is not a supported game.
var ErrUnknownKind = errors.New("unknown game kind")

// Outcome is the resolved result of a throw: the reaction to show, the
// score delta to apply, and how long to wait before revealing the reaction.
type Outcome struct {
	Reaction    string
	Delta       int64
	RevealDelay time.Duration
}

// Reveal delays per game kind, roughly tracking the length of each
// Telegram animation so the reaction lands after the suspense.
const (
	slotRevealDelay       = 2 * time.Second
	diceRevealDelay       = 3 * time.Second
	dartsRevealDelay      = 3 * time.Second
	basketballRevealDelay = 4 * time.Second
	footballRevealDelay   = 4 * time.Second
	bowlingRevealDelay    = 3 * time.Second
)

// fixed lookup tables: raw value -> (reaction, delta).
// Better values always pay at least as much as worse ones.
var (
	diceTable = map[int]Outcome{
		1: {ReactionNearMiss, -5, diceRevealDelay},
		2: {ReactionLoss, -2, diceRevealDelay},
		3: {ReactionLoss, -1, diceRevealDelay},
		4: {ReactionWin, 1, diceRevealDelay},
		5: {ReactionWin, 3, diceRevealDelay},
		6: {ReactionJackpot, 10, diceRevealDelay},
	}

	dartsTable = map[int]Outcome{
		1: {ReactionNearMiss, -5, dartsRevealDelay}, // missed the board
		2: {ReactionLoss, -2, dartsRevealDelay},
		3: {ReactionLoss, -1, dartsRevealDelay},
		4: {ReactionWin, 2, dartsRevealDelay},
		5: {ReactionWin, 5, dartsRevealDelay},
		6: {ReactionJackpot, 15, dartsRevealDelay}, // bullseye
	}

	basketballTable = map[int]Outcome{
		1: {ReactionNearMiss, -2, basketballRevealDelay},
		2: {ReactionLoss, -2, basketballRevealDelay},
		3: {ReactionLoss, -1, basketballRevealDelay}, // stuck on the rim
		4: {ReactionWin, 5, basketballRevealDelay},
		5: {ReactionJackpot, 10, basketballRevealDelay},
	}

	footballTable = map[int]Outcome{
		1: {ReactionNearMiss, -2, footballRevealDelay},
		2: {ReactionLoss, -1, footballRevealDelay},
		3: {ReactionWin, 4, footballRevealDelay},
		4: {ReactionWin, 6, footballRevealDelay},
		5: {ReactionJackpot, 10, footballRevealDelay},
	}

	bowlingTable = map[int]Outcome{
		1: {ReactionNearMiss, -5, bowlingRevealDelay}, // gutter
		2: {ReactionLoss, -2, bowlingRevealDelay},
		3: {ReactionLoss, -1, bowlingRevealDelay},
		4: {ReactionWin, 3, bowlingRevealDelay},
		5: {ReactionWin, 6, bowlingRevealDelay},
		6: {ReactionJackpot, 12, bowlingRevealDelay}, // strike
	}

	tables = map[Kind]map[int]Outcome{
		KindDice:       diceTable,
		KindDarts:      dartsTable,
		KindBasketball: basketballTable,
		KindFootball:   footballTable,
		KindBowling:    bowlingTable,
	}
)

// Slot machine deltas. The slot value encodes three 2-bit reels; the top
// symbol on all three reels (raw 64) is the jackpot.
const (
	SlotJackpotDelta  int64 = 30
	SlotTripleDelta   int64 = 10
	SlotPairDelta     int64 = -1
	SlotBaselineDelta int64 = -1
)

// KindOf converts a Telegram dice emoji to a Kind.
func KindOf(emoji string) (Kind, bool) {
	switch Kind(emoji) {
	case KindDice, KindDarts, KindBasketball, KindFootball, KindBowling, KindSlot:
		return Kind(emoji), true
	default:
		return "", false
	}
}

// Domain returns the inclusive raw-value domain for a kind.
func Domain(kind Kind) (min, max int, err error) {
	switch kind {
	case KindSlot:
		return 1, 64, nil
	case KindBasketball, KindFootball:
		return 1, 5, nil
	case KindDice, KindDarts, KindBowling:
		return 1, 6, nil
	default:
		return 0, 0, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

// Resolve maps a game kind and raw animation value to an outcome.
// Values outside the kind's domain return ErrOutOfDomain.
func Resolve(kind Kind, raw int) (Outcome, error) {
	min, max, err := Domain(kind)
	if err != nil {
		return Outcome{}, err
	}
	if raw < min || raw > max {
		return Outcome{}, fmt.Errorf("%w: %s value %d not in [%d,%d]", ErrOutOfDomain, kind, raw, min, max)
	}

	if kind == KindSlot {
		return resolveSlot(raw), nil
	}

	return tables[kind][raw], nil
}

// DecodeSlot decodes a slot value (1-64) into its three reels (0-3 each).
// The raw value minus one packs the reels into three 2-bit fields.
func DecodeSlot(raw int) (left, middle, right int) {
	value := raw - 1
	left = (value >> 4) & 0b11
	middle = (value >> 2) & 0b11
	right = value & 0b11
	return left, middle, right
}

// resolveSlot classifies a slot value into one of four outcome categories:
// jackpot (all reels on the top symbol), triple, pair, baseline.
func resolveSlot(raw int) Outcome {
	left, middle, right := DecodeSlot(raw)

	switch {
	case left == 3 && middle == 3 && right == 3:
		return Outcome{ReactionJackpot, SlotJackpotDelta, slotRevealDelay}
	case left == middle && left == right:
		return Outcome{ReactionWin, SlotTripleDelta, slotRevealDelay}
	case left == middle || middle == right || left == right:
		return Outcome{ReactionNearMiss, SlotPairDelta, slotRevealDelay}
	default:
		return Outcome{ReactionLoss, SlotBaselineDelta, slotRevealDelay}
	}
}
