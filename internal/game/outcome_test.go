// Package game tests for the outcome tables.
package game

import (
	"errors"
	"testing"

	"pgregory.net/rapid"
)

func TestDecodeSlot(t *testing.T) {
	tests := []struct {
		name      string
		raw       int
		wantLeft  int
		wantMid   int
		wantRight int
	}{
		{"value 1 (0,0,0)", 1, 0, 0, 0},
		{"value 2 (0,0,1)", 2, 0, 0, 1},
		{"value 5 (0,1,0)", 5, 0, 1, 0},
		{"value 17 (1,0,0)", 17, 1, 0, 0},
		{"value 22 (1,1,1)", 22, 1, 1, 1},
		{"value 43 (2,2,2)", 43, 2, 2, 2},
		{"value 64 (3,3,3)", 64, 3, 3, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			left, middle, right := DecodeSlot(tt.raw)
			if left != tt.wantLeft || middle != tt.wantMid || right != tt.wantRight {
				t.Errorf("DecodeSlot(%d) = (%d, %d, %d), want (%d, %d, %d)",
					tt.raw, left, middle, right, tt.wantLeft, tt.wantMid, tt.wantRight)
			}
		})
	}
}

func TestSlotCategoryTotality(t *testing.T) {
	// Every slot value maps to exactly one of the four categories, and the
	// jackpot category contains exactly one value: 64.
	var jackpots, triples, pairs, baselines []int

	for raw := 1; raw <= 64; raw++ {
		out, err := Resolve(KindSlot, raw)
		if err != nil {
			t.Fatalf("Resolve(slot, %d) returned error: %v", raw, err)
		}

		switch {
		case out.Delta == SlotJackpotDelta && out.Reaction == ReactionJackpot:
			jackpots = append(jackpots, raw)
		case out.Delta == SlotTripleDelta && out.Reaction == ReactionWin:
			triples = append(triples, raw)
		case out.Delta == SlotPairDelta && out.Reaction == ReactionNearMiss:
			pairs = append(pairs, raw)
		case out.Delta == SlotBaselineDelta && out.Reaction == ReactionLoss:
			baselines = append(baselines, raw)
		default:
			t.Fatalf("Resolve(slot, %d) = %+v does not match any category", raw, out)
		}
	}

	if len(jackpots) != 1 || jackpots[0] != 64 {
		t.Errorf("jackpot values = %v, want exactly [64]", jackpots)
	}
	// 4 all-equal reel combinations, one of which is the jackpot
	if len(triples) != 3 {
		t.Errorf("triple count = %d, want 3", len(triples))
	}
	if len(jackpots)+len(triples)+len(pairs)+len(baselines) != 64 {
		t.Errorf("categories cover %d values, want 64",
			len(jackpots)+len(triples)+len(pairs)+len(baselines))
	}
}

func TestResolveTotalOnDomain(t *testing.T) {
	kinds := []Kind{KindDice, KindDarts, KindBasketball, KindFootball, KindBowling, KindSlot}

	for _, kind := range kinds {
		min, max, err := Domain(kind)
		if err != nil {
			t.Fatalf("Domain(%s) returned error: %v", kind, err)
		}

		for raw := min; raw <= max; raw++ {
			out, err := Resolve(kind, raw)
			if err != nil {
				t.Errorf("Resolve(%s, %d) returned error: %v", kind, raw, err)
			}
			if out.Reaction == "" {
				t.Errorf("Resolve(%s, %d) has empty reaction", kind, raw)
			}
			if out.RevealDelay <= 0 {
				t.Errorf("Resolve(%s, %d) has non-positive reveal delay", kind, raw)
			}
		}
	}
}

func TestResolveMonotonicReward(t *testing.T) {
	// For the simple lookup games a better raw value never pays less.
	kinds := []Kind{KindDice, KindDarts, KindBasketball, KindFootball, KindBowling}

	for _, kind := range kinds {
		min, max, _ := Domain(kind)
		prev, _ := Resolve(kind, min)
		for raw := min + 1; raw <= max; raw++ {
			out, _ := Resolve(kind, raw)
			if out.Delta < prev.Delta {
				t.Errorf("%s: delta for %d (%d) below delta for %d (%d)",
					kind, raw, out.Delta, raw-1, prev.Delta)
			}
			prev = out
		}
	}
}

func TestResolveOutOfDomain(t *testing.T) {
	tests := []struct {
		name string
		kind Kind
		raw  int
	}{
		{"dice zero", KindDice, 0},
		{"dice seven", KindDice, 7},
		{"slot zero", KindSlot, 0},
		{"slot 65", KindSlot, 65},
		{"basketball six", KindBasketball, 6},
		{"football six", KindFootball, 6},
		{"negative", KindBowling, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(tt.kind, tt.raw)
			if !errors.Is(err, ErrOutOfDomain) {
				t.Errorf("Resolve(%s, %d) error = %v, want ErrOutOfDomain", tt.kind, tt.raw, err)
			}
		})
	}
}

func TestResolveUnknownKind(t *testing.T) {
	_, err := Resolve(Kind("🃏"), 1)
	if !errors.Is(err, ErrUnknownKind) {
		t.Errorf("error = %v, want ErrUnknownKind", err)
	}
}

func TestKindOf(t *testing.T) {
	for _, emoji := range []string{"🎲", "🎯", "🏀", "⚽", "🎳", "🎰"} {
		if _, ok := KindOf(emoji); !ok {
			t.Errorf("KindOf(%q) = false, want true", emoji)
		}
	}
	if _, ok := KindOf("💣"); ok {
		t.Error("KindOf(💣) = true, want false")
	}
}

// TestSlotPairOrBaselineAlwaysLoses checks that any non-triple slot result
// costs the player exactly one coin.
func TestSlotPairOrBaselineAlwaysLoses(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		raw := rapid.IntRange(1, 64).Draw(t, "raw")
		left, middle, right := DecodeSlot(raw)
		if left == middle && middle == right {
			t.Skip("triple")
		}

		out, err := Resolve(KindSlot, raw)
		if err != nil {
			t.Fatalf("Resolve returned error: %v", err)
		}
		if out.Delta != -1 {
			t.Fatalf("Resolve(slot, %d).Delta = %d, want -1", raw, out.Delta)
		}
	})
}
