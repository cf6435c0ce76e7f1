package lottery

import (
	"sync"
	"testing"

	"pgregory.net/rapid"
)

func TestAnswerBufferUpsertAndRetract(t *testing.T) {
	b := NewAnswerBuffer()

	b.Put(1, 100, 3)
	b.Put(1, 100, 5) // re-vote replaces
	b.Put(1, 200, 2)
	b.Retract(1, 200)

	got := b.SnapshotAndClear(1)
	if len(got) != 1 || got[100] != 5 {
		t.Fatalf("snapshot = %v, want map[100:5]", got)
	}
	if b.Len(1) != 0 {
		t.Fatalf("buffer not empty after snapshot, len = %d", b.Len(1))
	}
}

func TestAnswerBufferChatsAreIndependent(t *testing.T) {
	b := NewAnswerBuffer()

	b.Put(1, 100, 3)
	b.Put(2, 100, 6)
	b.Clear(1)

	if b.Len(1) != 0 {
		t.Fatal("chat 1 not cleared")
	}
	if got := b.SnapshotAndClear(2); got[100] != 6 {
		t.Fatalf("chat 2 snapshot = %v, want map[100:6]", got)
	}
}

// TestAnswerBufferConcurrentWriters hammers the buffer with 50 concurrent
// inserts and retractions: the snapshot must hold exactly the net state and
// the buffer must come out empty.
func TestAnswerBufferConcurrentWriters(t *testing.T) {
	const chatID = int64(42)
	b := NewAnswerBuffer()

	var wg sync.WaitGroup
	wg.Add(50)
	for i := 0; i < 50; i++ {
		go func(i int) {
			defer wg.Done()
			userID := int64(i % 10)
			if i%5 == 0 {
				b.Retract(chatID, userID)
			} else {
				b.Put(chatID, userID, (i%6)+1)
			}
		}(i)
	}
	wg.Wait()

	snapshot := b.SnapshotAndClear(chatID)
	if b.Len(chatID) != 0 {
		t.Fatalf("buffer not empty after snapshot, len = %d", b.Len(chatID))
	}
	for userID, choice := range snapshot {
		if userID < 0 || userID > 9 {
			t.Errorf("unexpected user %d in snapshot", userID)
		}
		if choice < 1 || choice > 6 {
			t.Errorf("user %d has out-of-range choice %d", userID, choice)
		}
	}
}

// TestAnswerBufferNetStateProperty replays a random sequence of puts and
// retractions and checks the snapshot equals the sequentially computed net
// state.
func TestAnswerBufferNetStateProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		chatID := rapid.Int64Range(1, 1000).Draw(t, "chatID")
		numOps := rapid.IntRange(1, 100).Draw(t, "numOps")

		b := NewAnswerBuffer()
		expected := make(map[int64]int)

		for i := 0; i < numOps; i++ {
			userID := rapid.Int64Range(1, 8).Draw(t, "userID")
			if rapid.Bool().Draw(t, "retract") {
				b.Retract(chatID, userID)
				delete(expected, userID)
			} else {
				choice := rapid.IntRange(1, 6).Draw(t, "choice")
				b.Put(chatID, userID, choice)
				expected[userID] = choice
			}
		}

		got := b.SnapshotAndClear(chatID)
		if len(got) != len(expected) {
			t.Fatalf("snapshot has %d entries, want %d", len(got), len(expected))
		}
		for userID, choice := range expected {
			if got[userID] != choice {
				t.Fatalf("user %d: snapshot choice %d, want %d", userID, got[userID], choice)
			}
		}
	})
}
