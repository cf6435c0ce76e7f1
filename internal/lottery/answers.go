// Package lottery implements the poll-based lottery round: state machine,
// pending answer collection and the coordinator that runs a round end to end.
package lottery

import "sync"

// AnswerBuffer collects poll answers while a round is open. It is shared
// between the poll-answer event path and the round-closing task, so all
// access goes through one mutex held only for the duration of a single
// insert, remove or snapshot, never across a network call.
//
// The buffer is in-memory only: answers from a round interrupted by a
// restart are lost, which matches the poll being stopped on close anyway.
type AnswerBuffer struct {
	mu    sync.Mutex
	chats map[int64]map[int64]int // chatID -> userID -> chosen number (1-6)
}

// NewAnswerBuffer creates an empty buffer.
func NewAnswerBuffer() *AnswerBuffer {
	return &AnswerBuffer{
		chats: make(map[int64]map[int64]int),
	}
}

// Put records a player's chosen number, replacing any previous choice.
func (b *AnswerBuffer) Put(chatID, userID int64, choice int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	answers, ok := b.chats[chatID]
	if !ok {
		answers = make(map[int64]int)
		b.chats[chatID] = answers
	}
	answers[userID] = choice
}

// Retract removes a player's answer (vote retraction).
func (b *AnswerBuffer) Retract(chatID, userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if answers, ok := b.chats[chatID]; ok {
		delete(answers, userID)
	}
}

// Clear drops all buffered answers for a chat. Called when a new round
// opens so no stale entry from a previous round can leak in.
func (b *AnswerBuffer) Clear(chatID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.chats, chatID)
}

// SnapshotAndClear atomically returns the chat's answers and empties the
// buffer. An insert arriving concurrently lands either in the snapshot or
// in the fresh buffer, never both and never lost.
func (b *AnswerBuffer) SnapshotAndClear(chatID int64) map[int64]int {
	b.mu.Lock()
	defer b.mu.Unlock()

	answers := b.chats[chatID]
	delete(b.chats, chatID)
	if answers == nil {
		return map[int64]int{}
	}
	return answers
}

// Len returns how many players currently have an answer buffered.
func (b *AnswerBuffer) Len(chatID int64) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.chats[chatID])
}
