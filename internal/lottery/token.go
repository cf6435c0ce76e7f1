package lottery

import "sync"

// tokenTable tracks the live round token per chat and routes poll IDs back
// to their chat. Poll-answer events carry only the poll ID, not the chat,
// so the routing table is how an answer finds its buffer.
type tokenTable struct {
	mu     sync.Mutex
	next   uint64
	tokens map[int64]uint64 // chatID -> live token
	polls  map[string]int64 // pollID -> chatID
	byChat map[int64]string // chatID -> pollID, for cleanup
}

func newTokenTable() *tokenTable {
	return &tokenTable{
		tokens: make(map[int64]uint64),
		polls:  make(map[string]int64),
		byChat: make(map[int64]string),
	}
}

// issue registers a new live round for the chat and returns its token,
// displacing any previous registration.
func (t *tokenTable) issue(chatID int64, pollID string) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.dropLocked(chatID)

	t.next++
	t.tokens[chatID] = t.next
	t.polls[pollID] = chatID
	t.byChat[chatID] = pollID
	return t.next
}

// consume validates that token is the chat's live token and, if so, retires
// it. A false return means the round was reset or superseded.
func (t *tokenTable) consume(chatID int64, token uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	current, ok := t.tokens[chatID]
	if !ok || current != token {
		return false
	}
	t.dropLocked(chatID)
	return true
}

// invalidate retires the chat's live round, if any.
func (t *tokenTable) invalidate(chatID int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.dropLocked(chatID)
}

// hasActive reports whether the chat has a live round timer.
func (t *tokenTable) hasActive(chatID int64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, ok := t.tokens[chatID]
	return ok
}

// chatFor routes a poll ID to its chat.
func (t *tokenTable) chatFor(pollID string) (int64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	chatID, ok := t.polls[pollID]
	return chatID, ok
}

func (t *tokenTable) dropLocked(chatID int64) {
	if pollID, ok := t.byChat[chatID]; ok {
		delete(t.polls, pollID)
		delete(t.byChat, chatID)
	}
	delete(t.tokens, chatID)
}
