// Package lock provides keyed locking for concurrent state mutation.
// Ledger writes take the lock for the player's user ID; lottery round
// transitions take it for the chat ID.
package lock

import (
	"sync"
)

// keyedMutex wraps a mutex stored per key.
type keyedMutex struct {
	mu sync.Mutex
}

// KeyedLock provides per-key locking to prevent race conditions during
// read-modify-write sequences that span the database.
type KeyedLock struct {
	locks sync.Map // map[int64]*keyedMutex
	pool  sync.Pool
}

// New creates a new KeyedLock instance.
func New() *KeyedLock {
	return &KeyedLock{
		pool: sync.Pool{
			New: func() any {
				return &keyedMutex{}
			},
		},
	}
}

// getLock retrieves or creates a mutex for the given key.
func (kl *KeyedLock) getLock(key int64) *keyedMutex {
	if v, ok := kl.locks.Load(key); ok {
		return v.(*keyedMutex)
	}

	newLock := kl.pool.Get().(*keyedMutex)

	actual, loaded := kl.locks.LoadOrStore(key, newLock)
	if loaded {
		// Another goroutine created the lock first, return ours to pool
		kl.pool.Put(newLock)
	}
	return actual.(*keyedMutex)
}

// Lock acquires the lock for a key.
func (kl *KeyedLock) Lock(key int64) {
	kl.getLock(key).mu.Lock()
}

// Unlock releases the lock for a key.
func (kl *KeyedLock) Unlock(key int64) {
	if v, ok := kl.locks.Load(key); ok {
		v.(*keyedMutex).mu.Unlock()
	}
}

// WithLock executes a function while holding the key's lock.
func (kl *KeyedLock) WithLock(key int64, fn func() error) error {
	kl.Lock(key)
	defer kl.Unlock(key)
	return fn()
}
