// Package guard implements CreationGuard (component C7, spec.md §4.2/§5):
// a process-local, key-based mutex preventing concurrent challenge
// creation for the same (provider, repo, issue-number). It is
// deliberately NOT backed by Redis or any remote store — spec.md §5
// requires a crash to recover purely via retry, never via a held remote
// lock that would survive the process restart.
package guard

import (
	"fmt"
	"sync"
)

// KeyedMutex is a map of per-key mutexes with reference counting so idle
// keys are garbage collected instead of accumulating forever.
type KeyedMutex struct {
	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	mu       sync.Mutex
	refCount int
}

// NewKeyedMutex builds an empty KeyedMutex.
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{entries: make(map[string]*entry)}
}

// Key builds the "{provider}-{repositoryId}-{number}" guard key (spec.md §4.2).
func Key(provider string, repositoryID uint64, number int) string {
	return fmt.Sprintf("%s-%d-%d", provider, repositoryID, number)
}

// TryLock attempts to acquire key without blocking. Returns false if
// already held — the caller translates that into CreationInProgress.
func (k *KeyedMutex) TryLock(key string) bool {
	k.mu.Lock()
	e, ok := k.entries[key]
	if !ok {
		e = &entry{}
		k.entries[key] = e
	}
	e.refCount++
	k.mu.Unlock()

	if e.mu.TryLock() {
		return true
	}

	k.release(key, e)
	return false
}

// Unlock releases key. Must be called exactly once per successful TryLock,
// on every exit path (success, caught failure, unexpected failure) per
// spec.md §4.2.
func (k *KeyedMutex) Unlock(key string) {
	k.mu.Lock()
	e, ok := k.entries[key]
	k.mu.Unlock()
	if !ok {
		return
	}
	e.mu.Unlock()
	k.release(key, e)
}

func (k *KeyedMutex) release(key string, e *entry) {
	k.mu.Lock()
	defer k.mu.Unlock()
	e.refCount--
	if e.refCount <= 0 {
		delete(k.entries, key)
	}
}

// HeldCount reports how many distinct keys currently have an entry (held
// or mid-acquisition), for the admin status surface (SPEC_FULL.md §4.8).
func (k *KeyedMutex) HeldCount() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.entries)
}
