package main

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrStateNotFound is returned when no saved state exists for a session.
var ErrStateNotFound = errors.New("session state not found")

// StateStore persists the serialized workspace of a session. Saved
// states expire after the store's ttl. Purge drops the expired states
// and returns how many were removed.
type StateStore interface {
	Load(ctx context.Context, sessionID string) ([]byte, error)
	Save(ctx context.Context, sessionID string, state []byte) error
	Delete(ctx context.Context, sessionID string) error
	Purge(ctx context.Context) (int, error)
}

var _ StateStore = (*memoryStateStore)(nil)

type memoryEntry struct {
	state   []byte
	expires time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expires.IsZero() && !now.Before(e.expires)
}

type memoryStateStore struct {
	mu      sync.Mutex
	clock   Clocker
	ttl     time.Duration
	entries map[string]memoryEntry
}

// NewMemoryStateStore provides a process local state store. A zero ttl
// keeps states forever.
func NewMemoryStateStore(clock Clocker, ttl time.Duration) StateStore {
	return &memoryStateStore{clock: clock, ttl: ttl, entries: make(map[string]memoryEntry)}
}

func (ms *memoryStateStore) Load(_ context.Context, sessionID string) ([]byte, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	entry, ok := ms.entries[sessionID]
	if !ok {
		return nil, ErrStateNotFound
	}
	if entry.expired(ms.clock.Now()) {
		delete(ms.entries, sessionID)
		return nil, ErrStateNotFound
	}
	return append([]byte(nil), entry.state...), nil
}

func (ms *memoryStateStore) Save(_ context.Context, sessionID string, state []byte) error {
	entry := memoryEntry{state: append([]byte(nil), state...)}
	if ms.ttl > 0 {
		entry.expires = ms.clock.Now().Add(ms.ttl)
	}
	ms.mu.Lock()
	ms.entries[sessionID] = entry
	ms.mu.Unlock()
	return nil
}

func (ms *memoryStateStore) Delete(_ context.Context, sessionID string) error {
	ms.mu.Lock()
	delete(ms.entries, sessionID)
	ms.mu.Unlock()
	return nil
}

func (ms *memoryStateStore) Purge(_ context.Context) (int, error) {
	now := ms.clock.Now()
	ms.mu.Lock()
	defer ms.mu.Unlock()
	removed := 0
	for id, entry := range ms.entries {
		if entry.expired(now) {
			delete(ms.entries, id)
			removed++
		}
	}
	return removed, nil
}
