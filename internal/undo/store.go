// Package undo implements the time-boxed undo token store.
//
// A token identifies the set of entities affected by a reversible bulk
// action. Tokens are single-use: Pop removes and returns the entry, and
// under concurrent redemption exactly one caller observes it. Entries
// expire after their TTL; expired entries are swept lazily on every store
// access and by the periodic Collect maintenance call, so an expired but
// unaccessed entry may transiently linger. That staleness is bounded and
// never observable through Peek or Pop.
package undo

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"sync"
	"time"
)

// tokenBytes is the entropy of a generated token. 24 bytes of a
// cryptographically strong source, URL-safe encoded, resists guessing.
const tokenBytes = 24

// Store is the undo token store contract.
type Store interface {
	// Create stores ids under a fresh token that expires after ttl.
	Create(ctx context.Context, ids []string, ttl time.Duration) (token string, expiresAt time.Time, err error)

	// Pop atomically removes and returns the ids for token. ok is false
	// if the token is unknown, already consumed, or expired.
	Pop(ctx context.Context, token string) (ids []string, ok bool)

	// Peek returns the ids without consuming the token, for display.
	Peek(ctx context.Context, token string) (ids []string, ok bool)

	// Collect removes expired entries and returns how many were dropped.
	Collect(ctx context.Context) int
}

type entry struct {
	ids       []string
	expiresAt time.Time
}

// MemoryStore is a process-wide, goroutine-safe Store backed by a map.
// It starts empty and offers no persistence across restarts; multi-instance
// deployments should use RedisStore instead.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]entry

	// now is swappable for tests.
	now func() time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

func (s *MemoryStore) Create(ctx context.Context, ids []string, ttl time.Duration) (string, time.Time, error) {
	token, err := newToken()
	if err != nil {
		return "", time.Time{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()

	expiresAt := s.now().Add(ttl)

	// Copy so later caller mutations don't leak into the store.
	stored := make([]string, len(ids))
	copy(stored, ids)

	s.entries[token] = entry{ids: stored, expiresAt: expiresAt}
	return token, expiresAt, nil
}

func (s *MemoryStore) Pop(ctx context.Context, token string) ([]string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()

	e, ok := s.entries[token]
	if !ok {
		return nil, false
	}
	delete(s.entries, token)
	return e.ids, true
}

func (s *MemoryStore) Peek(ctx context.Context, token string) ([]string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()

	e, ok := s.entries[token]
	if !ok {
		return nil, false
	}
	ids := make([]string, len(e.ids))
	copy(ids, e.ids)
	return ids, true
}

func (s *MemoryStore) Collect(ctx context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweepLocked()
}

// sweepLocked removes expired entries. Callers must hold mu, which also
// serializes sweeping against concurrent pops.
func (s *MemoryStore) sweepLocked() int {
	now := s.now()
	removed := 0
	for token, e := range s.entries {
		if !e.expiresAt.After(now) {
			delete(s.entries, token)
			removed++
		}
	}
	return removed
}

func newToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
