package session

import (
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrNotFound is returned when a session is missing, expired, or failed the
// well-formedness check.
var ErrNotFound = errors.New("session not found")

// ErrInvalidState is returned when an update would leave the session
// violating its invariants; the update is discarded.
var ErrInvalidState = errors.New("session update violates invariants")

// DefaultTTL is how long an idle session survives.
const DefaultTTL = 30 * time.Minute

// Store is an in-memory session store keyed by session ID.
//
// Each entry carries its own lock so Update gives callers an atomic
// read-modify-write per session: two simultaneous submissions from the same
// session serialize, which is what preserves the quota invariant. The outer
// lock only guards the map itself.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*entry
	ttl     time.Duration
}

type entry struct {
	mu        sync.Mutex
	sess      *Session
	expiresAt time.Time
}

// NewStore creates an empty store. ttl <= 0 falls back to DefaultTTL.
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		entries: make(map[string]*entry),
		ttl:     ttl,
	}
}

// Put stores the session, overwriting any previous state under the same ID.
func (st *Store) Put(s *Session) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.entries[s.ID] = &entry{
		sess:      s,
		expiresAt: time.Now().Add(st.ttl),
	}
}

// Get returns a snapshot copy of the session. Mutating the copy has no effect
// on stored state; use Update for that.
func (st *Store) Get(id string) (*Session, error) {
	e, err := st.lookup(id)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.sess.wellFormed() {
		return nil, ErrNotFound
	}
	return e.sess.clone(), nil
}

// Update runs fn on a working copy of the session under the per-session lock
// and commits the copy only if fn returns nil. A non-nil error discards every
// mutation fn made, so partial state can never be observed. fn may perform
// blocking work (remote calls); concurrent updates to the same session wait.
func (st *Store) Update(id string, fn func(*Session) error) error {
	e, err := st.lookup(id)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.sess.wellFormed() {
		slog.Warn("discarding malformed session", "session_id", id)
		return ErrNotFound
	}

	working := e.sess.clone()
	if err := fn(working); err != nil {
		return err
	}
	if !working.wellFormed() {
		return ErrInvalidState
	}

	working.UpdatedAt = time.Now()
	e.sess = working
	e.expiresAt = time.Now().Add(st.ttl)
	return nil
}

// Delete removes the session. Deleting an absent session is a no-op.
func (st *Store) Delete(id string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.entries, id)
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.entries)
}

// CleanupExpired removes sessions past their TTL and returns how many were
// dropped.
func (st *Store) CleanupExpired() int {
	now := time.Now()
	st.mu.Lock()
	defer st.mu.Unlock()

	removed := 0
	for id, e := range st.entries {
		if now.After(e.expiresAt) {
			delete(st.entries, id)
			removed++
		}
	}
	return removed
}

// lookup finds a live entry, treating expired entries as absent.
func (st *Store) lookup(id string) (*entry, error) {
	st.mu.RLock()
	e, ok := st.entries[id]
	st.mu.RUnlock()
	if !ok || time.Now().After(e.expiresAt) {
		return nil, ErrNotFound
	}
	return e, nil
}
