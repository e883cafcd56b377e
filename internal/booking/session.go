package booking

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"salonbook/internal/metrics"
)

// Factory builds a wizard for a new session id.
type Factory func(id string, entry Entry, clientID string) *Wizard

// SessionStore manages booking sessions.
type SessionStore struct {
	sessions map[string]*Wizard
	mu       sync.RWMutex
	timeout  time.Duration
	factory  Factory
}

// NewSessionStore creates a new session store.
func NewSessionStore(timeout time.Duration, factory Factory) *SessionStore {
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}
	return &SessionStore{
		sessions: make(map[string]*Wizard),
		timeout:  timeout,
		factory:  factory,
	}
}

// Create opens a new session.
func (ss *SessionStore) Create(entry Entry, clientID string) *Wizard {
	w := ss.factory(uuid.NewString(), entry, clientID)

	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.sessions[w.ID()] = w
	metrics.SetActiveSessions(len(ss.sessions))
	return w
}

// Get returns a live session.
func (ss *SessionStore) Get(id string) (*Wizard, bool) {
	ss.mu.RLock()
	w, ok := ss.sessions[id]
	ss.mu.RUnlock()
	if !ok || w.IsExpired(ss.timeout) {
		return nil, false
	}
	return w, true
}

// Delete closes and removes a session.
func (ss *SessionStore) Delete(id string) {
	ss.mu.Lock()
	w, ok := ss.sessions[id]
	delete(ss.sessions, id)
	metrics.SetActiveSessions(len(ss.sessions))
	ss.mu.Unlock()

	if ok {
		w.Close()
	}
}

// Len returns the number of held sessions.
func (ss *SessionStore) Len() int {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	return len(ss.sessions)
}

// Cleanup closes and removes expired sessions.
func (ss *SessionStore) Cleanup() int {
	ss.mu.Lock()
	var expired []*Wizard
	for id, w := range ss.sessions {
		if w.IsExpired(ss.timeout) {
			delete(ss.sessions, id)
			expired = append(expired, w)
		}
	}
	metrics.SetActiveSessions(len(ss.sessions))
	ss.mu.Unlock()

	for _, w := range expired {
		w.Close()
	}
	return len(expired)
}

// Run calls Cleanup every interval until ctx is done.
func (ss *SessionStore) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ss.Cleanup()
		}
	}
}
