package ui

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
)

const (
	sessionName  = "samajh"
	sessionIDKey = "sid"
)

type sessionEntry struct {
	state State
	seen  time.Time
}

// sessionStates maps cookie session ids to server-side dashboard state.
// Tables stay in memory; the cookie only carries the id.
type sessionStates struct {
	store  sessions.Store
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger

	mu      sync.Mutex
	entries map[string]*sessionEntry
}

func newSessionStates(store sessions.Store, ttl time.Duration, logger *slog.Logger) *sessionStates {
	return &sessionStates{
		store:   store,
		ttl:     ttl,
		now:     time.Now,
		logger:  logger,
		entries: map[string]*sessionEntry{},
	}
}

// id returns the caller's session id, issuing a new cookie when there is none.
// Every call re-saves the cookie so its expiry slides with activity.
func (s *sessionStates) id(w http.ResponseWriter, r *http.Request) (string, error) {
	// A cookie signed with an old secret decodes with an error but still
	// yields a fresh session to fill in.
	sess, _ := s.store.Get(r, sessionName)
	id, ok := sess.Values[sessionIDKey].(string)
	if !ok || id == "" {
		id = uuid.NewString()
		sess.Values[sessionIDKey] = id
		s.logger.Debug("new dashboard session", "session", id)
	}
	if err := sess.Save(r, w); err != nil {
		return "", err
	}
	return id, nil
}

// get returns the session's state; unknown or evicted ids start empty.
func (s *sessionStates) get(id string) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return State{View: ViewOverview}
	}
	e.seen = s.now()
	return e.state
}

func (s *sessionStates) put(id string, st State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[id] = &sessionEntry{state: st, seen: s.now()}
}

// evict drops sessions idle for longer than the ttl and reports how many went.
func (s *sessionStates) evict() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := s.now().Add(-s.ttl)
	n := 0
	for id, e := range s.entries {
		if e.seen.Before(cutoff) {
			delete(s.entries, id)
			n++
		}
	}
	return n
}

func (s *sessionStates) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// janitor evicts idle sessions until ctx is done.
func (s *sessionStates) janitor(ctx context.Context) error {
	interval := s.ttl / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := s.evict(); n > 0 {
				s.logger.Info("evicted idle sessions", "count", n, "remaining", s.len())
			}
		}
	}
}
