package orchestrator

import (
	"sync"
	"time"

	"github.com/mossygate/parley/pkg/world"
)

// Session is transient bookkeeping for one active actor/counterparty pair.
// Never persisted; eviction only drops the marker, never reputation or
// memory, and a fresh session is created transparently on the next turn.
type Session struct {
	Key            string
	Channel        world.Channel
	StartedAt      time.Time
	LastActivityAt time.Time
}

type sessionTable struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func newSessionTable() *sessionTable {
	return &sessionTable{sessions: make(map[string]*Session)}
}

// Touch refreshes the pair's session, creating it on first contact.
func (t *sessionTable) Touch(key string, channel world.Channel, now time.Time) *Session {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.sessions[key]
	if !ok {
		s = &Session{Key: key, Channel: channel, StartedAt: now}
		t.sessions[key] = s
	}
	s.Channel = channel
	s.LastActivityAt = now
	return s
}

// EvictStale drops sessions idle past timeout. Advisory housekeeping.
func (t *sessionTable) EvictStale(timeout time.Duration, now time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	evicted := 0
	for key, s := range t.sessions {
		if now.Sub(s.LastActivityAt) > timeout {
			delete(t.sessions, key)
			evicted++
		}
	}
	return evicted
}

func (t *sessionTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sessions)
}
