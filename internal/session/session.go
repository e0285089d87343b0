// Package session keeps one viewer's ephemeral view state per browser.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rewired-gh/polysoccer/internal/catalog"
	"github.com/rewired-gh/polysoccer/internal/logger"
	"github.com/rewired-gh/polysoccer/internal/pricehistory"
)

// Session is one viewer's filter, page and detail-view state.
// Hold the embedded mutex while touching any field.
type Session struct {
	sync.Mutex
	ID        string
	View      *catalog.Controller
	Detail    pricehistory.DetailView
	Formatter pricehistory.Formatter

	lastSeen time.Time
}

// Manager owns all sessions over a shared catalog store.
type Manager struct {
	store       *catalog.Store
	pageSize    int
	ttl         time.Duration
	maxSessions int
	now         func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates a manager. Sessions idle longer than ttl are swept;
// when maxSessions is reached the least recently seen session is evicted.
func NewManager(store *catalog.Store, pageSize int, ttl time.Duration, maxSessions int) *Manager {
	return &Manager{
		store:       store,
		pageSize:    pageSize,
		ttl:         ttl,
		maxSessions: maxSessions,
		now:         time.Now,
		sessions:    make(map[string]*Session),
	}
}

// Get returns the session for id and marks it as seen.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if ok {
		s.lastSeen = m.now()
	}
	return s, ok
}

// GetOrCreate returns the session for id, or a fresh one when id is unknown.
// created reports whether a new session was made.
func (m *Manager) GetOrCreate(id string) (s *Session, created bool) {
	if s, ok := m.Get(id); ok {
		return s, false
	}
	return m.Create(), true
}

// Create starts a new session on page 1 with no filters.
func (m *Manager) Create() *Session {
	s := &Session{
		ID:   uuid.NewString(),
		View: catalog.NewController(m.store, m.pageSize),
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.maxSessions > 0 && len(m.sessions) >= m.maxSessions {
		m.evictOldestLocked()
	}
	s.lastSeen = m.now()
	m.sessions[s.ID] = s
	return s
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep removes sessions idle longer than the ttl and returns how many were removed.
func (m *Manager) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := m.now().Add(-m.ttl)
	removed := 0
	for id, s := range m.sessions {
		if s.lastSeen.Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// Run sweeps every interval until ctx is cancelled.
func (m *Manager) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				logger.Debug("Swept %d idle sessions, %d remaining", n, m.Len())
			}
		}
	}
}

func (m *Manager) evictOldestLocked() {
	var oldestID string
	var oldest time.Time
	for id, s := range m.sessions {
		if oldestID == "" || s.lastSeen.Before(oldest) {
			oldestID, oldest = id, s.lastSeen
		}
	}
	if oldestID != "" {
		delete(m.sessions, oldestID)
		logger.Warn("Session limit %d reached, evicted %s", m.maxSessions, oldestID)
	}
}
