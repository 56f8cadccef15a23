package app

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/numberdesk/numberdesk/internal/number_service/cache"
	"github.com/numberdesk/numberdesk/internal/number_service/domain"
)

// Session is one user interaction sequence. It owns the selected
// organization/provider pair and the cache of fetched listings; all of it is
// discarded when the session ends.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu           sync.Mutex
	organization string
	provider     string
	cache        *cache.SessionCache[domain.PhoneNumberRecord]
}

// Selection returns the currently selected organization and provider.
func (s *Session) Selection() (org string, provider string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.organization, s.provider
}

// Cache exposes the session's listing cache.
func (s *Session) Cache() *cache.SessionCache[domain.PhoneNumberRecord] {
	return s.cache
}

// SessionManager tracks live sessions by id.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewSessionManager returns an empty session table.
func NewSessionManager() *SessionManager {
	return &SessionManager{sessions: make(map[string]*Session)}
}

// Create starts a new session with a fresh id and empty cache.
func (m *SessionManager) Create() *Session {
	s := &Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
		cache:     cache.New[domain.PhoneNumberRecord](),
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	activeSessionsGauge.Set(float64(len(m.sessions)))
	return s
}

// Get returns the session for id.
func (m *SessionManager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
	}
	return s, nil
}

// End discards a session and everything it cached.
func (m *SessionManager) End(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		s.cache.ClearAll()
		delete(m.sessions, id)
	}
	activeSessionsGauge.Set(float64(len(m.sessions)))
}
