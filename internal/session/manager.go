package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/brainwave/internal/metrics"
)

// Manager keeps the in-memory sessions and evicts idle ones.
type Manager struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
	opts     Options
	idleTTL  time.Duration
	logger   zerolog.Logger
}

// NewManager creates a manager whose sessions share opts.
func NewManager(opts Options, idleTTL time.Duration, logger zerolog.Logger) *Manager {
	if idleTTL <= 0 {
		idleTTL = 30 * time.Minute
	}
	opts.Logger = logger
	return &Manager{
		sessions: make(map[uuid.UUID]*Session),
		opts:     opts.withDefaults(),
		idleTTL:  idleTTL,
		logger:   logger.With().Str("component", "session_manager").Logger(),
	}
}

// Create starts a new session in the onboarding state.
func (m *Manager) Create() *Session {
	s := New(uuid.New(), m.opts)

	m.mu.Lock()
	m.sessions[s.ID()] = s
	m.mu.Unlock()

	metrics.SessionOpened()
	m.logger.Debug().Str("session_id", s.ID().String()).Msg("session created")
	return s
}

func (m *Manager) Get(id uuid.UUID) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Remove closes and forgets a session.
func (m *Manager) Remove(id uuid.UUID) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if ok {
		s.Close()
		metrics.SessionClosed()
	}
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Run evicts idle sessions until the context is cancelled.
func (m *Manager) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.idleTTL / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.closeAll()
			return nil
		case <-ticker.C:
			if n := m.sweep(m.opts.Now()); n > 0 {
				m.logger.Info().Int("evicted", n).Int("remaining", m.Len()).Msg("idle sessions evicted")
			}
		}
	}
}

func (m *Manager) sweep(now time.Time) int {
	m.mu.RLock()
	var idle []uuid.UUID
	for id, s := range m.sessions {
		if now.Sub(s.LastActive()) >= m.idleTTL {
			idle = append(idle, id)
		}
	}
	m.mu.RUnlock()

	for _, id := range idle {
		m.Remove(id)
	}
	return len(idle)
}

func (m *Manager) closeAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[uuid.UUID]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
		metrics.SessionClosed()
	}
}
