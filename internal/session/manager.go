package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/language"
)

// Manager tracks live sessions and closes the ones nobody has used for
// longer than the idle timeout.
type Manager struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	cfg         Config
	idleTimeout time.Duration
	logger      *slog.Logger
	now         func() time.Time
}

func NewManager(cfg Config, idleTimeout time.Duration) *Manager {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Manager{
		sessions:    make(map[string]*Session),
		cfg:         cfg,
		idleTimeout: idleTimeout,
		logger:      cfg.Logger,
		now:         time.Now,
	}
}

// Create starts a new session showing the landing page in lang.
func (m *Manager) Create(lang language.Tag) (*Session, error) {
	s, err := newSession(uuid.NewString(), lang, m.cfg)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	m.logger.Debug("session created", "session", s.ID, "lang", lang.String())
	return s, nil
}

func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Remove closes and forgets a session.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if ok {
		s.Close()
	}
}

// SweepIdle closes sessions idle past the timeout and returns how many
// were removed.
func (m *Manager) SweepIdle() int {
	if m.idleTimeout <= 0 {
		return 0
	}
	now := m.now()
	var stale []*Session
	m.mu.Lock()
	for id, s := range m.sessions {
		if now.Sub(s.LastActive()) > m.idleTimeout {
			stale = append(stale, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range stale {
		s.Close()
		m.logger.Info("session closed after idle timeout", "session", s.ID)
	}
	return len(stale)
}

// Close shuts every session down.
func (m *Manager) Close() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()
	for _, s := range sessions {
		s.Close()
	}
}
