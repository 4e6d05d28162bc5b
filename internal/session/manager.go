// Package session owns the lifecycle of agent sessions: creation,
// lookup, idle eviction, and the HTTP/WebSocket surface that drives
// each session's interaction engine.
package session

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/voxlink-ai/voxlink/internal/config"
	"github.com/voxlink-ai/voxlink/internal/events"
	"github.com/voxlink-ai/voxlink/internal/metrics"
	"github.com/voxlink-ai/voxlink/internal/signal"
	"github.com/voxlink-ai/voxlink/internal/speech"
	"github.com/voxlink-ai/voxlink/internal/voice"
)

// Session is one live agent conversation. The engine goroutine runs
// until the session is deleted or evicted.
type Session struct {
	ID        uuid.UUID
	CreatedAt time.Time
	Engine    *voice.Engine

	mu         sync.Mutex
	lastActive time.Time
	cancel     context.CancelFunc
}

// Touch records activity, postponing idle eviction.
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastActive = time.Now()
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// Manager creates and tracks sessions and evicts the ones that go
// idle past the configured TTL.
type Manager struct {
	cfg        config.AgentConfig
	recognizer speech.Recognizer
	responder  voice.Responder
	extractor  signal.Extractor
	publisher  *events.Publisher
	newRand    func() *rand.Rand

	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

// NewManager creates a session manager. recognizer and publisher may
// be nil.
func NewManager(
	cfg config.AgentConfig,
	recognizer speech.Recognizer,
	responder voice.Responder,
	extractor signal.Extractor,
	publisher *events.Publisher,
) *Manager {
	return &Manager{
		cfg:        cfg,
		recognizer: recognizer,
		responder:  responder,
		extractor:  extractor,
		publisher:  publisher,
		newRand: func() *rand.Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		},
		sessions: make(map[uuid.UUID]*Session),
	}
}

// Create starts a new session with its own engine goroutine.
func (m *Manager) Create() *Session {
	id := uuid.New()
	engine := voice.NewEngine(id, m.cfg, m.recognizer, m.responder, m.extractor, m.publisher, m.newRand())

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		ID:         id,
		CreatedAt:  time.Now(),
		Engine:     engine,
		lastActive: time.Now(),
		cancel:     cancel,
	}
	go engine.Run(ctx)

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()

	metrics.ActiveSessions.Inc()
	m.publisher.SessionStarted(context.Background(), events.SessionEvent{
		SessionID: id,
		Timestamp: time.Now(),
	})
	slog.Info("session created", "session", id)
	return s
}

// Get returns a session by ID, or nil.
func (m *Manager) Get(id uuid.UUID) *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[id]
}

// Delete ends a session and stops its engine.
func (m *Manager) Delete(id uuid.UUID) bool {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()
	if !ok {
		return false
	}

	s.cancel()
	metrics.ActiveSessions.Dec()
	m.publisher.SessionEnded(context.Background(), events.SessionEvent{
		SessionID: id,
		Timestamp: time.Now(),
	})
	slog.Info("session ended", "session", id)
	return true
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Run evicts idle sessions until ctx is cancelled. Intended to run as
// a background goroutine from main.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			m.shutdown()
			return
		case <-ticker.C:
			m.evictIdle()
		}
	}
}

func (m *Manager) evictIdle() {
	cutoff := time.Now().Add(-m.cfg.SessionTTL)

	m.mu.RLock()
	var stale []uuid.UUID
	for id, s := range m.sessions {
		if s.idleSince().Before(cutoff) {
			stale = append(stale, id)
		}
	}
	m.mu.RUnlock()

	for _, id := range stale {
		slog.Info("evicting idle session", "session", id, "ttl", m.cfg.SessionTTL)
		m.Delete(id)
	}
}

func (m *Manager) shutdown() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[uuid.UUID]*Session)
	m.mu.Unlock()

	for id, s := range sessions {
		s.cancel()
		metrics.ActiveSessions.Dec()
		slog.Debug("session stopped on shutdown", "session", id)
	}
}
