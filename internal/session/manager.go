package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ent0n29/zoya/internal/interrupt"
	"github.com/ent0n29/zoya/internal/router"
	"github.com/ent0n29/zoya/internal/voice"
)

type Status string

const (
	StatusActive Status = "active"
	StatusEnded  Status = "ended"
)

var (
	ErrNotFound = errors.New("session not found")
	ErrEnded    = errors.New("session ended")
)

type Session struct {
	ID                string    `json:"session_id"`
	Status            Status    `json:"status"`
	Language          string    `json:"language"`
	ActiveTurnID      string    `json:"active_turn_id"`
	TurnCount         int       `json:"turn_count"`
	InterruptionCount int       `json:"interruption_count"`
	StartedAt         time.Time `json:"started_at"`
	LastActivityAt    time.Time `json:"last_activity_at"`
}

// RouterFactory builds the router of a new session around its own emitter.
// The router owns the session's conversation memory.
type RouterFactory func(output *voice.Output) *router.Router

type entry struct {
	info   *Session
	router *router.Router
	output *voice.Output
}

// Manager keeps remote sessions. Each session has its own router, memory and
// stop flag; nothing is shared between sessions except the backends the
// factory closes over.
type Manager struct {
	mu                sync.RWMutex
	sessions          map[string]*entry
	inactivityTimeout time.Duration
	factory           RouterFactory
	onExpire          func(*Session)
}

func NewManager(inactivityTimeout time.Duration, factory RouterFactory) *Manager {
	if inactivityTimeout <= 0 {
		inactivityTimeout = 10 * time.Minute
	}
	if factory == nil {
		factory = func(output *voice.Output) *router.Router {
			return router.New(router.Config{}, router.Deps{Output: output})
		}
	}
	return &Manager{
		sessions:          make(map[string]*entry),
		inactivityTimeout: inactivityTimeout,
		factory:           factory,
	}
}

func (m *Manager) InactivityTimeout() time.Duration { return m.inactivityTimeout }

func (m *Manager) SetExpireHook(hook func(*Session)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onExpire = hook
}

func (m *Manager) Create(language string) *Session {
	output := voice.NewOutput(nil, nil, "", interrupt.New(), zerolog.Nop())
	r := m.factory(output)
	if language != "" {
		r.SetLanguage(language)
	}

	now := time.Now().UTC()
	s := &Session{
		ID:             uuid.NewString(),
		Language:       r.Language(),
		Status:         StatusActive,
		StartedAt:      now,
		LastActivityAt: now,
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = &entry{info: s, router: r, output: output}
	return clone(s)
}

func (m *Manager) Get(sessionID string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.sessions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(e.info), nil
}

func (m *Manager) Touch(sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[sessionID]
	if !ok {
		return ErrNotFound
	}
	e.info.LastActivityAt = time.Now().UTC()
	return nil
}

// Turn runs query through the session's router. Turns of one session are
// serialized by its router.
func (m *Manager) Turn(ctx context.Context, sessionID, query, language string) (router.Turn, error) {
	e, err := m.active(sessionID)
	if err != nil {
		return router.Turn{}, err
	}
	e.output.Signal().Clear()
	turn := e.router.Handle(ctx, query, router.TurnOptions{Language: language, Mode: "text"})

	m.mu.Lock()
	e.info.ActiveTurnID = turn.ID
	e.info.TurnCount++
	e.info.LastActivityAt = time.Now().UTC()
	m.mu.Unlock()
	return turn, nil
}

// Interrupt stops the session's playback, if any.
func (m *Manager) Interrupt(sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[sessionID]
	if !ok {
		return ErrNotFound
	}
	e.output.Interrupt()
	e.info.InterruptionCount++
	e.info.ActiveTurnID = ""
	e.info.LastActivityAt = time.Now().UTC()
	return nil
}

// Reset clears the session's conversation memory.
func (m *Manager) Reset(sessionID string) error {
	e, err := m.active(sessionID)
	if err != nil {
		return err
	}
	e.router.ResetMemory()
	return m.Touch(sessionID)
}

// Router exposes the session router, e.g. for memory snapshots.
func (m *Manager) Router(sessionID string) (*router.Router, error) {
	e, err := m.active(sessionID)
	if err != nil {
		return nil, err
	}
	return e.router, nil
}

func (m *Manager) End(sessionID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	m.endLocked(e, time.Now().UTC())
	return clone(e.info), nil
}

func (m *Manager) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.expireInactive()
			}
		}
	}()
}

func (m *Manager) ActiveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, e := range m.sessions {
		if e.info.Status == StatusActive {
			count++
		}
	}
	return count
}

func (m *Manager) active(sessionID string) (*entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.sessions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	if e.info.Status != StatusActive {
		return nil, ErrEnded
	}
	return e, nil
}

func (m *Manager) endLocked(e *entry, now time.Time) {
	e.output.Interrupt()
	e.info.Status = StatusEnded
	e.info.ActiveTurnID = ""
	e.info.LastActivityAt = now
}

func (m *Manager) expireInactive() {
	now := time.Now().UTC()
	var expired []*Session

	m.mu.Lock()
	for _, e := range m.sessions {
		if e.info.Status != StatusActive {
			continue
		}
		if now.Sub(e.info.LastActivityAt) < m.inactivityTimeout {
			continue
		}
		m.endLocked(e, now)
		expired = append(expired, clone(e.info))
	}
	hook := m.onExpire
	m.mu.Unlock()

	if hook != nil {
		for _, s := range expired {
			hook(s)
		}
	}
}

func clone(s *Session) *Session {
	c := *s
	return &c
}
