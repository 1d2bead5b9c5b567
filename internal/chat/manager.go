// Package chat keeps per-session conversational state and relays
// messages to the AI backend.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"siterelay/internal/models"
)

// Backend produces a reply for the supplied history. The latest user
// turn is the last entry.
type Backend interface {
	Reply(ctx context.Context, history []models.Turn) (string, error)
}

// HistoryStore owns session histories keyed by session id. Create on
// first use, clear on reset; entries survive a reset.
type HistoryStore interface {
	History(ctx context.Context, sessionID string) ([]models.Turn, error)
	Append(ctx context.Context, sessionID string, turns ...models.Turn) error
	Clear(ctx context.Context, sessionID string) error
}

// Manager serializes exchanges per session while letting distinct
// sessions proceed independently.
type Manager struct {
	backend Backend
	store   HistoryStore
	timeout time.Duration

	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

func NewManager(backend Backend, store HistoryStore, timeout time.Duration) *Manager {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Manager{
		backend: backend,
		store:   store,
		timeout: timeout,
		locks:   make(map[string]*sessionLock),
	}
}

// SendMessage appends the user's turn, forwards the full history to the
// backend, records the reply turn, and returns the reply text. At most
// one exchange per session is in flight at a time.
func (m *Manager) SendMessage(ctx context.Context, sessionID, text string) (string, error) {
	text = strings.TrimSpace(text)
	if sessionID == "" {
		return "", errors.New("session id is required")
	}
	if text == "" {
		return "", errors.New("message is required")
	}

	unlock := m.lockSession(sessionID)
	defer unlock()

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	userTurn := models.Turn{Role: models.RoleUser, Text: text}
	if err := m.store.Append(ctx, sessionID, userTurn); err != nil {
		return "", fmt.Errorf("record user turn: %w", err)
	}
	history, err := m.store.History(ctx, sessionID)
	if err != nil {
		return "", fmt.Errorf("load history: %w", err)
	}

	reply, err := m.backend.Reply(ctx, history)
	if err != nil {
		return "", err
	}
	if err := m.store.Append(ctx, sessionID, models.Turn{Role: models.RoleAssistant, Text: reply}); err != nil {
		return "", fmt.Errorf("record reply turn: %w", err)
	}
	return reply, nil
}

// Reset empties the session's history. The session stays usable;
// subsequent messages start from a clean slate.
func (m *Manager) Reset(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	unlock := m.lockSession(sessionID)
	defer unlock()

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	return m.store.Clear(ctx, sessionID)
}

// lockSession takes the per-session mutex, creating it on first use and
// dropping it once no caller holds or awaits it.
func (m *Manager) lockSession(sessionID string) func() {
	m.mu.Lock()
	l, ok := m.locks[sessionID]
	if !ok {
		l = &sessionLock{}
		m.locks[sessionID] = l
	}
	l.refs++
	m.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		m.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(m.locks, sessionID)
		}
		m.mu.Unlock()
	}
}
