package chat

import (
	"context"
	"log"
	"sync"
	"time"

	"siterelay/internal/models"
)

const DefaultJanitorInterval = 10 * time.Minute

// MemoryStore keeps session histories in process memory. When ttl is
// positive, sessions idle for longer than ttl are evicted by the janitor.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*memorySession
	ttl      time.Duration
}

type memorySession struct {
	turns      []models.Turn
	lastActive time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*memorySession),
		ttl:      ttl,
	}
}

func (s *MemoryStore) History(ctx context.Context, sessionID string) ([]models.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	se, ok := s.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	out := make([]models.Turn, len(se.turns))
	copy(out, se.turns)
	return out, nil
}

func (s *MemoryStore) Append(ctx context.Context, sessionID string, turns ...models.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	se, ok := s.sessions[sessionID]
	if !ok {
		se = &memorySession{}
		s.sessions[sessionID] = se
	}
	se.turns = append(se.turns, turns...)
	se.lastActive = time.Now()
	return nil
}

func (s *MemoryStore) Clear(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	se, ok := s.sessions[sessionID]
	if !ok {
		// reset of an unseen session creates the entry, matching
		// create-on-first-use semantics
		s.sessions[sessionID] = &memorySession{lastActive: time.Now()}
		return nil
	}
	se.turns = se.turns[:0]
	se.lastActive = time.Now()
	return nil
}

// StartJanitor evicts idle sessions on a ticker until ctx is done.
func (s *MemoryStore) StartJanitor(ctx context.Context, interval time.Duration) {
	if s.ttl <= 0 {
		return
	}
	if interval <= 0 {
		interval = DefaultJanitorInterval
	}
	go s.janitorLoop(ctx, interval)
}

func (s *MemoryStore) janitorLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.evictIdle(time.Now()); n > 0 {
				log.Printf("evicted %d idle chat sessions", n)
			}
		}
	}
}

func (s *MemoryStore) evictIdle(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	var evicted int
	for id, se := range s.sessions {
		if now.Sub(se.lastActive) > s.ttl {
			delete(s.sessions, id)
			evicted++
		}
	}
	return evicted
}
