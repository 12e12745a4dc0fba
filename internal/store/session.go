package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"whatbeats/internal/models"
	util "whatbeats/internal/util"
)

// SessionStore holds the per-session chain and score. All mutating calls
// refresh the session's sliding TTL. Implementations must make AppendWord and
// IncrementScore atomic per session; the engine never does read-modify-write
// on top of them.
type SessionStore interface {
	Exists(ctx context.Context, sessionID string) (bool, error)
	History(ctx context.Context, sessionID string) ([]string, error)
	Score(ctx context.Context, sessionID string) (int, error)
	AppendWord(ctx context.Context, sessionID, word string) error
	IncrementScore(ctx context.Context, sessionID string) (int, error)
}

type sessionRecord struct {
	chain     []string
	score     int
	expiresAt time.Time
}

// MemorySessionStore keeps sessions in a guarded map with TTL-based expiry,
// swept by a background goroutine.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*sessionRecord
	ttl      time.Duration
	closed   bool

	cancel context.CancelFunc
	done   chan struct{}
}

func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]*sessionRecord),
		ttl:      ttl,
	}
}

// live returns the record if it exists and has not expired. Callers hold at
// least a read lock.
func (s *MemorySessionStore) live(sessionID string) *sessionRecord {
	rec, ok := s.sessions[sessionID]
	if !ok || time.Now().After(rec.expiresAt) {
		return nil
	}
	return rec
}

func (s *MemorySessionStore) Exists(_ context.Context, sessionID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false, models.ErrStoreUnavailable
	}
	return s.live(sessionID) != nil, nil
}

func (s *MemorySessionStore) History(_ context.Context, sessionID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, models.ErrStoreUnavailable
	}
	rec := s.live(sessionID)
	if rec == nil {
		return nil, nil
	}
	chain := make([]string, len(rec.chain))
	copy(chain, rec.chain)
	return chain, nil
}

func (s *MemorySessionStore) Score(_ context.Context, sessionID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, models.ErrStoreUnavailable
	}
	rec := s.live(sessionID)
	if rec == nil {
		return 0, nil
	}
	return rec.score, nil
}

// AppendWord appends to the chain, creating the session on first use. The
// word is stored trimmed but otherwise as given; comparisons elsewhere are
// case-insensitive.
func (s *MemorySessionStore) AppendWord(_ context.Context, sessionID, word string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return models.ErrStoreUnavailable
	}
	rec := s.live(sessionID)
	if rec == nil {
		rec = &sessionRecord{}
		s.sessions[sessionID] = rec
	}
	rec.chain = append(rec.chain, strings.TrimSpace(word))
	rec.expiresAt = time.Now().Add(s.ttl)
	return nil
}

func (s *MemorySessionStore) IncrementScore(_ context.Context, sessionID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, models.ErrStoreUnavailable
	}
	rec := s.live(sessionID)
	if rec == nil {
		rec = &sessionRecord{}
		s.sessions[sessionID] = rec
	}
	rec.score++
	rec.expiresAt = time.Now().Add(s.ttl)
	return rec.score, nil
}

// Count reports the number of live sessions, for health reporting.
func (s *MemorySessionStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	now := time.Now()
	for _, rec := range s.sessions {
		if now.Before(rec.expiresAt) {
			n++
		}
	}
	return n
}

func (s *MemorySessionStore) cleanupExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	expiredCount := 0
	for sessionID, rec := range s.sessions {
		if now.After(rec.expiresAt) {
			delete(s.sessions, sessionID)
			expiredCount++
		}
	}

	if expiredCount > 0 {
		util.LogInfo("Cleaned up %d expired sessions", expiredCount)
	}
}

// StartCleanup sweeps expired sessions on the given interval until Close.
func (s *MemorySessionStore) StartCleanup(interval time.Duration) {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.cleanupExpired()
			case <-ctx.Done():
				return
			}
		}
	}()
	util.LogInfo("Started session cleanup goroutine (interval %v)", interval)
}

// Close stops the cleanup goroutine and marks the store unavailable; all
// further calls return ErrStoreUnavailable.
func (s *MemorySessionStore) Close() {
	if s.cancel != nil {
		s.cancel()
		<-s.done
	}
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}
