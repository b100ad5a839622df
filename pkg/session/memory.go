package session

import (
	"context"
	"sync"
	"time"

	"github.com/routerkit/routerkit-go/pkg/model"
)

// MemoryStore persists conversation history in-process with optional TTL
// eviction. Entries are deep-copied on the way in and out so no caller
// shares backing arrays with the store.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*entry
	ttl     time.Duration
	closed  bool
	now     func() time.Time
}

type entry struct {
	messages []model.Message
	touched  time.Time
}

// NewMemoryStore constructs a MemoryStore. A non-positive ttl disables
// eviction.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Load returns a copy of the history stored under key. A missing key yields
// an empty history, not an error.
func (s *MemoryStore) Load(ctx context.Context, key string) ([]model.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	normalized, err := normalizeKey(key)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrStoreClosed
	}
	s.evictExpiredLocked()

	e, ok := s.entries[normalized]
	if !ok {
		return nil, nil
	}
	e.touched = s.now()
	return model.CloneMessages(e.messages), nil
}

// Append adds msgs to the history stored under key, creating it on first use.
func (s *MemoryStore) Append(ctx context.Context, key string, msgs []model.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	normalized, err := normalizeKey(key)
	if err != nil {
		return err
	}
	if len(msgs) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	s.evictExpiredLocked()

	e, ok := s.entries[normalized]
	if !ok {
		e = &entry{}
		s.entries[normalized] = e
	}
	e.messages = append(e.messages, model.CloneMessages(msgs)...)
	e.touched = s.now()
	return nil
}

// Len reports how many keys currently hold history.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Close releases all held history. Subsequent operations fail.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.entries = nil
	return nil
}

// eviction is lazy: expired keys are dropped whenever the store is touched.
func (s *MemoryStore) evictExpiredLocked() {
	if s.ttl <= 0 {
		return
	}
	cutoff := s.now().Add(-s.ttl)
	for key, e := range s.entries {
		if e.touched.Before(cutoff) {
			delete(s.entries, key)
		}
	}
}

var _ Store = (*MemoryStore)(nil)
