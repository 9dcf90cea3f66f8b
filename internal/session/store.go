package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Identity is the server-side record of a logged-in user.
type Identity struct {
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username"`
	FullName  string    `json:"full_name"`
	Role      string    `json:"role"`
	LoginTime time.Time `json:"login_time"`
}

// Store keeps session state keyed by an opaque token. Handlers never see
// the backing storage.
type Store interface {
	Create(ctx context.Context, id Identity) (string, error)
	Get(ctx context.Context, token string) (Identity, bool, error)
	Delete(ctx context.Context, token string) error
}

type memoryEntry struct {
	identity Identity
	expires  time.Time
}

// MemoryStore is the single-instance in-process backend. Expired entries
// are dropped lazily on access.
type MemoryStore struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]memoryEntry
}

// NewMemoryStore constructs a MemoryStore whose sessions live for ttl.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, entries: make(map[string]memoryEntry)}
}

func (s *MemoryStore) Create(_ context.Context, id Identity) (string, error) {
	token := uuid.NewString()
	s.mu.Lock()
	s.entries[token] = memoryEntry{identity: id, expires: time.Now().Add(s.ttl)}
	s.mu.Unlock()
	return token, nil
}

func (s *MemoryStore) Get(_ context.Context, token string) (Identity, bool, error) {
	s.mu.RLock()
	entry, ok := s.entries[token]
	s.mu.RUnlock()
	if !ok {
		return Identity{}, false, nil
	}
	if time.Now().After(entry.expires) {
		s.mu.Lock()
		delete(s.entries, token)
		s.mu.Unlock()
		return Identity{}, false, nil
	}
	return entry.identity, true, nil
}

func (s *MemoryStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	delete(s.entries, token)
	s.mu.Unlock()
	return nil
}
