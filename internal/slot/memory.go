package slot

import (
	"context"
	"sync"
	"time"

	logx "github.com/convobridge/server/pkg/logger"
)

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// MemoryStore holds slots in a process-local map. Correct only when the
// inbound webhook and the fetchresponse poll land on the same process; data
// does not survive a restart. Expiry is lazy: reads skip stale entries and
// each write prunes whatever has already expired, so no per-key timers run.
type MemoryStore struct {
	mu  sync.Mutex
	ttl time.Duration
	now func() time.Time

	entries map[string]memoryEntry
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]memoryEntry),
	}
}

func (s *MemoryStore) Put(_ context.Context, key, value string) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for k, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, k)
		}
	}
	s.entries[key] = memoryEntry{value: value, expiresAt: now.Add(s.ttl)}
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, bool) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return "", false
	}
	delete(s.entries, key)
	if now.After(e.expiresAt) {
		logx.Debug().Str("key", key).Msg("pending response expired unread")
		return "", false
	}
	return e.value, true
}

func (s *MemoryStore) PendingKeys(_ context.Context) []string {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0, len(s.entries))
	for k, e := range s.entries {
		if now.After(e.expiresAt) {
			continue
		}
		keys = append(keys, k)
	}
	return keys
}

var _ Store = (*MemoryStore)(nil)
