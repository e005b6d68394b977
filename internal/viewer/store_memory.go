package viewer

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps sessions in-process. Used when no Redis is configured.
type MemoryStore struct {
	mu       sync.RWMutex
	ttl      time.Duration
	payloads map[string]memoryEntry
}

type memoryEntry struct {
	payload  sessionPayload
	expireAt time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &MemoryStore{ttl: ttl, payloads: make(map[string]memoryEntry)}
}

func (s *MemoryStore) Save(ctx context.Context, id string, payload *sessionPayload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payloads[id] = memoryEntry{payload: *payload, expireAt: time.Now().Add(s.ttl)}
	return nil
}

func (s *MemoryStore) Load(ctx context.Context, id string) (*sessionPayload, error) {
	s.mu.RLock()
	entry, ok := s.payloads[id]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if time.Now().After(entry.expireAt) {
		s.mu.Lock()
		delete(s.payloads, id)
		s.mu.Unlock()
		return nil, nil
	}
	copy := entry.payload
	return &copy, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	delete(s.payloads, id)
	s.mu.Unlock()
	return nil
}
