package storage

import (
	"context"
	"sort"
	"sync"

	"puzzleboard/internal/domain"
)

// memrepo is an in-memory repository used when no database is configured.
type memrepo struct {
	mu sync.RWMutex

	nextID   int64
	attempts []*domain.PuzzleAttempt
	byUUID   map[string]*domain.PuzzleAttempt
}

func NewMemoryRepository() Repository {
	return &memrepo{byUUID: make(map[string]*domain.PuzzleAttempt)}
}

func (m *memrepo) InsertAttempt(ctx context.Context, attempt *domain.PuzzleAttempt) (int64, error) {
	if attempt == nil {
		return 0, ErrDuplicateAttempt
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byUUID[attempt.SessionUUID]; exists {
		return 0, ErrDuplicateAttempt
	}

	m.nextID++
	copy := *attempt
	copy.ID = m.nextID

	m.attempts = append(m.attempts, &copy)
	m.byUUID[copy.SessionUUID] = &copy
	return copy.ID, nil
}

func (m *memrepo) GetRecentAttempts(ctx context.Context, limit int) ([]*domain.PuzzleAttempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	items := append([]*domain.PuzzleAttempt(nil), m.attempts...)
	sort.Slice(items, func(i, j int) bool {
		if !items[i].EndedAt.Equal(items[j].EndedAt) {
			return items[i].EndedAt.After(items[j].EndedAt)
		}
		return items[i].ID > items[j].ID
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	out := make([]*domain.PuzzleAttempt, len(items))
	for i, a := range items {
		copy := *a
		out[i] = &copy
	}
	return out, nil
}
