package custody

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"stallworks/internal/persona"
	"stallworks/pkg/platform/sentinel"
)

// MemoryStore is the in-memory Store used by tests and single-node setups.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[uuid.UUID]Item
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[uuid.UUID]Item)}
}

func (s *MemoryStore) Put(ctx context.Context, item Item) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.items[item.ID]; exists {
		return nil
	}
	s.items[item.ID] = item
	return nil
}

func (s *MemoryStore) ListByOwner(ctx context.Context, areaKey uuid.UUID, owner persona.ID) ([]Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Item
	for _, item := range s.items {
		if item.AreaKey == areaKey && item.Owner == owner {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StoredAt.Before(out[j].StoredAt) })
	return out, nil
}

func (s *MemoryStore) Remove(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.items[id]; !exists {
		return sentinel.ErrNotFound
	}
	delete(s.items, id)
	return nil
}

func (s *MemoryStore) CountByArea(ctx context.Context, areaKey uuid.UUID) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, item := range s.items {
		if item.AreaKey == areaKey {
			n++
		}
	}
	return n, nil
}
