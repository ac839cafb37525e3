package stall

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"stallworks/pkg/platform/sentinel"
)

// numShards spreads per-stall locks so unrelated stalls never contend.
// Commands against the same stall id always hash to the same shard, which is
// what serializes their read-modify-write.
const numShards = 64

// MemoryStore is the in-memory Store used by tests and single-process
// deployments.
type MemoryStore struct {
	shards [numShards]sync.Mutex
	mu     sync.RWMutex
	stalls map[uuid.UUID]Stall
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{stalls: make(map[uuid.UUID]Stall)}
}

func (s *MemoryStore) shardFor(id uuid.UUID) *sync.Mutex {
	// First bytes of a uuid are random enough for shard selection.
	idx := (int(id[0])<<8 | int(id[1])) % numShards
	return &s.shards[idx]
}

func (s *MemoryStore) Create(ctx context.Context, entity Stall) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.stalls[entity.ID]; exists {
		return sentinel.ErrConflict
	}
	s.stalls[entity.ID] = entity.Clone()
	return nil
}

func (s *MemoryStore) GetByID(ctx context.Context, id uuid.UUID) (Stall, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entity, ok := s.stalls[id]
	if !ok {
		return Stall{}, sentinel.ErrNotFound
	}
	return entity.Clone(), nil
}

func (s *MemoryStore) All(ctx context.Context) ([]Stall, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Stall, 0, len(s.stalls))
	for _, entity := range s.stalls {
		out = append(out, entity.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

func (s *MemoryStore) Update(ctx context.Context, id uuid.UUID, mutate func(*Stall) error) (Stall, error) {
	if err := ctx.Err(); err != nil {
		return Stall{}, err
	}
	shard := s.shardFor(id)
	shard.Lock()
	defer shard.Unlock()

	s.mu.RLock()
	entity, ok := s.stalls[id]
	s.mu.RUnlock()
	if !ok {
		return Stall{}, sentinel.ErrNotFound
	}

	working := entity.Clone()
	if err := mutate(&working); err != nil {
		return Stall{}, err
	}

	s.mu.Lock()
	s.stalls[id] = working.Clone()
	s.mu.Unlock()
	return working, nil
}

func (s *MemoryStore) UpdateStallAndProduct(ctx context.Context, stallID, productID uuid.UUID, mutate func(*Stall, *Product) error) (bool, error) {
	found := false
	_, err := s.Update(ctx, stallID, func(entity *Stall) error {
		for i := range entity.Products {
			p := &entity.Products[i]
			if p.ID == productID && p.Active {
				found = true
				return mutate(entity, p)
			}
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return found, nil
}

func (s *MemoryStore) GetProduct(ctx context.Context, stallID, productID uuid.UUID) (Product, error) {
	entity, err := s.GetByID(ctx, stallID)
	if err != nil {
		return Product{}, err
	}
	for _, p := range entity.Products {
		if p.ID == productID {
			return p, nil
		}
	}
	return Product{}, sentinel.ErrNotFound
}

func (s *MemoryStore) HasActiveOwnershipInArea(ctx context.Context, characterID uuid.UUID, areaResRef string, excludeStallID uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, entity := range s.stalls {
		if entity.ID == excludeStallID || entity.AreaResRef != areaResRef {
			continue
		}
		if entity.IsActive && entity.Owner != nil && entity.Owner.CharacterID == characterID {
			return true, nil
		}
	}
	return false, nil
}
