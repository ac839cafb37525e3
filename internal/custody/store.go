package custody

import (
	"context"

	"github.com/google/uuid"

	"stallworks/internal/persona"
)

// Store is the repository contract for custody items.
type Store interface {
	// Put inserts one stored item. Re-inserting the same id is a no-op so
	// impound retries never duplicate inventory.
	Put(ctx context.Context, item Item) error

	// ListByOwner returns every item held for a persona in one area, oldest
	// first.
	ListByOwner(ctx context.Context, areaKey uuid.UUID, owner persona.ID) ([]Item, error)

	// Remove deletes one item by id. Removing an absent id returns
	// sentinel.ErrNotFound.
	Remove(ctx context.Context, id uuid.UUID) error

	// CountByArea reports how many items an area currently holds.
	CountByArea(ctx context.Context, areaKey uuid.UUID) (int, error)
}
