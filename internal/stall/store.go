package stall

import (
	"context"

	"github.com/google/uuid"
)

// Store is the repository contract for stalls. Per-stall mutations are
// serialized by the Update contract: the callback receives the current entity
// and no two callbacks for the same stall id may interleave their
// read-modify-write. Across different stall ids no ordering is guaranteed.
//
// Member, ledger, and product changes all happen inside Update so that a
// command either lands atomically or not at all; there are no partial writes.
type Store interface {
	// Create inserts a stall entity. World setup calls this; commands do not.
	Create(ctx context.Context, s Stall) error

	// GetByID returns a snapshot including members, products, and ledger.
	// Returns sentinel.ErrNotFound for unknown ids.
	GetByID(ctx context.Context, id uuid.UUID) (Stall, error)

	// All returns snapshots of every stall, for the rent renewal scan.
	All(ctx context.Context) ([]Stall, error)

	// Update loads the stall, runs mutate against it, and persists the result
	// atomically. If mutate returns an error nothing is written and the error
	// is passed through unchanged.
	Update(ctx context.Context, id uuid.UUID, mutate func(*Stall) error) (Stall, error)

	// UpdateStallAndProduct atomically mutates a stall together with one of
	// its products. Returns false without calling mutate when the product is
	// missing or inactive.
	UpdateStallAndProduct(ctx context.Context, stallID, productID uuid.UUID, mutate func(*Stall, *Product) error) (bool, error)

	// GetProduct returns a product snapshot. sentinel.ErrNotFound when absent.
	GetProduct(ctx context.Context, stallID, productID uuid.UUID) (Product, error)

	// HasActiveOwnershipInArea reports whether a character already owns an
	// active stall in the area, excluding the given stall id.
	HasActiveOwnershipInArea(ctx context.Context, characterID uuid.UUID, areaResRef string, excludeStallID uuid.UUID) (bool, error)
}
