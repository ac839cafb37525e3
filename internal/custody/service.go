package custody

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"stallworks/internal/persona"
	"stallworks/internal/stall"
)

// Recipient receives released items one at a time. Accept returning false
// (or an error) leaves the item in custody; the release can be retried later
// without loss or duplication.
type Recipient interface {
	Accept(ctx context.Context, item Item) (bool, error)
}

// Service coordinates impound and release against the custody store.
type Service struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// Impound stores the consigned products of one stall, one item per unit of
// quantity. Satisfies the command pipeline's Custodian port.
func (s *Service) Impound(ctx context.Context, stallID uuid.UUID, areaResRef string, products []stall.Product) (int, error) {
	key := AreaKey(areaResRef)
	now := s.now()
	stored := 0
	for _, p := range products {
		for unit := 0; unit < p.Quantity; unit++ {
			item := Item{
				// Unit ids derive from the product id so an impound retry
				// after a partial failure re-targets the same rows.
				ID:            uuid.NewSHA1(p.ID, []byte(fmt.Sprintf("unit-%d", unit))),
				AreaKey:       key,
				Owner:         p.Consignor,
				ItemData:      p.ItemData,
				SourceStallID: stallID,
				StoredAt:      now,
			}
			if err := s.store.Put(ctx, item); err != nil {
				return stored, fmt.Errorf("impound unit %d of product %s: %w", unit, p.ID, err)
			}
			stored++
		}
	}
	if stored > 0 {
		s.logger.InfoContext(ctx, "inventory impounded",
			"stall", stallID, "area", areaResRef, "items", stored)
	}
	return stored, nil
}

// Release hands every item held for a persona in an area to the recipient,
// one at a time. An item leaves custody only after the recipient accepts it,
// so delivery is at-least-once: a crash mid-release redelivers the remainder
// on the next call, never loses an item.
func (s *Service) Release(ctx context.Context, owner persona.ID, areaResRef string, recipient Recipient) (int, error) {
	items, err := s.store.ListByOwner(ctx, AreaKey(areaResRef), owner)
	if err != nil {
		return 0, fmt.Errorf("list custody for %s: %w", owner.String(), err)
	}

	released := 0
	for _, item := range items {
		accepted, err := recipient.Accept(ctx, item)
		if err != nil {
			return released, fmt.Errorf("hand off item %s: %w", item.ID, err)
		}
		if !accepted {
			// Recipient is full or unavailable; stop here and keep the rest.
			s.logger.InfoContext(ctx, "custody hand-off declined, item retained",
				"item", item.ID, "owner", owner.String())
			return released, nil
		}
		if err := s.store.Remove(ctx, item.ID); err != nil {
			return released, fmt.Errorf("remove released item %s: %w", item.ID, err)
		}
		released++
	}
	return released, nil
}

// Held reports how many items a persona has waiting in an area.
func (s *Service) Held(ctx context.Context, owner persona.ID, areaResRef string) (int, error) {
	items, err := s.store.ListByOwner(ctx, AreaKey(areaResRef), owner)
	if err != nil {
		return 0, err
	}
	return len(items), nil
}
