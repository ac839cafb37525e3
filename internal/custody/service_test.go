package custody

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stallworks/internal/persona"
	"stallworks/internal/platform/logger"
	"stallworks/internal/stall"
)

type acceptingRecipient struct {
	received []Item
	// acceptUpTo caps how many items are accepted before declining; negative
	// means accept everything.
	acceptUpTo int
}

func (r *acceptingRecipient) Accept(ctx context.Context, item Item) (bool, error) {
	if r.acceptUpTo >= 0 && len(r.received) >= r.acceptUpTo {
		return false, nil
	}
	r.received = append(r.received, item)
	return true, nil
}

func newService() (*Service, *MemoryStore) {
	store := NewMemoryStore()
	return NewService(store, logger.New()), store
}

func TestAreaKey(t *testing.T) {
	assert.Equal(t, AreaKey("cordor_market"), AreaKey("cordor_market"))
	assert.NotEqual(t, AreaKey("cordor_market"), AreaKey("guldorand_market"))
}

func TestImpound(t *testing.T) {
	ctx := context.Background()
	owner := persona.Character(uuid.New())
	stallID := uuid.New()

	t.Run("one item per quantity unit", func(t *testing.T) {
		svc, store := newService()
		products := []stall.Product{
			{ID: uuid.New(), ItemData: []byte(`{"res":"it_sword"}`), Quantity: 3, Consignor: owner},
			{ID: uuid.New(), ItemData: []byte(`{"res":"it_gem"}`), Quantity: 1, Consignor: owner},
		}

		n, err := svc.Impound(ctx, stallID, "cordor_market", products)
		require.NoError(t, err)
		assert.Equal(t, 4, n)

		count, err := store.CountByArea(ctx, AreaKey("cordor_market"))
		require.NoError(t, err)
		assert.Equal(t, 4, count)

		items, err := store.ListByOwner(ctx, AreaKey("cordor_market"), owner)
		require.NoError(t, err)
		require.Len(t, items, 4)
		for _, item := range items {
			assert.Equal(t, owner, item.Owner)
			assert.Equal(t, stallID, item.SourceStallID)
		}
	})

	t.Run("retry does not duplicate items", func(t *testing.T) {
		svc, store := newService()
		products := []stall.Product{
			{ID: uuid.New(), ItemData: []byte(`{"res":"it_sword"}`), Quantity: 2, Consignor: owner},
		}

		_, err := svc.Impound(ctx, stallID, "cordor_market", products)
		require.NoError(t, err)
		_, err = svc.Impound(ctx, stallID, "cordor_market", products)
		require.NoError(t, err)

		count, err := store.CountByArea(ctx, AreaKey("cordor_market"))
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})
}

func TestRelease(t *testing.T) {
	ctx := context.Background()
	owner := persona.Character(uuid.New())
	stallID := uuid.New()

	seed := func(t *testing.T, svc *Service, quantity int) {
		t.Helper()
		_, err := svc.Impound(ctx, stallID, "cordor_market", []stall.Product{
			{ID: uuid.New(), ItemData: []byte(`{"res":"it_potion"}`), Quantity: quantity, Consignor: owner},
		})
		require.NoError(t, err)
	}

	t.Run("accepted items leave custody", func(t *testing.T) {
		svc, store := newService()
		seed(t, svc, 3)

		rec := &acceptingRecipient{acceptUpTo: -1}
		n, err := svc.Release(ctx, owner, "cordor_market", rec)
		require.NoError(t, err)
		assert.Equal(t, 3, n)
		assert.Len(t, rec.received, 3)

		count, err := store.CountByArea(ctx, AreaKey("cordor_market"))
		require.NoError(t, err)
		assert.Equal(t, 0, count)
	})

	t.Run("declined items stay for a later retry", func(t *testing.T) {
		svc, store := newService()
		seed(t, svc, 3)

		rec := &acceptingRecipient{acceptUpTo: 2}
		n, err := svc.Release(ctx, owner, "cordor_market", rec)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		count, err := store.CountByArea(ctx, AreaKey("cordor_market"))
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		// Second pass with room picks up the remainder.
		rec.acceptUpTo = -1
		n, err = svc.Release(ctx, owner, "cordor_market", rec)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("release is scoped to persona and area", func(t *testing.T) {
		svc, store := newService()
		seed(t, svc, 1)
		other := persona.Character(uuid.New())
		_, err := svc.Impound(ctx, stallID, "guldorand_market", []stall.Product{
			{ID: uuid.New(), ItemData: []byte(`{"res":"it_ring"}`), Quantity: 1, Consignor: other},
		})
		require.NoError(t, err)

		rec := &acceptingRecipient{acceptUpTo: -1}
		n, err := svc.Release(ctx, other, "cordor_market", rec)
		require.NoError(t, err)
		assert.Equal(t, 0, n)

		count, err := store.CountByArea(ctx, AreaKey("guldorand_market"))
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("held reports pending items", func(t *testing.T) {
		svc, _ := newService()
		seed(t, svc, 2)
		n, err := svc.Held(ctx, owner, "cordor_market")
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})
}
