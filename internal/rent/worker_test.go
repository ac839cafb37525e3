package rent

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stallworks/internal/coinhouse"
	"stallworks/internal/events"
	"stallworks/internal/notify"
	"stallworks/internal/persona"
	"stallworks/internal/platform/logger"
	"stallworks/internal/stall"
	"stallworks/internal/stall/commands"
)

type fakeCustodian struct {
	impounded int
}

func (f *fakeCustodian) Impound(ctx context.Context, stallID uuid.UUID, areaResRef string, products []stall.Product) (int, error) {
	for _, p := range products {
		f.impounded += p.Quantity
	}
	return f.impounded, nil
}

type harness struct {
	stalls    *stall.MemoryStore
	bank      *coinhouse.Service
	worker    *Worker
	custodian *fakeCustodian
	clock     time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	log := logger.New()
	h := &harness{
		stalls:    stall.NewMemoryStore(),
		custodian: &fakeCustodian{},
		clock:     time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC),
	}
	h.bank = coinhouse.NewService(coinhouse.NewMemoryStore(), coinhouse.NewMemoryTransactionLog())
	deps := &commands.Deps{
		Stalls:       h.stalls,
		Bank:         h.bank,
		Bus:          events.NewBus(log),
		Notifier:     notify.NewLogNotifier(log),
		Broadcaster:  notify.NopBroadcaster{},
		Custodian:    h.custodian,
		RentInterval: 24 * time.Hour,
		GracePeriod:  72 * time.Hour,
		Logger:       log,
		Now:          func() time.Time { return h.clock },
	}
	h.worker = NewWorker(deps, h.stalls, time.Minute, nil)
	return h
}

func (h *harness) advance(d time.Duration) { h.clock = h.clock.Add(d) }

// seedOwned creates a stall already under lease, rent due 24h from the
// harness clock.
func (h *harness) seedOwned(t *testing.T, rent, escrow int64) uuid.UUID {
	t.Helper()
	id := uuid.New()
	owner := persona.Character(uuid.New())
	err := h.stalls.Create(context.Background(), stall.Stall{
		ID:            id,
		Tag:           "stall_" + id.String()[:8],
		AreaResRef:    "cordor_market",
		SettlementTag: "cordor",
		DailyRent:     rent,
		EscrowBalance: escrow,
		IsActive:      true,
		Owner: &stall.Ownership{
			CharacterID: uuid.New(),
			Persona:     owner,
			DisplayName: "Elira",
			LeaseStart:  h.clock,
			NextRentDue: h.clock.Add(24 * time.Hour),
		},
	})
	require.NoError(t, err)
	return id
}

func (h *harness) get(t *testing.T, id uuid.UUID) stall.Stall {
	t.Helper()
	s, err := h.stalls.GetByID(context.Background(), id)
	require.NoError(t, err)
	return s
}

func TestWorkerTick(t *testing.T) {
	ctx := context.Background()

	t.Run("funded stall pays and the schedule advances", func(t *testing.T) {
		h := newHarness(t)
		id := h.seedOwned(t, 250, 1000)
		due := h.get(t, id).Owner.NextRentDue
		h.advance(24 * time.Hour)

		h.worker.Tick(ctx)

		s := h.get(t, id)
		assert.Equal(t, int64(750), s.EscrowBalance)
		assert.Equal(t, due.Add(24*time.Hour), s.Owner.NextRentDue)
		assert.False(t, s.Suspended())
		assert.True(t, s.IsActive)
	})

	t.Run("rent not yet due leaves the stall untouched", func(t *testing.T) {
		h := newHarness(t)
		id := h.seedOwned(t, 250, 1000)
		before := h.get(t, id)

		h.worker.Tick(ctx)

		after := h.get(t, id)
		assert.Equal(t, before.EscrowBalance, after.EscrowBalance)
		assert.Equal(t, before.Owner.NextRentDue, after.Owner.NextRentDue)
		assert.Empty(t, after.Ledger)
	})

	t.Run("a paid stall is not charged twice in back-to-back scans", func(t *testing.T) {
		h := newHarness(t)
		id := h.seedOwned(t, 250, 1000)
		h.advance(24 * time.Hour)

		h.worker.Tick(ctx)
		h.worker.Tick(ctx)

		s := h.get(t, id)
		assert.Equal(t, int64(750), s.EscrowBalance)
		rentEntries := 0
		for _, e := range s.Ledger {
			if e.Kind == stall.EntryRentPayment {
				rentEntries++
			}
		}
		assert.Equal(t, 1, rentEntries)
	})

	t.Run("broke stall is suspended with a grace window", func(t *testing.T) {
		h := newHarness(t)
		id := h.seedOwned(t, 250, 0)
		h.advance(24 * time.Hour)

		h.worker.Tick(ctx)

		s := h.get(t, id)
		require.NotNil(t, s.Owner.SuspendedAt)
		assert.Equal(t, h.clock, *s.Owner.SuspendedAt)
		assert.Equal(t, h.clock.Add(72*time.Hour), s.Owner.NextRentDue)
		// Suspended, not closed: the stall keeps trading during grace.
		assert.True(t, s.IsActive)
	})

	t.Run("suspension anchor survives repeated scans", func(t *testing.T) {
		h := newHarness(t)
		id := h.seedOwned(t, 250, 0)
		h.advance(24 * time.Hour)
		h.worker.Tick(ctx)
		suspendedAt := *h.get(t, id).Owner.SuspendedAt

		h.advance(time.Hour)
		h.worker.Tick(ctx)

		s := h.get(t, id)
		require.NotNil(t, s.Owner.SuspendedAt)
		assert.Equal(t, suspendedAt, *s.Owner.SuspendedAt)
		assert.Nil(t, s.Owner.LastRentPaid)
	})

	t.Run("deposit during grace settles the debt on the next scan", func(t *testing.T) {
		h := newHarness(t)
		id := h.seedOwned(t, 250, 0)
		h.advance(24 * time.Hour)
		h.worker.Tick(ctx)
		suspended := h.get(t, id)
		require.True(t, suspended.Suspended())
		graceDue := suspended.Owner.NextRentDue

		// The owner tops up escrow mid-grace.
		_, err := h.stalls.Update(ctx, id, func(s *stall.Stall) error {
			s.EscrowBalance += 400
			return nil
		})
		require.NoError(t, err)

		h.advance(12 * time.Hour)
		h.worker.Tick(ctx)

		s := h.get(t, id)
		assert.False(t, s.Suspended())
		assert.Equal(t, int64(150), s.EscrowBalance)
		// The schedule anchors at the later of now and the pending due date.
		assert.Equal(t, graceDue.Add(24*time.Hour), s.Owner.NextRentDue)
	})

	t.Run("still broke just inside the grace window is not evicted", func(t *testing.T) {
		h := newHarness(t)
		id := h.seedOwned(t, 250, 0)
		h.advance(24 * time.Hour)
		h.worker.Tick(ctx)

		h.advance(72*time.Hour - time.Minute)
		h.worker.Tick(ctx)

		s := h.get(t, id)
		assert.True(t, s.Suspended())
		assert.NotNil(t, s.Owner)
	})

	t.Run("grace expiry evicts and clears the stall", func(t *testing.T) {
		h := newHarness(t)
		id := h.seedOwned(t, 250, 120)
		// 120 escrow cannot cover 250 rent, but must survive the eviction
		// as a vault deposit.
		_, err := h.stalls.Update(ctx, id, func(s *stall.Stall) error {
			s.Products = append(s.Products, stall.Product{
				ID:        uuid.New(),
				ItemData:  []byte(`{"res":"it_sword"}`),
				Price:     80,
				Quantity:  2,
				Consignor: s.Owner.Persona,
				Active:    true,
			})
			return nil
		})
		require.NoError(t, err)
		owner := h.get(t, id).Owner.Persona

		h.advance(24 * time.Hour)
		h.worker.Tick(ctx)
		h.advance(72*time.Hour + time.Minute)
		h.worker.Tick(ctx)

		s := h.get(t, id)
		assert.Nil(t, s.Owner)
		assert.False(t, s.IsActive)
		require.NotNil(t, s.DeactivatedAt)
		assert.Equal(t, int64(0), s.EscrowBalance)

		balance, err := h.bank.BalanceOf(ctx, owner, "cordor")
		require.NoError(t, err)
		assert.Equal(t, int64(120), balance)
		assert.Equal(t, 2, h.custodian.impounded)
	})

	t.Run("evicted stall is skipped on later scans", func(t *testing.T) {
		h := newHarness(t)
		id := h.seedOwned(t, 250, 0)
		h.advance(24 * time.Hour)
		h.worker.Tick(ctx)
		h.advance(73 * time.Hour)
		h.worker.Tick(ctx)
		require.Nil(t, h.get(t, id).Owner)

		h.advance(24 * time.Hour)
		h.worker.Tick(ctx)

		s := h.get(t, id)
		assert.Nil(t, s.Owner)
		assert.False(t, s.IsActive)
	})

	t.Run("unowned stalls are skipped", func(t *testing.T) {
		h := newHarness(t)
		id := uuid.New()
		require.NoError(t, h.stalls.Create(ctx, stall.Stall{
			ID:         id,
			Tag:        "stall_vacant",
			AreaResRef: "cordor_market",
		}))

		h.advance(48 * time.Hour)
		h.worker.Tick(ctx)

		s := h.get(t, id)
		assert.Nil(t, s.Owner)
		assert.Empty(t, s.Ledger)
	})
}

func TestWorkerRunStopsOnCancel(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.worker.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("worker did not stop on cancel")
	}
}
