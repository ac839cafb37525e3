package commands

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"stallworks/internal/coinhouse"
	"stallworks/internal/events"
	"stallworks/internal/notify"
	"stallworks/internal/persona"
	"stallworks/internal/stall"
	"stallworks/internal/stall/commands/metrics"
)

// Custodian is the inventory lockup port. Implemented by the custody service;
// declared here so the pipeline depends on the contract, not the package.
type Custodian interface {
	// Impound moves consigned products into per-area custody, one stored
	// item per unit of quantity. Returns the number of items stored.
	Impound(ctx context.Context, stallID uuid.UUID, areaResRef string, products []stall.Product) (int, error)
}

// Deps carries every port a handler may need. All handlers share one Deps so
// wiring happens once, in the registry constructor.
type Deps struct {
	Stalls      stall.Store
	Bank        *coinhouse.Service
	Bus         *events.Bus
	Notifier    notify.OwnerNotifier
	Broadcaster notify.Broadcaster
	Custodian   Custodian

	RentInterval time.Duration
	GracePeriod  time.Duration

	Logger  *slog.Logger
	Metrics *metrics.Metrics

	// Now is injected for deterministic rent schedule tests.
	Now func() time.Time
}

func (d *Deps) now() time.Time {
	if d.Now != nil {
		return d.Now().UTC()
	}
	return time.Now().UTC()
}

// notifyPersona delivers best-effort; failures are logged and swallowed.
func (d *Deps) notifyPersona(ctx context.Context, p persona.ID, message string, color notify.Color) {
	if err := d.Notifier.Notify(ctx, p, message, color); err != nil {
		d.Logger.WarnContext(ctx, "notification failed", "persona", p.String(), "error", err)
	}
}

// notifyOwner delivers best-effort; failures are logged and swallowed.
func (d *Deps) notifyOwner(ctx context.Context, s *stall.Stall, message string, color notify.Color) {
	if s.Owner == nil {
		return
	}
	if err := d.Notifier.Notify(ctx, s.Owner.Persona, message, color); err != nil {
		d.Logger.WarnContext(ctx, "owner notification failed", "stall", s.ID, "error", err)
	}
}

func (d *Deps) broadcast(ctx context.Context, s *stall.Stall) {
	if err := d.Broadcaster.BroadcastSellerRefresh(ctx, s.ID); err != nil {
		d.Logger.WarnContext(ctx, "seller refresh broadcast failed", "stall", s.ID, "error", err)
	}
}
