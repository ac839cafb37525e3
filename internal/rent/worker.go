// Package rent runs the renewal state machine: a periodic scan that collects
// due rent, suspends stalls that cannot pay, and evicts them once the grace
// window has run out. The worker only drives the same handlers the command
// pipeline uses, so a scan is idempotent: a stall that is paid up, already
// suspended, or already evicted comes out of a repeat pass unchanged.
package rent

import (
	"context"
	"log/slog"
	"time"

	"stallworks/internal/rent/metrics"
	"stallworks/internal/stall"
	"stallworks/internal/stall/commands"
)

// Outcomes of one per-stall decision, used as metric labels.
const (
	outcomePaid        = "paid"
	outcomeSuspended   = "suspended"
	outcomeEvicted     = "evicted"
	outcomeRetryFailed = "retry_failed"
	outcomeSkipped     = "skipped"
	outcomeError       = "error"
)

// Worker scans all stalls on a fixed interval.
type Worker struct {
	stalls      stall.Store
	payer       *commands.PayRentHandler
	suspender   *commands.SuspendStallHandler
	evictor     *commands.EvictStallHandler
	gracePeriod time.Duration
	interval    time.Duration
	logger      *slog.Logger
	metrics     *metrics.Metrics
	now         func() time.Time
}

func NewWorker(deps *commands.Deps, store stall.Store, interval time.Duration, m *metrics.Metrics) *Worker {
	return &Worker{
		stalls:      store,
		payer:       commands.NewPayRentHandler(deps),
		suspender:   commands.NewSuspendStallHandler(deps),
		evictor:     commands.NewEvictStallHandler(deps),
		gracePeriod: deps.GracePeriod,
		interval:    interval,
		logger:      deps.Logger,
		metrics:     m,
		now: func() time.Time {
			if deps.Now != nil {
				return deps.Now().UTC()
			}
			return time.Now().UTC()
		},
	}
}

// Run scans until the context is cancelled. One broken stall never stops the
// scan for the rest.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.Tick(ctx)
		}
	}
}

// Tick performs one full scan. Exported so tests and ops tooling can force a
// pass without waiting on the ticker.
func (w *Worker) Tick(ctx context.Context) {
	start := time.Now()
	defer func() { w.metrics.ObserveTickLatency(time.Since(start)) }()

	all, err := w.stalls.All(ctx)
	if err != nil {
		w.logger.ErrorContext(ctx, "rent scan failed to list stalls", "error", err)
		w.metrics.IncrementDecision(outcomeError)
		return
	}

	now := w.now()
	for i := range all {
		select {
		case <-ctx.Done():
			return
		default:
		}
		outcome := w.process(ctx, &all[i], now)
		w.metrics.IncrementDecision(outcome)
	}
}

// process decides and acts for one stall. The snapshot may be stale by the
// time a handler runs; every handler re-validates inside the store's atomic
// update, so acting on a stale snapshot degrades to a no-op, not corruption.
func (w *Worker) process(ctx context.Context, s *stall.Stall, now time.Time) string {
	if !s.Owned() || !s.IsActive {
		return outcomeSkipped
	}

	if s.Suspended() {
		// Inside the grace window every pass retries collection; the debt
		// may have been covered since the last tick.
		if res := w.pay(ctx, s); res.OK {
			w.logger.InfoContext(ctx, "suspended stall settled its rent", "stall", s.ID, "tag", s.Tag)
			return outcomePaid
		}
		if now.Sub(*s.Owner.SuspendedAt) >= w.gracePeriod {
			if res := w.evictor.Evict(ctx, s.ID); !res.OK {
				w.logger.ErrorContext(ctx, "eviction failed", "stall", s.ID, "reason", res.Reason)
				return outcomeError
			}
			w.logger.InfoContext(ctx, "stall evicted for unpaid rent", "stall", s.ID, "tag", s.Tag)
			return outcomeEvicted
		}
		return outcomeRetryFailed
	}

	if !s.RentDue(now) {
		return outcomeSkipped
	}

	if res := w.pay(ctx, s); res.OK {
		return outcomePaid
	}
	if res := w.suspender.Suspend(ctx, s.ID); !res.OK {
		w.logger.ErrorContext(ctx, "suspension failed", "stall", s.ID, "reason", res.Reason)
		return outcomeError
	}
	w.logger.InfoContext(ctx, "stall suspended for unpaid rent", "stall", s.ID, "tag", s.Tag)
	return outcomeSuspended
}

func (w *Worker) pay(ctx context.Context, s *stall.Stall) commands.Result {
	cmd, err := commands.NewPayRent(s.ID, commands.SourceAuto)
	if err != nil {
		return commands.Fail(err.Error())
	}
	return w.payer.Handle(ctx, cmd)
}
