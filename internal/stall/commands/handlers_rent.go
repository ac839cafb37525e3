package commands

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"stallworks/internal/events"
	"stallworks/internal/notify"
	"stallworks/internal/persona"
	"stallworks/internal/stall"
	dErrors "stallworks/pkg/domain-errors"
)

// PayRentHandler drives one rent payment attempt. It always advances the
// schedule on success, even when the rent is zero; a paid stall is never
// suspended or deactivated.
type PayRentHandler struct{ deps *Deps }

func NewPayRentHandler(deps *Deps) *PayRentHandler { return &PayRentHandler{deps: deps} }

func (h *PayRentHandler) Handle(ctx context.Context, cmd PayRent) Result {
	snap, err := h.deps.Stalls.GetByID(ctx, cmd.StallID)
	if err != nil {
		return resultOf(ctx, h.deps.Logger, cmd.CommandKind(), translateStore(err))
	}
	if !snap.Owned() {
		return Fail("this stall has no owner to pay rent for")
	}

	amount := snap.DailyRent
	fromEscrow := false
	if amount > 0 {
		switch {
		case cmd.Source != SourceAccount && snap.EscrowBalance >= amount:
			fromEscrow = true
		case cmd.Source != SourceEscrow && snap.Owner.CoinhouseAccountID != nil:
			// Rent moves from the owner's account to the settlement
			// coinhouse, which keeps the total conserved.
			_, err := h.deps.Bank.Transfer(ctx, snap.Owner.Persona, persona.Coinhouse(snap.SettlementTag), snap.SettlementTag, amount, "stall rent")
			if err != nil {
				return resultOf(ctx, h.deps.Logger, cmd.CommandKind(), err)
			}
		default:
			return Fail("not enough gold to cover the rent")
		}
	}

	now := h.deps.now()
	var nextDue = now
	updated, err := h.deps.Stalls.Update(ctx, cmd.StallID, func(s *stall.Stall) error {
		if !s.Owned() {
			return dErrors.New(dErrors.CodeInvariantViolation, "stall lost its owner mid-payment")
		}
		if fromEscrow {
			if s.EscrowBalance < amount {
				return dErrors.New(dErrors.CodeInsufficientFunds, "not enough gold held in the stall")
			}
			s.EscrowBalance -= amount
		}
		if amount > 0 {
			s.AppendLedger(stall.LedgerEntry{
				Kind:        stall.EntryRentPayment,
				Amount:      -amount,
				Description: fmt.Sprintf("daily rent (%s)", sourceLabel(fromEscrow)),
				OccurredAt:  now,
			})
		}

		// On-time stalls accumulate no drift; late ones re-anchor to now.
		// This asymmetry is what the grace-period timing depends on.
		anchor := s.Owner.NextRentDue
		if now.After(anchor) {
			anchor = now
		}
		s.Owner.NextRentDue = anchor.Add(h.deps.RentInterval)
		paidAt := now
		s.Owner.LastRentPaid = &paidAt
		s.Owner.SuspendedAt = nil
		s.IsActive = true
		s.DeactivatedAt = nil
		nextDue = s.Owner.NextRentDue
		return nil
	})
	if err != nil {
		// An account transfer already went through; put it back.
		if !fromEscrow && amount > 0 {
			if _, compErr := h.deps.Bank.Transfer(ctx, persona.Coinhouse(snap.SettlementTag), snap.Owner.Persona, snap.SettlementTag, amount, "stall rent reversed"); compErr != nil {
				h.deps.Logger.ErrorContext(ctx, "rent compensation failed",
					"stall", cmd.StallID, "amount", amount, "error", compErr)
			}
		}
		return resultOf(ctx, h.deps.Logger, cmd.CommandKind(), translateStore(err))
	}

	// Escrow rent leaves the stall and lands in the settlement coinhouse.
	if fromEscrow && amount > 0 {
		house := persona.Coinhouse(updated.SettlementTag)
		if _, err := h.deps.Bank.Deposit(ctx, house, updated.SettlementTag, amount, "stall rent collected"); err != nil {
			h.deps.Logger.ErrorContext(ctx, "rent collection deposit failed",
				"stall", cmd.StallID, "amount", amount, "error", err)
			h.markCollectionPending(ctx, cmd.StallID, amount, now)
		}
	}

	h.deps.Bus.Publish(ctx, events.StallRentPaid{
		StallID:     cmd.StallID,
		Amount:      amount,
		Source:      sourceLabel(fromEscrow),
		NextRentDue: nextDue,
		PaidAt:      now,
	})
	return Succeed()
}

// markCollectionPending records a zero-amount ledger marker when collected
// rent could not be deposited at the coinhouse, so the shortfall is findable
// from the stall ledger rather than only from process logs.
func (h *PayRentHandler) markCollectionPending(ctx context.Context, stallID uuid.UUID, amount int64, now time.Time) {
	_, err := h.deps.Stalls.Update(ctx, stallID, func(s *stall.Stall) error {
		s.AppendLedger(stall.LedgerEntry{
			Kind:        stall.EntryCollectionPending,
			Description: "rent awaiting coinhouse collection",
			OccurredAt:  now,
			Metadata:    map[string]string{"amount": strconv.FormatInt(amount, 10)},
		})
		return nil
	})
	if err != nil {
		h.deps.Logger.ErrorContext(ctx, "rent collection marker failed",
			"stall", stallID, "amount", amount, "error", err)
	}
}

func sourceLabel(fromEscrow bool) string {
	if fromEscrow {
		return "escrow"
	}
	return "account"
}

// SuspendStallHandler marks the first missed payment: the grace window is
// anchored at SuspendedAt and the stall stays active and tradeable until it
// expires.
type SuspendStallHandler struct{ deps *Deps }

func NewSuspendStallHandler(deps *Deps) *SuspendStallHandler {
	return &SuspendStallHandler{deps: deps}
}

// Suspend is invoked by the rent renewal worker; it is not registered on the
// public dispatcher because players never issue it.
func (h *SuspendStallHandler) Suspend(ctx context.Context, stallID uuid.UUID) Result {
	now := h.deps.now()
	graceUntil := now.Add(h.deps.GracePeriod)
	var owner persona.ID
	updated, err := h.deps.Stalls.Update(ctx, stallID, func(s *stall.Stall) error {
		if !s.Owned() {
			return dErrors.New(dErrors.CodeInvariantViolation, "stall has no owner")
		}
		if s.Owner.SuspendedAt != nil {
			// Already inside a suspension episode; the anchor never moves.
			return dErrors.New(dErrors.CodeConflict, "stall is already suspended")
		}
		suspendedAt := now
		s.Owner.SuspendedAt = &suspendedAt
		s.Owner.NextRentDue = graceUntil
		owner = s.Owner.Persona
		return nil
	})
	if err != nil {
		return resultOf(ctx, h.deps.Logger, "stall.suspend", translateStore(err))
	}

	h.deps.notifyOwner(ctx, &updated,
		fmt.Sprintf("Your stall rent of %d gold could not be paid. Settle your debt before %s or your stall is forfeit.",
			updated.DailyRent, graceUntil.Format("2 Jan 15:04")),
		notify.ColorWarning)
	h.deps.broadcast(ctx, &updated)
	h.deps.Bus.Publish(ctx, events.StallSuspended{
		StallID:     stallID,
		Owner:       owner,
		SuspendedAt: now,
		GraceUntil:  graceUntil,
	})
	return Succeed()
}

// EvictStallHandler forcibly releases ownership after the grace period has
// expired with rent still unpaid.
type EvictStallHandler struct{ deps *Deps }

func NewEvictStallHandler(deps *Deps) *EvictStallHandler { return &EvictStallHandler{deps: deps} }

// Evict is invoked by the rent renewal worker only.
func (h *EvictStallHandler) Evict(ctx context.Context, stallID uuid.UUID) Result {
	rel, err := releaseOwnership(ctx, h.deps, stallID, "evicted")
	if err != nil {
		return resultOf(ctx, h.deps.Logger, "stall.evict", translateStore(err))
	}
	h.deps.notifyPersona(ctx, rel.owner,
		"Your stall has been repossessed for unpaid rent. Your goods are held by the reeve.",
		notify.ColorAlert)
	return Succeed()
}
