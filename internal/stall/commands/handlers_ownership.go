package commands

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"stallworks/internal/events"
	"stallworks/internal/notify"
	"stallworks/internal/persona"
	"stallworks/internal/stall"
	dErrors "stallworks/pkg/domain-errors"
)

// ClaimStallHandler populates ownership on an unowned stall and starts the
// lease clock.
type ClaimStallHandler struct{ deps *Deps }

func NewClaimStallHandler(deps *Deps) *ClaimStallHandler { return &ClaimStallHandler{deps: deps} }

func (h *ClaimStallHandler) Handle(ctx context.Context, cmd ClaimStall) Result {
	charID, ok := cmd.Claimant.CharacterID()
	if !ok {
		return Fail("only characters may claim a stall")
	}

	snap, err := h.deps.Stalls.GetByID(ctx, cmd.StallID)
	if err != nil {
		return resultOf(ctx, h.deps.Logger, cmd.CommandKind(), translateStore(err))
	}
	taken, err := h.deps.Stalls.HasActiveOwnershipInArea(ctx, charID, snap.AreaResRef, cmd.StallID)
	if err != nil {
		return resultOf(ctx, h.deps.Logger, cmd.CommandKind(), err)
	}
	if taken {
		return Fail("you already hold a stall in this area")
	}

	var accountID *uuid.UUID
	if cmd.LinkAccount {
		acct, err := h.deps.Bank.Provision(ctx, cmd.Claimant, snap.SettlementTag)
		if err != nil {
			return resultOf(ctx, h.deps.Logger, cmd.CommandKind(), err)
		}
		accountID = &acct.ID
	}

	now := h.deps.now()
	updated, err := h.deps.Stalls.Update(ctx, cmd.StallID, func(s *stall.Stall) error {
		if s.Owned() {
			return dErrors.New(dErrors.CodeConflict, "this stall already has an owner")
		}
		s.Owner = &stall.Ownership{
			CharacterID:        charID,
			Persona:            cmd.Claimant,
			DisplayName:        cmd.DisplayName,
			CoinhouseAccountID: accountID,
			LeaseStart:         now,
			NextRentDue:        now.Add(h.deps.RentInterval),
		}
		s.HoldEarningsInStall = cmd.HoldEarnings
		s.IsActive = true
		s.DeactivatedAt = nil
		s.Members = append(s.Members, stall.Member{
			Persona:              cmd.Claimant,
			DisplayName:          cmd.DisplayName,
			CanManageInventory:   true,
			CanConfigureSettings: true,
			CanCollectEarnings:   true,
			AddedBy:              cmd.Claimant,
			AddedAt:              now,
		})
		return nil
	})
	if err != nil {
		return resultOf(ctx, h.deps.Logger, cmd.CommandKind(), translateStore(err))
	}

	h.deps.notifyOwner(ctx, &updated, fmt.Sprintf("The stall in %s is yours. Rent is %d gold per day.", updated.AreaResRef, updated.DailyRent), notify.ColorInfo)
	h.deps.broadcast(ctx, &updated)
	h.deps.Bus.Publish(ctx, events.StallClaimed{
		StallID:    cmd.StallID,
		Owner:      cmd.Claimant,
		OwnerName:  cmd.DisplayName,
		AreaResRef: updated.AreaResRef,
		ClaimedAt:  now,
	})
	return Succeed()
}

// ReleaseStallHandler is the voluntary counterpart of eviction: the owner
// walks away, escrow is forwarded to their vault, and their inventory goes to
// reeve custody for later reclaim.
type ReleaseStallHandler struct{ deps *Deps }

func NewReleaseStallHandler(deps *Deps) *ReleaseStallHandler {
	return &ReleaseStallHandler{deps: deps}
}

func (h *ReleaseStallHandler) Handle(ctx context.Context, cmd ReleaseStall) Result {
	snap, err := h.deps.Stalls.GetByID(ctx, cmd.StallID)
	if err != nil {
		return resultOf(ctx, h.deps.Logger, cmd.CommandKind(), translateStore(err))
	}
	if !snap.IsOwner(cmd.Requestor) {
		return Fail("only the owner may give up the stall")
	}
	rel, err := releaseOwnership(ctx, h.deps, cmd.StallID, "released")
	if err != nil {
		return resultOf(ctx, h.deps.Logger, cmd.CommandKind(), translateStore(err))
	}
	h.deps.notifyPersona(ctx, rel.owner, "You have given up your stall. Your goods await you with the reeve.", notify.ColorInfo)
	return Succeed()
}

// releasedStall captures what releaseOwnership tore down, for notifications
// and the published event.
type releasedStall struct {
	owner     persona.ID
	ownerName string
	escrow    int64
	impounded int
}

// releaseOwnership clears ownership atomically, forwards any escrowed gold to
// the ex-owner's vault account, and impounds remaining inventory. Shared by
// voluntary release and eviction; reason distinguishes them in the event.
func releaseOwnership(ctx context.Context, deps *Deps, stallID uuid.UUID, reason string) (releasedStall, error) {
	now := deps.now()
	var (
		rel      releasedStall
		area     string
		tag      string
		products []stall.Product
	)
	updated, err := deps.Stalls.Update(ctx, stallID, func(s *stall.Stall) error {
		if !s.Owned() {
			return dErrors.New(dErrors.CodeInvariantViolation, "stall has no owner")
		}
		rel.owner = s.Owner.Persona
		rel.ownerName = s.Owner.DisplayName
		rel.escrow = s.EscrowBalance
		area = s.AreaResRef
		tag = s.SettlementTag

		if s.EscrowBalance > 0 {
			s.AppendLedger(stall.LedgerEntry{
				Kind:        stall.EntryEscrowForwarded,
				Amount:      -s.EscrowBalance,
				Description: "escrow forwarded to owner's vault on " + reason,
				OccurredAt:  now,
				Metadata:    map[string]string{"owner": s.Owner.Persona.String()},
			})
			s.EscrowBalance = 0
		}
		for i := range s.Products {
			if s.Products[i].Active {
				products = append(products, s.Products[i])
				s.Products[i].Active = false
				s.Products[i].Quantity = 0
			}
		}
		for i := range s.Members {
			if !s.Members[i].Revoked() {
				revokedAt := now
				s.Members[i].RevokedAt = &revokedAt
			}
		}
		s.Owner = nil
		s.IsActive = false
		deactivated := now
		s.DeactivatedAt = &deactivated
		return nil
	})
	if err != nil {
		return releasedStall{}, err
	}

	// Escrow never vanishes: it becomes a vault deposit addressed to the
	// ex-owner's persona at the settlement coinhouse.
	if rel.escrow > 0 {
		if _, err := deps.Bank.Deposit(ctx, rel.owner, tag, rel.escrow, "stall escrow forwarded on "+reason); err != nil {
			deps.Logger.ErrorContext(ctx, "escrow forwarding failed, gold held in ledger entry",
				"stall", stallID, "owner", rel.owner.String(), "amount", rel.escrow, "error", err)
		}
	}
	if len(products) > 0 {
		n, err := deps.Custodian.Impound(ctx, stallID, area, products)
		if err != nil {
			deps.Logger.ErrorContext(ctx, "inventory impound failed",
				"stall", stallID, "area", area, "error", err)
		}
		rel.impounded = n
	}

	deps.broadcast(ctx, &updated)
	deps.Bus.Publish(ctx, events.StallOwnershipReleased{
		StallID:    stallID,
		Owner:      rel.owner,
		Reason:     reason,
		ReleasedAt: now,
	})
	return rel, nil
}
