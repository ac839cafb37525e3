package commands

import (
	"context"
	"fmt"

	"stallworks/internal/events"
	"stallworks/internal/notify"
	"stallworks/internal/stall"
	dErrors "stallworks/pkg/domain-errors"
)

// ConsignProductHandler places an item for sale in the stall's inventory.
type ConsignProductHandler struct{ deps *Deps }

func NewConsignProductHandler(deps *Deps) *ConsignProductHandler {
	return &ConsignProductHandler{deps: deps}
}

func (h *ConsignProductHandler) Handle(ctx context.Context, cmd ConsignProduct) Result {
	var product stall.Product
	updated, err := h.deps.Stalls.Update(ctx, cmd.StallID, func(s *stall.Stall) error {
		p, err := s.TryConsignProduct(cmd.Requestor, cmd.ItemData, cmd.Price, cmd.Quantity)
		if err != nil {
			return err
		}
		s.Products = append(s.Products, p)
		product = p
		return nil
	})
	if err != nil {
		return resultOf(ctx, h.deps.Logger, cmd.CommandKind(), translateStore(err))
	}

	h.deps.broadcast(ctx, &updated)
	h.deps.Bus.Publish(ctx, events.StallProductConsigned{
		StallID:   cmd.StallID,
		ProductID: product.ID,
		Consignor: cmd.Requestor,
		Price:     cmd.Price,
		Quantity:  cmd.Quantity,
	})
	return Succeed()
}

// RecordSaleHandler settles a completed purchase: one unit leaves the product,
// proceeds land in escrow or the owner's account depending on the stall's
// HoldEarningsInStall flag, and the lifetime counters advance.
type RecordSaleHandler struct{ deps *Deps }

func NewRecordSaleHandler(deps *Deps) *RecordSaleHandler {
	return &RecordSaleHandler{deps: deps}
}

func (h *RecordSaleHandler) Handle(ctx context.Context, cmd RecordSale) Result {
	var (
		price       int64
		heldInStall bool
		owner       *stall.Ownership
		settlement  string
	)
	sold, err := h.deps.Stalls.UpdateStallAndProduct(ctx, cmd.StallID, cmd.ProductID, func(s *stall.Stall, p *stall.Product) error {
		if !s.Owned() {
			return dErrors.New(dErrors.CodeInvariantViolation, "stall has no owner")
		}
		if !s.IsActive {
			return dErrors.New(dErrors.CodeConflict, "this stall is closed")
		}
		if !p.Active || p.Quantity <= 0 {
			return dErrors.New(dErrors.CodeConflict, "this item is no longer for sale")
		}

		p.Quantity--
		if p.Quantity == 0 {
			p.Active = false
		}
		price = p.Price
		heldInStall = s.HoldEarningsInStall
		owner = s.Owner
		settlement = s.SettlementTag

		s.LifetimeGrossSales += price
		s.LifetimeNetEarnings += price
		if heldInStall {
			s.EscrowBalance += price
		}
		s.AppendLedger(stall.LedgerEntry{
			Kind:        stall.EntrySale,
			Amount:      price,
			Description: "sale to " + cmd.Buyer.String(),
			Metadata:    map[string]string{"product_id": cmd.ProductID.String()},
		})
		return nil
	})
	if err != nil {
		return resultOf(ctx, h.deps.Logger, cmd.CommandKind(), translateStore(err))
	}
	if !sold {
		return Fail("this item is no longer for sale")
	}

	// Direct-settlement stalls forward proceeds to the owner's account. The
	// sale already committed; a failed forward stays in the log for ops to
	// replay rather than clawing the sale back from the buyer.
	if !heldInStall && price > 0 {
		if _, err := h.deps.Bank.Deposit(ctx, owner.Persona, settlement, price, "stall sale proceeds"); err != nil {
			h.deps.Logger.ErrorContext(ctx, "sale proceeds forward failed",
				"stall", cmd.StallID, "product", cmd.ProductID, "amount", price, "error", err)
		}
	}

	h.deps.notifyPersona(ctx, owner.Persona, fmt.Sprintf("Your stall sold an item for %d gold.", price), notify.ColorInfo)
	h.deps.Bus.Publish(ctx, events.StallSaleRecorded{
		StallID:     cmd.StallID,
		ProductID:   cmd.ProductID,
		Buyer:       cmd.Buyer,
		Gross:       price,
		Net:         price,
		HeldInStall: heldInStall,
	})
	return Succeed()
}
