package commands

import (
	"context"
	"fmt"

	"stallworks/internal/events"
	"stallworks/internal/notify"
	"stallworks/internal/stall"
)

// DepositEscrowHandler moves gold into the stall's escrow.
type DepositEscrowHandler struct{ deps *Deps }

func NewDepositEscrowHandler(deps *Deps) *DepositEscrowHandler {
	return &DepositEscrowHandler{deps: deps}
}

func (h *DepositEscrowHandler) Handle(ctx context.Context, cmd DepositEscrow) Result {
	updated, err := h.deps.Stalls.Update(ctx, cmd.StallID, func(s *stall.Stall) error {
		dep, err := s.TryDepositToEscrow(cmd.Depositor, cmd.Amount)
		if err != nil {
			return err
		}
		dep.Apply(s)
		return nil
	})
	if err != nil {
		return resultOf(ctx, h.deps.Logger, cmd.CommandKind(), translateStore(err))
	}

	h.deps.Bus.Publish(ctx, events.StallEscrowDeposited{
		StallID:   cmd.StallID,
		Depositor: cmd.Depositor,
		Amount:    cmd.Amount,
		Balance:   updated.EscrowBalance,
	})
	return Succeed()
}

// WithdrawEscrowHandler draws accumulated earnings out of escrow into the
// requestor's coinhouse account at the stall's settlement.
type WithdrawEscrowHandler struct{ deps *Deps }

func NewWithdrawEscrowHandler(deps *Deps) *WithdrawEscrowHandler {
	return &WithdrawEscrowHandler{deps: deps}
}

func (h *WithdrawEscrowHandler) Handle(ctx context.Context, cmd WithdrawEscrow) Result {
	updated, err := h.deps.Stalls.Update(ctx, cmd.StallID, func(s *stall.Stall) error {
		w, err := s.TryWithdrawFromEscrow(cmd.Requestor, cmd.Amount)
		if err != nil {
			return err
		}
		w.Apply(s)
		return nil
	})
	if err != nil {
		return resultOf(ctx, h.deps.Logger, cmd.CommandKind(), translateStore(err))
	}

	// Gold leaving the stall lands in the requestor's account so it is never
	// destroyed. A failure here is compensated by putting it back in escrow.
	if _, err := h.deps.Bank.Deposit(ctx, cmd.Requestor, updated.SettlementTag, cmd.Amount, "stall earnings withdrawal"); err != nil {
		_, compErr := h.deps.Stalls.Update(ctx, cmd.StallID, func(s *stall.Stall) error {
			s.EscrowBalance += cmd.Amount
			s.AppendLedger(stall.LedgerEntry{
				Kind:        stall.EntryDeposit,
				Amount:      cmd.Amount,
				Description: "withdrawal reversed: account deposit failed",
			})
			return nil
		})
		if compErr != nil {
			h.deps.Logger.ErrorContext(ctx, "escrow withdrawal compensation failed",
				"stall", cmd.StallID, "amount", cmd.Amount, "error", compErr)
		}
		return resultOf(ctx, h.deps.Logger, cmd.CommandKind(), err)
	}

	h.deps.notifyOwner(ctx, &updated, fmt.Sprintf("%d gold withdrawn from your stall.", cmd.Amount), notify.ColorInfo)
	h.deps.Bus.Publish(ctx, events.StallEscrowWithdrawn{
		StallID:   cmd.StallID,
		Requestor: cmd.Requestor,
		Amount:    cmd.Amount,
		Balance:   updated.EscrowBalance,
	})
	return Succeed()
}
