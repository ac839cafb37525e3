package commands

import (
	"context"

	"stallworks/internal/events"
)

// DepositAccountHandler puts gold into a persona's coinhouse account,
// provisioning the account on first use.
type DepositAccountHandler struct{ deps *Deps }

func NewDepositAccountHandler(deps *Deps) *DepositAccountHandler {
	return &DepositAccountHandler{deps: deps}
}

func (h *DepositAccountHandler) Handle(ctx context.Context, cmd DepositAccount) Result {
	if _, err := h.deps.Bank.Deposit(ctx, cmd.Persona, cmd.CoinhouseTag, cmd.Amount, cmd.Memo); err != nil {
		return resultOf(ctx, h.deps.Logger, cmd.CommandKind(), err)
	}
	h.deps.Bus.Publish(ctx, events.AccountDeposited{
		Persona:      cmd.Persona,
		CoinhouseTag: cmd.CoinhouseTag,
		Amount:       cmd.Amount,
	})
	return Succeed()
}

// WithdrawAccountHandler takes gold out of a persona's coinhouse account.
type WithdrawAccountHandler struct{ deps *Deps }

func NewWithdrawAccountHandler(deps *Deps) *WithdrawAccountHandler {
	return &WithdrawAccountHandler{deps: deps}
}

func (h *WithdrawAccountHandler) Handle(ctx context.Context, cmd WithdrawAccount) Result {
	if _, err := h.deps.Bank.Withdraw(ctx, cmd.Persona, cmd.CoinhouseTag, cmd.Amount, cmd.Memo); err != nil {
		return resultOf(ctx, h.deps.Logger, cmd.CommandKind(), err)
	}
	h.deps.Bus.Publish(ctx, events.AccountWithdrawn{
		Persona:      cmd.Persona,
		CoinhouseTag: cmd.CoinhouseTag,
		Amount:       cmd.Amount,
	})
	return Succeed()
}
