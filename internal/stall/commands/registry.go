package commands

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// handlerFunc erases the concrete command type so the dispatcher can hold a
// uniform table. The adapt helper restores the type at the boundary.
type handlerFunc func(ctx context.Context, cmd Command) Result

// Dispatcher routes commands to their handlers through an explicit table.
// Registration is closed at construction; an unknown kind is a programming
// error surfaced as a rejection, not a panic.
type Dispatcher struct {
	deps     *Deps
	handlers map[string]handlerFunc
	tracer   trace.Tracer
}

// adapt wraps a typed handler as a handlerFunc. The type assertion cannot
// fail for commands routed through the table, since each kind maps to the
// handler registered for that exact type.
func adapt[T Command](handle func(ctx context.Context, cmd T) Result) handlerFunc {
	return func(ctx context.Context, cmd Command) Result {
		typed, ok := cmd.(T)
		if !ok {
			return Fail(genericFailure)
		}
		return handle(ctx, typed)
	}
}

// NewDispatcher wires every player-facing handler. Suspend and Evict are
// deliberately absent: they belong to the rent worker, not to players.
func NewDispatcher(deps *Deps) *Dispatcher {
	d := &Dispatcher{
		deps:   deps,
		tracer: otel.Tracer("stallworks/commands"),
	}
	d.handlers = map[string]handlerFunc{
		ClaimStall{}.CommandKind():      adapt(NewClaimStallHandler(deps).Handle),
		ReleaseStall{}.CommandKind():    adapt(NewReleaseStallHandler(deps).Handle),
		AddMember{}.CommandKind():       adapt(NewAddMemberHandler(deps).Handle),
		RemoveMember{}.CommandKind():    adapt(NewRemoveMemberHandler(deps).Handle),
		DepositEscrow{}.CommandKind():   adapt(NewDepositEscrowHandler(deps).Handle),
		WithdrawEscrow{}.CommandKind():  adapt(NewWithdrawEscrowHandler(deps).Handle),
		PayRent{}.CommandKind():         adapt(NewPayRentHandler(deps).Handle),
		ConsignProduct{}.CommandKind():  adapt(NewConsignProductHandler(deps).Handle),
		RecordSale{}.CommandKind():      adapt(NewRecordSaleHandler(deps).Handle),
		DepositAccount{}.CommandKind():  adapt(NewDepositAccountHandler(deps).Handle),
		WithdrawAccount{}.CommandKind(): adapt(NewWithdrawAccountHandler(deps).Handle),
	}
	return d
}

// Dispatch executes one command and returns its uniform result. Every
// dispatch is traced and counted regardless of outcome.
func (d *Dispatcher) Dispatch(ctx context.Context, cmd Command) Result {
	kind := cmd.CommandKind()

	ctx, span := d.tracer.Start(ctx, "command.dispatch",
		trace.WithAttributes(attribute.String("command.kind", kind)),
	)
	defer span.End()

	h, ok := d.handlers[kind]
	if !ok {
		d.deps.Logger.ErrorContext(ctx, "no handler registered", "command", kind)
		return Fail(genericFailure)
	}

	start := time.Now()
	res := h(ctx, cmd)
	d.deps.Metrics.ObserveDispatchLatency(kind, time.Since(start))
	d.deps.Metrics.IncrementOutcome(kind, res.OK)
	span.SetAttributes(attribute.Bool("command.ok", res.OK))

	if !res.OK {
		d.deps.Logger.InfoContext(ctx, "command rejected", "command", kind, "reason", res.Reason)
	}
	return res
}

// MustDispatch is a test convenience that fails loudly on rejection.
func (d *Dispatcher) MustDispatch(ctx context.Context, cmd Command) Result {
	res := d.Dispatch(ctx, cmd)
	if !res.OK {
		panic(fmt.Sprintf("command %s rejected: %s", cmd.CommandKind(), res.Reason))
	}
	return res
}
