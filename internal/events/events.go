// Package events carries the engine's domain events and the in-process bus
// that fans them out. Command handlers publish exactly one event per success;
// cross-cutting effects (notifications, cache refresh, the kafka relay) only
// ever happen in subscribers, which keeps the command pipeline one-directional.
package events

import (
	"time"

	"github.com/google/uuid"

	"stallworks/internal/persona"
)

// Event is implemented by every domain event. Kind is a stable string used
// for routing and relay topic keys.
type Event interface {
	Kind() string
}

// StallEvent is implemented by events scoped to one stall, so subscribers can
// route without type-switching every variant.
type StallEvent interface {
	Event
	Stall() uuid.UUID
}

type StallClaimed struct {
	StallID    uuid.UUID
	Owner      persona.ID
	OwnerName  string
	AreaResRef string
	ClaimedAt  time.Time
}

func (StallClaimed) Kind() string       { return "stall.claimed" }
func (e StallClaimed) Stall() uuid.UUID { return e.StallID }

type StallOwnershipReleased struct {
	StallID    uuid.UUID
	Owner      persona.ID
	Reason     string
	ReleasedAt time.Time
}

func (StallOwnershipReleased) Kind() string       { return "stall.ownership_released" }
func (e StallOwnershipReleased) Stall() uuid.UUID { return e.StallID }

type StallMemberAdded struct {
	StallID uuid.UUID
	Member  persona.ID
	AddedBy persona.ID
	AddedAt time.Time
}

func (StallMemberAdded) Kind() string       { return "stall.member_added" }
func (e StallMemberAdded) Stall() uuid.UUID { return e.StallID }

type StallMemberRemoved struct {
	StallID   uuid.UUID
	Member    persona.ID
	RemovedBy persona.ID
	RemovedAt time.Time
}

func (StallMemberRemoved) Kind() string       { return "stall.member_removed" }
func (e StallMemberRemoved) Stall() uuid.UUID { return e.StallID }

type StallEscrowDeposited struct {
	StallID   uuid.UUID
	Depositor persona.ID
	Amount    int64
	Balance   int64
}

func (StallEscrowDeposited) Kind() string       { return "stall.escrow_deposited" }
func (e StallEscrowDeposited) Stall() uuid.UUID { return e.StallID }

type StallEscrowWithdrawn struct {
	StallID   uuid.UUID
	Requestor persona.ID
	Amount    int64
	Balance   int64
}

func (StallEscrowWithdrawn) Kind() string       { return "stall.escrow_withdrawn" }
func (e StallEscrowWithdrawn) Stall() uuid.UUID { return e.StallID }

type StallRentPaid struct {
	StallID     uuid.UUID
	Amount      int64
	Source      string
	NextRentDue time.Time
	PaidAt      time.Time
}

func (StallRentPaid) Kind() string       { return "stall.rent_paid" }
func (e StallRentPaid) Stall() uuid.UUID { return e.StallID }

type StallSuspended struct {
	StallID     uuid.UUID
	Owner       persona.ID
	SuspendedAt time.Time
	GraceUntil  time.Time
}

func (StallSuspended) Kind() string       { return "stall.suspended" }
func (e StallSuspended) Stall() uuid.UUID { return e.StallID }

type StallProductConsigned struct {
	StallID   uuid.UUID
	ProductID uuid.UUID
	Consignor persona.ID
	Price     int64
	Quantity  int
}

func (StallProductConsigned) Kind() string       { return "stall.product_consigned" }
func (e StallProductConsigned) Stall() uuid.UUID { return e.StallID }

type StallSaleRecorded struct {
	StallID     uuid.UUID
	ProductID   uuid.UUID
	Buyer       persona.ID
	Gross       int64
	Net         int64
	HeldInStall bool
}

func (StallSaleRecorded) Kind() string       { return "stall.sale_recorded" }
func (e StallSaleRecorded) Stall() uuid.UUID { return e.StallID }

type AccountDeposited struct {
	Persona      persona.ID
	CoinhouseTag string
	Amount       int64
}

func (AccountDeposited) Kind() string { return "account.deposited" }

type AccountWithdrawn struct {
	Persona      persona.ID
	CoinhouseTag string
	Amount       int64
}

func (AccountWithdrawn) Kind() string { return "account.withdrawn" }
