// Package stall models the rentable player stall: ownership, delegated
// member permissions, escrowed earnings, consigned inventory, and an
// append-only ledger of every balance-affecting event.
package stall

import (
	"time"

	"github.com/google/uuid"

	"stallworks/internal/persona"
)

// Stall is the aggregate root. A stall entity exists independently of
// ownership; Owner is nil while unowned, which is what enforces the
// "owner fields are all set or all unset" invariant structurally.
type Stall struct {
	ID            uuid.UUID
	Tag           string
	AreaResRef    string
	SettlementTag string

	Owner *Ownership

	// HoldEarningsInStall directs sale proceeds into EscrowBalance instead
	// of the owner's coinhouse account.
	HoldEarningsInStall bool
	EscrowBalance       int64
	LifetimeGrossSales  int64
	LifetimeNetEarnings int64
	DailyRent           int64

	IsActive      bool
	DeactivatedAt *time.Time

	Members  []Member
	Ledger   []LedgerEntry
	Products []Product
}

// Ownership carries every owner-scoped field, including the lease schedule.
// It only exists while the stall is owned.
type Ownership struct {
	CharacterID uuid.UUID
	Persona     persona.ID
	DisplayName string

	// CoinhouseAccountID links a personal account for rent payment when the
	// escrow cannot cover it. Nil when the owner pays from escrow only.
	CoinhouseAccountID *uuid.UUID

	LeaseStart   time.Time
	NextRentDue  time.Time
	LastRentPaid *time.Time

	// SuspendedAt anchors the grace window. Set exactly once per suspension
	// episode and cleared only by a successful rent payment.
	SuspendedAt *time.Time
}

// Member is a persona granted delegated rights on a stall. The owner is
// always present as a member while the stall is owned and cannot be removed.
type Member struct {
	Persona              persona.ID
	DisplayName          string
	CanManageInventory   bool
	CanConfigureSettings bool
	CanCollectEarnings   bool
	AddedBy              persona.ID
	AddedAt              time.Time
	RevokedAt            *time.Time
}

// Revoked reports whether the membership has been revoked.
func (m Member) Revoked() bool { return m.RevokedAt != nil }

// EntryKind classifies ledger entries.
type EntryKind string

const (
	EntryDeposit          EntryKind = "deposit"
	EntryWithdrawal       EntryKind = "withdrawal"
	EntryRentPayment      EntryKind = "rent_payment"
	EntrySale             EntryKind = "sale"
	EntryEscrowForwarded  EntryKind = "escrow_forwarded"
	EntryOwnershipClaimed EntryKind = "ownership_claimed"

	// EntryCollectionPending is a zero-amount marker: rent left the escrow but
	// the coinhouse deposit failed, so the gold awaits operator collection.
	EntryCollectionPending EntryKind = "collection_pending"
)

// LedgerEntry is an immutable audit record of a balance-affecting event on a
// stall. Amount is signed: positive for gold entering the stall, negative for
// gold leaving it.
type LedgerEntry struct {
	ID          uuid.UUID
	Kind        EntryKind
	Amount      int64
	Description string
	OccurredAt  time.Time
	Metadata    map[string]string
}

// Product is an item consigned for sale. ItemData is an opaque serialized
// payload owned by the game layer.
type Product struct {
	ID        uuid.UUID
	ItemData  []byte
	Price     int64
	Quantity  int
	Consignor persona.ID
	Active    bool
}

// MemberDescriptor is the validated input for adding a member.
type MemberDescriptor struct {
	Persona              persona.ID
	DisplayName          string
	CanManageInventory   bool
	CanConfigureSettings bool
	CanCollectEarnings   bool
}

// Clone returns a deep copy so stores can hand out snapshots without
// aliasing the persisted entity.
func (s Stall) Clone() Stall {
	out := s
	if s.Owner != nil {
		owner := *s.Owner
		if s.Owner.CoinhouseAccountID != nil {
			id := *s.Owner.CoinhouseAccountID
			owner.CoinhouseAccountID = &id
		}
		owner.LastRentPaid = cloneTime(s.Owner.LastRentPaid)
		owner.SuspendedAt = cloneTime(s.Owner.SuspendedAt)
		out.Owner = &owner
	}
	out.DeactivatedAt = cloneTime(s.DeactivatedAt)
	out.Members = make([]Member, len(s.Members))
	for i, m := range s.Members {
		m.RevokedAt = cloneTime(m.RevokedAt)
		out.Members[i] = m
	}
	out.Ledger = make([]LedgerEntry, len(s.Ledger))
	for i, e := range s.Ledger {
		if e.Metadata != nil {
			md := make(map[string]string, len(e.Metadata))
			for k, v := range e.Metadata {
				md[k] = v
			}
			e.Metadata = md
		}
		out.Ledger[i] = e
	}
	out.Products = make([]Product, len(s.Products))
	for i, p := range s.Products {
		if p.ItemData != nil {
			data := make([]byte, len(p.ItemData))
			copy(data, p.ItemData)
			p.ItemData = data
		}
		out.Products[i] = p
	}
	return out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
