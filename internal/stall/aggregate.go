package stall

import (
	"time"

	"github.com/google/uuid"

	"stallworks/internal/persona"
	dErrors "stallworks/pkg/domain-errors"
)

// Aggregate decision logic. These methods are pure: they validate against the
// current snapshot and return value objects whose Apply performs the actual
// mutation, keeping validation and mutation separable and testable. Expected
// business failures come back as coded domain errors, never panics.

// Owned reports whether the stall currently has an owner.
func (s *Stall) Owned() bool { return s.Owner != nil }

// IsOwner reports whether the persona is the current owner.
func (s *Stall) IsOwner(p persona.ID) bool {
	return s.Owner != nil && s.Owner.Persona == p
}

// MemberFor returns the active membership for a persona, if any.
func (s *Stall) MemberFor(p persona.ID) (Member, bool) {
	for _, m := range s.Members {
		if m.Persona == p && !m.Revoked() {
			return m, true
		}
	}
	return Member{}, false
}

func (s *Stall) canConfigure(p persona.ID) bool {
	if s.IsOwner(p) {
		return true
	}
	m, ok := s.MemberFor(p)
	return ok && m.CanConfigureSettings
}

func (s *Stall) canManageInventory(p persona.ID) bool {
	if s.IsOwner(p) {
		return true
	}
	m, ok := s.MemberFor(p)
	return ok && m.CanManageInventory
}

func (s *Stall) canCollectEarnings(p persona.ID) bool {
	if s.IsOwner(p) {
		return true
	}
	m, ok := s.MemberFor(p)
	return ok && m.CanCollectEarnings
}

// TryAddMember validates that the requestor may grant membership and that the
// target is not already a member. The returned Member must still be applied
// through the repository's atomic update.
func (s *Stall) TryAddMember(requestor persona.ID, desc MemberDescriptor) (Member, error) {
	if !s.Owned() {
		return Member{}, dErrors.New(dErrors.CodeInvariantViolation, "stall has no owner")
	}
	if !s.canConfigure(requestor) {
		return Member{}, dErrors.New(dErrors.CodeForbidden, "you may not manage members of this stall")
	}
	if desc.Persona.IsZero() {
		return Member{}, dErrors.New(dErrors.CodeInvalidInput, "member persona is required")
	}
	if _, exists := s.MemberFor(desc.Persona); exists {
		return Member{}, dErrors.New(dErrors.CodeConflict, "already a member of this stall")
	}
	return Member{
		Persona:              desc.Persona,
		DisplayName:          desc.DisplayName,
		CanManageInventory:   desc.CanManageInventory,
		CanConfigureSettings: desc.CanConfigureSettings,
		CanCollectEarnings:   desc.CanCollectEarnings,
		AddedBy:              requestor,
		AddedAt:              time.Now().UTC(),
	}, nil
}

// TryRemoveMember validates authority and protects the owner row. Returns the
// removed member's display name for notification copy.
func (s *Stall) TryRemoveMember(requestor, target persona.ID) (string, error) {
	if !s.Owned() {
		return "", dErrors.New(dErrors.CodeInvariantViolation, "stall has no owner")
	}
	if !s.canConfigure(requestor) {
		return "", dErrors.New(dErrors.CodeForbidden, "you may not manage members of this stall")
	}
	if s.IsOwner(target) {
		return "", dErrors.New(dErrors.CodeForbidden, "the owner cannot be removed")
	}
	m, ok := s.MemberFor(target)
	if !ok {
		return "", dErrors.New(dErrors.CodeNotFound, "not a member of this stall")
	}
	return m.DisplayName, nil
}

// EscrowDeposit is the validated outcome of TryDepositToEscrow. Apply mutates
// the entity inside the repository's atomic update callback.
type EscrowDeposit struct {
	Depositor persona.ID
	Amount    int64
	At        time.Time
}

// TryDepositToEscrow validates a deposit into the stall's escrow. Anyone may
// deposit (sales proceeds arrive from buyers), amounts must be positive.
func (s *Stall) TryDepositToEscrow(depositor persona.ID, amount int64) (EscrowDeposit, error) {
	if amount <= 0 {
		return EscrowDeposit{}, dErrors.New(dErrors.CodeInvalidInput, "deposit amount must be positive")
	}
	if depositor.IsZero() {
		return EscrowDeposit{}, dErrors.New(dErrors.CodeInvalidInput, "depositor persona is required")
	}
	return EscrowDeposit{Depositor: depositor, Amount: amount, At: time.Now().UTC()}, nil
}

// Apply increments the escrow and appends the matching ledger entry.
func (d EscrowDeposit) Apply(s *Stall) {
	s.EscrowBalance += d.Amount
	s.AppendLedger(LedgerEntry{
		Kind:        EntryDeposit,
		Amount:      d.Amount,
		Description: "escrow deposit by " + d.Depositor.String(),
		OccurredAt:  d.At,
	})
}

// EscrowWithdrawal is the validated outcome of TryWithdrawFromEscrow.
type EscrowWithdrawal struct {
	Requestor persona.ID
	Amount    int64
	At        time.Time
}

// TryWithdrawFromEscrow validates drawing accumulated earnings out of escrow.
// Requires the earnings permission; never lets the escrow go negative.
func (s *Stall) TryWithdrawFromEscrow(requestor persona.ID, amount int64) (EscrowWithdrawal, error) {
	if amount <= 0 {
		return EscrowWithdrawal{}, dErrors.New(dErrors.CodeInvalidInput, "withdrawal amount must be positive")
	}
	if !s.canCollectEarnings(requestor) {
		return EscrowWithdrawal{}, dErrors.New(dErrors.CodeForbidden, "you may not collect earnings from this stall")
	}
	if s.EscrowBalance < amount {
		return EscrowWithdrawal{}, dErrors.New(dErrors.CodeInsufficientFunds, "not enough gold held in the stall")
	}
	return EscrowWithdrawal{Requestor: requestor, Amount: amount, At: time.Now().UTC()}, nil
}

// Apply decrements the escrow and appends the matching ledger entry.
func (w EscrowWithdrawal) Apply(s *Stall) {
	s.EscrowBalance -= w.Amount
	s.AppendLedger(LedgerEntry{
		Kind:        EntryWithdrawal,
		Amount:      -w.Amount,
		Description: "escrow withdrawal by " + w.Requestor.String(),
		OccurredAt:  w.At,
	})
}

// TryConsignProduct validates placing an item for sale.
func (s *Stall) TryConsignProduct(requestor persona.ID, itemData []byte, price int64, quantity int) (Product, error) {
	if !s.Owned() {
		return Product{}, dErrors.New(dErrors.CodeInvariantViolation, "stall has no owner")
	}
	if !s.canManageInventory(requestor) {
		return Product{}, dErrors.New(dErrors.CodeForbidden, "you may not manage this stall's inventory")
	}
	if len(itemData) == 0 {
		return Product{}, dErrors.New(dErrors.CodeInvalidInput, "item payload is required")
	}
	if price < 0 {
		return Product{}, dErrors.New(dErrors.CodeInvalidInput, "price cannot be negative")
	}
	if quantity <= 0 {
		return Product{}, dErrors.New(dErrors.CodeInvalidInput, "quantity must be positive")
	}
	return Product{
		ID:        uuid.New(),
		ItemData:  itemData,
		Price:     price,
		Quantity:  quantity,
		Consignor: requestor,
		Active:    true,
	}, nil
}

// AppendLedger stamps and appends an audit entry. Entries are never mutated
// after this point.
func (s *Stall) AppendLedger(e LedgerEntry) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	s.Ledger = append(s.Ledger, e)
}

// RentDue reports whether the stall owes rent at the given instant.
func (s *Stall) RentDue(now time.Time) bool {
	return s.Owned() && s.IsActive && !s.Owner.NextRentDue.After(now)
}

// Suspended reports whether the stall is inside a suspension episode.
func (s *Stall) Suspended() bool {
	return s.Owner != nil && s.Owner.SuspendedAt != nil
}
