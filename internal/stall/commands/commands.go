// Package commands implements the stall command pipeline: one immutable,
// pre-validated command value per intent, one handler per command, and an
// explicit registry mapping command kinds to handlers. Handlers never call
// each other; cross-cutting effects happen only through event subscribers.
package commands

import (
	"github.com/google/uuid"

	"stallworks/internal/persona"
	dErrors "stallworks/pkg/domain-errors"
)

// Command is implemented by every command value. Commands are only built
// through their New factories, which reject malformed input so an invalid
// command can never reach a handler.
type Command interface {
	CommandKind() string
}

// RentSource selects where rent money is drawn from.
type RentSource string

const (
	// SourceAuto tries the stall escrow first, then the linked account.
	SourceAuto    RentSource = "auto"
	SourceEscrow  RentSource = "escrow"
	SourceAccount RentSource = "account"
)

type ClaimStall struct {
	StallID     uuid.UUID
	Claimant    persona.ID
	DisplayName string
	// LinkAccount provisions and links a coinhouse account for rent fallback.
	LinkAccount  bool
	HoldEarnings bool
}

func (ClaimStall) CommandKind() string { return "stall.claim" }

func NewClaimStall(stallID uuid.UUID, claimant persona.ID, displayName string, linkAccount, holdEarnings bool) (ClaimStall, error) {
	if stallID == uuid.Nil {
		return ClaimStall{}, dErrors.New(dErrors.CodeInvalidInput, "stall id is required")
	}
	if _, ok := claimant.CharacterID(); !ok {
		return ClaimStall{}, dErrors.New(dErrors.CodeInvalidInput, "only characters may claim a stall")
	}
	if displayName == "" {
		return ClaimStall{}, dErrors.New(dErrors.CodeInvalidInput, "display name is required")
	}
	return ClaimStall{
		StallID:      stallID,
		Claimant:     claimant,
		DisplayName:  displayName,
		LinkAccount:  linkAccount,
		HoldEarnings: holdEarnings,
	}, nil
}

type ReleaseStall struct {
	StallID   uuid.UUID
	Requestor persona.ID
}

func (ReleaseStall) CommandKind() string { return "stall.release" }

func NewReleaseStall(stallID uuid.UUID, requestor persona.ID) (ReleaseStall, error) {
	if stallID == uuid.Nil {
		return ReleaseStall{}, dErrors.New(dErrors.CodeInvalidInput, "stall id is required")
	}
	if requestor.IsZero() {
		return ReleaseStall{}, dErrors.New(dErrors.CodeInvalidInput, "requestor persona is required")
	}
	return ReleaseStall{StallID: stallID, Requestor: requestor}, nil
}

type AddMember struct {
	StallID              uuid.UUID
	Requestor            persona.ID
	Member               persona.ID
	DisplayName          string
	CanManageInventory   bool
	CanConfigureSettings bool
	CanCollectEarnings   bool
}

func (AddMember) CommandKind() string { return "stall.add_member" }

func NewAddMember(stallID uuid.UUID, requestor, member persona.ID, displayName string, manageInventory, configureSettings, collectEarnings bool) (AddMember, error) {
	if stallID == uuid.Nil {
		return AddMember{}, dErrors.New(dErrors.CodeInvalidInput, "stall id is required")
	}
	if requestor.IsZero() || member.IsZero() {
		return AddMember{}, dErrors.New(dErrors.CodeInvalidInput, "requestor and member personas are required")
	}
	return AddMember{
		StallID:              stallID,
		Requestor:            requestor,
		Member:               member,
		DisplayName:          displayName,
		CanManageInventory:   manageInventory,
		CanConfigureSettings: configureSettings,
		CanCollectEarnings:   collectEarnings,
	}, nil
}

type RemoveMember struct {
	StallID   uuid.UUID
	Requestor persona.ID
	Member    persona.ID
}

func (RemoveMember) CommandKind() string { return "stall.remove_member" }

func NewRemoveMember(stallID uuid.UUID, requestor, member persona.ID) (RemoveMember, error) {
	if stallID == uuid.Nil {
		return RemoveMember{}, dErrors.New(dErrors.CodeInvalidInput, "stall id is required")
	}
	if requestor.IsZero() || member.IsZero() {
		return RemoveMember{}, dErrors.New(dErrors.CodeInvalidInput, "requestor and member personas are required")
	}
	return RemoveMember{StallID: stallID, Requestor: requestor, Member: member}, nil
}

type DepositEscrow struct {
	StallID   uuid.UUID
	Depositor persona.ID
	Amount    int64
}

func (DepositEscrow) CommandKind() string { return "stall.deposit_escrow" }

func NewDepositEscrow(stallID uuid.UUID, depositor persona.ID, amount int64) (DepositEscrow, error) {
	if stallID == uuid.Nil {
		return DepositEscrow{}, dErrors.New(dErrors.CodeInvalidInput, "stall id is required")
	}
	if depositor.IsZero() {
		return DepositEscrow{}, dErrors.New(dErrors.CodeInvalidInput, "depositor persona is required")
	}
	if amount <= 0 {
		return DepositEscrow{}, dErrors.New(dErrors.CodeInvalidInput, "amount must be positive")
	}
	return DepositEscrow{StallID: stallID, Depositor: depositor, Amount: amount}, nil
}

type WithdrawEscrow struct {
	StallID   uuid.UUID
	Requestor persona.ID
	Amount    int64
}

func (WithdrawEscrow) CommandKind() string { return "stall.withdraw_escrow" }

func NewWithdrawEscrow(stallID uuid.UUID, requestor persona.ID, amount int64) (WithdrawEscrow, error) {
	if stallID == uuid.Nil {
		return WithdrawEscrow{}, dErrors.New(dErrors.CodeInvalidInput, "stall id is required")
	}
	if requestor.IsZero() {
		return WithdrawEscrow{}, dErrors.New(dErrors.CodeInvalidInput, "requestor persona is required")
	}
	if amount <= 0 {
		return WithdrawEscrow{}, dErrors.New(dErrors.CodeInvalidInput, "amount must be positive")
	}
	return WithdrawEscrow{StallID: stallID, Requestor: requestor, Amount: amount}, nil
}

type PayRent struct {
	StallID uuid.UUID
	Source  RentSource
}

func (PayRent) CommandKind() string { return "stall.pay_rent" }

func NewPayRent(stallID uuid.UUID, source RentSource) (PayRent, error) {
	if stallID == uuid.Nil {
		return PayRent{}, dErrors.New(dErrors.CodeInvalidInput, "stall id is required")
	}
	switch source {
	case SourceAuto, SourceEscrow, SourceAccount:
	default:
		return PayRent{}, dErrors.Newf(dErrors.CodeInvalidInput, "unknown rent source %q", source)
	}
	return PayRent{StallID: stallID, Source: source}, nil
}

type ConsignProduct struct {
	StallID   uuid.UUID
	Requestor persona.ID
	ItemData  []byte
	Price     int64
	Quantity  int
}

func (ConsignProduct) CommandKind() string { return "stall.consign_product" }

func NewConsignProduct(stallID uuid.UUID, requestor persona.ID, itemData []byte, price int64, quantity int) (ConsignProduct, error) {
	if stallID == uuid.Nil {
		return ConsignProduct{}, dErrors.New(dErrors.CodeInvalidInput, "stall id is required")
	}
	if requestor.IsZero() {
		return ConsignProduct{}, dErrors.New(dErrors.CodeInvalidInput, "requestor persona is required")
	}
	if len(itemData) == 0 {
		return ConsignProduct{}, dErrors.New(dErrors.CodeInvalidInput, "item payload is required")
	}
	if price < 0 {
		return ConsignProduct{}, dErrors.New(dErrors.CodeInvalidInput, "price cannot be negative")
	}
	if quantity <= 0 {
		return ConsignProduct{}, dErrors.New(dErrors.CodeInvalidInput, "quantity must be positive")
	}
	return ConsignProduct{StallID: stallID, Requestor: requestor, ItemData: itemData, Price: price, Quantity: quantity}, nil
}

type RecordSale struct {
	StallID   uuid.UUID
	ProductID uuid.UUID
	Buyer     persona.ID
}

func (RecordSale) CommandKind() string { return "stall.record_sale" }

func NewRecordSale(stallID, productID uuid.UUID, buyer persona.ID) (RecordSale, error) {
	if stallID == uuid.Nil || productID == uuid.Nil {
		return RecordSale{}, dErrors.New(dErrors.CodeInvalidInput, "stall and product ids are required")
	}
	if buyer.IsZero() {
		return RecordSale{}, dErrors.New(dErrors.CodeInvalidInput, "buyer persona is required")
	}
	return RecordSale{StallID: stallID, ProductID: productID, Buyer: buyer}, nil
}

type DepositAccount struct {
	Persona      persona.ID
	CoinhouseTag string
	Amount       int64
	Memo         string
}

func (DepositAccount) CommandKind() string { return "account.deposit" }

func NewDepositAccount(p persona.ID, coinhouseTag string, amount int64, memo string) (DepositAccount, error) {
	if p.IsZero() {
		return DepositAccount{}, dErrors.New(dErrors.CodeInvalidInput, "persona is required")
	}
	if coinhouseTag == "" {
		return DepositAccount{}, dErrors.New(dErrors.CodeInvalidInput, "coinhouse tag is required")
	}
	if amount <= 0 {
		return DepositAccount{}, dErrors.New(dErrors.CodeInvalidInput, "amount must be positive")
	}
	return DepositAccount{Persona: p, CoinhouseTag: coinhouseTag, Amount: amount, Memo: memo}, nil
}

type WithdrawAccount struct {
	Persona      persona.ID
	CoinhouseTag string
	Amount       int64
	Memo         string
}

func (WithdrawAccount) CommandKind() string { return "account.withdraw" }

func NewWithdrawAccount(p persona.ID, coinhouseTag string, amount int64, memo string) (WithdrawAccount, error) {
	if p.IsZero() {
		return WithdrawAccount{}, dErrors.New(dErrors.CodeInvalidInput, "persona is required")
	}
	if coinhouseTag == "" {
		return WithdrawAccount{}, dErrors.New(dErrors.CodeInvalidInput, "coinhouse tag is required")
	}
	if amount <= 0 {
		return WithdrawAccount{}, dErrors.New(dErrors.CodeInvalidInput, "amount must be positive")
	}
	return WithdrawAccount{Persona: p, CoinhouseTag: coinhouseTag, Amount: amount, Memo: memo}, nil
}
