package coinhouse

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"stallworks/internal/persona"
	dErrors "stallworks/pkg/domain-errors"
	"stallworks/pkg/platform/sentinel"
)

// Service owns every account balance change in the engine. Stall command
// handlers and the rent worker call through here; nothing writes account rows
// directly. Each successful movement appends exactly one transaction, which is
// what keeps money conserved and auditable.
type Service struct {
	store Store
	log   TransactionLog
}

func NewService(store Store, log TransactionLog) *Service {
	return &Service{store: store, log: log}
}

// Provision ensures the persona has an account at the coinhouse and returns
// it. Safe to call repeatedly; the deterministic account id makes concurrent
// first-deposits converge on one row.
func (s *Service) Provision(ctx context.Context, p persona.ID, coinhouseTag string) (Account, error) {
	if p.IsZero() {
		return Account{}, dErrors.New(dErrors.CodeInvalidInput, "persona is required")
	}
	if coinhouseTag == "" {
		return Account{}, dErrors.New(dErrors.CodeInvalidInput, "coinhouse tag is required")
	}
	now := time.Now().UTC()
	acct, err := s.store.EnsureAccount(ctx, Account{
		ID:             persona.AccountID(p, coinhouseTag),
		Persona:        p,
		CoinhouseTag:   coinhouseTag,
		OpenedAt:       now,
		LastAccessedAt: now,
	})
	if err != nil {
		return Account{}, dErrors.Wrap(err, dErrors.CodeInternal, "account provisioning failed")
	}
	return acct, nil
}

// Deposit credits the persona's account, lazily provisioning it on first use.
func (s *Service) Deposit(ctx context.Context, p persona.ID, coinhouseTag string, amount int64, memo string) (Transaction, error) {
	if amount <= 0 {
		return Transaction{}, dErrors.New(dErrors.CodeInvalidInput, "deposit amount must be positive")
	}
	acct, err := s.Provision(ctx, p, coinhouseTag)
	if err != nil {
		return Transaction{}, err
	}
	if _, err := s.store.AdjustBalance(ctx, acct.ID, amount); err != nil {
		return Transaction{}, dErrors.Wrap(err, dErrors.CodeInternal, "deposit failed")
	}
	return s.record(ctx, p, persona.Coinhouse(coinhouseTag), amount, memo)
}

// Withdraw debits the persona's account. Fails with CodeInsufficientFunds when
// the balance cannot cover the amount, and CodeNotFound when the persona has
// no account at the coinhouse.
func (s *Service) Withdraw(ctx context.Context, p persona.ID, coinhouseTag string, amount int64, memo string) (Transaction, error) {
	if amount <= 0 {
		return Transaction{}, dErrors.New(dErrors.CodeInvalidInput, "withdrawal amount must be positive")
	}
	acct, err := s.store.GetAccountByPersona(ctx, p, coinhouseTag)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Transaction{}, dErrors.New(dErrors.CodeNotFound, "no account at this coinhouse")
		}
		return Transaction{}, dErrors.Wrap(err, dErrors.CodeInternal, "withdrawal failed")
	}
	if _, err := s.store.AdjustBalance(ctx, acct.ID, -amount); err != nil {
		if errors.Is(err, sentinel.ErrInvalidState) {
			return Transaction{}, dErrors.New(dErrors.CodeInsufficientFunds, "insufficient balance")
		}
		return Transaction{}, dErrors.Wrap(err, dErrors.CodeInternal, "withdrawal failed")
	}
	return s.record(ctx, persona.Coinhouse(coinhouseTag), p, amount, memo)
}

// Transfer moves gold between two personas at the same coinhouse. The debit is
// applied first; if the credit then fails the debit is compensated so no gold
// is destroyed.
func (s *Service) Transfer(ctx context.Context, from, to persona.ID, coinhouseTag string, amount int64, memo string) (Transaction, error) {
	if amount <= 0 {
		return Transaction{}, dErrors.New(dErrors.CodeInvalidInput, "transfer amount must be positive")
	}
	if from == to {
		return Transaction{}, dErrors.New(dErrors.CodeInvalidInput, "cannot transfer to self")
	}
	fromAcct, err := s.store.GetAccountByPersona(ctx, from, coinhouseTag)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Transaction{}, dErrors.New(dErrors.CodeNotFound, "no account at this coinhouse")
		}
		return Transaction{}, dErrors.Wrap(err, dErrors.CodeInternal, "transfer failed")
	}
	toAcct, err := s.Provision(ctx, to, coinhouseTag)
	if err != nil {
		return Transaction{}, err
	}

	if _, err := s.store.AdjustBalance(ctx, fromAcct.ID, -amount); err != nil {
		if errors.Is(err, sentinel.ErrInvalidState) {
			return Transaction{}, dErrors.New(dErrors.CodeInsufficientFunds, "insufficient balance")
		}
		return Transaction{}, dErrors.Wrap(err, dErrors.CodeInternal, "transfer failed")
	}
	if _, err := s.store.AdjustBalance(ctx, toAcct.ID, amount); err != nil {
		if _, compErr := s.store.AdjustBalance(ctx, fromAcct.ID, amount); compErr != nil {
			return Transaction{}, dErrors.Wrap(compErr, dErrors.CodeInternal, "transfer credit and compensation both failed")
		}
		return Transaction{}, dErrors.Wrap(err, dErrors.CodeInternal, "transfer failed")
	}
	return s.record(ctx, from, to, amount, memo)
}

// BalanceOf reports the persona's balance, zero when no account exists yet.
func (s *Service) BalanceOf(ctx context.Context, p persona.ID, coinhouseTag string) (int64, error) {
	acct, err := s.store.GetAccountByPersona(ctx, p, coinhouseTag)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return 0, nil
		}
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "balance lookup failed")
	}
	return acct.Balance, nil
}

// History lists recent transactions touching the persona.
func (s *Service) History(ctx context.Context, p persona.ID, limit int) ([]Transaction, error) {
	return s.log.ListByPersona(ctx, p, limit)
}

func (s *Service) record(ctx context.Context, from, to persona.ID, amount int64, memo string) (Transaction, error) {
	txn := Transaction{
		ID:         uuid.New(),
		From:       from,
		To:         to,
		Amount:     amount,
		Memo:       memo,
		OccurredAt: time.Now().UTC(),
	}
	if err := s.log.Append(ctx, txn); err != nil {
		return Transaction{}, dErrors.Wrap(err, dErrors.CodeInternal, "transaction log append failed")
	}
	return txn, nil
}
