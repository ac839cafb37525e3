package coinhouse

import (
	"context"

	"github.com/google/uuid"

	"stallworks/internal/persona"
)

// Store persists accounts. Implementations are pure I/O; balance rules live in
// the Service.
type Store interface {
	// EnsureAccount creates the account if absent and returns the stored row.
	// Because account ids are deterministic, concurrent calls for the same
	// (persona, coinhouse) pair converge on one row.
	EnsureAccount(ctx context.Context, acct Account) (Account, error)

	// GetAccount returns sentinel.ErrNotFound when the id is unknown.
	GetAccount(ctx context.Context, id uuid.UUID) (Account, error)

	// GetAccountByPersona resolves the account for a persona at a coinhouse.
	// Returns sentinel.ErrNotFound when the persona has never deposited there.
	GetAccountByPersona(ctx context.Context, p persona.ID, coinhouseTag string) (Account, error)

	// AdjustBalance atomically applies delta to the account balance and stamps
	// LastAccessedAt. Returns sentinel.ErrInvalidState when the delta would
	// drive the balance negative, sentinel.ErrNotFound for unknown ids. The
	// read-modify-write must not interleave with another adjustment.
	AdjustBalance(ctx context.Context, id uuid.UUID, delta int64) (Account, error)
}

// TransactionLog is the append-only record of balance movements.
type TransactionLog interface {
	Append(ctx context.Context, txn Transaction) error
	ListByPersona(ctx context.Context, p persona.ID, limit int) ([]Transaction, error)
}
