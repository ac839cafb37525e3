package coinhouse

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"stallworks/internal/persona"
	"stallworks/pkg/platform/sentinel"
)

// PostgresStore persists accounts in PostgreSQL. This store is pure I/O; the
// insufficient-funds rule is enforced by the guarded UPDATE, everything else
// belongs in the service layer.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) EnsureAccount(ctx context.Context, acct Account) (Account, error) {
	query := `
		INSERT INTO coinhouse_accounts (id, persona, coinhouse_tag, balance, opened_at, last_accessed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET id = EXCLUDED.id
		RETURNING id, persona, coinhouse_tag, balance, opened_at, last_accessed_at
	`
	row := s.db.QueryRow(ctx, query,
		acct.ID, acct.Persona.String(), acct.CoinhouseTag, acct.Balance, acct.OpenedAt, acct.LastAccessedAt)
	out, err := scanAccount(row)
	if err != nil {
		return Account{}, fmt.Errorf("ensure account: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) GetAccount(ctx context.Context, id uuid.UUID) (Account, error) {
	query := `
		SELECT id, persona, coinhouse_tag, balance, opened_at, last_accessed_at
		FROM coinhouse_accounts
		WHERE id = $1
	`
	out, err := scanAccount(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, sentinel.ErrNotFound
		}
		return Account{}, fmt.Errorf("get account: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) GetAccountByPersona(ctx context.Context, p persona.ID, coinhouseTag string) (Account, error) {
	return s.GetAccount(ctx, persona.AccountID(p, coinhouseTag))
}

// AdjustBalance applies delta in a single guarded UPDATE...RETURNING so that
// concurrent adjustments cannot interleave or drive the balance negative.
func (s *PostgresStore) AdjustBalance(ctx context.Context, id uuid.UUID, delta int64) (Account, error) {
	query := `
		UPDATE coinhouse_accounts
		SET balance = balance + $1, last_accessed_at = now()
		WHERE id = $2 AND balance + $1 >= 0
		RETURNING id, persona, coinhouse_tag, balance, opened_at, last_accessed_at
	`
	out, err := scanAccount(s.db.QueryRow(ctx, query, delta, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Either the row is missing or the guard rejected the delta.
			if _, getErr := s.GetAccount(ctx, id); errors.Is(getErr, sentinel.ErrNotFound) {
				return Account{}, sentinel.ErrNotFound
			}
			return Account{}, sentinel.ErrInvalidState
		}
		return Account{}, fmt.Errorf("adjust balance: %w", err)
	}
	return out, nil
}

type pgxRow interface {
	Scan(dest ...any) error
}

func scanAccount(row pgxRow) (Account, error) {
	var (
		acct Account
		p    string
	)
	if err := row.Scan(&acct.ID, &p, &acct.CoinhouseTag, &acct.Balance, &acct.OpenedAt, &acct.LastAccessedAt); err != nil {
		return Account{}, err
	}
	parsed, err := persona.Parse(p)
	if err != nil {
		return Account{}, fmt.Errorf("stored persona invalid: %w", err)
	}
	acct.Persona = parsed
	return acct, nil
}
