package coinhouse

import (
	"context"
	"database/sql"
	"fmt"

	"stallworks/internal/persona"
)

// PostgresTransactionLog appends transactions through database/sql (lib/pq
// driver). The table is append-only; there is no update or delete path.
type PostgresTransactionLog struct {
	db *sql.DB
}

func NewPostgresTransactionLog(db *sql.DB) *PostgresTransactionLog {
	return &PostgresTransactionLog{db: db}
}

func (l *PostgresTransactionLog) Append(ctx context.Context, txn Transaction) error {
	query := `
		INSERT INTO coinhouse_transactions (id, from_persona, to_persona, amount, memo, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := l.db.ExecContext(ctx, query,
		txn.ID, txn.From.String(), txn.To.String(), txn.Amount, txn.Memo, txn.OccurredAt)
	if err != nil {
		return fmt.Errorf("append transaction: %w", err)
	}
	return nil
}

func (l *PostgresTransactionLog) ListByPersona(ctx context.Context, p persona.ID, limit int) ([]Transaction, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, from_persona, to_persona, amount, memo, occurred_at
		FROM coinhouse_transactions
		WHERE from_persona = $1 OR to_persona = $1
		ORDER BY occurred_at DESC
		LIMIT $2
	`
	rows, err := l.db.QueryContext(ctx, query, p.String(), limit)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		var (
			txn      Transaction
			from, to string
		)
		if err := rows.Scan(&txn.ID, &from, &to, &txn.Amount, &txn.Memo, &txn.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		if txn.From, err = persona.Parse(from); err != nil {
			return nil, fmt.Errorf("stored from persona invalid: %w", err)
		}
		if txn.To, err = persona.Parse(to); err != nil {
			return nil, fmt.Errorf("stored to persona invalid: %w", err)
		}
		out = append(out, txn)
	}
	return out, rows.Err()
}
