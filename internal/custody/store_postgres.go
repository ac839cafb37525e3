package custody

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"stallworks/internal/persona"
	"stallworks/pkg/platform/sentinel"
)

// PostgresStore persists custody items in PostgreSQL.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Put(ctx context.Context, item Item) error {
	query := `
		INSERT INTO custody_items (id, area_key, owner_persona, item_data, source_stall_id, stored_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := s.db.Exec(ctx, query,
		item.ID, item.AreaKey, item.Owner.String(), item.ItemData, item.SourceStallID, item.StoredAt)
	if err != nil {
		return fmt.Errorf("put custody item: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByOwner(ctx context.Context, areaKey uuid.UUID, owner persona.ID) ([]Item, error) {
	query := `
		SELECT id, area_key, owner_persona, item_data, source_stall_id, stored_at
		FROM custody_items
		WHERE area_key = $1 AND owner_persona = $2
		ORDER BY stored_at, id
	`
	rows, err := s.db.Query(ctx, query, areaKey, owner.String())
	if err != nil {
		return nil, fmt.Errorf("list custody items: %w", err)
	}
	defer rows.Close()

	var out []Item
	for rows.Next() {
		var (
			item     Item
			ownerRaw string
		)
		if err := rows.Scan(&item.ID, &item.AreaKey, &ownerRaw, &item.ItemData, &item.SourceStallID, &item.StoredAt); err != nil {
			return nil, fmt.Errorf("scan custody item: %w", err)
		}
		p, err := persona.Parse(ownerRaw)
		if err != nil {
			return nil, fmt.Errorf("custody item %s: %w", item.ID, err)
		}
		item.Owner = p
		out = append(out, item)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Remove(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM custody_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("remove custody item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) CountByArea(ctx context.Context, areaKey uuid.UUID) (int, error) {
	var n int
	err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM custody_items WHERE area_key = $1`, areaKey).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count custody items: %w", err)
	}
	return n, nil
}
