package stall

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"stallworks/internal/persona"
	"stallworks/pkg/platform/sentinel"
)

// PostgresStore persists stalls and their child collections in PostgreSQL.
// Update serializes per-stall mutations with SELECT ... FOR UPDATE, so two
// commands against the same stall id cannot interleave their read and write.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

const stallColumns = `
	id, tag, area_resref, settlement_tag,
	owner_character_id, owner_persona, owner_display_name, owner_account_id,
	lease_start, next_rent_due, last_rent_paid, suspended_at,
	hold_earnings, escrow_balance, lifetime_gross_sales, lifetime_net_earnings,
	daily_rent, is_active, deactivated_at
`

func (s *PostgresStore) Create(ctx context.Context, entity Stall) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin create stall: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := insertStallRow(ctx, tx, entity); err != nil {
		return err
	}
	if err := writeChildren(ctx, tx, entity); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) GetByID(ctx context.Context, id uuid.UUID) (Stall, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return Stall{}, fmt.Errorf("begin get stall: %w", err)
	}
	defer tx.Rollback(ctx)

	entity, err := loadStall(ctx, tx, id, false)
	if err != nil {
		return Stall{}, err
	}
	return entity, tx.Commit(ctx)
}

func (s *PostgresStore) All(ctx context.Context) ([]Stall, error) {
	rows, err := s.db.Query(ctx, `SELECT id FROM player_stalls ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list stalls: %w", err)
	}
	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan stall id: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]Stall, 0, len(ids))
	for _, id := range ids {
		entity, err := s.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, entity)
	}
	return out, nil
}

func (s *PostgresStore) Update(ctx context.Context, id uuid.UUID, mutate func(*Stall) error) (Stall, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return Stall{}, fmt.Errorf("begin update stall: %w", err)
	}
	defer tx.Rollback(ctx)

	entity, err := loadStall(ctx, tx, id, true)
	if err != nil {
		return Stall{}, err
	}
	if err := mutate(&entity); err != nil {
		return Stall{}, err
	}
	if err := updateStallRow(ctx, tx, entity); err != nil {
		return Stall{}, err
	}
	if err := writeChildren(ctx, tx, entity); err != nil {
		return Stall{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Stall{}, fmt.Errorf("commit update stall: %w", err)
	}
	return entity, nil
}

func (s *PostgresStore) UpdateStallAndProduct(ctx context.Context, stallID, productID uuid.UUID, mutate func(*Stall, *Product) error) (bool, error) {
	found := false
	_, err := s.Update(ctx, stallID, func(entity *Stall) error {
		for i := range entity.Products {
			p := &entity.Products[i]
			if p.ID == productID && p.Active {
				found = true
				return mutate(entity, p)
			}
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return found, nil
}

func (s *PostgresStore) GetProduct(ctx context.Context, stallID, productID uuid.UUID) (Product, error) {
	entity, err := s.GetByID(ctx, stallID)
	if err != nil {
		return Product{}, err
	}
	for _, p := range entity.Products {
		if p.ID == productID {
			return p, nil
		}
	}
	return Product{}, sentinel.ErrNotFound
}

func (s *PostgresStore) HasActiveOwnershipInArea(ctx context.Context, characterID uuid.UUID, areaResRef string, excludeStallID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM player_stalls
			WHERE area_resref = $1
			  AND owner_character_id = $2
			  AND is_active
			  AND id <> $3
		)
	`
	var exists bool
	if err := s.db.QueryRow(ctx, query, areaResRef, characterID, excludeStallID).Scan(&exists); err != nil {
		return false, fmt.Errorf("ownership lookup: %w", err)
	}
	return exists, nil
}

func loadStall(ctx context.Context, tx pgx.Tx, id uuid.UUID, forUpdate bool) (Stall, error) {
	query := `SELECT ` + stallColumns + ` FROM player_stalls WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	entity, err := scanStall(tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Stall{}, sentinel.ErrNotFound
		}
		return Stall{}, fmt.Errorf("load stall: %w", err)
	}

	if entity.Members, err = loadMembers(ctx, tx, id); err != nil {
		return Stall{}, err
	}
	if entity.Products, err = loadProducts(ctx, tx, id); err != nil {
		return Stall{}, err
	}
	if entity.Ledger, err = loadLedger(ctx, tx, id); err != nil {
		return Stall{}, err
	}
	return entity, nil
}

func scanStall(row pgx.Row) (Stall, error) {
	var (
		entity       Stall
		ownerChar    *uuid.UUID
		ownerPersona *string
		ownerName    *string
		ownerAcct    *uuid.UUID
		leaseStart   *time.Time
		nextDue      *time.Time
		lastPaid     *time.Time
		suspendedAt  *time.Time
	)
	err := row.Scan(
		&entity.ID, &entity.Tag, &entity.AreaResRef, &entity.SettlementTag,
		&ownerChar, &ownerPersona, &ownerName, &ownerAcct,
		&leaseStart, &nextDue, &lastPaid, &suspendedAt,
		&entity.HoldEarningsInStall, &entity.EscrowBalance,
		&entity.LifetimeGrossSales, &entity.LifetimeNetEarnings,
		&entity.DailyRent, &entity.IsActive, &entity.DeactivatedAt,
	)
	if err != nil {
		return Stall{}, err
	}
	if ownerChar != nil && ownerPersona != nil {
		p, err := persona.Parse(*ownerPersona)
		if err != nil {
			return Stall{}, fmt.Errorf("stored owner persona invalid: %w", err)
		}
		owner := &Ownership{
			CharacterID:        *ownerChar,
			Persona:            p,
			CoinhouseAccountID: ownerAcct,
		}
		if ownerName != nil {
			owner.DisplayName = *ownerName
		}
		if leaseStart != nil {
			owner.LeaseStart = *leaseStart
		}
		if nextDue != nil {
			owner.NextRentDue = *nextDue
		}
		owner.LastRentPaid = lastPaid
		owner.SuspendedAt = suspendedAt
		entity.Owner = owner
	}
	return entity, nil
}

func insertStallRow(ctx context.Context, tx pgx.Tx, entity Stall) error {
	query := `
		INSERT INTO player_stalls (` + stallColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`
	if _, err := tx.Exec(ctx, query, stallArgs(entity)...); err != nil {
		return fmt.Errorf("insert stall: %w", err)
	}
	return nil
}

func updateStallRow(ctx context.Context, tx pgx.Tx, entity Stall) error {
	query := `
		UPDATE player_stalls SET
			tag = $2, area_resref = $3, settlement_tag = $4,
			owner_character_id = $5, owner_persona = $6, owner_display_name = $7, owner_account_id = $8,
			lease_start = $9, next_rent_due = $10, last_rent_paid = $11, suspended_at = $12,
			hold_earnings = $13, escrow_balance = $14, lifetime_gross_sales = $15, lifetime_net_earnings = $16,
			daily_rent = $17, is_active = $18, deactivated_at = $19
		WHERE id = $1
	`
	if _, err := tx.Exec(ctx, query, stallArgs(entity)...); err != nil {
		return fmt.Errorf("update stall: %w", err)
	}
	return nil
}

func stallArgs(entity Stall) []any {
	var (
		ownerChar    *uuid.UUID
		ownerPersona *string
		ownerName    *string
		ownerAcct    *uuid.UUID
		leaseStart   any
		nextDue      any
		lastPaid     any
		suspendedAt  any
	)
	if o := entity.Owner; o != nil {
		ownerChar = &o.CharacterID
		p := o.Persona.String()
		ownerPersona = &p
		ownerName = &o.DisplayName
		ownerAcct = o.CoinhouseAccountID
		leaseStart = o.LeaseStart
		nextDue = o.NextRentDue
		lastPaid = o.LastRentPaid
		suspendedAt = o.SuspendedAt
	}
	return []any{
		entity.ID, entity.Tag, entity.AreaResRef, entity.SettlementTag,
		ownerChar, ownerPersona, ownerName, ownerAcct,
		leaseStart, nextDue, lastPaid, suspendedAt,
		entity.HoldEarningsInStall, entity.EscrowBalance,
		entity.LifetimeGrossSales, entity.LifetimeNetEarnings,
		entity.DailyRent, entity.IsActive, entity.DeactivatedAt,
	}
}

func writeChildren(ctx context.Context, tx pgx.Tx, entity Stall) error {
	for _, m := range entity.Members {
		query := `
			INSERT INTO stall_members (stall_id, persona, display_name, can_manage_inventory, can_configure_settings, can_collect_earnings, added_by, added_at, revoked_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (stall_id, persona) DO UPDATE SET
				display_name = EXCLUDED.display_name,
				can_manage_inventory = EXCLUDED.can_manage_inventory,
				can_configure_settings = EXCLUDED.can_configure_settings,
				can_collect_earnings = EXCLUDED.can_collect_earnings,
				revoked_at = EXCLUDED.revoked_at
		`
		if _, err := tx.Exec(ctx, query,
			entity.ID, m.Persona.String(), m.DisplayName,
			m.CanManageInventory, m.CanConfigureSettings, m.CanCollectEarnings,
			m.AddedBy.String(), m.AddedAt, m.RevokedAt); err != nil {
			return fmt.Errorf("upsert member: %w", err)
		}
	}
	for _, p := range entity.Products {
		query := `
			INSERT INTO stall_products (id, stall_id, item_data, price, quantity, consignor, active)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (id) DO UPDATE SET
				price = EXCLUDED.price,
				quantity = EXCLUDED.quantity,
				active = EXCLUDED.active
		`
		if _, err := tx.Exec(ctx, query,
			p.ID, entity.ID, p.ItemData, p.Price, p.Quantity, p.Consignor.String(), p.Active); err != nil {
			return fmt.Errorf("upsert product: %w", err)
		}
	}
	for _, e := range entity.Ledger {
		metadata, err := json.Marshal(e.Metadata)
		if err != nil {
			return fmt.Errorf("marshal ledger metadata: %w", err)
		}
		// Ledger entries are append-only; existing rows are never touched.
		query := `
			INSERT INTO stall_ledger (id, stall_id, kind, amount, description, occurred_at, metadata)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (id) DO NOTHING
		`
		if _, err := tx.Exec(ctx, query,
			e.ID, entity.ID, string(e.Kind), e.Amount, e.Description, e.OccurredAt, metadata); err != nil {
			return fmt.Errorf("append ledger entry: %w", err)
		}
	}
	return nil
}

func loadMembers(ctx context.Context, tx pgx.Tx, stallID uuid.UUID) ([]Member, error) {
	query := `
		SELECT persona, display_name, can_manage_inventory, can_configure_settings, can_collect_earnings, added_by, added_at, revoked_at
		FROM stall_members WHERE stall_id = $1 ORDER BY added_at
	`
	rows, err := tx.Query(ctx, query, stallID)
	if err != nil {
		return nil, fmt.Errorf("load members: %w", err)
	}
	defer rows.Close()

	var out []Member
	for rows.Next() {
		var (
			m              Member
			pStr, addedStr string
		)
		if err := rows.Scan(&pStr, &m.DisplayName, &m.CanManageInventory, &m.CanConfigureSettings, &m.CanCollectEarnings, &addedStr, &m.AddedAt, &m.RevokedAt); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		if m.Persona, err = persona.Parse(pStr); err != nil {
			return nil, fmt.Errorf("stored member persona invalid: %w", err)
		}
		if m.AddedBy, err = persona.Parse(addedStr); err != nil {
			return nil, fmt.Errorf("stored added_by persona invalid: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func loadProducts(ctx context.Context, tx pgx.Tx, stallID uuid.UUID) ([]Product, error) {
	query := `
		SELECT id, item_data, price, quantity, consignor, active
		FROM stall_products WHERE stall_id = $1 ORDER BY id
	`
	rows, err := tx.Query(ctx, query, stallID)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var (
			p    Product
			pStr string
		)
		if err := rows.Scan(&p.ID, &p.ItemData, &p.Price, &p.Quantity, &pStr, &p.Active); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		if p.Consignor, err = persona.Parse(pStr); err != nil {
			return nil, fmt.Errorf("stored consignor persona invalid: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func loadLedger(ctx context.Context, tx pgx.Tx, stallID uuid.UUID) ([]LedgerEntry, error) {
	query := `
		SELECT id, kind, amount, description, occurred_at, metadata
		FROM stall_ledger WHERE stall_id = $1 ORDER BY occurred_at, id
	`
	rows, err := tx.Query(ctx, query, stallID)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	defer rows.Close()

	var out []LedgerEntry
	for rows.Next() {
		var (
			e    LedgerEntry
			kind string
			raw  []byte
		)
		if err := rows.Scan(&e.ID, &kind, &e.Amount, &e.Description, &e.OccurredAt, &raw); err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		e.Kind = EntryKind(kind)
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &e.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal ledger metadata: %w", err)
			}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
