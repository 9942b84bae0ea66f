package ledger

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists the movement ledger in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes the transactional operations used while
// appending a movement. Callers must take the client row lock before
// KegsHeld: under read committed the sum then includes every movement
// committed by the previous lock holder, so two concurrent reprises
// for the same client cannot both pass the non-negativity check.
type TxRepository interface {
	LockClient(ctx context.Context, clientID int64) error
	KegsHeld(ctx context.Context, clientID, variantID int64) (int, error)
	InsertMovement(ctx context.Context, m Movement) (int64, error)
	AdjustDepot(ctx context.Context, variantID int64, delta int) error
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a read-committed transaction.
// Read committed, not repeatable read: a snapshot taken before the
// client lock is acquired would hide movements committed while we
// waited for it.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("ledger repository not initialised")
	}
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return err
	}
	wrapper := &txRepository{tx: tx}
	if err := fn(ctx, wrapper); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

const movementColumns = `m.id, m.client_id, m.variant_id, m.mv_type, m.qty, m.unit_price_ttc, m.deposit_per_keg, m.notes, m.created_at,
p.name, v.size_l, v.price_ttc, v.deposit_eur`

const movementJoins = `FROM movements m
JOIN variants v ON v.id = m.variant_id
JOIN products p ON p.id = v.product_id`

// ListByClient returns a client's movements in fold order: timestamp
// ascending, ties broken by insertion order.
func (r *Repository) ListByClient(ctx context.Context, clientID int64) ([]MovementDetail, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+movementColumns+`
`+movementJoins+`
WHERE m.client_id = $1
ORDER BY m.created_at ASC, m.id ASC`, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMovements(rows)
}

// ListAll returns every movement in fold order, for the overview.
func (r *Repository) ListAll(ctx context.Context) ([]MovementDetail, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+movementColumns+`
`+movementJoins+`
ORDER BY m.created_at ASC, m.id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMovements(rows)
}

func scanMovements(rows pgx.Rows) ([]MovementDetail, error) {
	result := []MovementDetail{}
	for rows.Next() {
		var m MovementDetail
		if err := rows.Scan(
			&m.ID, &m.ClientID, &m.VariantID, &m.Type, &m.Qty,
			&m.UnitPriceTTC, &m.DepositPerKeg, &m.Notes, &m.CreatedAt,
			&m.ProductName, &m.SizeL, &m.VariantPriceTTC, &m.VariantDepositEUR,
		); err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

// LockClient takes the client row lock and holds it until the
// transaction ends. Movements are append-only, so the lock is the only
// thing serialising concurrent reprises for one client.
func (t *txRepository) LockClient(ctx context.Context, clientID int64) error {
	_, err := t.tx.Exec(ctx, `SELECT id FROM clients WHERE id = $1 FOR UPDATE`, clientID)
	return err
}

func (t *txRepository) KegsHeld(ctx context.Context, clientID, variantID int64) (int, error) {
	var held int
	err := t.tx.QueryRow(ctx, `SELECT COALESCE(SUM(CASE WHEN mv_type = 'OUT' THEN qty ELSE -qty END), 0)
FROM movements
WHERE client_id = $1 AND variant_id = $2`, clientID, variantID).Scan(&held)
	return held, err
}

func (t *txRepository) InsertMovement(ctx context.Context, m Movement) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `INSERT INTO movements (client_id, variant_id, mv_type, qty, unit_price_ttc, deposit_per_keg, notes)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id`,
		m.ClientID, m.VariantID, string(m.Type), m.Qty, m.UnitPriceTTC, m.DepositPerKeg, m.Notes).Scan(&id)
	return id, err
}

func (t *txRepository) AdjustDepot(ctx context.Context, variantID int64, delta int) error {
	if delta == 0 {
		return nil
	}
	_, err := t.tx.Exec(ctx, `INSERT INTO depot_stock (variant_id, qty, updated_at)
VALUES ($1, $2, NOW())
ON CONFLICT (variant_id) DO UPDATE SET qty = depot_stock.qty + EXCLUDED.qty, updated_at = NOW()`,
		variantID, delta)
	return err
}
