package depot

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads depot stock from PostgreSQL. Stock quantities are
// written by the ledger inside the movement transaction; this side only
// reads and maintains reorder rules.
type Repository interface {
	ListStock(ctx context.Context) ([]StockRow, error)
	ListBelowMin(ctx context.Context) ([]StockRow, error)
	UpsertReorderRule(ctx context.Context, rule ReorderRule) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const stockQuery = `SELECT v.id, p.name, v.size_l, COALESCE(s.qty, 0), COALESCE(r.min_qty, 0), COALESCE(s.updated_at, NOW())
FROM variants v
JOIN products p ON p.id = v.product_id
LEFT JOIN depot_stock s ON s.variant_id = v.id
LEFT JOIN reorder_rules r ON r.variant_id = v.id`

func (r *repository) ListStock(ctx context.Context) ([]StockRow, error) {
	rows, err := r.pool.Query(ctx, stockQuery+`
ORDER BY p.name ASC, v.size_l ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanStock(rows)
}

func (r *repository) ListBelowMin(ctx context.Context) ([]StockRow, error) {
	rows, err := r.pool.Query(ctx, stockQuery+`
WHERE COALESCE(r.min_qty, 0) > 0 AND COALESCE(s.qty, 0) < r.min_qty
ORDER BY p.name ASC, v.size_l ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanStock(rows)
}

func (r *repository) UpsertReorderRule(ctx context.Context, rule ReorderRule) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO reorder_rules (variant_id, min_qty)
VALUES ($1, $2)
ON CONFLICT (variant_id) DO UPDATE SET min_qty = EXCLUDED.min_qty`,
		rule.VariantID, rule.MinQty)
	return err
}

func scanStock(rows pgx.Rows) ([]StockRow, error) {
	result := []StockRow{}
	for rows.Next() {
		var row StockRow
		if err := rows.Scan(&row.VariantID, &row.ProductName, &row.SizeL, &row.Qty, &row.MinQty, &row.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}
