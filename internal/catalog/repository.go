package catalog

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lecentrallanderneau-oss/livraison-et-suivi-futs/internal/shared"
)

// ErrVariantExists indicates the product already has a variant in that volume.
var ErrVariantExists = errors.New("catalog: variant already exists")

// Repository persists the catalog in PostgreSQL.
type Repository interface {
	ListProducts(ctx context.Context) ([]Product, error)
	GetProduct(ctx context.Context, id int64) (Product, error)
	ListVariants(ctx context.Context) ([]VariantWithProduct, error)
	GetVariant(ctx context.Context, id int64) (VariantWithProduct, error)
	CreateVariant(ctx context.Context, variant Variant) (Variant, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

// ListProducts returns products in insertion order.
func (r *repository) ListProducts(ctx context.Context) ([]Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, allowed_sizes_l, created_at FROM products ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.AllowedSizes, &p.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func (r *repository) GetProduct(ctx context.Context, id int64) (Product, error) {
	var p Product
	err := r.pool.QueryRow(ctx, `SELECT id, name, allowed_sizes_l, created_at FROM products WHERE id=$1`, id).
		Scan(&p.ID, &p.Name, &p.AllowedSizes, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, shared.ErrNotFound
		}
		return Product{}, err
	}
	return p, nil
}

// ListVariants returns variants in insertion order, with product names.
func (r *repository) ListVariants(ctx context.Context) ([]VariantWithProduct, error) {
	rows, err := r.pool.Query(ctx, `SELECT v.id, v.product_id, v.size_l, v.price_ttc, v.deposit_eur, v.created_at, p.name
FROM variants v
JOIN products p ON p.id = v.product_id
ORDER BY v.id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []VariantWithProduct
	for rows.Next() {
		var v VariantWithProduct
		if err := rows.Scan(&v.ID, &v.ProductID, &v.SizeL, &v.PriceTTC, &v.DepositEUR, &v.CreatedAt, &v.ProductName); err != nil {
			return nil, err
		}
		result = append(result, v)
	}
	return result, rows.Err()
}

func (r *repository) GetVariant(ctx context.Context, id int64) (VariantWithProduct, error) {
	var v VariantWithProduct
	err := r.pool.QueryRow(ctx, `SELECT v.id, v.product_id, v.size_l, v.price_ttc, v.deposit_eur, v.created_at, p.name
FROM variants v
JOIN products p ON p.id = v.product_id
WHERE v.id=$1`, id).
		Scan(&v.ID, &v.ProductID, &v.SizeL, &v.PriceTTC, &v.DepositEUR, &v.CreatedAt, &v.ProductName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return VariantWithProduct{}, shared.ErrNotFound
		}
		return VariantWithProduct{}, err
	}
	return v, nil
}

func (r *repository) CreateVariant(ctx context.Context, variant Variant) (Variant, error) {
	err := r.pool.QueryRow(ctx, `INSERT INTO variants (product_id, size_l, price_ttc, deposit_eur) VALUES ($1, $2, $3, $4) RETURNING id, created_at`,
		variant.ProductID, variant.SizeL, variant.PriceTTC, variant.DepositEUR).
		Scan(&variant.ID, &variant.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Variant{}, ErrVariantExists
		}
		return Variant{}, err
	}
	return variant, nil
}
