package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Bruce101github/crochethairbygg/internal/domain/catalog"
)

const (
	getVariantByIDSQL = `SELECT id, product_title, sku, length, color, texture, price, stock, active
		FROM product_variants WHERE id = $1`

	getVariantsByIDsSQL = `SELECT id, product_title, sku, length, color, texture, price, stock, active
		FROM product_variants WHERE id = ANY($1) ORDER BY id`

	restoreVariantStockSQL = `UPDATE product_variants SET stock = stock + $2 WHERE id = $1`
)

var _ catalog.Repository = (*VariantRepository)(nil)

// VariantRepository implements catalog.Repository backed by PostgreSQL.
type VariantRepository struct {
	pool *pgxpool.Pool
}

// NewVariantRepository returns a VariantRepository that uses the given pool.
func NewVariantRepository(pool *pgxpool.Pool) *VariantRepository {
	return &VariantRepository{pool: pool}
}

// GetByID fetches a single variant. Returns catalog.ErrNotFound when the id
// does not exist.
func (r *VariantRepository) GetByID(ctx context.Context, id int64) (*catalog.Variant, error) {
	rows, err := r.pool.Query(ctx, getVariantByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting variant %d: %w", id, err)
	}

	v, err := pgx.CollectExactlyOneRow(rows, scanVariant)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrNotFound
		}
		return nil, fmt.Errorf("getting variant %d: %w", id, err)
	}
	return &v, nil
}

// GetByIDs fetches the variants with the given ids. Missing ids are simply
// absent from the result; callers detect them by comparing lengths.
func (r *VariantRepository) GetByIDs(ctx context.Context, ids []int64) ([]catalog.Variant, error) {
	rows, err := r.pool.Query(ctx, getVariantsByIDsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("getting variants: %w", err)
	}

	variants, err := pgx.CollectRows(rows, scanVariant)
	if err != nil {
		return nil, fmt.Errorf("getting variants: %w", err)
	}
	return variants, nil
}

// RestoreStock adds qty back to the variant's stock counter.
func (r *VariantRepository) RestoreStock(ctx context.Context, id int64, qty int) error {
	_, err := r.pool.Exec(ctx, restoreVariantStockSQL, id, int32(qty))
	if err != nil {
		return fmt.Errorf("restoring stock for variant %d: %w", id, err)
	}
	return nil
}

func scanVariant(row pgx.CollectableRow) (catalog.Variant, error) {
	var (
		v       catalog.Variant
		length  *string
		color   *string
		texture *string
		stock   int32
	)
	err := row.Scan(
		&v.ID, &v.ProductTitle, &v.SKU, &length, &color, &texture,
		&v.Price, &stock, &v.Active,
	)
	if length != nil {
		v.Length = *length
	}
	if color != nil {
		v.Color = *color
	}
	if texture != nil {
		v.Texture = *texture
	}
	v.Stock = int(stock)
	return v, err
}
