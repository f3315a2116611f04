package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Bruce101github/crochethairbygg/internal/domain/shipping"
)

const (
	getActiveShippingMethodSQL = `SELECT id, name, price, active
		FROM shipping_methods WHERE id = $1 AND active = TRUE`

	listActiveShippingMethodsSQL = `SELECT id, name, price, active
		FROM shipping_methods WHERE active = TRUE ORDER BY price`
)

var _ shipping.Repository = (*ShippingRepository)(nil)

// ShippingRepository implements shipping.Repository backed by PostgreSQL.
type ShippingRepository struct {
	pool *pgxpool.Pool
}

// NewShippingRepository returns a ShippingRepository that uses the given pool.
func NewShippingRepository(pool *pgxpool.Pool) *ShippingRepository {
	return &ShippingRepository{pool: pool}
}

// GetActive fetches an active shipping method. Inactive and unknown methods
// both map to shipping.ErrNotFound.
func (r *ShippingRepository) GetActive(ctx context.Context, id int64) (*shipping.Method, error) {
	var m shipping.Method
	err := r.pool.QueryRow(ctx, getActiveShippingMethodSQL, id).
		Scan(&m.ID, &m.Name, &m.Price, &m.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shipping.ErrNotFound
		}
		return nil, fmt.Errorf("getting shipping method %d: %w", id, err)
	}
	return &m, nil
}

// ListActive returns the active shipping methods, cheapest first.
func (r *ShippingRepository) ListActive(ctx context.Context) ([]shipping.Method, error) {
	rows, err := r.pool.Query(ctx, listActiveShippingMethodsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing shipping methods: %w", err)
	}

	methods, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (shipping.Method, error) {
		var m shipping.Method
		err := row.Scan(&m.ID, &m.Name, &m.Price, &m.Active)
		return m, err
	})
	if err != nil {
		return nil, fmt.Errorf("listing shipping methods: %w", err)
	}
	return methods, nil
}
