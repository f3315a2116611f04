package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Bruce101github/crochethairbygg/internal/domain/cart"
)

const (
	getCartLinesSQL = `SELECT ci.variant_id, ci.quantity, pv.product_title, pv.sku, pv.price, pv.stock
		FROM cart_items ci
		JOIN product_variants pv ON pv.id = ci.variant_id
		WHERE ci.customer_id = $1
		ORDER BY ci.added_at`

	setCartLineSQL = `INSERT INTO cart_items (customer_id, variant_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (customer_id, variant_id) DO UPDATE SET quantity = EXCLUDED.quantity`

	removeCartLineSQL = `DELETE FROM cart_items WHERE customer_id = $1 AND variant_id = $2`

	clearCartSQL = `DELETE FROM cart_items WHERE customer_id = $1`
)

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository implements cart.Repository backed by PostgreSQL.
type CartRepository struct {
	pool *pgxpool.Pool
}

// NewCartRepository returns a CartRepository that uses the given pool.
func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

// Lines returns the customer's cart joined with variant details, oldest
// first.
func (r *CartRepository) Lines(ctx context.Context, customerID int64) ([]cart.DetailedLine, error) {
	rows, err := r.pool.Query(ctx, getCartLinesSQL, customerID)
	if err != nil {
		return nil, fmt.Errorf("listing cart for customer %d: %w", customerID, err)
	}

	lines, err := pgx.CollectRows(rows, scanCartLine)
	if err != nil {
		return nil, fmt.Errorf("listing cart for customer %d: %w", customerID, err)
	}
	return lines, nil
}

// SetLine upserts the quantity for (customer, variant). The new quantity
// replaces the old one rather than adding to it.
func (r *CartRepository) SetLine(ctx context.Context, customerID int64, line cart.Line) error {
	_, err := r.pool.Exec(ctx, setCartLineSQL, customerID, line.VariantID, int32(line.Quantity))
	if err != nil {
		return fmt.Errorf("setting cart line for customer %d: %w", customerID, err)
	}
	return nil
}

// RemoveLine deletes a single variant from the cart.
func (r *CartRepository) RemoveLine(ctx context.Context, customerID, variantID int64) error {
	_, err := r.pool.Exec(ctx, removeCartLineSQL, customerID, variantID)
	if err != nil {
		return fmt.Errorf("removing cart line for customer %d: %w", customerID, err)
	}
	return nil
}

// Clear empties the customer's cart.
func (r *CartRepository) Clear(ctx context.Context, customerID int64) error {
	_, err := r.pool.Exec(ctx, clearCartSQL, customerID)
	if err != nil {
		return fmt.Errorf("clearing cart for customer %d: %w", customerID, err)
	}
	return nil
}

func scanCartLine(row pgx.CollectableRow) (cart.DetailedLine, error) {
	var (
		l        cart.DetailedLine
		quantity int32
		stock    int32
	)
	err := row.Scan(&l.VariantID, &quantity, &l.ProductTitle, &l.SKU, &l.UnitPrice, &stock)
	l.Quantity = int(quantity)
	l.Stock = int(stock)
	return l, err
}
