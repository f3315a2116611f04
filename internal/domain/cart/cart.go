// Package cart manages per-customer cart lines. A variant appears at most
// once per cart; setting a quantity replaces the previous one.
package cart

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrEmptyCart is returned when checkout is attempted with no cart lines.
var ErrEmptyCart = errors.New("cart has no items")

// Line is a single (variant, quantity) pair in a customer's cart.
type Line struct {
	VariantID int64
	Quantity  int
}

// DetailedLine is a cart line joined with its variant for display and pricing.
type DetailedLine struct {
	Line
	ProductTitle string
	SKU          string
	UnitPrice    decimal.Decimal
	Stock        int
}

// Repository defines persistence operations for carts. A cart exists
// implicitly: it is the set of lines stored for a customer.
type Repository interface {
	Lines(ctx context.Context, customerID int64) ([]DetailedLine, error)
	// SetLine inserts or replaces the quantity for (customer, variant).
	SetLine(ctx context.Context, customerID int64, line Line) error
	RemoveLine(ctx context.Context, customerID, variantID int64) error
	Clear(ctx context.Context, customerID int64) error
}
