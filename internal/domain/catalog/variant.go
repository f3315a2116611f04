// Package catalog holds the purchasable product variants (SKUs) and their
// stock counters.
package catalog

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested variant does not exist.
var ErrNotFound = errors.New("product variant not found")

// InsufficientStockError indicates a requested quantity exceeds the
// variant's available stock.
type InsufficientStockError struct {
	VariantID int64
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("not enough stock for variant %d: available %d", e.VariantID, e.Available)
}

// Variant is a purchasable SKU. Stock never goes negative: decrements are
// conditional at the storage layer and fail instead of overselling.
type Variant struct {
	ID           int64
	ProductTitle string
	SKU          string
	Length       string
	Color        string
	Texture      string
	Price        decimal.Decimal
	Stock        int
	Active       bool
}

// Repository defines read and stock operations for variants.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Variant, error)
	GetByIDs(ctx context.Context, ids []int64) ([]Variant, error)
	// RestoreStock adds qty back to the variant's stock counter
	// (refund-driven compensation).
	RestoreStock(ctx context.Context, id int64, qty int) error
}
