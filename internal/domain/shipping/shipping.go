// Package shipping holds the delivery methods offered at checkout.
package shipping

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a shipping method does not exist or is
// no longer active.
var ErrNotFound = errors.New("invalid shipping method")

// Method is a delivery option with a flat price.
type Method struct {
	ID     int64
	Name   string
	Price  decimal.Decimal
	Active bool
}

// Repository defines read operations for shipping methods.
type Repository interface {
	// GetActive fetches a method only if it is active.
	GetActive(ctx context.Context, id int64) (*Method, error)
	ListActive(ctx context.Context) ([]Method, error)
}
