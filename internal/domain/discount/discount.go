// Package discount implements discount codes: validity checks against a cart
// subtotal and discount amount computation.
package discount

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Type enumerates the supported discount strategies.
type Type string

const (
	// TypePercentage applies a percentage of the subtotal, optionally capped.
	TypePercentage Type = "percentage"
	// TypeFixed applies a fixed amount, capped at the subtotal.
	TypeFixed Type = "fixed"
)

// ErrUnknownCode is returned when no discount code matches the given string.
var ErrUnknownCode = errors.New("invalid discount code")

// InvalidError carries the specific human-readable reason a known code
// cannot be applied to this order.
type InvalidError struct {
	Reason string
}

func (e *InvalidError) Error() string { return e.Reason }

// Code is a discount code with its eligibility constraints. The code string
// is matched case-insensitively and is unique.
type Code struct {
	ID                int64
	Code              string
	Description       string
	Type              Type
	Value             decimal.Decimal
	MinPurchaseAmount decimal.Decimal
	MaxDiscountAmount *decimal.Decimal
	Active            bool
	ValidFrom         *time.Time
	ValidUntil        *time.Time
	UsageLimit        *int
	TimesUsed         int
	CreatedAt         time.Time
}

// Repository provides lookup and administration of discount codes. The usage
// counter is incremented inside the checkout transaction, not here.
type Repository interface {
	// FindByCode looks up a code case-insensitively.
	// Returns ErrUnknownCode when no code matches.
	FindByCode(ctx context.Context, code string) (*Code, error)
	List(ctx context.Context) ([]Code, error)
	Create(ctx context.Context, c *Code) error
	SetActive(ctx context.Context, id int64, active bool) error
}
