package discount

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Result holds the outcome of evaluating a code against a subtotal.
type Result struct {
	Code   *Code
	Amount decimal.Decimal
}

// Evaluate checks the code's validity for the given subtotal and computes the
// discount amount. Checks run in order and stop at the first failure, each
/// reporting its own reason. Evaluate is pure: incrementing the usage counter
// is the checkout transaction's job.
func Evaluate(c *Code, subtotal decimal.Decimal, now time.Time) (*Result, error) {
	if !c.Active {
		return nil, &InvalidError{Reason: "This discount code is no longer active"}
	}
	if c.ValidFrom != nil && now.Before(*c.ValidFrom) {
		return nil, &InvalidError{Reason: "This discount code is not yet valid"}
	}
	if c.ValidUntil != nil && now.After(*c.ValidUntil) {
		return nil, &InvalidError{Reason: "This discount code has expired"}
	}
	if c.MinPurchaseAmount.IsPositive() && subtotal.LessThan(c.MinPurchaseAmount) {
		return nil, &InvalidError{
			Reason: fmt.Sprintf("Minimum purchase of ₵%s required", c.MinPurchaseAmount.StringFixed(2)),
		}
	}
	if c.UsageLimit != nil && c.TimesUsed >= *c.UsageLimit {
		return nil, &InvalidError{Reason: "This discount code has reached its usage limit"}
	}

	return &Result{Code: c, Amount: Amount(c, subtotal)}, nil
}

// Amount computes the discount for an already-validated code. Fixed discounts
// never exceed the subtotal; percentage discounts respect the optional cap.
func Amount(c *Code, subtotal decimal.Decimal) decimal.Decimal {
	var amount decimal.Decimal
	switch c.Type {
	case TypePercentage:
		amount = subtotal.Mul(c.Value).Div(hundred)
		if c.MaxDiscountAmount != nil {
			amount = decimal.Min(amount, *c.MaxDiscountAmount)
		}
	default: // fixed
		amount = decimal.Min(c.Value, subtotal)
	}
	return amount.Round(2)
}
