package discount

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func intPtr(n int) *int { return &n }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func timePtr(t time.Time) *time.Time { return &t }

func activeCode(typ Type, value string) *Code {
	return &Code{Code: "TEST", Type: typ, Value: dec(value), Active: true}
}

func TestEvaluate(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	past := now.Add(-24 * time.Hour)
	future := now.Add(24 * time.Hour)

	tests := []struct {
		name       string
		code       *Code
		subtotal   string
		wantAmount string
		wantReason string
	}{
		{
			name:       "percentage without cap",
			code:       activeCode(TypePercentage, "10"),
			subtotal:   "100",
			wantAmount: "10",
		},
		{
			name: "percentage capped at max discount",
			code: &Code{
				Code: "BIG", Type: TypePercentage, Value: dec("50"),
				MaxDiscountAmount: decPtr("20"), Active: true,
			},
			subtotal:   "100",
			wantAmount: "20",
		},
		{
			name:       "fixed capped at subtotal",
			code:       activeCode(TypeFixed, "50"),
			subtotal:   "20",
			wantAmount: "20",
		},
		{
			name:       "fixed below subtotal",
			code:       activeCode(TypeFixed, "5"),
			subtotal:   "20",
			wantAmount: "5",
		},
		{
			name:       "inactive code",
			code:       &Code{Code: "OFF", Type: TypeFixed, Value: dec("5"), Active: false},
			subtotal:   "100",
			wantReason: "This discount code is no longer active",
		},
		{
			name: "not yet valid",
			code: &Code{
				Code: "SOON", Type: TypeFixed, Value: dec("5"),
				Active: true, ValidFrom: timePtr(future),
			},
			subtotal:   "100",
			wantReason: "This discount code is not yet valid",
		},
		{
			name: "expired",
			code: &Code{
				Code: "OLD", Type: TypeFixed, Value: dec("5"),
				Active: true, ValidUntil: timePtr(past),
			},
			subtotal:   "100",
			wantReason: "This discount code has expired",
		},
		{
			name: "within window succeeds",
			code: &Code{
				Code: "WINDOW", Type: TypePercentage, Value: dec("10"),
				Active: true, ValidFrom: timePtr(past), ValidUntil: timePtr(future),
			},
			subtotal:   "100",
			wantAmount: "10",
		},
		{
			name: "below minimum purchase",
			code: &Code{
				Code: "MIN", Type: TypeFixed, Value: dec("5"),
				Active: true, MinPurchaseAmount: dec("50"),
			},
			subtotal:   "40",
			wantReason: "Minimum purchase of ₵50.00 required",
		},
		{
			name: "usage limit reached",
			code: &Code{
				Code: "LIMITED", Type: TypeFixed, Value: dec("5"),
				Active: true, UsageLimit: intPtr(3), TimesUsed: 3,
			},
			subtotal:   "100",
			wantReason: "This discount code has reached its usage limit",
		},
		{
			name: "usage under limit succeeds",
			code: &Code{
				Code: "ROOM", Type: TypeFixed, Value: dec("5"),
				Active: true, UsageLimit: intPtr(3), TimesUsed: 2,
			},
			subtotal:   "100",
			wantAmount: "5",
		},
		{
			name: "nil usage limit is unlimited",
			code: &Code{
				Code: "FOREVER", Type: TypeFixed, Value: dec("5"),
				Active: true, TimesUsed: 9999,
			},
			subtotal:   "100",
			wantAmount: "5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Evaluate(tt.code, dec(tt.subtotal), now)

			if tt.wantReason != "" {
				var invErr *InvalidError
				require.ErrorAs(t, err, &invErr)
				assert.Equal(t, tt.wantReason, invErr.Reason)
				assert.Nil(t, got)
				return
			}

			require.NoError(t, err)
			assert.True(t, dec(tt.wantAmount).Equal(got.Amount),
				"expected amount %s, got %s", tt.wantAmount, got.Amount)
		})
	}
}

// Fixed discounts can never exceed the subtotal, so order totals stay
// non-negative before shipping.
func TestAmount_NeverExceedsSubtotalForFixed(t *testing.T) {
	c := activeCode(TypeFixed, "1000")
	for _, subtotal := range []string{"0", "0.01", "50", "999.99", "1000"} {
		amount := Amount(c, dec(subtotal))
		assert.True(t, amount.LessThanOrEqual(dec(subtotal)),
			"discount %s exceeds subtotal %s", amount, subtotal)
	}
}

func TestAmount_PercentageRounding(t *testing.T) {
	c := activeCode(TypePercentage, "15")
	assert.True(t, dec("1.50").Equal(Amount(c, dec("9.99"))))
}
