package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/Bruce101github/crochethairbygg/internal/domain/discount"
)

const (
	discountColumns = `id, code, description, discount_type, discount_value,
		min_purchase_amount, max_discount_amount, active, valid_from, valid_until,
		usage_limit, times_used, created_at`

	findDiscountByCodeSQL = `SELECT ` + discountColumns + `
		FROM discount_codes WHERE UPPER(code) = UPPER($1)`

	listDiscountsSQL = `SELECT ` + discountColumns + `
		FROM discount_codes ORDER BY created_at DESC`

	createDiscountSQL = `INSERT INTO discount_codes
		(code, description, discount_type, discount_value, min_purchase_amount,
		 max_discount_amount, active, valid_from, valid_until, usage_limit)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at`

	setDiscountActiveSQL = `UPDATE discount_codes SET active = $2 WHERE id = $1`
)

var _ discount.Repository = (*DiscountRepository)(nil)

// DiscountRepository implements discount.Repository backed by PostgreSQL.
type DiscountRepository struct {
	pool *pgxpool.Pool
}

// NewDiscountRepository returns a DiscountRepository that uses the given pool.
func NewDiscountRepository(pool *pgxpool.Pool) *DiscountRepository {
	return &DiscountRepository{pool: pool}
}

// FindByCode looks up a discount code case-insensitively. Returns
// discount.ErrUnknownCode when no code matches; validity checks happen at
// the service layer so the caller can report precise reasons.
func (r *DiscountRepository) FindByCode(ctx context.Context, code string) (*discount.Code, error) {
	rows, err := r.pool.Query(ctx, findDiscountByCodeSQL, code)
	if err != nil {
		return nil, fmt.Errorf("finding discount code %q: %w", code, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanDiscountCode)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, discount.ErrUnknownCode
		}
		return nil, fmt.Errorf("finding discount code %q: %w", code, err)
	}
	return &c, nil
}

// List returns all discount codes, newest first.
func (r *DiscountRepository) List(ctx context.Context) ([]discount.Code, error) {
	rows, err := r.pool.Query(ctx, listDiscountsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing discount codes: %w", err)
	}

	codes, err := pgx.CollectRows(rows, scanDiscountCode)
	if err != nil {
		return nil, fmt.Errorf("listing discount codes: %w", err)
	}
	return codes, nil
}

// Create inserts a new discount code and fills in its id and creation time.
func (r *DiscountRepository) Create(ctx context.Context, c *discount.Code) error {
	var usageLimit *int32
	if c.UsageLimit != nil {
		v := int32(*c.UsageLimit)
		usageLimit = &v
	}
	err := r.pool.QueryRow(ctx, createDiscountSQL,
		c.Code, c.Description, string(c.Type), c.Value, c.MinPurchaseAmount,
		c.MaxDiscountAmount, c.Active, c.ValidFrom, c.ValidUntil, usageLimit,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating discount code %q: %w", c.Code, err)
	}
	return nil
}

// SetActive toggles a discount code on or off.
func (r *DiscountRepository) SetActive(ctx context.Context, id int64, active bool) error {
	tag, err := r.pool.Exec(ctx, setDiscountActiveSQL, id, active)
	if err != nil {
		return fmt.Errorf("toggling discount code %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return discount.ErrUnknownCode
	}
	return nil
}

func scanDiscountCode(row pgx.CollectableRow) (discount.Code, error) {
	var (
		c            discount.Code
		discountType string
		maxDiscount  *decimal.Decimal
		usageLimit   *int32
		timesUsed    int32
	)
	err := row.Scan(
		&c.ID, &c.Code, &c.Description, &discountType, &c.Value,
		&c.MinPurchaseAmount, &maxDiscount, &c.Active, &c.ValidFrom, &c.ValidUntil,
		&usageLimit, &timesUsed, &c.CreatedAt,
	)
	c.Type = discount.Type(discountType)
	c.MaxDiscountAmount = maxDiscount
	if usageLimit != nil {
		v := int(*usageLimit)
		c.UsageLimit = &v
	}
	c.TimesUsed = int(timesUsed)
	return c, err
}
