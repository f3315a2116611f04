package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/Bruce101github/crochethairbygg/internal/domain/catalog"
	"github.com/Bruce101github/crochethairbygg/internal/domain/discount"
	"github.com/Bruce101github/crochethairbygg/internal/domain/order"
)

const (
	// Fails when concurrent checkouts drained the stock first. Zero rows
	// affected means insufficient stock, not a missing variant: callers
	// validate existence before committing.
	decrementStockSQL = `UPDATE product_variants SET stock = stock - $2
		WHERE id = $1 AND stock >= $2`

	currentStockSQL = `SELECT stock FROM product_variants WHERE id = $1`

	// Fails when a concurrent checkout consumed the last permitted use.
	incrementDiscountUsesSQL = `UPDATE discount_codes SET times_used = times_used + 1
		WHERE id = $1 AND (usage_limit IS NULL OR times_used < usage_limit)`

	insertOrderSQL = `INSERT INTO orders
		(customer_id, is_guest, guest_email, guest_name, subtotal, discount_code_id,
		 discount_amount, shipping_method_id, shipping_cost, total, address_id,
		 guest_addr_full_name, guest_addr_phone, guest_addr_line, guest_addr_city,
		 guest_addr_region, guest_addr_country)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING id, status, created_at`

	insertOrderItemSQL = `INSERT INTO order_items
		(order_id, variant_id, product_title, quantity, item_total)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	orderColumns = `o.id, o.customer_id, c.email, c.full_name, o.is_guest,
		o.guest_email, o.guest_name, o.subtotal, o.discount_code_id, o.discount_amount,
		o.shipping_method_id, o.shipping_cost, o.total, o.status, o.tracking_number,
		o.payment_reference, o.address_id, o.guest_addr_full_name, o.guest_addr_phone,
		o.guest_addr_line, o.guest_addr_city, o.guest_addr_region, o.guest_addr_country,
		o.created_at`

	getOrderByIDSQL = `SELECT ` + orderColumns + `
		FROM orders o LEFT JOIN customers c ON c.id = o.customer_id
		WHERE o.id = $1`

	getGuestOrderSQL = `SELECT ` + orderColumns + `
		FROM orders o LEFT JOIN customers c ON c.id = o.customer_id
		WHERE o.id = $1 AND o.is_guest AND LOWER(o.guest_email) = LOWER($2)`

	listOrdersByCustomerSQL = `SELECT ` + orderColumns + `
		FROM orders o LEFT JOIN customers c ON c.id = o.customer_id
		WHERE o.customer_id = $1 ORDER BY o.created_at DESC`

	getOrderItemsSQL = `SELECT id, variant_id, product_title, quantity, item_total
		FROM order_items WHERE order_id = $1 ORDER BY id`

	// Conditional on pending so that webhook replays and webhook/poll races
	// settle exactly once.
	markOrderPaidSQL = `UPDATE orders SET status = 'paid', payment_reference = $2
		WHERE id = $1 AND status = 'pending'`

	updateOrderStatusSQL = `UPDATE orders
		SET status = $2, tracking_number = COALESCE($3, tracking_number)
		WHERE id = $1`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// CreateFromCheckout commits a priced checkout in one transaction: discount
// usage, the order row, item rows, conditional stock decrements, and cart
// clearing. Any failed conditional update rolls back the whole order.
func (r *OrderRepository) CreateFromCheckout(ctx context.Context, co *order.Checkout) (*order.Order, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating order: %w", err)
	}
	defer tx.Rollback(ctx)

	var discountCodeID *int64
	if co.Discount != nil {
		discountCodeID = &co.Discount.Code.ID
		tag, err := tx.Exec(ctx, incrementDiscountUsesSQL, co.Discount.Code.ID)
		if err != nil {
			return nil, fmt.Errorf("incrementing discount uses: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return nil, &discount.InvalidError{Reason: "This discount code has reached its usage limit"}
		}
	}

	o := &order.Order{
		Buyer:            co.Buyer,
		Subtotal:         co.Subtotal,
		DiscountCodeID:   discountCodeID,
		DiscountAmount:   co.DiscountAmount(),
		ShippingCost:     co.ShippingCost,
		Total:            co.Total,
		AddressID:        co.AddressID,
		ShippingMethodID: &co.ShippingMethodID,
	}

	var (
		customerID *int64
		guestEmail *string
		guestName  *string
		guestAddr  [6]*string
	)
	if g := co.Buyer.Guest; g != nil {
		guestEmail, guestName = &g.Email, &g.Name
		guestAddr = [6]*string{
			&g.Address.FullName, &g.Address.PhoneNumber, &g.Address.AddressLine,
			&g.Address.City, &g.Address.Region, &g.Address.Country,
		}
	} else {
		customerID = &co.Buyer.Customer.ID
	}

	err = tx.QueryRow(ctx, insertOrderSQL,
		customerID, co.Buyer.IsGuest(), guestEmail, guestName,
		co.Subtotal, discountCodeID, co.DiscountAmount(),
		co.ShippingMethodID, co.ShippingCost, co.Total, co.AddressID,
		guestAddr[0], guestAddr[1], guestAddr[2], guestAddr[3], guestAddr[4], guestAddr[5],
	).Scan(&o.ID, &o.Status, &o.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("creating order: %w", err)
	}

	for i, line := range co.Lines {
		tag, err := tx.Exec(ctx, decrementStockSQL, line.VariantID, int32(line.Quantity))
		if err != nil {
			return nil, fmt.Errorf("decrementing stock for variant %d: %w", line.VariantID, err)
		}
		if tag.RowsAffected() == 0 {
			var available int32
			if err := tx.QueryRow(ctx, currentStockSQL, line.VariantID).Scan(&available); err != nil {
				return nil, fmt.Errorf("checking stock for variant %d: %w", line.VariantID, err)
			}
			return nil, &catalog.InsufficientStockError{
				VariantID: line.VariantID,
				Available: int(available),
			}
		}

		item := order.Item{
			VariantID:    &co.Lines[i].VariantID,
			ProductTitle: co.LineTitles[i],
			Quantity:     line.Quantity,
			ItemTotal:    co.LineTotals[i],
		}
		err = tx.QueryRow(ctx, insertOrderItemSQL,
			o.ID, line.VariantID, item.ProductTitle, int32(item.Quantity), item.ItemTotal,
		).Scan(&item.ID)
		if err != nil {
			return nil, fmt.Errorf("creating order item: %w", err)
		}
		o.Items = append(o.Items, item)
	}

	if co.ClearCartFor != nil {
		if _, err := tx.Exec(ctx, clearCartSQL, *co.ClearCartFor); err != nil {
			return nil, fmt.Errorf("clearing cart: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("creating order: %w", err)
	}
	return o, nil
}

// GetByID fetches an order with its items. Returns order.ErrNotFound for
// unknown ids.
func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %d: %w", id, err)
	}
	return r.collectOne(ctx, rows, id)
}

// GetGuestOrder fetches a guest order by id and its contact email,
// case-insensitively. A wrong email looks identical to a missing order.
func (r *OrderRepository) GetGuestOrder(ctx context.Context, id int64, email string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getGuestOrderSQL, id, email)
	if err != nil {
		return nil, fmt.Errorf("getting guest order %d: %w", id, err)
	}
	return r.collectOne(ctx, rows, id)
}

// ListByCustomer returns the customer's orders with items, newest first.
func (r *OrderRepository) ListByCustomer(ctx context.Context, customerID int64) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersByCustomerSQL, customerID)
	if err != nil {
		return nil, fmt.Errorf("listing orders for customer %d: %w", customerID, err)
	}

	ords, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, fmt.Errorf("listing orders for customer %d: %w", customerID, err)
	}
	for i := range ords {
		if ords[i].Items, err = r.loadItems(ctx, ords[i].ID); err != nil {
			return nil, err
		}
	}
	return ords, nil
}

// MarkPaid transitions a pending order to paid, recording the verified
// payment reference. Reports false when the order was not pending.
func (r *OrderRepository) MarkPaid(ctx context.Context, id int64, paymentRef string) (bool, error) {
	tag, err := r.pool.Exec(ctx, markOrderPaidSQL, id, paymentRef)
	if err != nil {
		return false, fmt.Errorf("marking order %d paid: %w", id, err)
	}
	return tag.RowsAffected() == 1, nil
}

// UpdateStatus sets the order's status, optionally recording a tracking
// number (nil keeps the existing one).
func (r *OrderRepository) UpdateStatus(ctx context.Context, id int64, status order.Status, trackingNumber *string) error {
	tag, err := r.pool.Exec(ctx, updateOrderStatusSQL, id, string(status), trackingNumber)
	if err != nil {
		return fmt.Errorf("updating status of order %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

func (r *OrderRepository) collectOne(ctx context.Context, rows pgx.Rows, id int64) (*order.Order, error) {
	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %d: %w", id, err)
	}
	if o.Items, err = r.loadItems(ctx, o.ID); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepository) loadItems(ctx context.Context, orderID int64) ([]order.Item, error) {
	rows, err := r.pool.Query(ctx, getOrderItemsSQL, orderID)
	if err != nil {
		return nil, fmt.Errorf("loading items of order %d: %w", orderID, err)
	}

	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (order.Item, error) {
		var (
			it       order.Item
			quantity int32
		)
		err := row.Scan(&it.ID, &it.VariantID, &it.ProductTitle, &quantity, &it.ItemTotal)
		it.Quantity = int(quantity)
		return it, err
	})
	if err != nil {
		return nil, fmt.Errorf("loading items of order %d: %w", orderID, err)
	}
	return items, nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o             order.Order
		customerID    *int64
		custEmail     *string
		custName      *string
		isGuest       bool
		guestEmail    *string
		guestName     *string
		status        string
		tracking      *string
		paymentRef    *string
		addrFullName  *string
		addrPhone     *string
		addrLine      *string
		addrCity      *string
		addrRegion    *string
		addrCountry   *string
		discountCode  *int64
		shippingMeth  *int64
		discountAmt   decimal.Decimal
	)
	err := row.Scan(
		&o.ID, &customerID, &custEmail, &custName, &isGuest,
		&guestEmail, &guestName, &o.Subtotal, &discountCode, &discountAmt,
		&shippingMeth, &o.ShippingCost, &o.Total, &status, &tracking,
		&paymentRef, &o.AddressID, &addrFullName, &addrPhone,
		&addrLine, &addrCity, &addrRegion, &addrCountry,
		&o.CreatedAt,
	)
	if err != nil {
		return o, err
	}

	o.DiscountCodeID = discountCode
	o.DiscountAmount = discountAmt
	o.ShippingMethodID = shippingMeth
	o.Status = order.Status(status)
	if tracking != nil {
		o.TrackingNumber = *tracking
	}
	if paymentRef != nil {
		o.PaymentReference = *paymentRef
	}

	if isGuest {
		g := &order.GuestDetails{}
		if guestEmail != nil {
			g.Email = *guestEmail
		}
		if guestName != nil {
			g.Name = *guestName
		}
		g.Address = order.GuestAddress{
			FullName:    deref(addrFullName),
			PhoneNumber: deref(addrPhone),
			AddressLine: deref(addrLine),
			City:        deref(addrCity),
			Region:      deref(addrRegion),
			Country:     deref(addrCountry),
		}
		o.Buyer = order.Buyer{Guest: g}
	} else if customerID != nil {
		o.Buyer = order.Buyer{Customer: &order.CustomerRef{
			ID:    *customerID,
			Email: deref(custEmail),
			Name:  deref(custName),
		}}
	}
	return o, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
