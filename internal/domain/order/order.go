// Package order implements checkout and the order lifecycle.
package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/Bruce101github/crochethairbygg/internal/domain/cart"
	"github.com/Bruce101github/crochethairbygg/internal/domain/discount"
)

// Status is an order's lifecycle state.
type Status string

const (
	StatusPending    Status = "pending"
	StatusPaid       Status = "paid"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// transitions maps each status to the statuses reachable from it.
// Cancellation is only possible before the order ships.
var transitions = map[Status][]Status{
	StatusPending:    {StatusPaid, StatusCancelled},
	StatusPaid:       {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipped, StatusCancelled},
	StatusShipped:    {StatusDelivered},
}

// Valid reports whether s is a known order status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// CanTransition reports whether an order may move from one status to another.
// Re-applying the current status is allowed as a no-op.
func CanTransition(from, to Status) bool {
	if from == to {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Returnable reports whether an order is eligible for return requests.
func (s Status) Returnable() bool {
	switch s {
	case StatusPaid, StatusProcessing, StatusShipped, StatusDelivered:
		return true
	}
	return false
}

// CustomerRef identifies the account that placed an authenticated order.
type CustomerRef struct {
	ID    int64
	Email string
	Name  string
}

// GuestAddress is the denormalized shipping address stored on guest orders.
type GuestAddress struct {
	FullName    string
	PhoneNumber string
	AddressLine string
	City        string
	Region      string
	Country     string
}

// Complete reports whether the required address fields are present.
func (a GuestAddress) Complete() bool {
	return a.FullName != "" && a.PhoneNumber != "" && a.AddressLine != "" &&
		a.City != "" && a.Region != ""
}

// GuestDetails holds the contact and shipping details of a guest order.
type GuestDetails struct {
	Email   string
	Name    string
	Address GuestAddress
}

/// Buyer is a tagged variant: exactly one of Customer or Guest is set.
type Buyer struct {
	Customer *CustomerRef
	Guest    *GuestDetails
}

// IsGuest reports whether the buyer checked out without an account.
func (b Buyer) IsGuest() bool { return b.Guest != nil }

// Email returns the address order notifications go to.
func (b Buyer) Email() string {
	if b.Guest != nil {
		return b.Guest.Email
	}
	if b.Customer != nil {
		return b.Customer.Email
	}
	return ""
}

// Name returns the buyer's display name.
func (b Buyer) Name() string {
	if b.Guest != nil {
		return b.Guest.Name
	}
	if b.Customer != nil {
		return b.Customer.Name
	}
	return ""
}

// Item is a frozen snapshot of a purchased line; later price changes to the
// variant never affect it.
type Item struct {
	ID           int64
	VariantID    *int64
	ProductTitle string
	Quantity     int
	ItemTotal    decimal.Decimal
}

// Order is immutable once created except for status, tracking number, and
// the payment reference recorded on the paid transition.
type Order struct {
	ID               int64
	Buyer            Buyer
	Items            []Item
	Subtotal         decimal.Decimal
	DiscountCodeID   *int64
	DiscountAmount   decimal.Decimal
	ShippingMethodID *int64
	ShippingCost     decimal.Decimal
	Total            decimal.Decimal
	Status           Status
	TrackingNumber   string
	PaymentReference string
	AddressID        *int64
	CreatedAt        time.Time
}

// Checkout is the validated, fully-priced input for the transactional order
// commit: discount usage increment, order row, item rows, stock decrements,
// and cart clearing succeed or fail as one unit.
type Checkout struct {
	Buyer            Buyer
	AddressID        *int64
	ShippingMethodID int64
	ShippingCost     decimal.Decimal
	Lines            []cart.Line
	LineTotals       []decimal.Decimal
	LineTitles       []string
	Subtotal         decimal.Decimal
	Discount         *discount.Result
	Total            decimal.Decimal
	// ClearCartFor names the customer whose cart is emptied on commit
	// (authenticated checkout only).
	ClearCartFor *int64
}

// DiscountAmount returns the applied discount, zero when no code was used.
func (c *Checkout) DiscountAmount() decimal.Decimal {
	if c.Discount == nil {
		return decimal.Zero
	}
	return c.Discount.Amount
}

// Repository defines persistence operations for orders.
type Repository interface {
	// CreateFromCheckout commits the checkout as a single transaction.
	// It returns a catalog.InsufficientStockError when a conditional stock
	// decrement fails, and a discount.InvalidError when the usage-limit
	// increment loses a concurrent race.
	CreateFromCheckout(ctx context.Context, co *Checkout) (*Order, error)
	GetByID(ctx context.Context, id int64) (*Order, error)
	// GetGuestOrder fetches a guest order by id and email (case-insensitive).
	GetGuestOrder(ctx context.Context, id int64, email string) (*Order, error)
	ListByCustomer(ctx context.Context, customerID int64) ([]Order, error)
	// MarkPaid transitions pending -> paid and records the verified payment
	// reference. It reports false when the order was not pending, which
	// makes webhook replays no-ops.
	MarkPaid(ctx context.Context, id int64, paymentRef string) (bool, error)
	UpdateStatus(ctx context.Context, id int64, status Status, trackingNumber *string) error
}

// ErrNotFound is returned when a requested order does not exist or is not
// visible to the requester.
var ErrNotFound = errors.New("order not found")

// Notifier dispatches buyer-facing emails. Failures are logged by callers
// and never fail the triggering operation.
type Notifier interface {
	OrderConfirmation(ctx context.Context, o *Order) error
	OrderStatusUpdate(ctx context.Context, o *Order) error
}
