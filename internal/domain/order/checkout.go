package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Bruce101github/crochethairbygg/internal/domain/cart"
	"github.com/Bruce101github/crochethairbygg/internal/domain/catalog"
	"github.com/Bruce101github/crochethairbygg/internal/domain/customer"
	"github.com/Bruce101github/crochethairbygg/internal/domain/discount"
	"github.com/Bruce101github/crochethairbygg/internal/domain/shipping"
)

// Validation errors surfaced to the checkout caller.
var (
	ErrGuestContactRequired = errors.New("email and name are required for guest checkout")
	ErrGuestAddressRequired = errors.New("a complete shipping address is required for guest checkout")
	ErrGuestItemsRequired   = errors.New("cart items are required for guest checkout")
	ErrAddressRequired      = errors.New("address_id and shipping_method_id are required")
	ErrInvalidQuantity      = errors.New("quantity must be greater than 0")
)

// CheckoutRequest is the raw checkout input after authentication. CustomerID
// is nil for guest checkout, in which case the Guest section and Lines must
// be supplied; authenticated checkout reads lines from the stored cart.
type CheckoutRequest struct {
	CustomerID       *int64
	Guest            *GuestDetails
	AddressID        int64
	ShippingMethodID int64
	DiscountCode     string
	Lines            []cart.Line
}

// CheckoutService validates checkout input, guards stock, prices the order,
// and commits it through the repository. It is the only writer of new orders.
type CheckoutService struct {
	variants  catalog.Repository
	carts     cart.Repository
	discounts discount.Repository
	shipping  shipping.Repository
	customers customer.Repository
	orders    Repository
	notifier  Notifier
	now       func() time.Time
}

// NewCheckoutService creates a CheckoutService with its domain dependencies.
func NewCheckoutService(
	variants catalog.Repository,
	carts cart.Repository,
	discounts discount.Repository,
	shippingRepo shipping.Repository,
	customers customer.Repository,
	orders Repository,
	notifier Notifier,
) *CheckoutService {
	return &CheckoutService{
		variants:  variants,
		carts:     carts,
		discounts: discounts,
		shipping:  shippingRepo,
		customers: customers,
		orders:    orders,
		notifier:  notifier,
		now:       time.Now,
	}
}

// Checkout runs the full checkout: input validation, stock guard, pricing,
// discount evaluation, and the transactional commit. All validation happens
// before the first mutating statement; the commit itself re-checks stock and
// discount usage conditionally so concurrent checkouts cannot oversell or
// overrun a usage limit.
func (s *CheckoutService) Checkout(ctx context.Context, req CheckoutRequest) (*Order, error) {
	co := &Checkout{ShippingMethodID: req.ShippingMethodID}

	if req.CustomerID == nil {
		if err := s.prepareGuest(ctx, req, co); err != nil {
			return nil, err
		}
	} else {
		if err := s.prepareAuthenticated(ctx, req, co); err != nil {
			return nil, err
		}
	}

	method, err := s.shipping.GetActive(ctx, req.ShippingMethodID)
	if err != nil {
		return nil, err
	}
	co.ShippingCost = method.Price

	if err := s.priceLines(ctx, co); err != nil {
		return nil, err
	}

	if req.DiscountCode != "" {
		code, err := s.discounts.FindByCode(ctx, req.DiscountCode)
		if err != nil {
			return nil, err
		}
		result, err := discount.Evaluate(code, co.Subtotal, s.now())
		if err != nil {
			return nil, err
		}
		co.Discount = result
	}

	// Total = subtotal - discount (floored at zero) + shipping.
	total := co.Subtotal.Sub(co.DiscountAmount())
	if total.IsNegative() {
		total = decimal.Zero
	}
	co.Total = total.Add(co.ShippingCost).Round(2)

	o, err := s.orders.CreateFromCheckout(ctx, co)
	if err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	// Confirmation email is best effort: checkout has already succeeded.
	if err := s.notifier.OrderConfirmation(ctx, o); err != nil {
		zctx.From(ctx).Warn("Order confirmation email failed",
			zap.Int64("order_id", o.ID), zap.Error(err))
	}

	return o, nil
}

func (s *CheckoutService) prepareGuest(ctx context.Context, req CheckoutRequest, co *Checkout) error {
	g := req.Guest
	if g == nil || g.Email == "" || g.Name == "" {
		return ErrGuestContactRequired
	}
	if !g.Address.Complete() {
		return ErrGuestAddressRequired
	}
	if len(req.Lines) == 0 {
		return ErrGuestItemsRequired
	}
	if g.Address.Country == "" {
		g.Address.Country = "Ghana"
	}
	co.Buyer = Buyer{Guest: g}
	co.Lines = req.Lines
	return nil
}

func (s *CheckoutService) prepareAuthenticated(ctx context.Context, req CheckoutRequest, co *Checkout) error {
	if req.AddressID == 0 || req.ShippingMethodID == 0 {
		return ErrAddressRequired
	}

	cust, err := s.customers.GetByID(ctx, *req.CustomerID)
	if err != nil {
		return err
	}
	addr, err := s.customers.GetAddress(ctx, cust.ID, req.AddressID)
	if err != nil {
		return err
	}

	lines, err := s.carts.Lines(ctx, cust.ID)
	if err != nil {
		return errors.Wrap(err, "load cart")
	}
	if len(lines) == 0 {
		return cart.ErrEmptyCart
	}

	co.Buyer = Buyer{Customer: &CustomerRef{ID: cust.ID, Email: cust.Email, Name: cust.FullName}}
	co.AddressID = &addr.ID
	co.ClearCartFor = &cust.ID
	co.Lines = make([]cart.Line, len(lines))
	for i, l := range lines {
		co.Lines[i] = l.Line
	}
	return nil
}

// priceLines validates quantities, guards stock all-or-nothing, and freezes
// per-line totals at current variant prices.
func (s *CheckoutService) priceLines(ctx context.Context, co *Checkout) error {
	ids := make([]int64, len(co.Lines))
	for i, l := range co.Lines {
		if l.Quantity <= 0 {
			return ErrInvalidQuantity
		}
		ids[i] = l.VariantID
	}

	fetched, err := s.variants.GetByIDs(ctx, ids)
	if err != nil {
		return errors.Wrap(err, "get variants")
	}
	byID := make(map[int64]catalog.Variant, len(fetched))
	for _, v := range fetched {
		byID[v.ID] = v
	}

	co.LineTotals = make([]decimal.Decimal, len(co.Lines))
	co.LineTitles = make([]string, len(co.Lines))
	co.Subtotal = decimal.Zero
	for i, l := range co.Lines {
		v, ok := byID[l.VariantID]
		if !ok {
			return catalog.ErrNotFound
		}
		if l.Quantity > v.Stock {
			return &catalog.InsufficientStockError{VariantID: v.ID, Available: v.Stock}
		}
		lineTotal := v.Price.Mul(decimal.NewFromInt(int64(l.Quantity))).Round(2)
		co.LineTotals[i] = lineTotal
		co.LineTitles[i] = v.ProductTitle
		co.Subtotal = co.Subtotal.Add(lineTotal)
	}
	co.Subtotal = co.Subtotal.Round(2)
	return nil
}
