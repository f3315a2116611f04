// Package payment orchestrates hosted payment sessions and the settlement
// of asynchronous charge confirmations against orders.
package payment

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Bruce101github/crochethairbygg/internal/domain/order"
)

var (
	// ErrAlreadyPaid is returned when a payment session is requested for a
	// paid order.
	ErrAlreadyPaid = errors.New("this order has already been paid")
	// ErrInvalidAmount is returned when the order total is not positive.
	ErrInvalidAmount = errors.New("invalid order amount")
	// ErrUnknownReference is returned for references that do not follow the
	// order_<id>_<suffix> format.
	ErrUnknownReference = errors.New("unrecognized payment reference")
)

// GatewayError wraps a failure reported by (or while reaching) the external
// payment gateway.
type GatewayError struct {
	Op      string
	Message string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("payment gateway %s failed: %s", e.Op, e.Message)
}

// InitializeParams is the input for creating a hosted payment session.
type InitializeParams struct {
	Email       string
	AmountMinor int64
	Reference   string
	Channel     string
}

// Session is the gateway's hosted-payment handle returned to the client.
type Session struct {
	AuthorizationURL string
	AccessCode       string
	Reference        string
	AmountMinor      int64
	Email            string
}

// RefundParams is the input for refunding a settled transaction.
type RefundParams struct {
	TransactionReference string
	AmountMinor          int64
	CustomerNote         string
	MerchantNote         string
}

// Gateway abstracts the external payment provider. All calls are subject to
// the client's request timeout; timeouts surface as *GatewayError, never as
// success.
type Gateway interface {
	Initialize(ctx context.Context, p InitializeParams) (*Session, error)
	// VerifyCharge confirms server-to-server that a charge with the given
	// reference genuinely succeeded.
	VerifyCharge(ctx context.Context, reference string) (bool, error)
	// Refund issues a refund and returns the gateway's refund reference.
	Refund(ctx context.Context, p RefundParams) (string, error)
}

// MinorUnits converts a major-unit amount to integer minor currency units
// (pesewas), rounding to the nearest unit.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

// BuildReference generates a fresh payment reference for an order attempt.
// Each attempt gets a new random suffix: an earlier session with the old
// reference may still be live at the gateway.
func BuildReference(orderID int64) string {
	return fmt.Sprintf("order_%d_%s", orderID, uuid.NewString()[:8])
}

// ParseReference extracts the order id from an order_<id>_<suffix> reference.
func ParseReference(ref string) (int64, error) {
	parts := strings.Split(ref, "_")
	if len(parts) < 2 || parts[0] != "order" {
		return 0, ErrUnknownReference
	}
	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, ErrUnknownReference
	}
	return id, nil
}

// Service ties the gateway to the order lifecycle.
type Service struct {
	orders   order.Repository
	gateway  Gateway
	notifier order.Notifier
}

// NewService creates a payment Service.
func NewService(orders order.Repository, gateway Gateway, notifier order.Notifier) *Service {
	return &Service{orders: orders, gateway: gateway, notifier: notifier}
}

// Initialize opens a hosted payment session for the order. No order state
// changes here: the order stays pending until a charge is verified.
func (s *Service) Initialize(ctx context.Context, o *order.Order, channel string) (*Session, error) {
	if o.Status == order.StatusPaid {
		return nil, ErrAlreadyPaid
	}
	if !o.Total.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if channel == "" {
		channel = "card"
	}

	sess, err := s.gateway.Initialize(ctx, InitializeParams{
		Email:       o.Buyer.Email(),
		AmountMinor: MinorUnits(o.Total),
		Reference:   BuildReference(o.ID),
		Channel:     channel,
	})
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// SettleCharge handles a successful-charge notification (webhook or client
// poll): it re-verifies the charge with the gateway, then idempotently moves
// the order to paid. Replays and races both collapse into the no-op branch.
// It reports whether this call performed the transition.
func (s *Service) SettleCharge(ctx context.Context, reference string) (bool, error) {
	orderID, err := ParseReference(reference)
	if err != nil {
		return false, err
	}

	// Never trust the notification payload alone.
	ok, err := s.gateway.VerifyCharge(ctx, reference)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	transitioned, err := s.orders.MarkPaid(ctx, orderID, reference)
	if err != nil {
		return false, err
	}
	if !transitioned {
		return false, nil
	}

	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return true, errors.Wrap(err, "reload paid order")
	}
	// Status email only on the first successful settlement.
	if err := s.notifier.OrderStatusUpdate(ctx, o); err != nil {
		zctx.From(ctx).Warn("Payment status email failed",
			zap.Int64("order_id", o.ID), zap.Error(err))
	}
	return true, nil
}
