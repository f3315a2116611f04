package returns

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/Bruce101github/crochethairbygg/internal/domain/catalog"
	"github.com/Bruce101github/crochethairbygg/internal/domain/order"
	"github.com/Bruce101github/crochethairbygg/internal/domain/payment"
)

// CreateRequest is the input for opening a return request.
type CreateRequest struct {
	CustomerID            int64
	OrderID               int64
	OrderItemID           *int64
	Reason                Reason
	ReasonDescription     string
	RequestedRefundAmount *decimal.Decimal
}

// Service runs the two-phase return workflow: request creation by the buyer,
// then admin review and refund processing.
type Service struct {
	requests Repository
	orders   order.Repository
	variants catalog.Repository
	gateway  payment.Gateway
	now      func() time.Time
}

// NewService creates a returns Service.
func NewService(requests Repository, orders order.Repository, variants catalog.Repository, gateway payment.Gateway) *Service {
	return &Service{
		requests: requests,
		orders:   orders,
		variants: variants,
		gateway:  gateway,
		now:      time.Now,
	}
}

// Create validates and persists a new return request. Preconditions, checked
// in order: the requester owns the order, the order is in a returnable
// status, a specified item belongs to the order, and no pending request
// exists for the same scope.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Request, error) {
	if !req.Reason.Valid() {
		return nil, ErrInvalidReason
	}

	o, err := s.orders.GetByID(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	if o.Buyer.Customer == nil || o.Buyer.Customer.ID != req.CustomerID {
		return nil, ErrNotOwner
	}
	if !o.Status.Returnable() {
		return nil, errors.Wrapf(ErrOrderNotEligible, "current status: %s", o.Status)
	}

	if req.OrderItemID != nil {
		if !orderHasItem(o, *req.OrderItemID) {
			return nil, ErrItemNotInOrder
		}
	}

	pending, err := s.requests.HasPending(ctx, req.OrderID, req.OrderItemID)
	if err != nil {
		return nil, errors.Wrap(err, "check pending returns")
	}
	if pending {
		return nil, ErrPendingExists
	}

	r := &Request{
		OrderID:               req.OrderID,
		OrderItemID:           req.OrderItemID,
		Reason:                req.Reason,
		ReasonDescription:     req.ReasonDescription,
		RequestedRefundAmount: req.RequestedRefundAmount,
		Status:                StatusPending,
		RequestedAt:           s.now(),
	}
	if err := s.requests.Create(ctx, r); err != nil {
		return nil, errors.Wrap(err, "create return request")
	}
	return r, nil
}

// ListByOwner returns the requests a customer opened against their orders.
func (s *Service) ListByOwner(ctx context.Context, customerID int64) ([]Request, error) {
	return s.requests.ListByOrderOwner(ctx, customerID)
}

// ListAll returns every request for the admin console.
func (s *Service) ListAll(ctx context.Context) ([]Request, error) {
	return s.requests.ListAll(ctx)
}

// Review applies an admin decision to a pending request. Approval requires
// an approved refund amount; cancellation is allowed from any non-terminal
// state.
func (s *Service) Review(ctx context.Context, id int64, status Status, approvedAmount *decimal.Decimal, adminNotes string) (*Request, error) {
	r, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	switch status {
	case StatusApproved, StatusRejected:
		if r.Status != StatusPending {
			return nil, ErrNotReviewable
		}
		if status == StatusApproved && approvedAmount == nil {
			return nil, ErrNoApprovedAmount
		}
	case StatusCancelled:
		if r.Status == StatusRefunded || r.Status == StatusCancelled {
			return nil, ErrAlreadyFinal
		}
	default:
		return nil, errors.Errorf("unsupported review status %q", status)
	}

	if err := s.requests.Review(ctx, id, status, approvedAmount, adminNotes); err != nil {
		return nil, errors.Wrap(err, "review return request")
	}

	r.Status = status
	if approvedAmount != nil {
		r.ApprovedRefundAmount = approvedAmount
	}
	if adminNotes != "" {
		r.AdminNotes = adminNotes
	}
	return r, nil
}

// ProcessRefund issues the gateway refund for an approved request. On
// gateway success the request becomes refunded and, for item-scoped returns,
// the item's quantity goes back to the variant's stock. On gateway failure
// the request stays approved so the admin can retry.
func (s *Service) ProcessRefund(ctx context.Context, id int64) (*Request, error) {
	r, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.Status != StatusApproved {
		return nil, errors.Wrapf(ErrNotApproved, "status is %q", r.Status)
	}
	if r.ApprovedRefundAmount == nil {
		return nil, ErrNoApprovedAmount
	}

	o, err := s.orders.GetByID(ctx, r.OrderID)
	if err != nil {
		return nil, err
	}

	refundRef, err := s.gateway.Refund(ctx, payment.RefundParams{
		TransactionReference: o.PaymentReference,
		AmountMinor:          payment.MinorUnits(*r.ApprovedRefundAmount),
		CustomerNote:         fmt.Sprintf("Refund for return request #%d", r.ID),
		MerchantNote:         fmt.Sprintf("Return request #%d - Order #%d", r.ID, o.ID),
	})
	if err != nil {
		// Request stays approved; the gateway failure is surfaced for retry.
		return nil, err
	}

	processedAt := s.now()
	if err := s.requests.MarkRefunded(ctx, r.ID, refundRef, processedAt); err != nil {
		return nil, errors.Wrap(err, "mark return refunded")
	}
	r.Status = StatusRefunded
	r.RefundReference = refundRef
	r.ProcessedAt = &processedAt

	// Item-scoped returns put the returned quantity back in stock.
	if r.OrderItemID != nil {
		if item := findItem(o, *r.OrderItemID); item != nil && item.VariantID != nil {
			if err := s.variants.RestoreStock(ctx, *item.VariantID, item.Quantity); err != nil {
				return nil, errors.Wrap(err, "restore stock")
			}
		}
	}
	return r, nil
}

func orderHasItem(o *order.Order, itemID int64) bool {
	return findItem(o, itemID) != nil
}

func findItem(o *order.Order, itemID int64) *order.Item {
	for i := range o.Items {
		if o.Items[i].ID == itemID {
			return &o.Items[i]
		}
	}
	return nil
}
