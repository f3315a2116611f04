package order

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// InvalidTransitionError indicates a disallowed status change.
type InvalidTransitionError struct {
	From, To Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot change order status from %q to %q", e.From, e.To)
}

// StatusService applies admin-driven status and tracking updates and sends
// the status-update notification when something actually changed.
type StatusService struct {
	orders   Repository
	notifier Notifier
}

// NewStatusService creates a StatusService.
func NewStatusService(orders Repository, notifier Notifier) *StatusService {
	return &StatusService{orders: orders, notifier: notifier}
}

// Update validates and applies a status and/or tracking number change.
// Re-applying the current status is a no-op rather than an error.
func (s *StatusService) Update(ctx context.Context, orderID int64, status Status, trackingNumber *string) (*Order, error) {
	if !status.Valid() {
		return nil, errors.Errorf("unknown order status %q", status)
	}

	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(o.Status, status) {
		return nil, &InvalidTransitionError{From: o.Status, To: status}
	}

	changed := o.Status != status ||
		(trackingNumber != nil && *trackingNumber != o.TrackingNumber)
	if !changed {
		return o, nil
	}

	if err := s.orders.UpdateStatus(ctx, orderID, status, trackingNumber); err != nil {
		return nil, errors.Wrap(err, "update order status")
	}

	o.Status = status
	if trackingNumber != nil {
		o.TrackingNumber = *trackingNumber
	}

	if err := s.notifier.OrderStatusUpdate(ctx, o); err != nil {
		zctx.From(ctx).Warn("Order status email failed",
			zap.Int64("order_id", o.ID), zap.Error(err))
	}
	return o, nil
}
