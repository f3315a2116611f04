// Package returns implements the post-purchase return and refund workflow:
// request creation, admin review, and gateway refund processing.
package returns

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Status is a return request's state. Pending requests move to approved or
// rejected under admin review; approved requests become refunded once the
// gateway refund succeeds. Any non-terminal request can be cancelled.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusRefunded  Status = "refunded"
	StatusCancelled Status = "cancelled"
)

// Reason enumerates why a buyer wants to return an item.
type Reason string

const (
	ReasonDefective      Reason = "defective"
	ReasonWrongItem      Reason = "wrong_item"
	ReasonNotAsDescribed Reason = "not_as_described"
	ReasonChangedMind    Reason = "changed_mind"
	ReasonSizeIssue      Reason = "size_issue"
	ReasonQualityIssue   Reason = "quality_issue"
	ReasonOther          Reason = "other"
)

// Valid reports whether r is a known return reason.
func (r Reason) Valid() bool {
	switch r {
	case ReasonDefective, ReasonWrongItem, ReasonNotAsDescribed,
		ReasonChangedMind, ReasonSizeIssue, ReasonQualityIssue, ReasonOther:
		return true
	}
	return false
}

// Validation errors for the workflow.
var (
	ErrNotFound          = errors.New("return request not found")
	ErrNotOwner          = errors.New("you can only create return requests for your own orders")
	ErrOrderNotEligible  = errors.New("only paid or delivered orders can be returned")
	ErrItemNotInOrder    = errors.New("order item must belong to the specified order")
	ErrPendingExists     = errors.New("a pending return request already exists for this scope")
	ErrInvalidReason     = errors.New("unknown return reason")
	ErrNotApproved       = errors.New("return request must be approved before processing a refund")
	ErrNoApprovedAmount  = errors.New("approved refund amount is required before processing a refund")
	ErrNotReviewable     = errors.New("only pending return requests can be reviewed")
	ErrAlreadyFinal      = errors.New("return request is already in a terminal state")
)

// Request is a return request against an order, optionally scoped to a
// single order item (nil = whole-order return).
type Request struct {
	ID                    int64
	OrderID               int64
	OrderItemID           *int64
	Reason                Reason
	ReasonDescription     string
	RequestedRefundAmount *decimal.Decimal
	ApprovedRefundAmount  *decimal.Decimal
	Status                Status
	AdminNotes            string
	// RefundReference is the gateway's refund handle, populated only after
	// a successful refund.
	RefundReference string
	RequestedAt     time.Time
	ProcessedAt     *time.Time
}

// Repository defines persistence operations for return requests.
type Repository interface {
	Create(ctx context.Context, r *Request) error
	GetByID(ctx context.Context, id int64) (*Request, error)
	ListByOrderOwner(ctx context.Context, customerID int64) ([]Request, error)
	ListAll(ctx context.Context) ([]Request, error)
	// HasPending reports whether a pending request exists for the same
	// (order, item) scope. itemID nil means the whole-order scope.
	HasPending(ctx context.Context, orderID int64, itemID *int64) (bool, error)
	// Review records an approve/reject/cancel decision with optional
	// approved amount and admin notes.
	Review(ctx context.Context, id int64, status Status, approvedAmount *decimal.Decimal, adminNotes string) error
	// MarkRefunded records a successful refund: terminal status, gateway
	// reference, and the processing timestamp.
	MarkRefunded(ctx context.Context, id int64, refundReference string, processedAt time.Time) error
}
