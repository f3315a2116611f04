package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/Bruce101github/crochethairbygg/internal/domain/returns"
)

const (
	returnColumns = `id, order_id, order_item_id, reason, reason_description,
		requested_refund_amount, approved_refund_amount, status, admin_notes,
		refund_reference, requested_at, processed_at`

	createReturnSQL = `INSERT INTO return_requests
		(order_id, order_item_id, reason, reason_description, requested_refund_amount)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, status, requested_at`

	getReturnByIDSQL = `SELECT ` + returnColumns + `
		FROM return_requests WHERE id = $1`

	listReturnsByOwnerSQL = `SELECT r.id, r.order_id, r.order_item_id, r.reason,
		r.reason_description, r.requested_refund_amount, r.approved_refund_amount,
		r.status, r.admin_notes, r.refund_reference, r.requested_at, r.processed_at
		FROM return_requests r
		JOIN orders o ON o.id = r.order_id
		WHERE o.customer_id = $1
		ORDER BY r.requested_at DESC`

	listAllReturnsSQL = `SELECT ` + returnColumns + `
		FROM return_requests ORDER BY requested_at DESC`

	hasPendingItemReturnSQL = `SELECT EXISTS (SELECT 1 FROM return_requests
		WHERE order_id = $1 AND order_item_id = $2 AND status = 'pending')`

	hasPendingOrderReturnSQL = `SELECT EXISTS (SELECT 1 FROM return_requests
		WHERE order_id = $1 AND order_item_id IS NULL AND status = 'pending')`

	reviewReturnSQL = `UPDATE return_requests
		SET status = $2, approved_refund_amount = $3, admin_notes = $4
		WHERE id = $1`

	markReturnRefundedSQL = `UPDATE return_requests
		SET status = 'refunded', refund_reference = $2, processed_at = $3
		WHERE id = $1`
)

// uniqueViolation is the PostgreSQL error code raised when the partial
// unique indexes reject a second pending request for the same scope.
const uniqueViolation = "23505"

var _ returns.Repository = (*ReturnRepository)(nil)

// ReturnRepository implements returns.Repository backed by PostgreSQL.
type ReturnRepository struct {
	pool *pgxpool.Pool
}

// NewReturnRepository returns a ReturnRepository that uses the given pool.
func NewReturnRepository(pool *pgxpool.Pool) *ReturnRepository {
	return &ReturnRepository{pool: pool}
}

// Create inserts a new pending request. The partial unique indexes close the
// check-then-insert race, so a concurrent duplicate surfaces here as
// returns.ErrPendingExists rather than a second pending row.
func (r *ReturnRepository) Create(ctx context.Context, req *returns.Request) error {
	err := r.pool.QueryRow(ctx, createReturnSQL,
		req.OrderID, req.OrderItemID, string(req.Reason),
		req.ReasonDescription, req.RequestedRefundAmount,
	).Scan(&req.ID, &req.Status, &req.RequestedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return returns.ErrPendingExists
		}
		return fmt.Errorf("creating return request: %w", err)
	}
	return nil
}

// GetByID fetches a request. Returns returns.ErrNotFound for unknown ids.
func (r *ReturnRepository) GetByID(ctx context.Context, id int64) (*returns.Request, error) {
	rows, err := r.pool.Query(ctx, getReturnByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting return request %d: %w", id, err)
	}

	req, err := pgx.CollectExactlyOneRow(rows, scanReturn)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, returns.ErrNotFound
		}
		return nil, fmt.Errorf("getting return request %d: %w", id, err)
	}
	return &req, nil
}

// ListByOrderOwner returns the requests against orders owned by the
// customer, newest first.
func (r *ReturnRepository) ListByOrderOwner(ctx context.Context, customerID int64) ([]returns.Request, error) {
	rows, err := r.pool.Query(ctx, listReturnsByOwnerSQL, customerID)
	if err != nil {
		return nil, fmt.Errorf("listing return requests for customer %d: %w", customerID, err)
	}

	reqs, err := pgx.CollectRows(rows, scanReturn)
	if err != nil {
		return nil, fmt.Errorf("listing return requests for customer %d: %w", customerID, err)
	}
	return reqs, nil
}

// ListAll returns every request, newest first, for the admin console.
func (r *ReturnRepository) ListAll(ctx context.Context) ([]returns.Request, error) {
	rows, err := r.pool.Query(ctx, listAllReturnsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing return requests: %w", err)
	}

	reqs, err := pgx.CollectRows(rows, scanReturn)
	if err != nil {
		return nil, fmt.Errorf("listing return requests: %w", err)
	}
	return reqs, nil
}

// HasPending reports whether a pending request exists for the given (order,
// item) scope. itemID nil checks the whole-order scope.
func (r *ReturnRepository) HasPending(ctx context.Context, orderID int64, itemID *int64) (bool, error) {
	var (
		exists bool
		err    error
	)
	if itemID == nil {
		err = r.pool.QueryRow(ctx, hasPendingOrderReturnSQL, orderID).Scan(&exists)
	} else {
		err = r.pool.QueryRow(ctx, hasPendingItemReturnSQL, orderID, *itemID).Scan(&exists)
	}
	if err != nil {
		return false, fmt.Errorf("checking pending returns for order %d: %w", orderID, err)
	}
	return exists, nil
}

// Review records an approve, reject, or cancel decision.
func (r *ReturnRepository) Review(ctx context.Context, id int64, status returns.Status, approvedAmount *decimal.Decimal, adminNotes string) error {
	tag, err := r.pool.Exec(ctx, reviewReturnSQL, id, string(status), approvedAmount, adminNotes)
	if err != nil {
		return fmt.Errorf("reviewing return request %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return returns.ErrNotFound
	}
	return nil
}

// MarkRefunded records a completed gateway refund.
func (r *ReturnRepository) MarkRefunded(ctx context.Context, id int64, refundReference string, processedAt time.Time) error {
	tag, err := r.pool.Exec(ctx, markReturnRefundedSQL, id, refundReference, processedAt)
	if err != nil {
		return fmt.Errorf("marking return request %d refunded: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return returns.ErrNotFound
	}
	return nil
}

func scanReturn(row pgx.CollectableRow) (returns.Request, error) {
	var (
		req       returns.Request
		reason    string
		status    string
		refundRef *string
	)
	err := row.Scan(
		&req.ID, &req.OrderID, &req.OrderItemID, &reason, &req.ReasonDescription,
		&req.RequestedRefundAmount, &req.ApprovedRefundAmount, &status,
		&req.AdminNotes, &refundRef, &req.RequestedAt, &req.ProcessedAt,
	)
	req.Reason = returns.Reason(reason)
	req.Status = returns.Status(status)
	if refundRef != nil {
		req.RefundReference = *refundRef
	}
	return req, err
}
