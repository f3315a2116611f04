package returns

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bruce101github/crochethairbygg/internal/domain/catalog"
	"github.com/Bruce101github/crochethairbygg/internal/domain/order"
	"github.com/Bruce101github/crochethairbygg/internal/domain/payment"
)

// --- Mock implementations ---

type mockRequestRepo struct {
	byID    map[int64]*Request
	pending map[int64]bool
	nextID  int64
}

func newRequestRepo() *mockRequestRepo {
	return &mockRequestRepo{
		byID:    make(map[int64]*Request),
		pending: make(map[int64]bool),
		nextID:  1,
	}
}

func (m *mockRequestRepo) Create(_ context.Context, r *Request) error {
	r.ID = m.nextID
	m.nextID++
	cp := *r
	m.byID[r.ID] = &cp
	m.pending[r.OrderID] = true
	return nil
}

func (m *mockRequestRepo) GetByID(_ context.Context, id int64) (*Request, error) {
	r, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *mockRequestRepo) ListByOrderOwner(_ context.Context, _ int64) ([]Request, error) {
	return nil, nil
}

func (m *mockRequestRepo) ListAll(_ context.Context) ([]Request, error) {
	return nil, nil
}

func (m *mockRequestRepo) HasPending(_ context.Context, orderID int64, _ *int64) (bool, error) {
	return m.pending[orderID], nil
}

func (m *mockRequestRepo) Review(_ context.Context, id int64, status Status, approvedAmount *decimal.Decimal, adminNotes string) error {
	r, ok := m.byID[id]
	if !ok {
		return ErrNotFound
	}
	r.Status = status
	if approvedAmount != nil {
		r.ApprovedRefundAmount = approvedAmount
	}
	r.AdminNotes = adminNotes
	return nil
}

func (m *mockRequestRepo) MarkRefunded(_ context.Context, id int64, refundReference string, processedAt time.Time) error {
	r, ok := m.byID[id]
	if !ok {
		return ErrNotFound
	}
	r.Status = StatusRefunded
	r.RefundReference = refundReference
	r.ProcessedAt = &processedAt
	return nil
}

type mockOrderRepo struct {
	orders map[int64]*order.Order
}

func (m *mockOrderRepo) CreateFromCheckout(_ context.Context, _ *order.Checkout) (*order.Order, error) {
	return nil, nil
}

func (m *mockOrderRepo) GetByID(_ context.Context, id int64) (*order.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	return o, nil
}

func (m *mockOrderRepo) GetGuestOrder(_ context.Context, id int64, _ string) (*order.Order, error) {
	return m.GetByID(context.Background(), id)
}

func (m *mockOrderRepo) ListByCustomer(_ context.Context, _ int64) ([]order.Order, error) {
	return nil, nil
}

func (m *mockOrderRepo) MarkPaid(_ context.Context, _ int64, _ string) (bool, error) {
	return false, nil
}

func (m *mockOrderRepo) UpdateStatus(_ context.Context, _ int64, _ order.Status, _ *string) error {
	return nil
}

type mockVariantRepo struct {
	restored map[int64]int
}

func (m *mockVariantRepo) GetByID(_ context.Context, _ int64) (*catalog.Variant, error) {
	return nil, catalog.ErrNotFound
}

func (m *mockVariantRepo) GetByIDs(_ context.Context, _ []int64) ([]catalog.Variant, error) {
	return nil, nil
}

func (m *mockVariantRepo) RestoreStock(_ context.Context, id int64, qty int) error {
	if m.restored == nil {
		m.restored = make(map[int64]int)
	}
	m.restored[id] += qty
	return nil
}

type mockGateway struct {
	refundRef  string
	refundErr  error
	lastRefund *payment.RefundParams
}

func (m *mockGateway) Initialize(_ context.Context, _ payment.InitializeParams) (*payment.Session, error) {
	return nil, nil
}

func (m *mockGateway) VerifyCharge(_ context.Context, _ string) (bool, error) {
	return false, nil
}

func (m *mockGateway) Refund(_ context.Context, p payment.RefundParams) (string, error) {
	m.lastRefund = &p
	return m.refundRef, m.refundErr
}

// --- Helpers ---

func paidOrder(id, customerID int64) *order.Order {
	variantID := int64(11)
	return &order.Order{
		ID: id,
		Buyer: order.Buyer{
			Customer: &order.CustomerRef{ID: customerID, Email: "efua@example.com", Name: "Efua"},
		},
		Items: []order.Item{
			{ID: 101, VariantID: &variantID, ProductTitle: "Passion Twists 18in", Quantity: 2,
				ItemTotal: decimal.RequireFromString("120.00")},
		},
		Total:            decimal.RequireFromString("135.00"),
		Status:           order.StatusDelivered,
		PaymentReference: "order_5_abcd1234",
	}
}

type returnsFixture struct {
	requests *mockRequestRepo
	orders   *mockOrderRepo
	variants *mockVariantRepo
	gateway  *mockGateway
	svc      *Service
}

func newReturnsFixture(orders ...*order.Order) *returnsFixture {
	f := &returnsFixture{
		requests: newRequestRepo(),
		orders:   &mockOrderRepo{orders: make(map[int64]*order.Order)},
		variants: &mockVariantRepo{},
		gateway:  &mockGateway{refundRef: "rfnd_001"},
	}
	for _, o := range orders {
		f.orders.orders[o.ID] = o
	}
	f.svc = NewService(f.requests, f.orders, f.variants, f.gateway)
	return f
}

func amount(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

// --- Tests ---

func TestCreate(t *testing.T) {
	f := newReturnsFixture(paidOrder(5, 7))

	r, err := f.svc.Create(context.Background(), CreateRequest{
		CustomerID:        7,
		OrderID:           5,
		Reason:            ReasonDefective,
		ReasonDescription: "Strands shed badly after one wear",
	})

	require.NoError(t, err)
	assert.Equal(t, StatusPending, r.Status)
	assert.NotZero(t, r.ID)
	assert.False(t, r.RequestedAt.IsZero())
}

func TestCreate_NotOwner(t *testing.T) {
	f := newReturnsFixture(paidOrder(5, 7))

	_, err := f.svc.Create(context.Background(), CreateRequest{
		CustomerID: 99,
		OrderID:    5,
		Reason:     ReasonDefective,
	})

	require.ErrorIs(t, err, ErrNotOwner)
}

func TestCreate_GuestOrderNotOwned(t *testing.T) {
	f := newReturnsFixture(&order.Order{
		ID:     5,
		Buyer:  order.Buyer{Guest: &order.GuestDetails{Email: "ama@example.com", Name: "Ama"}},
		Status: order.StatusDelivered,
	})

	_, err := f.svc.Create(context.Background(), CreateRequest{
		CustomerID: 7,
		OrderID:    5,
		Reason:     ReasonDefective,
	})

	require.ErrorIs(t, err, ErrNotOwner)
}

func TestCreate_OrderNotEligible(t *testing.T) {
	o := paidOrder(5, 7)
	o.Status = order.StatusPending
	f := newReturnsFixture(o)

	_, err := f.svc.Create(context.Background(), CreateRequest{
		CustomerID: 7,
		OrderID:    5,
		Reason:     ReasonDefective,
	})

	require.ErrorIs(t, err, ErrOrderNotEligible)
}

func TestCreate_InvalidReason(t *testing.T) {
	f := newReturnsFixture(paidOrder(5, 7))

	_, err := f.svc.Create(context.Background(), CreateRequest{
		CustomerID: 7,
		OrderID:    5,
		Reason:     Reason("because"),
	})

	require.ErrorIs(t, err, ErrInvalidReason)
}

func TestCreate_ItemNotInOrder(t *testing.T) {
	f := newReturnsFixture(paidOrder(5, 7))
	itemID := int64(999)

	_, err := f.svc.Create(context.Background(), CreateRequest{
		CustomerID:  7,
		OrderID:     5,
		OrderItemID: &itemID,
		Reason:      ReasonWrongItem,
	})

	require.ErrorIs(t, err, ErrItemNotInOrder)
}

func TestCreate_DuplicatePending(t *testing.T) {
	f := newReturnsFixture(paidOrder(5, 7))

	_, err := f.svc.Create(context.Background(), CreateRequest{
		CustomerID: 7, OrderID: 5, Reason: ReasonDefective,
	})
	require.NoError(t, err)

	_, err = f.svc.Create(context.Background(), CreateRequest{
		CustomerID: 7, OrderID: 5, Reason: ReasonChangedMind,
	})
	require.ErrorIs(t, err, ErrPendingExists)
}

func TestReview_Approve(t *testing.T) {
	f := newReturnsFixture(paidOrder(5, 7))
	r, err := f.svc.Create(context.Background(), CreateRequest{
		CustomerID: 7, OrderID: 5, Reason: ReasonDefective,
	})
	require.NoError(t, err)

	reviewed, err := f.svc.Review(context.Background(), r.ID, StatusApproved, amount("120.00"), "verified photos")

	require.NoError(t, err)
	assert.Equal(t, StatusApproved, reviewed.Status)
	assert.True(t, amount("120.00").Equal(*reviewed.ApprovedRefundAmount))
	assert.Equal(t, "verified photos", reviewed.AdminNotes)
}

func TestReview_ApproveWithoutAmount(t *testing.T) {
	f := newReturnsFixture(paidOrder(5, 7))
	r, err := f.svc.Create(context.Background(), CreateRequest{
		CustomerID: 7, OrderID: 5, Reason: ReasonDefective,
	})
	require.NoError(t, err)

	_, err = f.svc.Review(context.Background(), r.ID, StatusApproved, nil, "")

	require.ErrorIs(t, err, ErrNoApprovedAmount)
}

func TestReview_RejectThenReview(t *testing.T) {
	f := newReturnsFixture(paidOrder(5, 7))
	r, err := f.svc.Create(context.Background(), CreateRequest{
		CustomerID: 7, OrderID: 5, Reason: ReasonDefective,
	})
	require.NoError(t, err)

	_, err = f.svc.Review(context.Background(), r.ID, StatusRejected, nil, "outside return window")
	require.NoError(t, err)

	_, err = f.svc.Review(context.Background(), r.ID, StatusApproved, amount("10.00"), "")
	require.ErrorIs(t, err, ErrNotReviewable)
}

func TestReview_UnsupportedStatus(t *testing.T) {
	f := newReturnsFixture(paidOrder(5, 7))
	r, err := f.svc.Create(context.Background(), CreateRequest{
		CustomerID: 7, OrderID: 5, Reason: ReasonDefective,
	})
	require.NoError(t, err)

	_, err = f.svc.Review(context.Background(), r.ID, StatusRefunded, nil, "")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported review status")
}

func TestProcessRefund_WholeOrder(t *testing.T) {
	f := newReturnsFixture(paidOrder(5, 7))
	r, err := f.svc.Create(context.Background(), CreateRequest{
		CustomerID: 7, OrderID: 5, Reason: ReasonDefective,
	})
	require.NoError(t, err)
	_, err = f.svc.Review(context.Background(), r.ID, StatusApproved, amount("135.00"), "")
	require.NoError(t, err)

	refunded, err := f.svc.ProcessRefund(context.Background(), r.ID)

	require.NoError(t, err)
	assert.Equal(t, StatusRefunded, refunded.Status)
	assert.Equal(t, "rfnd_001", refunded.RefundReference)
	require.NotNil(t, refunded.ProcessedAt)
	require.NotNil(t, f.gateway.lastRefund)
	assert.Equal(t, "order_5_abcd1234", f.gateway.lastRefund.TransactionReference)
	assert.Equal(t, int64(13500), f.gateway.lastRefund.AmountMinor)
	assert.Empty(t, f.variants.restored, "whole-order returns do not touch stock")
}

func TestProcessRefund_ItemScopeRestoresStock(t *testing.T) {
	f := newReturnsFixture(paidOrder(5, 7))
	itemID := int64(101)
	r, err := f.svc.Create(context.Background(), CreateRequest{
		CustomerID: 7, OrderID: 5, OrderItemID: &itemID, Reason: ReasonDefective,
	})
	require.NoError(t, err)
	_, err = f.svc.Review(context.Background(), r.ID, StatusApproved, amount("120.00"), "")
	require.NoError(t, err)

	_, err = f.svc.ProcessRefund(context.Background(), r.ID)

	require.NoError(t, err)
	assert.Equal(t, 2, f.variants.restored[11], "returned quantity goes back to stock")
}

func TestProcessRefund_NotApproved(t *testing.T) {
	f := newReturnsFixture(paidOrder(5, 7))
	r, err := f.svc.Create(context.Background(), CreateRequest{
		CustomerID: 7, OrderID: 5, Reason: ReasonDefective,
	})
	require.NoError(t, err)

	_, err = f.svc.ProcessRefund(context.Background(), r.ID)

	require.ErrorIs(t, err, ErrNotApproved)
}

func TestProcessRefund_GatewayFailureKeepsApproved(t *testing.T) {
	f := newReturnsFixture(paidOrder(5, 7))
	f.gateway.refundErr = &payment.GatewayError{Op: "/refund", Message: "status 503"}
	r, err := f.svc.Create(context.Background(), CreateRequest{
		CustomerID: 7, OrderID: 5, Reason: ReasonDefective,
	})
	require.NoError(t, err)
	_, err = f.svc.Review(context.Background(), r.ID, StatusApproved, amount("135.00"), "")
	require.NoError(t, err)

	_, err = f.svc.ProcessRefund(context.Background(), r.ID)

	var gerr *payment.GatewayError
	require.ErrorAs(t, err, &gerr)

	stored, err := f.requests.GetByID(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, stored.Status, "failed refunds stay retryable")
	assert.Empty(t, f.variants.restored)
}

func TestProcessRefund_NotFound(t *testing.T) {
	f := newReturnsFixture()

	_, err := f.svc.ProcessRefund(context.Background(), 42)

	require.ErrorIs(t, err, ErrNotFound)
}
