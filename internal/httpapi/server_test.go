package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bruce101github/crochethairbygg/internal/domain/analytics"
	"github.com/Bruce101github/crochethairbygg/internal/domain/auth"
	"github.com/Bruce101github/crochethairbygg/internal/domain/cart"
	"github.com/Bruce101github/crochethairbygg/internal/domain/catalog"
	"github.com/Bruce101github/crochethairbygg/internal/domain/customer"
	"github.com/Bruce101github/crochethairbygg/internal/domain/discount"
	"github.com/Bruce101github/crochethairbygg/internal/domain/order"
	"github.com/Bruce101github/crochethairbygg/internal/domain/payment"
	"github.com/Bruce101github/crochethairbygg/internal/domain/returns"
	"github.com/Bruce101github/crochethairbygg/internal/domain/shipping"
	"github.com/Bruce101github/crochethairbygg/internal/paystack"
)

const (
	testPepper      = "test-pepper"
	webhookSecret   = "sk_test_webhook"
	customerAPIKey  = "cust-key"
	adminAPIKey     = "admin-key"
	testCustomerID  = int64(7)
)

// --- Mock implementations ---

type mockKeyRepo struct {
	byHash map[string]*auth.Identity
}

func (m *mockKeyRepo) FindByHash(_ context.Context, hash string) (*auth.Identity, error) {
	id, ok := m.byHash[hash]
	if !ok {
		return nil, auth.ErrUnauthorized
	}
	return id, nil
}

type mockVariantRepo struct {
	byID map[int64]catalog.Variant
}

func (m *mockVariantRepo) GetByID(_ context.Context, id int64) (*catalog.Variant, error) {
	v, ok := m.byID[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return &v, nil
}

func (m *mockVariantRepo) GetByIDs(_ context.Context, ids []int64) ([]catalog.Variant, error) {
	var out []catalog.Variant
	for _, id := range ids {
		if v, ok := m.byID[id]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}

func (m *mockVariantRepo) RestoreStock(_ context.Context, _ int64, _ int) error { return nil }

type mockCartRepo struct {
	lines   map[int64][]cart.DetailedLine
	cleared []int64
}

func (m *mockCartRepo) Lines(_ context.Context, customerID int64) ([]cart.DetailedLine, error) {
	return m.lines[customerID], nil
}

func (m *mockCartRepo) SetLine(_ context.Context, customerID int64, line cart.Line) error {
	for i, l := range m.lines[customerID] {
		if l.VariantID == line.VariantID {
			m.lines[customerID][i].Quantity = line.Quantity
			return nil
		}
	}
	m.lines[customerID] = append(m.lines[customerID], cart.DetailedLine{Line: line})
	return nil
}

func (m *mockCartRepo) RemoveLine(_ context.Context, customerID, variantID int64) error {
	kept := m.lines[customerID][:0]
	for _, l := range m.lines[customerID] {
		if l.VariantID != variantID {
			kept = append(kept, l)
		}
	}
	m.lines[customerID] = kept
	return nil
}

func (m *mockCartRepo) Clear(_ context.Context, customerID int64) error {
	m.cleared = append(m.cleared, customerID)
	delete(m.lines, customerID)
	return nil
}

type mockCustomerRepo struct {
	customers map[int64]customer.Customer
	addresses map[int64]customer.Address
}

func (m *mockCustomerRepo) GetByID(_ context.Context, id int64) (*customer.Customer, error) {
	c, ok := m.customers[id]
	if !ok {
		return nil, customer.ErrNotFound
	}
	return &c, nil
}

func (m *mockCustomerRepo) GetAddress(_ context.Context, customerID, addressID int64) (*customer.Address, error) {
	a, ok := m.addresses[addressID]
	if !ok || a.CustomerID != customerID {
		return nil, customer.ErrAddressNotFound
	}
	return &a, nil
}

func (m *mockCustomerRepo) ListAddresses(_ context.Context, customerID int64) ([]customer.Address, error) {
	var out []customer.Address
	for _, a := range m.addresses {
		if a.CustomerID == customerID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockCustomerRepo) CreateAddress(_ context.Context, a *customer.Address) error {
	a.ID = int64(len(m.addresses) + 1)
	m.addresses[a.ID] = *a
	return nil
}

type mockShippingRepo struct {
	methods map[int64]shipping.Method
}

func (m *mockShippingRepo) GetActive(_ context.Context, id int64) (*shipping.Method, error) {
	s, ok := m.methods[id]
	if !ok || !s.Active {
		return nil, shipping.ErrNotFound
	}
	return &s, nil
}

func (m *mockShippingRepo) ListActive(_ context.Context) ([]shipping.Method, error) {
	var out []shipping.Method
	for _, s := range m.methods {
		if s.Active {
			out = append(out, s)
		}
	}
	return out, nil
}

type mockDiscountRepo struct {
	byCode map[string]*discount.Code
}

func (m *mockDiscountRepo) FindByCode(_ context.Context, code string) (*discount.Code, error) {
	c, ok := m.byCode[code]
	if !ok {
		return nil, discount.ErrUnknownCode
	}
	return c, nil
}

func (m *mockDiscountRepo) List(_ context.Context) ([]discount.Code, error) { return nil, nil }

func (m *mockDiscountRepo) Create(_ context.Context, c *discount.Code) error {
	c.ID = int64(len(m.byCode) + 1)
	m.byCode[c.Code] = c
	return nil
}

func (m *mockDiscountRepo) SetActive(_ context.Context, _ int64, _ bool) error { return nil }

type mockOrderRepo struct {
	orders map[int64]*order.Order
	nextID int64
}

func (m *mockOrderRepo) CreateFromCheckout(_ context.Context, co *order.Checkout) (*order.Order, error) {
	if m.nextID == 0 {
		m.nextID = 1
	}
	o := &order.Order{
		ID:             m.nextID,
		Buyer:          co.Buyer,
		Subtotal:       co.Subtotal,
		DiscountAmount: co.DiscountAmount(),
		ShippingCost:   co.ShippingCost,
		Total:          co.Total,
		Status:         order.StatusPending,
		CreatedAt:      time.Now(),
	}
	for i, l := range co.Lines {
		vid := l.VariantID
		o.Items = append(o.Items, order.Item{
			ID:           int64(i + 1),
			VariantID:    &vid,
			ProductTitle: co.LineTitles[i],
			Quantity:     l.Quantity,
			ItemTotal:    co.LineTotals[i],
		})
	}
	m.orders[o.ID] = o
	m.nextID++
	return o, nil
}

func (m *mockOrderRepo) GetByID(_ context.Context, id int64) (*order.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	return o, nil
}

func (m *mockOrderRepo) GetGuestOrder(_ context.Context, id int64, email string) (*order.Order, error) {
	o, ok := m.orders[id]
	if !ok || !o.Buyer.IsGuest() || o.Buyer.Email() != email {
		return nil, order.ErrNotFound
	}
	return o, nil
}

func (m *mockOrderRepo) ListByCustomer(_ context.Context, customerID int64) ([]order.Order, error) {
	var out []order.Order
	for _, o := range m.orders {
		if o.Buyer.Customer != nil && o.Buyer.Customer.ID == customerID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (m *mockOrderRepo) MarkPaid(_ context.Context, id int64, paymentRef string) (bool, error) {
	o, ok := m.orders[id]
	if !ok || o.Status != order.StatusPending {
		return false, nil
	}
	o.Status = order.StatusPaid
	o.PaymentReference = paymentRef
	return true, nil
}

func (m *mockOrderRepo) UpdateStatus(_ context.Context, id int64, status order.Status, trackingNumber *string) error {
	if o, ok := m.orders[id]; ok {
		o.Status = status
		if trackingNumber != nil {
			o.TrackingNumber = *trackingNumber
		}
	}
	return nil
}

type mockGateway struct {
	verifyOK  bool
	verifyErr error
}

func (m *mockGateway) Initialize(_ context.Context, p payment.InitializeParams) (*payment.Session, error) {
	return &payment.Session{
		AuthorizationURL: "https://checkout.example.com/abc",
		AccessCode:       "abc",
		Reference:        p.Reference,
		AmountMinor:      p.AmountMinor,
		Email:            p.Email,
	}, nil
}

func (m *mockGateway) VerifyCharge(_ context.Context, _ string) (bool, error) {
	return m.verifyOK, m.verifyErr
}

func (m *mockGateway) Refund(_ context.Context, _ payment.RefundParams) (string, error) {
	return "rfnd_001", nil
}

type mockNotifier struct{}

func (mockNotifier) OrderConfirmation(_ context.Context, _ *order.Order) error { return nil }
func (mockNotifier) OrderStatusUpdate(_ context.Context, _ *order.Order) error { return nil }

type mockReturnsRepo struct {
	byID   map[int64]*returns.Request
	nextID int64
}

func (m *mockReturnsRepo) Create(_ context.Context, r *returns.Request) error {
	if m.nextID == 0 {
		m.nextID = 1
	}
	r.ID = m.nextID
	m.nextID++
	cp := *r
	m.byID[r.ID] = &cp
	return nil
}

func (m *mockReturnsRepo) GetByID(_ context.Context, id int64) (*returns.Request, error) {
	r, ok := m.byID[id]
	if !ok {
		return nil, returns.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *mockReturnsRepo) ListByOrderOwner(_ context.Context, _ int64) ([]returns.Request, error) {
	return nil, nil
}

func (m *mockReturnsRepo) ListAll(_ context.Context) ([]returns.Request, error) {
	var out []returns.Request
	for _, r := range m.byID {
		out = append(out, *r)
	}
	return out, nil
}

func (m *mockReturnsRepo) HasPending(_ context.Context, orderID int64, _ *int64) (bool, error) {
	for _, r := range m.byID {
		if r.OrderID == orderID && r.Status == returns.StatusPending {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockReturnsRepo) Review(_ context.Context, id int64, status returns.Status, approvedAmount *decimal.Decimal, adminNotes string) error {
	r, ok := m.byID[id]
	if !ok {
		return returns.ErrNotFound
	}
	r.Status = status
	if approvedAmount != nil {
		r.ApprovedRefundAmount = approvedAmount
	}
	r.AdminNotes = adminNotes
	return nil
}

func (m *mockReturnsRepo) MarkRefunded(_ context.Context, id int64, refundReference string, processedAt time.Time) error {
	r, ok := m.byID[id]
	if !ok {
		return returns.ErrNotFound
	}
	r.Status = returns.StatusRefunded
	r.RefundReference = refundReference
	r.ProcessedAt = &processedAt
	return nil
}

type mockAnalyticsRepo struct{}

func (mockAnalyticsRepo) TotalRevenue(_ context.Context) (decimal.Decimal, error) {
	return decimal.RequireFromString("1000.00"), nil
}

func (mockAnalyticsRepo) RevenueBetween(_ context.Context, _, _ time.Time) (decimal.Decimal, error) {
	return decimal.RequireFromString("400.00"), nil
}

func (mockAnalyticsRepo) OrdersCreatedSince(_ context.Context, _ time.Time) (int, error) {
	return 8, nil
}

func (mockAnalyticsRepo) DailyRevenue(_ context.Context, _ time.Time) ([]analytics.DailyRevenue, error) {
	return nil, nil
}

func (mockAnalyticsRepo) MonthlyRevenue(_ context.Context, _ int) ([]analytics.MonthlyRevenue, error) {
	return nil, nil
}

func (mockAnalyticsRepo) TopProducts(_ context.Context, _ time.Time, _ int) ([]analytics.TopProduct, error) {
	return nil, nil
}

func (mockAnalyticsRepo) OrdersByStatus(_ context.Context, _ time.Time) ([]analytics.StatusCount, error) {
	return nil, nil
}

func (mockAnalyticsRepo) RecentOrders(_ context.Context, _ int) ([]analytics.RecentOrder, error) {
	return nil, nil
}

func (mockAnalyticsRepo) DiscountStats(_ context.Context, _ time.Time) (analytics.DiscountStats, error) {
	return analytics.DiscountStats{}, nil
}

// --- Fixture ---

type serverFixture struct {
	variants *mockVariantRepo
	carts    *mockCartRepo
	orders   *mockOrderRepo
	returns  *mockReturnsRepo
	gateway  *mockGateway
	handler  http.Handler
}

func newServerFixture(t *testing.T) *serverFixture {
	t.Helper()

	f := &serverFixture{
		variants: &mockVariantRepo{byID: map[int64]catalog.Variant{
			1: {ID: 1, ProductTitle: "Passion Twists 18in", SKU: "PT-18-BLK",
				Price: decimal.RequireFromString("60.00"), Stock: 10, Active: true},
			2: {ID: 2, ProductTitle: "Butterfly Locs 24in", SKU: "BL-24-BRN",
				Price: decimal.RequireFromString("40.00"), Stock: 2, Active: true},
		}},
		carts:   &mockCartRepo{lines: make(map[int64][]cart.DetailedLine)},
		orders:  &mockOrderRepo{orders: make(map[int64]*order.Order)},
		returns: &mockReturnsRepo{byID: make(map[int64]*returns.Request)},
		gateway: &mockGateway{verifyOK: true},
	}

	customers := &mockCustomerRepo{
		customers: map[int64]customer.Customer{
			testCustomerID: {ID: testCustomerID, Email: "efua@example.com", FullName: "Efua Owusu"},
		},
		addresses: map[int64]customer.Address{
			3: {ID: 3, CustomerID: testCustomerID, FullName: "Efua Owusu",
				PhoneNumber: "+233201234567", AddressLine: "5 Ring Road", City: "Kumasi",
				Region: "Ashanti", Country: "Ghana", IsDefault: true},
		},
	}
	shippingRepo := &mockShippingRepo{methods: map[int64]shipping.Method{
		1: {ID: 1, Name: "Standard", Price: decimal.RequireFromString("15.00"), Active: true},
	}}
	discounts := &mockDiscountRepo{byCode: map[string]*discount.Code{
		"SAVE10": {ID: 5, Code: "SAVE10", Type: discount.TypePercentage,
			Value: decimal.NewFromInt(10), Active: true},
	}}

	custID := testCustomerID
	keys := &mockKeyRepo{byHash: map[string]*auth.Identity{}}
	custHash := auth.HashKey(customerAPIKey, []byte(testPepper))
	keys.byHash[custHash] = &auth.Identity{
		KeyID: 1, KeyHash: custHash, Name: "storefront", CustomerID: &custID,
	}
	adminHash := auth.HashKey(adminAPIKey, []byte(testPepper))
	keys.byHash[adminHash] = &auth.Identity{
		KeyID: 2, KeyHash: adminHash, Name: "console", Scopes: []string{auth.ScopeAdmin},
	}
	authenticator := auth.NewAuthenticator(keys, []byte(testPepper))

	notifier := mockNotifier{}
	checkoutSvc := order.NewCheckoutService(
		f.variants, f.carts, discounts, shippingRepo, customers, f.orders, notifier,
	)
	statusSvc := order.NewStatusService(f.orders, notifier)
	paymentSvc := payment.NewService(f.orders, f.gateway, notifier)
	returnsSvc := returns.NewService(f.returns, f.orders, f.variants, f.gateway)
	analyticsSvc := analytics.NewService(mockAnalyticsRepo{})

	srv := NewServer(
		authenticator, f.variants, f.carts, customers, shippingRepo, discounts,
		f.orders, checkoutSvc, statusSvc, paymentSvc, returnsSvc, analyticsSvc,
		paystack.NewVerifier(webhookSecret, false),
	)
	f.handler = srv.Routes()
	return f
}

func (f *serverFixture) do(t *testing.T, method, path, apiKey string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if apiKey != "" {
		req.Header.Set(APIKeyHeader, apiKey)
	}

	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

// pendingGuestOrder seeds an order awaiting payment.
func (f *serverFixture) pendingGuestOrder(id int64, total string) *order.Order {
	o := &order.Order{
		ID:     id,
		Buyer:  order.Buyer{Guest: &order.GuestDetails{Email: "ama@example.com", Name: "Ama"}},
		Total:  decimal.RequireFromString(total),
		Status: order.StatusPending,
	}
	f.orders.orders[id] = o
	if f.orders.nextID <= id {
		f.orders.nextID = id + 1
	}
	return o
}

// --- Auth tests ---

func TestAuth_MissingKey(t *testing.T) {
	f := newServerFixture(t)

	rec := f.do(t, http.MethodGet, "/cart", "", nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid or missing API key", decodeResponse(t, rec)["error"])
}

func TestAuth_UnknownKey(t *testing.T) {
	f := newServerFixture(t)

	rec := f.do(t, http.MethodGet, "/cart", "not-a-key", nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_AdminKeyCannotUseStorefront(t *testing.T) {
	f := newServerFixture(t)

	rec := f.do(t, http.MethodGet, "/cart", adminAPIKey, nil)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAuth_CustomerKeyCannotUseAdmin(t *testing.T) {
	f := newServerFixture(t)

	rec := f.do(t, http.MethodGet, "/admin/returns", customerAPIKey, nil)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

// --- Cart tests ---

func TestCart_SetAndGet(t *testing.T) {
	f := newServerFixture(t)

	rec := f.do(t, http.MethodPut, "/cart/items", customerAPIKey, map[string]any{
		"variant_id": 1, "quantity": 2,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = f.do(t, http.MethodGet, "/cart", customerAPIKey, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeResponse(t, rec)
	items := body["items"].([]any)
	require.Len(t, items, 1)
}

func TestCart_SetBeyondStock(t *testing.T) {
	f := newServerFixture(t)

	rec := f.do(t, http.MethodPut, "/cart/items", customerAPIKey, map[string]any{
		"variant_id": 2, "quantity": 5,
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCart_UnknownVariant(t *testing.T) {
	f := newServerFixture(t)

	rec := f.do(t, http.MethodPut, "/cart/items", customerAPIKey, map[string]any{
		"variant_id": 99, "quantity": 1,
	})

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// --- Checkout tests ---

func TestValidateDiscountCode(t *testing.T) {
	f := newServerFixture(t)

	rec := f.do(t, http.MethodPost, "/discount-codes/validate", "", map[string]any{
		"code":       "SAVE10",
		"cart_total": "200.00",
	})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeResponse(t, rec)
	assert.Equal(t, true, body["valid"])
	assert.Equal(t, "SAVE10", body["code"])
	assert.Equal(t, "percentage", body["discount_type"])
	assert.Equal(t, "20.00", body["discount_amount"])
}

func TestValidateDiscountCode_Unknown(t *testing.T) {
	f := newServerFixture(t)

	rec := f.do(t, http.MethodPost, "/discount-codes/validate", "", map[string]any{
		"code":       "NOPE",
		"cart_total": "200.00",
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeResponse(t, rec)
	assert.Equal(t, false, body["valid"])
	assert.Equal(t, "Invalid discount code", body["error"])
}

func TestGuestCheckout(t *testing.T) {
	f := newServerFixture(t)

	rec := f.do(t, http.MethodPost, "/checkout/guest", "", map[string]any{
		"email":              "ama@example.com",
		"name":               "Ama Mensah",
		"phone_number":       "+233201234567",
		"address_line":       "12 Oxford Street",
		"city":               "Accra",
		"region":             "Greater Accra",
		"shipping_method_id": 1,
		"discount_code":      "SAVE10",
		"items": []map[string]any{
			{"variant_id": 1, "quantity": 1},
			{"variant_id": 2, "quantity": 1},
		},
	})

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decodeResponse(t, rec)
	assert.Equal(t, "100.00", body["subtotal"])
	assert.Equal(t, "10.00", body["discount_amount"])
	assert.Equal(t, "15.00", body["shipping_cost"])
	assert.Equal(t, "105.00", body["total"])
	assert.NotZero(t, body["order_id"])
}

func TestGuestCheckout_InsufficientStock(t *testing.T) {
	f := newServerFixture(t)

	rec := f.do(t, http.MethodPost, "/checkout/guest", "", map[string]any{
		"email":              "ama@example.com",
		"name":               "Ama Mensah",
		"phone_number":       "+233201234567",
		"address_line":       "12 Oxford Street",
		"city":               "Accra",
		"region":             "Greater Accra",
		"shipping_method_id": 1,
		"items":              []map[string]any{{"variant_id": 2, "quantity": 3}},
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeResponse(t, rec)["error"], "not enough stock")
}

func TestGuestCheckout_UnknownDiscountCode(t *testing.T) {
	f := newServerFixture(t)

	rec := f.do(t, http.MethodPost, "/checkout/guest", "", map[string]any{
		"email":              "ama@example.com",
		"name":               "Ama Mensah",
		"phone_number":       "+233201234567",
		"address_line":       "12 Oxford Street",
		"city":               "Accra",
		"region":             "Greater Accra",
		"shipping_method_id": 1,
		"discount_code":      "BOGUS",
		"items":              []map[string]any{{"variant_id": 1, "quantity": 1}},
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGuestCheckout_MissingContact(t *testing.T) {
	f := newServerFixture(t)

	rec := f.do(t, http.MethodPost, "/checkout/guest", "", map[string]any{
		"shipping_method_id": 1,
		"items":              []map[string]any{{"variant_id": 1, "quantity": 1}},
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCustomerCheckout(t *testing.T) {
	f := newServerFixture(t)
	f.carts.lines[testCustomerID] = []cart.DetailedLine{
		{Line: cart.Line{VariantID: 1, Quantity: 2}},
	}

	rec := f.do(t, http.MethodPost, "/checkout", customerAPIKey, map[string]any{
		"address_id":         3,
		"shipping_method_id": 1,
	})

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decodeResponse(t, rec)
	assert.Equal(t, "120.00", body["subtotal"])
	assert.Equal(t, "135.00", body["total"])
}

func TestCustomerCheckout_EmptyCart(t *testing.T) {
	f := newServerFixture(t)

	rec := f.do(t, http.MethodPost, "/checkout", customerAPIKey, map[string]any{
		"address_id":         3,
		"shipping_method_id": 1,
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// --- Order visibility tests ---

func TestGetOrder_OtherCustomersOrderHidden(t *testing.T) {
	f := newServerFixture(t)
	f.orders.orders[9] = &order.Order{
		ID:     9,
		Buyer:  order.Buyer{Customer: &order.CustomerRef{ID: 99, Email: "other@example.com"}},
		Status: order.StatusPaid,
	}

	rec := f.do(t, http.MethodGet, "/orders/9", customerAPIKey, nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTrackGuestOrder(t *testing.T) {
	f := newServerFixture(t)
	f.pendingGuestOrder(4, "75.00")

	rec := f.do(t, http.MethodPost, "/orders/track", "", map[string]any{
		"order_id": 4, "email": "ama@example.com",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = f.do(t, http.MethodPost, "/orders/track", "", map[string]any{
		"order_id": 4, "email": "wrong@example.com",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// --- Payment tests ---

func TestInitializePayment_GuestByEmail(t *testing.T) {
	f := newServerFixture(t)
	f.pendingGuestOrder(4, "75.00")

	rec := f.do(t, http.MethodPost, "/payments/initialize", "", map[string]any{
		"order_id": 4, "email": "ama@example.com",
	})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeResponse(t, rec)
	assert.Equal(t, "https://checkout.example.com/abc", body["authorization_url"])
	assert.EqualValues(t, 7500, body["amount"])
}

func TestInitializePayment_WrongEmail(t *testing.T) {
	f := newServerFixture(t)
	f.pendingGuestOrder(4, "75.00")

	rec := f.do(t, http.MethodPost, "/payments/initialize", "", map[string]any{
		"order_id": 4, "email": "wrong@example.com",
	})

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWebhook_SettlesOrder(t *testing.T) {
	f := newServerFixture(t)
	f.pendingGuestOrder(4, "75.00")

	payload := []byte(`{"event":"charge.success","data":{"reference":"order_4_abcd1234"}}`)
	req := httptest.NewRequest(http.MethodPost, "/payments/webhook", bytes.NewReader(payload))
	req.Header.Set(paystack.SignatureHeader, paystack.Sign(webhookSecret, payload))
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "success", decodeResponse(t, rec)["status"])
	assert.Equal(t, order.StatusPaid, f.orders.orders[4].Status)
	assert.Equal(t, "order_4_abcd1234", f.orders.orders[4].PaymentReference)
}

func TestWebhook_BadSignature(t *testing.T) {
	f := newServerFixture(t)
	f.pendingGuestOrder(4, "75.00")

	payload := []byte(`{"event":"charge.success","data":{"reference":"order_4_abcd1234"}}`)
	req := httptest.NewRequest(http.MethodPost, "/payments/webhook", bytes.NewReader(payload))
	req.Header.Set(paystack.SignatureHeader, paystack.Sign("wrong-secret", payload))
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, order.StatusPending, f.orders.orders[4].Status)
}

func TestWebhook_MissingSignature(t *testing.T) {
	f := newServerFixture(t)

	payload := []byte(`{"event":"charge.success","data":{"reference":"order_4_abcd1234"}}`)
	req := httptest.NewRequest(http.MethodPost, "/payments/webhook", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhook_IgnoredEvent(t *testing.T) {
	f := newServerFixture(t)
	f.pendingGuestOrder(4, "75.00")

	payload := []byte(`{"event":"transfer.success","data":{"reference":"order_4_abcd1234"}}`)
	req := httptest.NewRequest(http.MethodPost, "/payments/webhook", bytes.NewReader(payload))
	req.Header.Set(paystack.SignatureHeader, paystack.Sign(webhookSecret, payload))
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ignored", decodeResponse(t, rec)["status"])
	assert.Equal(t, order.StatusPending, f.orders.orders[4].Status)
}

func TestVerifyPayment(t *testing.T) {
	f := newServerFixture(t)
	f.pendingGuestOrder(4, "75.00")

	rec := f.do(t, http.MethodGet, "/payments/verify/order_4_abcd1234", "", nil)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeResponse(t, rec)
	assert.Equal(t, true, body["paid"])
	assert.Equal(t, "paid", body["order_status"])
}

// --- Admin tests ---

func TestAdmin_CreateDiscountCode(t *testing.T) {
	f := newServerFixture(t)

	rec := f.do(t, http.MethodPost, "/admin/discount-codes", adminAPIKey, map[string]any{
		"code":  "NEWYEAR",
		"type":  "fixed",
		"value": "25.00",
	})

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decodeResponse(t, rec)
	assert.Equal(t, "NEWYEAR", body["code"])
	assert.Equal(t, true, body["active"])
}

func TestAdmin_UpdateOrderStatus(t *testing.T) {
	f := newServerFixture(t)
	o := f.pendingGuestOrder(4, "75.00")
	o.Status = order.StatusPaid

	rec := f.do(t, http.MethodPatch, "/admin/orders/4/status", adminAPIKey, map[string]any{
		"status": "processing",
	})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, order.StatusProcessing, f.orders.orders[4].Status)
}

func TestAdmin_InvalidStatusTransition(t *testing.T) {
	f := newServerFixture(t)
	o := f.pendingGuestOrder(4, "75.00")
	o.Status = order.StatusDelivered

	rec := f.do(t, http.MethodPatch, "/admin/orders/4/status", adminAPIKey, map[string]any{
		"status": "processing",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdmin_SalesReport(t *testing.T) {
	f := newServerFixture(t)

	rec := f.do(t, http.MethodGet, "/admin/analytics/sales?days=7", adminAPIKey, nil)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeResponse(t, rec)
	summary := body["summary"].(map[string]any)
	assert.Equal(t, "1000.00", summary["total_revenue"])
}

// --- Returns over HTTP ---

func TestReturns_EndToEnd(t *testing.T) {
	f := newServerFixture(t)
	variantID := int64(1)
	f.orders.orders[6] = &order.Order{
		ID:    6,
		Buyer: order.Buyer{Customer: &order.CustomerRef{ID: testCustomerID, Email: "efua@example.com"}},
		Items: []order.Item{
			{ID: 101, VariantID: &variantID, ProductTitle: "Passion Twists 18in",
				Quantity: 1, ItemTotal: decimal.RequireFromString("60.00")},
		},
		Total:            decimal.RequireFromString("75.00"),
		Status:           order.StatusDelivered,
		PaymentReference: "order_6_abcd1234",
	}

	rec := f.do(t, http.MethodPost, "/returns", customerAPIKey, map[string]any{
		"order_id": 6,
		"reason":   "defective",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	returnID := int64(decodeResponse(t, rec)["id"].(float64))
	require.Equal(t, int64(1), returnID)

	rec = f.do(t, http.MethodPost, "/admin/returns/1/review", adminAPIKey, map[string]any{
		"status":                 "approved",
		"approved_refund_amount": "75.00",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = f.do(t, http.MethodPost, "/admin/returns/1/refund", adminAPIKey, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeResponse(t, rec)
	assert.Equal(t, "refunded", body["status"])
	assert.Equal(t, "rfnd_001", body["refund_reference"])

	stored, err := f.returns.GetByID(context.Background(), returnID)
	require.NoError(t, err)
	assert.Equal(t, returns.StatusRefunded, stored.Status)
}
