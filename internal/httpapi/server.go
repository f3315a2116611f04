// Package httpapi exposes the storefront and admin console over JSON HTTP.
// Handlers translate between wire DTOs and domain types; business rules
// live in the domain services.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

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

// Server holds the handler dependencies and assembles the route tree.
type Server struct {
	authenticator *auth.Authenticator
	variants      catalog.Repository
	carts         cart.Repository
	customers     customer.Repository
	shipping      shipping.Repository
	discounts     discount.Repository
	orders        order.Repository
	checkout      *order.CheckoutService
	orderStatus   *order.StatusService
	payments      *payment.Service
	returns       *returns.Service
	analytics     *analytics.Service
	webhooks      *paystack.Verifier
}

// NewServer constructs the API server from its dependencies.
func NewServer(
	authenticator *auth.Authenticator,
	variants catalog.Repository,
	carts cart.Repository,
	customers customer.Repository,
	shippingRepo shipping.Repository,
	discounts discount.Repository,
	orders order.Repository,
	checkout *order.CheckoutService,
	orderStatus *order.StatusService,
	payments *payment.Service,
	returnsSvc *returns.Service,
	analyticsSvc *analytics.Service,
	webhooks *paystack.Verifier,
) *Server {
	return &Server{
		authenticator: authenticator,
		variants:      variants,
		carts:         carts,
		customers:     customers,
		shipping:      shippingRepo,
		discounts:     discounts,
		orders:        orders,
		checkout:      checkout,
		orderStatus:   orderStatus,
		payments:      payments,
		returns:       returnsSvc,
		analytics:     analyticsSvc,
		webhooks:      webhooks,
	}
}

// Routes builds the full route tree under /api.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	// Public storefront surface.
	r.Get("/shipping-methods", s.listShippingMethods)
	r.Post("/discount-codes/validate", s.validateDiscountCode)
	r.Post("/checkout/guest", s.guestCheckout)
	r.Post("/orders/track", s.trackGuestOrder)
	r.Post("/payments/initialize", s.initializePayment)
	r.Post("/payments/webhook", s.paystackWebhook)
	r.Get("/payments/verify/{reference}", s.verifyPayment)

	// Authenticated storefront surface.
	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth, requireCustomer)

		r.Get("/cart", s.getCart)
		r.Put("/cart/items", s.setCartItem)
		r.Delete("/cart/items/{variantID}", s.removeCartItem)
		r.Delete("/cart", s.clearCart)

		r.Get("/addresses", s.listAddresses)
		r.Post("/addresses", s.createAddress)

		r.Post("/checkout", s.customerCheckout)

		r.Get("/orders", s.listOrders)
		r.Get("/orders/{orderID}", s.getOrder)

		r.Post("/returns", s.createReturn)
		r.Get("/returns", s.listMyReturns)
	})

	// Admin console surface.
	r.Route("/admin", func(r chi.Router) {
		r.Use(s.requireAuth, requireAdmin)

		r.Get("/discount-codes", s.listDiscountCodes)
		r.Post("/discount-codes", s.createDiscountCode)
		r.Patch("/discount-codes/{codeID}", s.setDiscountCodeActive)

		r.Patch("/orders/{orderID}/status", s.updateOrderStatus)

		r.Get("/returns", s.listAllReturns)
		r.Post("/returns/{returnID}/review", s.reviewReturn)
		r.Post("/returns/{returnID}/refund", s.refundReturn)

		r.Get("/analytics/sales", s.salesReport)
	})

	return r
}
