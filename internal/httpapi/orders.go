package httpapi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Bruce101github/crochethairbygg/internal/domain/order"
)

func (s *Server) listOrders(w http.ResponseWriter, r *http.Request) {
	customerID := *identityFrom(r.Context()).CustomerID

	orders, err := s.orders.ListByCustomer(r.Context(), customerID)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	views := make([]orderView, 0, len(orders))
	for i := range orders {
		views = append(views, toOrderView(&orders[i]))
	}
	respondJSON(w, http.StatusOK, views)
}

func (s *Server) getOrder(w http.ResponseWriter, r *http.Request) {
	customerID := *identityFrom(r.Context()).CustomerID

	orderID, err := strconv.ParseInt(chi.URLParam(r, "orderID"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	o, err := s.orders.GetByID(r.Context(), orderID)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	// Another customer's order is indistinguishable from a missing one.
	if o.Buyer.Customer == nil || o.Buyer.Customer.ID != customerID {
		respondDomainError(w, r, order.ErrNotFound)
		return
	}
	respondJSON(w, http.StatusOK, toOrderView(o))
}

type trackOrderRequest struct {
	OrderID int64  `json:"order_id"`
	Email   string `json:"email"`
}

// trackGuestOrder lets a guest look up their order with the id from the
// confirmation email plus the email it was sent to.
func (s *Server) trackGuestOrder(w http.ResponseWriter, r *http.Request) {
	var req trackOrderRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.OrderID <= 0 || req.Email == "" {
		respondError(w, http.StatusBadRequest, "order_id and email are required")
		return
	}

	o, err := s.orders.GetGuestOrder(r.Context(), req.OrderID, req.Email)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toOrderView(o))
}
