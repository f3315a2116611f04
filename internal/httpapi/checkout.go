package httpapi

import (
	"net/http"

	"github.com/Bruce101github/crochethairbygg/internal/domain/cart"
	"github.com/Bruce101github/crochethairbygg/internal/domain/order"
)

type customerCheckoutRequest struct {
	AddressID        int64  `json:"address_id"`
	ShippingMethodID int64  `json:"shipping_method_id"`
	DiscountCode     string `json:"discount_code"`
}

func (s *Server) customerCheckout(w http.ResponseWriter, r *http.Request) {
	customerID := *identityFrom(r.Context()).CustomerID

	var req customerCheckoutRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	o, err := s.checkout.Checkout(r.Context(), order.CheckoutRequest{
		CustomerID:       &customerID,
		AddressID:        req.AddressID,
		ShippingMethodID: req.ShippingMethodID,
		DiscountCode:     req.DiscountCode,
	})
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toCheckoutResponse(o))
}

type guestCheckoutItem struct {
	VariantID int64 `json:"variant_id"`
	Quantity  int   `json:"quantity"`
}

type guestCheckoutRequest struct {
	Email            string              `json:"email"`
	Name             string              `json:"name"`
	PhoneNumber      string              `json:"phone_number"`
	AddressLine      string              `json:"address_line"`
	City             string              `json:"city"`
	Region           string              `json:"region"`
	Country          string              `json:"country"`
	ShippingMethodID int64               `json:"shipping_method_id"`
	DiscountCode     string              `json:"discount_code"`
	Items            []guestCheckoutItem `json:"items"`
}

func (s *Server) guestCheckout(w http.ResponseWriter, r *http.Request) {
	var req guestCheckoutRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	lines := make([]cart.Line, 0, len(req.Items))
	for _, it := range req.Items {
		lines = append(lines, cart.Line{VariantID: it.VariantID, Quantity: it.Quantity})
	}

	o, err := s.checkout.Checkout(r.Context(), order.CheckoutRequest{
		Guest: &order.GuestDetails{
			Email: req.Email,
			Name:  req.Name,
			Address: order.GuestAddress{
				FullName:    req.Name,
				PhoneNumber: req.PhoneNumber,
				AddressLine: req.AddressLine,
				City:        req.City,
				Region:      req.Region,
				Country:     req.Country,
			},
		},
		ShippingMethodID: req.ShippingMethodID,
		DiscountCode:     req.DiscountCode,
		Lines:            lines,
	})
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toCheckoutResponse(o))
}
