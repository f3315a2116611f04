package httpapi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Bruce101github/crochethairbygg/internal/domain/cart"
)

func (s *Server) getCart(w http.ResponseWriter, r *http.Request) {
	customerID := *identityFrom(r.Context()).CustomerID

	lines, err := s.carts.Lines(r.Context(), customerID)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toCartView(lines))
}

type setCartItemRequest struct {
	VariantID int64 `json:"variant_id"`
	Quantity  int   `json:"quantity"`
}

func (s *Server) setCartItem(w http.ResponseWriter, r *http.Request) {
	customerID := *identityFrom(r.Context()).CustomerID

	var req setCartItemRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.VariantID <= 0 || req.Quantity <= 0 {
		respondError(w, http.StatusBadRequest, "variant_id and a positive quantity are required")
		return
	}

	// The variant must exist and have enough stock for the requested line.
	v, err := s.variants.GetByID(r.Context(), req.VariantID)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	if req.Quantity > v.Stock {
		respondError(w, http.StatusBadRequest, "Requested quantity exceeds available stock")
		return
	}

	err = s.carts.SetLine(r.Context(), customerID, cart.Line{
		VariantID: req.VariantID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	lines, err := s.carts.Lines(r.Context(), customerID)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toCartView(lines))
}

func (s *Server) removeCartItem(w http.ResponseWriter, r *http.Request) {
	customerID := *identityFrom(r.Context()).CustomerID

	variantID, err := strconv.ParseInt(chi.URLParam(r, "variantID"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid variant id")
		return
	}

	if err := s.carts.RemoveLine(r.Context(), customerID, variantID); err != nil {
		respondDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) clearCart(w http.ResponseWriter, r *http.Request) {
	customerID := *identityFrom(r.Context()).CustomerID

	if err := s.carts.Clear(r.Context(), customerID); err != nil {
		respondDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
