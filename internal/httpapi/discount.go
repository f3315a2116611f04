package httpapi

import (
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/Bruce101github/crochethairbygg/internal/domain/discount"
)

type validateDiscountRequest struct {
	Code      string          `json:"code"`
	CartTotal decimal.Decimal `json:"cart_total"`
}

type validateDiscountResponse struct {
	Valid          bool   `json:"valid"`
	Code           string `json:"code"`
	DiscountType   string `json:"discount_type"`
	DiscountValue  string `json:"discount_value"`
	DiscountAmount string `json:"discount_amount"`
	Message        string `json:"message"`
}

type invalidDiscountResponse struct {
	Valid bool   `json:"valid"`
	Error string `json:"error"`
}

// validateDiscountCode is a public dry-run: it reports whether a code would
// apply to the given cart total without touching the usage counter. Checkout
// re-evaluates the code inside its transaction.
func (s *Server) validateDiscountCode(w http.ResponseWriter, r *http.Request) {
	var req validateDiscountRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Code == "" {
		respondError(w, http.StatusBadRequest, "Discount code is required")
		return
	}

	c, err := s.discounts.FindByCode(r.Context(), req.Code)
	if err != nil {
		if errors.Is(err, discount.ErrUnknownCode) {
			respondJSON(w, http.StatusBadRequest, invalidDiscountResponse{Error: "Invalid discount code"})
			return
		}
		respondDomainError(w, r, err)
		return
	}

	res, err := discount.Evaluate(c, req.CartTotal, time.Now())
	if err != nil {
		var invalid *discount.InvalidError
		if errors.As(err, &invalid) {
			respondJSON(w, http.StatusBadRequest, invalidDiscountResponse{Error: invalid.Reason})
			return
		}
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, validateDiscountResponse{
		Valid:          true,
		Code:           res.Code.Code,
		DiscountType:   string(res.Code.Type),
		DiscountValue:  res.Code.Value.StringFixed(2),
		DiscountAmount: res.Amount.StringFixed(2),
		Message:        "Discount code applied successfully",
	})
}
