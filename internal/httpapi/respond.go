package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/Bruce101github/crochethairbygg/internal/domain/auth"
	"github.com/Bruce101github/crochethairbygg/internal/domain/cart"
	"github.com/Bruce101github/crochethairbygg/internal/domain/catalog"
	"github.com/Bruce101github/crochethairbygg/internal/domain/customer"
	"github.com/Bruce101github/crochethairbygg/internal/domain/discount"
	"github.com/Bruce101github/crochethairbygg/internal/domain/order"
	"github.com/Bruce101github/crochethairbygg/internal/domain/payment"
	"github.com/Bruce101github/crochethairbygg/internal/domain/returns"
	"github.com/Bruce101github/crochethairbygg/internal/domain/shipping"
)

// errorResponse is the uniform error body for every non-2xx response.
type errorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Error: message})
}

// respondDomainError maps a domain error to an HTTP status and message.
// Unrecognized errors become opaque 500s; the detail goes to the log only.
func respondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		invalidDiscount *discount.InvalidError
		noStock         *catalog.InsufficientStockError
		badTransition   *order.InvalidTransitionError
		gatewayErr      *payment.GatewayError
	)

	switch {
	case errors.As(err, &invalidDiscount):
		respondError(w, http.StatusBadRequest, invalidDiscount.Reason)
	case errors.As(err, &noStock):
		respondError(w, http.StatusBadRequest, noStock.Error())
	case errors.As(err, &badTransition):
		respondError(w, http.StatusBadRequest, badTransition.Error())
	case errors.As(err, &gatewayErr):
		zctx.From(r.Context()).Error("Payment gateway failure", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Payment gateway is unavailable, please try again")

	case errors.Is(err, auth.ErrUnauthorized):
		respondError(w, http.StatusUnauthorized, "Invalid or missing API key")

	case errors.Is(err, order.ErrNotFound),
		errors.Is(err, returns.ErrNotFound),
		errors.Is(err, customer.ErrNotFound),
		errors.Is(err, customer.ErrAddressNotFound),
		errors.Is(err, catalog.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())

	case errors.Is(err, discount.ErrUnknownCode),
		errors.Is(err, shipping.ErrNotFound),
		errors.Is(err, cart.ErrEmptyCart),
		errors.Is(err, order.ErrGuestContactRequired),
		errors.Is(err, order.ErrGuestAddressRequired),
		errors.Is(err, order.ErrGuestItemsRequired),
		errors.Is(err, order.ErrAddressRequired),
		errors.Is(err, order.ErrInvalidQuantity),
		errors.Is(err, payment.ErrAlreadyPaid),
		errors.Is(err, payment.ErrInvalidAmount),
		errors.Is(err, payment.ErrUnknownReference),
		errors.Is(err, returns.ErrNotOwner),
		errors.Is(err, returns.ErrPendingExists),
		errors.Is(err, returns.ErrOrderNotEligible),
		errors.Is(err, returns.ErrItemNotInOrder),
		errors.Is(err, returns.ErrInvalidReason),
		errors.Is(err, returns.ErrNotApproved),
		errors.Is(err, returns.ErrNoApprovedAmount),
		errors.Is(err, returns.ErrNotReviewable),
		errors.Is(err, returns.ErrAlreadyFinal):
		respondError(w, http.StatusBadRequest, err.Error())

	default:
		zctx.From(r.Context()).Error("Unhandled error", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// decodeBody decodes a JSON request body into dst, rejecting unknown fields.
func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.Wrap(err, "invalid request body")
	}
	return nil
}
