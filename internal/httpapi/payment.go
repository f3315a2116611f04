package httpapi

import (
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/Bruce101github/crochethairbygg/internal/domain/order"
	"github.com/Bruce101github/crochethairbygg/internal/domain/payment"
	"github.com/Bruce101github/crochethairbygg/internal/paystack"
)

type initializePaymentRequest struct {
	OrderID int64  `json:"order_id"`
	Email   string `json:"email"`
	Channel string `json:"channel"`
}

type paymentSessionResponse struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
	AmountMinor      int64  `json:"amount"`
}

// initializePayment opens a hosted payment session. Customers must present
// their API key and own the order; guests instead prove access with the
// order's contact email.
func (s *Server) initializePayment(w http.ResponseWriter, r *http.Request) {
	var req initializePaymentRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.OrderID <= 0 {
		respondError(w, http.StatusBadRequest, "order_id is required")
		return
	}

	o, err := s.authorizedOrder(r, req.OrderID, req.Email)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	sess, err := s.payments.Initialize(r.Context(), o, req.Channel)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, paymentSessionResponse{
		AuthorizationURL: sess.AuthorizationURL,
		AccessCode:       sess.AccessCode,
		Reference:        sess.Reference,
		AmountMinor:      sess.AmountMinor,
	})
}

// authorizedOrder loads an order if the caller may act on it: its owning
// customer (by API key) or its guest buyer (by matching email). Denials look
// identical to missing orders.
func (s *Server) authorizedOrder(r *http.Request, orderID int64, email string) (*order.Order, error) {
	if key := r.Header.Get(APIKeyHeader); key != "" {
		id, err := s.authenticator.Authenticate(r.Context(), key)
		if err != nil {
			return nil, err
		}
		if id.CustomerID != nil {
			o, err := s.orders.GetByID(r.Context(), orderID)
			if err != nil {
				return nil, err
			}
			if o.Buyer.Customer == nil || o.Buyer.Customer.ID != *id.CustomerID {
				return nil, order.ErrNotFound
			}
			return o, nil
		}
	}
	if email == "" {
		return nil, order.ErrNotFound
	}
	return s.orders.GetGuestOrder(r.Context(), orderID, email)
}

// paystackWebhook ingests gateway events. The raw body is authenticated
// against the signature header before any parsing; unsupported events are
// acknowledged and ignored.
func (s *Server) paystackWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		respondError(w, http.StatusBadRequest, "unreadable request body")
		return
	}

	if err := s.webhooks.Verify(body, r.Header.Get(paystack.SignatureHeader)); err != nil {
		zctx.From(r.Context()).Warn("Webhook signature rejected", zap.Error(err))
		respondError(w, http.StatusBadRequest, "invalid webhook signature")
		return
	}

	event, reference, err := parseWebhookEvent(body)
	if err != nil {
		respondError(w, http.StatusBadRequest, "malformed webhook payload")
		return
	}

	if event != "charge.success" || reference == "" {
		// Acknowledged so the gateway stops redelivering.
		respondJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	transitioned, err := s.payments.SettleCharge(r.Context(), reference)
	if err != nil {
		if errors.Is(err, payment.ErrUnknownReference) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		// Transient failure: a non-2xx makes the gateway redeliver later.
		zctx.From(r.Context()).Error("Webhook settlement failed",
			zap.String("reference", reference), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "settlement failed")
		return
	}

	zctx.From(r.Context()).Info("Webhook processed",
		zap.String("reference", reference), zap.Bool("transitioned", transitioned))
	respondJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// verifyPayment is the client-side poll after the gateway redirect. It runs
// the same settlement path as the webhook, so whichever arrives first wins
// and the other is a no-op.
func (s *Server) verifyPayment(w http.ResponseWriter, r *http.Request) {
	reference := chi.URLParam(r, "reference")

	_, err := s.payments.SettleCharge(r.Context(), reference)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	orderID, err := payment.ParseReference(reference)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	o, err := s.orders.GetByID(r.Context(), orderID)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"reference":    reference,
		"paid":         o.Status != order.StatusPending && o.Status != order.StatusCancelled,
		"order_id":     o.ID,
		"order_status": string(o.Status),
	})
}

// parseWebhookEvent extracts the event name and data.reference from a
// webhook payload.
func parseWebhookEvent(body []byte) (event, reference string, err error) {
	d := jx.DecodeBytes(body)
	err = d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		switch string(key) {
		case "event":
			v, err := d.Str()
			event = strings.ToLower(v)
			return err
		case "data":
			return d.ObjBytes(func(d *jx.Decoder, key []byte) error {
				if string(key) != "reference" {
					return d.Skip()
				}
				v, err := d.Str()
				reference = v
				return err
			})
		default:
			return d.Skip()
		}
	})
	return event, reference, err
}
