package httpapi

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/Bruce101github/crochethairbygg/internal/domain/returns"
)

type createReturnRequest struct {
	OrderID               int64   `json:"order_id"`
	OrderItemID           *int64  `json:"order_item_id"`
	Reason                string  `json:"reason"`
	ReasonDescription     string  `json:"reason_description"`
	RequestedRefundAmount *string `json:"requested_refund_amount"`
}

func (s *Server) createReturn(w http.ResponseWriter, r *http.Request) {
	customerID := *identityFrom(r.Context()).CustomerID

	var req createReturnRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.OrderID <= 0 {
		respondError(w, http.StatusBadRequest, "order_id is required")
		return
	}

	requested, err := parseOptionalAmount(req.RequestedRefundAmount)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid requested_refund_amount")
		return
	}

	created, err := s.returns.Create(r.Context(), returns.CreateRequest{
		CustomerID:            customerID,
		OrderID:               req.OrderID,
		OrderItemID:           req.OrderItemID,
		Reason:                returns.Reason(req.Reason),
		ReasonDescription:     req.ReasonDescription,
		RequestedRefundAmount: requested,
	})
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toReturnView(created))
}

func (s *Server) listMyReturns(w http.ResponseWriter, r *http.Request) {
	customerID := *identityFrom(r.Context()).CustomerID

	reqs, err := s.returns.ListByOwner(r.Context(), customerID)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toReturnViews(reqs))
}

func toReturnViews(reqs []returns.Request) []returnView {
	views := make([]returnView, 0, len(reqs))
	for i := range reqs {
		views = append(views, toReturnView(&reqs[i]))
	}
	return views
}

func parseOptionalAmount(s *string) (*decimal.Decimal, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
