package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/Bruce101github/crochethairbygg/internal/domain/discount"
	"github.com/Bruce101github/crochethairbygg/internal/domain/order"
	"github.com/Bruce101github/crochethairbygg/internal/domain/returns"
)

func (s *Server) listDiscountCodes(w http.ResponseWriter, r *http.Request) {
	codes, err := s.discounts.List(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	views := make([]discountCodeView, 0, len(codes))
	for _, c := range codes {
		views = append(views, toDiscountCodeView(c))
	}
	respondJSON(w, http.StatusOK, views)
}

type createDiscountCodeRequest struct {
	Code              string     `json:"code"`
	Description       string     `json:"description"`
	Type              string     `json:"type"`
	Value             string     `json:"value"`
	MinPurchaseAmount string     `json:"min_purchase_amount"`
	MaxDiscountAmount *string    `json:"max_discount_amount"`
	Active            *bool      `json:"active"`
	ValidFrom         *time.Time `json:"valid_from"`
	ValidUntil        *time.Time `json:"valid_until"`
	UsageLimit        *int       `json:"usage_limit"`
}

func (s *Server) createDiscountCode(w http.ResponseWriter, r *http.Request) {
	var req createDiscountCodeRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Code == "" {
		respondError(w, http.StatusBadRequest, "code is required")
		return
	}

	typ := discount.Type(req.Type)
	if typ != discount.TypePercentage && typ != discount.TypeFixed {
		respondError(w, http.StatusBadRequest, "type must be percentage or fixed")
		return
	}
	value, err := decimal.NewFromString(req.Value)
	if err != nil || !value.IsPositive() {
		respondError(w, http.StatusBadRequest, "value must be a positive amount")
		return
	}

	minPurchase := decimal.Zero
	if req.MinPurchaseAmount != "" {
		if minPurchase, err = decimal.NewFromString(req.MinPurchaseAmount); err != nil {
			respondError(w, http.StatusBadRequest, "invalid min_purchase_amount")
			return
		}
	}
	maxDiscount, err := parseOptionalAmount(req.MaxDiscountAmount)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid max_discount_amount")
		return
	}

	c := &discount.Code{
		Code:              req.Code,
		Description:       req.Description,
		Type:              typ,
		Value:             value,
		MinPurchaseAmount: minPurchase,
		MaxDiscountAmount: maxDiscount,
		Active:            req.Active == nil || *req.Active,
		ValidFrom:         req.ValidFrom,
		ValidUntil:        req.ValidUntil,
		UsageLimit:        req.UsageLimit,
	}
	if err := s.discounts.Create(r.Context(), c); err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toDiscountCodeView(*c))
}

type setDiscountActiveRequest struct {
	Active bool `json:"active"`
}

func (s *Server) setDiscountCodeActive(w http.ResponseWriter, r *http.Request) {
	codeID, err := strconv.ParseInt(chi.URLParam(r, "codeID"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid discount code id")
		return
	}

	var req setDiscountActiveRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.discounts.SetActive(r.Context(), codeID, req.Active); err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"id": codeID, "active": req.Active})
}

type updateOrderStatusRequest struct {
	Status         string  `json:"status"`
	TrackingNumber *string `json:"tracking_number"`
}

func (s *Server) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(chi.URLParam(r, "orderID"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	var req updateOrderStatusRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	o, err := s.orderStatus.Update(r.Context(), orderID, order.Status(req.Status), req.TrackingNumber)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toOrderView(o))
}

func (s *Server) listAllReturns(w http.ResponseWriter, r *http.Request) {
	reqs, err := s.returns.ListAll(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toReturnViews(reqs))
}

type reviewReturnRequest struct {
	Status               string  `json:"status"`
	ApprovedRefundAmount *string `json:"approved_refund_amount"`
	AdminNotes           string  `json:"admin_notes"`
}

func (s *Server) reviewReturn(w http.ResponseWriter, r *http.Request) {
	returnID, err := strconv.ParseInt(chi.URLParam(r, "returnID"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid return request id")
		return
	}

	var req reviewReturnRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	approved, err := parseOptionalAmount(req.ApprovedRefundAmount)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid approved_refund_amount")
		return
	}

	reviewed, err := s.returns.Review(r.Context(), returnID, returns.Status(req.Status), approved, req.AdminNotes)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toReturnView(reviewed))
}

func (s *Server) refundReturn(w http.ResponseWriter, r *http.Request) {
	returnID, err := strconv.ParseInt(chi.URLParam(r, "returnID"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid return request id")
		return
	}

	refunded, err := s.returns.ProcessRefund(r.Context(), returnID)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toReturnView(refunded))
}

func (s *Server) salesReport(w http.ResponseWriter, r *http.Request) {
	days := 30
	if v := r.URL.Query().Get("days"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 || parsed > 365 {
			respondError(w, http.StatusBadRequest, "days must be between 1 and 365")
			return
		}
		days = parsed
	}

	report, err := s.analytics.SalesReport(r.Context(), days)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toSalesReportView(report))
}
