package httpapi

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Bruce101github/crochethairbygg/internal/domain/analytics"
	"github.com/Bruce101github/crochethairbygg/internal/domain/cart"
	"github.com/Bruce101github/crochethairbygg/internal/domain/customer"
	"github.com/Bruce101github/crochethairbygg/internal/domain/discount"
	"github.com/Bruce101github/crochethairbygg/internal/domain/order"
	"github.com/Bruce101github/crochethairbygg/internal/domain/returns"
	"github.com/Bruce101github/crochethairbygg/internal/domain/shipping"
)

// Money renders as a fixed two-decimal string on the wire, never as a float.
func money(d decimal.Decimal) string { return d.StringFixed(2) }

type cartLineView struct {
	VariantID    int64  `json:"variant_id"`
	ProductTitle string `json:"product_title"`
	SKU          string `json:"sku"`
	UnitPrice    string `json:"unit_price"`
	Quantity     int    `json:"quantity"`
	LineTotal    string `json:"line_total"`
	Stock        int    `json:"stock"`
}

type cartView struct {
	Items    []cartLineView `json:"items"`
	Subtotal string         `json:"subtotal"`
}

func toCartView(lines []cart.DetailedLine) cartView {
	v := cartView{Items: make([]cartLineView, 0, len(lines))}
	subtotal := decimal.Zero
	for _, l := range lines {
		lineTotal := l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))).Round(2)
		subtotal = subtotal.Add(lineTotal)
		v.Items = append(v.Items, cartLineView{
			VariantID:    l.VariantID,
			ProductTitle: l.ProductTitle,
			SKU:          l.SKU,
			UnitPrice:    money(l.UnitPrice),
			Quantity:     l.Quantity,
			LineTotal:    money(lineTotal),
			Stock:        l.Stock,
		})
	}
	v.Subtotal = money(subtotal)
	return v
}

type addressView struct {
	ID          int64  `json:"id"`
	FullName    string `json:"full_name"`
	PhoneNumber string `json:"phone_number"`
	AddressLine string `json:"address_line"`
	City        string `json:"city"`
	Region      string `json:"region"`
	Country     string `json:"country"`
	IsDefault   bool   `json:"is_default"`
}

func toAddressView(a customer.Address) addressView {
	return addressView{
		ID:          a.ID,
		FullName:    a.FullName,
		PhoneNumber: a.PhoneNumber,
		AddressLine: a.AddressLine,
		City:        a.City,
		Region:      a.Region,
		Country:     a.Country,
		IsDefault:   a.IsDefault,
	}
}

type shippingMethodView struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Price string `json:"price"`
}

func toShippingMethodView(m shipping.Method) shippingMethodView {
	return shippingMethodView{ID: m.ID, Name: m.Name, Price: money(m.Price)}
}

type orderItemView struct {
	ID           int64  `json:"id"`
	VariantID    *int64 `json:"variant_id"`
	ProductTitle string `json:"product_title"`
	Quantity     int    `json:"quantity"`
	ItemTotal    string `json:"item_total"`
}

type orderView struct {
	ID             int64           `json:"id"`
	Status         string          `json:"status"`
	Items          []orderItemView `json:"items"`
	Subtotal       string          `json:"subtotal"`
	DiscountAmount string          `json:"discount_amount"`
	ShippingCost   string          `json:"shipping_cost"`
	Total          string          `json:"total"`
	TrackingNumber string          `json:"tracking_number,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

func toOrderView(o *order.Order) orderView {
	v := orderView{
		ID:             o.ID,
		Status:         string(o.Status),
		Items:          make([]orderItemView, 0, len(o.Items)),
		Subtotal:       money(o.Subtotal),
		DiscountAmount: money(o.DiscountAmount),
		ShippingCost:   money(o.ShippingCost),
		Total:          money(o.Total),
		TrackingNumber: o.TrackingNumber,
		CreatedAt:      o.CreatedAt,
	}
	for _, it := range o.Items {
		v.Items = append(v.Items, orderItemView{
			ID:           it.ID,
			VariantID:    it.VariantID,
			ProductTitle: it.ProductTitle,
			Quantity:     it.Quantity,
			ItemTotal:    money(it.ItemTotal),
		})
	}
	return v
}

// checkoutResponse is the 201 body for both checkout variants.
type checkoutResponse struct {
	OrderID        int64  `json:"order_id"`
	Subtotal       string `json:"subtotal"`
	DiscountAmount string `json:"discount_amount"`
	ShippingCost   string `json:"shipping_cost"`
	Total          string `json:"total"`
}

func toCheckoutResponse(o *order.Order) checkoutResponse {
	return checkoutResponse{
		OrderID:        o.ID,
		Subtotal:       money(o.Subtotal),
		DiscountAmount: money(o.DiscountAmount),
		ShippingCost:   money(o.ShippingCost),
		Total:          money(o.Total),
	}
}

type discountCodeView struct {
	ID                int64      `json:"id"`
	Code              string     `json:"code"`
	Description       string     `json:"description"`
	Type              string     `json:"type"`
	Value             string     `json:"value"`
	MinPurchaseAmount string     `json:"min_purchase_amount"`
	MaxDiscountAmount *string    `json:"max_discount_amount"`
	Active            bool       `json:"active"`
	ValidFrom         *time.Time `json:"valid_from"`
	ValidUntil        *time.Time `json:"valid_until"`
	UsageLimit        *int       `json:"usage_limit"`
	TimesUsed         int        `json:"times_used"`
}

func toDiscountCodeView(c discount.Code) discountCodeView {
	v := discountCodeView{
		ID:                c.ID,
		Code:              c.Code,
		Description:       c.Description,
		Type:              string(c.Type),
		Value:             money(c.Value),
		MinPurchaseAmount: money(c.MinPurchaseAmount),
		Active:            c.Active,
		ValidFrom:         c.ValidFrom,
		ValidUntil:        c.ValidUntil,
		UsageLimit:        c.UsageLimit,
		TimesUsed:         c.TimesUsed,
	}
	if c.MaxDiscountAmount != nil {
		s := money(*c.MaxDiscountAmount)
		v.MaxDiscountAmount = &s
	}
	return v
}

type returnView struct {
	ID                    int64      `json:"id"`
	OrderID               int64      `json:"order_id"`
	OrderItemID           *int64     `json:"order_item_id"`
	Reason                string     `json:"reason"`
	ReasonDescription     string     `json:"reason_description,omitempty"`
	RequestedRefundAmount *string    `json:"requested_refund_amount"`
	ApprovedRefundAmount  *string    `json:"approved_refund_amount"`
	Status                string     `json:"status"`
	AdminNotes            string     `json:"admin_notes,omitempty"`
	RefundReference       string     `json:"refund_reference,omitempty"`
	RequestedAt           time.Time  `json:"requested_at"`
	ProcessedAt           *time.Time `json:"processed_at"`
}

func toReturnView(r *returns.Request) returnView {
	v := returnView{
		ID:                r.ID,
		OrderID:           r.OrderID,
		OrderItemID:       r.OrderItemID,
		Reason:            string(r.Reason),
		ReasonDescription: r.ReasonDescription,
		Status:            string(r.Status),
		AdminNotes:        r.AdminNotes,
		RefundReference:   r.RefundReference,
		RequestedAt:       r.RequestedAt,
		ProcessedAt:       r.ProcessedAt,
	}
	if r.RequestedRefundAmount != nil {
		s := money(*r.RequestedRefundAmount)
		v.RequestedRefundAmount = &s
	}
	if r.ApprovedRefundAmount != nil {
		s := money(*r.ApprovedRefundAmount)
		v.ApprovedRefundAmount = &s
	}
	return v
}

type salesSummaryView struct {
	TotalRevenue          string `json:"total_revenue"`
	PeriodRevenue         string `json:"period_revenue"`
	PreviousPeriodRevenue string `json:"previous_period_revenue"`
	RevenueChangePercent  string `json:"revenue_change_percent"`
	PeriodOrders          int    `json:"period_orders"`
	AvgOrderValue         string `json:"avg_order_value"`
	TotalDiscount         string `json:"total_discount"`
	DiscountedOrders      int    `json:"discounted_orders"`
}

type dailyRevenueView struct {
	Date    string `json:"date"`
	Revenue string `json:"revenue"`
}

type monthlyRevenueView struct {
	Month   string `json:"month"`
	Revenue string `json:"revenue"`
}

type topProductView struct {
	ProductTitle string `json:"product_title"`
	QuantitySold int    `json:"quantity_sold"`
	Revenue      string `json:"revenue"`
}

type statusCountView struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

type recentOrderView struct {
	ID        int64     `json:"id"`
	Buyer     string    `json:"buyer"`
	Total     string    `json:"total"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type salesReportView struct {
	Summary        salesSummaryView     `json:"summary"`
	DailyRevenue   []dailyRevenueView   `json:"daily_revenue"`
	MonthlyRevenue []monthlyRevenueView `json:"monthly_revenue"`
	TopProducts    []topProductView     `json:"top_products"`
	OrdersByStatus []statusCountView    `json:"orders_by_status"`
	RecentOrders   []recentOrderView    `json:"recent_orders"`
	PeriodDays     int                  `json:"period_days"`
}

func toSalesReportView(rep *analytics.Report) salesReportView {
	v := salesReportView{
		Summary: salesSummaryView{
			TotalRevenue:          money(rep.Summary.TotalRevenue),
			PeriodRevenue:         money(rep.Summary.PeriodRevenue),
			PreviousPeriodRevenue: money(rep.Summary.PreviousPeriodRevenue),
			RevenueChangePercent:  money(rep.Summary.RevenueChangePercent),
			PeriodOrders:          rep.Summary.PeriodOrders,
			AvgOrderValue:         money(rep.Summary.AvgOrderValue),
			TotalDiscount:         money(rep.Summary.Discounts.TotalDiscount),
			DiscountedOrders:      rep.Summary.Discounts.OrderCount,
		},
		DailyRevenue:   make([]dailyRevenueView, 0, len(rep.DailyRevenue)),
		MonthlyRevenue: make([]monthlyRevenueView, 0, len(rep.MonthlyRevenue)),
		TopProducts:    make([]topProductView, 0, len(rep.TopProducts)),
		OrdersByStatus: make([]statusCountView, 0, len(rep.OrdersByStatus)),
		RecentOrders:   make([]recentOrderView, 0, len(rep.RecentOrders)),
		PeriodDays:     rep.PeriodDays,
	}
	for _, d := range rep.DailyRevenue {
		v.DailyRevenue = append(v.DailyRevenue, dailyRevenueView{
			Date:    d.Date.Format(time.DateOnly),
			Revenue: money(d.Revenue),
		})
	}
	for _, m := range rep.MonthlyRevenue {
		v.MonthlyRevenue = append(v.MonthlyRevenue, monthlyRevenueView{
			Month:   m.Month.Format("2006-01"),
			Revenue: money(m.Revenue),
		})
	}
	for _, p := range rep.TopProducts {
		v.TopProducts = append(v.TopProducts, topProductView{
			ProductTitle: p.ProductTitle,
			QuantitySold: p.QuantitySold,
			Revenue:      money(p.Revenue),
		})
	}
	for _, c := range rep.OrdersByStatus {
		v.OrdersByStatus = append(v.OrdersByStatus, statusCountView{Status: c.Status, Count: c.Count})
	}
	for _, o := range rep.RecentOrders {
		v.RecentOrders = append(v.RecentOrders, recentOrderView{
			ID:        o.ID,
			Buyer:     o.Buyer,
			Total:     money(o.Total),
			Status:    o.Status,
			CreatedAt: o.CreatedAt,
		})
	}
	return v
}
