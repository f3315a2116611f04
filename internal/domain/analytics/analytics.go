// Package analytics computes sales reporting for the admin console.
package analytics

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// DailyRevenue is one day's revenue from revenue-counting orders.
type DailyRevenue struct {
	Date    time.Time
	Revenue decimal.Decimal
}

// MonthlyRevenue is one calendar month's revenue.
type MonthlyRevenue struct {
	Month   time.Time
	Revenue decimal.Decimal
}

// TopProduct aggregates sales per product over the reporting period.
type TopProduct struct {
	ProductTitle string
	QuantitySold int
	Revenue      decimal.Decimal
}

// StatusCount is the number of orders per status in the period.
type StatusCount struct {
	Status string
	Count  int
}

// RecentOrder is a row for the admin dashboard's recent activity list.
type RecentOrder struct {
	ID        int64
	Buyer     string
	Total     decimal.Decimal
	Status    string
	CreatedAt time.Time
}

// DiscountStats summarizes discount usage over the period.
type DiscountStats struct {
	TotalDiscount decimal.Decimal
	OrderCount    int
}

// Summary holds the headline revenue figures.
type Summary struct {
	TotalRevenue          decimal.Decimal
	PeriodRevenue         decimal.Decimal
	PreviousPeriodRevenue decimal.Decimal
	RevenueChangePercent  decimal.Decimal
	PeriodOrders          int
	AvgOrderValue         decimal.Decimal
	Discounts             DiscountStats
}

// Report is the full sales analytics response.
type Report struct {
	Summary        Summary
	DailyRevenue   []DailyRevenue
	MonthlyRevenue []MonthlyRevenue
	TopProducts    []TopProduct
	OrdersByStatus []StatusCount
	RecentOrders   []RecentOrder
	PeriodDays     int
}

// Repository defines the aggregate queries behind the report. Revenue only
// counts orders in paid, processing, shipped, or delivered status.
type Repository interface {
	TotalRevenue(ctx context.Context) (decimal.Decimal, error)
	RevenueBetween(ctx context.Context, from, to time.Time) (decimal.Decimal, error)
	OrdersCreatedSince(ctx context.Context, since time.Time) (int, error)
	DailyRevenue(ctx context.Context, since time.Time) ([]DailyRevenue, error)
	MonthlyRevenue(ctx context.Context, months int) ([]MonthlyRevenue, error)
	TopProducts(ctx context.Context, since time.Time, limit int) ([]TopProduct, error)
	OrdersByStatus(ctx context.Context, since time.Time) ([]StatusCount, error)
	RecentOrders(ctx context.Context, limit int) ([]RecentOrder, error)
	DiscountStats(ctx context.Context, since time.Time) (DiscountStats, error)
}

// Service assembles the sales report.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates an analytics Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// SalesReport computes the report for the trailing number of days. The
// independent aggregates run concurrently; the first failing query aborts
// the rest.
func (s *Service) SalesReport(ctx context.Context, days int) (*Report, error) {
	if days <= 0 {
		days = 30
	}
	now := s.now()
	since := now.AddDate(0, 0, -days)
	previousSince := since.AddDate(0, 0, -days)

	report := &Report{PeriodDays: days}
	var periodRevenue, previousRevenue decimal.Decimal

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		report.Summary.TotalRevenue, err = s.repo.TotalRevenue(gctx)
		return err
	})
	g.Go(func() (err error) {
		periodRevenue, err = s.repo.RevenueBetween(gctx, since, now)
		return err
	})
	g.Go(func() (err error) {
		previousRevenue, err = s.repo.RevenueBetween(gctx, previousSince, since)
		return err
	})
	g.Go(func() (err error) {
		report.Summary.PeriodOrders, err = s.repo.OrdersCreatedSince(gctx, since)
		return err
	})
	g.Go(func() (err error) {
		report.DailyRevenue, err = s.repo.DailyRevenue(gctx, since)
		return err
	})
	g.Go(func() (err error) {
		report.MonthlyRevenue, err = s.repo.MonthlyRevenue(gctx, 12)
		return err
	})
	g.Go(func() (err error) {
		report.TopProducts, err = s.repo.TopProducts(gctx, since, 10)
		return err
	})
	g.Go(func() (err error) {
		report.OrdersByStatus, err = s.repo.OrdersByStatus(gctx, since)
		return err
	})
	g.Go(func() (err error) {
		report.RecentOrders, err = s.repo.RecentOrders(gctx, 10)
		return err
	})
	g.Go(func() (err error) {
		report.Summary.Discounts, err = s.repo.DiscountStats(gctx, since)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report.Summary.PeriodRevenue = periodRevenue
	report.Summary.PreviousPeriodRevenue = previousRevenue
	if previousRevenue.IsPositive() {
		report.Summary.RevenueChangePercent = periodRevenue.Sub(previousRevenue).
			Div(previousRevenue).Mul(decimal.NewFromInt(100)).Round(2)
	}
	if report.Summary.PeriodOrders > 0 {
		report.Summary.AvgOrderValue = periodRevenue.
			Div(decimal.NewFromInt(int64(report.Summary.PeriodOrders))).Round(2)
	}
	return report, nil
}
