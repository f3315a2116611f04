package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/Bruce101github/crochethairbygg/internal/domain/analytics"
)

// revenueStatuses filters orders that count toward revenue. Pending and
// cancelled orders never do.
const revenueStatuses = `('paid', 'processing', 'shipped', 'delivered')`

const (
	totalRevenueSQL = `SELECT COALESCE(SUM(total), 0) FROM orders
		WHERE status IN ` + revenueStatuses

	revenueBetweenSQL = `SELECT COALESCE(SUM(total), 0) FROM orders
		WHERE status IN ` + revenueStatuses + ` AND created_at >= $1 AND created_at < $2`

	ordersCreatedSinceSQL = `SELECT COUNT(*) FROM orders WHERE created_at >= $1`

	dailyRevenueSQL = `SELECT date_trunc('day', created_at) AS day, COALESCE(SUM(total), 0)
		FROM orders
		WHERE status IN ` + revenueStatuses + ` AND created_at >= $1
		GROUP BY day ORDER BY day`

	monthlyRevenueSQL = `SELECT date_trunc('month', created_at) AS month, COALESCE(SUM(total), 0)
		FROM orders
		WHERE status IN ` + revenueStatuses + `
			AND created_at >= date_trunc('month', now()) - make_interval(months => $1)
		GROUP BY month ORDER BY month`

	topProductsSQL = `SELECT oi.product_title, SUM(oi.quantity)::int, COALESCE(SUM(oi.item_total), 0)
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE o.status IN ` + revenueStatuses + ` AND o.created_at >= $1
		GROUP BY oi.product_title
		ORDER BY SUM(oi.quantity) DESC
		LIMIT $2`

	ordersByStatusSQL = `SELECT status, COUNT(*)::int FROM orders
		WHERE created_at >= $1 GROUP BY status ORDER BY COUNT(*) DESC`

	recentOrdersSQL = `SELECT o.id,
		COALESCE(c.full_name, o.guest_name, ''), o.total, o.status, o.created_at
		FROM orders o LEFT JOIN customers c ON c.id = o.customer_id
		ORDER BY o.created_at DESC LIMIT $1`

	discountStatsSQL = `SELECT COALESCE(SUM(discount_amount), 0), COUNT(*)::int
		FROM orders
		WHERE status IN ` + revenueStatuses + `
			AND discount_code_id IS NOT NULL AND created_at >= $1`
)

var _ analytics.Repository = (*AnalyticsRepository)(nil)

// AnalyticsRepository implements analytics.Repository backed by PostgreSQL.
// All aggregation stays in SQL; Go only assembles the report.
type AnalyticsRepository struct {
	pool *pgxpool.Pool
}

// NewAnalyticsRepository returns an AnalyticsRepository that uses the given pool.
func NewAnalyticsRepository(pool *pgxpool.Pool) *AnalyticsRepository {
	return &AnalyticsRepository{pool: pool}
}

func (r *AnalyticsRepository) TotalRevenue(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.Decimal
	if err := r.pool.QueryRow(ctx, totalRevenueSQL).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("computing total revenue: %w", err)
	}
	return total, nil
}

func (r *AnalyticsRepository) RevenueBetween(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	var total decimal.Decimal
	if err := r.pool.QueryRow(ctx, revenueBetweenSQL, from, to).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("computing revenue between %s and %s: %w",
			from.Format(time.DateOnly), to.Format(time.DateOnly), err)
	}
	return total, nil
}

func (r *AnalyticsRepository) OrdersCreatedSince(ctx context.Context, since time.Time) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, ordersCreatedSinceSQL, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting orders: %w", err)
	}
	return count, nil
}

func (r *AnalyticsRepository) DailyRevenue(ctx context.Context, since time.Time) ([]analytics.DailyRevenue, error) {
	rows, err := r.pool.Query(ctx, dailyRevenueSQL, since)
	if err != nil {
		return nil, fmt.Errorf("computing daily revenue: %w", err)
	}

	days, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (analytics.DailyRevenue, error) {
		var d analytics.DailyRevenue
		err := row.Scan(&d.Date, &d.Revenue)
		return d, err
	})
	if err != nil {
		return nil, fmt.Errorf("computing daily revenue: %w", err)
	}
	return days, nil
}

func (r *AnalyticsRepository) MonthlyRevenue(ctx context.Context, months int) ([]analytics.MonthlyRevenue, error) {
	rows, err := r.pool.Query(ctx, monthlyRevenueSQL, months)
	if err != nil {
		return nil, fmt.Errorf("computing monthly revenue: %w", err)
	}

	result, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (analytics.MonthlyRevenue, error) {
		var m analytics.MonthlyRevenue
		err := row.Scan(&m.Month, &m.Revenue)
		return m, err
	})
	if err != nil {
		return nil, fmt.Errorf("computing monthly revenue: %w", err)
	}
	return result, nil
}

func (r *AnalyticsRepository) TopProducts(ctx context.Context, since time.Time, limit int) ([]analytics.TopProduct, error) {
	rows, err := r.pool.Query(ctx, topProductsSQL, since, limit)
	if err != nil {
		return nil, fmt.Errorf("computing top products: %w", err)
	}

	products, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (analytics.TopProduct, error) {
		var p analytics.TopProduct
		err := row.Scan(&p.ProductTitle, &p.QuantitySold, &p.Revenue)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("computing top products: %w", err)
	}
	return products, nil
}

func (r *AnalyticsRepository) OrdersByStatus(ctx context.Context, since time.Time) ([]analytics.StatusCount, error) {
	rows, err := r.pool.Query(ctx, ordersByStatusSQL, since)
	if err != nil {
		return nil, fmt.Errorf("counting orders by status: %w", err)
	}

	counts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (analytics.StatusCount, error) {
		var c analytics.StatusCount
		err := row.Scan(&c.Status, &c.Count)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("counting orders by status: %w", err)
	}
	return counts, nil
}

func (r *AnalyticsRepository) RecentOrders(ctx context.Context, limit int) ([]analytics.RecentOrder, error) {
	rows, err := r.pool.Query(ctx, recentOrdersSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("listing recent orders: %w", err)
	}

	orders, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (analytics.RecentOrder, error) {
		var o analytics.RecentOrder
		err := row.Scan(&o.ID, &o.Buyer, &o.Total, &o.Status, &o.CreatedAt)
		return o, err
	})
	if err != nil {
		return nil, fmt.Errorf("listing recent orders: %w", err)
	}
	return orders, nil
}

func (r *AnalyticsRepository) DiscountStats(ctx context.Context, since time.Time) (analytics.DiscountStats, error) {
	var stats analytics.DiscountStats
	err := r.pool.QueryRow(ctx, discountStatsSQL, since).
		Scan(&stats.TotalDiscount, &stats.OrderCount)
	if err != nil {
		return analytics.DiscountStats{}, fmt.Errorf("computing discount stats: %w", err)
	}
	return stats, nil
}
