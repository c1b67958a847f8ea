package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/xenking/burger-shop/internal/domain/order"
	"github.com/xenking/burger-shop/internal/domain/store"
)

const (
	statusTotalsSQL = `SELECT status, COUNT(*) FROM orders GROUP BY status ORDER BY status`

	monthlyTrendSQL = `SELECT to_char(date_trunc('month', created_at AT TIME ZONE 'UTC'), 'YYYY-MM') AS month,
	COUNT(*)
	FROM orders
	WHERE created_at >= $1 AND created_at < $2
	GROUP BY month
	ORDER BY month`

	// Ties on quantity keep the product that was ordered first.
	topSellingSQL = `SELECT oi.product_id, COALESCE(p.title, ''), SUM(oi.quantity) AS total
	FROM orders_items oi
	LEFT JOIN products p ON p.id = oi.product_id
	GROUP BY oi.product_id, p.title
	ORDER BY total DESC, MIN(oi.id)
	LIMIT $1`
)

var _ order.Reporter = (*OrderRepository)(nil)

// StatusTotals counts orders per status.
func (r *OrderRepository) StatusTotals(ctx context.Context) (*order.StatusTotals, error) {
	rows, err := r.q.Query(ctx, statusTotalsSQL)
	if err != nil {
		return nil, store.Wrap(err, "status totals")
	}
	breakdown, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (order.StatusCount, error) {
		var (
			c      order.StatusCount
			status string
		)
		err := row.Scan(&status, &c.Total)
		c.Status = order.Status(status)
		return c, err
	})
	if err != nil {
		return nil, store.Wrap(err, "status totals")
	}

	totals := &order.StatusTotals{Breakdown: breakdown}
	for _, c := range breakdown {
		totals.TotalOrders += c.Total
	}
	return totals, nil
}

// MonthlyTrend counts orders per UTC calendar month in [since, until).
func (r *OrderRepository) MonthlyTrend(ctx context.Context, since, until time.Time) ([]order.MonthCount, error) {
	rows, err := r.q.Query(ctx, monthlyTrendSQL, since, until)
	if err != nil {
		return nil, store.Wrap(err, "monthly trend")
	}
	months, err := pgx.CollectRows(rows, pgx.RowToStructByPos[order.MonthCount])
	if err != nil {
		return nil, store.Wrap(err, "monthly trend")
	}
	return months, nil
}

// TopSellingProducts ranks products by the summed quantity of their line
// items.
func (r *OrderRepository) TopSellingProducts(ctx context.Context, limit int) ([]order.TopProduct, error) {
	rows, err := r.q.Query(ctx, topSellingSQL, limit)
	if err != nil {
		return nil, store.Wrap(err, "top selling products")
	}
	top, err := pgx.CollectRows(rows, pgx.RowToStructByPos[order.TopProduct])
	if err != nil {
		return nil, store.Wrap(err, "top selling products")
	}
	return top, nil
}
