package pg

import (
	"context"
	"fmt"
	"time"

	"github.com/rebuildhq/storeconnect/internal/store/core"
)

const defaultReportLimit = 10

func reportRange(f core.ReportFilter) (from, to time.Time, limit int) {
	limit = f.Limit
	if limit <= 0 {
		limit = defaultReportLimit
	}
	from = f.DateFrom
	if from.IsZero() {
		from = time.Now().UTC().AddDate(0, -1, 0)
	}
	to = f.DateTo
	if to.IsZero() {
		to = time.Now().UTC()
	}
	return from, to, limit
}

func (s *Store) BestSellers(ctx context.Context, f core.ReportFilter) ([]core.BestSeller, error) {
	from, to, limit := reportRange(f)

	rows, err := s.pool.Query(ctx, `
		SELECT p.id, p.name, SUM(ol.quantity) AS quantity_sold, SUM(ol.quantity * ol.unit_price) AS revenue
		FROM order_lines ol
		JOIN orders o ON o.id = ol.order_id
		JOIN products p ON p.id = ol.product_id
		WHERE o.created_at BETWEEN $1 AND $2
		GROUP BY p.id, p.name
		ORDER BY quantity_sold DESC
		LIMIT $3
	`, from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("pg: best sellers: %w", err)
	}
	defer rows.Close()

	out := make([]core.BestSeller, 0, limit)
	for rows.Next() {
		var r core.BestSeller
		if err := rows.Scan(&r.ProductID, &r.Name, &r.QuantitySold, &r.Revenue); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) BestCustomers(ctx context.Context, f core.ReportFilter) ([]core.BestCustomer, error) {
	from, to, limit := reportRange(f)

	rows, err := s.pool.Query(ctx, `
		SELECT c.id, c.email, COUNT(o.id) AS orders_count, COALESCE(SUM(o.total_paid), 0) AS total_spent
		FROM customers c
		JOIN orders o ON o.customer_id = c.id
		WHERE o.created_at BETWEEN $1 AND $2
		GROUP BY c.id, c.email
		ORDER BY total_spent DESC
		LIMIT $3
	`, from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("pg: best customers: %w", err)
	}
	defer rows.Close()

	out := make([]core.BestCustomer, 0, limit)
	for rows.Next() {
		var r core.BestCustomer
		if err := rows.Scan(&r.CustomerID, &r.Email, &r.OrdersCount, &r.TotalSpent); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Summary calcula las métricas del dashboard en una sola pasada.
func (s *Store) Summary(ctx context.Context, from, to time.Time) (core.DashboardSummary, error) {
	if from.IsZero() {
		from = time.Now().UTC().AddDate(0, -1, 0)
	}
	if to.IsZero() {
		to = time.Now().UTC()
	}

	var sum core.DashboardSummary
	err := s.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM orders WHERE created_at BETWEEN $1 AND $2),
			(SELECT COALESCE(SUM(total_paid), 0) FROM orders WHERE created_at BETWEEN $1 AND $2),
			(SELECT COUNT(*) FROM customers WHERE created_at BETWEEN $1 AND $2),
			(SELECT COUNT(*) FROM baskets WHERE NOT has_order AND created_at BETWEEN $1 AND $2)
	`, from, to).Scan(&sum.Orders, &sum.Revenue, &sum.Customers, &sum.AbandonedBaskets)
	if err != nil {
		return core.DashboardSummary{}, fmt.Errorf("pg: dashboard summary: %w", err)
	}
	return sum, nil
}
