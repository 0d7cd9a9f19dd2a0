package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/rebuildhq/storeconnect/internal/store/core"
)

const orderCols = `id, reference, customer_id, status, total_paid, currency, created_at, updated_at`

func scanOrder(row pgx.Row) (core.Order, error) {
	var o core.Order
	err := row.Scan(&o.ID, &o.Reference, &o.CustomerID, &o.Status, &o.TotalPaid, &o.Currency, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Order{}, core.ErrNotFound
	}
	return o, err
}

func (s *Store) ListOrders(ctx context.Context, f core.OrderFilter, limit, offset int) ([]core.Order, error) {
	q := `SELECT ` + orderCols + ` FROM orders WHERE 1=1`
	args := []any{}

	if f.CustomerID > 0 {
		args = append(args, f.CustomerID)
		q += fmt.Sprintf(" AND customer_id = $%d", len(args))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		q += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if !f.DateFrom.IsZero() {
		args = append(args, f.DateFrom)
		q += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	if !f.DateTo.IsZero() {
		args = append(args, f.DateTo)
		q += fmt.Sprintf(" AND created_at <= $%d", len(args))
	}

	args = append(args, limit, offset)
	q += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("pg: list orders: %w", err)
	}
	defer rows.Close()

	out := make([]core.Order, 0, limit)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *Store) GetOrder(ctx context.Context, id int64) (core.Order, error) {
	return scanOrder(s.pool.QueryRow(ctx,
		`SELECT `+orderCols+` FROM orders WHERE id = $1`, id))
}

func (s *Store) UpdateOrderStatus(ctx context.Context, id int64, status string) (core.Order, error) {
	return scanOrder(s.pool.QueryRow(ctx, `
		UPDATE orders SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+orderCols, id, status))
}
