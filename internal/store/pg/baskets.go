package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/rebuildhq/storeconnect/internal/store/core"
)

const basketCols = `b.id, b.customer_id, b.item_count, b.has_order, b.created_at, b.updated_at`

func scanBasket(row pgx.Row) (core.Basket, error) {
	var b core.Basket
	err := row.Scan(&b.ID, &b.CustomerID, &b.ItemCount, &b.HasOrder, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Basket{}, core.ErrNotFound
	}
	return b, err
}

func (s *Store) ListBaskets(ctx context.Context, f core.BasketFilter, limit, offset int) ([]core.Basket, error) {
	q := `SELECT ` + basketCols + ` FROM baskets b WHERE 1=1`
	args := []any{}

	if f.CustomerID > 0 {
		args = append(args, f.CustomerID)
		q += fmt.Sprintf(" AND b.customer_id = $%d", len(args))
	}
	if f.HasOrder != nil {
		args = append(args, *f.HasOrder)
		q += fmt.Sprintf(" AND b.has_order = $%d", len(args))
	}
	if f.AbandonedSinceDays > 0 {
		args = append(args, f.AbandonedSinceDays)
		q += fmt.Sprintf(" AND NOT b.has_order AND b.updated_at < now() - make_interval(days => $%d)", len(args))
	}
	if !f.DateFrom.IsZero() {
		args = append(args, f.DateFrom)
		q += fmt.Sprintf(" AND b.created_at >= $%d", len(args))
	}
	if !f.DateTo.IsZero() {
		args = append(args, f.DateTo)
		q += fmt.Sprintf(" AND b.created_at <= $%d", len(args))
	}

	args = append(args, limit, offset)
	q += fmt.Sprintf(" ORDER BY b.updated_at DESC, b.id DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("pg: list baskets: %w", err)
	}
	defer rows.Close()

	out := make([]core.Basket, 0, limit)
	for rows.Next() {
		b, err := scanBasket(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *Store) GetBasket(ctx context.Context, id int64) (core.Basket, error) {
	return scanBasket(s.pool.QueryRow(ctx,
		`SELECT `+basketCols+` FROM baskets b WHERE b.id = $1`, id))
}
