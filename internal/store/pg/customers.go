package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/rebuildhq/storeconnect/internal/store/core"
)

const customerCols = `id, email, first_name, last_name, created_at`

func scanCustomer(row pgx.Row) (core.Customer, error) {
	var c core.Customer
	err := row.Scan(&c.ID, &c.Email, &c.FirstName, &c.LastName, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Customer{}, core.ErrNotFound
	}
	return c, err
}

func (s *Store) ListCustomers(ctx context.Context, limit, offset int) ([]core.Customer, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+customerCols+` FROM customers ORDER BY id LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("pg: list customers: %w", err)
	}
	defer rows.Close()

	out := make([]core.Customer, 0, limit)
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) GetCustomer(ctx context.Context, id int64) (core.Customer, error) {
	return scanCustomer(s.pool.QueryRow(ctx,
		`SELECT `+customerCols+` FROM customers WHERE id = $1`, id))
}
