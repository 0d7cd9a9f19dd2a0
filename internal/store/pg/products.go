package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/rebuildhq/storeconnect/internal/store/core"
)

const productCols = `id, name, reference, price, quantity, active, updated_at`

func scanProduct(row pgx.Row) (core.Product, error) {
	var p core.Product
	err := row.Scan(&p.ID, &p.Name, &p.Reference, &p.Price, &p.Quantity, &p.Active, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Product{}, core.ErrNotFound
	}
	return p, err
}

func (s *Store) ListProducts(ctx context.Context, limit, offset int) ([]core.Product, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+productCols+` FROM products ORDER BY id LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("pg: list products: %w", err)
	}
	defer rows.Close()

	out := make([]core.Product, 0, limit)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) GetProduct(ctx context.Context, id int64) (core.Product, error) {
	return scanProduct(s.pool.QueryRow(ctx,
		`SELECT `+productCols+` FROM products WHERE id = $1`, id))
}

func (s *Store) UpdateProductPrice(ctx context.Context, id int64, price float64) (core.Product, error) {
	return scanProduct(s.pool.QueryRow(ctx, `
		UPDATE products SET price = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+productCols, id, price))
}

func (s *Store) UpdateProductStock(ctx context.Context, id int64, quantity int) (core.Product, error) {
	return scanProduct(s.pool.QueryRow(ctx, `
		UPDATE products SET quantity = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+productCols, id, quantity))
}
