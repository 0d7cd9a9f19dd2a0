package rate

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultPruneHorizon es la antigüedad por defecto a partir de la cual se
// borran ventanas viejas.
const DefaultPruneHorizon = 180 * time.Minute

// PGLimiter cuenta hits en Postgres con un upsert atómico por
// (identifier, period_start). Sobrevive reinicios y sirve para despliegues
// sin Redis.
type PGLimiter struct {
	pool *pgxpool.Pool
}

// NewPGLimiter crea el limiter sobre un pool existente.
func NewPGLimiter(pool *pgxpool.Pool) *PGLimiter {
	return &PGLimiter{pool: pool}
}

func (l *PGLimiter) Allow(ctx context.Context, identifier string, limit int) (Result, error) {
	now := time.Now().UTC()
	winStart := now.Truncate(Window)

	var hits int64
	err := l.pool.QueryRow(ctx, `
		INSERT INTO rate_limit (identifier, period_start, hits)
		VALUES ($1, $2, 1)
		ON CONFLICT (identifier, period_start)
		DO UPDATE SET hits = rate_limit.hits + 1
		RETURNING hits
	`, identifier, winStart).Scan(&hits)
	if err != nil {
		return Result{}, fmt.Errorf("rate: upsert: %w", err)
	}

	remaining := winStart.Add(Window).Sub(now)
	return verdict(hits, limit, remaining), nil
}

// Prune borra ventanas anteriores al horizonte. Devuelve filas eliminadas.
func (l *PGLimiter) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		olderThan = DefaultPruneHorizon
	}
	horizon := time.Now().UTC().Add(-olderThan).Truncate(Window)

	tag, err := l.pool.Exec(ctx,
		`DELETE FROM rate_limit WHERE period_start < $1`, horizon)
	if err != nil {
		return 0, fmt.Errorf("rate: prune: %w", err)
	}
	return tag.RowsAffected(), nil
}
