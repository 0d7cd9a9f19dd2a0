package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore guarda los settings como un único documento JSONB (fila id=1).
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore crea el store sobre un pool existente.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// Load lee el documento. ErrNotFound si la fila no existe todavía.
func (p *PGStore) Load(ctx context.Context) (Settings, error) {
	var doc []byte
	err := p.pool.QueryRow(ctx,
		`SELECT doc FROM connector_settings WHERE id = 1`,
	).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Settings{}, ErrNotFound
		}
		return Settings{}, fmt.Errorf("settings: select: %w", err)
	}

	var s Settings
	if err := json.Unmarshal(doc, &s); err != nil {
		return Settings{}, fmt.Errorf("settings: decode doc: %w", err)
	}
	return s, nil
}

// Save upsertea el documento completo.
func (p *PGStore) Save(ctx context.Context, s Settings) error {
	doc, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("settings: encode doc: %w", err)
	}

	_, err = p.pool.Exec(ctx, `
		INSERT INTO connector_settings (id, doc, updated_at)
		VALUES (1, $1, now())
		ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc, updated_at = now()
	`, doc)
	if err != nil {
		return fmt.Errorf("settings: upsert: %w", err)
	}
	return nil
}
