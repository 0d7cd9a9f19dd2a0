package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGRecorder escribe el audit log en Postgres.
type PGRecorder struct {
	pool *pgxpool.Pool
}

// NewPGRecorder crea el recorder sobre un pool existente.
func NewPGRecorder(pool *pgxpool.Pool) *PGRecorder {
	return &PGRecorder{pool: pool}
}

func (r *PGRecorder) Record(ctx context.Context, e Entry) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO audit_log (id, event, subject, scopes, ip, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, uuid.NewString(), e.Event, e.Subject, strings.Join(e.Scopes, " "), e.IP, encodeDetail(e.Detail), e.At)
	if err != nil {
		return fmt.Errorf("audit: insert: %w", err)
	}
	return nil
}

// encodeDetail serializa el contexto del evento. Un detail que no se pueda
// codificar no tumba la fila: se registra como objeto vacío.
func encodeDetail(detail map[string]any) []byte {
	if len(detail) == 0 {
		return []byte("{}")
	}
	b, err := json.Marshal(detail)
	if err != nil {
		return []byte("{}")
	}
	return b
}
