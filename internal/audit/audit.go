// Package audit registra el rastro de auditoría del API.
// Las escrituras son best-effort: una falla del recorder se loguea y se
// descarta, nunca voltea el request que la originó.
package audit

import (
	"context"
	"strings"
	"time"

	"github.com/rebuildhq/storeconnect/internal/observability/logger"
)

// Límites de truncado por columna. Se aplican antes de escribir para que
// ningún recorder rechace una entrada por largo.
const (
	MaxEventLen   = 64
	MaxSubjectLen = 120
	MaxScopesLen  = 255
	MaxIPLen      = 64
)

// Entry es un evento de auditoría.
type Entry struct {
	Event   string
	Subject string
	Scopes  []string
	IP      string
	At      time.Time
	Detail  map[string]any
}

// Recorder persiste entradas. Las implementaciones pueden devolver error;
// Logger lo absorbe.
type Recorder interface {
	Record(ctx context.Context, e Entry) error
}

// Logger es el frente del paquete: trunca, completa el timestamp y escribe
// sin propagar fallas.
type Logger struct {
	rec Recorder
}

// New crea el logger de auditoría sobre rec.
func New(rec Recorder) *Logger {
	return &Logger{rec: rec}
}

// Record trunca y persiste la entrada. Nunca devuelve error.
func (l *Logger) Record(ctx context.Context, e Entry) {
	if l == nil || l.rec == nil {
		return
	}
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}

	e.Event = truncate(e.Event, MaxEventLen)
	e.Subject = truncate(e.Subject, MaxSubjectLen)
	e.IP = truncate(e.IP, MaxIPLen)
	e.Scopes = truncateScopes(e.Scopes, MaxScopesLen)

	if err := l.rec.Record(ctx, e); err != nil {
		logger.From(ctx).Warn("audit write failed",
			logger.Component("audit"),
			logger.Event(e.Event),
			logger.Err(err),
		)
	}
}

// truncate corta s a max bytes.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

// truncateScopes corta la lista para que el join con espacios entre en max.
func truncateScopes(scopes []string, max int) []string {
	joined := strings.Join(scopes, " ")
	if len(joined) <= max {
		return scopes
	}
	out := make([]string, 0, len(scopes))
	used := 0
	for _, s := range scopes {
		need := len(s)
		if used > 0 {
			need++ // separador
		}
		if used+need > max {
			break
		}
		out = append(out, s)
		used += need
	}
	return out
}
