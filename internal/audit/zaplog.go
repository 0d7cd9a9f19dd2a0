package audit

import (
	"context"

	"github.com/rebuildhq/storeconnect/internal/observability/logger"
)

// ZapRecorder emite cada entrada como línea de log estructurada.
// Es el recorder por defecto cuando no hay base de datos configurada.
type ZapRecorder struct{}

func (ZapRecorder) Record(ctx context.Context, e Entry) error {
	logger.From(ctx).Info("audit",
		logger.Event(e.Event),
		logger.Subject(e.Subject),
		logger.Scopes(e.Scopes),
		logger.ClientIP(e.IP),
		logger.Any("detail", e.Detail),
	)
	return nil
}
