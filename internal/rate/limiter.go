// Package rate implementa el límite de requests por minuto: ventana fija
// anclada al minuto de reloj, conteo increment-then-read.
package rate

import (
	"context"
	"time"
)

// Window es la ventana fija del limiter.
const Window = time.Minute

// Result es el veredicto de una consulta al limiter.
type Result struct {
	Allowed     bool
	Remaining   int64
	RetryAfter  time.Duration
	WindowTTL   time.Duration
	CurrentHits int64
}

// Limiter cuenta hits por identificador en ventanas de un minuto.
// El request que llega al límite pasa; el límite+1 se rechaza.
type Limiter interface {
	Allow(ctx context.Context, identifier string, limit int) (Result, error)
}

// verdict arma un Result desde el conteo y el fin de ventana.
func verdict(hits int64, limit int, remainingWindow time.Duration) Result {
	allowed := hits <= int64(limit)
	remaining := int64(limit) - hits
	if remaining < 0 {
		remaining = 0
	}
	res := Result{
		Allowed:     allowed,
		Remaining:   remaining,
		CurrentHits: hits,
		WindowTTL:   remainingWindow,
	}
	if !allowed {
		res.RetryAfter = remainingWindow
		if res.RetryAfter <= 0 {
			res.RetryAfter = Window
		}
	}
	return res
}
