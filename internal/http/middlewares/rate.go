package middlewares

import (
	"net/http"
	"strconv"
	"time"

	apierrors "github.com/rebuildhq/storeconnect/internal/http/errors"
	"github.com/rebuildhq/storeconnect/internal/observability/logger"
	"github.com/rebuildhq/storeconnect/internal/rate"
)

// LimitSource entrega la configuración de rate limiting vigente.
type LimitSource interface {
	RateLimitEnabled() bool
	RateLimitPerMinute() int
}

// WithRequestLimiter instala un memo de rate limiting por request sobre el
// limiter compartido. Los guards que corran después (IP, token) consultan el
// backend una sola vez por par identificador|límite.
func WithRequestLimiter(limiter rate.Limiter) Middleware {
	if limiter == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := withLimiter(r.Context(), rate.NewMemo(limiter))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithIPRateLimit limita por IP de origen antes de autenticar.
// Errores del limiter fallan abiertos: mejor servir que voltear el API por
// un backend de conteo caído.
func WithIPRateLimit(limits LimitSource) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !allowOrReject(w, r, "ip:"+clientIP(r), limits) {
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// allowOrReject consulta el memo del request y escribe el 429 si corresponde.
// Devuelve false si el request ya fue respondido.
func allowOrReject(w http.ResponseWriter, r *http.Request, identifier string, limits LimitSource) bool {
	if !limits.RateLimitEnabled() {
		return true
	}
	memo := requestLimiter(r.Context())
	if memo == nil {
		return true
	}

	res, err := memo.Allow(r.Context(), identifier, limits.RateLimitPerMinute())
	if err != nil {
		logger.From(r.Context()).Warn("rate limiter error", logger.Key(identifier), logger.Err(err))
		return true
	}

	if res.WindowTTL > 0 {
		resetAt := time.Now().Add(res.WindowTTL).Unix()
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetAt, 10))
	}

	if !res.Allowed {
		if res.RetryAfter > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(int(res.RetryAfter.Seconds())))
		}
		apierrors.WriteError(w, apierrors.ErrRateLimited)
		return false
	}

	w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))
	return true
}
