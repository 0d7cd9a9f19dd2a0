package middlewares

import (
	"net/http"

	"github.com/rebuildhq/storeconnect/internal/audit"
	apierrors "github.com/rebuildhq/storeconnect/internal/http/errors"
	"github.com/rebuildhq/storeconnect/internal/ipallow"
	"github.com/rebuildhq/storeconnect/internal/observability/logger"
)

// AllowlistSource entrega la allowlist vigente (puede cambiar en caliente).
type AllowlistSource interface {
	AllowedIPs() []string
}

// WithIPGate rechaza requests cuya IP de origen no esté en la allowlist.
// Allowlist vacía deja pasar todo. El rechazo se audita como ip.denied.
func WithIPGate(src AllowlistSource, auditLog *audit.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			al := ipallow.New(src.AllowedIPs())
			if al.Empty() {
				next.ServeHTTP(w, r)
				return
			}

			ip := clientIP(r)
			if !al.Allowed(ip) {
				logger.From(r.Context()).Warn("ip denied", logger.ClientIP(ip))
				auditLog.Record(r.Context(), audit.Entry{
					Event: "security.ip_denied",
					IP:    ip,
					Detail: map[string]any{
						"path": r.URL.Path,
					},
				})
				apierrors.WriteError(w, apierrors.ErrForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
