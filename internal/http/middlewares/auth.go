package middlewares

import (
	"net/http"
	"strings"

	"github.com/rebuildhq/storeconnect/internal/audit"
	apierrors "github.com/rebuildhq/storeconnect/internal/http/errors"
	"github.com/rebuildhq/storeconnect/internal/jwtauth"
)

// RequireAuth es el guard de los endpoints protegidos. En orden:
// bearer → verificación del token → scopes (TODOS los requeridos) → rate
// limit por subject → auditoría api.request (una sola vez por request).
//
// Un 401 nunca distingue entre token ausente, malformado, expirado o con
// firma inválida.
func RequireAuth(codec *jwtauth.Codec, limits LimitSource, auditLog *audit.Logger, requiredScopes ...string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				unauthorized(w)
				return
			}

			claims, err := codec.Verify(raw)
			if err != nil {
				unauthorized(w)
				return
			}

			granted := jwtauth.ExtractScopes(claims)
			if !jwtauth.HasAllScopes(granted, requiredScopes...) {
				apierrors.WriteError(w, apierrors.ErrForbidden)
				return
			}

			// El identificador combina subject e IP: un mismo token desde
			// dos orígenes cuenta por separado.
			subject := jwtauth.Subject(claims)
			if !allowOrReject(w, r, "token:"+subject+"@"+clientIP(r), limits) {
				return
			}

			if markAudited(r.Context()) {
				auditLog.Record(r.Context(), audit.Entry{
					Event:   "api.request",
					Subject: subject,
					Scopes:  granted,
					IP:      clientIP(r),
					Detail: map[string]any{
						"method": r.Method,
						"path":   r.URL.Path,
					},
				})
			}

			ctx := WithClaims(r.Context(), claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken extrae el token del header Authorization ("" si no hay).
func bearerToken(r *http.Request) string {
	ah := strings.TrimSpace(r.Header.Get("Authorization"))
	if ah == "" {
		return ""
	}
	if !strings.HasPrefix(strings.ToLower(ah), "bearer ") {
		return ""
	}
	return strings.TrimSpace(ah[len("bearer "):])
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="storeconnect"`)
	apierrors.WriteError(w, apierrors.ErrUnauthenticated)
}
