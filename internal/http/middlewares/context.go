package middlewares

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/rebuildhq/storeconnect/internal/rate"
)

// =================================================================================
// CONTEXT KEYS
// =================================================================================

type ctxKey string

const (
	// ctxClaimsKey guarda las claims JWT parseadas
	ctxClaimsKey ctxKey = "claims"
	// ctxRequestIDKey guarda el request ID
	ctxRequestIDKey ctxKey = "request_id"
	// ctxLimiterKey guarda el memo de rate limiting del request
	ctxLimiterKey ctxKey = "limiter"
	// ctxAuditedKey marca si el request ya fue auditado
	ctxAuditedKey ctxKey = "audited"
)

// =================================================================================
// CONTEXT SETTERS (Internos, usados por middlewares)
// =================================================================================

// WithClaims inyecta claims en el contexto
func WithClaims(ctx context.Context, claims map[string]any) context.Context {
	return context.WithValue(ctx, ctxClaimsKey, claims)
}

// setRequestID inyecta el request ID en el contexto (interno)
func setRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxRequestIDKey, requestID)
}

// withLimiter inyecta el memo de rate limiting del request (interno)
func withLimiter(ctx context.Context, m *rate.Memo) context.Context {
	return context.WithValue(ctx, ctxLimiterKey, m)
}

// withAuditMarker instala el marcador de auditoría del request (interno)
func withAuditMarker(ctx context.Context) context.Context {
	return context.WithValue(ctx, ctxAuditedKey, new(atomic.Bool))
}

// =================================================================================
// CONTEXT GETTERS (Públicos, usados por handlers/guards)
// =================================================================================

// GetClaims obtiene las claims JWT del contexto.
// Retorna nil si no hay claims (token no validado o middleware no aplicado).
func GetClaims(ctx context.Context) map[string]any {
	if v := ctx.Value(ctxClaimsKey); v != nil {
		if m, ok := v.(map[string]any); ok {
			return m
		}
	}
	return nil
}

// GetRequestID obtiene el request ID del contexto.
// Retorna cadena vacía si no hay request ID.
func GetRequestID(ctx context.Context) string {
	if v := ctx.Value(ctxRequestIDKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// requestLimiter obtiene el memo del request (nil si no está instalado).
func requestLimiter(ctx context.Context) *rate.Memo {
	if v := ctx.Value(ctxLimiterKey); v != nil {
		if m, ok := v.(*rate.Memo); ok {
			return m
		}
	}
	return nil
}

// markAudited marca el request como auditado. Devuelve true solo la primera
// vez: las siguientes llamadas en el mismo request ven false.
func markAudited(ctx context.Context) bool {
	if v := ctx.Value(ctxAuditedKey); v != nil {
		if b, ok := v.(*atomic.Bool); ok {
			return b.CompareAndSwap(false, true)
		}
	}
	// Sin marcador instalado: auditar igual (mejor duplicar que perder)
	return true
}

// =================================================================================
// CLIENT IP
// =================================================================================

// clientIP extrae la IP del cliente, considerando proxies.
func clientIP(r *http.Request) string {
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		parts := strings.Split(xf, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}

// ClientIP expone la extracción de IP para handlers (audit, logs).
func ClientIP(r *http.Request) string { return clientIP(r) }
