package http

import (
	stdhttp "net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rebuildhq/storeconnect/internal/audit"
	apierrors "github.com/rebuildhq/storeconnect/internal/http/errors"
	"github.com/rebuildhq/storeconnect/internal/http/handlers"
	"github.com/rebuildhq/storeconnect/internal/http/middlewares"
	"github.com/rebuildhq/storeconnect/internal/jwtauth"
	"github.com/rebuildhq/storeconnect/internal/rate"
	"github.com/rebuildhq/storeconnect/internal/settings"
)

// =================================================================================
// ROUTER
// =================================================================================

// Deps agrupa todo lo que el router necesita para armar la cadena completa.
type Deps struct {
	Settings *settings.Service
	Codec    *jwtauth.Codec
	Limiter  rate.Limiter
	Audit    *audit.Logger
	Handlers *handlers.Handlers
}

// NewRouter arma el mux con la cadena global y los scopes por grupo de rutas.
//
// Orden de la cadena: request id -> métricas -> logging -> recover ->
// allowlist de IPs -> rate limit por IP. La autenticación y el rate limit
// por token se aplican por grupo vía RequireAuth.
func NewRouter(d Deps) stdhttp.Handler {
	r := chi.NewRouter()

	r.NotFound(func(w stdhttp.ResponseWriter, req *stdhttp.Request) {
		apierrors.WriteError(w, apierrors.ErrNotFound)
	})
	r.MethodNotAllowed(func(w stdhttp.ResponseWriter, req *stdhttp.Request) {
		if allowed := allowedMethods(r, req); allowed != "" {
			w.Header().Set("Allow", allowed)
		}
		apierrors.WriteError(w, apierrors.ErrMethodNotAllowed)
	})

	// Públicas
	r.Get("/health", d.Handlers.Health)
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/api/auth/token", d.Handlers.TokenExchange)

	require := func(scopes ...string) middlewares.Middleware {
		return middlewares.RequireAuth(d.Codec, d.Settings, d.Audit, scopes...)
	}

	r.Route("/api", func(api chi.Router) {
		api.Group(func(g chi.Router) {
			g.Use(require("orders.read"))
			g.Get("/orders", d.Handlers.ListOrders)
			g.Get("/orders/{id}", d.Handlers.GetOrder)
		})
		api.Group(func(g chi.Router) {
			g.Use(require("orders.write"))
			g.Patch("/orders/{id}/status", d.Handlers.UpdateOrderStatus)
		})

		api.Group(func(g chi.Router) {
			g.Use(require("products.read"))
			g.Get("/products", d.Handlers.ListProducts)
			g.Get("/products/{id}", d.Handlers.GetProduct)
		})
		api.Group(func(g chi.Router) {
			g.Use(require("products.write"))
			g.Patch("/products/{id}/price", d.Handlers.UpdateProductPrice)
		})
		api.Group(func(g chi.Router) {
			g.Use(require("stock.write"))
			g.Put("/products/{id}/stock", d.Handlers.UpdateProductStock)
		})

		api.Group(func(g chi.Router) {
			g.Use(require("customers.read"))
			g.Get("/customers", d.Handlers.ListCustomers)
			g.Get("/customers/{id}", d.Handlers.GetCustomer)
		})

		api.Group(func(g chi.Router) {
			g.Use(require("baskets.read"))
			g.Get("/baskets", d.Handlers.ListBaskets)
			g.Get("/baskets/{id}", d.Handlers.GetBasket)
		})

		api.Group(func(g chi.Router) {
			g.Use(require("dashboard.read"))
			g.Get("/dashboard/summary", d.Handlers.DashboardSummary)
		})

		api.Group(func(g chi.Router) {
			g.Use(require("reports.read"))
			g.Get("/reports/{resource}", d.Handlers.Reports)
		})

		api.Group(func(g chi.Router) {
			g.Use(require("notifications.send"))
			g.Post("/notifications/events", d.Handlers.DispatchEvent)
			g.Post("/notifications/devices", d.Handlers.RegisterDevice)
			g.Delete("/notifications/devices", d.Handlers.UnregisterDevice)
		})
	})

	return middlewares.Chain(r,
		middlewares.WithRequestID(),
		WithMetrics(),
		middlewares.WithLogging(),
		middlewares.WithRecover(),
		middlewares.WithIPGate(d.Settings, d.Audit),
		middlewares.WithRequestLimiter(d.Limiter),
		middlewares.WithIPRateLimit(d.Settings),
	)
}


// allowedMethods recorre los verbos estándar y arma el header Allow.
func allowedMethods(r chi.Router, req *stdhttp.Request) string {
	methods := []string{
		stdhttp.MethodGet, stdhttp.MethodPost, stdhttp.MethodPut,
		stdhttp.MethodPatch, stdhttp.MethodDelete,
	}
	var allowed []string
	rctx := chi.NewRouteContext()
	for _, m := range methods {
		if r.Match(rctx, m, req.URL.Path) {
			allowed = append(allowed, m)
		}
	}
	return strings.Join(allowed, ", ")
}
