// Package handlers implementa los endpoints del API del conector.
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/rebuildhq/storeconnect/internal/audit"
	apierrors "github.com/rebuildhq/storeconnect/internal/http/errors"
	"github.com/rebuildhq/storeconnect/internal/http/middlewares"
	"github.com/rebuildhq/storeconnect/internal/jwtauth"
	"github.com/rebuildhq/storeconnect/internal/notify"
	"github.com/rebuildhq/storeconnect/internal/observability/logger"
	"github.com/rebuildhq/storeconnect/internal/settings"
	"github.com/rebuildhq/storeconnect/internal/store/core"
)

// Handlers agrupa los endpoints con sus dependencias.
type Handlers struct {
	Settings   *settings.Service
	Codec      *jwtauth.Codec
	Audit      *audit.Logger
	Store      core.Store
	Devices    *notify.DeviceService
	Dispatcher *notify.Dispatcher
	Version    string
}

// idParam parsea el path param {id} como int64 (0 si es inválido).
func idParam(r *http.Request) int64 {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0
	}
	return id
}

// writeStoreError mapea errores del store al contrato HTTP.
// En dev mode el 500 lleva el mensaje crudo.
func (h *Handlers) writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, core.ErrNotFound) {
		apierrors.WriteError(w, apierrors.ErrNotFound)
		return
	}
	logger.From(r.Context()).Error("store error", logger.Err(err))
	h.writeServerError(w, err)
}

func (h *Handlers) writeServerError(w http.ResponseWriter, err error) {
	if h.Settings.DevMode() {
		apierrors.WriteError(w, apierrors.ErrServerError.WithMessage(err.Error()))
		return
	}
	apierrors.WriteError(w, apierrors.ErrServerError)
}

// auditChange registra una mutación de dominio con el subject del token.
func (h *Handlers) auditChange(r *http.Request, event string, detail map[string]any) {
	claims := middlewares.GetClaims(r.Context())
	h.Audit.Record(r.Context(), audit.Entry{
		Event:   event,
		Subject: jwtauth.Subject(claims),
		Scopes:  jwtauth.ExtractScopes(claims),
		IP:      middlewares.ClientIP(r),
		Detail:  detail,
	})
}
