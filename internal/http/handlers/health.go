package handlers

import (
	"net/http"

	"github.com/rebuildhq/storeconnect/internal/http/helpers"
)

// Health: GET /health. Liveness sin autenticación.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	helpers.WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": h.Version,
	})
}
