package handlers

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/rebuildhq/storeconnect/internal/audit"
	apierrors "github.com/rebuildhq/storeconnect/internal/http/errors"
	"github.com/rebuildhq/storeconnect/internal/http/helpers"
	"github.com/rebuildhq/storeconnect/internal/http/middlewares"
	"github.com/rebuildhq/storeconnect/internal/observability/logger"
)

// tokenSubject es el sub de todos los tokens del conector: hay una sola
// credencial, no usuarios.
const tokenSubject = "connector"

type tokenRequest struct {
	APIKey  string `json:"api_key"`
	ShopURL string `json:"shop_url"`
}

type tokenResponse struct {
	TokenType   string   `json:"token_type"`
	AccessToken string   `json:"access_token"`
	ExpiresIn   int      `json:"expires_in"`
	IssuedAt    int64    `json:"issued_at"`
	ExpiresAt   int64    `json:"expires_at"`
	Scopes      []string `json:"scopes"`
}

// TokenExchange intercambia la API key por un JWT de corta vida.
// Key ausente es 400; key incorrecta es 401 sin distinguir entre key
// desconocida y key deshabilitada (comparación en tiempo constante).
func (h *Handlers) TokenExchange(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	req.APIKey = strings.TrimSpace(req.APIKey)
	if req.APIKey == "" {
		apierrors.WriteError(w, apierrors.ErrInvalidPayload.WithDetail("missing api_key"))
		return
	}

	expected := h.Settings.APIKey()
	if expected == "" ||
		subtle.ConstantTimeCompare([]byte(req.APIKey), []byte(expected)) != 1 {
		h.Audit.Record(r.Context(), audit.Entry{
			Event: "auth.denied",
			IP:    middlewares.ClientIP(r),
		})
		apierrors.WriteError(w, apierrors.ErrUnauthenticated)
		return
	}

	scopes := h.Settings.Scopes()
	ttl := h.Settings.TokenTTL()

	var extra map[string]any
	if u := strings.TrimSpace(req.ShopURL); u != "" {
		extra = map[string]any{"shop_url": u}
	}

	now := time.Now().UTC()
	token, err := h.Codec.Issue(tokenSubject, scopes, ttl, extra)
	if err != nil {
		logger.From(r.Context()).Error("token issue failed", logger.Err(err))
		h.writeServerError(w, err)
		return
	}

	h.Audit.Record(r.Context(), audit.Entry{
		Event:   "auth.token.issued",
		Subject: tokenSubject,
		Scopes:  scopes,
		IP:      middlewares.ClientIP(r),
	})

	helpers.WriteJSON(w, http.StatusOK, tokenResponse{
		TokenType:   "Bearer",
		AccessToken: token,
		ExpiresIn:   int(ttl.Seconds()),
		IssuedAt:    now.Unix(),
		ExpiresAt:   now.Add(ttl).Unix(),
		Scopes:      scopes,
	})
}
