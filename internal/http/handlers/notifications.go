package handlers

import (
	"net/http"
	"strings"

	apierrors "github.com/rebuildhq/storeconnect/internal/http/errors"
	"github.com/rebuildhq/storeconnect/internal/http/helpers"
	"github.com/rebuildhq/storeconnect/internal/notify"
	"github.com/rebuildhq/storeconnect/internal/store/core"
)

type dispatchRequest struct {
	Event string         `json:"event"`
	Title string         `json:"title"`
	Body  string         `json:"body"`
	Data  map[string]any `json:"data"`
}

// DispatchEvent: POST /notifications/events. Despacha un evento arbitrario
// por push y webhook y devuelve el resultado por canal.
func (h *Handlers) DispatchEvent(w http.ResponseWriter, r *http.Request) {
	var req dispatchRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	req.Event = strings.TrimSpace(req.Event)
	if req.Event == "" {
		apierrors.WriteError(w, apierrors.ErrInvalidPayload.WithDetail("event is required"))
		return
	}

	res := h.Dispatcher.Dispatch(r.Context(), notify.Message{
		Event: req.Event,
		Title: req.Title,
		Body:  req.Body,
		Data:  req.Data,
	})

	helpers.WriteData(w, http.StatusOK, map[string]any{
		"push_sent":  res.PushSent,
		"webhook_ok": res.WebhookOK,
	})
}

type deviceRequest struct {
	Token    string   `json:"token"`
	DeviceID string   `json:"device_id"`
	Platform string   `json:"platform"`
	Topics   []string `json:"topics"`
	Primary  bool     `json:"primary"`
}

// RegisterDevice: POST /notifications/devices. Upsert por token; los topics
// se reemplazan enteros.
func (h *Handlers) RegisterDevice(w http.ResponseWriter, r *http.Request) {
	var req deviceRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	err := h.Devices.Register(r.Context(), core.Device{
		Token:    strings.TrimSpace(req.Token),
		DeviceID: req.DeviceID,
		Platform: req.Platform,
		Topics:   req.Topics,
		Primary:  req.Primary,
	})
	if err != nil {
		apierrors.WriteError(w, apierrors.ErrInvalidPayload.WithDetail(err.Error()))
		return
	}
	helpers.WriteData(w, http.StatusOK, map[string]string{"status": "registered"})
}

// UnregisterDevice: DELETE /notifications/devices?token=...
func (h *Handlers) UnregisterDevice(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSpace(r.URL.Query().Get("token"))
	if token == "" {
		apierrors.WriteError(w, apierrors.ErrInvalidRequest.WithDetail("token is required"))
		return
	}

	if err := h.Devices.Unregister(r.Context(), token); err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	helpers.WriteData(w, http.StatusOK, map[string]string{"status": "unregistered"})
}
