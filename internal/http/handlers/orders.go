package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	apierrors "github.com/rebuildhq/storeconnect/internal/http/errors"
	"github.com/rebuildhq/storeconnect/internal/http/helpers"
	"github.com/rebuildhq/storeconnect/internal/notify"
	"github.com/rebuildhq/storeconnect/internal/store/core"
)

// orderStatuses son los estados aceptados en el PATCH.
var orderStatuses = map[string]bool{
	"pending":   true,
	"paid":      true,
	"shipped":   true,
	"delivered": true,
	"cancelled": true,
	"refunded":  true,
}

// ListOrders: GET /orders con filtros customer_id, status, date_from, date_to.
func (h *Handlers) ListOrders(w http.ResponseWriter, r *http.Request) {
	page := helpers.ParsePage(r)
	q := r.URL.Query()

	f := core.OrderFilter{Status: strings.TrimSpace(q.Get("status"))}
	if v := q.Get("customer_id"); v != "" {
		f.CustomerID, _ = strconv.ParseInt(v, 10, 64)
	}
	f.DateFrom = parseDate(q.Get("date_from"))
	f.DateTo = parseDate(q.Get("date_to"))

	// Pedir una fila extra para saber si hay página siguiente
	orders, err := h.Store.ListOrders(r.Context(), f, page.Limit+1, page.Offset)
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}

	hasNext := len(orders) > page.Limit
	if hasNext {
		orders = orders[:page.Limit]
	}
	helpers.WriteList(w, orders, helpers.NewPagination(page, hasNext))
}

// GetOrder: GET /orders/{id}
func (h *Handlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	id := idParam(r)
	if id == 0 {
		apierrors.WriteError(w, apierrors.ErrInvalidRequest.WithDetail("invalid order id"))
		return
	}

	order, err := h.Store.GetOrder(r.Context(), id)
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	helpers.WriteData(w, http.StatusOK, order)
}

type orderStatusRequest struct {
	Status string `json:"status"`
}

// UpdateOrderStatus: PATCH /orders/{id}. Un cambio exitoso despacha el
// evento order.status.updated por todos los canales.
func (h *Handlers) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id := idParam(r)
	if id == 0 {
		apierrors.WriteError(w, apierrors.ErrInvalidRequest.WithDetail("invalid order id"))
		return
	}

	var req orderStatusRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	req.Status = strings.ToLower(strings.TrimSpace(req.Status))
	if !orderStatuses[req.Status] {
		apierrors.WriteError(w, apierrors.ErrInvalidPayload.WithDetail("unknown order status"))
		return
	}

	order, err := h.Store.UpdateOrderStatus(r.Context(), id, req.Status)
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}

	h.auditChange(r, "orders.status.updated", map[string]any{
		"order_id": order.ID,
		"status":   order.Status,
	})

	if h.Dispatcher != nil {
		h.Dispatcher.Dispatch(r.Context(), notify.Message{
			Event: "order.status.updated",
			Title: "Order " + order.Reference,
			Body:  "Status changed to " + order.Status,
			Data: map[string]any{
				"order_id":  order.ID,
				"reference": order.Reference,
				"status":    order.Status,
			},
		})
	}

	helpers.WriteData(w, http.StatusOK, order)
}

// parseDate acepta fecha sola o RFC 3339 completo; zero si no parsea.
func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return time.Time{}
}
