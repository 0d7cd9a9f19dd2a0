package handlers

import (
	"net/http"
	"strconv"

	apierrors "github.com/rebuildhq/storeconnect/internal/http/errors"
	"github.com/rebuildhq/storeconnect/internal/http/helpers"
	"github.com/rebuildhq/storeconnect/internal/store/core"
)

// ListBaskets: GET /baskets con filtros customer_id, has_order,
// abandoned_since_days, date_from, date_to.
func (h *Handlers) ListBaskets(w http.ResponseWriter, r *http.Request) {
	page := helpers.ParsePage(r)
	q := r.URL.Query()

	var f core.BasketFilter
	if v := q.Get("customer_id"); v != "" {
		f.CustomerID, _ = strconv.ParseInt(v, 10, 64)
	}
	if v := q.Get("has_order"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			f.HasOrder = &b
		}
	}
	if v := q.Get("abandoned_since_days"); v != "" {
		f.AbandonedSinceDays, _ = strconv.Atoi(v)
	}
	f.DateFrom = parseDate(q.Get("date_from"))
	f.DateTo = parseDate(q.Get("date_to"))

	baskets, err := h.Store.ListBaskets(r.Context(), f, page.Limit+1, page.Offset)
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}

	hasNext := len(baskets) > page.Limit
	if hasNext {
		baskets = baskets[:page.Limit]
	}
	helpers.WriteList(w, baskets, helpers.NewPagination(page, hasNext))
}

// GetBasket: GET /baskets/{id}
func (h *Handlers) GetBasket(w http.ResponseWriter, r *http.Request) {
	id := idParam(r)
	if id == 0 {
		apierrors.WriteError(w, apierrors.ErrInvalidRequest.WithDetail("invalid basket id"))
		return
	}

	basket, err := h.Store.GetBasket(r.Context(), id)
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	helpers.WriteData(w, http.StatusOK, basket)
}
