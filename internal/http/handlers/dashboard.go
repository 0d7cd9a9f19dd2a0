package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/rebuildhq/storeconnect/internal/http/errors"
	"github.com/rebuildhq/storeconnect/internal/http/helpers"
	"github.com/rebuildhq/storeconnect/internal/store/core"
)

// DashboardSummary: GET /dashboard/summary con date_from/date_to opcionales.
func (h *Handlers) DashboardSummary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from := parseDate(q.Get("date_from"))
	to := parseDate(q.Get("date_to"))

	sum, err := h.Store.Summary(r.Context(), from, to)
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	helpers.WriteData(w, http.StatusOK, sum)
}

// Reports: GET /reports/{resource}: bestsellers | bestcustomers.
func (h *Handlers) Reports(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := core.ReportFilter{
		DateFrom: parseDate(q.Get("date_from")),
		DateTo:   parseDate(q.Get("date_to")),
	}
	f.Limit = helpers.ParsePage(r).Limit

	switch resource(r) {
	case "bestsellers", "best-sellers":
		rows, err := h.Store.BestSellers(r.Context(), f)
		if err != nil {
			h.writeStoreError(w, r, err)
			return
		}
		helpers.WriteData(w, http.StatusOK, rows)
	case "bestcustomers", "best-customers":
		rows, err := h.Store.BestCustomers(r.Context(), f)
		if err != nil {
			h.writeStoreError(w, r, err)
			return
		}
		helpers.WriteData(w, http.StatusOK, rows)
	default:
		apierrors.WriteError(w, apierrors.ErrInvalidRequest.WithDetail("unknown report resource"))
	}
}

func resource(r *http.Request) string {
	return strings.ToLower(chi.URLParam(r, "resource"))
}
