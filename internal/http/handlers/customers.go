package handlers

import (
	"net/http"

	apierrors "github.com/rebuildhq/storeconnect/internal/http/errors"
	"github.com/rebuildhq/storeconnect/internal/http/helpers"
)

// ListCustomers: GET /customers
func (h *Handlers) ListCustomers(w http.ResponseWriter, r *http.Request) {
	page := helpers.ParsePage(r)

	customers, err := h.Store.ListCustomers(r.Context(), page.Limit+1, page.Offset)
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}

	hasNext := len(customers) > page.Limit
	if hasNext {
		customers = customers[:page.Limit]
	}
	helpers.WriteList(w, customers, helpers.NewPagination(page, hasNext))
}

// GetCustomer: GET /customers/{id}
func (h *Handlers) GetCustomer(w http.ResponseWriter, r *http.Request) {
	id := idParam(r)
	if id == 0 {
		apierrors.WriteError(w, apierrors.ErrInvalidRequest.WithDetail("invalid customer id"))
		return
	}

	customer, err := h.Store.GetCustomer(r.Context(), id)
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	helpers.WriteData(w, http.StatusOK, customer)
}
