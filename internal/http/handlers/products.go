package handlers

import (
	"net/http"

	apierrors "github.com/rebuildhq/storeconnect/internal/http/errors"
	"github.com/rebuildhq/storeconnect/internal/http/helpers"
)

// ListProducts: GET /products
func (h *Handlers) ListProducts(w http.ResponseWriter, r *http.Request) {
	page := helpers.ParsePage(r)

	products, err := h.Store.ListProducts(r.Context(), page.Limit+1, page.Offset)
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}

	hasNext := len(products) > page.Limit
	if hasNext {
		products = products[:page.Limit]
	}
	helpers.WriteList(w, products, helpers.NewPagination(page, hasNext))
}

// GetProduct: GET /products/{id}
func (h *Handlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := idParam(r)
	if id == 0 {
		apierrors.WriteError(w, apierrors.ErrInvalidRequest.WithDetail("invalid product id"))
		return
	}

	product, err := h.Store.GetProduct(r.Context(), id)
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	helpers.WriteData(w, http.StatusOK, product)
}

type productPriceRequest struct {
	Price *float64 `json:"price"`
}

// UpdateProductPrice: PATCH /products/{id}
func (h *Handlers) UpdateProductPrice(w http.ResponseWriter, r *http.Request) {
	id := idParam(r)
	if id == 0 {
		apierrors.WriteError(w, apierrors.ErrInvalidRequest.WithDetail("invalid product id"))
		return
	}

	var req productPriceRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	if req.Price == nil || *req.Price < 0 {
		apierrors.WriteError(w, apierrors.ErrInvalidPayload.WithDetail("price must be >= 0"))
		return
	}

	product, err := h.Store.UpdateProductPrice(r.Context(), id, *req.Price)
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}

	h.auditChange(r, "products.price.updated", map[string]any{
		"product_id": product.ID,
		"price":      product.Price,
	})
	helpers.WriteData(w, http.StatusOK, product)
}

type productStockRequest struct {
	Quantity *int `json:"quantity"`
}

// UpdateProductStock: PUT /products/{id}/stock
func (h *Handlers) UpdateProductStock(w http.ResponseWriter, r *http.Request) {
	id := idParam(r)
	if id == 0 {
		apierrors.WriteError(w, apierrors.ErrInvalidRequest.WithDetail("invalid product id"))
		return
	}

	var req productStockRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	if req.Quantity == nil || *req.Quantity < 0 {
		apierrors.WriteError(w, apierrors.ErrInvalidPayload.WithDetail("quantity must be >= 0"))
		return
	}

	product, err := h.Store.UpdateProductStock(r.Context(), id, *req.Quantity)
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}

	h.auditChange(r, "products.stock.updated", map[string]any{
		"product_id": product.ID,
		"quantity":   product.Quantity,
	})
	helpers.WriteData(w, http.StatusOK, product)
}
