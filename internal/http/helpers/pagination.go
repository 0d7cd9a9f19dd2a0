package helpers

import (
	"net/http"
	"strconv"
)

const (
	// DefaultPageLimit es el limit cuando el cliente no envía uno.
	DefaultPageLimit = 50
	// MaxPageLimit es el tope duro de items por página.
	MaxPageLimit = 200
)

// Page representa los parámetros de paginación ya normalizados.
type Page struct {
	Limit  int
	Offset int
}

// ParsePage lee limit/offset del query string y aplica los clamps:
// limit en [1, MaxPageLimit] (default DefaultPageLimit), offset >= 0.
// Valores no numéricos se tratan como ausentes.
func ParsePage(r *http.Request) Page {
	p := Page{Limit: DefaultPageLimit, Offset: 0}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			p.Limit = n
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			p.Offset = n
		}
	}

	if p.Limit < 1 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// Pagination es el bloque de metadata que acompaña las respuestas de listado.
type Pagination struct {
	Limit      int  `json:"limit"`
	Offset     int  `json:"offset"`
	HasNext    bool `json:"has_next"`
	NextOffset *int `json:"next_offset,omitempty"`
}

// NewPagination arma el bloque de paginación. hasNext viene de fetch limit+1:
// el repositorio trae una fila extra y el handler la descarta.
func NewPagination(p Page, hasNext bool) Pagination {
	out := Pagination{Limit: p.Limit, Offset: p.Offset, HasNext: hasNext}
	if hasNext {
		next := p.Offset + p.Limit
		out.NextOffset = &next
	}
	return out
}

// WriteList escribe el envelope estándar de listados con paginación.
func WriteList(w http.ResponseWriter, items any, pg Pagination) {
	WriteJSON(w, http.StatusOK, map[string]any{
		"data":       items,
		"pagination": pg,
	})
}
