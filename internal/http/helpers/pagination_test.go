package helpers

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePage(t *testing.T) {
	cases := []struct {
		name  string
		query string
		want  Page
	}{
		{"sin parámetros", "", Page{Limit: DefaultPageLimit, Offset: 0}},
		{"valores válidos", "?limit=25&offset=10", Page{Limit: 25, Offset: 10}},
		{"limit sobre el tope", "?limit=999", Page{Limit: MaxPageLimit, Offset: 0}},
		{"limit cero usa default", "?limit=0", Page{Limit: DefaultPageLimit, Offset: 0}},
		{"limit negativo usa default", "?limit=-7", Page{Limit: DefaultPageLimit, Offset: 0}},
		{"offset negativo se normaliza", "?offset=-3", Page{Limit: DefaultPageLimit, Offset: 0}},
		{"no numérico se ignora", "?limit=abc&offset=xyz", Page{Limit: DefaultPageLimit, Offset: 0}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/api/orders"+c.query, nil)
			assert.Equal(t, c.want, ParsePage(r))
		})
	}
}
