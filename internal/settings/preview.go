package settings

import "strings"

// SecretPreview devuelve una versión ofuscada de un secreto para mostrar en
// logs o UI: primeros 4 + bullets + últimos 4. Secretos de 8 caracteres o
// menos se devuelven enteros.
func SecretPreview(s string) string {
	if len(s) <= 8 {
		return s
	}
	return s[:4] + strings.Repeat("•", len(s)-8) + s[len(s)-4:]
}
