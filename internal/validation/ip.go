package validation

import (
	"net/netip"
	"strings"
)

// NormalizeIPEntry valida una entrada de allowlist (IP exacta o CIDR) y la
// devuelve normalizada. Devuelve "" si la entrada no es válida.
func NormalizeIPEntry(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if strings.Contains(s, "/") {
		p, err := netip.ParsePrefix(s)
		if err != nil {
			return ""
		}
		return p.Masked().String()
	}
	a, err := netip.ParseAddr(s)
	if err != nil {
		return ""
	}
	return a.String()
}
