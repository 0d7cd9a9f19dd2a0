// Package ipallow implementa la allowlist de IPs de origen.
// Lista vacía = abierto (todas las IPs pasan); con entradas, solo pasan las
// IPs exactas o contenidas en algún CIDR.
package ipallow

import (
	"net/netip"
	"strings"
)

// Allowlist es el conjunto compilado de entradas. El zero value (sin
// entradas) permite todo.
type Allowlist struct {
	addrs    []netip.Addr
	prefixes []netip.Prefix
}

// New compila las entradas (IP exacta o CIDR, v4 y v6).
// Entradas no parseables se ignoran: ya fueron validadas al guardarse.
func New(entries []string) *Allowlist {
	al := &Allowlist{}
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if strings.Contains(e, "/") {
			if p, err := netip.ParsePrefix(e); err == nil {
				al.prefixes = append(al.prefixes, p.Masked())
			}
			continue
		}
		if a, err := netip.ParseAddr(e); err == nil {
			al.addrs = append(al.addrs, a)
		}
	}
	return al
}

// Empty reporta si la lista no tiene entradas.
func (al *Allowlist) Empty() bool {
	return len(al.addrs) == 0 && len(al.prefixes) == 0
}

// Allowed decide si la IP del cliente pasa el gate.
// Lista vacía: siempre true. IP no parseable con lista no vacía: false.
func (al *Allowlist) Allowed(clientIP string) bool {
	if al.Empty() {
		return true
	}

	ip, err := netip.ParseAddr(strings.TrimSpace(clientIP))
	if err != nil {
		return false
	}
	// Comparar v4 de forma canónica aunque llegue como v4-mapped-v6
	ip = ip.Unmap()

	for _, a := range al.addrs {
		if a.Unmap() == ip {
			return true
		}
	}
	for _, p := range al.prefixes {
		if p.Contains(ip) {
			return true
		}
	}
	return false
}
