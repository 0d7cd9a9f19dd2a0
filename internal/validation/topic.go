// Package validation agrupa validaciones de formato compartidas
// (topics FCM, entradas de allowlist de IPs).
package validation

import "regexp"

// topicRe valida nombres de topic FCM (sin el prefijo /topics/).
var topicRe = regexp.MustCompile(`^[A-Za-z0-9-_.~%]{1,900}$`)

// IsValidTopic reporta si s es un nombre de topic FCM válido.
func IsValidTopic(s string) bool {
	return topicRe.MatchString(s)
}
