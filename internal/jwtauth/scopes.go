package jwtauth

import "strings"

// ExtractScopes extrae los scopes de claims.
// Soporta "scopes" como []any (array JSON) o como string space-separated.
func ExtractScopes(claims map[string]any) []string {
	if v, ok := claims["scopes"].([]any); ok {
		scopes := make([]string, 0, len(v))
		for _, i := range v {
			if s, ok := i.(string); ok {
				scopes = append(scopes, s)
			}
		}
		return scopes
	}

	if v, ok := claims["scopes"].([]string); ok {
		return v
	}

	if v, ok := claims["scopes"].(string); ok {
		return strings.Fields(v)
	}

	return nil
}

// Subject extrae el sub de las claims ("" si falta).
func Subject(claims map[string]any) string {
	if s, ok := claims["sub"].(string); ok {
		return s
	}
	return ""
}

// HasAllScopes verifica que TODOS los scopes requeridos estén presentes.
// Lista de requeridos vacía pasa siempre.
func HasAllScopes(granted []string, required ...string) bool {
	for _, want := range required {
		found := false
		for _, g := range granted {
			if strings.EqualFold(g, want) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
