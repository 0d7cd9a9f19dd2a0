package tokens

import (
	"crypto/rand"
	"encoding/base64"
)

const apiKeyAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// GenerateOpaqueToken genera un token opaco aleatorio (base64url sin padding).
func GenerateOpaqueToken(nBytes int) (string, error) {
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// GenerateAPIKey genera una API key alfanumérica de n caracteres.
// Usa rejection sampling para no sesgar la distribución.
func GenerateAPIKey(n int) (string, error) {
	out := make([]byte, 0, n)
	buf := make([]byte, n*2)
	for len(out) < n {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			// 248 = 62*4: descartar bytes fuera del múltiplo para uniformidad
			if b >= 248 {
				continue
			}
			out = append(out, apiKeyAlphabet[int(b)%len(apiKeyAlphabet)])
			if len(out) == n {
				break
			}
		}
	}
	return string(out), nil
}
