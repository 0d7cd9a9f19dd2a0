// Package notify implementa los canales de salida de eventos: push FCM
// (HTTP v1, OAuth2 service account) y webhook firmado HMAC.
package notify

import (
	"crypto/rsa"
	"encoding/json"
	"fmt"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

const (
	// defaultTokenURL es el endpoint de intercambio OAuth2 de Google.
	defaultTokenURL = "https://oauth2.googleapis.com/token"
	// fcmScope es el scope requerido para la API de mensajería.
	fcmScope = "https://www.googleapis.com/auth/firebase.messaging"
)

// serviceAccount son los campos que usamos del JSON de la service account.
type serviceAccount struct {
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
	TokenURI    string `json:"token_uri"`

	key *rsa.PrivateKey
}

// parseServiceAccount decodifica el JSON y parsea la clave RSA.
func parseServiceAccount(raw []byte) (*serviceAccount, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("notify: service account no configurada")
	}

	var sa serviceAccount
	if err := json.Unmarshal(raw, &sa); err != nil {
		return nil, fmt.Errorf("notify: parse service account: %w", err)
	}
	if sa.ClientEmail == "" || sa.PrivateKey == "" {
		return nil, fmt.Errorf("notify: service account incompleta")
	}

	key, err := jwtv5.ParseRSAPrivateKeyFromPEM([]byte(sa.PrivateKey))
	if err != nil {
		return nil, fmt.Errorf("notify: parse private key: %w", err)
	}
	sa.key = key

	if sa.TokenURI == "" {
		sa.TokenURI = defaultTokenURL
	}
	return &sa, nil
}
