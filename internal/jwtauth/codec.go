// Package jwtauth emite y verifica los access tokens del conector.
// Solo HS256: el secreto es compartido entre emisión y verificación, y la
// verificación colapsa toda falla en un único error opaco para no filtrar
// a un atacante por qué su token no sirvió.
package jwtauth

import (
	"errors"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken es el único error que devuelve Verify: firma inválida,
// token expirado, nbf futuro, alg inesperado y token malformado son
// indistinguibles para el caller.
var ErrInvalidToken = errors.New("jwtauth: invalid token")

// SecretSource entrega el secreto HS256 vigente.
// Permite que la rotación del secreto invalide tokens en el acto.
type SecretSource interface {
	JWTSecret() ([]byte, error)
}

// Codec emite y verifica tokens.
type Codec struct {
	Issuer  string
	Secrets SecretSource

	// now permite congelar el reloj en tests.
	now func() time.Time
}

// NewCodec crea un codec con el issuer dado.
func NewCodec(issuer string, secrets SecretSource) *Codec {
	return &Codec{Issuer: issuer, Secrets: secrets, now: time.Now}
}

// NewCodecAt crea un codec con reloj fijo. Solo para tests.
func NewCodecAt(issuer string, secrets SecretSource, now func() time.Time) *Codec {
	return &Codec{Issuer: issuer, Secrets: secrets, now: now}
}

// Issue firma un token HS256 para subject con los scopes dados. Las claims
// extra no pueden pisar las registradas.
func (c *Codec) Issue(subject string, scopes []string, ttl time.Duration, extra ...map[string]any) (string, error) {
	secret, err := c.Secrets.JWTSecret()
	if err != nil {
		return "", err
	}

	now := c.clock().UTC()
	claims := jwtv5.MapClaims{
		"iss":    c.Issuer,
		"sub":    subject,
		"scopes": scopes,
		"iat":    now.Unix(),
		"nbf":    now.Unix(),
		"exp":    now.Add(ttl).Unix(),
	}
	for _, m := range extra {
		for k, v := range m {
			if _, reserved := claims[k]; !reserved {
				claims[k] = v
			}
		}
	}

	tok := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	return tok.SignedString(secret)
}

// Verify parsea y valida un token. Devuelve las claims como mapa genérico
// o ErrInvalidToken. Nunca detalla el motivo del rechazo.
func (c *Codec) Verify(raw string) (map[string]any, error) {
	secret, err := c.Secrets.JWTSecret()
	if err != nil {
		return nil, ErrInvalidToken
	}

	parsed, err := jwtv5.Parse(raw,
		func(t *jwtv5.Token) (any, error) { return secret, nil },
		jwtv5.WithValidMethods([]string{jwtv5.SigningMethodHS256.Alg()}),
		jwtv5.WithIssuer(c.Issuer),
		jwtv5.WithExpirationRequired(),
		jwtv5.WithTimeFunc(c.clock),
	)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	mc, ok := parsed.Claims.(jwtv5.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	return map[string]any(mc), nil
}

func (c *Codec) clock() time.Time {
	if c.now != nil {
		return c.now()
	}
	return time.Now()
}
