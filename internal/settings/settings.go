// Package settings maneja la configuración persistente del conector:
// credenciales (API key, secreto JWT), límites, allowlist de IPs y los
// parámetros de los canales de notificación (FCM, webhook).
package settings

import (
	"encoding/base64"
	"time"
)

const (
	// APIKeyLength es el largo de la API key generada.
	APIKeyLength = 40
	// JWTSecretBytes es el tamaño del secreto HS256 en bytes.
	JWTSecretBytes = 32

	// DefaultTokenTTL es la vida del access token por defecto.
	DefaultTokenTTL = time.Hour
	// MinTokenTTL es el piso duro para la vida del token.
	MinTokenTTL = 5 * time.Minute

	// DefaultRateLimitPerMinute es el límite de requests por minuto por defecto.
	DefaultRateLimitPerMinute = 60
)

// DefaultScopes son los scopes que recibe un token emitido sin configuración
// explícita de scopes.
var DefaultScopes = []string{
	"orders.read",
	"orders.write",
	"products.read",
	"products.write",
	"stock.write",
	"customers.read",
	"dashboard.read",
	"baskets.read",
	"notifications.send",
}

// Settings es el documento de configuración tal como se persiste.
// JWTSecret se guarda codificado base64url (sin padding).
type Settings struct {
	APIKey             string   `yaml:"api_key" json:"api_key"`
	JWTSecret          string   `yaml:"jwt_secret" json:"jwt_secret"`
	TokenTTLSeconds    int      `yaml:"token_ttl_seconds" json:"token_ttl_seconds"`
	RateLimitEnabled   bool     `yaml:"rate_limit_enabled" json:"rate_limit_enabled"`
	RateLimitPerMinute int      `yaml:"rate_limit_per_minute" json:"rate_limit_per_minute"`
	AllowedIPs         []string `yaml:"allowed_ips" json:"allowed_ips"`
	Scopes             []string `yaml:"scopes" json:"scopes"`

	WebhookURL    string `yaml:"webhook_url" json:"webhook_url"`
	WebhookSecret string `yaml:"webhook_secret" json:"webhook_secret"`

	FCMProjectID      string   `yaml:"fcm_project_id" json:"fcm_project_id"`
	FCMServiceAccount string   `yaml:"fcm_service_account" json:"fcm_service_account"`
	FCMTopics         []string `yaml:"fcm_topics" json:"fcm_topics"`

	DevMode bool `yaml:"dev_mode" json:"dev_mode"`

	// EnvOverrides guarda pares KEY=VALUE editados desde administración.
	// Solo se consultan cuando la variable real de entorno no existe.
	EnvOverrides map[string]string `yaml:"env_overrides,omitempty" json:"env_overrides,omitempty"`
}

// DecodeSecret devuelve el secreto JWT como bytes crudos.
func (s Settings) DecodeSecret() ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(s.JWTSecret)
}
