package settings

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rebuildhq/storeconnect/internal/observability/logger"
	tokens "github.com/rebuildhq/storeconnect/internal/security/token"
	"github.com/rebuildhq/storeconnect/internal/validation"
)

// envPrefix antecede todas las claves de override por entorno.
const envPrefix = "STORECONNECT_"

// envKeyRe: solo claves mayúsculas estilo ENV pueden actuar como override.
var envKeyRe = regexp.MustCompile(`^[A-Z0-9_]+$`)

// LookupFunc resuelve una variable de entorno. Permite inyectar un entorno
// sintético en tests.
type LookupFunc func(key string) (string, bool)

// Service expone la configuración del conector con overrides por entorno y
// los pisos/defaults aplicados. Es seguro para uso concurrente.
type Service struct {
	store  Store
	lookup LookupFunc

	mu  sync.RWMutex
	cur Settings
}

// Option configura el Service.
type Option func(*Service)

// WithLookup reemplaza la resolución de variables de entorno.
func WithLookup(fn LookupFunc) Option {
	return func(s *Service) { s.lookup = fn }
}

// NewService carga los settings persistidos (documento vacío si no existen).
func NewService(ctx context.Context, store Store, opts ...Option) (*Service, error) {
	s := &Service{store: store, lookup: os.LookupEnv}
	for _, o := range opts {
		o(s)
	}

	cur, err := store.Load(ctx)
	if err != nil && err != ErrNotFound {
		return nil, fmt.Errorf("settings: load: %w", err)
	}
	s.cur = cur
	return s, nil
}

// env devuelve el override de entorno para key (sin prefijo), si existe.
func (s *Service) env(key string) (string, bool) {
	if !envKeyRe.MatchString(key) {
		return "", false
	}
	v, ok := s.lookup(envPrefix + key)
	if !ok {
		v, ok = s.snapshot().EnvOverrides[envPrefix+key]
		if !ok {
			return "", false
		}
	}
	v = strings.TrimSpace(v)
	if v == "" || strings.HasPrefix(v, "#") {
		return "", false
	}
	return v, true
}

// EnsureCredentials genera API key y secreto JWT si faltan.
// Es idempotente: credenciales existentes no se tocan.
func (s *Service) EnsureCredentials(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := false
	if s.cur.APIKey == "" {
		key, err := tokens.GenerateAPIKey(APIKeyLength)
		if err != nil {
			return fmt.Errorf("settings: generate api key: %w", err)
		}
		s.cur.APIKey = key
		changed = true
	}
	if s.cur.JWTSecret == "" {
		secret, err := tokens.GenerateOpaqueToken(JWTSecretBytes)
		if err != nil {
			return fmt.Errorf("settings: generate jwt secret: %w", err)
		}
		s.cur.JWTSecret = secret
		changed = true
	}
	if !changed {
		return nil
	}

	logger.From(ctx).Info("credentials generated", logger.Component("settings"))
	return s.store.Save(ctx, s.cur)
}

// RotateAPIKey regenera la API key incondicionalmente y la devuelve.
func (s *Service) RotateAPIKey(ctx context.Context) (string, error) {
	key, err := tokens.GenerateAPIKey(APIKeyLength)
	if err != nil {
		return "", fmt.Errorf("settings: generate api key: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur.APIKey = key
	if err := s.store.Save(ctx, s.cur); err != nil {
		return "", err
	}
	return key, nil
}

// RotateJWTSecret regenera el secreto JWT. Los tokens emitidos con el secreto
// anterior dejan de validar en el acto.
func (s *Service) RotateJWTSecret(ctx context.Context) error {
	secret, err := tokens.GenerateOpaqueToken(JWTSecretBytes)
	if err != nil {
		return fmt.Errorf("settings: generate jwt secret: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur.JWTSecret = secret
	return s.store.Save(ctx, s.cur)
}

// APIKey devuelve la API key vigente (override STORECONNECT_API_KEY).
func (s *Service) APIKey() string {
	if v, ok := s.env("API_KEY"); ok {
		return v
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur.APIKey
}

// JWTSecret devuelve el secreto HS256 como bytes crudos.
func (s *Service) JWTSecret() ([]byte, error) {
	cur := s.snapshot()
	if v, ok := s.env("JWT_SECRET"); ok {
		cur.JWTSecret = v
	}
	if cur.JWTSecret == "" {
		return nil, fmt.Errorf("settings: jwt secret not configured")
	}
	return cur.DecodeSecret()
}

// TokenTTL devuelve la vida del token con el piso aplicado.
func (s *Service) TokenTTL() time.Duration {
	secs := s.snapshot().TokenTTLSeconds
	if v, ok := s.env("TOKEN_TTL"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			secs = n
		}
	}
	if secs <= 0 {
		return DefaultTokenTTL
	}
	ttl := time.Duration(secs) * time.Second
	if ttl < MinTokenTTL {
		return MinTokenTTL
	}
	return ttl
}

// RateLimitEnabled indica si el rate limiting está activo.
// Arranca deshabilitado: el límite configurado solo aplica al encenderlo.
func (s *Service) RateLimitEnabled() bool {
	if v, ok := s.env("RATE_LIMIT_ENABLED"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return s.snapshot().RateLimitEnabled
}

// RateLimitPerMinute devuelve el límite por minuto con el piso aplicado.
func (s *Service) RateLimitPerMinute() int {
	limit := s.snapshot().RateLimitPerMinute
	if v, ok := s.env("RATE_LIMIT_PER_MINUTE"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	if limit == 0 {
		return DefaultRateLimitPerMinute
	}
	if limit < 1 {
		return 1
	}
	return limit
}

// AllowedIPs devuelve la allowlist vigente (CSV en STORECONNECT_ALLOWED_IPS).
func (s *Service) AllowedIPs() []string {
	if v, ok := s.env("ALLOWED_IPS"); ok {
		return splitCSV(v)
	}
	return s.snapshot().AllowedIPs
}

// SetAllowedIPs valida y persiste la allowlist. Una sola entrada inválida
// rechaza la actualización completa.
func (s *Service) SetAllowedIPs(ctx context.Context, entries []string) error {
	normalized := make([]string, 0, len(entries))
	for _, e := range entries {
		n := validation.NormalizeIPEntry(e)
		if n == "" {
			return fmt.Errorf("settings: invalid ip entry %q", e)
		}
		normalized = append(normalized, n)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur.AllowedIPs = normalized
	return s.store.Save(ctx, s.cur)
}

// SetWebhook valida y persiste el canal webhook. La URL debe ser absoluta
// (esquema y host); una URL vacía desactiva el canal.
func (s *Service) SetWebhook(ctx context.Context, rawURL, secret string) error {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL != "" {
		u, err := url.Parse(rawURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("settings: invalid webhook url %q", rawURL)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur.WebhookURL = rawURL
	s.cur.WebhookSecret = secret
	return s.store.Save(ctx, s.cur)
}

// SetEnvOverrides valida y persiste líneas KEY=VALUE editadas desde
// administración. Claves solo en MAYUSCULA_SNAKE; una línea inválida
// rechaza la actualización completa. Líneas vacías y comentarios se ignoran.
func (s *Service) SetEnvOverrides(ctx context.Context, lines []string) error {
	overrides := make(map[string]string, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		key = strings.TrimSpace(key)
		if !ok || !envKeyRe.MatchString(key) {
			return fmt.Errorf("settings: invalid env override %q", line)
		}
		overrides[key] = strings.TrimSpace(value)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur.EnvOverrides = overrides
	return s.store.Save(ctx, s.cur)
}

// Scopes devuelve los scopes a emitir en los tokens (defaults si no hay).
func (s *Service) Scopes() []string {
	if v, ok := s.env("SCOPES"); ok {
		return splitCSV(v)
	}
	if sc := s.snapshot().Scopes; len(sc) > 0 {
		return sc
	}
	out := make([]string, len(DefaultScopes))
	copy(out, DefaultScopes)
	return out
}

// WebhookURL devuelve la URL del webhook ("" si no hay canal configurado).
func (s *Service) WebhookURL() string {
	if v, ok := s.env("WEBHOOK_URL"); ok {
		return v
	}
	return s.snapshot().WebhookURL
}

// WebhookSecret devuelve el secreto de firma del webhook.
func (s *Service) WebhookSecret() string {
	if v, ok := s.env("WEBHOOK_SECRET"); ok {
		return v
	}
	return s.snapshot().WebhookSecret
}

// FCMProjectID devuelve el proyecto Firebase configurado.
func (s *Service) FCMProjectID() string {
	if v, ok := s.env("FCM_PROJECT_ID"); ok {
		return v
	}
	return s.snapshot().FCMProjectID
}

// FCMServiceAccount devuelve el JSON de la service account.
func (s *Service) FCMServiceAccount() []byte {
	if v, ok := s.env("FCM_SERVICE_ACCOUNT"); ok {
		return []byte(v)
	}
	return []byte(s.snapshot().FCMServiceAccount)
}

// FCMTopics devuelve los topics configurados, descartando los inválidos.
func (s *Service) FCMTopics() []string {
	var raw []string
	if v, ok := s.env("FCM_TOPICS"); ok {
		raw = splitCSV(v)
	} else {
		raw = s.snapshot().FCMTopics
	}
	out := make([]string, 0, len(raw))
	for _, t := range raw {
		if validation.IsValidTopic(t) {
			out = append(out, t)
		}
	}
	return out
}

// SetFCMTopics valida y persiste los topics. Un topic inválido rechaza todo.
func (s *Service) SetFCMTopics(ctx context.Context, topics []string) error {
	for _, t := range topics {
		if !validation.IsValidTopic(t) {
			return fmt.Errorf("settings: invalid topic %q", t)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur.FCMTopics = topics
	return s.store.Save(ctx, s.cur)
}

// DevMode reporta si el modo desarrollo está activo (errores crudos en 500).
func (s *Service) DevMode() bool {
	if v, ok := s.env("DEV_MODE"); ok {
		b, err := strconv.ParseBool(v)
		return err == nil && b
	}
	return s.snapshot().DevMode
}

// Snapshot devuelve una copia del documento persistido (sin overrides).
func (s *Service) Snapshot() Settings {
	return s.snapshot()
}

func (s *Service) snapshot() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
