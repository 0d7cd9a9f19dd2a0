// Package config carga la configuración de proceso (config.yaml + env).
//
// Acá vive solo lo que se decide al arranque: addr, storage, cache, logging.
// Los settings operativos del conector (API key, límites, allowlist) viven en
// internal/settings y se pueden cambiar en caliente.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		// dev | staging | prod
		Env string `yaml:"env"`
	} `yaml:"app"`

	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	Storage struct {
		// postgres es el único driver de datos de tienda.
		DSN      string `yaml:"dsn"`
		Postgres struct {
			MaxOpenConns    int    `yaml:"max_open_conns"`
			MaxIdleConns    int    `yaml:"max_idle_conns"`
			ConnMaxLifetime string `yaml:"conn_max_lifetime"`
		} `yaml:"postgres"`
	} `yaml:"storage"`

	// Settings: dónde persiste el documento de settings del conector.
	Settings struct {
		// fs | postgres
		Driver string `yaml:"driver"`
		// Dir para el driver fs (settings.yaml adentro).
		Dir string `yaml:"dir"`
	} `yaml:"settings"`

	// Rate: backend de conteo del rate limiter.
	Rate struct {
		// redis | postgres
		Backend string `yaml:"backend"`
	} `yaml:"rate"`

	Cache struct {
		// memory | redis
		Kind  string `yaml:"kind"`
		Redis struct {
			Addr   string `yaml:"addr"`
			DB     int    `yaml:"db"`
			Prefix string `yaml:"prefix"`
		} `yaml:"redis"`
		Memory struct {
			DefaultTTL string `yaml:"default_ttl"`
		} `yaml:"memory"`
	} `yaml:"cache"`

	JWT struct {
		Issuer string `yaml:"issuer"`
	} `yaml:"jwt"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, err
		}
	}

	// sane defaults
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Settings.Driver == "" {
		c.Settings.Driver = "fs"
	}
	if c.Settings.Dir == "" {
		c.Settings.Dir = "."
	}
	if c.Rate.Backend == "" {
		c.Rate.Backend = "redis"
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.Cache.Memory.DefaultTTL == "" {
		c.Cache.Memory.DefaultTTL = "2m"
	}
	if c.Cache.Redis.Prefix == "" {
		c.Cache.Redis.Prefix = "storeconnect"
	}
	if c.JWT.Issuer == "" {
		c.JWT.Issuer = "storeconnect"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Storage.Postgres.MaxOpenConns == 0 {
		c.Storage.Postgres.MaxOpenConns = 10
	}
	if c.Storage.Postgres.MaxIdleConns == 0 {
		c.Storage.Postgres.MaxIdleConns = 5
	}
	if c.Storage.Postgres.ConnMaxLifetime == "" {
		c.Storage.Postgres.ConnMaxLifetime = "30m"
	}

	c.applyEnvOverrides()

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}
func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}

// applyEnvOverrides: pisa config.yaml con variables de entorno.
func (c *Config) applyEnvOverrides() {
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvStr("STORAGE_DSN"); ok {
		c.Storage.DSN = v
	}
	if v, ok := getEnvStr("SETTINGS_DRIVER"); ok {
		c.Settings.Driver = strings.ToLower(v)
	}
	if v, ok := getEnvStr("SETTINGS_DIR"); ok {
		c.Settings.Dir = v
	}
	if v, ok := getEnvStr("RATE_BACKEND"); ok {
		c.Rate.Backend = strings.ToLower(v)
	}
	if v, ok := getEnvStr("CACHE_KIND"); ok {
		c.Cache.Kind = strings.ToLower(v)
	}
	if v, ok := getEnvStr("CACHE_REDIS_ADDR"); ok {
		c.Cache.Redis.Addr = v
	}
	if v, ok := getEnvInt("CACHE_REDIS_DB"); ok {
		c.Cache.Redis.DB = v
	}
	if v, ok := getEnvStr("CACHE_REDIS_PREFIX"); ok {
		c.Cache.Redis.Prefix = v
	}
	if v, ok := getEnvStr("JWT_ISSUER"); ok {
		c.JWT.Issuer = v
	}
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.Log.Level = strings.ToLower(v)
	}
}

func (c *Config) Validate() error {
	switch c.Settings.Driver {
	case "fs", "postgres":
	default:
		return fmt.Errorf("config: settings.driver desconocido: %q", c.Settings.Driver)
	}
	switch c.Rate.Backend {
	case "redis", "postgres":
	default:
		return fmt.Errorf("config: rate.backend desconocido: %q", c.Rate.Backend)
	}
	switch c.Cache.Kind {
	case "memory", "redis":
	default:
		return fmt.Errorf("config: cache.kind desconocido: %q", c.Cache.Kind)
	}
	if c.Settings.Driver == "postgres" || c.Rate.Backend == "postgres" {
		if c.Storage.DSN == "" {
			return fmt.Errorf("config: storage.dsn requerido con driver postgres")
		}
	}
	if c.Rate.Backend == "redis" && c.Cache.Redis.Addr == "" {
		return fmt.Errorf("config: cache.redis.addr requerido con rate.backend redis")
	}
	return nil
}

// IsProd indica entorno productivo.
func (c *Config) IsProd() bool { return c.App.Env == "prod" }

// ConnMaxLifetime parsea la vida máxima de conexión (30m si es inválida).
func (c *Config) ConnMaxLifetime() time.Duration {
	d, err := time.ParseDuration(c.Storage.Postgres.ConnMaxLifetime)
	if err != nil || d <= 0 {
		return 30 * time.Minute
	}
	return d
}

// CacheDefaultTTL parsea el TTL por defecto del cache de memoria.
func (c *Config) CacheDefaultTTL() time.Duration {
	d, err := time.ParseDuration(c.Cache.Memory.DefaultTTL)
	if err != nil || d <= 0 {
		return 2 * time.Minute
	}
	return d
}
