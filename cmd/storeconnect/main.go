package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	rdb "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/rebuildhq/storeconnect/internal/audit"
	"github.com/rebuildhq/storeconnect/internal/cache"
	memcache "github.com/rebuildhq/storeconnect/internal/cache/memory"
	redcache "github.com/rebuildhq/storeconnect/internal/cache/redis"
	"github.com/rebuildhq/storeconnect/internal/config"
	httpx "github.com/rebuildhq/storeconnect/internal/http"
	"github.com/rebuildhq/storeconnect/internal/http/handlers"
	"github.com/rebuildhq/storeconnect/internal/jwtauth"
	"github.com/rebuildhq/storeconnect/internal/notify"
	"github.com/rebuildhq/storeconnect/internal/observability/logger"
	"github.com/rebuildhq/storeconnect/internal/rate"
	"github.com/rebuildhq/storeconnect/internal/settings"
	pgstore "github.com/rebuildhq/storeconnect/internal/store/pg"
)

// version se inyecta en build (-ldflags "-X main.version=...").
var version = "dev"

func main() {
	_ = godotenv.Load()

	var cfgPath string

	root := &cobra.Command{
		Use:           "storeconnect",
		Short:         "Conector API para la tienda (gateway + notificaciones)",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", envOr("STORECONNECT_CONFIG", "config.yaml"), "ruta del config.yaml")

	root.AddCommand(serveCmd(&cfgPath))
	root.AddCommand(pruneCmd(&cfgPath))
	root.AddCommand(secretsCmd(&cfgPath))

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// =================================================================================
// SERVE
// =================================================================================

func serveCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Levanta el servidor HTTP del conector",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			if cfg.Storage.DSN == "" {
				return fmt.Errorf("storage.dsn requerido para serve")
			}

			logger.Init(logger.Config{
				Env:         cfg.App.Env,
				Level:       cfg.Log.Level,
				ServiceName: "storeconnect",
				Version:     version,
			})
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			st, err := pgstore.New(ctx, cfg.Storage.DSN, pgstore.PoolConfig{
				MaxOpenConns:    cfg.Storage.Postgres.MaxOpenConns,
				MaxIdleConns:    cfg.Storage.Postgres.MaxIdleConns,
				ConnMaxLifetime: cfg.Storage.Postgres.ConnMaxLifetime,
			})
			if err != nil {
				return err
			}
			defer st.Close()
			httpx.RegisterPoolMetrics(st.PoolStats)

			svc, err := newSettingsService(ctx, cfg, st)
			if err != nil {
				return err
			}
			if err := svc.EnsureCredentials(ctx); err != nil {
				return err
			}

			var redisClient *rdb.Client
			if cfg.Rate.Backend == "redis" || cfg.Cache.Kind == "redis" {
				redisClient = rdb.NewClient(&rdb.Options{
					Addr: cfg.Cache.Redis.Addr,
					DB:   cfg.Cache.Redis.DB,
				})
				defer func() { _ = redisClient.Close() }()
			}

			var limiter rate.Limiter
			switch cfg.Rate.Backend {
			case "redis":
				limiter = rate.NewRedisLimiter(redisClient, cfg.Cache.Redis.Prefix)
			default:
				limiter = rate.NewPGLimiter(st.Pool())
			}

			var c cache.Cache
			switch cfg.Cache.Kind {
			case "redis":
				c = redcache.New(redisClient)
			default:
				c = memcache.New(cfg.CacheDefaultTTL())
			}

			auditLog := audit.New(audit.NewPGRecorder(st.Pool()))
			codec := jwtauth.NewCodec(cfg.JWT.Issuer, svc)

			fcm := notify.NewFCMService(svc, st, c)
			webhook := notify.NewWebhookService(svc)
			dispatcher := notify.NewDispatcher(fcm, webhook, auditLog)

			router := httpx.NewRouter(httpx.Deps{
				Settings: svc,
				Codec:    codec,
				Limiter:  limiter,
				Audit:    auditLog,
				Handlers: &handlers.Handlers{
					Settings:   svc,
					Codec:      codec,
					Audit:      auditLog,
					Store:      st,
					Devices:    notify.NewDeviceService(st),
					Dispatcher: dispatcher,
					Version:    version,
				},
			})

			return httpx.Serve(ctx, cfg.Server.Addr, router)
		},
	}
}

// =================================================================================
// PRUNE
// =================================================================================

func pruneCmd(cfgPath *string) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Borra ventanas viejas del contador de rate limit (backend postgres)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			if cfg.Storage.DSN == "" {
				return fmt.Errorf("storage.dsn requerido para prune")
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			st, err := pgstore.New(ctx, cfg.Storage.DSN, pgstore.PoolConfig{})
			if err != nil {
				return err
			}
			defer st.Close()

			n, err := rate.NewPGLimiter(st.Pool()).Prune(ctx, olderThan)
			if err != nil {
				return err
			}
			fmt.Printf("ventanas eliminadas: %d\n", n)
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", rate.DefaultPruneHorizon, "antigüedad mínima de las ventanas a borrar")
	return cmd
}

// =================================================================================
// SECRETS
// =================================================================================

func secretsCmd(cfgPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secrets",
		Short: "Gestión de credenciales del conector",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Muestra un preview enmascarado de las credenciales",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closefn, err := settingsOnly(cmd.Context(), *cfgPath)
			if err != nil {
				return err
			}
			defer closefn()

			snap := svc.Snapshot()
			fmt.Printf("api_key:    %s\n", settings.SecretPreview(snap.APIKey))
			fmt.Printf("jwt_secret: %s\n", settings.SecretPreview(snap.JWTSecret))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "rotate-api-key",
		Short: "Genera una API key nueva y la imprime una única vez",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			svc, closefn, err := settingsOnly(ctx, *cfgPath)
			if err != nil {
				return err
			}
			defer closefn()

			key, err := svc.RotateAPIKey(ctx)
			if err != nil {
				return err
			}
			fmt.Println(key)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "rotate-jwt-secret",
		Short: "Rota el secreto de firma JWT (invalida tokens vigentes)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			svc, closefn, err := settingsOnly(ctx, *cfgPath)
			if err != nil {
				return err
			}
			defer closefn()

			if err := svc.RotateJWTSecret(ctx); err != nil {
				return err
			}
			fmt.Println("jwt secret rotado")
			return nil
		},
	})

	return cmd
}

// settingsOnly arma el settings.Service sin levantar el resto del runtime.
func settingsOnly(ctx context.Context, cfgPath string) (*settings.Service, func(), error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, nil, err
	}

	closefn := func() {}
	var store settings.Store
	switch cfg.Settings.Driver {
	case "postgres":
		st, err := pgstore.New(ctx, cfg.Storage.DSN, pgstore.PoolConfig{})
		if err != nil {
			return nil, nil, err
		}
		closefn = st.Close
		store = settings.NewPGStore(st.Pool())
	default:
		fs, err := settings.NewFSStore(cfg.Settings.Dir)
		if err != nil {
			return nil, nil, err
		}
		store = fs
	}

	svc, err := settings.NewService(ctx, store)
	if err != nil {
		closefn()
		return nil, nil, err
	}
	return svc, closefn, nil
}

func newSettingsService(ctx context.Context, cfg *config.Config, st *pgstore.Store) (*settings.Service, error) {
	var store settings.Store
	switch cfg.Settings.Driver {
	case "postgres":
		store = settings.NewPGStore(st.Pool())
	default:
		fs, err := settings.NewFSStore(cfg.Settings.Dir)
		if err != nil {
			return nil, err
		}
		store = fs
	}
	return settings.NewService(ctx, store)
}
