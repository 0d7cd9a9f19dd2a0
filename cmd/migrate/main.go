package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rebuildhq/storeconnect/internal/config"
)

// Runner mínimo de migraciones: aplica *_up.sql en orden ascendente y
// *_down.sql en orden descendente. Sin tabla de versiones; los archivos son
// idempotentes (IF NOT EXISTS / IF EXISTS).
func main() {
	var (
		configPath = flag.String("config", "config.yaml", "ruta del config.yaml")
		dir        = flag.String("dir", "migrations/postgres", "directorio con *_up.sql y *_down.sql")
	)
	flag.Parse()

	action, steps := parseArgs(flag.Args())

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.Storage.DSN == "" {
		log.Fatal("storage.dsn requerido para migrar")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.Storage.DSN)
	if err != nil {
		log.Fatalf("pgxpool: %v", err)
	}
	defer pool.Close()

	if err := run(ctx, pool, *dir, action, steps); err != nil {
		log.Fatal(err)
	}
}

func parseArgs(args []string) (action string, steps int) {
	action = "up"
	if len(args) >= 1 && args[0] != "" {
		action = strings.ToLower(args[0])
	}
	if len(args) >= 2 {
		if n, err := strconv.Atoi(args[1]); err == nil && n > 0 {
			steps = n
		}
	}
	return action, steps
}

func run(ctx context.Context, pool *pgxpool.Pool, dir, action string, steps int) error {
	var suffix string
	switch action {
	case "up":
		suffix = "_up.sql"
	case "down":
		suffix = "_down.sql"
	default:
		return fmt.Errorf("acción desconocida %q (up | down [pasos])", action)
	}

	files, err := listSQL(dir, suffix)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		log.Printf("sin archivos %s, nada que hacer", suffix)
		return nil
	}

	sort.Strings(files)
	if action == "down" {
		// Los down se corren de la más nueva a la más vieja.
		reverseInPlace(files)
	}
	if steps > 0 && steps < len(files) {
		files = files[:steps]
	}

	log.Printf("aplicando %d migración(es) %s...", len(files), action)
	for _, f := range files {
		start := time.Now()
		b, err := os.ReadFile(f)
		if err != nil {
			return fmt.Errorf("%s: %w", f, err)
		}
		if _, err := pool.Exec(ctx, string(b)); err != nil {
			return fmt.Errorf("%s: %w", f, err)
		}
		log.Printf("OK %s (%s)", filepath.Base(f), time.Since(start).Truncate(time.Millisecond))
	}
	return nil
}

func listSQL(dir, suffix string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.Type().IsRegular() && strings.HasSuffix(strings.ToLower(e.Name()), suffix) {
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	return out, nil
}

func reverseInPlace(ss []string) {
	for i, j := 0, len(ss)-1; i < j; i, j = i+1, j-1 {
		ss[i], ss[j] = ss[j], ss[i]
	}
}
