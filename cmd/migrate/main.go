// cmd/migrate/main.go
package main

import (
	"context"
	"os"
	"path/filepath"
	"sort"

	"github.com/unclebandit/order-email-api/internal/config"
	"github.com/unclebandit/order-email-api/internal/db"
	"github.com/unclebandit/order-email-api/internal/logging"
)

func main() {
	cfg := config.MustLoad()
	logger := logging.New(cfg.Log.Level)
	if !cfg.EnvFileLoaded {
		logger.Debug("No .env file found, using environment")
	}

	if cfg.Database.URL == "" {
		logger.Fatal("DATABASE_URL is required")
	}

	dir := "migrations"
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.sql"))
	if err != nil {
		logger.Fatal("failed to list migrations", "dir", dir, "error", err)
	}
	sort.Strings(files)

	ctx := context.Background()
	conn, err := db.Open(ctx, cfg.Database.URL)
	if err != nil {
		logger.Fatal("database unavailable", "error", err)
	}
	defer conn.Close()

	for _, file := range files {
		content, err := os.ReadFile(file)
		if err != nil {
			logger.Fatal("failed to read migration", "file", file, "error", err)
		}

		if _, err := conn.ExecContext(ctx, string(content)); err != nil {
			logger.Fatal("failed to execute migration", "file", file, "error", err)
		}
		logger.Info("applied", "file", file)
	}

	logger.Info("migrations completed", "count", len(files))
}
