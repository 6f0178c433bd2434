package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/NicolasHaas/gorelay/pkg/datastore"
	"github.com/NicolasHaas/gorelay/pkg/logging"
	"github.com/NicolasHaas/gorelay/pkg/server"
	"github.com/NicolasHaas/gorelay/pkg/version"
)

func main() {
	// Load .env file; missing files are fine, the environment still applies.
	_ = godotenv.Load()

	cfg := server.DefaultConfig()
	if v := os.Getenv("GORELAY_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("GORELAY_DB"); v != "" {
		cfg.DBPath = v
	}

	flag.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP/WebSocket bind address")
	flag.StringVar(&cfg.MetricsAddr, "metrics", cfg.MetricsAddr, "HTTP bind address for Prometheus /metrics (empty to disable)")
	flag.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite database file path")
	flag.BoolVar(&cfg.Memory, "memory", false, "Use an in-memory store instead of SQLite")
	flag.StringVar(&cfg.UsersFile, "users-file", "", "YAML file defining users to create on startup")
	flag.BoolVar(&cfg.SeedUsers, "seed", cfg.SeedUsers, "Seed demo users into an empty directory")
	flag.BoolVar(&cfg.ExportUsers, "export-users", false, "Export all users as YAML and exit")

	logLevel := flag.String("log-level", "info", "Log level: "+logging.LevelNames())
	logFormat := flag.String("log-format", "text", "Log format: text or json")
	flag.Parse()

	// Configure structured logging
	if err := logging.Setup(logging.Options{
		Level:  *logLevel,
		Format: *logFormat,
		Output: os.Stdout,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "invalid logging config: %v\n", err)
		os.Exit(1)
	}

	st, err := openStore(cfg)
	if err != nil {
		slog.Error("open store", "err", err)
		os.Exit(1)
	}

	// Handle export command (run and exit)
	if cfg.ExportUsers {
		defer func() { _ = st.Close() }()
		data, err := server.ExportUsersYAML(st)
		if err != nil {
			slog.Error("export users", "err", err)
			os.Exit(1)
		}
		fmt.Print(string(data))
		return
	}

	slog.Info("GoRelay", "version", version.Full())

	srv := server.New(cfg, server.Dependencies{Store: st})
	if err := srv.Run(); err != nil {
		slog.Error("server error", "err", err)
		os.Exit(1)
	}
}

func openStore(cfg server.Config) (datastore.DataStore, error) {
	if cfg.Memory {
		return datastore.NewMemory(), nil
	}
	return datastore.NewSQL(cfg.DBPath)
}
