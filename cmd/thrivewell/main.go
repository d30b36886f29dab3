package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/ramionh/thrive-well-guide-sub001/internal/api"
	"github.com/ramionh/thrive-well-guide-sub001/internal/catalog"
	"github.com/ramionh/thrive-well-guide-sub001/internal/store"
	"github.com/ramionh/thrive-well-guide-sub001/internal/util"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for ThriveWell state data
	DefaultStateDir = "/var/lib/thrivewell"
	// DefaultDBFileName is the default SQLite database filename
	DefaultDBFileName = "thrivewell.db"
	// DefaultAPIAddr is the default API listen address
	DefaultAPIAddr = ":8080"
)

func main() {
	initializeLogger()

	config := loadEnvironmentConfig()
	flags := parseCommandLineFlags(config)

	if err := ensureDirectoriesExist(flags); err != nil {
		slog.Error("Failed to create required directories", "error", err)
		os.Exit(1)
	}

	st, err := openStore(flags)
	if err != nil {
		slog.Error("Failed to open store", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := st.Close(); err != nil {
			slog.Error("Failed to close store", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("Bootstrapping ThriveWell with configured modules")
	slog.Debug("Final configuration", "state_dir", *flags.stateDir, "dsn_set", *flags.dbDSN != "", "api_addr", *flags.apiAddr)
	server := api.NewServer(st, catalog.Default())
	if err := server.Run(ctx, api.WithAddr(*flags.apiAddr)); err != nil {
		slog.Error("ThriveWell failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("ThriveWell exited successfully")
}

// Config holds environment configuration
type Config struct {
	DbDriver    string
	DatabaseURL string
	StateDir    string
	APIAddr     string
}

// Flags holds command line flag values
type Flags struct {
	stateDir *string
	dbDriver *string
	dbDSN    *string
	apiAddr  *string
}

// initializeLogger sets up structured logging; debug level is opt-in via
// THRIVEWELL_DEBUG.
func initializeLogger() {
	level := slog.LevelInfo
	if util.ParseBoolEnv("THRIVEWELL_DEBUG", false) {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		DbDriver:    os.Getenv("THRIVEWELL_DB_DRIVER"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		StateDir:    util.EnvOrDefault("THRIVEWELL_STATE_DIR", DefaultStateDir),
		APIAddr:     util.EnvOrDefault("API_ADDR", DefaultAPIAddr),
	}

	// If no database URL is provided, default to SQLite in the state directory
	if config.DatabaseURL == "" {
		config.DatabaseURL = filepath.Join(config.StateDir, DefaultDBFileName)
		slog.Debug("No database DSN provided, defaulting to SQLite", "sqlite_path", config.DatabaseURL)
	}

	slog.Debug("environment variables loaded",
		"THRIVEWELL_DB_DRIVER", config.DbDriver,
		"DATABASE_URL_SET", config.DatabaseURL != "",
		"THRIVEWELL_STATE_DIR", config.StateDir,
		"API_ADDR", config.APIAddr)

	return config
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		stateDir: flag.String("state-dir", config.StateDir, "Directory for state data"),
		dbDriver: flag.String("db-driver", config.DbDriver, "Database driver (sqlite3 or postgres)"),
		dbDSN:    flag.String("db-dsn", config.DatabaseURL, "Database DSN (SQLite path or PostgreSQL URL)"),
		apiAddr:  flag.String("addr", config.APIAddr, "API listen address"),
	}
	flag.Parse()
	return flags
}

// ensureDirectoriesExist creates the state directory when the store is
// file-backed.
func ensureDirectoriesExist(flags Flags) error {
	if isPostgresDSN(*flags.dbDriver, *flags.dbDSN) {
		return nil
	}
	return os.MkdirAll(*flags.stateDir, 0o755)
}

// openStore selects the backend from the driver flag and DSN shape.
func openStore(flags Flags) (store.Store, error) {
	if isPostgresDSN(*flags.dbDriver, *flags.dbDSN) {
		slog.Info("Opening PostgreSQL store")
		return store.NewPostgresStore(store.WithDSN(*flags.dbDSN))
	}
	slog.Info("Opening SQLite store", "path", *flags.dbDSN)
	return store.NewSQLiteStore(store.WithDSN(*flags.dbDSN))
}

func isPostgresDSN(driver, dsn string) bool {
	if driver == "postgres" {
		return true
	}
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}
