// Package cli holds the startup steps shared by cmd/surveystock and
// cmd/surveystock-worker.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"surveystock/internal/config"
	"surveystock/internal/core"
	applog "surveystock/internal/log"
)

// SetupLogger builds the process logger from LOG_LEVEL and installs it as
// the slog default.
func SetupLogger(component string) *applog.Logger {
	cfg := applog.DefaultConfig()
	cfg.Level = applog.ParseLevel(os.Getenv("LOG_LEVEL"))
	cfg.Component = component
	logger := applog.New(cfg)
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and runs validate on it.
// Exits the process on validation failure.
func LoadAndValidateConfig(logger *applog.Logger, validate func(*config.Config) error) *config.Config {
	cfg := config.Load()
	if err := validate(cfg); err != nil {
		logger.Error("Configuration validation failed",
			applog.FieldErrorType, applog.ErrorTypeConfiguration,
			applog.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// LoadCatalog reads the catalog file, or returns the built-in catalog when
// path is empty.
func LoadCatalog(logger *applog.Logger, path string) (*core.Catalog, error) {
	if path == "" {
		logger.Info("Using built-in catalog")
		return core.DefaultCatalog(), nil
	}
	catalog, err := core.LoadCatalogFile(path)
	if err != nil {
		return nil, err
	}
	logger.Info("Loaded catalog", "path", path, "categories", len(catalog.All()))
	return catalog, nil
}

// ShutdownContext is cancelled on SIGINT or SIGTERM.
func ShutdownContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
