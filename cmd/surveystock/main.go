package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"surveystock/internal/backend"
	"surveystock/internal/cli"
	"surveystock/internal/config"
	"surveystock/internal/core"
	apphttp "surveystock/internal/http"
	applog "surveystock/internal/log"
	"surveystock/internal/persist"
	"surveystock/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).Validate)

	catalog, err := cli.LoadCatalog(logger, cfg.CatalogFile)
	if err != nil {
		logger.Error("Failed to load catalog", applog.FieldError, err, "path", cfg.CatalogFile)
		os.Exit(1)
	}

	ctx, stop := cli.ShutdownContext()
	defer stop()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", applog.FieldError, err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to create backend", applog.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if err := result.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", applog.FieldError, err)
		}
	}()

	store := persist.New(result.Store, persist.WithKey(cfg.StorageKey))
	inventory := services.NewInventoryService(core.NewLedger(catalog), store, result.Publisher)
	inventory.Load(ctx)

	poller := services.NewStalenessPoller(inventory, cfg.SyncInterval)
	srv := apphttp.NewServer(":"+cfg.Port, inventory, logger)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting surveystock server",
			applog.FieldOperation, applog.OpStartup,
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			"storage_key", cfg.StorageKey,
			"events", result.Publisher != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return poller.Start(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down", applog.FieldOperation, applog.OpShutdown)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		return errors.Join(poller.Stop(shutdownCtx), srv.Shutdown(shutdownCtx))
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped with error", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
