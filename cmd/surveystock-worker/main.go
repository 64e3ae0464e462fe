package main

import (
	"context"
	"errors"
	"os"

	"golang.org/x/sync/errgroup"

	"surveystock/internal/amqp"
	"surveystock/internal/cli"
	"surveystock/internal/config"
	applog "surveystock/internal/log"
	gsheet "surveystock/internal/sheets/google"
	"surveystock/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).ValidateWorker)

	logger.Info("Starting surveystock-worker")

	catalog, err := cli.LoadCatalog(logger, cfg.CatalogFile)
	if err != nil {
		logger.Error("Failed to load catalog", applog.FieldError, err, "path", cfg.CatalogFile)
		os.Exit(1)
	}

	ctx, stop := cli.ShutdownContext()
	defer stop()

	sheetsClient, err := gsheet.NewClient(ctx, gsheet.Settings{
		SpreadsheetID:      cfg.GoogleSpreadsheetID,
		SheetName:          cfg.GoogleSheetName,
		ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
		ServiceAccountFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", applog.FieldError, err)
		os.Exit(1)
	}
	if err := sheetsClient.EnsureHeader(ctx); err != nil {
		logger.Warn("Could not write sheet header", applog.FieldError, err)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	exporter := worker.NewExportWorker(catalog, sheetsClient)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return amqpClient.ConsumeEvents(gctx, exporter.HandleEvent)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}
