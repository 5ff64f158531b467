package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"spendlens/internal/amqp"
	"spendlens/internal/config"
	"spendlens/internal/log"
	"spendlens/internal/sheets"
	gsheet "spendlens/internal/sheets/google"
	mem "spendlens/internal/sheets/memory"
	"spendlens/internal/storage"
	"spendlens/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.Config{Component: log.ComponentWorker})
	log.SetDefault(logger)

	logger.Info("Starting spendlens-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// Audit destination: Google Sheets when configured, an in-memory
	// store otherwise so local runs still exercise the full pipeline.
	var auditWriter sheets.ForecastAuditWriter
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.NewFromEnv(context.Background())
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		auditWriter = client
		logger.Info("Google Sheets audit log initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		auditWriter = mem.New()
		logger.Warn("No GOOGLE_SPREADSHEET_ID provided, audit rows go to an in-memory store")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	auditWorker := worker.NewAuditWorker(repo, auditWriter, cfg.ExportBatchSize)

	// On startup, export any pending rows missed while the worker was down.
	logger.Info("Performing startup export check...")
	if err := auditWorker.StartupExportCheck(ctx); err != nil {
		logger.Error("Startup export check failed", "error", err)
		// Keep running, the periodic sweep retries.
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := amqpClient.ConsumeForecastAudit(ctx, func(msg *amqp.ForecastAuditMessage) error {
			return auditWorker.HandleAuditMessage(ctx, msg)
		})
		if err != nil && err != context.Canceled {
			return err
		}
		return nil
	})

	g.Go(func() error {
		ticker := time.NewTicker(cfg.SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if err := auditWorker.ProcessPendingPoints(ctx); err != nil {
					logger.Error("Periodic export sweep failed", "error", err)
				}
			}
		}
	})

	if err := g.Wait(); err != nil {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}
