package worker

import (
	"context"
	"fmt"
	"log/slog"

	"spendlens/internal/amqp"
	"spendlens/internal/core"
	"spendlens/internal/sheets"
	"spendlens/internal/storage"
)

// AuditWorker exports persisted forecast points from SQLite to the external
// audit log (Google Sheets in production, an in-memory store in tests).
type AuditWorker struct {
	storage   *storage.SQLiteRepository
	audit     sheets.ForecastAuditWriter
	batchSize int
}

func NewAuditWorker(storage *storage.SQLiteRepository, audit sheets.ForecastAuditWriter, batchSize int) *AuditWorker {
	return &AuditWorker{
		storage:   storage,
		audit:     audit,
		batchSize: batchSize,
	}
}

// HandleAuditMessage processes a single forecast audit message from AMQP
func (w *AuditWorker) HandleAuditMessage(ctx context.Context, msg *amqp.ForecastAuditMessage) error {
	slog.InfoContext(ctx, "Processing audit message",
		"id", msg.ID,
		"owner_id", msg.OwnerID)

	point, err := w.storage.GetForecastPoint(ctx, msg.ID)
	if err != nil {
		return fmt.Errorf("get forecast point from storage: %w", err)
	}

	if err := w.exportPoint(ctx, point.ID, point); err != nil {
		return fmt.Errorf("export forecast point: %w", err)
	}

	return nil
}

// ProcessPendingPoints exports any forecast points not yet written to the
// audit log. This is a backup mechanism in case AMQP messages are lost.
func (w *AuditWorker) ProcessPendingPoints(ctx context.Context) error {
	pending, err := w.storage.GetPendingExportPoints(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending export points: %w", err)
	}

	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending forecast points", "count", len(pending))

	for _, point := range pending {
		if err := w.exportPoint(ctx, point.ID, point); err != nil {
			slog.ErrorContext(ctx, "Failed to export forecast point", "id", point.ID, "error", err)
			continue
		}
	}

	return nil
}

// StartupExportCheck exports any pending forecast points at worker startup.
// Recovers from missed AMQP messages or worker downtime.
func (w *AuditWorker) StartupExportCheck(ctx context.Context) error {
	pending, err := w.storage.GetPendingExportPoints(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("get pending points for startup check: %w", err)
	}

	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending forecast points found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending forecast points on startup, processing...",
		"count", len(pending))

	successCount := 0
	errorCount := 0

	for _, point := range pending {
		if err := w.exportPoint(ctx, point.ID, point); err != nil {
			slog.ErrorContext(ctx, "Failed to export forecast point during startup",
				"id", point.ID, "error", err)
			errorCount++
			continue
		}
		successCount++
	}

	slog.InfoContext(ctx, "Startup export completed",
		"total", len(pending),
		"exported", successCount,
		"errors", errorCount)

	return nil
}

func (w *AuditWorker) exportPoint(ctx context.Context, id int64, point core.ForecastPoint) error {
	ref, err := w.audit.Append(ctx, point)
	if err != nil {
		// Mark as export error
		if markErr := w.storage.MarkExportError(ctx, id); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark export error", "id", id, "error", markErr)
		}
		return fmt.Errorf("append to audit log: %w", err)
	}

	// Mark as successfully exported
	if err := w.storage.MarkExported(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed to mark as exported", "id", id, "error", err)
		// Don't return error here - the export actually worked
	}

	slog.InfoContext(ctx, "Successfully exported forecast point",
		"id", id,
		"audit_ref", ref,
		"owner_id", point.OwnerID,
		"predicted_amount", point.PredictedAmount)

	return nil
}
