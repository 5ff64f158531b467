package worker

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"spendlens/internal/amqp"
	"spendlens/internal/core"
	"spendlens/internal/sheets/memory"
	"spendlens/internal/storage"
)

func newTestWorker(t *testing.T) (*AuditWorker, *storage.SQLiteRepository, *memory.Store) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	repo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	audit := memory.New()
	return NewAuditWorker(repo, audit, 10), repo, audit
}

func seedPoints(t *testing.T, repo *storage.SQLiteRepository, n int) []core.ForecastPoint {
	t.Helper()

	day := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	points := make([]core.ForecastPoint, n)
	for i := range points {
		points[i] = core.ForecastPoint{
			OwnerID:         1,
			Period:          "daily",
			Date:            day.AddDate(0, 0, i),
			PredictedAmount: 10 + float64(i),
			ModelVersion:    "simple_ma_v1",
		}
	}

	saved, err := repo.AppendForecastPoints(context.Background(), points)
	if err != nil {
		t.Fatalf("AppendForecastPoints() error = %v", err)
	}
	return saved
}

func TestAuditWorker_HandleAuditMessage(t *testing.T) {
	w, repo, audit := newTestWorker(t)
	ctx := context.Background()

	saved := seedPoints(t, repo, 1)

	msg := amqp.NewForecastAuditMessage(saved[0].ID, 1)
	if err := w.HandleAuditMessage(ctx, msg); err != nil {
		t.Fatalf("HandleAuditMessage() error = %v", err)
	}

	items := audit.Items()
	if len(items) != 1 || items[0].PredictedAmount != 10 {
		t.Fatalf("audit log = %+v, want the single exported point", items)
	}

	pending, err := repo.GetPendingExportPoints(ctx, 10)
	if err != nil {
		t.Fatalf("GetPendingExportPoints() error = %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("pending after export = %d, want 0", len(pending))
	}
}

func TestAuditWorker_HandleAuditMessage_MissingPoint(t *testing.T) {
	w, _, _ := newTestWorker(t)

	msg := amqp.NewForecastAuditMessage(9999, 1)
	if err := w.HandleAuditMessage(context.Background(), msg); err == nil {
		t.Error("HandleAuditMessage() with unknown ID should fail")
	}
}

func TestAuditWorker_ProcessPendingPoints(t *testing.T) {
	w, repo, audit := newTestWorker(t)
	ctx := context.Background()

	seedPoints(t, repo, 3)

	if err := w.ProcessPendingPoints(ctx); err != nil {
		t.Fatalf("ProcessPendingPoints() error = %v", err)
	}
	if len(audit.Items()) != 3 {
		t.Errorf("audit log has %d rows, want 3", len(audit.Items()))
	}

	// Second sweep finds nothing new.
	if err := w.ProcessPendingPoints(ctx); err != nil {
		t.Fatalf("ProcessPendingPoints() second run error = %v", err)
	}
	if len(audit.Items()) != 3 {
		t.Errorf("audit log has %d rows after second sweep, want 3", len(audit.Items()))
	}
}

func TestAuditWorker_StartupExportCheck(t *testing.T) {
	w, repo, audit := newTestWorker(t)
	ctx := context.Background()

	seedPoints(t, repo, 2)

	if err := w.StartupExportCheck(ctx); err != nil {
		t.Fatalf("StartupExportCheck() error = %v", err)
	}
	if len(audit.Items()) != 2 {
		t.Errorf("audit log has %d rows, want 2", len(audit.Items()))
	}
}
