package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"spendlens/internal/core"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Export statuses for forecast audit rows.
const (
	ExportStatusPending  = "pending"
	ExportStatusExported = "exported"
	ExportStatusError    = "error"
)

// TransactionFilter narrows a transaction query. OwnerID is mandatory;
// the rest are optional.
type TransactionFilter struct {
	OwnerID    int64
	Start      *time.Time
	End        *time.Time
	CategoryID *int64
	Limit      int
	Offset     int
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// InsertTransaction persists a transaction and returns it with the
// assigned ID.
func (r *SQLiteRepository) InsertTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (owner_id, occurred_at, amount, category_id, latitude, longitude, location_text, note)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.OwnerID, t.Time.UTC(), t.Amount, t.CategoryID, t.Location.Lat, t.Location.Lon, t.Location.Text, t.Note)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction last insert id: %w", err)
	}
	t.ID = id

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", t.ID,
		"owner_id", t.OwnerID,
		"amount", t.Amount,
		"occurred_at", t.Time)

	return t, nil
}

// QueryTransactions returns an owner's transactions in chronological order.
func (r *SQLiteRepository) QueryTransactions(ctx context.Context, f TransactionFilter) ([]core.Transaction, error) {
	var (
		conds = []string{"owner_id = ?"}
		args  = []any{f.OwnerID}
	)
	if f.Start != nil {
		conds = append(conds, "occurred_at >= ?")
		args = append(args, f.Start.UTC())
	}
	if f.End != nil {
		conds = append(conds, "occurred_at <= ?")
		args = append(args, f.End.UTC())
	}
	if f.CategoryID != nil {
		conds = append(conds, "category_id = ?")
		args = append(args, *f.CategoryID)
	}

	query := `
		SELECT id, owner_id, occurred_at, amount, category_id, latitude, longitude, location_text, note
		FROM transactions
		WHERE ` + strings.Join(conds, " AND ") + `
		ORDER BY occurred_at ASC, id ASC`
	if f.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, f.Limit, f.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var (
			t        core.Transaction
			category sql.NullInt64
			lat, lon sql.NullFloat64
		)
		if err := rows.Scan(&t.ID, &t.OwnerID, &t.Time, &t.Amount, &category, &lat, &lon, &t.Location.Text, &t.Note); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		if category.Valid {
			t.CategoryID = &category.Int64
		}
		if lat.Valid {
			t.Location.Lat = &lat.Float64
		}
		if lon.Valid {
			t.Location.Lon = &lon.Float64
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}

	return out, nil
}

// ListCategories returns the full category taxonomy.
func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, code, parent_id
		FROM categories
		ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var (
			c      core.Category
			parent sql.NullInt64
		)
		if err := rows.Scan(&c.ID, &c.Name, &c.Code, &parent); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		if parent.Valid {
			c.ParentID = &parent.Int64
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}

	return out, nil
}

// CategoryMap returns categories keyed by ID, the shape the analytics
// engines consume.
func (r *SQLiteRepository) CategoryMap(ctx context.Context) (map[int64]core.Category, error) {
	categories, err := r.ListCategories(ctx)
	if err != nil {
		return nil, err
	}

	m := make(map[int64]core.Category, len(categories))
	for _, c := range categories {
		m[c.ID] = c
	}
	return m, nil
}

// GetCategoryByCode resolves a category by its stable code.
func (r *SQLiteRepository) GetCategoryByCode(ctx context.Context, code string) (core.Category, error) {
	var (
		c      core.Category
		parent sql.NullInt64
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, code, parent_id
		FROM categories
		WHERE code = ?`, code).Scan(&c.ID, &c.Name, &c.Code, &parent)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, fmt.Errorf("category %q: %w", code, ErrNotFound)
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category by code: %w", err)
	}
	if parent.Valid {
		c.ParentID = &parent.Int64
	}
	return c, nil
}

// AppendForecastPoints inserts forecast audit rows in a single
// transaction and returns them with assigned IDs. Rows are append-only.
func (r *SQLiteRepository) AppendForecastPoints(ctx context.Context, points []core.ForecastPoint) ([]core.ForecastPoint, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin forecast insert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO forecasts (owner_id, period, forecast_date, predicted_amount, model_version)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("prepare forecast insert: %w", err)
	}
	defer stmt.Close()

	out := make([]core.ForecastPoint, 0, len(points))
	for _, p := range points {
		res, err := stmt.ExecContext(ctx, p.OwnerID, p.Period, p.Date.UTC(), p.PredictedAmount, p.ModelVersion)
		if err != nil {
			return nil, fmt.Errorf("insert forecast point: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("forecast last insert id: %w", err)
		}
		p.ID = id
		out = append(out, p)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit forecast insert: %w", err)
	}

	slog.InfoContext(ctx, "Forecast points saved to SQLite", "count", len(out))
	return out, nil
}

// GetForecastPoint retrieves a single forecast audit row by ID.
func (r *SQLiteRepository) GetForecastPoint(ctx context.Context, id int64) (core.ForecastPoint, error) {
	var p core.ForecastPoint
	err := r.db.QueryRowContext(ctx, `
		SELECT id, owner_id, period, forecast_date, predicted_amount, model_version, created_at
		FROM forecasts
		WHERE id = ?`, id).
		Scan(&p.ID, &p.OwnerID, &p.Period, &p.Date, &p.PredictedAmount, &p.ModelVersion, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.ForecastPoint{}, fmt.Errorf("forecast point %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return core.ForecastPoint{}, fmt.Errorf("get forecast point: %w", err)
	}
	return p, nil
}

// ListForecastPoints returns an owner's forecast history, newest first.
func (r *SQLiteRepository) ListForecastPoints(ctx context.Context, ownerID int64, limit, offset int) ([]core.ForecastPoint, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, owner_id, period, forecast_date, predicted_amount, model_version, created_at
		FROM forecasts
		WHERE owner_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`, ownerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query forecast points: %w", err)
	}
	defer rows.Close()

	var out []core.ForecastPoint
	for rows.Next() {
		var p core.ForecastPoint
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.Period, &p.Date, &p.PredictedAmount, &p.ModelVersion, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan forecast point: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate forecast points: %w", err)
	}

	return out, nil
}

// CountForecastPoints returns the total audit rows for an owner.
func (r *SQLiteRepository) CountForecastPoints(ctx context.Context, ownerID int64) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM forecasts WHERE owner_id = ?`, ownerID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count forecast points: %w", err)
	}
	return count, nil
}

// GetPendingExportPoints returns forecast rows not yet exported to the
// audit sheet, oldest first.
func (r *SQLiteRepository) GetPendingExportPoints(ctx context.Context, limit int) ([]core.ForecastPoint, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, owner_id, period, forecast_date, predicted_amount, model_version, created_at
		FROM forecasts
		WHERE export_status = ?
		ORDER BY created_at ASC, id ASC
		LIMIT ?`, ExportStatusPending, limit)
	if err != nil {
		return nil, fmt.Errorf("query pending export points: %w", err)
	}
	defer rows.Close()

	var out []core.ForecastPoint
	for rows.Next() {
		var p core.ForecastPoint
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.Period, &p.Date, &p.PredictedAmount, &p.ModelVersion, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan pending export point: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending export points: %w", err)
	}

	return out, nil
}

// MarkExported marks a forecast row as successfully exported.
func (r *SQLiteRepository) MarkExported(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE forecasts SET export_status = ? WHERE id = ?`, ExportStatusExported, id); err != nil {
		return fmt.Errorf("mark forecast exported: %w", err)
	}
	slog.InfoContext(ctx, "Forecast point marked as exported", "id", id)
	return nil
}

// MarkExportError marks a forecast row as having failed export.
func (r *SQLiteRepository) MarkExportError(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE forecasts SET export_status = ? WHERE id = ?`, ExportStatusError, id); err != nil {
		return fmt.Errorf("mark forecast export error: %w", err)
	}
	slog.WarnContext(ctx, "Forecast point marked with export error", "id", id)
	return nil
}
