package services

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"time"

	"spendlens/internal/amqp"
	"spendlens/internal/analytics"
	"spendlens/internal/core"
	"spendlens/internal/storage"
)

// Options tunes the engines behind the service. Zero values fall back to
// the package defaults.
type Options struct {
	LookbackDays  int
	HorizonDays   int
	Contamination float64
	Seed          int64
	Rand          *rand.Rand
}

// ForecastResult is a prediction plus its persistence outcome. A failed
// audit write degrades to a warning instead of failing the request, the
// prediction itself is still valid.
type ForecastResult struct {
	Prediction   analytics.Prediction `json:"prediction"`
	PersistedIDs []int64              `json:"persisted_ids,omitempty"`
	Warning      string               `json:"warning,omitempty"`
}

// ForecastHistory is a page of persisted forecast audit rows.
type ForecastHistory struct {
	Points []core.ForecastPoint `json:"points"`
	Total  int64                `json:"total"`
}

// AnalyticsService orchestrates the analytics engines across SQLite and AMQP
type AnalyticsService struct {
	storage    *storage.SQLiteRepository
	amqpClient *amqp.Client

	lookbackDays  int
	horizonDays   int
	contamination float64
	seed          int64

	rngMu sync.Mutex
	rng   *rand.Rand
}

func NewAnalyticsService(storage *storage.SQLiteRepository, amqpClient *amqp.Client, opts Options) *AnalyticsService {
	if opts.LookbackDays <= 0 {
		opts.LookbackDays = analytics.ForecastLookbackDays
	}
	if opts.HorizonDays <= 0 {
		opts.HorizonDays = 30
	}
	if opts.Contamination <= 0 || opts.Contamination >= 1 {
		opts.Contamination = 0.10
	}
	if opts.Seed == 0 {
		opts.Seed = 42
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return &AnalyticsService{
		storage:       storage,
		amqpClient:    amqpClient,
		lookbackDays:  opts.LookbackDays,
		horizonDays:   opts.HorizonDays,
		contamination: opts.Contamination,
		seed:          opts.Seed,
		rng:           opts.Rand,
	}
}

// CreateTransaction validates and persists a new transaction.
func (s *AnalyticsService) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	saved, err := s.storage.InsertTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}
	return saved, nil
}

// ResolveCategory maps a category code to its taxonomy entry.
func (s *AnalyticsService) ResolveCategory(ctx context.Context, code string) (core.Category, error) {
	return s.storage.GetCategoryByCode(ctx, code)
}

// Aggregate groups an owner's transactions along the requested dimension.
// Calendar and cyclic dimensions both route here.
func (s *AnalyticsService) Aggregate(ctx context.Context, ownerID int64, dim analytics.Dimension, tr analytics.TimeRange) ([]analytics.Bucket, error) {
	records, categories, err := s.scope(ctx, ownerID, tr)
	if err != nil {
		return nil, err
	}
	return analytics.Aggregate(records, dim, tr, categories, time.Now().UTC())
}

// Share computes the percentage breakdown along the category or location axis.
func (s *AnalyticsService) Share(ctx context.Context, ownerID int64, groupBy analytics.Dimension, tr analytics.TimeRange) (analytics.Share, error) {
	records, categories, err := s.scope(ctx, ownerID, tr)
	if err != nil {
		return analytics.Share{}, err
	}
	return analytics.ShareByGroup(records, groupBy, categories)
}

// Histogram buckets an owner's amounts into equal-width bins.
func (s *AnalyticsService) Histogram(ctx context.Context, ownerID int64, bins int, tr analytics.TimeRange) ([]analytics.Bin, error) {
	records, _, err := s.scope(ctx, ownerID, tr)
	if err != nil {
		return nil, err
	}
	amounts := make([]float64, len(records))
	for i, r := range records {
		amounts[i] = r.Amount
	}
	return analytics.Histogram(amounts, bins)
}

// Heatmap clusters an owner's located transactions by coordinates.
func (s *AnalyticsService) Heatmap(ctx context.Context, ownerID int64, tr analytics.TimeRange) ([]analytics.HeatPoint, error) {
	records, _, err := s.scope(ctx, ownerID, tr)
	if err != nil {
		return nil, err
	}
	return analytics.Heatmap(records), nil
}

// BehaviorTree builds the one-level category hierarchy with totals.
func (s *AnalyticsService) BehaviorTree(ctx context.Context, ownerID int64, tr analytics.TimeRange) (analytics.Tree, error) {
	records, categories, err := s.scope(ctx, ownerID, tr)
	if err != nil {
		return analytics.Tree{}, err
	}
	return analytics.Hierarchy(records, categories, tr)
}

// LevelScatter relates category usage frequency to average and total spend.
func (s *AnalyticsService) LevelScatter(ctx context.Context, ownerID int64, tr analytics.TimeRange) ([]analytics.ScatterPoint, error) {
	records, categories, err := s.scope(ctx, ownerID, tr)
	if err != nil {
		return nil, err
	}
	return analytics.LevelScatter(records, categories), nil
}

// Rank returns the top-N groups along the requested axis.
func (s *AnalyticsService) Rank(ctx context.Context, ownerID int64, rankBy analytics.Dimension, topN int, tr analytics.TimeRange) ([]analytics.RankEntry, error) {
	records, categories, err := s.scope(ctx, ownerID, tr)
	if err != nil {
		return nil, err
	}
	return analytics.Rank(records, rankBy, topN, categories)
}

// Predict forecasts the owner's daily spending, persists the points as
// audit rows and notifies the export worker. Persistence or publish
// failures degrade to a warning, the prediction is already computed.
// The period argument is an audit label stored with each row.
func (s *AnalyticsService) Predict(ctx context.Context, ownerID int64, horizonDays int, period string) (ForecastResult, error) {
	if horizonDays <= 0 {
		horizonDays = s.horizonDays
	}
	period = strings.TrimSpace(period)
	if period == "" {
		period = core.PeriodDaily
	}

	now := time.Now().UTC()
	start := now.AddDate(0, 0, -s.lookbackDays)
	records, err := s.storage.QueryTransactions(ctx, storage.TransactionFilter{
		OwnerID: ownerID,
		Start:   &start,
	})
	if err != nil {
		return ForecastResult{}, fmt.Errorf("load forecast history: %w", err)
	}

	s.rngMu.Lock()
	prediction, err := analytics.Forecast(records, horizonDays, now, s.rng)
	s.rngMu.Unlock()
	if err != nil {
		return ForecastResult{}, err
	}

	result := ForecastResult{Prediction: prediction}

	points := make([]core.ForecastPoint, len(prediction.Points))
	for i, p := range prediction.Points {
		points[i] = core.ForecastPoint{
			OwnerID:         ownerID,
			Period:          period,
			Date:            p.Date,
			PredictedAmount: p.Amount,
			ModelVersion:    prediction.ModelVersion,
		}
	}

	saved, err := s.storage.AppendForecastPoints(ctx, points)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to persist forecast points",
			"owner_id", ownerID, "error", err)
		result.Warning = "forecast computed but audit persistence failed"
		return result, nil
	}

	result.PersistedIDs = make([]int64, len(saved))
	for i, p := range saved {
		result.PersistedIDs[i] = p.ID
		if err := s.publishAuditMessage(ctx, p.ID, ownerID); err != nil {
			slog.ErrorContext(ctx, "Failed to publish forecast audit message",
				"id", p.ID, "error", err)
			result.Warning = "forecast persisted but audit notification failed"
			// Don't fail the request, the sweep worker picks up pending rows
		}
	}

	return result, nil
}

// History returns a page of the owner's persisted forecast points.
func (s *AnalyticsService) History(ctx context.Context, ownerID int64, limit, offset int) (ForecastHistory, error) {
	points, err := s.storage.ListForecastPoints(ctx, ownerID, limit, offset)
	if err != nil {
		return ForecastHistory{}, fmt.Errorf("load forecast history: %w", err)
	}
	total, err := s.storage.CountForecastPoints(ctx, ownerID)
	if err != nil {
		return ForecastHistory{}, fmt.Errorf("count forecast history: %w", err)
	}
	if points == nil {
		points = []core.ForecastPoint{}
	}
	return ForecastHistory{Points: points, Total: total}, nil
}

// DetectAnomalies runs the named strategy over the owner's transactions.
// An empty strategy selects the isolation forest. Without an explicit start
// the scan covers the trailing 30 days, matching the trend default.
func (s *AnalyticsService) DetectAnomalies(ctx context.Context, ownerID int64, strategy string, tr analytics.TimeRange) (analytics.AnomalyReport, error) {
	if tr.Start.IsZero() {
		tr.Start = time.Now().UTC().AddDate(0, 0, -analytics.DefaultLookbackDays)
	}
	records, categories, err := s.scope(ctx, ownerID, tr)
	if err != nil {
		return analytics.AnomalyReport{}, err
	}

	detector, err := s.detector(strategy)
	if err != nil {
		return analytics.AnomalyReport{}, err
	}

	return analytics.DetectAnomalies(records, detector, categories)
}

func (s *AnalyticsService) detector(strategy string) (analytics.Detector, error) {
	if strategy == "" || strategy == (analytics.IsolationForestDetector{}).Name() {
		return analytics.IsolationForestDetector{
			Contamination: s.contamination,
			Seed:          s.seed,
		}, nil
	}
	return analytics.GetDetector(strategy)
}

// scope loads an owner's transactions for a range together with the
// category map the engines consume.
func (s *AnalyticsService) scope(ctx context.Context, ownerID int64, tr analytics.TimeRange) ([]core.Transaction, map[int64]core.Category, error) {
	if err := tr.Validate(); err != nil {
		return nil, nil, err
	}

	filter := storage.TransactionFilter{OwnerID: ownerID}
	if !tr.Start.IsZero() {
		start := tr.Start
		filter.Start = &start
	}
	if !tr.End.IsZero() {
		end := tr.End
		filter.End = &end
	}

	records, err := s.storage.QueryTransactions(ctx, filter)
	if err != nil {
		return nil, nil, fmt.Errorf("load transactions: %w", err)
	}

	categories, err := s.storage.CategoryMap(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load categories: %w", err)
	}

	return records, categories, nil
}

func (s *AnalyticsService) publishAuditMessage(ctx context.Context, id, ownerID int64) error {
	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping audit message")
		return nil
	}
	return s.amqpClient.PublishForecastAudit(ctx, id, ownerID)
}

// Close closes both storage and AMQP connections
func (s *AnalyticsService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close analytics service: %v", errs)
	}

	return nil
}
