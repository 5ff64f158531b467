package analytics

import (
	"fmt"
	"time"

	"spendlens/internal/core"
)

// MinAnomalyRecords is the hard minimum scope size for anomaly detection.
const MinAnomalyRecords = 10

type (
	// Anomaly is one flagged transaction. Score is present only for
	// strategies that compute a deviation score.
	Anomaly struct {
		TransactionID int64     `json:"id"`
		Time          time.Time `json:"time"`
		Amount        float64   `json:"amount"`
		Score         *float64  `json:"z_score,omitempty"`
		Category      string    `json:"category,omitempty"`
		Note          string    `json:"note,omitempty"`
	}

	// AnomalyReport is the full detection result: the flagged transactions
	// plus summary statistics over the whole input scope.
	AnomalyReport struct {
		Strategy     string       `json:"method"`
		Anomalies    []Anomaly    `json:"anomalies"`
		AnomalyCount int          `json:"anomaly_count"`
		TotalCount   int          `json:"total_count"`
		Stats        SummaryStats `json:"stats"`
	}
)

// DetectAnomalies runs the given strategy over the transaction amounts and
// assembles the report. Fewer than MinAnomalyRecords transactions fail
// closed with ErrInsufficientData. categories resolves flagged category
// names and may be nil.
func DetectAnomalies(records []core.Transaction, detector Detector, categories map[int64]core.Category) (AnomalyReport, error) {
	if len(records) < MinAnomalyRecords {
		return AnomalyReport{}, fmt.Errorf("%w: %d transactions, need %d",
			ErrInsufficientData, len(records), MinAnomalyRecords)
	}

	amounts := make([]float64, len(records))
	for i, t := range records {
		amounts[i] = t.Amount
	}

	flags, err := detector.Detect(amounts)
	if err != nil {
		return AnomalyReport{}, fmt.Errorf("detect with %s: %w", detector.Name(), err)
	}

	anomalies := make([]Anomaly, 0, len(flags))
	for _, f := range flags {
		t := records[f.Index]
		a := Anomaly{
			TransactionID: t.ID,
			Time:          t.Time,
			Amount:        t.Amount,
			Score:         f.Score,
			Note:          t.Note,
		}
		if t.CategoryID != nil {
			if cat, ok := categories[*t.CategoryID]; ok {
				a.Category = cat.Name
			}
		}
		anomalies = append(anomalies, a)
	}

	stats, err := Summarize(amounts)
	if err != nil {
		return AnomalyReport{}, fmt.Errorf("summarize amounts: %w", err)
	}

	return AnomalyReport{
		Strategy:     detector.Name(),
		Anomalies:    anomalies,
		AnomalyCount: len(anomalies),
		TotalCount:   len(records),
		Stats:        stats,
	}, nil
}
