package analytics

import (
	"errors"
	"testing"
	"time"
)

func TestZScoreDetector(t *testing.T) {
	detector := ZScoreDetector{}

	t.Run("flags the extreme value only", func(t *testing.T) {
		// Ten 10s and one 200: z(200) ≈ 3.16, everything else well below 3.
		amounts := []float64{10, 10, 10, 10, 10, 10, 10, 10, 10, 10, 200}
		flags, err := detector.Detect(amounts)
		if err != nil {
			t.Fatalf("Detect() error = %v", err)
		}
		if len(flags) != 1 {
			t.Fatalf("got %d flags, want 1: %+v", len(flags), flags)
		}
		if flags[0].Index != 10 {
			t.Errorf("flagged index %d, want 10", flags[0].Index)
		}
		if flags[0].Score == nil || *flags[0].Score <= 3 {
			t.Errorf("score = %v, want > 3", flags[0].Score)
		}
	})

	t.Run("constant values flag nothing", func(t *testing.T) {
		amounts := []float64{5, 5, 5, 5, 5, 5, 5, 5, 5, 5}
		flags, err := detector.Detect(amounts)
		if err != nil {
			t.Fatalf("Detect() error = %v", err)
		}
		if len(flags) != 0 {
			t.Errorf("std == 0 must flag nothing, got %+v", flags)
		}
	})
}

func TestIsolationForestDetector(t *testing.T) {
	detector := IsolationForestDetector{}

	// 27 ordinary amounts plus 3 extremes. Contamination 0.10 flags
	// ceil(3.0) = 3 points; the extremes must be among them.
	amounts := make([]float64, 0, 30)
	base := []float64{8, 9, 10, 11, 12, 9.5, 10.5, 8.5, 11.5}
	for i := 0; i < 3; i++ {
		amounts = append(amounts, base...)
	}
	amounts = append(amounts, 500, 480, 520)

	flags, err := detector.Detect(amounts)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if len(flags) != 3 {
		t.Fatalf("got %d flags, want 3: %+v", len(flags), flags)
	}
	for _, f := range flags {
		if amounts[f.Index] < 400 {
			t.Errorf("flagged ordinary amount %v at index %d", amounts[f.Index], f.Index)
		}
		if f.Score != nil {
			t.Errorf("isolation flags are membership-only, got score %v", *f.Score)
		}
	}
}

func TestIsolationForestDeterministic(t *testing.T) {
	detector := IsolationForestDetector{}
	amounts := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 100}

	a, err := detector.Detect(amounts)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	b, err := detector.Detect(amounts)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if len(a) != len(b) {
		t.Fatalf("runs disagree on flag count: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].Index != b[i].Index {
			t.Errorf("flag %d differs between runs: %d vs %d", i, a[i].Index, b[i].Index)
		}
	}
}

func TestGetDetector(t *testing.T) {
	tests := []struct {
		name    string
		lookup  string
		wantErr bool
	}{
		{name: "zscore registered", lookup: "zscore"},
		{name: "isolation forest registered", lookup: "isolation_forest"},
		{name: "unknown strategy", lookup: "tea_leaves", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := GetDetector(tt.lookup)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error for unknown strategy")
				}
				return
			}
			if err != nil {
				t.Fatalf("GetDetector(%q) error = %v", tt.lookup, err)
			}
			if d.Name() != tt.lookup {
				t.Errorf("Name() = %q, want %q", d.Name(), tt.lookup)
			}
		})
	}
}

func TestDetectAnomalies(t *testing.T) {
	ts := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	// With one outlier over a constant baseline the z-score is √(n-1), so
	// eleven records put the outlier at ≈3.16, past the threshold.
	records := constantHistory(ts, 11, 10)
	records[10].Amount = 200
	records[10].CategoryID = catID(1)
	records[10].Note = "splurge"

	report, err := DetectAnomalies(records, ZScoreDetector{}, testCategories())
	if err != nil {
		t.Fatalf("DetectAnomalies() error = %v", err)
	}

	if report.Strategy != "zscore" {
		t.Errorf("strategy = %q, want zscore", report.Strategy)
	}
	if report.TotalCount != 11 {
		t.Errorf("total count = %d, want 11", report.TotalCount)
	}
	if report.AnomalyCount != 1 || len(report.Anomalies) != 1 {
		t.Fatalf("got %d anomalies, want 1: %+v", report.AnomalyCount, report.Anomalies)
	}

	a := report.Anomalies[0]
	if a.Amount != 200 || a.Category != "Food" || a.Note != "splurge" {
		t.Errorf("anomaly = %+v, want amount 200, category Food, note splurge", a)
	}

	// Stats cover the whole scope, not just the anomalies.
	if report.Stats.Min != 10 || report.Stats.Max != 200 || report.Stats.Median != 10 {
		t.Errorf("stats = %+v, want min 10 max 200 median 10", report.Stats)
	}
	if report.Stats.Mean != 27.27 { // (10*10 + 200) / 11
		t.Errorf("mean = %v, want 27.27", report.Stats.Mean)
	}
}

func TestDetectAnomaliesInsufficientData(t *testing.T) {
	ts := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	records := constantHistory(ts, 9, 10)

	_, err := DetectAnomalies(records, ZScoreDetector{}, nil)
	if !errors.Is(err, ErrInsufficientData) {
		t.Errorf("got %v, want ErrInsufficientData", err)
	}
}

func TestSummarize(t *testing.T) {
	stats, err := Summarize([]float64{1, 2, 3, 4, 100})
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if stats.Mean != 22 || stats.Min != 1 || stats.Max != 100 || stats.Median != 3 {
		t.Errorf("stats = %+v, want mean 22 min 1 max 100 median 3", stats)
	}

	if _, err := Summarize(nil); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("empty input: got %v, want ErrInsufficientData", err)
	}
}
