package analytics

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"spendlens/internal/core"
)

// constantHistory builds one transaction of the given amount per day for
// days consecutive calendar days ending yesterday.
func constantHistory(now time.Time, days int, amount float64) []core.Transaction {
	records := make([]core.Transaction, days)
	for i := range records {
		records[i] = core.Transaction{
			ID:      int64(i + 1),
			OwnerID: 1,
			Time:    now.AddDate(0, 0, -(i + 1)),
			Amount:  amount,
		}
	}
	return records
}

func TestForecastConstantHistory(t *testing.T) {
	now := time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)
	records := constantHistory(now, 7, 10)

	pred, err := Forecast(records, 14, now, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("Forecast() error = %v", err)
	}

	if pred.HistoricalAvg != 10 {
		t.Errorf("historical avg = %v, want 10", pred.HistoricalAvg)
	}
	if pred.ModelVersion != ModelVersionMovingAverage {
		t.Errorf("model version = %q, want %q", pred.ModelVersion, ModelVersionMovingAverage)
	}
	if len(pred.Points) != 14 {
		t.Fatalf("got %d points, want 14", len(pred.Points))
	}

	wantDate := core.Day(now).AddDate(0, 0, 1)
	for i, p := range pred.Points {
		if !p.Date.Equal(wantDate) {
			t.Errorf("point %d date = %v, want %v", i, p.Date, wantDate)
		}
		if p.Amount < 9 || p.Amount > 11 {
			t.Errorf("point %d amount %v outside [9, 11]", i, p.Amount)
		}
		wantDate = wantDate.AddDate(0, 0, 1)
	}
}

func TestForecastDeterministicWithSeed(t *testing.T) {
	now := time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)
	records := constantHistory(now, 10, 25)

	a, err := Forecast(records, 5, now, rand.New(rand.NewSource(42)))
	if err != nil {
		t.Fatalf("Forecast() error = %v", err)
	}
	b, err := Forecast(records, 5, now, rand.New(rand.NewSource(42)))
	if err != nil {
		t.Fatalf("Forecast() error = %v", err)
	}

	for i := range a.Points {
		if a.Points[i] != b.Points[i] {
			t.Errorf("point %d differs between seeded runs: %+v vs %+v", i, a.Points[i], b.Points[i])
		}
	}
}

func TestForecastMultipleTransactionsPerDay(t *testing.T) {
	now := time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)
	var records []core.Transaction
	// Two transactions of 5 per day sum to a daily total of 10.
	for i := 1; i <= 7; i++ {
		day := now.AddDate(0, 0, -i)
		records = append(records,
			core.Transaction{ID: int64(2 * i), OwnerID: 1, Time: day, Amount: 5},
			core.Transaction{ID: int64(2*i + 1), OwnerID: 1, Time: day.Add(6 * time.Hour), Amount: 5},
		)
	}

	pred, err := Forecast(records, 3, now, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("Forecast() error = %v", err)
	}
	if pred.HistoricalAvg != 10 {
		t.Errorf("historical avg = %v, want 10", pred.HistoricalAvg)
	}
}

func TestForecastInsufficientHistory(t *testing.T) {
	now := time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		records []core.Transaction
	}{
		{name: "no history", records: nil},
		{name: "six distinct days", records: constantHistory(now, 6, 10)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Forecast(tt.records, 30, now, rand.New(rand.NewSource(1)))
			if !errors.Is(err, ErrInsufficientHistory) {
				t.Errorf("got %v, want ErrInsufficientHistory", err)
			}
		})
	}
}
