package analytics

import (
	"fmt"
	"math/rand"
	"time"

	"spendlens/internal/core"
)

const (
	// ModelVersionMovingAverage tags predictions from the moving-average
	// baseline model.
	ModelVersionMovingAverage = "simple_ma_v1"

	// MinHistoryDays is the minimum number of distinct calendar days the
	// forecast history must cover.
	MinHistoryDays = 7

	// ForecastLookbackDays is the trailing history window the service layer
	// reads before calling Forecast.
	ForecastLookbackDays = 90
)

type (
	// PredictedPoint is one forecast day handed back to the caller.
	PredictedPoint struct {
		Date   time.Time `json:"date"`
		Amount float64   `json:"predicted_amount"`
	}

	// Prediction is the full output of a forecast run.
	Prediction struct {
		Points        []PredictedPoint `json:"predictions"`
		HistoricalAvg float64          `json:"historical_avg"`
		ModelVersion  string           `json:"model_version"`
	}
)

// Forecast predicts the next horizonDays of daily spending from the supplied
// history using a moving-average baseline: each predicted amount is the mean
// per-day total multiplied by a uniform factor in [0.9, 1.1). Dates are
// strictly consecutive starting the day after now.
//
// The random source is injected so tests can pin the factors. History
// covering fewer than MinHistoryDays distinct calendar days fails closed
// with ErrInsufficientHistory.
func Forecast(records []core.Transaction, horizonDays int, now time.Time, rng *rand.Rand) (Prediction, error) {
	if horizonDays < 1 {
		horizonDays = 30
	}

	daily := make(map[time.Time]float64)
	for _, t := range records {
		daily[core.Day(t.Time)] += t.Amount
	}
	if len(daily) < MinHistoryDays {
		return Prediction{}, fmt.Errorf("%w: %d distinct days, need %d",
			ErrInsufficientHistory, len(daily), MinHistoryDays)
	}

	var sum float64
	for _, v := range daily {
		sum += v
	}
	avgDaily := sum / float64(len(daily))

	today := core.Day(now)
	points := make([]PredictedPoint, horizonDays)
	for i := range points {
		factor := 0.9 + rng.Float64()*0.2
		points[i] = PredictedPoint{
			Date:   today.AddDate(0, 0, i+1),
			Amount: Round2(avgDaily * factor),
		}
	}

	return Prediction{
		Points:        points,
		HistoricalAvg: Round2(avgDaily),
		ModelVersion:  ModelVersionMovingAverage,
	}, nil
}
