package analytics

import (
	"math"

	"github.com/montanaflynn/stats"
)

// SummaryStats describes the amount distribution of a full input set, not
// just its flagged outliers. All values are rounded to 2 decimals.
type SummaryStats struct {
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Median float64 `json:"median"`
}

// Summarize computes population statistics over a non-empty amount slice.
func Summarize(amounts []float64) (SummaryStats, error) {
	if len(amounts) == 0 {
		return SummaryStats{}, ErrInsufficientData
	}

	data := stats.Float64Data(amounts)

	mean, err := data.Mean()
	if err != nil {
		return SummaryStats{}, err
	}
	std, err := data.StandardDeviationPopulation()
	if err != nil {
		return SummaryStats{}, err
	}
	min, err := data.Min()
	if err != nil {
		return SummaryStats{}, err
	}
	max, err := data.Max()
	if err != nil {
		return SummaryStats{}, err
	}
	median, err := data.Median()
	if err != nil {
		return SummaryStats{}, err
	}

	return SummaryStats{
		Mean:   Round2(mean),
		Std:    Round2(std),
		Min:    Round2(min),
		Max:    Round2(max),
		Median: Round2(median),
	}, nil
}

// Round2 rounds to 2 decimal places, the precision used by every
// caller-facing amount in the engines.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
