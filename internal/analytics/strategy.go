// This file implements the Strategy Pattern for outlier detection. Each
// detection method is its own Detector so new strategies can be added
// without touching the engine.

package analytics

import (
	"fmt"

	"github.com/montanaflynn/stats"
)

// Flag marks one input index as anomalous. Score carries the deviation
// score for strategies that compute one; membership-only strategies leave
// it nil.
type Flag struct {
	Index int
	Score *float64
}

// Detector is the strategy interface for flagging outlier amounts. Detect
// operates on the scalar amount values only and returns flags in input
// order.
type Detector interface {
	// Name identifies the strategy in reports and API parameters.
	Name() string
	// Detect returns the indices of anomalous amounts.
	Detect(amounts []float64) ([]Flag, error)
}

// ZScoreDetector flags amounts more than Threshold population standard
// deviations from the mean. A zero standard deviation flags nothing.
type ZScoreDetector struct {
	Threshold float64
}

func (ZScoreDetector) Name() string { return "zscore" }

func (d ZScoreDetector) Detect(amounts []float64) ([]Flag, error) {
	threshold := d.Threshold
	if threshold <= 0 {
		threshold = 3
	}

	data := stats.Float64Data(amounts)
	mean, err := data.Mean()
	if err != nil {
		return nil, err
	}
	std, err := data.StandardDeviationPopulation()
	if err != nil {
		return nil, err
	}
	if std == 0 {
		return nil, nil
	}

	var flags []Flag
	for i, a := range amounts {
		z := (a - mean) / std
		if z < 0 {
			z = -z
		}
		if z > threshold {
			score := Round2(z)
			flags = append(flags, Flag{Index: i, Score: &score})
		}
	}
	return flags, nil
}

// detectors maps strategy names to their implementations. The registry
// enables O(1) lookup and extension without modifying the engine.
var detectors = map[string]Detector{
	ZScoreDetector{}.Name():          ZScoreDetector{},
	IsolationForestDetector{}.Name(): IsolationForestDetector{},
}

// GetDetector returns the detector registered under name.
func GetDetector(name string) (Detector, error) {
	d, ok := detectors[name]
	if !ok {
		return nil, fmt.Errorf("unknown anomaly strategy: %s", name)
	}
	return d, nil
}

// RegisterDetector registers a custom detection strategy under its name.
func RegisterDetector(d Detector) {
	detectors[d.Name()] = d
}
