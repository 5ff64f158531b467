package analytics

import "errors"

var (
	// ErrInsufficientData is returned when an engine has a hard minimum input
	// size and the scope holds fewer records (anomaly detection needs 10).
	ErrInsufficientData = errors.New("not enough records for analysis")

	// ErrInsufficientHistory is returned by the forecast engine when the
	// lookback window covers fewer than the minimum distinct calendar days.
	ErrInsufficientHistory = errors.New("not enough history for forecasting")

	// ErrInvalidDimension is returned for an unknown grouping or ranking key.
	ErrInvalidDimension = errors.New("unknown dimension")

	// ErrInvalidRange is returned when a time range ends before it starts.
	ErrInvalidRange = errors.New("invalid time range")

	// ErrInvalidBins is returned when a histogram is requested with fewer
	// than one bin.
	ErrInvalidBins = errors.New("invalid bin count")
)
