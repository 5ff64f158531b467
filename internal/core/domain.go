package core

import (
	"errors"
	"math"
	"strings"
	"time"
)

type (
	// Location is an optional place attached to a transaction. Either the
	// coordinate pair or the free-text label may be missing.
	Location struct {
		Lat  *float64
		Lon  *float64
		Text string
	}

	// Transaction is a single dated monetary record owned by one user.
	// Records are immutable once analyzed; the engines consume them read-only.
	Transaction struct {
		ID         int64
		OwnerID    int64
		Time       time.Time
		Amount     float64
		CategoryID *int64
		Location   Location
		Note       string
	}

	// Category is a node in the self-referential category tree. The ancestor
	// chain must be acyclic.
	Category struct {
		ID       int64
		Name     string
		ParentID *int64
		Code     string
	}

	// ForecastPoint is one predicted daily amount, persisted as an append-only
	// audit row and never updated by the engines. Period is the caller's
	// reporting granularity label, recorded alongside the row.
	ForecastPoint struct {
		ID              int64
		OwnerID         int64
		Period          string
		Date            time.Time
		PredictedAmount float64
		ModelVersion    string
		CreatedAt       time.Time
	}
)

// Reporting granularity labels for forecast audit rows.
const (
	PeriodDaily   = "daily"
	PeriodMonthly = "month"
)

var (
	ErrMissingOwner    = errors.New("missing owner")
	ErrMissingTime     = errors.New("missing transaction time")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrEmptyName       = errors.New("empty category name")
	ErrInvalidForecast = errors.New("invalid forecast point")
)

// Validate checks a Transaction before it is persisted.
func (t Transaction) Validate() error {
	if t.OwnerID <= 0 {
		return ErrMissingOwner
	}
	if t.Time.IsZero() {
		return ErrMissingTime
	}
	if math.IsNaN(t.Amount) || math.IsInf(t.Amount, 0) {
		return ErrInvalidAmount
	}
	if len(t.Note) > 1000 {
		return errors.New("note too long (max 1000 characters)")
	}
	return nil
}

// Categorized reports whether the transaction carries a category reference.
func (t Transaction) Categorized() bool {
	return t.CategoryID != nil
}

// HasCoordinates reports whether both latitude and longitude are present.
func (l Location) HasCoordinates() bool {
	return l.Lat != nil && l.Lon != nil
}

func (c Category) Validate() error {
	if len(strings.TrimSpace(c.Name)) == 0 {
		return ErrEmptyName
	}
	if len(c.Name) > 100 {
		return errors.New("category name too long (max 100 characters)")
	}
	if c.ParentID != nil && *c.ParentID == c.ID {
		return errors.New("category cannot be its own parent")
	}
	return nil
}

func (p ForecastPoint) Validate() error {
	if p.OwnerID <= 0 {
		return ErrMissingOwner
	}
	if p.Date.IsZero() {
		return ErrInvalidForecast
	}
	if math.IsNaN(p.PredictedAmount) || math.IsInf(p.PredictedAmount, 0) {
		return ErrInvalidForecast
	}
	return nil
}

// Day truncates a time to its calendar date in UTC. Daily grouping and the
// forecast history both key on this.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
