// Package http exposes the analytics engines over a JSON API.
//
// This file implements utilities for parsing and validating HTTP request
// parameters shared by the analytics and forecast handlers.
package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"spendlens/internal/analytics"
)

var errMissingOwner = errors.New("missing or invalid owner_id parameter")

// parseOwnerID extracts the mandatory owner_id query parameter.
func parseOwnerID(r *http.Request) (int64, error) {
	v := strings.TrimSpace(r.URL.Query().Get("owner_id"))
	if v == "" {
		return 0, errMissingOwner
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		return 0, errMissingOwner
	}
	return id, nil
}

func formatOwnerID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// parseTimeRange reads optional start_date / end_date parameters in
// YYYY-MM-DD form. The end date is inclusive: it extends to the last
// instant of that day.
func parseTimeRange(r *http.Request) (analytics.TimeRange, error) {
	var tr analytics.TimeRange

	if v := strings.TrimSpace(r.URL.Query().Get("start_date")); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return tr, fmt.Errorf("%w: invalid start_date %q, expected YYYY-MM-DD", analytics.ErrInvalidRange, v)
		}
		tr.Start = t.UTC()
	}
	if v := strings.TrimSpace(r.URL.Query().Get("end_date")); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return tr, fmt.Errorf("%w: invalid end_date %q, expected YYYY-MM-DD", analytics.ErrInvalidRange, v)
		}
		tr.End = t.UTC().Add(24*time.Hour - time.Nanosecond)
	}

	if err := tr.Validate(); err != nil {
		return tr, err
	}
	return tr, nil
}

// parseIntParam reads an optional integer query parameter, falling back to
// def when absent or malformed.
func parseIntParam(r *http.Request, name string, def int) int {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// parsePagination reads limit/offset with sane bounds.
func parsePagination(r *http.Request) (limit, offset int) {
	limit = parseIntParam(r, "limit", 50)
	if limit < 1 || limit > 500 {
		limit = 50
	}
	offset = parseIntParam(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// parseDimension reads a grouping axis parameter with a default.
func parseDimension(r *http.Request, name string, def analytics.Dimension) analytics.Dimension {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return def
	}
	return analytics.Dimension(v)
}
