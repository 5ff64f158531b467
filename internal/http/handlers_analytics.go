package http

import (
	"net/http"

	"spendlens/internal/analytics"
)

// handleTrend serves spending totals grouped along a calendar dimension
// (day, month or year).
func (s *Server) handleTrend(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	ownerID, err := parseOwnerID(r)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	tr, err := parseTimeRange(r)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}

	// Month is the default granularity for the trend chart.
	dim := parseDimension(r, "dimension", analytics.DimMonth)
	series, err := s.service.Aggregate(r.Context(), ownerID, dim, tr)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Dimension analytics.Dimension `json:"dimension"`
		Series    []analytics.Bucket  `json:"series"`
	}{dim, series})
}

// handleTimeRadar serves totals over a fixed cyclic domain (hour of day,
// weekday or month of year), zero-filled for stable spoke counts.
func (s *Server) handleTimeRadar(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	ownerID, err := parseOwnerID(r)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	tr, err := parseTimeRange(r)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}

	dim := parseDimension(r, "dimension", analytics.DimHour)
	series, err := s.service.Aggregate(r.Context(), ownerID, dim, tr)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Dimension analytics.Dimension `json:"dimension"`
		Series    []analytics.Bucket  `json:"series"`
	}{dim, series})
}

func (s *Server) handleCategoryShare(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	ownerID, err := parseOwnerID(r)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	tr, err := parseTimeRange(r)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}

	groupBy := parseDimension(r, "group_by", analytics.DimCategory)
	share, err := s.service.Share(r.Context(), ownerID, groupBy, tr)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		GroupBy analytics.Dimension `json:"group_by"`
		analytics.Share
	}{groupBy, share})
}

func (s *Server) handleAmountHist(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	ownerID, err := parseOwnerID(r)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	tr, err := parseTimeRange(r)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}

	binCount := parseIntParam(r, "bins", 10)
	bins, err := s.service.Histogram(r.Context(), ownerID, binCount, tr)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		BinCount int             `json:"bin_count"`
		Bins     []analytics.Bin `json:"bins"`
	}{binCount, bins})
}

func (s *Server) handleHeatmap(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	ownerID, err := parseOwnerID(r)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	tr, err := parseTimeRange(r)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}

	points, err := s.service.Heatmap(r.Context(), ownerID, tr)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Points []analytics.HeatPoint `json:"points"`
	}{points})
}

func (s *Server) handleBehaviorTree(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	ownerID, err := parseOwnerID(r)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	tr, err := parseTimeRange(r)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}

	tree, err := s.service.BehaviorTree(r.Context(), ownerID, tr)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, tree)
}

func (s *Server) handleLevelScatter(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	ownerID, err := parseOwnerID(r)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	tr, err := parseTimeRange(r)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}

	points, err := s.service.LevelScatter(r.Context(), ownerID, tr)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Points []analytics.ScatterPoint `json:"points"`
	}{points})
}

func (s *Server) handleRank(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	ownerID, err := parseOwnerID(r)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	tr, err := parseTimeRange(r)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}

	rankBy := parseDimension(r, "rank_by", analytics.DimCategory)
	topN := parseIntParam(r, "top_n", 10)

	entries, err := s.service.Rank(r.Context(), ownerID, rankBy, topN, tr)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		RankBy  analytics.Dimension   `json:"rank_by"`
		Entries []analytics.RankEntry `json:"entries"`
	}{rankBy, entries})
}
