package http

import (
	"encoding/json"
	"net/http"
	"strings"
)

type predictRequest struct {
	OwnerID     int64  `json:"owner_id"`
	HorizonDays int    `json:"horizon_days"`
	Period      string `json:"period"`
}

// handlePredict runs the forecast for an owner and persists the resulting
// audit points. Parameters come from the JSON body, falling back to query
// parameters for convenience.
func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req predictRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
			return
		}
	}
	if req.OwnerID == 0 {
		ownerID, err := parseOwnerID(r)
		if err != nil {
			writeEngineError(w, r, err)
			return
		}
		req.OwnerID = ownerID
	}
	if req.HorizonDays == 0 {
		req.HorizonDays = parseIntParam(r, "horizon_days", 0)
	}
	if req.Period == "" {
		req.Period = strings.TrimSpace(r.URL.Query().Get("period"))
	}

	result, err := s.service.Predict(r.Context(), req.OwnerID, req.HorizonDays, req.Period)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleAnomaly scans an owner's transactions with the selected strategy.
func (s *Server) handleAnomaly(w http.ResponseWriter, r *http.Request) {
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

	strategy := strings.TrimSpace(r.URL.Query().Get("method"))
	report, err := s.service.DetectAnomalies(r.Context(), ownerID, strategy, tr)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// handleForecastHistory pages through an owner's persisted forecast points.
func (s *Server) handleForecastHistory(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	ownerID, err := parseOwnerID(r)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}

	limit, offset := parsePagination(r)
	history, err := s.service.History(r.Context(), ownerID, limit, offset)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, history)
}
