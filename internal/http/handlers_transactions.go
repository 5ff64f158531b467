package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"spendlens/internal/core"
)

type createTransactionRequest struct {
	OwnerID      int64    `json:"owner_id"`
	Time         string   `json:"time"`
	Amount       float64  `json:"amount"`
	CategoryCode string   `json:"category_code,omitempty"`
	Lat          *float64 `json:"lat,omitempty"`
	Lon          *float64 `json:"lon,omitempty"`
	LocationText string   `json:"location_text,omitempty"`
	Note         string   `json:"note,omitempty"`
}

type createTransactionResponse struct {
	ID       int64   `json:"id"`
	OwnerID  int64   `json:"owner_id"`
	Time     string  `json:"time"`
	Amount   float64 `json:"amount"`
	Category string  `json:"category,omitempty"`
}

// handleCreateTransaction ingests one transaction. The category is given
// by its stable code and resolved against the taxonomy; every cached
// analytics view for the owner is invalidated on success.
func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req createTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	t := core.Transaction{
		OwnerID: req.OwnerID,
		Amount:  req.Amount,
		Location: core.Location{
			Lat:  req.Lat,
			Lon:  req.Lon,
			Text: strings.TrimSpace(req.LocationText),
		},
		Note: strings.TrimSpace(req.Note),
	}

	if v := strings.TrimSpace(req.Time); v != "" {
		parsed, err := parseTransactionTime(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		t.Time = parsed
	} else {
		t.Time = time.Now().UTC()
	}

	categoryName := ""
	if code := strings.TrimSpace(req.CategoryCode); code != "" {
		category, err := s.service.ResolveCategory(r.Context(), code)
		if err != nil {
			writeEngineError(w, r, err)
			return
		}
		t.CategoryID = &category.ID
		categoryName = category.Name
	}

	saved, err := s.service.CreateTransaction(r.Context(), t)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}

	s.invalidateOwner(r.Context(), saved.OwnerID)

	writeJSON(w, http.StatusCreated, createTransactionResponse{
		ID:       saved.ID,
		OwnerID:  saved.OwnerID,
		Time:     saved.Time.UTC().Format(time.RFC3339),
		Amount:   saved.Amount,
		Category: categoryName,
	})
}

// parseTransactionTime accepts RFC 3339 timestamps or bare dates.
func parseTransactionTime(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse("2006-01-02", v); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, errTimeFormat
}

var errTimeFormat = errors.New("invalid time, expected RFC 3339 or YYYY-MM-DD")
