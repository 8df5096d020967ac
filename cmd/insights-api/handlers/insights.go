// Package handlers provides HTTP handlers for the Insights Engine API.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dealsense-ai/insights-engine/internal/observability"
	"github.com/dealsense-ai/insights-engine/internal/rag"
	"github.com/dealsense-ai/insights-engine/internal/warehouse"
)

// Edge defaults and bounds for the search endpoint.
const (
	defaultTopK          = 30
	minTopK              = 5
	maxTopK              = 200
	defaultMinSimilarity = 0.15
)

// InsightsHandler serves the insights search endpoint.
type InsightsHandler struct {
	logger   *observability.Logger
	pipeline *rag.Pipeline
}

// NewInsightsHandler creates the handler.
func NewInsightsHandler(logger *observability.Logger, pipeline *rag.Pipeline) *InsightsHandler {
	return &InsightsHandler{logger: logger, pipeline: pipeline}
}

// ErrorDTO is the 4xx validation error body. Backend faults never use it;
// they degrade inside the full response shape instead.
type ErrorDTO struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// Search handles GET /api/v1/insights/search.
func (h *InsightsHandler) Search(w http.ResponseWriter, r *http.Request) {
	req, err := parseSearchRequest(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	resp, err := h.pipeline.Execute(r.Context(), req)
	if err != nil {
		if errors.Is(err, warehouse.ErrInvalidDateRange) {
			h.writeError(w, http.StatusBadRequest, err)
			return
		}
		// The pipeline contract recovers everything else internally; an
		// unknown error here still honors the shape contract.
		h.logger.WithRequest(r.Context()).Error().Err(err).Msg("unexpected pipeline error")
		h.writeError(w, http.StatusInternalServerError, err)
		return
	}

	h.writeJSON(w, http.StatusOK, resp)
}

func parseSearchRequest(r *http.Request) (rag.Request, error) {
	q := r.URL.Query()

	req := rag.Request{
		Query:         q.Get("query"),
		TopK:          defaultTopK,
		MinSimilarity: defaultMinSimilarity,
	}

	if raw := q.Get("top_k"); raw != "" {
		topK, err := strconv.Atoi(raw)
		if err != nil || topK < minTopK || topK > maxTopK {
			return rag.Request{}, errors.New("top_k must be an integer between 5 and 200")
		}
		req.TopK = topK
	}

	if raw := q.Get("min_similarity"); raw != "" {
		minSim, err := strconv.ParseFloat(raw, 64)
		if err != nil || minSim < 0 || minSim > 1 {
			return rag.Request{}, errors.New("min_similarity must be a number between 0 and 1")
		}
		req.MinSimilarity = minSim
	}

	var err error
	if req.Filters, err = parseFilters(q.Get("year"), q.Get("quarter"), q.Get("month"),
		q.Get("date_start"), q.Get("date_end"), q.Get("seller"), q.Get("phase"), q.Get("source")); err != nil {
		return rag.Request{}, err
	}

	return req, nil
}

func parseFilters(year, quarter, month, dateStart, dateEnd, seller, phase, source string) (warehouse.Filters, error) {
	var f warehouse.Filters
	var err error

	if f.Year, err = parseIntFilter("year", year); err != nil {
		return f, err
	}
	if f.Quarter, err = parseIntFilter("quarter", quarter); err != nil {
		return f, err
	}
	if f.Quarter < 0 || f.Quarter > 4 {
		return f, errors.New("quarter must be between 1 and 4")
	}
	if f.Month, err = parseIntFilter("month", month); err != nil {
		return f, err
	}
	if f.Month < 0 || f.Month > 12 {
		return f, errors.New("month must be between 1 and 12")
	}

	if dateStart != "" {
		if f.DateStart, err = time.ParseInLocation("2006-01-02", dateStart, time.UTC); err != nil {
			return f, errors.New("date_start must be YYYY-MM-DD")
		}
	}
	if dateEnd != "" {
		if f.DateEnd, err = time.ParseInLocation("2006-01-02", dateEnd, time.UTC); err != nil {
			return f, errors.New("date_end must be YYYY-MM-DD")
		}
	}
	if !f.DateStart.IsZero() && !f.DateEnd.IsZero() && f.DateEnd.Before(f.DateStart) {
		return f, warehouse.ErrInvalidDateRange
	}

	if source != "" && source != warehouse.SourcePipeline && source != warehouse.SourceWon && source != warehouse.SourceLost {
		return f, errors.New("source must be one of pipeline, won, lost")
	}

	f.Seller = seller
	f.Phase = phase
	f.Source = source
	return f, nil
}

func parseIntFilter(name, raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, errors.New(name + " must be a non-negative integer")
	}
	return v, nil
}

func (h *InsightsHandler) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error().Err(err).Msg("response encoding failed")
	}
}

func (h *InsightsHandler) writeError(w http.ResponseWriter, status int, err error) {
	h.writeJSON(w, status, ErrorDTO{Success: false, Error: err.Error()})
}
