package rag

import (
	"context"
	"strconv"
	"time"

	"github.com/dealsense-ai/insights-engine/internal/warehouse"
)

// Insight generation statuses. StatusRAG is only set when all three
// narrative sections parsed non-empty.
const (
	StatusEmpty          = "empty"
	StatusLLMUnavailable = "llm_unavailable"
	StatusLLMFailed      = "llm_failed"
	StatusLLMParseFailed = "llm_parse_failed"
	StatusRAG            = "rag"
)

// Static fallback texts shown when the narrative cannot be generated. The
// product surface is Brazilian Portuguese; the UI never renders an empty
// insights panel.
const (
	FallbackNoDataText      = "Nenhum negócio encontrado para os filtros selecionados. Tente ampliar o período ou remover filtros."
	FallbackUnavailableText = "Análise automática indisponível no momento. Consulte as estatísticas e destaques acima."
	FallbackRecommendation  = "Ajuste os filtros ou tente novamente em alguns instantes para obter a análise completa."
)

// Insights is the narrative portion of the response, including the failure
// taxonomy and provider attribution for audit.
type Insights struct {
	Status          string   `json:"status"`
	Wins            []string `json:"wins"`
	Losses          []string `json:"losses"`
	Recommendations []string `json:"recommendations"`
	Provider        string   `json:"provider,omitempty"`
	Model           string   `json:"model,omitempty"`
	RawResponse     string   `json:"raw_response,omitempty"`
	Error           string   `json:"error,omitempty"`
}

// FallbackInsights returns the static narrative for a non-success status.
func FallbackInsights(status string) Insights {
	text := FallbackUnavailableText
	if status == StatusEmpty {
		text = FallbackNoDataText
	}
	return Insights{
		Status:          status,
		Wins:            []string{text},
		Losses:          []string{text},
		Recommendations: []string{FallbackRecommendation},
	}
}

// InsightInput is everything the narrative layer may ground itself on:
// aggregate stats and highlights only, never raw deal-level detail beyond
// what the highlights expose.
type InsightInput struct {
	Query       string
	Filters     warehouse.Filters
	Deals       []warehouse.Deal
	Stats       Stats
	WinsStats   Stats
	LossesStats Stats
	Highlights  Highlights
}

// InsightGenerator produces the narrative. Implementations never return an
// error; failures are encoded in the Insights status.
type InsightGenerator interface {
	Enabled() bool
	Generate(ctx context.Context, in InsightInput) Insights
}

// Request is one insights query after edge validation and defaulting.
type Request struct {
	Query         string
	Filters       warehouse.Filters
	TopK          int
	MinSimilarity float64
}

// CacheParams flattens the request into the canonical key parameter set.
func (r Request) CacheParams() map[string]string {
	return map[string]string{
		"query":          r.Query,
		"year":           intParam(r.Filters.Year),
		"quarter":        intParam(r.Filters.Quarter),
		"month":          intParam(r.Filters.Month),
		"date_start":     dateParam(r.Filters.DateStart),
		"date_end":       dateParam(r.Filters.DateEnd),
		"seller":         r.Filters.Seller,
		"phase":          r.Filters.Phase,
		"source":         r.Filters.Source,
		"top_k":          intParam(r.TopK),
		"min_similarity": floatParam(r.MinSimilarity),
	}
}

// Adaptive describes the widened-window fallback applied when a date range
// held no outcomes.
type Adaptive struct {
	Enabled bool   `json:"enabled"`
	Reason  string `json:"reason,omitempty"`
	Mode    string `json:"mode,omitempty"`
}

// RAGInfo groups retrieval-level response metadata.
type RAGInfo struct {
	GeminiEnabled    bool                `json:"gemini_enabled"`
	RetrievedCount   int                 `json:"retrieved_count"`
	MinSimilarity    float64             `json:"min_similarity"`
	ThresholdRelaxed bool                `json:"threshold_relaxed"`
	Freshness        warehouse.Freshness `json:"freshness"`
	CacheHit         bool                `json:"cache_hit"`
	Adaptive         Adaptive            `json:"adaptive"`
}

// Latency reports per-stage wall-clock milliseconds.
type Latency struct {
	Retrieval int64 `json:"retrieval"`
	Ranking   int64 `json:"ranking"`
	Stats     int64 `json:"stats"`
	Insights  int64 `json:"insights"`
	Total     int64 `json:"total"`
}

// FilterEcho reflects the applied filter context back to the caller.
type FilterEcho struct {
	Year      int    `json:"year,omitempty"`
	Quarter   int    `json:"quarter,omitempty"`
	Month     int    `json:"month,omitempty"`
	DateStart string `json:"date_start,omitempty"`
	DateEnd   string `json:"date_end,omitempty"`
	Seller    string `json:"seller,omitempty"`
	Phase     string `json:"phase,omitempty"`
	Source    string `json:"source,omitempty"`
}

func echoFilters(f warehouse.Filters) FilterEcho {
	return FilterEcho{
		Year:      f.Year,
		Quarter:   f.Quarter,
		Month:     f.Month,
		DateStart: dateParam(f.DateStart),
		DateEnd:   dateParam(f.DateEnd),
		Seller:    f.Seller,
		Phase:     f.Phase,
		Source:    f.Source,
	}
}

// Response is the full pipeline payload. The shape is identical on success
// and failure paths; consumers never need error-specific handling.
type Response struct {
	Success            bool             `json:"success"`
	Timestamp          string           `json:"timestamp"`
	Query              string           `json:"query"`
	RAG                RAGInfo          `json:"rag"`
	Quality            Quality          `json:"quality"`
	LatencyMS          Latency          `json:"latency_ms"`
	Filters            FilterEcho       `json:"filters"`
	Stats              Stats            `json:"stats"`
	WinsStats          Stats            `json:"wins_stats"`
	LossesStats        Stats            `json:"losses_stats"`
	BusinessHighlights Highlights       `json:"business_highlights"`
	AIInsights         Insights         `json:"aiInsights"`
	Deals              []warehouse.Deal `json:"deals"`
}

func intParam(v int) string {
	if v == 0 {
		return ""
	}
	return strconv.Itoa(v)
}

func floatParam(v float64) string {
	if v == 0 {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func dateParam(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
