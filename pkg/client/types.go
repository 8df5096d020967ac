package client

import "encoding/json"

// SearchResponse mirrors the search endpoint payload.
type SearchResponse struct {
	Success   bool   `json:"success"`
	Timestamp string `json:"timestamp"`
	Query     string `json:"query"`

	RAG struct {
		GeminiEnabled    bool    `json:"gemini_enabled"`
		RetrievedCount   int     `json:"retrieved_count"`
		MinSimilarity    float64 `json:"min_similarity"`
		ThresholdRelaxed bool    `json:"threshold_relaxed"`
		CacheHit         bool    `json:"cache_hit"`
		Freshness        struct {
			LagHours float64 `json:"lag_hours"`
			Stale    bool    `json:"stale"`
		} `json:"freshness"`
		Adaptive struct {
			Enabled bool   `json:"enabled"`
			Reason  string `json:"reason,omitempty"`
			Mode    string `json:"mode,omitempty"`
		} `json:"adaptive"`
	} `json:"rag"`

	Quality struct {
		CoverageRatio    float64 `json:"coverage_ratio"`
		AvgSimilarity    float64 `json:"avg_similarity"`
		MaxSimilarity    float64 `json:"max_similarity"`
		PrecisionAt5     float64 `json:"precision_at_5"`
		PrecisionAt10    float64 `json:"precision_at_10"`
		PostFilterCount  int     `json:"post_filter_count"`
		ThresholdRelaxed bool    `json:"threshold_relaxed"`
	} `json:"quality"`

	LatencyMS struct {
		Retrieval int64 `json:"retrieval"`
		Ranking   int64 `json:"ranking"`
		Stats     int64 `json:"stats"`
		Insights  int64 `json:"insights"`
		Total     int64 `json:"total"`
	} `json:"latency_ms"`

	Stats       Stats `json:"stats"`
	WinsStats   Stats `json:"wins_stats"`
	LossesStats Stats `json:"losses_stats"`

	AIInsights struct {
		Status          string   `json:"status"`
		Wins            []string `json:"wins"`
		Losses          []string `json:"losses"`
		Recommendations []string `json:"recommendations"`
		Provider        string   `json:"provider,omitempty"`
		Model           string   `json:"model,omitempty"`
	} `json:"aiInsights"`

	Deals []Deal `json:"deals"`

	// Raw is the unparsed response body, for callers needing fields not
	// surfaced above (business_highlights, filters echo).
	Raw json.RawMessage `json:"-"`
}

// Stats is the aggregate bundle as serialized by the API.
type Stats struct {
	Total        int            `json:"total"`
	BySource     map[string]int `json:"by_source"`
	AvgCycleDays float64        `json:"avg_cycle_days"`
	AvgIdleDays  float64        `json:"avg_idle_days"`
	TotalGross   float64        `json:"total_gross"`
	TotalNet     float64        `json:"total_net"`
}

// Deal is one ranked deal record.
type Deal struct {
	ID            string  `json:"deal_id"`
	Source        string  `json:"source"`
	Opportunity   string  `json:"opportunity"`
	Seller        string  `json:"seller"`
	Account       string  `json:"account"`
	Gross         float64 `json:"gross"`
	FiscalQuarter string  `json:"fiscal_quarter"`
	Similarity    float64 `json:"similarity"`
	RankScore     float64 `json:"rag_rank_score"`
}
