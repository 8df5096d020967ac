package rag

import "github.com/dealsense-ai/insights-engine/internal/warehouse"

// Quality reports retrieval diagnostics for the final ranked set. It is
// purely observational and never feeds back into retrieval behavior.
type Quality struct {
	RequestedTopK    int     `json:"requested_top_k"`
	RetrievedCount   int     `json:"retrieved_count"`
	PostFilterCount  int     `json:"post_filter_count"`
	CoverageRatio    float64 `json:"coverage_ratio"`
	AvgSimilarity    float64 `json:"avg_similarity"`
	MaxSimilarity    float64 `json:"max_similarity"`
	PrecisionAt5     float64 `json:"precision_at_5"`
	PrecisionAt10    float64 `json:"precision_at_10"`
	MinSimilarity    float64 `json:"min_similarity"`
	ThresholdRelaxed bool    `json:"threshold_relaxed"`
}

// BuildQuality computes diagnostics from the final (ranked, filtered) list.
// All ratios are divide-by-zero guarded and default to 0.
func BuildQuality(final []warehouse.Deal, requestedTopK int, minSimilarity float64, relaxed bool, rawCount int) Quality {
	q := Quality{
		RequestedTopK:    requestedTopK,
		RetrievedCount:   rawCount,
		PostFilterCount:  len(final),
		MinSimilarity:    minSimilarity,
		ThresholdRelaxed: relaxed,
	}

	if requestedTopK > 0 {
		q.CoverageRatio = round4(float64(len(final)) / float64(requestedTopK))
	}

	if len(final) > 0 {
		var sum float64
		for _, d := range final {
			sum += d.Similarity
			if d.Similarity > q.MaxSimilarity {
				q.MaxSimilarity = d.Similarity
			}
		}
		q.AvgSimilarity = round4(sum / float64(len(final)))
	}

	q.PrecisionAt5 = precisionAt(final, 5, minSimilarity)
	q.PrecisionAt10 = precisionAt(final, 10, minSimilarity)

	return q
}

// precisionAt takes the first min(k, len) rank-ordered records and returns
// the fraction whose similarity clears the threshold.
func precisionAt(deals []warehouse.Deal, k int, minSimilarity float64) float64 {
	if k > len(deals) {
		k = len(deals)
	}
	if k == 0 {
		return 0
	}

	hits := 0
	for _, d := range deals[:k] {
		if d.Similarity >= minSimilarity {
			hits++
		}
	}
	return round4(float64(hits) / float64(k))
}
