package rag

import "github.com/dealsense-ai/insights-engine/internal/warehouse"

// ApplyThreshold keeps records with similarity >= minSimilarity. When the
// strict cutoff empties a non-empty candidate list, it relaxes to the top
// min(relaxedLimit, len) records so callers never get zero results while
// candidates existed. Empty input stays empty with no relaxation.
func ApplyThreshold(deals []warehouse.Deal, minSimilarity float64, relaxedLimit int) ([]warehouse.Deal, bool) {
	if len(deals) == 0 {
		return deals, false
	}

	kept := make([]warehouse.Deal, 0, len(deals))
	for _, d := range deals {
		if d.Similarity >= minSimilarity {
			kept = append(kept, d)
		}
	}

	if len(kept) > 0 {
		return kept, false
	}

	limit := relaxedLimit
	if limit <= 0 {
		limit = 10
	}
	if limit > len(deals) {
		limit = len(deals)
	}
	return deals[:limit], true
}
