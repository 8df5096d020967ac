// Package rag implements the retrieval, ranking, filtering and quality
// stages of the insights pipeline. The stages in this package are pure:
// they operate on request-local slices and always succeed.
package rag

import (
	"math"

	"github.com/dealsense-ai/insights-engine/internal/warehouse"
)

// ScoreSimilarity annotates each deal with similarity = clamp(1-distance, 0, 1)
// rounded to 4 decimals. Cosine distance normally falls in [0,2] but the
// backend does not guarantee it; NaN or infinite distances score 0.
func ScoreSimilarity(deals []warehouse.Deal) []warehouse.Deal {
	for i := range deals {
		d := deals[i].Distance
		if math.IsNaN(d) || math.IsInf(d, 0) {
			d = 1.0
			deals[i].Distance = d
		}
		deals[i].Similarity = round4(clamp01(1 - d))
	}
	return deals
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
