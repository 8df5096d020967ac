package rag

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dealsense-ai/insights-engine/internal/warehouse"
)

func dealsWithSimilarities(sims ...float64) []warehouse.Deal {
	deals := make([]warehouse.Deal, len(sims))
	for i, s := range sims {
		deals[i] = warehouse.Deal{ID: fmt.Sprintf("d%d", i), Similarity: s}
	}
	return deals
}

func TestApplyThreshold_KeepsAboveCutoff(t *testing.T) {
	deals := dealsWithSimilarities(0.9, 0.5, 0.1)

	kept, relaxed := ApplyThreshold(deals, 0.4, 10)

	assert.False(t, relaxed)
	assert.Len(t, kept, 2)
	assert.Equal(t, "d0", kept[0].ID)
	assert.Equal(t, "d1", kept[1].ID)
}

func TestApplyThreshold_BoundaryIsInclusive(t *testing.T) {
	deals := dealsWithSimilarities(0.15)

	kept, relaxed := ApplyThreshold(deals, 0.15, 10)

	assert.False(t, relaxed)
	assert.Len(t, kept, 1)
}

func TestApplyThreshold_RelaxationWhenAllFiltered(t *testing.T) {
	deals := dealsWithSimilarities(0.1, 0.09, 0.08)

	kept, relaxed := ApplyThreshold(deals, 0.5, 10)

	assert.True(t, relaxed)
	assert.Len(t, kept, 3, "relaxed output is min(limit, len)")
	assert.Equal(t, "d0", kept[0].ID, "relaxation preserves rank order")
}

func TestApplyThreshold_RelaxationCapsAtLimit(t *testing.T) {
	sims := make([]float64, 25)
	deals := dealsWithSimilarities(sims...)

	kept, relaxed := ApplyThreshold(deals, 0.5, 10)

	assert.True(t, relaxed)
	assert.Len(t, kept, 10)
}

func TestApplyThreshold_EmptyInputStaysEmpty(t *testing.T) {
	kept, relaxed := ApplyThreshold(nil, 0.5, 10)

	assert.False(t, relaxed, "nothing to relax")
	assert.Empty(t, kept)
}

func TestApplyThreshold_Monotonic(t *testing.T) {
	deals := dealsWithSimilarities(0.9, 0.7, 0.5, 0.3, 0.1)

	prev := len(deals) + 1
	for _, min := range []float64{0.0, 0.2, 0.4, 0.6, 0.8} {
		kept, relaxed := ApplyThreshold(deals, min, 10)
		if relaxed {
			continue
		}
		assert.LessOrEqual(t, len(kept), prev, "raising the cutoff must never grow the result")
		prev = len(kept)
	}
}
