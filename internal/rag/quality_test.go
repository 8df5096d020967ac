package rag

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildQuality_Basic(t *testing.T) {
	final := dealsWithSimilarities(0.9, 0.8, 0.1)

	q := BuildQuality(final, 30, 0.15, false, 25)

	assert.Equal(t, 30, q.RequestedTopK)
	assert.Equal(t, 25, q.RetrievedCount)
	assert.Equal(t, 3, q.PostFilterCount)
	assert.Equal(t, 0.1, q.CoverageRatio) // 3/30
	assert.Equal(t, 0.6, q.AvgSimilarity) // (0.9+0.8+0.1)/3
	assert.Equal(t, 0.9, q.MaxSimilarity)
	assert.False(t, q.ThresholdRelaxed)
}

func TestBuildQuality_PrecisionAtK(t *testing.T) {
	final := dealsWithSimilarities(0.9, 0.8, 0.7, 0.1, 0.05, 0.9, 0.9, 0.9, 0.9, 0.9, 0.9, 0.9)

	q := BuildQuality(final, 30, 0.15, false, 12)

	// First 5: three clear 0.15, two do not.
	assert.Equal(t, 0.6, q.PrecisionAt5)
	// First 10: eight clear the threshold.
	assert.Equal(t, 0.8, q.PrecisionAt10)
}

func TestBuildQuality_ShortListUsesAvailableLength(t *testing.T) {
	final := dealsWithSimilarities(0.9, 0.05)

	q := BuildQuality(final, 30, 0.15, false, 2)

	// min(5, 2) = 2 records, one clears the threshold.
	assert.Equal(t, 0.5, q.PrecisionAt5)
	assert.Equal(t, 0.5, q.PrecisionAt10)
}

func TestBuildQuality_ZeroGuards(t *testing.T) {
	q := BuildQuality(nil, 0, 0.15, false, 0)

	assert.Equal(t, 0.0, q.CoverageRatio)
	assert.Equal(t, 0.0, q.AvgSimilarity)
	assert.Equal(t, 0.0, q.MaxSimilarity)
	assert.Equal(t, 0.0, q.PrecisionAt5)
	assert.Equal(t, 0.0, q.PrecisionAt10)
}

func TestBuildQuality_RelaxedFlagCarried(t *testing.T) {
	q := BuildQuality(dealsWithSimilarities(0.05), 10, 0.5, true, 1)
	assert.True(t, q.ThresholdRelaxed)
}
