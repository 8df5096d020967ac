package rag

import (
	"context"

	"github.com/dealsense-ai/insights-engine/internal/embedding"
	"github.com/dealsense-ai/insights-engine/internal/observability"
	"github.com/dealsense-ai/insights-engine/internal/warehouse"
)

// VectorSearcher is the slice of the warehouse the retriever needs.
type VectorSearcher interface {
	VectorSearch(ctx context.Context, vector []float32, topK int, pred warehouse.Predicate) ([]warehouse.Deal, error)
}

// Retriever embeds the query text and runs nearest-neighbor search. It sits
// on a batch-refreshed secondary index, so it is best-effort by contract:
// any embedding or search error degrades to an empty candidate list and is
// never pipeline-fatal.
type Retriever struct {
	embedder embedding.Embedder
	searcher VectorSearcher
	maxTopK  int
	logger   *observability.Logger
}

// NewRetriever creates a retriever. maxTopK caps the search size for cost
// control regardless of what the caller requests.
func NewRetriever(embedder embedding.Embedder, searcher VectorSearcher, maxTopK int, logger *observability.Logger) *Retriever {
	if maxTopK <= 0 {
		maxTopK = 40
	}
	return &Retriever{
		embedder: embedder,
		searcher: searcher,
		maxTopK:  maxTopK,
		logger:   logger,
	}
}

// Retrieve returns up to topK candidates ordered by ascending distance.
func (r *Retriever) Retrieve(ctx context.Context, queryText string, topK int, pred warehouse.Predicate) []warehouse.Deal {
	if topK <= 0 || topK > r.maxTopK {
		topK = r.maxTopK
	}

	vector, err := r.embedder.EmbedQuery(ctx, queryText)
	if err != nil {
		r.logger.WithComponent("retriever").Warn().
			Err(err).
			Msg("query embedding failed, degrading to empty candidate set")
		return []warehouse.Deal{}
	}

	deals, err := r.searcher.VectorSearch(ctx, vector, topK, pred)
	if err != nil {
		r.logger.WithComponent("retriever").Warn().
			Err(err).
			Msg("vector search failed, degrading to empty candidate set")
		return []warehouse.Deal{}
	}

	if deals == nil {
		deals = []warehouse.Deal{}
	}
	return deals
}
