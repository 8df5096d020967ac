package rag

import (
	"context"
	"time"

	"github.com/dealsense-ai/insights-engine/internal/observability"
	"github.com/dealsense-ai/insights-engine/internal/warehouse"
)

// Warehouse is the slice of the store the pipeline depends on.
type Warehouse interface {
	VectorSearcher
	WinLossCounts(ctx context.Context, pred warehouse.Predicate) (won, lost int, err error)
	Freshness(ctx context.Context, staleAfter time.Duration) (warehouse.Freshness, error)
}

// PipelineConfig tunes the orchestration stages.
type PipelineConfig struct {
	Weights      RankWeights
	RelaxedLimit int
	MaxTopK      int
	StaleAfter   time.Duration
	AdaptiveMode string
	AdaptiveNote string
}

// DefaultPipelineConfig matches the production tuning.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Weights:      DefaultRankWeights,
		RelaxedLimit: 10,
		MaxTopK:      40,
		StaleAfter:   24 * time.Hour,
		AdaptiveMode: "expanded_without_date_range",
		AdaptiveNote: "No won/lost records in selected date range",
	}
}

// Pipeline sequences cache lookup, retrieval, ranking, filtering, stats,
// quality metrics and insight generation into one response. Stages degrade
// independently; the only request-fatal error is filter validation.
type Pipeline struct {
	retriever *Retriever
	wh        Warehouse
	insights  InsightGenerator
	cache     *ResponseCache
	cfg       PipelineConfig
	logger    *observability.Logger
}

// NewPipeline wires the orchestrator.
func NewPipeline(retriever *Retriever, wh Warehouse, insights InsightGenerator, cache *ResponseCache, cfg PipelineConfig, logger *observability.Logger) *Pipeline {
	if cfg.RelaxedLimit <= 0 {
		cfg.RelaxedLimit = 10
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = 24 * time.Hour
	}
	return &Pipeline{
		retriever: retriever,
		wh:        wh,
		insights:  insights,
		cache:     cache,
		cfg:       cfg,
		logger:    logger,
	}
}

// Execute runs the full pipeline. The returned error is non-nil only for
// caller-facing validation failures (ErrInvalidDateRange); every backend
// fault degrades into the response itself. Any panic is recovered into a
// full-shape success:false payload.
func (p *Pipeline) Execute(ctx context.Context, req Request) (resp *Response, err error) {
	// Validate before touching the cache so malformed requests never get a
	// cached payload.
	pred, err := warehouse.BuildPredicate(req.Filters)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	log := p.logger.WithRequest(ctx).WithComponent("pipeline")

	// Everything past validation degrades instead of failing, including the
	// cache stage itself.
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("pipeline panic recovered")
			resp = p.failureResponse(req, started)
			err = nil
		}
	}()

	key := CanonicalKey(req.CacheParams())
	if cached, ok := p.cache.Get(ctx, key); ok {
		cached.RAG.CacheHit = true
		log.Info().Str("cache_key", key).Msg("serving cached response")
		return cached, nil
	}

	resp = &Response{
		Success:   true,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Query:     req.Query,
		Filters:   echoFilters(req.Filters),
		RAG: RAGInfo{
			GeminiEnabled: p.insights.Enabled(),
			MinSimilarity: req.MinSimilarity,
		},
	}

	filters := req.Filters

	// Adaptive fallback: an explicit date window that holds no outcomes is
	// widened before retrieval so the user sees data rather than an empty
	// screen.
	if filters.HasDateRange() {
		if won, lost, cErr := p.wh.WinLossCounts(ctx, pred); cErr == nil && won+lost == 0 {
			widened := filters.WithoutDateRange()
			widePred, pErr := warehouse.BuildPredicate(widened)
			if pErr == nil {
				if wWon, wLost, wErr := p.wh.WinLossCounts(ctx, widePred); wErr == nil && wWon+wLost > 0 {
					filters = widened
					pred = widePred
					resp.RAG.Adaptive = Adaptive{
						Enabled: true,
						Reason:  p.cfg.AdaptiveNote,
						Mode:    p.cfg.AdaptiveMode,
					}
					log.Info().Msg("date range held no outcomes, widened window")
				}
			}
		}
	}

	// Retrieval.
	t := time.Now()
	candidates := p.retriever.Retrieve(ctx, req.Query, req.TopK, pred)
	resp.LatencyMS.Retrieval = time.Since(t).Milliseconds()
	resp.RAG.RetrievedCount = len(candidates)

	// Ranking and threshold.
	t = time.Now()
	candidates = ScoreSimilarity(candidates)
	candidates = Rerank(candidates, req.Query, filters, p.cfg.Weights)
	final, relaxed := ApplyThreshold(candidates, req.MinSimilarity, p.cfg.RelaxedLimit)
	resp.LatencyMS.Ranking = time.Since(t).Milliseconds()
	resp.RAG.ThresholdRelaxed = relaxed

	// Stats, highlights, freshness.
	t = time.Now()
	wins, losses := partitionBySource(final)
	resp.Stats = Summarize(final)
	resp.WinsStats = Summarize(wins)
	resp.LossesStats = Summarize(losses)
	resp.BusinessHighlights = BuildHighlights(final)
	if fr, fErr := p.wh.Freshness(ctx, p.cfg.StaleAfter); fErr == nil {
		resp.RAG.Freshness = fr
	} else {
		log.Warn().Err(fErr).Msg("freshness probe failed")
	}
	resp.LatencyMS.Stats = time.Since(t).Milliseconds()

	resp.Quality = BuildQuality(final, req.TopK, req.MinSimilarity, relaxed, len(candidates))

	// Narrative.
	t = time.Now()
	resp.AIInsights = p.insights.Generate(ctx, InsightInput{
		Query:       req.Query,
		Filters:     filters,
		Deals:       final,
		Stats:       resp.Stats,
		WinsStats:   resp.WinsStats,
		LossesStats: resp.LossesStats,
		Highlights:  resp.BusinessHighlights,
	})
	resp.LatencyMS.Insights = time.Since(t).Milliseconds()

	resp.Deals = final
	resp.LatencyMS.Total = time.Since(started).Milliseconds()

	p.cache.Set(ctx, key, resp)

	log.Info().
		Int("retrieved", resp.RAG.RetrievedCount).
		Int("final", len(final)).
		Bool("relaxed", relaxed).
		Str("insight_status", resp.AIInsights.Status).
		Int64("total_ms", resp.LatencyMS.Total).
		Msg("pipeline completed")

	return resp, nil
}

// failureResponse builds the success:false payload with the full contract
// shape and safe zero values. The insights panel carries the unavailable
// narrative, not the no-data one: the crash says nothing about the data.
func (p *Pipeline) failureResponse(req Request, started time.Time) *Response {
	return &Response{
		Success:   false,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Query:     req.Query,
		Filters:   echoFilters(req.Filters),
		RAG: RAGInfo{
			GeminiEnabled: p.insights.Enabled(),
			MinSimilarity: req.MinSimilarity,
		},
		Stats:              Summarize(nil),
		WinsStats:          Summarize(nil),
		LossesStats:        Summarize(nil),
		BusinessHighlights: BuildHighlights(nil),
		AIInsights:         FallbackInsights(StatusLLMUnavailable),
		Deals:              []warehouse.Deal{},
		LatencyMS:          Latency{Total: time.Since(started).Milliseconds()},
	}
}

func partitionBySource(deals []warehouse.Deal) (wins, losses []warehouse.Deal) {
	for _, d := range deals {
		switch d.Source {
		case warehouse.SourceWon:
			wins = append(wins, d)
		case warehouse.SourceLost:
			losses = append(losses, d)
		}
	}
	return wins, losses
}
