// Package main provides the Insights Engine API server entrypoint.
package main

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/dealsense-ai/insights-engine/cmd/insights-api/handlers"
	"github.com/dealsense-ai/insights-engine/cmd/insights-api/middleware"
	"github.com/dealsense-ai/insights-engine/internal/cache"
	"github.com/dealsense-ai/insights-engine/internal/config"
	"github.com/dealsense-ai/insights-engine/internal/embedding"
	"github.com/dealsense-ai/insights-engine/internal/insights"
	"github.com/dealsense-ai/insights-engine/internal/llm"
	"github.com/dealsense-ai/insights-engine/internal/observability"
	"github.com/dealsense-ai/insights-engine/internal/rag"
	"github.com/dealsense-ai/insights-engine/internal/warehouse"
)

// buildDependencies wires the pipeline from configuration. The returned
// closer releases the warehouse pool and cache connection.
func buildDependencies(cfg *config.Config, logger *observability.Logger) (*rag.Pipeline, *warehouse.Store, func(), error) {
	store, err := warehouse.NewStore(warehouse.StoreConfig{
		DSN:             cfg.Warehouse.DSN,
		MaxOpenConns:    cfg.Warehouse.MaxOpenConns,
		MaxIdleConns:    cfg.Warehouse.MaxIdleConns,
		ConnMaxLifetime: cfg.Warehouse.ConnMaxLifetime,
		DealsTable:      cfg.Warehouse.DealsTable,
		EmbeddingsTable: cfg.Warehouse.EmbeddingsTable,
		CatalogTable:    cfg.Warehouse.CatalogTable,
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("warehouse: %w", err)
	}

	var cacheClient cache.Client
	if cfg.Cache.Driver == "redis" {
		cacheClient, err = cache.NewRedisClient(cache.RedisConfig{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
			PoolSize: cfg.Cache.Redis.PoolSize,
		})
		if err != nil {
			store.Close()
			return nil, nil, nil, fmt.Errorf("redis cache: %w", err)
		}
	} else {
		cacheClient = cache.NewMemoryClient(cfg.Cache.MaxEntries)
	}

	embedder, err := embedding.NewClient(embedding.Config{
		APIKey:  cfg.Embedding.APIKey,
		Model:   cfg.Embedding.Model,
		BaseURL: cfg.Embedding.BaseURL,
		Timeout: cfg.Embedding.Timeout,
	})
	if err != nil {
		store.Close()
		cacheClient.Close()
		return nil, nil, nil, fmt.Errorf("embedding client: %w", err)
	}

	candidates := make([]llm.Candidate, 0, len(cfg.LLM.Candidates))
	for _, c := range cfg.LLM.Candidates {
		candidates = append(candidates, llm.Candidate{Provider: c.Provider, Model: c.Model})
	}
	chain := llm.NewChain(candidates, []llm.Provider{
		llm.NewVertexProvider(cfg.LLM.Vertex.Endpoint, cfg.LLM.Vertex.AccessToken, cfg.LLM.Timeout),
		llm.NewGeminiProvider(cfg.LLM.GeminiKey, cfg.LLM.Timeout),
	}, logger)

	generator := insights.NewGenerator(chain, logger)
	retriever := rag.NewRetriever(embedder, store, cfg.RAG.MaxTopK, logger)
	respCache := rag.NewResponseCache(cacheClient, cfg.Cache.TTL, logger)

	pipelineCfg := rag.DefaultPipelineConfig()
	pipelineCfg.Weights = rag.RankWeights{
		Similarity:   cfg.RAG.SimilarityWeight,
		Lexical:      cfg.RAG.LexicalWeight,
		SellerBoost:  cfg.RAG.SellerBoost,
		SourceBoost:  cfg.RAG.SourceBoost,
		QuarterBoost: cfg.RAG.QuarterBoost,
	}
	pipelineCfg.RelaxedLimit = cfg.RAG.RelaxedLimit
	pipelineCfg.MaxTopK = cfg.RAG.MaxTopK
	pipelineCfg.StaleAfter = cfg.Warehouse.StalenessThreshold

	pipeline := rag.NewPipeline(retriever, store, generator, respCache, pipelineCfg, logger)

	closer := func() {
		store.Close()
		cacheClient.Close()
	}
	return pipeline, store, closer, nil
}

// NewRouter creates the API router with all routes configured.
func NewRouter(logger *observability.Logger, cfg *config.Config, pipeline *rag.Pipeline, ready func() error) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS([]string{"*"}))
	r.Use(chimiddleware.Timeout(cfg.Server.WriteTimeout))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"healthy","service":"insights-engine"}`))
	})

	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := ready(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"not_ready"}`))
			return
		}
		w.Write([]byte(`{"status":"ready"}`))
	})

	insightsHandler := handlers.NewInsightsHandler(logger, pipeline)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/insights/search", insightsHandler.Search)
	})

	return r
}
