// Package insights builds the executive narrative from aggregate facts via
// an LLM call with model fallback and strict section parsing.
package insights

import (
	"context"
	"math"

	"github.com/dealsense-ai/insights-engine/internal/llm"
	"github.com/dealsense-ai/insights-engine/internal/observability"
	"github.com/dealsense-ai/insights-engine/internal/rag"
)

// Facts is the fixed aggregate record the prompt is grounded on. The
// narrative layer never sees raw deal rows beyond the highlight lists.
type Facts struct {
	WinsTotal           int     `json:"wins_total"`
	LossesTotal         int     `json:"losses_total"`
	PipelineTotal       int     `json:"pipeline_total"`
	AvgWinCycleDays     float64 `json:"avg_win_cycle_days"`
	AvgLossCycleDays    float64 `json:"avg_loss_cycle_days"`
	AvgIdleDays         float64 `json:"avg_idle_days"`
	LossToWinCycleRatio float64 `json:"loss_to_win_cycle_ratio"`
}

// BuildFacts derives the facts record from per-source stats bundles.
// The cycle ratio is 0 when the win cycle is 0 (no division by zero).
func BuildFacts(stats, wins, losses rag.Stats) Facts {
	f := Facts{
		WinsTotal:        wins.Total,
		LossesTotal:      losses.Total,
		PipelineTotal:    stats.BySource["pipeline"],
		AvgWinCycleDays:  wins.AvgCycleDays,
		AvgLossCycleDays: losses.AvgCycleDays,
		AvgIdleDays:      stats.AvgIdleDays,
	}
	if wins.AvgCycleDays > 0 {
		f.LossToWinCycleRatio = math.Round(losses.AvgCycleDays/wins.AvgCycleDays*100) / 100
	}
	return f
}

// Generator implements the insight state machine:
// init -> credentials_check -> prompt_build -> llm_call -> parse -> rag.
// Every failure exits with a typed status and static fallback text; the
// caller never receives an error.
type Generator struct {
	chain  llm.Generator
	logger *observability.Logger
}

// NewGenerator wires the narrative generator.
func NewGenerator(chain llm.Generator, logger *observability.Logger) *Generator {
	return &Generator{chain: chain, logger: logger}
}

// Enabled reports whether any LLM credentials are configured.
func (g *Generator) Enabled() bool {
	return g.chain.HasCredentials()
}

// Generate produces the narrative for one request.
func (g *Generator) Generate(ctx context.Context, in rag.InsightInput) rag.Insights {
	log := g.logger.WithRequest(ctx).WithComponent("insights")

	if len(in.Deals) == 0 {
		return rag.FallbackInsights(rag.StatusEmpty)
	}

	if !g.chain.HasCredentials() {
		log.Info().Msg("no LLM credentials configured, skipping generation")
		return rag.FallbackInsights(rag.StatusLLMUnavailable)
	}

	facts := BuildFacts(in.Stats, in.WinsStats, in.LossesStats)
	prompt := BuildPrompt(in.Query, in.Filters, facts, in.Highlights)

	result, err := g.chain.Generate(ctx, prompt)
	if err != nil {
		log.Warn().Err(err).Msg("LLM generation failed")
		out := rag.FallbackInsights(rag.StatusLLMFailed)
		out.Error = err.Error()
		return out
	}

	sections := ParseSections(result.Text)
	if len(sections.Wins) == 0 || len(sections.Losses) == 0 || len(sections.Recommendations) == 0 {
		log.Warn().
			Str("provider", result.Provider).
			Str("model", result.Model).
			Int("wins", len(sections.Wins)).
			Int("losses", len(sections.Losses)).
			Int("recommendations", len(sections.Recommendations)).
			Msg("LLM output missing required sections")
		out := rag.FallbackInsights(rag.StatusLLMParseFailed)
		out.Provider = result.Provider
		out.Model = result.Model
		out.RawResponse = result.Text
		return out
	}

	return rag.Insights{
		Status:          rag.StatusRAG,
		Wins:            sections.Wins,
		Losses:          sections.Losses,
		Recommendations: sections.Recommendations,
		Provider:        result.Provider,
		Model:           result.Model,
		RawResponse:     result.Text,
	}
}
