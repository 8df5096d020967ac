package insights

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dealsense-ai/insights-engine/internal/llm"
	"github.com/dealsense-ai/insights-engine/internal/observability"
	"github.com/dealsense-ai/insights-engine/internal/rag"
	"github.com/dealsense-ai/insights-engine/internal/warehouse"
)

type stubChain struct {
	creds   bool
	text    string
	err     error
	prompts []string
}

func (s *stubChain) HasCredentials() bool { return s.creds }

func (s *stubChain) Generate(_ context.Context, prompt string) (llm.Result, error) {
	s.prompts = append(s.prompts, prompt)
	if s.err != nil {
		return llm.Result{}, s.err
	}
	return llm.Result{Text: s.text, Provider: llm.ProviderVertex, Model: "gemini-2.0-flash"}, nil
}

func sampleInput() rag.InsightInput {
	deals := []warehouse.Deal{
		{ID: "w1", Source: warehouse.SourceWon, CycleDays: 30},
		{ID: "w2", Source: warehouse.SourceWon, CycleDays: 34},
		{ID: "l1", Source: warehouse.SourceLost, CycleDays: 48, Cause: "concorrência"},
		{ID: "p1", Source: warehouse.SourcePipeline, IdleDays: 12, Opportunity: "expansão data center"},
	}
	wins, losses := deals[:2], deals[2:3]
	return rag.InsightInput{
		Query:       "desempenho em cloud",
		Deals:       deals,
		Stats:       rag.Summarize(deals),
		WinsStats:   rag.Summarize(wins),
		LossesStats: rag.Summarize(losses),
		Highlights:  rag.BuildHighlights(deals),
	}
}

func TestBuildFacts(t *testing.T) {
	in := sampleInput()
	facts := BuildFacts(in.Stats, in.WinsStats, in.LossesStats)

	assert.Equal(t, 2, facts.WinsTotal)
	assert.Equal(t, 1, facts.LossesTotal)
	assert.Equal(t, 1, facts.PipelineTotal)
	assert.Equal(t, 32.0, facts.AvgWinCycleDays)
	assert.Equal(t, 48.0, facts.AvgLossCycleDays)
	assert.Equal(t, 12.0, facts.AvgIdleDays)
	assert.Equal(t, 1.5, facts.LossToWinCycleRatio) // 48/32
}

func TestBuildFacts_ZeroWinCycleRatio(t *testing.T) {
	facts := BuildFacts(rag.Summarize(nil), rag.Summarize(nil), rag.Summarize(nil))
	assert.Equal(t, 0.0, facts.LossToWinCycleRatio)
}

func TestGenerate_EmptyDeals(t *testing.T) {
	chain := &stubChain{creds: true}
	g := NewGenerator(chain, observability.NopLogger())

	out := g.Generate(context.Background(), rag.InsightInput{})

	assert.Equal(t, rag.StatusEmpty, out.Status)
	assert.NotEmpty(t, out.Wins, "fallback text always present")
	assert.Empty(t, chain.prompts, "no LLM call for empty input")
}

func TestGenerate_NoCredentials(t *testing.T) {
	chain := &stubChain{creds: false}
	g := NewGenerator(chain, observability.NopLogger())

	out := g.Generate(context.Background(), sampleInput())

	assert.Equal(t, rag.StatusLLMUnavailable, out.Status)
	assert.Empty(t, chain.prompts, "credentials check must short-circuit before any call")
	assert.False(t, g.Enabled())
}

func TestGenerate_LLMFailed(t *testing.T) {
	chain := &stubChain{creds: true, err: errors.New("all model candidates failed: vertex/m: boom")}
	g := NewGenerator(chain, observability.NopLogger())

	out := g.Generate(context.Background(), sampleInput())

	assert.Equal(t, rag.StatusLLMFailed, out.Status)
	assert.Contains(t, out.Error, "all model candidates failed")
	assert.NotEmpty(t, out.Wins)
}

func TestGenerate_ParseFailed(t *testing.T) {
	// Wins section present but losses and recommendations missing: partial
	// output is rejected, not silently accepted.
	chain := &stubChain{creds: true, text: "### WINS\n- apenas vitórias\n"}
	g := NewGenerator(chain, observability.NopLogger())

	out := g.Generate(context.Background(), sampleInput())

	assert.Equal(t, rag.StatusLLMParseFailed, out.Status)
	assert.Equal(t, llm.ProviderVertex, out.Provider)
	assert.Equal(t, "### WINS\n- apenas vitórias\n", out.RawResponse)
}

func TestGenerate_Success(t *testing.T) {
	chain := &stubChain{creds: true, text: wellFormed}
	g := NewGenerator(chain, observability.NopLogger())

	out := g.Generate(context.Background(), sampleInput())

	assert.Equal(t, rag.StatusRAG, out.Status)
	assert.Len(t, out.Wins, 3)
	assert.Len(t, out.Losses, 2)
	assert.Len(t, out.Recommendations, 2)
	assert.Equal(t, llm.ProviderVertex, out.Provider)
	assert.Equal(t, "gemini-2.0-flash", out.Model)
	assert.Equal(t, wellFormed, out.RawResponse)
}

func TestBuildPrompt_GroundingAndConstraints(t *testing.T) {
	in := sampleInput()
	facts := BuildFacts(in.Stats, in.WinsStats, in.LossesStats)

	prompt := BuildPrompt(in.Query, warehouse.Filters{Year: 2025, Quarter: 3}, facts, in.Highlights)

	assert.Contains(t, prompt, "desempenho em cloud")
	assert.Contains(t, prompt, "FY25-Q3")
	assert.Contains(t, prompt, "Negócios ganhos: 2")
	assert.Contains(t, prompt, "NUNCA invente números")
	assert.Contains(t, prompt, winsMarker)
	assert.Contains(t, prompt, lossesMarker)
	assert.Contains(t, prompt, recommendationsMarker)
	assert.Contains(t, prompt, "concorrência")
	assert.Contains(t, prompt, "PRINCIPAIS OPORTUNIDADES EM PIPELINE")
	assert.Contains(t, prompt, "expansão data center")
}
