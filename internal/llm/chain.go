package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/dealsense-ai/insights-engine/internal/observability"
)

// Candidate names one model behind one provider.
type Candidate struct {
	Provider string
	Model    string
}

// Result carries the first non-empty completion and its origin.
type Result struct {
	Text     string
	Provider string
	Model    string
}

// Generator is the narrative-generation contract consumed by the insight
// builder.
type Generator interface {
	HasCredentials() bool
	Generate(ctx context.Context, prompt string) (Result, error)
}

// Chain tries a prioritized candidate list, each model at most once, and
// returns the first non-empty completion. Exhausting all candidates surfaces
// as a single aggregated error. There are no per-candidate retries; the
// fallback order is the resilience mechanism.
type Chain struct {
	candidates []Candidate
	providers  map[string]Provider
	logger     *observability.Logger
}

// NewChain builds a fallback chain. Candidates whose provider is unknown or
// lacks credentials are skipped at call time, not at construction.
func NewChain(candidates []Candidate, providers []Provider, logger *observability.Logger) *Chain {
	byName := make(map[string]Provider, len(providers))
	for _, p := range providers {
		byName[p.Name()] = p
	}
	return &Chain{
		candidates: candidates,
		providers:  byName,
		logger:     logger,
	}
}

// HasCredentials reports whether at least one candidate has a usable
// provider. The insight builder short-circuits to its unavailable status
// when this is false, without attempting any call.
func (c *Chain) HasCredentials() bool {
	for _, cand := range c.candidates {
		if p, ok := c.providers[cand.Provider]; ok && p.HasCredentials() {
			return true
		}
	}
	return false
}

// Generate walks the candidate list in order and returns the first
// non-empty completion.
func (c *Chain) Generate(ctx context.Context, prompt string) (Result, error) {
	var attempts []string

	for _, cand := range c.candidates {
		p, ok := c.providers[cand.Provider]
		if !ok {
			attempts = append(attempts, fmt.Sprintf("%s/%s: unknown provider", cand.Provider, cand.Model))
			continue
		}
		if !p.HasCredentials() {
			attempts = append(attempts, fmt.Sprintf("%s/%s: no credentials", cand.Provider, cand.Model))
			continue
		}

		text, err := p.Generate(ctx, cand.Model, prompt)
		if err != nil {
			c.logger.WithComponent("llm").Warn().
				Str("provider", cand.Provider).
				Str("model", cand.Model).
				Err(err).
				Msg("model candidate failed, trying next")
			attempts = append(attempts, fmt.Sprintf("%s/%s: %v", cand.Provider, cand.Model, err))
			continue
		}
		if strings.TrimSpace(text) == "" {
			// Not every Provider implementation guards this itself.
			attempts = append(attempts, fmt.Sprintf("%s/%s: empty completion", cand.Provider, cand.Model))
			continue
		}

		c.logger.WithComponent("llm").Info().
			Str("provider", cand.Provider).
			Str("model", cand.Model).
			Int("response_chars", len(text)).
			Msg("model candidate answered")

		return Result{Text: text, Provider: cand.Provider, Model: cand.Model}, nil
	}

	if len(attempts) == 0 {
		return Result{}, fmt.Errorf("no model candidates configured")
	}
	return Result{}, fmt.Errorf("all model candidates failed: %s", strings.Join(attempts, "; "))
}
