package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealsense-ai/insights-engine/internal/observability"
)

type stubProvider struct {
	name    string
	creds   bool
	replies map[string]string // model -> text; missing model fails
	calls   []string
}

func (s *stubProvider) Name() string         { return s.name }
func (s *stubProvider) HasCredentials() bool { return s.creds }

func (s *stubProvider) Generate(_ context.Context, model, _ string) (string, error) {
	s.calls = append(s.calls, model)
	if text, ok := s.replies[model]; ok {
		return text, nil
	}
	return "", errors.New("boom")
}

func testLogger() *observability.Logger {
	return observability.NopLogger()
}

func TestChain_FirstCandidateWins(t *testing.T) {
	vertex := &stubProvider{name: ProviderVertex, creds: true, replies: map[string]string{"gemini-2.0-flash": "hello"}}
	gemini := &stubProvider{name: ProviderGemini, creds: true, replies: map[string]string{"gemini-2.0-flash": "direct"}}

	chain := NewChain([]Candidate{
		{Provider: ProviderVertex, Model: "gemini-2.0-flash"},
		{Provider: ProviderGemini, Model: "gemini-2.0-flash"},
	}, []Provider{vertex, gemini}, testLogger())

	res, err := chain.Generate(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "hello", res.Text)
	assert.Equal(t, ProviderVertex, res.Provider)
	assert.Equal(t, "gemini-2.0-flash", res.Model)
	assert.Empty(t, gemini.calls, "later candidates must not be tried after a success")
}

func TestChain_FallsThroughFailures(t *testing.T) {
	vertex := &stubProvider{name: ProviderVertex, creds: true}
	gemini := &stubProvider{name: ProviderGemini, creds: true, replies: map[string]string{"gemini-1.5-pro": "answer"}}

	chain := NewChain([]Candidate{
		{Provider: ProviderVertex, Model: "gemini-2.0-flash"},
		{Provider: ProviderGemini, Model: "gemini-2.0-flash"},
		{Provider: ProviderGemini, Model: "gemini-1.5-pro"},
	}, []Provider{vertex, gemini}, testLogger())

	res, err := chain.Generate(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "answer", res.Text)
	assert.Equal(t, ProviderGemini, res.Provider)
	assert.Equal(t, []string{"gemini-2.0-flash"}, vertex.calls)
	assert.Equal(t, []string{"gemini-2.0-flash", "gemini-1.5-pro"}, gemini.calls)
}

func TestChain_SkipsEmptyCompletions(t *testing.T) {
	// A provider may return whitespace with a nil error; the chain itself
	// guarantees the first NON-EMPTY completion wins.
	vertex := &stubProvider{name: ProviderVertex, creds: true, replies: map[string]string{"gemini-2.0-flash": "   \n"}}
	gemini := &stubProvider{name: ProviderGemini, creds: true, replies: map[string]string{"gemini-2.0-flash": "answer"}}

	chain := NewChain([]Candidate{
		{Provider: ProviderVertex, Model: "gemini-2.0-flash"},
		{Provider: ProviderGemini, Model: "gemini-2.0-flash"},
	}, []Provider{vertex, gemini}, testLogger())

	res, err := chain.Generate(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "answer", res.Text)
	assert.Equal(t, ProviderGemini, res.Provider)

	exhausted := NewChain([]Candidate{
		{Provider: ProviderVertex, Model: "gemini-2.0-flash"},
	}, []Provider{vertex}, testLogger())

	_, err = exhausted.Generate(context.Background(), "prompt")
	assert.ErrorContains(t, err, "vertex/gemini-2.0-flash: empty completion")
}

func TestChain_EachCandidateTriedAtMostOnce(t *testing.T) {
	vertex := &stubProvider{name: ProviderVertex, creds: true}

	chain := NewChain([]Candidate{
		{Provider: ProviderVertex, Model: "gemini-2.0-flash"},
	}, []Provider{vertex}, testLogger())

	_, err := chain.Generate(context.Background(), "prompt")
	require.Error(t, err)
	assert.Len(t, vertex.calls, 1)
}

func TestChain_AggregatesAllFailures(t *testing.T) {
	vertex := &stubProvider{name: ProviderVertex, creds: true}
	gemini := &stubProvider{name: ProviderGemini, creds: false}

	chain := NewChain([]Candidate{
		{Provider: ProviderVertex, Model: "gemini-2.0-flash"},
		{Provider: ProviderGemini, Model: "gemini-2.0-flash"},
	}, []Provider{vertex, gemini}, testLogger())

	_, err := chain.Generate(context.Background(), "prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vertex/gemini-2.0-flash: boom")
	assert.Contains(t, err.Error(), "gemini/gemini-2.0-flash: no credentials")
}

func TestChain_HasCredentials(t *testing.T) {
	vertex := &stubProvider{name: ProviderVertex, creds: false}
	gemini := &stubProvider{name: ProviderGemini, creds: true}

	withCreds := NewChain([]Candidate{
		{Provider: ProviderVertex, Model: "m"},
		{Provider: ProviderGemini, Model: "m"},
	}, []Provider{vertex, gemini}, testLogger())
	assert.True(t, withCreds.HasCredentials())

	withoutCreds := NewChain([]Candidate{
		{Provider: ProviderVertex, Model: "m"},
	}, []Provider{vertex, gemini}, testLogger())
	assert.False(t, withoutCreds.HasCredentials())
}

func TestDecodeGenerateResponse(t *testing.T) {
	body := []byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"part one "},{"text":"part two"}]}}]}`)
	text, err := decodeGenerateResponse(200, body)
	require.NoError(t, err)
	assert.Equal(t, "part one part two", text)

	_, err = decodeGenerateResponse(200, []byte(`{"candidates":[]}`))
	assert.ErrorContains(t, err, "empty completion")

	_, err = decodeGenerateResponse(429, []byte(`{"error":{"code":429,"message":"quota exceeded","status":"RESOURCE_EXHAUSTED"}}`))
	assert.ErrorContains(t, err, "quota exceeded")
}
