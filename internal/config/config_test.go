package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, 30, cfg.RAG.DefaultTopK)
	assert.Equal(t, 40, cfg.RAG.MaxTopK)
	assert.Equal(t, 0.15, cfg.RAG.MinSimilarity)
}

func TestLoad_YAMLOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  port: 9000
rag:
  min_similarity: 0.3
llm:
  candidates:
    - provider: gemini
      model: gemini-2.0-flash
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 0.3, cfg.RAG.MinSimilarity)
	require.Len(t, cfg.LLM.Candidates, 1)
	assert.Equal(t, "gemini", cfg.LLM.Candidates[0].Provider)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9100")
	t.Setenv("GEMINI_API_KEY", "key-123")
	t.Setenv("REDIS_URL", "redis://cache:6379")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, "key-123", cfg.LLM.GeminiKey)
	assert.Equal(t, "redis", cfg.Cache.Driver)
	assert.Equal(t, "cache:6379", cfg.Cache.Redis.Addr)
}

func TestValidate_Failures(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
		{"bad cache driver", func(c *Config) { c.Cache.Driver = "disk" }},
		{"bad similarity", func(c *Config) { c.RAG.MinSimilarity = 1.5 }},
		{"max below default", func(c *Config) { c.RAG.MaxTopK = 5 }},
		{"unknown provider", func(c *Config) {
			c.LLM.Candidates = []ModelCandidate{{Provider: "openai", Model: "gpt-4"}}
		}},
		{"candidate without model", func(c *Config) {
			c.LLM.Candidates = []ModelCandidate{{Provider: "gemini"}}
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
