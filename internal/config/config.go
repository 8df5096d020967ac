// Package config provides unified configuration loading for the insights engine.
// Supports YAML files, environment variables, and programmatic overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the insights engine.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Warehouse     WarehouseConfig     `yaml:"warehouse"`
	Cache         CacheConfig         `yaml:"cache"`
	Embedding     EmbeddingConfig     `yaml:"embedding"`
	LLM           LLMConfig           `yaml:"llm"`
	RAG           RAGConfig           `yaml:"rag"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	IdleTimeout      time.Duration `yaml:"idle_timeout"`
	GracefulShutdown time.Duration `yaml:"graceful_shutdown"`
}

// WarehouseConfig holds the analytics warehouse connection settings.
type WarehouseConfig struct {
	DSN                string        `yaml:"dsn"`
	MaxOpenConns       int           `yaml:"max_open_conns"`
	MaxIdleConns       int           `yaml:"max_idle_conns"`
	ConnMaxLifetime    time.Duration `yaml:"conn_max_lifetime"`
	DealsTable         string        `yaml:"deals_table"`
	EmbeddingsTable    string        `yaml:"embeddings_table"`
	CatalogTable       string        `yaml:"catalog_table"`
	StalenessThreshold time.Duration `yaml:"staleness_threshold"`
}

// CacheConfig holds response cache settings.
type CacheConfig struct {
	Driver     string        `yaml:"driver"` // memory or redis
	TTL        time.Duration `yaml:"ttl"`
	MaxEntries int           `yaml:"max_entries"`
	Redis      RedisConfig   `yaml:"redis"`
}

// RedisConfig holds Redis-specific settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

// EmbeddingConfig holds embedding model settings.
type EmbeddingConfig struct {
	APIKey    string        `yaml:"api_key"`
	Model     string        `yaml:"model"`
	BaseURL   string        `yaml:"base_url"`
	Dimension int           `yaml:"dimension"`
	Timeout   time.Duration `yaml:"timeout"`
}

// LLMConfig holds insight generation model settings.
type LLMConfig struct {
	// Candidates are tried in order; the first non-empty answer wins.
	Candidates []ModelCandidate `yaml:"candidates"`
	Vertex     VertexConfig     `yaml:"vertex"`
	GeminiKey  string           `yaml:"gemini_api_key"`
	Timeout    time.Duration    `yaml:"timeout"`
}

// ModelCandidate names one (provider, model) pair in the fallback chain.
type ModelCandidate struct {
	Provider string `yaml:"provider"` // vertex or gemini
	Model    string `yaml:"model"`
}

// VertexConfig holds the managed-platform path settings.
type VertexConfig struct {
	Endpoint    string `yaml:"endpoint"`
	AccessToken string `yaml:"access_token"`
}

// RAGConfig holds retrieval and ranking tunables.
type RAGConfig struct {
	DefaultTopK      int     `yaml:"default_top_k"`
	MaxTopK          int     `yaml:"max_top_k"`
	MinSimilarity    float64 `yaml:"min_similarity"`
	RelaxedLimit     int     `yaml:"relaxed_limit"`
	SimilarityWeight float64 `yaml:"similarity_weight"`
	LexicalWeight    float64 `yaml:"lexical_weight"`
	SellerBoost      float64 `yaml:"seller_boost"`
	SourceBoost      float64 `yaml:"source_boost"`
	QuarterBoost     float64 `yaml:"quarter_boost"`
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`
	ServiceName string `yaml:"service_name"`
}

// Load reads configuration from a YAML file and applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns a configuration with sensible defaults for development.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             8090,
			ReadTimeout:      30 * time.Second,
			WriteTimeout:     60 * time.Second,
			IdleTimeout:      120 * time.Second,
			GracefulShutdown: 10 * time.Second,
		},
		Warehouse: WarehouseConfig{
			MaxOpenConns:       25,
			MaxIdleConns:       5,
			ConnMaxLifetime:    5 * time.Minute,
			DealsTable:         "analytics.deals",
			EmbeddingsTable:    "analytics.deal_embeddings",
			CatalogTable:       "analytics.table_catalog",
			StalenessThreshold: 24 * time.Hour,
		},
		Cache: CacheConfig{
			Driver:     "memory",
			TTL:        10 * time.Minute,
			MaxEntries: 1000,
			Redis: RedisConfig{
				Addr:     "localhost:6379",
				DB:       0,
				PoolSize: 10,
			},
		},
		Embedding: EmbeddingConfig{
			Model:     "google/gemini-embedding-001",
			BaseURL:   "https://openrouter.ai/api/v1",
			Dimension: 768,
			Timeout:   30 * time.Second,
		},
		LLM: LLMConfig{
			Candidates: []ModelCandidate{
				{Provider: "vertex", Model: "gemini-2.0-flash"},
				{Provider: "gemini", Model: "gemini-2.0-flash"},
				{Provider: "gemini", Model: "gemini-1.5-flash"},
			},
			Timeout: 60 * time.Second,
		},
		RAG: RAGConfig{
			DefaultTopK:      30,
			MaxTopK:          40,
			MinSimilarity:    0.15,
			RelaxedLimit:     10,
			SimilarityWeight: 0.72,
			LexicalWeight:    0.28,
			SellerBoost:      0.12,
			SourceBoost:      0.08,
			QuarterBoost:     0.08,
		},
		Observability: ObservabilityConfig{
			LogLevel:    "info",
			LogFormat:   "json",
			ServiceName: "insights-engine",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Cache.Driver != "memory" && c.Cache.Driver != "redis" {
		return fmt.Errorf("invalid cache driver: %s", c.Cache.Driver)
	}

	if c.RAG.DefaultTopK < 1 {
		return fmt.Errorf("default_top_k must be positive")
	}

	if c.RAG.MaxTopK < c.RAG.DefaultTopK {
		return fmt.Errorf("max_top_k must be >= default_top_k")
	}

	if c.RAG.MinSimilarity < 0 || c.RAG.MinSimilarity > 1 {
		return fmt.Errorf("min_similarity must be in [0,1]")
	}

	if c.RAG.RelaxedLimit < 1 {
		return fmt.Errorf("relaxed_limit must be positive")
	}

	for _, cand := range c.LLM.Candidates {
		if cand.Provider != "vertex" && cand.Provider != "gemini" {
			return fmt.Errorf("invalid llm provider: %s", cand.Provider)
		}
		if cand.Model == "" {
			return fmt.Errorf("llm candidate missing model name")
		}
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}

	if v := os.Getenv("SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}

	if v := os.Getenv("WAREHOUSE_DSN"); v != "" {
		cfg.Warehouse.DSN = v
	}

	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Cache.Driver = "redis"
		cfg.Cache.Redis.Addr = strings.TrimPrefix(v, "redis://")
	}

	if v := os.Getenv("EMBEDDING_API_KEY"); v != "" {
		cfg.Embedding.APIKey = v
	}

	if v := os.Getenv("EMBEDDING_MODEL"); v != "" {
		cfg.Embedding.Model = v
	}

	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.LLM.GeminiKey = v
	}

	if v := os.Getenv("VERTEX_ENDPOINT"); v != "" {
		cfg.LLM.Vertex.Endpoint = v
	}

	if v := os.Getenv("VERTEX_ACCESS_TOKEN"); v != "" {
		cfg.LLM.Vertex.AccessToken = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Observability.LogFormat = v
	}
}
