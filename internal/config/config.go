// Package config loads pipeline configuration from the environment
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all runtime configuration for demand-scout
type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"local"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	Port        string `envconfig:"PORT" default:"8080"`

	// Database
	DBHost     string `envconfig:"DB_HOST" default:"localhost"`
	DBPort     string `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"postgres"`
	DBPassword string `envconfig:"DB_PASSWORD" default:""`
	DBName     string `envconfig:"DB_NAME" default:"demand_scout"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`

	// Source-content API
	ForumBaseURL   string  `envconfig:"FORUM_BASE_URL" default:"https://www.reddit.com"`
	ForumUserAgent string  `envconfig:"FORUM_USER_AGENT" default:"demand-scout/1.0"`
	ForumRPS       float64 `envconfig:"FORUM_RPS" default:"1.0"`

	// Channels to ingest, comma separated
	Channels      []string      `envconfig:"CHANNELS" default:"entrepreneur,smallbusiness,SaaS"`
	FetchLimit    int           `envconfig:"FETCH_LIMIT" default:"50"`
	IngestEvery   time.Duration `envconfig:"INGEST_EVERY" default:"15m"`
	BlockedPause  time.Duration `envconfig:"BLOCKED_PAUSE" default:"24h"`
	MaintainEvery time.Duration `envconfig:"MAINTAIN_EVERY" default:"1h"`

	// Generative-analysis model
	ModelBaseURL        string        `envconfig:"MODEL_BASE_URL" default:"https://api.openai.com/v1"`
	ModelAPIKey         string        `envconfig:"MODEL_API_KEY" default:""`
	ModelName           string        `envconfig:"MODEL_NAME" default:"gpt-4o-mini"`
	ModelTimeout        time.Duration `envconfig:"MODEL_TIMEOUT" default:"90s"`
	AnalysisBatch       int           `envconfig:"ANALYSIS_BATCH" default:"5"`
	AnalysisMaxAttempts int           `envconfig:"ANALYSIS_MAX_ATTEMPTS" default:"3"`

	// Embedding model (served through the same API surface)
	EmbedModel    string        `envconfig:"EMBED_MODEL" default:"text-embedding-3-small"`
	EmbedDim      int           `envconfig:"EMBED_DIM" default:"1536"`
	EmbedCacheTTL time.Duration `envconfig:"EMBED_CACHE_TTL" default:"1h"`

	// Clustering
	ClusterSimilarityThreshold float64 `envconfig:"CLUSTER_SIMILARITY_THRESHOLD" default:"0.85"`
	ClusterCandidateLimit      int     `envconfig:"CLUSTER_CANDIDATE_LIMIT" default:"100"`
	ClusterStaleDays           int     `envconfig:"CLUSTER_STALE_DAYS" default:"60"`
	ClusterOccurrenceFloor     int     `envconfig:"CLUSTER_OCCURRENCE_FLOOR" default:"3"`
}

// Load reads configuration from the environment and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// Validate rejects configurations the pipeline cannot run with
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DBHost) == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if len(c.Channels) == 0 {
		return fmt.Errorf("CHANNELS must name at least one channel")
	}
	if c.FetchLimit < 1 {
		return fmt.Errorf("FETCH_LIMIT must be >= 1")
	}
	if c.AnalysisBatch < 1 {
		return fmt.Errorf("ANALYSIS_BATCH must be >= 1")
	}
	if c.EmbedDim < 1 {
		return fmt.Errorf("EMBED_DIM must be >= 1")
	}
	if c.ClusterSimilarityThreshold <= 0 || c.ClusterSimilarityThreshold > 1 {
		return fmt.Errorf("CLUSTER_SIMILARITY_THRESHOLD must be in (0,1]")
	}
	if c.ClusterCandidateLimit < 1 {
		return fmt.Errorf("CLUSTER_CANDIDATE_LIMIT must be >= 1")
	}
	return nil
}
