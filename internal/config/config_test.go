package config

import "testing"

func validConfig() *Config {
	return &Config{
		DBHost:                     "localhost",
		Channels:                   []string{"entrepreneur"},
		FetchLimit:                 50,
		AnalysisBatch:              5,
		EmbedDim:                   1536,
		ClusterSimilarityThreshold: 0.85,
		ClusterCandidateLimit:      100,
	}
}

func TestValidate(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing db host", func(c *Config) { c.DBHost = " " }},
		{"no channels", func(c *Config) { c.Channels = nil }},
		{"zero fetch limit", func(c *Config) { c.FetchLimit = 0 }},
		{"zero batch", func(c *Config) { c.AnalysisBatch = 0 }},
		{"zero embed dim", func(c *Config) { c.EmbedDim = 0 }},
		{"threshold above one", func(c *Config) { c.ClusterSimilarityThreshold = 1.5 }},
		{"threshold zero", func(c *Config) { c.ClusterSimilarityThreshold = 0 }},
		{"zero candidate limit", func(c *Config) { c.ClusterCandidateLimit = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
