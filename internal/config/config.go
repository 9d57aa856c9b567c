package config

import (
	"fmt"
	"time"
)

// Config represents the application configuration
type Config struct {
	Database  DatabaseConfig  `toml:"database"`
	Embedding EmbeddingConfig `toml:"embedding"`
	Matching  MatchingConfig  `toml:"matching"`
	Scraper   ScraperConfig   `toml:"scraper"`
	Scheduler SchedulerConfig `toml:"scheduler"`
	Server    ServerConfig    `toml:"server"`
	MCP       MCPConfig       `toml:"mcp"`
	Log       LogConfig       `toml:"log"`
}

// DatabaseConfig selects and configures the match store backend
type DatabaseConfig struct {
	Driver string `toml:"driver"` // sqlite or postgres
	Path   string `toml:"path"`   // sqlite file
	URL    string `toml:"url"`    // postgres connection string, usually from DATABASE_URL
}

// EmbeddingConfig contains embedding provider settings
type EmbeddingConfig struct {
	Provider       string      `toml:"provider"` // none, ollama or gemini
	Model          string      `toml:"model"`
	Host           string      `toml:"host"`
	TimeoutSeconds int         `toml:"timeout_seconds"`
	Cache          CacheConfig `toml:"cache"`
	// Gemini API key is read from GEMINI_API_KEY environment variable
	APIKey string `toml:"-"`
}

// Timeout returns the provider request timeout
func (e EmbeddingConfig) Timeout() time.Duration {
	return time.Duration(e.TimeoutSeconds) * time.Second
}

// CacheConfig contains the redis embedding cache settings
type CacheConfig struct {
	Enabled  bool   `toml:"enabled"`
	RedisURL string `toml:"redis_url"`
	TTLHours int    `toml:"ttl_hours"`
}

// TTL returns the cache entry lifetime
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLHours) * time.Hour
}

// MatchingConfig contains scoring and ranking settings
type MatchingConfig struct {
	Strategy                 string             `toml:"strategy"`
	DefaultLimit             int                `toml:"default_limit"`
	MaxLimit                 int                `toml:"max_limit"`
	DescriptionLimit         int                `toml:"description_limit"`
	Workers                  int                `toml:"workers"`
	KeywordMinScore          int                `toml:"keyword_min_score"`
	KeywordMinScoreNoProfile int                `toml:"keyword_min_score_no_profile"`
	Semantic                 SemanticThresholds `toml:"semantic"`
	KeywordTiers             KeywordTiers       `toml:"keyword_tiers"`
}

// SemanticThresholds are the ascending similarity boundaries for quality tiers
type SemanticThresholds struct {
	Minimum   float64 `toml:"minimum"`
	VeryGood  float64 `toml:"very_good"`
	Excellent float64 `toml:"excellent"`
}

// KeywordTiers are the ascending keyword score boundaries for quality tiers
type KeywordTiers struct {
	Good      int `toml:"good"`
	VeryGood  int `toml:"very_good"`
	Excellent int `toml:"excellent"`
}

// ScraperConfig contains candidate fetching settings
type ScraperConfig struct {
	MaxLinksPerSite int      `toml:"max_links_per_site"`
	PageTextLimit   int      `toml:"page_text_limit"`
	TimeoutSeconds  int      `toml:"timeout_seconds"`
	Concurrency     int      `toml:"concurrency"`
	UserAgent       string   `toml:"user_agent"`
	ExtraSites      []string `toml:"extra_sites"`
	SkipBase        bool     `toml:"skip_base"`
	SkipUniversity  bool     `toml:"skip_university"`
	SkipCompany     bool     `toml:"skip_company"`
	SkipGovernment  bool     `toml:"skip_government"`
}

// Timeout returns the per-request timeout
func (s ScraperConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// SchedulerConfig contains periodic refresh settings
type SchedulerConfig struct {
	Enabled      bool   `toml:"enabled"`
	RefreshEvery string `toml:"refresh_every"` // cron spec, e.g. "@every 24h"
	RunOnStart   bool   `toml:"run_on_start"`
}

// ServerConfig contains HTTP API settings
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
	Mode string `toml:"mode"` // gin mode: debug, release, test
}

// Addr returns the listen address
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// MCPConfig contains MCP server settings
type MCPConfig struct {
	Enabled   bool   `toml:"enabled"`
	Transport string `toml:"transport"`
}

// LogConfig contains logger settings
type LogConfig struct {
	JSON  bool `toml:"json"`
	Debug bool `toml:"debug"`
}

// Default returns a Config with sensible defaults
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver: "sqlite",
			Path:   "~/.local/share/bursary/bursary.db",
		},
		Embedding: EmbeddingConfig{
			Provider:       "ollama",
			Model:          "all-minilm",
			Host:           "http://localhost:11434",
			TimeoutSeconds: 60,
			Cache: CacheConfig{
				Enabled:  false,
				RedisURL: "redis://localhost:6379/0",
				TTLHours: 24 * 7,
			},
		},
		Matching: MatchingConfig{
			Strategy:                 "both",
			DefaultLimit:             30,
			MaxLimit:                 50,
			DescriptionLimit:         400,
			Workers:                  8,
			KeywordMinScore:          30,
			KeywordMinScoreNoProfile: 10,
			Semantic: SemanticThresholds{
				Minimum:   0.15,
				VeryGood:  0.25,
				Excellent: 0.35,
			},
			KeywordTiers: KeywordTiers{
				Good:      40,
				VeryGood:  60,
				Excellent: 80,
			},
		},
		Scraper: ScraperConfig{
			MaxLinksPerSite: 40,
			PageTextLimit:   800,
			TimeoutSeconds:  10,
			Concurrency:     4,
			UserAgent:       "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
		},
		Scheduler: SchedulerConfig{
			Enabled:      true,
			RefreshEvery: "@every 24h",
			RunOnStart:   false,
		},
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8080,
			Mode: "release",
		},
		MCP: MCPConfig{
			Enabled:   true,
			Transport: "stdio",
		},
	}
}
