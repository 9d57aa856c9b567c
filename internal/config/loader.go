package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
)

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	expandedPath, err := expandPath(path)
	if err != nil {
		return nil, fmt.Errorf("failed to expand config path: %w", err)
	}

	data, err := os.ReadFile(expandedPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s (run 'bursary config init' to create)", expandedPath)
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return Parse(data)
}

// Parse decodes TOML over the defaults, applies environment overrides and validates
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnv(os.LookupEnv)

	if err := cfg.expandPaths(); err != nil {
		return nil, fmt.Errorf("failed to expand paths: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// expandPath expands ~ to home directory
func expandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(home, path[1:]), nil
}

// expandPaths expands ~ in all path fields
func (c *Config) expandPaths() error {
	var err error

	c.Database.Path, err = expandPath(c.Database.Path)
	if err != nil {
		return err
	}

	return nil
}

// applyEnv overlays secrets and deployment settings from the environment.
// The lookup is injected so tests do not have to mutate the process env.
func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup("BURSARY_DATABASE_DRIVER"); ok && v != "" {
		c.Database.Driver = v
	}
	if v, ok := lookup("DATABASE_URL"); ok && v != "" {
		c.Database.URL = v
	}
	if v, ok := lookup("REDIS_URL"); ok && v != "" {
		c.Embedding.Cache.RedisURL = v
	}
	if v, ok := lookup("GEMINI_API_KEY"); ok {
		c.Embedding.APIKey = strings.TrimSpace(v)
	}
	if v, ok := lookup("OLLAMA_HOST"); ok && v != "" {
		c.Embedding.Host = v
	}
	if v, ok := lookup("BURSARY_LOG_JSON"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Log.JSON = b
		}
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	// Database validation
	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Path == "" {
			errs = append(errs, errors.New("database.path is required for the sqlite driver"))
		}
	case "postgres":
		if c.Database.URL == "" {
			errs = append(errs, errors.New("database.url (or DATABASE_URL) is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("database.driver must be 'sqlite' or 'postgres', got '%s'", c.Database.Driver))
	}

	// Embedding validation
	switch c.Embedding.Provider {
	case "none":
	case "ollama":
		if c.Embedding.Host == "" {
			errs = append(errs, errors.New("embedding.host is required for the ollama provider"))
		}
	case "gemini":
	default:
		errs = append(errs, fmt.Errorf("embedding.provider must be 'none', 'ollama' or 'gemini', got '%s'", c.Embedding.Provider))
	}
	if c.Embedding.Provider != "none" && c.Embedding.TimeoutSeconds < 1 {
		errs = append(errs, errors.New("embedding.timeout_seconds must be at least 1"))
	}
	if c.Embedding.Cache.Enabled && c.Embedding.Cache.RedisURL == "" {
		errs = append(errs, errors.New("embedding.cache.redis_url is required when the cache is enabled"))
	}

	// Matching validation
	m := c.Matching
	validStrategies := map[string]bool{"keyword": true, "semantic": true, "both": true}
	if !validStrategies[m.Strategy] {
		errs = append(errs, fmt.Errorf("matching.strategy must be 'keyword', 'semantic' or 'both', got '%s'", m.Strategy))
	}
	if m.MaxLimit < 1 {
		errs = append(errs, errors.New("matching.max_limit must be at least 1"))
	}
	if m.DefaultLimit < 1 || m.DefaultLimit > m.MaxLimit {
		errs = append(errs, errors.New("matching.default_limit must be between 1 and matching.max_limit"))
	}
	if m.DescriptionLimit < 1 {
		errs = append(errs, errors.New("matching.description_limit must be at least 1"))
	}
	if m.Workers < 1 {
		errs = append(errs, errors.New("matching.workers must be at least 1"))
	}
	if m.KeywordMinScore < 0 || m.KeywordMinScore > 100 || m.KeywordMinScoreNoProfile < 0 || m.KeywordMinScoreNoProfile > 100 {
		errs = append(errs, errors.New("matching keyword minimum scores must be between 0 and 100"))
	}
	s := m.Semantic
	if !(0 < s.Minimum && s.Minimum <= s.VeryGood && s.VeryGood <= s.Excellent && s.Excellent <= 1) {
		errs = append(errs, errors.New("matching.semantic thresholds must be ascending within (0, 1]"))
	}
	k := m.KeywordTiers
	if !(0 <= k.Good && k.Good <= k.VeryGood && k.VeryGood <= k.Excellent && k.Excellent <= 100) {
		errs = append(errs, errors.New("matching.keyword_tiers must be ascending within [0, 100]"))
	}

	// Scraper validation
	if c.Scraper.MaxLinksPerSite < 1 {
		errs = append(errs, errors.New("scraper.max_links_per_site must be at least 1"))
	}
	if c.Scraper.PageTextLimit < 1 {
		errs = append(errs, errors.New("scraper.page_text_limit must be at least 1"))
	}
	if c.Scraper.Concurrency < 1 {
		errs = append(errs, errors.New("scraper.concurrency must be at least 1"))
	}

	// Scheduler validation
	if c.Scheduler.Enabled {
		if _, err := cron.ParseStandard(c.Scheduler.RefreshEvery); err != nil {
			errs = append(errs, fmt.Errorf("scheduler.refresh_every is not a valid cron spec: %w", err))
		}
	}

	// Server validation
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, errors.New("server.port must be between 1 and 65535"))
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		errs = append(errs, fmt.Errorf("server.mode must be 'debug', 'release' or 'test', got '%s'", c.Server.Mode))
	}

	// MCP validation
	if c.MCP.Transport != "stdio" {
		errs = append(errs, fmt.Errorf("mcp.transport must be 'stdio', got '%s'", c.MCP.Transport))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// EnsureDirectories creates necessary directories for the sqlite database
func (c *Config) EnsureDirectories() error {
	if c.Database.Driver != "sqlite" {
		return nil
	}

	dir := filepath.Dir(c.Database.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	return nil
}
