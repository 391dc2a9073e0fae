package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:generate go run ../../cmd/schema/main.go schema.json

// Config holds the application configuration
type Config struct {
	Server struct {
		Listen  string        `yaml:"listen" json:"listen" jsonschema:"default=:8080,description=HTTP server listen address"`
		Timeout time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=30s,description=HTTP server timeout"`
	} `yaml:"server" json:"server" jsonschema:"description=Server configuration"`

	Database struct {
		DSN             string `yaml:"dsn" json:"dsn" jsonschema:"default=file:radar.db?cache=shared&mode=rwc,description=Database connection string"`
		MaxOpenConns    int    `yaml:"max_open_conns" json:"max_open_conns" jsonschema:"default=10,description=Maximum number of open connections"`
		MaxIdleConns    int    `yaml:"max_idle_conns" json:"max_idle_conns" jsonschema:"default=5,description=Maximum number of idle connections"`
		ConnMaxLifetime int    `yaml:"conn_max_lifetime" json:"conn_max_lifetime" jsonschema:"default=3600,description=Connection maximum lifetime in seconds"`
	} `yaml:"database" json:"database" jsonschema:"description=Database configuration"`

	LLM LLMConfig `yaml:"llm" json:"llm" jsonschema:"description=LLM configuration for profile classification"`

	Scraper ScraperConfig `yaml:"scraper" json:"scraper" jsonschema:"description=Scraper configuration"`

	Sources SourcesConfig `yaml:"sources" json:"sources" jsonschema:"description=Lead discovery sources configuration"`
}

// LLMConfig holds LLM classification configuration. Providers are tried in
// list order, first successful classification wins; an empty list means
// rule-based classification only.
type LLMConfig struct {
	Providers []ProviderConfig `yaml:"providers" json:"providers" jsonschema:"description=Ordered list of OpenAI-compatible providers"`
}

// ProviderConfig holds settings for a single OpenAI-compatible provider
type ProviderConfig struct {
	Name        string        `yaml:"name" json:"name" jsonschema:"description=Provider name used in logs"`
	Endpoint    string        `yaml:"endpoint" json:"endpoint" jsonschema:"description=OpenAI-compatible API endpoint"`
	APIKey      string        `yaml:"api_key" json:"api_key" jsonschema:"description=API key (can use environment variable)"`
	Model       string        `yaml:"model" json:"model" jsonschema:"required,description=Model name (e.g. gpt-4o or llama3)"`
	Temperature float64       `yaml:"temperature" json:"temperature" jsonschema:"default=0.3,description=Temperature for response generation"`
	MaxTokens   int           `yaml:"max_tokens" json:"max_tokens" jsonschema:"default=1024,description=Maximum tokens in response"`
	Timeout     time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=30s,description=Request timeout"`
	UseJSONMode bool          `yaml:"use_json_mode" json:"use_json_mode" jsonschema:"default=false,description=Use JSON response format (not all models support this)"`
}

// ScraperConfig holds scraping settings, including the stealth pacing bounds
type ScraperConfig struct {
	Timeout       time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=30s,description=Fetch timeout per URL"`
	MaxConcurrent int           `yaml:"max_concurrent" json:"max_concurrent" jsonschema:"default=3,description=Maximum concurrent fetches"`
	MinDelay      time.Duration `yaml:"min_delay" json:"min_delay" jsonschema:"default=1s,description=Minimum delay before each fetch"`
	MaxDelay      time.Duration `yaml:"max_delay" json:"max_delay" jsonschema:"default=3s,description=Maximum delay before each fetch"`
	MinTextLength int           `yaml:"min_text_length" json:"min_text_length" jsonschema:"default=50,description=Minimum extracted text length to consider valid"`
	UserAgent     string        `yaml:"user_agent" json:"user_agent" jsonschema:"description=Fixed user agent, random Dutch desktop agent when empty"`
}

// SourcesConfig holds lead discovery settings
type SourcesConfig struct {
	MarktplaatsBaseURL string `yaml:"marktplaats_base_url" json:"marktplaats_base_url" jsonschema:"default=https://www.marktplaats.nl,description=Marktplaats base URL"`
	MaxListings        int    `yaml:"max_listings" json:"max_listings" jsonschema:"default=50,description=Maximum listings to collect per category"`
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // file path comes from CLI flag
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// expand environment variables
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.setDefaults()

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	// verify against embedded schema
	if err := VerifyAgainstEmbeddedSchema(&cfg); err != nil {
		// log warning but don't fail - schema validation is supplementary
		fmt.Printf("warning: schema validation failed: %v\n", err)
	}

	return &cfg, nil
}

// setDefaults fills zero values with defaults
func (c *Config) setDefaults() {
	if c.Server.Listen == "" {
		c.Server.Listen = ":8080"
	}
	if c.Server.Timeout == 0 {
		c.Server.Timeout = 30 * time.Second
	}

	if c.Database.DSN == "" {
		c.Database.DSN = "file:radar.db?cache=shared&mode=rwc&_txlock=immediate"
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 10
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 5
	}
	if c.Database.ConnMaxLifetime == 0 {
		c.Database.ConnMaxLifetime = 3600
	}

	for i := range c.LLM.Providers {
		p := &c.LLM.Providers[i]
		if p.Temperature == 0 {
			p.Temperature = 0.3
		}
		if p.MaxTokens == 0 {
			p.MaxTokens = 1024
		}
		if p.Timeout == 0 {
			p.Timeout = 30 * time.Second
		}
		if p.Name == "" {
			p.Name = fmt.Sprintf("provider-%d", i+1)
		}
	}

	if c.Scraper.Timeout == 0 {
		c.Scraper.Timeout = 30 * time.Second
	}
	if c.Scraper.MaxConcurrent == 0 {
		c.Scraper.MaxConcurrent = 3
	}
	if c.Scraper.MinDelay == 0 {
		c.Scraper.MinDelay = time.Second
	}
	if c.Scraper.MaxDelay == 0 {
		c.Scraper.MaxDelay = 3 * time.Second
	}
	if c.Scraper.MinTextLength == 0 {
		c.Scraper.MinTextLength = 50
	}

	if c.Sources.MarktplaatsBaseURL == "" {
		c.Sources.MarktplaatsBaseURL = "https://www.marktplaats.nl"
	}
	if c.Sources.MaxListings == 0 {
		c.Sources.MaxListings = 50
	}
}

// validate checks configuration for correctness
func validate(cfg *Config) error {
	for _, p := range cfg.LLM.Providers {
		if p.Model == "" {
			return fmt.Errorf("llm provider %q: model is required", p.Name)
		}
		if p.Temperature < 0 || p.Temperature > 2 {
			return fmt.Errorf("llm provider %q: temperature must be between 0 and 2", p.Name)
		}
	}

	if cfg.Scraper.MinDelay > cfg.Scraper.MaxDelay {
		return fmt.Errorf("scraper min_delay must not exceed max_delay")
	}
	if cfg.Scraper.Timeout < time.Second {
		return fmt.Errorf("scraper timeout must be at least 1 second")
	}
	if cfg.Scraper.MaxConcurrent < 1 {
		return fmt.Errorf("scraper max_concurrent must be at least 1")
	}

	if cfg.Server.Timeout < time.Second {
		return fmt.Errorf("server timeout must be at least 1 second")
	}

	return nil
}

// GetServerConfig returns server configuration
func (c *Config) GetServerConfig() (listen string, timeout time.Duration) {
	return c.Server.Listen, c.Server.Timeout
}

// GetLLMConfig returns LLM configuration
func (c *Config) GetLLMConfig() LLMConfig {
	return c.LLM
}

// GetScraperConfig returns scraper configuration
func (c *Config) GetScraperConfig() ScraperConfig {
	return c.Scraper
}
