package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/anthropics/chemlab-engine/internal/domain"
)

// AssistConfig defines the AI collaborator used for reaction prediction,
// catalog search, and next-step suggestions. The API key is read from the
// named environment variable so it never lands in the config file.
type AssistConfig struct {
	Model      string `yaml:"model"`
	APIKeyEnv  string `yaml:"api_key_env"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// Config holds the lab engine's runtime configuration.
type Config struct {
	DBPath             string       `yaml:"db_path"`
	ListenAddr         string       `yaml:"listen_addr"`
	SafetyEnabled      *bool        `yaml:"safety_enabled"`
	MinVolumeML        float64      `yaml:"min_volume_ml"`
	RateLimitPerMinute int          `yaml:"rate_limit_per_minute"`
	Assist             AssistConfig `yaml:"assist"`
}

// Load reads a YAML config file, applies defaults, and validates.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config YAML: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns the configuration used when no config file is present.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// SafetyOn reports the effective safety-equipment flag.
func (c *Config) SafetyOn() bool {
	return c.SafetyEnabled == nil || *c.SafetyEnabled
}

// APIKey resolves the assist API key from the configured environment
// variable. Empty means the assist collaborator is disabled.
func (c *Config) APIKey() string {
	return os.Getenv(c.Assist.APIKeyEnv)
}

func (c *Config) applyDefaults() {
	if c.DBPath == "" {
		c.DBPath = "chemlab.db"
	}
	if c.ListenAddr == "" {
		c.ListenAddr = ":9820"
	}
	if c.MinVolumeML == 0 {
		c.MinVolumeML = 0.01
	}
	if c.RateLimitPerMinute == 0 {
		c.RateLimitPerMinute = 120
	}
	if c.Assist.Model == "" {
		c.Assist.Model = "gpt-4o-mini"
	}
	if c.Assist.APIKeyEnv == "" {
		c.Assist.APIKeyEnv = "OPENAI_API_KEY"
	}
	if c.Assist.TimeoutSec == 0 {
		c.Assist.TimeoutSec = 30
	}
}

func (c *Config) validate() error {
	var problems []string

	if c.MinVolumeML < 0 {
		problems = append(problems, "min_volume_ml must not be negative")
	}
	if c.RateLimitPerMinute < 0 {
		problems = append(problems, "rate_limit_per_minute must not be negative")
	}
	if c.Assist.TimeoutSec < 0 {
		problems = append(problems, "assist.timeout_sec must not be negative")
	}

	if len(problems) > 0 {
		return &domain.EngineError{
			Code:    domain.ErrConfigInvalid.Code,
			Message: fmt.Sprintf("%s: %v", domain.ErrConfigInvalid.Message, problems),
		}
	}
	return nil
}
