package config

import (
	"fmt"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// Enum storage modes.
const (
	EnumAsString = "string"
	EnumAsInt    = "int"
)

// Config holds the pipeline configuration.
type Config struct {
	// EnumStorage selects how enum values are persisted: "string" stores the
	// member name, "int" the numeric value.
	EnumStorage string `env:"QUERY_ENUM_STORAGE" envDefault:"string"`

	// MaxInListSize bounds IN / NOT-IN / array-contains-any candidate lists.
	// The store rejects larger disjunctions server-side; failing here keeps
	// the error synchronous and pre-I/O.
	MaxInListSize int `env:"QUERY_MAX_IN_LIST" envDefault:"30"`

	// ProgramCacheSize bounds the LRU of compiled value-expression programs.
	ProgramCacheSize int `env:"QUERY_PROGRAM_CACHE_SIZE" envDefault:"256"`

	// ShapeCacheSize bounds the LRU of translated query shapes.
	ShapeCacheSize int `env:"QUERY_SHAPE_CACHE_SIZE" envDefault:"128"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
}

// Load reads configuration from the environment, honoring a local .env file
// when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse query config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration used when the host supplies none.
func Default() *Config {
	return &Config{
		EnumStorage:      EnumAsString,
		MaxInListSize:    30,
		ProgramCacheSize: 256,
		ShapeCacheSize:   128,
		LogLevel:         "info",
		LogFormat:        "text",
	}
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	if c.EnumStorage != EnumAsString && c.EnumStorage != EnumAsInt {
		return fmt.Errorf("invalid enum storage mode %q", c.EnumStorage)
	}
	if c.MaxInListSize <= 0 {
		return fmt.Errorf("max in-list size must be positive, got %d", c.MaxInListSize)
	}
	if c.ProgramCacheSize <= 0 {
		return fmt.Errorf("program cache size must be positive, got %d", c.ProgramCacheSize)
	}
	if c.ShapeCacheSize <= 0 {
		return fmt.Errorf("shape cache size must be positive, got %d", c.ShapeCacheSize)
	}
	return nil
}
