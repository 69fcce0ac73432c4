// Package config provides configuration management for the rules engine.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/hl/bingo-sub000/internal/changetracker"
)

// Config holds the engine's runtime configuration.
type Config struct {
	Engine   EngineConfig   `yaml:"engine"`
	Logging  LoggingConfig  `yaml:"logging"`
	Profiler ProfilerConfig `yaml:"profiler"`
}

// EngineConfig mirrors engine.Options in environment-variable form, kept as
// a separate type so the engine package never imports config (callers
// translate Config into engine.Options at the process boundary).
type EngineConfig struct {
	CapacityHint                   int           `yaml:"capacity_hint"`
	ProcessingMode                 string        `yaml:"processing_mode"`
	DeleteDetection                bool          `yaml:"delete_detection"`
	ExpireInterval                 time.Duration `yaml:"expire_interval"`
	PartialMatchMaxAge             time.Duration `yaml:"partial_match_max_age"`
	PatternCacheCapacity           int           `yaml:"pattern_cache_capacity"`
	CalculatorProgramCacheCapacity int           `yaml:"calculator_program_cache_capacity"`
	PoolCapacity                   int           `yaml:"pool_capacity"`
}

// LoggingConfig holds logging-related configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "json" or "text"
}

// ProfilerConfig holds the memory-pressure profiler's byte thresholds.
type ProfilerConfig struct {
	ModerateBytes int64 `yaml:"moderate_bytes"`
	HighBytes     int64 `yaml:"high_bytes"`
	CriticalBytes int64 `yaml:"critical_bytes"`
}

// ProcessingModeValue translates the configured mode name into a
// changetracker.ProcessingMode, defaulting to Adaptive for an unrecognized
// or empty value.
func (e EngineConfig) ProcessingModeValue() changetracker.ProcessingMode {
	switch e.ProcessingMode {
	case "full":
		return changetracker.Full
	case "incremental":
		return changetracker.Incremental
	default:
		return changetracker.Adaptive
	}
}

// Load loads the configuration from environment variables.
func Load() (*Config, error) {
	godotenv.Load()
	cfg := &Config{
		Engine: EngineConfig{
			CapacityHint:                   getEnvAsInt("RULES_ENGINE_CAPACITY_HINT", 1024),
			ProcessingMode:                 getEnv("RULES_ENGINE_PROCESSING_MODE", "adaptive"),
			DeleteDetection:                getEnvAsBool("RULES_ENGINE_DELETE_DETECTION", false),
			ExpireInterval:                 getEnvAsDuration("RULES_ENGINE_EXPIRE_INTERVAL", 5*time.Minute),
			PartialMatchMaxAge:             getEnvAsDuration("RULES_ENGINE_PARTIAL_MATCH_MAX_AGE", 30*time.Minute),
			PatternCacheCapacity:           getEnvAsInt("RULES_ENGINE_PATTERN_CACHE_CAPACITY", 256),
			CalculatorProgramCacheCapacity: getEnvAsInt("RULES_ENGINE_CALCULATOR_CACHE_CAPACITY", 100),
			PoolCapacity:                   getEnvAsInt("RULES_ENGINE_POOL_CAPACITY", 200),
		},
		Logging: LoggingConfig{
			Level:  getEnv("RULES_ENGINE_LOG_LEVEL", "info"),
			Format: getEnv("RULES_ENGINE_LOG_FORMAT", "json"),
		},
		Profiler: ProfilerConfig{
			ModerateBytes: getEnvAsInt64("RULES_ENGINE_PRESSURE_MODERATE_BYTES", 50*1024*1024),
			HighBytes:     getEnvAsInt64("RULES_ENGINE_PRESSURE_HIGH_BYTES", 150*1024*1024),
			CriticalBytes: getEnvAsInt64("RULES_ENGINE_PRESSURE_CRITICAL_BYTES", 400*1024*1024),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// LoadFromFile loads configuration from a YAML file, starting from the same
// defaults Load applies to environment variables so an operator only has to
// specify the fields they want to override. Environment variables are not
// consulted once a file path is given.
func LoadFromFile(path string) (*Config, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := defaultConfig()
	if err := yaml.Unmarshal(buf, cfg); err != nil {
		return nil, fmt.Errorf("parsing YAML config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			CapacityHint:                   1024,
			ProcessingMode:                 "adaptive",
			DeleteDetection:                false,
			ExpireInterval:                 5 * time.Minute,
			PartialMatchMaxAge:             30 * time.Minute,
			PatternCacheCapacity:           256,
			CalculatorProgramCacheCapacity: 100,
			PoolCapacity:                   200,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Profiler: ProfilerConfig{
			ModerateBytes: 50 * 1024 * 1024,
			HighBytes:     150 * 1024 * 1024,
			CriticalBytes: 400 * 1024 * 1024,
		},
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Engine.CapacityHint < 0 {
		return fmt.Errorf("capacity hint must be non-negative")
	}

	if c.Engine.PatternCacheCapacity < 0 {
		return fmt.Errorf("pattern cache capacity must be non-negative")
	}

	validModes := map[string]bool{"full": true, "incremental": true, "adaptive": true}
	if !validModes[c.Engine.ProcessingMode] {
		return fmt.Errorf("invalid processing mode: %s (must be full, incremental, or adaptive)", c.Engine.ProcessingMode)
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		return fmt.Errorf("invalid log format: %s (must be json or text)", c.Logging.Format)
	}

	if c.Profiler.ModerateBytes >= c.Profiler.HighBytes || c.Profiler.HighBytes >= c.Profiler.CriticalBytes {
		return fmt.Errorf("pressure thresholds must be strictly increasing: moderate < high < critical")
	}

	return nil
}

// Helper functions for environment variables

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}
