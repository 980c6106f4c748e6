package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

// globalConfig stores the configuration loaded with overrides so that
// packages without access to the caller can read the same limits
var (
	globalConfig *Config
	configMutex  sync.Mutex
)

// Config holds the decoder configuration
type Config struct {
	Limits  LimitsConfig  `json:"limits"`
	Decode  DecodeConfig  `json:"decode"`
	Logging LoggingConfig `json:"logging"`
}

// LoadOptions holds caller-supplied overrides; zero values mean "not set"
type LoadOptions struct {
	MaxWidth  int
	MaxHeight int
	MaxMemory int64
	LogLevel  string
	LogFormat string
}

// LimitsConfig bounds every pixel buffer allocated by the decoders
type LimitsConfig struct {
	MaxWidth  int   `json:"maxWidth" env:"IMAGES_MAX_WIDTH" default:"10240"`
	MaxHeight int   `json:"maxHeight" env:"IMAGES_MAX_HEIGHT" default:"10240"`
	MaxMemory int64 `json:"maxMemory" env:"IMAGES_MAX_MEMORY" default:"1073741824"`
}

// DecodeConfig holds decode and transform defaults
type DecodeConfig struct {
	Unwrap       bool   `json:"unwrap" env:"IMAGES_DECODE_UNWRAP" default:"true"`
	MaxInputSize int64  `json:"maxInputSize" env:"IMAGES_MAX_INPUT_SIZE" default:"268435456"`
	ResizeFilter string `json:"resizeFilter" env:"IMAGES_RESIZE_FILTER" default:"bilinear"`
	JPEGQuality  int    `json:"jpegQuality" env:"IMAGES_JPEG_QUALITY" default:"90"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `json:"level" env:"LOG_LEVEL" default:"info"`
	Format string `json:"format" env:"LOG_FORMAT" default:"text"`
}

// Load loads configuration from environment variables with defaults
func Load() (*Config, error) {
	return LoadWithOverrides(LoadOptions{})
}

// LoadWithOverrides loads configuration with caller overrides
func LoadWithOverrides(opts LoadOptions) (*Config, error) {
	config := &Config{}

	// Limits
	config.Limits.MaxWidth = getIntOverride(opts.MaxWidth, "IMAGES_MAX_WIDTH", 10240)
	config.Limits.MaxHeight = getIntOverride(opts.MaxHeight, "IMAGES_MAX_HEIGHT", 10240)
	config.Limits.MaxMemory = getInt64Override(opts.MaxMemory, "IMAGES_MAX_MEMORY", 1<<30)

	// Decode
	config.Decode.Unwrap = getBoolWithDefault("IMAGES_DECODE_UNWRAP", true)
	config.Decode.MaxInputSize = getInt64Override(0, "IMAGES_MAX_INPUT_SIZE", 256<<20)
	config.Decode.ResizeFilter = getEnvWithDefault("IMAGES_RESIZE_FILTER", "bilinear")
	config.Decode.JPEGQuality = getIntWithDefault("IMAGES_JPEG_QUALITY", 90)

	// Logging
	config.Logging.Level = getOverrideOrEnv(opts.LogLevel, "LOG_LEVEL", "info")
	config.Logging.Format = getOverrideOrEnv(opts.LogFormat, "LOG_FORMAT", "text")

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	configMutex.Lock()
	globalConfig = config
	configMutex.Unlock()

	return config, nil
}

// GetGlobalConfig returns the most recently loaded configuration, or nil
func GetGlobalConfig() *Config {
	configMutex.Lock()
	defer configMutex.Unlock()
	return globalConfig
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Limits.MaxWidth <= 0 || c.Limits.MaxHeight <= 0 {
		return fmt.Errorf("max dimensions must be positive")
	}

	// 0 disables the memory limit
	if c.Limits.MaxMemory < 0 {
		return fmt.Errorf("max memory cannot be negative")
	}

	if c.Decode.MaxInputSize <= 0 {
		return fmt.Errorf("max input size must be positive")
	}

	validFilters := map[string]bool{
		"nearest":    true,
		"bilinear":   true,
		"catmullrom": true,
	}

	if !validFilters[c.Decode.ResizeFilter] {
		return fmt.Errorf("invalid resize filter: %s", c.Decode.ResizeFilter)
	}

	if c.Decode.JPEGQuality < 1 || c.Decode.JPEGQuality > 100 {
		return fmt.Errorf("jpeg quality must be between 1 and 100")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	validLogFormats := map[string]bool{
		"text": true,
		"json": true,
	}

	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	return nil
}

// Helper functions for environment variable parsing
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getInt64WithDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getBoolWithDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getOverrideOrEnv returns override value, env value, or default
func getOverrideOrEnv(override, envKey, defaultValue string) string {
	if override != "" {
		return override
	}
	return getEnvWithDefault(envKey, defaultValue)
}

func getIntOverride(override int, envKey string, defaultValue int) int {
	if override != 0 {
		return override
	}
	return getIntWithDefault(envKey, defaultValue)
}

func getInt64Override(override int64, envKey string, defaultValue int64) int64 {
	if override != 0 {
		return override
	}
	return getInt64WithDefault(envKey, defaultValue)
}
