package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configEnvVars = []string{
	"IMAGES_MAX_WIDTH",
	"IMAGES_MAX_HEIGHT",
	"IMAGES_MAX_MEMORY",
	"IMAGES_DECODE_UNWRAP",
	"IMAGES_MAX_INPUT_SIZE",
	"IMAGES_RESIZE_FILTER",
	"IMAGES_JPEG_QUALITY",
	"LOG_LEVEL",
	"LOG_FORMAT",
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		want    *Config
		wantErr bool
	}{
		{
			name:    "default configuration",
			envVars: map[string]string{},
			want: &Config{
				Limits: LimitsConfig{MaxWidth: 10240, MaxHeight: 10240, MaxMemory: 1 << 30},
				Decode: DecodeConfig{
					Unwrap:       true,
					MaxInputSize: 256 << 20,
					ResizeFilter: "bilinear",
					JPEGQuality:  90,
				},
				Logging: LoggingConfig{Level: "info", Format: "text"},
			},
		},
		{
			name: "environment overrides",
			envVars: map[string]string{
				"IMAGES_MAX_WIDTH":     "4096",
				"IMAGES_MAX_HEIGHT":    "2048",
				"IMAGES_MAX_MEMORY":    "67108864",
				"IMAGES_DECODE_UNWRAP": "false",
				"IMAGES_RESIZE_FILTER": "catmullrom",
				"IMAGES_JPEG_QUALITY":  "75",
				"LOG_LEVEL":            "debug",
				"LOG_FORMAT":           "json",
			},
			want: &Config{
				Limits: LimitsConfig{MaxWidth: 4096, MaxHeight: 2048, MaxMemory: 64 << 20},
				Decode: DecodeConfig{
					Unwrap:       false,
					MaxInputSize: 256 << 20,
					ResizeFilter: "catmullrom",
					JPEGQuality:  75,
				},
				Logging: LoggingConfig{Level: "debug", Format: "json"},
			},
		},
		{
			name:    "invalid resize filter",
			envVars: map[string]string{"IMAGES_RESIZE_FILTER": "lanczos"},
			wantErr: true,
		},
		{
			name:    "negative width",
			envVars: map[string]string{"IMAGES_MAX_WIDTH": "-1"},
			wantErr: true,
		},
		{
			name:    "unparseable values fall back to defaults",
			envVars: map[string]string{"IMAGES_MAX_HEIGHT": "tall", "IMAGES_DECODE_UNWRAP": "maybe"},
			want: &Config{
				Limits: LimitsConfig{MaxWidth: 10240, MaxHeight: 10240, MaxMemory: 1 << 30},
				Decode: DecodeConfig{
					Unwrap:       true,
					MaxInputSize: 256 << 20,
					ResizeFilter: "bilinear",
					JPEGQuality:  90,
				},
				Logging: LoggingConfig{Level: "info", Format: "text"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, k := range configEnvVars {
				t.Setenv(k, "")
				os.Unsetenv(k)
			}
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg, err := Load()

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg)
		})
	}
}

func TestLoadWithOverrides(t *testing.T) {
	for _, k := range configEnvVars {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	t.Setenv("IMAGES_MAX_WIDTH", "2000")
	t.Setenv("LOG_LEVEL", "error")

	cfg, err := LoadWithOverrides(LoadOptions{
		MaxWidth:  640,
		MaxMemory: 1 << 20,
		LogLevel:  "warn",
	})
	require.NoError(t, err)

	assert.Equal(t, 640, cfg.Limits.MaxWidth)
	assert.Equal(t, 10240, cfg.Limits.MaxHeight)
	assert.Equal(t, int64(1<<20), cfg.Limits.MaxMemory)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)

	assert.Same(t, cfg, GetGlobalConfig())
}

func TestConfigValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Limits:  LimitsConfig{MaxWidth: 100, MaxHeight: 100, MaxMemory: 1 << 20},
			Decode:  DecodeConfig{MaxInputSize: 1 << 20, ResizeFilter: "nearest", JPEGQuality: 80},
			Logging: LoggingConfig{Level: "info", Format: "text"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
		errMsg  string
	}{
		{
			name:   "valid configuration",
			mutate: func(c *Config) {},
		},
		{
			name:   "unlimited memory",
			mutate: func(c *Config) { c.Limits.MaxMemory = 0 },
		},
		{
			name:    "zero height",
			mutate:  func(c *Config) { c.Limits.MaxHeight = 0 },
			wantErr: true,
			errMsg:  "max dimensions must be positive",
		},
		{
			name:    "negative memory",
			mutate:  func(c *Config) { c.Limits.MaxMemory = -1 },
			wantErr: true,
			errMsg:  "max memory cannot be negative",
		},
		{
			name:    "zero input size",
			mutate:  func(c *Config) { c.Decode.MaxInputSize = 0 },
			wantErr: true,
			errMsg:  "max input size must be positive",
		},
		{
			name:    "invalid resize filter",
			mutate:  func(c *Config) { c.Decode.ResizeFilter = "box" },
			wantErr: true,
			errMsg:  "invalid resize filter",
		},
		{
			name:    "jpeg quality out of range",
			mutate:  func(c *Config) { c.Decode.JPEGQuality = 101 },
			wantErr: true,
			errMsg:  "jpeg quality must be between 1 and 100",
		},
		{
			name:    "invalid log level",
			mutate:  func(c *Config) { c.Logging.Level = "invalid" },
			wantErr: true,
			errMsg:  "invalid log level",
		},
		{
			name:    "invalid log format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: true,
			errMsg:  "invalid log format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}

			assert.NoError(t, err)
		})
	}
}

func TestGetEnvWithDefault(t *testing.T) {
	key := "TEST_CONFIG_VAR"

	os.Unsetenv(key)
	assert.Equal(t, "default", getEnvWithDefault(key, "default"))

	t.Setenv(key, "test_value")
	assert.Equal(t, "test_value", getEnvWithDefault(key, "default"))
}

func TestGetIntWithDefault(t *testing.T) {
	key := "TEST_INT_VAR"

	os.Unsetenv(key)
	assert.Equal(t, 42, getIntWithDefault(key, 42))

	t.Setenv(key, "100")
	assert.Equal(t, 100, getIntWithDefault(key, 42))

	t.Setenv(key, "invalid")
	assert.Equal(t, 42, getIntWithDefault(key, 42))
}

func TestGetInt64WithDefault(t *testing.T) {
	key := "TEST_INT64_VAR"

	os.Unsetenv(key)
	assert.Equal(t, int64(7), getInt64WithDefault(key, 7))

	t.Setenv(key, " 8589934592 ")
	assert.Equal(t, int64(8<<30), getInt64WithDefault(key, 7))

	t.Setenv(key, "lots")
	assert.Equal(t, int64(7), getInt64WithDefault(key, 7))
}

func TestGetBoolWithDefault(t *testing.T) {
	key := "TEST_BOOL_VAR"

	os.Unsetenv(key)
	assert.False(t, getBoolWithDefault(key, false))

	t.Setenv(key, "true")
	assert.True(t, getBoolWithDefault(key, false))

	t.Setenv(key, "false")
	assert.False(t, getBoolWithDefault(key, true))

	t.Setenv(key, "invalid")
	assert.True(t, getBoolWithDefault(key, true))
}

func TestGetOverrideOrEnv(t *testing.T) {
	key := "TEST_OVERRIDE_VAR"

	t.Setenv(key, "env_value")
	assert.Equal(t, "override_value", getOverrideOrEnv("override_value", key, "default_value"))
	assert.Equal(t, "env_value", getOverrideOrEnv("", key, "default_value"))

	os.Unsetenv(key)
	assert.Equal(t, "default_value", getOverrideOrEnv("", key, "default_value"))
}

func TestGetIntOverride(t *testing.T) {
	key := "TEST_INT_OVERRIDE_VAR"

	t.Setenv(key, "5")
	assert.Equal(t, 9, getIntOverride(9, key, 1))
	assert.Equal(t, 5, getIntOverride(0, key, 1))
	assert.Equal(t, int64(5), getInt64Override(0, key, 1))
	assert.Equal(t, int64(9), getInt64Override(9, key, 1))
}
