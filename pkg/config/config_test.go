package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testSection struct {
	Model   string        `env:"TEST_MODEL" yaml:"model" default:"opus-mt"`
	Timeout time.Duration `env:"TEST_TIMEOUT" yaml:"timeout" default:"30s"`
}

type testConfig struct {
	Logging LoggingConfig `yaml:"logging,inline"`
	Metrics MetricsConfig `yaml:"metrics,inline"`
	Section testSection   `yaml:"section,inline"`

	APIKey   string   `env:"TEST_API_KEY" yaml:"api_key" required:"true"`
	Single   bool     `env:"TEST_SINGLE" yaml:"single" default:"false"`
	Features []string `env:"TEST_FEATURES" yaml:"features"`
}

func (c testConfig) Validate() error {
	if err := c.Logging.Validate(); err != nil {
		return err
	}
	return c.Metrics.Validate()
}

func TestGetConfigFromEnvVars(t *testing.T) {
	testCases := []struct {
		name    string
		envVars map[string]string
		want    testConfig
		wantErr bool
	}{
		{
			name:    "defaults except required field",
			envVars: map[string]string{"TEST_API_KEY": "key"},
			want: testConfig{
				Logging: LoggingConfig{Level: "warn", Format: "text"},
				Metrics: MetricsConfig{Port: 9090},
				Section: testSection{Model: "opus-mt", Timeout: 30 * time.Second},
				APIKey:  "key",
			},
		},
		{
			name: "environment overrides",
			envVars: map[string]string{
				"TEST_API_KEY":  "env-key",
				"LOG_LEVEL":     "debug",
				"TEST_TIMEOUT":  "2s",
				"TEST_SINGLE":   "true",
				"TEST_FEATURES": "a, b,,c",
			},
			want: testConfig{
				Logging:  LoggingConfig{Level: "debug", Format: "text"},
				Metrics:  MetricsConfig{Port: 9090},
				Section:  testSection{Model: "opus-mt", Timeout: 2 * time.Second},
				APIKey:   "env-key",
				Single:   true,
				Features: []string{"a", "b", "c"},
			},
		},
		{
			name:    "missing required field",
			envVars: map[string]string{},
			wantErr: true,
		},
		{
			name:    "bad duration",
			envVars: map[string]string{"TEST_API_KEY": "key", "TEST_TIMEOUT": "soon"},
			wantErr: true,
		},
		{
			name:    "validation failure",
			envVars: map[string]string{"TEST_API_KEY": "key", "METRICS_ENABLED": "true", "METRICS_PORT": "99999"},
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.envVars {
				t.Setenv(k, v)
			}

			var got testConfig
			err := GetConfigFromEnvVars(&got)

			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestGetConfigFromYAMLWithInterpolation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
log_level: info
model: ${TEST_YAML_MODEL}
api_key: from-file
features:
  - one
  - two
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("TEST_YAML_MODEL", "opus-mt-zh-en")

	var cfg testConfig
	require.NoError(t, GetConfig(&cfg, path, false))

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "opus-mt-zh-en", cfg.Section.Model)
	assert.Equal(t, "from-file", cfg.APIKey)
	assert.Equal(t, []string{"one", "two"}, cfg.Features)
	assert.Equal(t, 30*time.Second, cfg.Section.Timeout)
}

func TestGetConfigEnvBeatsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api_key: from-file\n"), 0o600))
	t.Setenv("TEST_API_KEY", "from-env")

	var cfg testConfig
	require.NoError(t, GetConfig(&cfg, path, false))
	assert.Equal(t, "from-env", cfg.APIKey)
}

func TestGetConfigMissingFile(t *testing.T) {
	t.Setenv("TEST_API_KEY", "key")

	var cfg testConfig
	assert.Error(t, GetConfig(&cfg, filepath.Join(t.TempDir(), "absent.yaml"), false))

	cfg = testConfig{}
	require.NoError(t, GetConfig(&cfg, filepath.Join(t.TempDir(), "absent.yaml"), true))
	assert.Equal(t, "key", cfg.APIKey)
}

func TestLoggingConfigValidation(t *testing.T) {
	testCases := []struct {
		name    string
		cfg     LoggingConfig
		wantErr bool
	}{
		{"valid debug", LoggingConfig{Level: "debug", Format: "json"}, false},
		{"case insensitive", LoggingConfig{Level: "WARN", Format: "text"}, false},
		{"invalid level", LoggingConfig{Level: "loud", Format: "text"}, true},
		{"invalid format", LoggingConfig{Level: "info", Format: "xml"}, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

type alwaysInvalid struct {
	Name string `env:"INVALID_TEST_NAME" default:"x"`
}

func (alwaysInvalid) Validate() error { return errors.New("never valid") }

func TestLoadConfigSkipsValidation(t *testing.T) {
	var cfg alwaysInvalid
	require.NoError(t, LoadConfig(&cfg, "", false))
	assert.Equal(t, "x", cfg.Name)

	var validated alwaysInvalid
	assert.ErrorContains(t, GetConfig(&validated, "", false), "never valid")
}
