package config

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// MetricsConfig holds metrics collection and exposure settings
type MetricsConfig struct {
	// Enabled starts the status server exposing /metrics and /health/live
	Enabled bool `env:"METRICS_ENABLED" yaml:"metrics_enabled" default:"false"`

	// Port is the HTTP port of the status server
	Port int `env:"METRICS_PORT" yaml:"metrics_port" default:"9090"`
}

// Validate checks MetricsConfig for valid port range when metrics are exposed
func (m MetricsConfig) Validate() error {
	var result error
	if m.Enabled && (m.Port < 1 || m.Port > 65535) {
		result = multierror.Append(result, fmt.Errorf("metrics port must be between 1-65535, got %d", m.Port))
	}
	return result
}
