package config

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// LoggingConfig holds logging configuration shared across commands
type LoggingConfig struct {
	// Level specifies the minimum log level to output
	// Valid values: debug, info, warn, error
	Level string `env:"LOG_LEVEL" yaml:"log_level" default:"warn"`
	// Format is json or text
	Format string `env:"LOG_FORMAT" yaml:"log_format" default:"text"`
	// File receives log output; empty means stderr
	File string `env:"LOG_FILE" yaml:"log_file"`
}

// Validate checks LoggingConfig for a valid level and format
func (c LoggingConfig) Validate() error {
	var result error
	if !OneOf(strings.ToLower(c.Level), "debug", "info", "warn", "error") {
		result = multierror.Append(result, fmt.Errorf("log_level must be one of [debug, info, warn, error], got %q", c.Level))
	}
	if c.Format != "json" && c.Format != "text" {
		result = multierror.Append(result, fmt.Errorf("log_format must be either 'json' or 'text', got %q", c.Format))
	}
	return result
}

// OneOf reports whether value equals any of the allowed values.
func OneOf(value string, allowed ...string) bool {
	for _, a := range allowed {
		if value == a {
			return true
		}
	}
	return false
}
