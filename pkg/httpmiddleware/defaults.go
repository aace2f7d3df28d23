// Package httpmiddleware assembles the chi middleware stack of the status server.
package httpmiddleware

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/unrolled/secure"

	"github.com/lewisedginton/safe_local_human/pkg/logger"
)

// Config holds configuration for HTTP middleware application.
// Use DefaultConfig() for sensible defaults, then customize as needed.
type Config struct {
	Logger   logger.Logger
	CORS     *CORSConfig
	Security *secure.Options
	Timeout  time.Duration

	EnableCorrelationID bool
	EnableLogging       bool
	EnableRecovery      bool
	EnableCORS          bool
	EnableSecurity      bool
	EnableCompression   bool
	EnableTimeout       bool
}

// DefaultConfig returns the status server configuration.
// Logging is disabled by default - set Logger and EnableLogging=true to enable.
func DefaultConfig() Config {
	corsConfig := DefaultCORSConfig()
	return Config{
		CORS:    &corsConfig,
		Timeout: 10 * time.Second,

		EnableCorrelationID: true,
		EnableRecovery:      true,
		EnableCORS:          true,
		EnableSecurity:      true,
		EnableCompression:   true,
		EnableTimeout:       true,
	}
}

// ApplyToRouter applies the configured middleware to a Chi router in execution
// order: correlation id, security headers, logging, recovery, CORS, timeout,
// compression.
func ApplyToRouter(router chi.Router, config Config) {
	if config.EnableCorrelationID {
		router.Use(CorrelationID())
	}
	if config.EnableSecurity {
		router.Use(Security(config.Security))
	}
	if config.EnableLogging && config.Logger != nil {
		router.Use(NewHTTPLogger(config.Logger).Middleware)
	}
	if config.EnableRecovery {
		router.Use(middleware.Recoverer)
	}
	if config.EnableCORS && config.CORS != nil {
		router.Use(CORS(*config.CORS))
	}
	if config.EnableTimeout && config.Timeout > 0 {
		router.Use(middleware.Timeout(config.Timeout))
	}
	if config.EnableCompression {
		router.Use(middleware.Compress(5))
	}
}

// WithLogger applies DefaultConfig with request logging enabled.
func WithLogger(router chi.Router, log logger.Logger) {
	config := DefaultConfig()
	config.Logger = log
	config.EnableLogging = true
	ApplyToRouter(router, config)
}
