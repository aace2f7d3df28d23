package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	appconfig "github.com/lewisedginton/safe_local_human/internal/config"
	"github.com/lewisedginton/safe_local_human/pkg/logger"
)

// ServiceName is the service field on every log line.
const ServiceName = "safe-local-human"

// getLogger retrieves the logger from the CLI context metadata
func getLogger(ctx *cli.Context) logger.Logger {
	if ctx.App.Metadata != nil {
		if log, ok := ctx.App.Metadata["logger"].(logger.Logger); ok {
			return log
		}
	}

	// Fallback to default logger if not found
	return logger.NewLogger(logger.Config{
		Level:   logger.WarnLevel,
		Format:  "text",
		Service: ServiceName,
	})
}

// loadConfig reads the configuration file named by the global flag, applies
// command flag overrides and validates the result.
func loadConfig(ctx *cli.Context) (*appconfig.AppConfig, error) {
	cfg, err := appconfig.Read(ctx.String("config-file"))
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	applyFlagOverrides(ctx, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// commandLogger builds the logger a command runs with. The global --log-level
// flag wins over the configured level. The returned closer releases the log file.
func commandLogger(ctx *cli.Context, cfg *appconfig.AppConfig) (logger.Logger, io.Closer, error) {
	lc := cfg.LogConfig(ServiceName)
	if ctx.IsSet("log-level") {
		lc.Level = logger.ParseLevel(ctx.String("log-level"))
	}

	var closer io.Closer = nopCloser{}
	if cfg.Logging.File != "" {
		f, err := os.OpenFile(cfg.Logging.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		lc.Output = f
		closer = f
	}
	return logger.NewLogger(lc), closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// setupGracefulShutdown sets up signal handling for graceful shutdown.
// A blocked terminal read cannot observe cancellation, so the process exits
// after grace if the dialogue loop has not stopped by then.
func setupGracefulShutdown(cancel context.CancelFunc, grace time.Duration, log logger.Logger) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Info("Received shutdown signal", logger.StringField("signal", sig.String()))

		cancel()

		time.AfterFunc(grace, func() {
			log.Warn("Force exiting due to timeout")
			os.Exit(1)
		})
	}()
}
