package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	commands "github.com/lewisedginton/safe_local_human/internal/cli"
	"github.com/lewisedginton/safe_local_human/pkg/logger"
)

func main() {
	app := &cli.App{
		Name:    "local-human",
		Usage:   "Chat with a dialogue model from the terminal behind a safety filter",
		Version: "1.0.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "warn",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "config-file",
				Value:   "",
				Usage:   "Path to configuration file",
				EnvVars: []string{"CONFIG_FILE"},
			},
		},
		Before: func(ctx *cli.Context) error {
			// Initialize global logger from flags
			log := logger.NewLogger(logger.Config{
				Level:   logger.ParseLevel(ctx.String("log-level")),
				Format:  "text",
				Service: commands.ServiceName,
			})

			// Store logger in context for commands to use
			ctx.App.Metadata = map[string]interface{}{
				"logger": log,
			}

			return nil
		},
		Commands: []*cli.Command{
			commands.ChatCommand(),
			commands.ConfigCommand(),
			commands.SafetyCommand(),
			commands.DoctorCommand(),
		},
	}

	if err := app.RunContext(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
