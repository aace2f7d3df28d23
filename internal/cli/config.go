package cli

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/lewisedginton/safe_local_human/pkg/logger"
)

// ConfigCommand returns a command for configuration operations
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration operations",
		Subcommands: []*cli.Command{
			{
				Name:   "validate",
				Usage:  "Validate configuration",
				Flags:  chatFlags(),
				Action: configValidateAction,
			},
		},
	}
}

func configValidateAction(ctx *cli.Context) error {
	log := getLogger(ctx)

	log.Info("Validating configuration")

	cfg, err := loadConfig(ctx)
	if err != nil {
		log.Error("Configuration validation failed", logger.ErrorField(err))
		return err
	}

	log.Info("Configuration validation passed",
		logger.StringField("safety", cfg.Safety.Policy),
		logger.StringField("partner", cfg.Partner.Kind),
		logger.StringField("transcript_backend", cfg.Transcript.Backend))
	fmt.Fprintln(ctx.App.Writer, "✅ Configuration is valid")
	return nil
}
