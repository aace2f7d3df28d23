package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/lewisedginton/safe_local_human/internal/safety"
	"github.com/lewisedginton/safe_local_human/pkg/logger"
)

// ErrOffensive is returned by safety check when the text is flagged, so the
// command exits non-zero.
var ErrOffensive = errors.New("text is offensive")

// SafetyCommand returns a command for running the offensiveness checker offline
func SafetyCommand() *cli.Command {
	return &cli.Command{
		Name:  "safety",
		Usage: "Safety checker operations",
		Subcommands: []*cli.Command{
			{
				Name:      "check",
				Usage:     "Check whether text would be rejected",
				ArgsUsage: "<text>",
				Flags:     safetyFlags(),
				Action:    safetyCheckAction,
			},
		},
	}
}

func safetyCheckAction(ctx *cli.Context) error {
	log := getLogger(ctx)

	text := strings.Join(ctx.Args().Slice(), " ")
	if text == "" {
		return fmt.Errorf("text to check is required")
	}

	cfg, err := loadConfig(ctx)
	if err != nil {
		log.Error("Failed to load configuration", logger.ErrorField(err))
		return err
	}

	checker, err := buildChecker(cfg, log, nil)
	if err != nil {
		log.Error("Failed to create safety checker", logger.ErrorField(err))
		return err
	}
	if checker == nil {
		fmt.Fprintln(ctx.App.Writer, "safety disabled: text passes")
		return nil
	}

	offensive, err := checker.IsOffensive(ctx.Context, text)
	if err != nil {
		log.Error("Safety check failed", logger.ErrorField(err))
		return fmt.Errorf("safety check failed: %w", err)
	}
	if offensive {
		fmt.Fprintf(ctx.App.Writer, "offensive (policy %s)\n", cfg.Safety.Policy)
		return ErrOffensive
	}
	fmt.Fprintf(ctx.App.Writer, "ok (policy %s)\n", cfg.Safety.Policy)
	return nil
}
