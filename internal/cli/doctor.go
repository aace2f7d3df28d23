package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/lewisedginton/safe_local_human/internal/transcript"
	"github.com/lewisedginton/safe_local_human/pkg/health"
	"github.com/lewisedginton/safe_local_human/pkg/logger"
)

// DoctorCommand returns a command that checks every configured dependency
func DoctorCommand() *cli.Command {
	return &cli.Command{
		Name:   "doctor",
		Usage:  "Check the files, provider APIs and transcript storage the configuration uses",
		Flags:  chatFlags(),
		Action: doctorAction,
	}
}

func doctorAction(ctx *cli.Context) error {
	log := getLogger(ctx)

	cfg, err := loadConfig(ctx)
	if err != nil {
		log.Error("Failed to load configuration", logger.ErrorField(err))
		return err
	}

	h := health.New(health.WithLogger(log))

	topts, err := transcriptOptions(cfg)
	if err != nil {
		return err
	}

	var sink transcript.Sink
	switch topts.Backend {
	case transcript.BackendS3, transcript.BackendPostgres:
		// never migrate from a diagnostic command
		topts.Migrate = false
		sink, err = transcript.Open(ctx.Context, topts, log)
		if err != nil {
			openErr := err
			h.Add(health.NewCheckFunc("transcript_"+cfg.Transcript.Backend, func(context.Context) error {
				return openErr
			}))
			sink = nil
		} else {
			defer func() { _ = sink.Close() }()
		}
	}
	h.Add(dependencyChecks(cfg, sink)...)

	report, runErr := h.Run(ctx.Context)
	for _, c := range report.Checks {
		if c.Healthy {
			fmt.Fprintf(ctx.App.Writer, "✅ %s (%s)\n", c.Name, c.Latency.Round(time.Millisecond))
			continue
		}
		fmt.Fprintf(ctx.App.Writer, "❌ %s: %s\n", c.Name, c.Error)
	}
	if len(report.Checks) == 0 {
		fmt.Fprintln(ctx.App.Writer, "nothing to check")
	}
	return runErr
}
