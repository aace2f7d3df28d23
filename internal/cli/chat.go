package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/lewisedginton/safe_local_human/internal/agent"
	"github.com/lewisedginton/safe_local_human/internal/terminal"
	"github.com/lewisedginton/safe_local_human/internal/transcript"
	"github.com/lewisedginton/safe_local_human/internal/world"
	"github.com/lewisedginton/safe_local_human/pkg/logger"
	"github.com/lewisedginton/safe_local_human/pkg/metrics"
)

// shutdownGrace bounds how long a signalled session may take to stop.
const shutdownGrace = 5 * time.Second

// ChatCommand returns the interactive dialogue command
func ChatCommand() *cli.Command {
	return &cli.Command{
		Name:    "chat",
		Aliases: []string{"c"},
		Usage:   "Talk to the dialogue partner from this terminal",
		Flags:   chatFlags(),
		Action:  chatAction,
	}
}

func chatAction(ctx *cli.Context) error {
	bootLog := getLogger(ctx)

	cfg, err := loadConfig(ctx)
	if err != nil {
		bootLog.Error("Failed to load configuration", logger.ErrorField(err))
		return err
	}

	log, logFile, err := commandLogger(ctx, cfg)
	if err != nil {
		bootLog.Error("Failed to set up logging", logger.ErrorField(err))
		return err
	}
	defer func() { _ = logFile.Close() }()

	log.Info("Starting dialogue session",
		logger.StringField("safety", cfg.Safety.Policy),
		logger.StringField("partner", cfg.Partner.Kind),
		logger.StringField("inbound_backend", cfg.Translation.InboundBackend),
		logger.StringField("outbound_backend", cfg.Translation.OutboundBackend),
		logger.StringField("transcript_backend", cfg.Transcript.Backend),
		logger.BoolField("single_turn", cfg.Agent.SingleTurn))

	sessionCtx, cancel := context.WithCancel(ctx.Context)
	defer cancel()
	setupGracefulShutdown(cancel, shutdownGrace, log)

	m := metrics.NewMetrics(log)

	checker, err := buildChecker(cfg, log, m)
	if err != nil {
		log.Error("Failed to create safety checker", logger.ErrorField(err))
		return err
	}

	inbound, outbound, err := buildTranslators(cfg, m)
	if err != nil {
		log.Error("Failed to create translators", logger.ErrorField(err))
		return err
	}

	cands, err := agent.LoadCandidates(cfg.Agent.CandidatesFile)
	if err != nil {
		log.Error("Failed to load label candidates", logger.ErrorField(err))
		return err
	}
	if cands != nil {
		log.Info("Loaded label candidates", logger.IntField("count", len(cands)))
	}

	p, err := buildPartner(cfg)
	if err != nil {
		log.Error("Failed to create dialogue partner", logger.ErrorField(err))
		return err
	}

	topts, err := transcriptOptions(cfg)
	if err != nil {
		return err
	}
	sink, err := transcript.Open(sessionCtx, topts, log)
	if err != nil {
		log.Error("Failed to open transcript sink", logger.ErrorField(err))
		return fmt.Errorf("failed to open transcript sink: %w", err)
	}

	if cfg.Metrics.Enabled {
		m.SetReadiness(newHealthChecker(cfg, sink, log).ReadinessHandler())
		m.Listen(cfg.Metrics.Port)
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownGrace)
			defer shutdownCancel()
			if err := m.Shutdown(shutdownCtx); err != nil {
				log.Error("Metrics listener shutdown error", logger.ErrorField(err))
			}
		}()
	}

	console := newConsole(cfg)
	human, err := agent.New(agent.Options{
		ID:              cfg.Agent.ID,
		SingleTurn:      cfg.Agent.SingleTurn,
		LabelCandidates: cands,
		Input:           terminal.NewLineReader(os.Stdin),
		Console:         console,
		Checker:         checker,
		Inbound:         inbound,
		Outbound:        outbound,
		Logger:          log,
		Metrics:         m,
	})
	if err != nil {
		_ = sink.Close()
		return err
	}

	w, err := world.New(world.Options{
		Human:   human,
		Partner: p,
		Console: console,
		Sink:    sink,
		Logger:  log,
		Metrics: m,
	})
	if err != nil {
		_ = sink.Close()
		return err
	}

	if err := w.Run(sessionCtx); err != nil {
		log.Error("Dialogue session failed", logger.ErrorField(err))
		return err
	}

	log.Info("Dialogue session finished", logger.IntField("episodes", w.Episodes()))
	return nil
}
