// Package agent implements the human side of a dialogue: it reads operator
// turns from the terminal, gates them for offensive content and shows the
// partner's replies.
package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/lewisedginton/safe_local_human/internal/message"
	"github.com/lewisedginton/safe_local_human/internal/safety"
	"github.com/lewisedginton/safe_local_human/internal/terminal"
	"github.com/lewisedginton/safe_local_human/internal/translate"
	"github.com/lewisedginton/safe_local_human/pkg/logger"
	"github.com/lewisedginton/safe_local_human/pkg/metrics"
)

const (
	// DoneToken ends the current episode.
	DoneToken = "[DONE]"
	// ExitToken ends the episode and the session.
	ExitToken = "[EXIT]"

	// DefaultID identifies a safety gated human.
	DefaultID = "safeLocalHuman"
	// UngatedID identifies a human without safety gating.
	UngatedID = "localHuman"

	// OffensiveUserReply is shown when operator input is rejected.
	OffensiveUserReply = "[ Sorry, could not process that message. Please try again. ]"
	// OffensiveBotReply replaces a rejected partner reply.
	OffensiveBotReply = "[ Unsafe model reply detected. Clearing agent history. ]"
)

// Options configures an Agent. Input and Console are required.
type Options struct {
	ID         string
	SingleTurn bool
	// LabelCandidates is attached to every produced message and never modified.
	LabelCandidates []string

	Input   terminal.LineReader
	Console *terminal.Console

	// Checker gates both directions. Nil disables gating.
	Checker safety.Checker
	// Inbound translates operator text before it is sent. Nil disables it.
	Inbound translate.Translator
	// Outbound translates partner text before it is shown. Nil disables it.
	Outbound translate.Translator

	Logger  logger.Logger
	Metrics *metrics.Metrics
}

// Agent is a terminal backed dialogue participant.
type Agent struct {
	id         string
	singleTurn bool
	cands      []string

	input    terminal.LineReader
	console  *terminal.Console
	checker  safety.Checker
	inbound  translate.Translator
	outbound translate.Translator

	log     logger.Logger
	metrics *metrics.Metrics

	finished      bool
	selfOffensive bool
}

// New builds an Agent.
func New(opts Options) (*Agent, error) {
	if opts.Input == nil {
		return nil, errors.New("agent input is required")
	}
	if opts.Console == nil {
		return nil, errors.New("agent console is required")
	}

	id := opts.ID
	if id == "" {
		id = DefaultID
		if opts.Checker == nil {
			id = UngatedID
		}
	}
	log := opts.Logger
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Agent{
		id:         id,
		singleTurn: opts.SingleTurn,
		cands:      opts.LabelCandidates,
		input:      opts.Input,
		console:    opts.Console,
		checker:    opts.Checker,
		inbound:    opts.Inbound,
		outbound:   opts.Outbound,
		log:        log.WithFields(logger.AgentIDField(id)),
		metrics:    opts.Metrics,
	}, nil
}

// ID returns the agent identity used on produced messages.
func (a *Agent) ID() string { return a.id }

// Finished reports whether the session is over.
func (a *Agent) Finished() bool { return a.finished }

// SelfOffensive reports whether the last operator input was rejected and a
// replacement is still pending.
func (a *Agent) SelfOffensive() bool { return a.selfOffensive }

// Reset clears per-episode state. A finished agent stays finished.
func (a *Agent) Reset() {
	a.selfOffensive = false
}

// Act reads operator input until it yields a message or ends the episode.
// Offensive input is rejected with a notice and read again.
func (a *Agent) Act(ctx context.Context) (Turn, error) {
	for {
		a.console.Prompt()
		line, err := a.input.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				a.log.Debug("Operator input closed")
				return a.end(EndInputClosed), nil
			}
			return Turn{}, fmt.Errorf("read operator input: %w", err)
		}
		text := normalize(line)

		// control tokens always get through, even while input is being rejected
		if reason, ok := controlReason(text); ok {
			return a.end(reason), nil
		}

		if a.checker != nil {
			offensive, err := a.checker.IsOffensive(ctx, text)
			if err != nil {
				return Turn{}, fmt.Errorf("check operator input: %w", err)
			}
			if offensive {
				a.selfOffensive = true
				a.metrics.OperatorRejected()
				a.log.Info("Operator input rejected")
				a.console.Notice(OffensiveUserReply)
				continue
			}
			a.selfOffensive = false
		}

		if a.inbound != nil {
			translated, err := a.inbound.Translate(ctx, text)
			if err != nil {
				return Turn{}, fmt.Errorf("translate operator input: %w", err)
			}
			text = translated
			if reason, ok := controlReason(text); ok {
				return a.end(reason), nil
			}
		}

		msg := message.New()
		msg.ForceSet(message.FieldID, a.id)
		msg.ForceSet(message.FieldText, text)
		msg.ForceSet(message.FieldEpisodeDone, a.singleTurn)
		if a.cands != nil {
			msg.ForceSet(message.FieldLabelCandidates, a.cands)
		}
		a.metrics.TurnProduced()
		return messageTurn(msg), nil
	}
}

// Observe shows a partner message unless it is offensive, marking its
// bot_offensive field either way. Messages arriving while operator input is
// pending a retry are dropped unseen.
func (a *Agent) Observe(ctx context.Context, msg *message.Message) error {
	if a.selfOffensive {
		a.log.Debug("Dropping partner message while operator input is rejected")
		return nil
	}

	text := msg.Text()
	if a.checker != nil {
		offensive, err := a.checker.IsOffensive(ctx, text)
		if err != nil {
			return fmt.Errorf("check partner message: %w", err)
		}
		if offensive {
			msg.ForceSet(message.FieldBotOffensive, true)
			a.metrics.PartnerRejected()
			a.log.Info("Partner message rejected", logger.StringField("partner_id", msg.ID()))
			a.console.Notice(OffensiveBotReply)
			return nil
		}
	}
	msg.ForceSet(message.FieldBotOffensive, false)

	shown := msg
	if a.outbound != nil && msg.Has(message.FieldText) {
		translated, err := a.outbound.Translate(ctx, text)
		if err != nil {
			return fmt.Errorf("translate partner message: %w", err)
		}
		shown = msg.Copy()
		shown.ForceSet(message.FieldText, translated)
	}
	a.console.Display(shown)
	return nil
}

func (a *Agent) end(reason EndReason) Turn {
	a.selfOffensive = false
	if reason != EndDone {
		a.finished = true
	}
	a.log.Debug("Episode ended by operator", logger.StringField("reason", string(reason)))
	return endTurn(reason)
}

func normalize(line string) string {
	return strings.ReplaceAll(line, `\n`, "\n")
}

func controlReason(text string) (EndReason, bool) {
	switch {
	case strings.Contains(text, DoneToken):
		return EndDone, true
	case strings.Contains(text, ExitToken):
		return EndExit, true
	}
	return "", false
}
