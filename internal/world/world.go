// Package world runs the dialogue loop between the human agent and a partner.
package world

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lewisedginton/safe_local_human/internal/agent"
	"github.com/lewisedginton/safe_local_human/internal/message"
	"github.com/lewisedginton/safe_local_human/internal/partner"
	"github.com/lewisedginton/safe_local_human/internal/terminal"
	"github.com/lewisedginton/safe_local_human/internal/transcript"
	"github.com/lewisedginton/safe_local_human/pkg/logger"
	"github.com/lewisedginton/safe_local_human/pkg/metrics"
)

// endSingleTurn closes an episode after the reply to a single-turn message.
const endSingleTurn = "single_turn"

// Human is the operator side of the dialogue.
type Human interface {
	Act(ctx context.Context) (agent.Turn, error)
	Observe(ctx context.Context, msg *message.Message) error
	Finished() bool
	Reset()
}

// Options configures a World. Human, Partner and Console are required.
type Options struct {
	Human   Human
	Partner partner.Partner
	Console *terminal.Console
	Sink    transcript.Sink
	Logger  logger.Logger
	Metrics *metrics.Metrics
	// Now defaults to time.Now.
	Now func() time.Time
}

// World alternates turns between the human and the partner and keeps the
// transcript of the current episode.
type World struct {
	human   Human
	partner partner.Partner
	console *terminal.Console
	sink    transcript.Sink
	log     logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	episode  *transcript.Episode
	episodes int
	done     bool
}

// New builds a World.
func New(opts Options) (*World, error) {
	if opts.Human == nil || opts.Partner == nil || opts.Console == nil {
		return nil, errors.New("world needs a human, a partner and a console")
	}
	if opts.Sink == nil {
		opts.Sink = transcript.Discard{}
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNopLogger()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	w := &World{
		human:   opts.Human,
		partner: opts.Partner,
		console: opts.Console,
		sink:    opts.Sink,
		log:     opts.Logger,
		metrics: opts.Metrics,
		now:     opts.Now,
	}
	w.startEpisode()
	return w, nil
}

// Episodes returns how many episodes have been closed.
func (w *World) Episodes() int { return w.episodes }

// Done reports whether the session is over.
func (w *World) Done() bool { return w.done || w.human.Finished() }

// Parley runs one exchange: a human turn, then the partner's reply.
func (w *World) Parley(ctx context.Context) error {
	turn, err := w.human.Act(ctx)
	if err != nil {
		return fmt.Errorf("human turn: %w", err)
	}
	if turn.IsEnd() {
		if turn.End.Terminal {
			w.done = true
		}
		return w.endEpisode(ctx, string(turn.End.Reason))
	}

	msg := turn.Message
	w.episode.Record(msg, w.now())
	if err := w.partner.Observe(ctx, msg); err != nil {
		return fmt.Errorf("partner observe: %w", err)
	}

	reply, err := w.partner.Act(ctx)
	if err != nil {
		return fmt.Errorf("partner turn: %w", err)
	}
	if err := w.human.Observe(ctx, reply); err != nil {
		return fmt.Errorf("human observe: %w", err)
	}
	w.episode.Record(reply, w.now())

	if offensive, _ := reply.BotOffensive(); offensive {
		w.log.Info("Clearing partner history after unsafe reply")
		w.partner.Reset()
	}

	if msg.EpisodeDone() {
		return w.endEpisode(ctx, endSingleTurn)
	}
	return nil
}

// Run shows the banner and parleys until the session is over or ctx is
// cancelled, then closes the transcript sink.
func (w *World) Run(ctx context.Context) (err error) {
	defer func() {
		if cerr := w.sink.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close transcript sink: %w", cerr)
		}
	}()

	w.console.Banner()
	for !w.Done() {
		if err := ctx.Err(); err != nil {
			w.log.Info("Dialogue interrupted", logger.ErrorField(err))
			return nil
		}
		if err := w.Parley(ctx); err != nil {
			return err
		}
	}
	w.log.Info("Dialogue finished", logger.IntField("episodes", w.episodes))
	return nil
}

func (w *World) startEpisode() {
	w.episode = transcript.NewEpisode(w.now())
	w.log.Debug("Episode started", logger.EpisodeIDField(w.episode.ID))
}

func (w *World) endEpisode(ctx context.Context, reason string) error {
	ep := w.episode
	ep.Close(reason, w.now())

	w.episodes++
	w.metrics.EpisodeEnded(reason)
	w.human.Reset()
	w.partner.Reset()
	w.log.Info("Episode ended",
		logger.EpisodeIDField(ep.ID),
		logger.StringField("reason", reason),
		logger.IntField("turns", len(ep.Turns)))

	// episodes without turns are not saved
	if len(ep.Turns) > 0 {
		if err := w.sink.Save(ctx, ep); err != nil {
			return fmt.Errorf("save episode %s: %w", ep.ID, err)
		}
	}

	w.startEpisode()
	return nil
}
