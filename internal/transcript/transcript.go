// Package transcript records dialogue episodes and saves them to a sink.
package transcript

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lewisedginton/safe_local_human/internal/message"
	"github.com/lewisedginton/safe_local_human/pkg/prefixed_uuid"
)

// EpisodeIDPrefix prefixes every episode id.
const EpisodeIDPrefix = "episode"

// Turn is one utterance within an episode.
type Turn struct {
	Speaker     string `json:"speaker"`
	Text        string `json:"text"`
	EpisodeDone bool   `json:"episode_done"`
	// BotOffensive is only set on partner turns that went through the safety check.
	BotOffensive *bool     `json:"bot_offensive,omitempty"`
	At           time.Time `json:"at"`
}

// Episode is the record of one bounded conversation.
type Episode struct {
	ID        string    `json:"id"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`
	EndReason string    `json:"end_reason"`
	Turns     []Turn    `json:"turns"`
}

// NewEpisode starts an episode with a fresh id.
func NewEpisode(now time.Time) *Episode {
	return &Episode{
		ID:        prefixed_uuid.New(EpisodeIDPrefix).String(),
		StartedAt: now.UTC(),
	}
}

// Record appends a message as a turn.
func (e *Episode) Record(msg *message.Message, now time.Time) {
	t := Turn{
		Speaker:     msg.ID(),
		Text:        msg.Text(),
		EpisodeDone: msg.EpisodeDone(),
		At:          now.UTC(),
	}
	if offensive, ok := msg.BotOffensive(); ok {
		t.BotOffensive = &offensive
	}
	e.Turns = append(e.Turns, t)
}

// Close stamps the end time and reason.
func (e *Episode) Close(reason string, now time.Time) {
	e.EndReason = reason
	e.EndedAt = now.UTC()
}

// Sink persists finished episodes.
type Sink interface {
	Save(ctx context.Context, ep *Episode) error
	Close() error
}

// Backend selects a sink.
type Backend string

const (
	BackendNone     Backend = "none"
	BackendFile     Backend = "file"
	BackendS3       Backend = "s3"
	BackendPostgres Backend = "postgres"
)

// ParseBackend validates a configured backend name. Empty means none.
func ParseBackend(s string) (Backend, error) {
	switch b := Backend(strings.ToLower(strings.TrimSpace(s))); b {
	case BackendNone, BackendFile, BackendS3, BackendPostgres:
		return b, nil
	case "":
		return BackendNone, nil
	}
	return "", fmt.Errorf("unknown transcript backend %q (want one of none, file, s3, postgres)", s)
}

// Pinger is implemented by sinks that can check their backend.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Ping checks the sink backend. Sinks without a check report healthy.
func Ping(ctx context.Context, s Sink) error {
	if p, ok := s.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Discard drops every episode.
type Discard struct{}

func (Discard) Save(context.Context, *Episode) error { return nil }
func (Discard) Close() error                         { return nil }
