// Package partner provides the dialogue partner the human talks to.
package partner

import (
	"context"
	"fmt"
	"strings"

	"github.com/lewisedginton/safe_local_human/internal/message"
)

// Partner is the other side of the dialogue.
type Partner interface {
	ID() string
	// Observe records a human turn.
	Observe(ctx context.Context, msg *message.Message) error
	// Act produces a reply to the observed history.
	Act(ctx context.Context) (*message.Message, error)
	// Reset forgets the episode history.
	Reset()
}

// Kind selects a partner implementation.
type Kind string

const (
	KindEcho      Kind = "echo"
	KindOpenAI    Kind = "openai"
	KindAnthropic Kind = "anthropic"
)

// ParseKind validates a configured partner name.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindEcho, KindOpenAI, KindAnthropic:
		return k, nil
	case "":
		return KindEcho, nil
	}
	return "", fmt.Errorf("unknown partner %q (want one of echo, openai, anthropic)", s)
}

// DefaultSystemPrompt frames model partners as a conversational agent.
const DefaultSystemPrompt = "You are a friendly conversational partner. Reply briefly and naturally."

type role int

const (
	roleHuman role = iota
	rolePartner
)

type entry struct {
	role role
	text string
}

// history keeps the turns of the current episode plus the most recent
// label candidates offered by the human.
type history struct {
	entries []entry
	cands   []string
	pending bool
}

func (h *history) observe(msg *message.Message) error {
	text, err := msg.RequireText()
	if err != nil {
		return err
	}
	h.entries = append(h.entries, entry{role: roleHuman, text: text})
	h.cands = msg.LabelCandidates()
	h.pending = true
	return nil
}

func (h *history) lastHuman() (string, bool) {
	for i := len(h.entries) - 1; i >= 0; i-- {
		if h.entries[i].role == roleHuman {
			return h.entries[i].text, true
		}
	}
	return "", false
}

func (h *history) reply(id, text string) *message.Message {
	h.entries = append(h.entries, entry{role: rolePartner, text: text})
	h.pending = false

	msg := message.New()
	msg.ForceSet(message.FieldID, id)
	msg.ForceSet(message.FieldText, text)
	msg.ForceSet(message.FieldEpisodeDone, false)
	return msg
}

func (h *history) reset() {
	h.entries = nil
	h.cands = nil
	h.pending = false
}

// systemPrompt appends the candidate replies, when offered, to base.
func (h *history) systemPrompt(base string) string {
	if len(h.cands) == 0 {
		return base
	}
	var sb strings.Builder
	sb.WriteString(base)
	sb.WriteString("\n\nAnswer with exactly one of the following replies, copied verbatim:\n")
	for _, c := range h.cands {
		sb.WriteString("- ")
		sb.WriteString(c)
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (h *history) checkPending() error {
	if !h.pending {
		return fmt.Errorf("partner has nothing to reply to")
	}
	return nil
}
