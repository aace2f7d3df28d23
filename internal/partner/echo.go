package partner

import (
	"context"

	"github.com/lewisedginton/safe_local_human/internal/message"
)

// Echo repeats the human's last message. It needs no network access.
type Echo struct {
	id      string
	history history
}

// NewEcho creates an echo partner.
func NewEcho() *Echo {
	return &Echo{id: "echo"}
}

func (e *Echo) ID() string { return e.id }

func (e *Echo) Observe(_ context.Context, msg *message.Message) error {
	return e.history.observe(msg)
}

func (e *Echo) Act(_ context.Context) (*message.Message, error) {
	if err := e.history.checkPending(); err != nil {
		return nil, err
	}
	text, _ := e.history.lastHuman()
	return e.history.reply(e.id, text), nil
}

func (e *Echo) Reset() { e.history.reset() }
