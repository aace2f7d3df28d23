package agent

import "github.com/lewisedginton/safe_local_human/internal/message"

// EndReason says why an episode ended.
type EndReason string

const (
	// EndDone is the [DONE] token: the episode ends, the session continues.
	EndDone EndReason = "done"
	// EndExit is the [EXIT] token: the episode and the session end.
	EndExit EndReason = "exit"
	// EndInputClosed means operator input is exhausted.
	EndInputClosed EndReason = "input_closed"
)

// EpisodeEnd signals that the current episode is over.
type EpisodeEnd struct {
	// Terminal is true when the whole session is over too.
	Terminal bool
	Reason   EndReason
}

// EpisodeDone is always true for an episode end.
func (EpisodeEnd) EpisodeDone() bool { return true }

// Turn is the result of Act: exactly one of Message or End is set.
type Turn struct {
	Message *message.Message
	End     *EpisodeEnd
}

// IsEnd reports whether the turn ended the episode instead of producing a message.
func (t Turn) IsEnd() bool {
	return t.End != nil
}

func messageTurn(m *message.Message) Turn {
	return Turn{Message: m}
}

func endTurn(reason EndReason) Turn {
	return Turn{End: &EpisodeEnd{Terminal: reason != EndDone, Reason: reason}}
}
