package partner

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	openaioption "github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lewisedginton/safe_local_human/internal/message"
)

func humanMessage(text string, cands ...string) *message.Message {
	msg := message.New()
	msg.ForceSet(message.FieldID, "safeLocalHuman")
	msg.ForceSet(message.FieldText, text)
	msg.ForceSet(message.FieldEpisodeDone, false)
	if len(cands) > 0 {
		msg.ForceSet(message.FieldLabelCandidates, cands)
	}
	return msg
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{"echo", KindEcho, false},
		{"", KindEcho, false},
		{" OpenAI ", KindOpenAI, false},
		{"anthropic", KindAnthropic, false},
		{"blender", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseKind(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEcho(t *testing.T) {
	p := NewEcho()
	assert.Equal(t, "echo", p.ID())

	_, err := p.Act(t.Context())
	assert.Error(t, err, "nothing observed yet")

	require.NoError(t, p.Observe(t.Context(), humanMessage("hello")))
	reply, err := p.Act(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "echo", reply.ID())
	assert.Equal(t, "hello", reply.Text())
	assert.False(t, reply.EpisodeDone())

	_, err = p.Act(t.Context())
	assert.Error(t, err, "already replied")

	p.Reset()
	assert.Empty(t, p.history.entries)
}

func TestObserveRequiresText(t *testing.T) {
	p := NewEcho()
	msg := message.New()
	msg.ForceSet(message.FieldID, "safeLocalHuman")

	err := p.Observe(t.Context(), msg)
	assert.ErrorIs(t, err, message.ErrMissingField)
}

func TestHistorySystemPrompt(t *testing.T) {
	var h history
	assert.Equal(t, "base", h.systemPrompt("base"))

	require.NoError(t, h.observe(humanMessage("pick one", "yes", "no")))
	prompt := h.systemPrompt("base")
	assert.Contains(t, prompt, "base\n\n")
	assert.Contains(t, prompt, "- yes\n- no")
}

func TestOpenAIPartner(t *testing.T) {
	var requests []map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		requests = append(requests, body)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","created":0,"model":"gpt-4o-mini",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":" Hi! "}}]}`))
	}))
	defer srv.Close()

	p, err := NewOpenAI("key", "gpt-4o-mini", "", 0, openaioption.WithBaseURL(srv.URL), openaioption.WithMaxRetries(0))
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", p.ID())

	require.NoError(t, p.Observe(t.Context(), humanMessage("hello")))
	reply, err := p.Act(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "Hi!", reply.Text())
	assert.Equal(t, "gpt-4o-mini", reply.ID())

	require.NoError(t, p.Observe(t.Context(), humanMessage("how are you?")))
	_, err = p.Act(t.Context())
	require.NoError(t, err)

	require.Len(t, requests, 2)
	msgs := requests[1]["messages"].([]any)
	require.Len(t, msgs, 4)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
	assert.Equal(t, "user", msgs[1].(map[string]any)["role"])
	assert.Equal(t, "assistant", msgs[2].(map[string]any)["role"])
	assert.Equal(t, "how are you?", msgs[3].(map[string]any)["content"])

	p.Reset()
	require.NoError(t, p.Observe(t.Context(), humanMessage("again")))
	_, err = p.Act(t.Context())
	require.NoError(t, err)
	assert.Len(t, requests[2]["messages"].([]any), 2)

	_, err = NewOpenAI("", "gpt-4o-mini", "", 0)
	assert.Error(t, err)
}

func TestAnthropicPartner(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg_1","type":"message","role":"assistant","model":"claude-sonnet-4-5",
			"content":[{"type":"text","text":"yes"}],"stop_reason":"end_turn",
			"usage":{"input_tokens":3,"output_tokens":1}}`))
	}))
	defer srv.Close()

	p, err := NewAnthropic("key", "claude-sonnet-4-5", "Be terse.", 64,
		anthropicoption.WithBaseURL(srv.URL), anthropicoption.WithMaxRetries(0))
	require.NoError(t, err)

	require.NoError(t, p.Observe(t.Context(), humanMessage("pick one", "yes", "no")))
	reply, err := p.Act(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "yes", reply.Text())

	assert.Equal(t, "claude-sonnet-4-5", body["model"])
	assert.EqualValues(t, 64, body["max_tokens"])
	system := body["system"].([]any)
	require.Len(t, system, 1)
	assert.Contains(t, system[0].(map[string]any)["text"], "Be terse.")
	assert.Contains(t, system[0].(map[string]any)["text"], "- no")
	assert.Len(t, body["messages"].([]any), 1)

	_, err = NewAnthropic("", "", "", 0)
	assert.Error(t, err)
}
