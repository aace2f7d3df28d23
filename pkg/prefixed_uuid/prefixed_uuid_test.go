package prefixed_uuid

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleUUID = "123e4567-e89b-12d3-a456-426614174000"

func TestNew(t *testing.T) {
	a := New("episode")
	b := New("episode")

	assert.Equal(t, "episode", a.Prefix)
	assert.NotEqual(t, uuid.Nil, a.UUID)
	assert.NotEqual(t, a.String(), b.String())
	assert.False(t, a.IsZero())
	assert.True(t, PrefixedUUID{}.IsZero())
}

func TestParse(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantPrefix string
		wantErr    bool
	}{
		{"valid", "episode-" + sampleUUID, "episode", false},
		{"upper case uuid", "episode-123E4567-E89B-12D3-A456-426614174000", "episode", false},
		{"no separator", "episode", "", true},
		{"empty prefix", "-" + sampleUUID, "", true},
		{"bad uuid", "episode-not-a-uuid", "", true},
		{"path traversal", "episode-../../etc/passwd", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantPrefix, got.Prefix)
			assert.Equal(t, uuid.MustParse(sampleUUID), got.UUID)
		})
	}
}

func TestParseWithPrefix(t *testing.T) {
	_, err := ParseWithPrefix("episode", "episode-"+sampleUUID)
	assert.NoError(t, err)

	_, err = ParseWithPrefix("episode", "session-"+sampleUUID)
	assert.ErrorContains(t, err, "expected episode id")
}

func TestStringRoundTrip(t *testing.T) {
	p := New("episode")
	parsed, err := Parse(p.String())
	require.NoError(t, err)
	assert.Equal(t, p, parsed)
}

func TestJSON(t *testing.T) {
	type record struct {
		ID PrefixedUUID `json:"id"`
	}

	data, err := json.Marshal(record{ID: PrefixedUUID{Prefix: "episode", UUID: uuid.MustParse(sampleUUID)}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"episode-`+sampleUUID+`"}`, string(data))

	var r record
	require.NoError(t, json.Unmarshal(data, &r))
	assert.Equal(t, "episode", r.ID.Prefix)

	assert.Error(t, json.Unmarshal([]byte(`{"id":"nonsense"}`), &r))
}
