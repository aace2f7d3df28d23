// Package message defines the insertion-ordered field mapping exchanged
// between dialogue agents.
package message

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Well-known field names.
const (
	FieldID              = "id"
	FieldText            = "text"
	FieldEpisodeDone     = "episode_done"
	FieldLabelCandidates = "label_candidates"
	FieldBotOffensive    = "bot_offensive"
)

var (
	// ErrFieldExists is returned by Set when the field is already present.
	ErrFieldExists = errors.New("message field already set")
	// ErrMissingField is returned when a required field is absent.
	ErrMissingField = errors.New("message field missing")
)

// Message is an ordered mapping from field name to value.
// The zero value is an empty message ready to use.
type Message struct {
	keys   []string
	values map[string]any
}

// New returns an empty message.
func New() *Message {
	return &Message{values: make(map[string]any)}
}

// Set adds a field. Existing fields are never overwritten; use ForceSet for that.
func (m *Message) Set(key string, value any) error {
	if _, ok := m.values[key]; ok {
		return fmt.Errorf("%w: %q", ErrFieldExists, key)
	}
	m.ForceSet(key, value)
	return nil
}

// ForceSet stores a field, overwriting any previous value in place.
func (m *Message) ForceSet(key string, value any) {
	if m.values == nil {
		m.values = make(map[string]any)
	}
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Get returns the raw value of a field.
func (m *Message) Get(key string) (any, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m.values[key]
	return v, ok
}

// Has reports whether the field is present.
func (m *Message) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Delete removes a field if present.
func (m *Message) Delete(key string) {
	if _, ok := m.values[key]; !ok {
		return
	}
	delete(m.values, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

// Keys returns field names in insertion order.
func (m *Message) Keys() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.keys...)
}

// Len returns the number of fields.
func (m *Message) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Copy returns a shallow copy. Slice values such as label candidates are shared.
func (m *Message) Copy() *Message {
	c := New()
	if m == nil {
		return c
	}
	for _, k := range m.keys {
		c.ForceSet(k, m.values[k])
	}
	return c
}

// ID returns the sender identity, or "" when absent.
func (m *Message) ID() string {
	s, _ := m.stringField(FieldID)
	return s
}

// Text returns the utterance, or "" when absent.
func (m *Message) Text() string {
	s, _ := m.stringField(FieldText)
	return s
}

// RequireText returns the utterance or ErrMissingField.
func (m *Message) RequireText() (string, error) {
	s, ok := m.stringField(FieldText)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrMissingField, FieldText)
	}
	return s, nil
}

// EpisodeDone reports whether the message closes its episode.
func (m *Message) EpisodeDone() bool {
	v, _ := m.Get(FieldEpisodeDone)
	b, _ := v.(bool)
	return b
}

// LabelCandidates returns the candidate list, or nil when absent.
func (m *Message) LabelCandidates() []string {
	v, _ := m.Get(FieldLabelCandidates)
	switch c := v.(type) {
	case []string:
		return c
	case []any:
		out := make([]string, 0, len(c))
		for _, item := range c {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// BotOffensive returns the offensive mark and whether it was set.
func (m *Message) BotOffensive() (offensive, ok bool) {
	v, present := m.Get(FieldBotOffensive)
	if !present {
		return false, false
	}
	b, isBool := v.(bool)
	return b, isBool
}

func (m *Message) stringField(key string) (string, bool) {
	v, ok := m.Get(key)
	if !ok {
		return "", false
	}
	s, isString := v.(string)
	return s, isString
}

// MarshalJSON encodes the message as a JSON object with fields in insertion order.
func (m *Message) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(m.values[k])
		if err != nil {
			return nil, fmt.Errorf("encode field %q: %w", k, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object keeping the order fields appear in.
// label_candidates is decoded as []string.
func (m *Message) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("message must be a JSON object")
	}

	*m = Message{values: make(map[string]any)}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected token %v", tok)
		}
		var value any
		if key == FieldLabelCandidates {
			var cands []string
			if err := dec.Decode(&cands); err != nil {
				return fmt.Errorf("decode %s: %w", key, err)
			}
			value = cands
		} else if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("decode %s: %w", key, err)
		}
		m.ForceSet(key, value)
	}
	_, err = dec.Token()
	return err
}
