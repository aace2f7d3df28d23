// Package prefixed_uuid builds and parses identifiers of the form "<prefix>-<uuid>".
package prefixed_uuid

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// PrefixedUUID is a random UUID tagged with the kind of thing it identifies.
type PrefixedUUID struct {
	Prefix string
	UUID   uuid.UUID
}

// New creates a PrefixedUUID with a fresh random UUID.
func New(prefix string) PrefixedUUID {
	return PrefixedUUID{Prefix: prefix, UUID: uuid.New()}
}

// Parse splits s at the first "-" into prefix and UUID. The prefix must be
// non-empty.
func Parse(s string) (PrefixedUUID, error) {
	prefix, raw, ok := strings.Cut(s, "-")
	if !ok || prefix == "" {
		return PrefixedUUID{}, fmt.Errorf("invalid prefixed UUID format: %q", s)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return PrefixedUUID{}, fmt.Errorf("invalid UUID in %q: %w", s, err)
	}
	return PrefixedUUID{Prefix: prefix, UUID: id}, nil
}

// ParseWithPrefix parses s and checks that it carries the expected prefix.
func ParseWithPrefix(prefix, s string) (PrefixedUUID, error) {
	p, err := Parse(s)
	if err != nil {
		return PrefixedUUID{}, err
	}
	if p.Prefix != prefix {
		return PrefixedUUID{}, fmt.Errorf("expected %s id, got %q", prefix, s)
	}
	return p, nil
}

// String returns "prefix-uuid".
func (p PrefixedUUID) String() string {
	return p.Prefix + "-" + p.UUID.String()
}

// IsZero reports whether p is the zero value.
func (p PrefixedUUID) IsZero() bool {
	return p.Prefix == "" && p.UUID == uuid.Nil
}

// MarshalText implements encoding.TextMarshaler, so ids encode as JSON strings.
func (p PrefixedUUID) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *PrefixedUUID) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
