// Package translate converts dialogue text between the operator's language
// and the dialogue partner's language.
package translate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lewisedginton/safe_local_human/pkg/metrics"
)

// Translator maps text from one language to another.
type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
}

// Backend names a translation provider.
type Backend string

const (
	BackendNone        Backend = "none"
	BackendHuggingFace Backend = "huggingface"
	BackendOpenAI      Backend = "openai"
	BackendAnthropic   Backend = "anthropic"
)

// Default model identifiers for the two directions.
const (
	DefaultForeignToEnglishModel = "Helsinki-NLP/opus-mt-zh-en"
	DefaultEnglishToForeignModel = "Helsinki-NLP/opus-mt-en-zh"
)

// ParseBackend validates a configured backend name.
func ParseBackend(s string) (Backend, error) {
	b := Backend(strings.ToLower(strings.TrimSpace(s)))
	switch b {
	case BackendNone, BackendHuggingFace, BackendOpenAI, BackendAnthropic:
		return b, nil
	case "":
		return BackendNone, nil
	}
	return "", fmt.Errorf("unknown translation backend %q (want one of none, huggingface, openai, anthropic)", s)
}

// Func adapts a plain function to Translator.
type Func func(ctx context.Context, text string) (string, error)

// Translate implements Translator.
func (f Func) Translate(ctx context.Context, text string) (string, error) {
	return f(ctx, text)
}

// Lazy builds its translator on first use and keeps it for the life of the
// owning value. A failed build is reported and attempted again next time.
// Lazy is not safe for concurrent use.
type Lazy struct {
	build func() (Translator, error)
	inner Translator
}

// NewLazy wraps a factory.
func NewLazy(build func() (Translator, error)) *Lazy {
	return &Lazy{build: build}
}

// Built reports whether the translator has been constructed.
func (l *Lazy) Built() bool {
	return l.inner != nil
}

// Translate implements Translator.
func (l *Lazy) Translate(ctx context.Context, text string) (string, error) {
	if l.inner == nil {
		t, err := l.build()
		if err != nil {
			return "", fmt.Errorf("build translator: %w", err)
		}
		l.inner = t
	}
	return l.inner.Translate(ctx, text)
}

// Timed records the latency of every call under a direction label.
type Timed struct {
	Translator
	Direction string
	Metrics   *metrics.Metrics
}

// Translate implements Translator.
func (t Timed) Translate(ctx context.Context, text string) (string, error) {
	start := time.Now()
	out, err := t.Translator.Translate(ctx, text)
	t.Metrics.ObserveTranslation(t.Direction, time.Since(start))
	return out, err
}

// Languages names the two sides of a direction for prompt-driven backends.
type Languages struct {
	Source string
	Target string
}

func (l Languages) systemPrompt() string {
	return fmt.Sprintf("You are a translation engine. Translate the user's message from %s to %s. "+
		"Reply with the translation only, keep line breaks, and copy bracketed tokens such as [DONE] unchanged.",
		l.Source, l.Target)
}
