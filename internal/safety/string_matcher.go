package safety

import (
	"bufio"
	"context"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"
)

//go:embed words.txt
var defaultPhrases string

// variantSuffixes are appended to the last word of every phrase so that
// simple inflections match too.
var variantSuffixes = []string{"s", "es", "ed", "ing", "er", "ers"}

// StringMatcher flags text containing any phrase from a fixed list.
type StringMatcher struct {
	phrases map[string]struct{}
	maxLen  int
}

// NewStringMatcher builds a matcher from phrases. Blank phrases are ignored.
func NewStringMatcher(phrases []string) *StringMatcher {
	s := &StringMatcher{phrases: make(map[string]struct{})}
	for _, p := range phrases {
		s.add(p)
	}
	return s
}

// LoadStringMatcher reads a phrase file, or the built-in list when path is empty.
func LoadStringMatcher(path string) (*StringMatcher, error) {
	if path == "" {
		phrases, err := ParsePhrases(strings.NewReader(defaultPhrases))
		if err != nil {
			return nil, err
		}
		return NewStringMatcher(phrases), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open phrase list: %w", err)
	}
	defer func() { _ = f.Close() }()

	phrases, err := ParsePhrases(f)
	if err != nil {
		return nil, fmt.Errorf("read phrase list %s: %w", path, err)
	}
	return NewStringMatcher(phrases), nil
}

// ParsePhrases reads one phrase per line, skipping blanks and # comments.
func ParsePhrases(r io.Reader) ([]string, error) {
	var phrases []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		phrases = append(phrases, line)
	}
	return phrases, scanner.Err()
}

func (s *StringMatcher) add(phrase string) {
	toks := tokenize(phrase)
	if len(toks) == 0 {
		return
	}
	if len(toks) > s.maxLen {
		s.maxLen = len(toks)
	}
	s.phrases[strings.Join(toks, " ")] = struct{}{}

	last := len(toks) - 1
	stem := toks[last]
	for _, suffix := range variantSuffixes {
		toks[last] = stem + suffix
		s.phrases[strings.Join(toks, " ")] = struct{}{}
	}
}

// Len returns the number of phrases, variants included.
func (s *StringMatcher) Len() int {
	return len(s.phrases)
}

// Contains reports whether any word n-gram of text is a listed phrase.
func (s *StringMatcher) Contains(text string) bool {
	toks := tokenize(text)
	for i := range toks {
		for n := 1; n <= s.maxLen && i+n <= len(toks); n++ {
			if _, ok := s.phrases[strings.Join(toks[i:i+n], " ")]; ok {
				return true
			}
		}
	}
	return false
}

// IsOffensive implements Checker.
func (s *StringMatcher) IsOffensive(_ context.Context, text string) (bool, error) {
	return s.Contains(text), nil
}

// tokenize lowercases text and splits it into words, dropping punctuation.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\'')
	})
}
