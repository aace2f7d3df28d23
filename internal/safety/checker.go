// Package safety decides whether dialogue text is offensive.
package safety

import (
	"context"
	"fmt"
	"strings"

	"github.com/lewisedginton/safe_local_human/pkg/logger"
	"github.com/lewisedginton/safe_local_human/pkg/metrics"
)

// Checker classifies text as offensive or acceptable.
type Checker interface {
	IsOffensive(ctx context.Context, text string) (bool, error)
}

// Policy selects which strategies run.
type Policy string

const (
	PolicyNone          Policy = "none"
	PolicyStringMatcher Policy = "string_matcher"
	PolicyClassifier    Policy = "classifier"
	PolicyAll           Policy = "all"
)

// Policies lists every recognised policy value.
var Policies = []Policy{PolicyNone, PolicyStringMatcher, PolicyClassifier, PolicyAll}

// ParsePolicy validates a configured policy name.
func ParsePolicy(s string) (Policy, error) {
	p := Policy(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Policies {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown safety policy %q (want one of none, string_matcher, classifier, all)", s)
}

// UsesStringMatcher reports whether the policy includes the string matcher.
func (p Policy) UsesStringMatcher() bool {
	return p == PolicyStringMatcher || p == PolicyAll
}

// UsesClassifier reports whether the policy includes the classifier.
func (p Policy) UsesClassifier() bool {
	return p == PolicyClassifier || p == PolicyAll
}

// Strategy is a named Checker taking part in a Composite.
type Strategy struct {
	Name    string
	Checker Checker
}

// Composite flags text when any of its strategies does.
// Strategies run in order and stop at the first positive verdict.
type Composite struct {
	strategies []Strategy
	log        logger.Logger
	metrics    *metrics.Metrics
}

// NewComposite builds a Composite. Nil checkers are skipped and a nil logger discards.
func NewComposite(log logger.Logger, m *metrics.Metrics, strategies ...Strategy) *Composite {
	if log == nil {
		log = logger.NewNopLogger()
	}
	c := &Composite{log: log, metrics: m}
	for _, s := range strategies {
		if s.Checker != nil {
			c.strategies = append(c.strategies, s)
		}
	}
	return c
}

// Strategies returns the names of the configured strategies in evaluation order.
func (c *Composite) Strategies() []string {
	names := make([]string, len(c.strategies))
	for i, s := range c.strategies {
		names[i] = s.Name
	}
	return names
}

// IsOffensive implements Checker. Empty text is never offensive.
func (c *Composite) IsOffensive(ctx context.Context, text string) (bool, error) {
	if text == "" {
		return false, nil
	}
	for _, s := range c.strategies {
		offensive, err := s.Checker.IsOffensive(ctx, text)
		if err != nil {
			return false, fmt.Errorf("%s: %w", s.Name, err)
		}
		c.metrics.SafetyChecked(s.Name, offensive)
		if offensive {
			c.log.Debug("Text flagged", logger.StringField("strategy", s.Name))
			return true, nil
		}
	}
	return false, nil
}

// New assembles the checker for a policy. It returns nil for PolicyNone, which
// disables safety gating. The classifier is only required when the policy uses it.
func New(policy Policy, matcher *StringMatcher, classifier Checker, log logger.Logger, m *metrics.Metrics) (Checker, error) {
	if policy == PolicyNone {
		return nil, nil
	}
	var strategies []Strategy
	if policy.UsesStringMatcher() {
		if matcher == nil {
			return nil, fmt.Errorf("safety policy %s needs a string matcher", policy)
		}
		strategies = append(strategies, Strategy{Name: string(PolicyStringMatcher), Checker: matcher})
	}
	if policy.UsesClassifier() {
		if classifier == nil {
			return nil, fmt.Errorf("safety policy %s needs a classifier", policy)
		}
		strategies = append(strategies, Strategy{Name: string(PolicyClassifier), Checker: classifier})
	}
	return NewComposite(log, m, strategies...), nil
}
