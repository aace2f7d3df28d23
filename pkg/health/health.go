// Package health runs dependency checks concurrently and reports the results,
// both as a one-shot report and as an HTTP readiness handler.
package health

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/lewisedginton/safe_local_human/pkg/logger"
)

// Check represents a single health check that can succeed or fail.
type Check interface {
	// Name returns the human-readable name of this check
	Name() string

	// Check returns nil if healthy, error if unhealthy
	Check(ctx context.Context) error
}

// CheckFunc is a function adapter that allows simple functions to be used as checks.
type CheckFunc struct {
	name string
	fn   func(context.Context) error
}

// NewCheckFunc creates a new CheckFunc with the given name and function.
func NewCheckFunc(name string, fn func(context.Context) error) *CheckFunc {
	return &CheckFunc{name: name, fn: fn}
}

// Name returns the name of this check.
func (c *CheckFunc) Name() string { return c.name }

// Check executes the check function.
func (c *CheckFunc) Check(ctx context.Context) error { return c.fn(ctx) }

// CheckResult represents the result of a single health check execution.
type CheckResult struct {
	Name    string
	Healthy bool
	Error   string
	Latency time.Duration
}

// Report is the outcome of one run of every check, sorted by name.
type Report struct {
	Healthy bool
	Checks  []CheckResult
}

// Checker holds the registered checks.
type Checker struct {
	checks  []Check
	timeout time.Duration
	logger  logger.Logger
	mu      sync.RWMutex
}

// Option is a functional option for configuring Checker.
type Option func(*Checker)

// WithTimeout sets the timeout for individual health checks.
// Default is 5 seconds.
func WithTimeout(d time.Duration) Option {
	return func(h *Checker) {
		if d > 0 {
			h.timeout = d
		}
	}
}

// WithLogger sets the logger for health check operations.
func WithLogger(l logger.Logger) Option {
	return func(h *Checker) {
		h.logger = l
	}
}

// New creates a new Checker with the given options.
func New(opts ...Option) *Checker {
	h := &Checker{
		timeout: 5 * time.Second,
		logger:  logger.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Add registers checks.
func (h *Checker) Add(checks ...Check) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks = append(h.checks, checks...)
}

// Len returns the number of registered checks.
func (h *Checker) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.checks)
}

// Run executes every check concurrently. The error lists the failed checks.
func (h *Checker) Run(ctx context.Context) (*Report, error) {
	h.mu.RLock()
	checks := append([]Check(nil), h.checks...)
	h.mu.RUnlock()

	results := make([]CheckResult, len(checks))
	var wg sync.WaitGroup
	for i, check := range checks {
		wg.Add(1)
		go func(idx int, chk Check) {
			defer wg.Done()
			results[idx] = h.execute(ctx, chk)
		}(i, check)
	}
	wg.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].Name < results[j].Name })

	report := &Report{Healthy: true, Checks: results}
	var failed []string
	for _, r := range results {
		if !r.Healthy {
			report.Healthy = false
			failed = append(failed, r.Name)
		}
	}
	if !report.Healthy {
		return report, fmt.Errorf("health checks failed: %v", failed)
	}
	return report, nil
}

func (h *Checker) execute(parentCtx context.Context, check Check) CheckResult {
	ctx, cancel := context.WithTimeout(parentCtx, h.timeout)
	defer cancel()

	start := time.Now()
	err := check.Check(ctx)
	result := CheckResult{
		Name:    check.Name(),
		Healthy: err == nil,
		Latency: time.Since(start),
	}

	if err != nil {
		result.Error = err.Error()
		h.logger.Warn("Health check failed",
			logger.StringField("check", result.Name),
			logger.ErrorField(err),
			logger.DurationField("latency", result.Latency))
		return result
	}
	h.logger.Debug("Health check passed",
		logger.StringField("check", result.Name),
		logger.DurationField("latency", result.Latency))
	return result
}
