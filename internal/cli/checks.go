package cli

import (
	"context"
	"strings"

	appconfig "github.com/lewisedginton/safe_local_human/internal/config"
	"github.com/lewisedginton/safe_local_human/internal/safety"
	"github.com/lewisedginton/safe_local_human/internal/transcript"
	"github.com/lewisedginton/safe_local_human/internal/translate"
	"github.com/lewisedginton/safe_local_human/pkg/health"
	"github.com/lewisedginton/safe_local_human/pkg/health/checkers"
	"github.com/lewisedginton/safe_local_human/pkg/logger"
)

// dependencyChecks lists a check for every external resource the configuration uses.
// sink may be nil when no transcript sink is open; file transcripts are then
// checked through their directory.
func dependencyChecks(cfg *appconfig.AppConfig, sink transcript.Sink) []health.Check {
	var checks []health.Check

	if cfg.Agent.CandidatesFile != "" {
		checks = append(checks, checkers.NewFileChecker("candidates_file", cfg.Agent.CandidatesFile))
	}

	if cfg.Partner.SystemPromptFile != "" {
		checks = append(checks, checkers.NewFileChecker("partner_system_prompt_file", cfg.Partner.SystemPromptFile))
	}

	policy, _ := safety.ParsePolicy(cfg.Safety.Policy)
	if policy.UsesStringMatcher() && cfg.Safety.OffensiveWordsFile != "" {
		checks = append(checks, checkers.NewFileChecker("offensive_words_file", cfg.Safety.OffensiveWordsFile))
	}

	providers := map[string]bool{}
	if policy.UsesClassifier() {
		providers["openai"] = true
	}
	for _, b := range []string{cfg.Translation.InboundBackend, cfg.Translation.OutboundBackend} {
		if backend, err := translate.ParseBackend(b); err == nil && backend != translate.BackendNone {
			providers[string(backend)] = true
		}
	}
	providers[strings.ToLower(cfg.Partner.Kind)] = true

	if providers["openai"] {
		checks = append(checks, checkers.NewHTTPChecker(strings.TrimRight(cfg.OpenAI.APIBaseURL, "/")+"/models", "openai_api"))
	}
	if providers["anthropic"] {
		checks = append(checks, checkers.NewHTTPChecker(strings.TrimRight(cfg.Anthropic.APIBaseURL, "/")+"/v1/models", "anthropic_api"))
	}
	if providers["huggingface"] {
		checks = append(checks, checkers.NewHTTPChecker(cfg.HuggingFace.APIBaseURL, "huggingface_api"))
	}

	switch {
	case sink != nil:
		checks = append(checks, health.NewCheckFunc("transcript_"+cfg.Transcript.Backend, func(ctx context.Context) error {
			return transcript.Ping(ctx, sink)
		}))
	case strings.EqualFold(cfg.Transcript.Backend, string(transcript.BackendFile)):
		checks = append(checks, checkers.NewDirChecker("transcript_dir", cfg.Transcript.Dir))
	}
	return checks
}

// newHealthChecker registers the dependency checks.
func newHealthChecker(cfg *appconfig.AppConfig, sink transcript.Sink, log logger.Logger) *health.Checker {
	h := health.New(health.WithLogger(log))
	h.Add(dependencyChecks(cfg, sink)...)
	return h
}
