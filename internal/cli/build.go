package cli

import (
	"fmt"
	"os"
	"strings"

	antoption "github.com/anthropics/anthropic-sdk-go/option"
	oaoption "github.com/openai/openai-go/option"

	appconfig "github.com/lewisedginton/safe_local_human/internal/config"
	"github.com/lewisedginton/safe_local_human/internal/partner"
	"github.com/lewisedginton/safe_local_human/internal/safety"
	"github.com/lewisedginton/safe_local_human/internal/terminal"
	"github.com/lewisedginton/safe_local_human/internal/transcript"
	"github.com/lewisedginton/safe_local_human/internal/translate"
	"github.com/lewisedginton/safe_local_human/pkg/logger"
	"github.com/lewisedginton/safe_local_human/pkg/metrics"
)

func openAIOptions(cfg *appconfig.AppConfig) []oaoption.RequestOption {
	return []oaoption.RequestOption{
		oaoption.WithBaseURL(cfg.OpenAI.APIBaseURL),
		oaoption.WithMaxRetries(cfg.OpenAI.MaxRetries),
		oaoption.WithRequestTimeout(cfg.OpenAI.Timeout),
	}
}

func anthropicOptions(cfg *appconfig.AppConfig) []antoption.RequestOption {
	return []antoption.RequestOption{
		antoption.WithBaseURL(cfg.Anthropic.APIBaseURL),
		antoption.WithMaxRetries(cfg.Anthropic.MaxRetries),
		antoption.WithRequestTimeout(cfg.Anthropic.Timeout),
	}
}

// buildChecker assembles the safety checker. A nil checker disables gating.
func buildChecker(cfg *appconfig.AppConfig, log logger.Logger, m *metrics.Metrics) (safety.Checker, error) {
	policy, err := safety.ParsePolicy(cfg.Safety.Policy)
	if err != nil {
		return nil, err
	}

	var matcher *safety.StringMatcher
	if policy.UsesStringMatcher() {
		matcher, err = safety.LoadStringMatcher(cfg.Safety.OffensiveWordsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load offensive phrases: %w", err)
		}
		log.Debug("Loaded offensive phrases", logger.IntField("phrases", matcher.Len()))
	}

	var classifier safety.Checker
	if policy.UsesClassifier() {
		c, err := safety.NewClassifier(cfg.OpenAI.APIKey, cfg.Safety.ModerationModel, openAIOptions(cfg)...)
		if err != nil {
			return nil, fmt.Errorf("failed to create classifier: %w", err)
		}
		classifier = c
	}

	return safety.New(policy, matcher, classifier, log, m)
}

// buildTranslator returns the translator for one direction, or nil when the
// backend is none. Hugging Face uses the direction's model; the chat backends
// use their provider model with a prompt naming both languages.
func buildTranslator(cfg *appconfig.AppConfig, direction, backendName, model string, langs translate.Languages, m *metrics.Metrics) (translate.Translator, error) {
	backend, err := translate.ParseBackend(backendName)
	if err != nil {
		return nil, err
	}

	var build func() (translate.Translator, error)
	switch backend {
	case translate.BackendNone:
		return nil, nil
	case translate.BackendHuggingFace:
		build = func() (translate.Translator, error) {
			return translate.NewHuggingFace(cfg.HuggingFace.APIBaseURL, model, cfg.HuggingFace.Token, cfg.HuggingFace.Timeout)
		}
	case translate.BackendOpenAI:
		build = func() (translate.Translator, error) {
			return translate.NewOpenAI(cfg.OpenAI.APIKey, cfg.OpenAI.Model, langs, openAIOptions(cfg)...)
		}
	case translate.BackendAnthropic:
		build = func() (translate.Translator, error) {
			return translate.NewAnthropic(cfg.Anthropic.APIKey, cfg.Anthropic.Model, langs, anthropicOptions(cfg)...)
		}
	default:
		return nil, fmt.Errorf("unsupported translation backend: %s", backend)
	}

	return translate.Timed{
		Translator: translate.NewLazy(build),
		Direction:  direction,
		Metrics:    m,
	}, nil
}

// buildTranslators returns the inbound and outbound translators.
func buildTranslators(cfg *appconfig.AppConfig, m *metrics.Metrics) (translate.Translator, translate.Translator, error) {
	foreign := cfg.Translation.ForeignLanguage
	inbound, err := buildTranslator(cfg, metrics.DirectionInbound, cfg.Translation.InboundBackend,
		cfg.Translation.ForeignEn, translate.Languages{Source: foreign, Target: "English"}, m)
	if err != nil {
		return nil, nil, fmt.Errorf("inbound translation: %w", err)
	}
	outbound, err := buildTranslator(cfg, metrics.DirectionOutbound, cfg.Translation.OutboundBackend,
		cfg.Translation.EnForeign, translate.Languages{Source: "English", Target: foreign}, m)
	if err != nil {
		return nil, nil, fmt.Errorf("outbound translation: %w", err)
	}
	return inbound, outbound, nil
}

// buildPartner creates the dialogue partner.
func buildPartner(cfg *appconfig.AppConfig) (partner.Partner, error) {
	kind, err := partner.ParseKind(cfg.Partner.Kind)
	if err != nil {
		return nil, err
	}
	maxTokens := int64(cfg.Partner.MaxTokens)

	prompt := cfg.Partner.SystemPrompt
	if cfg.Partner.SystemPromptFile != "" && kind != partner.KindEcho {
		data, err := os.ReadFile(cfg.Partner.SystemPromptFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read system prompt: %w", err)
		}
		prompt = strings.TrimSpace(string(data))
	}

	switch kind {
	case partner.KindOpenAI:
		return partner.NewOpenAI(cfg.OpenAI.APIKey, cfg.OpenAI.Model, prompt, maxTokens, openAIOptions(cfg)...)
	case partner.KindAnthropic:
		return partner.NewAnthropic(cfg.Anthropic.APIKey, cfg.Anthropic.Model, prompt, maxTokens, anthropicOptions(cfg)...)
	default:
		return partner.NewEcho(), nil
	}
}

func transcriptOptions(cfg *appconfig.AppConfig) (transcript.Options, error) {
	backend, err := transcript.ParseBackend(cfg.Transcript.Backend)
	if err != nil {
		return transcript.Options{}, err
	}
	return transcript.Options{
		Backend:     backend,
		Dir:         cfg.Transcript.Dir,
		S3Bucket:    cfg.Transcript.S3Bucket,
		S3Prefix:    cfg.Transcript.S3Prefix,
		S3Region:    cfg.Transcript.S3Region,
		S3Profile:   cfg.Transcript.S3Profile,
		DatabaseURL: cfg.Transcript.DatabaseURL,
		Migrate:     !cfg.Transcript.SkipMigrations,
	}, nil
}

func newConsole(cfg *appconfig.AppConfig) *terminal.Console {
	return terminal.NewConsole(os.Stdout, terminal.Options{
		Prompt:    cfg.Display.Prompt,
		NoColor:   cfg.Display.NoColor,
		AddFields: cfg.Display.AddFields,
		Verbose:   cfg.Display.Verbose,
	})
}
