// Package config holds the application configuration for the local human.
package config

import (
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/lewisedginton/safe_local_human/internal/partner"
	"github.com/lewisedginton/safe_local_human/internal/safety"
	"github.com/lewisedginton/safe_local_human/internal/transcript"
	"github.com/lewisedginton/safe_local_human/internal/translate"
	"github.com/lewisedginton/safe_local_human/pkg/config"
	"github.com/lewisedginton/safe_local_human/pkg/logger"
)

// AppConfig holds all application configuration
type AppConfig struct {
	Agent       AgentConfig          `yaml:"agent,inline"`
	Safety      SafetyConfig         `yaml:"safety,inline"`
	Translation TranslationConfig    `yaml:"translation,inline"`
	Partner     PartnerConfig        `yaml:"partner,inline"`
	OpenAI      OpenAIConfig         `yaml:"openai,inline"`
	Anthropic   AnthropicConfig      `yaml:"anthropic,inline"`
	HuggingFace HuggingFaceConfig    `yaml:"huggingface,inline"`
	Transcript  TranscriptConfig     `yaml:"transcript,inline"`
	Display     DisplayConfig        `yaml:"display,inline"`
	Logging     config.LoggingConfig `yaml:"logging,inline"`
	Metrics     config.MetricsConfig `yaml:"metrics,inline"`
}

// AgentConfig holds the human agent settings
type AgentConfig struct {
	// CandidatesFile holds fixed label candidates, one per line
	CandidatesFile string `env:"LOCAL_HUMAN_CANDIDATES_FILE" yaml:"local-human-candidates-file"`
	// SingleTurn marks every message as ending its episode
	SingleTurn bool `env:"SINGLE_TURN" yaml:"single_turn"`
	// ID overrides the agent identity shown on messages
	ID string `env:"AGENT_ID" yaml:"agent_id"`
}

// SafetyConfig holds the offensive content gate settings
type SafetyConfig struct {
	Policy             string `env:"SAFETY" yaml:"safety" default:"all"`
	OffensiveWordsFile string `env:"OFFENSIVE_WORDS_FILE" yaml:"offensive_words_file"`
	ModerationModel    string `env:"MODERATION_MODEL" yaml:"moderation_model" default:"omni-moderation-latest"`
}

// TranslationConfig holds both translation directions
type TranslationConfig struct {
	// ForeignEn is the model translating operator input into English
	ForeignEn string `env:"FOREIGN_EN" yaml:"foreign_en" default:"Helsinki-NLP/opus-mt-zh-en"`
	// EnForeign is the model translating partner replies out of English
	EnForeign       string `env:"EN_FOREIGN" yaml:"en_foreign" default:"Helsinki-NLP/opus-mt-en-zh"`
	InboundBackend  string `env:"INBOUND_BACKEND" yaml:"inbound_backend" default:"none"`
	OutboundBackend string `env:"OUTBOUND_BACKEND" yaml:"outbound_backend" default:"none"`
	// ForeignLanguage names the operator's language for prompt driven backends
	ForeignLanguage string `env:"FOREIGN_LANGUAGE" yaml:"foreign_language" default:"Chinese"`
}

// PartnerConfig selects the dialogue partner
type PartnerConfig struct {
	Kind         string `env:"PARTNER" yaml:"partner" default:"echo"`
	SystemPrompt string `env:"PARTNER_SYSTEM_PROMPT" yaml:"partner_system_prompt"`
	// SystemPromptFile replaces SystemPrompt with the contents of a file.
	SystemPromptFile string `env:"PARTNER_SYSTEM_PROMPT_FILE" yaml:"partner_system_prompt_file"`
	MaxTokens    int    `env:"PARTNER_MAX_TOKENS" yaml:"partner_max_tokens" default:"512"`
}

// OpenAIConfig holds OpenAI-specific configuration
type OpenAIConfig struct {
	APIKey     string        `env:"OPENAI_API_KEY" yaml:"openai_api_key"`
	Model      string        `env:"OPENAI_MODEL" yaml:"openai_model" default:"gpt-4o-mini"`
	APIBaseURL string        `env:"OPENAI_API_URL" yaml:"openai_api_base_url" default:"https://api.openai.com/v1"`
	MaxRetries int           `env:"OPENAI_MAX_RETRIES" yaml:"openai_max_retries" default:"2"`
	Timeout    time.Duration `env:"OPENAI_TIMEOUT" yaml:"openai_timeout" default:"30s"`
}

// AnthropicConfig holds Anthropic-specific configuration
type AnthropicConfig struct {
	APIKey     string        `env:"ANTHROPIC_API_KEY" yaml:"anthropic_api_key"`
	Model      string        `env:"CLAUDE_MODEL" yaml:"anthropic_model" default:"claude-sonnet-4-5-20250929"`
	APIBaseURL string        `env:"ANTHROPIC_API_URL" yaml:"anthropic_api_base_url" default:"https://api.anthropic.com"`
	MaxRetries int           `env:"ANTHROPIC_MAX_RETRIES" yaml:"anthropic_max_retries" default:"2"`
	Timeout    time.Duration `env:"ANTHROPIC_TIMEOUT" yaml:"anthropic_timeout" default:"30s"`
}

// HuggingFaceConfig holds the inference API settings
type HuggingFaceConfig struct {
	Token      string        `env:"HF_TOKEN" yaml:"huggingface_token"`
	APIBaseURL string        `env:"HF_API_URL" yaml:"huggingface_api_base_url" default:"https://api-inference.huggingface.co"`
	Timeout    time.Duration `env:"HF_TIMEOUT" yaml:"huggingface_timeout" default:"60s"`
}

// TranscriptConfig selects where finished episodes are stored
type TranscriptConfig struct {
	Backend string `env:"TRANSCRIPT_BACKEND" yaml:"transcript_backend" default:"none"`
	Dir     string `env:"TRANSCRIPT_DIR" yaml:"transcript_dir" default:"transcripts"`

	S3Bucket  string `env:"TRANSCRIPT_S3_BUCKET" yaml:"transcript_s3_bucket"`
	S3Prefix  string `env:"TRANSCRIPT_S3_PREFIX" yaml:"transcript_s3_prefix"`
	S3Region  string `env:"TRANSCRIPT_S3_REGION" yaml:"transcript_s3_region"`
	S3Profile string `env:"TRANSCRIPT_S3_PROFILE" yaml:"transcript_s3_profile"`

	DatabaseURL    string `env:"DATABASE_URL" yaml:"database_url"`
	SkipMigrations bool   `env:"TRANSCRIPT_SKIP_MIGRATIONS" yaml:"transcript_skip_migrations"`
}

// DisplayConfig controls terminal rendering
type DisplayConfig struct {
	AddFields []string `env:"DISPLAY_ADD_FIELDS" yaml:"display_add_fields"`
	Verbose   bool     `env:"DISPLAY_VERBOSE" yaml:"display_verbose"`
	NoColor   bool     `env:"NO_COLOR" yaml:"no_color"`
	Prompt    string   `env:"LOCAL_HUMAN_PROMPT" yaml:"prompt"`
}

// Load reads the optional yaml file, overlays the environment and validates
// the result.
func Load(path string) (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := config.GetConfig(cfg, path, false); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read is Load without validation. Callers validate after applying overrides.
func Read(path string) (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := config.LoadConfig(cfg, path, false); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate validates the configuration and returns every problem found
func (c *AppConfig) Validate() error {
	var result error

	if err := c.Logging.Validate(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := c.Metrics.Validate(); err != nil {
		result = multierror.Append(result, err)
	}

	policy, err := safety.ParsePolicy(c.Safety.Policy)
	if err != nil {
		result = multierror.Append(result, err)
	} else if policy.UsesClassifier() && c.OpenAI.APIKey == "" {
		result = multierror.Append(result, fmt.Errorf("safety policy %s uses the moderation classifier and needs OPENAI_API_KEY", policy))
	}

	for _, b := range []struct{ name, value string }{
		{"inbound_backend", c.Translation.InboundBackend},
		{"outbound_backend", c.Translation.OutboundBackend},
	} {
		backend, err := translate.ParseBackend(b.value)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", b.name, err))
			continue
		}
		if err := c.requireProviderKey(string(backend), b.name); err != nil {
			result = multierror.Append(result, err)
		}
	}

	kind, err := partner.ParseKind(c.Partner.Kind)
	if err != nil {
		result = multierror.Append(result, err)
	} else if err := c.requireProviderKey(string(kind), "partner"); err != nil {
		result = multierror.Append(result, err)
	}
	if c.Partner.MaxTokens < 1 {
		result = multierror.Append(result, fmt.Errorf("partner_max_tokens must be positive, got %d", c.Partner.MaxTokens))
	}

	backend, err := transcript.ParseBackend(c.Transcript.Backend)
	if err != nil {
		result = multierror.Append(result, err)
	} else {
		switch backend {
		case transcript.BackendFile:
			if c.Transcript.Dir == "" {
				result = multierror.Append(result, fmt.Errorf("transcript_dir is required for file transcripts"))
			}
		case transcript.BackendS3:
			if c.Transcript.S3Bucket == "" {
				result = multierror.Append(result, fmt.Errorf("transcript_s3_bucket is required for s3 transcripts"))
			}
		case transcript.BackendPostgres:
			if c.Transcript.DatabaseURL == "" {
				result = multierror.Append(result, fmt.Errorf("database_url is required for postgres transcripts"))
			}
		}
	}

	for _, d := range []struct {
		name  string
		value time.Duration
	}{
		{"openai_timeout", c.OpenAI.Timeout},
		{"anthropic_timeout", c.Anthropic.Timeout},
		{"huggingface_timeout", c.HuggingFace.Timeout},
	} {
		if d.value <= 0 {
			result = multierror.Append(result, fmt.Errorf("%s must be positive, got %v", d.name, d.value))
		}
	}

	return result
}

// requireProviderKey checks the API key of the provider a component uses.
func (c *AppConfig) requireProviderKey(provider, component string) error {
	switch provider {
	case "openai":
		if c.OpenAI.APIKey == "" {
			return fmt.Errorf("%s uses openai and needs OPENAI_API_KEY", component)
		}
	case "anthropic":
		if c.Anthropic.APIKey == "" {
			return fmt.Errorf("%s uses anthropic and needs ANTHROPIC_API_KEY", component)
		}
	}
	return nil
}

// LogConfig converts the logging section for logger.NewLogger.
func (c *AppConfig) LogConfig(service string) logger.Config {
	return logger.Config{
		Level:   logger.ParseLevel(c.Logging.Level),
		Format:  c.Logging.Format,
		Service: service,
	}
}
