package cli

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	appconfig "github.com/lewisedginton/safe_local_human/internal/config"
	"github.com/lewisedginton/safe_local_human/internal/translate"
	"github.com/lewisedginton/safe_local_human/pkg/logger"
	"github.com/lewisedginton/safe_local_human/pkg/metrics"
)

// clearEnv unsets the variables a developer shell might carry into the tests.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"OPENAI_API_KEY", "ANTHROPIC_API_KEY", "SAFETY", "PARTNER", "OFFENSIVE_WORDS_FILE",
		"TRANSCRIPT_BACKEND", "TRANSCRIPT_DIR", "INBOUND_BACKEND", "OUTBOUND_BACKEND",
		"LOCAL_HUMAN_CANDIDATES_FILE", "SINGLE_TURN", "NO_COLOR", "CONFIG_FILE",
	} {
		t.Setenv(key, "")
	}
}

func newTestApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:      "local-human",
		Writer:    out,
		ErrWriter: io.Discard,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "log-level", Value: "error"},
			&cli.StringFlag{Name: "config-file"},
		},
		Commands: []*cli.Command{
			ConfigCommand(),
			SafetyCommand(),
			DoctorCommand(),
		},
	}
}

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	err := newTestApp(out).RunContext(t.Context(), append([]string{"local-human"}, args...))
	return out.String(), err
}

func nopLog() logger.Logger { return logger.NewNopLogger() }

func testConfig(t *testing.T) *appconfig.AppConfig {
	t.Helper()
	clearEnv(t)
	cfg, err := appconfig.Read("")
	require.NoError(t, err)
	return cfg
}

func TestConfigValidate(t *testing.T) {
	clearEnv(t)

	out, err := runApp(t, "config", "validate", "--safety", "none")
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration is valid")

	_, err = runApp(t, "config", "validate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")

	_, err = runApp(t, "config", "validate", "--safety", "none", "--partner", "parrot")
	assert.Error(t, err)
}

func TestConfigValidateFromFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("safety: string_matcher\ntranscript_backend: s3\n"), 0o600))

	_, err := runApp(t, "--config-file", path, "config", "validate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "transcript_s3_bucket")

	_, err = runApp(t, "--config-file", path, "config", "validate", "--transcript_backend", "none")
	assert.NoError(t, err)
}

func TestSafetyCheck(t *testing.T) {
	clearEnv(t)

	out, err := runApp(t, "safety", "check", "--safety", "string_matcher", "you", "absolute", "idiot")
	require.ErrorIs(t, err, ErrOffensive)
	assert.Contains(t, out, "offensive")

	out, err = runApp(t, "safety", "check", "--safety", "string_matcher", "good", "morning")
	require.NoError(t, err)
	assert.Contains(t, out, "ok")

	out, err = runApp(t, "safety", "check", "--safety", "none", "idiot")
	require.NoError(t, err)
	assert.Contains(t, out, "safety disabled")

	_, err = runApp(t, "safety", "check", "--safety", "none")
	assert.Error(t, err)
}

func TestSafetyCheckCustomWords(t *testing.T) {
	clearEnv(t)
	words := filepath.Join(t.TempDir(), "words.txt")
	require.NoError(t, os.WriteFile(words, []byte("pineapple pizza\n"), 0o600))

	_, err := runApp(t, "safety", "check", "--safety", "string_matcher", "--offensive_words_file", words, "I love pineapple pizza")
	assert.ErrorIs(t, err, ErrOffensive)

	_, err = runApp(t, "safety", "check", "--safety", "string_matcher", "--offensive_words_file", words, "idiot")
	assert.NoError(t, err)
}

func TestFlagOverrides(t *testing.T) {
	clearEnv(t)
	var got *appconfig.AppConfig

	app := &cli.App{
		Name:   "local-human",
		Writer: io.Discard,
		Flags:  chatFlags(),
		Action: func(ctx *cli.Context) error {
			cfg, err := appconfig.Read("")
			if err != nil {
				return err
			}
			applyFlagOverrides(ctx, cfg)
			got = cfg
			return nil
		},
	}

	err := app.RunContext(t.Context(), []string{"local-human",
		"--fixedCands", "/srv/cands.txt",
		"--single_turn",
		"--partner", "anthropic",
		"--inbound_backend", "huggingface",
		"--display_add_fields", "bot_offensive",
		"--display_add_fields", "id",
		"--no_color",
		"--prompt", "You:",
	})
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, "/srv/cands.txt", got.Agent.CandidatesFile)
	assert.True(t, got.Agent.SingleTurn)
	assert.Equal(t, "anthropic", got.Partner.Kind)
	assert.Equal(t, "huggingface", got.Translation.InboundBackend)
	assert.Equal(t, []string{"bot_offensive", "id"}, got.Display.AddFields)
	assert.True(t, got.Display.NoColor)
	assert.Equal(t, "You:", got.Display.Prompt)

	// untouched settings keep their configured values
	assert.Equal(t, "all", got.Safety.Policy)
	assert.Equal(t, "none", got.Translation.OutboundBackend)
	assert.False(t, got.Display.Verbose)
}

func TestBuildChecker(t *testing.T) {
	cfg := testConfig(t)

	cfg.Safety.Policy = "none"
	checker, err := buildChecker(cfg, nopLog(), nil)
	require.NoError(t, err)
	assert.Nil(t, checker)

	cfg.Safety.Policy = "string_matcher"
	checker, err = buildChecker(cfg, nopLog(), metrics.NewMetrics(nopLog()))
	require.NoError(t, err)
	offensive, err := checker.IsOffensive(t.Context(), "what an idiot")
	require.NoError(t, err)
	assert.True(t, offensive)

	cfg.Safety.OffensiveWordsFile = filepath.Join(t.TempDir(), "missing.txt")
	_, err = buildChecker(cfg, nopLog(), nil)
	assert.Error(t, err)

	cfg.Safety.Policy = "classifier"
	cfg.OpenAI.APIKey = ""
	_, err = buildChecker(cfg, nopLog(), nil)
	assert.Error(t, err)
}

func TestBuildTranslators(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/Helsinki-NLP/opus-mt-zh-en", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"translation_text":"hello"}]`))
	}))
	defer srv.Close()

	cfg := testConfig(t)
	cfg.HuggingFace.APIBaseURL = srv.URL
	cfg.Translation.InboundBackend = "huggingface"

	inbound, outbound, err := buildTranslators(cfg, metrics.NewMetrics(nopLog()))
	require.NoError(t, err)
	assert.Nil(t, outbound)
	require.NotNil(t, inbound)
	assert.IsType(t, translate.Timed{}, inbound)

	text, err := inbound.Translate(t.Context(), "ni hao")
	require.NoError(t, err)
	assert.Equal(t, "hello", text)

	cfg.Translation.OutboundBackend = "babelfish"
	_, _, err = buildTranslators(cfg, nil)
	assert.ErrorContains(t, err, "outbound translation")
}

func TestBuildTranslatorDefersProviderErrors(t *testing.T) {
	cfg := testConfig(t)
	cfg.Translation.OutboundBackend = "openai"

	_, outbound, err := buildTranslators(cfg, nil)
	require.NoError(t, err)
	require.NotNil(t, outbound)

	_, err = outbound.Translate(t.Context(), "hello")
	assert.ErrorContains(t, err, "API key")
}

func TestBuildPartner(t *testing.T) {
	cfg := testConfig(t)

	p, err := buildPartner(cfg)
	require.NoError(t, err)
	assert.Equal(t, "echo", p.ID())

	cfg.Partner.Kind = "openai"
	cfg.OpenAI.APIKey = "test-key"
	p, err = buildPartner(cfg)
	require.NoError(t, err)
	assert.Equal(t, cfg.OpenAI.Model, p.ID())

	cfg.Partner.SystemPromptFile = filepath.Join(t.TempDir(), "missing.md")
	_, err = buildPartner(cfg)
	assert.ErrorContains(t, err, "system prompt")

	prompt := filepath.Join(t.TempDir(), "system.md")
	require.NoError(t, os.WriteFile(prompt, []byte("Be terse.\n"), 0o600))
	cfg.Partner.SystemPromptFile = prompt
	_, err = buildPartner(cfg)
	assert.NoError(t, err)

	cfg.Partner.Kind = "anthropic"
	_, err = buildPartner(cfg)
	assert.Error(t, err)
}

func TestTranscriptOptions(t *testing.T) {
	cfg := testConfig(t)
	cfg.Transcript.Backend = "postgres"
	cfg.Transcript.DatabaseURL = "postgres://localhost/dialogue"

	opts, err := transcriptOptions(cfg)
	require.NoError(t, err)
	assert.Equal(t, "postgres", string(opts.Backend))
	assert.True(t, opts.Migrate)

	cfg.Transcript.SkipMigrations = true
	opts, err = transcriptOptions(cfg)
	require.NoError(t, err)
	assert.False(t, opts.Migrate)

	cfg.Transcript.Backend = "tape"
	_, err = transcriptOptions(cfg)
	assert.Error(t, err)
}

func TestDependencyChecks(t *testing.T) {
	cfg := testConfig(t)
	cfg.Agent.CandidatesFile = "/srv/cands.txt"
	cfg.Safety.Policy = "all"
	cfg.Safety.OffensiveWordsFile = "/srv/words.txt"
	cfg.Translation.InboundBackend = "huggingface"
	cfg.Partner.Kind = "anthropic"
	cfg.Transcript.Backend = "file"

	var names []string
	for _, c := range dependencyChecks(cfg, nil) {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{
		"candidates_file",
		"offensive_words_file",
		"openai_api",
		"anthropic_api",
		"huggingface_api",
		"transcript_dir",
	}, names)

	cfg = testConfig(t)
	cfg.Safety.Policy = "none"
	assert.Empty(t, dependencyChecks(cfg, nil))
}

func TestDoctor(t *testing.T) {
	clearEnv(t)
	dir := filepath.Join(t.TempDir(), "transcripts")
	t.Setenv("TRANSCRIPT_DIR", dir)

	out, err := runApp(t, "doctor", "--safety", "none", "--transcript_backend", "file")
	require.NoError(t, err)
	assert.Contains(t, out, "transcript_dir")
	assert.DirExists(t, dir)

	out, err = runApp(t, "doctor", "--safety", "none")
	require.NoError(t, err)
	assert.Contains(t, out, "nothing to check")

	cands := filepath.Join(t.TempDir(), "missing.txt")
	out, err = runApp(t, "doctor", "--safety", "none", "--fixedCands", cands)
	require.Error(t, err)
	assert.Contains(t, out, "candidates_file")
}
