package cli

import (
	"github.com/urfave/cli/v2"

	appconfig "github.com/lewisedginton/safe_local_human/internal/config"
)

// safetyFlags select the offensiveness policy and its phrase list.
func safetyFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "safety",
			Usage: "Safety policy (none, string_matcher, classifier, all)",
		},
		&cli.StringFlag{
			Name:  "offensive_words_file",
			Usage: "Phrase list for the string matcher, one phrase per line",
		},
	}
}

// chatFlags override the configuration of the dialogue session.
func chatFlags() []cli.Flag {
	return append([]cli.Flag{
		&cli.StringFlag{
			Name:    "local-human-candidates-file",
			Aliases: []string{"fixedCands"},
			Usage:   "File of label candidates attached to every turn",
		},
		&cli.BoolFlag{
			Name:  "single_turn",
			Usage: "End the episode after every exchange",
		},
		&cli.StringFlag{
			Name:  "foreign_en",
			Usage: "Model translating operator input into English",
		},
		&cli.StringFlag{
			Name:  "en_foreign",
			Usage: "Model translating partner replies out of English",
		},
		&cli.StringFlag{
			Name:  "inbound_backend",
			Usage: "Translation backend for operator input (none, huggingface, openai, anthropic)",
		},
		&cli.StringFlag{
			Name:  "outbound_backend",
			Usage: "Translation backend for partner replies (none, huggingface, openai, anthropic)",
		},
		&cli.StringFlag{
			Name:  "partner",
			Usage: "Dialogue partner (echo, openai, anthropic)",
		},
		&cli.StringFlag{
			Name:  "transcript_backend",
			Usage: "Where finished episodes are saved (none, file, s3, postgres)",
		},
		&cli.StringSliceFlag{
			Name:  "display_add_fields",
			Usage: "Extra message fields shown after each reply",
		},
		&cli.BoolFlag{
			Name:  "display_verbose",
			Usage: "Also show label candidates",
		},
		&cli.BoolFlag{
			Name:  "no_color",
			Usage: "Disable colored output",
		},
		&cli.StringFlag{
			Name:  "prompt",
			Usage: "Prompt shown before each operator line",
		},
	}, safetyFlags()...)
}

// applyFlagOverrides copies explicitly set flags over the loaded configuration.
func applyFlagOverrides(ctx *cli.Context, cfg *appconfig.AppConfig) {
	stringFlags := []struct {
		flag string
		dest *string
	}{
		{"local-human-candidates-file", &cfg.Agent.CandidatesFile},
		{"safety", &cfg.Safety.Policy},
		{"offensive_words_file", &cfg.Safety.OffensiveWordsFile},
		{"foreign_en", &cfg.Translation.ForeignEn},
		{"en_foreign", &cfg.Translation.EnForeign},
		{"inbound_backend", &cfg.Translation.InboundBackend},
		{"outbound_backend", &cfg.Translation.OutboundBackend},
		{"partner", &cfg.Partner.Kind},
		{"transcript_backend", &cfg.Transcript.Backend},
		{"prompt", &cfg.Display.Prompt},
	}
	for _, s := range stringFlags {
		if ctx.IsSet(s.flag) {
			*s.dest = ctx.String(s.flag)
		}
	}

	boolFlags := []struct {
		flag string
		dest *bool
	}{
		{"single_turn", &cfg.Agent.SingleTurn},
		{"display_verbose", &cfg.Display.Verbose},
		{"no_color", &cfg.Display.NoColor},
	}
	for _, b := range boolFlags {
		if ctx.IsSet(b.flag) {
			*b.dest = ctx.Bool(b.flag)
		}
	}

	if ctx.IsSet("display_add_fields") {
		cfg.Display.AddFields = ctx.StringSlice("display_add_fields")
	}
}
