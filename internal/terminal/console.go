// Package terminal handles operator-facing terminal input and output.
package terminal

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/lewisedginton/safe_local_human/internal/message"
)

// Banner tells the operator how to end an episode or the session.
const Banner = "Enter [DONE] if you want to end the episode, [EXIT] to quit."

// DefaultPrompt is shown before each operator line.
const DefaultPrompt = "Enter Your Message:"

const episodeRule = "- - - - - - - END OF EPISODE - - - - - - - - - -"

// Options controls console rendering.
type Options struct {
	Prompt  string
	NoColor bool
	// AddFields lists extra message fields to display after the text.
	AddFields []string
	// Verbose also shows label candidates.
	Verbose bool
}

// Console writes prompts, notices and formatted turns to the operator.
type Console struct {
	out  io.Writer
	opts Options

	highlight lipgloss.Style
	prompt    lipgloss.Style
	field     lipgloss.Style
	text      lipgloss.Style
	notice    lipgloss.Style
}

// NewConsole binds a console to out.
func NewConsole(out io.Writer, opts Options) *Console {
	if opts.Prompt == "" {
		opts.Prompt = DefaultPrompt
	}

	renderer := lipgloss.NewRenderer(out)
	if opts.NoColor {
		renderer.SetColorProfile(termenv.Ascii)
	}

	return &Console{
		out:       out,
		opts:      opts,
		highlight: renderer.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		prompt:    renderer.NewStyle().Bold(true).Foreground(lipgloss.Color("10")),
		field:     renderer.NewStyle().Bold(true).Foreground(lipgloss.Color("13")),
		text:      renderer.NewStyle().Bold(true),
		notice:    renderer.NewStyle().Foreground(lipgloss.Color("11")),
	}
}

// Banner prints the control token help line.
func (c *Console) Banner() {
	c.println(c.highlight.Render(Banner))
}

// Prompt prints the input prompt without a trailing newline.
func (c *Console) Prompt() {
	_, _ = fmt.Fprint(c.out, c.prompt.Render(c.opts.Prompt)+" ")
}

// Notice prints a fixed notice such as a rejection message.
func (c *Console) Notice(text string) {
	c.println(c.notice.Render(text))
}

// Display prints a message in the standard turn format.
func (c *Console) Display(msg *message.Message) {
	c.println(c.Format(msg))
}

// Format renders a message: "[id]: text", requested extra fields, candidates
// when verbose, and a rule line when the episode is done.
func (c *Console) Format(msg *message.Message) string {
	var lines []string

	id := msg.ID()
	if id == "" {
		id = "partner"
	}
	if msg.Has(message.FieldText) {
		lines = append(lines, c.field.Render("["+id+"]:")+" "+c.text.Render(msg.Text()))
	}

	for _, key := range c.opts.AddFields {
		if v, ok := msg.Get(key); ok {
			lines = append(lines, c.field.Render("["+key+"]:")+" "+fmt.Sprint(v))
		}
	}

	if c.opts.Verbose {
		if cands := msg.LabelCandidates(); len(cands) > 0 {
			lines = append(lines, c.field.Render("[label_candidates: "+fmt.Sprint(len(cands))+"]")+" "+strings.Join(cands, " | "))
		}
	}

	if msg.EpisodeDone() {
		lines = append(lines, episodeRule)
	}
	return strings.Join(lines, "\n")
}

func (c *Console) println(s string) {
	_, _ = fmt.Fprintln(c.out, s)
}
