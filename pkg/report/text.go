package report

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/matzehuels/manifestcheck/pkg/manifest"
	"github.com/matzehuels/manifestcheck/pkg/reconcile"
)

// Highlight classifies a line of text output. It carries no state; the
// mapping to terminal styles lives in the [Text] renderer.
type Highlight int

const (
	HighlightNone Highlight = iota
	HighlightHeadline
	HighlightDetail
	HighlightSuccess
)

var (
	colorRed    = lipgloss.Color("1")
	colorYellow = lipgloss.Color("3")
	colorGreen  = lipgloss.Color("2")
)

// Options controls text output. Brief and Color are independent and never
// influence the verdict.
type Options struct {
	Brief bool // Headlines only, no detail blocks
	Color bool // ANSI highlighting
}

// Text renders findings as human-readable lines.
type Text struct {
	w      io.Writer
	opts   Options
	styles map[Highlight]lipgloss.Style
}

// NewText creates a text renderer writing to w. With Color set, output is
// always ANSI-colored, whether or not w is a terminal.
func NewText(w io.Writer, opts Options) *Text {
	t := &Text{w: w, opts: opts}
	if opts.Color {
		r := lipgloss.NewRenderer(w)
		r.SetColorProfile(termenv.ANSI)
		t.styles = map[Highlight]lipgloss.Style{
			HighlightHeadline: r.NewStyle().Foreground(colorRed),
			HighlightDetail:   r.NewStyle().Foreground(colorYellow),
			HighlightSuccess:  r.NewStyle().Foreground(colorGreen),
		}
	}
	return t
}

// Result writes every node of res in walk order.
func (t *Text) Result(res *reconcile.Result) error {
	for _, n := range res.Nodes {
		if err := t.Node(n); err != nil {
			return err
		}
	}
	return nil
}

// Node writes the verdict for one examined package. It has the shape of a
// [reconcile.Visitor] so output can stream during a walk.
func (t *Text) Node(n reconcile.NodeResult) error {
	switch {
	case n.Invalid:
		return t.line(HighlightHeadline, "%s depends on %q, which is not a valid package name.", n.Parent, n.Package)
	case n.Unresolved:
		return t.line(HighlightHeadline, "%s has no latest version; it might have been unpublished.", n.Package)
	case len(n.Findings) == 0:
		return t.line(HighlightSuccess, "No mismatch detected for %s.", n.Package)
	}
	for _, f := range n.Findings {
		if err := t.finding(f); err != nil {
			return err
		}
	}
	return nil
}

// Summary writes a closing line for recursive runs.
func (t *Text) Summary(res *reconcile.Result) error {
	if !res.Recursive {
		return nil
	}
	failed := 0
	for _, n := range res.Nodes {
		if n.Mismatch {
			failed++
		}
	}
	h := HighlightSuccess
	if failed > 0 {
		h = HighlightHeadline
	}
	if err := t.line(h, "Examined %d packages, %d with problems.", len(res.Nodes), failed); err != nil {
		return err
	}
	if res.Truncated {
		return t.line(HighlightDetail, "Walk stopped early at the configured depth or node limit.")
	}
	return nil
}

// Headline returns the headline text for a finding.
func Headline(f reconcile.Finding) string {
	return fmt.Sprintf("%s mismatch detected for %s!", title(f.Field), f.Package)
}

func title(f reconcile.Field) string {
	switch f {
	case reconcile.FieldVersion:
		return "Version"
	case reconcile.FieldDependencies:
		return "Dependency"
	case reconcile.FieldScripts:
		return "Scripts"
	case reconcile.FieldName:
		return "Name"
	default:
		return string(f)
	}
}

func (t *Text) finding(f reconcile.Finding) error {
	if err := t.line(HighlightHeadline, "%s", Headline(f)); err != nil {
		return err
	}
	if t.opts.Brief {
		return nil
	}

	lines := []string{
		fmt.Sprintf("Reported %s: %s", f.Field, f.Reported),
		fmt.Sprintf("Actual %s: %s", f.Field, f.Actual),
	}
	if f.Note != "" {
		lines = append(lines, "Note: "+f.Note)
	}
	if f.Diff != nil {
		lines = append(lines, diffLines(*f.Diff)...)
	}
	for _, l := range lines {
		if err := t.line(HighlightDetail, "%s", l); err != nil {
			return err
		}
	}
	return nil
}

func diffLines(d manifest.MapDiff) []string {
	var out []string
	for _, e := range d.Added {
		out = append(out, fmt.Sprintf("  + %s: %s", e.Key, e.Value))
	}
	for _, e := range d.Removed {
		out = append(out, fmt.Sprintf("  - %s: %s", e.Key, e.Value))
	}
	for _, c := range d.Changed {
		out = append(out, fmt.Sprintf("  ~ %s: %s -> %s", c.Key, c.Reported, c.Actual))
	}
	return out
}

func (t *Text) line(h Highlight, format string, args ...any) error {
	_, err := fmt.Fprintln(t.w, t.paint(h, fmt.Sprintf(format, args...)))
	return err
}

func (t *Text) paint(h Highlight, s string) string {
	if style, ok := t.styles[h]; ok {
		return style.Render(s)
	}
	return s
}
