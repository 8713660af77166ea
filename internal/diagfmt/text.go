package diagfmt

import (
	"fmt"
	"io"
	"sort"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"reanalyzer/internal/diag"
)

type palette struct {
	err, warn, info, file, dim, ok *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:  color.New(color.FgRed, color.Bold),
		warn: color.New(color.FgYellow, color.Bold),
		info: color.New(color.FgCyan),
		file: color.New(color.Bold, color.Underline),
		dim:  color.New(color.Faint),
		ok:   color.New(color.FgGreen, color.Bold),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.file, p.dim, p.ok} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	default:
		return p.info
	}
}

func severityIcon(sev diag.Severity) string {
	switch sev {
	case diag.SevError:
		return "✗"
	case diag.SevWarning:
		return "⚠"
	default:
		return "ℹ"
	}
}

func limit(items []diag.Diagnostic, max int) []diag.Diagnostic {
	if max > 0 && max < len(items) {
		return items[:max]
	}
	return items
}

// Text prints diagnostics grouped by file followed by a summary.
// The bag is expected to be sorted.
func Text(w io.Writer, bag *diag.Bag, opts TextOpts) error {
	p := newPalette(opts.Color)
	items := bag.Items()
	if len(items) == 0 {
		_, err := fmt.Fprintln(w, p.ok.Sprint("✓ No issues found!"))
		return err
	}

	shown := limit(items, opts.Max)
	byFile := diag.GroupByFile(shown)
	files := make([]string, 0, len(byFile))
	for f := range byFile {
		files = append(files, f)
	}
	sort.Strings(files)

	for _, file := range files {
		if _, err := fmt.Fprintf(w, "%s:\n", p.file.Sprint(displayPath(file, opts.PathMode, opts.Base))); err != nil {
			return err
		}
		for _, d := range byFile[file] {
			sev := p.severity(d.Severity)
			head := fmt.Sprintf("[%d:%d] %s (%s): ", d.Location.Line, d.Location.Column, d.Category, d.RuleID)
			msg := d.Message
			if opts.Width > 0 {
				avail := opts.Width - 4 - runewidth.StringWidth(head)
				if avail > 10 {
					msg = runewidth.Truncate(msg, avail, "…")
				}
			}
			if _, err := fmt.Fprintf(w, "  %s %s%s\n", sev.Sprint(severityIcon(d.Severity)), head, msg); err != nil {
				return err
			}
			if d.Suggestion != nil && !opts.HideSuggestions {
				if _, err := fmt.Fprintf(w, "    %s\n", p.dim.Sprint("hint: "+*d.Suggestion)); err != nil {
					return err
				}
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	if len(shown) < len(items) {
		if _, err := fmt.Fprintf(w, "... %d more not shown\n\n", len(items)-len(shown)); err != nil {
			return err
		}
	}
	return Summary(w, diag.ComputeStats(items), opts.Color)
}

// Summary prints the per-severity totals.
func Summary(w io.Writer, st diag.Stats, colored bool) error {
	p := newPalette(colored)
	_, err := fmt.Fprintf(w, "Summary:\n  %s errors, %s warnings, %s info messages\n",
		p.err.Sprint(st.Errors), p.warn.Sprint(st.Warnings), p.info.Sprint(st.Info))
	return err
}

// Short prints one line per diagnostic:
// <path>:<line>:<col>: <severity> <rule>: <message>
func Short(w io.Writer, bag *diag.Bag, opts TextOpts) error {
	p := newPalette(opts.Color)
	for _, d := range limit(bag.Items(), opts.Max) {
		_, err := fmt.Fprintf(w, "%s:%d:%d: %s %s: %s\n",
			displayPath(d.Location.File, opts.PathMode, opts.Base),
			d.Location.Line, d.Location.Column,
			p.severity(d.Severity).Sprint(d.Severity), d.RuleID, d.Message)
		if err != nil {
			return err
		}
	}
	return nil
}
