package diagfmt

import (
	"encoding/json"
	"io"

	"reanalyzer/internal/diag"
)

// DiagnosticsOutput is the root of the JSON report.
type DiagnosticsOutput struct {
	Diagnostics []diag.Diagnostic `json:"diagnostics"`
	Count       int               `json:"count"`
	Stats       diag.Stats        `json:"stats"`
}

// BuildDiagnosticsOutput builds the JSON report without serialising it.
// Stats always cover the whole bag.
func BuildDiagnosticsOutput(bag *diag.Bag, opts JSONOpts) DiagnosticsOutput {
	items := bag.Items()
	shown := limit(items, opts.Max)
	out := make([]diag.Diagnostic, len(shown))
	for i, d := range shown {
		d.Location.File = displayPath(d.Location.File, opts.PathMode, opts.Base)
		out[i] = d
	}
	return DiagnosticsOutput{
		Diagnostics: out,
		Count:       len(out),
		Stats:       diag.ComputeStats(items),
	}
}

// JSON writes the report as indented JSON.
func JSON(w io.Writer, bag *diag.Bag, opts JSONOpts) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(BuildDiagnosticsOutput(bag, opts))
}

// Write renders bag in the given format.
func Write(w io.Writer, format Format, bag *diag.Bag, text TextOpts) error {
	switch format {
	case FormatJSON:
		return JSON(w, bag, JSONOpts{PathMode: text.PathMode, Base: text.Base, Max: text.Max})
	case FormatShort:
		return Short(w, bag, text)
	default:
		return Text(w, bag, text)
	}
}
