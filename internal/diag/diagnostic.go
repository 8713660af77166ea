package diag

// Location points at a 1-indexed line/column inside a file.
type Location struct {
	File      string `json:"file"`
	Line      int    `json:"line"`
	Column    int    `json:"column"`
	EndLine   *int   `json:"end_line,omitempty"`
	EndColumn *int   `json:"end_column,omitempty"`
}

// Span builds a single-line location from line and a [start, end) column pair.
func Span(file string, line, column, endColumn int) Location {
	return Location{
		File:      file,
		Line:      line,
		Column:    column,
		EndLine:   &line,
		EndColumn: &endColumn,
	}
}

// Point builds a location without an end position.
func Point(file string, line, column int) Location {
	return Location{File: file, Line: line, Column: column}
}

type Diagnostic struct {
	RuleID     string   `json:"rule_id"`
	Message    string   `json:"message"`
	Severity   Severity `json:"severity"`
	Category   Category `json:"category"`
	Location   Location `json:"location"`
	Suggestion *string  `json:"suggestion,omitempty"`
}

// New constructs a diagnostic without a suggestion.
func New(ruleID, message string, sev Severity, cat Category, loc Location) Diagnostic {
	return Diagnostic{
		RuleID:   ruleID,
		Message:  message,
		Severity: sev,
		Category: cat,
		Location: loc,
	}
}

// WithSuggestion returns a copy carrying the given fix hint.
func (d Diagnostic) WithSuggestion(s string) Diagnostic {
	d.Suggestion = &s
	return d
}
