// Package testkit holds assertions shared by rule tests and fuzz harnesses.
package testkit

import (
	"fmt"
	"strings"

	"reanalyzer/internal/diag"
)

// CheckLocations verifies that every diagnostic points inside content:
// 1) the file matches path
// 2) the line exists (line 1 always does)
// 3) columns are 1-based, within the line, and the end is not before the start
func CheckLocations(path, content string, ds []diag.Diagnostic) error {
	lines := strings.Split(content, "\n")
	if len(lines) > 1 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for _, d := range ds {
		loc := d.Location
		if loc.File != path {
			return fmt.Errorf("%s: file %q, want %q", d.RuleID, loc.File, path)
		}
		if loc.Line < 1 || loc.Line > len(lines) {
			return fmt.Errorf("%s: line %d outside 1..%d", d.RuleID, loc.Line, len(lines))
		}
		width := len(lines[loc.Line-1]) + 1
		if loc.Column < 1 || loc.Column > width {
			return fmt.Errorf("%s: column %d outside 1..%d on line %d", d.RuleID, loc.Column, width, loc.Line)
		}
		if loc.EndLine != nil && *loc.EndLine != loc.Line {
			return fmt.Errorf("%s: multi-line span %d..%d", d.RuleID, loc.Line, *loc.EndLine)
		}
		if loc.EndColumn != nil {
			end := *loc.EndColumn
			if end < loc.Column || end > width {
				return fmt.Errorf("%s: end column %d outside %d..%d on line %d", d.RuleID, end, loc.Column, width, loc.Line)
			}
		}
	}
	return nil
}
