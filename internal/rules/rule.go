// Package rules implements the regex-based Dart checks run by the workspace
// scanner and the analyze command.
package rules

import (
	"strings"

	"reanalyzer/internal/config"
	"reanalyzer/internal/diag"
)

// Rule checks one file. A returned error means the rule could not run on
// this file; callers treat it as producing no diagnostics.
type Rule interface {
	Name() string
	Category() diag.Category
	Check(path, content string) ([]diag.Diagnostic, error)
}

// Style returns the style rules.
func Style(maxLineLength int) []Rule {
	if maxLineLength <= 0 {
		maxLineLength = config.DefaultMaxLineLength
	}
	return []Rule{
		CamelCaseClassName{},
		SnakeCaseFileName{},
		PrivateFieldUnderscore{},
		LineLength{Max: maxLineLength},
	}
}

// Runtime returns the runtime rules.
func Runtime() []Rule {
	return []Rule{
		AvoidDynamic{},
		AvoidEmptyCatch{},
		UnusedImport{},
		AvoidPrint{},
		AvoidNullCheckOnNullable{},
	}
}

// All returns style rules followed by runtime rules.
func All(maxLineLength int) []Rule {
	return append(Style(maxLineLength), Runtime()...)
}

// Selection narrows FromConfig to a single category.
type Selection uint8

const (
	SelectAll Selection = iota
	SelectStyle
	SelectRuntime
)

// FromConfig returns the rules enabled by cfg within sel.
func FromConfig(cfg config.Config, sel Selection) []Rule {
	if !cfg.Enabled {
		return nil
	}
	var candidates []Rule
	switch sel {
	case SelectStyle:
		candidates = Style(cfg.MaxLineLength)
	case SelectRuntime:
		candidates = Runtime()
	default:
		candidates = All(cfg.MaxLineLength)
	}
	out := candidates[:0]
	for _, r := range candidates {
		if cfg.IsRuleEnabled(r.Name(), r.Category()) {
			out = append(out, r)
		}
	}
	return out
}

// Names lists rule names in order.
func Names(rs []Rule) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Name()
	}
	return out
}

func isCommentLine(line string) bool {
	return strings.HasPrefix(strings.TrimLeft(line, " \t"), "//")
}

// lines splits content like a line iterator: no trailing empty element for a
// final newline.
func lines(content string) []string {
	if content == "" {
		return nil
	}
	out := strings.Split(content, "\n")
	if out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return out
}
