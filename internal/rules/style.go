package rules

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"reanalyzer/internal/diag"
)

var classDeclRe = regexp.MustCompile(`^\s*(?:abstract\s+)?class\s+([a-zA-Z_][a-zA-Z0-9_]*)`)

// CamelCaseClassName flags class names that do not start with an upper-case letter.
type CamelCaseClassName struct{}

func (CamelCaseClassName) Name() string            { return "camel_case_class_names" }
func (CamelCaseClassName) Category() diag.Category { return diag.CatStyle }

func (r CamelCaseClassName) Check(path, content string) ([]diag.Diagnostic, error) {
	var out []diag.Diagnostic
	for i, line := range lines(content) {
		m := classDeclRe.FindStringSubmatchIndex(line)
		if m == nil {
			continue
		}
		name := line[m[2]:m[3]]
		first := []rune(name)[0]
		if unicode.IsUpper(first) {
			continue
		}
		out = append(out, diag.New(
			r.Name(),
			fmt.Sprintf("Class name '%s' should use CamelCase (start with uppercase)", name),
			diag.SevWarning,
			diag.CatStyle,
			diag.Span(path, i+1, m[2]+1, m[3]+1),
		).WithSuggestion(fmt.Sprintf("Rename to '%s'", toCamelCase(name))))
	}
	return out, nil
}

// SnakeCaseFileName flags file names containing upper-case letters.
type SnakeCaseFileName struct{}

func (SnakeCaseFileName) Name() string            { return "snake_case_file_names" }
func (SnakeCaseFileName) Category() diag.Category { return diag.CatStyle }

func (r SnakeCaseFileName) Check(path, _ string) ([]diag.Diagnostic, error) {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" || !strings.ContainsFunc(stem, unicode.IsUpper) {
		return nil, nil
	}
	return []diag.Diagnostic{
		diag.New(
			r.Name(),
			fmt.Sprintf("File name '%s' should use snake_case", stem),
			diag.SevWarning,
			diag.CatStyle,
			diag.Point(path, 1, 1),
		).WithSuggestion(fmt.Sprintf("Rename file to '%s.dart'", toSnakeCase(stem))),
	}, nil
}

// PrivateFieldUnderscore is a placeholder: underscored private fields are
// already the correct form and detecting the opposite needs a real parser.
// It stays registered so configs can disable it by name.
type PrivateFieldUnderscore struct{}

func (PrivateFieldUnderscore) Name() string            { return "private_field_underscore" }
func (PrivateFieldUnderscore) Category() diag.Category { return diag.CatStyle }

func (PrivateFieldUnderscore) Check(_, _ string) ([]diag.Diagnostic, error) {
	return nil, nil
}

// LineLength flags lines longer than Max bytes.
type LineLength struct {
	Max int
}

func (LineLength) Name() string            { return "line_length" }
func (LineLength) Category() diag.Category { return diag.CatStyle }

func (r LineLength) Check(path, content string) ([]diag.Diagnostic, error) {
	var out []diag.Diagnostic
	for i, line := range lines(content) {
		if len(line) <= r.Max {
			continue
		}
		out = append(out, diag.New(
			r.Name(),
			fmt.Sprintf("Line exceeds maximum length of %d characters (actual: %d)", r.Max, len(line)),
			diag.SevInfo,
			diag.CatStyle,
			diag.Span(path, i+1, r.Max+1, len(line)),
		).WithSuggestion("Consider breaking this line into multiple lines"))
	}
	return out, nil
}

var titleCaser = cases.Title(language.Und, cases.NoLower)

// toCamelCase upper-cases the first letter and every letter following an
// underscore, dropping the underscores: my_widget -> MyWidget.
func toCamelCase(s string) string {
	var b strings.Builder
	for _, part := range strings.Split(s, "_") {
		if part == "" {
			continue
		}
		b.WriteString(titleCaser.String(part))
	}
	return b.String()
}

// toSnakeCase: MyWidget -> my_widget.
func toSnakeCase(s string) string {
	var b strings.Builder
	for i, r := range []rune(s) {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
