package rules

import (
	"fmt"
	"regexp"
	"strings"

	"reanalyzer/internal/diag"
)

var (
	dynamicRe    = regexp.MustCompile(`\bdynamic\b`)
	emptyCatchRe = regexp.MustCompile(`catch\s*\([^)]*\)\s*\{\s*\}`)
	importRe     = regexp.MustCompile(`^import\s+['"]([^'"]+)['"](?:\s+as\s+(\w+))?;`)
	printRe      = regexp.MustCompile(`\bprint\s*\(`)
	nullCheckRe  = regexp.MustCompile(`([a-zA-Z_][a-zA-Z0-9_]*)!\.`)
)

// matchAll reports one diagnostic per regex match on every non-comment line.
func matchAll(re *regexp.Regexp, skipComments bool, path, content string, build func(loc diag.Location) diag.Diagnostic) []diag.Diagnostic {
	var out []diag.Diagnostic
	for i, line := range lines(content) {
		if skipComments && isCommentLine(line) {
			continue
		}
		for _, m := range re.FindAllStringIndex(line, -1) {
			out = append(out, build(diag.Span(path, i+1, m[0]+1, m[1]+1)))
		}
	}
	return out
}

// AvoidDynamic flags uses of the dynamic type.
type AvoidDynamic struct{}

func (AvoidDynamic) Name() string            { return "avoid_dynamic" }
func (AvoidDynamic) Category() diag.Category { return diag.CatRuntime }

func (r AvoidDynamic) Check(path, content string) ([]diag.Diagnostic, error) {
	return matchAll(dynamicRe, true, path, content, func(loc diag.Location) diag.Diagnostic {
		return diag.New(r.Name(), "Avoid using 'dynamic' type as it bypasses type safety",
			diag.SevWarning, diag.CatRuntime, loc).
			WithSuggestion("Use a specific type or Object? instead")
	}), nil
}

// AvoidEmptyCatch flags catch blocks with an empty body on a single line.
type AvoidEmptyCatch struct{}

func (AvoidEmptyCatch) Name() string            { return "avoid_empty_catch" }
func (AvoidEmptyCatch) Category() diag.Category { return diag.CatRuntime }

func (r AvoidEmptyCatch) Check(path, content string) ([]diag.Diagnostic, error) {
	var out []diag.Diagnostic
	for i, line := range lines(content) {
		m := emptyCatchRe.FindStringIndex(line)
		if m == nil {
			continue
		}
		out = append(out, diag.New(r.Name(), "Empty catch block swallows exceptions silently",
			diag.SevError, diag.CatRuntime, diag.Span(path, i+1, m[0]+1, m[1]+1)).
			WithSuggestion("Handle the exception or at least log it"))
	}
	return out, nil
}

// UnusedImport flags imports whose alias (or file stem) never appears on any
// other line. It is a textual heuristic, not symbol resolution.
type UnusedImport struct{}

func (UnusedImport) Name() string            { return "unused_import" }
func (UnusedImport) Category() diag.Category { return diag.CatRuntime }

type importLine struct {
	index  int
	symbol string
	text   string
}

func (r UnusedImport) Check(path, content string) ([]diag.Diagnostic, error) {
	all := lines(content)
	var imports []importLine
	for i, line := range all {
		m := importRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		symbol := m[2]
		if symbol == "" {
			parts := strings.Split(m[1], "/")
			symbol = strings.TrimSuffix(parts[len(parts)-1], ".dart")
		}
		if symbol == "" {
			continue
		}
		imports = append(imports, importLine{index: i, symbol: symbol, text: line})
	}

	var out []diag.Diagnostic
	for _, imp := range imports {
		used := false
		for i, line := range all {
			if i == imp.index {
				continue
			}
			if strings.Contains(line, imp.symbol) {
				used = true
				break
			}
		}
		if used {
			continue
		}
		out = append(out, diag.New(r.Name(), fmt.Sprintf("Import '%s' is unused", imp.symbol),
			diag.SevWarning, diag.CatRuntime, diag.Span(path, imp.index+1, 1, len(imp.text))).
			WithSuggestion("Remove this unused import"))
	}
	return out, nil
}

// AvoidPrint flags print calls.
type AvoidPrint struct{}

func (AvoidPrint) Name() string            { return "avoid_print" }
func (AvoidPrint) Category() diag.Category { return diag.CatRuntime }

func (r AvoidPrint) Check(path, content string) ([]diag.Diagnostic, error) {
	return matchAll(printRe, true, path, content, func(loc diag.Location) diag.Diagnostic {
		return diag.New(r.Name(), "Avoid using 'print' in production code",
			diag.SevInfo, diag.CatRuntime, loc).
			WithSuggestion("Use a proper logging library like logger or developer.log")
	}), nil
}

// AvoidNullCheckOnNullable flags the null assertion operator followed by a
// member access (value!.field).
type AvoidNullCheckOnNullable struct{}

func (AvoidNullCheckOnNullable) Name() string            { return "avoid_null_check_on_nullable" }
func (AvoidNullCheckOnNullable) Category() diag.Category { return diag.CatRuntime }

func (r AvoidNullCheckOnNullable) Check(path, content string) ([]diag.Diagnostic, error) {
	return matchAll(nullCheckRe, true, path, content, func(loc diag.Location) diag.Diagnostic {
		return diag.New(r.Name(), "Using null assertion operator (!) can cause runtime errors if value is null",
			diag.SevWarning, diag.CatRuntime, loc).
			WithSuggestion("Use null-aware operators (?., ??) or null checks instead")
	}), nil
}
