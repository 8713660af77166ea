package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reanalyzer/internal/config"
	"reanalyzer/internal/diag"
	"reanalyzer/internal/testkit"
)

func TestRuleFindings(t *testing.T) {
	tests := []struct {
		name     string
		rule     Rule
		path     string
		content  string
		want     int
		severity diag.Severity
	}{
		{"camel case valid", CamelCaseClassName{}, "test.dart", "class MyClass {\n  void test() {}\n}\n", 0, 0},
		{"camel case invalid", CamelCaseClassName{}, "test.dart", "class myClass {\n  void test() {}\n}\n", 1, diag.SevWarning},
		{"camel case abstract", CamelCaseClassName{}, "test.dart", "  abstract class shape {}\n", 1, diag.SevWarning},
		{"snake file valid", SnakeCaseFileName{}, "my_test_file.dart", "", 0, 0},
		{"snake file invalid", SnakeCaseFileName{}, "lib/MyTestFile.dart", "", 1, diag.SevWarning},
		{"line length valid", LineLength{Max: 80}, "test.dart", "class Test {\n  void short() {}\n}\n", 0, 0},
		{"line length invalid", LineLength{Max: 50}, "test.dart", "class Test {\n  void thisIsAReallyLongMethodNameThatExceedsTheLimit() {}\n}\n", 1, diag.SevInfo},
		{"private field", PrivateFieldUnderscore{}, "test.dart", "  final String _name;\n", 0, 0},
		{"dynamic used", AvoidDynamic{}, "test.dart", "void test(dynamic param) {}\n", 1, diag.SevWarning},
		{"dynamic in comment", AvoidDynamic{}, "test.dart", "  // dynamic is bad\n", 0, 0},
		{"dynamic absent", AvoidDynamic{}, "test.dart", "void test(String param) {}\n", 0, 0},
		{"empty catch", AvoidEmptyCatch{}, "test.dart", "try {\n  doSomething();\n} catch (e) {}\n", 1, diag.SevError},
		{"non-empty catch", AvoidEmptyCatch{}, "test.dart", "try {\n  doSomething();\n} catch (e) {\n  print(e);\n}\n", 0, 0},
		{"print used", AvoidPrint{}, "test.dart", "void test() {\n  print('hello');\n}\n", 1, diag.SevInfo},
		{"print twice", AvoidPrint{}, "test.dart", "print(a); print(b);\n", 2, diag.SevInfo},
		{"null assertion", AvoidNullCheckOnNullable{}, "test.dart", "void test(String? value) {\n  print(value!.length);\n}\n", 1, diag.SevWarning},
		{"unused import", UnusedImport{}, "test.dart", "import 'dart:async';\n\nvoid test() {\n  print('hello');\n}\n", 1, diag.SevWarning},
		{"aliased import used", UnusedImport{}, "test.dart", "import 'package:http/http.dart' as http;\n\nvoid f() => http.get(u);\n", 0, 0},
		{"file-stem import used", UnusedImport{}, "test.dart", "import 'src/widgets.dart';\nfinal w = widgets;\n", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.rule.Check(tt.path, tt.content)
			require.NoError(t, err)
			require.Len(t, got, tt.want)
			for _, d := range got {
				assert.Equal(t, tt.rule.Name(), d.RuleID)
				assert.Equal(t, tt.rule.Category(), d.Category)
				assert.Equal(t, tt.severity, d.Severity)
				assert.Equal(t, tt.path, d.Location.File)
				assert.NotNil(t, d.Suggestion)
			}
		})
	}
}

func TestCamelCaseLocationAndSuggestion(t *testing.T) {
	got, err := CamelCaseClassName{}.Check("a.dart", "\nclass my_widget {}\n")
	require.NoError(t, err)
	require.Len(t, got, 1)
	d := got[0]
	assert.Equal(t, 2, d.Location.Line)
	assert.Equal(t, 7, d.Location.Column)
	require.NotNil(t, d.Location.EndColumn)
	assert.Equal(t, 16, *d.Location.EndColumn)
	assert.Equal(t, "Rename to 'MyWidget'", *d.Suggestion)
}

func TestSnakeCaseSuggestion(t *testing.T) {
	got, err := SnakeCaseFileName{}.Check("MyTestFile.dart", "")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Rename file to 'my_test_file.dart'", *got[0].Suggestion)
	assert.Nil(t, got[0].Location.EndLine)
}

func TestNullAssertionColumns(t *testing.T) {
	got, err := AvoidNullCheckOnNullable{}.Check("a.dart", "  x = value!.length;\n")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 7, got[0].Location.Column)
	assert.Equal(t, 14, *got[0].Location.EndColumn)
}

func TestFromConfig(t *testing.T) {
	cfg := config.Default()
	assert.Len(t, FromConfig(cfg, SelectAll), 9)
	assert.Equal(t, []string{
		"camel_case_class_names", "snake_case_file_names", "private_field_underscore", "line_length",
	}, Names(FromConfig(cfg, SelectStyle)))

	cfg.RuntimeRules.DisabledRules = []string{"avoid_print"}
	cfg.StyleRules.Enabled = false
	assert.Equal(t, []string{
		"avoid_dynamic", "avoid_empty_catch", "unused_import", "avoid_null_check_on_nullable",
	}, Names(FromConfig(cfg, SelectAll)))

	cfg.Enabled = false
	assert.Empty(t, FromConfig(cfg, SelectAll))
}

func TestLineLengthUsesConfiguredMax(t *testing.T) {
	cfg := config.Default()
	cfg.MaxLineLength = 10
	var ll LineLength
	for _, r := range FromConfig(cfg, SelectStyle) {
		if l, ok := r.(LineLength); ok {
			ll = l
		}
	}
	assert.Equal(t, 10, ll.Max)
}

func TestAllRulesReportInBounds(t *testing.T) {
	const path = "/project/lib/MyWidget.dart"
	content := "import 'package:foo/unused.dart';\n" +
		"class my_widget {\n" +
		"  String name;\n" +
		"  dynamic value;\n" +
		"  void run() {\n" +
		"    try { go(value!.x); } catch (e) {}\n" +
		"    print('a very long line that keeps going well past the configured limit of forty');\n" +
		"  }\n" +
		"}\n"
	var found []diag.Diagnostic
	for _, r := range All(40) {
		ds, err := r.Check(path, content)
		require.NoError(t, err, r.Name())
		found = append(found, ds...)
	}
	require.NotEmpty(t, found)
	assert.NoError(t, testkit.CheckLocations(path, content, found))
}
