package diag

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiagnosticJSONShape(t *testing.T) {
	d := New("avoid_print", "no print", SevInfo, CatRuntime, Span("lib/a.dart", 3, 5, 11)).
		WithSuggestion("use a logger")

	data, err := json.Marshal(d)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "avoid_print", raw["rule_id"])
	assert.Equal(t, "info", raw["severity"])
	assert.Equal(t, "runtime", raw["category"])
	assert.Equal(t, "use a logger", raw["suggestion"])

	loc := raw["location"].(map[string]any)
	assert.EqualValues(t, 3, loc["line"])
	assert.EqualValues(t, 3, loc["end_line"])
	assert.EqualValues(t, 11, loc["end_column"])

	var back Diagnostic
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, SevInfo, back.Severity)
	assert.Equal(t, CatRuntime, back.Category)
}

func TestPointOmitsEnd(t *testing.T) {
	data, err := json.Marshal(Point("a.dart", 1, 1))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "end_line")
}

func TestParseSeverityRejectsUnknown(t *testing.T) {
	_, err := ParseSeverity("fatal")
	assert.Error(t, err)

	sev, err := ParseSeverity(" Warning ")
	require.NoError(t, err)
	assert.Equal(t, SevWarning, sev)
}

func TestBagSortIsDeterministic(t *testing.T) {
	bag := NewBag(4)
	bag.Add(New("b", "", SevInfo, CatStyle, Point("b.dart", 1, 1)))
	bag.Add(New("z", "", SevWarning, CatStyle, Point("a.dart", 2, 1)))
	bag.Add(New("a", "", SevError, CatRuntime, Point("a.dart", 2, 1)))
	bag.Add(New("c", "", SevInfo, CatStyle, Point("a.dart", 1, 9)))
	bag.Sort()

	var got []string
	for _, d := range bag.Items() {
		got = append(got, d.RuleID)
	}
	assert.Equal(t, []string{"c", "a", "z", "b"}, got)
	assert.True(t, bag.HasErrors())
}

func TestComputeStats(t *testing.T) {
	ds := []Diagnostic{
		New("r1", "", SevError, CatRuntime, Point("a.dart", 1, 1)),
		New("r2", "", SevWarning, CatStyle, Point("a.dart", 2, 1)),
		New("r3", "", SevInfo, CatStyle, Point("b.dart", 1, 1)),
	}
	st := ComputeStats(ds)
	assert.Equal(t, Stats{
		Total:           3,
		Errors:          1,
		Warnings:        1,
		Info:            1,
		StyleIssues:     2,
		RuntimeIssues:   1,
		FilesWithIssues: 2,
	}, st)
}
