package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelShouldEmit(t *testing.T) {
	assert.False(t, LevelOff.ShouldEmit(ScopeError))
	assert.True(t, LevelError.ShouldEmit(ScopeError))
	assert.False(t, LevelError.ShouldEmit(ScopeSession))
	assert.True(t, LevelSession.ShouldEmit(ScopeSession))
	assert.False(t, LevelSession.ShouldEmit(ScopeDetail))
	assert.True(t, LevelDetail.ShouldEmit(ScopeDetail))
	assert.False(t, LevelDetail.ShouldEmit(ScopeMessage))
	assert.True(t, LevelDebug.ShouldEmit(ScopeMessage))
}

func TestParseLevel(t *testing.T) {
	for _, name := range []string{"off", "error", "session", "detail", "debug"} {
		lvl, err := ParseLevel(name)
		require.NoError(t, err)
		assert.Equal(t, name, lvl.String())
	}
	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}

func TestStreamTracerFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelSession, FormatText)

	Point(tr, ScopeSession, "scan", "started", 0)
	Point(tr, ScopeMessage, "route", "dropped", 0)

	out := buf.String()
	assert.Contains(t, out, "scan (started)")
	assert.NotContains(t, out, "route")
}

func TestSpanNDJSON(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelDebug, FormatNDJSON)

	span := Begin(tr, ScopeSession, "session", 0)
	span.WithExtra("files", "3").End("done")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var end jsonEvent
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &end))
	assert.Equal(t, "end", end.Kind)
	assert.Equal(t, "session", end.Name)
	assert.Equal(t, "done", end.Detail)
	assert.Equal(t, "3", end.Extra["files"])
	assert.Contains(t, end.Extra, "duration_us")
	assert.Equal(t, span.ID(), end.SpanID)
}

func TestNewOffReturnsNop(t *testing.T) {
	tr, err := New(Config{Level: LevelOff})
	require.NoError(t, err)
	assert.False(t, tr.Enabled())

	span := Begin(tr, ScopeSession, "x", 0)
	span.End("")
	assert.Zero(t, span.ID())
}

func TestNewAutoFormatFromPath(t *testing.T) {
	path := t.TempDir() + "/trace.ndjson"
	tr, err := New(Config{Level: LevelDebug, OutputPath: path})
	require.NoError(t, err)
	st, ok := tr.(*StreamTracer)
	require.True(t, ok)
	assert.Equal(t, FormatNDJSON, st.format)
	require.NoError(t, tr.Close())
}

func TestContextRoundTrip(t *testing.T) {
	assert.Equal(t, Nop, FromContext(context.Background()))

	tr := NewStreamTracer(&bytes.Buffer{}, LevelDebug, FormatText)
	ctx := WithTracer(context.Background(), tr)
	assert.Same(t, tr, FromContext(ctx))
}

func TestFormatTextSortsExtra(t *testing.T) {
	ev := &Event{
		Time:  time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
		Kind:  KindPoint,
		Scope: ScopeDetail,
		Name:  "file",
		Extra: map[string]string{"b": "2", "a": "1"},
	}
	assert.Equal(t, "10:00:00.000 • file {a=1, b=2}\n", string(FormatEvent(ev, FormatText)))
}
