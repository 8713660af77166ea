package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reanalyzer/internal/config"
	"reanalyzer/internal/diagfmt"
	"reanalyzer/internal/rules"
)

func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func TestAnalyzeJSONReportsErrors(t *testing.T) {
	root := writeProject(t, map[string]string{
		"lib/main.dart": "void main() {\n  try {\n    run();\n  } catch (e) {}\n}\n",
	})

	var stdout, notes bytes.Buffer
	code, err := analyze(context.Background(), analyzeOptions{
		Root:      root,
		Config:    config.Default(),
		Selection: rules.SelectRuntime,
		Format:    diagfmt.FormatJSON,
	}, &stdout, &notes)
	require.NoError(t, err)
	assert.Equal(t, 1, code)

	var out diagfmt.DiagnosticsOutput
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &out))
	assert.GreaterOrEqual(t, out.Stats.Errors, 1)
	assert.Contains(t, notes.String(), "Found 1 Dart files")
}

func TestAnalyzeCleanProjectExitsZero(t *testing.T) {
	root := writeProject(t, map[string]string{
		"lib/main.dart": "void main() {\n  run();\n}\n",
	})

	var stdout bytes.Buffer
	code, err := analyze(context.Background(), analyzeOptions{
		Root:      root,
		Config:    config.Default(),
		Selection: rules.SelectRuntime,
		Format:    diagfmt.FormatJSON,
	}, &stdout, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, 0, code)

	var out diagfmt.DiagnosticsOutput
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &out))
	assert.Equal(t, 0, out.Count)
}

func TestAnalyzeTimingsGoToNotes(t *testing.T) {
	root := writeProject(t, map[string]string{"a.dart": "void main() {}\n"})

	var stdout, notes bytes.Buffer
	_, err := analyze(context.Background(), analyzeOptions{
		Root:      root,
		Config:    config.Default(),
		Selection: rules.SelectRuntime,
		Format:    diagfmt.FormatShort,
		Timings:   true,
	}, &stdout, &notes)
	require.NoError(t, err)
	assert.Contains(t, notes.String(), "discover")
	assert.Contains(t, notes.String(), "1 file")
	assert.NotContains(t, stdout.String(), "discover")
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reanalyzer.toml")

	require.NoError(t, writeDefaultConfig(path, false))
	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.Default().MaxLineLength, cfg.MaxLineLength)

	err = writeDefaultConfig(path, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	require.NoError(t, writeDefaultConfig(path, true))
}

func TestParseProgressMode(t *testing.T) {
	for in, want := range map[string]progressMode{"": progressAuto, "auto": progressAuto, "ON": progressOn, " off ": progressOff, "false": progressOff} {
		got, err := parseProgressMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := parseProgressMode("sometimes")
	assert.Error(t, err)
}

func TestProgressModeEnabled(t *testing.T) {
	tty := progressEnv{StderrIsTTY: true}
	tests := []struct {
		name string
		mode progressMode
		env  progressEnv
		want bool
	}{
		{"auto on terminal", progressAuto, tty, true},
		{"auto piped", progressAuto, progressEnv{}, false},
		{"auto in CI", progressAuto, progressEnv{StderrIsTTY: true, CI: true}, false},
		{"auto dumb terminal", progressAuto, progressEnv{StderrIsTTY: true, DumbTerminal: true}, false},
		{"forced on piped", progressOn, progressEnv{}, true},
		{"forced off", progressOff, tty, false},
		{"json output", progressOn, progressEnv{StderrIsTTY: true, JSON: true}, false},
		{"quiet", progressOn, progressEnv{StderrIsTTY: true, Quiet: true}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.mode.enabled(tt.env))
		})
	}
}

func TestServeAnswersQueries(t *testing.T) {
	root := writeProject(t, map[string]string{
		"lib/main.dart": "void main() {\n  try {\n    run();\n  } catch (e) {}\n}\n",
	})
	cfg := config.Default()
	cfg.StyleRules.Enabled = false

	ctx, cancel := context.WithCancel(context.Background())
	addrCh := make(chan net.Addr, 1)
	errCh := make(chan error, 1)
	go func() {
		errCh <- serve(ctx, serveOptions{
			Root:    root,
			Config:  cfg,
			Address: "127.0.0.1:0",
			Ready:   func(a net.Addr) { addrCh <- a },
		}, func(string, ...any) {})
	}()

	var addr net.Addr
	select {
	case addr = <-addrCh:
	case err := <-errCh:
		t.Fatalf("serve exited early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not start")
	}

	conn, err := net.Dial("tcp", addr.String())
	require.NoError(t, err)
	defer conn.Close()

	_, err = fmt.Fprintln(conn, `{"method":"get_stats"}`)
	require.NoError(t, err)
	line, err := bufio.NewReader(conn).ReadBytes('\n')
	require.NoError(t, err)

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			Errors int `json:"errors"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(line, &resp))
	assert.True(t, resp.Success)
	assert.GreaterOrEqual(t, resp.Data.Errors, 1)

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop")
	}
}
