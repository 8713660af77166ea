package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherBatchesDartChanges(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "lib"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "build"), 0o755))

	batches := make(chan []string, 8)
	w, err := New(root, func(paths []string) { batches <- paths }, Options{Debounce: 50 * time.Millisecond})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	main := filepath.Join(root, "lib", "main.dart")
	require.NoError(t, os.WriteFile(main, []byte("void main() {}\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(root, "lib", "notes.txt"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(root, "build", "gen.dart"), []byte("x"), 0o600))

	select {
	case paths := <-batches:
		assert.Equal(t, []string{main}, paths)
	case <-time.After(5 * time.Second):
		t.Fatal("no batch delivered")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestNewMissingRoot(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing"), nil, Options{})
	assert.Error(t, err)
}
