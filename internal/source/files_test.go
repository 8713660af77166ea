package source

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func relPaths(t *testing.T, root string, files []DartFile) []string {
	t.Helper()
	out := make([]string, 0, len(files))
	for _, f := range files {
		rel, err := filepath.Rel(root, f.Path)
		require.NoError(t, err)
		out = append(out, filepath.ToSlash(rel))
	}
	return out
}

func TestFindDartFilesSkipsExcludedSegments(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "lib", "main.dart"), "void main() {}\n")
	writeFile(t, filepath.Join(root, "lib", "src", "util.dart"), "")
	writeFile(t, filepath.Join(root, "lib", "README.md"), "")
	writeFile(t, filepath.Join(root, "build", "gen.dart"), "")
	writeFile(t, filepath.Join(root, ".dart_tool", "cache.dart"), "")
	writeFile(t, filepath.Join(root, "lib", "packages", "vendored.dart"), "")
	writeFile(t, filepath.Join(root, ".pub", "x.dart"), "")

	files, err := FindDartFiles(root, FindOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"lib/main.dart", "lib/src/util.dart"}, relPaths(t, root, files))
}

func TestFindDartFilesHonoursExcludePatterns(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "lib", "a.dart"), "")
	writeFile(t, filepath.Join(root, "lib", "a.g.dart"), "")
	writeFile(t, filepath.Join(root, "generated", "b.dart"), "")

	files, err := FindDartFiles(root, FindOptions{
		ExcludePatterns: []string{"**/*.g.dart", "generated/**"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"lib/a.dart"}, relPaths(t, root, files))
}

func TestFindDartFilesFollowsSymlinks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	root := t.TempDir()
	outside := t.TempDir()
	writeFile(t, filepath.Join(outside, "shared.dart"), "")
	require.NoError(t, os.Symlink(outside, filepath.Join(root, "linked")))
	// cycle back to root must not loop forever
	require.NoError(t, os.Symlink(root, filepath.Join(root, "loop")))

	files, err := FindDartFiles(root, FindOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"linked/shared.dart"}, relPaths(t, root, files))
}

func TestFindDartFilesWalksDirectoryUnderEveryLink(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	root := t.TempDir()
	outside := t.TempDir()
	writeFile(t, filepath.Join(outside, "shared.dart"), "")
	require.NoError(t, os.Symlink(outside, filepath.Join(root, "a")))
	require.NoError(t, os.Symlink(outside, filepath.Join(root, "b")))
	// a link inside the shared dir back to itself is still a cycle
	require.NoError(t, os.Symlink(outside, filepath.Join(outside, "self")))

	files, err := FindDartFiles(root, FindOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a/shared.dart", "b/shared.dart"}, relPaths(t, root, files))
}

func TestLoadNormalisesContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.dart")
	writeFile(t, path, "\xEF\xBB\xBFclass A {}\r\nclass B {}\r\n")

	f, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "class A {}\nclass B {}\n", f.Content)
}

func TestFindDartFilesMissingRoot(t *testing.T) {
	_, err := FindDartFiles(filepath.Join(t.TempDir(), "nope"), FindOptions{})
	assert.Error(t, err)
}

func TestHasExcludedSegment(t *testing.T) {
	assert.True(t, HasExcludedSegment("a/build/b"))
	assert.False(t, HasExcludedSegment("a/builder/b"))
}

func TestIsExcluded(t *testing.T) {
	root := filepath.FromSlash("/ws")
	at := func(rel string) string { return filepath.Join(root, filepath.FromSlash(rel)) }
	patterns := []string{"lib/gen/**", "**/*.g.dart"}

	assert.True(t, IsExcluded(root, at("build"), true, nil))
	assert.False(t, IsExcluded(root, at("lib"), true, patterns))
	assert.True(t, IsExcluded(root, at("lib/gen"), true, patterns))
	assert.True(t, IsExcluded(root, at("lib/model.g.dart"), false, patterns))
	assert.False(t, IsExcluded(root, at("lib/model.dart"), false, patterns))
}
