package source

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar"
)

// DartExt is the extension of files picked up by FindDartFiles.
const DartExt = ".dart"

// DefaultExcludedSegments lists directory names that never contain
// hand-written sources: tool caches, build output and vendored packages.
var DefaultExcludedSegments = []string{".dart_tool", "build", ".pub", "packages"}

// DartFile is a loaded source file.
type DartFile struct {
	Path    string
	Content string
}

// Load reads path, stripping a UTF-8 BOM and normalising CRLF line endings.
func Load(path string) (DartFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return DartFile{}, err
	}
	raw, _ = removeBOM(raw)
	raw, _ = normalizeCRLF(raw)
	return DartFile{Path: path, Content: string(raw)}, nil
}

// IsDartFile reports whether path has the .dart extension.
func IsDartFile(path string) bool {
	return filepath.Ext(path) == DartExt
}

// FindOptions tunes source discovery.
type FindOptions struct {
	// ExcludePatterns are doublestar globs matched against the slash-separated
	// path relative to the root (e.g. "build/**", "lib/generated/*.g.dart").
	ExcludePatterns []string
	// SkipUnreadable drops files that fail to load instead of returning an error.
	SkipUnreadable bool
}

// FindDartFiles walks root recursively, following symbolic links, and loads
// every .dart file that is not under an excluded directory segment.
// Results are sorted by path.
func FindDartFiles(root string, opts FindOptions) ([]DartFile, error) {
	paths, err := listDartFiles(root, opts.ExcludePatterns)
	if err != nil {
		return nil, err
	}
	files := make([]DartFile, 0, len(paths))
	for _, p := range paths {
		f, err := Load(p)
		if err != nil {
			if opts.SkipUnreadable {
				continue
			}
			return nil, fmt.Errorf("failed to load %s: %w", p, err)
		}
		files = append(files, f)
	}
	return files, nil
}

// listDartFiles returns the sorted paths FindDartFiles would load.
func listDartFiles(root string, excludePatterns []string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		if IsDartFile(root) {
			return []string{root}, nil
		}
		return nil, nil
	}

	w := walker{
		root:      root,
		patterns:  excludePatterns,
		ancestors: make(map[string]struct{}),
	}
	if err := w.walk(root); err != nil {
		return nil, err
	}
	sort.Strings(w.files)
	return w.files, nil
}

type walker struct {
	root     string
	patterns []string
	// ancestors holds the real paths of the directories on the current
	// descent. A directory reached through two links is walked twice.
	ancestors map[string]struct{}
	files     []string
}

// walk descends into dir. filepath.WalkDir does not follow symlinks, so
// directories are resolved manually and a link back to an ancestor is a
// cycle.
func (w *walker) walk(dir string) error {
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		if dir == w.root {
			return err
		}
		return nil
	}
	if _, cycle := w.ancestors[resolved]; cycle {
		return nil
	}
	w.ancestors[resolved] = struct{}{}
	defer delete(w.ancestors, resolved)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if dir == w.root {
			return err
		}
		return nil
	}
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		isDir := entry.IsDir()
		if entry.Type()&fs.ModeSymlink != 0 {
			target, err := os.Stat(path)
			if err != nil {
				// dangling link
				continue
			}
			isDir = target.IsDir()
		} else if !isDir && !entry.Type().IsRegular() {
			continue
		}

		if w.excluded(path, isDir) {
			continue
		}
		if isDir {
			if err := w.walk(path); err != nil {
				return err
			}
			continue
		}
		if IsDartFile(path) {
			w.files = append(w.files, path)
		}
	}
	return nil
}

func (w *walker) excluded(path string, isDir bool) bool {
	return IsExcluded(w.root, path, isDir, w.patterns)
}

// IsExcluded reports whether path under root is skipped by the default
// directory segments or by one of the doublestar patterns.
func IsExcluded(root, path string, isDir bool, patterns []string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	if isDir && HasExcludedSegment(rel) {
		return true
	}
	for _, pattern := range patterns {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
		if isDir {
			// "build/**" should prune the directory itself, not only its children.
			if ok, _ := doublestar.Match(pattern, rel+"/x"); ok && strings.HasSuffix(pattern, "/**") {
				return true
			}
		}
	}
	return false
}

// HasExcludedSegment reports whether any segment of the slash-separated
// relative path is one of DefaultExcludedSegments.
func HasExcludedSegment(rel string) bool {
	for _, seg := range strings.Split(rel, "/") {
		for _, ex := range DefaultExcludedSegments {
			if seg == ex {
				return true
			}
		}
	}
	return false
}
