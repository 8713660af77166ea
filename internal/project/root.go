// Package project locates the Dart package that encloses a directory.
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ManifestName is the Dart package manifest.
const ManifestName = "pubspec.yaml"

// Pubspec holds the manifest fields reported by the CLI.
type Pubspec struct {
	Name        string            `yaml:"name"`
	Version     string            `yaml:"version"`
	Environment map[string]string `yaml:"environment"`
	// Flutter is non-nil when the manifest has a flutter section.
	Flutter map[string]any `yaml:"flutter"`
}

// SDK returns the declared Dart SDK constraint, if any.
func (p Pubspec) SDK() string {
	return p.Environment["sdk"]
}

// IsFlutter reports whether the package depends on the Flutter tooling.
func (p Pubspec) IsFlutter() bool {
	return p.Flutter != nil
}

// FindPubspec walks up from startDir to locate pubspec.yaml.
func FindPubspec(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, ManifestName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// FindProjectRoot returns the directory containing pubspec.yaml, if any.
func FindProjectRoot(startDir string) (root string, ok bool, err error) {
	manifestPath, ok, err := FindPubspec(startDir)
	if err != nil || !ok {
		return "", ok, err
	}
	return filepath.Dir(manifestPath), true, nil
}

// LoadPubspec parses the manifest at path.
func LoadPubspec(path string) (Pubspec, error) {
	// #nosec G304 -- path is the located project manifest
	data, err := os.ReadFile(path)
	if err != nil {
		return Pubspec{}, err
	}
	var p Pubspec
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Pubspec{}, fmt.Errorf("%s: failed to parse: %w", path, err)
	}
	return p, nil
}
