package diagfmt

import (
	"fmt"
	"path/filepath"

	"reanalyzer/internal/source"
)

// PathMode specifies how file paths are displayed.
type PathMode uint8

const (
	// PathModeAuto shows paths relative to the base when they are inside it.
	PathModeAuto PathMode = iota
	// PathModeAbsolute always uses the path as scanned.
	PathModeAbsolute
	PathModeRelative
	PathModeBasename
)

// Format selects an output renderer.
type Format string

const (
	FormatText  Format = "text"
	FormatShort Format = "short"
	FormatJSON  Format = "json"
)

// ParseFormat validates a --format value.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatText, FormatShort, FormatJSON:
		return Format(s), nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unknown format %q (expected: text|short|json)", s)
	}
}

// TextOpts configures the text and short renderers.
type TextOpts struct {
	Color    bool
	PathMode PathMode
	Base     string // base directory for relative paths
	Width    int    // max line width for messages, 0 = unlimited
	// HideSuggestions drops the fix hint printed under each diagnostic.
	HideSuggestions bool
	// Max limits printed diagnostics, 0 = all. The summary still counts all.
	Max int
}

// JSONOpts configures JSON output of diagnostics.
type JSONOpts struct {
	PathMode PathMode
	Base     string
	Max      int
}

func displayPath(path string, mode PathMode, base string) string {
	switch mode {
	case PathModeAbsolute:
		return path
	case PathModeBasename:
		return filepath.Base(path)
	case PathModeAuto:
		if base == "" {
			return path
		}
		rel, err := source.RelativePath(path, base)
		if err != nil {
			return path
		}
		return rel
	case PathModeRelative:
		if base == "" {
			return path
		}
		rel, err := filepath.Rel(base, path)
		if err != nil {
			return path
		}
		return rel
	default:
		return path
	}
}
