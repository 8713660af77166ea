package diag

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Severity defines the importance of a diagnostic.
type Severity uint8

const (
	// SevInfo is for informational diagnostics.
	SevInfo Severity = iota
	// SevWarning is for warning diagnostics.
	SevWarning
	SevError
)

func (s Severity) String() string {
	switch s {
	case SevInfo:
		return "info"
	case SevWarning:
		return "warning"
	case SevError:
		return "error"
	}
	return "unknown"
}

// ParseSeverity accepts the lower-case names produced by String.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "info":
		return SevInfo, nil
	case "warning":
		return SevWarning, nil
	case "error":
		return SevError, nil
	}
	return SevInfo, fmt.Errorf("unknown severity %q (expected error|warning|info)", s)
}

func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Severity) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseSeverity(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Category groups rules by the kind of problem they report.
type Category uint8

const (
	CatStyle Category = iota
	CatRuntime
)

func (c Category) String() string {
	switch c {
	case CatStyle:
		return "style"
	case CatRuntime:
		return "runtime"
	}
	return "unknown"
}

// ParseCategory accepts "style" or "runtime".
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "style":
		return CatStyle, nil
	case "runtime":
		return CatRuntime, nil
	}
	return CatStyle, fmt.Errorf("unknown category %q (expected style|runtime)", s)
}

func (c Category) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *Category) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseCategory(raw)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
