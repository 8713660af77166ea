package trace

import "fmt"

// Level controls tracing verbosity.
type Level uint8

const (
	// LevelOff disables tracing.
	LevelOff     Level = iota // no tracing
	LevelError                // failures only
	LevelSession              // session + scan boundaries
	LevelDetail               // per-file and interception events
	LevelDebug                // every routed message
)

// String returns the string representation of Level.
func (l Level) String() string {
	switch l {
	case LevelOff:
		return "off"
	case LevelError:
		return "error"
	case LevelSession:
		return "session"
	case LevelDetail:
		return "detail"
	case LevelDebug:
		return "debug"
	default:
		return "unknown"
	}
}

// ParseLevel converts a string to a Level.
func ParseLevel(s string) (Level, error) {
	switch s {
	case "off", "OFF":
		return LevelOff, nil
	case "error", "ERROR":
		return LevelError, nil
	case "session", "SESSION":
		return LevelSession, nil
	case "detail", "DETAIL":
		return LevelDetail, nil
	case "debug", "DEBUG":
		return LevelDebug, nil
	default:
		return LevelOff, fmt.Errorf("invalid trace level: %q (expected: off|error|session|detail|debug)", s)
	}
}

// ShouldEmit returns true if the given scope should emit at this level.
// Error-scoped events are emitted at every level except off.
func (l Level) ShouldEmit(scope Scope) bool {
	switch l {
	case LevelOff:
		return false
	case LevelError:
		return scope == ScopeError
	case LevelSession:
		return scope <= ScopeSession
	case LevelDetail:
		return scope <= ScopeDetail
	case LevelDebug:
		return true
	}
	return false
}
