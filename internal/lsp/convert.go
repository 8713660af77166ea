package lsp

import (
	"fortio.org/safecast"

	"reanalyzer/internal/diag"
)

func lspSeverity(sev diag.Severity) int {
	switch sev {
	case diag.SevError:
		return 1
	case diag.SevWarning:
		return 2
	default:
		return 3
	}
}

// zeroBased converts a 1-indexed line or column, saturating at zero.
func zeroBased(v int) uint32 {
	if v <= 1 {
		return 0
	}
	n, err := safecast.Conv[uint32](v - 1)
	if err != nil {
		return ^uint32(0)
	}
	return n
}

// toLSP converts a cached diagnostic to its protocol form. Without an
// explicit end the range covers one character.
func toLSP(d diag.Diagnostic) lspDiagnostic {
	start := position{
		Line:      zeroBased(d.Location.Line),
		Character: zeroBased(d.Location.Column),
	}
	end := position{Line: start.Line, Character: start.Character + 1}
	if d.Location.EndLine != nil {
		end.Line = zeroBased(*d.Location.EndLine)
	}
	if d.Location.EndColumn != nil {
		end.Character = zeroBased(*d.Location.EndColumn)
	}
	return lspDiagnostic{
		Range:    lspRange{Start: start, End: end},
		Severity: lspSeverity(d.Severity),
		Code:     d.RuleID,
		Source:   diagnosticSource,
		Message:  d.Message,
	}
}
