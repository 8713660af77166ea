// Package observ times the phases of an analysis run.
package observ

import (
	"fmt"
	"strings"
	"time"
)

// Counts are the tallies a phase reports when it ends.
type Counts struct {
	Files           int
	Issues          int
	FilesWithIssues int
}

func (c Counts) String() string {
	var parts []string
	if c.Files > 0 {
		parts = append(parts, plural(c.Files, "file"))
	}
	if c.Issues > 0 {
		issues := plural(c.Issues, "issue")
		if c.FilesWithIssues > 0 {
			issues += " in " + plural(c.FilesWithIssues, "file")
		}
		parts = append(parts, issues)
	}
	return strings.Join(parts, ", ")
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return fmt.Sprintf("%d %ss", n, word)
}

// Phase is one timed step of a run: discover, scan or render.
type Phase struct {
	Name   string
	Start  time.Time
	Dur    time.Duration
	Counts Counts
}

// FilesPerSecond is the phase throughput, zero when it handled no files.
func (p Phase) FilesPerSecond() float64 {
	if p.Counts.Files == 0 || p.Dur <= 0 {
		return 0
	}
	return float64(p.Counts.Files) / p.Dur.Seconds()
}

// Timer records phases in order. Not safe for concurrent use.
type Timer struct {
	phases []Phase
	now    func() time.Time
}

func NewTimer() *Timer {
	return &Timer{phases: make([]Phase, 0, 3), now: time.Now}
}

// Begin starts a phase and returns its index for End.
func (t *Timer) Begin(name string) int {
	t.phases = append(t.phases, Phase{Name: name, Start: t.now()})
	return len(t.phases) - 1
}

// End closes the phase at idx. Unknown indexes are ignored.
func (t *Timer) End(idx int, counts Counts) {
	if idx < 0 || idx >= len(t.phases) {
		return
	}
	p := &t.phases[idx]
	p.Dur = t.now().Sub(p.Start)
	p.Counts = counts
}

// Summary renders the --timings block.
func (t *Timer) Summary() string {
	report := t.Report()
	var sb strings.Builder
	sb.WriteString("timings:\n")
	for _, p := range report.Phases {
		fmt.Fprintf(&sb, "  %-10s %9.2f ms", p.Name, p.DurationMS)
		if p.Note != "" {
			sb.WriteString("  " + p.Note)
		}
		if p.FilesPerSecond > 0 {
			fmt.Fprintf(&sb, " (%.0f files/s)", p.FilesPerSecond)
		}
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "  %-10s %9.2f ms\n", "total", report.TotalMS)
	return sb.String()
}

// PhaseReport is the JSON form of a phase.
type PhaseReport struct {
	Name            string  `json:"name"`
	DurationMS      float64 `json:"duration_ms"`
	Files           int     `json:"files,omitempty"`
	Issues          int     `json:"issues,omitempty"`
	FilesWithIssues int     `json:"files_with_issues,omitempty"`
	FilesPerSecond  float64 `json:"files_per_second,omitempty"`
	Note            string  `json:"note,omitempty"`
}

// Report aggregates all phases in milliseconds.
type Report struct {
	TotalMS float64       `json:"total_ms"`
	Phases  []PhaseReport `json:"phases"`
}

func (t *Timer) Report() Report {
	if len(t.phases) == 0 {
		return Report{}
	}
	report := Report{Phases: make([]PhaseReport, len(t.phases))}
	var total time.Duration
	for i, phase := range t.phases {
		total += phase.Dur
		report.Phases[i] = PhaseReport{
			Name:            phase.Name,
			DurationMS:      millis(phase.Dur),
			Files:           phase.Counts.Files,
			Issues:          phase.Counts.Issues,
			FilesWithIssues: phase.Counts.FilesWithIssues,
			FilesPerSecond:  phase.FilesPerSecond(),
			Note:            phase.Counts.String(),
		}
	}
	report.TotalMS = millis(total)
	return report
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
