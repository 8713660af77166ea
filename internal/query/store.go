// Package query serves scan results to external tools over a line-delimited
// JSON protocol.
package query

import (
	"strings"
	"sync"

	"reanalyzer/internal/diag"
)

// Query narrows the stored diagnostics. Nil fields match everything.
type Query struct {
	Category *string `json:"category,omitempty"`
	Severity *string `json:"severity,omitempty"`
	// File matches any diagnostic whose path contains it.
	File *string `json:"file,omitempty"`
}

// Store holds the latest diagnostics.
type Store struct {
	mu    sync.RWMutex
	items []diag.Diagnostic
}

func NewStore() *Store {
	return &Store{}
}

// Update replaces the stored diagnostics.
func (s *Store) Update(ds []diag.Diagnostic) {
	s.mu.Lock()
	s.items = ds
	s.mu.Unlock()
}

// All returns a copy of the stored diagnostics.
func (s *Store) All() []diag.Diagnostic {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]diag.Diagnostic, len(s.items))
	copy(out, s.items)
	return out
}

// Filter returns the diagnostics matching q.
func (s *Store) Filter(q Query) []diag.Diagnostic {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]diag.Diagnostic, 0, len(s.items))
	for _, d := range s.items {
		if q.Category != nil && !strings.EqualFold(d.Category.String(), *q.Category) {
			continue
		}
		if q.Severity != nil && !strings.EqualFold(d.Severity.String(), *q.Severity) {
			continue
		}
		if q.File != nil && !strings.Contains(d.Location.File, *q.File) {
			continue
		}
		out = append(out, d)
	}
	return out
}

// Stats summarises the stored diagnostics.
func (s *Store) Stats() diag.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return diag.ComputeStats(s.items)
}
