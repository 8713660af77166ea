package lsp

import (
	"sync"

	"reanalyzer/internal/diag"
)

// DiagnosticsCache maps absolute file paths to scan results. The whole map
// is swapped at once; readers see either the old or the new scan.
type DiagnosticsCache struct {
	mu    sync.RWMutex
	files map[string][]diag.Diagnostic
}

// NewDiagnosticsCache returns an empty cache.
func NewDiagnosticsCache() *DiagnosticsCache {
	return &DiagnosticsCache{files: make(map[string][]diag.Diagnostic)}
}

// Replace installs files as the current contents. The cache takes
// ownership of the map; callers must not mutate it afterwards.
func (c *DiagnosticsCache) Replace(files map[string][]diag.Diagnostic) {
	if files == nil {
		files = make(map[string][]diag.Diagnostic)
	}
	c.mu.Lock()
	c.files = files
	c.mu.Unlock()
}

// Lookup returns the diagnostics cached for path, matched exactly.
func (c *DiagnosticsCache) Lookup(path string) ([]diag.Diagnostic, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ds, ok := c.files[path]
	return ds, ok
}

// Len reports the number of files with cached diagnostics.
func (c *DiagnosticsCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.files)
}

// Snapshot returns the current map. It must be treated as read-only.
func (c *DiagnosticsCache) Snapshot() map[string][]diag.Diagnostic {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.files
}
