// Package fuzztests houses Go fuzz harnesses for the LSP frame reader and
// the rule set. They guard against panics and runaway allocations on
// arbitrary input.
package fuzztests
