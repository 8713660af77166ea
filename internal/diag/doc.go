// Package diag defines the diagnostic model shared by the rule engine, the
// workspace scanner, the LSP proxy and the query server.
//
// # Data model
//
// Diagnostic is the central record. It contains:
//
//   - RuleID – stable rule name (e.g. "avoid_print"), surfaced as the LSP "code".
//   - Message – human oriented text; keep it short and actionable.
//   - Severity – Info, Warning or Error (severity.go).
//   - Category – Style or Runtime.
//   - Location – 1-indexed file/line/column with optional end position.
//   - Suggestion – optional fix hint.
//
// Diagnostics are values: once a rule returns them they are never mutated.
// Converting to the LSP 0-indexed convention happens in internal/lsp.
//
// Bag collects diagnostics for rendering (internal/diagfmt) and Stats
// summarises them for the query server.
package diag
