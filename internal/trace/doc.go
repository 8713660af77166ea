// Package trace provides structured event tracing for reanalyzer.
//
// The proxy uses it to record session boundaries, workspace scans and,
// at debug level, every routed message. Events never go to stdout: in lsp
// mode stdout carries protocol frames.
//
// # Usage
//
//	reanalyzer lsp --trace=- --trace-level=detail .
//
// # Levels
//
//   - LevelOff: No tracing
//   - LevelError: Failures only (spawn errors, reader errors)
//   - LevelSession: Session and scan boundaries
//   - LevelDetail: Per-file scan events and interception decisions
//   - LevelDebug: Every routed message
//
// # Context Propagation
//
//	ctx = trace.WithTracer(ctx, tracer)
//	t := trace.FromContext(ctx)
//
//	span := trace.Begin(t, trace.ScopeSession, "scan", parentID)
//	defer span.End("")
package trace
