// Package scan runs the rule set over every Dart file of a workspace.
package scan

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"reanalyzer/internal/diag"
	"reanalyzer/internal/rules"
	"reanalyzer/internal/source"
	"reanalyzer/internal/trace"
)

// Options tunes a scan.
type Options struct {
	// Jobs limits concurrent files; <= 0 means GOMAXPROCS.
	Jobs int
	// Sequential checks files one at a time.
	Sequential bool
	// ExcludePatterns are doublestar globs relative to the root.
	ExcludePatterns []string
	// Sink receives per-file progress. May be nil.
	Sink ProgressSink
}

// Result maps a file path to its findings. Files without findings are absent.
type Result map[string][]diag.Diagnostic

// Files discovers and loads the Dart files under root. Unreadable files
// are skipped.
func Files(root string, opts Options) ([]source.DartFile, error) {
	files, err := source.FindDartFiles(root, source.FindOptions{
		ExcludePatterns: opts.ExcludePatterns,
		SkipUnreadable:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate %s: %w", root, err)
	}
	return files, nil
}

// Scan checks every Dart file under root with rs. It fails only when the
// root cannot be enumerated or ctx is cancelled.
func Scan(ctx context.Context, root string, rs []rules.Rule, opts Options) (Result, error) {
	files, err := Files(root, opts)
	if err != nil {
		return nil, err
	}
	return ScanFiles(ctx, files, rs, opts)
}

// ScanFiles checks already loaded files.
func ScanFiles(ctx context.Context, files []source.DartFile, rs []rules.Rule, opts Options) (Result, error) {
	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeSession, "scan", 0)
	span.WithExtra("files", strconv.Itoa(len(files)))

	sink := opts.Sink
	if sink == nil {
		sink = nopSink{}
	}
	for _, f := range files {
		sink.OnEvent(Event{File: f.Path, Status: StatusQueued})
	}

	jobs := opts.Jobs
	if opts.Sequential {
		jobs = 1
	}
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	var (
		mu     sync.Mutex
		result = make(Result)
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(jobs, len(files))))

	for _, f := range files {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			start := time.Now()
			sink.OnEvent(Event{File: f.Path, Status: StatusWorking})
			found := CheckFile(f, rs)
			sink.OnEvent(Event{File: f.Path, Status: StatusDone, Found: len(found), Elapsed: time.Since(start)})

			if len(found) == 0 {
				return nil
			}
			trace.Point(tracer, trace.ScopeDetail, "scan:file", f.Path, span.ID())
			mu.Lock()
			result[f.Path] = found
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		span.End(err.Error())
		return nil, err
	}
	span.WithExtra("with_issues", strconv.Itoa(len(result)))
	span.End("")
	return result, nil
}

// CheckFile runs every rule on f. A rule that errors or panics
// contributes nothing.
func CheckFile(f source.DartFile, rs []rules.Rule) []diag.Diagnostic {
	var out []diag.Diagnostic
	for _, r := range rs {
		out = append(out, runRule(r, f)...)
	}
	return out
}

func runRule(r rules.Rule, f source.DartFile) (found []diag.Diagnostic) {
	defer func() {
		if recover() != nil {
			found = nil
		}
	}()
	ds, err := r.Check(f.Path, f.Content)
	if err != nil {
		return nil
	}
	return ds
}

// Collect flattens a result into a sorted bag.
func Collect(res Result) *diag.Bag {
	total := 0
	for _, ds := range res {
		total += len(ds)
	}
	bag := diag.NewBag(total)
	for _, ds := range res {
		bag.AddAll(ds)
	}
	bag.Sort()
	return bag
}

type nopSink struct{}

func (nopSink) OnEvent(Event) {}
