package main

import (
	"context"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"reanalyzer/internal/rules"
	"reanalyzer/internal/scan"
	"reanalyzer/internal/source"
	"reanalyzer/internal/ui"
)

type scanOutcome struct {
	result scan.Result
	err    error
}

func runScanWithUI(ctx context.Context, title, root string, files []source.DartFile, rs []rules.Rule, opts scan.Options) (scan.Result, error) {
	events := make(chan scan.Event, 256)
	outcomeCh := make(chan scanOutcome, 1)

	go func() {
		optsCopy := opts
		optsCopy.Sink = scan.ChannelSink{Ch: events}
		res, err := scan.ScanFiles(ctx, files, rs, optsCopy)
		outcomeCh <- scanOutcome{result: res, err: err}
		close(events)
	}()

	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}
	model := ui.WithLabels(ui.NewProgressModel(title, paths, events), func(path string) string {
		if rel, err := filepath.Rel(root, path); err == nil {
			return rel
		}
		return path
	})
	program := tea.NewProgram(model, tea.WithOutput(os.Stderr))
	_, uiErr := program.Run()

	// The view may quit early (ctrl+c); keep the scan from blocking on events.
	go func() {
		for range events {
		}
	}()

	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.result, uiErr
	}
	return outcome.result, outcome.err
}
