package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"reanalyzer/internal/config"
	"reanalyzer/internal/diagfmt"
	"reanalyzer/internal/observ"
	"reanalyzer/internal/rules"
	"reanalyzer/internal/scan"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [flags] [path]",
	Short: "Analyze a Dart project and print the findings",
	Long:  `Run the style and runtime rules over every Dart file under path (default: current directory). Exits with status 1 when any error-level issue is found.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().Bool("style-only", false, "run only style rules")
	analyzeCmd.Flags().Bool("runtime-only", false, "run only runtime rules")
	analyzeCmd.Flags().String("format", "text", "output format (text|short|json)")
	analyzeCmd.Flags().String("ui", "auto", "progress UI (auto|on|off)")
	analyzeCmd.Flags().Int("jobs", 0, "max parallel workers (0=auto)")
	analyzeCmd.Flags().Bool("fullpath", false, "emit absolute file paths in output")
	analyzeCmd.Flags().Int("max-diagnostics", 0, "maximum number of diagnostics to print (0=all)")
}

type analyzeOptions struct {
	Root           string
	Config         config.Config
	Selection      rules.Selection
	Format         diagfmt.Format
	UI             bool
	Jobs           int
	Color          bool
	Width          int
	FullPath       bool
	Timings        bool
	MaxDiagnostics int
}

// runAnalyze reads flags, runs the analysis and turns error-level findings
// into exit status 1.
func runAnalyze(cmd *cobra.Command, args []string) error {
	root, err := projectRoot(args)
	if err != nil {
		return err
	}

	styleOnly, err := cmd.Flags().GetBool("style-only")
	if err != nil {
		return fmt.Errorf("failed to get style-only flag: %w", err)
	}
	runtimeOnly, err := cmd.Flags().GetBool("runtime-only")
	if err != nil {
		return fmt.Errorf("failed to get runtime-only flag: %w", err)
	}
	formatStr, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	uiStr, err := cmd.Flags().GetString("ui")
	if err != nil {
		return fmt.Errorf("failed to get ui flag: %w", err)
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}
	fullPath, err := cmd.Flags().GetBool("fullpath")
	if err != nil {
		return fmt.Errorf("failed to get fullpath flag: %w", err)
	}
	maxDiagnostics, err := cmd.Flags().GetInt("max-diagnostics")
	if err != nil {
		return fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	timings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return fmt.Errorf("failed to get timings flag: %w", err)
	}

	if styleOnly && runtimeOnly {
		return fmt.Errorf("--style-only and --runtime-only are mutually exclusive")
	}
	sel := rules.SelectAll
	switch {
	case styleOnly:
		sel = rules.SelectStyle
	case runtimeOnly:
		sel = rules.SelectRuntime
	}

	format, err := diagfmt.ParseFormat(formatStr)
	if err != nil {
		return err
	}
	mode, err := parseProgressMode(uiStr)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd, root)
	if err != nil {
		return err
	}
	describeProject(cmd, root)

	opts := analyzeOptions{
		Root:      root,
		Config:    cfg,
		Selection: sel,
		Format:    format,
		UI: mode.enabled(progressEnv{
			JSON:         format == diagfmt.FormatJSON,
			Quiet:        isQuiet(cmd),
			StderrIsTTY:  isTerminal(os.Stderr),
			CI:           os.Getenv("CI") != "",
			DumbTerminal: os.Getenv("TERM") == "dumb",
		}),
		Jobs:           jobs,
		Color:          !color.NoColor,
		Width:          terminalWidth(os.Stdout),
		FullPath:       fullPath,
		Timings:        timings,
		MaxDiagnostics: maxDiagnostics,
	}
	code, err := analyze(cmd.Context(), opts, cmd.OutOrStdout(), noteWriter(cmd))
	if err != nil {
		return err
	}
	if code != 0 {
		return exitError{code: code}
	}
	return nil
}

// analyze scans opts.Root, renders the report to stdout and returns the
// exit code. Progress notes go to notes.
func analyze(ctx context.Context, opts analyzeOptions, stdout, notes io.Writer) (int, error) {
	cfg := opts.Config
	timer := observ.NewTimer()
	rs := rules.FromConfig(cfg, opts.Selection)

	fmt.Fprintf(notes, "Analyzing Dart files in: %s\n", opts.Root)

	scanOpts := scan.Options{
		Jobs:            opts.Jobs,
		Sequential:      !cfg.Parallel,
		ExcludePatterns: cfg.ExcludePatterns,
	}

	idx := timer.Begin("discover")
	files, err := scan.Files(opts.Root, scanOpts)
	if err != nil {
		return 1, err
	}
	timer.End(idx, observ.Counts{Files: len(files)})
	fmt.Fprintf(notes, "Found %d Dart files\n", len(files))
	fmt.Fprintf(notes, "Running %d rules\n", len(rs))

	idx = timer.Begin("scan")
	var res scan.Result
	if opts.UI && len(files) > 0 {
		res, err = runScanWithUI(ctx, "Analyzing", opts.Root, files, rs, scanOpts)
	} else {
		res, err = scan.ScanFiles(ctx, files, rs, scanOpts)
	}
	if err != nil {
		return 1, err
	}
	bag := scan.Collect(res)
	timer.End(idx, observ.Counts{
		Files:           len(files),
		Issues:          bag.Len(),
		FilesWithIssues: len(res),
	})
	fmt.Fprintf(notes, "Analysis complete. Found %d issues\n\n", bag.Len())

	pathMode := diagfmt.PathModeAuto
	if opts.FullPath {
		pathMode = diagfmt.PathModeAbsolute
	}
	idx = timer.Begin("render")
	err = diagfmt.Write(stdout, opts.Format, bag, diagfmt.TextOpts{
		Color:    opts.Color,
		PathMode: pathMode,
		Base:     opts.Root,
		Width:    opts.Width,
		Max:      opts.MaxDiagnostics,
	})
	timer.End(idx, observ.Counts{Issues: bag.Len()})
	if err != nil {
		return 1, err
	}

	if opts.Timings {
		fmt.Fprint(notes, timer.Summary())
	}
	if bag.HasErrors() {
		return 1, nil
	}
	return 0, nil
}
