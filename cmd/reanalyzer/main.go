package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"reanalyzer/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "reanalyzer",
	Short: "Dart/Flutter static analyzer and language server proxy",
	Long: `reanalyzer runs style and runtime checks over Dart projects, serves the
results to external tools, and wraps the Dart language server so editors see
them next to the analyzer's own diagnostics`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupRoot,
}

// Replaced by setupRoot once tracing and profiling are configured.
var (
	traceCleanup   = func() {}
	profileCleanup = func() {}
)

// exitError carries a process exit code without printing an error.
type exitError struct {
	code int
}

func (e exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// main registers subcommands and persistent flags, executes the root
// command and maps its error to a process exit code.
func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(lspCmd)
	rootCmd.AddCommand(initConfigCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().Bool("timings", false, "show timing information")
	rootCmd.PersistentFlags().String("config", "", "path to reanalyzer.toml (default: search upward from the project)")
	rootCmd.PersistentFlags().String("trace", "", "trace output file (- for stderr)")
	rootCmd.PersistentFlags().String("trace-level", "off", "trace level (off|error|session|detail|debug)")
	rootCmd.PersistentFlags().String("trace-format", "auto", "trace format (auto|text|ndjson)")
	rootCmd.PersistentFlags().String("cpu-profile", "", "write a CPU profile to this file")
	rootCmd.PersistentFlags().String("mem-profile", "", "write a heap profile to this file on exit")
	rootCmd.PersistentFlags().String("runtime-trace", "", "write a Go runtime trace to this file")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	profileCleanup()
	traceCleanup()
	stop()

	if err != nil {
		var exit exitError
		if errors.As(err, &exit) {
			os.Exit(exit.code)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func setupRoot(cmd *cobra.Command, _ []string) error {
	if err := setupColor(cmd); err != nil {
		return err
	}
	cleanup, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	traceCleanup = cleanup

	stopProfiles, err := setupProfiling(cmd)
	if err != nil {
		return err
	}
	profileCleanup = stopProfiles
	return nil
}

// setupColor applies --color to the fatih/color global switch.
func setupColor(cmd *cobra.Command) error {
	mode, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return fmt.Errorf("failed to get color flag: %w", err)
	}
	switch mode {
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	case "auto", "":
		color.NoColor = !isTerminal(os.Stdout)
	default:
		return fmt.Errorf("invalid --color value %q (expected auto|on|off)", mode)
	}
	return nil
}

// isTerminal reports whether f is a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// terminalWidth returns the width of f, or 0 when it is not a terminal.
func terminalWidth(f *os.File) int {
	if !isTerminal(f) {
		return 0
	}
	w, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return w
}
