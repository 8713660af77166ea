package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"reanalyzer/internal/childproc"
	"reanalyzer/internal/config"
	"reanalyzer/internal/lsp"
	"reanalyzer/internal/rules"
	"reanalyzer/internal/scan"
)

var lspCmd = &cobra.Command{
	Use:   "lsp [flags] [path]",
	Short: "Run as an LSP proxy in front of the Dart language server",
	Long: `Spawn "dart language-server --protocol=lsp" and relay LSP traffic over
stdio. Local findings are appended to the server's publishDiagnostics.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLSP,
}

func init() {
	lspCmd.Flags().String("dart-binary", "", "dart executable (default: dart_binary from config, or dart)")
	lspCmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address")
}

func runLSP(cmd *cobra.Command, args []string) error {
	root, err := projectRoot(args)
	if err != nil {
		return err
	}
	dartBinary, err := cmd.Flags().GetString("dart-binary")
	if err != nil {
		return fmt.Errorf("failed to get dart-binary flag: %w", err)
	}
	metricsAddr, err := cmd.Flags().GetString("metrics-addr")
	if err != nil {
		return fmt.Errorf("failed to get metrics-addr flag: %w", err)
	}

	cfg, err := loadConfig(cmd, root)
	if err != nil {
		return err
	}
	describeProject(cmd, root)
	if dartBinary == "" {
		dartBinary = cfg.DartCommand()
	}

	proxy := lsp.NewProxy(lsp.ProxyOptions{
		Root:  root,
		Rules: rules.FromConfig(cfg, rules.SelectAll),
		Command: childproc.Command{
			Binary: dartBinary,
			Args:   childproc.DefaultArgs,
			Dir:    root,
			Stderr: os.Stderr,
		},
		ScanOptions: scan.Options{
			Sequential:      !cfg.Parallel,
			ExcludePatterns: cfg.ExcludePatterns,
		},
		Log: noteWriter(cmd),
	})
	defer proxy.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		out := bufio.NewWriter(os.Stdout)
		return proxy.Run(gctx, os.Stdin, out)
	})
	if metricsAddr != "" {
		g.Go(func() error { return serveMetrics(gctx, metricsAddr, nil) })
	}

	err = g.Wait()
	switch {
	case err == nil, errors.Is(err, context.Canceled):
		return nil
	case errors.Is(err, childproc.ErrNotInstalled):
		return fmt.Errorf("%w (set dart_binary in reanalyzer.toml or %s)", err, config.EnvDartBinary)
	default:
		return err
	}
}
