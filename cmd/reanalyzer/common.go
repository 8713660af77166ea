package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"reanalyzer/internal/config"
	"reanalyzer/internal/project"
)

// projectRoot resolves the optional [path] argument to an absolute
// directory. Without an argument it is the enclosing Dart package, or the
// working directory when there is none.
func projectRoot(args []string) (string, error) {
	path := "."
	if len(args) > 0 {
		path = args[0]
	} else if root, ok, err := project.FindProjectRoot("."); err == nil && ok {
		path = root
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory", path)
	}
	return abs, nil
}

// loadConfig reads .env from root, then the config named by --config or
// found above root.
func loadConfig(cmd *cobra.Command, root string) (config.Config, error) {
	explicit, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to get config flag: %w", err)
	}
	if err := config.LoadDotEnv(root); err != nil {
		return config.Config{}, err
	}
	cfg, path, err := config.Resolve(explicit, root)
	if err != nil {
		return config.Config{}, err
	}
	if path != "" {
		notef(cmd, "using config %s", path)
	}
	return cfg, nil
}

// describeProject notes the Dart package at root, if it has a manifest.
func describeProject(cmd *cobra.Command, root string) {
	manifest := filepath.Join(root, project.ManifestName)
	if _, err := os.Stat(manifest); err != nil {
		return
	}
	p, err := project.LoadPubspec(manifest)
	if err != nil {
		notef(cmd, "warning: %v", err)
		return
	}
	kind := "Dart"
	if p.IsFlutter() {
		kind = "Flutter"
	}
	if sdk := p.SDK(); sdk != "" {
		notef(cmd, "%s package %s (sdk %s)", kind, p.Name, sdk)
		return
	}
	notef(cmd, "%s package %s", kind, p.Name)
}

func isQuiet(cmd *cobra.Command) bool {
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	return err == nil && quiet
}

// notef prints an operator note to stderr unless --quiet is set.
func notef(cmd *cobra.Command, format string, args ...any) {
	if isQuiet(cmd) {
		return
	}
	fmt.Fprintf(cmd.ErrOrStderr(), format+"\n", args...)
}

// noteWriter returns stderr, or io.Discard under --quiet.
func noteWriter(cmd *cobra.Command) io.Writer {
	if isQuiet(cmd) {
		return io.Discard
	}
	return cmd.ErrOrStderr()
}
