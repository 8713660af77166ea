package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"reanalyzer/internal/config"
	"reanalyzer/internal/query"
	"reanalyzer/internal/rules"
	"reanalyzer/internal/scan"
	"reanalyzer/internal/source"
	"reanalyzer/internal/watch"
)

var serveCmd = &cobra.Command{
	Use:   "serve [flags] [path]",
	Short: "Analyze a project and answer queries over TCP",
	Long: `Scan the project once and serve the findings as line-delimited JSON.
Requests: {"method":"get_all_errors"}, {"method":"get_errors","params":{...}},
{"method":"get_stats"}.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runServe,
}

func init() {
	serveCmd.Flags().Int("port", 0, "TCP port on 127.0.0.1 (default: query.address from config, or 9000)")
	serveCmd.Flags().Bool("watch", false, "re-analyze changed files while serving")
	serveCmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address")
}

func runServe(cmd *cobra.Command, args []string) error {
	root, err := projectRoot(args)
	if err != nil {
		return err
	}
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("failed to get port flag: %w", err)
	}
	watchFlag, err := cmd.Flags().GetBool("watch")
	if err != nil {
		return fmt.Errorf("failed to get watch flag: %w", err)
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
	addr := cfg.Query.Address
	if addr == "" {
		addr = config.DefaultQueryAddress
	}
	if port > 0 {
		addr = net.JoinHostPort("127.0.0.1", strconv.Itoa(port))
	}

	logf := func(format string, args ...any) { notef(cmd, format, args...) }
	return serve(cmd.Context(), serveOptions{
		Root:        root,
		Config:      cfg,
		Address:     addr,
		Watch:       watchFlag,
		MetricsAddr: metricsAddr,
	}, logf)
}

type serveOptions struct {
	Root        string
	Config      config.Config
	Address     string
	Watch       bool
	MetricsAddr string
	// Ready is called with the bound query address.
	Ready func(net.Addr)
}

// workspace holds the latest per-file results and republishes them to the
// query store.
type workspace struct {
	rules  []rules.Rule
	result scan.Result
	store  *query.Store
}

func (w *workspace) publish() {
	w.store.Update(scan.Collect(w.result).Items())
}

// refresh re-checks the given paths. Deleted files drop out of the result.
func (w *workspace) refresh(paths []string) {
	for _, path := range paths {
		f, err := source.Load(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				delete(w.result, path)
			}
			continue
		}
		w.result[path] = scan.CheckFile(f, w.rules)
	}
	w.publish()
}

func serve(ctx context.Context, opts serveOptions, logf func(format string, args ...any)) error {
	cfg := opts.Config
	rs := rules.FromConfig(cfg, rules.SelectAll)
	scanOpts := scan.Options{
		Sequential:      !cfg.Parallel,
		ExcludePatterns: cfg.ExcludePatterns,
	}

	logf("Analyzing Dart files in: %s", opts.Root)
	res, err := scan.Scan(ctx, opts.Root, rs, scanOpts)
	if err != nil {
		return err
	}
	store := query.NewStore()
	ws := &workspace{rules: rs, result: res, store: store}
	ws.publish()
	logf("Analysis complete. Found %d issues", len(store.All()))

	ln, err := net.Listen("tcp", opts.Address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", opts.Address, err)
	}
	logf("Starting analysis server on %s", ln.Addr())
	if opts.Ready != nil {
		opts.Ready(ln.Addr())
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return query.NewServer(store, logf).Serve(gctx, ln)
	})

	if opts.Watch {
		w, err := watch.New(opts.Root, func(paths []string) {
			ws.refresh(paths)
			logf("re-analyzed %d files", len(paths))
		}, watch.Options{ExcludePatterns: cfg.ExcludePatterns, Errorf: logf})
		if err != nil {
			_ = ln.Close()
			return err
		}
		g.Go(func() error { return w.Run(gctx) })
	}

	if opts.MetricsAddr != "" {
		g.Go(func() error {
			return serveMetrics(gctx, opts.MetricsAddr, func(a net.Addr) {
				logf("metrics on http://%s/metrics", a)
			})
		})
	}

	return g.Wait()
}
