package lsp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"reanalyzer/internal/childproc"
	"reanalyzer/internal/rules"
	"reanalyzer/internal/scan"
	"reanalyzer/internal/trace"
)

// Child is the wrapped language server as seen by the proxy.
type Child interface {
	Stdin() io.WriteCloser
	Stdout() *bufio.Reader
	Close() error
}

// SpawnFunc starts the wrapped language server.
type SpawnFunc func(ctx context.Context, cmd childproc.Command) (Child, error)

// ScanFunc runs the workspace scan.
type ScanFunc func(ctx context.Context, root string, rs []rules.Rule, opts scan.Options) (scan.Result, error)

// ProxyOptions configures a Proxy.
type ProxyOptions struct {
	Root        string
	Rules       []rules.Rule
	Command     childproc.Command
	ScanOptions scan.Options
	// Log receives operator notes. Defaults to stderr.
	Log io.Writer
	// Cache is shared with other consumers when set.
	Cache   *DiagnosticsCache
	Spawn   SpawnFunc
	Scanner ScanFunc
}

// Proxy relays LSP traffic between an editor and a child language server
// and appends cached local diagnostics to publishDiagnostics.
type Proxy struct {
	root     string
	rules    []rules.Rule
	cmd      childproc.Command
	scanOpts scan.Options
	log      io.Writer
	cache    *DiagnosticsCache
	spawn    SpawnFunc
	scanner  ScanFunc

	logMu sync.Mutex

	mu    sync.Mutex
	child Child

	scanStarted atomic.Bool
	scanDone    chan struct{}
}

// NewProxy constructs a proxy. Nothing is started until Run.
func NewProxy(opts ProxyOptions) *Proxy {
	p := &Proxy{
		root:     opts.Root,
		rules:    opts.Rules,
		cmd:      opts.Command,
		scanOpts: opts.ScanOptions,
		log:      opts.Log,
		cache:    opts.Cache,
		spawn:    opts.Spawn,
		scanner:  opts.Scanner,
		scanDone: make(chan struct{}),
	}
	if p.log == nil {
		p.log = os.Stderr
	}
	if p.cache == nil {
		p.cache = NewDiagnosticsCache()
	}
	if p.spawn == nil {
		p.spawn = spawnProcess
	}
	if p.scanner == nil {
		p.scanner = scan.Scan
	}
	if p.cmd.Binary == "" {
		p.cmd = childproc.DartCommand("")
	}
	return p
}

func spawnProcess(ctx context.Context, cmd childproc.Command) (Child, error) {
	proc, err := childproc.Spawn(ctx, cmd)
	if err != nil {
		return nil, err
	}
	return proc, nil
}

// Cache returns the diagnostics cache filled by the background scan.
func (p *Proxy) Cache() *DiagnosticsCache {
	return p.cache
}

// ScanDone closes once the background scan has finished.
func (p *Proxy) ScanDone() <-chan struct{} {
	return p.scanDone
}

// Close kills the child language server.
func (p *Proxy) Close() error {
	p.mu.Lock()
	child := p.child
	p.mu.Unlock()
	if child == nil {
		return nil
	}
	return child.Close()
}

// Run spawns the child and relays messages until both directions are
// closed, a write fails or ctx is done. The child is killed on return.
func (p *Proxy) Run(ctx context.Context, clientIn io.Reader, clientOut io.Writer) error {
	tracer := trace.FromContext(ctx)
	session := trace.Begin(tracer, trace.ScopeSession, "session", 0)

	child, err := p.spawn(ctx, p.cmd)
	if err != nil {
		if !errors.Is(err, childproc.ErrSpawn) {
			err = fmt.Errorf("%w: %w", childproc.ErrSpawn, err)
		}
		session.End(err.Error())
		return err
	}
	p.mu.Lock()
	p.child = child
	p.mu.Unlock()
	defer p.Close()
	p.logf("language server started: %s", p.cmd.Binary)

	done := make(chan struct{})
	defer close(done)

	fromClient := newMessageQueue(done)
	fromServer := newMessageQueue(done)
	go p.readLoop(tracer, bufio.NewReader(clientIn), fromClient, directionClient)
	go p.readLoop(tracer, child.Stdout(), fromServer, directionServer)

	err = p.route(ctx, fromClient, fromServer, child.Stdin(), clientOut)
	if err != nil {
		session.End(err.Error())
		return err
	}
	session.End("")
	return nil
}

func (p *Proxy) route(ctx context.Context, fromClient, fromServer *messageQueue, toServer io.WriteCloser, toClient io.Writer) error {
	tracer := trace.FromContext(ctx)
	clientCh, serverCh := fromClient.Out(), fromServer.Out()
	for clientCh != nil || serverCh != nil {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case payload, ok := <-clientCh:
			if !ok {
				clientCh = nil
				if err := fromClient.Err(); err != nil {
					// Only the client reader stops; server traffic keeps flowing.
					p.logf("client stream stopped: %v", err)
					continue
				}
				// Pass the editor's EOF on so the server can exit.
				_ = toServer.Close()
				continue
			}
			p.inspectClient(tracer, payload)
			if err := WriteMessage(toServer, payload); err != nil {
				return fmt.Errorf("write to language server: %w", err)
			}
			messagesRouted.WithLabelValues(directionClient).Inc()

		case payload, ok := <-serverCh:
			if !ok {
				serverCh = nil
				continue
			}
			out := p.inspectServer(ctx, tracer, payload)
			if err := WriteMessage(toClient, out); err != nil {
				return fmt.Errorf("write to client: %w", err)
			}
			messagesRouted.WithLabelValues(directionServer).Inc()
		}
	}
	return nil
}

func (p *Proxy) readLoop(tracer trace.Tracer, r *bufio.Reader, q *messageQueue, direction string) {
	for {
		payload, err := ReadMessage(r)
		if err != nil {
			if errors.Is(err, io.EOF) {
				trace.Point(tracer, trace.ScopeSession, "reader:"+direction, "closed", 0)
				q.Close()
				return
			}
			readerErrors.WithLabelValues(direction).Inc()
			trace.Point(tracer, trace.ScopeError, "reader:"+direction, err.Error(), 0)
			q.CloseWithError(err)
			return
		}
		q.Push(payload)
	}
}

func (p *Proxy) inspectClient(tracer trace.Tracer, payload []byte) {
	var hdr rpcHeader
	if err := json.Unmarshal(payload, &hdr); err != nil {
		return
	}
	trace.Point(tracer, trace.ScopeMessage, "route:"+directionClient, hdr.Method, 0)
	if hdr.Method == methodInitialize {
		p.logf("initialize request received")
	}
}

// inspectServer returns the bytes to send to the client: payload itself
// unless diagnostics were appended.
func (p *Proxy) inspectServer(ctx context.Context, tracer trace.Tracer, payload []byte) []byte {
	var hdr rpcHeader
	if err := json.Unmarshal(payload, &hdr); err != nil {
		return payload
	}
	trace.Point(tracer, trace.ScopeMessage, "route:"+directionServer, hdr.Method, 0)

	switch hdr.Method {
	case methodInitialized:
		p.startScan(ctx)
	case methodPublishDiagnostics:
		if merged, n, ok := p.inject(payload); ok {
			diagnosticsInjected.Add(float64(n))
			trace.Point(tracer, trace.ScopeDetail, "inject", fmt.Sprintf("%d diagnostics", n), 0)
			return merged
		}
	}
	return payload
}

// startScan launches the workspace scan at most once per proxy.
func (p *Proxy) startScan(ctx context.Context) {
	if !p.scanStarted.CompareAndSwap(false, true) {
		return
	}
	root := p.root
	rs := slices.Clone(p.rules)
	opts := p.scanOpts
	scanner := p.scanner

	go func() {
		defer close(p.scanDone)
		p.logf("analyzing workspace: %s", root)
		start := time.Now()
		res, err := scanner(ctx, root, rs, opts)
		if err != nil {
			p.logf("error analyzing workspace: %v", err)
			return
		}
		p.cache.Replace(res)
		cachedFiles.Set(float64(len(res)))
		scanDuration.Observe(time.Since(start).Seconds())
		p.logf("analysis complete: diagnostics in %d files", len(res))
	}()
}

// inject appends cached diagnostics for the notification's document. It
// reports false when nothing was appended, in which case the original
// bytes are forwarded.
func (p *Proxy) inject(payload []byte) ([]byte, int, bool) {
	var msg rawObject
	if err := json.Unmarshal(payload, &msg); err != nil {
		return nil, 0, false
	}
	var params rawObject
	if err := json.Unmarshal(msg["params"], &params); err != nil || params == nil {
		return nil, 0, false
	}
	var uri string
	if err := json.Unmarshal(params["uri"], &uri); err != nil {
		return nil, 0, false
	}
	cached, ok := p.cache.Lookup(pathFromURI(uri))
	if !ok || len(cached) == 0 {
		return nil, 0, false
	}

	raw, ok := params["diagnostics"]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, 0, false
	}
	var diagnostics []json.RawMessage
	if err := json.Unmarshal(raw, &diagnostics); err != nil {
		return nil, 0, false
	}
	for _, d := range cached {
		encoded, err := marshalRaw(toLSP(d))
		if err != nil {
			return nil, 0, false
		}
		diagnostics = append(diagnostics, encoded)
	}

	var err error
	if params["diagnostics"], err = marshalRaw(diagnostics); err != nil {
		return nil, 0, false
	}
	if msg["params"], err = marshalRaw(params); err != nil {
		return nil, 0, false
	}
	out, err := marshalRaw(msg)
	if err != nil {
		return nil, 0, false
	}
	return out, len(cached), true
}

// marshalRaw encodes v without HTML escaping so untouched strings keep
// their original form.
func marshalRaw(v any) (json.RawMessage, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func (p *Proxy) logf(format string, args ...any) {
	p.logMu.Lock()
	defer p.logMu.Unlock()
	fmt.Fprintf(p.log, "lsp: "+format+"\n", args...)
}
