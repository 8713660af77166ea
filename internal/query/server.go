package query

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "reanalyzer_query_requests_total",
	Help: "Query requests handled, by method and outcome",
}, []string{"method", "success"})

// maxLineBytes bounds a single request line.
const maxLineBytes = 1 << 20

// Server answers newline-delimited JSON requests from a Store.
type Server struct {
	store *Store
	logf  func(format string, args ...any)
}

// NewServer returns a server for store. logf may be nil.
func NewServer(store *Store, logf func(format string, args ...any)) *Server {
	if logf == nil {
		logf = func(string, ...any) {}
	}
	return &Server{store: store, logf: logf}
}

// Serve accepts connections until ctx is done or ln fails. Each connection
// is handled on its own goroutine.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	var wg sync.WaitGroup
	defer wg.Wait()

	conns := &connSet{m: make(map[net.Conn]struct{})}
	defer conns.closeAll()
	stop := context.AfterFunc(ctx, func() {
		_ = ln.Close()
		conns.closeAll()
	})
	defer stop()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}
		if !conns.add(conn) {
			// Accepted while shutting down.
			_ = conn.Close()
			return nil
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer conns.remove(conn)
			s.serveConn(conn)
		}()
	}
}

func (s *Server) serveConn(conn io.ReadWriteCloser) {
	defer conn.Close()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	w := bufio.NewWriter(conn)
	for scanner.Scan() {
		var req Request
		if err := json.Unmarshal(scanner.Bytes(), &req); err != nil {
			continue
		}
		resp := s.store.Handle(req)
		requestsTotal.WithLabelValues(req.Method, fmt.Sprint(resp.Success)).Inc()

		data, err := json.Marshal(resp)
		if err != nil {
			s.logf("encode response: %v", err)
			continue
		}
		data = append(data, '\n')
		if _, err := w.Write(data); err != nil {
			return
		}
		if err := w.Flush(); err != nil {
			return
		}
	}
}

type connSet struct {
	mu     sync.Mutex
	m      map[net.Conn]struct{}
	closed bool
}

// add tracks conn and reports false once closeAll has run.
func (c *connSet) add(conn net.Conn) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.m[conn] = struct{}{}
	return true
}

func (c *connSet) remove(conn net.Conn) {
	c.mu.Lock()
	delete(c.m, conn)
	c.mu.Unlock()
}

func (c *connSet) closeAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	for conn := range c.m {
		_ = conn.Close()
	}
}
