package query

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reanalyzer/internal/diag"
)

func sampleStore() *Store {
	s := NewStore()
	s.Update([]diag.Diagnostic{
		diag.New("avoid_empty_catch", "empty catch", diag.SevError, diag.CatRuntime, diag.Point("/p/lib/a.dart", 3, 1)),
		diag.New("line_length", "too long", diag.SevInfo, diag.CatStyle, diag.Point("/p/lib/a.dart", 9, 121)),
		diag.New("avoid_dynamic", "dynamic", diag.SevWarning, diag.CatRuntime, diag.Point("/p/lib/b.dart", 1, 1)),
	})
	return s
}

func TestHandleMethods(t *testing.T) {
	s := sampleStore()

	resp := s.Handle(Request{Method: MethodGetAllErrors})
	require.True(t, resp.Success)
	assert.Len(t, resp.Data, 3)

	resp = s.Handle(Request{Method: MethodGetErrors, Params: json.RawMessage(`{"category":"runtime","file":"a.dart"}`)})
	require.True(t, resp.Success)
	got := resp.Data.([]diag.Diagnostic)
	require.Len(t, got, 1)
	assert.Equal(t, "avoid_empty_catch", got[0].RuleID)

	resp = s.Handle(Request{Method: MethodGetErrors, Params: json.RawMessage(`{"severity":"Warning"}`)})
	require.True(t, resp.Success)
	assert.Len(t, resp.Data, 1)

	resp = s.Handle(Request{Method: MethodGetErrors})
	require.True(t, resp.Success)
	assert.Len(t, resp.Data, 3)

	resp = s.Handle(Request{Method: MethodGetStats})
	require.True(t, resp.Success)
	stats := resp.Data.(diag.Stats)
	assert.Equal(t, diag.Stats{Total: 3, Errors: 1, Warnings: 1, Info: 1, StyleIssues: 1, RuntimeIssues: 2, FilesWithIssues: 2}, stats)
}

func TestHandleErrors(t *testing.T) {
	s := sampleStore()

	resp := s.Handle(Request{Method: MethodGetErrors, Params: json.RawMessage(`{"category":7}`)})
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "Invalid query parameters")
	assert.Nil(t, resp.Data)

	resp = s.Handle(Request{Method: "drop_tables"})
	assert.False(t, resp.Success)
	assert.Equal(t, "Unknown method: drop_tables", resp.Error)
}

func TestServeLineProtocol(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	srv := NewServer(sampleStore(), nil)
	go func() { done <- srv.Serve(ctx, ln) }()

	conn, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetDeadline(time.Now().Add(5*time.Second)))

	_, err = fmt.Fprint(conn, "garbage\n{\"method\":\"get_stats\",\"params\":null}\n{\"method\":\"nope\",\"params\":{}}\n")
	require.NoError(t, err)

	r := bufio.NewReader(conn)
	line, err := r.ReadBytes('\n')
	require.NoError(t, err)
	var stats struct {
		Success bool       `json:"success"`
		Data    diag.Stats `json:"data"`
	}
	require.NoError(t, json.Unmarshal(line, &stats))
	assert.True(t, stats.Success)
	assert.Equal(t, 3, stats.Data.Total)

	line, err = r.ReadBytes('\n')
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":false,"data":null,"error":"Unknown method: nope"}`, string(line))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

// lateListener hands out one connection only after Serve has started
// shutting down.
type lateListener struct {
	cancel context.CancelFunc
	closed chan struct{}
	peer   net.Conn
	served bool
}

func (l *lateListener) Accept() (net.Conn, error) {
	if l.served {
		<-l.closed
		return nil, net.ErrClosed
	}
	l.served = true
	l.cancel()
	<-l.closed
	server, client := net.Pipe()
	l.peer = client
	return server, nil
}

func (l *lateListener) Close() error {
	select {
	case <-l.closed:
	default:
		close(l.closed)
	}
	return nil
}

func (l *lateListener) Addr() net.Addr { return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1)} }

func TestServeClosesConnectionAcceptedDuringShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ln := &lateListener{cancel: cancel, closed: make(chan struct{})}

	done := make(chan error, 1)
	go func() { done <- NewServer(sampleStore(), nil).Serve(ctx, ln) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve blocked on a connection accepted during shutdown")
	}

	require.NotNil(t, ln.peer)
	_ = ln.peer.SetReadDeadline(time.Now().Add(time.Second))
	_, err := ln.peer.Read(make([]byte, 1))
	assert.Error(t, err)
}

func TestConnSetRejectsAfterCloseAll(t *testing.T) {
	conns := &connSet{m: make(map[net.Conn]struct{})}
	conns.closeAll()

	a, b := net.Pipe()
	defer b.Close()
	assert.False(t, conns.add(a))
	_ = a.Close()
	assert.Empty(t, conns.m)
}
