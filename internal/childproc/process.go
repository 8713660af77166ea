// Package childproc launches and supervises the wrapped language server.
package childproc

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
)

var (
	// ErrSpawn is returned when the child cannot be started.
	ErrSpawn = errors.New("failed to start language server")
	// ErrNotInstalled is returned when the binary is not found on PATH.
	ErrNotInstalled = errors.New("language server binary not found")
)

// DefaultArgs starts the Dart analysis server in LSP mode.
var DefaultArgs = []string{"language-server", "--protocol=lsp"}

// Command describes the child to launch.
type Command struct {
	Binary string
	Args   []string
	Dir    string
	// Stderr receives the child's stderr. Nil means the parent's stderr.
	Stderr io.Writer
	Env    []string
}

// DartCommand returns the command for `<binary> language-server --protocol=lsp`.
func DartCommand(binary string) Command {
	if binary == "" {
		binary = "dart"
	}
	return Command{Binary: binary, Args: append([]string(nil), DefaultArgs...)}
}

// Process is a running child with piped stdin and stdout.
type Process struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Reader
	// outR is owned by the parent, so reaping the child never closes it
	// under a pending read.
	outR *os.File

	closeOnce sync.Once
	waited    chan struct{}
	waitErr   error
}

// Spawn starts the child. The returned error wraps ErrSpawn, and also
// ErrNotInstalled when the binary could not be resolved.
func Spawn(ctx context.Context, c Command) (*Process, error) {
	if c.Binary == "" {
		return nil, fmt.Errorf("%w: %w: empty binary", ErrSpawn, ErrNotInstalled)
	}
	path, err := exec.LookPath(c.Binary)
	if err != nil {
		return nil, fmt.Errorf("%w: %w: %s: %w", ErrSpawn, ErrNotInstalled, c.Binary, err)
	}

	// #nosec G204 -- binary is resolved from operator configuration
	cmd := exec.CommandContext(ctx, path, c.Args...)
	cmd.Dir = c.Dir
	if c.Env != nil {
		cmd.Env = c.Env
	}
	cmd.Stderr = c.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: stdin pipe: %w", ErrSpawn, err)
	}
	outR, outW, err := os.Pipe()
	if err != nil {
		_ = stdin.Close()
		return nil, fmt.Errorf("%w: stdout pipe: %w", ErrSpawn, err)
	}
	cmd.Stdout = outW
	if err := cmd.Start(); err != nil {
		_ = stdin.Close()
		_ = outR.Close()
		_ = outW.Close()
		return nil, fmt.Errorf("%w: %s: %w", ErrSpawn, c.Binary, err)
	}
	// The child holds its own copy; the reader sees EOF once it exits.
	_ = outW.Close()

	p := &Process{
		cmd:    cmd,
		stdin:  stdin,
		stdout: bufio.NewReader(outR),
		outR:   outR,
		waited: make(chan struct{}),
	}
	go func() {
		p.waitErr = cmd.Wait()
		close(p.waited)
	}()
	return p, nil
}

// Stdin is the child's standard input.
func (p *Process) Stdin() io.WriteCloser { return p.stdin }

// Stdout is the child's standard output.
func (p *Process) Stdout() *bufio.Reader { return p.stdout }

// PID returns the child's process id.
func (p *Process) PID() int { return p.cmd.Process.Pid }

// Done closes when the child has exited and been reaped. Output written
// before exit stays readable from Stdout until Close.
func (p *Process) Done() <-chan struct{} { return p.waited }

// Err returns the wait error once Done is closed.
func (p *Process) Err() error {
	select {
	case <-p.waited:
		return p.waitErr
	default:
		return nil
	}
}

// Close closes both pipes and kills the child if it is still running.
// Reaping happens in the background. Safe to call more than once.
func (p *Process) Close() error {
	var err error
	p.closeOnce.Do(func() {
		_ = p.stdin.Close()
		defer p.outR.Close()
		select {
		case <-p.waited:
			return
		default:
		}
		if kerr := p.cmd.Process.Kill(); kerr != nil && !errors.Is(kerr, os.ErrProcessDone) {
			err = fmt.Errorf("kill language server: %w", kerr)
		}
	})
	return err
}
