// Package prof wraps runtime/pprof and runtime/trace for the CLI's
// profiling flags.
package prof

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	"runtime/trace"
	"sync"
)

// Options names the output files. Empty paths disable the profiler.
type Options struct {
	CPUProfile   string
	MemProfile   string
	RuntimeTrace string
}

// Session is a set of running profilers.
type Session struct {
	memPath   string
	cpuFile   *os.File
	traceFile *os.File
	once      sync.Once
	err       error
}

// Start enables the profilers requested by opts. On error nothing is left
// running.
func Start(opts Options) (*Session, error) {
	s := &Session{memPath: opts.MemProfile}
	if opts.CPUProfile != "" {
		f, err := os.Create(opts.CPUProfile)
		if err != nil {
			return nil, fmt.Errorf("failed to start cpu profile: %w", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("failed to start cpu profile: %w", err)
		}
		s.cpuFile = f
	}
	if opts.RuntimeTrace != "" {
		f, err := os.Create(opts.RuntimeTrace)
		if err == nil {
			err = trace.Start(f)
			if err != nil {
				_ = f.Close()
			}
		}
		if err != nil {
			s.stopCPU()
			return nil, fmt.Errorf("failed to start trace: %w", err)
		}
		s.traceFile = f
	}
	return s, nil
}

// Active reports whether any profiler was requested.
func (s *Session) Active() bool {
	return s.cpuFile != nil || s.traceFile != nil || s.memPath != ""
}

// Stop ends the trace and CPU profile and writes the heap profile. Safe to
// call more than once.
func (s *Session) Stop() error {
	s.once.Do(func() {
		var errs []error
		if s.traceFile != nil {
			trace.Stop()
			errs = append(errs, s.traceFile.Close())
		}
		errs = append(errs, s.stopCPU())
		if s.memPath != "" {
			errs = append(errs, writeHeap(s.memPath))
		}
		s.err = errors.Join(errs...)
	})
	return s.err
}

func (s *Session) stopCPU() error {
	if s.cpuFile == nil {
		return nil
	}
	pprof.StopCPUProfile()
	err := s.cpuFile.Close()
	s.cpuFile = nil
	return err
}

func writeHeap(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to write heap profile: %w", err)
	}
	runtime.GC()
	if err := pprof.WriteHeapProfile(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write heap profile: %w", err)
	}
	return f.Close()
}
