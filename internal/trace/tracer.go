package trace

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Tracer is the core interface for emitting trace events.
type Tracer interface {
	// Emit records an event. Must be goroutine-safe.
	Emit(ev *Event)

	// Flush forces any buffered events to be written.
	Flush() error

	// Close flushes and releases resources.
	Close() error

	// Level returns the current tracing level.
	Level() Level

	// Enabled returns true if tracing is active (level > Off).
	Enabled() bool
}

// Config holds tracer configuration.
type Config struct {
	Level      Level     // tracing level
	Format     Format    // output format (FormatAuto for auto-detection)
	Output     io.Writer // destination (if nil, use OutputPath)
	OutputPath string    // alternative: file path ("-" for stderr)
}

// New creates a Tracer based on Config.
func New(cfg Config) (Tracer, error) {
	if cfg.Level == LevelOff {
		return Nop, nil
	}

	format := cfg.Format
	if format == FormatAuto {
		format = FormatText
		if strings.HasSuffix(cfg.OutputPath, ".ndjson") || strings.HasSuffix(cfg.OutputPath, ".jsonl") {
			format = FormatNDJSON
		}
	}

	w, err := openOutput(cfg)
	if err != nil {
		return nil, err
	}
	return NewStreamTracer(w, cfg.Level, format), nil
}

// openOutput opens the output writer from config. Stdout is never used.
func openOutput(cfg Config) (io.Writer, error) {
	if cfg.Output != nil {
		return cfg.Output, nil
	}

	if cfg.OutputPath == "" || cfg.OutputPath == "-" {
		return nopCloser{os.Stderr}, nil
	}

	f, err := os.Create(cfg.OutputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace output: %w", err)
	}

	return f, nil
}

// nopCloser keeps StreamTracer.Close from closing stderr.
type nopCloser struct {
	io.Writer
}
