// Copyright (c) 2025 Michael D Henderson. All rights reserved.

// Package logx wraps log/slog with four sink choices, selected by
// Options.Source: a human-readable console sink (the default), a JSON file
// sink, a JSON sink on stdout, and an in-memory ring buffer whose lines a
// caller can read back.
package logx

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/dustin/go-humanize"
)

// Source selects where log records go.
type Source string

const (
	SourceConsole    Source = "console"
	SourceFile       Source = "file"
	SourceStructured Source = "structured"
	SourceMemory     Source = "memory"
)

// Options configures New.
type Options struct {
	Source   Source
	Level    slog.Level
	FilePath string // required when Source == SourceFile
	Capacity int    // ring buffer size when Source == SourceMemory; 0 uses a sane default
}

// New builds a *slog.Logger for the requested sink. The returned
// io.Closer should be closed (ignoring a nil result) once the caller is
// done logging, to flush/close any open file handle.
func New(opts Options) (*slog.Logger, io.Closer, error) {
	switch opts.Source {
	case SourceFile:
		f, err := os.OpenFile(opts.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("logx: open log file: %w", err)
		}
		h := slog.NewJSONHandler(f, &slog.HandlerOptions{Level: opts.Level})
		return slog.New(h), f, nil
	case SourceStructured:
		h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: opts.Level})
		return slog.New(h), nil, nil
	case SourceMemory:
		sink := NewMemorySink(opts.Capacity)
		h := slog.NewTextHandler(sink, &slog.HandlerOptions{Level: opts.Level})
		return slog.New(h), sink, nil
	default:
		h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: opts.Level})
		return slog.New(h), nil, nil
	}
}

// MemorySink is a thread-safe, bounded ring buffer of log lines, used so
// a scan's own log history can be attached to its report without holding
// an unbounded amount of text in memory.
type MemorySink struct {
	mu       sync.Mutex
	lines    [][]byte
	capacity int
	dropped  int
}

// NewMemorySink creates a MemorySink holding at most capacity lines; a
// capacity of 0 or less defaults to 1000.
func NewMemorySink(capacity int) *MemorySink {
	if capacity <= 0 {
		capacity = 1000
	}
	return &MemorySink{capacity: capacity}
}

func (m *MemorySink) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	line := append([]byte(nil), p...)
	if len(m.lines) >= m.capacity {
		m.lines = m.lines[1:]
		m.dropped++
	}
	m.lines = append(m.lines, line)
	return len(p), nil
}

// Close is a no-op; MemorySink satisfies io.Closer so it can be returned
// alongside the file sink's handle from New without a type switch at the
// call site.
func (m *MemorySink) Close() error { return nil }

// Lines returns a copy of every buffered log line, oldest first.
func (m *MemorySink) Lines() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.lines))
	for i, l := range m.lines {
		out[i] = string(l)
	}
	return out
}

// DroppedSummary reports how many lines were evicted because the buffer
// was full, with thousands separators (e.g. "log buffer dropped 1,200
// lines"), or "" when none were.
func (m *MemorySink) DroppedSummary() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dropped == 0 {
		return ""
	}
	return fmt.Sprintf("log buffer dropped %s lines", humanize.Comma(int64(m.dropped)))
}
