// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package logx_test

import (
	"log/slog"
	"strings"
	"testing"

	"github.com/curtisslone/esp/internal/logx"
)

func TestMemorySinkEvictsOldestWhenFull(t *testing.T) {
	logger, closer, err := logx.New(logx.Options{Source: logx.SourceMemory, Capacity: 2, Level: slog.LevelInfo})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer closer.Close()

	sink := closer.(*logx.MemorySink)
	logger.Info("first")
	logger.Info("second")
	logger.Info("third")

	lines := sink.Lines()
	if len(lines) != 2 {
		t.Fatalf("expected 2 buffered lines, got %d", len(lines))
	}
	if strings.Contains(lines[0], "first") {
		t.Errorf("expected the oldest line to have been evicted, got %v", lines)
	}
	if summary := sink.DroppedSummary(); summary == "" {
		t.Errorf("expected a non-empty dropped-line summary")
	}
}
