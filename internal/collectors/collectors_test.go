// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package collectors_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/curtisslone/esp/internal/collectors"
)

func TestFileSystemCollectorExistingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "present.txt")
	if err := os.WriteFile(path, []byte("hi"), 0o640); err != nil {
		t.Fatalf("setup: %v", err)
	}
	var c collectors.FileSystemCollector
	objs, err := c.Collect(map[string]string{"path": path})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if objs[0]["exists"] != true {
		t.Errorf("expected exists=true, got %v", objs[0])
	}
}

func TestFileSystemCollectorMissingFile(t *testing.T) {
	var c collectors.FileSystemCollector
	objs, err := c.Collect(map[string]string{"path": "/nonexistent/path/should-not-exist"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if objs[0]["exists"] != false {
		t.Errorf("expected exists=false, got %v", objs[0])
	}
}

func TestFileSystemCollectorRequiresPath(t *testing.T) {
	var c collectors.FileSystemCollector
	if _, err := c.Collect(map[string]string{}); err == nil {
		t.Errorf("expected an error when \"path\" is missing")
	}
}

func TestCommandRunnerRejectsUnwhitelistedCommand(t *testing.T) {
	r := collectors.NewCommandRunner(time.Second, "")
	if _, _, err := r.Run(context.Background(), "rm", "-rf", "/"); err == nil {
		t.Errorf("expected an error for an unwhitelisted command")
	}
}

func TestCommandRunnerRunsWhitelistedCommand(t *testing.T) {
	r := collectors.NewCommandRunner(2*time.Second, "")
	r.Allow("true")
	_, code, err := r.Run(context.Background(), "true")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if code != 0 {
		t.Errorf("expected exit code 0, got %d", code)
	}
}

func TestJSONRecordCollector(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "record.json")
	payload, _ := json.Marshal(map[string]any{"owner": "root", "nested": map[string]any{"mode": "0644"}})
	if err := os.WriteFile(path, payload, 0o640); err != nil {
		t.Fatalf("setup: %v", err)
	}
	var c collectors.JSONRecordCollector
	objs, err := c.Collect(map[string]string{"path": path})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, ok := objs[0]["json_data"].(map[string]any)
	if !ok {
		t.Fatalf("expected json_data to be a record, got %T", objs[0]["json_data"])
	}
	if data["owner"] != "root" {
		t.Errorf("expected owner=root, got %v", data["owner"])
	}
}
