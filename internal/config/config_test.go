// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package config_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/curtisslone/esp/internal/config"
)

func TestLoadNonExistentFile(t *testing.T) {
	cfg, err := config.Load("non-existent-file.json", false)
	if err != nil {
		t.Errorf("expected no error for non-existent file, got %v", err)
	}
	if cfg.LogSource != "console" {
		t.Errorf("expected default LogSource, got %q", cfg.LogSource)
	}
}

func TestLoadDirectoryIsError(t *testing.T) {
	tmpDir := t.TempDir()
	if _, err := config.Load(tmpDir, false); err == nil {
		t.Errorf("expected an error when name is a directory")
	}
}

func TestLoadEmptyConfigKeepsDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "config.json")
	if err := os.WriteFile(configFile, []byte("{}"), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}
	cfg, err := config.Load(configFile, false)
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if cfg.OutputFormat != "json" {
		t.Errorf("expected default output format, got %q", cfg.OutputFormat)
	}
}

func TestLoadPartialConfigOverridesOnlyNamedFields(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "config.json")
	override := config.Config{LogLevel: "debug"}
	data, err := json.Marshal(override)
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := os.WriteFile(configFile, data, 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	cfg, err := config.Load(configFile, false)
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected overridden LogLevel, got %q", cfg.LogLevel)
	}
	if cfg.LogSource != "console" {
		t.Errorf("expected LogSource to remain at its default, got %q", cfg.LogSource)
	}
}

func TestLoadNestedCommandPolicyOverride(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "config.json")
	override := config.Config{Command: config.CommandPolicy_t{TimeoutSeconds: 30}}
	data, _ := json.Marshal(override)
	if err := os.WriteFile(configFile, data, 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	cfg, err := config.Load(configFile, false)
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if cfg.Command.TimeoutSeconds != 30 {
		t.Errorf("expected overridden timeout, got %d", cfg.Command.TimeoutSeconds)
	}
	if len(cfg.Command.AllowedPrograms) == 0 {
		t.Errorf("expected default allowed programs to survive an override of a sibling field")
	}
}

func TestLoadInvalidJSONFallsBackToDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "config.json")
	if err := os.WriteFile(configFile, []byte("not json"), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}
	cfg, err := config.Load(configFile, true)
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if cfg.LogSource != "console" {
		t.Errorf("expected default config on parse failure, got %q", cfg.LogSource)
	}
}
