// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package config

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"reflect"

	"github.com/curtisslone/esp/cerrs"
)

// Config is the scanner CLI's own configuration, distinct from the
// compiler's internal/limits.Profile (a DoS-prevention ceiling). It
// controls where logs go, which external commands a scan is allowed to
// shell out to, and where scan results are persisted.
type Config struct {
	LogSource             string          `json:"LogSource,omitempty"` // console|file|structured|memory
	LogLevel              string          `json:"LogLevel,omitempty"`  // debug|info|warn|error
	LogFile               string          `json:"LogFile,omitempty"`
	OutputFormat          string          `json:"OutputFormat,omitempty"` // json|text
	Command               CommandPolicy_t `json:"Command"`
	ResultsDatabase       string          `json:"ResultsDatabase,omitempty"`
	LimitsProfile         string          `json:"LimitsProfile,omitempty"` // path to a limits.Profile TOML overlay
}

type CommandPolicy_t struct {
	AllowedPrograms []string `json:"AllowedPrograms,omitempty"`
	TimeoutSeconds  int      `json:"TimeoutSeconds,omitempty"`
	Path            string   `json:"Path,omitempty"`
}

const (
	ErrIsDirectory = cerrs.Error("is directory")
	ErrIsNotAFile  = cerrs.Error("is not a file")
)

// Default returns the configuration a scan runs with when no config file
// is supplied: console logging at info level, JSON output, and a command
// whitelist covering the bundled demo collectors.
func Default() *Config {
	return &Config{
		LogSource:    "console",
		LogLevel:     "info",
		OutputFormat: "json",
		Command: CommandPolicy_t{
			AllowedPrograms: []string{"rpm", "systemctl"},
			TimeoutSeconds:  5,
			Path:            "/usr/bin:/bin:/usr/sbin:/sbin",
		},
		ResultsDatabase: "esp-results.db",
	}
}

// Load reads name as JSON, overlaying any field it sets on top of
// Default — an absent or unreadable file is not an error, it just leaves
// every field at its default, the same forgiving shape the teacher's own
// config loader uses.
func Load(name string, debug bool) (*Config, error) {
	if debug {
		log.Printf("[config] %q: loading configuration...\n", name)
	}
	cfg := Default()
	if sb, err := os.Stat(name); errors.Is(err, os.ErrNotExist) {
		if debug {
			log.Printf("[config] %q: %v\n", name, err)
		}
		return cfg, nil
	} else if err != nil {
		return cfg, nil
	} else if sb.Mode().IsDir() {
		return cfg, ErrIsDirectory
	} else if !sb.Mode().IsRegular() {
		return cfg, ErrIsNotAFile
	}

	var tmp Config
	data, err := os.ReadFile(name)
	if err != nil {
		if debug {
			log.Printf("[config] %q: %v\n", name, err)
		}
		return cfg, nil
	}
	if err = json.Unmarshal(data, &tmp); err != nil {
		if debug {
			log.Printf("[config] %q: %v\n", name, err)
		}
		return cfg, nil
	}
	if debug {
		if nice, err := json.MarshalIndent(tmp, "", "  "); err == nil {
			log.Printf("[config] %s\n", nice)
		}
	}

	copyNonZeroFields(&tmp, cfg)
	return cfg, nil
}

// copyNonZeroFields recursively copies non-zero fields from src to dst
// using reflection, so a config file only needs to name the fields it
// wants to override.
func copyNonZeroFields(src, dst interface{}) {
	srcVal := reflect.ValueOf(src)
	dstVal := reflect.ValueOf(dst)

	if srcVal.Kind() == reflect.Ptr {
		srcVal = srcVal.Elem()
	}
	if dstVal.Kind() == reflect.Ptr {
		dstVal = dstVal.Elem()
	}
	if srcVal.Kind() != reflect.Struct || dstVal.Kind() != reflect.Struct {
		return
	}

	for i := 0; i < srcVal.NumField(); i++ {
		srcField := srcVal.Field(i)
		dstField := dstVal.Field(i)
		if !srcField.CanInterface() || !dstField.CanSet() {
			continue
		}
		if srcField.IsZero() {
			continue
		}
		switch srcField.Kind() {
		case reflect.Struct:
			copyNonZeroFields(srcField.Interface(), dstField.Addr().Interface())
		default:
			dstField.Set(srcField)
		}
	}
}
