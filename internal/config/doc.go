// Copyright (c) 2025 Michael D Henderson. All rights reserved.

// Package config loads the scanner CLI's JSON configuration: log sink
// selection, the external-command whitelist a scan is allowed to shell
// out to, output format, and where scan results are persisted.
// Configuration is loaded from a JSON file with sensible defaults, the
// same defaults-then-overlay shape the compiler's internal/limits
// package uses for its own TOML profile.
package config
