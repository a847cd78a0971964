// Copyright (c) 2025 Michael D Henderson. All rights reserved.

// Package collectors implements contract.Collector: the handful of
// demo/reference ways of pulling live CTN objects out of a host —
// filesystem stat, RPM package queries, systemd unit status, and
// JSON records — plus the whitelisted command runner they share.
// Grounded on esp_scanner_base's SystemCommandExecutor and the
// filesystem/rpm_package/sysctl_parameter collectors in esp_scanner_sdk.
package collectors

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"time"
)

// CommandRunner executes whitelisted external commands with a clean
// environment, a forced PATH, a closed stdin, and a hard timeout — every
// command-backed collector in this package runs through one of these
// rather than shelling out directly.
type CommandRunner struct {
	allowed map[string]bool
	timeout time.Duration
	path    string
}

// NewCommandRunner returns a runner that refuses every command until
// Allow names it, with the given timeout (zero defaults to 5s) and a
// forced PATH (empty defaults to "/usr/bin:/bin:/usr/sbin:/sbin").
func NewCommandRunner(timeout time.Duration, path string) *CommandRunner {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if path == "" {
		path = "/usr/bin:/bin:/usr/sbin:/sbin"
	}
	return &CommandRunner{allowed: map[string]bool{}, timeout: timeout, path: path}
}

// Allow adds program to the whitelist.
func (r *CommandRunner) Allow(program string) {
	r.allowed[program] = true
}

// Run executes program with args if whitelisted, returning stdout.
// Stdin is never connected, the environment is cleared apart from a
// forced PATH, and a non-zero exit status is returned as-is rather than
// mapped into a collection error — a collector decides whether exit
// status means "not present" or "failed".
func (r *CommandRunner) Run(ctx context.Context, program string, args ...string) (stdout string, exitCode int, err error) {
	if !r.allowed[program] {
		return "", -1, fmt.Errorf("collectors: command %q is not whitelisted", program)
	}
	runCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, program, args...)
	cmd.Stdin = nil
	cmd.Env = []string{"PATH=" + r.path}
	var out, errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf

	runErr := cmd.Run()
	if runCtx.Err() != nil {
		return "", -1, fmt.Errorf("collectors: command %q timed out after %s", program, r.timeout)
	}
	if exitErr, ok := runErr.(*exec.ExitError); ok {
		return out.String(), exitErr.ExitCode(), nil
	}
	if runErr != nil {
		return "", -1, fmt.Errorf("collectors: command %q failed to start: %w", program, runErr)
	}
	return out.String(), 0, nil
}
