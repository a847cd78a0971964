// Copyright (c) 2025 Michael D Henderson. All rights reserved.

// Package main implements espc, the ESP policy compiler CLI: lex, parse,
// validate, and resolve a single .esp source file, then print either its
// diagnostics or its resolved execution plan as JSON.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/maloquacious/semver"
	"github.com/spf13/cobra"

	"github.com/curtisslone/esp/internal/compiler"
	"github.com/curtisslone/esp/internal/errcode"
	"github.com/curtisslone/esp/internal/limits"
)

var (
	version = semver.Version{
		Major: 0,
		Minor: 1,
		Patch: 0,
		Build: semver.Commit(),
	}
	logger *slog.Logger
)

func main() {
	var path, outputPath, limitsPath string
	var showPlan bool
	logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	cmdRoot := &cobra.Command{
		Use:           "espc",
		Short:         "ESP policy compiler",
		Long:          `Compile an Endpoint State Policy source file into a resolved execution plan.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Root().PersistentFlags()
			logLevel, err := flags.GetString("log-level")
			if err != nil {
				return err
			}
			var lvl slog.Level
			switch strings.ToLower(logLevel) {
			case "debug":
				lvl = slog.LevelDebug
			case "info":
				lvl = slog.LevelInfo
			case "warn", "warning":
				lvl = slog.LevelWarn
			case "error":
				lvl = slog.LevelError
			default:
				return fmt.Errorf("log-level: unknown value %q", logLevel)
			}
			logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
			slog.SetDefault(logger)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			started := time.Now()
			source, err := os.ReadFile(path)
			if err != nil {
				logger.Error("espc", "error", err)
				return err
			}

			profile, err := limits.Load(limitsPath)
			if err != nil {
				logger.Error("espc", "error", err)
				return err
			}

			ctx, report, diags := compiler.Compile(source, profile)
			logger.Info("espc", "elapsed", time.Since(started).String(), "passes", len(report.Passes))

			var out []byte
			if ctx != nil && showPlan {
				out, err = json.MarshalIndent(ctx, "", "  ")
			} else {
				out, err = json.MarshalIndent(struct {
					Halted          bool                 `json:"halted"`
					HaltedAtPass    string               `json:"halted_at_pass,omitempty"`
					ComplexityScore int                  `json:"complexity_score"`
					Diagnostics     []errcode.Diagnostic `json:"diagnostics"`
				}{
					Halted: report.Halted, HaltedAtPass: report.HaltedAtPass,
					ComplexityScore: report.ComplexityScore, Diagnostics: diags,
				}, "", "  ")
			}
			if err != nil {
				logger.Error("espc", "error", err)
				return err
			}

			if outputPath == "" {
				fmt.Println(string(out))
			} else if err := os.WriteFile(outputPath, out, 0o644); err != nil {
				logger.Error("espc", "error", err)
				return err
			}

			if ctx == nil {
				return fmt.Errorf("compilation failed: %d diagnostic(s)", len(diags))
			}
			return nil
		},
	}
	cmdRoot.PersistentFlags().String("log-level", "error", "logging level (debug|info|warn|error)")
	cmdRoot.Flags().StringVar(&path, "input", "", "ESP source file to compile")
	cmdRoot.Flags().StringVar(&outputPath, "output", "", "write result to file instead of stdout")
	cmdRoot.Flags().StringVar(&limitsPath, "limits", "", "path to a limits.Profile TOML overlay")
	cmdRoot.Flags().BoolVar(&showPlan, "plan", false, "print the resolved execution plan instead of diagnostics")
	_ = cmdRoot.MarkFlagRequired("input")
	cmdRoot.AddCommand(cmdVersion())

	if err := cmdRoot.Execute(); err != nil {
		log.Fatal(err)
	}
}

func cmdVersion() *cobra.Command {
	showBuildInfo := false
	cmd := &cobra.Command{
		Use:   "version",
		Short: "display the application's version number",
		RunE: func(cmd *cobra.Command, args []string) error {
			if showBuildInfo {
				fmt.Println(version.String())
				return nil
			}
			fmt.Println(version.Core())
			return nil
		},
	}
	cmd.Flags().BoolVar(&showBuildInfo, "build-info", showBuildInfo, "show build information")
	return cmd
}
