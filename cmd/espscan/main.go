// Copyright (c) 2025 Michael D Henderson. All rights reserved.

// Package main implements espscan, the ESP scanner CLI: compile a policy
// file, run it against the host using the bundled demo collectors, and
// print (and optionally persist) the resulting compliance scan.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/maloquacious/semver"
	"github.com/spf13/cobra"

	"github.com/curtisslone/esp/internal/ast"
	"github.com/curtisslone/esp/internal/collectors"
	"github.com/curtisslone/esp/internal/compiler"
	"github.com/curtisslone/esp/internal/config"
	"github.com/curtisslone/esp/internal/contract"
	"github.com/curtisslone/esp/internal/engine"
	"github.com/curtisslone/esp/internal/executors"
	"github.com/curtisslone/esp/internal/limits"
	"github.com/curtisslone/esp/stores/sqlite"
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
	var path, configPath, outputPath, correlationID string
	var persist bool
	logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	cmdRoot := &cobra.Command{
		Use:           "espscan",
		Short:         "ESP compliance scanner",
		Long:          `Compile and execute an Endpoint State Policy against the local host.`,
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

			cfg, err := config.Load(configPath, false)
			if err != nil {
				logger.Error("espscan", "error", err)
				return err
			}

			source, err := os.ReadFile(path)
			if err != nil {
				logger.Error("espscan", "error", err)
				return err
			}

			profile, err := limits.Load(cfg.LimitsProfile)
			if err != nil {
				logger.Error("espscan", "error", err)
				return err
			}

			ctx, report, diags := compiler.Compile(source, profile)
			if ctx == nil {
				logger.Error("espscan", "diagnostics", len(diags), "passes", len(report.Passes))
				return fmt.Errorf("compilation failed: %d diagnostic(s)", len(diags))
			}

			registry := buildDemoRegistry(cfg)
			e := engine.New(registry)

			if correlationID == "" {
				correlationID = uuid.NewString()
			}
			result := e.Run(context.Background(), ctx, correlationID)
			logger.Info("espscan", "elapsed", time.Since(started).String(), "findings", len(result.Findings))

			out, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				logger.Error("espscan", "error", err)
				return err
			}
			if outputPath == "" {
				fmt.Println(string(out))
			} else if err := os.WriteFile(outputPath, out, 0o644); err != nil {
				logger.Error("espscan", "error", err)
				return err
			}

			if persist {
				db, err := openOrCreateResultsStore(cfg.ResultsDatabase)
				if err != nil {
					logger.Error("espscan", "error", err)
					return err
				}
				defer db.Close()
				if err := db.SaveScanResult(result); err != nil {
					logger.Error("espscan", "error", err)
					return err
				}
			}

			return nil
		},
	}
	cmdRoot.PersistentFlags().String("log-level", "error", "logging level (debug|info|warn|error)")
	cmdRoot.Flags().StringVar(&path, "input", "", "ESP source file to compile and scan")
	cmdRoot.Flags().StringVar(&configPath, "config", "espscan.json", "scanner configuration file")
	cmdRoot.Flags().StringVar(&outputPath, "output", "", "write result to file instead of stdout")
	cmdRoot.Flags().StringVar(&correlationID, "correlation-id", "", "external correlation id for this scan")
	cmdRoot.Flags().BoolVar(&persist, "persist", false, "save the scan result to the results database")
	_ = cmdRoot.MarkFlagRequired("input")
	cmdRoot.AddCommand(cmdVersion())

	if err := cmdRoot.Execute(); err != nil {
		log.Fatal(err)
	}
}

// openOrCreateResultsStore opens path if it already holds a schema,
// otherwise creates and initializes a fresh database there.
func openOrCreateResultsStore(path string) (*sqlite.DB, error) {
	if _, err := os.Stat(path); err == nil {
		return sqlite.OpenStore(path, context.Background())
	}
	db, err := sqlite.CreateStore(path, false, context.Background())
	if err != nil {
		return nil, err
	}
	if err := db.CreateSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// buildDemoRegistry wires up the bundled reference collectors/executors:
// filesystem, rpm package, systemd service, and json_record all share one
// generic executor and one whitelisted command runner configured from
// cfg. Each gets both a contract and a strategy, so Registry.Assess
// reports them Healthy. selinux_status and sysctl_parameter are
// deliberately left unregistered entirely, so Assess reports them Empty —
// the same way a real deployment looks before every CTN type named by a
// policy has a strategy wired in.
func buildDemoRegistry(cfg *config.Config) *contract.Registry {
	reg := contract.NewRegistry()
	runner := collectors.NewCommandRunner(
		time.Duration(cfg.Command.TimeoutSeconds)*time.Second, cfg.Command.Path)

	var ex executors.GenericExecutor

	mustRegister := func(c contract.CtnContract) {
		if err := reg.RegisterContract(c); err != nil {
			logger.Error("espscan", "error", err, "ctn_type", c.CtnType)
		}
	}

	mustRegister(contract.CtnContract{
		CtnType: "file_metadata", Version: "1.0.0",
		Fields: []contract.FieldSpec{
			{Name: "exists", Type: ast.TypeBoolean},
			{Name: "path", Type: ast.TypeString},
			{Name: "file_mode", Type: ast.TypeString},
			{Name: "file_owner", Type: ast.TypeString},
			{Name: "file_group", Type: ast.TypeString},
			{Name: "size", Type: ast.TypeInt},
			{Name: "is_dir", Type: ast.TypeBoolean},
		},
	})
	reg.RegisterStrategy(contract.Strategy{
		CtnType: "file_metadata", Version: "1.0.0",
		Collector: collectors.FileSystemCollector{}, Executor: ex,
	})

	mustRegister(contract.CtnContract{
		CtnType: "package", Version: "1.0.0",
		Fields: []contract.FieldSpec{
			{Name: "package_name", Type: ast.TypeString},
			{Name: "installed", Type: ast.TypeBoolean},
			{Name: "version", Type: ast.TypeString},
			{Name: "release", Type: ast.TypeString},
			{Name: "arch", Type: ast.TypeString},
			{Name: "evr", Type: ast.TypeEvrString},
		},
	})
	reg.RegisterStrategy(contract.Strategy{
		CtnType: "package", Version: "1.0.0",
		Collector: collectors.NewRpmPackageCollector(runner), Executor: ex,
	})

	mustRegister(contract.CtnContract{
		CtnType: "service", Version: "1.0.0",
		Fields: []contract.FieldSpec{
			{Name: "service_name", Type: ast.TypeString},
			{Name: "load_state", Type: ast.TypeString},
			{Name: "active_state", Type: ast.TypeString},
			{Name: "sub_state", Type: ast.TypeString},
			{Name: "unit_file_state", Type: ast.TypeString},
			{Name: "enabled", Type: ast.TypeBoolean},
			{Name: "running", Type: ast.TypeBoolean},
		},
	})
	reg.RegisterStrategy(contract.Strategy{
		CtnType: "service", Version: "1.0.0",
		Collector: collectors.NewSystemdServiceCollector(runner), Executor: ex,
	})

	mustRegister(contract.CtnContract{
		CtnType: "json_record", Version: "1.0.0",
		Fields: []contract.FieldSpec{
			{Name: "path", Type: ast.TypeString},
			{Name: "json_data", Type: ast.TypeRecordData},
		},
	})
	reg.RegisterStrategy(contract.Strategy{
		CtnType: "json_record", Version: "1.0.0",
		Collector: collectors.JSONRecordCollector{}, Executor: ex,
	})

	return reg
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
