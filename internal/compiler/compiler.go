// Copyright (c) 2025 Michael D Henderson. All rights reserved.

// Package compiler orchestrates the seven-pass front end: lex/parse,
// symbol discovery, reference validation, semantic analysis, structural
// validation, and resolution, producing either an ExecutionContext ready
// for the scanner runtime or a diagnostic report explaining why it
// couldn't.
package compiler

import (
	"time"

	"github.com/curtisslone/esp/internal/ast"
	"github.com/curtisslone/esp/internal/errcode"
	"github.com/curtisslone/esp/internal/limits"
	"github.com/curtisslone/esp/internal/parser"
	"github.com/curtisslone/esp/internal/refs"
	"github.com/curtisslone/esp/internal/resolve"
	"github.com/curtisslone/esp/internal/semantic"
	"github.com/curtisslone/esp/internal/structural"
	"github.com/curtisslone/esp/internal/symbols"
)

// PassReport is one pass's timing and diagnostic count, surfaced so a
// caller can tell which stage a slow or failing compile spent its time in.
type PassReport struct {
	Name        string
	Duration    time.Duration
	Diagnostics int
}

// PipelineReport summarizes one compile from end to end.
type PipelineReport struct {
	Passes          []PassReport
	ComplexityScore int
	Halted          bool
	HaltedAtPass    string
}

// Compile runs every pass over source in order. It always returns a
// PipelineReport; ctx is nil whenever any pass reports a diagnostic whose
// code requires halting (errcode.Metadata.RequiresHalt).
func Compile(source []byte, profile limits.Profile) (*resolve.ExecutionContext, PipelineReport, []errcode.Diagnostic) {
	var all []errcode.Diagnostic
	var report PipelineReport

	timePass := func(name string, fn func() []errcode.Diagnostic) bool {
		start := time.Now()
		diags := fn()
		report.Passes = append(report.Passes, PassReport{Name: name, Duration: time.Since(start), Diagnostics: len(diags)})
		all = append(all, diags...)
		for _, d := range diags {
			if meta, ok := errcode.Lookup(d.Code); ok && meta.RequiresHalt {
				report.Halted = true
				report.HaltedAtPass = name
				return false
			}
		}
		return true
	}

	var file *ast.EspFile
	var table *symbols.Table
	var refResult refs.Result

	ok := timePass("parse", func() []errcode.Diagnostic {
		var diags []errcode.Diagnostic
		file, diags = parser.Parse(source, profile)
		return diags
	})
	if !ok || file == nil {
		return nil, report, all
	}

	ok = timePass("symbols", func() []errcode.Diagnostic {
		var diags []errcode.Diagnostic
		table, diags = symbols.Discover(file, profile)
		return diags
	})
	if !ok {
		return nil, report, all
	}

	ok = timePass("references", func() []errcode.Diagnostic {
		var diags []errcode.Diagnostic
		refResult, diags = refs.Validate(table, profile)
		return diags
	})
	if !ok {
		return nil, report, all
	}

	var semResult semantic.Result
	ok = timePass("semantic", func() []errcode.Diagnostic {
		semResult = semantic.Check(file, table, refResult, profile)
		return semResult.Diagnostics
	})
	if !ok || semResult.CircularDependency {
		if semResult.CircularDependency {
			report.Halted = true
			report.HaltedAtPass = "semantic"
		}
		return nil, report, all
	}

	var structResult structural.Result
	ok = timePass("structural", func() []errcode.Diagnostic {
		structResult = structural.Check(file, profile)
		return structResult.Diagnostics
	})
	report.ComplexityScore = structResult.ComplexityScore
	if !ok {
		return nil, report, all
	}

	var ctx *resolve.ExecutionContext
	ok = timePass("resolve", func() []errcode.Diagnostic {
		var diags []errcode.Diagnostic
		ctx, diags = resolve.Resolve(file, table)
		return diags
	})
	if !ok {
		return nil, report, all
	}

	// RequiresHalt only gates the DoS-prevention limits that must stop a
	// pass chain immediately; an ordinary error (undefined reference, type
	// mismatch, ...) lets every later pass still run so the caller sees the
	// full diagnostic picture, but it still means the file doesn't compile.
	if blocking(all) {
		return nil, report, all
	}
	return ctx, report, all
}

// blocking reports whether diags contains anything above Low severity — an
// informational-only diagnostic (e.g. a complexity note) doesn't prevent
// an ExecutionContext from being produced.
func blocking(diags []errcode.Diagnostic) bool {
	for _, d := range diags {
		if meta, ok := errcode.Lookup(d.Code); ok && meta.Severity > errcode.Low {
			return true
		}
	}
	return false
}
