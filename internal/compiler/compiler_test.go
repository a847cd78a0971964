// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package compiler_test

import (
	"testing"

	"github.com/curtisslone/esp/internal/compiler"
	"github.com/curtisslone/esp/internal/limits"
)

const validPolicy = `META
title equals ` + "`minimum password length`" + `
META_END
DEF
VAR min_len int equals 8
STATE has_min_length
  length int greater_than_or_equal VAR(min_len)
STATE_END
CRI
  CTN
    TEST all all
    STATE_REF has_min_length
  CTN_END
CRI_END
DEF_END
`

func TestCompileValidPolicyProducesExecutionContext(t *testing.T) {
	ctx, report, diags := compiler.Compile([]byte(validPolicy), limits.Default)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if ctx == nil {
		t.Fatal("expected a non-nil ExecutionContext")
	}
	if report.Halted {
		t.Errorf("expected the pipeline not to halt, halted at %q", report.HaltedAtPass)
	}
	if len(report.Passes) != 6 {
		t.Errorf("expected 6 pass reports, got %d: %+v", len(report.Passes), report.Passes)
	}
}

func TestCompileUndefinedReferenceYieldsNoContext(t *testing.T) {
	src := `DEF
CRI
  CTN
    TEST all all
    STATE_REF missing
  CTN_END
CRI_END
DEF_END
`
	ctx, report, diags := compiler.Compile([]byte(src), limits.Default)
	if ctx != nil {
		t.Errorf("expected a nil ExecutionContext for an undefined reference")
	}
	if len(diags) == 0 {
		t.Errorf("expected at least one diagnostic")
	}
	_ = report
}
