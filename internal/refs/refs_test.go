// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package refs_test

import (
	"testing"

	"github.com/curtisslone/esp/internal/limits"
	"github.com/curtisslone/esp/internal/parser"
	"github.com/curtisslone/esp/internal/refs"
	"github.com/curtisslone/esp/internal/symbols"
)

func TestUndefinedReferenceIsFlagged(t *testing.T) {
	src := `DEF
SET combined UNION missing_state
DEF_END
`
	file, _ := parser.Parse([]byte(src), limits.Default)
	table, _ := symbols.Discover(file, limits.Default)
	_, diags := refs.Validate(table, limits.Default)
	found := false
	for _, d := range diags {
		if d.Code == "E200" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected an E200 undefined-reference diagnostic, got %v", diags)
	}
}

func TestCircularVariableReferenceIsDetected(t *testing.T) {
	src := `DEF
VAR a int equals VAR(b)
VAR b int equals VAR(a)
DEF_END
`
	file, _ := parser.Parse([]byte(src), limits.Default)
	table, _ := symbols.Discover(file, limits.Default)
	result, _ := refs.Validate(table, limits.Default)
	if len(result.Cycles) == 0 {
		t.Fatalf("expected at least one cycle to be detected")
	}
}

func TestOrphanStateIsReported(t *testing.T) {
	src := `DEF
STATE unused
  x int equals 1
STATE_END
DEF_END
`
	file, _ := parser.Parse([]byte(src), limits.Default)
	table, _ := symbols.Discover(file, limits.Default)
	result, _ := refs.Validate(table, limits.Default)
	found := false
	for _, o := range result.Orphans {
		if o == "unused" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected 'unused' to be reported as an orphan, got %v", result.Orphans)
	}
}
