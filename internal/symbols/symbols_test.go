// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package symbols_test

import (
	"testing"

	"github.com/curtisslone/esp/internal/limits"
	"github.com/curtisslone/esp/internal/parser"
	"github.com/curtisslone/esp/internal/symbols"
)

const sampleSrc = `DEF
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

func TestDiscoverFindsGlobalsAndLocals(t *testing.T) {
	file, diags := parser.Parse([]byte(sampleSrc), limits.Default)
	if len(diags) != 0 {
		t.Fatalf("unexpected parse diagnostics: %v", diags)
	}
	table, symDiags := symbols.Discover(file, limits.Default)
	if len(symDiags) != 0 {
		t.Fatalf("unexpected symbol diagnostics: %v", symDiags)
	}
	if _, ok := table.Global.Variables["min_len"]; !ok {
		t.Errorf("expected global variable min_len")
	}
	if _, ok := table.Global.States["has_min_length"]; !ok {
		t.Errorf("expected global state has_min_length")
	}
	if len(table.Locals) != 1 {
		t.Fatalf("expected exactly one CTN local table, got %d", len(table.Locals))
	}
}

func TestDuplicateGlobalNameIsFlagged(t *testing.T) {
	src := `DEF
VAR x int equals 1
VAR x int equals 2
DEF_END
`
	file, _ := parser.Parse([]byte(src), limits.Default)
	_, diags := symbols.Discover(file, limits.Default)
	found := false
	for _, d := range diags {
		if d.Code == "E100" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected an E100 duplicate-symbol diagnostic, got %v", diags)
	}
}

func TestReservedNameIsRejected(t *testing.T) {
	// "string" lexes as a plain Identifier (data-type names are not
	// keywords), so it reaches symbol discovery rather than being rejected
	// by the parser's grammar check first.
	src := `DEF
VAR string int equals 1
DEF_END
`
	file, _ := parser.Parse([]byte(src), limits.Default)
	_, diags := symbols.Discover(file, limits.Default)
	found := false
	for _, d := range diags {
		if d.Code == "E101" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected an E101 reserved-name diagnostic, got %v", diags)
	}
}

func TestSetArityViolation(t *testing.T) {
	src := `DEF
STATE a
  x int equals 1
STATE_END
STATE b
  y int equals 2
STATE_END
SET bad COMPLEMENT a
DEF_END
`
	file, _ := parser.Parse([]byte(src), limits.Default)
	_, diags := symbols.Discover(file, limits.Default)
	found := false
	for _, d := range diags {
		if d.Code == "E104" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected an E104 set-arity diagnostic, got %v", diags)
	}
}
