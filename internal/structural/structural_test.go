// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package structural_test

import (
	"testing"

	"github.com/curtisslone/esp/internal/limits"
	"github.com/curtisslone/esp/internal/parser"
	"github.com/curtisslone/esp/internal/structural"
)

func TestFileWithNoCriteriaIsFlagged(t *testing.T) {
	file, _ := parser.Parse([]byte("DEF\nDEF_END\n"), limits.Default)
	result := structural.Check(file, limits.Default)
	found := false
	for _, d := range result.Diagnostics {
		if d.Code == "E403" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected E403, got %v", result.Diagnostics)
	}
}

func TestEmptyCriteriaBlockIsFlagged(t *testing.T) {
	src := `DEF
CRI
CRI_END
DEF_END
`
	file, diags := parser.Parse([]byte(src), limits.Default)
	if len(diags) != 0 {
		t.Fatalf("unexpected parse diagnostics: %v", diags)
	}
	result := structural.Check(file, limits.Default)
	found := false
	for _, d := range result.Diagnostics {
		if d.Code == "E404" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected E404 for an empty CRI block with no CTN or nested block, got %v", result.Diagnostics)
	}
}

func TestCtnWithNoValidationSourceIsFlagged(t *testing.T) {
	src := `DEF
CRI
  CTN
    TEST any all
  CTN_END
CRI_END
DEF_END
`
	file, diags := parser.Parse([]byte(src), limits.Default)
	if len(diags) != 0 {
		t.Fatalf("unexpected parse diagnostics: %v", diags)
	}
	result := structural.Check(file, limits.Default)
	found := false
	for _, d := range result.Diagnostics {
		if d.Code == "E406" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected E406 for a CTN with no STATE_REF/STATE/OBJECT_REF/OBJECT, got %v", result.Diagnostics)
	}
}

func TestWellFormedCtnHasNoStructuralErrors(t *testing.T) {
	src := `DEF
CRI
  CTN
    TEST any all
    STATE local_state
      x int equals 1
    STATE_END
  CTN_END
CRI_END
DEF_END
`
	file, diags := parser.Parse([]byte(src), limits.Default)
	if len(diags) != 0 {
		t.Fatalf("unexpected parse diagnostics: %v", diags)
	}
	result := structural.Check(file, limits.Default)
	if len(result.Diagnostics) != 0 {
		t.Errorf("expected no structural diagnostics, got %v", result.Diagnostics)
	}
	if result.ComplexityScore <= 0 {
		t.Errorf("expected a positive complexity score")
	}
}
