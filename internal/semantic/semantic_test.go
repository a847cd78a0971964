// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package semantic_test

import (
	"testing"

	"github.com/curtisslone/esp/internal/limits"
	"github.com/curtisslone/esp/internal/parser"
	"github.com/curtisslone/esp/internal/refs"
	"github.com/curtisslone/esp/internal/semantic"
	"github.com/curtisslone/esp/internal/symbols"
)

func check(t *testing.T, src string) ([]string, semantic.Result) {
	t.Helper()
	return checkWithProfile(t, src, limits.Default)
}

func checkWithProfile(t *testing.T, src string, profile limits.Profile) ([]string, semantic.Result) {
	t.Helper()
	file, diags := parser.Parse([]byte(src), profile)
	if len(diags) != 0 {
		t.Fatalf("unexpected parse diagnostics: %v", diags)
	}
	table, symDiags := symbols.Discover(file, profile)
	if len(symDiags) != 0 {
		t.Fatalf("unexpected symbol diagnostics: %v", symDiags)
	}
	refResult, _ := refs.Validate(table, profile)
	result := semantic.Check(file, table, refResult, profile)
	var codes []string
	for _, d := range result.Diagnostics {
		codes = append(codes, string(d.Code))
	}
	return codes, result
}

func hasCode(codes []string, want string) bool {
	for _, c := range codes {
		if c == want {
			return true
		}
	}
	return false
}

func TestIncompatibleOperationIsRejected(t *testing.T) {
	codes, _ := check(t, `DEF
STATE bad
  name string contains `+"`x`"+`
  count int starts_with `+"`y`"+`
STATE_END
DEF_END
`)
	found := false
	for _, c := range codes {
		if c == "E300" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected E300, got %v", codes)
	}
}

func TestRuntimeOperationSelfReferenceIsRejected(t *testing.T) {
	codes, _ := check(t, `DEF
VAR seed int equals 1
RUN double a int (a)
DEF_END
`)
	found := false
	for _, c := range codes {
		if c == "E301" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected E301, got %v", codes)
	}
}

func TestRuntimeOperationParamCountOverLimitIsRejected(t *testing.T) {
	profile := limits.Default
	profile.MaxRuntimeOperationParams = 1
	codes, _ := checkWithProfile(t, `DEF
VAR a int equals 1
VAR b int equals 2
RUN sum_op out int (a, b)
DEF_END
`, profile)
	if !hasCode(codes, "E402") {
		t.Errorf("expected E402 when a runtime operation exceeds max_runtime_operation_parameters, got %v", codes)
	}
}

func TestRuntimeOperationParamCountAtLimitPasses(t *testing.T) {
	profile := limits.Default
	profile.MaxRuntimeOperationParams = 2
	codes, _ := checkWithProfile(t, `DEF
VAR a int equals 1
VAR b int equals 2
RUN sum_op out int (a, b)
DEF_END
`, profile)
	if hasCode(codes, "E402") {
		t.Errorf("expected no E402 at the configured limit, got %v", codes)
	}
}

func TestSetOperandCountOverLimitIsRejected(t *testing.T) {
	profile := limits.Default
	profile.MaxSetOperationOperands = 1
	codes, _ := checkWithProfile(t, `DEF
STATE a
  x int equals 1
STATE_END
STATE b
  x int equals 2
STATE_END
SET combined UNION a b
DEF_END
`, profile)
	if !hasCode(codes, "E402") {
		t.Errorf("expected E402 when a set exceeds max_set_operation_operands, got %v", codes)
	}
}

func TestSetOperandCountAtLimitPasses(t *testing.T) {
	profile := limits.Default
	profile.MaxSetOperationOperands = 2
	codes, _ := checkWithProfile(t, `DEF
STATE a
  x int equals 1
STATE_END
STATE b
  x int equals 2
STATE_END
SET combined UNION a b
DEF_END
`, profile)
	if hasCode(codes, "E402") {
		t.Errorf("expected no E402 at the configured limit, got %v", codes)
	}
}

func TestFilterStateReferenceCountOverLimitIsRejected(t *testing.T) {
	profile := limits.Default
	profile.MaxFilterStateReferences = 1
	codes, _ := checkWithProfile(t, `DEF
STATE a
  x int equals 1
STATE_END
STATE b
  x int equals 2
STATE_END
SET combined UNION a b
  FILTER INCLUDE a, b
  FILTER_END
DEF_END
`, profile)
	if !hasCode(codes, "E402") {
		t.Errorf("expected E402 when a filter exceeds max_filter_state_references, got %v", codes)
	}
}

func TestCircularVariableDependencyIsPromoted(t *testing.T) {
	_, result := check(t, `DEF
VAR a int equals VAR(b)
VAR b int equals VAR(a)
DEF_END
`)
	if !result.CircularDependency {
		t.Errorf("expected CircularDependency to be true")
	}
}
