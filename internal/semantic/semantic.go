// Copyright (c) 2025 Michael D Henderson. All rights reserved.

// Package semantic runs five ordered semantic checks against a parsed,
// symbol-resolved EspFile: field type/operation compatibility, runtime
// operation input checks, SET filter constraints, bounds enforcement, and
// cycle promotion. It stops early once MAX_SEMANTIC_ERRORS is reached,
// reporting E305 so a pathological file can't force unbounded diagnostic
// generation.
package semantic

import (
	"fmt"

	"github.com/curtisslone/esp/internal/ast"
	"github.com/curtisslone/esp/internal/errcode"
	"github.com/curtisslone/esp/internal/limits"
	"github.com/curtisslone/esp/internal/refs"
	"github.com/curtisslone/esp/internal/sourcemap"
	"github.com/curtisslone/esp/internal/symbols"
)

// compatibility is the canonical type/operation compatibility matrix
// (§4.7): which Operations are legal against which DataType.
var compatibility = map[ast.DataType]map[ast.Operation]bool{
	ast.TypeString: ops(ast.OpEquals, ast.OpNotEqual, ast.OpEqualsIC, ast.OpNotEqualIC,
		ast.OpContains, ast.OpNotContains, ast.OpStartsWith, ast.OpNotStartsWith,
		ast.OpEndsWith, ast.OpNotEndsWith, ast.OpPatternMatch, ast.OpMatches,
		ast.OpLess, ast.OpLessEqual, ast.OpGreater, ast.OpGreaterEqual,
		ast.OpSubsetOf, ast.OpSupersetOf),
	ast.TypeInt: ops(ast.OpEquals, ast.OpNotEqual, ast.OpLess, ast.OpLessEqual,
		ast.OpGreater, ast.OpGreaterEqual),
	ast.TypeFloat: ops(ast.OpEquals, ast.OpNotEqual, ast.OpLess, ast.OpLessEqual,
		ast.OpGreater, ast.OpGreaterEqual),
	ast.TypeBoolean: ops(ast.OpEquals, ast.OpNotEqual),
	ast.TypeBinary:  ops(ast.OpEquals, ast.OpNotEqual),
	ast.TypeRecordData: ops(ast.OpEquals, ast.OpNotEqual, ast.OpContains, ast.OpNotContains,
		ast.OpSubsetOf, ast.OpSupersetOf),
	ast.TypeVersion: ops(ast.OpEquals, ast.OpNotEqual, ast.OpLess, ast.OpLessEqual,
		ast.OpGreater, ast.OpGreaterEqual),
	ast.TypeEvrString: ops(ast.OpEquals, ast.OpNotEqual, ast.OpLess, ast.OpLessEqual,
		ast.OpGreater, ast.OpGreaterEqual),
}

func ops(o ...ast.Operation) map[ast.Operation]bool {
	m := map[ast.Operation]bool{}
	for _, x := range o {
		m[x] = true
	}
	return m
}

// Result carries diagnostics plus whether any variable cycle was promoted to
// a fatal circular-dependency error, for the compiler driver to surface.
type Result struct {
	Diagnostics        []errcode.Diagnostic
	CircularDependency bool
}

// Check runs all five sub-passes against file using table (from
// internal/symbols) and refResult (from internal/refs).
func Check(file *ast.EspFile, table *symbols.Table, refResult refs.Result, profile limits.Profile) Result {
	var diags []errcode.Diagnostic
	errCount := 0
	push := func(code errcode.Code, msg string, span sourcemap.Span) bool {
		if errCount >= profile.MaxSemanticErrors {
			return false
		}
		diags = append(diags, errcode.Diagnostic{Code: code, Message: msg, Line: span.Start.Line, Col: span.Start.Column})
		errCount++
		if errCount == profile.MaxSemanticErrors {
			diags = append(diags, errcode.Diagnostic{Code: "E305", Message: "maximum semantic error count reached; remaining checks skipped"})
		}
		return errCount < profile.MaxSemanticErrors
	}

	// 1. field type/operation compatibility, across every declared state
	// (global and CTN-local).
	checkState := func(s *ast.State) bool {
		for _, f := range s.Fields {
			allowed, ok := compatibility[f.Type]
			if !ok || !allowed[f.Op] {
				if !push("E300", fmt.Sprintf("operation %q is not valid for type %q on field %q", f.Op, f.Type, f.Name), f.Span) {
					return false
				}
				continue
			}
			if f.Expected.IsVariable {
				continue // a VAR(...) expectation's type is not compared with the field's
			}
			if !valueMatchesType(f.Expected, f.Type) {
				if !push("E300", fmt.Sprintf("field %q expects a %s value", f.Name, f.Type), f.Span) {
					return false
				}
			}
		}
		return true
	}
	for _, s := range table.Global.States {
		if !checkState(s) {
			return Result{Diagnostics: diags}
		}
	}
	for _, local := range table.Locals {
		for _, s := range local.States {
			if !checkState(s) {
				return Result{Diagnostics: diags}
			}
		}
	}

	// 2. runtime operation input checks: every input variable must be
	// declared, and RUN may not reference its own output. Input and output
	// types are not compared with the referenced variables' types.
	for _, r := range table.Global.RuntimeOps {
		for _, in := range r.InputVars {
			if in == r.OutputVar {
				if !push("E301", fmt.Sprintf("runtime operation %q cannot take its own output %q as an input", r.OpName, in), r.Span) {
					return Result{Diagnostics: diags}
				}
			}
			_, isVar := table.Global.Variables[in]
			_, isRun := table.Global.RuntimeOps[in]
			if !isVar && !isRun {
				if !push("E301", fmt.Sprintf("runtime operation %q references undeclared input variable %q", r.OpName, in), r.Span) {
					return Result{Diagnostics: diags}
				}
			}
		}
	}

	// 3. SET constraints: arity was already checked at discovery time, but
	// filters may only reference GLOBAL states (not CTN-local ones).
	for _, so := range table.Global.Sets {
		for _, f := range so.Filters {
			for _, ref := range f.StateRefs {
				if _, ok := table.Global.States[ref]; !ok {
					if !push("E303", fmt.Sprintf("set %q filter references non-global state %q", so.Name, ref), f.Span) {
						return Result{Diagnostics: diags}
					}
				}
			}
		}
	}

	// 4. bounds enforcement (§4.7 points 2 and 3): runtime operation
	// parameter count, set operand count, and filter state-reference count
	// must each stay within their configured ceilings.
	for _, r := range table.Global.RuntimeOps {
		if len(r.InputVars) > profile.MaxRuntimeOperationParams {
			if !push("E402", fmt.Sprintf("runtime operation %q takes %d parameters, exceeding the limit of %d", r.OpName, len(r.InputVars), profile.MaxRuntimeOperationParams), r.Span) {
				return Result{Diagnostics: diags}
			}
		}
	}
	for _, so := range table.Global.Sets {
		if len(so.Operands) > profile.MaxSetOperationOperands {
			if !push("E402", fmt.Sprintf("set %q has %d operands, exceeding the limit of %d", so.Name, len(so.Operands), profile.MaxSetOperationOperands), so.Span) {
				return Result{Diagnostics: diags}
			}
		}
		if !checkFilterBounds(so.Name, so.Filters, profile, push) {
			return Result{Diagnostics: diags}
		}
	}
	for _, o := range table.Global.Objects {
		if !checkFilterBounds(o.Name, o.Filters, profile, push) {
			return Result{Diagnostics: diags}
		}
	}
	for _, local := range table.Locals {
		if local.Object != nil && !checkFilterBounds(local.Object.Name, local.Object.Filters, profile, push) {
			return Result{Diagnostics: diags}
		}
	}

	// 5. cycle promotion: any cycle found by internal/refs is a fatal
	// CircularDependency for the variable graph; cycles among STATE/OBJECT
	// names can't occur since those blocks never reference each other.
	circular := false
	for _, c := range refResult.Cycles {
		isVarCycle := true
		for _, name := range c.Path {
			_, isVar := table.Global.Variables[name]
			_, isRun := table.Global.RuntimeOps[name]
			if !isVar && !isRun {
				isVarCycle = false
				break
			}
		}
		if isVarCycle {
			circular = true
			push("E304", fmt.Sprintf("circular variable dependency: %v", c.Path), sourcemap.Span{})
		}
	}

	return Result{Diagnostics: diags, CircularDependency: circular}
}

// checkFilterBounds enforces MAX_FILTER_STATE_REFERENCES against every
// filter declared on a SET or OBJECT. Returns false once push signals the
// semantic-error budget is exhausted.
func checkFilterBounds(owner string, filters []ast.Filter, profile limits.Profile, push func(errcode.Code, string, sourcemap.Span) bool) bool {
	for _, f := range filters {
		if len(f.StateRefs) > profile.MaxFilterStateReferences {
			if !push("E402", fmt.Sprintf("%q filter references %d states, exceeding the limit of %d", owner, len(f.StateRefs), profile.MaxFilterStateReferences), f.Span) {
				return false
			}
		}
	}
	return true
}

func valueMatchesType(v ast.Value, t ast.DataType) bool {
	switch t {
	case ast.TypeInt:
		return v.Type == ast.TypeInt
	case ast.TypeFloat:
		return v.Type == ast.TypeFloat || v.Type == ast.TypeInt
	case ast.TypeBoolean:
		return v.Type == ast.TypeBoolean
	case ast.TypeRecordData:
		return v.Type == ast.TypeRecordData
	default:
		return v.Type == ast.TypeString || v.Type == t || v.Str != "" || v.Type == ""
	}
}
