// Copyright (c) 2025 Michael D Henderson. All rights reserved.

// Package engine runs a resolved ExecutionContext against live (or
// simulated) system state: for each CTN it binds a (collector, executor)
// strategy from the contract registry, collects objects, filters them,
// evaluates the TEST specification, and emits one ComplianceFinding per
// CTN. A collector/executor failure downgrades that CTN to an Error
// status instead of aborting the scan — a single bad strategy should
// never stop the rest of the policy from running.
package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/curtisslone/esp/internal/ast"
	"github.com/curtisslone/esp/internal/contract"
	"github.com/curtisslone/esp/internal/findings"
	"github.com/curtisslone/esp/internal/resolve"
)

// Engine evaluates CTNs against a contract registry.
type Engine struct {
	Registry *contract.Registry
}

// New returns an Engine bound to registry.
func New(registry *contract.Registry) *Engine {
	return &Engine{Registry: registry}
}

// Run evaluates every CTN in ctx's criteria tree and returns a rolled-up
// ScanResult. It honors ctx.Done for cooperative cancellation between
// CTNs — a cancellation mid-CTN still lets that CTN finish so a partial
// scan never reports a half-evaluated finding.
func (e *Engine) Run(parent context.Context, ctx *resolve.ExecutionContext, correlationID string) findings.ScanResult {
	var all []findings.ComplianceFinding
	var walk func(n *ast.CriteriaNode) bool
	walk = func(n *ast.CriteriaNode) bool {
		if n == nil {
			return true
		}
		for i := range n.Children {
			select {
			case <-parent.Done():
				return false
			default:
			}
			c := &n.Children[i]
			switch c.Kind {
			case ast.ContentCriteria:
				if !walk(c.Criteria) {
					return false
				}
			case ast.ContentCriterion:
				exec := ctx.ExecutableByNode[c.Criterion]
				all = append(all, e.evaluateCriterion(exec))
			}
		}
		return true
	}
	for i := range ctx.Criteria {
		if !walk(&ctx.Criteria[i]) {
			break
		}
	}
	return findings.NewScanResult(all, correlationID)
}

// collectedRecord is one surviving object record paired with the Executor
// that knows how to evaluate fields collected under its CtnType's contract
// — a criterion's declared objects may span more than one CTN type, so the
// executor travels with the record rather than being looked up once.
type collectedRecord struct {
	data     map[string]any
	executor contract.Executor
}

func (e *Engine) evaluateCriterion(exec resolve.ExecutableCriterion) findings.ComplianceFinding {
	if len(exec.Objects) == 0 {
		return findings.NewFinding("", "", findings.StatusError, nil, nil, "CTN declares no OBJECT_REF/OBJECT to collect")
	}

	var survivors []collectedRecord
	for _, eo := range exec.Objects {
		obj := eo.Object
		strategy, err := e.Registry.LookupStrategy(obj.CtnType, 1, 0)
		if err != nil {
			return findings.NewFinding(obj.CtnType, obj.Name, findings.StatusError, nil, nil, err.Error())
		}

		params := map[string]string{}
		for k, v := range obj.Fields {
			params[k] = renderValue(v)
		}
		raw, err := strategy.Collector.Collect(params)
		if err != nil {
			return findings.NewFinding(obj.CtnType, obj.Name, findings.StatusError, nil, nil, fmt.Sprintf("collection failed: %v", err))
		}

		for _, rec := range filterObjects(raw, obj.Behavior) {
			keep, err := satisfiesFilters(rec, eo.Filters, strategy.Executor)
			if err != nil {
				return findings.NewFinding(obj.CtnType, obj.Name, findings.StatusError, nil, nil, fmt.Sprintf("filter evaluation error: %v", err))
			}
			if keep {
				survivors = append(survivors, collectedRecord{data: rec, executor: strategy.Executor})
			}
		}
	}

	primary := exec.Objects[0].Object
	status, message := evaluateTest(exec, survivors)
	return findings.NewFinding(primary.CtnType, primary.Name, status, describeExpected(exec), describeActual(survivors), message)
}

// filterObjects applies the object's declared behavior: "first_only"
// keeps a single object (the first collected), anything else (including
// the empty default) keeps every object the collector returned.
func filterObjects(raw []map[string]any, behavior string) []map[string]any {
	if behavior == "first_only" && len(raw) > 1 {
		return raw[:1]
	}
	return raw
}

// satisfiesFilters applies an object's resolved filters to one collected
// record: an Include filter keeps the record when its states are satisfied,
// an Exclude filter keeps it when they are not; multiple filters AND
// together (§4.11 step 3).
func satisfiesFilters(rec map[string]any, filters []resolve.ResolvedFilter, ex contract.Executor) (bool, error) {
	for _, f := range filters {
		satisfied, err := objectSatisfiesStates(f.States, ast.LogicalAnd, false, rec, ex)
		if err != nil {
			return false, err
		}
		switch f.Action {
		case ast.FilterInclude:
			if !satisfied {
				return false, nil
			}
		case ast.FilterExclude:
			if satisfied {
				return false, nil
			}
		}
	}
	return true, nil
}

func evaluateTest(exec resolve.ExecutableCriterion, survivors []collectedRecord) (findings.Status, string) {
	expected := len(exec.Objects)
	found := len(survivors)
	if !existenceSatisfied(exec.Test.Existence, found, expected) {
		return findings.StatusFail, fmt.Sprintf("existence check %q failed: %d of %d declared object(s) collected", exec.Test.Existence, found, expected)
	}
	if found == 0 {
		// existence was satisfied by zero objects (e.g. "none"); there is
		// nothing left to item-check.
		return findings.StatusPass, "no objects collected, existence check satisfied"
	}

	passCount := 0
	var lastErr error
	for _, rec := range survivors {
		ok, err := objectSatisfiesStates(exec.States, exec.Test.StateJoin, exec.Test.HasStateJoin, rec.data, rec.executor)
		if err != nil {
			lastErr = err
			continue
		}
		if ok {
			passCount++
		}
	}
	if lastErr != nil && passCount == 0 {
		return findings.StatusError, fmt.Sprintf("state validation error: %v", lastErr)
	}

	if !itemSatisfied(exec.Test.Item, passCount, found) {
		return findings.StatusFail, fmt.Sprintf("item check %q failed: %d/%d object(s) passed", exec.Test.Item, passCount, found)
	}
	return findings.StatusPass, ""
}

// existenceSatisfied implements §4.11 step 4's closed truth table: found is
// the number of objects that survived collection and filtering, expected is
// the number of objects the criterion declared (OBJECT_REF/OBJECT count).
func existenceSatisfied(check ast.ExistenceCheck, found, expected int) bool {
	switch check {
	case ast.ExistenceAny:
		return found > 0
	case ast.ExistenceAll:
		return found == expected && expected > 0
	case ast.ExistenceAtLeastOne:
		return found >= 1
	case ast.ExistenceNone:
		return found == 0
	case ast.ExistenceOnlyOne:
		return found == 1
	default:
		return found >= 1
	}
}

func itemSatisfied(check ast.ItemCheck, pass, total int) bool {
	switch check {
	case ast.ItemAll:
		return pass == total
	case ast.ItemAtLeastOne:
		return pass >= 1
	case ast.ItemOnlyOne:
		return pass == 1
	case ast.ItemNoneSatisfy:
		return pass == 0
	default:
		return pass == total
	}
}

// objectSatisfiesStates evaluates every state against obj and combines
// per-state outcomes with joinOp (defaulting to AND when the TEST
// specification names no explicit join, per §4.6).
func objectSatisfiesStates(states []ast.State, joinOp ast.LogicalOp, hasJoin bool, obj map[string]any, ex contract.Executor) (bool, error) {
	if !hasJoin {
		joinOp = ast.LogicalAnd
	}
	results := make([]bool, 0, len(states))
	for _, s := range states {
		ok, err := stateSatisfied(s, obj, ex)
		if err != nil {
			return false, err
		}
		results = append(results, ok)
	}
	return combine(results, joinOp), nil
}

func stateSatisfied(s ast.State, obj map[string]any, ex contract.Executor) (bool, error) {
	fieldJoin := ast.LogicalAnd
	if s.HasJoin {
		fieldJoin = s.JoinOp
	}
	results := make([]bool, 0, len(s.Fields))
	for _, f := range s.Fields {
		topLevel := f.Name
		if i := strings.IndexByte(topLevel, '.'); i >= 0 {
			topLevel = topLevel[:i]
		}
		actual, present := obj[topLevel]
		if !present {
			results = append(results, false)
			continue
		}
		ok, err := ex.Evaluate(f, actual)
		if err != nil {
			return false, err
		}
		results = append(results, ok)
	}
	return combine(results, fieldJoin), nil
}

func combine(results []bool, op ast.LogicalOp) bool {
	if len(results) == 0 {
		return true
	}
	switch op {
	case ast.LogicalOr:
		for _, r := range results {
			if r {
				return true
			}
		}
		return false
	case ast.LogicalOne:
		count := 0
		for _, r := range results {
			if r {
				count++
			}
		}
		return count == 1
	default: // AND
		for _, r := range results {
			if !r {
				return false
			}
		}
		return true
	}
}

func renderValue(v ast.Value) string {
	switch v.Type {
	case ast.TypeInt:
		return fmt.Sprintf("%d", v.Int)
	case ast.TypeFloat:
		return fmt.Sprintf("%g", v.Flt)
	case ast.TypeBoolean:
		return fmt.Sprintf("%t", v.Bool)
	default:
		return v.Str
	}
}

func describeExpected(exec resolve.ExecutableCriterion) map[string]any {
	out := map[string]any{"existence": exec.Test.Existence, "item": exec.Test.Item, "objects_expected": len(exec.Objects)}
	var stateNames []string
	for _, s := range exec.States {
		stateNames = append(stateNames, s.Name)
	}
	out["states"] = stateNames
	return out
}

func describeActual(survivors []collectedRecord) map[string]any {
	return map[string]any{"objects_found": len(survivors)}
}
