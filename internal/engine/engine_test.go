// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package engine_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/curtisslone/esp/internal/ast"
	"github.com/curtisslone/esp/internal/contract"
	"github.com/curtisslone/esp/internal/engine"
	"github.com/curtisslone/esp/internal/findings"
	"github.com/curtisslone/esp/internal/resolve"
)

type fakeCollector struct {
	objects []map[string]any
	err     error
}

func (f fakeCollector) Collect(map[string]string) ([]map[string]any, error) {
	return f.objects, f.err
}

type equalsExecutor struct{}

func (equalsExecutor) Evaluate(field ast.Field, actual any) (bool, error) {
	switch field.Op {
	case ast.OpEquals:
		return fmt.Sprintf("%v", actual) == field.Expected.Str, nil
	case ast.OpNotEqual:
		return fmt.Sprintf("%v", actual) != field.Expected.Str, nil
	default:
		return false, fmt.Errorf("unsupported op %s", field.Op)
	}
}

func newCtx(obj ast.Object, crit ast.Criterion) *resolve.ExecutionContext {
	return newCtxObjects([]ast.Object{obj}, crit)
}

func newCtxObjects(objs []ast.Object, crit ast.Criterion) *resolve.ExecutionContext {
	node := ast.CriteriaNode{
		LogicalOp: ast.LogicalAnd,
		Children:  []ast.CriteriaContent{{Kind: ast.ContentCriterion, Criterion: &crit}},
	}
	ctx := &resolve.ExecutionContext{
		Criteria:         []ast.CriteriaNode{node},
		ExecutableByNode: map[*ast.Criterion]resolve.ExecutableCriterion{},
	}
	var execObjs []resolve.ExecutableObject
	for _, o := range objs {
		execObjs = append(execObjs, resolve.ExecutableObject{Object: o})
	}
	ctx.ExecutableByNode[&crit] = resolve.ExecutableCriterion{
		Test:    crit.Test,
		States:  crit.LocalStates,
		Objects: execObjs,
	}
	return ctx
}

func TestEngineRunPass(t *testing.T) {
	obj := ast.Object{Name: "pkg", CtnType: "package"}
	state := ast.State{
		Name: "wanted_version",
		Fields: []ast.Field{
			{Name: "version", Op: ast.OpEquals, Expected: ast.Value{Str: "1.0"}},
		},
	}
	crit := ast.Criterion{
		Test:        ast.TestSpecification{Existence: ast.ExistenceAtLeastOne, Item: ast.ItemAll},
		LocalStates: []ast.State{state},
	}
	ctx := newCtx(obj, crit)

	reg := contract.NewRegistry()
	reg.RegisterStrategy(contract.Strategy{
		CtnType: "package", Version: "1.0.0",
		Collector: fakeCollector{objects: []map[string]any{{"version": "1.0"}}},
		Executor:  equalsExecutor{},
	})

	e := engine.New(reg)
	result := e.Run(context.Background(), ctx, "")
	if len(result.Findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(result.Findings))
	}
	if result.Findings[0].Status != findings.StatusPass {
		t.Errorf("expected Pass, got %s: %s", result.Findings[0].Status, result.Findings[0].Message)
	}
}

func TestEngineRunFailOnMismatch(t *testing.T) {
	obj := ast.Object{Name: "pkg", CtnType: "package"}
	state := ast.State{
		Name: "wanted_version",
		Fields: []ast.Field{
			{Name: "version", Op: ast.OpEquals, Expected: ast.Value{Str: "2.0"}},
		},
	}
	crit := ast.Criterion{
		Test:        ast.TestSpecification{Existence: ast.ExistenceAtLeastOne, Item: ast.ItemAll},
		LocalStates: []ast.State{state},
	}
	ctx := newCtx(obj, crit)

	reg := contract.NewRegistry()
	reg.RegisterStrategy(contract.Strategy{
		CtnType: "package", Version: "1.0.0",
		Collector: fakeCollector{objects: []map[string]any{{"version": "1.0"}}},
		Executor:  equalsExecutor{},
	})

	e := engine.New(reg)
	result := e.Run(context.Background(), ctx, "")
	if result.Findings[0].Status != findings.StatusFail {
		t.Errorf("expected Fail, got %s", result.Findings[0].Status)
	}
}

func TestEngineRunMissingStrategyIsError(t *testing.T) {
	obj := ast.Object{Name: "pkg", CtnType: "unregistered"}
	crit := ast.Criterion{Test: ast.TestSpecification{Existence: ast.ExistenceAny, Item: ast.ItemAll}}
	ctx := newCtx(obj, crit)

	e := engine.New(contract.NewRegistry())
	result := e.Run(context.Background(), ctx, "corr")
	if result.Findings[0].Status != findings.StatusError {
		t.Errorf("expected Error, got %s", result.Findings[0].Status)
	}
	if result.CorrelationID != "corr" {
		t.Errorf("expected correlation id to be preserved")
	}
}

func TestEngineRunExistenceNoneSatisfiedByEmptyCollection(t *testing.T) {
	obj := ast.Object{Name: "pkg", CtnType: "package"}
	crit := ast.Criterion{Test: ast.TestSpecification{Existence: ast.ExistenceNone, Item: ast.ItemAll}}
	ctx := newCtx(obj, crit)

	reg := contract.NewRegistry()
	reg.RegisterStrategy(contract.Strategy{
		CtnType: "package", Version: "1.0.0",
		Collector: fakeCollector{objects: nil},
		Executor:  equalsExecutor{},
	})

	e := engine.New(reg)
	result := e.Run(context.Background(), ctx, "")
	if result.Findings[0].Status != findings.StatusPass {
		t.Errorf("expected Pass, got %s: %s", result.Findings[0].Status, result.Findings[0].Message)
	}
}

func TestEngineRunExistenceAnyFailsOnEmptyCollection(t *testing.T) {
	obj := ast.Object{Name: "pkg", CtnType: "package"}
	crit := ast.Criterion{Test: ast.TestSpecification{Existence: ast.ExistenceAny, Item: ast.ItemAll}}
	ctx := newCtx(obj, crit)

	reg := contract.NewRegistry()
	reg.RegisterStrategy(contract.Strategy{
		CtnType: "package", Version: "1.0.0",
		Collector: fakeCollector{objects: nil},
		Executor:  equalsExecutor{},
	})

	e := engine.New(reg)
	result := e.Run(context.Background(), ctx, "")
	if result.Findings[0].Status != findings.StatusFail {
		t.Errorf("expected ExistenceAny with zero collected objects to Fail, got %s: %s", result.Findings[0].Status, result.Findings[0].Message)
	}
}

func TestEngineRunMultipleObjectsCombineForExistenceAll(t *testing.T) {
	objA := ast.Object{Name: "a", CtnType: "package"}
	objB := ast.Object{Name: "b", CtnType: "package"}
	state := ast.State{
		Name: "wanted_version",
		Fields: []ast.Field{
			{Name: "version", Op: ast.OpEquals, Expected: ast.Value{Str: "1.0"}},
		},
	}
	crit := ast.Criterion{
		Test:        ast.TestSpecification{Existence: ast.ExistenceAll, Item: ast.ItemAll},
		LocalStates: []ast.State{state},
	}
	ctx := newCtxObjects([]ast.Object{objA, objB}, crit)

	reg := contract.NewRegistry()
	reg.RegisterStrategy(contract.Strategy{
		CtnType: "package", Version: "1.0.0",
		Collector: fakeCollector{objects: []map[string]any{{"version": "1.0"}}},
		Executor:  equalsExecutor{},
	})

	e := engine.New(reg)
	result := e.Run(context.Background(), ctx, "")
	if result.Findings[0].Status != findings.StatusPass {
		t.Errorf("expected Pass with both declared objects collected, got %s: %s", result.Findings[0].Status, result.Findings[0].Message)
	}
}

func TestEngineRunMultipleObjectsOneWithoutStrategyIsError(t *testing.T) {
	objA := ast.Object{Name: "a", CtnType: "package"}
	objB := ast.Object{Name: "b", CtnType: "missing"}
	crit := ast.Criterion{Test: ast.TestSpecification{Existence: ast.ExistenceAll, Item: ast.ItemAll}}
	ctx := newCtxObjects([]ast.Object{objA, objB}, crit)

	reg := contract.NewRegistry()
	reg.RegisterStrategy(contract.Strategy{
		CtnType: "package", Version: "1.0.0",
		Collector: fakeCollector{objects: []map[string]any{{"version": "1.0"}}},
		Executor:  equalsExecutor{},
	})
	e := engine.New(reg)
	result := e.Run(context.Background(), ctx, "")
	if result.Findings[0].Status != findings.StatusError {
		t.Errorf("expected Error for a declared object with no bound strategy, got %s", result.Findings[0].Status)
	}
}

func TestEngineRunObjectFilterExcludesRecordBeforeTest(t *testing.T) {
	obj := ast.Object{Name: "pkg", CtnType: "package"}
	devFilterState := ast.State{
		Name: "is_dev_build",
		Fields: []ast.Field{
			{Name: "channel", Op: ast.OpEquals, Expected: ast.Value{Str: "dev"}},
		},
	}
	obj.Filters = []ast.Filter{{Action: ast.FilterExclude, StateRefs: []string{"is_dev_build"}}}
	crit := ast.Criterion{Test: ast.TestSpecification{Existence: ast.ExistenceNone, Item: ast.ItemAll}}

	node := ast.CriteriaNode{
		LogicalOp: ast.LogicalAnd,
		Children:  []ast.CriteriaContent{{Kind: ast.ContentCriterion, Criterion: &crit}},
	}
	ctx := &resolve.ExecutionContext{
		Criteria:         []ast.CriteriaNode{node},
		ExecutableByNode: map[*ast.Criterion]resolve.ExecutableCriterion{},
	}
	ctx.ExecutableByNode[&crit] = resolve.ExecutableCriterion{
		Test: crit.Test,
		Objects: []resolve.ExecutableObject{{
			Object: obj,
			Filters: []resolve.ResolvedFilter{
				{Action: ast.FilterExclude, States: []ast.State{devFilterState}},
			},
		}},
	}

	reg := contract.NewRegistry()
	reg.RegisterStrategy(contract.Strategy{
		CtnType: "package", Version: "1.0.0",
		Collector: fakeCollector{objects: []map[string]any{{"channel": "dev"}}},
		Executor:  equalsExecutor{},
	})

	e := engine.New(reg)
	result := e.Run(context.Background(), ctx, "")
	if result.Findings[0].Status != findings.StatusPass {
		t.Errorf("expected the dev-channel record to be excluded, leaving existence=none satisfied; got %s: %s", result.Findings[0].Status, result.Findings[0].Message)
	}
}
