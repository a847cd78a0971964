// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package executors_test

import (
	"testing"

	"github.com/curtisslone/esp/internal/ast"
	"github.com/curtisslone/esp/internal/executors"
)

func TestEvaluateStringEquals(t *testing.T) {
	var e executors.GenericExecutor
	field := ast.Field{Name: "owner", Type: ast.TypeString, Op: ast.OpEquals, Expected: ast.Value{Str: "root"}}
	ok, err := e.Evaluate(field, "root")
	if err != nil || !ok {
		t.Fatalf("expected pass, got ok=%v err=%v", ok, err)
	}
}

func TestEvaluateEvrStringOrdering(t *testing.T) {
	var e executors.GenericExecutor
	field := ast.Field{Name: "evr", Type: ast.TypeEvrString, Op: ast.OpGreaterEqual, Expected: ast.Value{Str: "1:2.0-1"}}
	ok, err := e.Evaluate(field, "1:3.1-2")
	if err != nil || !ok {
		t.Fatalf("expected 1:3.1-2 >= 1:2.0-1, got ok=%v err=%v", ok, err)
	}
}

func TestEvaluateRecordDataDotPath(t *testing.T) {
	var e executors.GenericExecutor
	field := ast.Field{Name: "json_data.nested.mode", Type: ast.TypeString, Op: ast.OpEquals, Expected: ast.Value{Str: "0644"}}
	actual := map[string]any{"nested": map[string]any{"mode": "0644"}}
	ok, err := e.Evaluate(field, actual)
	if err != nil || !ok {
		t.Fatalf("expected dot-path match, got ok=%v err=%v", ok, err)
	}
}

func TestEvaluateEntityCheckAtLeastOne(t *testing.T) {
	var e executors.GenericExecutor
	field := ast.Field{
		Name: "tags", Type: ast.TypeString, Op: ast.OpEquals,
		Expected: ast.Value{Str: "prod"}, EntityCheck: ast.EntityAtLeastOne, HasEntity: true,
	}
	ok, err := e.Evaluate(field, []any{"dev", "prod", "staging"})
	if err != nil || !ok {
		t.Fatalf("expected at_least_one to pass, got ok=%v err=%v", ok, err)
	}
}

func TestEvaluateSubsetOf(t *testing.T) {
	var e executors.GenericExecutor
	field := ast.Field{Name: "roles", Type: ast.TypeString, Op: ast.OpSubsetOf, Expected: ast.Value{Str: "admin,operator,viewer"}}
	ok, err := e.Evaluate(field, "admin,viewer")
	if err != nil || !ok {
		t.Fatalf("expected subset_of to pass, got ok=%v err=%v", ok, err)
	}
}

func TestEvaluateUnsupportedOperationErrors(t *testing.T) {
	var e executors.GenericExecutor
	field := ast.Field{Name: "count", Type: ast.TypeInt, Op: ast.OpContains, Expected: ast.Value{Int: 1}}
	if _, err := e.Evaluate(field, 5); err == nil {
		t.Errorf("expected an error for contains on an int field")
	}
}
