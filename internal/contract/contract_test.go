// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package contract_test

import (
	"testing"

	"github.com/curtisslone/esp/internal/ast"
	"github.com/curtisslone/esp/internal/contract"
)

type nopCollector struct{}

func (nopCollector) Collect(map[string]string) ([]map[string]any, error) { return nil, nil }

type nopExecutor struct{}

func (nopExecutor) Evaluate(ast.Field, any) (bool, error) { return true, nil }

func TestRegistryAssessesHealth(t *testing.T) {
	r := contract.NewRegistry()
	if got := r.Assess("package"); got != contract.HealthEmpty {
		t.Errorf("expected HealthEmpty for an unregistered type, got %s", got)
	}

	c := contract.CtnContract{CtnType: "package", Fields: []contract.FieldSpec{
		{Name: "name", Type: ast.TypeString},
		{Name: "version", Type: ast.TypeVersion},
	}}
	if err := r.RegisterContract(c); err != nil {
		t.Fatalf("unexpected contract validation error: %v", err)
	}
	if got := r.Assess("package"); got != contract.HealthIncomplete {
		t.Errorf("expected HealthIncomplete with no strategy registered, got %s", got)
	}

	r.RegisterStrategy(contract.Strategy{CtnType: "package", Version: "1.0.0", Collector: nopCollector{}, Executor: nopExecutor{}})
	if got := r.Assess("package"); got != contract.HealthHealthy {
		t.Errorf("expected HealthHealthy, got %s", got)
	}
}

func TestContractRejectsCyclicComputedFields(t *testing.T) {
	c := contract.CtnContract{CtnType: "bad", Fields: []contract.FieldSpec{
		{Name: "raw", Type: ast.TypeString},
		{Name: "a", Type: ast.TypeString, Computed: true, DependsOn: []string{"b"}},
		{Name: "b", Type: ast.TypeString, Computed: true, DependsOn: []string{"a"}},
	}}
	if err := c.Validate(); err == nil {
		t.Errorf("expected a cyclic-dependency validation error")
	}
}

func TestLookupStrategyPicksCompatibleMinor(t *testing.T) {
	r := contract.NewRegistry()
	r.RegisterStrategy(contract.Strategy{CtnType: "service", Version: "1.0.0", Collector: nopCollector{}, Executor: nopExecutor{}})
	r.RegisterStrategy(contract.Strategy{CtnType: "service", Version: "1.2.0", Collector: nopCollector{}, Executor: nopExecutor{}})
	s, err := r.LookupStrategy("service", 1, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Version != "1.2.0" {
		t.Errorf("expected the 1.2.0 strategy to be picked, got %s", s.Version)
	}
	if _, err := r.LookupStrategy("service", 2, 0); err == nil {
		t.Errorf("expected a major-version mismatch to fail lookup")
	}
}
