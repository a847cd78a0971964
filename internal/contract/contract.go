// Copyright (c) 2025 Michael D Henderson. All rights reserved.

// Package contract declares what a CTN type needs from the runtime: the
// named, typed object fields a collector must produce, and the
// (collector, executor) strategy pair that knows how to produce and
// evaluate them. A registry maps CTN type names to contracts and to the
// strategies that implement them, with a health assessment so a caller can
// tell "nothing is registered for this type" apart from "only a contract or
// only a strategy is registered."
package contract

import (
	"fmt"
	"sort"

	"github.com/curtisslone/esp/internal/ast"
	"github.com/curtisslone/esp/internal/version"
)

// FieldSpec is one field a contract promises an object will carry.
type FieldSpec struct {
	Name string
	Type ast.DataType
	// Computed is true for a field the executor derives from others rather
	// than one the collector fills in directly (e.g. an evr_string built
	// from separately collected epoch/version/release columns).
	Computed   bool
	DependsOn  []string
}

// CtnContract is the full declaration for one CTN type.
type CtnContract struct {
	CtnType string
	Version string
	Fields  []FieldSpec
}

// Validate checks a contract's own internal consistency: no duplicate
// field names, every computed field's dependencies exist, the dependency
// graph is acyclic, and at least one non-computed (collectable) field is
// declared.
func (c CtnContract) Validate() error {
	seen := map[string]FieldSpec{}
	for _, f := range c.Fields {
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("contract %s: duplicate field %q", c.CtnType, f.Name)
		}
		seen[f.Name] = f
	}
	collectable := 0
	for _, f := range c.Fields {
		if !f.Computed {
			collectable++
			continue
		}
		for _, dep := range f.DependsOn {
			if _, ok := seen[dep]; !ok {
				return fmt.Errorf("contract %s: computed field %q depends on undeclared field %q", c.CtnType, f.Name, dep)
			}
		}
	}
	if collectable == 0 {
		return fmt.Errorf("contract %s: at least one collectable (non-computed) field is required", c.CtnType)
	}
	if cyclic, path := hasCycle(c.Fields); cyclic {
		return fmt.Errorf("contract %s: cyclic computed-field dependency: %v", c.CtnType, path)
	}
	return nil
}

func hasCycle(fields []FieldSpec) (bool, []string) {
	byName := map[string]FieldSpec{}
	for _, f := range fields {
		byName[f.Name] = f
	}
	const (
		white = iota
		gray
		black
	)
	color := map[string]int{}
	var path []string
	var visit func(name string) bool
	visit = func(name string) bool {
		color[name] = gray
		path = append(path, name)
		for _, dep := range byName[name].DependsOn {
			switch color[dep] {
			case gray:
				return true
			case white:
				if visit(dep) {
					return true
				}
			}
		}
		path = path[:len(path)-1]
		color[name] = black
		return false
	}
	for _, f := range fields {
		if color[f.Name] == white {
			if visit(f.Name) {
				return true, path
			}
		}
	}
	return false, nil
}

// Collector produces raw objects for one CTN type.
type Collector interface {
	Collect(params map[string]string) ([]map[string]any, error)
}

// Executor evaluates a collected object's field against an expected value
// and operation.
type Executor interface {
	Evaluate(field ast.Field, actual any) (bool, error)
}

// Strategy is the (collector, executor) pair registered for a CTN type.
type Strategy struct {
	CtnType   string
	Version   string
	Collector Collector
	Executor  Executor
}

// Health describes how usable a registered CTN type is.
type Health string

const (
	HealthHealthy   Health = "Healthy"   // contract, collector, and executor all present
	HealthIncomplete Health = "Incomplete" // a contract without a strategy, or a strategy without a contract
	HealthUnhealthy Health = "Unhealthy" // contract fails Validate()
	HealthEmpty     Health = "Empty"     // nothing registered for this CTN type at all
)

// Registry maps CTN type names to their contract and strategy.
type Registry struct {
	contracts  map[string]CtnContract
	strategies map[string][]Strategy // multiple versions may coexist
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{contracts: map[string]CtnContract{}, strategies: map[string][]Strategy{}}
}

// RegisterContract adds (or replaces) a CTN type's contract.
func (r *Registry) RegisterContract(c CtnContract) error {
	if err := c.Validate(); err != nil {
		return err
	}
	r.contracts[c.CtnType] = c
	return nil
}

// RegisterStrategy adds a (collector, executor) implementation for a CTN
// type/version. Multiple versions of the same CTN type may be registered;
// LookupStrategy picks the best compatible one.
func (r *Registry) RegisterStrategy(s Strategy) {
	r.strategies[s.CtnType] = append(r.strategies[s.CtnType], s)
}

// Contract returns the declared contract for ctnType, if any.
func (r *Registry) Contract(ctnType string) (CtnContract, bool) {
	c, ok := r.contracts[ctnType]
	return c, ok
}

// Assess reports the health of a registered (or unregistered) CTN type.
func (r *Registry) Assess(ctnType string) Health {
	c, hasContract := r.contracts[ctnType]
	_, hasStrategy := r.strategies[ctnType]
	switch {
	case !hasContract && !hasStrategy:
		return HealthEmpty
	case hasContract && c.Validate() != nil:
		return HealthUnhealthy
	case hasContract && hasStrategy:
		return HealthHealthy
	default:
		return HealthIncomplete
	}
}

// LookupStrategy finds the best strategy registered for ctnType whose
// major version matches requiredMajor and whose own minor version is at
// least requiredMinor — the usual "supported minor must be >= requested"
// compatibility rule, with major version required to match exactly.
func (r *Registry) LookupStrategy(ctnType string, requiredMajor, requiredMinor int) (Strategy, error) {
	candidates := r.strategies[ctnType]
	if len(candidates) == 0 {
		return Strategy{}, fmt.Errorf("no strategy registered for CTN type %q", ctnType)
	}
	sort.Slice(candidates, func(i, j int) bool {
		vi, vj := version.ParseSemver(candidates[i].Version), version.ParseSemver(candidates[j].Version)
		return version.CompareSemver(vi, vj) > 0
	})
	for _, s := range candidates {
		v := version.ParseSemver(s.Version)
		if v.Major == requiredMajor && v.Minor >= requiredMinor {
			return s, nil
		}
	}
	return Strategy{}, fmt.Errorf("no strategy registered for CTN type %q compatible with %d.%d", ctnType, requiredMajor, requiredMinor)
}

// CtnTypes returns every CTN type that has either a contract or a
// strategy registered, sorted for deterministic reporting.
func (r *Registry) CtnTypes() []string {
	seen := map[string]bool{}
	for t := range r.contracts {
		seen[t] = true
	}
	for t := range r.strategies {
		seen[t] = true
	}
	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
