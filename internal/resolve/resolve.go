// Copyright (c) 2025 Michael D Henderson. All rights reserved.

// Package resolve implements the final compiler pass: topological
// resolution of every variable (literal, VAR reference, or RUN-deferred
// runtime operation) into a flat ExecutionContext the scanner runtime can
// execute directly, with every referenced global state/object inlined into
// its criterion and global sets copied into ResolvedSets, so the engine
// never needs the symbol table again.
package resolve

import (
	"fmt"

	"github.com/curtisslone/esp/internal/ast"
	"github.com/curtisslone/esp/internal/errcode"
	"github.com/curtisslone/esp/internal/symbols"
)

// ResolvedVariable is a variable after its value (or its deferred runtime
// operation) has been bound.
type ResolvedVariable struct {
	Name  string
	Type  ast.DataType
	Value ast.Value // zero value when Deferred is true
	// Deferred is true for a RUN-produced variable: its value isn't known
	// until the engine actually executes OpName against the other resolved
	// variables at scan time.
	Deferred bool
	OpName   string
	Inputs   []string
}

// ResolvedFilter is an Object's Filter with its StateRefs inlined into the
// actual global states, so the engine never needs the symbol table to
// evaluate an include/exclude predicate.
type ResolvedFilter struct {
	Action ast.FilterAction
	States []ast.State
}

// ExecutableObject is one of a criterion's declared objects (a global
// OBJECT_REF or the local OBJECT) with its filters resolved.
type ExecutableObject struct {
	Object  ast.Object
	Filters []ResolvedFilter
}

// ExecutableCriterion is a Criterion with its STATE_REF/OBJECT_REF
// inlined alongside any locally declared ones, so the engine has one flat
// list of states and one flat list of objects to evaluate per CTN. A
// criterion may declare zero or more objects (spec.md §3): each becomes its
// own ExecutableObject so the engine can collect, filter, and count them
// independently before combining survivors for the TEST's existence/item
// checks (§4.11).
type ExecutableCriterion struct {
	Test    ast.TestSpecification
	States  []ast.State
	Objects []ExecutableObject
}

// ExecutionContext is the fully resolved, ready-to-run artifact the
// compiler hands to the scanner.
type ExecutionContext struct {
	Metadata      *ast.Metadata
	Variables     map[string]*ResolvedVariable
	GlobalStates  map[string]ast.State
	GlobalObjects map[string]ast.Object
	ResolvedSets  map[string]ast.SetOperation
	Criteria      []ast.CriteriaNode
	// ExecutableByNode is keyed by AST node identity, not by anything a
	// serialized plan can name — it exists for the engine to look up a
	// criterion's inlined states/object in O(1) while walking Criteria,
	// and is rebuilt fresh on every Resolve call rather than persisted.
	ExecutableByNode map[*ast.Criterion]ExecutableCriterion `json:"-"`
}

// Resolve builds an ExecutionContext from file and table. It assumes
// file/table have already passed reference validation and semantic
// checking with no fatal diagnostics.
func Resolve(file *ast.EspFile, table *symbols.Table) (*ExecutionContext, []errcode.Diagnostic) {
	var diags []errcode.Diagnostic
	push := func(code errcode.Code, msg string) {
		diags = append(diags, errcode.Diagnostic{Code: code, Message: msg})
	}

	ctx := &ExecutionContext{
		Metadata:         file.Metadata,
		Variables:        map[string]*ResolvedVariable{},
		GlobalStates:     map[string]ast.State{},
		GlobalObjects:    map[string]ast.Object{},
		ResolvedSets:     map[string]ast.SetOperation{},
		ExecutableByNode: map[*ast.Criterion]ExecutableCriterion{},
	}

	// topological resolution of literal/VAR-reference variables; RUN
	// variables are marked Deferred and left for the engine.
	resolving := map[string]bool{}
	var resolveVar func(name string) *ResolvedVariable
	resolveVar = func(name string) *ResolvedVariable {
		if rv, ok := ctx.Variables[name]; ok {
			return rv
		}
		if resolving[name] {
			push("E304", fmt.Sprintf("circular dependency resolving variable %q", name))
			return nil
		}
		if v, ok := table.Global.Variables[name]; ok {
			resolving[name] = true
			defer delete(resolving, name)
			val := v.Literal
			if v.RefName != "" {
				ref := resolveVar(v.RefName)
				if ref == nil {
					push("E201", fmt.Sprintf("variable %q could not be resolved via %q", name, v.RefName))
					return nil
				}
				val = ref.Value
			}
			rv := &ResolvedVariable{Name: name, Type: v.Type, Value: val}
			ctx.Variables[name] = rv
			return rv
		}
		if r, ok := table.Global.RuntimeOps[name]; ok {
			rv := &ResolvedVariable{Name: name, Type: r.OutputType, Deferred: true, OpName: r.OpName, Inputs: r.InputVars}
			ctx.Variables[name] = rv
			return rv
		}
		push("E200", fmt.Sprintf("undefined variable %q", name))
		return nil
	}
	for name := range table.Global.Variables {
		resolveVar(name)
	}
	for name := range table.Global.RuntimeOps {
		resolveVar(name)
	}

	for name, s := range table.Global.States {
		ctx.GlobalStates[name] = *s
	}
	for name, o := range table.Global.Objects {
		ctx.GlobalObjects[name] = *o
	}
	for name, so := range table.Global.Sets {
		ctx.ResolvedSets[name] = *so
	}
	ctx.Criteria = file.Definition.Criteria

	var walk func(n *ast.CriteriaNode)
	walk = func(n *ast.CriteriaNode) {
		if n == nil {
			return
		}
		for i := range n.Children {
			c := &n.Children[i]
			switch c.Kind {
			case ast.ContentCriteria:
				walk(c.Criteria)
			case ast.ContentCriterion:
				ctx.ExecutableByNode[c.Criterion] = inline(c.Criterion, ctx, push)
			}
		}
	}
	for i := range ctx.Criteria {
		walk(&ctx.Criteria[i])
	}

	return ctx, diags
}

func inline(c *ast.Criterion, ctx *ExecutionContext, push func(errcode.Code, string)) ExecutableCriterion {
	ex := ExecutableCriterion{Test: c.Test}
	for _, name := range c.StateRefs {
		s, ok := ctx.GlobalStates[name]
		if !ok {
			push("E200", fmt.Sprintf("CTN references undefined global state %q", name))
			continue
		}
		ex.States = append(ex.States, s)
	}
	ex.States = append(ex.States, c.LocalStates...)

	for _, name := range c.ObjectRefs {
		o, ok := ctx.GlobalObjects[name]
		if !ok {
			push("E200", fmt.Sprintf("CTN references undefined global object %q", name))
			continue
		}
		ex.Objects = append(ex.Objects, resolveObject(o, ctx, push))
	}
	if c.LocalObject != nil {
		ex.Objects = append(ex.Objects, resolveObject(*c.LocalObject, ctx, push))
	}
	return ex
}

// resolveObject inlines an object's declared filters' state references
// against ctx.GlobalStates — per spec.md §4.11 step 3, a filter may only
// reference global states.
func resolveObject(o ast.Object, ctx *ExecutionContext, push func(errcode.Code, string)) ExecutableObject {
	eo := ExecutableObject{Object: o}
	for _, f := range o.Filters {
		rf := ResolvedFilter{Action: f.Action}
		for _, name := range f.StateRefs {
			s, ok := ctx.GlobalStates[name]
			if !ok {
				push("E200", fmt.Sprintf("OBJECT %q filter references undefined global state %q", o.Name, name))
				continue
			}
			rf.States = append(rf.States, s)
		}
		eo.Filters = append(eo.Filters, rf)
	}
	return eo
}
