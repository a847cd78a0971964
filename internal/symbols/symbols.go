// Copyright (c) 2025 Michael D Henderson. All rights reserved.

// Package symbols performs the discovery pass: it walks a parsed EspFile and
// builds the global symbol table (variables, states, objects, sets) plus one
// local symbol table per CTN, flagging duplicate names, reserved names,
// empty blocks, and SET arity violations before any reference is resolved.
package symbols

import (
	"fmt"

	"bitbucket.org/creachadair/stringset"

	"github.com/curtisslone/esp/internal/ast"
	"github.com/curtisslone/esp/internal/errcode"
	"github.com/curtisslone/esp/internal/limits"
	"github.com/curtisslone/esp/internal/sourcemap"
)

// reserved holds every keyword spelling that cannot be reused as a
// user-declared symbol name. The list is written out by hand here: block
// keywords, check words, set/filter words, and data-type names.
var reserved = stringset.New(
	"DEF", "DEF_END", "META", "META_END", "CRI", "CRI_END", "CTN", "CTN_END",
	"STATE", "STATE_END", "OBJECT", "OBJECT_END", "FILTER", "FILTER_END",
	"TEST", "VAR", "STATE_REF", "OBJECT_REF", "SET", "RUN", "record", "record_end",
	"any", "all", "none", "at_least_one", "only_one", "none_satisfy",
	"AND", "OR", "ONE", "UNION", "INTERSECTION", "COMPLEMENT", "INCLUDE", "EXCLUDE",
	"string", "int", "float", "boolean", "binary", "record_data", "version", "evr_string",
)

// CtnID identifies one CTN leaf within the criteria tree by its position in
// a depth-first, source-order walk. It is stable for a given parse.
type CtnID int

// GlobalSymbols is the set of names visible to every CTN in a file.
type GlobalSymbols struct {
	Variables map[string]*ast.Variable
	States    map[string]*ast.State
	Objects   map[string]*ast.Object
	Sets      map[string]*ast.SetOperation
	// RuntimeOps is keyed by each RUN block's output variable name: a RUN
	// block declares a variable the same way VAR does, so its output name
	// lives in the same namespace and is checked against the same
	// duplicate/reserved rules.
	RuntimeOps map[string]*ast.RuntimeOperation
}

// LocalSymbolTable is the set of names local to one CTN: its local states
// and its (at most one) local object.
type LocalSymbolTable struct {
	CTN        CtnID
	States     map[string]*ast.State
	Object     *ast.Object
	ObjectName string

	// StateRefs/ObjectRefs are the CTN's references to GLOBAL states/objects
	// (via STATE_REF/OBJECT_REF), carried through from the AST so
	// internal/refs can validate them against the global table without
	// re-walking the criteria tree itself.
	StateRefs  []string
	ObjectRefs []string
	Span       sourcemap.Span
}

// Table is the result of the discovery pass.
type Table struct {
	Global GlobalSymbols
	Locals map[CtnID]*LocalSymbolTable

	// Orphans is created empty by Discover and no pass fills it in; the
	// orphan list that reference validation computes is returned in
	// refs.Result.Orphans.
	Orphans stringset.Set
}

// Discover walks file and returns its symbol table plus diagnostics. It
// never returns a nil Table, even on a file with no definitions, so later
// passes can always dereference it safely.
func Discover(file *ast.EspFile, profile limits.Profile) (*Table, []errcode.Diagnostic) {
	var diags []errcode.Diagnostic
	push := func(code errcode.Code, msg string, span sourcemap.Span) {
		diags = append(diags, errcode.Diagnostic{Code: code, Message: msg, Line: span.Start.Line, Col: span.Start.Column})
	}

	t := &Table{
		Global: GlobalSymbols{
			Variables:  map[string]*ast.Variable{},
			States:     map[string]*ast.State{},
			Objects:    map[string]*ast.Object{},
			Sets:       map[string]*ast.SetOperation{},
			RuntimeOps: map[string]*ast.RuntimeOperation{},
		},
		Locals:  map[CtnID]*LocalSymbolTable{},
		Orphans: stringset.New(),
	}
	if file == nil {
		return t, diags
	}

	checkName := func(name string, span sourcemap.Span) bool {
		if reserved.Contains(name) {
			push("E101", fmt.Sprintf("%q is a reserved word and cannot be used as a symbol name", name), span)
			return false
		}
		return true
	}

	globalCount := 0
	for i := range file.Definition.Variables {
		v := &file.Definition.Variables[i]
		if !checkName(v.Name, v.Span) {
			continue
		}
		if _, dup := t.Global.Variables[v.Name]; dup {
			push("E100", fmt.Sprintf("duplicate variable name %q", v.Name), v.Span)
			continue
		}
		t.Global.Variables[v.Name] = v
		globalCount++
	}
	for i := range file.Definition.States {
		s := &file.Definition.States[i]
		if !checkName(s.Name, s.Span) {
			continue
		}
		if len(s.Fields) == 0 {
			push("E102", fmt.Sprintf("state %q has no fields", s.Name), s.Span)
		}
		if _, dup := t.Global.States[s.Name]; dup {
			push("E100", fmt.Sprintf("duplicate state name %q", s.Name), s.Span)
			continue
		}
		t.Global.States[s.Name] = s
		globalCount++
	}
	for i := range file.Definition.Objects {
		o := &file.Definition.Objects[i]
		if !checkName(o.Name, o.Span) {
			continue
		}
		if _, dup := t.Global.Objects[o.Name]; dup {
			push("E100", fmt.Sprintf("duplicate object name %q", o.Name), o.Span)
			continue
		}
		t.Global.Objects[o.Name] = o
		globalCount++
	}
	for i := range file.Definition.RuntimeOps {
		r := &file.Definition.RuntimeOps[i]
		if !checkName(r.OutputVar, r.Span) {
			continue
		}
		if _, dup := t.Global.RuntimeOps[r.OutputVar]; dup {
			push("E100", fmt.Sprintf("duplicate runtime-operation output variable %q", r.OutputVar), r.Span)
			continue
		}
		if _, dup := t.Global.Variables[r.OutputVar]; dup {
			push("E100", fmt.Sprintf("runtime-operation output %q collides with a declared variable", r.OutputVar), r.Span)
			continue
		}
		t.Global.RuntimeOps[r.OutputVar] = r
		globalCount++
	}
	for i := range file.Definition.SetOperations {
		so := &file.Definition.SetOperations[i]
		if !checkName(so.Name, so.Span) {
			continue
		}
		validateSetArity(so, push)
		if _, dup := t.Global.Sets[so.Name]; dup {
			push("E100", fmt.Sprintf("duplicate set name %q", so.Name), so.Span)
			continue
		}
		t.Global.Sets[so.Name] = so
		globalCount++
	}

	if globalCount > profile.MaxGlobalSymbols {
		push("E106", fmt.Sprintf("global symbol count %d exceeds the configured limit %d", globalCount, profile.MaxGlobalSymbols), file.Definition.Span)
	}

	var nextID CtnID
	var walkNode func(n *ast.CriteriaNode)
	walkNode = func(n *ast.CriteriaNode) {
		if n == nil {
			return
		}
		for i := range n.Children {
			c := &n.Children[i]
			switch c.Kind {
			case ast.ContentCriteria:
				walkNode(c.Criteria)
			case ast.ContentCriterion:
				id := nextID
				nextID++
				t.Locals[id] = discoverLocal(id, c.Criterion, profile, push)
			}
		}
	}
	for i := range file.Definition.Criteria {
		walkNode(&file.Definition.Criteria[i])
	}

	return t, diags
}

func discoverLocal(id CtnID, c *ast.Criterion, profile limits.Profile, push func(errcode.Code, string, sourcemap.Span)) *LocalSymbolTable {
	lt := &LocalSymbolTable{
		CTN: id, States: map[string]*ast.State{},
		StateRefs: c.StateRefs, ObjectRefs: c.ObjectRefs, Span: c.Span,
	}
	count := 0
	for i := range c.LocalStates {
		s := &c.LocalStates[i]
		if len(s.Fields) == 0 {
			push("E102", fmt.Sprintf("local state %q has no fields", s.Name), s.Span)
		}
		if _, dup := lt.States[s.Name]; dup {
			push("E100", fmt.Sprintf("duplicate local state name %q", s.Name), s.Span)
			continue
		}
		lt.States[s.Name] = s
		count++
	}
	if c.LocalObject != nil {
		lt.Object = c.LocalObject
		lt.ObjectName = c.LocalObject.Name
		count++
	}
	if count > profile.MaxLocalSymbolsPerCtn {
		push("E107", fmt.Sprintf("CTN local symbol count %d exceeds the configured limit %d", count, profile.MaxLocalSymbolsPerCtn), c.Span)
	}
	return lt
}

// validateSetArity enforces §4.5: UNION needs at least one operand,
// INTERSECTION needs at least two, COMPLEMENT needs exactly two.
func validateSetArity(so *ast.SetOperation, push func(errcode.Code, string, sourcemap.Span)) {
	n := len(so.Operands)
	switch so.Op {
	case ast.SetUnion:
		if n < 1 {
			push("E104", fmt.Sprintf("UNION set %q requires at least one operand, got %d", so.Name, n), so.Span)
		}
	case ast.SetIntersection:
		if n < 2 {
			push("E104", fmt.Sprintf("INTERSECTION set %q requires at least two operands, got %d", so.Name, n), so.Span)
		}
	case ast.SetComplement:
		if n != 2 {
			push("E104", fmt.Sprintf("COMPLEMENT set %q requires exactly two operands, got %d", so.Name, n), so.Span)
		}
	}
	for _, f := range so.Filters {
		if len(f.StateRefs) == 0 {
			push("E104", fmt.Sprintf("filter in set %q has no state references", so.Name), f.Span)
		}
	}
}
