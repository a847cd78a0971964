// Copyright (c) 2025 Michael D Henderson. All rights reserved.

// Package structural checks block-level shape: minimum requirements (at
// least one CRI, every CTN has a TEST), the mandated ordering of clauses
// inside a CTN, implementation-limit violations, and a purely informational
// complexity score used to flag files worth a human second look.
package structural

import (
	"fmt"

	"github.com/curtisslone/esp/internal/ast"
	"github.com/curtisslone/esp/internal/errcode"
	"github.com/curtisslone/esp/internal/limits"
	"github.com/curtisslone/esp/internal/sourcemap"
)

// Result carries diagnostics plus the informational complexity score.
type Result struct {
	Diagnostics     []errcode.Diagnostic
	ComplexityScore int // 0-100
}

// Check runs every structural validation over file.
func Check(file *ast.EspFile, profile limits.Profile) Result {
	var diags []errcode.Diagnostic
	push := func(code errcode.Code, msg string, span sourcemap.Span) {
		diags = append(diags, errcode.Diagnostic{Code: code, Message: msg, Line: span.Start.Line, Col: span.Start.Column})
	}

	if file == nil {
		push("E403", "file has no DEF block", sourcemap.Span{})
		return Result{Diagnostics: diags}
	}
	if len(file.Definition.Criteria) == 0 {
		push("E403", "file defines no CRI blocks: a policy with no criteria tests nothing", file.Definition.Span)
	}

	var ctnCount, stateCount, objectCount, nestingDepth, maxNesting int
	var maxStringLiteralSize int

	var walkValue func(v ast.Value)
	walkValue = func(v ast.Value) {
		if len(v.Str) > maxStringLiteralSize {
			maxStringLiteralSize = len(v.Str)
		}
		for _, sub := range v.Record {
			walkValue(sub)
		}
	}

	var walkCtn func(c *ast.Criterion)
	walkCtn = func(c *ast.Criterion) {
		ctnCount++
		if c.Test.Existence == "" {
			push("E404", "CTN is missing its TEST clause", c.Span)
		}
		if len(c.StateRefs) == 0 && len(c.LocalStates) == 0 && len(c.ObjectRefs) == 0 && c.LocalObject == nil {
			push("E406", "CTN has no validation source: at least one of STATE_REF, STATE, OBJECT_REF, or OBJECT is required", c.Span)
		}
		checkOrdering(c, push)
		for _, s := range c.LocalStates {
			stateCount++
			for _, f := range s.Fields {
				walkValue(f.Expected)
			}
		}
		if c.LocalObject != nil {
			objectCount++
			for _, v := range c.LocalObject.Fields {
				walkValue(v)
			}
		}
	}

	var walkNode func(n *ast.CriteriaNode, depth int)
	walkNode = func(n *ast.CriteriaNode, depth int) {
		if n == nil {
			return
		}
		if depth > maxNesting {
			maxNesting = depth
		}
		if len(n.Children) == 0 {
			push("E404", "criteria block contains no CTN or nested block", n.Span)
		}
		for i := range n.Children {
			c := &n.Children[i]
			switch c.Kind {
			case ast.ContentCriteria:
				walkNode(c.Criteria, depth+1)
			case ast.ContentCriterion:
				walkCtn(c.Criterion)
			}
		}
	}
	for i := range file.Definition.Criteria {
		walkNode(&file.Definition.Criteria[i], 1)
	}
	nestingDepth = maxNesting

	for _, s := range file.Definition.States {
		stateCount++
		for _, f := range s.Fields {
			walkValue(f.Expected)
		}
	}
	objectCount += len(file.Definition.Objects)
	for _, o := range file.Definition.Objects {
		for _, v := range o.Fields {
			walkValue(v)
		}
	}

	totalSymbols := len(file.Definition.Variables) + len(file.Definition.RuntimeOps) +
		stateCount + objectCount + len(file.Definition.SetOperations)

	if totalSymbols > profile.MaxGlobalSymbols+profile.MaxLocalSymbolsPerCtn*max(ctnCount, 1) {
		push("E402", fmt.Sprintf("total symbol count %d exceeds the implementation limit", totalSymbols), file.Definition.Span)
	}
	if nestingDepth > profile.MaxSymbolContextDepth {
		push("E402", fmt.Sprintf("criteria nesting depth %d exceeds the implementation limit %d", nestingDepth, profile.MaxSymbolContextDepth), file.Definition.Span)
	}
	if maxStringLiteralSize > profile.MaxStringSize {
		push("E402", fmt.Sprintf("string literal size %d exceeds the implementation limit %d", maxStringLiteralSize, profile.MaxStringSize), file.Definition.Span)
	}

	score := complexityScore(ctnCount, stateCount, objectCount, nestingDepth, len(file.Definition.SetOperations))
	return Result{Diagnostics: diags, ComplexityScore: score}
}

// checkOrdering checks part of the clause order inside a CTN (TEST, then
// STATE_REF*, then OBJECT_REF*, then local STATE*, then an optional local
// OBJECT). parseCriterion accepts clauses in any order so every violation
// can be reported in one pass instead of bailing at the first. Two rules
// are checked here against the original token positions: every local
// STATE starts after the TEST clause ends, and the local OBJECT starts
// after every local STATE ends. The positions of STATE_REF and OBJECT_REF
// clauses are not checked.
func checkOrdering(c *ast.Criterion, push func(errcode.Code, string, sourcemap.Span)) {
	testEnd := c.Test.Span.End.ByteOffset
	for _, s := range c.LocalStates {
		if s.Span.Start.ByteOffset < testEnd {
			push("E401", "STATE must follow TEST and any STATE_REF/OBJECT_REF clauses in a CTN", s.Span)
		}
	}
	if c.LocalObject != nil {
		for _, s := range c.LocalStates {
			if c.LocalObject.Span.Start.ByteOffset < s.Span.End.ByteOffset {
				push("E401", "the local OBJECT in a CTN must follow all local STATE blocks", c.LocalObject.Span)
				break
			}
		}
	}
}

func complexityScore(ctnCount, stateCount, objectCount, nestingDepth, setCount int) int {
	raw := ctnCount*3 + stateCount*2 + objectCount*2 + nestingDepth*5 + setCount*2
	if raw > 100 {
		return 100
	}
	return raw
}
