// Copyright (c) 2025 Michael D Henderson. All rights reserved.

// Package parser implements the recursive-descent parser that turns an ESP
// token stream into the AST defined in internal/ast. Every rule consumes
// only what it matches and leaves the stream at the first non-matching
// significant token (§4.4). MAX_PARSE_DEPTH is enforced as a hard counter;
// on grammar failure the parser scans forward for the next block boundary,
// reports a GrammarViolation, and continues so later constructs still get a
// chance to parse.
package parser

import (
	"github.com/curtisslone/esp/internal/ast"
	"github.com/curtisslone/esp/internal/errcode"
	"github.com/curtisslone/esp/internal/lexer"
	"github.com/curtisslone/esp/internal/limits"
	"github.com/curtisslone/esp/internal/sourcemap"
	"github.com/curtisslone/esp/internal/token"
)

// Parser drives one ESP source file from tokens to an AST.
type Parser struct {
	s       *stream
	profile limits.Profile
	depth   int

	Diagnostics []errcode.Diagnostic
}

// Parse lexes and parses src in one call. Parsing never panics: a
// malformed file yields a partial (possibly nil) *ast.EspFile plus
// diagnostics, never a crash.
func Parse(src []byte, profile limits.Profile) (*ast.EspFile, []errcode.Diagnostic) {
	lx := lexer.New(src, profile)
	tokens, lexDiags := lx.Tokenize()
	p := &Parser{s: newStream(tokens, profile), profile: profile}
	p.Diagnostics = append(p.Diagnostics, lexDiags...)
	file := p.parseFile()
	return file, p.Diagnostics
}

func (p *Parser) pushDiag(code errcode.Code, msg string, span sourcemap.Span) {
	if len(p.Diagnostics) >= p.profile.MaxErrorHistory {
		return
	}
	p.Diagnostics = append(p.Diagnostics, errcode.Diagnostic{
		Code: code, Message: msg, Line: span.Start.Line, Col: span.Start.Column,
	})
}

func (p *Parser) enter() bool {
	p.depth++
	if p.depth > p.profile.MaxParseDepth {
		p.pushDiag("E046", "maximum parse recursion depth exceeded", p.s.current().Span)
		return false
	}
	return true
}

func (p *Parser) leave() { p.depth-- }

// recover scans forward to the next block boundary after a grammar
// violation, bounded by MAX_RECOVERY_SCAN_TOKENS.
func (p *Parser) recover() {
	for i := 0; i < p.profile.MaxRecoveryScanTokens; i++ {
		if p.s.atBlockBoundary() {
			return
		}
		p.s.advance()
	}
}

func (p *Parser) expect(kind token.Kind) (token.Token, bool) {
	if p.s.current().Kind != kind {
		p.pushDiag("E040", "unexpected token: expected "+kind.String()+", got "+p.s.current().Kind.String(), p.s.current().Span)
		return token.Token{}, false
	}
	return p.s.advance(), true
}

// ====== File / Metadata / Definition ======

func (p *Parser) parseFile() *ast.EspFile {
	file := &ast.EspFile{}
	start := p.s.current().Span

	if p.s.current().Kind == token.KwMETA {
		file.Metadata = p.parseMetadata()
	}

	if p.s.current().Kind != token.KwDEF {
		p.pushDiag("E044", "expected DEF block", p.s.current().Span)
		p.recover()
	}
	file.Definition = p.parseDefinition()

	if p.s.current().Kind != token.EOF {
		p.pushDiag("E043", "expected end of input after DEF_END", p.s.current().Span)
	}

	file.Span = start.Merge(p.s.current().Span)
	return file
}

func (p *Parser) parseMetadata() *ast.Metadata {
	start := p.s.advance().Span // META
	meta := &ast.Metadata{Fields: map[string]ast.Value{}}
	for p.s.current().Kind != token.KwMETA_END && p.s.current().Kind != token.EOF {
		if p.s.current().Kind != token.Identifier {
			p.pushDiag("E044", "expected metadata field name", p.s.current().Span)
			p.recover()
			break
		}
		name := p.s.advance().Text
		if _, ok := p.expect(token.OpEquals); !ok {
			p.recover()
			continue
		}
		meta.Fields[name] = p.parseValue(ast.TypeString)
	}
	end, _ := p.expect(token.KwMETA_END)
	meta.Span = start.Merge(end.Span)
	return meta
}

func (p *Parser) parseDefinition() ast.Definition {
	start := p.s.advance().Span // DEF (or wherever recovery landed)
	def := ast.Definition{}
	for p.s.current().Kind != token.KwDEF_END && p.s.current().Kind != token.EOF {
		if !p.enter() {
			p.recover()
			p.leave()
			break
		}
		switch p.s.current().Kind {
		case token.KwVAR:
			def.Variables = append(def.Variables, p.parseVariable())
		case token.KwRUN:
			def.RuntimeOps = append(def.RuntimeOps, p.parseRuntimeOperation())
		case token.KwSTATE:
			def.States = append(def.States, p.parseState())
		case token.KwOBJECT:
			def.Objects = append(def.Objects, p.parseObject())
		case token.KwSET:
			def.SetOperations = append(def.SetOperations, p.parseSetOperation())
		case token.KwCRI:
			def.Criteria = append(def.Criteria, p.parseCriteriaNode())
		default:
			p.pushDiag("E044", "expected VAR, RUN, STATE, OBJECT, SET, or CRI", p.s.current().Span)
			p.recover()
		}
		p.leave()
	}
	end, _ := p.expect(token.KwDEF_END)
	def.Span = start.Merge(end.Span)
	return def
}

// ====== Values ======

func (p *Parser) parseDataType() ast.DataType {
	t := p.s.current()
	if t.Kind == token.Identifier && token.DataTypeNames[t.Text] {
		p.s.advance()
		return ast.DataType(t.Text)
	}
	p.pushDiag("E044", "expected a data type (string|int|float|boolean|binary|record_data|version|evr_string)", t.Span)
	return ast.TypeString
}

// parseValue parses a literal, a VAR(name) reference, or (for record_data)
// a nested record literal. hint is used only to shape record parsing.
func (p *Parser) parseValue(hint ast.DataType) ast.Value {
	t := p.s.current()
	switch t.Kind {
	case token.KwVAR:
		p.s.advance()
		p.expect(token.LParen)
		name, _ := p.expect(token.Identifier)
		p.expect(token.RParen)
		return ast.Value{IsVariable: true, VarName: name.Text}
	case token.String:
		p.s.advance()
		return ast.Value{Type: ast.TypeString, Str: t.Str.Value}
	case token.Integer:
		p.s.advance()
		return ast.Value{Type: ast.TypeInt, Int: t.Int}
	case token.Float:
		p.s.advance()
		return ast.Value{Type: ast.TypeFloat, Flt: t.Float}
	case token.Boolean:
		p.s.advance()
		return ast.Value{Type: ast.TypeBoolean, Bool: t.Bool}
	default:
		p.pushDiag("E040", "expected a literal or VAR reference", t.Span)
		p.s.advance()
		return ast.Value{Type: hint}
	}
}

// ====== VAR / RUN ======

func (p *Parser) parseVariable() ast.Variable {
	start := p.s.advance().Span // VAR
	name, _ := p.expect(token.Identifier)
	dt := p.parseDataType()
	p.expect(token.OpEquals)
	val := p.parseValue(dt)
	v := ast.Variable{Name: name.Text, Type: dt, Literal: val}
	if val.IsVariable {
		v.RefName = val.VarName
	}
	v.Span = start.Merge(p.s.current().Span)
	return v
}

func (p *Parser) parseRuntimeOperation() ast.RuntimeOperation {
	start := p.s.advance().Span // RUN
	opName, _ := p.expect(token.Identifier)
	outName, _ := p.expect(token.Identifier)
	outType := p.parseDataType()
	run := ast.RuntimeOperation{OpName: opName.Text, OutputVar: outName.Text, OutputType: outType}
	if _, ok := p.expect(token.LParen); ok {
		for p.s.current().Kind != token.RParen && p.s.current().Kind != token.EOF {
			id, ok := p.expect(token.Identifier)
			if !ok {
				break
			}
			run.InputVars = append(run.InputVars, id.Text)
			if p.s.current().Kind == token.Comma {
				p.s.advance()
			}
		}
		p.expect(token.RParen)
	}
	run.Span = start.Merge(p.s.current().Span)
	return run
}

// ====== STATE ======

func (p *Parser) parseState() ast.State {
	start := p.s.advance().Span // STATE
	name, _ := p.expect(token.Identifier)
	st := ast.State{Name: name.Text}
	for p.s.current().Kind != token.KwSTATE_END && p.s.current().Kind != token.EOF {
		switch {
		case p.s.current().Kind == token.KwRecord:
			st.Fields = append(st.Fields, p.parseRecordCheck())
		case p.s.current().Kind == token.Identifier:
			st.Fields = append(st.Fields, p.parseField())
		case isJoinOp(p.s.current().Kind):
			st.JoinOp, st.HasJoin = p.parseJoinOp(), true
		default:
			p.pushDiag("E044", "expected a field, record check, or join operator", p.s.current().Span)
			p.recover()
			if p.s.current().Kind != token.KwSTATE_END {
				continue
			}
		}
	}
	end, _ := p.expect(token.KwSTATE_END)
	st.Span = start.Merge(end.Span)
	return st
}

func isJoinOp(k token.Kind) bool {
	return k == token.KwAnd || k == token.KwOr || k == token.KwOne
}

func (p *Parser) parseJoinOp() ast.LogicalOp {
	t := p.s.advance()
	switch t.Kind {
	case token.KwAnd:
		return ast.LogicalAnd
	case token.KwOr:
		return ast.LogicalOr
	default:
		return ast.LogicalOne
	}
}

func (p *Parser) parseField() ast.Field {
	start := p.s.current().Span
	name, _ := p.expect(token.Identifier)
	dt := p.parseDataType()
	op := p.parseOperation()
	val := p.parseValue(dt)
	f := ast.Field{Name: name.Text, Type: dt, Op: op, Expected: val}
	if isEntityWord(p.s.current().Text) {
		f.EntityCheck = ast.EntityCheck(p.s.advance().Text)
		f.HasEntity = true
	}
	f.Span = start.Merge(p.s.current().Span)
	return f
}

func isEntityWord(s string) bool {
	switch s {
	case "all", "at_least_one", "none", "only_one":
		return true
	}
	return false
}

func (p *Parser) parseOperation() ast.Operation {
	t := p.s.current()
	switch t.Kind {
	case token.OpEquals, token.OpNotEqual, token.OpLess, token.OpLessEqual,
		token.OpGreater, token.OpGreaterEqual, token.OpEqualsIC, token.OpNotEqualIC,
		token.OpContains, token.OpNotContains, token.OpStartsWith, token.OpNotStartsWith,
		token.OpEndsWith, token.OpNotEndsWith, token.OpPatternMatch, token.OpMatches,
		token.OpSubsetOf, token.OpSupersetOf:
		p.s.advance()
		return ast.Operation(t.Kind.String())
	default:
		p.pushDiag("E044", "expected a comparison/string/set operator", t.Span)
		return ast.OpEquals
	}
}

// parseRecordCheck parses a `record <field> <dot.path> <op> <value>*
// record_end` block into a single record_data Field whose Expected.Record
// holds one entry per dot-path.
func (p *Parser) parseRecordCheck() ast.Field {
	start := p.s.advance().Span // "record"
	name, _ := p.expect(token.Identifier)
	f := ast.Field{Name: name.Text, Type: ast.TypeRecordData, Op: ast.OpEquals}
	rec := map[string]ast.Value{}
	for p.s.current().Kind != token.KwRecordEnd && p.s.current().Kind != token.EOF {
		path := p.parseFieldPath()
		op := p.parseOperation()
		val := p.parseValue(ast.TypeString)
		rec[path] = val
		_ = op // the operator after each dot-path is consumed but not stored; the record Field's Op is always equals
	}
	f.Expected = ast.Value{Type: ast.TypeRecordData, Record: rec}
	end, _ := p.expect(token.KwRecordEnd)
	f.Span = start.Merge(end.Span)
	return f
}

// parseFieldPath parses a dot-separated path such as `a.b.*`.
func (p *Parser) parseFieldPath() string {
	var path string
	id, _ := p.expect(token.Identifier)
	path = id.Text
	for p.s.current().Kind == token.Dot {
		p.s.advance()
		if p.s.current().Kind == token.Identifier {
			path += "." + p.s.advance().Text
		} else {
			break
		}
	}
	return path
}

// ====== OBJECT ======

func (p *Parser) parseObject() ast.Object {
	start := p.s.advance().Span // OBJECT
	name, _ := p.expect(token.Identifier)
	ctnType, _ := p.expect(token.Identifier)
	obj := ast.Object{Name: name.Text, CtnType: ctnType.Text, Fields: map[string]ast.Value{}}
	for p.s.current().Kind != token.KwOBJECT_END && p.s.current().Kind != token.EOF {
		if p.s.current().Kind == token.KwFILTER {
			obj.Filters = append(obj.Filters, p.parseFilter())
			continue
		}
		if p.s.current().Kind == token.Identifier && p.s.current().Text == "behavior" {
			p.s.advance()
			p.expect(token.OpEquals)
			v := p.parseValue(ast.TypeString)
			obj.Behavior = v.Str
			continue
		}
		if p.s.current().Kind != token.Identifier {
			p.pushDiag("E044", "expected an object field name", p.s.current().Span)
			p.recover()
			continue
		}
		field := p.s.advance().Text
		p.expect(token.OpEquals)
		obj.Fields[field] = p.parseValue(ast.TypeString)
	}
	end, _ := p.expect(token.KwOBJECT_END)
	obj.Span = start.Merge(end.Span)
	return obj
}

// ====== SET / FILTER ======

func (p *Parser) parseSetOperation() ast.SetOperation {
	start := p.s.advance().Span // SET
	name, _ := p.expect(token.Identifier)
	op := p.parseSetOp()
	set := ast.SetOperation{Name: name.Text, Op: op}
	for p.s.current().Kind == token.Identifier {
		set.Operands = append(set.Operands, p.s.advance().Text)
	}
	for p.s.current().Kind == token.KwFILTER {
		set.Filters = append(set.Filters, p.parseFilter())
	}
	set.Span = start.Merge(p.s.current().Span)
	return set
}

func (p *Parser) parseSetOp() ast.SetOp {
	t := p.s.current()
	switch t.Kind {
	case token.KwUnion:
		p.s.advance()
		return ast.SetUnion
	case token.KwIntersection:
		p.s.advance()
		return ast.SetIntersection
	case token.KwComplement:
		p.s.advance()
		return ast.SetComplement
	default:
		p.pushDiag("E044", "expected UNION, INTERSECTION, or COMPLEMENT", t.Span)
		return ast.SetUnion
	}
}

func (p *Parser) parseFilter() ast.Filter {
	start := p.s.advance().Span // FILTER
	action := ast.FilterInclude
	if p.s.current().Kind == token.KwInclude {
		p.s.advance()
	} else if p.s.current().Kind == token.KwExclude {
		p.s.advance()
		action = ast.FilterExclude
	} else {
		p.pushDiag("E044", "expected INCLUDE or EXCLUDE", p.s.current().Span)
	}
	f := ast.Filter{Action: action}
	for p.s.current().Kind == token.Identifier {
		f.StateRefs = append(f.StateRefs, p.s.advance().Text)
		if p.s.current().Kind == token.Comma {
			p.s.advance()
		}
	}
	end, _ := p.expect(token.KwFILTER_END)
	f.Span = start.Merge(end.Span)
	return f
}

// ====== CRI / CTN ======

func (p *Parser) parseCriteriaNode() ast.CriteriaNode {
	start := p.s.advance().Span // CRI
	node := ast.CriteriaNode{LogicalOp: ast.LogicalAnd}
	if isJoinOp(p.s.current().Kind) {
		node.LogicalOp = p.parseJoinOp()
	}
	if p.s.current().Kind == token.Identifier && p.s.current().Text == "NOT" {
		p.s.advance()
		node.Negate = true
	}
	for p.s.current().Kind != token.KwCRI_END && p.s.current().Kind != token.EOF {
		if !p.enter() {
			p.recover()
			p.leave()
			break
		}
		switch p.s.current().Kind {
		case token.KwCRI:
			child := p.parseCriteriaNode()
			node.Children = append(node.Children, ast.CriteriaContent{Kind: ast.ContentCriteria, Criteria: &child})
		case token.KwCTN:
			ctn := p.parseCriterion()
			node.Children = append(node.Children, ast.CriteriaContent{Kind: ast.ContentCriterion, Criterion: &ctn})
		default:
			p.pushDiag("E044", "expected nested CRI or CTN", p.s.current().Span)
			p.recover()
		}
		p.leave()
	}
	end, _ := p.expect(token.KwCRI_END)
	node.Span = start.Merge(end.Span)
	return node
}

func (p *Parser) parseCriterion() ast.Criterion {
	start := p.s.advance().Span // CTN
	ctn := ast.Criterion{}
	sawTest := false
	for p.s.current().Kind != token.KwCTN_END && p.s.current().Kind != token.EOF {
		switch p.s.current().Kind {
		case token.KwTEST:
			ctn.Test = p.parseTestSpec()
			sawTest = true
		case token.KwSTATE_REF:
			p.s.advance()
			id, _ := p.expect(token.Identifier)
			ctn.StateRefs = append(ctn.StateRefs, id.Text)
		case token.KwOBJECT_REF:
			p.s.advance()
			id, _ := p.expect(token.Identifier)
			ctn.ObjectRefs = append(ctn.ObjectRefs, id.Text)
		case token.KwSTATE:
			ctn.LocalStates = append(ctn.LocalStates, p.parseState())
		case token.KwOBJECT:
			if ctn.LocalObject != nil {
				p.pushDiag("E103", "multiple local CTN objects", p.s.current().Span)
			}
			obj := p.parseObject()
			ctn.LocalObject = &obj
		default:
			p.pushDiag("E044", "expected TEST, STATE_REF, OBJECT_REF, STATE, or OBJECT", p.s.current().Span)
			p.recover()
		}
	}
	if !sawTest {
		p.pushDiag("E400", "CTN is missing its required TEST specification", start)
	}
	end, _ := p.expect(token.KwCTN_END)
	ctn.Span = start.Merge(end.Span)
	return ctn
}

func (p *Parser) parseTestSpec() ast.TestSpecification {
	start := p.s.advance().Span // TEST
	spec := ast.TestSpecification{}
	spec.Existence = p.parseExistenceWord()
	spec.Item = p.parseItemWord()
	if isJoinOp(p.s.current().Kind) {
		spec.StateJoin = p.parseJoinOp()
		spec.HasStateJoin = true
	}
	spec.Span = start.Merge(p.s.current().Span)
	return spec
}

func (p *Parser) parseExistenceWord() ast.ExistenceCheck {
	t := p.s.current()
	switch t.Kind {
	case token.KwAny:
		p.s.advance()
		return ast.ExistenceAny
	case token.KwAll:
		p.s.advance()
		return ast.ExistenceAll
	case token.KwNone:
		p.s.advance()
		return ast.ExistenceNone
	case token.KwAtLeastOne:
		p.s.advance()
		return ast.ExistenceAtLeastOne
	case token.KwOnlyOne:
		p.s.advance()
		return ast.ExistenceOnlyOne
	default:
		p.pushDiag("E044", "expected an existence check (any|all|none|at_least_one|only_one)", t.Span)
		return ast.ExistenceAny
	}
}

func (p *Parser) parseItemWord() ast.ItemCheck {
	t := p.s.current()
	switch t.Kind {
	case token.KwAll:
		p.s.advance()
		return ast.ItemAll
	case token.KwAtLeastOne:
		p.s.advance()
		return ast.ItemAtLeastOne
	case token.KwOnlyOne:
		p.s.advance()
		return ast.ItemOnlyOne
	case token.KwNoneSatisfy:
		p.s.advance()
		return ast.ItemNoneSatisfy
	default:
		p.pushDiag("E044", "expected an item check (all|at_least_one|only_one|none_satisfy)", t.Span)
		return ast.ItemAll
	}
}
