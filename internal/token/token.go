// Copyright (c) 2025 Michael D Henderson. All rights reserved.

// Package token defines the token kinds produced by the lexer: keywords,
// dedicated operator tokens, the five string-literal dialects, and the
// classification helpers that tell a bare word apart from an operator word,
// a boolean literal, or a plain identifier. There is no context-sensitive
// reclassification later in the pipeline — whatever the lexer emits here is
// final.
package token

import "github.com/curtisslone/esp/internal/sourcemap"

// Kind is a tagged token variant.
type Kind int

const (
	Illegal Kind = iota
	EOF
	Whitespace
	Comment

	// Literals
	Identifier
	Integer
	Float
	Boolean
	String

	// Punctuation
	Dot
	LParen
	RParen
	Comma

	// Block / control keywords
	KwDEF
	KwDEF_END
	KwMETA
	KwMETA_END
	KwCRI
	KwCRI_END
	KwCTN
	KwCTN_END
	KwSTATE
	KwSTATE_END
	KwOBJECT
	KwOBJECT_END
	KwFILTER
	KwFILTER_END
	KwTEST
	KwVAR
	KwSTATE_REF
	KwOBJECT_REF
	KwSET
	KwRUN
	KwRecord
	KwRecordEnd

	// Existence / item / entity check words
	KwAny
	KwAll
	KwNone
	KwAtLeastOne
	KwOnlyOne
	KwNoneSatisfy
	KwAnd
	KwOr
	KwOne

	// Set operation words
	KwUnion
	KwIntersection
	KwComplement

	// Filter action words
	KwInclude
	KwExclude

	// Comparison operators
	OpEquals
	OpNotEqual
	OpLess
	OpLessEqual
	OpGreater
	OpGreaterEqual

	// Case-insensitive string operators
	OpEqualsIC
	OpNotEqualIC

	// String operators
	OpContains
	OpNotContains
	OpStartsWith
	OpNotStartsWith
	OpEndsWith
	OpNotEndsWith
	OpPatternMatch
	OpMatches

	// Set-ish operators
	OpSubsetOf
	OpSupersetOf
)

var kindNames = map[Kind]string{
	Illegal:         "ILLEGAL",
	EOF:             "EOF",
	Whitespace:      "WHITESPACE",
	Comment:         "COMMENT",
	Identifier:      "IDENTIFIER",
	Integer:         "INTEGER",
	Float:           "FLOAT",
	Boolean:         "BOOLEAN",
	String:          "STRING",
	Dot:             ".",
	LParen:          "(",
	RParen:          ")",
	Comma:           ",",
	KwDEF:           "DEF",
	KwDEF_END:       "DEF_END",
	KwMETA:          "META",
	KwMETA_END:      "META_END",
	KwCRI:           "CRI",
	KwCRI_END:       "CRI_END",
	KwCTN:           "CTN",
	KwCTN_END:       "CTN_END",
	KwSTATE:         "STATE",
	KwSTATE_END:     "STATE_END",
	KwOBJECT:        "OBJECT",
	KwOBJECT_END:    "OBJECT_END",
	KwFILTER:        "FILTER",
	KwFILTER_END:    "FILTER_END",
	KwTEST:          "TEST",
	KwVAR:           "VAR",
	KwSTATE_REF:     "STATE_REF",
	KwOBJECT_REF:    "OBJECT_REF",
	KwSET:           "SET",
	KwRUN:           "RUN",
	KwRecord:        "record",
	KwRecordEnd:     "record_end",
	KwAny:           "any",
	KwAll:           "all",
	KwNone:          "none",
	KwAtLeastOne:    "at_least_one",
	KwOnlyOne:       "only_one",
	KwNoneSatisfy:   "none_satisfy",
	KwAnd:           "AND",
	KwOr:            "OR",
	KwOne:           "ONE",
	KwUnion:         "UNION",
	KwIntersection:  "INTERSECTION",
	KwComplement:    "COMPLEMENT",
	KwInclude:       "INCLUDE",
	KwExclude:       "EXCLUDE",
	OpEquals:        "equals",
	OpNotEqual:      "not_equal",
	OpLess:          "less_than",
	OpLessEqual:     "less_than_or_equal",
	OpGreater:       "greater_than",
	OpGreaterEqual:  "greater_than_or_equal",
	OpEqualsIC:      "equals_ic",
	OpNotEqualIC:    "not_equal_ic",
	OpContains:      "contains",
	OpNotContains:   "not_contains",
	OpStartsWith:    "starts_with",
	OpNotStartsWith: "not_starts_with",
	OpEndsWith:      "ends_with",
	OpNotEndsWith:   "not_ends_with",
	OpPatternMatch:  "pattern_match",
	OpMatches:       "matches",
	OpSubsetOf:      "subset_of",
	OpSupersetOf:    "superset_of",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "UNKNOWN"
}

// keywords maps the exact, case-sensitive source spelling of every
// block/control keyword and operator-word to its token kind.
var keywords = map[string]Kind{
	"DEF": KwDEF, "DEF_END": KwDEF_END,
	"META": KwMETA, "META_END": KwMETA_END,
	"CRI": KwCRI, "CRI_END": KwCRI_END,
	"CTN": KwCTN, "CTN_END": KwCTN_END,
	"STATE": KwSTATE, "STATE_END": KwSTATE_END,
	"OBJECT": KwOBJECT, "OBJECT_END": KwOBJECT_END,
	"FILTER": KwFILTER, "FILTER_END": KwFILTER_END,
	"TEST": KwTEST, "VAR": KwVAR,
	"STATE_REF": KwSTATE_REF, "OBJECT_REF": KwOBJECT_REF,
	"SET": KwSET, "RUN": KwRUN,
	"record": KwRecord, "record_end": KwRecordEnd,

	"any": KwAny, "all": KwAll, "none": KwNone,
	"at_least_one": KwAtLeastOne, "only_one": KwOnlyOne, "none_satisfy": KwNoneSatisfy,
	"AND": KwAnd, "OR": KwOr, "ONE": KwOne,

	"UNION": KwUnion, "INTERSECTION": KwIntersection, "COMPLEMENT": KwComplement,
	"INCLUDE": KwInclude, "EXCLUDE": KwExclude,

	"equals": OpEquals, "not_equal": OpNotEqual,
	"less_than": OpLess, "less_than_or_equal": OpLessEqual,
	"greater_than": OpGreater, "greater_than_or_equal": OpGreaterEqual,
	"equals_ic": OpEqualsIC, "not_equal_ic": OpNotEqualIC,
	"contains": OpContains, "not_contains": OpNotContains,
	"starts_with": OpStartsWith, "not_starts_with": OpNotStartsWith,
	"ends_with": OpEndsWith, "not_ends_with": OpNotEndsWith,
	"pattern_match": OpPatternMatch, "matches": OpMatches,
	"subset_of": OpSubsetOf, "superset_of": OpSupersetOf,
}

// DataTypeNames is the closed set of data-type spellings. They are lexed as
// plain Identifier tokens; the parser disambiguates them from ordinary
// identifiers by grammatical position (§4.4).
var DataTypeNames = map[string]bool{
	"string": true, "int": true, "float": true, "boolean": true,
	"binary": true, "record_data": true, "version": true, "evr_string": true,
}

// ClassifyWord maps a bare word scanned by the lexer to a keyword, an
// operator-word, a boolean literal, or a plain identifier. Data-type names
// are NOT classified here: they remain Identifier tokens, consistent with
// §4.2/§4.4 of the design (position-based disambiguation only).
func ClassifyWord(word string) Kind {
	if word == "true" || word == "false" {
		return Boolean
	}
	if kind, ok := keywords[word]; ok {
		return kind
	}
	return Identifier
}

// StringDialect identifies which of the five string-literal forms produced
// the literal.
type StringDialect int

const (
	DialectBacktick        StringDialect = iota // `...`, escape-processing
	DialectRawBacktick                          // r`...`, raw
	DialectTripleBacktick                       // ```...```, multiline, escape-processing
	DialectRawTripleBacktick                    // r```...```, raw, multiline
	DialectEmpty                                // ``, the empty literal
)

// StringLiteral carries both the dialect and the two forms of its text: Raw
// is the exact source bytes between delimiters; Value is the
// escape-processed value (identical to Raw for raw dialects).
type StringLiteral struct {
	Dialect StringDialect
	Raw     string
	Value   string
}

// ToEspString re-emits the literal in its original source form, delimiters
// included, byte for byte.
func (s StringLiteral) ToEspString() string {
	switch s.Dialect {
	case DialectRawBacktick:
		return "r`" + s.Raw + "`"
	case DialectTripleBacktick:
		return "```" + s.Raw + "```"
	case DialectRawTripleBacktick:
		return "r```" + s.Raw + "```"
	case DialectEmpty:
		return "``"
	default:
		return "`" + s.Raw + "`"
	}
}

// Token pairs a Kind with its span and the literal payload it carries, if
// any. Text holds the source spelling of words, punctuation, and numbers;
// the decoded value is in Int, Float, Bool, or Str, selected by Kind.
type Token struct {
	Kind  Kind
	Span  sourcemap.Span
	Text  string // source spelling (identifier, keyword, operator, boolean, number, punctuation)
	Int   int64
	Float float64
	Bool  bool
	Str   StringLiteral
}

func (t Token) String() string {
	return t.Kind.String()
}
