// Copyright (c) 2025 Michael D Henderson. All rights reserved.

// Package lexer turns ESP source text into a bounded token stream. Invalid
// characters, unterminated strings, and invalid encoding are recorded as
// diagnostics and scanning continues, and every size limit from
// internal/limits is enforced before a token is ever handed to the parser.
package lexer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/curtisslone/esp/internal/errcode"
	"github.com/curtisslone/esp/internal/limits"
	"github.com/curtisslone/esp/internal/sourcemap"
	"github.com/curtisslone/esp/internal/token"
)

// Lexer scans one source file into a slice of tokens.
type Lexer struct {
	input  []byte
	pos    int
	line   int
	column int

	profile limits.Profile

	tokenCount    int
	stringNesting int

	Diagnostics []errcode.Diagnostic
}

// New creates a Lexer over input using profile for its bounds. profile
// should ordinarily be limits.Default, or a caller-loaded limits.Profile.
func New(input []byte, profile limits.Profile) *Lexer {
	return &Lexer{input: input, line: 1, column: 1, profile: profile}
}

// Tokenize scans the entire input and returns its tokens (always including
// a trailing EOF token) plus any diagnostics collected along the way.
// Tokenize never panics: a scanning failure is recorded as a diagnostic and
// scanning resumes at the next byte so later tokens are still produced for
// the parser's own error recovery.
func (l *Lexer) Tokenize() ([]token.Token, []errcode.Diagnostic) {
	var tokens []token.Token
	for {
		tok := l.next()
		tokens = append(tokens, tok)
		if tok.Kind == token.EOF {
			break
		}
	}
	return tokens, l.Diagnostics
}

func (l *Lexer) pushDiag(code errcode.Code, msg string, span sourcemap.Span) {
	l.Diagnostics = append(l.Diagnostics, errcode.Diagnostic{
		Code: code, Message: msg, Line: span.Start.Line, Col: span.Start.Column,
	})
}

func (l *Lexer) isEOF() bool { return l.pos >= len(l.input) }

func (l *Lexer) currentRune() (rune, int) {
	if l.isEOF() {
		return utf8.RuneError, 0
	}
	r, w := utf8.DecodeRune(l.input[l.pos:])
	return r, w
}

// advance moves one rune forward, applying the shared column-advance rules
// documented in sourcemap: '\n' resets the column and bumps the line; '\t'
// rounds the column up to the next multiple of 4; everything else advances
// one column.
func (l *Lexer) advance() {
	if l.isEOF() {
		return
	}
	r, w := l.currentRune()
	l.pos += w
	switch r {
	case '\n':
		l.line++
		l.column = 1
	case '\t':
		l.column = ((l.column-1)/4+1)*4 + 1
	default:
		l.column++
	}
}

func (l *Lexer) position() sourcemap.Position {
	return sourcemap.Position{ByteOffset: l.pos, Line: l.line, Column: l.column}
}

func (l *Lexer) spanFrom(start sourcemap.Position) sourcemap.Span {
	return sourcemap.Span{Start: start, End: l.position()}
}

func (l *Lexer) tokenCap() bool {
	l.tokenCount++
	if l.tokenCount > l.profile.MaxTokenCount {
		return true
	}
	return false
}

func (l *Lexer) next() token.Token {
	l.skipWhitespaceAndComments()

	start := l.position()
	if l.isEOF() {
		return token.Token{Kind: token.EOF, Span: l.spanFrom(start)}
	}
	if l.tokenCap() {
		l.pushDiag("E025", "maximum token count exceeded", l.spanFrom(start))
		return token.Token{Kind: token.EOF, Span: l.spanFrom(start)}
	}

	r, w := l.currentRune()
	switch {
	case r == utf8.RuneError && w <= 1:
		l.pushDiag("E027", "invalid UTF-8 encoding", l.spanFrom(start))
		l.advance()
		return token.Token{Kind: token.Illegal, Span: l.spanFrom(start)}
	case r == '.':
		l.advance()
		return token.Token{Kind: token.Dot, Span: l.spanFrom(start), Text: "."}
	case r == '(':
		l.advance()
		return token.Token{Kind: token.LParen, Span: l.spanFrom(start), Text: "("}
	case r == ')':
		l.advance()
		return token.Token{Kind: token.RParen, Span: l.spanFrom(start), Text: ")"}
	case r == ',':
		l.advance()
		return token.Token{Kind: token.Comma, Span: l.spanFrom(start), Text: ","}
	case r == '`':
		return l.scanString(start)
	case r == '"':
		l.pushDiag("E020", `double-quoted strings are not a recognised literal dialect; use a backtick string`, l.spanFrom(start))
		l.advance()
		return token.Token{Kind: token.Illegal, Span: l.spanFrom(start)}
	case unicode.IsDigit(r):
		return l.scanNumber(start)
	case r == 'r' && l.pos+1 < len(l.input) && l.input[l.pos+1] == '`':
		l.advance() // consume the 'r' prefix
		return l.scanRawString(start)
	case isIdentStart(r):
		return l.scanWord(start)
	default:
		l.pushDiag("E020", "invalid character", l.spanFrom(start))
		l.advance()
		return token.Token{Kind: token.Illegal, Span: l.spanFrom(start)}
	}
}

func (l *Lexer) skipWhitespaceAndComments() {
	for !l.isEOF() {
		r, _ := l.currentRune()
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			l.advance()
			continue
		}
		if r == '#' {
			start := l.position()
			for !l.isEOF() {
				r2, _ := l.currentRune()
				if r2 == '\n' {
					break
				}
				l.advance()
				if l.position().ByteOffset-start.ByteOffset > l.profile.MaxCommentLength {
					l.pushDiag("E028", "comment length exceeded", l.spanFrom(start))
					break
				}
			}
			continue
		}
		break
	}
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentCont(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func (l *Lexer) scanWord(start sourcemap.Position) token.Token {
	var sb strings.Builder
	for !l.isEOF() {
		r, _ := l.currentRune()
		if !isIdentCont(r) {
			break
		}
		sb.WriteRune(r)
		l.advance()
		if sb.Len() > l.profile.MaxIdentifierLength {
			l.pushDiag("E026", "identifier length exceeded", l.spanFrom(start))
			break
		}
	}
	word := sb.String()
	kind := token.ClassifyWord(word)
	tok := token.Token{Kind: kind, Span: l.spanFrom(start), Text: word}
	if kind == token.Boolean {
		tok.Bool = word == "true"
	}
	return tok
}

func (l *Lexer) scanNumber(start sourcemap.Position) token.Token {
	var sb strings.Builder
	isFloat := false
	for !l.isEOF() {
		r, _ := l.currentRune()
		if unicode.IsDigit(r) {
			sb.WriteRune(r)
			l.advance()
			continue
		}
		if r == '.' && !isFloat {
			// only consume the dot as part of the number if followed by a digit;
			// otherwise it's the field-path separator token.
			if l.pos+1 < len(l.input) && unicode.IsDigit(rune(l.input[l.pos+1])) {
				isFloat = true
				sb.WriteRune(r)
				l.advance()
				continue
			}
		}
		break
	}
	text := sb.String()
	if isFloat {
		f := parseFloat(text)
		return token.Token{Kind: token.Float, Span: l.spanFrom(start), Text: text, Float: f}
	}
	n := parseInt(text)
	return token.Token{Kind: token.Integer, Span: l.spanFrom(start), Text: text, Int: n}
}

func parseInt(s string) int64 {
	var n int64
	for _, c := range s {
		n = n*10 + int64(c-'0')
	}
	return n
}

func parseFloat(s string) float64 {
	var intPart, fracPart string
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, fracPart = s[:i], s[i+1:]
	} else {
		intPart = s
	}
	whole := float64(parseInt(intPart))
	if fracPart == "" {
		return whole
	}
	frac := float64(parseInt(fracPart))
	for range fracPart {
		frac /= 10
	}
	return whole + frac
}

// scanString handles the non-raw string dialects: ``, `...`, and ```...```.
// The raw dialects (r`...`, r```...```) are detected one rune earlier in
// next() and routed to scanRawString instead.
func (l *Lexer) scanString(start sourcemap.Position) token.Token {
	return l.scanBacktickString(start, false)
}

// scanRawString is entered when the lexer has already consumed a bare `r`
// identifier and sees a backtick immediately following it with no
// intervening trivia — the raw-string dialect.
func (l *Lexer) scanRawString(start sourcemap.Position) token.Token {
	return l.scanBacktickString(start, true)
}

func (l *Lexer) scanBacktickString(start sourcemap.Position, raw bool) token.Token {
	// consume opening backtick(s)
	l.advance() // first `
	triple := false
	if !l.isEOF() {
		if r, _ := l.currentRune(); r == '`' {
			save := l.pos
			l.advance()
			if !l.isEOF() {
				if r2, _ := l.currentRune(); r2 == '`' {
					l.advance()
					triple = true
				} else {
					// it was just `` (empty string dialect)
					l.pos = save
				}
			} else {
				l.pos = save
			}
		}
	}
	if triple {
		return l.scanStringBody(start, raw, true)
	}
	// either an empty string `` or a single-delimiter string `...`
	if !l.isEOF() {
		if r, _ := l.currentRune(); r == '`' {
			l.advance()
			return token.Token{
				Kind: token.String, Span: l.spanFrom(start),
				Str: token.StringLiteral{Dialect: token.DialectEmpty},
			}
		}
	}
	return l.scanStringBody(start, raw, false)
}

func (l *Lexer) scanStringBody(start sourcemap.Position, raw, triple bool) token.Token {
	var raws, values strings.Builder
	depth := 0
	for {
		if l.isEOF() {
			l.pushDiag("E021", "unterminated string literal", l.spanFrom(start))
			break
		}
		r, _ := l.currentRune()
		if r == '`' {
			if triple {
				save := l.pos
				l.advance()
				if !l.isEOF() {
					if r2, _ := l.currentRune(); r2 == '`' {
						l.advance()
						if !l.isEOF() {
							if r3, _ := l.currentRune(); r3 == '`' {
								l.advance()
								break
							}
						}
					}
				}
				l.pos = save
				raws.WriteByte('`')
				values.WriteByte('`')
				l.advance()
				continue
			}
			l.advance()
			break
		}
		if !triple && r == '\n' {
			l.pushDiag("E021", "unterminated string literal: newline in single-line string", l.spanFrom(start))
			break
		}
		if !raw && r == '\\' {
			depth++
			if depth > l.profile.MaxStringNestingDepth {
				l.pushDiag("E024", "string nesting depth exceeded", l.spanFrom(start))
			}
			raws.WriteByte('\\')
			l.advance()
			if l.isEOF() {
				break
			}
			esc, _ := l.currentRune()
			raws.WriteRune(esc)
			switch esc {
			case 'n':
				values.WriteByte('\n')
			case 't':
				values.WriteByte('\t')
			case '\\':
				values.WriteByte('\\')
			case '`':
				values.WriteByte('`')
			default:
				values.WriteRune(esc)
			}
			l.advance()
			continue
		}
		raws.WriteRune(r)
		values.WriteRune(r)
		l.advance()
		if raws.Len() > l.profile.MaxStringSize {
			l.pushDiag("E023", "string size exceeded", l.spanFrom(start))
			break
		}
	}
	dialect := token.DialectBacktick
	switch {
	case raw && triple:
		dialect = token.DialectRawTripleBacktick
	case raw && !triple:
		dialect = token.DialectRawBacktick
	case !raw && triple:
		dialect = token.DialectTripleBacktick
	}
	val := values.String()
	if raw {
		val = raws.String()
	}
	return token.Token{
		Kind: token.String, Span: l.spanFrom(start),
		Str: token.StringLiteral{Dialect: dialect, Raw: raws.String(), Value: val},
	}
}
