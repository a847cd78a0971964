// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package lexer_test

import (
	"testing"

	"github.com/curtisslone/esp/internal/lexer"
	"github.com/curtisslone/esp/internal/limits"
	"github.com/curtisslone/esp/internal/token"
)

func TestTokenizeKeywordsAndPunctuation(t *testing.T) {
	src := []byte("DEF META CRI_END state.field equals 42 3.5 true false")
	l := lexer.New(src, limits.Default)
	toks, diags := l.Tokenize()
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	want := []token.Kind{
		token.KwDEF, token.KwMETA, token.KwCRI_END,
		token.Identifier, token.Dot, token.Identifier,
		token.OpEquals, token.Integer, token.Float,
		token.Boolean, token.Boolean, token.EOF,
	}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d: %+v", len(toks), len(want), toks)
	}
	for i, k := range want {
		if toks[i].Kind != k {
			t.Errorf("token %d: got %s, want %s", i, toks[i].Kind, k)
		}
	}
}

func TestStringDialects(t *testing.T) {
	cases := []struct {
		name    string
		src     string
		dialect token.StringDialect
		value   string
	}{
		{"empty", "``", token.DialectEmpty, ""},
		{"backtick", "`hello\\nworld`", token.DialectBacktick, "hello\nworld"},
		{"raw-backtick", "r`a\\nb`", token.DialectRawBacktick, "a\\nb"},
		{"triple", "```multi\nline```", token.DialectTripleBacktick, "multi\nline"},
		{"raw-triple", "r```multi\nline```", token.DialectRawTripleBacktick, "multi\nline"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			l := lexer.New([]byte(c.src), limits.Default)
			toks, diags := l.Tokenize()
			if len(diags) != 0 {
				t.Fatalf("unexpected diagnostics: %v", diags)
			}
			if len(toks) != 2 { // string + EOF
				t.Fatalf("got %d tokens, want 2: %+v", len(toks), toks)
			}
			if toks[0].Kind != token.String {
				t.Fatalf("got kind %s, want String", toks[0].Kind)
			}
			if toks[0].Str.Dialect != c.dialect {
				t.Errorf("got dialect %d, want %d", toks[0].Str.Dialect, c.dialect)
			}
			if toks[0].Str.Value != c.value {
				t.Errorf("got value %q, want %q", toks[0].Str.Value, c.value)
			}
		})
	}
}

func TestUnterminatedStringIsRecoverable(t *testing.T) {
	l := lexer.New([]byte("`unterminated"), limits.Default)
	toks, diags := l.Tokenize()
	if len(diags) == 0 {
		t.Fatalf("expected an unterminated-string diagnostic")
	}
	if diags[0].Code != "E021" {
		t.Errorf("got code %s, want E021", diags[0].Code)
	}
	if toks[len(toks)-1].Kind != token.EOF {
		t.Errorf("expected scanning to still terminate with EOF")
	}
}

func TestLineColumnTracking(t *testing.T) {
	l := lexer.New([]byte("DEF\n  CRI"), limits.Default)
	toks, _ := l.Tokenize()
	if toks[0].Span.Start.Line != 1 || toks[0].Span.Start.Column != 1 {
		t.Errorf("DEF: got %d:%d, want 1:1", toks[0].Span.Start.Line, toks[0].Span.Start.Column)
	}
	if toks[1].Span.Start.Line != 2 || toks[1].Span.Start.Column != 3 {
		t.Errorf("CRI: got %d:%d, want 2:3", toks[1].Span.Start.Line, toks[1].Span.Start.Column)
	}
}

func TestMaxIdentifierLengthEnforced(t *testing.T) {
	profile := limits.Default
	profile.MaxIdentifierLength = 4
	l := lexer.New([]byte("abcdefgh"), profile)
	_, diags := l.Tokenize()
	if len(diags) == 0 {
		t.Fatalf("expected an identifier-length diagnostic")
	}
	if diags[0].Code != "E026" {
		t.Errorf("got code %s, want E026", diags[0].Code)
	}
}
