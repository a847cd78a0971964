// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package parser

import (
	"github.com/curtisslone/esp/internal/limits"
	"github.com/curtisslone/esp/internal/token"
)

// stream wraps a token slice with peek/advance and checkpoint/restore for
// speculative parsing. The lexer already filters whitespace/comments out of
// the slice it hands to the parser, so the stream has no skip step of its
// own. lookaheadUsed counts peek calls; it is not compared against
// MaxLookaheadTokens or any other limit.
type stream struct {
	tokens []token.Token
	pos    int

	profile       limits.Profile
	lookaheadUsed int
}

func newStream(tokens []token.Token, profile limits.Profile) *stream {
	return &stream{tokens: tokens, profile: profile}
}

// peek returns the token k positions ahead of the cursor (0 == current),
// clamped to the final EOF token if k runs past the end.
func (s *stream) peek(k int) token.Token {
	s.lookaheadUsed++
	idx := s.pos + k
	if idx >= len(s.tokens) {
		return s.tokens[len(s.tokens)-1] // EOF
	}
	return s.tokens[idx]
}

func (s *stream) current() token.Token { return s.peek(0) }

func (s *stream) advance() token.Token {
	t := s.current()
	if s.pos < len(s.tokens)-1 {
		s.pos++
	}
	return t
}

// checkpoint/restore implement speculative lookahead: a rule that might not
// match can try, then rewind.
type checkpoint int

func (s *stream) checkpoint() checkpoint { return checkpoint(s.pos) }
func (s *stream) restore(c checkpoint)   { s.pos = int(c) }

// atBlockBoundary reports whether the current significant token is one of
// the major block-introducing keywords, used by error recovery to find a
// safe place to resume parsing.
func (s *stream) atBlockBoundary() bool {
	switch s.current().Kind {
	case token.KwDEF, token.KwDEF_END, token.KwMETA, token.KwMETA_END,
		token.KwCRI, token.KwCRI_END, token.KwCTN, token.KwCTN_END,
		token.KwSTATE, token.KwSTATE_END, token.KwOBJECT, token.KwOBJECT_END,
		token.KwFILTER, token.KwFILTER_END, token.KwSET, token.KwVAR, token.KwRUN,
		token.EOF:
		return true
	}
	return false
}
