// Copyright (c) 2025 Michael D Henderson. All rights reserved.

// Package sourcemap tracks byte offsets, line/column positions, and spans
// over a single source file, and renders caret-underlined diagnostics from
// them. It is the foundation every later compiler pass builds spans on top
// of.
package sourcemap

import (
	"fmt"
	"sort"
	"strings"
)

// Position is a single point in the source: a byte offset plus the
// corresponding 1-based line and column.
type Position struct {
	ByteOffset int
	Line       int // 1-based
	Column     int // 1-based
}

// Span is a half-open byte range [Start, End) with both endpoints carrying
// full Position information so later passes never need to re-walk the
// source to recover line/column.
type Span struct {
	Start Position
	End   Position
}

// Len returns the number of bytes the span covers.
func (s Span) Len() int {
	n := s.End.ByteOffset - s.Start.ByteOffset
	if n < 0 {
		return 0
	}
	return n
}

// Merge returns the smallest span containing both s and other. Merge is
// commutative and associative.
func (s Span) Merge(other Span) Span {
	merged := s
	if other.Start.ByteOffset < s.Start.ByteOffset {
		merged.Start = other.Start
	}
	if other.End.ByteOffset > s.End.ByteOffset {
		merged.End = other.End
	}
	return merged
}

// String renders a span as "line:col".
func (s Span) String() string {
	return fmt.Sprintf("%d:%d", s.Start.Line, s.Start.Column)
}

// SourceMap owns the source text of one file and the precomputed offsets of
// each line's first byte, so position-at-offset lookups are O(log lines).
type SourceMap struct {
	Name       string
	Source     []byte
	lineStarts []int // byte offset of the first byte of each line (0-based index == line-1)
}

// New builds a SourceMap by scanning source once for line starts.
//
// Position tracking follows the column-advance rules the lexer also uses:
// '\n' resets column to 1 and advances the line; '\t' rounds the column up
// to the next multiple of 4; every other character advances one column per
// UTF-8 rune (not per byte).
func New(name string, source []byte) *SourceMap {
	sm := &SourceMap{Name: name, Source: source, lineStarts: []int{0}}
	for i, b := range source {
		if b == '\n' {
			sm.lineStarts = append(sm.lineStarts, i+1)
		}
	}
	return sm
}

// PositionAt converts a byte offset into a Position using binary search over
// the precomputed line starts.
func (sm *SourceMap) PositionAt(offset int) Position {
	if offset < 0 {
		offset = 0
	}
	if offset > len(sm.Source) {
		offset = len(sm.Source)
	}
	// find the line whose start is <= offset, using the largest such line.
	line := sort.Search(len(sm.lineStarts), func(i int) bool {
		return sm.lineStarts[i] > offset
	}) // first line start strictly greater than offset
	line-- // step back to the containing line
	if line < 0 {
		line = 0
	}
	lineStart := sm.lineStarts[line]
	col := 1
	for i := lineStart; i < offset && i < len(sm.Source); {
		if sm.Source[i] == '\t' {
			col = ((col-1)/4+1)*4 + 1
			i++
			continue
		}
		// advance one column per rune, one or more bytes.
		w := runeWidth(sm.Source[i])
		i += w
		col++
	}
	return Position{ByteOffset: offset, Line: line + 1, Column: col}
}

func runeWidth(lead byte) int {
	switch {
	case lead&0x80 == 0x00:
		return 1
	case lead&0xE0 == 0xC0:
		return 2
	case lead&0xF0 == 0xE0:
		return 3
	case lead&0xF8 == 0xF0:
		return 4
	default:
		return 1
	}
}

// Slice returns the substring of the source covered by span.
func (sm *SourceMap) Slice(span Span) []byte {
	start, end := span.Start.ByteOffset, span.End.ByteOffset
	if start < 0 {
		start = 0
	}
	if end > len(sm.Source) {
		end = len(sm.Source)
	}
	if start > end {
		start = end
	}
	return sm.Source[start:end]
}

// Line returns the full text of the given 1-based line number, without its
// trailing newline.
func (sm *SourceMap) Line(lineNo int) string {
	if lineNo < 1 || lineNo > len(sm.lineStarts) {
		return ""
	}
	start := sm.lineStarts[lineNo-1]
	var end int
	if lineNo < len(sm.lineStarts) {
		end = sm.lineStarts[lineNo] - 1 // drop the newline
	} else {
		end = len(sm.Source)
	}
	if end < start {
		end = start
	}
	line := string(sm.Source[start:end])
	return strings.TrimSuffix(line, "\r")
}

// RenderDiagnostic formats an error in the style:
//
//	Error: <message>
//	  --> <name>:line:col
//	<offending line>
//	<caret underline>
//
// The caret underline has max(1, span.Len()) caret characters, clamped so
// it never runs past the end of the rendered line.
func (sm *SourceMap) RenderDiagnostic(message string, span Span) string {
	line := sm.Line(span.Start.Line)
	caretCount := span.Len()
	if caretCount < 1 {
		caretCount = 1
	}
	maxCarets := len(line) - (span.Start.Column - 1)
	if maxCarets < 1 {
		maxCarets = 1
	}
	if caretCount > maxCarets {
		caretCount = maxCarets
	}
	pad := strings.Repeat(" ", span.Start.Column-1)
	carets := strings.Repeat("^", caretCount)
	return fmt.Sprintf("Error: %s\n  --> %s:%s\n%s\n%s%s",
		message, sm.Name, span.String(), line, pad, carets)
}
