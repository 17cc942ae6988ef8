// Package source implements the source map for the grammar-engineering
// toolchain: files, positions and half-open ranges over them, with
// O(log n) line/column resolution.
//
// Grounded on the line-start binary search used by ava12/llx's source
// package, adapted to value-typed, by-URL-equal files so that Symbol and
// Term provenance can carry ranges by value without aliasing concerns.
package source

import (
	"fmt"
	"sort"
	"strings"
)

// File is an immutable source file: a URL, its text, and a precomputed
// table of line-start byte offsets. Files compare equal by URL alone —
// two Files constructed from the same URL with different text are still
// "the same file" for range-comparison purposes; callers are responsible
// for not doing that.
type File struct {
	url        string
	text       string
	lineStarts []int
	startLine  int // 1-based line number of text[0], for embedded fragments
}

// None is the sentinel file used for synthesized AST nodes that have no
// backing source text (fresh nonterminals produced by lowering, etc).
var None = &File{url: "none", startLine: 1}

// New constructs a File from text found at url. startLine, if > 0,
// overrides the line number attributed to the first line of text — used
// when text is a fragment embedded in a larger document (e.g. a grammar
// block extracted from a markdown spec).
func New(url string, text string, startLine int) *File {
	if startLine <= 0 {
		startLine = 1
	}
	f := &File{url: url, text: text, startLine: startLine}
	f.lineStarts = computeLineStarts(text)
	return f
}

func computeLineStarts(text string) []int {
	starts := make([]int, 1, strings.Count(text, "\n")+1)
	starts[0] = 0
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

// URL returns the file's identifying URL (a path, or a synthetic name for
// embedded fragments).
func (f *File) URL() string { return f.url }

// Text returns the full text of the file.
func (f *File) Text() string { return f.text }

// Len returns the length of the file's text, in bytes.
func (f *File) Len() int { return len(f.text) }

// IsNone reports whether f is the sentinel "none" file.
func (f *File) IsNone() bool { return f == None }

// Equal reports whether f and g are the same file, compared by URL only.
func (f *File) Equal(g *File) bool {
	if f == g {
		return true
	}
	if f == nil || g == nil {
		return false
	}
	return f.url == g.url
}

// LineCol converts a 0-based byte index into the file into a 1-based
// (line, column) pair. Column is a rune count from the start of the line.
func (f *File) LineCol(index int) (line, col int) {
	if f.IsNone() {
		return f.startLine, 1
	}
	if index < 0 {
		index = 0
	}
	if index > len(f.text) {
		index = len(f.text)
	}
	i := f.lineIndexFor(index)
	lineStart := f.lineStarts[i]
	return f.startLine + i, runeCount(f.text[lineStart:index]) + 1
}

func (f *File) lineIndexFor(index int) int {
	// last lineStarts[i] <= index
	i := sort.Search(len(f.lineStarts), func(i int) bool {
		return f.lineStarts[i] > index
	})
	return i - 1
}

func runeCount(s string) int {
	n := 0
	for range s {
		n++
	}
	return n
}

// Pos converts a 1-based (line, column) pair back into a 0-based byte
// index into the file's text. Out-of-range lines clamp to the end of the
// file, mirroring File.LineCol's clamping on the way in.
func (f *File) Pos(line, col int) int {
	if f.IsNone() || line <= 0 || col <= 0 {
		return 0
	}
	i := line - f.startLine
	if i < 0 {
		return 0
	}
	if i >= len(f.lineStarts) {
		return len(f.text)
	}
	lineEnd := len(f.text)
	if i+1 < len(f.lineStarts) {
		lineEnd = f.lineStarts[i+1]
	}
	pos := f.lineStarts[i]
	remaining := col - 1
	for remaining > 0 && pos < lineEnd {
		_, size := decodeRune(f.text[pos:])
		pos += size
		remaining--
	}
	if pos > lineEnd {
		pos = lineEnd
	}
	return pos
}

func decodeRune(s string) (rune, int) {
	for i, r := range s {
		if i == 0 {
			return r, len(string(r))
		}
	}
	return 0, 1
}

// Position is a single point in a File: (file, byte index). Positions are
// totally ordered within one file; comparing positions from different
// files is a contract violation (Before panics on mismatched files).
type Position struct {
	File  *File
	Index int
}

// NonePosition is the sentinel position for synthesized nodes.
var NonePosition = Position{File: None, Index: 0}

// Line returns the 1-based line number of p.
func (p Position) Line() int { l, _ := p.File.LineCol(p.Index); return l }

// Col returns the 1-based column of p.
func (p Position) Col() int { _, c := p.File.LineCol(p.Index); return c }

// Before reports whether p occurs strictly before q in the same file.
func (p Position) Before(q Position) bool {
	p.mustShareFile(q)
	return p.Index < q.Index
}

func (p Position) mustShareFile(q Position) {
	if !p.File.Equal(q.File) {
		panic(fmt.Sprintf("source: comparing positions from different files %q and %q", p.File.URL(), q.File.URL()))
	}
}

func (p Position) String() string {
	return fmt.Sprintf("%s:%d.%d", p.File.URL(), p.Line(), p.Col())
}

// Range is a half-open [Start, End) range of byte offsets into a single
// File. A Range has no ties to column/line numbers until rendered.
type Range struct {
	File  *File
	Start int
	End   int
}

// NoneRange is the sentinel range for synthesized AST nodes.
var NoneRange = Range{File: None}

// IsNone reports whether r is the sentinel "none" range.
func (r Range) IsNone() bool { return r.File.IsNone() && r.Start == 0 && r.End == 0 }

// Len returns the number of bytes spanned by r.
func (r Range) Len() int { return r.End - r.Start }

// From returns the start position of r.
func (r Range) From() Position { return Position{File: r.File, Index: r.Start} }

// To returns the position just behind the end of r.
func (r Range) To() Position { return Position{File: r.File, Index: r.End} }

// Contains reports whether r wholly contains other, which must be a range
// in the same file.
func (r Range) Contains(other Range) bool {
	if !r.File.Equal(other.File) {
		panic("source: Contains across different files")
	}
	return r.Start <= other.Start && other.End <= r.End
}

// Extend grows r, in place semantics via return value, to also cover pos.
func (r Range) Extend(pos Position) Range {
	if r.IsNone() {
		return Range{File: pos.File, Start: pos.Index, End: pos.Index}
	}
	if !r.File.Equal(pos.File) {
		panic("source: Extend across different files")
	}
	if pos.Index < r.Start {
		r.Start = pos.Index
	}
	if pos.Index > r.End {
		r.End = pos.Index
	}
	return r
}

// Union returns the smallest range covering both r and other. Both must
// be in the same file, unless one of them is the sentinel "none" range.
func (r Range) Union(other Range) Range {
	if r.IsNone() {
		return other
	}
	if other.IsNone() {
		return r
	}
	if !r.File.Equal(other.File) {
		panic("source: Union across different files")
	}
	start, end := r.Start, r.End
	if other.Start < start {
		start = other.Start
	}
	if other.End > end {
		end = other.End
	}
	return Range{File: r.File, Start: start, End: end}
}

// String renders r as "file:line.col" or "file:line.col-endcol" or
// "file:line.col-endline:endcol", matching the diagnostic rendering of
// §4.G of the grammar-toolchain specification.
func (r Range) String() string {
	if r.IsNone() {
		return "<none>"
	}
	sl, sc := r.File.LineCol(r.Start)
	el, ec := r.File.LineCol(r.End)
	if sl == el {
		if r.Start == r.End {
			return fmt.Sprintf("%s:%d.%d", r.File.URL(), sl, sc)
		}
		return fmt.Sprintf("%s:%d.%d-%d", r.File.URL(), sl, sc, ec)
	}
	return fmt.Sprintf("%s:%d.%d-%d:%d", r.File.URL(), sl, sc, el, ec)
}
