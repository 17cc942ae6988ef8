// Package diag implements structured diagnostics for the grammar
// toolchain (§4.G and §7 of the grammar-toolchain specification): errors
// with a primary message/range and an ordered list of notes, collected
// into a log that renders sorted by primary source position.
//
// Plain rendering (Log.Report/Error.String) is what the testable
// properties in spec.md §8 check against; Log.Pretty additionally offers
// a colorized rendering via pterm, following the teacher's pterm.Error /
// pterm.Info prefix styling (gorgo/terex/terexlang/trepl).
package diag

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/dabrahams/hylo-spec-parser/source"
	"github.com/pterm/pterm"
)

// Kind classifies a diagnostic (§7). AmbiguousParse and NoParse are
// included for a complete kind space shared with downstream engine
// bindings, but the CORE pipeline never produces them itself.
type Kind int

const (
	Syntax Kind = iota
	DuplicateDefinition
	UndefinedSymbol
	UnreachableSymbol
	RecursiveTokenRule
	IllegalCharacter
	AmbiguousParse
	NoParse
)

func (k Kind) String() string {
	switch k {
	case Syntax:
		return "syntax error"
	case DuplicateDefinition:
		return "duplicate definition"
	case UndefinedSymbol:
		return "undefined symbol"
	case UnreachableSymbol:
		return "unreachable symbol"
	case RecursiveTokenRule:
		return "recursive token rule"
	case IllegalCharacter:
		return "illegal character"
	case AmbiguousParse:
		return "ambiguous parse"
	case NoParse:
		return "no parse"
	}
	return "error"
}

// Note is a secondary annotation attached to an Error, e.g. "first
// defined here".
type Note struct {
	Message string
	Range   source.Range
}

// Error is a single diagnostic: a kind, a human-readable message, a
// primary site, and zero or more ordered notes.
type Error struct {
	Kind    Kind
	Message string
	Primary source.Range
	Notes   []Note
}

// Equal reports whether two errors carry the same message and the same
// sequence of ranges (primary, then notes in order) — per §4.G, that is
// the entirety of the equality contract; Kind is not compared because two
// passes may phrase the same site's problem with different kinds during
// recovery (not currently the case in this pipeline, but the contract is
// defined on message+ranges alone to match spec.md precisely).
func (e Error) Equal(other Error) bool {
	if e.Message != other.Message || e.Primary != other.Primary {
		return false
	}
	if len(e.Notes) != len(other.Notes) {
		return false
	}
	for i := range e.Notes {
		if e.Notes[i].Range != other.Notes[i].Range || e.Notes[i].Message != other.Notes[i].Message {
			return false
		}
	}
	return true
}

func (e Error) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: error: %s", e.Primary, e.Message)
	for i, n := range e.Notes {
		fmt.Fprintf(&b, "\n%s: note(%d): %s", n.Range, i+1, n.Message)
	}
	return b.String()
}

// Syntax-error/duplicate-definition/etc. constructors keep call sites
// from hand-assembling message strings (§ Ambient Stack / Error handling).

func NewSyntax(at source.Range, expected []string) Error {
	msg := "unexpected token"
	if len(expected) > 0 {
		msg = fmt.Sprintf("unexpected token, expected one of: %s", strings.Join(expected, ", "))
	}
	return Error{Kind: Syntax, Message: msg, Primary: at}
}

func NewDuplicateDefinition(name string, at, firstAt source.Range) Error {
	return Error{
		Kind:    DuplicateDefinition,
		Message: fmt.Sprintf("%q is defined more than once", name),
		Primary: at,
		Notes:   []Note{{Message: "first defined here", Range: firstAt}},
	}
}

func NewUndefinedSymbol(name string, at source.Range) Error {
	return Error{
		Kind:    UndefinedSymbol,
		Message: fmt.Sprintf("%q is not defined", name),
		Primary: at,
	}
}

func NewUnreachableSymbol(name string, at source.Range) Error {
	return Error{
		Kind:    UnreachableSymbol,
		Message: fmt.Sprintf("%q is not reachable from the start symbol", name),
		Primary: at,
	}
}

func NewRecursiveTokenRule(name string, at source.Range) Error {
	return Error{
		Kind:    RecursiveTokenRule,
		Message: fmt.Sprintf("token rule %q participates in a cycle of token-rule references", name),
		Primary: at,
	}
}

func NewIllegalCharacter(ch string, at source.Range) Error {
	return Error{
		Kind:    IllegalCharacter,
		Message: fmt.Sprintf("illegal character %q", ch),
		Primary: at,
	}
}

func NewNoStartSymbol(name string) Error {
	return Error{
		Kind:    UndefinedSymbol,
		Message: fmt.Sprintf("start symbol %q is not defined", name),
		Primary: source.NoneRange,
	}
}

// Log is an ordered set of Errors: Add is a no-op for an error Equal to
// one already present. Log is not safe for concurrent use, matching the
// single-threaded, synchronous pipeline model (§5).
type Log struct {
	errors []Error
}

// Add appends e unless an equal error is already present.
func (l *Log) Add(e Error) {
	for _, existing := range l.errors {
		if existing.Equal(e) {
			return
		}
	}
	l.errors = append(l.errors, e)
}

// Empty reports whether the log has no errors.
func (l *Log) Empty() bool { return len(l.errors) == 0 }

// Errors returns the accumulated errors sorted by primary range start
// position, per §4.G ("its report is the errors sorted by primary
// range's start position").
func (l *Log) Errors() []Error {
	sorted := make([]Error, len(l.errors))
	copy(sorted, l.errors)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].Primary, sorted[j].Primary
		if !a.File.Equal(b.File) {
			return a.File.URL() < b.File.URL()
		}
		return a.Start < b.Start
	})
	return sorted
}

// Report renders every error in sorted order, one error block per line
// group, in the plain format specified by §4.G.
func (l *Log) Report() string {
	var b strings.Builder
	for i, e := range l.Errors() {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(e.String())
	}
	return b.String()
}

// Pretty renders the log to w with pterm-driven coloring, following the
// teacher's pattern of customizing the Prefix of a shared PrefixPrinter
// and redirecting it to a specific writer (gorgo/terex/terexlang/trepl
// initDisplay/REPL): "error:" styled like pterm.Error, "note(i):" styled
// like pterm.Info.
func (l *Log) Pretty(w io.Writer) {
	errorPrinter := pterm.Error.WithPrefix(pterm.Prefix{
		Text:  "ERROR",
		Style: pterm.NewStyle(pterm.BgRed, pterm.FgBlack),
	}).WithWriter(w)
	notePrinter := pterm.Info.WithPrefix(pterm.Prefix{
		Text:  "NOTE",
		Style: pterm.NewStyle(pterm.BgCyan, pterm.FgBlack),
	}).WithWriter(w)
	for _, e := range l.Errors() {
		errorPrinter.Println(fmt.Sprintf("%s: %s", e.Primary, e.Message))
		for i, n := range e.Notes {
			notePrinter.Println(fmt.Sprintf("%s: note(%d): %s", n.Range, i+1, n.Message))
		}
	}
}
