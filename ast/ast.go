// Package ast defines the abstract syntax produced by the EBNF parser
// (§3 and §4.C of the grammar-toolchain specification): symbols, terms,
// alternatives and rule definitions, plus the node capability (source
// range + display dump) shared by all of them.
//
// Term equality and hashing deliberately ignore embedded source ranges
// (see Term.Equal and Term.Key), since Term is used as a hash key during
// EBNF→BNF lowering (package lowering).
package ast

import (
	"fmt"
	"strings"

	"github.com/dabrahams/hylo-spec-parser/source"
)

// Node is the capability shared by every AST element: a source range for
// diagnostics/provenance, and a textual dump used both for debugging and
// as the basis of generated BNF symbol names (§4.E).
type Node interface {
	Range() source.Range
	Dump(level int) string
}

// Symbol is a grammar symbol: a name, plus the source range of the
// occurrence that produced this particular Symbol value. Equality and
// hashing use only the name — the range is provenance.
type Symbol struct {
	Name      string
	SourceRng source.Range `hash:"-"`
}

func NewSymbol(name string, r source.Range) Symbol { return Symbol{Name: name, SourceRng: r} }

func (s Symbol) Range() source.Range { return s.SourceRng }

func (s Symbol) Dump(level int) string { return s.Name }

// Equal compares symbols by name only.
func (s Symbol) Equal(other Symbol) bool { return s.Name == other.Name }

func (s Symbol) String() string { return s.Name }

// Kind distinguishes which variant a Term holds.
type Kind int

const (
	KindGroup Kind = iota
	KindSym
	KindLiteral
	KindRegexp
	KindQuantified
)

// Quantifier is one of '*', '+', '?'.
type Quantifier byte

const (
	Star     Quantifier = '*'
	Plus     Quantifier = '+'
	Optional Quantifier = '?'
)

// Term is the tagged union of EBNF right-hand-side constructs (§3):
//
//	Group(alts)        — Kind == KindGroup,     Alts populated
//	Sym(s)              — Kind == KindSym,       Symbol populated
//	Literal(text)       — Kind == KindLiteral,   Text populated
//	Regexp(pattern)     — Kind == KindRegexp,    Text populated
//	Quantified(t, q)    — Kind == KindQuantified, Sub and Quant populated
//
// Two Terms are Equal iff structurally equal ignoring source ranges;
// Term.Key() produces a range-blind value usable as a map key for exactly
// that reason.
type Term struct {
	Kind      Kind
	SourceRng source.Range `hash:"-"`

	Symbol Symbol          // KindSym
	Text   string          // KindLiteral, KindRegexp
	Alts   AlternativeList // KindGroup
	Sub    *Term           // KindQuantified
	Quant  Quantifier      // KindQuantified
}

func GroupTerm(alts AlternativeList, r source.Range) Term {
	return Term{Kind: KindGroup, Alts: alts, SourceRng: r}
}

func SymTerm(s Symbol, r source.Range) Term {
	return Term{Kind: KindSym, Symbol: s, SourceRng: r}
}

func LiteralTerm(text string, r source.Range) Term {
	return Term{Kind: KindLiteral, Text: text, SourceRng: r}
}

func RegexpTerm(pattern string, r source.Range) Term {
	return Term{Kind: KindRegexp, Text: pattern, SourceRng: r}
}

func QuantifiedTerm(sub Term, q Quantifier, r source.Range) Term {
	return Term{Kind: KindQuantified, Sub: &sub, Quant: q, SourceRng: r}
}

func (t Term) Range() source.Range { return t.SourceRng }

// Equal reports whether t and other are structurally equal, ignoring
// source ranges everywhere in the subtree.
func (t Term) Equal(other Term) bool {
	if t.Kind != other.Kind {
		return false
	}
	switch t.Kind {
	case KindGroup:
		return t.Alts.Equal(other.Alts)
	case KindSym:
		return t.Symbol.Equal(other.Symbol)
	case KindLiteral, KindRegexp:
		return t.Text == other.Text
	case KindQuantified:
		return t.Quant == other.Quant && t.Sub.Equal(*other.Sub)
	}
	return false
}

// Key renders a canonical, range-blind string for t, suitable as a plain
// map key. package lowering additionally uses a structural hash (via
// structhash) of this same range-blind shape for its memo table; Key
// exists for tests and for the cheap common case.
func (t Term) Key() string {
	switch t.Kind {
	case KindGroup:
		return "G(" + t.Alts.Key() + ")"
	case KindSym:
		return "S(" + t.Symbol.Name + ")"
	case KindLiteral:
		return "L(" + t.Text + ")"
	case KindRegexp:
		return "R(" + t.Text + ")"
	case KindQuantified:
		return "Q(" + t.Sub.Key() + string(t.Quant) + ")"
	}
	return "?"
}

func (t Term) Dump(level int) string {
	switch t.Kind {
	case KindGroup:
		return "(" + t.Alts.Dump(level) + ")"
	case KindSym:
		return t.Symbol.Name
	case KindLiteral:
		return "'" + t.Text + "'"
	case KindRegexp:
		return "/" + t.Text + "/"
	case KindQuantified:
		return t.Sub.Dump(level) + string(t.Quant)
	}
	return "?"
}

// Alternative is an ordered sequence of Terms (a single production RHS
// line, or one branch of an OR).
type Alternative []Term

func (a Alternative) Equal(other Alternative) bool {
	if len(a) != len(other) {
		return false
	}
	for i := range a {
		if !a[i].Equal(other[i]) {
			return false
		}
	}
	return true
}

func (a Alternative) Key() string {
	parts := make([]string, len(a))
	for i, t := range a {
		parts[i] = t.Key()
	}
	return strings.Join(parts, " ")
}

func (a Alternative) Dump(level int) string {
	parts := make([]string, len(a))
	for i, t := range a {
		parts[i] = t.Dump(level)
	}
	return strings.Join(parts, " ")
}

func (a Alternative) Range() source.Range {
	r := source.NoneRange
	for _, t := range a {
		r = r.Union(t.Range())
	}
	return r
}

// AlternativeList is an ordered sequence of Alternatives (no
// de-duplication; order reflects source order).
type AlternativeList []Alternative

func (l AlternativeList) Equal(other AlternativeList) bool {
	if len(l) != len(other) {
		return false
	}
	for i := range l {
		if !l[i].Equal(other[i]) {
			return false
		}
	}
	return true
}

func (l AlternativeList) Key() string {
	parts := make([]string, len(l))
	for i, a := range l {
		parts[i] = a.Key()
	}
	return strings.Join(parts, "|")
}

func (l AlternativeList) Dump(level int) string {
	parts := make([]string, len(l))
	for i, a := range l {
		parts[i] = a.Dump(level)
	}
	return strings.Join(parts, " | ")
}

func (l AlternativeList) Range() source.Range {
	r := source.NoneRange
	for _, a := range l {
		r = r.Union(a.Range())
	}
	return r
}

// DefinitionKind is the rule-kind annotation (§3). NoNewline and
// NoImplicitWhitespace, mentioned in spec.md's Open Questions as present
// in some variants of the original grammar model but unreachable from
// this dialect's lexer/parser, are deliberately omitted (Open Question 1,
// resolved in DESIGN.md: omission over silent plumbing).
type DefinitionKind int

const (
	Plain DefinitionKind = iota
	Token
	OneOf
	Regexp
)

func (k DefinitionKind) String() string {
	switch k {
	case Plain:
		return "plain"
	case Token:
		return "token"
	case OneOf:
		return "one-of"
	case Regexp:
		return "regexp"
	}
	return "?"
}

// Definition is a single rule: kind, left-hand-side symbol, and its
// alternatives.
type Definition struct {
	Kind         DefinitionKind
	LHS          Symbol
	Alternatives AlternativeList
	SourceRng    source.Range `hash:"-"`
}

func (d Definition) Range() source.Range { return d.SourceRng }

func (d Definition) Dump(level int) string {
	return fmt.Sprintf("%s ::= %s", d.LHS.Name, d.Alternatives.Dump(level))
}

// DefinitionList is the parser's output: an ordered list of rules, order
// matching source order (§5 ordering guarantees).
type DefinitionList []Definition
