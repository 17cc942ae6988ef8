// Package lowering implements EBNF→BNF lowering (§4.E of the
// grammar-toolchain specification): it drives a pluggable Builder with
// one make_terminal/make_nonterminal/add_rule call per syntactically
// distinct sub-term of a validated grammar.Grammar, memoizing by a
// structural, range-blind hash of each ast.Term so that two occurrences
// of the same sub-expression collapse onto a single output symbol.
//
// Grounded on the teacher's item/state memoization pattern
// (gorgo/lr/tables.go's findStateByItems, which maps a canonicalized
// item set to the CFSM state that already represents it) generalized
// from LR item-sets to EBNF sub-terms.
package lowering

import (
	"fmt"

	"github.com/cnf/structhash"
	"github.com/dabrahams/hylo-spec-parser/ast"
	"github.com/dabrahams/hylo-spec-parser/grammar"
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'hylogram.lowering'.
func tracer() tracing.Trace {
	return tracing.Select("hylogram.lowering")
}

// Symbol is the opaque output-symbol handle threaded through the Builder
// contract. It is comparable, satisfying §4.E's "hashable/comparable if
// the builder chooses to expose identity" requirement, and carries no
// behavior of its own — everything the caller needs to know about a
// Symbol (its kind, display name, provenance) is recorded by the
// Builder that minted it.
type Symbol int

// Builder is the pluggable sink the lowering drives (§4.E "Builder
// contract"). A test double can record every call verbatim; a
// production sink (BNFBuilder, below) accumulates a BNF grammar.
type Builder interface {
	MakeTerminal(source ast.Node) Symbol
	MakeNonterminal(source ast.Node) Symbol
	SetStartSymbol(sym Symbol)
	AddRule(lhs Symbol, rhs []Symbol, source ast.Node)
}

// EBNFToBNF drives b over g, per §4.E's lowering rules. g must already
// be a validated grammar.Grammar (grammar.Build's postcondition); the
// lowering itself performs no validation and produces no diagnostics —
// a malformed grammar is a programming error here, not a data error.
func EBNFToBNF(g *grammar.Grammar, b Builder) error {
	lw := &lowering{g: g, b: b, memo: make(map[string]Symbol)}
	start, err := lw.lowerSym(g.Start)
	if err != nil {
		return err
	}
	b.SetStartSymbol(start)
	tracer().Infof("lowering produced %d output symbol(s)", len(lw.memo))
	return nil
}

// lowering is the exclusively-owned state of one EBNFToBNF invocation
// (§5: "the EBNFToBNF state machine, exclusively owned by its
// invocation" — no state survives across calls, no global caches).
type lowering struct {
	g    *grammar.Grammar
	b    Builder
	memo map[string]Symbol
}

// key computes the range-blind memoization key for t, per §4.E's
// memoization rule: "A table keyed by Term (equality ignoring source
// range)". structhash.Hash walks t's fields via reflection, skipping
// every field tagged hash:"-" (every embedded source.Range in package
// ast carries that tag) — giving the equality-ignoring-range discipline
// a concrete, collision-resistant key without a hand-rolled visitor.
func (lw *lowering) key(t ast.Term) string {
	h, err := structhash.Hash(t, 1)
	if err != nil {
		// structhash only fails on unhashable field kinds (channels,
		// funcs), none of which ast.Term ever holds; fall back to the
		// cheap range-blind Key() rather than panicking.
		return t.Key()
	}
	return h
}

// lowerSym lowers a reference to the defined symbol s: a nonterminal
// (with its productions emitted) if s names a Plain-kind definition,
// a terminal otherwise (§4.E "Sym(s) → L is a nonterminal iff s is in
// nonterminals()").
func (lw *lowering) lowerSym(s ast.Symbol) (Symbol, error) {
	term := ast.SymTerm(s, s.Range())
	key := lw.key(term)
	if sym, ok := lw.memo[key]; ok {
		return sym, nil
	}

	if !lw.g.IsNonterminal(s.Name) {
		sym := lw.b.MakeTerminal(s)
		lw.memo[key] = sym
		return sym, nil
	}

	d, ok := lw.g.Lookup(s.Name)
	if !ok {
		return 0, fmt.Errorf("lowering: %q has no definition in the validated grammar", s.Name)
	}

	sym := lw.b.MakeNonterminal(s)
	lw.memo[key] = sym // recorded before recursing: breaks self-recursive rules
	for _, alt := range d.Alternatives {
		rhs, err := lw.lowerAlternative(alt)
		if err != nil {
			return 0, err
		}
		lw.b.AddRule(sym, rhs, alt)
	}
	return sym, nil
}

func (lw *lowering) lowerAlternative(alt ast.Alternative) ([]Symbol, error) {
	rhs := make([]Symbol, 0, len(alt))
	for _, t := range alt {
		sym, err := lw.lowerTerm(t)
		if err != nil {
			return nil, err
		}
		rhs = append(rhs, sym)
	}
	return rhs, nil
}

// lowerTerm lowers one EBNF term per §4.E's lowering rules table.
func (lw *lowering) lowerTerm(t ast.Term) (Symbol, error) {
	key := lw.key(t)
	if sym, ok := lw.memo[key]; ok {
		return sym, nil
	}

	switch t.Kind {
	case ast.KindSym:
		return lw.lowerSym(t.Symbol)

	case ast.KindLiteral, ast.KindRegexp:
		sym := lw.b.MakeTerminal(t)
		lw.memo[key] = sym
		return sym, nil

	case ast.KindGroup:
		sym := lw.b.MakeNonterminal(t)
		lw.memo[key] = sym
		for _, alt := range t.Alts {
			rhs, err := lw.lowerAlternative(alt)
			if err != nil {
				return 0, err
			}
			lw.b.AddRule(sym, rhs, alt)
		}
		return sym, nil

	case ast.KindQuantified:
		sym := lw.b.MakeNonterminal(t)
		lw.memo[key] = sym
		inner, err := lw.lowerTerm(*t.Sub)
		if err != nil {
			return 0, err
		}
		switch t.Quant {
		case ast.Star:
			lw.b.AddRule(sym, nil, t)                    // L -> ε
			lw.b.AddRule(sym, []Symbol{sym, inner}, t)   // L -> L t
		case ast.Plus:
			lw.b.AddRule(sym, []Symbol{inner}, t)        // L -> t
			lw.b.AddRule(sym, []Symbol{sym, inner}, t)   // L -> L t
		case ast.Optional:
			lw.b.AddRule(sym, nil, t)              // L -> ε
			lw.b.AddRule(sym, []Symbol{inner}, t)  // L -> t
		default:
			return 0, fmt.Errorf("lowering: unknown quantifier %q", t.Quant)
		}
		return sym, nil
	}

	return 0, fmt.Errorf("lowering: unsupported term kind %v", t.Kind)
}
