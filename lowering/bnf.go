package lowering

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dabrahams/hylo-spec-parser/ast"
	"github.com/dabrahams/hylo-spec-parser/source"
)

// SymbolInfo records everything the BNF builder keeps about a minted
// Symbol: whether it is a terminal or nonterminal, its display name
// (§4.E "bnfSymbolName"), and the source range of the fragment that
// produced it.
type SymbolInfo struct {
	Terminal bool
	Name     string
	Range    source.Range
}

// Rule is one BNF production, L -> rhs (rhs empty means L -> ε), plus
// the EBNF source fragment it was derived from (§4.E provenance).
type Rule struct {
	LHS    Symbol
	RHS    []Symbol
	Source ast.Node
}

// BNF is the concrete output of EBNFToBNF when driven with a
// *BNFBuilder: a complete plain-BNF grammar plus a provenance back-map
// from every generated symbol and rule to the EBNF fragment responsible
// for it (§4.E).
type BNF struct {
	Start   Symbol
	Symbols map[Symbol]SymbolInfo
	Rules   []Rule
}

// String renders the grammar deterministically (rules in emission
// order, which §5 guarantees is a stable function of AST traversal
// order), for diagnostics and for `cmd/hylogram`'s plain-text output.
func (b *BNF) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "start: %s\n", b.name(b.Start))
	for _, r := range b.Rules {
		fmt.Fprintf(&sb, "%s ->", b.name(r.LHS))
		if len(r.RHS) == 0 {
			fmt.Fprint(&sb, " ε")
		}
		for _, s := range r.RHS {
			fmt.Fprintf(&sb, " %s", b.name(s))
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func (b *BNF) name(s Symbol) string {
	if info, ok := b.Symbols[s]; ok {
		return info.Name
	}
	return fmt.Sprintf("?%d", s)
}

// RuleSet renders the grammar's rules as a set of canonical strings
// ("lhs -> rhs1 rhs2 ..."), order-independent, for exactly the kind of
// set-equality assertion §8's end-to-end scenarios call for (e.g.
// scenario 2: "{start -> Q, Q -> ε, Q -> Q 'a'}").
func (b *BNF) RuleSet() []string {
	out := make([]string, 0, len(b.Rules))
	for _, r := range b.Rules {
		parts := make([]string, 0, len(r.RHS)+2)
		parts = append(parts, b.name(r.LHS), "->")
		if len(r.RHS) == 0 {
			parts = append(parts, "ε")
		}
		for _, s := range r.RHS {
			parts = append(parts, b.name(s))
		}
		out = append(out, strings.Join(parts, " "))
	}
	sort.Strings(out)
	return out
}

// BNFBuilder is the default production Builder (§4.E "pluggable output
// sink"): it accumulates a *BNF as EBNFToBNF drives it. The symbol
// counter and rule slice are exclusively owned by one EBNFToBNF
// invocation, per §5's no-shared-state discipline.
type BNFBuilder struct {
	next    Symbol
	start   Symbol
	symbols map[Symbol]SymbolInfo
	rules   []Rule
}

func NewBNFBuilder() *BNFBuilder {
	return &BNFBuilder{symbols: make(map[Symbol]SymbolInfo)}
}

func (b *BNFBuilder) mint(source ast.Node, terminal bool) Symbol {
	sym := b.next
	b.next++
	b.symbols[sym] = SymbolInfo{Terminal: terminal, Name: bnfSymbolName(source), Range: source.Range()}
	return sym
}

func (b *BNFBuilder) MakeTerminal(source ast.Node) Symbol    { return b.mint(source, true) }
func (b *BNFBuilder) MakeNonterminal(source ast.Node) Symbol { return b.mint(source, false) }

func (b *BNFBuilder) SetStartSymbol(sym Symbol) { b.start = sym }

func (b *BNFBuilder) AddRule(lhs Symbol, rhs []Symbol, source ast.Node) {
	b.rules = append(b.rules, Rule{LHS: lhs, RHS: rhs, Source: source})
}

// Result finalizes the accumulated state into a *BNF. Valid only after
// EBNFToBNF has returned successfully.
func (b *BNFBuilder) Result() *BNF {
	return &BNF{Start: b.start, Symbols: b.symbols, Rules: b.rules}
}

var _ Builder = (*BNFBuilder)(nil)

// bnfSymbolName derives a display name from the source fragment
// responsible for a generated symbol (§4.E): bare names (a plain
// Symbol reference) stay bare, compound fragments are wrapped in
// back-ticks around their dump.
func bnfSymbolName(node ast.Node) string {
	switch n := node.(type) {
	case ast.Symbol:
		return n.Name
	case ast.Term:
		if n.Kind == ast.KindLiteral || n.Kind == ast.KindRegexp {
			return n.Dump(0) // already delimited: 'text' or /text/
		}
	}
	return "`" + node.Dump(0) + "`"
}
