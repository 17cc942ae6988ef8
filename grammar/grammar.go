// Package grammar implements the validated grammar model (§3, §4.D of
// the grammar-toolchain specification): indexing rules by
// left-hand-side, checking full symbol coverage, start-symbol
// reachability, and acyclicity of the token-rule subgraph, plus the
// derived queries (nonterminals, literals, regexps) consumed by §4.E/F.
//
// Grounded on the teacher's closure/reachability DFS style
// (gorgo/lr/tables.go: closure, closureSet) and its use of gods sets for
// visited-state bookkeeping, generalized here from CFSM item-sets to
// grammar symbols.
package grammar

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dabrahams/hylo-spec-parser/ast"
	"github.com/dabrahams/hylo-spec-parser/diag"
	"github.com/emirpasic/gods/lists/arraylist"
	"github.com/emirpasic/gods/sets/hashset"
	"github.com/emirpasic/gods/sets/linkedhashset"
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'hylogram.grammar'.
func tracer() tracing.Trace {
	return tracing.Select("hylogram.grammar")
}

// Grammar is the validated grammar model of §3: an ordered list of
// definitions, indexed by left-hand-side symbol, with a designated start
// symbol. A Grammar is only ever produced already-valid — Build returns
// an error instead of a Grammar when any §4.D invariant is violated.
type Grammar struct {
	Definitions ast.DefinitionList
	byLHS       map[string]ast.Definition
	Start       ast.Symbol
}

// ValidationError wraps the diagnostic log accumulated across the five
// validation passes of §4.D (passes 3–5 run only once start is found).
type ValidationError struct {
	Log *diag.Log
}

func (e *ValidationError) Error() string { return e.Log.Report() }

// Build runs the five validation passes of §4.D over defs and, if they
// all succeed, returns a validated Grammar rooted at startName. All
// errors within a pass are collected before moving to the next pass,
// except that an unresolved start symbol aborts passes 3–5 (they need a
// start to do reachability), mirroring §4.D step 2 ("record an error and
// abort").
func Build(defs ast.DefinitionList, startName string) (*Grammar, error) {
	log := &diag.Log{}
	byLHS := indexByLHS(defs, log)

	start, ok := byLHS[startName]
	if !ok {
		log.Add(diag.NewNoStartSymbol(startName))
		return nil, &ValidationError{Log: log}
	}

	g := &Grammar{Definitions: defs, byLHS: byLHS, Start: start.LHS}

	checkAllSymbolsDefined(g, log)
	checkAllSymbolsReachable(g, log)
	checkNoRecursiveTokens(g, log)

	if !log.Empty() {
		return nil, &ValidationError{Log: log}
	}
	tracer().Infof("grammar validated: %d definition(s), start=%q", len(defs), startName)
	return g, nil
}

// indexByLHS is §4.D pass 1: on a duplicate lhs, record an error at the
// second occurrence with a note pointing at the first, and keep the
// first definition.
func indexByLHS(defs ast.DefinitionList, log *diag.Log) map[string]ast.Definition {
	byLHS := make(map[string]ast.Definition, len(defs))
	for _, d := range defs {
		if first, ok := byLHS[d.LHS.Name]; ok {
			log.Add(diag.NewDuplicateDefinition(d.LHS.Name, d.LHS.Range(), first.LHS.Range()))
			continue
		}
		byLHS[d.LHS.Name] = d
	}
	return byLHS
}

// Lookup returns the definition for name, if any.
func (g *Grammar) Lookup(name string) (ast.Definition, bool) {
	d, ok := g.byLHS[name]
	return d, ok
}

// EachDefinition visits definitions in source order.
func (g *Grammar) EachDefinition(f func(ast.Definition)) {
	for _, d := range g.Definitions {
		f(d)
	}
}

// checkAllSymbolsDefined is §4.D pass 3, extended to resolve spec.md's
// Open Question 3: a Sym reference to a Regexp-kind symbol is only legal
// from inside a Token rule's own body; everywhere else it is reported the
// same way as a reference to an undefined symbol.
func checkAllSymbolsDefined(g *Grammar, log *diag.Log) {
	for _, d := range g.Definitions {
		if d.Kind == ast.Regexp {
			continue // raw regex text, not EBNF terms
		}
		for _, alt := range d.Alternatives {
			for _, t := range alt {
				checkTermSymbols(g, d, t, log)
			}
		}
	}
}

func checkTermSymbols(g *Grammar, owner ast.Definition, t ast.Term, log *diag.Log) {
	switch t.Kind {
	case ast.KindSym:
		target, ok := g.byLHS[t.Symbol.Name]
		if !ok {
			log.Add(diag.NewUndefinedSymbol(t.Symbol.Name, t.Symbol.Range()))
			return
		}
		if target.Kind == ast.Regexp && owner.Kind != ast.Token {
			log.Add(diag.NewUndefinedSymbol(t.Symbol.Name, t.Symbol.Range()))
		}
	case ast.KindGroup:
		for _, alt := range t.Alts {
			for _, sub := range alt {
				checkTermSymbols(g, owner, sub, log)
			}
		}
	case ast.KindQuantified:
		checkTermSymbols(g, owner, *t.Sub, log)
	}
}

// checkAllSymbolsReachable is §4.D pass 4: compute the set of definitions
// reachable from Start via RHS symbol references (of any kind — this
// traverses the reference graph, not merely the BNF-nonterminal graph),
// and report every unreachable defined symbol at its own definition site.
func checkAllSymbolsReachable(g *Grammar, log *diag.Log) {
	visited := hashset.New()
	var visit func(name string)
	visit = func(name string) {
		if visited.Contains(name) {
			return
		}
		visited.Add(name)
		d, ok := g.byLHS[name]
		if !ok || d.Kind == ast.Regexp {
			return
		}
		for _, alt := range d.Alternatives {
			for _, t := range alt {
				visitTermSymbols(t, visit)
			}
		}
	}
	visit(g.Start.Name)
	for _, d := range g.Definitions {
		if !visited.Contains(d.LHS.Name) {
			log.Add(diag.NewUnreachableSymbol(d.LHS.Name, d.LHS.Range()))
		}
	}
}

func visitTermSymbols(t ast.Term, visit func(string)) {
	switch t.Kind {
	case ast.KindSym:
		visit(t.Symbol.Name)
	case ast.KindGroup:
		for _, alt := range t.Alts {
			for _, sub := range alt {
				visitTermSymbols(sub, visit)
			}
		}
	case ast.KindQuantified:
		visitTermSymbols(*t.Sub, visit)
	}
}

// checkNoRecursiveTokens is §4.D pass 5: build the directed graph over
// nonterminals whose definitions have kind Token or OneOf, with an edge
// A → B whenever B is a defined token-kind symbol referenced in A's RHS,
// and report the rules a depth-first search finds on a cycle. Every cycle
// has at least one of its rules reported. A rule whose cycles all close
// through rules the search has already finished is not reported, and as
// the search starts from the token rules in map iteration order, which
// rules those are can differ between runs.
//
// Edges are kept in an arraylist, mirroring the teacher's CFSM.edges
// (gorgo/lr/tables.go) adjacency representation.
func checkNoRecursiveTokens(g *Grammar, log *diag.Log) {
	isTokenKind := func(k ast.DefinitionKind) bool { return k == ast.Token || k == ast.OneOf }

	adjacency := make(map[string]*arraylist.List)
	for _, d := range g.Definitions {
		if !isTokenKind(d.Kind) {
			continue
		}
		edges := arraylist.New()
		for _, alt := range d.Alternatives {
			for _, t := range alt {
				collectTokenEdges(g, t, isTokenKind, edges)
			}
		}
		adjacency[d.LHS.Name] = edges
	}

	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[string]int, len(adjacency))
	inCycle := hashset.New()

	var visit func(name string, stack []string)
	visit = func(name string, stack []string) {
		switch state[name] {
		case done:
			return
		case visiting:
			// found a cycle: everything on the stack from name's first
			// occurrence onward participates.
			start := 0
			for i, s := range stack {
				if s == name {
					start = i
					break
				}
			}
			for _, s := range stack[start:] {
				inCycle.Add(s)
			}
			return
		}
		state[name] = visiting
		stack = append(stack, name)
		if edges, ok := adjacency[name]; ok {
			it := edges.Iterator()
			for it.Next() {
				visit(it.Value().(string), stack)
			}
		}
		state[name] = done
	}

	for name := range adjacency {
		visit(name, nil)
	}
	for _, d := range g.Definitions {
		if inCycle.Contains(d.LHS.Name) {
			log.Add(diag.NewRecursiveTokenRule(d.LHS.Name, d.LHS.Range()))
		}
	}
}

func collectTokenEdges(g *Grammar, t ast.Term, isTokenKind func(ast.DefinitionKind) bool, edges *arraylist.List) {
	switch t.Kind {
	case ast.KindSym:
		target, ok := g.byLHS[t.Symbol.Name]
		if ok && isTokenKind(target.Kind) {
			edges.Add(t.Symbol.Name)
		}
	case ast.KindGroup:
		for _, alt := range t.Alts {
			for _, sub := range alt {
				collectTokenEdges(g, sub, isTokenKind, edges)
			}
		}
	case ast.KindQuantified:
		collectTokenEdges(g, *t.Sub, isTokenKind, edges)
	}
}

// Nonterminals returns the lhs symbols whose definition kind is Plain —
// the symbols retained as nonterminals in the BNF output (§4.D). Order
// matches definition order.
func (g *Grammar) Nonterminals() []ast.Symbol {
	set := linkedhashset.New()
	var out []ast.Symbol
	for _, d := range g.Definitions {
		if d.Kind == ast.Plain && !set.Contains(d.LHS.Name) {
			set.Add(d.LHS.Name)
			out = append(out, d.LHS)
		}
	}
	return out
}

// IsNonterminal reports whether name names a Plain-kind rule.
func (g *Grammar) IsNonterminal(name string) bool {
	d, ok := g.byLHS[name]
	return ok && d.Kind == ast.Plain
}

// Literals returns every literal string syntactically appearing anywhere
// in any rule (including one-of bodies, which are literals already by
// construction), in first-occurrence order.
func (g *Grammar) Literals() []string {
	set := linkedhashset.New()
	for _, d := range g.Definitions {
		for _, alt := range d.Alternatives {
			for _, t := range alt {
				collectLiterals(t, set)
			}
		}
	}
	out := make([]string, 0, set.Size())
	for _, v := range set.Values() {
		out = append(out, v.(string))
	}
	return out
}

func collectLiterals(t ast.Term, set *linkedhashset.Set) {
	switch t.Kind {
	case ast.KindLiteral:
		set.Add(t.Text)
	case ast.KindGroup:
		for _, alt := range t.Alts {
			for _, sub := range alt {
				collectLiterals(sub, set)
			}
		}
	case ast.KindQuantified:
		collectLiterals(*t.Sub, set)
	}
}

// Regexps computes, per §4.F, the equivalent regular expression for every
// Token/OneOf/Regexp-kind definition. The acyclicity invariant enforced
// by Build/checkNoRecursiveTokens guarantees termination of the inline
// expansion performed here.
func (g *Grammar) Regexps() (map[string]string, error) {
	memo := make(map[string]string, len(g.Definitions))
	for _, d := range g.Definitions {
		if d.Kind == ast.Plain {
			continue
		}
		if _, err := g.regexpFor(d, memo); err != nil {
			return nil, err
		}
	}
	return memo, nil
}

func (g *Grammar) regexpFor(d ast.Definition, memo map[string]string) (string, error) {
	if p, ok := memo[d.LHS.Name]; ok {
		return p, nil
	}
	var pattern string
	switch d.Kind {
	case ast.Regexp:
		pattern = d.Alternatives[0][0].Text
	case ast.OneOf:
		parts := make([]string, len(d.Alternatives))
		for i, alt := range d.Alternatives {
			parts[i] = regexp.QuoteMeta(alt[0].Text)
		}
		pattern = "(?:" + strings.Join(parts, "|") + ")"
	case ast.Token:
		parts := make([]string, len(d.Alternatives))
		for i, alt := range d.Alternatives {
			pieces := make([]string, len(alt))
			for j, t := range alt {
				piece, err := g.encodeTokenTerm(t, memo)
				if err != nil {
					return "", err
				}
				pieces[j] = piece
			}
			parts[i] = strings.Join(pieces, "")
		}
		pattern = "(?:" + strings.Join(parts, "|") + ")"
	default:
		return "", fmt.Errorf("grammar: %q is not a token, one-of, or regexp rule", d.LHS.Name)
	}
	memo[d.LHS.Name] = pattern
	return pattern, nil
}

func (g *Grammar) encodeTokenTerm(t ast.Term, memo map[string]string) (string, error) {
	switch t.Kind {
	case ast.KindLiteral:
		return regexp.QuoteMeta(t.Text), nil
	case ast.KindRegexp:
		return "(?:" + t.Text + ")", nil
	case ast.KindSym:
		target, ok := g.byLHS[t.Symbol.Name]
		if !ok || target.Kind == ast.Plain {
			return "", fmt.Errorf("grammar: %q cannot appear inside a token rule: it is not a token, one-of, or regexp rule", t.Symbol.Name)
		}
		inlined, err := g.regexpFor(target, memo)
		if err != nil {
			return "", err
		}
		if target.Kind == ast.Regexp {
			// regexpFor returns a Regexp rule's pattern raw, so it needs
			// grouping here; OneOf/Token rules already come back wrapped
			// in their own "(?:...)" alternation.
			return "(?:" + inlined + ")", nil
		}
		return inlined, nil
	case ast.KindGroup:
		parts := make([]string, len(t.Alts))
		for i, alt := range t.Alts {
			pieces := make([]string, len(alt))
			for j, sub := range alt {
				piece, err := g.encodeTokenTerm(sub, memo)
				if err != nil {
					return "", err
				}
				pieces[j] = piece
			}
			parts[i] = strings.Join(pieces, "")
		}
		return "(?:" + strings.Join(parts, "|") + ")", nil
	case ast.KindQuantified:
		inner, err := g.encodeTokenTerm(*t.Sub, memo)
		if err != nil {
			return "", err
		}
		return "(?:" + inner + ")" + string(t.Quant), nil
	}
	return "", fmt.Errorf("grammar: unsupported term kind %v inside a token rule", t.Kind)
}
