package lowering

import (
	"strings"
	"testing"

	"github.com/dabrahams/hylo-spec-parser/grammar"
	"github.com/dabrahams/hylo-spec-parser/lexer"
	"github.com/dabrahams/hylo-spec-parser/parser"
	"github.com/dabrahams/hylo-spec-parser/source"
)

func buildGrammar(t *testing.T, text, start string) *grammar.Grammar {
	t.Helper()
	f := source.New("t.ebnf", text, 1)
	defs, err := parser.Parse(lexer.Lex(f))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	g, err := grammar.Build(defs, start)
	if err != nil {
		t.Fatalf("build error: %v", err)
	}
	return g
}

func lower(t *testing.T, text, start string) *BNF {
	t.Helper()
	g := buildGrammar(t, text, start)
	b := NewBNFBuilder()
	if err := EBNFToBNF(g, b); err != nil {
		t.Fatalf("lowering error: %v", err)
	}
	return b.Result()
}

func mustContain(t *testing.T, set []string, want string) {
	t.Helper()
	for _, s := range set {
		if s == want {
			return
		}
	}
	t.Fatalf("expected rule set to contain %q, got %v", want, set)
}

// Scenario 1: start ::= 'a' → exactly one rule start -> 'a'.
func TestScenario1SingleLiteral(t *testing.T) {
	bnf := lower(t, "start ::=\n  'a'\n", "start")
	rules := bnf.RuleSet()
	if len(rules) != 1 {
		t.Fatalf("expected exactly 1 rule, got %v", rules)
	}
	mustContain(t, rules, "start -> 'a'")
}

// Scenario 2: start ::= 'a'* → { start -> Q, Q -> ε, Q -> Q 'a' }.
func TestScenario2Star(t *testing.T) {
	bnf := lower(t, "start ::=\n  'a'*\n", "start")
	rules := bnf.RuleSet()
	if len(rules) != 3 {
		t.Fatalf("expected exactly 3 rules, got %v", rules)
	}
	var q string
	for _, r := range rules {
		if strings.HasPrefix(r, "start -> ") {
			q = strings.TrimPrefix(r, "start -> ")
		}
	}
	if q == "" {
		t.Fatalf("expected a start -> Q rule, got %v", rules)
	}
	mustContain(t, rules, q+" -> ε")
	mustContain(t, rules, q+" -> "+q+" 'a'")
}

// Scenario 3: start ::= 'a'+ → { start -> Q, Q -> 'a', Q -> Q 'a' }.
func TestScenario3Plus(t *testing.T) {
	bnf := lower(t, "start ::=\n  'a'+\n", "start")
	rules := bnf.RuleSet()
	if len(rules) != 3 {
		t.Fatalf("expected exactly 3 rules, got %v", rules)
	}
	var q string
	for _, r := range rules {
		if strings.HasPrefix(r, "start -> ") {
			q = strings.TrimPrefix(r, "start -> ")
		}
	}
	mustContain(t, rules, q+" -> 'a'")
	mustContain(t, rules, q+" -> "+q+" 'a'")
}

// Scenario 4: start ::= 'a'? → { start -> Q, Q -> ε, Q -> 'a' }.
func TestScenario4Optional(t *testing.T) {
	bnf := lower(t, "start ::=\n  'a'?\n", "start")
	rules := bnf.RuleSet()
	if len(rules) != 3 {
		t.Fatalf("expected exactly 3 rules, got %v", rules)
	}
	var q string
	for _, r := range rules {
		if strings.HasPrefix(r, "start -> ") {
			q = strings.TrimPrefix(r, "start -> ")
		}
	}
	mustContain(t, rules, q+" -> ε")
	mustContain(t, rules, q+" -> 'a'")
}

// Scenario 5: start ::= 'b'* ('c' | 'd') → five rules:
// start -> Q1 Q2, Q1 -> ε, Q1 -> Q1 'b', Q2 -> 'c', Q2 -> 'd'.
func TestScenario5StarThenGroup(t *testing.T) {
	bnf := lower(t, "start ::=\n  'b'* ('c' | 'd')\n", "start")
	rules := bnf.RuleSet()
	if len(rules) != 5 {
		t.Fatalf("expected exactly 5 rules, got %v", rules)
	}
	// Q1 and Q2 are read off the start rule itself: generated names such
	// as `('c' | 'd')` contain spaces, so the rendered rule cannot be split
	// on whitespace.
	var q1, q2 string
	for _, r := range bnf.Rules {
		if r.LHS == bnf.Start {
			if len(r.RHS) != 2 {
				t.Fatalf("expected start -> Q1 Q2, got %v", rules)
			}
			q1, q2 = bnf.Symbols[r.RHS[0]].Name, bnf.Symbols[r.RHS[1]].Name
		}
	}
	if q1 == "" || q2 == "" {
		t.Fatalf("expected a start -> Q1 Q2 rule, got %v", rules)
	}
	mustContain(t, rules, q1+" -> ε")
	mustContain(t, rules, q1+" -> "+q1+" 'b'")
	mustContain(t, rules, q2+" -> 'c'")
	mustContain(t, rules, q2+" -> 'd'")
}

// Scenario 6: start references a token rule (a terminal leaf, no rules
// of its own) and a one-of rule (also a terminal leaf), both in its
// single alternative.
func TestScenario6TokenAndOneOfAreTerminalLeaves(t *testing.T) {
	src := "start ::=\n  a b\n" +
		"a ::= (token)\n  'x' b\n" +
		"b ::= (one of)\n  y z\n"
	bnf := lower(t, src, "start")
	rules := bnf.RuleSet()
	if len(rules) != 1 {
		t.Fatalf("expected exactly 1 rule for start (a and b are terminal leaves), got %v", rules)
	}
	if rules[0] != "start -> a b" {
		t.Fatalf("expected start -> a b, got %q", rules[0])
	}

	g := buildGrammar(t, src, "start")
	patterns, err := g.Regexps()
	if err != nil {
		t.Fatalf("unexpected regexp error: %v", err)
	}
	if patterns["a"] != "(?:x(?:y|z))" {
		t.Fatalf("unexpected pattern for a: %q", patterns["a"])
	}
	lits := g.Literals()
	if len(lits) != 3 {
		t.Fatalf("unexpected literals: %v", lits)
	}
}

// Memoization (§8): two occurrences of the same EBNF sub-term collapse
// onto one output symbol.
func TestMemoizationCollapsesIdenticalSubterms(t *testing.T) {
	bnf := lower(t, "start ::=\n  'a'* 'a'*\n", "start")
	rules := bnf.RuleSet()
	// start -> Q Q, Q -> ε, Q -> Q 'a': a single Q stands for both
	// occurrences of 'a'*, so lowering the duplicated term yields 3
	// rules, not 5.
	if len(rules) != 3 {
		t.Fatalf("expected memoization to collapse to 3 rules, got %v", rules)
	}
	mustContain(t, rules, "start -> `'a'*` `'a'*`")
}

func TestRecursiveNonterminalDoesNotInfiniteLoop(t *testing.T) {
	text := "start ::=\n  start 'a'\n  'a'\n"
	bnf := lower(t, text, "start")
	rules := bnf.RuleSet()
	mustContain(t, rules, "start -> start 'a'")
	mustContain(t, rules, "start -> 'a'")
}

func TestDeterministicBNFString(t *testing.T) {
	bnf1 := lower(t, "start ::=\n  'a'*\n", "start")
	bnf2 := lower(t, "start ::=\n  'a'*\n", "start")
	if bnf1.String() != bnf2.String() {
		t.Fatalf("expected byte-identical output on byte-identical input:\n%s\n---\n%s", bnf1.String(), bnf2.String())
	}
}
