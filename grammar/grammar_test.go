package grammar

import (
	"strings"
	"testing"

	"github.com/dabrahams/hylo-spec-parser/lexer"
	"github.com/dabrahams/hylo-spec-parser/parser"
	"github.com/dabrahams/hylo-spec-parser/source"
)

func build(t *testing.T, text, start string) *Grammar {
	t.Helper()
	f := source.New("t.ebnf", text, 1)
	defs, err := parser.Parse(lexer.Lex(f))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	g, err := Build(defs, start)
	if err != nil {
		t.Fatalf("build error: %v", err)
	}
	return g
}

func buildExpectError(t *testing.T, text, start string) error {
	t.Helper()
	f := source.New("t.ebnf", text, 1)
	defs, err := parser.Parse(lexer.Lex(f))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	_, err = Build(defs, start)
	if err == nil {
		t.Fatalf("expected a validation error")
	}
	return err
}

func TestSimpleLiteralGrammar(t *testing.T) {
	g := build(t, "start ::=\n  'a'\n", "start")
	nts := g.Nonterminals()
	if len(nts) != 1 || nts[0].Name != "start" {
		t.Fatalf("unexpected nonterminals: %v", nts)
	}
	lits := g.Literals()
	if len(lits) != 1 || lits[0] != "a" {
		t.Fatalf("unexpected literals: %v", lits)
	}
}

func TestUndefinedSymbol(t *testing.T) {
	err := buildExpectError(t, "start ::=\n  missing\n", "start")
	if !strings.Contains(err.Error(), "missing") {
		t.Fatalf("expected error to mention the undefined symbol, got: %v", err)
	}
}

func TestDuplicateDefinition(t *testing.T) {
	err := buildExpectError(t, "start ::=\n  'a'\nstart ::=\n  'b'\n", "start")
	ve := err.(*ValidationError)
	found := false
	for _, e := range ve.Log.Errors() {
		if e.Kind.String() == "duplicate definition" {
			found = true
			if len(e.Notes) != 1 {
				t.Fatalf("expected exactly one note on duplicate definition, got %d", len(e.Notes))
			}
		}
	}
	if !found {
		t.Fatalf("expected a duplicate-definition error, got: %v", ve.Log.Errors())
	}
}

func TestUnreachableSymbol(t *testing.T) {
	err := buildExpectError(t, "start ::=\n  'a'\nother ::=\n  'b'\n", "start")
	if !strings.Contains(err.Error(), "other") {
		t.Fatalf("expected error to mention the unreachable symbol, got: %v", err)
	}
}

func TestRecursiveTokenRule(t *testing.T) {
	text := "start ::=\n  a\na ::= (token)\n  b\nb ::= (token)\n  a\n"
	err := buildExpectError(t, text, "start")
	if !strings.Contains(err.Error(), "token rule") {
		t.Fatalf("expected a recursive-token-rule error, got: %v", err)
	}
}

func TestRegexpReferencedOutsideTokenRuleIsRejected(t *testing.T) {
	text := "start ::=\n  ws\nws ::= (regexp)\n  [ \\t]+\n"
	err := buildExpectError(t, text, "start")
	if !strings.Contains(err.Error(), "ws") {
		t.Fatalf("expected error referencing the misused regexp symbol, got: %v", err)
	}
}

func TestRegexpReferencedInsideTokenRuleIsAccepted(t *testing.T) {
	text := "start ::=\n  a\na ::= (token)\n  'x' ws\nws ::= (regexp)\n  [ \\t]+\n"
	g := build(t, text, "start")
	patterns, err := g.Regexps()
	if err != nil {
		t.Fatalf("unexpected regexp error: %v", err)
	}
	if patterns["a"] != `(?:x(?:[ \t]+))` {
		t.Fatalf("unexpected pattern for a: %q", patterns["a"])
	}
}

func TestOneOfAndTokenRegexpSynthesis(t *testing.T) {
	text := "start ::=\n  a\n" +
		"a ::= (token)\n  'x' b\n" +
		"b ::= (one of)\n  y z\n"
	g := build(t, text, "start")
	patterns, err := g.Regexps()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if patterns["b"] != "(?:y|z)" {
		t.Fatalf("unexpected pattern for b: %q", patterns["b"])
	}
	if patterns["a"] != "(?:x(?:y|z))" {
		t.Fatalf("unexpected pattern for a: %q", patterns["a"])
	}
}

func TestGrammarNonterminalsAreOnlyPlainRules(t *testing.T) {
	text := "start ::=\n  a\na ::= (token)\n  'x'\n"
	g := build(t, text, "start")
	nts := g.Nonterminals()
	if len(nts) != 1 || nts[0].Name != "start" {
		t.Fatalf("expected only 'start' to be a nonterminal, got %v", nts)
	}
	if g.IsNonterminal("a") {
		t.Fatalf("token rule 'a' should not be a nonterminal")
	}
}
