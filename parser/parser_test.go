package parser

import (
	"testing"

	"github.com/dabrahams/hylo-spec-parser/ast"
	"github.com/dabrahams/hylo-spec-parser/lexer"
	"github.com/dabrahams/hylo-spec-parser/source"
)

func parse(t *testing.T, text string) ast.DefinitionList {
	t.Helper()
	f := source.New("t.ebnf", text, 1)
	toks := lexer.Lex(f)
	defs, err := Parse(toks)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	return defs
}

func TestSingleLiteralRule(t *testing.T) {
	defs := parse(t, "start ::=\n  'a'\n")
	if len(defs) != 1 {
		t.Fatalf("expected 1 definition, got %d", len(defs))
	}
	d := defs[0]
	if d.LHS.Name != "start" || d.Kind != ast.Plain {
		t.Fatalf("unexpected definition: %+v", d)
	}
	if len(d.Alternatives) != 1 || len(d.Alternatives[0]) != 1 {
		t.Fatalf("unexpected alternatives: %+v", d.Alternatives)
	}
	term := d.Alternatives[0][0]
	if term.Kind != ast.KindLiteral || term.Text != "a" {
		t.Fatalf("unexpected term: %+v", term)
	}
}

func TestGroupingOfParenthesizedAlternationWithinOneRHSLine(t *testing.T) {
	defs := parse(t, "start ::=\n  'b'* ('c' | 'd')\n")
	d := defs[0]
	if len(d.Alternatives) != 1 || len(d.Alternatives[0]) != 2 {
		t.Fatalf("unexpected alternatives: %+v", d.Alternatives)
	}
	quant := d.Alternatives[0][0]
	if quant.Kind != ast.KindQuantified || quant.Quant != ast.Star {
		t.Fatalf("unexpected first term: %+v", quant)
	}
	group := d.Alternatives[0][1]
	if group.Kind != ast.KindGroup || len(group.Alts) != 2 {
		t.Fatalf("unexpected group term: %+v", group)
	}
}

func TestMultipleAlternativesOnOneLineBecomeAGroup(t *testing.T) {
	// "start ::= 'c' | 'd'" on a single rhs_line with multiple alternatives is
	// wrapped in a Group, preserving source grouping.
	defs := parse(t, "start ::=\n  'c' | 'd'\n")
	d := defs[0]
	if len(d.Alternatives) != 1 || len(d.Alternatives[0]) != 1 {
		t.Fatalf("unexpected alternatives: %+v", d.Alternatives)
	}
	term := d.Alternatives[0][0]
	if term.Kind != ast.KindGroup || len(term.Alts) != 2 {
		t.Fatalf("expected a 2-alternative group, got %+v", term)
	}
}

func TestOneOfRule(t *testing.T) {
	defs := parse(t, "digits ::= (one of)\n  0 1 2\n")
	d := defs[0]
	if d.Kind != ast.OneOf || len(d.Alternatives) != 3 {
		t.Fatalf("unexpected one-of definition: %+v", d)
	}
}

func TestTokenRule(t *testing.T) {
	defs := parse(t, "num ::= (token)\n  digit+\n")
	d := defs[0]
	if d.Kind != ast.Token {
		t.Fatalf("expected token rule kind, got %v", d.Kind)
	}
}

func TestRegexpRule(t *testing.T) {
	defs := parse(t, "ws ::= (regexp)\n  [ \\t]+\n")
	d := defs[0]
	if d.Kind != ast.Regexp || len(d.Alternatives) != 1 {
		t.Fatalf("unexpected regexp definition: %+v", d)
	}
	term := d.Alternatives[0][0]
	if term.Kind != ast.KindRegexp || term.Text != `[ \t]+` {
		t.Fatalf("unexpected regexp term: %+v", term)
	}
}

func TestSyntaxErrorNoPartialAST(t *testing.T) {
	f := source.New("t.ebnf", "start ::=\n  (\n", 1)
	toks := lexer.Lex(f)
	defs, err := Parse(toks)
	if err == nil {
		t.Fatalf("expected a syntax error")
	}
	if defs != nil {
		t.Fatalf("expected no partial AST on failure, got %+v", defs)
	}
}

func TestQuotedLiteralUnescaping(t *testing.T) {
	defs := parse(t, "start ::=\n  'it\\'s'\n")
	term := defs[0].Alternatives[0][0]
	if term.Text != "it's" {
		t.Fatalf("expected unescaped literal %q, got %q", "it's", term.Text)
	}
}

func TestMultipleRulesPreserveSourceOrder(t *testing.T) {
	defs := parse(t, "a ::=\n  'x'\nb ::=\n  'y'\n")
	if len(defs) != 2 || defs[0].LHS.Name != "a" || defs[1].LHS.Name != "b" {
		t.Fatalf("unexpected definitions: %+v", defs)
	}
}
