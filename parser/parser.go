// Package parser implements the EBNF parser (§4.C of the
// grammar-toolchain specification): a recursive-descent reduction of the
// lexer's flat token stream into an ast.DefinitionList.
//
// Grounded on the teacher's separation of construction from analysis
// (gorgo/lr: a grammar builder constructs, a separate LRAnalysis object
// analyses) — here the parser only builds the AST; all well-formedness
// analysis lives in package grammar.
package parser

import (
	"github.com/dabrahams/hylo-spec-parser/ast"
	"github.com/dabrahams/hylo-spec-parser/diag"
	"github.com/dabrahams/hylo-spec-parser/lexer"
	"github.com/dabrahams/hylo-spec-parser/source"
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'hylogram.parser'.
func tracer() tracing.Trace {
	return tracing.Select("hylogram.parser")
}

// SyntaxError is returned by Parse on the first unrecoverable syntax
// error. Per §4.C, "the parser yields no partial AST on failure".
type SyntaxError struct {
	Err diag.Error
}

func (e *SyntaxError) Error() string { return e.Err.String() }

// Parse reduces tokens (as produced by lexer.Lex) into a DefinitionList.
// On a syntax error, it returns (nil, *SyntaxError) rather than a partial
// tree.
func Parse(tokens []lexer.Token) (ast.DefinitionList, error) {
	p := &parser{tokens: tokens}
	defs, err := p.parseRuleList()
	if err != nil {
		return nil, err
	}
	tracer().Infof("parsed %d rule(s)", len(defs))
	return defs, nil
}

type parser struct {
	tokens []lexer.Token
	pos    int
}

func (p *parser) peek() lexer.Token {
	if p.pos >= len(p.tokens) {
		return lexer.Token{Kind: -1, Lexeme: ""}
	}
	return p.tokens[p.pos]
}

func (p *parser) at(k lexer.Kind) bool { return p.pos < len(p.tokens) && p.tokens[p.pos].Kind == k }

func (p *parser) atEnd() bool { return p.pos >= len(p.tokens) }

func (p *parser) advance() lexer.Token {
	t := p.peek()
	p.pos++
	return t
}

func (p *parser) expect(k lexer.Kind, expectedNames ...string) (lexer.Token, error) {
	if !p.at(k) {
		return lexer.Token{}, p.syntaxError(expectedNames)
	}
	return p.advance(), nil
}

func (p *parser) syntaxError(expected []string) error {
	at := source.NoneRange
	if !p.atEnd() {
		at = p.peek().Range
	}
	return &SyntaxError{Err: diag.NewSyntax(at, expected)}
}

// rule_list ::= ε | rule_list rule
func (p *parser) parseRuleList() (ast.DefinitionList, error) {
	var defs ast.DefinitionList
	for p.skipIllegal(); !p.atEnd(); p.skipIllegal() {
		def, err := p.parseRule()
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// skipIllegal drops ILLEGAL_CHARACTER tokens the lexer emitted but left
// for the parser to react to. It runs only where a rule header is
// expected, so such tokens are ignored before the first rule and after a
// one-of or regexp body; inside a plain or token rule body they are not
// skipped and the parse fails with a syntax error (the lexer already
// recorded them as tokens; a full
// implementation could promote them to diag.IllegalCharacter errors via
// a caller-supplied log, which the pipeline-level Run does — see
// hylogram.Run).
func (p *parser) skipIllegal() {
	for p.at(lexer.ILLEGAL_CHARACTER) {
		p.advance()
	}
}

// rule ::= LHS IS_DEFINED_AS kind rhs_list
//        | LHS IS_DEFINED_AS ONE_OF_KIND one_of_list
func (p *parser) parseRule() (ast.Definition, error) {
	lhsTok, err := p.expect(lexer.LHS, "a rule header")
	if err != nil {
		return ast.Definition{}, err
	}
	if _, err := p.expect(lexer.IS_DEFINED_AS, "::="); err != nil {
		return ast.Definition{}, err
	}
	lhs := ast.NewSymbol(lhsTok.Lexeme, lhsTok.Range)
	start := lhsTok.Range

	kind := ast.Plain
	switch {
	case p.at(lexer.ONE_OF_KIND):
		p.advance()
		kind = ast.OneOf
	case p.at(lexer.TOKEN_KIND):
		p.advance()
		kind = ast.Token
	case p.at(lexer.REGEXP_KIND):
		p.advance()
		kind = ast.Regexp
	}

	var alts ast.AlternativeList
	if kind == ast.OneOf {
		alts, err = p.parseOneOfList()
	} else if kind == ast.Regexp {
		alts, err = p.parseRegexpRHSList()
	} else {
		alts, err = p.parseRHSList()
	}
	if err != nil {
		return ast.Definition{}, err
	}

	r := start.Union(alts.Range())
	return ast.Definition{Kind: kind, LHS: lhs, Alternatives: alts, SourceRng: r}, nil
}

// one_of_list ::= LITERAL | one_of_list LITERAL
// Parsed as a single alternative-list containing a single alternative
// per literal, so that one-of rules compose naturally with the rest of
// the AST (each literal is represented as a Literal term).
func (p *parser) parseOneOfList() (ast.AlternativeList, error) {
	var alts ast.AlternativeList
	for p.at(lexer.LITERAL) {
		tok := p.advance()
		alts = append(alts, ast.Alternative{ast.LiteralTerm(tok.Lexeme, tok.Range)})
	}
	if len(alts) == 0 {
		return nil, p.syntaxError([]string{"a literal"})
	}
	return alts, nil
}

// A REGEXP rhs-line yields an alternative containing a single
// Regexp(text, pos) term; a regexp rule's body is one or more such lines.
func (p *parser) parseRegexpRHSList() (ast.AlternativeList, error) {
	var alts ast.AlternativeList
	for p.at(lexer.REGEXP) {
		tok := p.advance()
		alts = append(alts, ast.Alternative{ast.RegexpTerm(tok.Lexeme, tok.Range)})
	}
	if len(alts) == 0 {
		return nil, p.syntaxError([]string{"a regular expression"})
	}
	return alts, nil
}

// rhs_list  ::= rhs_line | rhs_list rhs_line
// rhs_line  ::= alt_list EOL
//
// A rhs_line with a single alternative yields that alternative; with
// multiple, it yields a single-element alternative containing a Group
// over the lot, preserving the source grouping even though alt_list has
// internal ORs.
func (p *parser) parseRHSList() (ast.AlternativeList, error) {
	var alts ast.AlternativeList
	for !p.atEnd() && !p.at(lexer.LHS) {
		line, err := p.parseRHSLine()
		if err != nil {
			return nil, err
		}
		alts = append(alts, line)
	}
	if len(alts) == 0 {
		return nil, p.syntaxError([]string{"a production"})
	}
	return alts, nil
}

func (p *parser) parseRHSLine() (ast.Alternative, error) {
	altList, err := p.parseAltList()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.EOL, "end of line"); err != nil {
		return nil, err
	}
	if len(altList) == 1 {
		return altList[0], nil
	}
	return ast.Alternative{ast.GroupTerm(altList, altList.Range())}, nil
}

// alt_list ::= alt | alt_list OR alt — left-associative, lowest precedence.
func (p *parser) parseAltList() (ast.AlternativeList, error) {
	first, err := p.parseAlt()
	if err != nil {
		return nil, err
	}
	alts := ast.AlternativeList{first}
	for p.at(lexer.OR) {
		p.advance()
		next, err := p.parseAlt()
		if err != nil {
			return nil, err
		}
		alts = append(alts, next)
	}
	return alts, nil
}

// alt ::= ε | term_list
func (p *parser) parseAlt() (ast.Alternative, error) {
	var terms ast.Alternative
	for p.startsTerm() {
		term, err := p.parseQuantifiedTerm()
		if err != nil {
			return nil, err
		}
		terms = append(terms, term)
	}
	return terms, nil
}

func (p *parser) startsTerm() bool {
	switch p.peek().Kind {
	case lexer.LPAREN, lexer.SYMBOL_NAME, lexer.QUOTED_LITERAL:
		return true
	default:
		return false
	}
}

// term ::= LPAREN alt_list RPAREN
//        | SYMBOL_NAME
//        | QUOTED_LITERAL
//        | term (STAR | PLUS | QUESTION)
//
// Quantifiers are left-associative and bind tighter than OR.
func (p *parser) parseQuantifiedTerm() (ast.Term, error) {
	term, err := p.parseTerm()
	if err != nil {
		return ast.Term{}, err
	}
	for {
		var q ast.Quantifier
		switch p.peek().Kind {
		case lexer.STAR:
			q = ast.Star
		case lexer.PLUS:
			q = ast.Plus
		case lexer.QUESTION:
			q = ast.Optional
		default:
			return term, nil
		}
		tok := p.advance()
		term = ast.QuantifiedTerm(term, q, term.Range().Union(tok.Range))
	}
}

func (p *parser) parseTerm() (ast.Term, error) {
	switch p.peek().Kind {
	case lexer.LPAREN:
		open := p.advance()
		alts, err := p.parseAltList()
		if err != nil {
			return ast.Term{}, err
		}
		close, err := p.expect(lexer.RPAREN, ")")
		if err != nil {
			return ast.Term{}, err
		}
		return ast.GroupTerm(alts, open.Range.Union(close.Range)), nil
	case lexer.SYMBOL_NAME:
		tok := p.advance()
		return ast.SymTerm(ast.NewSymbol(tok.Lexeme, tok.Range), tok.Range), nil
	case lexer.QUOTED_LITERAL:
		tok := p.advance()
		return ast.LiteralTerm(unquote(tok.Lexeme), tok.Range), nil
	default:
		return ast.Term{}, p.syntaxError([]string{"(", "a symbol name", "a quoted literal"})
	}
}

// unquote strips a QUOTED_LITERAL's leading/trailing quote and removes
// every backslash (no other escapes are interpreted), per §4.C.
func unquote(lexeme string) string {
	if len(lexeme) < 2 {
		return lexeme
	}
	inner := lexeme[1 : len(lexeme)-1]
	out := make([]byte, 0, len(inner))
	for i := 0; i < len(inner); i++ {
		if inner[i] == '\\' {
			continue
		}
		out = append(out, inner[i])
	}
	return string(out)
}
