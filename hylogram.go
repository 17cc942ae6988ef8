package hylogram

import (
	"fmt"

	"github.com/dabrahams/hylo-spec-parser/diag"
	"github.com/dabrahams/hylo-spec-parser/grammar"
	"github.com/dabrahams/hylo-spec-parser/lexer"
	"github.com/dabrahams/hylo-spec-parser/lowering"
	"github.com/dabrahams/hylo-spec-parser/parser"
	"github.com/dabrahams/hylo-spec-parser/scanner"
	"github.com/dabrahams/hylo-spec-parser/source"
	"github.com/npillmayer/schuko/gtrace"
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'hylogram', using the global tracer (gtrace)
// rather than a package-scoped one: Run is the one CLI-facing entry
// point that spans every stage, so it reports through whichever sink
// the driving program has installed globally (§ Ambient Stack).
func tracer() tracing.Trace {
	return gtrace.SyntaxTracer
}

// Result is everything a single pipeline run produces: the validated
// grammar (nil on failure), its BNF lowering, its scanner description,
// and any diagnostics accumulated along the way. A non-nil, non-empty
// Errors always means the run is not a Success — but unlike a syntax
// or validation failure (which abort the pipeline and leave every other
// field nil), an illegal character found while lexing can be
// recoverable: where the parser expects a rule header (before the first
// rule, or after a one-of or regexp body) it skips the character and the
// pipeline still runs to completion, so Errors can be non-empty alongside
// a populated Grammar/BNF/Scanner. Anywhere else the illegal character
// also makes the parse fail with a syntax error.
type Result struct {
	Grammar *grammar.Grammar
	BNF     *lowering.BNF
	Scanner *scanner.Description
	Errors  *diag.Log
}

// Run drives the full B→C→D→E→F pipeline over text: lex, parse,
// validate into a Grammar rooted at startSymbol, lower to BNF, and
// derive a scanner description. The pipeline is synchronous and
// single-threaded (§5); nothing in Run blocks on I/O — url only labels
// diagnostics, the caller has already materialized text.
func Run(url, text, startSymbol string) *Result {
	f := source.New(url, text, 1)
	log := &diag.Log{}

	tokens := lexer.Lex(f)
	reportIllegalCharacters(tokens, log)

	defs, err := parser.Parse(tokens)
	if err != nil {
		se := err.(*parser.SyntaxError)
		log.Add(se.Err)
		tracer().Errorf("hylogram: syntax error: %s", se.Err.Message)
		return &Result{Errors: log}
	}

	g, err := grammar.Build(defs, startSymbol)
	if err != nil {
		ve := err.(*grammar.ValidationError)
		for _, e := range ve.Log.Errors() {
			log.Add(e)
		}
		tracer().Errorf("hylogram: grammar invalid: %d error(s)", len(ve.Log.Errors()))
		return &Result{Errors: log}
	}

	builder := lowering.NewBNFBuilder()
	if err := lowering.EBNFToBNF(g, builder); err != nil {
		log.Add(diag.Error{Message: err.Error(), Primary: source.NoneRange})
		return &Result{Grammar: g, Errors: log}
	}

	desc, err := scanner.Describe(g)
	if err != nil {
		log.Add(diag.Error{Message: err.Error(), Primary: source.NoneRange})
		return &Result{Grammar: g, BNF: builder.Result(), Errors: log}
	}

	tracer().Infof("hylogram: pipeline succeeded for %q rooted at %q", url, startSymbol)
	if log.Empty() {
		return &Result{Grammar: g, BNF: builder.Result(), Scanner: desc}
	}
	return &Result{Grammar: g, BNF: builder.Result(), Scanner: desc, Errors: log}
}

// reportIllegalCharacters records and traces every ILLEGAL_CHARACTER
// token the lexer emitted; the parser itself skips them silently where it
// expects a rule header (parser.skipIllegal) and otherwise rejects them as
// a syntax error, so Run is where they become a diagnostic (§7:
// "recorded as a token and ... surfaced").
func reportIllegalCharacters(tokens []lexer.Token, log *diag.Log) {
	for _, t := range tokens {
		if t.Kind == lexer.ILLEGAL_CHARACTER {
			e := diag.NewIllegalCharacter(t.Lexeme, t.Range)
			log.Add(e)
			tracer().Errorf("hylogram: %s", e.String())
		}
	}
}

// Success reports whether r completed every pipeline stage without
// error.
func (r *Result) Success() bool { return r.Errors == nil || r.Errors.Empty() }

func (r *Result) String() string {
	if !r.Success() {
		return r.Errors.Report()
	}
	return fmt.Sprintf("%s\nliterals: %v\npatterns: %d\n", r.BNF.String(), r.Scanner.Literals, len(r.Scanner.Patterns))
}
