// Package scanner derives the scanner description of §4.F from a
// validated grammar.Grammar, without running the lowering: the literal
// set, one named regular expression per Token/OneOf/Regexp definition,
// and a synthetic terminal for input that matches neither.
//
// Distinct from package lexer, which scans the EBNF dialect's own
// source text; this package only ever produces a data description of
// how an *object*-language scanner for the grammar under analysis
// should behave — it never runs a regex engine itself.
//
// Grounded on the teacher's Tokenizer/token-kind-constant idiom
// (gorgo/lr/scanner/scanner.go), generalized from a single hard-coded
// tokenizer to a data structure describing an arbitrary one.
package scanner

import (
	"fmt"

	"github.com/dabrahams/hylo-spec-parser/ast"
	"github.com/dabrahams/hylo-spec-parser/grammar"
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'hylogram.scanner'.
func tracer() tracing.Trace {
	return tracing.Select("hylogram.scanner")
}

// UnrecognizedCharacter is the display name of the synthetic terminal
// reserved for input that matches no literal and no named pattern
// (§4.F).
const UnrecognizedCharacter = "UNRECOGNIZED_CHARACTER"

// Pattern is one named regular expression, derived from a
// Token/OneOf/Regexp-kind definition (§4.F).
type Pattern struct {
	Name    string
	Pattern string
}

// Description is the scanner description of §4.F: an ordered
// alternation over Literals then Patterns, longest-match with literals
// taking precedence over patterns on equal length, falling back to
// Unrecognized on no match (and advancing by one codepoint).
type Description struct {
	Literals     []string
	Patterns     []Pattern
	Unrecognized string
}

// Describe builds the scanner description for g. g must already be a
// validated grammar.Grammar (grammar.Build's postcondition); Describe
// performs no validation of its own.
func Describe(g *grammar.Grammar) (*Description, error) {
	regexps, err := g.Regexps()
	if err != nil {
		return nil, fmt.Errorf("scanner: %w", err)
	}

	var patterns []Pattern
	g.EachDefinition(func(d ast.Definition) {
		if d.Kind == ast.Plain {
			return
		}
		patterns = append(patterns, Pattern{Name: d.LHS.Name, Pattern: regexps[d.LHS.Name]})
	})

	desc := &Description{
		Literals:     g.Literals(),
		Patterns:     patterns,
		Unrecognized: UnrecognizedCharacter,
	}
	tracer().Infof("scanner description: %d literal(s), %d pattern(s)", len(desc.Literals), len(desc.Patterns))
	return desc, nil
}
