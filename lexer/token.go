package lexer

import (
	"fmt"

	"github.com/dabrahams/hylo-spec-parser/source"
)

// Kind categorizes a Token. The alphabet is fixed by the grammar dialect's
// surface syntax; see the package doc for the per-mode recognizer tables.
type Kind int

const (
	LHS Kind = iota
	IS_DEFINED_AS
	EOL
	OR
	STAR
	PLUS
	QUESTION
	LPAREN
	RPAREN
	SYMBOL_NAME
	QUOTED_LITERAL
	LITERAL
	REGEXP
	ONE_OF_KIND
	TOKEN_KIND
	REGEXP_KIND
	ILLEGAL_CHARACTER
)

var kindNames = [...]string{
	"LHS", "IS_DEFINED_AS", "EOL", "OR", "STAR", "PLUS", "QUESTION",
	"LPAREN", "RPAREN", "SYMBOL_NAME", "QUOTED_LITERAL", "LITERAL",
	"REGEXP", "ONE_OF_KIND", "TOKEN_KIND", "REGEXP_KIND", "ILLEGAL_CHARACTER",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Token is a single lexeme produced by the lexer, tagged with its kind and
// source range. The range is provenance only: two tokens are Equal iff
// their Kind and Lexeme match, regardless of where they came from.
type Token struct {
	Kind   Kind
	Lexeme string
	Range  source.Range
}

// Equal compares tokens ignoring their source range, per §3 of the
// grammar-toolchain specification ("explicitly excluded from equality and
// hashing of tokens").
func (t Token) Equal(other Token) bool {
	return t.Kind == other.Kind && t.Lexeme == other.Lexeme
}

func (t Token) String() string {
	return fmt.Sprintf("%s %q", t.Kind, t.Lexeme)
}
