package hylogram

import (
	"testing"

	"github.com/dabrahams/hylo-spec-parser/diag"
)

func TestRunSucceedsOnWellFormedGrammar(t *testing.T) {
	r := Run("t.ebnf", "start ::=\n  'a'*\n", "start")
	if !r.Success() {
		t.Fatalf("expected success, got errors: %v", r.Errors.Report())
	}
	if r.Grammar == nil || r.BNF == nil || r.Scanner == nil {
		t.Fatalf("expected every stage to have run: %+v", r)
	}
	rules := r.BNF.RuleSet()
	if len(rules) != 3 {
		t.Fatalf("unexpected BNF rule set: %v", rules)
	}
}

func TestRunReportsUndefinedSymbol(t *testing.T) {
	r := Run("t.ebnf", "start ::=\n  missing\n", "start")
	if r.Success() {
		t.Fatalf("expected failure")
	}
	if r.Grammar != nil {
		t.Fatalf("expected no grammar on a validation failure")
	}
	if len(r.Errors.Errors()) != 1 {
		t.Fatalf("expected exactly one error, got %v", r.Errors.Errors())
	}
}

func TestRunReportsSyntaxError(t *testing.T) {
	r := Run("t.ebnf", "start ::=\n  (\n", "start")
	if r.Success() {
		t.Fatalf("expected failure")
	}
	if r.Grammar != nil {
		t.Fatalf("expected no grammar on a syntax failure")
	}
}

func TestRunSurfacesIllegalCharacterAlongsideSuccess(t *testing.T) {
	r := Run("t.ebnf", "#\nstart ::=\n  'a'\n", "start")
	if r.Success() {
		t.Fatalf("expected an illegal character to make the run unsuccessful")
	}
	if r.Grammar == nil || r.BNF == nil || r.Scanner == nil {
		t.Fatalf("expected the pipeline to still run to completion: %+v", r)
	}
	found := false
	for _, e := range r.Errors.Errors() {
		if e.Kind == diag.IllegalCharacter {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected an illegal-character diagnostic, got %v", r.Errors.Errors())
	}
}
