// Package lexer implements the context-sensitive tokenizer for the
// grammar-engineering toolchain's EBNF dialect (§4.B of the grammar
// specification). Tokenization mode changes per rule-kind annotation:
// plain and token rules are scanned token-by-token with one EOL per body
// line; one-of rules are scanned as whitespace-separated literal runs
// spanning possibly several lines; regexp rules are scanned one raw
// pattern per line.
//
// Grounded on the teacher's Tokenizer idiom (gorgo/lr/scanner) for the
// package-level tracer and token-stream shape, with the rule-kind mode
// switch itself informed by ava12/llx's own EBNF-flavoured lexer.
package lexer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dabrahams/hylo-spec-parser/source"
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'hylogram.lexer'.
func tracer() tracing.Trace {
	return tracing.Select("hylogram.lexer")
}

// bodyMode is the tokenization mode selected by a rule's kind annotation.
type bodyMode int

const (
	modePlain bodyMode = iota
	modeToken
	modeOneOf
	modeRegexp
)

var singleCharTokens = map[byte]Kind{
	'*': STAR,
	'+': PLUS,
	'|': OR,
	'(': LPAREN,
	')': RPAREN,
	'?': QUESTION,
}

// Lex tokenizes the full text of file and returns the flat token stream.
// The lexer never fails: lexical errors surface as ILLEGAL_CHARACTER
// tokens, one per offending character, and scanning continues.
func Lex(file *source.File) []Token {
	l := &lexer{file: file, text: file.Text()}
	l.run()
	return l.tokens
}

type lexer struct {
	file   *source.File
	text   string
	pos    int
	tokens []Token
}

func (l *lexer) done() bool { return l.pos >= len(l.text) }

func (l *lexer) emit(kind Kind, lexeme string, start int) {
	r := source.Range{File: l.file, Start: start, End: l.pos}
	tok := Token{Kind: kind, Lexeme: lexeme, Range: r}
	tracer().Debugf("lex: %v", tok)
	l.tokens = append(l.tokens, tok)
}

func (l *lexer) run() {
	for !l.done() {
		l.skipBlankLines()
		if l.done() {
			return
		}
		mode, ok := l.lexHeader()
		if !ok {
			continue // no symbol name: one illegal character was consumed; retry at the next one
		}
		switch mode {
		case modeOneOf:
			l.lexOneOfBody()
		case modeRegexp:
			l.lexRegexpBody()
		default:
			l.lexLineBody(mode)
		}
	}
}

// skipBlankLines consumes any run of whitespace-only lines between rules.
func (l *lexer) skipBlankLines() {
	for {
		start := l.pos
		end := l.lineEnd()
		if strings.TrimSpace(l.text[l.pos:end]) != "" {
			return
		}
		l.pos = end
		if l.pos < len(l.text) && l.text[l.pos] == '\n' {
			l.pos++
		}
		if l.pos == start {
			return
		}
	}
}

func (l *lexer) lineEnd() int {
	i := strings.IndexByte(l.text[l.pos:], '\n')
	if i < 0 {
		return len(l.text)
	}
	return l.pos + i
}

// lexHeader consumes "SYMBOL_NAME ::=" optionally followed by a kind
// annotation, emitting LHS, IS_DEFINED_AS and, if present, ONE_OF_KIND /
// TOKEN_KIND / REGEXP_KIND. Anything else up to the newline is reported
// as ILLEGAL_CHARACTER, one token per offending character; the header is
// still considered consumed (ok=true) so that lexing resynchronizes at
// the next line rather than looping forever.
func (l *lexer) lexHeader() (bodyMode, bool) {
	headerStart := l.pos
	name, nameOK := l.tryLexSymbolName()
	if !nameOK {
		l.illegalCharacter()
		return modePlain, false
	}
	l.emit(LHS, name, headerStart)
	l.skipHorizontalSpace()
	if !l.tryConsumeLiteral("::=") {
		l.illegalRestOfLine()
		return modePlain, true
	}
	isStart := l.pos - 3
	l.emit(IS_DEFINED_AS, "::=", isStart)
	l.skipHorizontalSpace()
	mode := modePlain
	if kind, lexeme, ok := l.tryLexKindAnnotation(); ok {
		start := l.pos - len(lexeme)
		l.emit(kind, lexeme, start)
		switch kind {
		case ONE_OF_KIND:
			mode = modeOneOf
		case TOKEN_KIND:
			mode = modeToken
		case REGEXP_KIND:
			mode = modeRegexp
		}
	}
	l.skipHorizontalSpace()
	l.illegalRestOfLine()
	l.consumeNewline()
	return mode, true
}

// illegalRestOfLine emits ILLEGAL_CHARACTER for every non-whitespace byte
// remaining before the next newline (or EOF).
func (l *lexer) illegalRestOfLine() {
	end := l.lineEnd()
	for l.pos < end {
		if isHorizontalSpace(l.text[l.pos]) {
			l.pos++
			continue
		}
		l.illegalCharacter()
	}
}

func (l *lexer) illegalCharacter() {
	start := l.pos
	_, size := utf8.DecodeRuneInString(l.text[l.pos:])
	if size == 0 {
		size = 1
	}
	lexeme := l.text[l.pos : l.pos+size]
	l.pos += size
	l.emit(ILLEGAL_CHARACTER, lexeme, start)
}

func (l *lexer) consumeNewline() {
	if l.pos < len(l.text) && l.text[l.pos] == '\n' {
		l.pos++
	}
}

func (l *lexer) tryConsumeLiteral(lit string) bool {
	if strings.HasPrefix(l.text[l.pos:], lit) {
		l.pos += len(lit)
		return true
	}
	return false
}

var kindAnnotations = []struct {
	lexeme string
	kind   Kind
}{
	{"(one of)", ONE_OF_KIND},
	{"(token)", TOKEN_KIND},
	{"(regexp)", REGEXP_KIND},
}

func (l *lexer) tryLexKindAnnotation() (Kind, string, bool) {
	for _, a := range kindAnnotations {
		if l.tryConsumeLiteral(a.lexeme) {
			return a.kind, a.lexeme, true
		}
	}
	return 0, "", false
}

// --- body lexing -------------------------------------------------------

// lexLineBody handles plain and token rule bodies: one or more indented
// lines, each terminated by an EOL, scanned with the QUOTED_LITERAL /
// SYMBOL_NAME / single-char recognizer cascade.
func (l *lexer) lexLineBody(mode bodyMode) {
	for l.moreBodyLines() {
		l.skipHorizontalSpace()
		lineEnd := l.lineEnd()
		for l.pos < lineEnd {
			l.skipHorizontalSpace()
			if l.pos >= lineEnd {
				break
			}
			l.lexBodyToken()
		}
		eolStart := l.pos
		l.consumeNewline()
		l.emit(EOL, "\n", eolStart)
	}
}

func (l *lexer) lexBodyToken() {
	start := l.pos
	if lit, ok := l.tryLexQuotedLiteral(); ok {
		l.emit(QUOTED_LITERAL, lit, start)
		return
	}
	if name, ok := l.tryLexSymbolName(); ok {
		l.emit(SYMBOL_NAME, name, start)
		return
	}
	b := l.text[l.pos]
	if kind, ok := singleCharTokens[b]; ok {
		l.pos++
		l.emit(kind, string(b), start)
		return
	}
	l.illegalCharacter()
}

// lexOneOfBody handles one-of rule bodies: whitespace-separated literal
// runs, possibly spanning several lines, ending at the first blank line
// or the next top-level rule header.
func (l *lexer) lexOneOfBody() {
	for l.moreBodyLines() {
		lineEnd := l.lineEnd()
		for l.pos < lineEnd {
			l.skipHorizontalSpace()
			if l.pos >= lineEnd {
				break
			}
			start := l.pos
			for l.pos < lineEnd && !isHorizontalSpace(l.text[l.pos]) {
				l.pos++
			}
			l.emit(LITERAL, l.text[start:l.pos], start)
		}
		l.consumeNewline()
	}
}

// lexRegexpBody handles regexp rule bodies: one REGEXP token per line,
// trimmed of leading/trailing whitespace, with no EOL emitted.
func (l *lexer) lexRegexpBody() {
	for l.moreBodyLines() {
		start := l.pos
		end := l.lineEnd()
		pattern := strings.TrimSpace(l.text[start:end])
		trimmedStart := start + strings.Index(l.text[start:end], pattern)
		if pattern != "" {
			l.emit(REGEXP, pattern, trimmedStart)
		}
		l.pos = end
		l.consumeNewline()
	}
}

// moreBodyLines reports whether the next line belongs to the current
// rule's body (non-blank and indented). It consumes nothing; a blank line
// that ends the body is left for skipBlankLines.
func (l *lexer) moreBodyLines() bool {
	if l.done() {
		return false
	}
	end := l.lineEnd()
	line := l.text[l.pos:end]
	if strings.TrimSpace(line) == "" {
		return false // blank line ends the rule's body
	}
	if !isHorizontalSpace(line[0]) {
		return false // unindented line starts the next top-level rule
	}
	return true
}

func (l *lexer) skipHorizontalSpace() {
	for l.pos < len(l.text) && isHorizontalSpace(l.text[l.pos]) {
		l.pos++
	}
}

func isHorizontalSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r'
}

// tryLexSymbolName matches [A-Za-z][A-Za-z0-9_-]*.
func (l *lexer) tryLexSymbolName() (string, bool) {
	start := l.pos
	if l.pos >= len(l.text) || !isLetter(l.text[l.pos]) {
		return "", false
	}
	l.pos++
	for l.pos < len(l.text) && isNameContinuation(l.text[l.pos]) {
		l.pos++
	}
	return l.text[start:l.pos], true
}

func isLetter(b byte) bool {
	return unicode.IsLetter(rune(b))
}

func isNameContinuation(b byte) bool {
	return unicode.IsLetter(rune(b)) || unicode.IsDigit(rune(b)) || b == '-' || b == '_'
}

// tryLexQuotedLiteral matches a single-quoted string, where backslash
// escapes the following character (most importantly, an embedded quote).
// The returned lexeme includes the surrounding quotes and any escaping
// backslashes verbatim; stripping them is the parser's job (§4.C).
func (l *lexer) tryLexQuotedLiteral() (string, bool) {
	if l.pos >= len(l.text) || l.text[l.pos] != '\'' {
		return "", false
	}
	start := l.pos
	i := l.pos + 1
	for i < len(l.text) {
		switch l.text[i] {
		case '\\':
			i += 2
			continue
		case '\'':
			i++
			l.pos = i
			return l.text[start:l.pos], true
		case '\n':
			return "", false
		}
		i++
	}
	return "", false
}
