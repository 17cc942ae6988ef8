/*
Package hylogram implements a grammar-engineering toolchain for an
EBNF dialect: lex its own source text, parse it into an AST, validate
the result into a well-formed Grammar, lower it to plain BNF, and
derive a scanner description for the grammar it describes.

Package structure is as follows:

■ source: half-open source ranges over named source files.

■ lexer: the context-sensitive EBNF lexer.

■ ast: the abstract syntax the parser produces.

■ parser: a recursive-descent reduction of tokens into an ast.DefinitionList.

■ grammar: validation (symbol coverage, reachability, token-rule
acyclicity) plus derived queries (nonterminals, literals, regexps).

■ lowering: EBNF→BNF lowering, driven against a pluggable Builder.

■ scanner: the scanner description (literal set, named patterns,
unrecognized-character terminal) for a validated grammar.

■ diag: structured diagnostics shared by every stage.

The base package glues these stages into a single Run call.

License

Governed by a 3-Clause BSD license. License file may be found in the
root folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>
*/
package hylogram
