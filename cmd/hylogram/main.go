/*
hylogram is a console utility that runs the grammar-engineering
pipeline over an EBNF grammar file: it lexes, parses, validates,
lowers to BNF, and derives a scanner description. When every stage
succeeds without diagnostics it prints the BNF grammar and the scanner
description; otherwise it prints only the diagnostics and exits with
status 1.

Usage is

	hylogram [-start <name>] [-trace <level>] <file>

-start <name> names the start symbol, default "start";

-trace <level> sets the trace level (error, info, debug),
default "error".

<file> is an EBNF grammar definition file.
*/
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/dabrahams/hylo-spec-parser"
	"github.com/npillmayer/schuko/gtrace"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"
)

var (
	startSymbol string
	traceLevel  string
)

func main() {
	flag.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), "Usage is  hylogram [-start <name>] [-trace <level>] <file>")
		flag.PrintDefaults()
		fmt.Fprintln(flag.CommandLine.Output(), "  <file>")
		fmt.Fprintln(flag.CommandLine.Output(), "\tEBNF grammar definition file name")
	}
	flag.StringVar(&startSymbol, "start", "start", "name of the start symbol")
	flag.StringVar(&traceLevel, "trace", "error", "trace level: error, info, debug")
	flag.Parse()

	inFileName := flag.Arg(0)
	if inFileName == "" {
		flag.Usage()
		os.Exit(2)
	}

	gtrace.SyntaxTracer = gologadapter.New()
	gtrace.SyntaxTracer.SetTraceLevel(tracing.TraceLevelFromString(traceLevel))

	src, err := os.ReadFile(inFileName)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(3)
	}

	result := hylogram.Run(inFileName, string(src), startSymbol)
	if !result.Success() {
		result.Errors.Pretty(os.Stderr)
		os.Exit(1)
	}

	fmt.Println("BNF grammar:")
	fmt.Println(result.BNF.String())

	fmt.Println("literals:")
	for _, lit := range result.Scanner.Literals {
		fmt.Printf("  %q\n", lit)
	}

	fmt.Println("patterns:")
	for _, p := range result.Scanner.Patterns {
		fmt.Printf("  %s: %s\n", p.Name, p.Pattern)
	}
	fmt.Printf("unrecognized-character terminal: %s\n", result.Scanner.Unrecognized)
}
