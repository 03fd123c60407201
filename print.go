package main

import (
	"fmt"
	"io"

	"github.com/kr/pretty"
)

// this file prints the intermediate stages for debugging

func printTokens(w io.Writer, toks []Token) {
	for i, t := range toks {
		fmt.Fprintf(w, "%3d: %-12v %-8q @%v\n", i, t.Kind, t.Lexeme, t.Pos)
	}
}

func printAST(w io.Writer, prog *Program) {
	fmt.Fprintf(w, "%# v\n", pretty.Formatter(prog))
}

func printStage(w io.Writer, name string) {
	fmt.Fprintf(w, "=== %s ===\n", name)
}
