package main

import "fmt"

// Kind identifies the lexical class of a Token.
type Kind int

const (
	EndOfInput Kind = iota
	Print
	Let
	Var
	Identifier
	Number
	LeftParen
	RightParen
	Colon
	Assign
	Plus
	Minus
	Star
	Slash
)

var kindNames = [...]string{
	EndOfInput: "end of input",
	Print:      "'print'",
	Let:        "'let'",
	Var:        "'var'",
	Identifier: "identifier",
	Number:     "number",
	LeftParen:  "'('",
	RightParen: "')'",
	Colon:      "':'",
	Assign:     "'='",
	Plus:       "'+'",
	Minus:      "'-'",
	Star:       "'*'",
	Slash:      "'/'",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

var keywords = map[string]Kind{
	"print": Print,
	"let":   Let,
	"var":   Var,
}

// Pos is a location in the source text.
// Offset is in bytes, Line and Column count from 1.
type Pos struct {
	Offset int
	Line   int
	Column int
}

func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

type Token struct {
	Kind   Kind
	Lexeme string
	Pos    Pos
}

// String is the debug form used in diagnostics.
func (t Token) String() string {
	if t.Kind == EndOfInput {
		return fmt.Sprintf("%v at %v", t.Kind, t.Pos)
	}
	return fmt.Sprintf("%v %q at %v", t.Kind, t.Lexeme, t.Pos)
}
