package main

import (
	"fmt"
	"strings"
	"text/scanner"
	"unicode"
)

// only identifiers are left to text/scanner; numbers and punctuation are
// handled one character at a time below
const scannerMode = scanner.ScanIdents

const scannerWhitespace = 1<<'\t' | 1<<'\n' | 1<<'\v' | 1<<'\f' | 1<<'\r' | 1<<' '

type LexErrorKind int

const (
	UnexpectedCharacter LexErrorKind = iota
	UnknownIdentifier
)

type LexError struct {
	Kind  LexErrorKind
	Char  rune   // UnexpectedCharacter
	Ident string // UnknownIdentifier
	Pos   Pos
}

func (e *LexError) Error() string {
	switch e.Kind {
	case UnknownIdentifier:
		return fmt.Sprintf("unknown identifier %q at %v", e.Ident, e.Pos)
	default:
		return fmt.Sprintf("unexpected character %q at %v", e.Char, e.Pos)
	}
}

type lexer struct {
	scanner scanner.Scanner

	// printOnly restricts identifiers to the print keyword,
	// the language as it was before declarations existed
	printOnly bool
}

func (l *lexer) Init(src string) {
	l.scanner.Init(strings.NewReader(src))
	l.scanner.Mode = scannerMode
	l.scanner.Whitespace = scannerWhitespace
	l.scanner.IsIdentRune = isIdentRune
	// bad encodings come back as utf8.RuneError and are reported
	// as unexpected characters by next
	l.scanner.Error = func(*scanner.Scanner, string) {}
}

func isIdentRune(ch rune, i int) bool {
	if i == 0 {
		return unicode.IsLetter(ch)
	}
	return unicode.IsLetter(ch) || unicode.IsDigit(ch) || ch == '_'
}

func isDigit(ch rune) bool { return '0' <= ch && ch <= '9' }

// tokenize converts src into a token sequence terminated by exactly one
// EndOfInput token. It stops at the first invalid character.
func tokenize(src string) ([]Token, error) {
	l := new(lexer)
	l.Init(src)
	return l.tokenize()
}

func (l *lexer) tokenize() ([]Token, error) {
	var toks []Token
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.Kind == EndOfInput {
			return toks, nil
		}
	}
}

func (l *lexer) next() (Token, error) {
	s := &l.scanner
	r := s.Scan()
	// text/scanner only knows about ASCII whitespace
	for r != scanner.EOF && r != scanner.Ident && unicode.IsSpace(r) {
		r = s.Scan()
	}
	pos := Pos{Offset: s.Position.Offset, Line: s.Position.Line, Column: s.Position.Column}
	switch {
	case r == scanner.EOF:
		return Token{Kind: EndOfInput, Pos: pos}, nil
	case r == scanner.Ident:
		text := s.TokenText()
		kind, ok := keywords[text]
		if l.printOnly {
			if kind != Print {
				return Token{}, &LexError{Kind: UnknownIdentifier, Ident: text, Pos: pos}
			}
		} else if !ok {
			kind = Identifier
		}
		return Token{Kind: kind, Lexeme: text, Pos: pos}, nil
	case isDigit(r):
		var b strings.Builder
		b.WriteRune(r)
		for isDigit(s.Peek()) {
			b.WriteRune(s.Next())
		}
		return Token{Kind: Number, Lexeme: b.String(), Pos: pos}, nil
	}
	var kind Kind
	switch r {
	case '(':
		kind = LeftParen
	case ')':
		kind = RightParen
	case '+':
		kind = Plus
	case '-':
		kind = Minus
	case '*':
		kind = Star
	case '/':
		kind = Slash
	case ':':
		kind = Colon
	case '=':
		kind = Assign
	default:
		return Token{}, &LexError{Kind: UnexpectedCharacter, Char: r, Pos: pos}
	}
	return Token{Kind: kind, Lexeme: string(r), Pos: pos}, nil
}
