package main

// parse.go is a recursive-descent parser with one token of lookahead
//
// 	program        = { statement } EndOfInput
// 	statement      = print | decl | assign | expression
// 	print          = "print" "(" expression ")"
// 	decl           = ( "let" | "var" ) ident [ ":" ident ] "=" expression
// 	assign         = ident "=" expression
// 	expression     = multiplicative { ( "+" | "-" ) multiplicative }
// 	multiplicative = primary { ( "*" | "/" ) primary }
// 	primary        = number | ident | "(" expression ")"

import (
	"fmt"
	"strconv"
)

type ParseErrorKind int

const (
	ExpectedToken ParseErrorKind = iota
	UnexpectedStatement
	InvalidNumber
	ExpectedExpression
)

type ParseError struct {
	Kind     ParseErrorKind
	Expected Kind  // ExpectedToken
	Found    Token // the offending token
	Err      error // InvalidNumber: the strconv error
}

func (e *ParseError) Error() string {
	switch e.Kind {
	case ExpectedToken:
		return fmt.Sprintf("expected %v, found %v", e.Expected, e.Found)
	case UnexpectedStatement:
		return fmt.Sprintf("unexpected %v at start of statement", e.Found)
	case InvalidNumber:
		return fmt.Sprintf("invalid number %q at %v: %v", e.Found.Lexeme, e.Found.Pos, e.Err)
	case ExpectedExpression:
		return fmt.Sprintf("expected expression, found %v", e.Found)
	}
	return "parse error"
}

func (e *ParseError) Unwrap() error { return e.Err }

type parser struct {
	toks []Token
	pos  int
}

// parse builds a Program from toks, stopping at the first error.
// toks should end with an EndOfInput token, as produced by tokenize.
func parse(toks []Token) (*Program, error) {
	p := &parser{toks: toks}
	return p.program()
}

func (p *parser) peek() Token {
	if p.pos >= len(p.toks) {
		if len(p.toks) == 0 {
			return Token{Kind: EndOfInput}
		}
		// a missing terminator reads as end of input
		last := p.toks[len(p.toks)-1]
		return Token{Kind: EndOfInput, Pos: last.Pos}
	}
	return p.toks[p.pos]
}

// peekNext returns the token after the current one.
func (p *parser) peekNext() Token {
	p.pos++
	t := p.peek()
	p.pos--
	return t
}

func (p *parser) atEnd() bool { return p.peek().Kind == EndOfInput }

func (p *parser) check(k Kind) bool { return p.peek().Kind == k }

func (p *parser) advance() Token {
	t := p.peek()
	if !p.atEnd() {
		p.pos++
	}
	return t
}

func (p *parser) consume(k Kind) (Token, error) {
	if !p.check(k) {
		return Token{}, &ParseError{Kind: ExpectedToken, Expected: k, Found: p.peek()}
	}
	return p.advance(), nil
}

func (p *parser) program() (*Program, error) {
	prog := new(Program)
	for !p.atEnd() {
		s, err := p.statement()
		if err != nil {
			return nil, err
		}
		prog.Stmts = append(prog.Stmts, s)
	}
	return prog, nil
}

func (p *parser) statement() (Stmt, error) {
	switch p.peek().Kind {
	case Print:
		return p.printStmt()
	case Let, Var:
		return p.declStmt()
	case Identifier:
		if p.peekNext().Kind == Assign {
			return p.assignStmt()
		}
		return p.exprStmt()
	case Number, LeftParen:
		return p.exprStmt()
	default:
		return nil, &ParseError{Kind: UnexpectedStatement, Found: p.peek()}
	}
}

func (p *parser) printStmt() (Stmt, error) {
	if _, err := p.consume(Print); err != nil {
		return nil, err
	}
	if _, err := p.consume(LeftParen); err != nil {
		return nil, err
	}
	e, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(RightParen); err != nil {
		return nil, err
	}
	return &PrintStmt{Value: e}, nil
}

func (p *parser) declStmt() (Stmt, error) {
	d := new(VarDecl)
	d.Mutable = p.advance().Kind == Var
	name, err := p.consume(Identifier)
	if err != nil {
		return nil, err
	}
	d.Name = name.Lexeme
	if p.check(Colon) {
		p.advance()
		typ, err := p.consume(Identifier)
		if err != nil {
			return nil, err
		}
		d.Type = typ.Lexeme
	}
	if _, err := p.consume(Assign); err != nil {
		return nil, err
	}
	if d.Init, err = p.expression(); err != nil {
		return nil, err
	}
	return d, nil
}

func (p *parser) assignStmt() (Stmt, error) {
	name := p.advance()
	p.advance() // =
	e, err := p.expression()
	if err != nil {
		return nil, err
	}
	return &AssignStmt{Name: name.Lexeme, Value: e}, nil
}

func (p *parser) exprStmt() (Stmt, error) {
	e, err := p.expression()
	if err != nil {
		return nil, err
	}
	return &ExprStmt{Value: e}, nil
}

func (p *parser) expression() (Expr, error) {
	left, err := p.multiplicative()
	if err != nil {
		return nil, err
	}
	for p.check(Plus) || p.check(Minus) {
		op := Add
		if p.advance().Kind == Minus {
			op = Subtract
		}
		right, err := p.multiplicative()
		if err != nil {
			return nil, err
		}
		left = &BinExpr{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) multiplicative() (Expr, error) {
	left, err := p.primary()
	if err != nil {
		return nil, err
	}
	for p.check(Star) || p.check(Slash) {
		op := Multiply
		if p.advance().Kind == Slash {
			op = Divide
		}
		right, err := p.primary()
		if err != nil {
			return nil, err
		}
		left = &BinExpr{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) primary() (Expr, error) {
	switch t := p.peek(); t.Kind {
	case Number:
		p.advance()
		n, err := strconv.ParseInt(t.Lexeme, 10, 64)
		if err != nil {
			return nil, &ParseError{Kind: InvalidNumber, Found: t, Err: err}
		}
		return &IntExpr{Value: n}, nil
	case Identifier:
		p.advance()
		return &VarExpr{Name: t.Lexeme}, nil
	case LeftParen:
		p.advance()
		e, err := p.expression()
		if err != nil {
			return nil, err
		}
		if _, err := p.consume(RightParen); err != nil {
			return nil, err
		}
		return e, nil
	default:
		return nil, &ParseError{Kind: ExpectedExpression, Found: t}
	}
}
