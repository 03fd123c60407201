package main

import (
	"bytes"
	"fmt"
	"strconv"
)

// format.go converts an AST back to source code

type formatter struct {
	buf bytes.Buffer
}

func formatProgram(prog *Program) string {
	var f formatter
	for _, s := range prog.Stmts {
		f.visitStmt(s)
		f.write("\n")
	}
	return f.buf.String()
}

var binOpPrec = map[BinaryOp]int{
	Add:      1,
	Subtract: 1,
	Multiply: 2,
	Divide:   2,
}

func (f *formatter) visitStmt(stmt Stmt) {
	switch s := stmt.(type) {
	case *PrintStmt:
		f.write("print(")
		f.visitExpr(s.Value, 0)
		f.write(")")
	case *VarDecl:
		if s.Mutable {
			f.write("var ")
		} else {
			f.write("let ")
		}
		f.write(s.Name)
		if s.Type != "" {
			f.write(": " + s.Type)
		}
		f.write(" = ")
		f.visitExpr(s.Init, 0)
	case *AssignStmt:
		f.write(s.Name + " = ")
		f.visitExpr(s.Value, 0)
	case *ExprStmt:
		f.visitExpr(s.Value, 0)
	default:
		panic(fmt.Sprintf("unhandled case in formatter.visitStmt: %T", s))
	}
}

// prec is the lowest precedence e may have without being parenthesized.
func (f *formatter) visitExpr(e Expr, prec int) {
	switch e := e.(type) {
	case *IntExpr:
		f.write(strconv.FormatInt(e.Value, 10))
	case *VarExpr:
		f.write(e.Name)
	case *BinExpr:
		op := binOpPrec[e.Op]
		if op < prec {
			f.write("(")
		}
		f.visitExpr(e.Left, op)
		f.write(" " + e.Op.String() + " ")
		// operators are left-associative, so a right operand
		// of the same precedence needs parentheses
		f.visitExpr(e.Right, op+1)
		if op < prec {
			f.write(")")
		}
	default:
		panic(fmt.Sprintf("unhandled case in formatter.visitExpr: %T", e))
	}
}

func (f *formatter) write(s string) {
	f.buf.WriteString(s)
}
