package main

// gen.go lowers a Program to LLVM IR text.
//
// Every variable lives in its own stack slot (alloca) and every read or
// write goes through a load or store, so no SSA construction is needed.
// Registers are named %r1, %r2, ... in emission order and never reused.

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

const (
	moduleName   = "tinyswift"
	formatString = `c"%lld\0A\00"`
	formatLen    = 6 // %lld \n \0
)

type Reg string

type CodegenErrorKind int

const (
	UndeclaredVariable CodegenErrorKind = iota
	ImmutableAssignment
)

type CodegenError struct {
	Kind CodegenErrorKind
	Name string
}

func (e *CodegenError) Error() string {
	switch e.Kind {
	case ImmutableAssignment:
		return fmt.Sprintf("cannot assign to immutable variable %q", e.Name)
	default:
		return fmt.Sprintf("undeclared variable %q", e.Name)
	}
}

// generator holds the state of a single compilation.
// A new generator must be used for every program.
type generator struct {
	buf     bytes.Buffer
	source  string
	lastreg int
	vars    map[string]Reg // variable name -> stack slot
	indent  bool
}

// generate returns the IR for prog. On error no IR is returned.
func generate(prog *Program) (string, error) {
	return generateNamed(moduleName, prog)
}

// generateNamed is generate with the source_filename set to source.
func generateNamed(source string, prog *Program) (string, error) {
	g := &generator{
		source: source,
		vars:   make(map[string]Reg),
	}
	if err := g.program(prog); err != nil {
		return "", err
	}
	return g.buf.String(), nil
}

func (g *generator) program(prog *Program) error {
	g.line("; ModuleID = '" + moduleName + "'")
	g.line("source_filename = " + llvmQuote(g.source))
	g.line("")
	g.line("declare i32 @printf(ptr, ...)")
	g.line("")
	g.line(fmt.Sprintf("@.str = private unnamed_addr constant [%d x i8] %s, align 1", formatLen, formatString))
	g.line("")
	g.line("define i32 @main() {")
	g.line("entry:")
	g.indent = true
	for _, s := range prog.Stmts {
		if err := g.stmt(s); err != nil {
			return err
		}
	}
	g.line("ret i32 0")
	g.indent = false
	g.line("}")
	return nil
}

func (g *generator) stmt(stmt Stmt) error {
	switch s := stmt.(type) {
	case *PrintStmt:
		v, err := g.expr(s.Value)
		if err != nil {
			return err
		}
		r := g.newreg()
		g.line(fmt.Sprintf("%s = call i32 (ptr, ...) @printf(ptr @.str, i64 %s)", r, v))
	case *VarDecl:
		slot := g.newreg()
		g.line(fmt.Sprintf("%s = alloca i64, align 8", slot))
		g.vars[s.Name] = slot
		v, err := g.expr(s.Init)
		if err != nil {
			return err
		}
		g.store(v, slot)
	case *AssignStmt:
		slot, ok := g.vars[s.Name]
		if !ok {
			return &CodegenError{Kind: UndeclaredVariable, Name: s.Name}
		}
		v, err := g.expr(s.Value)
		if err != nil {
			return err
		}
		g.store(v, slot)
	case *ExprStmt:
		// evaluated for its loads; the value is dropped
		if _, err := g.expr(s.Value); err != nil {
			return err
		}
	default:
		panic(fmt.Sprintf("unhandled case in generator.stmt: %T", s))
	}
	return nil
}

// expr emits the code for an expression and returns the operand
// holding its value: a register, or an immediate for literals.
func (g *generator) expr(expr Expr) (string, error) {
	switch e := expr.(type) {
	case *IntExpr:
		return strconv.FormatInt(e.Value, 10), nil
	case *VarExpr:
		slot, ok := g.vars[e.Name]
		if !ok {
			return "", &CodegenError{Kind: UndeclaredVariable, Name: e.Name}
		}
		r := g.newreg()
		g.line(fmt.Sprintf("%s = load i64, ptr %s, align 8", r, slot))
		return string(r), nil
	case *BinExpr:
		left, err := g.expr(e.Left)
		if err != nil {
			return "", err
		}
		right, err := g.expr(e.Right)
		if err != nil {
			return "", err
		}
		r := g.newreg()
		g.line(fmt.Sprintf("%s = %s i64 %s, %s", r, instrFor(e.Op), left, right))
		return string(r), nil
	default:
		panic(fmt.Sprintf("unhandled case in generator.expr: %T", e))
	}
}

func instrFor(op BinaryOp) string {
	switch op {
	case Add:
		return "add"
	case Subtract:
		return "sub"
	case Multiply:
		return "mul"
	case Divide:
		return "sdiv"
	default:
		panic(fmt.Sprintf("unknown op: %v", op))
	}
}

func (g *generator) store(v string, slot Reg) {
	g.line(fmt.Sprintf("store i64 %s, ptr %s, align 8", v, slot))
}

// llvmQuote returns s as an LLVM string literal. The only escape LLVM
// understands is \XX, used here for every byte that is not printable
// ASCII or that would end the literal.
func llvmQuote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '"' || c == '\\' || c < 0x20 || c >= 0x7f {
			fmt.Fprintf(&b, "\\%02X", c)
			continue
		}
		b.WriteByte(c)
	}
	b.WriteByte('"')
	return b.String()
}

func (g *generator) newreg() Reg {
	g.lastreg++
	return Reg("%r" + strconv.Itoa(g.lastreg))
}

func (g *generator) line(s string) {
	if g.indent && s != "" {
		g.buf.WriteString("  ")
	}
	g.buf.WriteString(s)
	g.buf.WriteByte('\n')
}
