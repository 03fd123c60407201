package main

import (
	"fmt"
	"strings"
)

// check is the strict pass. It runs before code generation and reports
// every use of an undeclared variable and every assignment to a let
// binding, instead of stopping at the first one like generate does.
//
// A declaration is only in scope after its initializer, so
// `let x = x` is an error here even though generate accepts it.
func check(prog *Program) error {
	vars := make(map[string]bool) // name -> mutable
	var errors []error
	for _, stmt := range prog.Stmts {
		switch s := stmt.(type) {
		case *PrintStmt:
			errors = append(errors, checkExpr(vars, s.Value)...)
		case *VarDecl:
			errors = append(errors, checkExpr(vars, s.Init)...)
			vars[s.Name] = s.Mutable
		case *AssignStmt:
			errors = append(errors, checkExpr(vars, s.Value)...)
			mutable, ok := vars[s.Name]
			if !ok {
				errors = append(errors, &CodegenError{Kind: UndeclaredVariable, Name: s.Name})
			} else if !mutable {
				errors = append(errors, &CodegenError{Kind: ImmutableAssignment, Name: s.Name})
			}
		case *ExprStmt:
			errors = append(errors, checkExpr(vars, s.Value)...)
		default:
			panic(fmt.Sprintf("unhandled case in check: %T", s))
		}
	}
	return multiError(errors...)
}

func checkExpr(vars map[string]bool, expr Expr) []error {
	switch e := expr.(type) {
	case *IntExpr:
		return nil
	case *VarExpr:
		if _, ok := vars[e.Name]; !ok {
			return []error{&CodegenError{Kind: UndeclaredVariable, Name: e.Name}}
		}
		return nil
	case *BinExpr:
		return append(checkExpr(vars, e.Left), checkExpr(vars, e.Right)...)
	default:
		panic(fmt.Sprintf("unhandled case in checkExpr: %T", e))
	}
}

// ErrorList is a list of errors reported together.
type ErrorList []error

func (l ErrorList) Error() string {
	var b strings.Builder
	for i, err := range l {
		if i != 0 {
			b.WriteString("\n")
		}
		b.WriteString(err.Error())
	}
	return b.String()
}

// Unwrap lets errors.As find the individual errors.
func (l ErrorList) Unwrap() []error { return l }

// multiError drops nils and returns nil, the one remaining error,
// or an ErrorList.
func multiError(errs ...error) error {
	var list ErrorList
	for _, err := range errs {
		if err != nil {
			list = append(list, err)
		}
	}
	switch len(list) {
	case 0:
		return nil
	case 1:
		return list[0]
	}
	return list
}
