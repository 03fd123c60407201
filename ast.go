package main

// A Program is the root of the tree. It owns every node below it;
// nodes are never shared between statements or programs.
type Program struct {
	Stmts []Stmt
}

type Stmt interface{ stmtNode() }

type Expr interface{ exprNode() }

type PrintStmt struct {
	Value Expr
}

// VarDecl is a let (Mutable=false) or var (Mutable=true) declaration.
// Type holds the annotation text, if any; it has no effect since every
// value is an i64.
type VarDecl struct {
	Name    string
	Type    string
	Init    Expr
	Mutable bool
}

type AssignStmt struct {
	Name  string
	Value Expr
}

type ExprStmt struct {
	Value Expr
}

type IntExpr struct {
	Value int64
}

type VarExpr struct {
	Name string
}

type BinExpr struct {
	Op    BinaryOp
	Left  Expr
	Right Expr
}

type BinaryOp int

const (
	Add BinaryOp = iota
	Subtract
	Multiply
	Divide
)

func (op BinaryOp) String() string {
	switch op {
	case Add:
		return "+"
	case Subtract:
		return "-"
	case Multiply:
		return "*"
	case Divide:
		return "/"
	}
	return "?"
}

func (*PrintStmt) stmtNode()  {}
func (*VarDecl) stmtNode()    {}
func (*AssignStmt) stmtNode() {}
func (*ExprStmt) stmtNode()   {}

func (*IntExpr) exprNode() {}
func (*VarExpr) exprNode() {}
func (*BinExpr) exprNode() {}
