// Package ast is the block graph the evaluation core consumes. The surface
// syntax and its parser live elsewhere; tests and embedders construct these
// nodes directly.
package ast

import (
	"github.com/rillshell/rill/internal/span"
	"github.com/rillshell/rill/internal/value"
)

// Block is one lexical block: a parameter list and a statement sequence.
// Entering a block pushes a scope frame; leaving it discards every binding
// the block created.
type Block struct {
	Params []string
	Stmts  []Statement
	Sp     span.Span
}

type Statement interface {
	Span() span.Span
	stmtNode()
}

// Let binds a variable in the current scope frame.
type Let struct {
	Name string
	Init Expr
	Sp   span.Span
}

// LetEnv binds an environment variable in the current scope frame's
// environment overlay.
type LetEnv struct {
	Name string
	Init Expr
	Sp   span.Span
}

// Def declares a command. The body captures visible variables by value at
// the point of declaration.
type Def struct {
	Name   string
	Params []string
	Body   *Block
	Sp     span.Span
}

// EnvDecl declares an exported environment binding inside a module; the
// body runs in the module's internal scope.
type EnvDecl struct {
	Name string
	Body *Block
	Sp   span.Span
}

// ModuleDecl declares a named module. Only entries marked exported are
// importable.
type ModuleDecl struct {
	Name    string
	Entries []ModuleEntry
	Sp      span.Span
}

// ModuleEntry wraps a Def or EnvDecl with its export flag.
type ModuleEntry struct {
	Exported bool
	Stmt     Statement
}

// Use imports names matching the pattern into the current scope frame.
type Use struct {
	Pattern ImportPattern
	Sp      span.Span
}

// Hide suppresses the visibility of the binding(s) the pattern resolves to.
type Hide struct {
	Pattern ImportPattern
	Sp      span.Span
}

// ExprStmt evaluates an expression for its pipeline output.
type ExprStmt struct {
	Expr Expr
}

func (s *Let) Span() span.Span        { return s.Sp }
func (s *LetEnv) Span() span.Span     { return s.Sp }
func (s *Def) Span() span.Span        { return s.Sp }
func (s *EnvDecl) Span() span.Span    { return s.Sp }
func (s *ModuleDecl) Span() span.Span { return s.Sp }
func (s *Use) Span() span.Span        { return s.Sp }
func (s *Hide) Span() span.Span       { return s.Sp }
func (s *ExprStmt) Span() span.Span   { return s.Expr.Span() }

func (*Let) stmtNode()        {}
func (*LetEnv) stmtNode()     {}
func (*Def) stmtNode()        {}
func (*EnvDecl) stmtNode()    {}
func (*ModuleDecl) stmtNode() {}
func (*Use) stmtNode()        {}
func (*Hide) stmtNode()       {}
func (*ExprStmt) stmtNode()   {}

type Expr interface {
	Span() span.Span
	exprNode()
}

type IntLit struct {
	Value int64
	Sp    span.Span
}

type FloatLit struct {
	Value float64
	Sp    span.Span
}

type StringLit struct {
	Value string
	Sp    span.Span
}

type BoolLit struct {
	Value bool
	Sp    span.Span
}

type NothingLit struct {
	Sp span.Span
}

type ListLit struct {
	Items []Expr
	Sp    span.Span
}

type RecordLit struct {
	Cols []string
	Vals []Expr
	Sp   span.Span
}

// RangeLit is from..to with an optional stride (from..next..to in the
// surface syntax); Incr nil means a unit step toward To.
type RangeLit struct {
	From      Expr
	To        Expr
	Incr      Expr
	Inclusive bool
	Sp        span.Span
}

type Var struct {
	Name string
	Sp   span.Span
}

// PathExpr follows a cell path from a head expression, e.g. $x.lang.0.
type PathExpr struct {
	Head    Expr
	Members []value.PathMember
	Sp      span.Span
}

// CellPathLit is a bare cell path handed to a command argument, e.g. the
// "size.0" in `get size.0`.
type CellPathLit struct {
	Members []value.PathMember
	Sp      span.Span
}

// Call invokes a command by name; resolution to a declaration id happens
// through the scope chain at evaluation time. Arguments stay unevaluated so
// block arguments keep their capture semantics.
type Call struct {
	Name   string
	NameSp span.Span
	Args   []Expr
	Sp     span.Span
}

// BlockLit is a block passed as a value; its captures are snapshotted when
// the literal is evaluated.
type BlockLit struct {
	Block *Block
	Sp    span.Span
}

// SubExpr evaluates a block immediately in its own scope and yields its
// result, e.g. (foo 20) + $x.
type SubExpr struct {
	Block *Block
	Sp    span.Span
}

// If evaluates Then or Else depending on Cond; each branch is its own
// scope, so branch-local bindings never leak.
type If struct {
	Cond Expr
	Then *Block
	Else Expr // *BlockLit for a plain else, *If for else-if, nil for none
	Sp   span.Span
}

type BinaryOp struct {
	Op  string
	Lhs Expr
	Rhs Expr
	Sp  span.Span
}

func (e *IntLit) Span() span.Span      { return e.Sp }
func (e *FloatLit) Span() span.Span    { return e.Sp }
func (e *StringLit) Span() span.Span   { return e.Sp }
func (e *BoolLit) Span() span.Span     { return e.Sp }
func (e *NothingLit) Span() span.Span  { return e.Sp }
func (e *ListLit) Span() span.Span     { return e.Sp }
func (e *RecordLit) Span() span.Span   { return e.Sp }
func (e *RangeLit) Span() span.Span    { return e.Sp }
func (e *Var) Span() span.Span         { return e.Sp }
func (e *PathExpr) Span() span.Span    { return e.Sp }
func (e *CellPathLit) Span() span.Span { return e.Sp }
func (e *Call) Span() span.Span        { return e.Sp }
func (e *BlockLit) Span() span.Span    { return e.Sp }
func (e *SubExpr) Span() span.Span     { return e.Sp }
func (e *If) Span() span.Span          { return e.Sp }
func (e *BinaryOp) Span() span.Span    { return e.Sp }

func (*IntLit) exprNode()      {}
func (*FloatLit) exprNode()    {}
func (*StringLit) exprNode()   {}
func (*BoolLit) exprNode()     {}
func (*NothingLit) exprNode()  {}
func (*ListLit) exprNode()     {}
func (*RecordLit) exprNode()   {}
func (*RangeLit) exprNode()    {}
func (*Var) exprNode()         {}
func (*PathExpr) exprNode()    {}
func (*CellPathLit) exprNode() {}
func (*Call) exprNode()        {}
func (*BlockLit) exprNode()    {}
func (*SubExpr) exprNode()     {}
func (*If) exprNode()          {}
func (*BinaryOp) exprNode()    {}
