package eval

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rillshell/rill/internal/ast"
	"github.com/rillshell/rill/internal/diag"
	"github.com/rillshell/rill/internal/engine"
	"github.com/rillshell/rill/internal/pipeline"
	"github.com/rillshell/rill/internal/span"
	"github.com/rillshell/rill/internal/value"
)

// AST construction shorthand for the evaluation tests; the surface parser
// lives outside this module, so programs are built directly.

func sp() span.Span { return span.New(1, 2) }

func intL(n int64) ast.Expr      { return &ast.IntLit{Value: n, Sp: sp()} }
func strL(s string) ast.Expr     { return &ast.StringLit{Value: s, Sp: sp()} }
func boolL(b bool) ast.Expr      { return &ast.BoolLit{Value: b, Sp: sp()} }
func varE(name string) ast.Expr  { return &ast.Var{Name: name, Sp: sp()} }
func call(name string, args ...ast.Expr) *ast.Call {
	return &ast.Call{Name: name, NameSp: sp(), Args: args, Sp: sp()}
}
func exprStmt(e ast.Expr) ast.Statement { return &ast.ExprStmt{Expr: e} }
func callStmt(name string, args ...ast.Expr) ast.Statement {
	return exprStmt(call(name, args...))
}
func letStmt(name string, init ast.Expr) ast.Statement {
	return &ast.Let{Name: name, Init: init, Sp: sp()}
}
func letEnvStmt(name string, init ast.Expr) ast.Statement {
	return &ast.LetEnv{Name: name, Init: init, Sp: sp()}
}
func block(stmts ...ast.Statement) *ast.Block {
	return &ast.Block{Stmts: stmts, Sp: sp()}
}
func blockE(stmts ...ast.Statement) ast.Expr {
	return &ast.BlockLit{Block: block(stmts...), Sp: sp()}
}
func subExpr(stmts ...ast.Statement) ast.Expr {
	return &ast.SubExpr{Block: block(stmts...), Sp: sp()}
}
func defStmt(name string, params []string, stmts ...ast.Statement) ast.Statement {
	return &ast.Def{Name: name, Params: params, Body: block(stmts...), Sp: sp()}
}
func hideStmt(head string, members ...ast.ImportMember) ast.Statement {
	return &ast.Hide{Pattern: ast.ImportPattern{Head: head, HeadSp: sp(), Members: members}, Sp: sp()}
}
func useStmt(head string, members ...ast.ImportMember) ast.Statement {
	return &ast.Use{Pattern: ast.ImportPattern{Head: head, HeadSp: sp(), Members: members}, Sp: sp()}
}

func moduleStmt(name string, entries ...ast.ModuleEntry) ast.Statement {
	return &ast.ModuleDecl{Name: name, Entries: entries, Sp: sp()}
}
func exported(stmt ast.Statement) ast.ModuleEntry {
	return ast.ModuleEntry{Exported: true, Stmt: stmt}
}
func internal(stmt ast.Statement) ast.ModuleEntry {
	return ast.ModuleEntry{Exported: false, Stmt: stmt}
}
func envEntry(name string, stmts ...ast.Statement) ast.Statement {
	return &ast.EnvDecl{Name: name, Body: block(stmts...), Sp: sp()}
}

func emptyInput() pipeline.PipelineData { return pipeline.Empty() }

func newEvaluator(t *testing.T) (*Evaluator, *engine.EngineState) {
	t.Helper()
	state := engine.NewEngineState()
	RegisterBuiltins(state)
	return New(state), state
}

// run evaluates a program built from stmts on a fresh engine state.
func run(t *testing.T, stmts ...ast.Statement) (value.Value, *diag.Error) {
	t.Helper()
	ev, _ := newEvaluator(t)
	out, err := ev.EvalProgram(block(stmts...), pipeline.Empty())
	if err != nil {
		return nil, err
	}
	return out.IntoValue(sp()), nil
}

func runString(t *testing.T, stmts ...ast.Statement) string {
	t.Helper()
	v, err := run(t, stmts...)
	require.Nil(t, err)
	require.IsType(t, &value.String{}, v)
	return v.(*value.String).Value
}

func runInt(t *testing.T, stmts ...ast.Statement) int64 {
	t.Helper()
	v, err := run(t, stmts...)
	require.Nil(t, err)
	require.IsType(t, &value.Int{}, v)
	return v.(*value.Int).Value
}

func runErr(t *testing.T, stmts ...ast.Statement) *diag.Error {
	t.Helper()
	_, err := run(t, stmts...)
	require.NotNil(t, err)
	return err
}
