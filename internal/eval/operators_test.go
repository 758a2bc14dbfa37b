package eval

import (
	"testing"

	"github.com/rillshell/rill/internal/ast"
	"github.com/rillshell/rill/internal/diag"
	"github.com/rillshell/rill/internal/value"
)

func binOp(op string, lhs, rhs ast.Expr) ast.Statement {
	return exprStmt(&ast.BinaryOp{Op: op, Lhs: lhs, Rhs: rhs, Sp: sp()})
}

func floatL(f float64) ast.Expr { return &ast.FloatLit{Value: f, Sp: sp()} }

func TestArithmetic(t *testing.T) {
	tests := []struct {
		name string
		stmt ast.Statement
		want value.Value
	}{
		{"int add", binOp("+", intL(2), intL(3)), &value.Int{Value: 5}},
		{"int sub", binOp("-", intL(2), intL(3)), &value.Int{Value: -1}},
		{"int mul", binOp("*", intL(4), intL(3)), &value.Int{Value: 12}},
		{"exact div stays int", binOp("/", intL(6), intL(3)), &value.Int{Value: 2}},
		{"inexact div promotes", binOp("/", intL(7), intL(2)), &value.Float{Value: 3.5}},
		{"mixed promotes", binOp("+", intL(1), floatL(0.5)), &value.Float{Value: 1.5}},
		{"mod", binOp("mod", intL(7), intL(3)), &value.Int{Value: 1}},
		{"pow", binOp("**", intL(2), intL(10)), &value.Int{Value: 1024}},
		{"string concat", binOp("+", strL("ab"), strL("cd")), &value.String{Value: "abcd"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := run(t, tt.stmt)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			switch want := tt.want.(type) {
			case *value.Int:
				n, ok := got.(*value.Int)
				if !ok || n.Value != want.Value {
					t.Errorf("got %v, want %d", got, want.Value)
				}
			case *value.Float:
				f, ok := got.(*value.Float)
				if !ok || f.Value != want.Value {
					t.Errorf("got %v, want %g", got, want.Value)
				}
			case *value.String:
				s, ok := got.(*value.String)
				if !ok || s.Value != want.Value {
					t.Errorf("got %v, want %q", got, want.Value)
				}
			}
		})
	}
}

func TestComparisons(t *testing.T) {
	tests := []struct {
		name string
		stmt ast.Statement
		want bool
	}{
		{"lt", binOp("<", intL(2), intL(3)), true},
		{"le", binOp("<=", intL(3), intL(3)), true},
		{"gt", binOp(">", intL(2), intL(3)), false},
		{"eq mixed numeric", binOp("==", intL(2), floatL(2.0)), true},
		{"ne", binOp("!=", intL(2), intL(3)), true},
		{"string lt", binOp("<", strL("a"), strL("b")), true},
		{"bool eq", binOp("==", boolL(true), boolL(true)), true},
		{"nothing eq nothing", binOp("==", &ast.NothingLit{Sp: sp()}, &ast.NothingLit{Sp: sp()}), true},
		{"nothing ne int", binOp("!=", &ast.NothingLit{Sp: sp()}, intL(1)), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := run(t, tt.stmt)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			b, ok := got.(*value.Bool)
			if !ok || b.Value != tt.want {
				t.Errorf("got %v, want %t", got, tt.want)
			}
		})
	}
}

func TestDivisionByZero(t *testing.T) {
	err := runErr(t, binOp("/", intL(1), intL(0)))
	if err.Kind != diag.DivisionByZero {
		t.Errorf("got kind %d, want DivisionByZero", err.Kind)
	}
}

func TestOperatorMismatchCarriesBothSpans(t *testing.T) {
	err := runErr(t, binOp("+", intL(1), boolL(true)))
	if err.Kind != diag.OperatorMismatch {
		t.Fatalf("got kind %d, want OperatorMismatch", err.Kind)
	}
	if len(err.Labels) < 3 {
		t.Errorf("expected labels for the operator and both operands, got %d", len(err.Labels))
	}
}

func TestShortCircuitSkipsRhs(t *testing.T) {
	// The right side would fail if evaluated.
	got, err := run(t, binOp("&&", boolL(false), varE("missing")))
	if err != nil {
		t.Fatalf("rhs was evaluated: %v", err)
	}
	if b, ok := got.(*value.Bool); !ok || b.Value {
		t.Errorf("got %v, want false", got)
	}

	got, err = run(t, binOp("||", boolL(true), varE("missing")))
	if err != nil {
		t.Fatalf("rhs was evaluated: %v", err)
	}
	if b, ok := got.(*value.Bool); !ok || !b.Value {
		t.Errorf("got %v, want true", got)
	}
}

func TestIfChoosesBranch(t *testing.T) {
	got := runString(t, exprStmt(&ast.If{
		Cond: binOp("<", intL(1), intL(2)).(*ast.ExprStmt).Expr,
		Then: block(exprStmt(strL("yes"))),
		Else: &ast.BlockLit{Block: block(exprStmt(strL("no"))), Sp: sp()},
		Sp:   sp(),
	}))
	if got != "yes" {
		t.Errorf("got %q, want %q", got, "yes")
	}
}
