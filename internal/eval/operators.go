package eval

import (
	"math"

	"github.com/rillshell/rill/internal/ast"
	"github.com/rillshell/rill/internal/diag"
	"github.com/rillshell/rill/internal/span"
	"github.com/rillshell/rill/internal/value"
)

// evalBinaryOp evaluates both operands eagerly except for && and ||,
// which short-circuit.
func (e *Evaluator) evalBinaryOp(ex *ast.BinaryOp) (value.Value, *diag.Error) {
	if ex.Op == "&&" || ex.Op == "||" {
		return e.evalShortCircuit(ex)
	}
	lhs, err := e.EvalExpr(ex.Lhs)
	if err != nil {
		return nil, err
	}
	rhs, err := e.EvalExpr(ex.Rhs)
	if err != nil {
		return nil, err
	}
	sp := ex.Sp
	switch ex.Op {
	case "+":
		return evalAdd(lhs, rhs, ex, sp)
	case "-":
		return evalArith(lhs, rhs, ex, sp,
			func(a, b int64) int64 { return a - b },
			func(a, b float64) float64 { return a - b })
	case "*":
		return evalArith(lhs, rhs, ex, sp,
			func(a, b int64) int64 { return a * b },
			func(a, b float64) float64 { return a * b })
	case "/":
		return evalDiv(lhs, rhs, ex, sp)
	case "mod":
		return evalMod(lhs, rhs, ex, sp)
	case "**":
		return evalPow(lhs, rhs, ex, sp)
	case "==", "!=", "<", "<=", ">", ">=":
		return evalCompare(ex.Op, lhs, rhs, ex, sp)
	default:
		return nil, diag.NewEngineFailed("unknown operator " + ex.Op)
	}
}

func (e *Evaluator) evalShortCircuit(ex *ast.BinaryOp) (value.Value, *diag.Error) {
	lhs, err := e.EvalExpr(ex.Lhs)
	if err != nil {
		return nil, err
	}
	lb, ok := lhs.(*value.Bool)
	if !ok {
		return nil, diag.NewTypeMismatch("expected bool", ex.Lhs.Span())
	}
	if (ex.Op == "&&" && !lb.Value) || (ex.Op == "||" && lb.Value) {
		return &value.Bool{Value: lb.Value, Sp: ex.Sp}, nil
	}
	rhs, err := e.EvalExpr(ex.Rhs)
	if err != nil {
		return nil, err
	}
	rb, ok := rhs.(*value.Bool)
	if !ok {
		return nil, diag.NewTypeMismatch("expected bool", ex.Rhs.Span())
	}
	return &value.Bool{Value: rb.Value, Sp: ex.Sp}, nil
}

func mismatch(op string, lhs, rhs value.Value, ex *ast.BinaryOp) *diag.Error {
	return diag.NewOperatorMismatch(op,
		lhs.Kind().TypeName(), ex.Lhs.Span(),
		rhs.Kind().TypeName(), ex.Rhs.Span())
}

// numPair extracts the operands as numbers when both are numeric. Two
// ints keep int arithmetic; any float promotes both sides.
func numPair(lhs, rhs value.Value) (li, ri int64, lf, rf float64, isInt, ok bool) {
	switch a := lhs.(type) {
	case *value.Int:
		switch b := rhs.(type) {
		case *value.Int:
			return a.Value, b.Value, 0, 0, true, true
		case *value.Float:
			return 0, 0, float64(a.Value), b.Value, false, true
		}
	case *value.Float:
		switch b := rhs.(type) {
		case *value.Int:
			return 0, 0, a.Value, float64(b.Value), false, true
		case *value.Float:
			return 0, 0, a.Value, b.Value, false, true
		}
	}
	return 0, 0, 0, 0, false, false
}

func evalArith(lhs, rhs value.Value, ex *ast.BinaryOp, sp span.Span, fi func(a, b int64) int64, ff func(a, b float64) float64) (value.Value, *diag.Error) {
	li, ri, lf, rf, isInt, ok := numPair(lhs, rhs)
	if !ok {
		return nil, mismatch(ex.Op, lhs, rhs, ex)
	}
	if isInt {
		return &value.Int{Value: fi(li, ri), Sp: sp}, nil
	}
	return &value.Float{Value: ff(lf, rf), Sp: sp}, nil
}

func evalAdd(lhs, rhs value.Value, ex *ast.BinaryOp, sp span.Span) (value.Value, *diag.Error) {
	if ls, lok := lhs.(*value.String); lok {
		if rs, rok := rhs.(*value.String); rok {
			return &value.String{Value: ls.Value + rs.Value, Sp: sp}, nil
		}
		return nil, mismatch("+", lhs, rhs, ex)
	}
	if ll, lok := lhs.(*value.List); lok {
		if rl, rok := rhs.(*value.List); rok {
			items := make([]value.Value, 0, len(ll.Items)+len(rl.Items))
			items = append(items, ll.Items...)
			items = append(items, rl.Items...)
			return &value.List{Items: items, Sp: sp}, nil
		}
		return nil, mismatch("+", lhs, rhs, ex)
	}
	return evalArith(lhs, rhs, ex, sp,
		func(a, b int64) int64 { return a + b },
		func(a, b float64) float64 { return a + b })
}

func evalDiv(lhs, rhs value.Value, ex *ast.BinaryOp, sp span.Span) (value.Value, *diag.Error) {
	li, ri, lf, rf, isInt, ok := numPair(lhs, rhs)
	if !ok {
		return nil, mismatch("/", lhs, rhs, ex)
	}
	if isInt {
		if ri == 0 {
			return nil, diag.NewDivisionByZero(ex.Rhs.Span())
		}
		if li%ri == 0 {
			return &value.Int{Value: li / ri, Sp: sp}, nil
		}
		return &value.Float{Value: float64(li) / float64(ri), Sp: sp}, nil
	}
	if rf == 0 {
		return nil, diag.NewDivisionByZero(ex.Rhs.Span())
	}
	return &value.Float{Value: lf / rf, Sp: sp}, nil
}

func evalMod(lhs, rhs value.Value, ex *ast.BinaryOp, sp span.Span) (value.Value, *diag.Error) {
	li, ri, lf, rf, isInt, ok := numPair(lhs, rhs)
	if !ok {
		return nil, mismatch("mod", lhs, rhs, ex)
	}
	if isInt {
		if ri == 0 {
			return nil, diag.NewDivisionByZero(ex.Rhs.Span())
		}
		return &value.Int{Value: li % ri, Sp: sp}, nil
	}
	if rf == 0 {
		return nil, diag.NewDivisionByZero(ex.Rhs.Span())
	}
	return &value.Float{Value: math.Mod(lf, rf), Sp: sp}, nil
}

func evalPow(lhs, rhs value.Value, ex *ast.BinaryOp, sp span.Span) (value.Value, *diag.Error) {
	li, ri, lf, rf, isInt, ok := numPair(lhs, rhs)
	if !ok {
		return nil, mismatch("**", lhs, rhs, ex)
	}
	if isInt && ri >= 0 {
		out := int64(1)
		for i := int64(0); i < ri; i++ {
			out *= li
		}
		return &value.Int{Value: out, Sp: sp}, nil
	}
	if isInt {
		lf, rf = float64(li), float64(ri)
	}
	return &value.Float{Value: math.Pow(lf, rf), Sp: sp}, nil
}

func evalCompare(op string, lhs, rhs value.Value, ex *ast.BinaryOp, sp span.Span) (value.Value, *diag.Error) {
	if li, ri, lf, rf, isInt, ok := numPair(lhs, rhs); ok {
		var cmp int
		if isInt {
			switch {
			case li < ri:
				cmp = -1
			case li > ri:
				cmp = 1
			}
		} else {
			switch {
			case lf < rf:
				cmp = -1
			case lf > rf:
				cmp = 1
			}
		}
		return &value.Bool{Value: applyCmp(op, cmp), Sp: sp}, nil
	}
	if ls, lok := lhs.(*value.String); lok {
		if rs, rok := rhs.(*value.String); rok {
			var cmp int
			switch {
			case ls.Value < rs.Value:
				cmp = -1
			case ls.Value > rs.Value:
				cmp = 1
			}
			return &value.Bool{Value: applyCmp(op, cmp), Sp: sp}, nil
		}
	}
	if lb, lok := lhs.(*value.Bool); lok {
		if rb, rok := rhs.(*value.Bool); rok {
			if op == "==" {
				return &value.Bool{Value: lb.Value == rb.Value, Sp: sp}, nil
			}
			if op == "!=" {
				return &value.Bool{Value: lb.Value != rb.Value, Sp: sp}, nil
			}
		}
	}
	if op == "==" || op == "!=" {
		if _, lok := lhs.(*value.Nothing); lok {
			_, rok := rhs.(*value.Nothing)
			return &value.Bool{Value: rok == (op == "=="), Sp: sp}, nil
		}
		if _, rok := rhs.(*value.Nothing); rok {
			return &value.Bool{Value: op == "!=", Sp: sp}, nil
		}
	}
	return nil, mismatch(op, lhs, rhs, ex)
}

func applyCmp(op string, cmp int) bool {
	switch op {
	case "==":
		return cmp == 0
	case "!=":
		return cmp != 0
	case "<":
		return cmp < 0
	case "<=":
		return cmp <= 0
	case ">":
		return cmp > 0
	case ">=":
		return cmp >= 0
	}
	return false
}
