package ast

import "github.com/rillshell/rill/internal/span"

// Pipeline chains stages left to right; each stage after the first is a
// Call receiving the previous stage's output as its pipeline input.
type Pipeline struct {
	Stages []Expr
	Sp     span.Span
}

func (e *Pipeline) Span() span.Span { return e.Sp }
func (*Pipeline) exprNode()         {}
