package eval

import (
	"github.com/rillshell/rill/internal/ast"
	"github.com/rillshell/rill/internal/diag"
	"github.com/rillshell/rill/internal/engine"
	"github.com/rillshell/rill/internal/pipeline"
	"github.com/rillshell/rill/internal/value"
)

func collectNumbers(input pipeline.PipelineData, call *ast.Call) ([]float64, bool, *diag.Error) {
	iter := input.IntoIter()
	var nums []float64
	ints := true
	for {
		v, more := iter.Next()
		if !more {
			break
		}
		switch n := v.(type) {
		case *value.Int:
			nums = append(nums, float64(n.Value))
		case *value.Float:
			nums = append(nums, n.Value)
			ints = false
		default:
			return nil, false, diag.NewUnsupportedInput("expected numeric input", v.Span())
		}
	}
	if len(nums) == 0 {
		return nil, false, diag.NewUnsupportedInput("expected numeric input", call.Sp)
	}
	return nums, ints, nil
}

func cmdMathSum() engine.Command {
	return &builtin{
		name:  "math-sum",
		usage: "Sum the input numbers; all-int input sums to an int.",
		run: func(ctx engine.CallContext, call *ast.Call, input pipeline.PipelineData) (pipeline.PipelineData, *diag.Error) {
			nums, ints, err := collectNumbers(input, call)
			if err != nil {
				return pipeline.Empty(), err
			}
			sum := 0.0
			for _, n := range nums {
				sum += n
			}
			if ints {
				return pipeline.FromValue(&value.Int{Value: int64(sum), Sp: call.Sp}), nil
			}
			return pipeline.FromValue(&value.Float{Value: sum, Sp: call.Sp}), nil
		},
	}
}

func cmdMathVariance() engine.Command {
	return &builtin{
		name:  "math-variance",
		usage: "Population variance of the input numbers.",
		run: func(ctx engine.CallContext, call *ast.Call, input pipeline.PipelineData) (pipeline.PipelineData, *diag.Error) {
			nums, _, err := collectNumbers(input, call)
			if err != nil {
				return pipeline.Empty(), err
			}
			mean := 0.0
			for _, n := range nums {
				mean += n
			}
			mean /= float64(len(nums))
			variance := 0.0
			for _, n := range nums {
				d := n - mean
				variance += d * d
			}
			variance /= float64(len(nums))
			return pipeline.FromValue(&value.Float{Value: variance, Sp: call.Sp}), nil
		},
	}
}
