package eval

import (
	"runtime"

	"github.com/rillshell/rill/internal/ast"
	"github.com/rillshell/rill/internal/diag"
	"github.com/rillshell/rill/internal/engine"
	"github.com/rillshell/rill/internal/pipeline"
	"github.com/rillshell/rill/internal/value"
)

func cmdEcho() engine.Command {
	return &builtin{
		name:  "echo",
		usage: "Emit the arguments as pipeline output.",
		run: func(ctx engine.CallContext, call *ast.Call, input pipeline.PipelineData) (pipeline.PipelineData, *diag.Error) {
			switch len(call.Args) {
			case 0:
				return pipeline.Empty(), nil
			case 1:
				v, err := argValue(ctx, call, 0)
				if err != nil {
					return pipeline.Empty(), err
				}
				return pipeline.FromValue(v), nil
			default:
				items := make([]value.Value, len(call.Args))
				for i := range call.Args {
					v, err := argValue(ctx, call, i)
					if err != nil {
						return pipeline.Empty(), err
					}
					items[i] = v
				}
				return pipeline.FromStream(pipeline.FromSlice(items), nil), nil
			}
		},
	}
}

func cmdDo() engine.Command {
	return &builtin{
		name:  "do",
		usage: "Run a block value, binding any extra arguments to its parameters.",
		run: func(ctx engine.CallContext, call *ast.Call, input pipeline.PipelineData) (pipeline.PipelineData, *diag.Error) {
			block, err := argBlock(ctx, call, 0)
			if err != nil {
				return pipeline.Empty(), err
			}
			args := make([]value.Value, 0, len(call.Args)-1)
			for i := 1; i < len(call.Args); i++ {
				v, aerr := argValue(ctx, call, i)
				if aerr != nil {
					return pipeline.Empty(), aerr
				}
				args = append(args, v)
			}
			return ctx.RunBlockValue(block, args, input)
		},
	}
}

func cmdGetEnv() engine.Command {
	return &builtin{
		name:  "get-env",
		usage: "Read an environment binding; unknown names fail with a suggestion.",
		run: func(ctx engine.CallContext, call *ast.Call, input pipeline.PipelineData) (pipeline.PipelineData, *diag.Error) {
			name, err := argString(ctx, call, 0)
			if err != nil {
				return pipeline.Empty(), err
			}
			v, ok := ctx.EnvVar(name)
			if !ok {
				return pipeline.Empty(), diag.NewEnvVarNotFound(name, call.Sp, ctx.EnvNames())
			}
			return pipeline.FromValue(v), nil
		},
	}
}

func cmdEach() engine.Command {
	return &builtin{
		name:  "each",
		usage: "Run a block on every input element.",
		run: func(ctx engine.CallContext, call *ast.Call, input pipeline.PipelineData) (pipeline.PipelineData, *diag.Error) {
			block, err := argBlock(ctx, call, 0)
			if err != nil {
				return pipeline.Empty(), err
			}
			return input.Map(ctx.Interrupt(), func(v value.Value) value.Value {
				out, rerr := ctx.RunBlockValue(block, []value.Value{v}, pipeline.Empty())
				if rerr != nil {
					return value.NewError(rerr)
				}
				return out.IntoValue(v.Span())
			}), nil
		},
	}
}

func cmdParEach() engine.Command {
	return &builtin{
		name:  "par-each",
		usage: "Run a block on every input element across a worker pool; output keeps input order.",
		run: func(ctx engine.CallContext, call *ast.Call, input pipeline.PipelineData) (pipeline.PipelineData, *diag.Error) {
			block, err := argBlock(ctx, call, 0)
			if err != nil {
				return pipeline.Empty(), err
			}
			workers := ctx.Workers()
			if workers <= 0 {
				workers = runtime.NumCPU()
			}
			// One evaluation context per worker, leased per element so no
			// two goroutines ever share a scope chain.
			contexts := make(chan engine.CallContext, workers)
			for i := 0; i < workers; i++ {
				contexts <- ctx.ForWorker()
			}
			return input.ParEach(workers, ctx.Interrupt(), func(_ int, v value.Value) value.Value {
				wc := <-contexts
				defer func() { contexts <- wc }()
				out, rerr := wc.RunBlockValue(block, []value.Value{v}, pipeline.Empty())
				if rerr != nil {
					return value.NewError(rerr)
				}
				return out.IntoValue(v.Span())
			}), nil
		},
	}
}

func cmdGet() engine.Command {
	return &builtin{
		name:  "get",
		usage: "Follow a cell path into the input.",
		run: func(ctx engine.CallContext, call *ast.Call, input pipeline.PipelineData) (pipeline.PipelineData, *diag.Error) {
			members, err := argCellPath(ctx, call, 0)
			if err != nil {
				return pipeline.Empty(), err
			}
			v, ferr := value.FollowCellPath(input.IntoValue(call.Sp), members)
			if ferr != nil {
				return pipeline.Empty(), ferr
			}
			return pipeline.FromValue(v), nil
		},
	}
}

func cmdUpdate() engine.Command {
	return &builtin{
		name:  "update",
		usage: "Replace the value at a cell path, leaving every other cell untouched.",
		run: func(ctx engine.CallContext, call *ast.Call, input pipeline.PipelineData) (pipeline.PipelineData, *diag.Error) {
			members, err := argCellPath(ctx, call, 0)
			if err != nil {
				return pipeline.Empty(), err
			}
			repl, err := argValue(ctx, call, 1)
			if err != nil {
				return pipeline.Empty(), err
			}
			replace := func(old value.Value) (value.Value, *diag.Error) {
				if block, ok := repl.(*value.Block); ok {
					out, rerr := ctx.RunBlockValue(block, []value.Value{old}, pipeline.Empty())
					if rerr != nil {
						return nil, rerr
					}
					return out.IntoValue(old.Span()), nil
				}
				return repl, nil
			}
			v, uerr := value.UpdateCellPath(input.IntoValue(call.Sp), members, replace)
			if uerr != nil {
				return pipeline.Empty(), uerr
			}
			return pipeline.FromValue(v), nil
		},
	}
}

func cmdSelect() engine.Command {
	return &builtin{
		name:  "select",
		usage: "Keep only the named columns.",
		run: func(ctx engine.CallContext, call *ast.Call, input pipeline.PipelineData) (pipeline.PipelineData, *diag.Error) {
			cols, err := columnArgs(ctx, call)
			if err != nil {
				return pipeline.Empty(), err
			}
			if input.Stream != nil {
				return input.Map(ctx.Interrupt(), func(row value.Value) value.Value {
					return value.ProjectRow(row, cols, row.Span())
				}), nil
			}
			v := input.IntoValue(call.Sp)
			switch t := v.(type) {
			case *value.List:
				items := make([]value.Value, len(t.Items))
				for i, row := range t.Items {
					items[i] = value.ProjectRow(row, cols, row.Span())
				}
				return pipeline.FromValue(&value.List{Items: items, Sp: t.Sp}), nil
			default:
				return pipeline.FromValue(value.ProjectRow(v, cols, v.Span())), nil
			}
		},
	}
}

func cmdReject() engine.Command {
	return &builtin{
		name:  "reject",
		usage: "Drop the named columns.",
		run: func(ctx engine.CallContext, call *ast.Call, input pipeline.PipelineData) (pipeline.PipelineData, *diag.Error) {
			cols, err := columnArgs(ctx, call)
			if err != nil {
				return pipeline.Empty(), err
			}
			rejected := make(map[string]bool, len(cols))
			for _, c := range cols {
				rejected[c] = true
			}
			drop := func(row value.Value) value.Value {
				rec, ok := row.(*value.Record)
				if !ok {
					return row
				}
				var keep []string
				for _, c := range rec.Cols {
					if !rejected[c] {
						keep = append(keep, c)
					}
				}
				return value.ProjectRow(rec, keep, rec.Sp)
			}
			if input.Stream != nil {
				return input.Map(ctx.Interrupt(), drop), nil
			}
			v := input.IntoValue(call.Sp)
			if list, ok := v.(*value.List); ok {
				items := make([]value.Value, len(list.Items))
				for i, row := range list.Items {
					items[i] = drop(row)
				}
				return pipeline.FromValue(&value.List{Items: items, Sp: list.Sp}), nil
			}
			return pipeline.FromValue(drop(v)), nil
		},
	}
}

func cmdDropColumn() engine.Command {
	return &builtin{
		name:  "drop-column",
		usage: "Drop the trailing n columns of a table; defaults to one.",
		run: func(ctx engine.CallContext, call *ast.Call, input pipeline.PipelineData) (pipeline.PipelineData, *diag.Error) {
			n := int64(1)
			if len(call.Args) > 0 {
				var err *diag.Error
				n, err = argInt(ctx, call, 0)
				if err != nil {
					return pipeline.Empty(), err
				}
			}
			v := input.IntoValue(call.Sp)
			switch t := v.(type) {
			case *value.List:
				keep := value.DropTrailing(value.TableSchema(t.Items), int(n))
				items := make([]value.Value, len(t.Items))
				for i, row := range t.Items {
					items[i] = value.ProjectRow(row, keep, row.Span())
				}
				return pipeline.FromValue(&value.List{Items: items, Sp: t.Sp}), nil
			case *value.Record:
				keep := value.DropTrailing(t.Cols, int(n))
				return pipeline.FromValue(value.ProjectRow(t, keep, t.Sp)), nil
			default:
				return pipeline.Empty(), diag.NewUnsupportedInput("expected a table or record", v.Span())
			}
		},
	}
}

func cmdRange() engine.Command {
	return &builtin{
		name:  "range",
		usage: "Keep the input rows whose index falls inside the range.",
		run: func(ctx engine.CallContext, call *ast.Call, input pipeline.PipelineData) (pipeline.PipelineData, *diag.Error) {
			v, err := argValue(ctx, call, 0)
			if err != nil {
				return pipeline.Empty(), err
			}
			r, ok := v.(*value.Range)
			if !ok {
				return pipeline.Empty(), diag.NewTypeMismatch("expected range", v.Span())
			}
			from, okF := r.From.(*value.Int)
			to, okT := r.To.(*value.Int)
			if !okF || !okT {
				return pipeline.Empty(), diag.NewInvalidRange(r.From.Inspect(), r.To.Inspect(), r.Sp)
			}
			lo, hi := from.Value, to.Value
			// End-relative bounds force materialization; positive bounds
			// keep the input lazy. Exclusivity applies only after a bound
			// has been resolved against the length, so 0..<0 stays on the
			// lazy path and selects nothing.
			if lo < 0 || hi < 0 {
				items := input.IntoIter().Collect()
				n := int64(len(items))
				if lo < 0 {
					lo += n
				}
				if hi < 0 {
					hi += n
				}
				if !r.Inclusive {
					hi--
				}
				if lo < 0 {
					lo = 0
				}
				if hi >= n {
					hi = n - 1
				}
				if lo > hi {
					return pipeline.FromStream(pipeline.FromSlice(nil), input.Meta), nil
				}
				return pipeline.FromStream(pipeline.FromSlice(items[lo:hi+1]), input.Meta), nil
			}
			if !r.Inclusive {
				hi--
			}
			if lo > hi {
				return pipeline.FromStream(pipeline.FromSlice(nil), input.Meta), nil
			}
			iter := input.IntoIter()
			idx := int64(0)
			next := func() (value.Value, bool) {
				for {
					if idx > hi {
						return nil, false
					}
					item, more := iter.Next()
					if !more {
						return nil, false
					}
					i := idx
					idx++
					if i >= lo {
						return item, true
					}
				}
			}
			return pipeline.FromStream(pipeline.FromFunc(next), input.Meta), nil
		},
	}
}

func cmdKeepUntil() engine.Command {
	return &builtin{
		name:  "keep-until",
		usage: "Pass input rows through until the predicate block first holds.",
		run: func(ctx engine.CallContext, call *ast.Call, input pipeline.PipelineData) (pipeline.PipelineData, *diag.Error) {
			block, err := argBlock(ctx, call, 0)
			if err != nil {
				return pipeline.Empty(), err
			}
			iter := input.IntoIter()
			done := false
			next := func() (value.Value, bool) {
				if done || ctx.Interrupt().Triggered() {
					return nil, false
				}
				item, more := iter.Next()
				if !more {
					return nil, false
				}
				out, rerr := ctx.RunBlockValue(block, []value.Value{item}, pipeline.Empty())
				if rerr != nil {
					done = true
					return value.NewError(rerr), true
				}
				if b, ok := out.IntoValue(item.Span()).(*value.Bool); ok && b.Value {
					done = true
					return nil, false
				}
				return item, true
			}
			return pipeline.FromStream(pipeline.FromFunc(next), input.Meta), nil
		},
	}
}

func cmdLength() engine.Command {
	return &builtin{
		name:  "length",
		usage: "Count the input rows.",
		run: func(ctx engine.CallContext, call *ast.Call, input pipeline.PipelineData) (pipeline.PipelineData, *diag.Error) {
			n := int64(0)
			iter := input.IntoIter()
			for !ctx.Interrupt().Triggered() {
				_, more := iter.Next()
				if !more {
					break
				}
				n++
			}
			return pipeline.FromValue(&value.Int{Value: n, Sp: call.Sp}), nil
		},
	}
}

func cmdWrap() engine.Command {
	return &builtin{
		name:  "wrap",
		usage: "Wrap each input value in a single-column record.",
		run: func(ctx engine.CallContext, call *ast.Call, input pipeline.PipelineData) (pipeline.PipelineData, *diag.Error) {
			col, err := argString(ctx, call, 0)
			if err != nil {
				return pipeline.Empty(), err
			}
			return input.Map(ctx.Interrupt(), func(v value.Value) value.Value {
				return &value.Record{Cols: []string{col}, Vals: []value.Value{v}, Sp: v.Span()}
			}), nil
		},
	}
}
