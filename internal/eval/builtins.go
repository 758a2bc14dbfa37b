package eval

import (
	"github.com/rillshell/rill/internal/ast"
	"github.com/rillshell/rill/internal/diag"
	"github.com/rillshell/rill/internal/engine"
	"github.com/rillshell/rill/internal/pipeline"
	"github.com/rillshell/rill/internal/value"
)

// builtin adapts a plain function to the Command interface.
type builtin struct {
	name  string
	usage string
	run   func(ctx engine.CallContext, call *ast.Call, input pipeline.PipelineData) (pipeline.PipelineData, *diag.Error)
}

func (b *builtin) Name() string  { return b.name }
func (b *builtin) Usage() string { return b.usage }

func (b *builtin) Run(ctx engine.CallContext, call *ast.Call, input pipeline.PipelineData) (pipeline.PipelineData, *diag.Error) {
	return b.run(ctx, call, input)
}

// RegisterBuiltins installs the builtin command set into the global
// declaration table.
func RegisterBuiltins(state *engine.EngineState) {
	for _, cmd := range builtinCommands() {
		state.RegisterBuiltin(cmd)
	}
}

func builtinCommands() []engine.Command {
	return []engine.Command{
		cmdDo(),
		cmdGetEnv(),
		cmdEach(),
		cmdParEach(),
		cmdGet(),
		cmdSelect(),
		cmdReject(),
		cmdDropColumn(),
		cmdRange(),
		cmdKeepUntil(),
		cmdLength(),
		cmdWrap(),
		cmdLines(),
		cmdParse(),
		cmdEcho(),
		cmdUpdate(),
		cmdStrCollect(),
		cmdStrScreamingSnakeCase(),
		cmdStrSubstring(),
		cmdAnsiStrip(),
		cmdHashMd5(),
		cmdMathSum(),
		cmdMathVariance(),
		cmdFromJSON(),
		cmdFromTOML(),
		cmdFromINI(),
		cmdFromYAML(),
		cmdFromURL(),
		cmdURLHost(),
		cmdURLQuery(),
	}
}

// arg fetches the i-th positional argument expression.
func arg(call *ast.Call, i int) (ast.Expr, *diag.Error) {
	if i >= len(call.Args) {
		return nil, diag.NewUnsupportedInput("missing required argument", call.Sp)
	}
	return call.Args[i], nil
}

func argValue(ctx engine.CallContext, call *ast.Call, i int) (value.Value, *diag.Error) {
	ex, err := arg(call, i)
	if err != nil {
		return nil, err
	}
	return ctx.EvalExpr(ex)
}

func argString(ctx engine.CallContext, call *ast.Call, i int) (string, *diag.Error) {
	v, err := argValue(ctx, call, i)
	if err != nil {
		return "", err
	}
	s, ok := v.(*value.String)
	if !ok {
		return "", diag.NewTypeMismatch("expected string", v.Span())
	}
	return s.Value, nil
}

func argInt(ctx engine.CallContext, call *ast.Call, i int) (int64, *diag.Error) {
	v, err := argValue(ctx, call, i)
	if err != nil {
		return 0, err
	}
	n, ok := v.(*value.Int)
	if !ok {
		return 0, diag.NewTypeMismatch("expected int", v.Span())
	}
	return n.Value, nil
}

func argBlock(ctx engine.CallContext, call *ast.Call, i int) (*value.Block, *diag.Error) {
	v, err := argValue(ctx, call, i)
	if err != nil {
		return nil, err
	}
	b, ok := v.(*value.Block)
	if !ok {
		return nil, diag.NewTypeMismatch("expected block", v.Span())
	}
	return b, nil
}

// argCellPath reads a bare cell path argument; a plain string argument is
// accepted as a single-column path.
func argCellPath(ctx engine.CallContext, call *ast.Call, i int) ([]value.PathMember, *diag.Error) {
	ex, err := arg(call, i)
	if err != nil {
		return nil, err
	}
	if cp, ok := ex.(*ast.CellPathLit); ok {
		return cp.Members, nil
	}
	v, verr := ctx.EvalExpr(ex)
	if verr != nil {
		return nil, verr
	}
	if s, ok := v.(*value.String); ok {
		return []value.PathMember{value.PathString(s.Value, v.Span())}, nil
	}
	return nil, diag.NewTypeMismatch("expected cell path", ex.Span())
}

// columnArgs reads every argument as a column name for the projection
// commands.
func columnArgs(ctx engine.CallContext, call *ast.Call) ([]string, *diag.Error) {
	cols := make([]string, 0, len(call.Args))
	for i := range call.Args {
		members, err := argCellPath(ctx, call, i)
		if err != nil {
			return nil, err
		}
		if len(members) != 1 || !members[0].IsString {
			return nil, diag.NewTypeMismatch("expected column name", call.Args[i].Span())
		}
		cols = append(cols, members[0].String)
	}
	return cols, nil
}
