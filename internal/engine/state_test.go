package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rillshell/rill/internal/ast"
	"github.com/rillshell/rill/internal/diag"
	"github.com/rillshell/rill/internal/pipeline"
	"github.com/rillshell/rill/internal/span"
	"github.com/rillshell/rill/internal/value"
)

func testBlock() *ast.Block {
	return &ast.Block{Sp: span.New(0, 1)}
}

func TestSessionsGetDistinctIDs(t *testing.T) {
	a := NewEngineState()
	b := NewEngineState()
	require.NotEqual(t, a.SessionID, b.SessionID)
}

func TestDeltaDeclIdsContinueCommittedNumbering(t *testing.T) {
	state := NewEngineState()
	first := state.RegisterBuiltin(&fakeCmd{name: "one"})

	delta := NewStateDelta(state)
	id := delta.AddDecl(&Decl{Name: "two"})
	require.Equal(t, int(first)+1, int(id))

	decl, ok := delta.Decl(id)
	require.True(t, ok)
	require.Equal(t, "two", decl.Name)

	// The committed side resolves through the delta too.
	decl, ok = delta.Decl(first)
	require.True(t, ok)
	require.Equal(t, "one", decl.Name)
}

func TestMergeCommitsDeclsBlocksModulesEnv(t *testing.T) {
	state := NewEngineState()
	delta := NewStateDelta(state)

	id := delta.AddDecl(&Decl{Name: "greet"})
	blockID := delta.AddBlock(testBlock())
	mod := NewModule("m")
	mod.Decls["greet"] = id
	delta.AddModule(mod)
	delta.SetTopDecl("greet", id)
	delta.SetEnv("PATH_SEP", &value.String{Value: ":"})

	state.Merge(delta)

	gotID, ok := state.GlobalDecl("greet")
	require.True(t, ok)
	require.Equal(t, id, gotID)

	_, ok = state.Block(blockID)
	require.True(t, ok)

	_, ok = state.Module("m")
	require.True(t, ok)

	v, ok := state.Env("PATH_SEP")
	require.True(t, ok)
	require.Equal(t, ":", v.(*value.String).Value)
}

func TestMergeHiddenEnvRemovesBinding(t *testing.T) {
	state := NewEngineState()

	d1 := NewStateDelta(state)
	d1.SetEnv("TEMP", &value.String{Value: "x"})
	state.Merge(d1)
	_, ok := state.Env("TEMP")
	require.True(t, ok)

	d2 := NewStateDelta(state)
	d2.HideEnv("TEMP")
	state.Merge(d2)
	_, ok = state.Env("TEMP")
	require.False(t, ok)
}

func TestMergeRemovesHiddenDecl(t *testing.T) {
	state := NewEngineState()

	d1 := NewStateDelta(state)
	d1.SetTopDecl("greet", d1.AddDecl(&Decl{Name: "greet"}))
	state.Merge(d1)
	_, ok := state.GlobalDecl("greet")
	require.True(t, ok)

	d2 := NewStateDelta(state)
	d2.HideDecl("greet")
	state.Merge(d2)
	_, ok = state.GlobalDecl("greet")
	require.False(t, ok)
}

func TestRedeclInDeltaOverridesHide(t *testing.T) {
	state := NewEngineState()
	delta := NewStateDelta(state)
	delta.HideDecl("greet")
	delta.SetTopDecl("greet", delta.AddDecl(&Decl{Name: "greet"}))
	state.Merge(delta)

	_, ok := state.GlobalDecl("greet")
	require.True(t, ok)
}

func TestUncommittedDeltaInvisibleToState(t *testing.T) {
	state := NewEngineState()
	delta := NewStateDelta(state)
	delta.SetTopDecl("pending", delta.AddDecl(&Decl{Name: "pending"}))

	_, ok := state.GlobalDecl("pending")
	require.False(t, ok)
}

func TestStackHideCommandScopes(t *testing.T) {
	state := NewEngineState()
	id := state.RegisterBuiltin(&fakeCmd{name: "ls"})
	delta := NewStateDelta(state)
	stack := NewStack(state, delta)

	got, ok := stack.ResolveCommand("ls")
	require.True(t, ok)
	require.Equal(t, id, got)

	stack.PushFrame()
	require.True(t, stack.HideCommand("ls"))
	_, ok = stack.ResolveCommand("ls")
	require.False(t, ok)
	require.False(t, stack.HideCommand("ls"), "second hide has nothing left to hide")

	stack.PopFrame()
	_, ok = stack.ResolveCommand("ls")
	require.True(t, ok, "hide marker must die with its frame")
}

func TestStackVarBoundary(t *testing.T) {
	state := NewEngineState()
	delta := NewStateDelta(state)
	outer := NewStack(state, delta)
	outer.AddVar("x", &value.Int{Value: 1})

	body := NewStackFrom(state, delta, outer.ScopeSnapshot())
	_, ok := body.Var("x")
	require.False(t, ok, "command body must not see caller variables")

	body.AddVar("p", &value.Int{Value: 2})
	_, ok = body.Var("p")
	require.True(t, ok)

	// Commands still resolve through the full chain.
	id := delta.AddDecl(&Decl{Name: "helper"})
	outer.AddDecl("helper", id)
	body2 := NewStackFrom(state, delta, outer.ScopeSnapshot())
	got, ok := body2.ResolveCommand("helper")
	require.True(t, ok)
	require.Equal(t, id, got)
}

type fakeCmd struct{ name string }

func (f *fakeCmd) Name() string  { return f.name }
func (f *fakeCmd) Usage() string { return "" }
func (f *fakeCmd) Run(CallContext, *ast.Call, pipeline.PipelineData) (pipeline.PipelineData, *diag.Error) {
	return pipeline.Empty(), nil
}
