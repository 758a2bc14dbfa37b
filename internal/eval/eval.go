// Package eval walks parsed blocks, threading the call stack and the
// shared cancellation token through every stage, and turns each name it
// meets into a binding via the engine's scope chain.
package eval

import (
	"sync"

	"github.com/rillshell/rill/internal/ast"
	"github.com/rillshell/rill/internal/config"
	"github.com/rillshell/rill/internal/diag"
	"github.com/rillshell/rill/internal/engine"
	"github.com/rillshell/rill/internal/pipeline"
	"github.com/rillshell/rill/internal/value"
)

// declCache remembers which Def and block nodes already own a registry
// id, so a block body that runs many times registers each one once.
// Shared across worker clones, hence the lock.
type declCache struct {
	mu     sync.Mutex
	m      map[*ast.Def]engine.DeclId
	blocks map[*ast.Block]int
}

func newDeclCache() *declCache {
	return &declCache{
		m:      make(map[*ast.Def]engine.DeclId),
		blocks: make(map[*ast.Block]int),
	}
}

// declID returns the id for a Def, minting one under the cache lock so
// two workers predeclaring the same node never mint twice.
func (c *declCache) declID(d *ast.Def, register func() engine.DeclId) engine.DeclId {
	c.mu.Lock()
	defer c.mu.Unlock()
	if id, ok := c.m[d]; ok {
		return id
	}
	id := register()
	c.m[d] = id
	return id
}

func (c *declCache) blockID(b *ast.Block, register func(*ast.Block) int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if id, ok := c.blocks[b]; ok {
		return id
	}
	id := register(b)
	c.blocks[b] = id
	return id
}

// Evaluator owns one evaluation pass: a working-set delta over the
// session state, the scope stack, and the shared cancellation token.
type Evaluator struct {
	state     *engine.EngineState
	delta     *engine.StateDelta
	stack     *engine.Stack
	interrupt *pipeline.Interrupt
	workers   int
	decls     *declCache
}

// New prepares an evaluator for a single pass against state. Builtins are
// expected to be registered on the state already (see RegisterBuiltins).
func New(state *engine.EngineState) *Evaluator {
	delta := engine.NewStateDelta(state)
	return &Evaluator{
		state:     state,
		delta:     delta,
		stack:     engine.NewStack(state, delta),
		interrupt: pipeline.NewInterrupt(),
		workers:   config.DefaultWorkers,
		decls:     newDeclCache(),
	}
}

func (e *Evaluator) SetWorkers(n int) { e.workers = n }

// Interrupt exposes the pass's cancellation token so an embedder can
// trigger it from another goroutine.
func (e *Evaluator) Interrupt() *pipeline.Interrupt { return e.interrupt }

func (e *Evaluator) Workers() int { return e.workers }

// EnvVar resolves an environment binding through the scope chain, down
// through the frame overlays to the session environment.
func (e *Evaluator) EnvVar(name string) (value.Value, bool) {
	return e.stack.ResolveEnv(name)
}

func (e *Evaluator) EnvNames() []string { return e.stack.EnvNames() }

func (e *Evaluator) declID(s *ast.Def) engine.DeclId {
	return e.decls.declID(s, func() engine.DeclId {
		return e.delta.AddDecl(&engine.Decl{Name: s.Name, Params: s.Params, Body: s.Body})
	})
}

// derive builds an evaluator sharing this pass's state but running on its
// own stack.
func (e *Evaluator) derive(stack *engine.Stack) *Evaluator {
	return &Evaluator{
		state:     e.state,
		delta:     e.delta,
		stack:     stack,
		interrupt: e.interrupt,
		workers:   e.workers,
		decls:     e.decls,
	}
}

// ForWorker clones the evaluation context for a parallel worker: same
// state and delta, an independent copy of the scope chain, and a private
// declaration cache so a def inside the worker's block mints and
// finalizes its own registry entry. Two workers running the same def
// therefore never touch one Decl, and each call resolves to the instance
// carrying that worker's captures.
func (e *Evaluator) ForWorker() engine.CallContext {
	w := e.derive(e.stack.Clone())
	w.decls = newDeclCache()
	return w
}

// EvalProgram runs a whole parsed program. On success the pass's pending
// declarations, modules, and env changes merge atomically into the
// session state; on failure nothing does.
func (e *Evaluator) EvalProgram(program *ast.Block, input pipeline.PipelineData) (pipeline.PipelineData, *diag.Error) {
	out, err := e.evalStmts(program, input)
	if err != nil {
		return pipeline.Empty(), err
	}
	// The pipeline result may be lazy; force it before committing so the
	// caller never observes a half-merged pass through a live stream.
	result := out.IntoValue(program.Sp)
	e.foldTopFrame()
	e.state.Merge(e.delta)
	return pipeline.FromValue(result), nil
}

// foldTopFrame moves the program's top-scope bindings into the delta: the
// top frame is the session's own scope, so what it accumulated outlives
// the pass.
func (e *Evaluator) foldTopFrame() {
	top := e.stack.TopFrame()
	for name := range top.HiddenDecls() {
		e.delta.HideDecl(name)
	}
	for name, id := range top.ActiveDecls() {
		e.delta.SetTopDecl(name, id)
	}
	for name, v := range top.EnvOverlay() {
		e.delta.SetEnv(name, v)
	}
	for name := range top.HiddenEnv() {
		e.delta.HideEnv(name)
	}
}

// evalBlock pushes a frame, runs the block, and pops the frame, so any
// binding the block created is discarded on every exit path.
func (e *Evaluator) evalBlock(b *ast.Block, input pipeline.PipelineData) (pipeline.PipelineData, *diag.Error) {
	e.stack.PushFrame()
	defer e.stack.PopFrame()
	return e.evalStmts(b, input)
}

// evalStmts runs the block's statements in the current frame. All
// declarations are pre-registered first: duplicate names without an
// intervening hide abort the block before any statement runs, and
// commands may call commands declared later in the same block.
func (e *Evaluator) evalStmts(b *ast.Block, input pipeline.PipelineData) (pipeline.PipelineData, *diag.Error) {
	if err := e.predeclare(b.Stmts); err != nil {
		return pipeline.Empty(), err
	}
	out := pipeline.Empty()
	for i, stmt := range b.Stmts {
		data, err := e.evalStmt(stmt, input)
		if err != nil {
			return pipeline.Empty(), err
		}
		if i == len(b.Stmts)-1 {
			out = data
		} else if data.Stream != nil {
			// Drain intermediate streams for their effects.
			data.Stream.Collect()
		}
	}
	return out, nil
}

// predeclare registers the first declaration per name before the block
// body runs. A second declaration of a live name in the same block is a
// duplicate; with a hide in between the redeclaration is legal and gets
// installed later, when evaluation reaches it.
func (e *Evaluator) predeclare(stmts []ast.Statement) *diag.Error {
	const (
		unseen = iota
		live
		hidden
	)
	states := make(map[string]int)
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *ast.Def:
			switch states[s.Name] {
			case live:
				return diag.NewDuplicateDeclaration(s.Name, s.Sp)
			case unseen:
				e.stack.AddDecl(s.Name, e.declID(s))
			}
			states[s.Name] = live
		case *ast.Hide:
			if len(s.Pattern.Members) == 0 && states[s.Pattern.Head] == live {
				states[s.Pattern.Head] = hidden
			}
		}
	}
	return nil
}

func (e *Evaluator) evalStmt(stmt ast.Statement, input pipeline.PipelineData) (pipeline.PipelineData, *diag.Error) {
	switch s := stmt.(type) {
	case *ast.Let:
		v, err := e.EvalExpr(s.Init)
		if err != nil {
			return pipeline.Empty(), err
		}
		e.stack.AddVar(s.Name, v)
		return pipeline.Empty(), nil

	case *ast.LetEnv:
		v, err := e.EvalExpr(s.Init)
		if err != nil {
			return pipeline.Empty(), err
		}
		e.stack.SetEnv(s.Name, v)
		return pipeline.Empty(), nil

	case *ast.Def:
		return pipeline.Empty(), e.evalDef(s)

	case *ast.ModuleDecl:
		return pipeline.Empty(), e.evalModule(s)

	case *ast.Use:
		return pipeline.Empty(), e.stack.Import(s.Pattern)

	case *ast.Hide:
		return pipeline.Empty(), e.stack.HidePattern(s.Pattern)

	case *ast.ExprStmt:
		return e.evalExprData(s.Expr, input)

	case *ast.EnvDecl:
		return pipeline.Empty(), diag.NewEngineFailed("env declaration outside a module")

	default:
		return pipeline.Empty(), diag.NewEngineFailed("unknown statement")
	}
}

// evalDef finalizes a declaration at its statement: captures and defining
// scope snapshotted here, and — when the name was hidden since the
// predeclaration — a fresh visible entry installed, which is what makes
// redeclaration-after-hide resolve to the new declaration only.
func (e *Evaluator) evalDef(s *ast.Def) *diag.Error {
	id := e.declID(s)
	decl, found := e.delta.Decl(id)
	if !found {
		return diag.NewEngineFailed("declaration missing from registry")
	}
	decl.Finalize(e.stack.VisibleVars(), e.stack.ScopeSnapshot())
	if !e.stack.HasActiveDecl(s.Name, id) {
		e.stack.AddDecl(s.Name, id)
	}
	return nil
}

// evalModule evaluates a module declaration into an importable Module.
// Every def is visible inside the module, exported or not; exported env
// blocks run in the module's internal scope, so they may call internal
// commands.
func (e *Evaluator) evalModule(s *ast.ModuleDecl) *diag.Error {
	e.stack.PushFrame()
	defer e.stack.PopFrame()

	mod := engine.NewModule(s.Name)

	var defs []*ast.Def
	for _, entry := range s.Entries {
		if d, ok := entry.Stmt.(*ast.Def); ok {
			defs = append(defs, d)
		}
	}
	declared := make(map[string]bool)
	ids := make(map[*ast.Def]engine.DeclId, len(defs))
	for _, d := range defs {
		if declared[d.Name] {
			return diag.NewDuplicateDeclaration(d.Name, d.Sp)
		}
		declared[d.Name] = true
		id := e.declID(d)
		e.stack.AddDecl(d.Name, id)
		ids[d] = id
	}
	for _, d := range defs {
		decl, _ := e.delta.Decl(ids[d])
		decl.Finalize(e.stack.VisibleVars(), e.stack.ScopeSnapshot())
	}

	for _, entry := range s.Entries {
		switch d := entry.Stmt.(type) {
		case *ast.Def:
			if entry.Exported {
				mod.Decls[d.Name] = ids[d]
			}
		case *ast.EnvDecl:
			out, err := e.evalBlock(d.Body, pipeline.Empty())
			if err != nil {
				return err
			}
			if entry.Exported {
				mod.Envs[d.Name] = out.IntoValue(d.Sp)
			}
		default:
			return diag.NewEngineFailed("unsupported module entry")
		}
	}
	e.delta.AddModule(mod)
	return nil
}

// RunBlockValue runs a block reference the way `each` and friends need:
// captures copied into a fresh frame at block entry, args bound to the
// declared parameters or to the implicit "it".
func (e *Evaluator) RunBlockValue(b *value.Block, args []value.Value, input pipeline.PipelineData) (pipeline.PipelineData, *diag.Error) {
	blk, ok := e.delta.Block(b.ID)
	if !ok {
		return pipeline.Empty(), diag.NewEngineFailed("dangling block reference")
	}
	e.stack.PushFrame()
	defer e.stack.PopFrame()
	for name, v := range b.Captures {
		e.stack.AddVar(name, v)
	}
	params := blk.Params
	if len(params) == 0 {
		params = []string{config.ItVarName}
	}
	for i, p := range params {
		if i < len(args) {
			e.stack.AddVar(p, args[i])
		} else {
			e.stack.AddVar(p, &value.Nothing{Sp: blk.Sp})
		}
	}
	return e.evalStmts(blk, input)
}

// runCall resolves the command name through the scope chain and
// dispatches by declaration id: builtins run directly, user declarations
// run their body on the declaration's own scope chain with captures and
// parameters bound in a fresh frame — never on the caller's frames.
func (e *Evaluator) runCall(call *ast.Call, input pipeline.PipelineData) (pipeline.PipelineData, *diag.Error) {
	id, ok := e.stack.ResolveCommand(call.Name)
	if !ok {
		return pipeline.Empty(), diag.NewCommandNotFound(call.NameSp)
	}
	decl, ok := e.delta.Decl(id)
	if !ok {
		return pipeline.Empty(), diag.NewEngineFailed("call site resolved to a dangling declaration")
	}
	if decl.Builtin != nil {
		return decl.Builtin.Run(e, call, input)
	}

	args := make([]value.Value, len(call.Args))
	for i, a := range call.Args {
		v, err := e.EvalExpr(a)
		if err != nil {
			return pipeline.Empty(), err
		}
		args[i] = v
	}

	captures, scope := decl.Closure()
	body := e.derive(engine.NewStackFrom(e.state, e.delta, scope))
	for name, v := range captures {
		body.stack.AddVar(name, v)
	}
	for i, p := range decl.Params {
		if i < len(args) {
			body.stack.AddVar(p, args[i])
		} else {
			body.stack.AddVar(p, &value.Nothing{Sp: call.Sp})
		}
	}
	return body.evalStmts(decl.Body, input)
}

// EvalExpr evaluates an expression to a single materialized value;
// streaming results collect here.
func (e *Evaluator) EvalExpr(expr ast.Expr) (value.Value, *diag.Error) {
	data, err := e.evalExprData(expr, pipeline.Empty())
	if err != nil {
		return nil, err
	}
	return data.IntoValue(expr.Span()), nil
}

func (e *Evaluator) evalExprData(expr ast.Expr, input pipeline.PipelineData) (pipeline.PipelineData, *diag.Error) {
	switch ex := expr.(type) {
	case *ast.Pipeline:
		return e.evalPipeline(ex, input)

	case *ast.Call:
		return e.runCall(ex, input)

	case *ast.If:
		return e.evalIf(ex, input)

	case *ast.SubExpr:
		return e.evalBlock(ex.Block, pipeline.Empty())

	case *ast.BlockLit:
		return pipeline.FromValue(&value.Block{
			ID:       e.decls.blockID(ex.Block, e.delta.AddBlock),
			Captures: e.stack.VisibleVars(),
			Sp:       ex.Sp,
		}), nil

	case *ast.Var:
		v, ok := e.stack.Var(ex.Name)
		if !ok {
			return pipeline.Empty(), diag.NewVariableNotFound(ex.Sp)
		}
		return pipeline.FromValue(v), nil

	case *ast.PathExpr:
		head, err := e.EvalExpr(ex.Head)
		if err != nil {
			return pipeline.Empty(), err
		}
		v, ferr := value.FollowCellPath(head, ex.Members)
		if ferr != nil {
			return pipeline.Empty(), ferr
		}
		return pipeline.FromValue(v), nil

	case *ast.BinaryOp:
		v, err := e.evalBinaryOp(ex)
		if err != nil {
			return pipeline.Empty(), err
		}
		return pipeline.FromValue(v), nil

	case *ast.IntLit:
		return pipeline.FromValue(&value.Int{Value: ex.Value, Sp: ex.Sp}), nil
	case *ast.FloatLit:
		return pipeline.FromValue(&value.Float{Value: ex.Value, Sp: ex.Sp}), nil
	case *ast.StringLit:
		return pipeline.FromValue(&value.String{Value: ex.Value, Sp: ex.Sp}), nil
	case *ast.BoolLit:
		return pipeline.FromValue(&value.Bool{Value: ex.Value, Sp: ex.Sp}), nil
	case *ast.NothingLit:
		return pipeline.FromValue(&value.Nothing{Sp: ex.Sp}), nil

	case *ast.ListLit:
		items := make([]value.Value, len(ex.Items))
		for i, item := range ex.Items {
			v, err := e.EvalExpr(item)
			if err != nil {
				return pipeline.Empty(), err
			}
			items[i] = v
		}
		return pipeline.FromValue(&value.List{Items: items, Sp: ex.Sp}), nil

	case *ast.RecordLit:
		vals := make([]value.Value, len(ex.Vals))
		for i, v := range ex.Vals {
			val, err := e.EvalExpr(v)
			if err != nil {
				return pipeline.Empty(), err
			}
			vals[i] = val
		}
		return pipeline.FromValue(&value.Record{Cols: ex.Cols, Vals: vals, Sp: ex.Sp}), nil

	case *ast.RangeLit:
		return e.evalRange(ex)

	case *ast.CellPathLit:
		return pipeline.Empty(), diag.NewEngineFailed("cell path used outside a command argument")

	default:
		return pipeline.Empty(), diag.NewEngineFailed("unknown expression")
	}
}

func (e *Evaluator) evalPipeline(p *ast.Pipeline, input pipeline.PipelineData) (pipeline.PipelineData, *diag.Error) {
	data := input
	for i, stage := range p.Stages {
		if call, ok := stage.(*ast.Call); ok {
			out, err := e.runCall(call, data)
			if err != nil {
				return pipeline.Empty(), err
			}
			data = out
			continue
		}
		if i > 0 {
			return pipeline.Empty(), diag.NewEngineFailed("non-call pipeline stage after the first")
		}
		out, err := e.evalExprData(stage, data)
		if err != nil {
			return pipeline.Empty(), err
		}
		data = out
	}
	return data, nil
}

func (e *Evaluator) evalIf(ex *ast.If, input pipeline.PipelineData) (pipeline.PipelineData, *diag.Error) {
	cond, err := e.EvalExpr(ex.Cond)
	if err != nil {
		return pipeline.Empty(), err
	}
	b, ok := cond.(*value.Bool)
	if !ok {
		return pipeline.Empty(), diag.NewTypeMismatch("expected bool condition", ex.Cond.Span())
	}
	if b.Value {
		return e.evalBlock(ex.Then, input)
	}
	switch alt := ex.Else.(type) {
	case nil:
		return pipeline.Empty(), nil
	case *ast.BlockLit:
		return e.evalBlock(alt.Block, input)
	case *ast.If:
		return e.evalIf(alt, input)
	default:
		return pipeline.Empty(), diag.NewEngineFailed("unsupported else branch")
	}
}

func (e *Evaluator) evalRange(ex *ast.RangeLit) (pipeline.PipelineData, *diag.Error) {
	from, err := e.EvalExpr(ex.From)
	if err != nil {
		return pipeline.Empty(), err
	}
	to, err := e.EvalExpr(ex.To)
	if err != nil {
		return pipeline.Empty(), err
	}
	var incr value.Value
	if ex.Incr != nil {
		incr, err = e.EvalExpr(ex.Incr)
		if err != nil {
			return pipeline.Empty(), err
		}
	}
	r, rerr := value.NewRange(from, to, incr, ex.Inclusive, ex.Sp)
	if rerr != nil {
		return pipeline.Empty(), rerr
	}
	return pipeline.FromValue(r), nil
}

var _ engine.CallContext = (*Evaluator)(nil)
