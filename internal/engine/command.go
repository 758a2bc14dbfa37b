package engine

import (
	"sync"

	"github.com/rillshell/rill/internal/ast"
	"github.com/rillshell/rill/internal/diag"
	"github.com/rillshell/rill/internal/pipeline"
	"github.com/rillshell/rill/internal/value"
)

// DeclId identifies a declaration in the registry. Names resolve to ids
// once, during scope resolution; call sites dispatch by id.
type DeclId int

// CallContext is what a command implementation gets to work with: argument
// evaluation, block invocation, and the shared cancellation token. The
// evaluator provides the concrete implementation.
type CallContext interface {
	EvalExpr(e ast.Expr) (value.Value, *diag.Error)
	// RunBlockValue runs a block reference with its captures, binding args
	// to the block parameters (or "it" when the block declares none).
	RunBlockValue(b *value.Block, args []value.Value, input pipeline.PipelineData) (pipeline.PipelineData, *diag.Error)
	// EnvVar resolves an environment binding through the scope chain.
	EnvVar(name string) (value.Value, bool)
	EnvNames() []string
	Interrupt() *pipeline.Interrupt
	Workers() int
	// ForWorker clones the context with an independent stack so parallel
	// workers never share mutable frames.
	ForWorker() CallContext
}

// Command is a builtin: a name plus a run function over PipelineData.
type Command interface {
	Name() string
	Usage() string
	Run(ctx CallContext, call *ast.Call, input pipeline.PipelineData) (pipeline.PipelineData, *diag.Error)
}

// Decl is one entry in the declaration registry: either a builtin command
// or a user-defined block. The closure (variables visible at the point of
// declaration, copied by value, plus the defining frame chain) is set
// through Finalize so parallel workers evaluating the same declaration
// never write the fields unguarded.
type Decl struct {
	Name    string
	Builtin Command
	Params  []string
	Body    *ast.Block

	mu          sync.Mutex
	captures    map[string]value.Value
	scopeFrames []*Frame
}

// Finalize records the declaration's closure at its statement.
func (d *Decl) Finalize(captures map[string]value.Value, scope []*Frame) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.captures = captures
	d.scopeFrames = scope
}

// Closure returns the captures and defining frame chain recorded by
// Finalize. The body resolves commands and env through the returned
// chain, never through the caller's scope.
func (d *Decl) Closure() (map[string]value.Value, []*Frame) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.captures, d.scopeFrames
}
