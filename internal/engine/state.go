package engine

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rillshell/rill/internal/ast"
	"github.com/rillshell/rill/internal/value"
)

// EngineState is the process-wide committed state of one shell session:
// the declaration registry, the module table, and the global environment.
// Reads always see the last merged snapshot; writes arrive only through
// StateDelta.Merge, so either a whole pass's definitions become visible
// together or none do.
type EngineState struct {
	mu        sync.RWMutex
	SessionID uuid.UUID

	decls       []*Decl
	blocks      []*ast.Block
	globalDecls map[string]DeclId
	modules     map[string]*Module
	env         map[string]value.Value
}

func NewEngineState() *EngineState {
	return &EngineState{
		SessionID:   uuid.New(),
		globalDecls: make(map[string]DeclId),
		modules:     make(map[string]*Module),
		env:         make(map[string]value.Value),
	}
}

func (s *EngineState) NumBlocks() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blocks)
}

func (s *EngineState) Block(id int) (*ast.Block, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id < 0 || id >= len(s.blocks) {
		return nil, false
	}
	return s.blocks[id], true
}

// RegisterBuiltin adds a builtin command directly to the committed
// registry and makes its name globally visible. Called once, at session
// setup, before any evaluation.
func (s *EngineState) RegisterBuiltin(cmd Command) DeclId {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := DeclId(len(s.decls))
	s.decls = append(s.decls, &Decl{Name: cmd.Name(), Builtin: cmd})
	s.globalDecls[cmd.Name()] = id
	return id
}

func (s *EngineState) NumDecls() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.decls)
}

func (s *EngineState) Decl(id DeclId) (*Decl, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if int(id) < 0 || int(id) >= len(s.decls) {
		return nil, false
	}
	return s.decls[id], true
}

func (s *EngineState) GlobalDecl(name string) (DeclId, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.globalDecls[name]
	return id, ok
}

func (s *EngineState) Module(name string) (*Module, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.modules[name]
	return m, ok
}

func (s *EngineState) Env(name string) (value.Value, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.env[name]
	return v, ok
}

func (s *EngineState) EnvNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.env))
	for n := range s.env {
		names = append(names, n)
	}
	return names
}

// StateDelta is the working set of one parse+eval pass: declarations,
// blocks, modules, and environment changes that are pending until Merge.
// Ids assigned inside a delta continue the committed registry's numbering
// so a call site's DeclId stays valid after the merge. A delta is shared
// by parallel workers, so its own mutation is locked.
type StateDelta struct {
	mu          sync.RWMutex
	base        *EngineState
	baseCount   int
	baseBlocks  int
	decls       []*Decl
	blocks      []*ast.Block
	modules     map[string]*Module
	env         map[string]value.Value
	envHidden   map[string]bool
	topDecls    map[string]DeclId
	declsHidden map[string]bool
}

func NewStateDelta(base *EngineState) *StateDelta {
	return &StateDelta{
		base:        base,
		baseCount:   base.NumDecls(),
		baseBlocks:  base.NumBlocks(),
		modules:     make(map[string]*Module),
		env:         make(map[string]value.Value),
		envHidden:   make(map[string]bool),
		topDecls:    make(map[string]DeclId),
		declsHidden: make(map[string]bool),
	}
}

func (d *StateDelta) AddDecl(decl *Decl) DeclId {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := DeclId(d.baseCount + len(d.decls))
	d.decls = append(d.decls, decl)
	return id
}

func (d *StateDelta) Decl(id DeclId) (*Decl, bool) {
	if int(id) < d.baseCount {
		return d.base.Decl(id)
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	i := int(id) - d.baseCount
	if i < len(d.decls) {
		return d.decls[i], true
	}
	return nil, false
}

// AddBlock places a parsed block into the program table and returns its
// id; block-reference values point back through it.
func (d *StateDelta) AddBlock(b *ast.Block) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := d.baseBlocks + len(d.blocks)
	d.blocks = append(d.blocks, b)
	return id
}

func (d *StateDelta) Block(id int) (*ast.Block, bool) {
	if id < d.baseBlocks {
		return d.base.Block(id)
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	i := id - d.baseBlocks
	if i < len(d.blocks) {
		return d.blocks[i], true
	}
	return nil, false
}

func (d *StateDelta) AddModule(m *Module) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.modules[m.Name] = m
}

func (d *StateDelta) Module(name string) (*Module, bool) {
	d.mu.RLock()
	m, ok := d.modules[name]
	d.mu.RUnlock()
	if ok {
		return m, true
	}
	return d.base.Module(name)
}

// SetTopDecl records a top-level declaration name so it survives the pass
// as a globally visible binding.
func (d *StateDelta) SetTopDecl(name string, id DeclId) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.topDecls[name] = id
	delete(d.declsHidden, name)
}

// HideDecl records a top-level hide of a committed command so Merge
// removes the global binding, mirroring HideEnv for the env namespace.
func (d *StateDelta) HideDecl(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.topDecls, name)
	d.declsHidden[name] = true
}

func (d *StateDelta) SetEnv(name string, v value.Value) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.env[name] = v
	delete(d.envHidden, name)
}

func (d *StateDelta) HideEnv(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.env, name)
	d.envHidden[name] = true
}

// Merge commits the delta atomically: all pending declarations, blocks,
// modules, and environment changes become visible together, or none at
// all if Merge is never reached.
func (s *EngineState) Merge(d *StateDelta) {
	d.mu.Lock()
	defer d.mu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.decls = append(s.decls, d.decls...)
	s.blocks = append(s.blocks, d.blocks...)
	for name, m := range d.modules {
		s.modules[name] = m
	}
	for name := range d.declsHidden {
		delete(s.globalDecls, name)
	}
	for name, id := range d.topDecls {
		s.globalDecls[name] = id
	}
	for name := range d.envHidden {
		delete(s.env, name)
	}
	for name, v := range d.env {
		s.env[name] = v
	}
}
