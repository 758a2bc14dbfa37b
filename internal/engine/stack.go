package engine

import (
	"github.com/rillshell/rill/internal/ast"
	"github.com/rillshell/rill/internal/config"
	"github.com/rillshell/rill/internal/diag"
	"github.com/rillshell/rill/internal/value"
)

type declEntry struct {
	id     DeclId
	active bool
}

// Frame is one block activation: variable bindings, declaration and
// environment overlays, and the hiding records for this scope. Everything
// in a frame is discarded when the frame pops.
type Frame struct {
	vars        map[string]value.Value
	decls       map[string][]*declEntry
	hiddenDecls map[string]bool
	env         map[string]value.Value
	hiddenEnv   map[string]bool
}

// ActiveDecls returns the currently visible declaration per name in this
// frame; used to fold a finished program's top scope into the delta.
func (f *Frame) ActiveDecls() map[string]DeclId {
	out := make(map[string]DeclId)
	for name, entries := range f.decls {
		if id, ok := lastActive(entries); ok {
			out[name] = id
		}
	}
	return out
}

func (f *Frame) EnvOverlay() map[string]value.Value { return f.env }
func (f *Frame) HiddenEnv() map[string]bool         { return f.hiddenEnv }
func (f *Frame) HiddenDecls() map[string]bool       { return f.hiddenDecls }

func newFrame() *Frame {
	return &Frame{
		vars:        make(map[string]value.Value),
		decls:       make(map[string][]*declEntry),
		hiddenDecls: make(map[string]bool),
		env:         make(map[string]value.Value),
		hiddenEnv:   make(map[string]bool),
	}
}

// Stack is the scope chain threaded through block evaluation: a frame per
// live block, backed by the session's committed state plus the current
// working-set delta. varBase marks the closure boundary: command and env
// resolution walk the whole chain, variable resolution stops there, so a
// command body sees only its captures and parameters, never the caller's
// locals.
type Stack struct {
	state   *EngineState
	delta   *StateDelta
	frames  []*Frame
	varBase int
}

func NewStack(state *EngineState, delta *StateDelta) *Stack {
	return &Stack{state: state, delta: delta, frames: []*Frame{newFrame()}}
}

// NewStackFrom builds the stack a command body runs on: the declaration's
// own frame chain plus one fresh frame, with the variable boundary at the
// fresh frame.
func NewStackFrom(state *EngineState, delta *StateDelta, scope []*Frame) *Stack {
	frames := make([]*Frame, 0, len(scope)+1)
	frames = append(frames, scope...)
	frames = append(frames, newFrame())
	return &Stack{state: state, delta: delta, frames: frames, varBase: len(scope)}
}

// ScopeSnapshot captures the current frame chain for a declaration. The
// slice is copied; the frames themselves are shared, which is what keeps
// command resolution lexical.
func (s *Stack) ScopeSnapshot() []*Frame {
	out := make([]*Frame, len(s.frames))
	copy(out, s.frames)
	return out
}

func (s *Stack) State() *EngineState { return s.state }
func (s *Stack) Delta() *StateDelta  { return s.delta }

func (s *Stack) PushFrame() {
	s.frames = append(s.frames, newFrame())
}

func (s *Stack) PopFrame() {
	if len(s.frames) > s.varBase+1 && len(s.frames) > 1 {
		s.frames = s.frames[:len(s.frames)-1]
	}
}

func (s *Stack) current() *Frame {
	return s.frames[len(s.frames)-1]
}

// TopFrame exposes the root frame so a finished pass can fold its
// top-level bindings into the working-set delta.
func (s *Stack) TopFrame() *Frame { return s.frames[0] }

// Clone copies the stack for a parallel worker. Frames are copied map by
// map; values are immutable so sharing them is safe, but each worker gets
// its own binding tables.
func (s *Stack) Clone() *Stack {
	frames := make([]*Frame, len(s.frames))
	for i, f := range s.frames {
		nf := newFrame()
		for k, v := range f.vars {
			nf.vars[k] = v
		}
		for k, es := range f.decls {
			entries := make([]*declEntry, len(es))
			for j, e := range es {
				cp := *e
				entries[j] = &cp
			}
			nf.decls[k] = entries
		}
		for k, v := range f.hiddenDecls {
			nf.hiddenDecls[k] = v
		}
		for k, v := range f.env {
			nf.env[k] = v
		}
		for k, v := range f.hiddenEnv {
			nf.hiddenEnv[k] = v
		}
		frames[i] = nf
	}
	return &Stack{state: s.state, delta: s.delta, frames: frames, varBase: s.varBase}
}

// --- variables ---

func (s *Stack) AddVar(name string, v value.Value) {
	s.current().vars[name] = v
}

// Var walks frames innermost-first down to the closure boundary; a
// binding in a nearer frame masks any identically-named binding further
// out.
func (s *Stack) Var(name string) (value.Value, bool) {
	for i := len(s.frames) - 1; i >= s.varBase; i-- {
		if v, ok := s.frames[i].vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// VisibleVars snapshots every visible variable, innermost binding winning.
// Blocks capture this snapshot by value, so later mutation of an outer
// frame never shows through a capture.
func (s *Stack) VisibleVars() map[string]value.Value {
	out := make(map[string]value.Value)
	for _, f := range s.frames[s.varBase:] {
		for k, v := range f.vars {
			out[k] = v
		}
	}
	return out
}

// --- commands ---

// AddDecl makes a declaration visible in the current frame, reactivating
// the name if a hide had suppressed it: the new binding is visible from
// this point on, the hidden one stays gone.
func (s *Stack) AddDecl(name string, id DeclId) {
	f := s.current()
	f.decls[name] = append(f.decls[name], &declEntry{id: id, active: true})
}

// ResolveCommand resolves a command name through the scope chain:
// innermost-first over the frame overlays, honoring hide markers, then the
// globally committed declarations.
func (s *Stack) ResolveCommand(name string) (DeclId, bool) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		f := s.frames[i]
		if id, ok := lastActive(f.decls[name]); ok {
			return id, true
		}
		if f.hiddenDecls[name] {
			return 0, false
		}
	}
	return s.state.GlobalDecl(name)
}

// HasActiveDecl reports whether the given id is the visible binding for
// name anywhere in the chain; a false answer after a hide is what tells
// the evaluator a redeclaration must install a fresh entry.
func (s *Stack) HasActiveDecl(name string, id DeclId) bool {
	for i := len(s.frames) - 1; i >= 0; i-- {
		f := s.frames[i]
		if got, ok := lastActive(f.decls[name]); ok {
			return got == id
		}
		if f.hiddenDecls[name] {
			return false
		}
	}
	return false
}

func lastActive(entries []*declEntry) (DeclId, bool) {
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].active {
			return entries[i].id, true
		}
	}
	return 0, false
}

// HideCommand suppresses the visible binding for name. A binding living in
// the current frame is deactivated in place; a binding further out (or the
// global table) is masked by a hide marker in the current frame, so the
// suppression dies with this scope. Returns false when nothing was
// visible.
func (s *Stack) HideCommand(name string) bool {
	cur := s.current()
	if _, ok := lastActive(cur.decls[name]); ok {
		for _, e := range cur.decls[name] {
			e.active = false
		}
		return true
	}
	if cur.hiddenDecls[name] {
		return false
	}
	for i := len(s.frames) - 2; i >= 0; i-- {
		f := s.frames[i]
		if _, ok := lastActive(f.decls[name]); ok {
			cur.hiddenDecls[name] = true
			return true
		}
		if f.hiddenDecls[name] {
			return false
		}
	}
	if _, ok := s.state.GlobalDecl(name); ok {
		cur.hiddenDecls[name] = true
		return true
	}
	return false
}

// --- environment ---

func (s *Stack) SetEnv(name string, v value.Value) {
	f := s.current()
	f.env[name] = v
	delete(f.hiddenEnv, name)
}

// ResolveEnv is the same walk as ResolveCommand over the independent
// environment namespace: frame overlays, hide markers, then the committed
// global environment.
func (s *Stack) ResolveEnv(name string) (value.Value, bool) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		f := s.frames[i]
		if v, ok := f.env[name]; ok {
			return v, true
		}
		if f.hiddenEnv[name] {
			return nil, false
		}
	}
	return s.state.Env(name)
}

// EnvNames lists every visible environment key, for nearest-match
// suggestions on a failed lookup.
func (s *Stack) EnvNames() []string {
	seen := make(map[string]bool)
	var names []string
	hidden := make(map[string]bool)
	for i := len(s.frames) - 1; i >= 0; i-- {
		f := s.frames[i]
		for n := range f.env {
			if !seen[n] && !hidden[n] {
				seen[n] = true
				names = append(names, n)
			}
		}
		for n := range f.hiddenEnv {
			hidden[n] = true
		}
	}
	for _, n := range s.state.EnvNames() {
		if !seen[n] && !hidden[n] {
			seen[n] = true
			names = append(names, n)
		}
	}
	return names
}

func (s *Stack) HideEnv(name string) bool {
	cur := s.current()
	if _, ok := cur.env[name]; ok {
		delete(cur.env, name)
		return true
	}
	if cur.hiddenEnv[name] {
		return false
	}
	for i := len(s.frames) - 2; i >= 0; i-- {
		f := s.frames[i]
		if _, ok := f.env[name]; ok {
			cur.hiddenEnv[name] = true
			return true
		}
		if f.hiddenEnv[name] {
			return false
		}
	}
	if _, ok := s.state.Env(name); ok {
		cur.hiddenEnv[name] = true
		return true
	}
	return false
}

// --- import and hide patterns ---

// Import brings a module's exports into the current frame per the pattern:
// a bare head imports every export under "mod name" qualified names, a
// glob imports every export under its own name, a single name or explicit
// list imports exactly those names. Only exported names are eligible; a
// name the module does not export fails naming the missing symbol. A name
// exported both as a command and as an env binding is imported as both.
func (s *Stack) Import(pat ast.ImportPattern) *diag.Error {
	mod, ok := s.delta.Module(pat.Head)
	if !ok {
		return diag.NewImportSymbolMissing(pat.Head, pat.HeadSp)
	}
	if len(pat.Members) == 0 {
		for _, n := range mod.ExportNames() {
			s.importName(mod, n, pat.Head+config.ImportNameSep+n)
		}
		return nil
	}
	for _, m := range pat.Members {
		switch {
		case m.Glob:
			for _, n := range mod.ExportNames() {
				s.importName(mod, n, n)
			}
		case m.Name != "":
			if !mod.Has(m.Name) {
				return diag.NewImportSymbolMissing(m.Name, m.Sp)
			}
			s.importName(mod, m.Name, m.Name)
		default:
			for _, n := range m.Names {
				if !mod.Has(n) {
					return diag.NewImportSymbolMissing(n, m.Sp)
				}
				s.importName(mod, n, n)
			}
		}
	}
	return nil
}

func (s *Stack) importName(mod *Module, export, as string) {
	if id, ok := mod.Decls[export]; ok {
		s.AddDecl(as, id)
	}
	if v, ok := mod.Envs[export]; ok {
		s.SetEnv(as, v)
	}
}

// HidePattern records hide markers for the pattern. A head naming a module
// hides that module's imported bindings, qualified or bare, whichever are
// visible. An unqualified head hides whichever binding is visible at the
// call site, trying commands before environment variables. Nothing
// visible under the pattern is an error.
func (s *Stack) HidePattern(pat ast.ImportPattern) *diag.Error {
	if mod, ok := s.delta.Module(pat.Head); ok {
		if s.hideModule(pat, mod) {
			return nil
		}
		// Module exists but none of its bindings are visible; the head may
		// still name a plain command or env binding.
	}
	if len(pat.Members) == 0 {
		if s.HideCommand(pat.Head) {
			return nil
		}
		if s.HideEnv(pat.Head) {
			return nil
		}
	}
	return diag.NewNotFound(pat.Span())
}

func (s *Stack) hideModule(pat ast.ImportPattern, mod *Module) bool {
	hid := false
	hideBoth := func(names ...string) {
		for _, n := range names {
			if s.HideCommand(n) {
				hid = true
				break
			}
		}
		for _, n := range names {
			if s.HideEnv(n) {
				hid = true
				break
			}
		}
	}
	if len(pat.Members) == 0 {
		for _, n := range mod.ExportNames() {
			hideBoth(pat.Head+config.ImportNameSep+n, n)
		}
		return hid
	}
	for _, m := range pat.Members {
		switch {
		case m.Glob:
			for _, n := range mod.ExportNames() {
				hideBoth(n, pat.Head+config.ImportNameSep+n)
			}
		case m.Name != "":
			hideBoth(pat.Head+config.ImportNameSep+m.Name, m.Name)
		default:
			for _, n := range m.Names {
				hideBoth(pat.Head+config.ImportNameSep+n, n)
			}
		}
	}
	return hid
}
