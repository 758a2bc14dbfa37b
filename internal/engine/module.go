package engine

import "github.com/rillshell/rill/internal/value"

// Module is a named collection of exported bindings. A module may export a
// command and an environment binding under the same name; a single-name
// import brings both.
type Module struct {
	Name  string
	Decls map[string]DeclId
	Envs  map[string]value.Value
}

func NewModule(name string) *Module {
	return &Module{
		Name:  name,
		Decls: make(map[string]DeclId),
		Envs:  make(map[string]value.Value),
	}
}

// ExportNames lists every exported name once, commands and envs combined,
// in no particular order.
func (m *Module) ExportNames() []string {
	seen := make(map[string]bool, len(m.Decls)+len(m.Envs))
	names := make([]string, 0, len(m.Decls)+len(m.Envs))
	for n := range m.Decls {
		if !seen[n] {
			seen[n] = true
			names = append(names, n)
		}
	}
	for n := range m.Envs {
		if !seen[n] {
			seen[n] = true
			names = append(names, n)
		}
	}
	return names
}

// Has reports whether the module exports anything under name.
func (m *Module) Has(name string) bool {
	if _, ok := m.Decls[name]; ok {
		return true
	}
	_, ok := m.Envs[name]
	return ok
}
