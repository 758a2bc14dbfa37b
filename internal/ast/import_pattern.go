package ast

import "github.com/rillshell/rill/internal/span"

// ImportMember is one member of an import pattern: a glob, a single name,
// or an explicit list of names.
type ImportMember struct {
	Glob  bool
	Name  string
	Names []string
	Sp    span.Span
}

func GlobMember(sp span.Span) ImportMember {
	return ImportMember{Glob: true, Sp: sp}
}

func NameMember(name string, sp span.Span) ImportMember {
	return ImportMember{Name: name, Sp: sp}
}

func ListMember(names []string, sp span.Span) ImportMember {
	return ImportMember{Names: names, Sp: sp}
}

// ImportPattern addresses symbols of a module: a head (the module name)
// plus members selecting which exports. A bare head with no members
// imports every export under "<module> <name>" qualified names. The same
// shape drives hide, where the head alone may also be a plain unqualified
// name.
type ImportPattern struct {
	Head    string
	HeadSp  span.Span
	Members []ImportMember
}

// Span is the minimal span covering the head and every member.
func (p ImportPattern) Span() span.Span {
	spans := []span.Span{p.HeadSp}
	for _, m := range p.Members {
		spans = append(spans, m.Sp)
	}
	return span.Union(spans)
}
