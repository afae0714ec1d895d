// Package ir defines the shared intermediate representation consumed and
// produced by the monomorphization backend: qualified identifiers, types,
// declarations and expressions, plus the De Bruijn substitution and naming
// helpers all three passes (internal/datatypes, internal/specialize,
// internal/structeq) build on.
package ir

import "strings"

// Lid is a qualified identifier: a module path paired with a simple name.
// Equality and hashing are structural.
type Lid struct {
	Module []string
	Name   string
}

// NewLid builds a Lid from a dotted module path and a simple name.
func NewLid(module []string, name string) Lid {
	mod := make([]string, len(module))
	copy(mod, module)
	return Lid{Module: mod, Name: name}
}

// TupleLid is the distinguished lid denoting the anonymous tuple
// constructor. It never appears in the type-definition map; it is only
// ever a Node head.
var TupleLid = Lid{Module: nil, Name: "*tuple*"}

// IsTuple reports whether l is the anonymous tuple constructor.
func (l Lid) IsTuple() bool {
	return l.Key() == TupleLid.Key()
}

// Key returns a canonical string suitable for use as a map key.
func (l Lid) Key() string {
	return strings.Join(l.Module, ".") + "." + l.Name
}

// Equal reports structural equality.
func (l Lid) Equal(other Lid) bool {
	return l.Key() == other.Key()
}

// String renders the lid in dotted-path form.
func (l Lid) String() string {
	if len(l.Module) == 0 {
		return l.Name
	}
	return strings.Join(l.Module, ".") + "." + l.Name
}

// WithName returns a copy of l with a different simple name.
func (l Lid) WithName(name string) Lid {
	return Lid{Module: l.Module, Name: name}
}
