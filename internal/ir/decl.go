package ir

import "fmt"

// Flags is a bitmask of declaration-level flags (§3).
type Flags uint8

const (
	Private Flags = 1 << iota
	AutoGenerated
	GcType
)

// Has reports whether all bits of other are set in f.
func (f Flags) Has(other Flags) bool { return f&other == other }

// With returns f with other's bits set.
func (f Flags) With(other Flags) Flags { return f | other }

// Without returns f with other's bits cleared.
func (f Flags) Without(other Flags) Flags { return f &^ other }

// Field is a named, possibly-mutable field inside a Flat body or variant
// branch. Records synthesized for anonymous tuples name their positions
// by convention (fst/snd/..., see TupleFieldName).
type Field struct {
	Name    string
	Type    Typ
	Mutable bool
}

// Branch is one constructor of a Variant body.
type Branch struct {
	Ctor   string
	Fields []Field
}

// BodyKind tags the shape of a TypeDef.
type BodyKind int

const (
	BodyFlat BodyKind = iota
	BodyVariant
	BodyAbbrev
	BodyForward
	BodyEnum
	BodyUnion
)

// TypeDef is the body of a DType declaration.
type TypeDef struct {
	Kind     BodyKind
	Fields   []Field  // BodyFlat
	Branches []Branch // BodyVariant
	Alias    Typ      // BodyAbbrev
}

// Binder is a function parameter: a name paired with its (already
// substituted, monomorphic) type.
type Binder struct {
	Name string
	Type Typ
}

// DeclKind tags the shape of a top-level Decl.
type DeclKind int

const (
	KindType DeclKind = iota
	KindFunction
	KindGlobal
	KindExternal
)

// Decl is a top-level declaration (§3). Exactly one of the *Body fields is
// meaningful, selected by Kind.
type Decl struct {
	Kind DeclKind
	Lid  Lid

	// DType
	Arity int // number of type parameters still abstract
	Body  TypeDef

	// DFunction / DGlobal / DExternal
	CC         string // calling convention, opaque to this backend
	TypeArity  int
	Typ        Typ      // return type (function) or value type (global/external)
	Binders    []Binder // DFunction/DExternal parameters
	FnBody     Expr     // DFunction body
	GlobalBody Expr     // DGlobal initializer, nil if none

	Flags Flags
}

// TypeArityOf returns the arity relevant to this declaration's kind,
// unifying DType.Arity and DFunction/DGlobal/DExternal.TypeArity for callers
// that only care "how many type parameters remain".
func (d Decl) TypeArityOf() int {
	if d.Kind == KindType {
		return d.Arity
	}
	return d.TypeArity
}

func (d Decl) String() string {
	return fmt.Sprintf("decl(%s, kind=%d, arity=%d)", d.Lid, d.Kind, d.TypeArityOf())
}

// DType builds a type-constructor declaration.
func DType(lid Lid, flags Flags, arity int, body TypeDef) Decl {
	return Decl{Kind: KindType, Lid: lid, Flags: flags, Arity: arity, Body: body}
}

// DFunction builds a function declaration.
func DFunction(cc string, flags Flags, typeArity int, ret Typ, lid Lid, binders []Binder, body Expr) Decl {
	return Decl{Kind: KindFunction, Lid: lid, Flags: flags, CC: cc, TypeArity: typeArity, Typ: ret, Binders: binders, FnBody: body}
}

// DGlobal builds a global-value declaration.
func DGlobal(flags Flags, lid Lid, typeArity int, typ Typ, body Expr) Decl {
	return Decl{Kind: KindGlobal, Lid: lid, Flags: flags, TypeArity: typeArity, Typ: typ, GlobalBody: body}
}

// DExternal builds an external (backend-provided) declaration.
func DExternal(cc string, flags Flags, typeArity int, lid Lid, typ Typ, paramNames []string) Decl {
	binders := make([]Binder, len(paramNames))
	for i, n := range paramNames {
		binders[i] = Binder{Name: n}
	}
	return Decl{Kind: KindExternal, Lid: lid, Flags: flags, CC: cc, TypeArity: typeArity, Typ: typ, Binders: binders}
}

// File is a named, ordered list of declarations.
type File struct {
	Name  string
	Decls []Decl
}

// Program is an ordered list of files.
type Program struct {
	Files []File
}
