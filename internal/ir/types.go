package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// Typ is the closed set of type shapes the monomorphization backend
// understands (§3). Types are immutable values; two Typ values are
// considered the same type iff Key() agrees.
type Typ interface {
	// Key returns a canonical, hashable string identity for the type,
	// used for node/memoization lookups (§3 "equality and hashing are
	// structural").
	Key() string
	String() string
	typ()
}

// TQualified is a reference to an already-monomorphic (or external) type.
type TQualified struct {
	Lid Lid
}

func (TQualified) typ()            {}
func (t TQualified) Key() string   { return "Q:" + t.Lid.Key() }
func (t TQualified) String() string { return t.Lid.String() }

// TApp is the application of a parametric type constructor to arguments.
type TApp struct {
	Head Lid
	Args []Typ
}

func (TApp) typ() {}
func (t TApp) Key() string {
	return "A:" + t.Head.Key() + "<" + keyArgs(t.Args) + ">"
}
func (t TApp) String() string {
	if len(t.Args) == 0 {
		return t.Head.String()
	}
	parts := make([]string, len(t.Args))
	for i, a := range t.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s<%s>", t.Head, strings.Join(parts, ", "))
}

// TTuple is an anonymous tuple type, eliminated by the data-type pass.
type TTuple struct {
	Elts []Typ
}

func (TTuple) typ() {}
func (t TTuple) Key() string  { return "T:(" + keyArgs(t.Elts) + ")" }
func (t TTuple) String() string {
	parts := make([]string, len(t.Elts))
	for i, e := range t.Elts {
		parts[i] = e.String()
	}
	return "(" + strings.Join(parts, " * ") + ")"
}

// TInt is a fixed-width integer type.
type TInt struct {
	Width int
}

func (TInt) typ()            {}
func (t TInt) Key() string   { return "I" + strconv.Itoa(t.Width) }
func (t TInt) String() string { return fmt.Sprintf("int%d", t.Width) }

// TBool is the boolean type.
type TBool struct{}

func (TBool) typ()            {}
func (TBool) Key() string    { return "B" }
func (TBool) String() string { return "bool" }

// TUnit is the unit type.
type TUnit struct{}

func (TUnit) typ()            {}
func (TUnit) Key() string    { return "U" }
func (TUnit) String() string { return "unit" }

// TBuf is an indirection (pointer) to an element type, optionally const.
type TBuf struct {
	Elem  Typ
	Const bool
}

func (TBuf) typ() {}
func (t TBuf) Key() string {
	if t.Const {
		return "P(c:" + t.Elem.Key() + ")"
	}
	return "P(" + t.Elem.Key() + ")"
}
func (t TBuf) String() string {
	if t.Const {
		return "const " + t.Elem.String() + "*"
	}
	return t.Elem.String() + "*"
}

// TArrow is a function type.
type TArrow struct {
	Param  Typ
	Result Typ
}

func (TArrow) typ() {}
func (t TArrow) Key() string   { return "F(" + t.Param.Key() + "->" + t.Result.Key() + ")" }
func (t TArrow) String() string { return fmt.Sprintf("(%s -> %s)", t.Param, t.Result) }

// TBound is a De Bruijn-indexed reference to a type variable, counting
// outward from the innermost abstraction (§9).
type TBound struct {
	Index int
}

func (TBound) typ()            {}
func (t TBound) Key() string   { return "V" + strconv.Itoa(t.Index) }
func (t TBound) String() string { return fmt.Sprintf("'%d", t.Index) }

// TypesEqual reports structural equality between two types via Key.
func TypesEqual(a, b Typ) bool {
	return a.Key() == b.Key()
}

func keyArgs(ts []Typ) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.Key()
	}
	return strings.Join(parts, ",")
}
