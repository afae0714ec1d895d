package ir

import (
	"fmt"

	"github.com/sunholo/monocore/internal/ast"
)

// Expr is the base interface for IR expressions: a tree of {node; typ}
// pairs (§3). Every concrete node embeds ExprMeta.
type Expr interface {
	Meta() ExprMeta
	String() string
	exprNode()
}

// ExprMeta carries the fields every expression node shares.
type ExprMeta struct {
	Span ast.Pos
	Type Typ
}

func (m ExprMeta) Meta() ExprMeta { return m }

// EBound is a De Bruijn-indexed reference to a value binder (lambda
// parameter or let-bound name) counting outward from the innermost.
type EBound struct {
	ExprMeta
	Index int
}

func (*EBound) exprNode()        {}
func (e *EBound) String() string { return fmt.Sprintf("#%d", e.Index) }

// EQualified is a reference to a top-level declaration.
type EQualified struct {
	ExprMeta
	Lid Lid
}

func (*EQualified) exprNode()        {}
func (e *EQualified) String() string { return e.Lid.String() }

// EVar is a named reference to a pattern-bound variable. Lambda and let
// binders use the De Bruijn-indexed EBound; match arms bind by name instead
// since a pattern can introduce a variable number of names at once, so
// generated code that destructures a match arm (internal/structeq's
// variant equality) refers back to them by name via EVar.
type EVar struct {
	ExprMeta
	Name string
}

func (*EVar) exprNode()        {}
func (e *EVar) String() string { return e.Name }

// ETApp is a type application of a polymorphic reference, eliminated by
// internal/specialize.
type ETApp struct {
	ExprMeta
	Fun   Expr
	Targs []Typ
}

func (*ETApp) exprNode() {}
func (e *ETApp) String() string {
	return fmt.Sprintf("%s<%v>", e.Fun, e.Targs)
}

// EApp is ordinary function application.
type EApp struct {
	ExprMeta
	Func Expr
	Args []Expr
}

func (*EApp) exprNode()        {}
func (e *EApp) String() string { return fmt.Sprintf("%s(%v)", e.Func, e.Args) }

// Op identifies a binary operator carried by EOp.
type Op int

const (
	OpEq Op = iota
	OpNeq
	OpOther
)

// EOp is a primitive binary operation at a known width.
type EOp struct {
	ExprMeta
	Op          string
	Width       int
	Left, Right Expr
}

func (*EOp) exprNode()        {}
func (e *EOp) String() string { return fmt.Sprintf("(%s %s %s)", e.Left, e.Op, e.Right) }

// PolyOp distinguishes structural equality from structural inequality in
// an unresolved EPolyComp node.
type PolyOp int

const (
	PEq PolyOp = iota
	PNeq
)

func (p PolyOp) String() string {
	if p == PEq {
		return "="
	}
	return "<>"
}

// EPolyComp is an unresolved structural (in)equality at type At, eliminated
// by internal/structeq.
type EPolyComp struct {
	ExprMeta
	Op PolyOp
	At Typ
}

func (*EPolyComp) exprNode()        {}
func (e *EPolyComp) String() string { return fmt.Sprintf("(%s @ %s)", e.Op, e.At) }

// ETuple is anonymous tuple construction, rewritten to EFlat by
// internal/datatypes.
type ETuple struct {
	ExprMeta
	Elems []Expr
}

func (*ETuple) exprNode()        {}
func (e *ETuple) String() string { return fmt.Sprintf("(%v)", e.Elems) }

// FieldExpr is a named value in a record construction.
type FieldExpr struct {
	Name  string
	Value Expr
}

// EFlat is record construction with named fields.
type EFlat struct {
	ExprMeta
	Fields []FieldExpr
}

func (*EFlat) exprNode()        {}
func (e *EFlat) String() string { return fmt.Sprintf("{%v}", e.Fields) }

// EField is record field access.
type EField struct {
	ExprMeta
	Record Expr
	Name   string
}

func (*EField) exprNode()        {}
func (e *EField) String() string { return fmt.Sprintf("%s.%s", e.Record, e.Name) }

// MatchArm pairs a pattern with the body executed when it matches.
type MatchArm struct {
	Pattern Pattern
	Body    Expr
}

// EMatch is pattern matching over a scrutinee.
type EMatch struct {
	ExprMeta
	Scrutinee Expr
	Arms      []MatchArm
}

func (*EMatch) exprNode()        {}
func (e *EMatch) String() string { return fmt.Sprintf("match %s {%v}", e.Scrutinee, e.Arms) }

// EBool is a boolean literal.
type EBool struct {
	ExprMeta
	Value bool
}

func (*EBool) exprNode()        {}
func (e *EBool) String() string { return fmt.Sprintf("%v", e.Value) }

// EUnit is the unit value.
type EUnit struct {
	ExprMeta
}

func (*EUnit) exprNode()        {}
func (e *EUnit) String() string { return "()" }

// EFun is a lambda, used for specialized function bodies and for the
// eta-expansion of bare EPolyComp occurrences (§4.4).
type EFun struct {
	ExprMeta
	Params []string
	Body   Expr
}

func (*EFun) exprNode()        {}
func (e *EFun) String() string { return fmt.Sprintf("fun %v -> %s", e.Params, e.Body) }

// ELet is a non-recursive let binding.
type ELet struct {
	ExprMeta
	Name  string
	Value Expr
	Body  Expr
}

func (*ELet) exprNode()        {}
func (e *ELet) String() string { return fmt.Sprintf("let %s = %s in %s", e.Name, e.Value, e.Body) }

// EIf is a conditional.
type EIf struct {
	ExprMeta
	Cond, Then, Else Expr
}

func (*EIf) exprNode() {}
func (e *EIf) String() string {
	return fmt.Sprintf("if %s then %s else %s", e.Cond, e.Then, e.Else)
}

// EAddrOf takes the address of an operand, used to wrap pointer-compared
// equality call sites (§4.4).
type EAddrOf struct {
	ExprMeta
	Operand Expr
}

func (*EAddrOf) exprNode()        {}
func (e *EAddrOf) String() string { return "&" + e.Operand.String() }

// Pattern is the base interface for match/tuple patterns.
type Pattern interface {
	String() string
	patternNode()
}

// PVar binds the scrutinee (or a sub-part of it) to a name.
type PVar struct{ Name string }

func (PVar) patternNode()    {}
func (p PVar) String() string { return p.Name }

// PWildcard matches anything and binds nothing.
type PWildcard struct{}

func (PWildcard) patternNode()    {}
func (PWildcard) String() string { return "_" }

// PBool matches a boolean literal.
type PBool struct{ Value bool }

func (PBool) patternNode()    {}
func (p PBool) String() string { return fmt.Sprintf("%v", p.Value) }

// PConstructor matches a variant branch by constructor name.
type PConstructor struct {
	Ctor string
	Args []Pattern
}

func (PConstructor) patternNode()    {}
func (p PConstructor) String() string { return fmt.Sprintf("%s(%v)", p.Ctor, p.Args) }

// PTuple matches an anonymous tuple, rewritten to PRecord by
// internal/datatypes.
type PTuple struct {
	Elems []Pattern
}

func (PTuple) patternNode()    {}
func (p PTuple) String() string { return fmt.Sprintf("(%v)", p.Elems) }

// FieldPattern is a named sub-pattern in a PRecord.
type FieldPattern struct {
	Name    string
	Pattern Pattern
}

// PRecord matches a record by field.
type PRecord struct {
	Fields []FieldPattern
}

func (PRecord) patternNode()    {}
func (p PRecord) String() string { return fmt.Sprintf("{%v}", p.Fields) }

// TupleFieldName returns the conventional field name for tuple position i
// (0-indexed): fst, snd, thd, f3, f4, ... (§4.1 "naming").
func TupleFieldName(i int) string {
	switch i {
	case 0:
		return "fst"
	case 1:
		return "snd"
	case 2:
		return "thd"
	default:
		return fmt.Sprintf("f%d", i)
	}
}
