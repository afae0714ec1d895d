package specialize

import (
	"testing"

	"github.com/sunholo/monocore/internal/errors"
	"github.com/sunholo/monocore/internal/ir"
)

func lid(name string) ir.Lid { return ir.NewLid([]string{"M"}, name) }

func run(t *testing.T, prog *ir.Program) *ir.Program {
	t.Helper()
	out, err := Run(prog, &errors.Diagnostics{}, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return out
}

// A polymorphic identity function called at two distinct types produces
// two distinct specializations and the polymorphic source is dropped.
func TestSpecialize_GeneratesOnePerTypeArgument(t *testing.T) {
	identity := ir.DFunction("fn", 0, 1, ir.TBound{Index: 0}, lid("identity"),
		[]ir.Binder{{Name: "x", Type: ir.TBound{Index: 0}}}, &ir.EBound{Index: 0})
	callInt := &ir.ETApp{Fun: &ir.EQualified{Lid: lid("identity")}, Targs: []ir.Typ{ir.TInt{Width: 32}}}
	callBool := &ir.ETApp{Fun: &ir.EQualified{Lid: lid("identity")}, Targs: []ir.Typ{ir.TBool{}}}
	useInt := ir.DGlobal(0, lid("use_int"), 0, ir.TInt{Width: 32},
		&ir.EApp{Func: callInt, Args: []ir.Expr{&ir.EBool{Value: true}}})
	useBool := ir.DGlobal(0, lid("use_bool"), 0, ir.TBool{},
		&ir.EApp{Func: callBool, Args: []ir.Expr{&ir.EBool{Value: false}}})

	prog := &ir.Program{Files: []ir.File{{Name: "f", Decls: []ir.Decl{identity, useInt, useBool}}}}
	out := run(t, prog)

	var fns []ir.Decl
	for _, d := range out.Files[0].Decls {
		if d.Kind == ir.KindFunction {
			fns = append(fns, d)
		}
	}
	if len(fns) != 2 {
		t.Fatalf("expected exactly two specializations, got %d: %+v", len(fns), fns)
	}
	for _, d := range fns {
		if d.Lid.Key() == lid("identity").Key() {
			t.Fatal("the polymorphic source must be dropped, not kept verbatim")
		}
		if d.TypeArityOf() != 0 {
			t.Fatalf("specialization %s must be fully monomorphic, got arity %d", d.Lid, d.TypeArityOf())
		}
	}
}

// Calling the same polymorphic function at the same type twice must reuse
// the first specialization rather than generating a duplicate.
func TestSpecialize_MemoizesByTypeArgument(t *testing.T) {
	identity := ir.DFunction("fn", 0, 1, ir.TBound{Index: 0}, lid("identity"),
		[]ir.Binder{{Name: "x", Type: ir.TBound{Index: 0}}}, &ir.EBound{Index: 0})
	call := func() ir.Expr {
		return &ir.EApp{
			Func: &ir.ETApp{Fun: &ir.EQualified{Lid: lid("identity")}, Targs: []ir.Typ{ir.TInt{Width: 32}}},
			Args: []ir.Expr{&ir.EBool{Value: true}},
		}
	}
	useA := ir.DGlobal(0, lid("a"), 0, ir.TInt{Width: 32}, call())
	useB := ir.DGlobal(0, lid("b"), 0, ir.TInt{Width: 32}, call())

	prog := &ir.Program{Files: []ir.File{{Name: "f", Decls: []ir.Decl{identity, useA, useB}}}}
	out := run(t, prog)

	var fns int
	for _, d := range out.Files[0].Decls {
		if d.Kind == ir.KindFunction {
			fns++
		}
	}
	if fns != 1 {
		t.Fatalf("expected exactly one memoized specialization, got %d", fns)
	}
}

// A type application against an arity that doesn't match the declaration
// raises a WARN001 and is not treated as fatal.
func TestSpecialize_ArityMismatchWarns(t *testing.T) {
	identity := ir.DFunction("fn", 0, 1, ir.TBound{Index: 0}, lid("identity"),
		[]ir.Binder{{Name: "x", Type: ir.TBound{Index: 0}}}, &ir.EBound{Index: 0})
	badCall := &ir.ETApp{Fun: &ir.EQualified{Lid: lid("identity")}, Targs: []ir.Typ{ir.TInt{Width: 32}, ir.TBool{}}}
	use := ir.DGlobal(0, lid("use"), 0, ir.TInt{Width: 32},
		&ir.EApp{Func: badCall, Args: []ir.Expr{&ir.EBool{Value: true}}})

	prog := &ir.Program{Files: []ir.File{{Name: "f", Decls: []ir.Decl{identity, use}}}}
	diag := &errors.Diagnostics{}
	if _, err := Run(prog, diag, nil); err != nil {
		t.Fatalf("arity mismatch must warn, not fail: %v", err)
	}
	if len(diag.Warnings) != 1 || diag.Warnings[0].Code != errors.WARN001 {
		t.Fatalf("expected one WARN001, got %+v", diag.Warnings)
	}
}

// A reference to an unknown (non-polymorphic or unrecognized) type
// application head raises a WARN003.
func TestSpecialize_UnrecognizedHeadWarns(t *testing.T) {
	call := &ir.ETApp{Fun: &ir.EQualified{Lid: lid("not_generic")}, Targs: []ir.Typ{ir.TInt{Width: 32}}}
	use := ir.DGlobal(0, lid("use"), 0, ir.TInt{Width: 32},
		&ir.EApp{Func: call, Args: []ir.Expr{&ir.EBool{Value: true}}})

	prog := &ir.Program{Files: []ir.File{{Name: "f", Decls: []ir.Decl{use}}}}
	diag := &errors.Diagnostics{}
	if _, err := Run(prog, diag, nil); err != nil {
		t.Fatalf("unrecognized head must warn, not fail: %v", err)
	}
	if len(diag.Warnings) != 1 || diag.Warnings[0].Code != errors.WARN003 {
		t.Fatalf("expected one WARN003, got %+v", diag.Warnings)
	}
}

// A residual structural-comparison operator surviving under a type
// application is a fatal internal-invariant violation (MONO002).
func TestSpecialize_PolyComparisonUnderTApp_IsFatal(t *testing.T) {
	badCall := &ir.ETApp{
		Fun:   &ir.EOp{Op: "=", Width: 32},
		Targs: []ir.Typ{ir.TInt{Width: 32}},
	}
	use := ir.DGlobal(0, lid("use"), 0, ir.TBool{}, badCall)

	prog := &ir.Program{Files: []ir.File{{Name: "f", Decls: []ir.Decl{use}}}}
	_, err := Run(prog, &errors.Diagnostics{}, nil)
	if err == nil {
		t.Fatal("expected a fatal error")
	}
	rep, ok := errors.AsReport(err)
	if !ok || rep.Code != errors.MONO002 {
		t.Fatalf("expected MONO002, got %+v ok=%v", rep, ok)
	}
}
