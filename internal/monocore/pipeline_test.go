package monocore

import (
	"strings"
	"testing"

	"github.com/sunholo/monocore/internal/ir"
	"github.com/sunholo/monocore/testutil"
)

func lid(name string) ir.Lid { return ir.NewLid([]string{"M"}, name) }

// The three passes compose end to end: a polymorphic pair instantiated at
// one type, and an equality comparison over it, both resolve in one Run.
func TestRun_EndToEnd(t *testing.T) {
	pairDef := ir.TypeDef{Kind: ir.BodyFlat, Fields: []ir.Field{
		{Name: "fst", Type: ir.TBound{Index: 0}},
		{Name: "snd", Type: ir.TBound{Index: 1}},
	}}
	hint := ir.DType(lid("int_bool_pair"), 0, 0, ir.TypeDef{
		Kind:  ir.BodyAbbrev,
		Alias: ir.TApp{Head: lid("pair"), Args: []ir.Typ{ir.TInt{Width: 32}, ir.TBool{}}},
	})
	cmp := ir.DGlobal(0, lid("cmp"), 0, ir.TBool{},
		&ir.EApp{
			Func: &ir.EPolyComp{Op: ir.PEq, At: ir.TQualified{Lid: lid("int_bool_pair")}},
			Args: []ir.Expr{&ir.EQualified{Lid: lid("p1")}, &ir.EQualified{Lid: lid("p2")}},
		})

	prog := &ir.Program{Files: []ir.File{{Name: "f", Decls: []ir.Decl{
		ir.DType(lid("pair"), 0, 2, pairDef), hint, cmp,
	}}}}

	out, diag, err := Run(prog, Config{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !diag.Empty() {
		t.Fatalf("expected no warnings, got %+v", diag.Warnings)
	}

	var sawFlat, sawPredicate bool
	for _, d := range out.Files[0].Decls {
		if d.Kind == ir.KindType && d.Body.Kind == ir.BodyFlat {
			sawFlat = true
		}
		if d.Kind == ir.KindFunction {
			sawPredicate = true
		}
	}
	if !sawFlat {
		t.Fatal("expected the pair to be monomorphized to a Flat record")
	}
	if !sawPredicate {
		t.Fatal("expected an equality predicate to be synthesized")
	}
}

// Declarations targeting an excluded file are dropped with a WARN002 each.
func TestRun_DropsDeclarationsInExcludedFiles(t *testing.T) {
	prog := &ir.Program{Files: []ir.File{
		{Name: "excluded.mod", Decls: []ir.Decl{
			ir.DGlobal(0, lid("x"), 0, ir.TInt{Width: 32}, &ir.EBool{Value: true}),
		}},
	}}
	out, diag, err := Run(prog, Config{ExcludedFiles: map[string]bool{"excluded.mod": true}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(out.Files[0].Decls) != 0 {
		t.Fatalf("expected declarations in the excluded file to be dropped, got %d", len(out.Files[0].Decls))
	}
	if len(diag.Warnings) != 1 || diag.Warnings[0].Code != "WARN002" {
		t.Fatalf("expected one WARN002, got %+v", diag.Warnings)
	}
}

type declSummary struct {
	Kind string
	Name string
}

func kindName(k ir.DeclKind) string {
	switch k {
	case ir.KindType:
		return "type"
	case ir.KindFunction:
		return "function"
	case ir.KindGlobal:
		return "global"
	default:
		return "external"
	}
}

// The pair-instantiation program, extended with an equality comparison over
// the pair, emits the monomorphized record, its synthesized equality
// predicate, and the comparison global in that exact order;
// testutil.DiffJSON reports a structural diff on any reordering or renaming
// instead of a bare boolean mismatch.
func TestRun_EndToEndDeclarationShape(t *testing.T) {
	pairDef := ir.TypeDef{Kind: ir.BodyFlat, Fields: []ir.Field{
		{Name: "fst", Type: ir.TBound{Index: 0}},
		{Name: "snd", Type: ir.TBound{Index: 1}},
	}}
	hint := ir.DType(lid("int_bool_pair"), 0, 0, ir.TypeDef{
		Kind:  ir.BodyAbbrev,
		Alias: ir.TApp{Head: lid("pair"), Args: []ir.Typ{ir.TInt{Width: 32}, ir.TBool{}}},
	})
	cmp := ir.DGlobal(0, lid("cmp"), 0, ir.TBool{},
		&ir.EApp{
			Func: &ir.EPolyComp{Op: ir.PEq, At: ir.TQualified{Lid: lid("int_bool_pair")}},
			Args: []ir.Expr{&ir.EQualified{Lid: lid("p1")}, &ir.EQualified{Lid: lid("p2")}},
		})
	prog := &ir.Program{Files: []ir.File{{Name: "f", Decls: []ir.Decl{
		ir.DType(lid("pair"), 0, 2, pairDef), hint, cmp,
	}}}}

	out, _, err := Run(prog, Config{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	var got []declSummary
	for _, d := range out.Files[0].Decls {
		got = append(got, declSummary{Kind: kindName(d.Kind), Name: d.Lid.Name})
	}
	want := []declSummary{
		{Kind: "type", Name: "int_bool_pair"},
		{Kind: "function", Name: "int_bool_pair_eq"},
		{Kind: "global", Name: "cmp"},
	}
	if diff := testutil.DiffJSON(want, got); diff != "" {
		t.Fatalf("declaration shape mismatch (-want +got):\n%s", diff)
	}
}

// LoadConfig decodes trace flags and excluded files from a YAML document.
func TestLoadConfig_YAML(t *testing.T) {
	doc := "trace:\n  monomorphization: true\nexcluded_files:\n  internal.mod: true\n"
	cfg, err := LoadConfig(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if !cfg.Trace.Monomorphization {
		t.Fatal("expected monomorphization trace flag to be set")
	}
	if !cfg.ExcludedFiles["internal.mod"] {
		t.Fatal("expected internal.mod to be marked excluded")
	}
}
