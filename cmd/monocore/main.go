// Command monocore is a smoke-test harness for the monomorphization
// backend: it builds a handful of built-in in-memory scenarios, runs the
// pipeline, and pretty-prints the result plus any diagnostics. It is a
// debugging aid, not a production compiler entry point.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/sunholo/monocore/internal/ir"
	"github.com/sunholo/monocore/internal/monocore"
)

var (
	ok   = color.New(color.FgGreen, color.Bold).SprintFunc()
	fail = color.New(color.FgRed, color.Bold).SprintFunc()
	dim  = color.New(color.FgHiBlack).SprintFunc()
)

func main() {
	traceFlag := flag.String("trace", "", "comma-separated trace channels: monomorphization,data-types-traversal")
	scenarioFlag := flag.String("scenario", "all", "scenario name to run, or \"all\"")
	configFlag := flag.String("config", "", "path to a YAML pipeline config overriding -trace")
	flag.Parse()

	flags := parseTrace(*traceFlag)
	if *configFlag != "" {
		f, err := os.Open(*configFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "config: %v\n", err)
			os.Exit(1)
		}
		cfg, err := monocore.LoadConfig(f)
		f.Close()
		if err != nil {
			fmt.Fprintf(os.Stderr, "config: %v\n", err)
			os.Exit(1)
		}
		flags = cfg.Trace
	}

	scenarios := builtinScenarios()
	names := []string{*scenarioFlag}
	if *scenarioFlag == "all" {
		names = names[:0]
		for _, s := range scenarios {
			names = append(names, s.name)
		}
	}

	exit := 0
	for _, name := range names {
		s, found := findScenario(scenarios, name)
		if !found {
			fmt.Fprintf(os.Stderr, "%s: unknown scenario\n", name)
			exit = 1
			continue
		}
		if !runScenario(s, flags) {
			exit = 1
		}
	}
	os.Exit(exit)
}

func parseTrace(s string) monocore.TraceFlags {
	var f monocore.TraceFlags
	for _, ch := range strings.Split(s, ",") {
		switch strings.TrimSpace(ch) {
		case "monomorphization":
			f.Monomorphization = true
		case "data-types-traversal":
			f.DataTypesTraversal = true
		}
	}
	return f
}

type scenario struct {
	name    string
	build   func() *ir.Program
}

func findScenario(all []scenario, name string) (scenario, bool) {
	for _, s := range all {
		if s.name == name {
			return s, true
		}
	}
	return scenario{}, false
}

func runScenario(s scenario, flags monocore.TraceFlags) bool {
	prog := s.build()
	out, diag, err := monocore.Run(prog, monocore.Config{Trace: flags, Out: os.Stdout})
	if err != nil {
		fmt.Printf("%s %s: %v\n", fail("FAIL"), s.name, err)
		return false
	}
	fmt.Printf("%s %s: %d files, %d warnings\n", ok("PASS"), s.name, len(out.Files), len(diag.Warnings))
	for _, f := range out.Files {
		fmt.Printf("  %s\n", dim(f.Name))
		for _, d := range f.Decls {
			fmt.Printf("    %s\n", d.String())
		}
	}
	for _, w := range diag.Warnings {
		fmt.Printf("  %s %s: %s\n", dim("warn"), w.Code, w.Message)
	}
	return true
}

// builtinScenarios mirrors the concrete walkthroughs of spec §8. Four match
// the spec's own S2–S5 directly: a recursive list needing a forward
// declaration (S2), mutual recursion across two type constructors (S3), a
// polymorphic identity function specialized at two types (S4), and equality
// derived over a record in the shape of S5's variant case (S5, here over a
// Flat body rather than a Variant — branch dispatch is covered separately by
// internal/structeq's own variant-equality tests). "pair-instantiation"
// exercises the abbreviation-hint path rather than spec's literal S1 (an
// anonymous tuple lowered to a record — see
// internal/datatypes.TestDataTypes_TupleBecomesRecord for that one).
// "higher-order-equality" is the real S6: a bare, unapplied EPolyComp passed
// as a value, expected to resolve to a named top-level predicate rather than
// an inline closure. "pointer-compared-abstract" is a supplemented scenario
// beyond the original six: equality over a Forward-bodied abstract type,
// compared by address. It sets no PointerCompared configuration.
func builtinScenarios() []scenario {
	return []scenario{
		{name: "pair-instantiation", build: scenarioPairInstantiation},
		{name: "recursive-list", build: scenarioRecursiveList},
		{name: "mutual-recursion", build: scenarioMutualRecursion},
		{name: "polymorphic-identity", build: scenarioPolymorphicIdentity},
		{name: "record-equality", build: scenarioRecordEquality},
		{name: "higher-order-equality", build: scenarioHigherOrderEquality},
		{name: "pointer-compared-abstract", build: scenarioPointerCompared},
	}
}

func lid(name string) ir.Lid { return ir.NewLid([]string{"M"}, name) }

func scenarioPairInstantiation() *ir.Program {
	pairDef := ir.TypeDef{Kind: ir.BodyFlat, Fields: []ir.Field{
		{Name: "fst", Type: ir.TBound{Index: 0}},
		{Name: "snd", Type: ir.TBound{Index: 1}},
	}}
	hint := ir.DType(lid("int_bool_pair"), 0, 0, ir.TypeDef{
		Kind:  ir.BodyAbbrev,
		Alias: ir.TApp{Head: lid("pair"), Args: []ir.Typ{ir.TInt{Width: 32}, ir.TBool{}}},
	})
	return &ir.Program{Files: []ir.File{{Name: "pair.mod", Decls: []ir.Decl{
		ir.DType(lid("pair"), 0, 2, pairDef),
		hint,
	}}}}
}

func scenarioRecursiveList() *ir.Program {
	listDef := ir.TypeDef{Kind: ir.BodyVariant, Branches: []ir.Branch{
		{Ctor: "Nil"},
		{Ctor: "Cons", Fields: []ir.Field{
			{Name: "head", Type: ir.TBound{Index: 0}},
			{Name: "tail", Type: ir.TBuf{Elem: ir.TApp{Head: lid("list"), Args: []ir.Typ{ir.TBound{Index: 0}}}}},
		}},
	}}
	use := ir.DGlobal(0, lid("ints"), 0, ir.TApp{Head: lid("list"), Args: []ir.Typ{ir.TInt{Width: 32}}}, nil)
	return &ir.Program{Files: []ir.File{{Name: "list.mod", Decls: []ir.Decl{
		ir.DType(lid("list"), 0, 1, listDef),
		use,
	}}}}
}

func scenarioMutualRecursion() *ir.Program {
	evenDef := ir.TypeDef{Kind: ir.BodyVariant, Branches: []ir.Branch{
		{Ctor: "EZero"},
		{Ctor: "ESucc", Fields: []ir.Field{{Name: "pred", Type: ir.TBuf{Elem: ir.TQualified{Lid: lid("odd")}}}}},
	}}
	oddDef := ir.TypeDef{Kind: ir.BodyVariant, Branches: []ir.Branch{
		{Ctor: "OSucc", Fields: []ir.Field{{Name: "pred", Type: ir.TBuf{Elem: ir.TQualified{Lid: lid("even")}}}}},
	}}
	return &ir.Program{Files: []ir.File{{Name: "parity.mod", Decls: []ir.Decl{
		ir.DType(lid("even"), 0, 0, evenDef),
		ir.DType(lid("odd"), 0, 0, oddDef),
	}}}}
}

func scenarioPolymorphicIdentity() *ir.Program {
	identity := ir.DFunction("fn", 0, 1, ir.TBound{Index: 0}, lid("identity"),
		[]ir.Binder{{Name: "x", Type: ir.TBound{Index: 0}}},
		&ir.EBound{Index: 0})
	callInt := &ir.ETApp{Fun: &ir.EQualified{Lid: lid("identity")}, Targs: []ir.Typ{ir.TInt{Width: 32}}}
	callBool := &ir.ETApp{Fun: &ir.EQualified{Lid: lid("identity")}, Targs: []ir.Typ{ir.TBool{}}}
	useInt := ir.DGlobal(0, lid("use_int"), 0, ir.TInt{Width: 32},
		&ir.EApp{Func: callInt, Args: []ir.Expr{&ir.EBool{Value: true}}})
	useBool := ir.DGlobal(0, lid("use_bool"), 0, ir.TBool{},
		&ir.EApp{Func: callBool, Args: []ir.Expr{&ir.EBool{Value: false}}})
	return &ir.Program{Files: []ir.File{{Name: "identity.mod", Decls: []ir.Decl{
		identity, useInt, useBool,
	}}}}
}

func scenarioRecordEquality() *ir.Program {
	pointDef := ir.TypeDef{Kind: ir.BodyFlat, Fields: []ir.Field{
		{Name: "x", Type: ir.TInt{Width: 32}},
		{Name: "y", Type: ir.TInt{Width: 32}},
	}}
	cmp := ir.DGlobal(0, lid("points_equal"), 0, ir.TBool{},
		&ir.EApp{
			Func: &ir.EPolyComp{Op: ir.PEq, At: ir.TQualified{Lid: lid("point")}},
			Args: []ir.Expr{&ir.EQualified{Lid: lid("p1")}, &ir.EQualified{Lid: lid("p2")}},
		})
	return &ir.Program{Files: []ir.File{{Name: "point.mod", Decls: []ir.Decl{
		ir.DType(lid("point"), 0, 0, pointDef),
		cmp,
	}}}}
}

// scenarioHigherOrderEquality is spec §8's S6: a bare, unapplied EPolyComp
// passed as a value to a higher-order function, here represented directly
// as a global initializer so the scenario stays a self-contained program
// rather than requiring a `map` builtin this module doesn't model.
func scenarioHigherOrderEquality() *ir.Program {
	use := ir.DGlobal(0, lid("int_eq_fn"), 0,
		ir.TArrow{Param: ir.TInt{Width: 32}, Result: ir.TArrow{Param: ir.TInt{Width: 32}, Result: ir.TBool{}}},
		&ir.EPolyComp{Op: ir.PEq, At: ir.TInt{Width: 32}})
	return &ir.Program{Files: []ir.File{{Name: "higher_order.mod", Decls: []ir.Decl{use}}}}
}

func scenarioPointerCompared() *ir.Program {
	handleDef := ir.TypeDef{Kind: ir.BodyForward}
	cmp := ir.DGlobal(0, lid("handles_equal"), 0, ir.TBool{},
		&ir.EApp{
			Func: &ir.EPolyComp{Op: ir.PEq, At: ir.TQualified{Lid: lid("handle")}},
			Args: []ir.Expr{&ir.EQualified{Lid: lid("h1")}, &ir.EQualified{Lid: lid("h2")}},
		})
	return &ir.Program{Files: []ir.File{{Name: "handle.mod", Decls: []ir.Decl{
		ir.DType(lid("handle"), 0, 0, handleDef),
		cmp,
	}}}}
}
