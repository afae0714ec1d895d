// Package structeq implements the structural equality/inequality generator
// (spec §4.4): it resolves every EPolyComp occurrence against the concrete
// monomorphic type it compares at, either inlining a primitive operator,
// leaving a residual passthrough for types the target backend compares
// natively, or synthesizing (and memoizing) a recursive equality predicate.
package structeq

import (
	"fmt"
	"strings"

	"github.com/sunholo/monocore/internal/errors"
	"github.com/sunholo/monocore/internal/ir"
	"github.com/sunholo/monocore/internal/trace"
)

type color int

const (
	gray color = iota
	black
)

// Pass holds the state of one run of the equality generator.
type Pass struct {
	defs map[string]ir.TypeDef
	flgs map[string]ir.Flags

	// PointerCompared seeds the generator with abstract types that must
	// always be compared by address rather than by structural recursion,
	// matching the upstream monomorphizer's hardcoded list of "well-known"
	// library abstract types. Exposed here as configuration instead, so
	// callers decide which external types behave that way (§9 open
	// question: decided as additive, see DESIGN.md).
	PointerCompared map[string]bool

	generated   map[string]ir.Lid // dispatch key -> chosen predicate lid
	comparators map[string]ir.Lid // (op, type) -> hoisted bare-comparator lid
	state       map[string]color
	slot        map[string]int // dispatch key -> index into pending, for the Private-relax patch
	pending     []ir.Decl

	diag   *errors.Diagnostics
	tracer *trace.Tracer
}

// NewPass builds the whole-program type-definition map and returns a fresh
// Pass ready to Run.
func NewPass(prog *ir.Program, pointerCompared map[string]bool, diag *errors.Diagnostics, tracer *trace.Tracer) *Pass {
	if pointerCompared == nil {
		pointerCompared = map[string]bool{}
	}
	p := &Pass{
		defs:            map[string]ir.TypeDef{},
		flgs:            map[string]ir.Flags{},
		PointerCompared: pointerCompared,
		generated:       map[string]ir.Lid{},
		comparators:     map[string]ir.Lid{},
		state:           map[string]color{},
		slot:            map[string]int{},
		diag:            diag,
		tracer:          tracer,
	}
	for _, f := range prog.Files {
		for _, d := range f.Decls {
			if d.Kind == ir.KindType {
				p.defs[d.Lid.Key()] = d.Body
				p.flgs[d.Lid.Key()] = d.Flags
			}
		}
	}
	return p
}

// Run executes the pass over prog and returns the rewritten program, with
// every synthesized equality predicate appended to the file that first
// demanded it.
func Run(prog *ir.Program, pointerCompared map[string]bool, diag *errors.Diagnostics, tracer *trace.Tracer) (*ir.Program, error) {
	p := NewPass(prog, pointerCompared, diag, tracer)
	out := &ir.Program{Files: make([]ir.File, len(prog.Files))}
	for i, f := range prog.Files {
		nf, err := p.runFile(f)
		if err != nil {
			return nil, err
		}
		out.Files[i] = nf
	}
	return out, nil
}

func (p *Pass) runFile(f ir.File) (ir.File, error) {
	var out []ir.Decl
	for _, d := range f.Decls {
		rewritten, err := p.rewriteDecl(d)
		if err != nil {
			return ir.File{}, err
		}
		out = append(out, p.pending...)
		p.pending = nil
		out = append(out, rewritten)
	}
	return ir.File{Name: f.Name, Decls: out}, nil
}

func (p *Pass) rewriteDecl(d ir.Decl) (ir.Decl, error) {
	var err error
	switch d.Kind {
	case ir.KindType:
		if d.Body.Kind == ir.BodyEnum || d.Body.Kind == ir.BodyUnion {
			if mentionsEquality(d) {
				return ir.Decl{}, errors.NewFatal(errors.MONO003,
					"Enum/Union body reached equality generation", map[string]any{"lid": d.Lid.String()})
			}
		}
	case ir.KindFunction:
		if d.FnBody, err = p.rewriteExpr(d.FnBody); err != nil {
			return ir.Decl{}, err
		}
	case ir.KindGlobal:
		if d.GlobalBody != nil {
			if d.GlobalBody, err = p.rewriteExpr(d.GlobalBody); err != nil {
				return ir.Decl{}, err
			}
		}
	}
	return d, nil
}

// mentionsEquality always reports false: an Enum/Union TypeDef carries no
// expression of its own, so rewriteDecl never raises MONO003. Equality at
// an Enum/Union type is passed through unchanged by resolveQualified.
func mentionsEquality(d ir.Decl) bool { return false }

// rewriteExpr recursively resolves EPolyComp occurrences.
func (p *Pass) rewriteExpr(e ir.Expr) (ir.Expr, error) {
	if e == nil {
		return nil, nil
	}
	switch ex := e.(type) {
	case *ir.EApp:
		if pc, ok := ex.Func.(*ir.EPolyComp); ok && len(ex.Args) == 2 {
			left, err := p.rewriteExpr(ex.Args[0])
			if err != nil {
				return nil, err
			}
			right, err := p.rewriteExpr(ex.Args[1])
			if err != nil {
				return nil, err
			}
			return p.resolveCompare(pc.Op, pc.At, left, right, ex.Meta())
		}
		fn, err := p.rewriteExpr(ex.Func)
		if err != nil {
			return nil, err
		}
		args := make([]ir.Expr, len(ex.Args))
		for i, a := range ex.Args {
			if args[i], err = p.rewriteExpr(a); err != nil {
				return nil, err
			}
		}
		return &ir.EApp{ExprMeta: ex.Meta(), Func: fn, Args: args}, nil

	case *ir.EPolyComp:
		// A bare, unapplied occurrence is passed around as a value (e.g.
		// `map eq list`), so it must resolve to something with a top-level
		// address: hoist a named predicate into p.pending and reference it,
		// rather than an inline closure the target language has no way to
		// represent (§4.4 "higher-order case").
		chosen, err := p.hoistComparator(ex.Op, ex.At)
		if err != nil {
			return nil, err
		}
		return &ir.EQualified{ExprMeta: ex.Meta(), Lid: chosen}, nil

	case *ir.ETuple:
		elems := make([]ir.Expr, len(ex.Elems))
		for i, el := range ex.Elems {
			v, err := p.rewriteExpr(el)
			if err != nil {
				return nil, err
			}
			elems[i] = v
		}
		return &ir.ETuple{ExprMeta: ex.Meta(), Elems: elems}, nil
	case *ir.EFlat:
		fields := make([]ir.FieldExpr, len(ex.Fields))
		for i, f := range ex.Fields {
			v, err := p.rewriteExpr(f.Value)
			if err != nil {
				return nil, err
			}
			fields[i] = ir.FieldExpr{Name: f.Name, Value: v}
		}
		return &ir.EFlat{ExprMeta: ex.Meta(), Fields: fields}, nil
	case *ir.EField:
		rec, err := p.rewriteExpr(ex.Record)
		return &ir.EField{ExprMeta: ex.Meta(), Record: rec, Name: ex.Name}, err
	case *ir.EMatch:
		scrut, err := p.rewriteExpr(ex.Scrutinee)
		if err != nil {
			return nil, err
		}
		arms := make([]ir.MatchArm, len(ex.Arms))
		for i, a := range ex.Arms {
			body, err := p.rewriteExpr(a.Body)
			if err != nil {
				return nil, err
			}
			arms[i] = ir.MatchArm{Pattern: a.Pattern, Body: body}
		}
		return &ir.EMatch{ExprMeta: ex.Meta(), Scrutinee: scrut, Arms: arms}, nil
	case *ir.EFun:
		body, err := p.rewriteExpr(ex.Body)
		return &ir.EFun{ExprMeta: ex.Meta(), Params: ex.Params, Body: body}, err
	case *ir.ELet:
		val, err := p.rewriteExpr(ex.Value)
		if err != nil {
			return nil, err
		}
		body, err := p.rewriteExpr(ex.Body)
		return &ir.ELet{ExprMeta: ex.Meta(), Name: ex.Name, Value: val, Body: body}, err
	case *ir.EIf:
		cond, err := p.rewriteExpr(ex.Cond)
		if err != nil {
			return nil, err
		}
		then, err := p.rewriteExpr(ex.Then)
		if err != nil {
			return nil, err
		}
		els, err := p.rewriteExpr(ex.Else)
		return &ir.EIf{ExprMeta: ex.Meta(), Cond: cond, Then: then, Else: els}, err
	case *ir.EAddrOf:
		op, err := p.rewriteExpr(ex.Operand)
		return &ir.EAddrOf{ExprMeta: ex.Meta(), Operand: op}, err
	default:
		return e, nil
	}
}

// resolveCompare implements the §4.4 dispatch table for one (op, at, left,
// right) occurrence.
func (p *Pass) resolveCompare(op ir.PolyOp, at ir.Typ, left, right ir.Expr, meta ir.ExprMeta) (ir.Expr, error) {
	switch t := at.(type) {
	case ir.TInt:
		return p.primitiveOp(op, t.Width, left, right, meta), nil
	case ir.TBool:
		return p.primitiveOp(op, 1, left, right, meta), nil
	case ir.TUnit:
		return &ir.EBool{ExprMeta: meta, Value: op == ir.PEq}, nil
	case ir.TBuf:
		// Pointer/buffer comparison is native; leave as a residual
		// applied comparator for the backend to lower directly.
		return &ir.EApp{ExprMeta: meta, Func: &ir.EPolyComp{Op: op, At: at}, Args: []ir.Expr{left, right}}, nil
	case ir.TQualified:
		return p.resolveQualified(op, t.Lid, left, right, meta)
	default:
		return &ir.EApp{ExprMeta: meta, Func: &ir.EPolyComp{Op: op, At: at}, Args: []ir.Expr{left, right}}, nil
	}
}

func (p *Pass) primitiveOp(op ir.PolyOp, width int, left, right ir.Expr, meta ir.ExprMeta) ir.Expr {
	sym := "="
	if op == ir.PNeq {
		sym = "<>"
	}
	return &ir.EOp{ExprMeta: meta, Op: sym, Width: width, Left: left, Right: right}
}

func (p *Pass) resolveQualified(op ir.PolyOp, lid ir.Lid, left, right ir.Expr, meta ir.ExprMeta) (ir.Expr, error) {
	body, found := p.defs[lid.Key()]
	if found && (body.Kind == ir.BodyEnum || body.Kind == ir.BodyUnion) {
		return &ir.EApp{ExprMeta: meta, Func: &ir.EPolyComp{Op: op, At: ir.TQualified{Lid: lid}}, Args: []ir.Expr{left, right}}, nil
	}

	chosen, err := p.generateEquality(lid)
	if err != nil {
		return nil, err
	}

	pointer := p.PointerCompared[lid.Key()] || (found && body.Kind == ir.BodyForward)
	larg, rarg := left, right
	if pointer {
		larg = &ir.EAddrOf{ExprMeta: ir.ExprMeta{Type: ir.TBuf{Elem: ir.TQualified{Lid: lid}, Const: true}}, Operand: left}
		rarg = &ir.EAddrOf{ExprMeta: ir.ExprMeta{Type: ir.TBuf{Elem: ir.TQualified{Lid: lid}, Const: true}}, Operand: right}
	}
	call := &ir.EApp{ExprMeta: ir.ExprMeta{Type: ir.TBool{}}, Func: &ir.EQualified{Lid: chosen}, Args: []ir.Expr{larg, rarg}}
	if op == ir.PEq {
		call.ExprMeta = meta
		return call, nil
	}
	return &ir.EIf{ExprMeta: meta, Cond: call, Then: &ir.EBool{Value: false}, Else: &ir.EBool{Value: true}}, nil
}

// generateEquality returns the (memoized) lid of an `=` predicate over lid,
// synthesizing it on first demand. It implements mk_rec_equality and the
// cycle-detection/Private-relax rule of §4.4: when a predicate's body calls
// back into a predicate still being built (Gray), every predicate still
// being built has Private cleared, both ends of the cycle included, since C
// requires a non-static linkage to let one translation unit reach the
// other across the cycle.
func (p *Pass) generateEquality(lid ir.Lid) (ir.Lid, error) {
	key := lid.Key()
	if chosen, ok := p.generated[key]; ok {
		if c, seen := p.state[key]; seen && c == gray {
			for k, kc := range p.state {
				if kc == gray {
					p.relax(k)
				}
			}
		}
		return chosen, nil
	}

	body, found := p.defs[lid.Key()]

	// An Abbrev has no fields or branches of its own to compare: resolve
	// through the alias *before* reserving a slot or committing a "_eq"
	// name for this lid, and memoize the alias's own chosen lid rather than
	// a fresh name nothing ever defines.
	if found && body.Kind == ir.BodyAbbrev {
		chosen, err := p.generateEquality(aliasLid(body.Alias, lid))
		if err != nil {
			return ir.Lid{}, err
		}
		p.generated[key] = chosen
		return chosen, nil
	}

	chosen := lid.WithName(lid.Name + "_eq")
	p.generated[key] = chosen

	if !found || body.Kind == ir.BodyForward || p.PointerCompared[key] {
		p.tracer.Defer(trace.Monomorphization, "external equality predicate for %s", lid)
		p.slot[key] = len(p.pending)
		p.pending = append(p.pending, ir.DExternal("eq", ir.Private, 0, chosen, ir.TBool{}, []string{"x", "y"}))
		return chosen, nil
	}

	p.state[key] = gray
	p.slot[key] = len(p.pending)
	// Reserved slot, filled below; relax clears its Private bit if a cycle
	// closes while the body is being built.
	p.pending = append(p.pending, ir.Decl{Flags: ir.Private})

	var bodyExpr ir.Expr
	var err error
	switch body.Kind {
	case ir.BodyFlat:
		bodyExpr, err = p.flatEquality(body.Fields)
	case ir.BodyVariant:
		bodyExpr, err = p.variantEquality(body.Branches)
	default:
		bodyExpr = &ir.EBool{Value: true}
	}
	if err != nil {
		return ir.Lid{}, err
	}

	flags := ir.AutoGenerated
	if p.flgs[lid.Key()].Has(ir.Private) && p.pending[p.slot[key]].Flags.Has(ir.Private) {
		flags |= ir.Private
	}

	fn := ir.DFunction("eq", flags, 0, ir.TBool{}, chosen,
		[]ir.Binder{{Name: "x", Type: ir.TQualified{Lid: lid}}, {Name: "y", Type: ir.TQualified{Lid: lid}}},
		&ir.EFun{Params: []string{"x", "y"}, Body: bodyExpr, ExprMeta: ir.ExprMeta{Type: ir.TBool{}}})
	p.pending[p.slot[key]] = fn
	p.state[key] = black
	p.tracer.Emit(trace.Monomorphization, "equality predicate %s", chosen)
	return chosen, nil
}

// relax clears Private on a predicate that turned out to participate in a
// mutual-recursion cycle, implementing §4.4's "cycle detection relaxing
// Private visibility" note.
func (p *Pass) relax(key string) {
	idx, ok := p.slot[key]
	if !ok || idx >= len(p.pending) {
		return
	}
	p.pending[idx].Flags = p.pending[idx].Flags.Without(ir.Private)
}

func aliasLid(t ir.Typ, fallback ir.Lid) ir.Lid {
	if q, ok := t.(ir.TQualified); ok {
		return q.Lid
	}
	return fallback
}

// hoistComparator returns the (memoized) lid of a top-level two-argument
// predicate equivalent to `fun x y -> x op y` at the given type, for a bare
// EPolyComp that is used as a value rather than applied in place. Reuses
// resolveCompare for the body, so a qualified type still shares the one
// memoized structural predicate generateEquality would have produced for an
// applied occurrence at the same type.
func (p *Pass) hoistComparator(op ir.PolyOp, at ir.Typ) (ir.Lid, error) {
	key := fmt.Sprintf("ho|%d|%s", op, at.Key())
	if chosen, ok := p.comparators[key]; ok {
		return chosen, nil
	}

	chosen := comparatorLid(op, at)
	p.comparators[key] = chosen

	body, err := p.resolveCompare(op, at, &ir.EBound{Index: 1}, &ir.EBound{Index: 0}, ir.ExprMeta{Type: ir.TBool{}})
	if err != nil {
		return ir.Lid{}, err
	}

	fn := ir.DFunction("eq", ir.AutoGenerated, 0, ir.TBool{}, chosen,
		[]ir.Binder{{Name: "x", Type: at}, {Name: "y", Type: at}},
		&ir.EFun{Params: []string{"x", "y"}, Body: body, ExprMeta: ir.ExprMeta{Type: ir.TBool{}}})
	p.pending = append(p.pending, fn)
	p.tracer.Emit(trace.Monomorphization, "hoisted comparator %s", chosen)
	return chosen, nil
}

// comparatorLid names a hoisted bare comparator. A qualified type shares its
// module with the type it compares; anything else gets an unqualified name
// built from its own printed form, matching the tuple constructor's
// convention of an empty Module for names with no natural home module.
func comparatorLid(op ir.PolyOp, at ir.Typ) ir.Lid {
	opName := "eq"
	if op == ir.PNeq {
		opName = "neq"
	}
	if tq, ok := at.(ir.TQualified); ok {
		return tq.Lid.WithName(tq.Lid.Name + "_" + opName + "_cmp")
	}
	return ir.Lid{Name: opName + "_cmp__" + sanitizeName(at.String())}
}

func sanitizeName(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, s)
}

func (p *Pass) flatEquality(fields []ir.Field) (ir.Expr, error) {
	var acc ir.Expr
	for _, f := range fields {
		left := &ir.EField{Record: &ir.EBound{Index: 1}, Name: f.Name}
		right := &ir.EField{Record: &ir.EBound{Index: 0}, Name: f.Name}
		cmp, err := p.resolveCompare(ir.PEq, f.Type, left, right, ir.ExprMeta{Type: ir.TBool{}})
		if err != nil {
			return nil, err
		}
		if acc == nil {
			acc = cmp
			continue
		}
		acc = &ir.EOp{ExprMeta: ir.ExprMeta{Type: ir.TBool{}}, Op: "&&", Width: 1, Left: acc, Right: cmp}
	}
	if acc == nil {
		return &ir.EBool{Value: true}, nil
	}
	return acc, nil
}

func (p *Pass) variantEquality(branches []ir.Branch) (ir.Expr, error) {
	var arms []ir.MatchArm
	for _, b := range branches {
		leftArgs := make([]ir.Pattern, len(b.Fields))
		rightArgs := make([]ir.Pattern, len(b.Fields))
		for i := range b.Fields {
			leftArgs[i] = ir.PVar{Name: fmt.Sprintf("a%d", i)}
			rightArgs[i] = ir.PVar{Name: fmt.Sprintf("b%d", i)}
		}
		pattern := ir.PTuple{Elems: []ir.Pattern{
			ir.PConstructor{Ctor: b.Ctor, Args: leftArgs},
			ir.PConstructor{Ctor: b.Ctor, Args: rightArgs},
		}}

		var body ir.Expr
		for i, f := range b.Fields {
			cmp, err := p.resolveCompare(ir.PEq, f.Type,
				&ir.EVar{Name: fmt.Sprintf("a%d", i)}, &ir.EVar{Name: fmt.Sprintf("b%d", i)},
				ir.ExprMeta{Type: ir.TBool{}})
			if err != nil {
				return nil, err
			}
			if body == nil {
				body = cmp
				continue
			}
			body = &ir.EOp{ExprMeta: ir.ExprMeta{Type: ir.TBool{}}, Op: "&&", Width: 1, Left: body, Right: cmp}
		}
		if body == nil {
			body = &ir.EBool{Value: true}
		}
		arms = append(arms, ir.MatchArm{Pattern: pattern, Body: body})
	}
	arms = append(arms, ir.MatchArm{Pattern: ir.PWildcard{}, Body: &ir.EBool{Value: false}})

	scrutinee := &ir.ETuple{Elems: []ir.Expr{&ir.EBound{Index: 1}, &ir.EBound{Index: 0}}}
	return &ir.EMatch{ExprMeta: ir.ExprMeta{Type: ir.TBool{}}, Scrutinee: scrutinee, Arms: arms}, nil
}
