// Package datatypes implements the data-type monomorphizer (spec §4.1,
// §4.2): a tri-color graph traversal over (type-constructor, type-argument)
// nodes that instantiates parametric type definitions on demand, emits
// forward declarations on back-edges and behind indirection, synthesizes
// record types for anonymous tuples, and honors name hints derived from
// user abbreviations.
package datatypes

import (
	"fmt"

	"github.com/sunholo/monocore/internal/errors"
	"github.com/sunholo/monocore/internal/ir"
	"github.com/sunholo/monocore/internal/trace"
)

// TypeEntry is one entry of the whole-program type-definition map.
type TypeEntry struct {
	Flags ir.Flags
	Body  ir.TypeDef
}

// Pass holds the state of one run of the data-type monomorphizer. It is
// constructed fresh per Run and discarded at the end, per §3 "Ownership
// and lifecycle".
type Pass struct {
	defs    map[string]TypeEntry
	state   ir.State
	pending []ir.Decl

	// pendingMonomorphizations[lid.Key()] holds the argument vectors queued
	// against a still-unprocessed polymorphic host declaration (§4.1 step 3).
	pendingMonomorphizations map[string][][]ir.Typ

	hostProcessed map[string]bool
	seen          map[string]bool
	forwarded     map[string]bool // chosen_lid.Key() already forward-declared (§9 open question)

	hint *ir.Hint

	diag   *errors.Diagnostics
	tracer *trace.Tracer
}

// NewPass builds the whole-program type-definition map from prog and
// returns a fresh Pass ready to Run.
func NewPass(prog *ir.Program, diag *errors.Diagnostics, tracer *trace.Tracer) *Pass {
	p := &Pass{
		defs:                     map[string]TypeEntry{},
		state:                    ir.State{},
		pendingMonomorphizations: map[string][][]ir.Typ{},
		hostProcessed:            map[string]bool{},
		seen:                     map[string]bool{},
		forwarded:                map[string]bool{},
		diag:                     diag,
		tracer:                   tracer,
	}
	for _, f := range prog.Files {
		for _, d := range f.Decls {
			if d.Kind == ir.KindType {
				p.defs[d.Lid.Key()] = TypeEntry{Flags: d.Flags, Body: d.Body}
			}
		}
	}
	return p
}

// Run executes the pass over prog and returns the rewritten program.
func Run(prog *ir.Program, diag *errors.Diagnostics, tracer *trace.Tracer) (*ir.Program, error) {
	p := NewPass(prog, diag, tracer)
	out := &ir.Program{Files: make([]ir.File, len(prog.Files))}
	for i, f := range prog.Files {
		nf, err := p.runFile(f)
		if err != nil {
			return nil, err
		}
		out.Files[i] = nf
	}
	if len(p.pendingMonomorphizations) != 0 {
		return nil, errors.NewFatal(errors.MONO004,
			"pending type monomorphizations remained at end of program",
			map[string]any{"count": len(p.pendingMonomorphizations)})
	}
	return out, nil
}

func (p *Pass) enqueue(d ir.Decl) {
	// Prepend, mirroring the source's cons-cell pending buffer; flush
	// reverses it back into append order (§4.1 "Flush discipline").
	p.pending = append([]ir.Decl{d}, p.pending...)
}

func (p *Pass) flush(out []ir.Decl) []ir.Decl {
	for i := len(p.pending) - 1; i >= 0; i-- {
		out = append(out, p.pending[i])
		p.seen[p.pending[i].Lid.Key()] = true
	}
	p.pending = nil
	return out
}

func (p *Pass) enqueueForwardOnce(chosen ir.Lid, flags ir.Flags) {
	if p.forwarded[chosen.Key()] {
		return
	}
	p.forwarded[chosen.Key()] = true
	p.tracer.Defer(trace.DataTypesTraversal, "forward %s", chosen)
	p.enqueue(ir.DType(chosen, flags, 0, ir.TypeDef{Kind: ir.BodyForward}))
}

// runFile implements the per-file top-level driver of §4.1.
func (p *Pass) runFile(f ir.File) (ir.File, error) {
	var out []ir.Decl
	for _, d := range f.Decls {
		switch {
		case isTupleHint(d):
			args := d.Body.Alias.(ir.TTuple).Elts
			n := ir.Node{Lid: ir.TupleLid, Args: args}
			if _, seen := p.state.Get(n); !seen {
				delete(p.defs, d.Lid.Key())
				p.hint = &ir.Hint{Node: n, Lid: d.Lid}
				if _, err := p.visitNode(false, n); err != nil {
					return ir.File{}, err
				}
				p.hint = nil
			}
			out = p.flush(out)

		case isAppHint(d):
			app := d.Body.Alias.(ir.TApp)
			n := ir.Node{Lid: app.Head, Args: app.Args}
			if _, seen := p.state.Get(n); !seen {
				delete(p.defs, d.Lid.Key())
				headEntry, headFound := p.defs[app.Head.Key()]
				gc := headFound && headEntry.Flags.Has(ir.GcType)
				hintLid := d.Lid
				if gc {
					hintLid = d.Lid.WithName(d.Lid.Name + "_gc")
				}
				p.hint = &ir.Hint{Node: n, Lid: hintLid}
				chosen, err := p.visitNode(false, n)
				if err != nil {
					return ir.File{}, err
				}
				p.hint = nil
				if gc {
					p.enqueue(ir.DType(d.Lid, 0, 0, ir.TypeDef{Kind: ir.BodyAbbrev, Alias: ir.TQualified{Lid: chosen}}))
				}
			}
			out = p.flush(out)

		case d.Kind == ir.KindType && d.Arity > 0:
			p.hostProcessed[d.Lid.Key()] = true
			if argsList, ok := p.pendingMonomorphizations[d.Lid.Key()]; ok {
				delete(p.pendingMonomorphizations, d.Lid.Key())
				for _, args := range argsList {
					if _, err := p.visitNode(false, ir.Node{Lid: d.Lid, Args: args}); err != nil {
						return ir.File{}, err
					}
				}
			}
			out = p.flush(out)

		case d.Kind == ir.KindType && d.Arity == 0 &&
			(d.Body.Kind == ir.BodyFlat || d.Body.Kind == ir.BodyVariant || d.Body.Kind == ir.BodyAbbrev):
			key := d.Lid.Key()
			p.hostProcessed[key] = true
			if _, err := p.visitNode(false, ir.Node{Lid: d.Lid}); err != nil {
				return ir.File{}, err
			}
			// The visit above emits (lid, []) itself, which settles any
			// deferral recorded against this host with no arguments.
			var rest [][]ir.Typ
			for _, args := range p.pendingMonomorphizations[key] {
				if len(args) > 0 {
					rest = append(rest, args)
				}
			}
			if len(rest) == 0 {
				delete(p.pendingMonomorphizations, key)
			} else {
				p.pendingMonomorphizations[key] = rest
			}
			out = p.flush(out)

		default:
			rewritten, err := p.rewriteDecl(d)
			if err != nil {
				return ir.File{}, err
			}
			// Any type monomorphizations demanded while rewriting d's
			// binders/body must be spliced in before d itself.
			out = p.flush(out)
			out = append(out, rewritten)
			p.seen[rewritten.Lid.Key()] = true
		}
	}
	return ir.File{Name: f.Name, Decls: out}, nil
}

func isTupleHint(d ir.Decl) bool {
	if d.Kind != ir.KindType || d.Arity != 0 || d.Body.Kind != ir.BodyAbbrev {
		return false
	}
	_, ok := d.Body.Alias.(ir.TTuple)
	return ok
}

func isAppHint(d ir.Decl) bool {
	if d.Kind != ir.KindType || d.Arity != 0 || d.Body.Kind != ir.BodyAbbrev {
		return false
	}
	_, ok := d.Body.Alias.(ir.TApp)
	return ok
}

// visitNode is the core algorithm of §4.1.
func (p *Pass) visitNode(underRef bool, n ir.Node) (ir.Lid, error) {
	p.tracer.Visit(trace.DataTypesTraversal, "%s under_ref=%v", n.Key(), underRef)

	if st, ok := p.state.Get(n); ok {
		if st.Color == ir.Black {
			return st.Chosen, nil
		}
		// Gray: back-edge, close the cycle with a forward declaration.
		flags := ir.AutoGenerated
		if e, ok := p.defs[n.Lid.Key()]; ok {
			flags = e.Flags
		}
		p.tracer.Cycle(trace.DataTypesTraversal, "closing cycle at %s", st.Chosen)
		p.enqueueForwardOnce(st.Chosen, flags)
		return st.Chosen, nil
	}

	if n.Lid.IsTuple() {
		chosen, _ := p.lidOf(n)
		p.state.MarkGray(n, chosen)
		fields := make([]ir.Field, len(n.Args))
		for i, a := range n.Args {
			t, err := p.visitTyp(underRef, a)
			if err != nil {
				return ir.Lid{}, err
			}
			fields[i] = ir.Field{Name: ir.TupleFieldName(i), Type: t}
		}
		p.enqueue(ir.DType(chosen, ir.Private|ir.AutoGenerated, 0, ir.TypeDef{Kind: ir.BodyFlat, Fields: fields}))
		p.state.MarkBlack(n, chosen)
		p.tracer.Emit(trace.DataTypesTraversal, "tuple record %s", chosen)
		return chosen, nil
	}

	entry, found := p.defs[n.Lid.Key()]
	if !found {
		p.state.MarkBlack(n, n.Lid)
		return n.Lid, nil
	}

	chosen, autoGen := p.lidOf(n)

	if (entry.Body.Kind == ir.BodyVariant || entry.Body.Kind == ir.BodyFlat) &&
		underRef && !p.hostProcessed[n.Lid.Key()] {
		p.enqueueForwardOnce(chosen, entry.Flags)
		p.pendingMonomorphizations[n.Lid.Key()] = append(p.pendingMonomorphizations[n.Lid.Key()], n.Args)
		p.state.Remove(n)
		return chosen, nil
	}

	p.state.MarkGray(n, chosen)
	flags := entry.Flags
	if autoGen {
		flags = flags.With(ir.AutoGenerated)
	}

	switch entry.Body.Kind {
	case ir.BodyVariant:
		branches := ir.SubstTNBranches(n.Args, entry.Body.Branches)
		for bi, b := range branches {
			for fi, f := range b.Fields {
				t, err := p.visitTyp(underRef, f.Type)
				if err != nil {
					return ir.Lid{}, err
				}
				branches[bi].Fields[fi] = ir.Field{Name: f.Name, Type: t, Mutable: f.Mutable}
			}
		}
		p.enqueue(ir.DType(chosen, flags, 0, ir.TypeDef{Kind: ir.BodyVariant, Branches: branches}))
		p.state.MarkBlack(n, chosen)
		p.tracer.Emit(trace.DataTypesTraversal, "variant %s", chosen)

	case ir.BodyFlat:
		fields := ir.SubstTNFields(n.Args, entry.Body.Fields)
		for fi, f := range fields {
			t, err := p.visitTyp(underRef, f.Type)
			if err != nil {
				return ir.Lid{}, err
			}
			fields[fi] = ir.Field{Name: f.Name, Type: t, Mutable: f.Mutable}
		}
		p.enqueue(ir.DType(chosen, flags, 0, ir.TypeDef{Kind: ir.BodyFlat, Fields: fields}))
		p.state.MarkBlack(n, chosen)
		p.tracer.Emit(trace.DataTypesTraversal, "flat %s", chosen)

	case ir.BodyAbbrev:
		substituted := ir.SubstTN(n.Args, entry.Body.Alias)
		t, err := p.visitTyp(underRef, substituted)
		if err != nil {
			return ir.Lid{}, err
		}
		p.enqueue(ir.DType(chosen, flags, 0, ir.TypeDef{Kind: ir.BodyAbbrev, Alias: t}))
		p.state.MarkBlack(n, chosen)
		p.tracer.Emit(trace.DataTypesTraversal, "abbrev %s", chosen)

	default:
		// Forward, Enum, Union: mark Black, no emission.
		p.state.MarkBlack(n, chosen)
	}

	return chosen, nil
}

// lidOf implements §4.1 "Name selection (lid_of)". The bool return reports
// whether the name was synthesized (and so should carry AutoGenerated).
func (p *Pass) lidOf(n ir.Node) (ir.Lid, bool) {
	if len(n.Args) == 0 {
		return n.Lid, false
	}
	if p.hint.Matches(n) {
		return p.hint.Lid, false
	}
	return ir.SynthesizeName(p.state, n.Lid, n.Args), true
}

// visitTyp implements the type-level rewrites of §4.2.
func (p *Pass) visitTyp(underRef bool, t ir.Typ) (ir.Typ, error) {
	switch tt := t.(type) {
	case ir.TTuple:
		chosen, err := p.visitNode(underRef, ir.Node{Lid: ir.TupleLid, Args: tt.Elts})
		return ir.TQualified{Lid: chosen}, err
	case ir.TQualified:
		chosen, err := p.visitNode(underRef, ir.Node{Lid: tt.Lid})
		return ir.TQualified{Lid: chosen}, err
	case ir.TApp:
		chosen, err := p.visitNode(underRef, ir.Node{Lid: tt.Head, Args: tt.Args})
		return ir.TQualified{Lid: chosen}, err
	case ir.TBuf:
		elem, err := p.visitTyp(true, tt.Elem)
		return ir.TBuf{Elem: elem, Const: tt.Const}, err
	case ir.TArrow:
		param, err := p.visitTyp(underRef, tt.Param)
		if err != nil {
			return nil, err
		}
		result, err := p.visitTyp(underRef, tt.Result)
		return ir.TArrow{Param: param, Result: result}, err
	default:
		return t, nil
	}
}

// visitExpr implements the expression-level rewrites of §4.2.
func (p *Pass) visitExpr(e ir.Expr) (ir.Expr, error) {
	if e == nil {
		return nil, nil
	}
	newTyp, err := p.visitTyp(false, e.Meta().Type)
	if err != nil {
		return nil, err
	}
	base := ir.ExprMeta{Span: e.Meta().Span, Type: newTyp}

	switch ex := e.(type) {
	case *ir.ETuple:
		elems := make([]ir.FieldExpr, len(ex.Elems))
		for i, el := range ex.Elems {
			v, err := p.visitExpr(el)
			if err != nil {
				return nil, err
			}
			elems[i] = ir.FieldExpr{Name: ir.TupleFieldName(i), Value: v}
		}
		return &ir.EFlat{ExprMeta: base, Fields: elems}, nil

	case *ir.EApp:
		fn, err := p.visitExpr(ex.Func)
		if err != nil {
			return nil, err
		}
		args := make([]ir.Expr, len(ex.Args))
		for i, a := range ex.Args {
			if args[i], err = p.visitExpr(a); err != nil {
				return nil, err
			}
		}
		return &ir.EApp{ExprMeta: base, Func: fn, Args: args}, nil

	case *ir.ETApp:
		fn, err := p.visitExpr(ex.Fun)
		if err != nil {
			return nil, err
		}
		targs := make([]ir.Typ, len(ex.Targs))
		for i, t := range ex.Targs {
			if targs[i], err = p.visitTyp(false, t); err != nil {
				return nil, err
			}
		}
		return &ir.ETApp{ExprMeta: base, Fun: fn, Targs: targs}, nil

	case *ir.EOp:
		left, err := p.visitExpr(ex.Left)
		if err != nil {
			return nil, err
		}
		right, err := p.visitExpr(ex.Right)
		if err != nil {
			return nil, err
		}
		return &ir.EOp{ExprMeta: base, Op: ex.Op, Width: ex.Width, Left: left, Right: right}, nil

	case *ir.EPolyComp:
		at, err := p.visitTyp(false, ex.At)
		return &ir.EPolyComp{ExprMeta: base, Op: ex.Op, At: at}, err

	case *ir.EFlat:
		fields := make([]ir.FieldExpr, len(ex.Fields))
		for i, f := range ex.Fields {
			v, err := p.visitExpr(f.Value)
			if err != nil {
				return nil, err
			}
			fields[i] = ir.FieldExpr{Name: f.Name, Value: v}
		}
		return &ir.EFlat{ExprMeta: base, Fields: fields}, nil

	case *ir.EField:
		rec, err := p.visitExpr(ex.Record)
		return &ir.EField{ExprMeta: base, Record: rec, Name: ex.Name}, err

	case *ir.EMatch:
		scrut, err := p.visitExpr(ex.Scrutinee)
		if err != nil {
			return nil, err
		}
		arms := make([]ir.MatchArm, len(ex.Arms))
		for i, a := range ex.Arms {
			pat, err := p.visitPattern(a.Pattern)
			if err != nil {
				return nil, err
			}
			body, err := p.visitExpr(a.Body)
			if err != nil {
				return nil, err
			}
			arms[i] = ir.MatchArm{Pattern: pat, Body: body}
		}
		return &ir.EMatch{ExprMeta: base, Scrutinee: scrut, Arms: arms}, nil

	case *ir.EFun:
		body, err := p.visitExpr(ex.Body)
		return &ir.EFun{ExprMeta: base, Params: ex.Params, Body: body}, err

	case *ir.ELet:
		val, err := p.visitExpr(ex.Value)
		if err != nil {
			return nil, err
		}
		body, err := p.visitExpr(ex.Body)
		return &ir.ELet{ExprMeta: base, Name: ex.Name, Value: val, Body: body}, err

	case *ir.EIf:
		cond, err := p.visitExpr(ex.Cond)
		if err != nil {
			return nil, err
		}
		then, err := p.visitExpr(ex.Then)
		if err != nil {
			return nil, err
		}
		els, err := p.visitExpr(ex.Else)
		return &ir.EIf{ExprMeta: base, Cond: cond, Then: then, Else: els}, err

	case *ir.EAddrOf:
		op, err := p.visitExpr(ex.Operand)
		return &ir.EAddrOf{ExprMeta: base, Operand: op}, err

	case *ir.EBound:
		return &ir.EBound{ExprMeta: base, Index: ex.Index}, nil
	case *ir.EQualified:
		return &ir.EQualified{ExprMeta: base, Lid: ex.Lid}, nil
	case *ir.EVar:
		return &ir.EVar{ExprMeta: base, Name: ex.Name}, nil
	case *ir.EBool:
		return &ir.EBool{ExprMeta: base, Value: ex.Value}, nil
	case *ir.EUnit:
		return &ir.EUnit{ExprMeta: base}, nil
	default:
		return nil, fmt.Errorf("datatypes: unexpected expression node %T", e)
	}
}

func (p *Pass) visitPattern(pat ir.Pattern) (ir.Pattern, error) {
	switch pp := pat.(type) {
	case ir.PTuple:
		fields := make([]ir.FieldPattern, len(pp.Elems))
		for i, el := range pp.Elems {
			v, err := p.visitPattern(el)
			if err != nil {
				return nil, err
			}
			fields[i] = ir.FieldPattern{Name: ir.TupleFieldName(i), Pattern: v}
		}
		return ir.PRecord{Fields: fields}, nil
	case ir.PConstructor:
		args := make([]ir.Pattern, len(pp.Args))
		for i, a := range pp.Args {
			v, err := p.visitPattern(a)
			if err != nil {
				return nil, err
			}
			args[i] = v
		}
		return ir.PConstructor{Ctor: pp.Ctor, Args: args}, nil
	case ir.PRecord:
		fields := make([]ir.FieldPattern, len(pp.Fields))
		for i, f := range pp.Fields {
			v, err := p.visitPattern(f.Pattern)
			if err != nil {
				return nil, err
			}
			fields[i] = ir.FieldPattern{Name: f.Name, Pattern: v}
		}
		return ir.PRecord{Fields: fields}, nil
	default:
		return pat, nil
	}
}

func (p *Pass) rewriteDecl(d ir.Decl) (ir.Decl, error) {
	var err error
	switch d.Kind {
	case ir.KindFunction:
		binders := make([]ir.Binder, len(d.Binders))
		for i, b := range d.Binders {
			t, e := p.visitTyp(false, b.Type)
			if e != nil {
				return ir.Decl{}, e
			}
			binders[i] = ir.Binder{Name: b.Name, Type: t}
		}
		d.Binders = binders
		if d.Typ, err = p.visitTyp(false, d.Typ); err != nil {
			return ir.Decl{}, err
		}
		if d.FnBody, err = p.visitExpr(d.FnBody); err != nil {
			return ir.Decl{}, err
		}
	case ir.KindGlobal:
		if d.Typ, err = p.visitTyp(false, d.Typ); err != nil {
			return ir.Decl{}, err
		}
		if d.GlobalBody != nil {
			if d.GlobalBody, err = p.visitExpr(d.GlobalBody); err != nil {
				return ir.Decl{}, err
			}
		}
	case ir.KindExternal:
		if d.Typ, err = p.visitTyp(false, d.Typ); err != nil {
			return ir.Decl{}, err
		}
	}
	return d, nil
}
