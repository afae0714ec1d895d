// Package specialize implements the function/global monomorphizer (spec
// §4.3): it drops polymorphic source declarations, keeps monomorphic ones,
// and replaces every ETApp with a reference to an on-demand specialization
// generated by substituting the callee's body at the requested type
// arguments.
package specialize

import (
	"github.com/sunholo/monocore/internal/errors"
	"github.com/sunholo/monocore/internal/ir"
	"github.com/sunholo/monocore/internal/trace"
)

// polySite is one source declaration with TypeArity > 0, kept around so a
// later ETApp can generate a specialization against it.
type polySite struct {
	decl ir.Decl
}

// Pass holds the state of one run of the function/global monomorphizer.
type Pass struct {
	poly map[string]polySite // Lid.Key() -> polymorphic source declaration

	// generatedLids[lid.Key()+"<"+argsKey+">"] = chosen specialization lid.
	generatedLids map[string]ir.Lid
	pendingDefs   []ir.Decl

	diag   *errors.Diagnostics
	tracer *trace.Tracer
}

// NewPass builds the whole-program map of polymorphic function/global
// sources and returns a fresh Pass ready to Run.
func NewPass(prog *ir.Program, diag *errors.Diagnostics, tracer *trace.Tracer) *Pass {
	p := &Pass{
		poly:          map[string]polySite{},
		generatedLids: map[string]ir.Lid{},
		diag:          diag,
		tracer:        tracer,
	}
	for _, f := range prog.Files {
		for _, d := range f.Decls {
			if (d.Kind == ir.KindFunction || d.Kind == ir.KindGlobal) && d.TypeArity > 0 {
				p.poly[d.Lid.Key()] = polySite{decl: d}
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
	return out, nil
}

func argsKey(args []ir.Typ) string {
	k := ""
	for _, a := range args {
		k += "," + a.Key()
	}
	return k
}

// runFile implements the per-file walk of §4.3: polymorphic declarations
// are dropped (their specializations are spliced in where they are first
// demanded), monomorphic ones pass through rewritten, and any
// specializations generated while visiting this file's bodies are flushed
// immediately before the triggering declaration.
func (p *Pass) runFile(f ir.File) (ir.File, error) {
	var out []ir.Decl
	for _, d := range f.Decls {
		if d.TypeArityOf() > 0 && (d.Kind == ir.KindFunction || d.Kind == ir.KindGlobal) {
			p.tracer.Defer(trace.Monomorphization, "dropping polymorphic source %s", d.Lid)
			continue
		}

		rewritten, err := p.rewriteDecl(d)
		if err != nil {
			return ir.File{}, err
		}
		out = append(out, p.pendingDefs...)
		p.pendingDefs = nil
		out = append(out, rewritten)
	}
	return ir.File{Name: f.Name, Decls: out}, nil
}

func (p *Pass) rewriteDecl(d ir.Decl) (ir.Decl, error) {
	var err error
	switch d.Kind {
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

// rewriteExpr walks e, dispatching ETApp through specializeCall and
// asserting the §4.3 invariant that no EOp(Eq|Neq,_) survives under a type
// application (that shape is only ever produced, pre-specialization, as the
// residual left by internal/structeq; seeing it here means structeq ran out
// of order or a caller built malformed IR).
func (p *Pass) rewriteExpr(e ir.Expr) (ir.Expr, error) {
	if e == nil {
		return nil, nil
	}
	switch ex := e.(type) {
	case *ir.ETApp:
		if op, ok := ex.Fun.(*ir.EOp); ok && (op.Op == "=" || op.Op == "<>") {
			return nil, errors.NewFatal(errors.MONO002,
				"structural comparison operator survived under a type application",
				map[string]any{"op": op.Op})
		}
		fn, err := p.rewriteExpr(ex.Fun)
		if err != nil {
			return nil, err
		}
		return p.specializeCall(fn, ex.Targs, ex.Meta())
	case *ir.EApp:
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
	case *ir.EOp:
		left, err := p.rewriteExpr(ex.Left)
		if err != nil {
			return nil, err
		}
		right, err := p.rewriteExpr(ex.Right)
		if err != nil {
			return nil, err
		}
		return &ir.EOp{ExprMeta: ex.Meta(), Op: ex.Op, Width: ex.Width, Left: left, Right: right}, nil
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

// specializeCall implements the ETApp dispatch table of §4.3: a reference
// to an already-generated specialization is reused; a reference to a
// polymorphic source generates one on demand; an unrecognized callee head
// produces a WARN003 and passes the type application through unresolved;
// an arity mismatch produces a WARN001 and also passes through unresolved.
func (p *Pass) specializeCall(fn ir.Expr, targs []ir.Typ, meta ir.ExprMeta) (ir.Expr, error) {
	ref, ok := fn.(*ir.EQualified)
	if !ok {
		return &ir.ETApp{ExprMeta: meta, Fun: fn, Targs: targs}, nil
	}

	site, found := p.poly[ref.Lid.Key()]
	if !found {
		p.diag.Warn(errors.NewWarning(errors.WARN003,
			"type application head is not a known polymorphic declaration",
			map[string]any{"lid": ref.Lid.String()}))
		return &ir.ETApp{ExprMeta: meta, Fun: fn, Targs: targs}, nil
	}

	if site.decl.TypeArityOf() != len(targs) {
		p.diag.Warn(errors.NewWarning(errors.WARN001,
			"type application arity does not match declaration",
			map[string]any{"lid": ref.Lid.String(), "expected": site.decl.TypeArityOf(), "got": len(targs)}))
		return &ir.ETApp{ExprMeta: meta, Fun: fn, Targs: targs}, nil
	}

	key := ref.Lid.Key() + "<" + argsKey(targs) + ">"
	if chosen, ok := p.generatedLids[key]; ok {
		return &ir.EQualified{ExprMeta: meta, Lid: chosen}, nil
	}

	chosen := ref.Lid.WithName(ref.Lid.Name + "__" + argsSuffix(targs))
	p.generatedLids[key] = chosen
	p.tracer.Emit(trace.Monomorphization, "specializing %s at %v as %s", ref.Lid, targs, chosen)

	specialized, err := p.specializeDecl(site.decl, chosen, targs)
	if err != nil {
		return nil, err
	}
	p.pendingDefs = append(p.pendingDefs, specialized)

	return &ir.EQualified{ExprMeta: meta, Lid: chosen}, nil
}

func (p *Pass) specializeDecl(d ir.Decl, chosen ir.Lid, targs []ir.Typ) (ir.Decl, error) {
	ret := ir.SubstTN(targs, d.Typ)
	binders := make([]ir.Binder, len(d.Binders))
	for i, b := range d.Binders {
		binders[i] = ir.Binder{Name: b.Name, Type: ir.SubstTN(targs, b.Type)}
	}

	switch d.Kind {
	case ir.KindFunction:
		body := ir.SubstTEN(targs, d.FnBody)
		body, err := p.rewriteExpr(body)
		if err != nil {
			return ir.Decl{}, err
		}
		return ir.DFunction(d.CC, d.Flags.With(ir.AutoGenerated), 0, ret, chosen, binders, body), nil
	case ir.KindGlobal:
		var body ir.Expr
		if d.GlobalBody != nil {
			b := ir.SubstTEN(targs, d.GlobalBody)
			var err error
			if body, err = p.rewriteExpr(b); err != nil {
				return ir.Decl{}, err
			}
		}
		return ir.DGlobal(d.Flags.With(ir.AutoGenerated), chosen, 0, ret, body), nil
	default:
		return ir.Decl{}, nil
	}
}

func argsSuffix(ts []ir.Typ) string {
	s := ""
	for i, t := range ts {
		if i > 0 {
			s += "_"
		}
		s += ir.NormalizeSuffix(t.String())
	}
	return s
}
