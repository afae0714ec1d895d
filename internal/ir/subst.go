package ir

// SubstTN performs capture-free De Bruijn substitution of the N outermost
// type variables of t by ts[0..N-1], where N = len(ts) (§9 "subst_tn").
// A TBound index beyond N refers to an enclosing abstraction and is shifted
// down rather than substituted.
func SubstTN(ts []Typ, t Typ) Typ {
	n := len(ts)
	switch tt := t.(type) {
	case TBound:
		if tt.Index < n {
			return ts[tt.Index]
		}
		return TBound{Index: tt.Index - n}
	case TQualified:
		return tt
	case TApp:
		args := make([]Typ, len(tt.Args))
		for i, a := range tt.Args {
			args[i] = SubstTN(ts, a)
		}
		return TApp{Head: tt.Head, Args: args}
	case TTuple:
		elts := make([]Typ, len(tt.Elts))
		for i, e := range tt.Elts {
			elts[i] = SubstTN(ts, e)
		}
		return TTuple{Elts: elts}
	case TInt, TBool, TUnit:
		return tt
	case TBuf:
		return TBuf{Elem: SubstTN(ts, tt.Elem), Const: tt.Const}
	case TArrow:
		return TArrow{Param: SubstTN(ts, tt.Param), Result: SubstTN(ts, tt.Result)}
	default:
		return t
	}
}

// SubstTNField substitutes through a Field's type, preserving its name and
// mutability flag.
func SubstTNField(ts []Typ, f Field) Field {
	return Field{Name: f.Name, Type: SubstTN(ts, f.Type), Mutable: f.Mutable}
}

// SubstTNFields substitutes through a field list.
func SubstTNFields(ts []Typ, fields []Field) []Field {
	out := make([]Field, len(fields))
	for i, f := range fields {
		out[i] = SubstTNField(ts, f)
	}
	return out
}

// SubstTNBranches substitutes through a variant's branch list.
func SubstTNBranches(ts []Typ, branches []Branch) []Branch {
	out := make([]Branch, len(branches))
	for i, b := range branches {
		out[i] = Branch{Ctor: b.Ctor, Fields: SubstTNFields(ts, b.Fields)}
	}
	return out
}

// SubstTEN pushes a type substitution through an expression tree, rewriting
// every type annotation it carries (§9 "subst_ten"). It does not touch
// value-level binder names; De Bruijn indices here are purely type-level.
func SubstTEN(ts []Typ, e Expr) Expr {
	if e == nil {
		return nil
	}
	base := e.Meta()
	base.Type = SubstTN(ts, base.Type)

	switch ex := e.(type) {
	case *EBound:
		return &EBound{ExprMeta: base, Index: ex.Index}
	case *EQualified:
		return &EQualified{ExprMeta: base, Lid: ex.Lid}
	case *EVar:
		return &EVar{ExprMeta: base, Name: ex.Name}
	case *EApp:
		args := make([]Expr, len(ex.Args))
		for i, a := range ex.Args {
			args[i] = SubstTEN(ts, a)
		}
		return &EApp{ExprMeta: base, Func: SubstTEN(ts, ex.Func), Args: args}
	case *ETApp:
		targs := make([]Typ, len(ex.Targs))
		for i, t := range ex.Targs {
			targs[i] = SubstTN(ts, t)
		}
		return &ETApp{ExprMeta: base, Fun: SubstTEN(ts, ex.Fun), Targs: targs}
	case *EOp:
		return &EOp{ExprMeta: base, Op: ex.Op, Width: ex.Width, Left: SubstTEN(ts, ex.Left), Right: SubstTEN(ts, ex.Right)}
	case *EPolyComp:
		return &EPolyComp{ExprMeta: base, Op: ex.Op, At: SubstTN(ts, ex.At)}
	case *ETuple:
		elems := make([]Expr, len(ex.Elems))
		for i, el := range ex.Elems {
			elems[i] = SubstTEN(ts, el)
		}
		return &ETuple{ExprMeta: base, Elems: elems}
	case *EFlat:
		fields := make([]FieldExpr, len(ex.Fields))
		for i, f := range ex.Fields {
			fields[i] = FieldExpr{Name: f.Name, Value: SubstTEN(ts, f.Value)}
		}
		return &EFlat{ExprMeta: base, Fields: fields}
	case *EField:
		return &EField{ExprMeta: base, Record: SubstTEN(ts, ex.Record), Name: ex.Name}
	case *EMatch:
		arms := make([]MatchArm, len(ex.Arms))
		for i, a := range ex.Arms {
			arms[i] = MatchArm{Pattern: a.Pattern, Body: SubstTEN(ts, a.Body)}
		}
		return &EMatch{ExprMeta: base, Scrutinee: SubstTEN(ts, ex.Scrutinee), Arms: arms}
	case *EBool:
		return &EBool{ExprMeta: base, Value: ex.Value}
	case *EUnit:
		return &EUnit{ExprMeta: base}
	case *EFun:
		return &EFun{ExprMeta: base, Params: ex.Params, Body: SubstTEN(ts, ex.Body)}
	case *ELet:
		return &ELet{ExprMeta: base, Name: ex.Name, Value: SubstTEN(ts, ex.Value), Body: SubstTEN(ts, ex.Body)}
	case *EIf:
		return &EIf{ExprMeta: base, Cond: SubstTEN(ts, ex.Cond), Then: SubstTEN(ts, ex.Then), Else: SubstTEN(ts, ex.Else)}
	case *EAddrOf:
		return &EAddrOf{ExprMeta: base, Operand: SubstTEN(ts, ex.Operand)}
	default:
		return e
	}
}
