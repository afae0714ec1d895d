package ir

import "testing"

func TestSubstTN_Bound(t *testing.T) {
	ts := []Typ{TInt{Width: 32}, TBool{}}
	got := SubstTN(ts, TBound{Index: 0})
	if got.Key() != (TInt{Width: 32}).Key() {
		t.Fatalf("expected TInt32, got %s", got.Key())
	}
}

func TestSubstTN_BoundShift(t *testing.T) {
	ts := []Typ{TInt{Width: 32}}
	got := SubstTN(ts, TBound{Index: 2})
	want := TBound{Index: 1}
	if got.Key() != want.Key() {
		t.Fatalf("expected shifted bound %s, got %s", want.Key(), got.Key())
	}
}

func TestSubstTN_App(t *testing.T) {
	ts := []Typ{TInt{Width: 64}}
	in := TApp{Head: NewLid([]string{"M"}, "list"), Args: []Typ{TBound{Index: 0}}}
	got := SubstTN(ts, in).(TApp)
	if got.Args[0].Key() != (TInt{Width: 64}).Key() {
		t.Fatalf("expected substituted arg, got %s", got.Args[0].Key())
	}
}

func TestSubstTEN_PropagatesIntoType(t *testing.T) {
	e := &EBound{ExprMeta: ExprMeta{Type: TBound{Index: 0}}, Index: 0}
	out := SubstTEN([]Typ{TBool{}}, e).(*EBound)
	if out.Meta().Type.Key() != (TBool{}).Key() {
		t.Fatalf("expected type rewritten to bool, got %s", out.Meta().Type.Key())
	}
}

func TestLid_TupleIdentity(t *testing.T) {
	if !TupleLid.IsTuple() {
		t.Fatal("TupleLid must report IsTuple")
	}
	if NewLid(nil, "foo").IsTuple() {
		t.Fatal("ordinary lid must not report IsTuple")
	}
}

func TestLid_WithName(t *testing.T) {
	l := NewLid([]string{"A", "B"}, "orig")
	renamed := l.WithName("renamed")
	if renamed.Name != "renamed" || renamed.Module[0] != "A" {
		t.Fatalf("unexpected renamed lid: %+v", renamed)
	}
	if l.Name != "orig" {
		t.Fatal("WithName must not mutate receiver")
	}
}

func TestSynthesizeName_Deterministic(t *testing.T) {
	state := State{}
	base := NewLid([]string{"M"}, "pair")
	args := []Typ{TInt{Width: 32}, TBool{}}
	a := SynthesizeName(state, base, args)
	b := SynthesizeName(state, base, args)
	if a.Key() != b.Key() {
		t.Fatalf("name synthesis must be deterministic: %s vs %s", a.Key(), b.Key())
	}
	if a.Name != "pair__int32_bool" {
		t.Fatalf("unexpected synthesized name: %s", a.Name)
	}
}

func TestNormalizeSuffix_NFC(t *testing.T) {
	composed := "é"   // precomposed e-acute
	decomposed := "é" // e + combining acute accent
	if NormalizeSuffix(composed) != NormalizeSuffix(decomposed) {
		t.Fatal("NFC-equivalent strings must normalize to the same suffix")
	}
}
