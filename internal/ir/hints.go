package ir

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Hint is a user-provided type abbreviation whose left-hand side can be
// used as the generated name for the right-hand side's monomorphization
// (§4.1 "name hint"). It is only consulted when Node equals the node being
// named.
type Hint struct {
	Node Node
	Lid  Lid
}

// Matches reports whether h applies to n.
func (h *Hint) Matches(n Node) bool {
	return h != nil && h.Node.Key() == n.Key()
}

// NormalizeSuffix NFC-normalizes a literal text fragment (a base name or a
// user-supplied hint) before it is spliced into a generated name, so that
// two Unicode-equivalent spellings of the same identifier always produce
// the same Key() (§3 invariants 5 and 8).
func NormalizeSuffix(s string) string {
	return norm.NFC.String(s)
}

// PrettyTyp renders a type for use inside a generated name suffix. It is a
// *shallow* rewrite (§4.1 "naming"): any TApp/TTuple already resolved to a
// chosen name in state is replaced by that chosen name; everything else is
// printed structurally. This is what lets names converge on already-chosen
// ones instead of re-deriving a fresh suffix at every nesting level.
func PrettyTyp(state State, t Typ) string {
	switch tt := t.(type) {
	case TApp:
		if st, ok := state.Get(Node{Lid: tt.Head, Args: tt.Args}); ok {
			return NormalizeSuffix(st.Chosen.Name)
		}
		return NormalizeSuffix(tt.String())
	case TTuple:
		if st, ok := state.Get(Node{Lid: TupleLid, Args: tt.Elts}); ok {
			return NormalizeSuffix(st.Chosen.Name)
		}
		return NormalizeSuffix(tt.String())
	case TQualified:
		return NormalizeSuffix(tt.Lid.Name)
	default:
		return NormalizeSuffix(t.String())
	}
}

// PrettyArgs joins the shallow pretty-print of each argument with "_",
// matching the suffix shape used throughout §4 (e.g. "int32_bool").
func PrettyArgs(state State, args []Typ) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = PrettyTyp(state, a)
	}
	return strings.Join(parts, "_")
}

// SynthesizeName builds the "base ++ __ ++ prettyprint(args)" name of §4.1
// in the same module as base.
func SynthesizeName(state State, base Lid, args []Typ) Lid {
	suffix := PrettyArgs(state, args)
	return base.WithName(NormalizeSuffix(base.Name) + "__" + suffix)
}
