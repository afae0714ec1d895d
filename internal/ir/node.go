package ir

import "strings"

// Node is the unit of monomorphization for types: a type constructor
// paired with its effective argument vector (§3).
type Node struct {
	Lid  Lid
	Args []Typ
}

// Key returns a canonical string identity for the node, suitable for use
// as a map key in place of the (non-comparable) Node value itself.
func (n Node) Key() string {
	parts := make([]string, len(n.Args))
	for i, a := range n.Args {
		parts[i] = a.Key()
	}
	return n.Lid.Key() + "(" + strings.Join(parts, ",") + ")"
}

// Color is a node's traversal state: on-stack (Gray) or fully emitted
// (Black). Absence from a State map means white/unvisited (§3).
type Color int

const (
	Gray Color = iota
	Black
)

// NodeState is what the state map remembers about a visited node.
type NodeState struct {
	Color  Color
	Chosen Lid
}

// State is the node->state map threaded through one run of the data-type
// monomorphizer (§3 "state[(lid,args)] = (Black, chosen_lid)").
type State map[string]*NodeState

// Get looks up a node's recorded state, if any.
func (s State) Get(n Node) (*NodeState, bool) {
	st, ok := s[n.Key()]
	return st, ok
}

// MarkGray records n as currently on the traversal stack.
func (s State) MarkGray(n Node, chosen Lid) {
	s[n.Key()] = &NodeState{Color: Gray, Chosen: chosen}
}

// MarkBlack records n as fully emitted.
func (s State) MarkBlack(n Node, chosen Lid) {
	s[n.Key()] = &NodeState{Color: Black, Chosen: chosen}
}

// Remove deletes a node's state, used by the deferral case of §4.1 to
// re-enter a node later.
func (s State) Remove(n Node) {
	delete(s, n.Key())
}
