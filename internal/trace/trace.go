// Package trace implements the two debug trace flags of §6:
// "monomorphization" and "data-types-traversal".
package trace

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Flags names which trace channels are enabled.
type Flags struct {
	Monomorphization   bool
	DataTypesTraversal bool
}

// Named trace channel identifiers, matching §6 exactly.
const (
	Monomorphization   = "monomorphization"
	DataTypesTraversal = "data-types-traversal"
)

var (
	visitColor  = color.New(color.FgCyan).SprintfFunc()
	emitColor   = color.New(color.FgGreen).SprintfFunc()
	deferColor  = color.New(color.FgYellow).SprintfFunc()
	cycleColor  = color.New(color.FgRed).SprintfFunc()
)

// Tracer writes colorized trace lines to Out when the named channel is
// enabled. A nil *Tracer is a valid no-op.
type Tracer struct {
	Flags Flags
	Out   io.Writer
}

func (t *Tracer) enabled(channel string) bool {
	if t == nil || t.Out == nil {
		return false
	}
	switch channel {
	case Monomorphization:
		return t.Flags.Monomorphization
	case DataTypesTraversal:
		return t.Flags.DataTypesTraversal
	default:
		return false
	}
}

// Visit logs entry into visit_node/ETApp dispatch.
func (t *Tracer) Visit(channel, format string, args ...interface{}) {
	if !t.enabled(channel) {
		return
	}
	fmt.Fprintln(t.Out, visitColor("visit: "+format, args...))
}

// Emit logs a declaration being enqueued for emission.
func (t *Tracer) Emit(channel, format string, args ...interface{}) {
	if !t.enabled(channel) {
		return
	}
	fmt.Fprintln(t.Out, emitColor("emit: "+format, args...))
}

// Defer logs a forward declaration or deferral.
func (t *Tracer) Defer(channel, format string, args ...interface{}) {
	if !t.enabled(channel) {
		return
	}
	fmt.Fprintln(t.Out, deferColor("defer: "+format, args...))
}

// Cycle logs a cycle closure (Gray revisit, or equality mutual recursion).
func (t *Tracer) Cycle(channel, format string, args ...interface{}) {
	if !t.enabled(channel) {
		return
	}
	fmt.Fprintln(t.Out, cycleColor("cycle: "+format, args...))
}
