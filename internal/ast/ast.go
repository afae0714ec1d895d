// Package ast carries the source-location types shared by every downstream
// intermediate representation. The surface grammar itself belongs to the
// parser that produced the typed IR this module consumes; only positions
// survive into diagnostics.
package ast

import "fmt"

// Pos represents a position in the original source code.
type Pos struct {
	Line   int
	Column int
	File   string
	Offset int
}

func (p Pos) String() string {
	if p.File == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Column)
	}
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

// Span represents a range in source code, used to anchor diagnostics.
type Span struct {
	Start Pos
	End   Pos
}

func (s Span) String() string {
	return fmt.Sprintf("%s-%s", s.Start, s.End)
}
