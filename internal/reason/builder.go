package reason

import "github.com/vaucouleur/decision/internal/sat"

// Builder is the explanation-composition handle passed into theory calls.
// It exposes construction only; theories cannot inspect or rewrite nodes
// created by others.
//
// A Builder is scoped to one export or import call and must not be retained
// after the call returns.
type Builder struct {
	arena *Arena
}

// NewBuilder returns a builder appending into arena.
func NewBuilder(arena *Arena) *Builder {
	return &Builder{arena: arena}
}

// Lit creates a leaf for a decision literal.
func (b *Builder) Lit(l sat.Lit) ID {
	return b.arena.Lit(l)
}

// And composes kids, with the single-child identity of Arena.And.
func (b *Builder) And(kids ...ID) ID {
	return b.arena.And(kids...)
}
